package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const Namespace = "chatguard"

var (
	Punishments = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "punishments_total",
		Help:      "Total punishments executed, by type, source and result",
	}, []string{"type", "source", "result"})

	WarningsIssued = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "warnings_issued_total",
		Help:      "Total warnings issued",
	})

	ThresholdTriggers = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "threshold_triggers_total",
		Help:      "Total warning-threshold escalations",
	})

	BlocklistHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "blocklist_hits_total",
		Help:      "Total blocklist matches, by action taken",
	}, []string{"action"})

	DeletedMessages = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "deleted_messages_total",
		Help:      "Total deleted messages, by reason",
	}, []string{"reason"})

	WebhookRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "webhook_rejections_total",
		Help:      "Inbound webhook events rejected before processing",
	}, []string{"reason"})

	ScanDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: Namespace,
		Name:      "scan_duration_seconds",
		Help:      "Duration of message scans",
		Buckets:   prometheus.DefBuckets,
	}, []string{"status"})

	FilterVerdicts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "filter_verdicts_total",
		Help:      "Pipeline filter verdicts, by filter and outcome",
	}, []string{"filter", "verdict"})

	ActiveRestrictions = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: Namespace,
		Name:      "active_restrictions",
		Help:      "Number of currently active mutes and bans",
	})
)

func IncPunishment(punishmentType, source, result string) {
	Punishments.WithLabelValues(punishmentType, source, result).Inc()
}

func IncBlocklistHit(action string) {
	BlocklistHits.WithLabelValues(action).Inc()
}

func IncDeletedMessages(reason string) {
	DeletedMessages.WithLabelValues(reason).Inc()
}

func IncWebhookRejection(reason string) {
	WebhookRejections.WithLabelValues(reason).Inc()
}

func IncFilterVerdict(filter, verdict string) {
	FilterVerdicts.WithLabelValues(filter, verdict).Inc()
}

func SetActiveRestrictions(count float64) {
	ActiveRestrictions.Set(count)
}

func ObserveScan(duration float64, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	ScanDuration.WithLabelValues(status).Observe(duration)
}
