package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"chatguard-bot/internal/audit"
	"chatguard-bot/internal/keylock"
	"chatguard-bot/internal/metrics"
	"chatguard-bot/internal/permcache"
	"chatguard-bot/internal/pipeline"
	"chatguard-bot/internal/pipeline/filters"
	"chatguard-bot/internal/platform"
	"chatguard-bot/internal/repository"
)

type Service interface {
	ScanMessage(ctx context.Context, payload pipeline.Payload) (*pipeline.Result, error)
	IsChatAdmin(ctx context.Context, chatID, userID int64, forceRefresh bool) (bool, error)

	IssueWarning(ctx context.Context, chatID, userID, issuedByID int64, reason string) (*WarningOutcome, error)
	RemoveWarnings(ctx context.Context, chatID, userID, issuedByID int64) error

	ExecutePunishment(ctx context.Context, req PunishmentRequest) bool
	Unmute(ctx context.Context, chatID, adminID, userID int64) (bool, error)
	Unban(ctx context.Context, chatID, adminID, userID int64) (bool, error)

	AddPattern(ctx context.Context, chatID int64, input PatternInput) (*repository.BlocklistPattern, bool, error)
	RemovePattern(ctx context.Context, chatID int64, id uint) error
	ListPatterns(ctx context.Context, chatID int64) ([]repository.BlocklistPattern, error)

	Connect(ctx context.Context, userID, chatID int64, chatTitle string) error
	Disconnect(ctx context.Context, userID int64) error
	GetSession(ctx context.Context, userID int64) (*repository.AdminSession, error)
	GeneratePairingToken(ctx context.Context, userID int64) (string, error)
	RedeemPairingToken(ctx context.Context, token string, chatID, userID int64, chatTitle string) error

	GetChatConfig(ctx context.Context, chatID int64) (*repository.ChatConfig, error)
	ToggleScan(ctx context.Context, chatID, adminID int64) (bool, error)
	AdjustMaxWarnings(ctx context.Context, chatID, adminID int64, delta int) (int, error)
	CycleThresholdAction(ctx context.Context, chatID, adminID int64) (repository.ActionType, error)
	SetLogChannel(ctx context.Context, chatID, adminID int64, channelID *int64) error

	GetChatStats(ctx context.Context, chatID int64) (*repository.ChatStats, error)
	RecentPunishments(ctx context.Context, chatID int64, limit int) ([]repository.Punishment, error)

	StartMetricsUpdater(ctx context.Context)
	StartSweeper(ctx context.Context)
}

type ModerationService struct {
	logger          *slog.Logger
	configRepo      repository.ConfigRepository
	patternRepo     repository.PatternRepository
	warningRepo     repository.WarningRepository
	punishmentRepo  repository.PunishmentRepository
	restrictionRepo repository.RestrictionRepository
	sessionRepo     repository.SessionRepository
	tokenRepo       repository.PairingTokenRepository
	platform        platform.Client
	permCache       *permcache.Cache
	auditLog        *audit.Dispatcher
	pipeline        *pipeline.Manager
	warnLocks       *keylock.KeyLock
	tracer          trace.Tracer
}

const (
	adminCacheTTL  = 2 * time.Minute
	pairingTTL     = 24 * time.Hour
	floodLimit     = 5
	floodWindow    = time.Second
	sweepInterval  = time.Minute
	metricInterval = time.Minute
)

func NewModerationService(
	logger *slog.Logger,
	configRepo repository.ConfigRepository,
	patternRepo repository.PatternRepository,
	warningRepo repository.WarningRepository,
	punishmentRepo repository.PunishmentRepository,
	restrictionRepo repository.RestrictionRepository,
	sessionRepo repository.SessionRepository,
	tokenRepo repository.PairingTokenRepository,
	client platform.Client,
	admins permcache.AdminSource,
	auditLog *audit.Dispatcher,
) Service {
	floodFilter := filters.NewFloodFilter(floodLimit, floodWindow)
	restrictionFilter := filters.NewRestrictionFilter(restrictionRepo)
	blocklistFilter := filters.NewBlocklistFilter(configRepo, patternRepo, punishmentRepo)

	return &ModerationService{
		logger:          logger,
		configRepo:      configRepo,
		patternRepo:     patternRepo,
		warningRepo:     warningRepo,
		punishmentRepo:  punishmentRepo,
		restrictionRepo: restrictionRepo,
		sessionRepo:     sessionRepo,
		tokenRepo:       tokenRepo,
		platform:        client,
		permCache:       permcache.New(admins, adminCacheTTL),
		auditLog:        auditLog,
		pipeline:        pipeline.NewManager(logger, floodFilter, restrictionFilter, blocklistFilter),
		warnLocks:       keylock.New(),
		tracer:          otel.Tracer("service"),
	}
}

func (s *ModerationService) ScanMessage(ctx context.Context, payload pipeline.Payload) (*pipeline.Result, error) {
	ctx, span := s.tracer.Start(ctx, "ScanMessage")
	defer span.End()

	start := time.Now()
	res, err := s.pipeline.Process(ctx, payload)
	metrics.ObserveScan(time.Since(start).Seconds(), err)

	s.logger.Debug("Scanned message", "chat_id", payload.ChatID, "user_id", payload.SenderID)
	return res, err
}

func (s *ModerationService) IsChatAdmin(ctx context.Context, chatID, userID int64, forceRefresh bool) (bool, error) {
	ctx, span := s.tracer.Start(ctx, "IsChatAdmin")
	defer span.End()
	return s.permCache.IsAdmin(ctx, userID, chatID, forceRefresh)
}

func (s *ModerationService) GetChatConfig(ctx context.Context, chatID int64) (*repository.ChatConfig, error) {
	ctx, span := s.tracer.Start(ctx, "GetChatConfig")
	defer span.End()
	return s.configRepo.GetConfig(ctx, chatID)
}

// ToggleScan flips passive scanning for the chat. A toggle is a discrete
// event and is audited immediately.
func (s *ModerationService) ToggleScan(ctx context.Context, chatID, adminID int64) (bool, error) {
	ctx, span := s.tracer.Start(ctx, "ToggleScan")
	defer span.End()

	cfg, err := s.configRepo.GetConfig(ctx, chatID)
	if err != nil {
		return false, err
	}
	cfg.ScanEnabled = !cfg.ScanEnabled
	if err := s.configRepo.UpdateConfig(ctx, cfg); err != nil {
		return false, err
	}

	s.auditLog.LogImmediate(ctx, audit.Entry{
		ChatID:    chatID,
		AdminID:   adminID,
		Action:    "SCAN_TOGGLED",
		Reason:    fmt.Sprintf("scanning = %v", cfg.ScanEnabled),
		Timestamp: time.Now(),
	})
	return cfg.ScanEnabled, nil
}

// AdjustMaxWarnings steps the threshold up or down. Rapid stepping is a
// live edit, so the audit entry is debounced per (chat, field).
func (s *ModerationService) AdjustMaxWarnings(ctx context.Context, chatID, adminID int64, delta int) (int, error) {
	ctx, span := s.tracer.Start(ctx, "AdjustMaxWarnings")
	defer span.End()

	cfg, err := s.configRepo.GetConfig(ctx, chatID)
	if err != nil {
		return 0, err
	}
	next := cfg.MaxWarnings + delta
	if next < 1 {
		next = 1
	}
	cfg.MaxWarnings = next
	if err := s.configRepo.UpdateConfig(ctx, cfg); err != nil {
		return 0, err
	}

	s.auditLog.LogDebounced(audit.Entry{
		ChatID:    chatID,
		AdminID:   adminID,
		Action:    "CONFIG_EDIT",
		Field:     "max_warnings",
		Reason:    fmt.Sprintf("max warnings = %d", cfg.MaxWarnings),
		Timestamp: time.Now(),
	})
	return cfg.MaxWarnings, nil
}

var thresholdCycle = []repository.ActionType{
	repository.ActionMute,
	repository.ActionKick,
	repository.ActionBan,
	repository.ActionNothing,
}

func (s *ModerationService) CycleThresholdAction(ctx context.Context, chatID, adminID int64) (repository.ActionType, error) {
	ctx, span := s.tracer.Start(ctx, "CycleThresholdAction")
	defer span.End()

	cfg, err := s.configRepo.GetConfig(ctx, chatID)
	if err != nil {
		return "", err
	}
	next := thresholdCycle[0]
	for i, a := range thresholdCycle {
		if a == cfg.ThresholdAction {
			next = thresholdCycle[(i+1)%len(thresholdCycle)]
			break
		}
	}
	cfg.ThresholdAction = next
	if err := s.configRepo.UpdateConfig(ctx, cfg); err != nil {
		return "", err
	}

	s.auditLog.LogDebounced(audit.Entry{
		ChatID:    chatID,
		AdminID:   adminID,
		Action:    "CONFIG_EDIT",
		Field:     "threshold_action",
		Reason:    fmt.Sprintf("threshold action = %s", next),
		Timestamp: time.Now(),
	})
	return next, nil
}

func (s *ModerationService) SetLogChannel(ctx context.Context, chatID, adminID int64, channelID *int64) error {
	ctx, span := s.tracer.Start(ctx, "SetLogChannel")
	defer span.End()

	cfg, err := s.configRepo.GetConfig(ctx, chatID)
	if err != nil {
		return err
	}
	cfg.LogChannelID = channelID
	if err := s.configRepo.UpdateConfig(ctx, cfg); err != nil {
		return err
	}

	state := "cleared"
	if channelID != nil {
		state = fmt.Sprintf("%d", *channelID)
	}
	s.auditLog.LogImmediate(ctx, audit.Entry{
		ChatID:    chatID,
		AdminID:   adminID,
		Action:    "LOG_CHANNEL_SET",
		Reason:    "log channel = " + state,
		Timestamp: time.Now(),
	})
	return nil
}

func (s *ModerationService) GetChatStats(ctx context.Context, chatID int64) (*repository.ChatStats, error) {
	ctx, span := s.tracer.Start(ctx, "GetChatStats")
	defer span.End()
	return s.punishmentRepo.GetChatTotalStats(ctx, chatID)
}

func (s *ModerationService) StartMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(metricInterval)

	update := func() {
		count, err := s.restrictionRepo.CountActive(ctx)
		if err != nil {
			s.logger.Error("Failed to count active restrictions", "error", err)
			return
		}
		metrics.SetActiveRestrictions(float64(count))
	}

	go update()

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				update()
			}
		}
	}()
}

// StartSweeper periodically clears expired restrictions and pairing tokens.
func (s *ModerationService) StartSweeper(ctx context.Context) {
	ticker := time.NewTicker(sweepInterval)

	sweep := func() {
		if err := s.restrictionRepo.DeleteExpired(ctx); err != nil {
			s.logger.Error("Failed to sweep expired restrictions", "error", err)
		}
		if err := s.tokenRepo.DeleteExpired(ctx); err != nil {
			s.logger.Error("Failed to sweep expired tokens", "error", err)
		}
	}

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				sweep()
			}
		}
	}()
}
