package audit

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"chatguard-bot/internal/repository"
)

// Entry is one moderation event headed for a chat's log channel. Field is
// the coalescing key component for debounced entries; immediate entries can
// leave it empty.
type Entry struct {
	ChatID    int64
	ChatTitle string
	AdminID   int64
	AdminName string
	Action    string
	Field     string
	Reason    string
	Source    repository.PunishmentSource
	Timestamp time.Time
}

// Sink delivers a rendered entry to an external log channel.
type Sink interface {
	Send(ctx context.Context, channelID int64, text string) error
}

// ChannelResolver maps a chat to its configured log channel; ok=false means
// no logging is configured, which is a silent drop, not an error.
type ChannelResolver interface {
	LogChannel(ctx context.Context, chatID int64) (int64, bool)
}

type pending struct {
	entry Entry
	timer *time.Timer
}

type Dispatcher struct {
	logger   *slog.Logger
	sink     Sink
	channels ChannelResolver
	window   time.Duration

	mu      sync.Mutex
	pending map[string]*pending
}

const DefaultDebounceWindow = 3 * time.Second

func NewDispatcher(logger *slog.Logger, sink Sink, channels ChannelResolver, window time.Duration) *Dispatcher {
	if window <= 0 {
		window = DefaultDebounceWindow
	}
	return &Dispatcher{
		logger:   logger,
		sink:     sink,
		channels: channels,
		window:   window,
		pending:  make(map[string]*pending),
	}
}

// LogImmediate dispatches the entry right away. Discrete events (warn,
// punish, toggle on/off, add/remove) always take this path.
func (d *Dispatcher) LogImmediate(ctx context.Context, e Entry) {
	channelID, ok := d.channels.LogChannel(ctx, e.ChatID)
	if !ok {
		return
	}
	if err := d.sink.Send(ctx, channelID, Render(e)); err != nil {
		d.logger.Error("Failed to dispatch audit entry",
			"chat_id", e.ChatID, "action", e.Action, "error", err)
	}
}

// LogDebounced coalesces entries sharing (chat, field) within the window:
// each arrival replaces the pending payload and rearms the single flush
// timer, so a burst of edits produces one entry carrying the final state.
func (d *Dispatcher) LogDebounced(e Entry) {
	key := fmt.Sprintf("%d:%s", e.ChatID, e.Field)

	d.mu.Lock()
	defer d.mu.Unlock()

	if p, ok := d.pending[key]; ok {
		p.entry = e
		p.timer.Reset(d.window)
		return
	}

	p := &pending{entry: e}
	p.timer = time.AfterFunc(d.window, func() { d.flush(key) })
	d.pending[key] = p
}

func (d *Dispatcher) flush(key string) {
	d.mu.Lock()
	p, ok := d.pending[key]
	delete(d.pending, key)
	d.mu.Unlock()

	if !ok {
		return
	}
	d.LogImmediate(context.Background(), p.entry)
}

// Flush force-dispatches everything still pending, for shutdown.
func (d *Dispatcher) Flush() {
	d.mu.Lock()
	keys := make([]string, 0, len(d.pending))
	for key, p := range d.pending {
		p.timer.Stop()
		keys = append(keys, key)
	}
	d.mu.Unlock()

	for _, key := range keys {
		d.flush(key)
	}
}

func Render(e Entry) string {
	ts := e.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	who := e.AdminName
	if who == "" {
		who = fmt.Sprintf("user %d", e.AdminID)
	}
	text := fmt.Sprintf("[%s] %s by %s", ts.Format(time.RFC822), e.Action, who)
	if e.Source != "" {
		text += fmt.Sprintf(" (%s)", e.Source)
	}
	if e.Reason != "" {
		text += ": " + e.Reason
	}
	return text
}
