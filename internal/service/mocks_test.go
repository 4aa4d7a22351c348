package service

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"time"

	"chatguard-bot/internal/audit"
	"chatguard-bot/internal/repository"
)

type mockConfigRepo struct {
	config *repository.ChatConfig
	err    error

	updated *repository.ChatConfig
}

func (m *mockConfigRepo) GetConfig(_ context.Context, chatID int64) (*repository.ChatConfig, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.config != nil {
		return m.config, nil
	}
	return &repository.ChatConfig{
		ChatID:                 chatID,
		MaxWarnings:            3,
		WarningTTLHours:        24,
		ThresholdAction:        repository.ActionMute,
		DefaultBlocklistAction: repository.ActionWarn,
		ScanEnabled:            true,
	}, nil
}

func (m *mockConfigRepo) UpdateConfig(_ context.Context, cfg *repository.ChatConfig) error {
	m.updated = cfg
	m.config = cfg
	return nil
}

func (m *mockConfigRepo) InitConfig(context.Context, int64) error { return nil }

type mockPatternRepo struct {
	upsertFn func(p *repository.BlocklistPattern) (*repository.BlocklistPattern, bool, error)
	deleteFn func(chatID int64, id uint) error
	patterns []repository.BlocklistPattern
}

func (m *mockPatternRepo) Upsert(_ context.Context, p *repository.BlocklistPattern) (*repository.BlocklistPattern, bool, error) {
	if m.upsertFn != nil {
		return m.upsertFn(p)
	}
	return p, false, nil
}

func (m *mockPatternRepo) Delete(_ context.Context, chatID int64, id uint) error {
	if m.deleteFn != nil {
		return m.deleteFn(chatID, id)
	}
	return nil
}

func (m *mockPatternRepo) ListForChat(context.Context, int64) ([]repository.BlocklistPattern, error) {
	return m.patterns, nil
}

// memWarningRepo mimics the transactional insert-and-count so concurrent
// callers can race against it like they would against Postgres.
type memWarningRepo struct {
	mu       sync.Mutex
	warnings []repository.Warning
}

func (m *memWarningRepo) countLocked(chatID, userID int64) int64 {
	var n int64
	now := time.Now()
	for _, w := range m.warnings {
		if w.ChatID == chatID && w.UserID == userID && w.Active && w.ExpiresAt.After(now) {
			n++
		}
	}
	return n
}

func (m *memWarningRepo) InsertAndCount(_ context.Context, w *repository.Warning) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w.ID = uint(len(m.warnings) + 1)
	m.warnings = append(m.warnings, *w)
	return m.countLocked(w.ChatID, w.UserID), nil
}

func (m *memWarningRepo) CountActive(_ context.Context, chatID, userID int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.countLocked(chatID, userID), nil
}

func (m *memWarningRepo) DeactivateAll(_ context.Context, chatID, userID int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for i := range m.warnings {
		if m.warnings[i].ChatID == chatID && m.warnings[i].UserID == userID && m.warnings[i].Active {
			m.warnings[i].Active = false
			n++
		}
	}
	return n, nil
}

func (m *memWarningRepo) ListActive(_ context.Context, chatID, userID int64) ([]repository.Warning, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []repository.Warning
	now := time.Now()
	for _, w := range m.warnings {
		if w.ChatID == chatID && w.UserID == userID && w.Active && w.ExpiresAt.After(now) {
			out = append(out, w)
		}
	}
	return out, nil
}

type mockPunishmentRepo struct {
	mu      sync.Mutex
	created []repository.Punishment
	err     error
}

func (m *mockPunishmentRepo) Create(_ context.Context, p *repository.Punishment) error {
	if m.err != nil {
		return m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.created = append(m.created, *p)
	return nil
}

func (m *mockPunishmentRepo) ListRecent(_ context.Context, chatID int64, limit int) ([]repository.Punishment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []repository.Punishment
	for i := len(m.created) - 1; i >= 0 && len(out) < limit; i-- {
		if m.created[i].ChatID == chatID {
			out = append(out, m.created[i])
		}
	}
	return out, nil
}

func (m *mockPunishmentRepo) IncrementStat(context.Context, int64, string) error { return nil }

func (m *mockPunishmentRepo) GetChatTotalStats(context.Context, int64) (*repository.ChatStats, error) {
	return &repository.ChatStats{}, nil
}

func (m *mockPunishmentRepo) rows() []repository.Punishment {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]repository.Punishment, len(m.created))
	copy(out, m.created)
	return out
}

type mockRestrictionRepo struct {
	applyErr error
	applied  []repository.RestrictionKind
	lifted   bool
}

func (m *mockRestrictionRepo) Apply(_ context.Context, _, _ int64, kind repository.RestrictionKind, _ time.Time) error {
	if m.applyErr != nil {
		return m.applyErr
	}
	m.applied = append(m.applied, kind)
	return nil
}

func (m *mockRestrictionRepo) Lift(context.Context, int64, int64, repository.RestrictionKind) (bool, error) {
	return m.lifted, nil
}

func (m *mockRestrictionRepo) IsRestricted(context.Context, int64, int64) (bool, repository.RestrictionKind, time.Time, error) {
	return false, "", time.Time{}, nil
}

func (m *mockRestrictionRepo) CountActive(context.Context) (int64, error) { return 0, nil }
func (m *mockRestrictionRepo) DeleteExpired(context.Context) error        { return nil }

type mockSessionRepo struct {
	session   *repository.AdminSession
	connected []int64
}

func (m *mockSessionRepo) Connect(_ context.Context, userID, chatID int64, chatTitle string) error {
	m.connected = append(m.connected, chatID)
	m.session = &repository.AdminSession{UserID: userID, ChatID: chatID, ChatTitle: chatTitle}
	return nil
}

func (m *mockSessionRepo) Disconnect(context.Context, int64) error {
	m.session = nil
	return nil
}

func (m *mockSessionRepo) Get(context.Context, int64) (*repository.AdminSession, error) {
	return m.session, nil
}

type mockTokenRepo struct {
	token   *repository.PairingToken
	getErr  error
	deleted []string
}

func (m *mockTokenRepo) Create(context.Context, int64, time.Duration) (string, error) {
	return "tok", nil
}

func (m *mockTokenRepo) Get(context.Context, string) (*repository.PairingToken, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	return m.token, nil
}

func (m *mockTokenRepo) Delete(_ context.Context, token string) error {
	m.deleted = append(m.deleted, token)
	return nil
}

func (m *mockTokenRepo) DeleteExpired(context.Context) error { return nil }

type mockPlatform struct {
	muteErr   error
	banErr    error
	kickErr   error
	unmuteOK  bool
	unbanOK   bool
	mutes     []int64
	bans      []int64
	kicks     []int64
	messages  []string
	deleted   []string
	muteUntil *time.Time
}

func (m *mockPlatform) Mute(_ context.Context, _, userID int64, until *time.Time) error {
	if m.muteErr != nil {
		return m.muteErr
	}
	m.mutes = append(m.mutes, userID)
	m.muteUntil = until
	return nil
}

func (m *mockPlatform) Ban(_ context.Context, _, userID int64, _ *time.Time) error {
	if m.banErr != nil {
		return m.banErr
	}
	m.bans = append(m.bans, userID)
	return nil
}

func (m *mockPlatform) Kick(_ context.Context, _, userID int64) error {
	if m.kickErr != nil {
		return m.kickErr
	}
	m.kicks = append(m.kicks, userID)
	return nil
}

func (m *mockPlatform) Unmute(context.Context, int64, int64) (bool, error) {
	return m.unmuteOK, nil
}

func (m *mockPlatform) Unban(context.Context, int64, int64) (bool, error) {
	return m.unbanOK, nil
}

func (m *mockPlatform) SendMessage(_ context.Context, _ int64, text string) (string, error) {
	m.messages = append(m.messages, text)
	return "mid.1", nil
}

func (m *mockPlatform) DeleteMessage(_ context.Context, messageID string) error {
	m.deleted = append(m.deleted, messageID)
	return nil
}

type mockAdminSource struct {
	admins []int64
}

func (m *mockAdminSource) ListAdmins(context.Context, int64) ([]int64, error) {
	return m.admins, nil
}

type dropSink struct{}

func (dropSink) Send(context.Context, int64, string) error { return nil }

type noChannel struct{}

func (noChannel) LogChannel(context.Context, int64) (int64, bool) { return 0, false }

type testDeps struct {
	configs      *mockConfigRepo
	patterns     *mockPatternRepo
	warnings     *memWarningRepo
	punishments  *mockPunishmentRepo
	restrictions *mockRestrictionRepo
	sessions     *mockSessionRepo
	tokens       *mockTokenRepo
	platform     *mockPlatform
}

func newTestService(deps *testDeps) (Service, *testDeps) {
	if deps == nil {
		deps = &testDeps{}
	}
	if deps.configs == nil {
		deps.configs = &mockConfigRepo{}
	}
	if deps.patterns == nil {
		deps.patterns = &mockPatternRepo{}
	}
	if deps.warnings == nil {
		deps.warnings = &memWarningRepo{}
	}
	if deps.punishments == nil {
		deps.punishments = &mockPunishmentRepo{}
	}
	if deps.restrictions == nil {
		deps.restrictions = &mockRestrictionRepo{}
	}
	if deps.sessions == nil {
		deps.sessions = &mockSessionRepo{}
	}
	if deps.tokens == nil {
		deps.tokens = &mockTokenRepo{}
	}
	if deps.platform == nil {
		deps.platform = &mockPlatform{}
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	dispatcher := audit.NewDispatcher(logger, dropSink{}, noChannel{}, time.Millisecond)

	svc := NewModerationService(
		logger,
		deps.configs,
		deps.patterns,
		deps.warnings,
		deps.punishments,
		deps.restrictions,
		deps.sessions,
		deps.tokens,
		deps.platform,
		&mockAdminSource{},
		dispatcher,
	)
	return svc, deps
}
