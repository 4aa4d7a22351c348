package filters

import (
	"context"
	"time"

	"chatguard-bot/internal/repository"
)

type mockConfigRepo struct {
	cfg *repository.ChatConfig
	err error
}

func (m *mockConfigRepo) GetConfig(_ context.Context, chatID int64) (*repository.ChatConfig, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.cfg != nil {
		return m.cfg, nil
	}
	return &repository.ChatConfig{ChatID: chatID, ScanEnabled: true, DefaultBlocklistAction: repository.ActionWarn}, nil
}

func (m *mockConfigRepo) UpdateConfig(_ context.Context, cfg *repository.ChatConfig) error {
	m.cfg = cfg
	return m.err
}

func (m *mockConfigRepo) InitConfig(_ context.Context, _ int64) error {
	return m.err
}

type mockPatternRepo struct {
	patterns []repository.BlocklistPattern
	err      error
}

func (m *mockPatternRepo) Upsert(_ context.Context, p *repository.BlocklistPattern) (*repository.BlocklistPattern, bool, error) {
	return p, false, m.err
}

func (m *mockPatternRepo) Delete(_ context.Context, _ int64, _ uint) error {
	return m.err
}

func (m *mockPatternRepo) ListForChat(_ context.Context, _ int64) ([]repository.BlocklistPattern, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.patterns, nil
}

type mockPunishmentRepo struct {
	created []repository.Punishment
}

func (m *mockPunishmentRepo) Create(_ context.Context, p *repository.Punishment) error {
	m.created = append(m.created, *p)
	return nil
}

func (m *mockPunishmentRepo) ListRecent(_ context.Context, _ int64, _ int) ([]repository.Punishment, error) {
	return nil, nil
}

func (m *mockPunishmentRepo) IncrementStat(_ context.Context, _ int64, _ string) error {
	return nil
}

func (m *mockPunishmentRepo) GetChatTotalStats(_ context.Context, chatID int64) (*repository.ChatStats, error) {
	return &repository.ChatStats{ChatID: chatID}, nil
}

type mockRestrictionRepo struct {
	restricted bool
	kind       repository.RestrictionKind
	expiresAt  time.Time
	err        error
}

func (m *mockRestrictionRepo) Apply(_ context.Context, _, _ int64, _ repository.RestrictionKind, _ time.Time) error {
	return m.err
}

func (m *mockRestrictionRepo) Lift(_ context.Context, _, _ int64, _ repository.RestrictionKind) (bool, error) {
	return false, m.err
}

func (m *mockRestrictionRepo) IsRestricted(_ context.Context, _, _ int64) (bool, repository.RestrictionKind, time.Time, error) {
	return m.restricted, m.kind, m.expiresAt, m.err
}

func (m *mockRestrictionRepo) CountActive(_ context.Context) (int64, error) {
	return 0, m.err
}

func (m *mockRestrictionRepo) DeleteExpired(_ context.Context) error {
	return m.err
}
