package platform

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	maxbot "github.com/max-messenger/max-bot-api-client-go"

	"chatguard-bot/internal/repository"
)

// Client is the chat-platform collaborator the punishment executor talks
// to. Implementations may enforce restrictions platform-side or bot-side;
// the engine only cares about success or failure.
type Client interface {
	Mute(ctx context.Context, chatID, userID int64, until *time.Time) error
	Ban(ctx context.Context, chatID, userID int64, until *time.Time) error
	Kick(ctx context.Context, chatID, userID int64) error
	Unmute(ctx context.Context, chatID, userID int64) (bool, error)
	Unban(ctx context.Context, chatID, userID int64) (bool, error)
	SendMessage(ctx context.Context, chatID int64, text string) (string, error)
	DeleteMessage(ctx context.Context, messageID string) error
}

// BotClient backs Client with the Max bot API. Mutes and bans are tracked
// bot-side: the restriction rows drive message deletion in the scan
// pipeline, since the platform offers no per-user silence primitive. Kicks
// and bans additionally remove the member.
type BotClient struct {
	logger       *slog.Logger
	bot          *maxbot.Api
	restrictions repository.RestrictionRepository
}

func NewBotClient(logger *slog.Logger, bot *maxbot.Api, restrictions repository.RestrictionRepository) *BotClient {
	return &BotClient{logger: logger, bot: bot, restrictions: restrictions}
}

func expiry(until *time.Time) time.Time {
	if until == nil {
		return repository.Permanent
	}
	return *until
}

func (c *BotClient) Mute(ctx context.Context, chatID, userID int64, until *time.Time) error {
	if err := c.restrictions.Apply(ctx, chatID, userID, repository.RestrictionMute, expiry(until)); err != nil {
		return fmt.Errorf("failed to mute user: %w", err)
	}
	return nil
}

func (c *BotClient) Ban(ctx context.Context, chatID, userID int64, until *time.Time) error {
	if err := c.restrictions.Apply(ctx, chatID, userID, repository.RestrictionBan, expiry(until)); err != nil {
		return fmt.Errorf("failed to ban user: %w", err)
	}
	// Removal failure is not fatal: the restriction row keeps the user
	// silenced if they are still in (or rejoin) the chat.
	if _, err := c.bot.Chats.RemoveMember(ctx, chatID, userID); err != nil {
		c.logger.Warn("Failed to remove banned member", "chat_id", chatID, "user_id", userID, "error", err)
	}
	return nil
}

func (c *BotClient) Kick(ctx context.Context, chatID, userID int64) error {
	if _, err := c.bot.Chats.RemoveMember(ctx, chatID, userID); err != nil {
		return fmt.Errorf("failed to kick user: %w", err)
	}
	return nil
}

func (c *BotClient) Unmute(ctx context.Context, chatID, userID int64) (bool, error) {
	lifted, err := c.restrictions.Lift(ctx, chatID, userID, repository.RestrictionMute)
	if err != nil {
		return false, fmt.Errorf("failed to unmute user: %w", err)
	}
	return lifted, nil
}

func (c *BotClient) Unban(ctx context.Context, chatID, userID int64) (bool, error) {
	lifted, err := c.restrictions.Lift(ctx, chatID, userID, repository.RestrictionBan)
	if err != nil {
		return false, fmt.Errorf("failed to unban user: %w", err)
	}
	return lifted, nil
}

func (c *BotClient) SendMessage(ctx context.Context, chatID int64, text string) (string, error) {
	msg := maxbot.NewMessage()
	msg.SetChat(chatID)
	msg.SetText(text)
	msg.SetFormat("markdown")
	respMsg, err := c.bot.Messages.SendWithResult(ctx, msg)
	if err != nil {
		return "", fmt.Errorf("failed to send message: %w", err)
	}
	if respMsg == nil {
		return "", nil
	}
	return respMsg.Body.Mid, nil
}

func (c *BotClient) DeleteMessage(ctx context.Context, messageID string) error {
	if _, err := c.bot.Messages.DeleteMessage(ctx, messageID); err != nil {
		return fmt.Errorf("failed to delete message: %w", err)
	}
	return nil
}

// ListAdmins satisfies the permission cache's upstream source.
func (c *BotClient) ListAdmins(ctx context.Context, chatID int64) ([]int64, error) {
	adminList, err := c.bot.Chats.GetChatAdmins(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("failed to get chat admins: %w", err)
	}
	ids := make([]int64, 0, len(adminList.Members))
	for _, member := range adminList.Members {
		ids = append(ids, member.UserId)
	}
	return ids, nil
}
