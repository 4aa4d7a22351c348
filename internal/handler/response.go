package handler

import (
	"context"
	"fmt"
	"time"

	maxbot "github.com/max-messenger/max-bot-api-client-go"
	"github.com/max-messenger/max-bot-api-client-go/schemes"

	"chatguard-bot/internal/messages"
	"chatguard-bot/internal/metrics"
	"chatguard-bot/internal/repository"
)

func displayName(user schemes.User) string {
	if user.Name != "" {
		return user.Name
	}
	return fmt.Sprintf("user %d", user.UserId)
}

func mention(user schemes.User) string {
	return fmt.Sprintf("[%s](max://max.ru/%%%d%%)", displayName(user), user.UserId)
}

func (h *Handler) announcePunishment(ctx context.Context, chatID int64, user schemes.User, action repository.ActionType, dur *time.Duration) {
	var text string
	switch action {
	case repository.ActionMute:
		label := "permanent"
		if dur != nil {
			label = dur.String()
		}
		text = fmt.Sprintf(messages.MsgUserMuted, mention(user), label)
	case repository.ActionBan:
		text = fmt.Sprintf(messages.MsgUserBanned, mention(user))
	case repository.ActionKick:
		text = fmt.Sprintf(messages.MsgUserKicked, mention(user))
	default:
		return
	}
	h.sendGroupMessage(ctx, chatID, text)
}

func (h *Handler) deleteMessage(ctx context.Context, messageID string, reason string) error {
	if _, err := h.bot.Messages.DeleteMessage(ctx, messageID); err != nil {
		h.logger.Error("Failed to delete message", "message_id", messageID, "error", err)
		return err
	}
	h.logger.Info("Deleted message", "message_id", messageID, "reason", reason)
	metrics.IncDeletedMessages(reason)
	return nil
}

func (h *Handler) sendGroupMessage(ctx context.Context, chatID int64, text string) {
	msg := maxbot.NewMessage()
	msg.SetChat(chatID)
	msg.SetText(text)
	msg.SetFormat("markdown")
	if err := h.bot.Messages.Send(ctx, msg); err != nil {
		h.logger.Error("Failed to send group message", "chat_id", chatID, "error", err)
	}
}

func (h *Handler) sendText(ctx context.Context, userID int64, text string) {
	msg := maxbot.NewMessage()
	msg.SetUser(userID)
	msg.SetText(text)
	msg.SetFormat("markdown")
	if err := h.bot.Messages.Send(ctx, msg); err != nil {
		h.logger.Error("Failed to send text message", "error", err)
	}
}

func (h *Handler) sendStartHelp(ctx context.Context, userID int64) {
	h.sendText(ctx, userID, messages.MsgStartHelp)
}

func (h *Handler) chatTitle(ctx context.Context, chatID int64) string {
	chat, err := h.bot.Chats.GetChat(ctx, chatID)
	if err != nil || chat.Title == "" {
		return fmt.Sprintf("%d", chatID)
	}
	return chat.Title
}
