package handler

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	maxbot "github.com/max-messenger/max-bot-api-client-go"
	"github.com/max-messenger/max-bot-api-client-go/schemes"

	"chatguard-bot/internal/messages"
	"chatguard-bot/internal/repository"
)

func (h *Handler) handlePrivateMessage(ctx context.Context, upd *schemes.MessageCreatedUpdate) {
	userID := upd.Message.Sender.UserId
	text := strings.TrimSpace(upd.Message.Body.Text)

	h.logger.Info("Received private message", "text", text, "sender", userID)

	switch {
	case strings.HasPrefix(text, "/start"), strings.HasPrefix(text, "/help"):
		h.sendStartHelp(ctx, userID)
	case strings.HasPrefix(text, "/pair"):
		h.handlePairCommand(ctx, userID)
	case strings.HasPrefix(text, "/connect"):
		h.handleConnectCommand(ctx, userID, text)
	case strings.HasPrefix(text, "/disconnect"):
		h.handleDisconnectCommand(ctx, userID)
	case strings.HasPrefix(text, "/status"):
		h.handleStatusCommand(ctx, userID)
	case strings.HasPrefix(text, "/config"):
		h.handleConfigCommand(ctx, userID)
	case strings.HasPrefix(text, "/logchannel"):
		h.handleLogChannelCommand(ctx, userID, text)
	case strings.HasPrefix(text, "/stats"):
		h.handleStatsCommand(ctx, userID)
	default:
		h.sendStartHelp(ctx, userID)
	}
}

func (h *Handler) handlePairCommand(ctx context.Context, userID int64) {
	token, err := h.svc.GeneratePairingToken(ctx, userID)
	if err != nil {
		h.logger.Error("Failed to generate pairing token", "error", err)
		return
	}
	h.sendText(ctx, userID, fmt.Sprintf(messages.MsgPairTokenIssued, token))
}

func (h *Handler) handleConnectCommand(ctx context.Context, userID int64, text string) {
	parts := strings.Fields(text)
	if len(parts) < 2 {
		h.sendText(ctx, userID, messages.MsgConnectUsage)
		return
	}
	chatID, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		h.sendText(ctx, userID, messages.MsgConnectUsage)
		return
	}

	isAdmin, err := h.svc.IsChatAdmin(ctx, chatID, userID, true)
	if err != nil {
		h.logger.Error("Failed to verify admin status for connect", "error", err)
		h.sendText(ctx, userID, messages.MsgConnectNotAdmin)
		return
	}
	if !isAdmin {
		h.sendText(ctx, userID, messages.MsgConnectNotAdmin)
		return
	}

	title := h.chatTitle(ctx, chatID)
	if err := h.svc.Connect(ctx, userID, chatID, title); err != nil {
		h.logger.Error("Failed to connect session", "error", err)
		return
	}
	h.sendText(ctx, userID, fmt.Sprintf(messages.MsgConnected, title))
}

func (h *Handler) handleDisconnectCommand(ctx context.Context, userID int64) {
	if err := h.svc.Disconnect(ctx, userID); err != nil {
		h.logger.Error("Failed to disconnect session", "error", err)
		return
	}
	h.sendText(ctx, userID, messages.MsgDisconnected)
}

func (h *Handler) handleStatusCommand(ctx context.Context, userID int64) {
	session, err := h.svc.GetSession(ctx, userID)
	if err != nil {
		h.logger.Error("Failed to get session", "error", err)
		return
	}
	if session == nil {
		h.sendText(ctx, userID, messages.MsgNoSession)
		return
	}
	h.sendText(ctx, userID, fmt.Sprintf(messages.MsgSessionStatus,
		sessionLabel(session), session.CreatedAt.Format("02 Jan 2006 15:04")))
}

// connectedChat resolves the admin's session and re-checks their admin
// status in the target chat; the session itself carries no authority.
func (h *Handler) connectedChat(ctx context.Context, userID int64) (*repository.AdminSession, bool) {
	session, err := h.svc.GetSession(ctx, userID)
	if err != nil {
		h.logger.Error("Failed to get session", "error", err)
		return nil, false
	}
	if session == nil {
		h.sendText(ctx, userID, messages.MsgConfigNoChat)
		return nil, false
	}

	if h.isGlobalAdmin(userID) {
		return session, true
	}

	isAdmin, err := h.svc.IsChatAdmin(ctx, session.ChatID, userID, false)
	if err != nil {
		h.logger.Error("Failed to check admin status", "error", err)
		return nil, false
	}
	if !isAdmin {
		h.sendText(ctx, userID, messages.MsgConnectNotAdmin)
		return nil, false
	}
	return session, true
}

func (h *Handler) handleConfigCommand(ctx context.Context, userID int64) {
	session, ok := h.connectedChat(ctx, userID)
	if !ok {
		return
	}
	h.sendConfigMenu(ctx, userID, session)
}

func (h *Handler) sendConfigMenu(ctx context.Context, userID int64, session *repository.AdminSession) {
	cfg, err := h.svc.GetChatConfig(ctx, session.ChatID)
	if err != nil {
		h.logger.Error("Failed to get chat config", "error", err)
		return
	}

	scanState := "off"
	if cfg.ScanEnabled {
		scanState = "on"
	}
	text := fmt.Sprintf(messages.MsgConfigHeader, sessionLabel(session)) + "\n" +
		fmt.Sprintf(messages.MsgConfigLine,
			cfg.MaxWarnings, cfg.WarningTTLHours, cfg.ThresholdAction, cfg.DefaultBlocklistAction, scanState)

	kb := h.bot.Messages.NewKeyboardBuilder()
	kb.AddRow().AddCallback(fmt.Sprintf(messages.BtnScanToggle, scanState), schemes.POSITIVE,
		fmt.Sprintf("cfg_scan_%d", session.ChatID))
	kb.AddRow().
		AddCallback(messages.BtnMaxWarnMinus, schemes.DEFAULT, fmt.Sprintf("cfg_warn_dec_%d", session.ChatID)).
		AddCallback(messages.BtnMaxWarnPlus, schemes.DEFAULT, fmt.Sprintf("cfg_warn_inc_%d", session.ChatID))
	kb.AddRow().AddCallback(fmt.Sprintf(messages.BtnThresholdCycle, cfg.ThresholdAction), schemes.DEFAULT,
		fmt.Sprintf("cfg_threshold_%d", session.ChatID))

	msg := maxbot.NewMessage()
	msg.SetUser(userID)
	msg.SetText(text)
	msg.SetFormat("markdown")
	msg.AddKeyboard(kb)
	if err := h.bot.Messages.Send(ctx, msg); err != nil {
		h.logger.Error("Failed to send config menu", "error", err)
	}
}

func (h *Handler) handleLogChannelCommand(ctx context.Context, userID int64, text string) {
	session, ok := h.connectedChat(ctx, userID)
	if !ok {
		return
	}

	parts := strings.Fields(text)
	if len(parts) < 2 {
		h.sendText(ctx, userID, messages.MsgLogChannelUsage)
		return
	}

	if parts[1] == "off" {
		if err := h.svc.SetLogChannel(ctx, session.ChatID, userID, nil); err != nil {
			h.logger.Error("Failed to clear log channel", "error", err)
			return
		}
		h.sendText(ctx, userID, messages.MsgLogChannelCleared)
		return
	}

	channelID, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		h.sendText(ctx, userID, messages.MsgLogChannelUsage)
		return
	}
	if err := h.svc.SetLogChannel(ctx, session.ChatID, userID, &channelID); err != nil {
		h.logger.Error("Failed to set log channel", "error", err)
		return
	}
	h.sendText(ctx, userID, fmt.Sprintf(messages.MsgLogChannelSet, channelID))
}

func (h *Handler) handleStatsCommand(ctx context.Context, userID int64) {
	session, ok := h.connectedChat(ctx, userID)
	if !ok {
		return
	}

	stats, err := h.svc.GetChatStats(ctx, session.ChatID)
	if err != nil {
		h.logger.Error("Failed to get chat stats", "error", err)
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(
		"Stats for %s\nblocklist hits: %d\nwarnings issued: %d\npunishments applied: %d\nmessages deleted: %d",
		sessionLabel(session),
		stats.BlocklistHits, stats.WarningsIssued, stats.PunishmentsApplied, stats.MessagesDeleted))

	recent, err := h.svc.RecentPunishments(ctx, session.ChatID, 5)
	if err != nil {
		h.logger.Error("Failed to list recent punishments", "error", err)
	}
	if len(recent) > 0 {
		sb.WriteString("\n\nRecent punishments:")
		for _, p := range recent {
			sb.WriteString(fmt.Sprintf("\n%s %s user %d (%s, %s)",
				p.CreatedAt.Format("02 Jan 15:04"), p.Type, p.UserID, p.Source, p.Result))
		}
	}
	h.sendText(ctx, userID, sb.String())
}

func sessionLabel(session *repository.AdminSession) string {
	if session.ChatTitle != "" {
		return session.ChatTitle
	}
	return fmt.Sprintf("%d", session.ChatID)
}
