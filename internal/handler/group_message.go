package handler

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/max-messenger/max-bot-api-client-go/schemes"

	"chatguard-bot/internal/messages"
	"chatguard-bot/internal/pipeline"
	"chatguard-bot/internal/repository"
	"chatguard-bot/internal/service"
	"chatguard-bot/internal/utils"
)

func (h *Handler) handleGroupMessage(ctx context.Context, upd *schemes.MessageCreatedUpdate) {
	text := strings.TrimSpace(upd.Message.Body.Text)

	switch {
	case strings.HasPrefix(text, "/warn"):
		h.handleWarnCommand(ctx, upd)
		return
	case strings.HasPrefix(text, "/unwarn"):
		h.handleUnwarnCommand(ctx, upd)
		return
	case strings.HasPrefix(text, "/mute"):
		h.handleModerateCommand(ctx, upd, repository.ActionMute)
		return
	case strings.HasPrefix(text, "/unmute"):
		h.handleReverseCommand(ctx, upd, repository.ActionMute)
		return
	case strings.HasPrefix(text, "/ban"):
		h.handleModerateCommand(ctx, upd, repository.ActionBan)
		return
	case strings.HasPrefix(text, "/unban"):
		h.handleReverseCommand(ctx, upd, repository.ActionBan)
		return
	case strings.HasPrefix(text, "/kick"):
		h.handleModerateCommand(ctx, upd, repository.ActionKick)
		return
	case strings.HasPrefix(text, "/block "):
		h.handleBlockCommand(ctx, upd)
		return
	case strings.HasPrefix(text, "/unblock"):
		h.handleUnblockCommand(ctx, upd)
		return
	case strings.HasPrefix(text, "/blocklist"):
		h.handleBlocklistCommand(ctx, upd)
		return
	case strings.HasPrefix(text, "/link"):
		h.handleLinkCommand(ctx, upd)
		return
	}

	h.scanGroupMessage(ctx, upd)
}

func (h *Handler) scanGroupMessage(ctx context.Context, upd *schemes.MessageCreatedUpdate) {
	payload := pipeline.Payload{
		ChatID:     upd.Message.Recipient.ChatId,
		SenderID:   upd.Message.Sender.UserId,
		SenderName: upd.Message.Sender.Name,
		MessageID:  upd.Message.Body.Mid,
		Text:       upd.Message.Body.Text,
	}

	res, err := h.svc.ScanMessage(ctx, payload)
	if err != nil {
		h.logger.Error("Failed to scan message", "error", err)
		return
	}
	if res == nil || res.IsAllowed {
		return
	}

	h.logger.Info("Message flagged", "reason", res.Reason, "filter", res.FilterName,
		"chat_id", payload.ChatID, "user_id", payload.SenderID)

	if res.ShouldDelete {
		go func() {
			_ = h.deleteMessage(context.Background(), upd.Message.Body.Mid, res.FilterName)
		}()
	}

	go h.routeConsequence(context.Background(), upd, res)
}

// routeConsequence turns a filter verdict into engine calls: WARN goes
// through the warning ledger and may escalate, everything else straight
// to the punishment executor.
func (h *Handler) routeConsequence(ctx context.Context, upd *schemes.MessageCreatedUpdate, res *pipeline.Result) {
	chatID := upd.Message.Recipient.ChatId
	sender := upd.Message.Sender

	switch res.Action {
	case repository.ActionWarn:
		out, err := h.svc.IssueWarning(ctx, chatID, sender.UserId, 0, res.Reason)
		if err != nil {
			h.logger.Error("Failed to issue warning", "error", err)
			return
		}
		h.sendGroupMessage(ctx, chatID,
			fmt.Sprintf(messages.MsgUserWarned, mention(sender), out.ActiveCount, out.MaxWarnings, res.Reason))
		if out.Triggered {
			h.escalate(ctx, chatID, sender, out)
		}
	case repository.ActionNothing:
		// The filter already handled the message itself; tell the
		// sender why it disappeared.
		if res.ShouldDelete {
			h.sendGroupMessage(ctx, chatID,
				fmt.Sprintf(messages.MsgProhibitedContent, mention(sender), res.Reason))
		}
	default:
		ok := h.svc.ExecutePunishment(ctx, service.PunishmentRequest{
			ChatID:     chatID,
			UserID:     sender.UserId,
			IssuedByID: 0,
			Type:       res.Action,
			Duration:   hoursToDuration(res.DurationHours),
			Reason:     res.Reason,
			Source:     res.Source,
		})
		if ok {
			h.announcePunishment(ctx, chatID, sender, res.Action, hoursToDuration(res.DurationHours))
		}
	}
}

func (h *Handler) escalate(ctx context.Context, chatID int64, user schemes.User, out *service.WarningOutcome) {
	h.logger.Info("Warning threshold crossed",
		"chat_id", chatID, "user_id", user.UserId, "action", out.ThresholdAction)

	dur := minutesToDuration(out.ThresholdDurationMinutes)
	ok := h.svc.ExecutePunishment(ctx, service.PunishmentRequest{
		ChatID:     chatID,
		UserID:     user.UserId,
		IssuedByID: 0,
		Type:       out.ThresholdAction,
		Duration:   dur,
		Reason:     messages.MsgReasonThresholdExceeded,
		Source:     repository.SourceThreshold,
	})
	if ok && out.ThresholdAction != repository.ActionNothing {
		h.announcePunishment(ctx, chatID, user, out.ThresholdAction, dur)
	}
}

func (h *Handler) handleWarnCommand(ctx context.Context, upd *schemes.MessageCreatedUpdate) {
	chatID := upd.Message.Recipient.ChatId
	target, ok := h.commandTarget(ctx, upd)
	if !ok {
		return
	}

	reason := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(upd.Message.Body.Text), "/warn"))
	if reason == "" {
		reason = messages.MsgReasonBlockedPattern
	}

	out, err := h.svc.IssueWarning(ctx, chatID, target.UserId, upd.Message.Sender.UserId, reason)
	if err != nil {
		h.logger.Error("Failed to issue warning", "error", err)
		return
	}

	h.sendGroupMessage(ctx, chatID,
		fmt.Sprintf(messages.MsgUserWarned, mention(target), out.ActiveCount, out.MaxWarnings, reason))
	if out.Triggered {
		h.escalate(ctx, chatID, target, out)
	}
	_ = h.deleteMessage(ctx, upd.Message.Body.Mid, "command_cleanup")
}

func (h *Handler) handleUnwarnCommand(ctx context.Context, upd *schemes.MessageCreatedUpdate) {
	chatID := upd.Message.Recipient.ChatId
	target, ok := h.commandTarget(ctx, upd)
	if !ok {
		return
	}

	if err := h.svc.RemoveWarnings(ctx, chatID, target.UserId, upd.Message.Sender.UserId); err != nil {
		h.logger.Error("Failed to remove warnings", "error", err)
		return
	}
	h.sendGroupMessage(ctx, chatID, fmt.Sprintf(messages.MsgUserUnwarned, mention(target)))
	_ = h.deleteMessage(ctx, upd.Message.Body.Mid, "command_cleanup")
}

func (h *Handler) handleModerateCommand(ctx context.Context, upd *schemes.MessageCreatedUpdate, action repository.ActionType) {
	chatID := upd.Message.Recipient.ChatId
	target, ok := h.commandTarget(ctx, upd)
	if !ok {
		return
	}

	var dur *time.Duration
	if action != repository.ActionKick {
		parts := strings.Fields(upd.Message.Body.Text)
		if len(parts) > 1 {
			d, err := utils.ParseDuration(parts[1])
			if err != nil {
				h.sendGroupMessage(ctx, chatID, messages.MsgDurationInvalid)
				_ = h.deleteMessage(ctx, upd.Message.Body.Mid, "invalid_duration_cleanup")
				return
			}
			dur = &d
		} else if action == repository.ActionMute {
			if d, err := time.ParseDuration(h.config.DefaultMuteDuration); err == nil {
				dur = &d
			}
		}
	}

	ok = h.svc.ExecutePunishment(ctx, service.PunishmentRequest{
		ChatID:     chatID,
		UserID:     target.UserId,
		IssuedByID: upd.Message.Sender.UserId,
		Type:       action,
		Duration:   dur,
		Reason:     "manual command",
		Source:     repository.SourceManual,
	})
	if !ok {
		h.sendGroupMessage(ctx, chatID,
			fmt.Sprintf(messages.MsgPunishmentFailed, strings.ToLower(string(action)), displayName(target)))
		return
	}

	h.announcePunishment(ctx, chatID, target, action, dur)
	_ = h.deleteMessage(ctx, upd.Message.Body.Mid, "command_cleanup")
}

func (h *Handler) handleReverseCommand(ctx context.Context, upd *schemes.MessageCreatedUpdate, action repository.ActionType) {
	chatID := upd.Message.Recipient.ChatId
	target, ok := h.commandTarget(ctx, upd)
	if !ok {
		return
	}

	var lifted bool
	var err error
	var doneMsg string
	if action == repository.ActionMute {
		lifted, err = h.svc.Unmute(ctx, chatID, upd.Message.Sender.UserId, target.UserId)
		doneMsg = messages.MsgUserUnmuted
	} else {
		lifted, err = h.svc.Unban(ctx, chatID, upd.Message.Sender.UserId, target.UserId)
		doneMsg = messages.MsgUserUnbanned
	}
	if err != nil {
		h.logger.Error("Failed to lift restriction", "error", err)
		return
	}
	if !lifted {
		h.sendGroupMessage(ctx, chatID, fmt.Sprintf(messages.MsgNothingToReverse, displayName(target)))
		return
	}
	h.sendGroupMessage(ctx, chatID, fmt.Sprintf(doneMsg, mention(target)))
	_ = h.deleteMessage(ctx, upd.Message.Body.Mid, "command_cleanup")
}

// handleBlockCommand parses "/block [severity] [action] <pattern>"; a
// pattern containing * or ? becomes a wildcard.
func (h *Handler) handleBlockCommand(ctx context.Context, upd *schemes.MessageCreatedUpdate) {
	chatID := upd.Message.Recipient.ChatId
	if !h.requireAdmin(ctx, upd) {
		return
	}

	input, ok := parseBlockArgs(strings.Fields(upd.Message.Body.Text)[1:])
	if !ok {
		h.sendGroupMessage(ctx, chatID, messages.MsgPatternInvalid)
		return
	}
	input.AdminID = upd.Message.Sender.UserId

	saved, updated, err := h.svc.AddPattern(ctx, chatID, input)
	if err != nil {
		h.logger.Error("Failed to add pattern", "error", err)
		h.sendGroupMessage(ctx, chatID, messages.MsgPatternInvalid)
		return
	}

	tpl := messages.MsgPatternAdded
	if updated {
		tpl = messages.MsgPatternUpdated
	}
	h.sendGroupMessage(ctx, chatID, fmt.Sprintf(tpl, saved.PatternText, saved.Severity, saved.Action))
	_ = h.deleteMessage(ctx, upd.Message.Body.Mid, "command_cleanup")
}

func (h *Handler) handleUnblockCommand(ctx context.Context, upd *schemes.MessageCreatedUpdate) {
	chatID := upd.Message.Recipient.ChatId
	if !h.requireAdmin(ctx, upd) {
		return
	}

	parts := strings.Fields(upd.Message.Body.Text)
	if len(parts) < 2 {
		h.sendGroupMessage(ctx, chatID, messages.MsgPatternInvalid)
		return
	}
	id, err := strconv.ParseUint(parts[1], 10, 32)
	if err != nil {
		h.sendGroupMessage(ctx, chatID, messages.MsgPatternInvalid)
		return
	}

	if err := h.svc.RemovePattern(ctx, chatID, uint(id)); err != nil {
		if err == repository.ErrPatternNotFound {
			h.sendGroupMessage(ctx, chatID, messages.MsgPatternNotFound)
		} else {
			h.logger.Error("Failed to remove pattern", "error", err)
		}
		return
	}
	h.sendGroupMessage(ctx, chatID, messages.MsgPatternRemoved)
	_ = h.deleteMessage(ctx, upd.Message.Body.Mid, "command_cleanup")
}

func (h *Handler) handleBlocklistCommand(ctx context.Context, upd *schemes.MessageCreatedUpdate) {
	chatID := upd.Message.Recipient.ChatId
	if !h.requireAdmin(ctx, upd) {
		return
	}

	patterns, err := h.svc.ListPatterns(ctx, chatID)
	if err != nil {
		h.logger.Error("Failed to list patterns", "error", err)
		return
	}
	if len(patterns) == 0 {
		h.sendGroupMessage(ctx, chatID, messages.MsgBlocklistEmpty)
		return
	}

	var sb strings.Builder
	sb.WriteString(messages.MsgBlocklistHeader)
	for _, p := range patterns {
		scope := "chat"
		if p.ChatID == nil {
			scope = "global"
		}
		sb.WriteString(fmt.Sprintf("\n#%d %q (%s, %s, severity %d, %s)",
			p.ID, p.PatternText, p.MatchType, p.Action, p.Severity, scope))
	}
	h.sendGroupMessage(ctx, chatID, sb.String())
}

func (h *Handler) handleLinkCommand(ctx context.Context, upd *schemes.MessageCreatedUpdate) {
	chatID := upd.Message.Recipient.ChatId
	parts := strings.Fields(upd.Message.Body.Text)
	if len(parts) < 2 {
		h.sendGroupMessage(ctx, chatID, messages.MsgLinkInvalidFormat)
		return
	}
	token := parts[1]

	// Burn the message first: the token should not linger in the chat.
	_ = h.deleteMessage(ctx, upd.Message.Body.Mid, "token_cleanup")

	if !h.requireAdmin(ctx, upd) {
		return
	}

	title := h.chatTitle(ctx, chatID)
	err := h.svc.RedeemPairingToken(ctx, token, chatID, upd.Message.Sender.UserId, title)
	switch err {
	case nil:
	case service.ErrTokenInvalid:
		h.sendGroupMessage(ctx, chatID, messages.MsgLinkInvalidToken)
		return
	case service.ErrTokenNotYours:
		h.sendGroupMessage(ctx, chatID, messages.MsgLinkNotYourToken)
		return
	default:
		h.logger.Error("Failed to redeem pairing token", "error", err)
		return
	}

	h.sendGroupMessage(ctx, chatID, messages.MsgGroupLinked)
}

// commandTarget resolves the replied-to user for a moderation command and
// runs the shared gate: admin-only, no self-moderation, no moderating
// other admins.
func (h *Handler) commandTarget(ctx context.Context, upd *schemes.MessageCreatedUpdate) (schemes.User, bool) {
	chatID := upd.Message.Recipient.ChatId

	if upd.Message.Link == nil {
		h.sendGroupMessage(ctx, chatID, messages.MsgCommandNeedsReply)
		_ = h.deleteMessage(ctx, upd.Message.Body.Mid, "invalid_command_cleanup")
		return schemes.User{}, false
	}
	if !h.requireAdmin(ctx, upd) {
		return schemes.User{}, false
	}

	target := upd.Message.Link.Sender
	if target.UserId == upd.Message.Sender.UserId {
		h.sendGroupMessage(ctx, chatID, messages.MsgCannotModerateSelf)
		return schemes.User{}, false
	}

	targetIsAdmin, err := h.svc.IsChatAdmin(ctx, chatID, target.UserId, false)
	if err != nil {
		h.logger.Error("Failed to check target admin status", "error", err)
	} else if targetIsAdmin {
		h.sendGroupMessage(ctx, chatID, messages.MsgCannotModerateAdmin)
		return schemes.User{}, false
	}

	return target, true
}

// requireAdmin gates a command on admin status. A cached denial is
// re-checked against the platform before rejecting, so a freshly promoted
// admin is not locked out for a cache TTL.
func (h *Handler) requireAdmin(ctx context.Context, upd *schemes.MessageCreatedUpdate) bool {
	chatID := upd.Message.Recipient.ChatId
	userID := upd.Message.Sender.UserId

	if h.isGlobalAdmin(userID) {
		return true
	}

	isAdmin, err := h.svc.IsChatAdmin(ctx, chatID, userID, false)
	if err != nil {
		h.logger.Error("Failed to check admin status", "error", err)
		return false
	}
	if !isAdmin {
		isAdmin, err = h.svc.IsChatAdmin(ctx, chatID, userID, true)
		if err != nil {
			h.logger.Error("Failed to re-check admin status", "error", err)
			return false
		}
	}
	if !isAdmin {
		h.logger.Info("Non-admin tried a moderation command", "chat_id", chatID, "user_id", userID)
		h.sendGroupMessage(ctx, chatID, messages.MsgNotAnAdmin)
		_ = h.deleteMessage(ctx, upd.Message.Body.Mid, "non_admin_cleanup")
		return false
	}
	return true
}

// parseBlockArgs handles "[severity] [action] <pattern>": leading tokens
// that parse as a number or an action name are options, the rest is the
// pattern. A pattern with * or ? becomes a wildcard.
func parseBlockArgs(parts []string) (service.PatternInput, bool) {
	var input service.PatternInput

	for len(parts) > 1 {
		if sev, err := strconv.Atoi(parts[0]); err == nil {
			input.Severity = sev
			parts = parts[1:]
			continue
		}
		if _, err := repository.ParseAction(parts[0]); err == nil {
			input.Action = parts[0]
			parts = parts[1:]
			continue
		}
		break
	}
	if len(parts) == 0 {
		return service.PatternInput{}, false
	}

	input.Text = strings.Join(parts, " ")
	input.MatchType = string(repository.MatchExact)
	if strings.ContainsAny(input.Text, "*?") {
		input.MatchType = string(repository.MatchWildcard)
	}
	return input, true
}

func hoursToDuration(hours *int) *time.Duration {
	if hours == nil {
		return nil
	}
	d := time.Duration(*hours) * time.Hour
	return &d
}

func minutesToDuration(minutes *int) *time.Duration {
	if minutes == nil {
		return nil
	}
	d := time.Duration(*minutes) * time.Minute
	return &d
}
