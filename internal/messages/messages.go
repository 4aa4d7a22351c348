package messages

const (
	MsgReasonBlockedPattern     = "prohibited content"
	MsgReasonFloodLimit         = "sending messages too fast"
	MsgReasonUserRestricted     = "user is restricted until %s"
	MsgReasonThresholdExceeded  = "warning limit reached"

	MsgProhibitedContent = "%s, your message was removed: %s"
	MsgUserWarned        = "%s has been warned (%d/%d): %s"
	MsgUserUnwarned      = "Warnings for %s have been cleared"
	MsgUserMuted         = "%s has been muted for %s"
	MsgUserBanned        = "%s has been banned"
	MsgUserKicked        = "%s has been removed from the chat"
	MsgUserUnmuted       = "%s has been unmuted"
	MsgUserUnbanned      = "%s has been unbanned"
	MsgNothingToReverse  = "Nothing to undo for %s"
	MsgPunishmentFailed  = "Could not apply %s to %s, see the log channel"

	MsgCommandNeedsReply   = "Reply to a message of the user you want to moderate"
	MsgDurationInvalid     = "Invalid duration, use formats like 30m, 2h or 7d"
	MsgNotAnAdmin          = "Only chat admins can use this command"
	MsgCannotModerateSelf  = "You cannot moderate yourself"
	MsgCannotModerateAdmin = "You cannot moderate another admin"

	MsgPatternAdded       = "Pattern %q added (severity %d, action %s)"
	MsgPatternUpdated     = "Pattern %q updated (severity %d, action %s)"
	MsgPatternRemoved     = "Pattern removed"
	MsgPatternNotFound    = "No such pattern in this chat"
	MsgPatternInvalid     = "Usage: /block [severity 0-10] [action] <pattern>"
	MsgBlocklistEmpty     = "No blocklist patterns configured for this chat"
	MsgBlocklistHeader    = "Blocklist patterns:"

	MsgPairTokenIssued   = "Post this in the group you want to manage:\n\n/link %s\n\nThe token is valid for 24 hours."
	MsgLinkInvalidFormat = "Usage: /link <token>"
	MsgLinkInvalidToken  = "Token is invalid or expired"
	MsgLinkNotYourToken  = "This token belongs to another user"
	MsgGroupLinked       = "Group linked. Manage it from the private chat with me."

	MsgConnected        = "Connected to chat %s. Commands here now target it."
	MsgConnectUsage     = "Usage: /connect <chat id>"
	MsgConnectNotAdmin  = "You are not an admin of that chat"
	MsgDisconnected     = "Disconnected"
	MsgNoSession        = "Not connected to any chat, use /connect or /pair first"
	MsgSessionStatus    = "Connected to %s since %s"

	MsgStartHelp = "I moderate group chats: blocklist scanning, warnings with automatic escalation, mutes and bans.\n\n/pair — get a token to link a group\n/connect <chat id> — target a chat for private commands\n/status — show the connected chat\n/config — show and edit moderation settings"

	MsgLogChannelSet     = "Audit log channel set to %d"
	MsgLogChannelCleared = "Audit log channel cleared"
	MsgLogChannelUsage   = "Usage: /logchannel <channel id> or /logchannel off"

	MsgConfigHeader   = "Moderation settings for %s"
	MsgConfigLine     = "max warnings: %d\nwarning ttl: %dh\nthreshold action: %s\ndefault blocklist action: %s\nscanning: %s"
	MsgConfigNoChat   = "Connect to a chat first (/connect or /pair)"

	BtnScanToggle     = "Scanning %s"
	BtnMaxWarnMinus   = "- max warnings"
	BtnMaxWarnPlus    = "+ max warnings"
	BtnThresholdCycle = "Threshold action: %s"

	LogWarnIssued       = "WARN %s (%d/%d) by %s: %s"
	LogWarningsCleared  = "UNWARN %s by %s"
	LogPunishment       = "%s %s by %s (%s): %s"
	LogPunishmentFailed = "%s %s by %s FAILED: %s"
	LogConfigChanged    = "CONFIG %s set to %s by %s"
)
