package audit

import (
	"context"

	"github.com/bigseized/rksp-final/pkg/log"
)

// Audit actions for chat-service.
const (
	ActionConnect        = "chat.connect"
	ActionConnectFailed  = "chat.connect_failed"
	ActionDisconnect     = "chat.disconnect"
	ActionCreateChat     = "chat.create"
	ActionCreatePersonal = "chat.create_personal"
	ActionAddMember      = "chat.add_member"
	ActionRemoveMember   = "chat.remove_member"
	ActionLeave          = "chat.leave"
	ActionPromote        = "chat.promote"
	ActionDemote         = "chat.demote"
	ActionDenied         = "chat.denied"
	ActionRenameUser     = "user.rename"
	ActionAvatarUpload   = "user.avatar_upload"
	ActionAvatarDelete   = "user.avatar_delete"
)

// Field constants for audit entries.
const (
	FieldAction = "action"
	FieldDetail = "detail"
)

// Log emits a structured audit log entry via the context logger. Fields
// the context logger already carries are not repeated.
func Log(ctx context.Context, action string, userID string, msg string) {
	l := log.Ctx(ctx)
	e := l.Info().
		Str(log.FieldLogType, log.LogTypeAudit).
		Str(FieldAction, action)
	log.Str(ctx, e, log.FieldUserID, userID).Msg(msg)
}

// LogMembership records a membership change made by actorID.
func LogMembership(ctx context.Context, action, actorID, chatID, targetID string) {
	l := log.Ctx(ctx)
	e := l.Info().
		Str(log.FieldLogType, log.LogTypeAudit).
		Str(FieldAction, action).
		Str(log.FieldTargetID, targetID)
	e = log.Str(ctx, e, log.FieldUserID, actorID)
	log.Str(ctx, e, log.FieldChatID, chatID).Msg("membership changed")
}

// LogDenied records an admin action refused to actorID.
func LogDenied(ctx context.Context, action, actorID, chatID, targetID string) {
	l := log.Ctx(ctx)
	e := l.Info().
		Str(log.FieldLogType, log.LogTypeAudit).
		Str(FieldAction, ActionDenied).
		Str(FieldDetail, action).
		Str(log.FieldTargetID, targetID)
	e = log.Str(ctx, e, log.FieldUserID, actorID)
	log.Str(ctx, e, log.FieldChatID, chatID).Msg("admin action denied")
}

// LogWithDetail emits an audit log with extra detail field.
func LogWithDetail(ctx context.Context, action string, userID string, detail string, msg string) {
	l := log.Ctx(ctx)
	e := l.Info().
		Str(log.FieldLogType, log.LogTypeAudit).
		Str(FieldAction, action).
		Str(FieldDetail, detail)
	log.Str(ctx, e, log.FieldUserID, userID).Msg(msg)
}
