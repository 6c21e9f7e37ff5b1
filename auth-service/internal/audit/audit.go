package audit

import (
	"context"

	"github.com/bigseized/rksp-final/pkg/log"
)

// Audit actions for auth-service.
const (
	ActionRegister     = "account.register"
	ActionLogin        = "account.login"
	ActionLoginFailed  = "account.login_failed"
	ActionRefreshToken = "account.refresh_token"
	ActionLogout       = "account.logout"
	ActionRevoke       = "token.revoke"
)

const FieldDetail = "detail"

// Log emits a structured audit log entry via the context logger.
func Log(ctx context.Context, action, userID, msg string) {
	l := log.Ctx(ctx)
	e := l.Info().
		Str(log.FieldLogType, log.LogTypeAudit).
		Str("action", action)
	log.Str(ctx, e, log.FieldUserID, userID).Msg(msg)
}

// LogWithDetail emits an audit log with extra detail field.
func LogWithDetail(ctx context.Context, action, userID, detail, msg string) {
	l := log.Ctx(ctx)
	e := l.Info().
		Str(log.FieldLogType, log.LogTypeAudit).
		Str("action", action).
		Str(FieldDetail, detail)
	log.Str(ctx, e, log.FieldUserID, userID).Msg(msg)
}
