package auth

import (
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-intake/internal/domain"
	apperrors "github.com/spec-kit/helpdesk-intake/pkg/util/errorutil"
)

// Action names a privileged operation.
type Action string

const (
	ActionCreateTicket       Action = "ticket.create"
	ActionViewTicket         Action = "ticket.view"
	ActionUpdateTicketStatus Action = "ticket.update_status"
	ActionCompleteTicket     Action = "ticket.complete"
	ActionReopenTicket       Action = "ticket.reopen"
	ActionChangeTicketOwner  Action = "ticket.change_owner"
	ActionViewTicketHistory  Action = "ticket.view_history"
	ActionChangeOwnPassword  Action = "account.change_own_password"
	ActionResetPassword      Action = "account.reset_password"
)

var actionPolicy = map[Action]domain.Role{
	ActionCreateTicket:       domain.RoleClient,
	ActionViewTicket:         domain.RoleClient,
	ActionUpdateTicketStatus: domain.RoleClient,
	ActionCompleteTicket:     domain.RoleOperator,
	ActionReopenTicket:       domain.RoleManager,
	ActionChangeTicketOwner:  domain.RoleManager,
	ActionViewTicketHistory:  domain.RoleClient,
	ActionChangeOwnPassword:  domain.RoleClient,
	ActionResetPassword:      domain.RoleAdministrator,
}

// Actions returns the full catalogue.
func Actions() []Action {
	out := make([]Action, 0, len(actionPolicy))
	for action := range actionPolicy {
		out = append(out, action)
	}
	return out
}

// MinRole returns the least privileged role allowed to perform action.
func MinRole(action Action) (domain.Role, bool) {
	role, ok := actionPolicy[action]
	return role, ok
}

// DecisionRecorder receives authorization outcomes.
type DecisionRecorder interface {
	RecordAuthorization(action string, allowed bool)
}

// Guard is the single authorization choke point for privileged operations.
type Guard struct {
	logger   *zap.Logger
	recorder DecisionRecorder
}

// NewGuard constructs a guard.
func NewGuard(logger *zap.Logger, recorder DecisionRecorder) *Guard {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Guard{logger: logger, recorder: recorder}
}

// Authorize returns nil when identity may perform action, a 401 when there is no identity
// and a 403 otherwise. It never performs the action itself.
func (g *Guard) Authorize(identity *domain.Identity, action Action) error {
	if identity == nil {
		g.record(action, false)
		return apperrors.NewUnauthorized("authentication required")
	}
	minRole, known := actionPolicy[action]
	if !known || !identity.Role.AtLeast(minRole) {
		g.record(action, false)
		g.logger.Info("authorization denied",
			zap.String("action", string(action)),
			zap.String("identity_id", identity.ID),
			zap.String("role", string(identity.Role)))
		return apperrors.NewForbidden("insufficient role")
	}
	g.record(action, true)
	return nil
}

func (g *Guard) record(action Action, allowed bool) {
	if g == nil || g.recorder == nil {
		return
	}
	g.recorder.RecordAuthorization(string(action), allowed)
}
