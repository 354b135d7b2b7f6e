package auth

import (
	"testing"

	"github.com/spec-kit/helpdesk-intake/internal/domain"
	apperrors "github.com/spec-kit/helpdesk-intake/pkg/util/errorutil"
)

type countingRecorder struct {
	allowed int
	denied  int
}

func (r *countingRecorder) RecordAuthorization(_ string, allowed bool) {
	if allowed {
		r.allowed++
		return
	}
	r.denied++
}

func TestGuardMonotonicAcrossRolesAndActions(t *testing.T) {
	guard := NewGuard(nil, nil)
	for _, action := range Actions() {
		minRole, ok := MinRole(action)
		if !ok {
			t.Fatalf("action %q has no policy", action)
		}
		for _, role := range domain.Roles() {
			err := guard.Authorize(&domain.Identity{ID: "x", Role: role, Method: domain.AuthMethodSession}, action)
			if role.AtLeast(minRole) {
				if err != nil {
					t.Fatalf("%s as %s: expected allow, got %v", action, role, err)
				}
				continue
			}
			if !apperrors.HasCode(err, apperrors.CodeForbidden) {
				t.Fatalf("%s as %s: expected forbidden, got %v", action, role, err)
			}
		}
	}
}

func TestGuardPolicyTable(t *testing.T) {
	want := map[Action]domain.Role{
		ActionCreateTicket:       domain.RoleClient,
		ActionUpdateTicketStatus: domain.RoleClient,
		ActionCompleteTicket:     domain.RoleOperator,
		ActionReopenTicket:       domain.RoleManager,
		ActionChangeTicketOwner:  domain.RoleManager,
		ActionChangeOwnPassword:  domain.RoleClient,
		ActionResetPassword:      domain.RoleAdministrator,
	}
	for action, role := range want {
		if got, _ := MinRole(action); got != role {
			t.Fatalf("%s min role = %s, want %s", action, got, role)
		}
	}
}

func TestGuardRejectsMissingIdentityAndUnknownAction(t *testing.T) {
	recorder := &countingRecorder{}
	guard := NewGuard(nil, recorder)

	if err := guard.Authorize(nil, ActionViewTicket); !apperrors.HasCode(err, apperrors.CodeUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	admin := &domain.Identity{ID: "root", Role: domain.RoleAdministrator}
	if err := guard.Authorize(admin, Action("ticket.delete")); !apperrors.HasCode(err, apperrors.CodeForbidden) {
		t.Fatalf("expected forbidden for unknown action, got %v", err)
	}
	if err := guard.Authorize(admin, ActionResetPassword); err != nil {
		t.Fatalf("expected allow, got %v", err)
	}
	if recorder.denied != 2 || recorder.allowed != 1 {
		t.Fatalf("recorder = %+v", recorder)
	}
}
