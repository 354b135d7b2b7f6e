package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/helpdesk-intake/internal/domain"
	"github.com/spec-kit/helpdesk-intake/internal/events"
	"github.com/spec-kit/helpdesk-intake/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-intake/pkg/util/errorutil"
)

const defaultCollaboratorTimeout = 5 * time.Second

func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		timeout = defaultCollaboratorTimeout
	}
	return context.WithTimeout(ctx, timeout)
}

// storeError maps repository errors onto the public taxonomy. Anything unexpected from a
// collaborator is retryable.
func storeError(err error, resource string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return apperrors.NewNotFound(resource, nil)
	case errors.Is(err, repository.ErrStaleWrite):
		return apperrors.NewConflict(resource+" was modified concurrently", nil)
	default:
		var domainErr *apperrors.DomainError
		if errors.As(err, &domainErr) {
			return domainErr
		}
		return apperrors.NewTransient(err)
	}
}

func publishEvent(ctx context.Context, dispatcher events.Dispatcher, event events.Event) {
	if dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	_ = dispatcher.Publish(ctx, event)
}

func historyEntry(ticketID string, actor *domain.Identity, change domain.TicketChangeType, oldValue, newValue map[string]any) *domain.TicketHistory {
	return domain.NewTicketHistory(uuid.NewString(), ticketID, actor, change, oldValue, newValue)
}

// canAccessTicket reports whether actor may see the ticket. Clients only see their own.
func canAccessTicket(actor *domain.Identity, ticket *domain.Ticket) bool {
	if actor.Role.AtLeast(domain.RoleOperator) {
		return true
	}
	return ticket.CreatorID != nil && *ticket.CreatorID == actor.ID
}
