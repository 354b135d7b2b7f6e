package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-intake/internal/auth"
	"github.com/spec-kit/helpdesk-intake/internal/domain"
	"github.com/spec-kit/helpdesk-intake/internal/events"
	"github.com/spec-kit/helpdesk-intake/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-intake/pkg/util/errorutil"
)

// LifecycleDependencies bundles collaborators for status transitions.
type LifecycleDependencies struct {
	Tickets    repository.TicketRepository
	History    repository.TicketHistoryRepository
	Guard      *auth.Guard
	Dispatcher events.Dispatcher
	Timeout    time.Duration
	Logger     *zap.Logger
}

// LifecycleService applies ticket status transitions.
type LifecycleService struct {
	tickets    repository.TicketRepository
	history    repository.TicketHistoryRepository
	guard      *auth.Guard
	dispatcher events.Dispatcher
	timeout    time.Duration
	logger     *zap.Logger
}

// NewLifecycleService constructs the service.
func NewLifecycleService(deps LifecycleDependencies) *LifecycleService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LifecycleService{
		tickets:    deps.Tickets,
		history:    deps.History,
		guard:      deps.Guard,
		dispatcher: deps.Dispatcher,
		timeout:    deps.Timeout,
		logger:     logger,
	}
}

// transitionAction picks the guarded action for an edge.
func transitionAction(current, target domain.TicketStatus) auth.Action {
	switch {
	case target == domain.TicketStatusCompleted:
		return auth.ActionCompleteTicket
	case domain.IsReopen(current, target):
		return auth.ActionReopenTicket
	default:
		return auth.ActionUpdateTicketStatus
	}
}

// Transition moves a ticket to target. The stored status only changes when the edge is
// allowed, the actor's role covers it and nobody changed the ticket in between.
func (s *LifecycleService) Transition(ctx context.Context, actor *domain.Identity, ticketID string, target domain.TicketStatus) (*domain.Ticket, error) {
	if err := s.guard.Authorize(actor, auth.ActionUpdateTicketStatus); err != nil {
		return nil, err
	}
	if !target.Valid() {
		return nil, apperrors.NewValidationError("unknown status", map[string]any{"status": target})
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, storeError(err, "ticket")
	}
	if !canAccessTicket(actor, ticket) {
		return nil, apperrors.NewNotFound("ticket", nil)
	}

	current := ticket.Status
	if !domain.CanTransition(current, target) {
		return nil, apperrors.NewInvalidTransition("transition not allowed", map[string]any{
			"from": current,
			"to":   target,
		})
	}
	if err := s.guard.Authorize(actor, transitionAction(current, target)); err != nil {
		return nil, err
	}

	updated, err := s.tickets.UpdateStatus(ctx, ticket.ID, current, target)
	if err != nil {
		return nil, storeError(err, "ticket")
	}

	s.recordHistory(ctx, historyEntry(updated.ID, actor, domain.ChangeTypeStatus,
		map[string]any{"status": current},
		map[string]any{"status": target},
	))
	publishEvent(ctx, s.dispatcher, events.Event{
		Type:     events.EventTicketStatusChanged,
		TicketID: updated.ID,
		Actor:    events.ActorFrom(actor),
		Payload: events.TicketStatusChangedPayload{
			OldStatus: current,
			NewStatus: target,
		},
	})
	return updated, nil
}

func (s *LifecycleService) recordHistory(ctx context.Context, entry *domain.TicketHistory) {
	if s.history == nil {
		return
	}
	if err := s.history.Create(ctx, entry); err != nil {
		s.logger.Warn("failed to record ticket history",
			zap.String("ticket_id", entry.TicketID),
			zap.String("change_type", string(entry.ChangeType)),
			zap.Error(err))
	}
}
