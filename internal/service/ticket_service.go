package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-intake/internal/auth"
	"github.com/spec-kit/helpdesk-intake/internal/domain"
	"github.com/spec-kit/helpdesk-intake/internal/events"
	"github.com/spec-kit/helpdesk-intake/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-intake/pkg/util/errorutil"
)

const maxTitleLength = 200

// TicketService coordinates interactive ticket workflows.
type TicketService struct {
	tickets    repository.TicketRepository
	history    repository.TicketHistoryRepository
	profiles   repository.ProfileRepository
	guard      *auth.Guard
	dispatcher events.Dispatcher
	timeout    time.Duration
	logger     *zap.Logger
}

// TicketDependencies bundles repositories for ticket service.
type TicketDependencies struct {
	Tickets    repository.TicketRepository
	History    repository.TicketHistoryRepository
	Profiles   repository.ProfileRepository
	Guard      *auth.Guard
	Dispatcher events.Dispatcher
	Timeout    time.Duration
	Logger     *zap.Logger
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	Title       string
	Description string
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TicketService{
		tickets:    deps.Tickets,
		history:    deps.History,
		profiles:   deps.Profiles,
		guard:      deps.Guard,
		dispatcher: deps.Dispatcher,
		timeout:    deps.Timeout,
		logger:     logger,
	}
}

// CreateTicket creates an interactive ticket owned by actor.
func (s *TicketService) CreateTicket(ctx context.Context, actor *domain.Identity, input TicketCreateInput) (*domain.Ticket, error) {
	if err := s.guard.Authorize(actor, auth.ActionCreateTicket); err != nil {
		return nil, err
	}
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, apperrors.NewValidationError("title is required", nil)
	}
	if len(title) > maxTitleLength {
		return nil, apperrors.NewValidationError("title is too long", map[string]any{"max": maxTitleLength})
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	ticket := domain.NewTicket(uuid.NewString(), domain.TicketSourceInteractive, title, strings.TrimSpace(input.Description))
	creatorID := actor.ID
	ticket.CreatorID = &creatorID
	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, storeError(err, "ticket")
	}

	s.recordHistory(ctx, historyEntry(ticket.ID, actor, domain.ChangeTypeCreated, nil, map[string]any{
		"status": ticket.Status,
		"source": ticket.Source,
	}))
	publishEvent(ctx, s.dispatcher, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		Actor:    events.ActorFrom(actor),
		Payload: events.TicketCreatedPayload{
			Title:     ticket.Title,
			Source:    ticket.Source,
			CreatorID: ticket.CreatorID,
		},
	})
	return ticket, nil
}

// GetTicket returns a ticket the actor may see.
func (s *TicketService) GetTicket(ctx context.Context, actor *domain.Identity, ticketID string) (*domain.Ticket, error) {
	if err := s.guard.Authorize(actor, auth.ActionViewTicket); err != nil {
		return nil, err
	}
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()
	return s.visibleTicket(ctx, actor, ticketID)
}

// ChangeOwner assigns the ticket to ownerID, or clears the owner when ownerID is nil. The
// new owner must be staff.
func (s *TicketService) ChangeOwner(ctx context.Context, actor *domain.Identity, ticketID string, ownerID *string) (*domain.Ticket, error) {
	if err := s.guard.Authorize(actor, auth.ActionChangeTicketOwner); err != nil {
		return nil, err
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, storeError(err, "ticket")
	}
	if ownerID != nil {
		owner, err := s.profiles.GetByID(ctx, *ownerID)
		if err != nil {
			return nil, storeError(err, "owner")
		}
		if !owner.Role.AtLeast(domain.RoleOperator) {
			return nil, apperrors.NewValidationError("owner must be an operator or above", map[string]any{"owner_id": owner.ID})
		}
	}

	oldOwner := ticket.OwnerID
	updated, err := s.tickets.UpdateOwner(ctx, ticket.ID, ownerID)
	if err != nil {
		return nil, storeError(err, "ticket")
	}

	s.recordHistory(ctx, historyEntry(updated.ID, actor, domain.ChangeTypeOwner,
		map[string]any{"owner_id": derefOrNil(oldOwner)},
		map[string]any{"owner_id": derefOrNil(ownerID)},
	))
	publishEvent(ctx, s.dispatcher, events.Event{
		Type:     events.EventTicketOwnerChanged,
		TicketID: updated.ID,
		Actor:    events.ActorFrom(actor),
		Payload: events.TicketOwnerChangedPayload{
			OldOwnerID: oldOwner,
			NewOwnerID: ownerID,
		},
	})
	return updated, nil
}

// ListHistory returns the audit trail of a ticket the actor may see.
func (s *TicketService) ListHistory(ctx context.Context, actor *domain.Identity, ticketID string) ([]domain.TicketHistory, error) {
	if err := s.guard.Authorize(actor, auth.ActionViewTicketHistory); err != nil {
		return nil, err
	}
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	if _, err := s.visibleTicket(ctx, actor, ticketID); err != nil {
		return nil, err
	}
	entries, err := s.history.ListByTicket(ctx, ticketID)
	if err != nil {
		return nil, storeError(err, "ticket history")
	}
	return entries, nil
}

func (s *TicketService) visibleTicket(ctx context.Context, actor *domain.Identity, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, storeError(err, "ticket")
	}
	if !canAccessTicket(actor, ticket) {
		return nil, apperrors.NewNotFound("ticket", nil)
	}
	return ticket, nil
}

func (s *TicketService) recordHistory(ctx context.Context, entry *domain.TicketHistory) {
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

func derefOrNil(value *string) any {
	if value == nil {
		return nil
	}
	return *value
}
