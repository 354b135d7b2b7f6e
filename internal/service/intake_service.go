package service

import (
	"context"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-intake/internal/domain"
	"github.com/spec-kit/helpdesk-intake/internal/events"
	"github.com/spec-kit/helpdesk-intake/internal/observability"
	"github.com/spec-kit/helpdesk-intake/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-intake/pkg/util/errorutil"
)

// IntakeState names the steps one inbound event moves through.
type IntakeState string

const (
	IntakeReceived     IntakeState = "received"
	IntakeValidated    IntakeState = "validated"
	IntakeClaimed      IntakeState = "claimed"
	IntakePersisted    IntakeState = "persisted"
	IntakeAcknowledged IntakeState = "acknowledged"
	IntakeRejected     IntakeState = "rejected"
	IntakeDuplicate    IntakeState = "duplicate_short_circuit"
)

// IntakeRecorder counts intake outcomes.
type IntakeRecorder interface {
	RecordIntake(outcome string)
}

// IntakeReceipt is the acknowledgement returned for every accepted delivery. It is the same
// for the first and every later delivery of one message id.
type IntakeReceipt struct {
	TicketID  string
	Status    domain.TicketStatus
	Source    domain.TicketSource
	Duplicate bool
}

// IntakeDependencies bundles collaborators for the intake processor.
type IntakeDependencies struct {
	Ledger       *DedupLedger
	Profiles     repository.ProfileRepository
	Dispatcher   events.Dispatcher
	Recorder     IntakeRecorder
	DefaultTitle string
	Timeout      time.Duration
	Logger       *zap.Logger
}

// IntakeService turns inbound events into tickets exactly once per message id.
type IntakeService struct {
	ledger       *DedupLedger
	profiles     repository.ProfileRepository
	dispatcher   events.Dispatcher
	recorder     IntakeRecorder
	defaultTitle string
	timeout      time.Duration
	logger       *zap.Logger
}

// NewIntakeService constructs the service.
func NewIntakeService(deps IntakeDependencies) *IntakeService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	title := strings.TrimSpace(deps.DefaultTitle)
	if title == "" {
		title = "(no subject)"
	}
	return &IntakeService{
		ledger:       deps.Ledger,
		profiles:     deps.Profiles,
		dispatcher:   deps.Dispatcher,
		recorder:     deps.Recorder,
		defaultTitle: title,
		timeout:      deps.Timeout,
		logger:       logger,
	}
}

// normalizedEvent is a validated event plus its lookup key for the requester.
type normalizedEvent struct {
	domain.InboundEvent
	lookupEmail string
}

// Process runs one inbound event through validation, claim and persistence. The claim and
// the ticket commit together or not at all. Work after validation is detached from the
// caller's cancellation so a dropped connection cannot leave the claim half-written.
func (s *IntakeService) Process(ctx context.Context, caller *domain.Identity, evt domain.InboundEvent) (*IntakeReceipt, error) {
	if caller == nil || caller.Method != domain.AuthMethodSharedSecret {
		return nil, apperrors.NewUnauthorized("invalid intake credentials")
	}

	normalized, err := s.validate(evt)
	if err != nil {
		s.record(observability.IntakeOutcomeRejected)
		s.logger.Info("intake event rejected", zap.String("state", string(IntakeRejected)), zap.Error(err))
		return nil, err
	}

	ctx, cancel := withTimeout(context.WithoutCancel(ctx), s.timeout)
	defer cancel()

	creatorID := s.resolveRequester(ctx, normalized.lookupEmail)

	outcome, err := s.ledger.Claim(ctx, normalized.MessageID)
	if err != nil {
		s.record(observability.IntakeOutcomeTransient)
		return nil, err
	}
	if !outcome.Fresh {
		s.record(observability.IntakeOutcomeDuplicate)
		s.logger.Info("intake event already processed",
			zap.String("state", string(IntakeDuplicate)),
			zap.String("message_id", normalized.MessageID),
			zap.String("ticket_id", outcome.TicketID))
		return receipt(outcome.TicketID, true), nil
	}

	ticket, err := s.persist(ctx, caller, normalized, creatorID, outcome.Pending)
	if err != nil {
		s.record(observability.IntakeOutcomeTransient)
		s.logger.Warn("intake persistence failed", zap.String("message_id", normalized.MessageID), zap.Error(err))
		return nil, apperrors.NewTransient(err)
	}

	s.record(observability.IntakeOutcomeCreated)
	s.logger.Info("intake ticket created",
		zap.String("state", string(IntakeAcknowledged)),
		zap.String("message_id", normalized.MessageID),
		zap.String("ticket_id", ticket.ID))
	publishEvent(ctx, s.dispatcher, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		Actor:    events.ActorFrom(caller),
		Payload: events.TicketCreatedPayload{
			Title:             ticket.Title,
			Source:            ticket.Source,
			ExternalMessageID: ticket.ExternalMessageID,
			CreatorID:         ticket.CreatorID,
		},
	})
	return receipt(ticket.ID, false), nil
}

func (s *IntakeService) validate(evt domain.InboundEvent) (*normalizedEvent, error) {
	evt.MessageID = strings.TrimSpace(evt.MessageID)
	if evt.MessageID == "" {
		return nil, apperrors.NewInvalidEvent("message_id is required")
	}
	evt.Title = strings.TrimSpace(evt.Title)
	if evt.Title == "" {
		evt.Title = s.defaultTitle
	}
	evt.BusinessKey = strings.TrimSpace(evt.BusinessKey)
	evt.RequesterName = strings.TrimSpace(evt.RequesterName)

	out := &normalizedEvent{InboundEvent: evt}
	// Contact details are stored as given. Only a parseable address is used for lookup.
	if addr, err := mail.ParseAddress(strings.TrimSpace(evt.RequesterEmail)); err == nil {
		out.lookupEmail = strings.ToLower(addr.Address)
		if out.RequesterName == "" {
			out.RequesterName = addr.Name
		}
	}
	return out, nil
}

func (s *IntakeService) resolveRequester(ctx context.Context, email string) *string {
	if email == "" || s.profiles == nil {
		return nil
	}
	profile, err := s.profiles.GetByEmail(ctx, email)
	if err != nil {
		if !apperrors.HasCode(storeError(err, "profile"), apperrors.CodeNotFound) {
			s.logger.Warn("requester lookup failed", zap.Error(err))
		}
		return nil
	}
	id := profile.ID
	return &id
}

func (s *IntakeService) persist(ctx context.Context, caller *domain.Identity, evt *normalizedEvent, creatorID *string, pending repository.ClaimTx) (*domain.Ticket, error) {
	messageID := evt.MessageID
	ticket := domain.NewTicket(uuid.NewString(), domain.TicketSourceEmail, evt.Title, evt.Content)
	ticket.ExternalMessageID = &messageID
	ticket.CreatorID = creatorID
	ticket.RequesterEmail = evt.RequesterEmail
	ticket.RequesterName = evt.RequesterName
	ticket.BusinessKey = evt.BusinessKey
	ticket.ReceivedAt = evt.ReceivedAt

	if err := pending.CreateTicket(ctx, ticket); err != nil {
		_ = pending.Rollback(ctx)
		return nil, err
	}
	entry := historyEntry(ticket.ID, caller, domain.ChangeTypeCreated, nil, map[string]any{
		"status": ticket.Status,
		"source": ticket.Source,
	})
	if err := pending.RecordHistory(ctx, entry); err != nil {
		_ = pending.Rollback(ctx)
		return nil, err
	}
	if err := s.ledger.Complete(ctx, messageID, pending, ticket.ID); err != nil {
		return nil, err
	}
	return ticket, nil
}

func (s *IntakeService) record(outcome string) {
	if s.recorder != nil {
		s.recorder.RecordIntake(outcome)
	}
}

func receipt(ticketID string, duplicate bool) *IntakeReceipt {
	return &IntakeReceipt{
		TicketID:  ticketID,
		Status:    domain.TicketStatusOpen,
		Source:    domain.TicketSourceEmail,
		Duplicate: duplicate,
	}
}
