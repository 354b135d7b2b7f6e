package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/spec-kit/helpdesk-intake/internal/domain"
	"github.com/spec-kit/helpdesk-intake/internal/repository"
)

type ticketStore struct {
	db *sql.DB
}

const ticketColumns = `id, external_message_id, title, description, status, source, creator_id, owner_id,
    requester_email, requester_name, business_key, received_at, created_at, updated_at`

func (s *ticketStore) Create(ctx context.Context, ticket *domain.Ticket) error {
	return insertTicket(ctx, s.db, ticket)
}

func insertTicket(ctx context.Context, db queryer, ticket *domain.Ticket) error {
	now := time.Now().UTC()
	if ticket.CreatedAt.IsZero() {
		ticket.CreatedAt = now
	}
	if ticket.UpdatedAt.IsZero() {
		ticket.UpdatedAt = ticket.CreatedAt
	}
	_, err := db.ExecContext(ctx, `
        INSERT INTO tickets (`+ticketColumns+`)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ticket.ID,
		nullableString(ticket.ExternalMessageID),
		ticket.Title,
		ticket.Description,
		ticket.Status,
		ticket.Source,
		nullableString(ticket.CreatorID),
		nullableString(ticket.OwnerID),
		ticket.RequesterEmail,
		ticket.RequesterName,
		ticket.BusinessKey,
		nullableMillis(ticket.ReceivedAt),
		toMillis(ticket.CreatedAt),
		toMillis(ticket.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert ticket: %w", err)
	}
	return nil
}

func (s *ticketStore) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	return scanTicket(s.db.QueryRowContext(ctx, `SELECT `+ticketColumns+` FROM tickets WHERE id = ?`, id))
}

func (s *ticketStore) UpdateStatus(ctx context.Context, id string, from, to domain.TicketStatus) (*domain.Ticket, error) {
	ticket, err := scanTicket(s.db.QueryRowContext(ctx, `
        UPDATE tickets SET status = ?, updated_at = ?
        WHERE id = ? AND status = ?
        RETURNING `+ticketColumns,
		to, toMillis(time.Now()), id, from))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, repository.ErrStaleWrite
	}
	return ticket, err
}

func (s *ticketStore) UpdateOwner(ctx context.Context, id string, ownerID *string) (*domain.Ticket, error) {
	return scanTicket(s.db.QueryRowContext(ctx, `
        UPDATE tickets SET owner_id = ?, updated_at = ?
        WHERE id = ?
        RETURNING `+ticketColumns,
		nullableString(ownerID), toMillis(time.Now()), id))
}

func scanTicket(row *sql.Row) (*domain.Ticket, error) {
	var (
		ticket     domain.Ticket
		externalID sql.NullString
		creatorID  sql.NullString
		ownerID    sql.NullString
		receivedAt sql.NullInt64
		createdAt  int64
		updatedAt  int64
	)
	if err := row.Scan(
		&ticket.ID,
		&externalID,
		&ticket.Title,
		&ticket.Description,
		&ticket.Status,
		&ticket.Source,
		&creatorID,
		&ownerID,
		&ticket.RequesterEmail,
		&ticket.RequesterName,
		&ticket.BusinessKey,
		&receivedAt,
		&createdAt,
		&updatedAt,
	); err != nil {
		return nil, mapNoRows(err)
	}
	ticket.ExternalMessageID = stringPtr(externalID)
	ticket.CreatorID = stringPtr(creatorID)
	ticket.OwnerID = stringPtr(ownerID)
	ticket.ReceivedAt = timePtr(receivedAt)
	ticket.CreatedAt = fromMillis(createdAt)
	ticket.UpdatedAt = fromMillis(updatedAt)
	return &ticket, nil
}

type historyStore struct {
	db *sql.DB
}

func (s *historyStore) Create(ctx context.Context, history *domain.TicketHistory) error {
	return insertHistory(ctx, s.db, history)
}

func encodeValue(value map[string]any) (sql.NullString, error) {
	if value == nil {
		return sql.NullString{}, nil
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(raw), Valid: true}, nil
}

func decodeValue(raw sql.NullString) (map[string]any, error) {
	if !raw.Valid {
		return nil, nil
	}
	var value map[string]any
	if err := json.Unmarshal([]byte(raw.String), &value); err != nil {
		return nil, err
	}
	return value, nil
}

func insertHistory(ctx context.Context, db queryer, history *domain.TicketHistory) error {
	oldValue, err := encodeValue(history.OldValue)
	if err != nil {
		return fmt.Errorf("encode old value: %w", err)
	}
	newValue, err := encodeValue(history.NewValue)
	if err != nil {
		return fmt.Errorf("encode new value: %w", err)
	}
	if history.CreatedAt.IsZero() {
		history.CreatedAt = time.Now().UTC()
	}
	_, err = db.ExecContext(ctx, `
        INSERT INTO ticket_history (id, ticket_id, changed_by_id, change_type, old_value, new_value, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?)`,
		history.ID,
		history.TicketID,
		nullableString(history.ChangedByID),
		history.ChangeType,
		oldValue,
		newValue,
		toMillis(history.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert history: %w", err)
	}
	return nil
}

func (s *historyStore) ListByTicket(ctx context.Context, ticketID string) ([]domain.TicketHistory, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT id, ticket_id, changed_by_id, change_type, old_value, new_value, created_at
        FROM ticket_history WHERE ticket_id = ? ORDER BY created_at ASC, rowid ASC`, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.TicketHistory
	for rows.Next() {
		var (
			history     domain.TicketHistory
			changedByID sql.NullString
			oldValue    sql.NullString
			newValue    sql.NullString
			createdAt   int64
		)
		if err := rows.Scan(
			&history.ID,
			&history.TicketID,
			&changedByID,
			&history.ChangeType,
			&oldValue,
			&newValue,
			&createdAt,
		); err != nil {
			return nil, err
		}
		history.ChangedByID = stringPtr(changedByID)
		history.CreatedAt = fromMillis(createdAt)
		if history.OldValue, err = decodeValue(oldValue); err != nil {
			return nil, fmt.Errorf("decode old value: %w", err)
		}
		if history.NewValue, err = decodeValue(newValue); err != nil {
			return nil, fmt.Errorf("decode new value: %w", err)
		}
		result = append(result, history)
	}
	return result, rows.Err()
}
