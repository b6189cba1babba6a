package audit

import (
	"context"
	"database/sql"
	"fmt"

	"chainpass/pkg/domain"
)

// PostgresStore persists the event log in PostgreSQL. The table is insert-only;
// no update or delete statements exist on purpose.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Append(ctx context.Context, event Event) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO registry_events (owner_address, name, email, action, device, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		event.OwnerAddress.String(), event.Name, event.Email.String(),
		event.Action, event.Device, event.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("append registry event: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByOwner(ctx context.Context, owner domain.Address) ([]Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT owner_address, name, email, action, device, occurred_at
		FROM registry_events
		WHERE owner_address = $1
		ORDER BY occurred_at`,
		owner.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("list registry events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var (
			e            Event
			ownerAddr    string
			subjectEmail string
		)
		if err := rows.Scan(&ownerAddr, &e.Name, &subjectEmail, &e.Action, &e.Device, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("scan registry event: %w", err)
		}
		e.OwnerAddress = domain.Address(ownerAddr)
		e.Email = domain.Email(subjectEmail)
		events = append(events, e)
	}
	return events, rows.Err()
}
