package registry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"chainpass/pkg/domain"
	"chainpass/pkg/platform/sentinel"
	"chainpass/pkg/platform/tx"
)

// PostgresStore persists identity records in PostgreSQL. Uniqueness of
// email and id-hash across active records is enforced by partial unique
// indexes, so concurrent registrations race safely inside the database:
//
//	CREATE TABLE identities (
//	    owner_address TEXT PRIMARY KEY,
//	    name          TEXT NOT NULL,
//	    email         TEXT NOT NULL,
//	    id_hash       TEXT NOT NULL,
//	    registered_at TIMESTAMPTZ NOT NULL,
//	    active        BOOLEAN NOT NULL DEFAULT TRUE
//	);
//	CREATE UNIQUE INDEX identities_email_active ON identities (email) WHERE active;
//	CREATE UNIQUE INDEX identities_id_hash_active ON identities (id_hash) WHERE active;
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// q returns the context transaction when one is in flight, otherwise the
// pool. Callers that group registry writes with other tables use tx.WithTx.
func (s *PostgresStore) q(ctx context.Context) querier {
	if txn, ok := tx.From(ctx); ok {
		return txn
	}
	return s.db
}

func (s *PostgresStore) Create(ctx context.Context, record Record) error {
	// Re-registration after deactivation reuses the address row. The DO
	// UPDATE branch only fires for inactive rows, so an address with an
	// active record yields zero affected rows.
	res, err := s.q(ctx).ExecContext(ctx, `
		INSERT INTO identities (owner_address, name, email, id_hash, registered_at, active)
		VALUES ($1, $2, $3, $4, $5, TRUE)
		ON CONFLICT (owner_address) DO UPDATE
		SET name = EXCLUDED.name,
		    email = EXCLUDED.email,
		    id_hash = EXCLUDED.id_hash,
		    registered_at = EXCLUDED.registered_at,
		    active = TRUE
		WHERE identities.active = FALSE`,
		record.OwnerAddress.String(), record.Name, record.Email.String(),
		record.IDHash.String(), record.RegisteredAt,
	)
	if err != nil {
		return translateCreateError(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("create identity: %w", err)
	}
	if affected == 0 {
		return ErrAddressTaken
	}
	return nil
}

func translateCreateError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		switch {
		case strings.Contains(pqErr.Constraint, "email"):
			return ErrEmailTaken
		case strings.Contains(pqErr.Constraint, "id_hash"):
			return ErrIDHashTaken
		default:
			return ErrAddressTaken
		}
	}
	return fmt.Errorf("create identity: %w", err)
}

func (s *PostgresStore) FindByOwner(ctx context.Context, owner domain.Address) (Record, error) {
	row := s.q(ctx).QueryRowContext(ctx, `
		SELECT owner_address, name, email, id_hash, registered_at, active
		FROM identities
		WHERE owner_address = $1 AND active`,
		owner.String(),
	)
	return scanRecord(row)
}

func (s *PostgresStore) FindByEmail(ctx context.Context, email domain.Email) (Record, error) {
	row := s.q(ctx).QueryRowContext(ctx, `
		SELECT owner_address, name, email, id_hash, registered_at, active
		FROM identities
		WHERE email = $1 AND active`,
		email.String(),
	)
	return scanRecord(row)
}

func (s *PostgresStore) ListActive(ctx context.Context) ([]Record, error) {
	rows, err := s.q(ctx).QueryContext(ctx, `
		SELECT owner_address, name, email, id_hash, registered_at, active
		FROM identities
		WHERE active
		ORDER BY registered_at`)
	if err != nil {
		return nil, fmt.Errorf("list identities: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

func (s *PostgresStore) CountActive(ctx context.Context) (int, error) {
	var count int
	err := s.q(ctx).QueryRowContext(ctx,
		`SELECT COUNT(*) FROM identities WHERE active`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count identities: %w", err)
	}
	return count, nil
}

func (s *PostgresStore) Deactivate(ctx context.Context, owner domain.Address) error {
	res, err := s.q(ctx).ExecContext(ctx,
		`UPDATE identities SET active = FALSE WHERE owner_address = $1 AND active`,
		owner.String(),
	)
	if err != nil {
		return fmt.Errorf("deactivate identity: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deactivate identity: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (Record, error) {
	var (
		record Record
		owner  string
		email  string
		idHash string
	)
	err := row.Scan(&owner, &record.Name, &email, &idHash, &record.RegisteredAt, &record.Active)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, sentinel.ErrNotFound
		}
		return Record{}, fmt.Errorf("scan identity: %w", err)
	}
	record.OwnerAddress = domain.Address(owner)
	record.Email = domain.Email(email)
	record.IDHash = domain.IDHash(idHash)
	return record, nil
}
