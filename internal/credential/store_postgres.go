package credential

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"chainpass/pkg/domain"
	"chainpass/pkg/platform/sentinel"
)

// PostgresStore persists credential records in PostgreSQL:
//
//	CREATE TABLE credentials (
//	    owner_email   TEXT PRIMARY KEY,
//	    credential_id TEXT NOT NULL,
//	    public_key    BYTEA NOT NULL,
//	    sign_count    BIGINT NOT NULL DEFAULT 0,
//	    owner_name    TEXT NOT NULL,
//	    registered_at TIMESTAMPTZ NOT NULL
//	);
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Put(ctx context.Context, record Record) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO credentials (owner_email, credential_id, public_key, sign_count, owner_name, registered_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (owner_email) DO UPDATE
		SET credential_id = EXCLUDED.credential_id,
		    public_key = EXCLUDED.public_key,
		    sign_count = EXCLUDED.sign_count,
		    owner_name = EXCLUDED.owner_name,
		    registered_at = EXCLUDED.registered_at`,
		record.OwnerEmail.String(), record.CredentialID, record.PublicKey,
		int64(record.SignCount), record.OwnerName, record.RegisteredAt,
	)
	if err != nil {
		return fmt.Errorf("put credential: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, email domain.Email) (Record, error) {
	var (
		record     Record
		ownerEmail string
		signCount  int64
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT owner_email, credential_id, public_key, sign_count, owner_name, registered_at
		FROM credentials
		WHERE owner_email = $1`,
		email.String(),
	).Scan(&ownerEmail, &record.CredentialID, &record.PublicKey, &signCount, &record.OwnerName, &record.RegisteredAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, sentinel.ErrNotFound
		}
		return Record{}, fmt.Errorf("get credential: %w", err)
	}
	record.OwnerEmail = domain.Email(ownerEmail)
	record.SignCount = uint32(signCount)
	return record, nil
}

func (s *PostgresStore) Exists(ctx context.Context, email domain.Email) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM credentials WHERE owner_email = $1)`,
		email.String(),
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("credential exists: %w", err)
	}
	return exists, nil
}

// IncrementCounter advances the counter in a single UPDATE so the database
// serializes concurrent authentications on the row.
func (s *PostgresStore) IncrementCounter(ctx context.Context, email domain.Email) (uint32, error) {
	var signCount int64
	err := s.db.QueryRowContext(ctx, `
		UPDATE credentials SET sign_count = sign_count + 1
		WHERE owner_email = $1
		RETURNING sign_count`,
		email.String(),
	).Scan(&signCount)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, sentinel.ErrNotFound
		}
		return 0, fmt.Errorf("increment credential counter: %w", err)
	}
	return uint32(signCount), nil
}

func (s *PostgresStore) UpdateCounter(ctx context.Context, email domain.Email, newCounter uint32) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE credentials SET sign_count = $2 WHERE owner_email = $1`,
		email.String(), int64(newCounter),
	)
	if err != nil {
		return fmt.Errorf("update credential counter: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update credential counter: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}
