// storage/postgres.go

package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"simple-banking/ledger"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

var _ ledger.Repository = (*PostgresStore)(nil)

// PostgresStore implements ledger.Repository for PostgreSQL.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore connects to the database, retrying with exponential backoff
// for up to connectTimeout, and initializes the schema.
func NewPostgresStore(ctx context.Context, connString string, connectTimeout time.Duration) (*PostgresStore, error) {
	var pool *pgxpool.Pool

	connect := func() error {
		p, err := pgxpool.New(ctx, connString)
		if err != nil {
			return backoff.Permanent(err)
		}
		if err := p.Ping(ctx); err != nil {
			p.Close()
			return err
		}
		pool = p
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = connectTimeout
	if err := backoff.Retry(connect, backoff.WithContext(b, ctx)); err != nil {
		return nil, fmt.Errorf("could not connect to database after retries: %w", err)
	}

	store := &PostgresStore{db: pool}
	if err := store.initSchema(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("could not initialize schema: %w", err)
	}

	return store, nil
}

func (s *PostgresStore) Close() {
	s.db.Close()
}

// initSchema creates the necessary tables if they don't exist.
func (s *PostgresStore) initSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS bank_accounts (
            account_number VARCHAR(16) PRIMARY KEY,
            owner VARCHAR(100) NOT NULL,
            balance NUMERIC(19, 2) NOT NULL CHECK (balance >= 0),
            version BIGINT NOT NULL DEFAULT 0,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        )`,
		`CREATE TABLE IF NOT EXISTS transactions (
            id BIGSERIAL PRIMARY KEY,
            account_number VARCHAR(16) NOT NULL REFERENCES bank_accounts (account_number),
            seq BIGINT NOT NULL,
            kind VARCHAR(32) NOT NULL,
            amount NUMERIC(19, 2) NOT NULL CHECK (amount > 0),
            date TIMESTAMPTZ NOT NULL,
            approval_code VARCHAR(64) NOT NULL UNIQUE,
            phone_company VARCHAR(32),
            phone_number VARCHAR(11),
            payee VARCHAR(100),
            check_number VARCHAR(32),
            UNIQUE (account_number, seq)
        )`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// Create inserts a new, empty account.
func (s *PostgresStore) Create(ctx context.Context, account *ledger.Account) error {
	query := `
		INSERT INTO bank_accounts (account_number, owner, balance, version, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (account_number) DO NOTHING`
	tag, err := s.db.Exec(ctx, query,
		account.Number(), account.Owner(), account.Balance(), account.Version(), account.CreatedAt())
	if err != nil {
		return fmt.Errorf("could not create account: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ledger.ErrDuplicateAccount
	}
	return nil
}

// ExistsByAccountNumber reports whether an account with the number exists.
func (s *PostgresStore) ExistsByAccountNumber(ctx context.Context, number string) (bool, error) {
	var exists bool
	query := "SELECT EXISTS (SELECT 1 FROM bank_accounts WHERE account_number = $1)"
	if err := s.db.QueryRow(ctx, query, number).Scan(&exists); err != nil {
		return false, fmt.Errorf("could not check account: %w", err)
	}
	return exists, nil
}

// FindByAccountNumber loads an account with its full transaction history.
func (s *PostgresStore) FindByAccountNumber(ctx context.Context, number string) (*ledger.Account, error) {
	snapshot := ledger.AccountSnapshot{AccountNumber: number}
	query := "SELECT owner, balance, version, created_at FROM bank_accounts WHERE account_number = $1"
	err := s.db.QueryRow(ctx, query, number).
		Scan(&snapshot.Owner, &snapshot.Balance, &snapshot.Version, &snapshot.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ledger.ErrAccountNotFound
		}
		return nil, fmt.Errorf("could not load account: %w", err)
	}

	rows, err := s.db.Query(ctx, `
		SELECT kind, amount, date, approval_code,
		       COALESCE(phone_company, ''), COALESCE(phone_number, ''),
		       COALESCE(payee, ''), COALESCE(check_number, '')
		FROM transactions
		WHERE account_number = $1
		ORDER BY seq`, number)
	if err != nil {
		return nil, fmt.Errorf("could not query transactions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var kind, company string
		ts := ledger.TransactionSnapshot{AccountNumber: number}
		if err := rows.Scan(&kind, &ts.Amount, &ts.Date, &ts.ApprovalCode,
			&company, &ts.PhoneNumber, &ts.Payee, &ts.CheckNumber); err != nil {
			return nil, fmt.Errorf("could not scan transaction row: %w", err)
		}
		ts.Kind = ledger.Kind(kind)
		ts.PhoneCompany = ledger.PhoneCompany(company)
		snapshot.Transactions = append(snapshot.Transactions, ts)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("could not read transactions: %w", err)
	}

	return ledger.RestoreAccount(snapshot)
}

// Save persists t, which has just been posted to account, together with the
// account's new balance. It locks the account row and fails with
// ledger.ErrConcurrentUpdate if another writer moved the version since the
// account was loaded.
func (s *PostgresStore) Save(ctx context.Context, account *ledger.Account, t *ledger.Transaction) error {
	version := account.Version()
	ts := t.Snapshot()

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) // Rollback is a no-op if the transaction has been committed.

	var stored int64
	err = tx.QueryRow(ctx,
		"SELECT version FROM bank_accounts WHERE account_number = $1 FOR UPDATE",
		account.Number()).Scan(&stored)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ledger.ErrAccountNotFound
		}
		return fmt.Errorf("could not lock account: %w", err)
	}
	if stored != version-1 {
		return fmt.Errorf("stored version %d, posting version %d: %w", stored, version, ledger.ErrConcurrentUpdate)
	}

	if _, err := tx.Exec(ctx,
		"UPDATE bank_accounts SET balance = $1, version = $2 WHERE account_number = $3",
		account.Balance(), version, account.Number()); err != nil {
		return fmt.Errorf("could not update balance: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO transactions (account_number, seq, kind, amount, date, approval_code,
		                          phone_company, phone_number, payee, check_number)
		VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''), NULLIF($8, ''), NULLIF($9, ''), NULLIF($10, ''))`,
		account.Number(), version, string(ts.Kind), ts.Amount, ts.Date, ts.ApprovalCode,
		string(ts.PhoneCompany), ts.PhoneNumber, ts.Payee, ts.CheckNumber)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("%s: %w", pgErr.ConstraintName, ledger.ErrConcurrentUpdate)
		}
		return fmt.Errorf("could not insert transaction: %w", err)
	}

	return tx.Commit(ctx)
}
