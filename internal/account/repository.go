package account

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	uniqueViolation   = "23505"
	numericOutOfRange = "22003"
)

var (
	_ Repository = (*PostgresRepository)(nil)
	_ Repository = (*GormRepository)(nil)
)

// Repository persists accounts. Transfer must apply both balance changes
// atomically or not at all.
type Repository interface {
	Create(ctx context.Context, acct Account) error
	IdentifierExists(ctx context.Context, id string) (bool, error)
	FindByNumber(ctx context.Context, number string) (Account, error)
	FindByCredentials(ctx context.Context, number, pin string) (Account, error)
	Balance(ctx context.Context, number string) (int64, error)
	Deposit(ctx context.Context, number string, amount int64) (int64, error)
	Transfer(ctx context.Context, from, to string, amount int64) (TransferResult, error)
	Delete(ctx context.Context, number string) error
}

// PostgresRepository stores accounts in PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a repository backed by PostgreSQL.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Migrate creates the accounts table when it does not exist yet.
func (r *PostgresRepository) Migrate(ctx context.Context) error {
	_, err := r.db.Exec(ctx, Schema)
	return err
}

// Create inserts a new account record.
func (r *PostgresRepository) Create(ctx context.Context, acct Account) error {
	_, err := r.db.Exec(ctx, `INSERT INTO accounts (id, number, pin, balance) VALUES ($1, $2, $3, $4)`,
		acct.ID, acct.Number, acct.PIN, acct.Balance)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return ErrDuplicate
	}
	return err
}

// IdentifierExists reports whether id belongs to a live account.
func (r *PostgresRepository) IdentifierExists(ctx context.Context, id string) (bool, error) {
	var exists bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM accounts WHERE id = $1)`, id).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// FindByNumber fetches an account by card number.
func (r *PostgresRepository) FindByNumber(ctx context.Context, number string) (Account, error) {
	row := r.db.QueryRow(ctx, `SELECT id, number, pin, balance FROM accounts WHERE number = $1`, number)
	return scanAccount(row)
}

// FindByCredentials fetches the account matching both card number and PIN.
func (r *PostgresRepository) FindByCredentials(ctx context.Context, number, pin string) (Account, error) {
	row := r.db.QueryRow(ctx, `SELECT id, number, pin, balance FROM accounts WHERE number = $1 AND pin = $2`, number, pin)
	return scanAccount(row)
}

// Balance returns the stored balance for number.
func (r *PostgresRepository) Balance(ctx context.Context, number string) (int64, error) {
	var balance int64
	if err := r.db.QueryRow(ctx, `SELECT balance FROM accounts WHERE number = $1`, number).Scan(&balance); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, err
	}
	return balance, nil
}

// Deposit adds amount to the balance and returns the new balance.
func (r *PostgresRepository) Deposit(ctx context.Context, number string, amount int64) (int64, error) {
	var balance int64
	err := r.db.QueryRow(ctx, `UPDATE accounts SET balance = balance + $1 WHERE number = $2 RETURNING balance`,
		amount, number).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrNotFound
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == numericOutOfRange {
			return 0, ErrBalanceOverflow
		}
		return 0, err
	}
	return balance, nil
}

// Transfer moves amount between two accounts in a single transaction. Both
// rows are locked in card number order so concurrent transfers cannot deadlock.
func (r *PostgresRepository) Transfer(ctx context.Context, from, to string, amount int64) (TransferResult, error) {
	if amount <= 0 {
		return TransferResult{}, fmt.Errorf("amount must be positive")
	}

	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return TransferResult{}, err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	first, second := from, to
	if second < first {
		first, second = second, first
	}
	balances := make(map[string]int64, 2)
	for _, number := range []string{first, second} {
		balance, err := lockBalance(ctx, tx, number)
		if err != nil {
			return TransferResult{}, err
		}
		balances[number] = balance
	}

	if balances[from] < amount {
		return TransferResult{}, ErrInsufficientFunds
	}
	if !canCredit(balances[to], amount) {
		return TransferResult{}, ErrBalanceOverflow
	}

	var res TransferResult
	if err := tx.QueryRow(ctx, `UPDATE accounts SET balance = balance - $1 WHERE number = $2 RETURNING balance`,
		amount, from).Scan(&res.FromBalance); err != nil {
		return TransferResult{}, err
	}
	if err := tx.QueryRow(ctx, `UPDATE accounts SET balance = balance + $1 WHERE number = $2 RETURNING balance`,
		amount, to).Scan(&res.ToBalance); err != nil {
		return TransferResult{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return TransferResult{}, err
	}
	return res, nil
}

// Delete removes the account permanently.
func (r *PostgresRepository) Delete(ctx context.Context, number string) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM accounts WHERE number = $1`, number)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func lockBalance(ctx context.Context, tx pgx.Tx, number string) (int64, error) {
	var balance int64
	if err := tx.QueryRow(ctx, `SELECT balance FROM accounts WHERE number = $1 FOR UPDATE`, number).Scan(&balance); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, err
	}
	return balance, nil
}

func scanAccount(row pgx.Row) (Account, error) {
	var a Account
	if err := row.Scan(&a.ID, &a.Number, &a.PIN, &a.Balance); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, ErrNotFound
		}
		return Account{}, err
	}
	return a, nil
}
