// Package accountrepo manages repository layer of wallets and bank sub-accounts.
package accountrepo

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-petr/pet-wallet/internal/domain"
	"github.com/go-petr/pet-wallet/pkg/dbpkg"
	"github.com/go-petr/pet-wallet/pkg/errorspkg"

	"github.com/lib/pq"
	"github.com/rs/zerolog"
)

// RepoPGS facilitates account repository layer logic.
type RepoPGS struct {
	db dbpkg.SQLInterface
}

// NewRepoPGS returns account RepoPGS.
func NewRepoPGS(db dbpkg.SQLInterface) *RepoPGS {
	return &RepoPGS{
		db: db,
	}
}

const createWalletQuery = `
INSERT INTO
    users (username, full_name, email, balance)
VALUES
    ($1, $2, lower($3), $4)
RETURNING username, full_name, email, balance, created_at
`

// CreateWallet registers the principal with its wallet and then returns it.
func (r *RepoPGS) CreateWallet(ctx context.Context, arg domain.CreateWalletParams) (domain.Wallet, error) {
	l := zerolog.Ctx(ctx)

	row := r.db.QueryRowContext(ctx, createWalletQuery, arg.Username, arg.FullName, arg.Email, arg.Balance)

	w, err := scanWallet(row)
	if err != nil {
		l.Error().Err(err).Msgf("CreateWallet(ctx, %+v)", arg)

		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Constraint {
			case "users_pkey":
				return w, domain.ErrUsernameAlreadyExists
			case "users_email_key":
				return w, domain.ErrEmailAlreadyExists
			case "users_balance_check":
				return w, domain.ErrInvalidAmount
			}
		}

		return w, errorspkg.ErrInternal
	}

	return w, nil
}

const getWalletQuery = `
SELECT
	username, full_name, email, balance, created_at
FROM users
WHERE username = $1
`

// GetWallet returns the wallet of the given username.
func (r *RepoPGS) GetWallet(ctx context.Context, username string) (domain.Wallet, error) {
	return r.queryWallet(ctx, getWalletQuery, username)
}

const findWalletByEmailQuery = `
SELECT
	username, full_name, email, balance, created_at
FROM users
WHERE email = lower($1)
`

// FindWalletByEmail returns the wallet whose owner has the given email.
func (r *RepoPGS) FindWalletByEmail(ctx context.Context, email string) (domain.Wallet, error) {
	return r.queryWallet(ctx, findWalletByEmailQuery, email)
}

func (r *RepoPGS) queryWallet(ctx context.Context, query, arg string) (domain.Wallet, error) {
	l := zerolog.Ctx(ctx)

	w, err := scanWallet(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			l.Info().Err(err).Str("wallet", arg).Send()
			return w, domain.ErrAccountNotFound
		}

		l.Error().Err(err).Send()

		return w, errorspkg.ErrInternal
	}

	return w, nil
}

func scanWallet(row scanner) (domain.Wallet, error) {
	var w domain.Wallet

	err := row.Scan(
		&w.Username,
		&w.FullName,
		&w.Email,
		&w.Balance,
		&w.CreatedAt,
	)

	return w, err
}

const listWalletsQuery = `
SELECT
	username, full_name, email, balance, created_at
FROM users
WHERE username > $2
ORDER BY username
LIMIT $1
`

// ListWallets returns a page of all wallets ordered by username, starting after the given one.
func (r *RepoPGS) ListWallets(ctx context.Context, limit int32, after string) ([]domain.Wallet, error) {
	l := zerolog.Ctx(ctx)

	rows, err := r.db.QueryContext(ctx, listWalletsQuery, limit, after)
	if err != nil {
		l.Error().Err(err).Send()
		return nil, errorspkg.ErrInternal
	}
	defer rows.Close()

	items := []domain.Wallet{}

	for rows.Next() {
		w, err := scanWallet(rows)
		if err != nil {
			l.Error().Err(err).Send()
			return nil, errorspkg.ErrInternal
		}

		items = append(items, w)
	}

	if err := rows.Err(); err != nil {
		l.Error().Err(err).Send()
		return nil, errorspkg.ErrInternal
	}

	return items, nil
}

const createBankAccountQuery = `
INSERT INTO
    bank_accounts (owner, account_number, routing_code, account_type, balance)
VALUES
    ($1, $2, $3, $4, $5)
RETURNING id, owner, account_number, routing_code, account_type, balance, created_at
`

// CreateBankAccount creates the bank sub-account and then returns it.
func (r *RepoPGS) CreateBankAccount(ctx context.Context, arg domain.CreateBankAccountParams) (domain.BankAccount, error) {
	l := zerolog.Ctx(ctx)

	row := r.db.QueryRowContext(ctx, createBankAccountQuery,
		arg.Owner,
		arg.AccountNumber,
		arg.RoutingCode,
		arg.AccountType,
		arg.Balance,
	)

	a, err := scanBankAccount(row)
	if err != nil {
		l.Error().Err(err).Msgf("CreateBankAccount(ctx, %+v)", arg)

		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Constraint {
			case "bank_accounts_owner_fkey":
				return a, domain.ErrAccountNotFound
			case "bank_accounts_account_number_key":
				return a, domain.ErrAccountNumberExists
			case "bank_accounts_account_type_check":
				return a, domain.ErrInvalidAccountType
			case "bank_accounts_balance_check":
				return a, domain.ErrInvalidAmount
			}
		}

		return a, errorspkg.ErrInternal
	}

	return a, nil
}

const getBankAccountQuery = `
SELECT
	id, owner, account_number, routing_code, account_type, balance, created_at
FROM bank_accounts
WHERE owner = $1 AND account_number = $2
`

// GetBankAccount returns the owner's bank sub-account with the given number.
func (r *RepoPGS) GetBankAccount(ctx context.Context, owner, number string) (domain.BankAccount, error) {
	return r.queryBankAccount(ctx, getBankAccountQuery, owner, number)
}

const findBankAccountQuery = `
SELECT
	id, owner, account_number, routing_code, account_type, balance, created_at
FROM bank_accounts
WHERE account_number = $1
`

// FindBankAccount returns the bank sub-account with the given number, whoever owns it.
func (r *RepoPGS) FindBankAccount(ctx context.Context, number string) (domain.BankAccount, error) {
	return r.queryBankAccount(ctx, findBankAccountQuery, number)
}

func (r *RepoPGS) queryBankAccount(ctx context.Context, query string, args ...any) (domain.BankAccount, error) {
	l := zerolog.Ctx(ctx)

	a, err := scanBankAccount(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			l.Info().Err(err).Interface("bank_account", args).Send()
			return a, domain.ErrAccountNotFound
		}

		l.Error().Err(err).Send()

		return a, errorspkg.ErrInternal
	}

	return a, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanBankAccount(row scanner) (domain.BankAccount, error) {
	var a domain.BankAccount

	err := row.Scan(
		&a.ID,
		&a.Owner,
		&a.AccountNumber,
		&a.RoutingCode,
		&a.AccountType,
		&a.Balance,
		&a.CreatedAt,
	)

	return a, err
}

const listBankAccountsQuery = `
SELECT
	id, owner, account_number, routing_code, account_type, balance, created_at
FROM bank_accounts
WHERE owner = $1
ORDER BY id
`

// ListBankAccounts returns all bank sub-accounts of the owner.
func (r *RepoPGS) ListBankAccounts(ctx context.Context, owner string) ([]domain.BankAccount, error) {
	l := zerolog.Ctx(ctx)

	rows, err := r.db.QueryContext(ctx, listBankAccountsQuery, owner)
	if err != nil {
		l.Error().Err(err).Send()
		return nil, errorspkg.ErrInternal
	}
	defer rows.Close()

	items := []domain.BankAccount{}

	for rows.Next() {
		a, err := scanBankAccount(rows)
		if err != nil {
			l.Error().Err(err).Send()
			return nil, errorspkg.ErrInternal
		}

		items = append(items, a)
	}

	if err := rows.Close(); err != nil {
		l.Error().Err(err).Send()
		return nil, errorspkg.ErrInternal
	}

	if err := rows.Err(); err != nil {
		l.Error().Err(err).Send()
		return nil, errorspkg.ErrInternal
	}

	return items, nil
}

const (
	lockWalletQuery = `
SELECT balance FROM users
WHERE username = $1
FOR UPDATE
`
	lockBankAccountQuery = `
SELECT balance FROM bank_accounts
WHERE account_number = $1 AND owner = $2
FOR UPDATE
`
)

// Lock takes the row lock of the referenced balance until the surrounding transaction ends
// and returns the current balance.
//
// A bank reference is re-checked against its owner, so an account that changed hands or
// disappeared since the lookup is reported as domain.ErrAccountNotFound.
func (r *RepoPGS) Lock(ctx context.Context, ref domain.AccountRef) (domain.Money, error) {
	l := zerolog.Ctx(ctx)

	var row *sql.Row

	switch ref.Kind {
	case domain.AccountWallet:
		row = r.db.QueryRowContext(ctx, lockWalletQuery, ref.Owner)
	case domain.AccountBank:
		row = r.db.QueryRowContext(ctx, lockBankAccountQuery, ref.Number, ref.Owner)
	default:
		return 0, domain.ErrInvalidRequest
	}

	var balance domain.Money

	if err := row.Scan(&balance); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			l.Info().Str("ref", ref.Key()).Msg("lock: account not found")
			return 0, domain.ErrAccountNotFound
		}

		l.Error().Err(err).Str("ref", ref.Key()).Send()

		return 0, errorspkg.ErrInternal
	}

	return balance, nil
}

const (
	adjustWalletQuery = `
UPDATE users
SET balance = balance + $1
WHERE username = $2
RETURNING balance
`
	adjustBankAccountQuery = `
UPDATE bank_accounts
SET balance = balance + $1
WHERE account_number = $2
RETURNING balance
`
)

// AdjustBalance adds delta to the referenced balance and returns the new balance.
//
// The non-negative balance constraint is evaluated by the database at apply time,
// so a debit below zero fails with domain.ErrInsufficientFunds and changes nothing.
func (r *RepoPGS) AdjustBalance(ctx context.Context, ref domain.AccountRef, delta domain.Money) (domain.Money, error) {
	l := zerolog.Ctx(ctx)

	var row *sql.Row

	switch ref.Kind {
	case domain.AccountWallet:
		row = r.db.QueryRowContext(ctx, adjustWalletQuery, delta, ref.Owner)
	case domain.AccountBank:
		row = r.db.QueryRowContext(ctx, adjustBankAccountQuery, delta, ref.Number)
	default:
		return 0, domain.ErrInvalidRequest
	}

	var balance domain.Money

	if err := row.Scan(&balance); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			l.Info().Str("ref", ref.Key()).Msg("adjust: account not found")
			return 0, domain.ErrAccountNotFound
		}

		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Constraint {
			case "users_balance_check", "bank_accounts_balance_check":
				l.Info().Str("ref", ref.Key()).Int64("delta", int64(delta)).Msg("adjust: insufficient funds")
				return 0, domain.ErrInsufficientFunds
			}
		}

		l.Error().Err(err).Str("ref", ref.Key()).Send()

		return 0, errorspkg.ErrInternal
	}

	return balance, nil
}
