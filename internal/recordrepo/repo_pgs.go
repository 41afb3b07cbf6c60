// Package recordrepo manages repository layer of the activity records.
package recordrepo

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-petr/pet-wallet/internal/domain"
	"github.com/go-petr/pet-wallet/pkg/dbpkg"
	"github.com/go-petr/pet-wallet/pkg/errorspkg"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/rs/zerolog"
)

// RepoPGS facilitates record repository layer logic.
type RepoPGS struct {
	db dbpkg.SQLInterface
}

// NewRepoPGS returns record RepoPGS.
func NewRepoPGS(db dbpkg.SQLInterface) *RepoPGS {
	return &RepoPGS{db: db}
}

const columns = `
	id, owner, amount, kind, status, description, counterparty, counterparty_email,
	transfer_id, split_id, metadata, created_at, updated_at
`

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (domain.Record, error) {
	var (
		rec        domain.Record
		transferID uuid.NullUUID
		splitID    sql.NullInt64
	)

	err := row.Scan(
		&rec.ID,
		&rec.Owner,
		&rec.Amount,
		&rec.Kind,
		&rec.Status,
		&rec.Description,
		&rec.Counterparty,
		&rec.CounterpartyEmail,
		&transferID,
		&splitID,
		&rec.Metadata,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)

	rec.TransferID = transferID.UUID
	rec.SplitID = splitID.Int64

	return rec, err
}

const createQuery = `
INSERT INTO
    records (owner, amount, kind, status, description, counterparty, counterparty_email,
             transfer_id, split_id, metadata)
VALUES
    ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
RETURNING` + columns

// Create appends the record and then returns it.
func (r *RepoPGS) Create(ctx context.Context, arg domain.CreateRecordParams) (domain.Record, error) {
	l := zerolog.Ctx(ctx)

	status := arg.Status
	if status == "" {
		status = domain.StatusCompleted
	}

	row := r.db.QueryRowContext(ctx, createQuery,
		arg.Owner,
		arg.Amount,
		arg.Kind,
		status,
		arg.Description,
		arg.Counterparty,
		arg.CounterpartyEmail,
		uuid.NullUUID{UUID: arg.TransferID, Valid: arg.TransferID != uuid.Nil},
		sql.NullInt64{Int64: arg.SplitID, Valid: arg.SplitID != 0},
		arg.Metadata,
	)

	rec, err := scanRecord(row)
	if err != nil {
		l.Error().Err(err).Msgf("Create(ctx, %+v)", arg)

		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Constraint {
			case "records_owner_fkey":
				return rec, domain.ErrAccountNotFound
			case "records_split_id_fkey":
				return rec, domain.ErrSplitNotFound
			case "records_kind_check", "records_status_check":
				return rec, domain.ErrInvalidRequest
			}
		}

		return rec, errorspkg.ErrInternal
	}

	return rec, nil
}

const getQuery = `
SELECT` + columns + `FROM records
WHERE id = $1 LIMIT 1
`

// Get returns the record with the given id.
func (r *RepoPGS) Get(ctx context.Context, id int64) (domain.Record, error) {
	l := zerolog.Ctx(ctx)

	rec, err := scanRecord(r.db.QueryRowContext(ctx, getQuery, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			l.Info().Int64("record_id", id).Msg("record not found")
			return rec, domain.ErrRecordNotFound
		}

		l.Error().Err(err).Send()

		return rec, errorspkg.ErrInternal
	}

	return rec, nil
}

const historyQuery = `
SELECT` + columns + `FROM records
WHERE owner = $1 AND ($2::bigint = 0 OR id < $2::bigint)
ORDER BY id DESC
LIMIT $3
`

// History returns a page of the owner's records, newest first.
func (r *RepoPGS) History(ctx context.Context, arg domain.HistoryParams) ([]domain.Record, error) {
	return r.list(ctx, historyQuery, arg.Owner, arg.Cursor, arg.Limit)
}

const listAllQuery = `
SELECT` + columns + `FROM records
WHERE ($1::bigint = 0 OR id < $1::bigint)
ORDER BY id DESC
LIMIT $2
`

// ListAll returns a page of every owner's records, newest first.
func (r *RepoPGS) ListAll(ctx context.Context, limit int32, cursor int64) ([]domain.Record, error) {
	return r.list(ctx, listAllQuery, cursor, limit)
}

const listByTransferQuery = `
SELECT` + columns + `FROM records
WHERE transfer_id = $1
ORDER BY id
`

// ListByTransfer returns the records written by one transfer in insertion order.
func (r *RepoPGS) ListByTransfer(ctx context.Context, transferID uuid.UUID) ([]domain.Record, error) {
	return r.list(ctx, listByTransferQuery, transferID)
}

func (r *RepoPGS) list(ctx context.Context, query string, args ...any) ([]domain.Record, error) {
	l := zerolog.Ctx(ctx)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		l.Error().Err(err).Send()
		return nil, errorspkg.ErrInternal
	}
	defer rows.Close()

	items := []domain.Record{}

	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			l.Error().Err(err).Send()
			return nil, errorspkg.ErrInternal
		}

		items = append(items, rec)
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

const resolveQuery = `
UPDATE records
SET status = $2, updated_at = now()
WHERE id = $1 AND status = 'pending'
RETURNING` + columns

// Complete moves a pending record to completed.
func (r *RepoPGS) Complete(ctx context.Context, id int64) (domain.Record, error) {
	return r.resolve(ctx, id, domain.StatusCompleted)
}

// Fail moves a pending record to failed.
func (r *RepoPGS) Fail(ctx context.Context, id int64) (domain.Record, error) {
	return r.resolve(ctx, id, domain.StatusFailed)
}

// resolve is the only update a record ever gets. It happens at most once.
func (r *RepoPGS) resolve(ctx context.Context, id int64, status domain.RecordStatus) (domain.Record, error) {
	l := zerolog.Ctx(ctx)

	rec, err := scanRecord(r.db.QueryRowContext(ctx, resolveQuery, id, status))
	if err == nil {
		return rec, nil
	}

	if !errors.Is(err, sql.ErrNoRows) {
		l.Error().Err(err).Send()
		return rec, errorspkg.ErrInternal
	}

	if _, err := r.Get(ctx, id); err != nil {
		return domain.Record{}, err
	}

	l.Info().Int64("record_id", id).Str("status", string(status)).Msg("record is not pending")

	return domain.Record{}, domain.ErrRecordNotPending
}
