// Package splitrepo manages repository layer of splits.
package splitrepo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-petr/pet-wallet/internal/domain"
	"github.com/go-petr/pet-wallet/internal/recordrepo"
	"github.com/go-petr/pet-wallet/pkg/dbpkg"
	"github.com/go-petr/pet-wallet/pkg/errorspkg"
	"github.com/lib/pq"
	"github.com/rs/zerolog"
)

// RepoPGS facilitates split repository layer logic.
type RepoPGS struct {
	db   dbpkg.SQLInterface
	conn *sql.DB
}

// NewTxRepoPGS returns split RepoPGS bound to an outer transaction.
func NewTxRepoPGS(db dbpkg.SQLInterface) *RepoPGS {
	return &RepoPGS{
		db: db,
	}
}

// NewRepoPGS returns split RepoPGS with connection to start transactions.
func NewRepoPGS(db *sql.DB) *RepoPGS {
	return &RepoPGS{
		db:   db,
		conn: db,
	}
}

// inTx runs fn inside a new transaction, or directly on db when the repo is already bound to one.
func (r *RepoPGS) inTx(ctx context.Context, fn func(db dbpkg.SQLInterface) error) error {
	l := zerolog.Ctx(ctx)

	if r.conn == nil {
		return fn(r.db)
	}

	tx, err := r.conn.BeginTx(ctx, nil)
	if err != nil {
		l.Error().Err(err).Send()
		return errorspkg.ErrInternal
	}

	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			l.Error().Err(err).Msg("split rollback failed")
		}
	}()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		l.Error().Err(err).Send()
		return errorspkg.ErrInternal
	}

	return nil
}

const createSplitQuery = `
INSERT INTO
    splits (title, description, creator, total_amount)
VALUES
    ($1, $2, $3, $4)
RETURNING id
`

const createParticipantQuery = `
INSERT INTO
    split_participants (split_id, position, username, email, share, record_id)
VALUES
    ($1, $2, $3, lower($4), $5, $6)
`

// Create persists the split, its participants and one pending record per participant
// in a single transaction. No balance is touched.
func (r *RepoPGS) Create(ctx context.Context, arg domain.CreateSplitParams) (domain.Split, error) {
	l := zerolog.Ctx(ctx)

	var id int64

	err := r.inTx(ctx, func(db dbpkg.SQLInterface) error {
		row := db.QueryRowContext(ctx, createSplitQuery, arg.Title, arg.Description, arg.Creator, arg.TotalAmount)
		if err := row.Scan(&id); err != nil {
			l.Error().Err(err).Msgf("Create(ctx, %+v)", arg)
			return mapConstraint(err)
		}

		records := recordrepo.NewRepoPGS(db)

		description := arg.Description
		if description == "" {
			description = fmt.Sprintf("%s (split payment)", arg.Title)
		}

		for i, p := range arg.Participants {
			rec, err := records.Create(ctx, domain.CreateRecordParams{
				Owner:             arg.Creator,
				Amount:            p.Share,
				Kind:              domain.KindSplitPayment,
				Status:            domain.StatusPending,
				Description:       description,
				Counterparty:      p.Username,
				CounterpartyEmail: p.Email,
				SplitID:           id,
				Metadata:          domain.Metadata{domain.MetaSplitTitle: arg.Title},
			})
			if err != nil {
				return err
			}

			if _, err := db.ExecContext(ctx, createParticipantQuery, id, i, p.Username, p.Email, p.Share, rec.ID); err != nil {
				l.Error().Err(err).Str("participant", p.Username).Send()
				return mapConstraint(err)
			}
		}

		return nil
	})
	if err != nil {
		return domain.Split{}, err
	}

	return r.Get(ctx, id)
}

func mapConstraint(err error) error {
	if pqErr, ok := err.(*pq.Error); ok {
		switch pqErr.Constraint {
		case "splits_creator_fkey", "split_participants_username_fkey":
			return domain.ErrSplitParticipantNotFound
		case "split_participants_pkey":
			return domain.ErrSplitDuplicateParticipant
		case "splits_total_amount_check", "split_participants_share_check":
			return domain.ErrInvalidAmount
		}
	}

	return errorspkg.ErrInternal
}

const getSplitQuery = `
SELECT id, title, description, creator, total_amount, status, created_at
FROM splits
WHERE id = $1
`

const listParticipantsQuery = `
SELECT
	p.position, p.username, p.email, u.full_name, p.share, p.paid, p.record_id, r.status
FROM split_participants p
JOIN users u ON u.username = p.username
JOIN records r ON r.id = p.record_id
WHERE p.split_id = $1
ORDER BY p.position
`

// Get returns the split with its participants ordered by position.
func (r *RepoPGS) Get(ctx context.Context, id int64) (domain.Split, error) {
	l := zerolog.Ctx(ctx)

	var s domain.Split

	err := r.db.QueryRowContext(ctx, getSplitQuery, id).Scan(
		&s.ID,
		&s.Title,
		&s.Description,
		&s.Creator,
		&s.TotalAmount,
		&s.Status,
		&s.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			l.Info().Int64("split_id", id).Msg("split not found")
			return s, domain.ErrSplitNotFound
		}

		l.Error().Err(err).Send()

		return s, errorspkg.ErrInternal
	}

	rows, err := r.db.QueryContext(ctx, listParticipantsQuery, id)
	if err != nil {
		l.Error().Err(err).Send()
		return domain.Split{}, errorspkg.ErrInternal
	}
	defer rows.Close()

	s.Participants = []domain.SplitParticipant{}

	for rows.Next() {
		var p domain.SplitParticipant
		if err := rows.Scan(
			&p.Position,
			&p.Username,
			&p.Email,
			&p.FullName,
			&p.Share,
			&p.Paid,
			&p.RecordID,
			&p.RecordStatus,
		); err != nil {
			l.Error().Err(err).Send()
			return domain.Split{}, errorspkg.ErrInternal
		}

		s.Participants = append(s.Participants, p)
	}

	if err := rows.Close(); err != nil {
		l.Error().Err(err).Send()
		return domain.Split{}, errorspkg.ErrInternal
	}

	if err := rows.Err(); err != nil {
		l.Error().Err(err).Send()
		return domain.Split{}, errorspkg.ErrInternal
	}

	return s, nil
}

const listIDsQuery = `
SELECT DISTINCT s.id
FROM splits s
LEFT JOIN split_participants p ON p.split_id = s.id
WHERE s.creator = $1 OR p.username = $1
ORDER BY s.id DESC
LIMIT $2
`

// List returns the latest splits the user created or takes part in, newest first.
func (r *RepoPGS) List(ctx context.Context, username string, limit int32) ([]domain.Split, error) {
	l := zerolog.Ctx(ctx)

	rows, err := r.db.QueryContext(ctx, listIDsQuery, username, limit)
	if err != nil {
		l.Error().Err(err).Send()
		return nil, errorspkg.ErrInternal
	}
	defer rows.Close()

	var ids []int64

	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			l.Error().Err(err).Send()
			return nil, errorspkg.ErrInternal
		}

		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		l.Error().Err(err).Send()
		return nil, errorspkg.ErrInternal
	}

	rows.Close()

	items := make([]domain.Split, 0, len(ids))

	for _, id := range ids {
		s, err := r.Get(ctx, id)
		if err != nil {
			return nil, err
		}

		items = append(items, s)
	}

	return items, nil
}

const markPaidQuery = `
UPDATE split_participants
SET paid = true
WHERE split_id = $1 AND username = $2 AND NOT paid
`

// MarkPaid flags the participant's share as paid.
func (r *RepoPGS) MarkPaid(ctx context.Context, splitID int64, username string) error {
	l := zerolog.Ctx(ctx)

	res, err := r.db.ExecContext(ctx, markPaidQuery, splitID, username)
	if err != nil {
		l.Error().Err(err).Send()
		return errorspkg.ErrInternal
	}

	n, err := res.RowsAffected()
	if err != nil {
		l.Error().Err(err).Send()
		return errorspkg.ErrInternal
	}

	if n == 0 {
		return domain.ErrSplitAlreadySettled
	}

	return nil
}

const completeIfSettledQuery = `
UPDATE splits
SET status = 'completed'
WHERE id = $1 AND status = 'pending'
  AND NOT EXISTS (
    SELECT 1 FROM records WHERE split_id = $1 AND status <> 'completed'
  )
`

// CompleteIfSettled turns the split completed once every record of it is completed.
// It reports whether the split changed status.
func (r *RepoPGS) CompleteIfSettled(ctx context.Context, splitID int64) (bool, error) {
	l := zerolog.Ctx(ctx)

	res, err := r.db.ExecContext(ctx, completeIfSettledQuery, splitID)
	if err != nil {
		l.Error().Err(err).Send()
		return false, errorspkg.ErrInternal
	}

	n, err := res.RowsAffected()
	if err != nil {
		l.Error().Err(err).Send()
		return false, errorspkg.ErrInternal
	}

	return n > 0, nil
}

const failSplitQuery = `
UPDATE splits
SET status = 'failed'
WHERE id = $1 AND status = 'pending'
`

// Decline fails the participant's pending record and the split with it. No money moves.
func (r *RepoPGS) Decline(ctx context.Context, splitID int64, participant domain.SplitParticipant) (domain.Split, error) {
	l := zerolog.Ctx(ctx)

	err := r.inTx(ctx, func(db dbpkg.SQLInterface) error {
		if _, err := recordrepo.NewRepoPGS(db).Fail(ctx, participant.RecordID); err != nil {
			if errors.Is(err, domain.ErrRecordNotPending) {
				return domain.ErrSplitAlreadySettled
			}

			return err
		}

		if _, err := db.ExecContext(ctx, failSplitQuery, splitID); err != nil {
			l.Error().Err(err).Send()
			return errorspkg.ErrInternal
		}

		return nil
	})
	if err != nil {
		return domain.Split{}, err
	}

	return r.Get(ctx, splitID)
}
