// Package notificationrepo manages repository layer of notifications.
package notificationrepo

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

// RepoPGS facilitates notification repository layer logic.
type RepoPGS struct {
	db dbpkg.SQLInterface
}

// NewRepoPGS returns notification RepoPGS.
func NewRepoPGS(db dbpkg.SQLInterface) *RepoPGS {
	return &RepoPGS{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanNotification(row scanner) (domain.Notification, error) {
	var n domain.Notification

	err := row.Scan(
		&n.ID,
		&n.Owner,
		&n.Title,
		&n.Message,
		&n.Read,
		&n.CreatedAt,
	)

	return n, err
}

const createQuery = `
INSERT INTO
    notifications (owner, title, message)
VALUES
    ($1, $2, $3)
RETURNING id, owner, title, message, read, created_at
`

// Create stores the notification and then returns it.
func (r *RepoPGS) Create(ctx context.Context, arg domain.CreateNotificationParams) (domain.Notification, error) {
	l := zerolog.Ctx(ctx)

	n, err := scanNotification(r.db.QueryRowContext(ctx, createQuery, arg.Owner, arg.Title, arg.Message))
	if err != nil {
		l.Error().Err(err).Msgf("Create(ctx, %+v)", arg)

		if pqErr, ok := err.(*pq.Error); ok && pqErr.Constraint == "notifications_owner_fkey" {
			return n, domain.ErrAccountNotFound
		}

		return n, errorspkg.ErrInternal
	}

	return n, nil
}

const listQuery = `
SELECT id, owner, title, message, read, created_at
FROM notifications
WHERE owner = $1
ORDER BY id DESC
LIMIT $2
`

// List returns the owner's latest notifications, newest first.
func (r *RepoPGS) List(ctx context.Context, owner string, limit int32) ([]domain.Notification, error) {
	l := zerolog.Ctx(ctx)

	rows, err := r.db.QueryContext(ctx, listQuery, owner, limit)
	if err != nil {
		l.Error().Err(err).Send()
		return nil, errorspkg.ErrInternal
	}
	defer rows.Close()

	items := []domain.Notification{}

	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			l.Error().Err(err).Send()
			return nil, errorspkg.ErrInternal
		}

		items = append(items, n)
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

const markReadQuery = `
UPDATE notifications
SET read = true
WHERE id = $1 AND owner = $2
RETURNING id, owner, title, message, read, created_at
`

// MarkRead marks the owner's notification as read.
func (r *RepoPGS) MarkRead(ctx context.Context, owner string, id int64) (domain.Notification, error) {
	l := zerolog.Ctx(ctx)

	n, err := scanNotification(r.db.QueryRowContext(ctx, markReadQuery, id, owner))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			l.Info().Int64("notification_id", id).Msg("notification not found")
			return n, domain.ErrNotificationNotFound
		}

		l.Error().Err(err).Send()

		return n, errorspkg.ErrInternal
	}

	return n, nil
}
