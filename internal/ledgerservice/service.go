// Package ledgerservice serves the activity log and notifications of a user.
package ledgerservice

import (
	"context"

	"github.com/go-petr/pet-wallet/internal/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// RecordRepo provides data access layer interface to transaction records.
//
//go:generate mockgen -source service.go -destination service_mock.go -package ledgerservice
type RecordRepo interface {
	History(ctx context.Context, arg domain.HistoryParams) ([]domain.Record, error)
	ListAll(ctx context.Context, limit int32, cursor int64) ([]domain.Record, error)
	ListByTransfer(ctx context.Context, transferID uuid.UUID) ([]domain.Record, error)
}

// NotificationRepo provides data access layer interface to notifications.
type NotificationRepo interface {
	List(ctx context.Context, owner string, limit int32) ([]domain.Notification, error)
	MarkRead(ctx context.Context, owner string, id int64) (domain.Notification, error)
}

// Service facilitates ledger service layer logic.
type Service struct {
	records       RecordRepo
	notifications NotificationRepo
}

// New returns ledger service.
func New(rr RecordRepo, nr NotificationRepo) *Service {
	return &Service{
		records:       rr,
		notifications: nr,
	}
}

// History returns a page of the owner's records, newest first.
func (s *Service) History(ctx context.Context, owner string, limit int32, cursor int64) ([]domain.Record, error) {
	return s.records.History(ctx, domain.HistoryParams{
		Owner:  owner,
		Limit:  domain.PageLimit(limit),
		Cursor: cursor,
	})
}

// Audit returns a page of all records for administrators, newest first.
func (s *Service) Audit(ctx context.Context, limit int32, cursor int64) ([]domain.Record, error) {
	return s.records.ListAll(ctx, domain.PageLimit(limit), cursor)
}

// Transfer returns the records of one transfer if the actor owns any of them.
func (s *Service) Transfer(ctx context.Context, actor string, transferID uuid.UUID) ([]domain.Record, error) {
	records, err := s.records.ListByTransfer(ctx, transferID)
	if err != nil {
		return nil, err
	}

	for _, r := range records {
		if r.Owner == actor {
			return records, nil
		}
	}

	zerolog.Ctx(ctx).Info().Str("actor", actor).Str("transfer_id", transferID.String()).Msg("transfer not visible")

	return nil, domain.ErrRecordNotFound
}

// Notifications returns the latest notifications of the owner.
func (s *Service) Notifications(ctx context.Context, owner string, limit int32) ([]domain.Notification, error) {
	return s.notifications.List(ctx, owner, domain.PageLimit(limit))
}

// MarkNotificationRead marks the owner's notification read.
func (s *Service) MarkNotificationRead(ctx context.Context, owner string, id int64) (domain.Notification, error) {
	return s.notifications.MarkRead(ctx, owner, id)
}
