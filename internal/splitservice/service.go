// Package splitservice manages business logic layer of splits.
package splitservice

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-petr/pet-wallet/internal/domain"
	"github.com/go-petr/pet-wallet/pkg/moneypkg"
	"github.com/rs/zerolog"
)

// Repo provides data access layer interface needed by split service layer.
//
//go:generate mockgen -source service.go -destination service_mock.go -package splitservice
type Repo interface {
	Create(ctx context.Context, arg domain.CreateSplitParams) (domain.Split, error)
	Get(ctx context.Context, id int64) (domain.Split, error)
	List(ctx context.Context, username string, limit int32) ([]domain.Split, error)
	Decline(ctx context.Context, splitID int64, participant domain.SplitParticipant) (domain.Split, error)
}

// AccountStore resolves the creator and the participants.
type AccountStore interface {
	GetWallet(ctx context.Context, username string) (domain.Wallet, error)
	FindWalletByEmail(ctx context.Context, email string) (domain.Wallet, error)
}

// Settler moves a participant's share through the transfer engine.
type Settler interface {
	SettleSplit(ctx context.Context, actor string, split domain.Split) (domain.TransferResult, error)
}

// Notifier delivers split notifications.
type Notifier interface {
	Notify(ctx context.Context, n domain.CreateNotificationParams)
}

// Service facilitates split service layer logic.
type Service struct {
	repo     Repo
	accounts AccountStore
	settler  Settler
	notifier Notifier
}

// New returns split service struct to manage split bussines logic.
func New(sr Repo, as AccountStore, st Settler, n Notifier) *Service {
	return &Service{
		repo:     sr,
		accounts: as,
		settler:  st,
		notifier: n,
	}
}

// Create validates the split and persists it with one pending record per participant.
// No money moves until participants settle.
func (s *Service) Create(ctx context.Context, creator string, req domain.CreateSplitRequest) (domain.Split, error) {
	l := zerolog.Ctx(ctx)

	title := strings.TrimSpace(req.Title)
	if title == "" {
		return domain.Split{}, fmt.Errorf("%w: title is required", domain.ErrInvalidRequest)
	}

	if len(req.Participants) == 0 {
		return domain.Split{}, domain.ErrSplitNoParticipants
	}

	total, err := moneypkg.ParsePositive(req.TotalAmount)
	if err != nil {
		return domain.Split{}, fmt.Errorf("%w: total: %v", domain.ErrInvalidAmount, err)
	}

	owner, err := s.accounts.GetWallet(ctx, creator)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return domain.Split{}, domain.ErrSourceNotFound
		}

		return domain.Split{}, err
	}

	var sum int64

	participants := make([]domain.SplitParticipant, 0, len(req.Participants))
	seen := make(map[string]bool, len(req.Participants))

	for i, p := range req.Participants {
		share, err := moneypkg.ParsePositive(p.Amount)
		if err != nil {
			return domain.Split{}, fmt.Errorf("%w: share of %s: %v", domain.ErrInvalidAmount, p.Email, err)
		}

		w, err := s.accounts.FindWalletByEmail(ctx, p.Email)
		if err != nil {
			if errors.Is(err, domain.ErrAccountNotFound) {
				return domain.Split{}, fmt.Errorf("%w: %s", domain.ErrSplitParticipantNotFound, p.Email)
			}

			return domain.Split{}, err
		}

		if w.Username == owner.Username {
			return domain.Split{}, domain.ErrSelfTransfer
		}

		if seen[w.Username] {
			return domain.Split{}, fmt.Errorf("%w: %s", domain.ErrSplitDuplicateParticipant, p.Email)
		}

		seen[w.Username] = true
		sum += share

		participants = append(participants, domain.SplitParticipant{
			Position: i,
			Username: w.Username,
			Email:    w.Email,
			FullName: w.FullName,
			Share:    domain.Money(share),
		})
	}

	if !moneypkg.WithinTolerance(sum, total) {
		return domain.Split{}, fmt.Errorf("%w: shares %s, total %s",
			domain.ErrSplitSharesMismatch, moneypkg.Format(sum), moneypkg.Format(total))
	}

	split, err := s.repo.Create(ctx, domain.CreateSplitParams{
		Title:        title,
		Description:  req.Description,
		Creator:      owner.Username,
		CreatorEmail: owner.Email,
		TotalAmount:  domain.Money(total),
		Participants: participants,
	})
	if err != nil {
		return domain.Split{}, err
	}

	for _, p := range participants {
		s.notifier.Notify(ctx, domain.CreateNotificationParams{
			Owner:   p.Username,
			Title:   "Split Request",
			Message: fmt.Sprintf("%s requested ₹%s from you for %s", owner.FullName, p.Share, title),
		})
	}

	l.Info().Int64("split_id", split.ID).Int("participants", len(participants)).Msg("split created")

	return split, nil
}

// Get returns the split if the actor created it or takes part in it.
func (s *Service) Get(ctx context.Context, actor string, id int64) (domain.Split, error) {
	split, err := s.repo.Get(ctx, id)
	if err != nil {
		return domain.Split{}, err
	}

	if _, ok := split.Participant(actor); !ok && split.Creator != actor {
		zerolog.Ctx(ctx).Info().Str("actor", actor).Int64("split_id", id).Msg("split not visible")
		return domain.Split{}, domain.ErrSplitNotFound
	}

	return split, nil
}

// List returns the latest splits of the actor, newest first.
func (s *Service) List(ctx context.Context, actor string, limit int32) ([]domain.Split, error) {
	return s.repo.List(ctx, actor, domain.PageLimit(limit))
}

// Settle pays the actor's share. Settling a paid share replays the first result.
func (s *Service) Settle(ctx context.Context, actor string, id int64) (domain.TransferResult, error) {
	rejected := domain.TransferResult{State: domain.StateRejected, Kind: domain.KindSplitPayment}

	split, err := s.repo.Get(ctx, id)
	if err != nil {
		return rejected, err
	}

	p, ok := split.Participant(actor)
	if !ok {
		return rejected, domain.ErrNotSplitParticipant
	}

	// A declined split takes no further payments, but a paid share may still be replayed.
	if p.RecordStatus == domain.StatusFailed || (split.Status == domain.SplitFailed && !p.Paid) {
		return rejected, domain.ErrSplitAlreadySettled
	}

	return s.settler.SettleSplit(ctx, actor, split)
}

// Decline refuses the actor's share and fails the split.
func (s *Service) Decline(ctx context.Context, actor string, id int64) (domain.Split, error) {
	split, err := s.repo.Get(ctx, id)
	if err != nil {
		return domain.Split{}, err
	}

	p, ok := split.Participant(actor)
	if !ok {
		return domain.Split{}, domain.ErrNotSplitParticipant
	}

	if p.Paid || p.RecordStatus != domain.StatusPending {
		return domain.Split{}, domain.ErrSplitAlreadySettled
	}

	split, err = s.repo.Decline(ctx, id, p)
	if err != nil {
		return domain.Split{}, err
	}

	s.notifier.Notify(ctx, domain.CreateNotificationParams{
		Owner:   split.Creator,
		Title:   "Split Declined",
		Message: fmt.Sprintf("%s declined their share of %s", p.FullName, split.Title),
	})

	return split, nil
}
