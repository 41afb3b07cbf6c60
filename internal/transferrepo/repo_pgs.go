// Package transferrepo manages the atomic unit of work that applies transfers.
package transferrepo

import (
	"context"
	"database/sql"
	"errors"
	"sort"

	"github.com/go-petr/pet-wallet/internal/accountrepo"
	"github.com/go-petr/pet-wallet/internal/billrepo"
	"github.com/go-petr/pet-wallet/internal/domain"
	"github.com/go-petr/pet-wallet/internal/recordrepo"
	"github.com/go-petr/pet-wallet/internal/splitrepo"
	"github.com/go-petr/pet-wallet/pkg/errorspkg"
	"github.com/rs/zerolog"
)

// RepoPGS facilitates transfer repository layer logic.
type RepoPGS struct {
	conn *sql.DB
}

// NewRepoPGS returns transfer RepoPGS wiht connection to start transactions.
func NewRepoPGS(db *sql.DB) *RepoPGS {
	return &RepoPGS{
		conn: db,
	}
}

// Apply performs the planned transfer within a single database transaction.
//
// It claims the idempotency key, locks the touched balances in ascending key order,
// debits before it credits, appends the records and the bill or split side effects,
// and stores the result under the idempotency key. Any failure rolls everything back.
func (r *RepoPGS) Apply(ctx context.Context, plan domain.TransferPlan) (domain.TransferResult, error) {
	logger := zerolog.Ctx(ctx).With().Str("transfer_id", plan.TransferID.String()).Logger()
	ctx = logger.WithContext(ctx)
	l := &logger

	result := domain.TransferResult{
		TransferID: plan.TransferID,
		State:      domain.StateValidated,
	}

	if len(plan.Records) > 0 {
		result.Kind = plan.Records[0].Kind
	}

	tx, err := r.conn.BeginTx(ctx, nil)
	if err != nil {
		l.Error().Err(err).Send()
		return result, errorspkg.ErrInternal
	}

	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			l.Error().Err(err).Msg("transfer rollback failed")
		}
	}()

	if plan.IdempotencyKey != "" {
		stored, claimed, err := claimKey(ctx, tx, plan)
		if err != nil {
			return result, err
		}

		if !claimed {
			l.Info().Str("idempotency_key", plan.IdempotencyKey).Msg("replaying stored transfer")

			stored.Replayed = true

			return stored, nil
		}
	}

	accounts := accountrepo.NewRepoPGS(tx)

	if err := lockAll(ctx, accounts, plan); err != nil {
		return result, err
	}

	if plan.Split != nil {
		if err := settleShare(ctx, tx, *plan.Split); err != nil {
			return result, err
		}
	}

	if plan.Open != nil {
		acc, err := accounts.CreateBankAccount(ctx, *plan.Open)
		if err != nil {
			return result, err
		}

		result.Account = &acc
		result.NewBalance = acc.Balance
	}

	if plan.Debit != nil {
		result.NewBalance, err = accounts.AdjustBalance(ctx, *plan.Debit, -plan.Amount)
		if err != nil {
			return result, err
		}
	}

	if plan.Credit != nil {
		balance, err := accounts.AdjustBalance(ctx, *plan.Credit, plan.Amount)
		if err != nil {
			if errors.Is(err, domain.ErrAccountNotFound) {
				return result, domain.ErrDestinationNotFound
			}

			return result, err
		}

		if plan.Debit == nil && plan.Open == nil {
			result.NewBalance = balance
		}
	}

	result.State = domain.StateApplied

	records := recordrepo.NewRepoPGS(tx)
	result.Records = make([]domain.Record, 0, len(plan.Records))

	for _, arg := range plan.Records {
		arg.TransferID = plan.TransferID
		if plan.Split != nil {
			arg.SplitID = plan.Split.SplitID
		}

		rec, err := records.Create(ctx, arg)
		if err != nil {
			return result, err
		}

		result.Records = append(result.Records, rec)
	}

	if plan.Bill != nil && len(result.Records) > 0 {
		arg := *plan.Bill
		arg.RecordID = result.Records[0].ID

		bill, err := billrepo.NewRepoPGS(tx).Create(ctx, arg)
		if err != nil {
			return result, err
		}

		result.Bill = &bill
	}

	result.State = domain.StateCommitted

	if plan.IdempotencyKey != "" {
		if err := storeResponse(ctx, tx, plan, result); err != nil {
			result.State = domain.StateApplied
			return result, err
		}
	}

	if err := tx.Commit(); err != nil {
		l.Error().Err(err).Send()

		result.State = domain.StateApplied

		return result, errorspkg.ErrInternal
	}

	return result, nil
}

// lockAll locks the debit and credit balances in ascending key order so that two transfers
// touching the same pair of accounts never wait on each other in opposite order.
func lockAll(ctx context.Context, accounts *accountrepo.RepoPGS, plan domain.TransferPlan) error {
	type side struct {
		ref      domain.AccountRef
		notFound error
	}

	var sides []side

	if plan.Debit != nil {
		sides = append(sides, side{*plan.Debit, domain.ErrSourceNotFound})
	}

	if plan.Credit != nil {
		if plan.Debit != nil && plan.Debit.Key() == plan.Credit.Key() {
			return domain.ErrSelfTransfer
		}

		sides = append(sides, side{*plan.Credit, domain.ErrDestinationNotFound})
	}

	sort.Slice(sides, func(i, j int) bool {
		return sides[i].ref.Key() < sides[j].ref.Key()
	})

	for _, s := range sides {
		if _, err := accounts.Lock(ctx, s.ref); err != nil {
			if errors.Is(err, domain.ErrAccountNotFound) {
				return s.notFound
			}

			return err
		}
	}

	return nil
}

// settleShare completes the creator's pending record for the participant's share.
func settleShare(ctx context.Context, tx *sql.Tx, s domain.SplitSettlement) error {
	l := zerolog.Ctx(ctx)

	if _, err := recordrepo.NewRepoPGS(tx).Complete(ctx, s.RecordID); err != nil {
		if errors.Is(err, domain.ErrRecordNotPending) {
			return domain.ErrSplitAlreadySettled
		}

		return err
	}

	splits := splitrepo.NewTxRepoPGS(tx)

	if err := splits.MarkPaid(ctx, s.SplitID, s.Username); err != nil {
		return err
	}

	completed, err := splits.CompleteIfSettled(ctx, s.SplitID)
	if err != nil {
		return err
	}

	if completed {
		l.Info().Int64("split_id", s.SplitID).Msg("split completed")
	}

	return nil
}
