// Package transferservice manages business logic layer of transfers.
package transferservice

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-petr/pet-wallet/internal/domain"
	"github.com/go-petr/pet-wallet/pkg/randompkg"
	"github.com/rs/zerolog"
)

// Repo provides data access layer interface needed by transfer service layer.
//
//go:generate mockgen -source service.go -destination service_mock.go -package transferservice
type Repo interface {
	Apply(ctx context.Context, plan domain.TransferPlan) (domain.TransferResult, error)
}

// AccountStore resolves transfer endpoints before the transfer is applied.
type AccountStore interface {
	GetWallet(ctx context.Context, username string) (domain.Wallet, error)
	FindWalletByEmail(ctx context.Context, email string) (domain.Wallet, error)
	GetBankAccount(ctx context.Context, owner, number string) (domain.BankAccount, error)
	FindBankAccount(ctx context.Context, number string) (domain.BankAccount, error)
}

// Notifier delivers notifications once a transfer is committed.
type Notifier interface {
	Notify(ctx context.Context, n domain.CreateNotificationParams)
}

// DefaultTimeout bounds one Apply when no timeout is configured.
const DefaultTimeout = 5 * time.Second

const openAccountAttempts = 3

// Service facilitates transfer service layer logic.
type Service struct {
	repo     Repo
	accounts AccountStore
	notifier Notifier
	timeout  time.Duration

	newAccountNumber func() string
	newRoutingCode   func() string
}

// New return transfer service struct to manage transfer bussines logic.
func New(tr Repo, as AccountStore, n Notifier, timeout time.Duration) *Service {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Service{
		repo:             tr,
		accounts:         as,
		notifier:         n,
		timeout:          timeout,
		newAccountNumber: randompkg.AccountNumber,
		newRoutingCode:   randompkg.RoutingCode,
	}
}

// Transfer validates the request, applies it atomically and notifies both parties.
//
// The returned result always carries the state the transfer reached. On failure the
// error is one of the domain sentinels, domain.ErrTransferFailed for storage faults,
// or domain.ErrOutcomeUnknown when the deadline passed during apply.
func (s *Service) Transfer(ctx context.Context, req domain.TransferRequest) (domain.TransferResult, error) {
	l := zerolog.Ctx(ctx)

	state := domain.StateInitiated

	p, err := s.plan(ctx, req)
	if err != nil {
		state = move(ctx, state, domain.StateRejected)
		l.Info().Err(err).Str("actor", req.Actor).Str("kind", string(req.Kind)).Msg("transfer rejected")

		return domain.TransferResult{State: state, Kind: req.Kind}, err
	}

	state = move(ctx, state, domain.StateValidated)

	result, err := s.apply(ctx, p.TransferPlan)
	if err != nil {
		if result.State == domain.StateApplied {
			state = move(ctx, state, domain.StateApplied)
		}

		result.State = move(ctx, state, domain.StateAborted)
		result.Kind = req.Kind

		return result, err
	}

	if result.Replayed {
		return result, nil
	}

	for _, n := range p.notifications {
		s.notifier.Notify(ctx, n)
	}

	l.Info().
		Str("transfer_id", result.TransferID.String()).
		Str("kind", string(result.Kind)).
		Str("amount", p.Amount.String()).
		Msg("transfer committed")

	return result, nil
}

func (s *Service) apply(ctx context.Context, plan domain.TransferPlan) (domain.TransferResult, error) {
	l := zerolog.Ctx(ctx)

	applyCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	result, err := s.repo.Apply(applyCtx, plan)
	if err == nil {
		return result, nil
	}

	if applyCtx.Err() != nil {
		l.Error().Err(err).Str("transfer_id", plan.TransferID.String()).Msg("transfer outcome unknown")
		return result, domain.ErrOutcomeUnknown
	}

	if domain.ReasonOf(err) == domain.ReasonStorageFault && !errors.Is(err, domain.ErrAccountNumberExists) {
		l.Error().Err(err).Str("transfer_id", plan.TransferID.String()).Msg("transfer failed")
		return result, domain.ErrTransferFailed
	}

	l.Info().Err(err).Str("transfer_id", plan.TransferID.String()).Msg("transfer aborted")

	return result, err
}

func move(ctx context.Context, from, to domain.TransferState) domain.TransferState {
	l := zerolog.Ctx(ctx)

	if !from.CanTransition(to) {
		l.Error().Str("from", string(from)).Str("to", string(to)).Msg("invalid transfer state transition")
		return from
	}

	l.Debug().Str("from", string(from)).Str("to", string(to)).Send()

	return to
}

// SendToWallet sends money to the wallet of the user with the given email.
func (s *Service) SendToWallet(ctx context.Context, arg domain.SendParams) (domain.TransferResult, error) {
	req := domain.TransferRequest{
		Actor:          arg.Actor,
		Source:         domain.Selector{Kind: domain.SelectWallet},
		Destination:    domain.WalletSelector(arg.RecipientEmail),
		Amount:         arg.Amount,
		Kind:           domain.KindTransfer,
		Description:    arg.Description,
		IdempotencyKey: arg.IdempotencyKey,
	}

	if arg.FromAccount != "" {
		req.Source = domain.BankSelector(arg.FromAccount, "")
		req.Kind = domain.KindBankTransfer
	}

	return s.Transfer(ctx, req)
}

// BankTransfer moves money from one of the actor's bank sub-accounts to any bank sub-account.
func (s *Service) BankTransfer(ctx context.Context, arg domain.BankTransferParams) (domain.TransferResult, error) {
	dst := domain.BankSelector(arg.ToAccount, arg.RoutingCode)
	dst.Name = arg.RecipientName

	return s.Transfer(ctx, domain.TransferRequest{
		Actor:          arg.Actor,
		Source:         domain.BankSelector(arg.FromAccount, ""),
		Destination:    dst,
		Amount:         arg.Amount,
		Kind:           domain.KindBankTransfer,
		Description:    arg.Description,
		IdempotencyKey: arg.IdempotencyKey,
	})
}

// PayBill pays an external provider from the wallet or a bank sub-account.
func (s *Service) PayBill(ctx context.Context, arg domain.PayBillParams) (domain.TransferResult, error) {
	src := domain.Selector{Kind: domain.SelectWallet}
	method := domain.PayByWallet

	if arg.PaymentMethod == domain.PayByBank || arg.FromAccount != "" {
		src = domain.BankSelector(arg.FromAccount, "")
		method = domain.PayByBank
	}

	return s.Transfer(ctx, domain.TransferRequest{
		Actor:          arg.Actor,
		Source:         src,
		Destination:    domain.Selector{Kind: domain.SelectExternal, Name: arg.Provider},
		Amount:         arg.Amount,
		Kind:           domain.KindBill,
		Description:    arg.Description,
		IdempotencyKey: arg.IdempotencyKey,
		Bill: &domain.BillDetails{
			Category:      arg.Category,
			Provider:      arg.Provider,
			CustomerID:    arg.CustomerID,
			PaymentMethod: method,
		},
	})
}

// PayQR pays the wallet encoded in a scanned QR payload.
func (s *Service) PayQR(ctx context.Context, arg domain.PayQRParams) (domain.TransferResult, error) {
	l := zerolog.Ctx(ctx)

	qr, err := ParseQRPayload(arg.Payload)
	if err != nil {
		l.Info().Err(err).Send()
		return domain.TransferResult{State: domain.StateRejected, Kind: domain.KindQRPayment}, err
	}

	amount, err := qrAmount(arg.Amount, qr.Amount)
	if err != nil {
		l.Info().Err(err).Send()
		return domain.TransferResult{State: domain.StateRejected, Kind: domain.KindQRPayment}, err
	}

	description := arg.Description
	if description == "" {
		description = qr.Note
	}

	dst := domain.WalletSelector(qr.Email)
	dst.Name = qr.Name

	req := domain.TransferRequest{
		Actor:          arg.Actor,
		Source:         domain.Selector{Kind: domain.SelectWallet},
		Destination:    dst,
		Amount:         amount,
		Kind:           domain.KindQRPayment,
		Description:    description,
		IdempotencyKey: arg.IdempotencyKey,
	}

	if qr.Note != "" {
		req.Metadata = domain.Metadata{domain.MetaQRNote: qr.Note}
	}

	return s.Transfer(ctx, req)
}

// OpenAccount opens a bank sub-account funded with the initial deposit.
//
// A freshly generated account number that collides with an existing one is regenerated.
func (s *Service) OpenAccount(ctx context.Context, arg domain.OpenAccountParams) (domain.TransferResult, error) {
	var (
		result domain.TransferResult
		err    error
	)

	for i := 0; i < openAccountAttempts; i++ {
		result, err = s.Transfer(ctx, domain.TransferRequest{
			Actor:          arg.Actor,
			Source:         domain.Selector{Kind: domain.SelectExternal},
			Destination:    domain.BankSelector(s.newAccountNumber(), s.newRoutingCode()),
			Amount:         arg.InitialDeposit,
			Kind:           domain.KindAccountOpening,
			AccountType:    arg.AccountType,
			IdempotencyKey: arg.IdempotencyKey,
		})
		if !errors.Is(err, domain.ErrAccountNumberExists) {
			return result, err
		}
	}

	return result, fmt.Errorf("%w: %w", domain.ErrTransferFailed, err)
}

// TopUp credits the actor's wallet from an outside payment method.
func (s *Service) TopUp(ctx context.Context, arg domain.TopUpParams) (domain.TransferResult, error) {
	return s.Transfer(ctx, domain.TransferRequest{
		Actor:          arg.Actor,
		Source:         domain.Selector{Kind: domain.SelectExternal, Name: arg.PaymentMethod},
		Destination:    domain.Selector{Kind: domain.SelectOwnWallet},
		Amount:         arg.Amount,
		Kind:           domain.KindCredit,
		IdempotencyKey: arg.IdempotencyKey,
	})
}

// SettleSplit pays the actor's share of the split from the actor's wallet to the creator's wallet.
//
// Settling is idempotent per participant: a repeated call replays the stored result.
func (s *Service) SettleSplit(ctx context.Context, actor string, split domain.Split) (domain.TransferResult, error) {
	l := zerolog.Ctx(ctx)

	p, ok := split.Participant(actor)
	if !ok {
		l.Info().Str("actor", actor).Int64("split_id", split.ID).Msg("not a split participant")
		return domain.TransferResult{State: domain.StateRejected, Kind: domain.KindSplitPayment}, domain.ErrNotSplitParticipant
	}

	creator, err := s.accounts.GetWallet(ctx, split.Creator)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			err = domain.ErrDestinationNotFound
		}

		return domain.TransferResult{State: domain.StateRejected, Kind: domain.KindSplitPayment}, err
	}

	return s.Transfer(ctx, domain.TransferRequest{
		Actor:          actor,
		Source:         domain.Selector{Kind: domain.SelectWallet},
		Destination:    domain.WalletSelector(creator.Email),
		Amount:         p.Share.String(),
		Kind:           domain.KindSplitPayment,
		Description:    fmt.Sprintf("%s (split payment)", split.Title),
		Metadata:       domain.Metadata{domain.MetaSplitTitle: split.Title},
		IdempotencyKey: SplitKey(split.ID, actor),
		Split: &domain.SplitSettlement{
			SplitID:  split.ID,
			Username: actor,
			RecordID: p.RecordID,
		},
	})
}

// SplitKey is the idempotency key of one participant's settlement.
func SplitKey(splitID int64, username string) string {
	return fmt.Sprintf("split:%d:%s", splitID, username)
}
