// Package accountservice manages business logic layer of accounts.
package accountservice

import (
	"context"
	"fmt"

	"github.com/go-petr/pet-wallet/internal/domain"
	"github.com/go-petr/pet-wallet/internal/transferservice"
	"github.com/go-petr/pet-wallet/pkg/moneypkg"
)

// Repo provides data access layer interface needed by account service layer.
//
//go:generate mockgen -source service.go -destination service_mock.go -package accountservice
type Repo interface {
	GetWallet(ctx context.Context, username string) (domain.Wallet, error)
	ListBankAccounts(ctx context.Context, owner string) ([]domain.BankAccount, error)
	ListWallets(ctx context.Context, limit int32, after string) ([]domain.Wallet, error)
}

// Service facilitates account service layer logic.
type Service struct {
	repo Repo
}

// New returns account service struct to manage account bussines logic.
func New(ar Repo) *Service {
	return &Service{repo: ar}
}

// Wallet returns the wallet of the given user.
func (s *Service) Wallet(ctx context.Context, username string) (domain.Wallet, error) {
	return s.repo.GetWallet(ctx, username)
}

// ListBankAccounts returns bank sub-accounts owned by the given user.
func (s *Service) ListBankAccounts(ctx context.Context, owner string) ([]domain.BankAccount, error) {
	accounts, err := s.repo.ListBankAccounts(ctx, owner)
	if err != nil {
		return nil, err
	}

	return accounts, nil
}

// ListWallets returns a page of every user's wallet for administrators, ordered by username.
func (s *Service) ListWallets(ctx context.Context, limit int32, after string) ([]domain.Wallet, error) {
	return s.repo.ListWallets(ctx, domain.PageLimit(limit), after)
}

// WalletQR returns the payment QR payload that pays the user's wallet.
// Amount is optional; when set it must be a valid positive amount.
func (s *Service) WalletQR(ctx context.Context, username, amount, note string) (string, error) {
	w, err := s.repo.GetWallet(ctx, username)
	if err != nil {
		return "", err
	}

	if amount != "" {
		minor, err := moneypkg.ParsePositive(amount)
		if err != nil {
			return "", fmt.Errorf("%w: %v", domain.ErrInvalidAmount, err)
		}

		amount = moneypkg.Format(minor)
	}

	return transferservice.EncodeQRPayload(domain.QRPayload{
		Email:  w.Email,
		Name:   w.FullName,
		Amount: amount,
		Note:   note,
	}), nil
}
