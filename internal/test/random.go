// Package test provides random domain entities for unit tests.
package test

import (
	"time"

	"github.com/go-petr/pet-wallet/internal/domain"
	"github.com/go-petr/pet-wallet/pkg/randompkg"
	"github.com/google/uuid"
)

// RandomWallet returns random wallet with the given balance.
func RandomWallet(balance domain.Money) domain.Wallet {
	return domain.Wallet{
		Username:  randompkg.Owner(),
		FullName:  randompkg.FullName(),
		Email:     randompkg.Email(),
		Balance:   balance,
		CreatedAt: time.Now().Truncate(time.Second).UTC(),
	}
}

// RandomBankAccount returns random savings account owned by the given owner.
func RandomBankAccount(owner string, balance domain.Money) domain.BankAccount {
	return domain.BankAccount{
		ID:            randompkg.Int64Between(1, 1000),
		Owner:         owner,
		AccountNumber: randompkg.AccountNumber(),
		RoutingCode:   randompkg.RoutingCode(),
		AccountType:   domain.AccountSavings,
		Balance:       balance,
		CreatedAt:     time.Now().Truncate(time.Second).UTC(),
	}
}

// RandomRecord returns random completed transfer record of the owner.
func RandomRecord(owner string) domain.Record {
	return domain.Record{
		ID:          randompkg.Int64Between(1, 1000),
		Owner:       owner,
		Amount:      domain.Money(randompkg.MinorUnitsBetween(-100_000, 100_000)),
		Kind:        domain.KindTransfer,
		Status:      domain.StatusCompleted,
		Description: randompkg.String(12),
		TransferID:  uuid.New(),
		Metadata:    domain.Metadata{},
		CreatedAt:   time.Now().Truncate(time.Second).UTC(),
		UpdatedAt:   time.Now().Truncate(time.Second).UTC(),
	}
}

// RandomSplit returns a pending split of creator shared equally among participants.
func RandomSplit(creator domain.Wallet, share domain.Money, participants ...domain.Wallet) domain.Split {
	s := domain.Split{
		ID:          randompkg.Int64Between(1, 1000),
		Title:       randompkg.String(8),
		Creator:     creator.Username,
		TotalAmount: share * domain.Money(len(participants)),
		Status:      domain.SplitPending,
		CreatedAt:   time.Now().Truncate(time.Second).UTC(),
	}

	for i, p := range participants {
		s.Participants = append(s.Participants, domain.SplitParticipant{
			Position:     i,
			Username:     p.Username,
			Email:        p.Email,
			FullName:     p.FullName,
			Share:        share,
			RecordID:     randompkg.Int64Between(1, 1000),
			RecordStatus: domain.StatusPending,
		})
	}

	return s
}
