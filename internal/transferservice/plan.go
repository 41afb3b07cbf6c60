package transferservice

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-petr/pet-wallet/internal/domain"
	"github.com/go-petr/pet-wallet/pkg/moneypkg"
	"github.com/google/uuid"
)

// walletLabel stands in for an account number when a wallet is one side of a transfer.
const walletLabel = "wallet"

type endpoint struct {
	ref    *domain.AccountRef
	owner  string
	name   string
	email  string
	number string
	code   string
}

func (e endpoint) label() string {
	if e.number != "" {
		return e.number
	}

	if e.ref != nil {
		return walletLabel
	}

	return e.name
}

type plan struct {
	domain.TransferPlan
	notifications []domain.CreateNotificationParams
}

// plan validates the request and resolves both endpoints. It never mutates anything.
func (s *Service) plan(ctx context.Context, req domain.TransferRequest) (plan, error) {
	var p plan

	minor, err := moneypkg.ParsePositive(req.Amount)
	if err != nil {
		return p, fmt.Errorf("%w: %v", domain.ErrInvalidAmount, err)
	}

	amount := domain.Money(minor)

	actor, err := s.accounts.GetWallet(ctx, req.Actor)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return p, domain.ErrSourceNotFound
		}

		return p, err
	}

	src, err := s.resolveSource(ctx, actor, req.Source)
	if err != nil {
		return p, err
	}

	var dst endpoint

	if req.Kind == domain.KindAccountOpening {
		dst, err = s.openingEndpoint(actor, req, amount)
		if err != nil {
			return p, err
		}

		p.Open = &domain.CreateBankAccountParams{
			Owner:         actor.Username,
			AccountNumber: dst.number,
			RoutingCode:   dst.code,
			AccountType:   req.AccountType,
			Balance:       amount,
		}
		dst.ref = nil
	} else {
		dst, err = s.resolveDestination(ctx, actor, req.Destination)
		if err != nil {
			return p, err
		}
	}

	if src.ref != nil && dst.ref != nil && src.ref.Key() == dst.ref.Key() {
		return p, domain.ErrSelfTransfer
	}

	if src.ref == nil && dst.ref == nil && p.Open == nil {
		return p, fmt.Errorf("%w: nothing to debit or credit", domain.ErrInvalidRequest)
	}

	p.TransferID = uuid.New()
	p.Actor = req.Actor
	p.IdempotencyKey = req.IdempotencyKey
	p.Amount = amount
	p.Debit = src.ref
	p.Credit = dst.ref
	p.Split = req.Split

	meta := snapshot(src, dst).Merge(req.Metadata)

	switch {
	case req.Kind == domain.KindAccountOpening:
		meta[domain.MetaAccountType] = string(req.AccountType)
		p.Records = []domain.CreateRecordParams{{
			Owner:       actor.Username,
			Amount:      amount,
			Kind:        req.Kind,
			Description: describe(req, src, dst),
			Metadata:    meta,
		}}
		p.notifications = []domain.CreateNotificationParams{{
			Owner:   actor.Username,
			Title:   "New Account Created",
			Message: fmt.Sprintf("%s account opened (%s) with %s", req.AccountType, dst.number, rupees(amount)),
		}}
	case src.ref == nil:
		meta[domain.MetaPaymentMethod] = src.name
		p.Records = []domain.CreateRecordParams{{
			Owner:       dst.owner,
			Amount:      amount,
			Kind:        req.Kind,
			Description: describe(req, src, dst),
			Metadata:    meta,
		}}
		p.notifications = []domain.CreateNotificationParams{{
			Owner:   dst.owner,
			Title:   "Wallet Topup",
			Message: fmt.Sprintf("Your wallet has been credited with %s", rupees(amount)),
		}}
	case dst.ref == nil:
		if req.Bill == nil {
			return p, fmt.Errorf("%w: external payee without bill details", domain.ErrInvalidRequest)
		}

		meta[domain.MetaBillCategory] = req.Bill.Category
		meta[domain.MetaBillProvider] = req.Bill.Provider
		meta[domain.MetaCustomerID] = req.Bill.CustomerID
		meta[domain.MetaPaymentMethod] = req.Bill.PaymentMethod

		p.Records = []domain.CreateRecordParams{{
			Owner:        src.owner,
			Amount:       -amount,
			Kind:         req.Kind,
			Description:  describe(req, src, dst),
			Counterparty: req.Bill.Provider,
			Metadata:     meta,
		}}
		p.Bill = &domain.CreateBillParams{
			Owner:         src.owner,
			Category:      req.Bill.Category,
			Provider:      req.Bill.Provider,
			CustomerID:    req.Bill.CustomerID,
			Amount:        amount,
			PaymentMethod: req.Bill.PaymentMethod,
		}
		p.notifications = []domain.CreateNotificationParams{{
			Owner:   src.owner,
			Title:   "Bill Payment",
			Message: fmt.Sprintf("Your %s bill of %s has been paid successfully", req.Bill.Provider, rupees(amount)),
		}}
	default:
		description := describe(req, src, dst)
		p.Records = []domain.CreateRecordParams{
			{
				Owner:             src.owner,
				Amount:            -amount,
				Kind:              req.Kind,
				Description:       description,
				Counterparty:      dst.owner,
				CounterpartyEmail: dst.email,
				Metadata:          meta,
			},
			{
				Owner:             dst.owner,
				Amount:            amount,
				Kind:              req.Kind,
				Description:       description,
				Counterparty:      src.owner,
				CounterpartyEmail: src.email,
				Metadata:          meta,
			},
		}

		// The creator's side of a split share already exists as a pending record.
		if req.Split != nil {
			p.Records = p.Records[:1]
		}

		sent, received := titles(req.Kind)
		p.notifications = []domain.CreateNotificationParams{
			{
				Owner:   src.owner,
				Title:   sent,
				Message: fmt.Sprintf("You sent %s to %s", rupees(amount), dst.name),
			},
			{
				Owner:   dst.owner,
				Title:   received,
				Message: fmt.Sprintf("You received %s from %s", rupees(amount), src.name),
			},
		}
	}

	return p, nil
}

func (s *Service) resolveSource(ctx context.Context, actor domain.Wallet, sel domain.Selector) (endpoint, error) {
	switch sel.Kind {
	case domain.SelectWallet:
		ref := domain.WalletRef(actor.Username)
		return endpoint{ref: &ref, owner: actor.Username, name: actor.FullName, email: actor.Email}, nil
	case domain.SelectBank:
		if sel.AccountNumber == "" {
			return endpoint{}, domain.ErrSourceNotFound
		}

		acc, err := s.accounts.GetBankAccount(ctx, actor.Username, sel.AccountNumber)
		if err != nil {
			if errors.Is(err, domain.ErrAccountNotFound) {
				return endpoint{}, domain.ErrSourceNotFound
			}

			return endpoint{}, err
		}

		ref := domain.BankRef(acc.Owner, acc.AccountNumber)

		return endpoint{
			ref:    &ref,
			owner:  actor.Username,
			name:   actor.FullName,
			email:  actor.Email,
			number: acc.AccountNumber,
			code:   acc.RoutingCode,
		}, nil
	case domain.SelectExternal:
		return endpoint{owner: actor.Username, name: sel.Name}, nil
	}

	return endpoint{}, fmt.Errorf("%w: source kind %q", domain.ErrInvalidRequest, sel.Kind)
}

func (s *Service) resolveDestination(ctx context.Context, actor domain.Wallet, sel domain.Selector) (endpoint, error) {
	switch sel.Kind {
	case domain.SelectOwnWallet:
		ref := domain.WalletRef(actor.Username)

		return endpoint{ref: &ref, owner: actor.Username, name: actor.FullName, email: actor.Email}, nil
	case domain.SelectWallet:
		if sel.Email == "" {
			return endpoint{}, domain.ErrDestinationNotFound
		}

		w, err := s.accounts.FindWalletByEmail(ctx, sel.Email)
		if err != nil {
			if errors.Is(err, domain.ErrAccountNotFound) {
				return endpoint{}, domain.ErrDestinationNotFound
			}

			return endpoint{}, err
		}

		ref := domain.WalletRef(w.Username)

		return endpoint{ref: &ref, owner: w.Username, name: w.FullName, email: w.Email}, nil
	case domain.SelectBank:
		if sel.AccountNumber == "" {
			return endpoint{}, domain.ErrDestinationNotFound
		}

		acc, err := s.accounts.FindBankAccount(ctx, sel.AccountNumber)
		if err != nil {
			if errors.Is(err, domain.ErrAccountNotFound) {
				return endpoint{}, domain.ErrDestinationNotFound
			}

			return endpoint{}, err
		}

		if sel.RoutingCode != "" && !strings.EqualFold(sel.RoutingCode, acc.RoutingCode) {
			return endpoint{}, fmt.Errorf("%w: routing code does not match", domain.ErrDestinationNotFound)
		}

		owner, err := s.accounts.GetWallet(ctx, acc.Owner)
		if err != nil {
			if errors.Is(err, domain.ErrAccountNotFound) {
				return endpoint{}, domain.ErrDestinationNotFound
			}

			return endpoint{}, err
		}

		name := sel.Name
		if name == "" {
			name = owner.FullName
		}

		ref := domain.BankRef(acc.Owner, acc.AccountNumber)

		return endpoint{
			ref:    &ref,
			owner:  acc.Owner,
			name:   name,
			email:  owner.Email,
			number: acc.AccountNumber,
			code:   acc.RoutingCode,
		}, nil
	case domain.SelectExternal:
		return endpoint{name: sel.Name}, nil
	}

	return endpoint{}, fmt.Errorf("%w: destination kind %q", domain.ErrInvalidRequest, sel.Kind)
}

func (s *Service) openingEndpoint(actor domain.Wallet, req domain.TransferRequest, amount domain.Money) (endpoint, error) {
	if !req.AccountType.Valid() {
		return endpoint{}, domain.ErrInvalidAccountType
	}

	if amount < domain.MinOpeningDeposit {
		return endpoint{}, domain.ErrOpeningDepositTooLow
	}

	ref := domain.BankRef(actor.Username, req.Destination.AccountNumber)

	return endpoint{
		ref:    &ref,
		owner:  actor.Username,
		name:   actor.FullName,
		email:  actor.Email,
		number: req.Destination.AccountNumber,
		code:   req.Destination.RoutingCode,
	}, nil
}

// snapshot captures the names and account identifiers of both sides at transfer time.
func snapshot(src, dst endpoint) domain.Metadata {
	m := domain.Metadata{}

	set := func(k, v string) {
		if v != "" {
			m[k] = v
		}
	}

	set(domain.MetaFromAccount, src.label())
	set(domain.MetaToAccount, dst.label())
	set(domain.MetaSenderName, src.name)
	set(domain.MetaSenderEmail, src.email)
	set(domain.MetaRecipientName, dst.name)
	set(domain.MetaRecipientMail, dst.email)

	if dst.code != "" {
		set(domain.MetaRoutingCode, dst.code)
	} else {
		set(domain.MetaRoutingCode, src.code)
	}

	return m
}

func describe(req domain.TransferRequest, src, dst endpoint) string {
	if req.Description != "" {
		return req.Description
	}

	switch req.Kind {
	case domain.KindBankTransfer:
		return fmt.Sprintf("Transfer from %s (%s) to %s (%s)", src.name, src.label(), dst.name, dst.label())
	case domain.KindQRPayment:
		return fmt.Sprintf("QR payment to %s", dst.name)
	case domain.KindBill:
		return fmt.Sprintf("%s bill payment", dst.name)
	case domain.KindCredit:
		return fmt.Sprintf("Wallet topup via %s", src.name)
	case domain.KindAccountOpening:
		return fmt.Sprintf("New %s account opened", req.AccountType)
	}

	return "Money Transfer"
}

func titles(kind domain.RecordKind) (sent, received string) {
	switch kind {
	case domain.KindQRPayment:
		return "QR Payment Sent", "QR Payment Received"
	case domain.KindSplitPayment:
		return "Split Payment Sent", "Split Payment Received"
	}

	return "Transfer Sent", "Transfer Received"
}

func rupees(m domain.Money) string {
	return "₹" + m.String()
}
