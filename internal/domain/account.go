package domain

import (
	"errors"
	"time"
)

var (
	// ErrAccountNotFound indicates that the account is not found.
	ErrAccountNotFound = errors.New("account not found")
	// ErrAccountNumberExists indicates that the generated account number is taken.
	ErrAccountNumberExists = errors.New("account number already exists")
	// ErrInvalidAccountType indicates an unsupported bank sub-account type.
	ErrInvalidAccountType = errors.New("invalid account type")
	// ErrOpeningDepositTooLow indicates that the initial deposit is below MinOpeningDeposit.
	ErrOpeningDepositTooLow = errors.New("minimum initial deposit is 1000.00")
	// ErrUsernameAlreadyExists indicates that the wallet username is taken.
	ErrUsernameAlreadyExists = errors.New("username already exists")
	// ErrEmailAlreadyExists indicates that the wallet email is taken.
	ErrEmailAlreadyExists = errors.New("email already exists")
)

// MinOpeningDeposit is the smallest initial deposit accepted when opening a bank sub-account.
const MinOpeningDeposit Money = 100000

// AccountKind tells a wallet balance from a bank sub-account.
type AccountKind string

// Account kinds.
const (
	AccountWallet AccountKind = "wallet"
	AccountBank   AccountKind = "bank"
)

// AccountType is the product type of a bank sub-account.
type AccountType string

// Supported bank sub-account types.
const (
	AccountSavings AccountType = "savings"
	AccountCurrent AccountType = "current"
	AccountSalary  AccountType = "salary"
)

// Valid reports whether t is a supported account type.
func (t AccountType) Valid() bool {
	switch t {
	case AccountSavings, AccountCurrent, AccountSalary:
		return true
	}

	return false
}

// Wallet holds the single spendable balance of a principal.
type Wallet struct {
	Username  string    `json:"username"`
	FullName  string    `json:"full_name"`
	Email     string    `json:"email"`
	Balance   Money     `json:"balance"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateWalletParams is the input data to register a principal with its wallet.
type CreateWalletParams struct {
	Username string
	FullName string
	Email    string
	Balance  Money
}

// BankAccount holds a user-owned bank sub-account.
type BankAccount struct {
	ID            int64       `json:"id"`
	Owner         string      `json:"owner"`
	AccountNumber string      `json:"account_number"`
	RoutingCode   string      `json:"routing_code"`
	AccountType   AccountType `json:"account_type"`
	Balance       Money       `json:"balance"`
	CreatedAt     time.Time   `json:"created_at"`
}

// CreateBankAccountParams is the input data to create a bank sub-account.
type CreateBankAccountParams struct {
	Owner         string
	AccountNumber string
	RoutingCode   string
	AccountType   AccountType
	Balance       Money
}

// AccountRef addresses one balance for mutation.
type AccountRef struct {
	Kind   AccountKind
	Owner  string
	Number string
}

// WalletRef returns the reference of the username's wallet.
func WalletRef(username string) AccountRef {
	return AccountRef{Kind: AccountWallet, Owner: username}
}

// BankRef returns the reference of a bank sub-account.
func BankRef(owner, number string) AccountRef {
	return AccountRef{Kind: AccountBank, Owner: owner, Number: number}
}

// Key identifies the referenced balance. Locks are always taken in ascending Key order.
func (r AccountRef) Key() string {
	if r.Kind == AccountBank {
		return string(AccountBank) + ":" + r.Number
	}

	return string(AccountWallet) + ":" + r.Owner
}
