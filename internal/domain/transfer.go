package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

var (
	// ErrSelfTransfer indicates that the source and the destination are the same account.
	ErrSelfTransfer = errors.New("cannot transfer to the same account")
	// ErrInvalidAmount indicates a non-positive, malformed or too precise amount.
	ErrInvalidAmount = errors.New("invalid amount")
	// ErrSourceNotFound indicates that the source does not exist or is not owned by the actor.
	ErrSourceNotFound = errors.New("source account not found")
	// ErrDestinationNotFound indicates that the destination cannot be resolved.
	ErrDestinationNotFound = errors.New("destination account not found")
	// ErrInsufficientFunds indicates that the debit would take the source balance below zero.
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrTransferFailed is the opaque error returned for storage faults.
	ErrTransferFailed = errors.New("transfer failed")
	// ErrOutcomeUnknown indicates that the deadline passed while the transfer was being applied.
	ErrOutcomeUnknown = errors.New("outcome unknown, retry with the same idempotency key")
	// ErrInvalidRequest indicates a request that cannot be planned, such as an unsupported selector.
	ErrInvalidRequest = errors.New("invalid transfer request")
	// ErrIdempotencyKeyReused indicates that the key already belongs to a different transfer.
	ErrIdempotencyKeyReused = errors.New("idempotency key already used for a different transfer")
)

// ReasonCode is the machine readable cause of a failed request.
type ReasonCode string

// Reason codes.
const (
	ReasonSelfTransfer             ReasonCode = "SELF_TRANSFER"
	ReasonInvalidAmount            ReasonCode = "INVALID_AMOUNT"
	ReasonSourceNotFound           ReasonCode = "SOURCE_NOT_FOUND"
	ReasonDestinationNotFound      ReasonCode = "DESTINATION_NOT_FOUND"
	ReasonInsufficientFunds        ReasonCode = "INSUFFICIENT_FUNDS"
	ReasonStorageFault             ReasonCode = "STORAGE_FAULT"
	ReasonInvalidRequest           ReasonCode = "INVALID_REQUEST"
	ReasonNotFound                 ReasonCode = "NOT_FOUND"
	ReasonSplitInvalid             ReasonCode = "SPLIT_INVALID"
	ReasonSplitParticipantNotFound ReasonCode = "SPLIT_PARTICIPANT_NOT_FOUND"
	ReasonSplitNotFound            ReasonCode = "SPLIT_NOT_FOUND"
	ReasonSplitNotParticipant      ReasonCode = "SPLIT_NOT_PARTICIPANT"
	ReasonSplitAlreadySettled      ReasonCode = "SPLIT_ALREADY_SETTLED"
	ReasonIdempotencyKeyReused     ReasonCode = "IDEMPOTENCY_KEY_REUSED"
)

// ReasonOf maps err to its reason code. Unknown errors are storage faults.
func ReasonOf(err error) ReasonCode {
	switch {
	case errors.Is(err, ErrSelfTransfer):
		return ReasonSelfTransfer
	case errors.Is(err, ErrInvalidAmount),
		errors.Is(err, ErrOpeningDepositTooLow):
		return ReasonInvalidAmount
	case errors.Is(err, ErrSourceNotFound):
		return ReasonSourceNotFound
	case errors.Is(err, ErrDestinationNotFound):
		return ReasonDestinationNotFound
	case errors.Is(err, ErrInsufficientFunds):
		return ReasonInsufficientFunds
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, ErrInvalidAccountType):
		return ReasonInvalidRequest
	case errors.Is(err, ErrAccountNotFound),
		errors.Is(err, ErrNotificationNotFound),
		errors.Is(err, ErrRecordNotFound):
		return ReasonNotFound
	case errors.Is(err, ErrSplitNoParticipants),
		errors.Is(err, ErrSplitSharesMismatch),
		errors.Is(err, ErrSplitDuplicateParticipant):
		return ReasonSplitInvalid
	case errors.Is(err, ErrSplitParticipantNotFound):
		return ReasonSplitParticipantNotFound
	case errors.Is(err, ErrSplitNotFound):
		return ReasonSplitNotFound
	case errors.Is(err, ErrNotSplitParticipant):
		return ReasonSplitNotParticipant
	case errors.Is(err, ErrSplitAlreadySettled),
		errors.Is(err, ErrRecordNotPending):
		return ReasonSplitAlreadySettled
	case errors.Is(err, ErrIdempotencyKeyReused):
		return ReasonIdempotencyKeyReused
	}

	return ReasonStorageFault
}

// TransferState is a step of the transfer lifecycle.
type TransferState string

// Transfer states.
const (
	StateInitiated TransferState = "initiated"
	StateValidated TransferState = "validated"
	StateApplied   TransferState = "applied"
	StateCommitted TransferState = "committed"
	StateRejected  TransferState = "rejected"
	StateAborted   TransferState = "aborted"
)

var transitions = map[TransferState][]TransferState{
	StateInitiated: {StateValidated, StateRejected},
	StateValidated: {StateApplied, StateAborted},
	StateApplied:   {StateCommitted, StateAborted},
}

// CanTransition reports whether the lifecycle allows moving from s to next.
func (s TransferState) CanTransition(next TransferState) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}

	return false
}

// Terminal reports whether s ends the lifecycle.
func (s TransferState) Terminal() bool {
	return len(transitions[s]) == 0
}

// SelectorKind tells how an endpoint of a transfer is addressed.
type SelectorKind string

// Selector kinds.
const (
	SelectWallet    SelectorKind = "wallet"
	SelectOwnWallet SelectorKind = "own_wallet"
	SelectBank      SelectorKind = "bank"
	SelectExternal  SelectorKind = "external"
)

// Selector addresses the source or the destination of a transfer.
//
// A wallet source is always the actor's wallet; a wallet destination is looked up by Email.
// Only an own-wallet destination credits the actor, as top-ups do.
// Bank endpoints are looked up by AccountNumber; RoutingCode, when set, must match.
type Selector struct {
	Kind          SelectorKind `json:"kind"`
	Email         string       `json:"email,omitempty"`
	AccountNumber string       `json:"account_number,omitempty"`
	RoutingCode   string       `json:"routing_code,omitempty"`
	Name          string       `json:"name,omitempty"`
}

// WalletSelector addresses a wallet by its owner's email.
func WalletSelector(email string) Selector {
	return Selector{Kind: SelectWallet, Email: email}
}

// BankSelector addresses a bank sub-account.
func BankSelector(number, routingCode string) Selector {
	return Selector{Kind: SelectBank, AccountNumber: number, RoutingCode: routingCode}
}

// BillDetails describes the external payee of a bill payment.
type BillDetails struct {
	Category      string
	Provider      string
	CustomerID    string
	PaymentMethod string
}

// TransferRequest is the validated tuple handed to the transfer engine.
type TransferRequest struct {
	Actor          string
	Source         Selector
	Destination    Selector
	Amount         string
	Kind           RecordKind
	Description    string
	Metadata       Metadata
	IdempotencyKey string
	Bill           *BillDetails
	Split          *SplitSettlement
	AccountType    AccountType
}

// TransferPlan is everything the atomic unit of work needs to apply a validated transfer.
//
// Records are written in order. A nil Debit makes the transfer one-sided.
type TransferPlan struct {
	TransferID     uuid.UUID
	Actor          string
	IdempotencyKey string
	Amount         Money
	Debit          *AccountRef
	Credit         *AccountRef
	Open           *CreateBankAccountParams
	Records        []CreateRecordParams
	Bill           *CreateBillParams
	Split          *SplitSettlement
}

// Fingerprint describes what the plan moves, leaving out generated values such as the
// transfer id and the number of an account being opened.
func (p TransferPlan) Fingerprint() string {
	parts := []string{p.Amount.String()}

	if len(p.Records) > 0 {
		parts = append(parts, string(p.Records[0].Kind))
	}

	if p.Debit != nil {
		parts = append(parts, "debit="+p.Debit.Key())
	}

	if p.Credit != nil {
		parts = append(parts, "credit="+p.Credit.Key())
	}

	if p.Open != nil {
		parts = append(parts, "open="+string(p.Open.AccountType))
	}

	if p.Bill != nil {
		parts = append(parts, fmt.Sprintf("bill=%s/%s/%s", p.Bill.Category, p.Bill.Provider, p.Bill.CustomerID))
	}

	if p.Split != nil {
		parts = append(parts, fmt.Sprintf("split=%d/%s", p.Split.SplitID, p.Split.Username))
	}

	return strings.Join(parts, "|")
}

// TransferResult is the outcome of a committed transfer.
type TransferResult struct {
	TransferID uuid.UUID     `json:"transfer_id"`
	State      TransferState `json:"state"`
	Kind       RecordKind    `json:"kind"`
	NewBalance Money         `json:"new_balance"`
	Records    []Record      `json:"records"`
	Account    *BankAccount  `json:"account,omitempty"`
	Bill       *Bill         `json:"bill,omitempty"`
	Replayed   bool          `json:"replayed,omitempty"`
}

// SendParams is the input to send money to another user's wallet.
//
// A non-empty FromAccount pays from the actor's bank sub-account instead of the wallet.
type SendParams struct {
	Actor          string
	RecipientEmail string
	Amount         string
	Description    string
	FromAccount    string
	IdempotencyKey string
}

// BankTransferParams is the input to move money between bank sub-accounts.
type BankTransferParams struct {
	Actor          string
	FromAccount    string
	ToAccount      string
	RoutingCode    string
	RecipientName  string
	Amount         string
	Description    string
	IdempotencyKey string
}

// Bill payment methods.
const (
	PayByWallet = "wallet"
	PayByBank   = "bank"
)

// PayBillParams is the input to pay a bill to an external provider.
type PayBillParams struct {
	Actor          string
	Category       string
	Provider       string
	CustomerID     string
	Amount         string
	PaymentMethod  string
	FromAccount    string
	Description    string
	IdempotencyKey string
}

// PayQRParams is the input to pay the recipient encoded in a scanned QR payload.
type PayQRParams struct {
	Actor          string
	Payload        string
	Amount         string
	Description    string
	IdempotencyKey string
}

// QRPayload is the decoded content of a payment QR code.
type QRPayload struct {
	Email  string `json:"email"`
	Name   string `json:"name,omitempty"`
	Amount string `json:"amount,omitempty"`
	Note   string `json:"note,omitempty"`
}

// OpenAccountParams is the input to open a funded bank sub-account.
type OpenAccountParams struct {
	Actor          string
	AccountType    AccountType
	InitialDeposit string
	IdempotencyKey string
}

// TopUpParams is the input to fund the actor's wallet from an outside payment method.
type TopUpParams struct {
	Actor          string
	Amount         string
	PaymentMethod  string
	IdempotencyKey string
}
