package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrRecordNotFound indicates that the record is not found.
	ErrRecordNotFound = errors.New("record not found")
	// ErrRecordNotPending indicates that the record has already left the pending status.
	ErrRecordNotPending = errors.New("record is not pending")
)

// RecordKind classifies an activity record.
type RecordKind string

// Record kinds.
const (
	KindCredit         RecordKind = "credit"
	KindDebit          RecordKind = "debit"
	KindTransfer       RecordKind = "transfer"
	KindBankTransfer   RecordKind = "bank_transfer"
	KindQRPayment      RecordKind = "qr_payment"
	KindBill           RecordKind = "bill"
	KindSplitPayment   RecordKind = "split_payment"
	KindAccountOpening RecordKind = "account_opening"
)

// RecordStatus is the lifecycle status of a record.
type RecordStatus string

// Record statuses.
const (
	StatusPending   RecordStatus = "pending"
	StatusCompleted RecordStatus = "completed"
	StatusFailed    RecordStatus = "failed"
)

// Metadata keys snapshotted on records at transfer time.
const (
	MetaFromAccount   = "from_account"
	MetaToAccount     = "to_account"
	MetaRoutingCode   = "routing_code"
	MetaSenderName    = "sender_name"
	MetaSenderEmail   = "sender_email"
	MetaRecipientName = "recipient_name"
	MetaRecipientMail = "recipient_email"
	MetaAccountType   = "account_type"
	MetaBillCategory  = "bill_category"
	MetaBillProvider  = "bill_provider"
	MetaCustomerID    = "customer_id"
	MetaPaymentMethod = "payment_method"
	MetaSplitTitle    = "split_title"
	MetaQRNote        = "qr_note"
)

// Metadata is the free-form snapshot stored with a record as JSONB.
type Metadata map[string]string

// Value implements driver.Valuer.
func (m Metadata) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}

	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}

	return string(b), nil
}

// Scan implements sql.Scanner.
func (m *Metadata) Scan(src any) error {
	var b []byte

	switch v := src.(type) {
	case nil:
		*m = Metadata{}
		return nil
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return fmt.Errorf("metadata: unsupported type %T", src)
	}

	return json.Unmarshal(b, m)
}

// Merge returns a copy of m overlaid with other.
func (m Metadata) Merge(other Metadata) Metadata {
	out := make(Metadata, len(m)+len(other))

	for k, v := range m {
		out[k] = v
	}

	for k, v := range other {
		out[k] = v
	}

	return out
}

// Record is one immutable line of a user's activity log.
//
// The two records of a two-sided transfer share TransferID.
type Record struct {
	ID                int64        `json:"id"`
	Owner             string       `json:"owner"`
	Amount            Money        `json:"amount"`
	Kind              RecordKind   `json:"kind"`
	Status            RecordStatus `json:"status"`
	Description       string       `json:"description"`
	Counterparty      string       `json:"counterparty,omitempty"`
	CounterpartyEmail string       `json:"counterparty_email,omitempty"`
	TransferID        uuid.UUID    `json:"transfer_id"`
	SplitID           int64        `json:"split_id,omitempty"`
	Metadata          Metadata     `json:"metadata"`
	CreatedAt         time.Time    `json:"created_at"`
	UpdatedAt         time.Time    `json:"updated_at"`
}

// CreateRecordParams is the input data to append a record.
type CreateRecordParams struct {
	Owner             string
	Amount            Money
	Kind              RecordKind
	Status            RecordStatus
	Description       string
	Counterparty      string
	CounterpartyEmail string
	TransferID        uuid.UUID
	SplitID           int64
	Metadata          Metadata
}

// HistoryParams selects a page of records, newest first.
//
// Cursor is the id of the last record of the previous page, zero for the first page.
type HistoryParams struct {
	Owner  string
	Limit  int32
	Cursor int64
}

// Page size bounds of list operations.
const (
	DefaultPageSize int32 = 20
	MaxPageSize     int32 = 100
)

// PageLimit clamps a requested page size, zero meaning the default.
func PageLimit(limit int32) int32 {
	switch {
	case limit <= 0:
		return DefaultPageSize
	case limit > MaxPageSize:
		return MaxPageSize
	}

	return limit
}
