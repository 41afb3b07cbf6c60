package domain

import "time"

// Bill is the companion row written for a bill payment.
type Bill struct {
	ID            int64     `json:"id"`
	Owner         string    `json:"owner"`
	Category      string    `json:"category"`
	Provider      string    `json:"provider"`
	CustomerID    string    `json:"customer_id"`
	Amount        Money     `json:"amount"`
	PaymentMethod string    `json:"payment_method"`
	RecordID      int64     `json:"record_id"`
	CreatedAt     time.Time `json:"created_at"`
}

// CreateBillParams is the input data to create a bill row.
type CreateBillParams struct {
	Owner         string
	Category      string
	Provider      string
	CustomerID    string
	Amount        Money
	PaymentMethod string
	RecordID      int64
}
