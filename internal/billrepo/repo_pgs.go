// Package billrepo manages repository layer of bill payments.
package billrepo

import (
	"context"

	"github.com/go-petr/pet-wallet/internal/domain"
	"github.com/go-petr/pet-wallet/pkg/dbpkg"
	"github.com/go-petr/pet-wallet/pkg/errorspkg"
	"github.com/lib/pq"
	"github.com/rs/zerolog"
)

// RepoPGS facilitates bill repository layer logic.
type RepoPGS struct {
	db dbpkg.SQLInterface
}

// NewRepoPGS returns bill RepoPGS.
func NewRepoPGS(db dbpkg.SQLInterface) *RepoPGS {
	return &RepoPGS{db: db}
}

const createQuery = `
INSERT INTO
    bills (owner, category, provider, customer_id, amount, payment_method, record_id)
VALUES
    ($1, $2, $3, $4, $5, $6, $7)
RETURNING id, owner, category, provider, customer_id, amount, payment_method, record_id, created_at
`

// Create creates the bill row and then returns it.
func (r *RepoPGS) Create(ctx context.Context, arg domain.CreateBillParams) (domain.Bill, error) {
	l := zerolog.Ctx(ctx)

	row := r.db.QueryRowContext(ctx, createQuery,
		arg.Owner,
		arg.Category,
		arg.Provider,
		arg.CustomerID,
		arg.Amount,
		arg.PaymentMethod,
		arg.RecordID,
	)

	var b domain.Bill

	err := row.Scan(
		&b.ID,
		&b.Owner,
		&b.Category,
		&b.Provider,
		&b.CustomerID,
		&b.Amount,
		&b.PaymentMethod,
		&b.RecordID,
		&b.CreatedAt,
	)

	if err != nil {
		l.Error().Err(err).Msgf("Create(ctx, %+v)", arg)

		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Constraint {
			case "bills_owner_fkey":
				return b, domain.ErrAccountNotFound
			case "bills_record_id_fkey":
				return b, domain.ErrRecordNotFound
			case "bills_amount_check":
				return b, domain.ErrInvalidAmount
			}
		}

		return b, errorspkg.ErrInternal
	}

	return b, nil
}
