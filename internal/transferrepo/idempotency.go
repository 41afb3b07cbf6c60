package transferrepo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/go-petr/pet-wallet/internal/domain"
	"github.com/go-petr/pet-wallet/pkg/dbpkg"
	"github.com/go-petr/pet-wallet/pkg/errorspkg"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const claimKeyQuery = `
INSERT INTO
    idempotency_keys (owner, key, transfer_id, fingerprint)
VALUES
    ($1, $2, $3, $4)
ON CONFLICT (owner, key) DO NOTHING
RETURNING transfer_id
`

const storedResponseQuery = `
SELECT fingerprint, response FROM idempotency_keys
WHERE owner = $1 AND key = $2
`

// claimKey reserves the idempotency key for this transfer.
//
// When the key was already used by a committed transfer the stored result is returned
// and claimed is false. A key stored for a plan with another fingerprint is
// domain.ErrIdempotencyKeyReused. A concurrent holder of the same key makes the insert
// wait until that transaction ends.
func claimKey(ctx context.Context, db dbpkg.SQLInterface, plan domain.TransferPlan) (stored domain.TransferResult, claimed bool, err error) {
	l := zerolog.Ctx(ctx)

	var id uuid.UUID

	err = db.QueryRowContext(ctx, claimKeyQuery, plan.Actor, plan.IdempotencyKey, plan.TransferID, plan.Fingerprint()).Scan(&id)
	if err == nil {
		return stored, true, nil
	}

	if !errors.Is(err, sql.ErrNoRows) {
		l.Error().Err(err).Str("idempotency_key", plan.IdempotencyKey).Send()
		return stored, false, errorspkg.ErrInternal
	}

	var (
		fingerprint string
		response    []byte
	)

	err = db.QueryRowContext(ctx, storedResponseQuery, plan.Actor, plan.IdempotencyKey).Scan(&fingerprint, &response)
	if err != nil {
		l.Error().Err(err).Str("idempotency_key", plan.IdempotencyKey).Send()
		return stored, false, errorspkg.ErrInternal
	}

	if fingerprint != plan.Fingerprint() {
		l.Info().
			Str("idempotency_key", plan.IdempotencyKey).
			Str("stored", fingerprint).
			Str("requested", plan.Fingerprint()).
			Msg("idempotency key reused")

		return stored, false, domain.ErrIdempotencyKeyReused
	}

	if len(response) == 0 {
		l.Error().Str("idempotency_key", plan.IdempotencyKey).Msg("idempotency key without response")
		return stored, false, errorspkg.ErrInternal
	}

	if err := json.Unmarshal(response, &stored); err != nil {
		l.Error().Err(err).Str("idempotency_key", plan.IdempotencyKey).Send()
		return stored, false, errorspkg.ErrInternal
	}

	return stored, false, nil
}

const storeResponseQuery = `
UPDATE idempotency_keys
SET response = $3
WHERE owner = $1 AND key = $2
`

func storeResponse(ctx context.Context, db dbpkg.SQLInterface, plan domain.TransferPlan, result domain.TransferResult) error {
	l := zerolog.Ctx(ctx)

	b, err := json.Marshal(result)
	if err != nil {
		l.Error().Err(err).Send()
		return errorspkg.ErrInternal
	}

	if _, err := db.ExecContext(ctx, storeResponseQuery, plan.Actor, plan.IdempotencyKey, string(b)); err != nil {
		l.Error().Err(err).Send()
		return errorspkg.ErrInternal
	}

	return nil
}
