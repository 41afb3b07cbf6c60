package transferdelivery

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-petr/pet-wallet/internal/domain"
	"github.com/go-petr/pet-wallet/pkg/errorspkg"
	"github.com/go-petr/pet-wallet/pkg/web"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// StatusOf returns the HTTP status of a failed wallet operation.
func StatusOf(err error) int {
	if errors.Is(err, domain.ErrOutcomeUnknown) {
		return http.StatusServiceUnavailable
	}

	switch domain.ReasonOf(err) {
	case domain.ReasonSelfTransfer,
		domain.ReasonInvalidAmount,
		domain.ReasonInvalidRequest,
		domain.ReasonSplitInvalid:
		return http.StatusBadRequest
	case domain.ReasonSourceNotFound,
		domain.ReasonDestinationNotFound,
		domain.ReasonNotFound,
		domain.ReasonSplitParticipantNotFound,
		domain.ReasonSplitNotFound:
		return http.StatusNotFound
	case domain.ReasonInsufficientFunds,
		domain.ReasonSplitAlreadySettled,
		domain.ReasonIdempotencyKeyReused:
		return http.StatusConflict
	case domain.ReasonSplitNotParticipant:
		return http.StatusForbidden
	}

	return http.StatusInternalServerError
}

// WriteError responds with the status, message and reason code of err.
// Unexpected errors are reported as errorspkg.ErrInternal.
func WriteError(gctx *gin.Context, err error) {
	l := zerolog.Ctx(gctx.Request.Context())

	status := StatusOf(err)
	outcomeUnknown := errors.Is(err, domain.ErrOutcomeUnknown)

	msg := err
	if status == http.StatusInternalServerError && !errors.Is(err, domain.ErrTransferFailed) {
		msg = errorspkg.ErrInternal
	}

	if status >= http.StatusInternalServerError {
		l.Error().Err(err).Int("status", status).Send()
	} else {
		l.Info().Err(err).Int("status", status).Send()
	}

	gctx.JSON(status, web.Failure(msg, string(domain.ReasonOf(err)), outcomeUnknown))
}

// WriteBindError responds 400 for a request that failed binding.
func WriteBindError(gctx *gin.Context, err error) {
	zerolog.Ctx(gctx.Request.Context()).Info().Err(err).Send()

	res := web.BindError(err)
	res.ReasonCode = string(bindReason(err))

	gctx.JSON(http.StatusBadRequest, res)
}

// bindReason classifies the first failed field the same way BindError names it.
func bindReason(err error) domain.ReasonCode {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) || len(ve) == 0 {
		return domain.ReasonInvalidRequest
	}

	switch fe := ve[0]; {
	case fe.Tag() == "money":
		return domain.ReasonInvalidAmount
	case fe.StructField() == "Participants":
		return domain.ReasonSplitInvalid
	}

	return domain.ReasonInvalidRequest
}
