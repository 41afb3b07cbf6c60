// Package splitdelivery manages delivery layer of bill splits.
package splitdelivery

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/go-petr/pet-wallet/internal/domain"
	"github.com/go-petr/pet-wallet/internal/middleware"
	"github.com/go-petr/pet-wallet/internal/transferdelivery"
	"github.com/go-petr/pet-wallet/pkg/tokenpkg"
)

// Service provides service layer interface needed by split delivery layer.
//
//go:generate mockgen -source http.go -destination http_mock.go -package splitdelivery
type Service interface {
	Create(ctx context.Context, creator string, req domain.CreateSplitRequest) (domain.Split, error)
	Get(ctx context.Context, actor string, id int64) (domain.Split, error)
	List(ctx context.Context, actor string, limit int32) ([]domain.Split, error)
	Settle(ctx context.Context, actor string, id int64) (domain.TransferResult, error)
	Decline(ctx context.Context, actor string, id int64) (domain.Split, error)
}

// Handler facilitates split delivery layer logic.
type Handler struct {
	service Service
}

// NewHandler returns split handler.
func NewHandler(ss Service) *Handler {
	return &Handler{service: ss}
}

type splitData struct {
	Split domain.Split `json:"split"`
}

type splitResponse struct {
	Data splitData `json:"data,omitempty"`
}

type splitsData struct {
	Splits []domain.Split `json:"splits"`
}

type splitsResponse struct {
	Data splitsData `json:"data,omitempty"`
}

type settleData struct {
	Transfer domain.TransferResult `json:"transfer"`
}

type settleResponse struct {
	Data settleData `json:"data,omitempty"`
}

func actor(gctx *gin.Context) string {
	return gctx.MustGet(middleware.AuthPayloadKey).(*tokenpkg.Payload).Username
}

type shareRequest struct {
	Email  string `json:"email" binding:"required,email"`
	Amount string `json:"amount" binding:"required,money"`
}

type createRequest struct {
	Title        string         `json:"title" binding:"required,max=100"`
	Description  string         `json:"description" binding:"max=255"`
	TotalAmount  string         `json:"total_amount" binding:"required,money"`
	Participants []shareRequest `json:"participants" binding:"required,min=1,dive"`
}

// Create handles http request to split a bill among participants.
func (h *Handler) Create(gctx *gin.Context) {
	var req createRequest
	if err := gctx.ShouldBindJSON(&req); err != nil {
		transferdelivery.WriteBindError(gctx, err)
		return
	}

	arg := domain.CreateSplitRequest{
		Title:        req.Title,
		Description:  req.Description,
		TotalAmount:  req.TotalAmount,
		Participants: make([]domain.SplitShareRequest, 0, len(req.Participants)),
	}
	for _, p := range req.Participants {
		arg.Participants = append(arg.Participants, domain.SplitShareRequest{Email: p.Email, Amount: p.Amount})
	}

	split, err := h.service.Create(gctx.Request.Context(), actor(gctx), arg)
	if err != nil {
		transferdelivery.WriteError(gctx, err)
		return
	}

	gctx.JSON(http.StatusCreated, splitResponse{Data: splitData{split}})
}

type listRequest struct {
	Limit int32 `form:"limit" binding:"min=0,max=100"`
}

// List handles http request to list splits the caller created or takes part in.
func (h *Handler) List(gctx *gin.Context) {
	var req listRequest
	if err := gctx.ShouldBindQuery(&req); err != nil {
		transferdelivery.WriteBindError(gctx, err)
		return
	}

	splits, err := h.service.List(gctx.Request.Context(), actor(gctx), req.Limit)
	if err != nil {
		transferdelivery.WriteError(gctx, err)
		return
	}

	if splits == nil {
		splits = []domain.Split{}
	}

	gctx.JSON(http.StatusOK, splitsResponse{Data: splitsData{splits}})
}

type idRequest struct {
	ID int64 `uri:"id" binding:"required,min=1"`
}

// Get handles http request to get one split.
func (h *Handler) Get(gctx *gin.Context) {
	var req idRequest
	if err := gctx.ShouldBindUri(&req); err != nil {
		transferdelivery.WriteBindError(gctx, err)
		return
	}

	split, err := h.service.Get(gctx.Request.Context(), actor(gctx), req.ID)
	if err != nil {
		transferdelivery.WriteError(gctx, err)
		return
	}

	gctx.JSON(http.StatusOK, splitResponse{Data: splitData{split}})
}

// Settle handles http request of a participant to pay their share.
func (h *Handler) Settle(gctx *gin.Context) {
	var req idRequest
	if err := gctx.ShouldBindUri(&req); err != nil {
		transferdelivery.WriteBindError(gctx, err)
		return
	}

	result, err := h.service.Settle(gctx.Request.Context(), actor(gctx), req.ID)
	if err != nil {
		transferdelivery.WriteError(gctx, err)
		return
	}

	gctx.JSON(http.StatusOK, settleResponse{Data: settleData{result}})
}

// Decline handles http request of a participant to refuse their share.
func (h *Handler) Decline(gctx *gin.Context) {
	var req idRequest
	if err := gctx.ShouldBindUri(&req); err != nil {
		transferdelivery.WriteBindError(gctx, err)
		return
	}

	split, err := h.service.Decline(gctx.Request.Context(), actor(gctx), req.ID)
	if err != nil {
		transferdelivery.WriteError(gctx, err)
		return
	}

	gctx.JSON(http.StatusOK, splitResponse{Data: splitData{split}})
}
