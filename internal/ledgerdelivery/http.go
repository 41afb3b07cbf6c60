// Package ledgerdelivery manages delivery layer of the activity log and notifications.
package ledgerdelivery

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/go-petr/pet-wallet/internal/domain"
	"github.com/go-petr/pet-wallet/internal/middleware"
	"github.com/go-petr/pet-wallet/internal/transferdelivery"
	"github.com/go-petr/pet-wallet/pkg/tokenpkg"
)

// Service provides service layer interface needed by ledger delivery layer.
//
//go:generate mockgen -source http.go -destination http_mock.go -package ledgerdelivery
type Service interface {
	History(ctx context.Context, owner string, limit int32, cursor int64) ([]domain.Record, error)
	Audit(ctx context.Context, limit int32, cursor int64) ([]domain.Record, error)
	Transfer(ctx context.Context, actor string, transferID uuid.UUID) ([]domain.Record, error)
	Notifications(ctx context.Context, owner string, limit int32) ([]domain.Notification, error)
	MarkNotificationRead(ctx context.Context, owner string, id int64) (domain.Notification, error)
}

// Handler facilitates ledger delivery layer logic.
type Handler struct {
	service Service
}

// NewHandler returns ledger handler.
func NewHandler(ls Service) *Handler {
	return &Handler{service: ls}
}

type pageRequest struct {
	Limit  int32 `form:"limit" binding:"min=0,max=100"`
	Cursor int64 `form:"cursor" binding:"min=0"`
}

type recordsData struct {
	Records    []domain.Record `json:"records"`
	NextCursor int64           `json:"next_cursor,omitempty"`
}

type recordsResponse struct {
	Data recordsData `json:"data,omitempty"`
}

func writeRecords(gctx *gin.Context, records []domain.Record, limit int32) {
	data := recordsData{Records: records}
	if data.Records == nil {
		data.Records = []domain.Record{}
	}

	// A full page means there may be more records after the last one.
	if n := len(records); n > 0 && int32(n) == domain.PageLimit(limit) {
		data.NextCursor = records[n-1].ID
	}

	gctx.JSON(http.StatusOK, recordsResponse{Data: data})
}

// History handles http request to list the caller's records, newest first.
func (h *Handler) History(gctx *gin.Context) {
	var req pageRequest
	if err := gctx.ShouldBindQuery(&req); err != nil {
		transferdelivery.WriteBindError(gctx, err)
		return
	}

	authPayload := gctx.MustGet(middleware.AuthPayloadKey).(*tokenpkg.Payload)

	records, err := h.service.History(gctx.Request.Context(), authPayload.Username, req.Limit, req.Cursor)
	if err != nil {
		transferdelivery.WriteError(gctx, err)
		return
	}

	writeRecords(gctx, records, req.Limit)
}

// Audit handles http request of an administrator to list all records.
func (h *Handler) Audit(gctx *gin.Context) {
	var req pageRequest
	if err := gctx.ShouldBindQuery(&req); err != nil {
		transferdelivery.WriteBindError(gctx, err)
		return
	}

	records, err := h.service.Audit(gctx.Request.Context(), req.Limit, req.Cursor)
	if err != nil {
		transferdelivery.WriteError(gctx, err)
		return
	}

	writeRecords(gctx, records, req.Limit)
}

type transferRequest struct {
	ID string `uri:"id" binding:"required,uuid"`
}

// Transfer handles http request to get the records of one transfer.
func (h *Handler) Transfer(gctx *gin.Context) {
	var req transferRequest
	if err := gctx.ShouldBindUri(&req); err != nil {
		transferdelivery.WriteBindError(gctx, err)
		return
	}

	authPayload := gctx.MustGet(middleware.AuthPayloadKey).(*tokenpkg.Payload)

	records, err := h.service.Transfer(gctx.Request.Context(), authPayload.Username, uuid.MustParse(req.ID))
	if err != nil {
		transferdelivery.WriteError(gctx, err)
		return
	}

	gctx.JSON(http.StatusOK, recordsResponse{Data: recordsData{Records: records}})
}

type notificationsRequest struct {
	Limit int32 `form:"limit" binding:"min=0,max=100"`
}

type notificationsData struct {
	Notifications []domain.Notification `json:"notifications"`
}

type notificationsResponse struct {
	Data notificationsData `json:"data,omitempty"`
}

// Notifications handles http request to list the caller's notifications.
func (h *Handler) Notifications(gctx *gin.Context) {
	var req notificationsRequest
	if err := gctx.ShouldBindQuery(&req); err != nil {
		transferdelivery.WriteBindError(gctx, err)
		return
	}

	authPayload := gctx.MustGet(middleware.AuthPayloadKey).(*tokenpkg.Payload)

	items, err := h.service.Notifications(gctx.Request.Context(), authPayload.Username, req.Limit)
	if err != nil {
		transferdelivery.WriteError(gctx, err)
		return
	}

	if items == nil {
		items = []domain.Notification{}
	}

	gctx.JSON(http.StatusOK, notificationsResponse{Data: notificationsData{items}})
}

type markReadRequest struct {
	ID int64 `uri:"id" binding:"required,min=1"`
}

type notificationData struct {
	Notification domain.Notification `json:"notification"`
}

type notificationResponse struct {
	Data notificationData `json:"data,omitempty"`
}

// MarkRead handles http request to mark one of the caller's notifications read.
func (h *Handler) MarkRead(gctx *gin.Context) {
	var req markReadRequest
	if err := gctx.ShouldBindUri(&req); err != nil {
		transferdelivery.WriteBindError(gctx, err)
		return
	}

	authPayload := gctx.MustGet(middleware.AuthPayloadKey).(*tokenpkg.Payload)

	n, err := h.service.MarkNotificationRead(gctx.Request.Context(), authPayload.Username, req.ID)
	if err != nil {
		transferdelivery.WriteError(gctx, err)
		return
	}

	gctx.JSON(http.StatusOK, notificationResponse{Data: notificationData{n}})
}
