// Package transferdelivery manages delivery layer of transfers.
package transferdelivery

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/go-petr/pet-wallet/internal/domain"
	"github.com/go-petr/pet-wallet/internal/middleware"
	"github.com/go-petr/pet-wallet/pkg/tokenpkg"
)

// IdempotencyKeyHeader lets clients retry a POST without applying it twice.
const IdempotencyKeyHeader = "Idempotency-Key"

// Service provides service layer interface needed by transfer delivery layer.
//
//go:generate mockgen -source http.go -destination http_mock.go -package transferdelivery
type Service interface {
	SendToWallet(ctx context.Context, arg domain.SendParams) (domain.TransferResult, error)
	BankTransfer(ctx context.Context, arg domain.BankTransferParams) (domain.TransferResult, error)
	PayBill(ctx context.Context, arg domain.PayBillParams) (domain.TransferResult, error)
	PayQR(ctx context.Context, arg domain.PayQRParams) (domain.TransferResult, error)
	OpenAccount(ctx context.Context, arg domain.OpenAccountParams) (domain.TransferResult, error)
	TopUp(ctx context.Context, arg domain.TopUpParams) (domain.TransferResult, error)
}

// Handler facilitates transfer delivery layer logic.
type Handler struct {
	service Service
}

// NewHandler returns transfer handler.
func NewHandler(ts Service) *Handler {
	return &Handler{
		service: ts,
	}
}

type data struct {
	Transfer domain.TransferResult `json:"transfer"`
}

type response struct {
	Data data `json:"data,omitempty"`
}

func (h *Handler) respond(gctx *gin.Context, result domain.TransferResult, err error) {
	if err != nil {
		WriteError(gctx, err)
		return
	}

	gctx.JSON(http.StatusOK, response{Data: data{result}})
}

func actor(gctx *gin.Context) string {
	return gctx.MustGet(middleware.AuthPayloadKey).(*tokenpkg.Payload).Username
}

type sendRequest struct {
	RecipientEmail string `json:"recipient_email" binding:"required,email"`
	Amount         string `json:"amount" binding:"required,money"`
	Description    string `json:"description" binding:"max=255"`
	FromAccount    string `json:"from_account"`
}

// SendToWallet handles http request to send money to another user's wallet.
func (h *Handler) SendToWallet(gctx *gin.Context) {
	var req sendRequest
	if err := gctx.ShouldBindJSON(&req); err != nil {
		WriteBindError(gctx, err)
		return
	}

	result, err := h.service.SendToWallet(gctx.Request.Context(), domain.SendParams{
		Actor:          actor(gctx),
		RecipientEmail: req.RecipientEmail,
		Amount:         req.Amount,
		Description:    req.Description,
		FromAccount:    req.FromAccount,
		IdempotencyKey: gctx.GetHeader(IdempotencyKeyHeader),
	})

	h.respond(gctx, result, err)
}

type bankTransferRequest struct {
	FromAccount   string `json:"from_account" binding:"required"`
	ToAccount     string `json:"to_account" binding:"required"`
	RoutingCode   string `json:"routing_code"`
	RecipientName string `json:"recipient_name"`
	Amount        string `json:"amount" binding:"required,money"`
	Description   string `json:"description" binding:"max=255"`
}

// BankTransfer handles http request to move money between bank sub-accounts.
func (h *Handler) BankTransfer(gctx *gin.Context) {
	var req bankTransferRequest
	if err := gctx.ShouldBindJSON(&req); err != nil {
		WriteBindError(gctx, err)
		return
	}

	result, err := h.service.BankTransfer(gctx.Request.Context(), domain.BankTransferParams{
		Actor:          actor(gctx),
		FromAccount:    req.FromAccount,
		ToAccount:      req.ToAccount,
		RoutingCode:    req.RoutingCode,
		RecipientName:  req.RecipientName,
		Amount:         req.Amount,
		Description:    req.Description,
		IdempotencyKey: gctx.GetHeader(IdempotencyKeyHeader),
	})

	h.respond(gctx, result, err)
}

type payBillRequest struct {
	Category      string `json:"category" binding:"required"`
	Provider      string `json:"provider" binding:"required"`
	CustomerID    string `json:"customer_id" binding:"required"`
	Amount        string `json:"amount" binding:"required,money"`
	PaymentMethod string `json:"payment_method" binding:"omitempty,oneof=wallet bank"`
	FromAccount   string `json:"from_account" binding:"required_if=PaymentMethod bank"`
	Description   string `json:"description" binding:"max=255"`
}

// PayBill handles http request to pay a bill.
func (h *Handler) PayBill(gctx *gin.Context) {
	var req payBillRequest
	if err := gctx.ShouldBindJSON(&req); err != nil {
		WriteBindError(gctx, err)
		return
	}

	result, err := h.service.PayBill(gctx.Request.Context(), domain.PayBillParams{
		Actor:          actor(gctx),
		Category:       req.Category,
		Provider:       req.Provider,
		CustomerID:     req.CustomerID,
		Amount:         req.Amount,
		PaymentMethod:  req.PaymentMethod,
		FromAccount:    req.FromAccount,
		Description:    req.Description,
		IdempotencyKey: gctx.GetHeader(IdempotencyKeyHeader),
	})

	h.respond(gctx, result, err)
}

type payQRRequest struct {
	Payload     string `json:"payload" binding:"required"`
	Amount      string `json:"amount" binding:"omitempty,money"`
	Description string `json:"description" binding:"max=255"`
}

// PayQR handles http request to pay a scanned QR code.
func (h *Handler) PayQR(gctx *gin.Context) {
	var req payQRRequest
	if err := gctx.ShouldBindJSON(&req); err != nil {
		WriteBindError(gctx, err)
		return
	}

	result, err := h.service.PayQR(gctx.Request.Context(), domain.PayQRParams{
		Actor:          actor(gctx),
		Payload:        req.Payload,
		Amount:         req.Amount,
		Description:    req.Description,
		IdempotencyKey: gctx.GetHeader(IdempotencyKeyHeader),
	})

	h.respond(gctx, result, err)
}

type openAccountRequest struct {
	AccountType    string `json:"account_type" binding:"required,accounttype"`
	InitialDeposit string `json:"initial_deposit" binding:"required,money"`
}

// OpenAccount handles http request to open a funded bank sub-account.
func (h *Handler) OpenAccount(gctx *gin.Context) {
	var req openAccountRequest
	if err := gctx.ShouldBindJSON(&req); err != nil {
		WriteBindError(gctx, err)
		return
	}

	result, err := h.service.OpenAccount(gctx.Request.Context(), domain.OpenAccountParams{
		Actor:          actor(gctx),
		AccountType:    domain.AccountType(req.AccountType),
		InitialDeposit: req.InitialDeposit,
		IdempotencyKey: gctx.GetHeader(IdempotencyKeyHeader),
	})

	h.respond(gctx, result, err)
}

type topUpRequest struct {
	Amount        string `json:"amount" binding:"required,money"`
	PaymentMethod string `json:"payment_method" binding:"required"`
}

// TopUp handles http request to fund the wallet.
func (h *Handler) TopUp(gctx *gin.Context) {
	var req topUpRequest
	if err := gctx.ShouldBindJSON(&req); err != nil {
		WriteBindError(gctx, err)
		return
	}

	result, err := h.service.TopUp(gctx.Request.Context(), domain.TopUpParams{
		Actor:          actor(gctx),
		Amount:         req.Amount,
		PaymentMethod:  req.PaymentMethod,
		IdempotencyKey: gctx.GetHeader(IdempotencyKeyHeader),
	})

	h.respond(gctx, result, err)
}
