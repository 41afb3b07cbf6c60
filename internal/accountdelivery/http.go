// Package accountdelivery manages delivery layer of wallets and bank sub-accounts.
package accountdelivery

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/go-petr/pet-wallet/internal/domain"
	"github.com/go-petr/pet-wallet/internal/middleware"
	"github.com/go-petr/pet-wallet/internal/transferdelivery"
	"github.com/go-petr/pet-wallet/pkg/tokenpkg"
)

// Service provides service layer interface needed by account delivery layer.
//
//go:generate mockgen -source http.go -destination http_mock.go -package accountdelivery
type Service interface {
	Wallet(ctx context.Context, username string) (domain.Wallet, error)
	ListBankAccounts(ctx context.Context, owner string) ([]domain.BankAccount, error)
	WalletQR(ctx context.Context, username, amount, note string) (string, error)
	ListWallets(ctx context.Context, limit int32, after string) ([]domain.Wallet, error)
}

// Handler facilitates account delivery layer logic.
type Handler struct {
	service Service
}

// NewHandler returns account handler.
func NewHandler(as Service) Handler {
	return Handler{service: as}
}

type walletData struct {
	Wallet domain.Wallet `json:"wallet"`
}

type walletResponse struct {
	Data walletData `json:"data,omitempty"`
}

// Wallet handles http request to get the caller's wallet.
func (h *Handler) Wallet(gctx *gin.Context) {
	authPayload := gctx.MustGet(middleware.AuthPayloadKey).(*tokenpkg.Payload)

	w, err := h.service.Wallet(gctx.Request.Context(), authPayload.Username)
	if err != nil {
		transferdelivery.WriteError(gctx, err)
		return
	}

	gctx.JSON(http.StatusOK, walletResponse{Data: walletData{w}})
}

type accountsData struct {
	Accounts []domain.BankAccount `json:"accounts"`
}

type accountsResponse struct {
	Data accountsData `json:"data,omitempty"`
}

// List handles http request to list the caller's bank sub-accounts.
func (h *Handler) List(gctx *gin.Context) {
	authPayload := gctx.MustGet(middleware.AuthPayloadKey).(*tokenpkg.Payload)

	accounts, err := h.service.ListBankAccounts(gctx.Request.Context(), authPayload.Username)
	if err != nil {
		transferdelivery.WriteError(gctx, err)
		return
	}

	if accounts == nil {
		accounts = []domain.BankAccount{}
	}

	gctx.JSON(http.StatusOK, accountsResponse{Data: accountsData{accounts}})
}

type qrRequest struct {
	Amount string `form:"amount" binding:"omitempty,money"`
	Note   string `form:"note" binding:"max=100"`
}

type qrData struct {
	Payload string `json:"payload"`
}

type qrResponse struct {
	Data qrData `json:"data,omitempty"`
}

// WalletQR handles http request to get the payment QR payload of the caller's wallet.
func (h *Handler) WalletQR(gctx *gin.Context) {
	var req qrRequest
	if err := gctx.ShouldBindQuery(&req); err != nil {
		transferdelivery.WriteBindError(gctx, err)
		return
	}

	authPayload := gctx.MustGet(middleware.AuthPayloadKey).(*tokenpkg.Payload)

	payload, err := h.service.WalletQR(gctx.Request.Context(), authPayload.Username, req.Amount, req.Note)
	if err != nil {
		transferdelivery.WriteError(gctx, err)
		return
	}

	gctx.JSON(http.StatusOK, qrResponse{Data: qrData{payload}})
}

type walletsRequest struct {
	Limit  int32  `form:"limit" binding:"min=0,max=100"`
	Cursor string `form:"cursor" binding:"max=64"`
}

type walletsData struct {
	Wallets    []domain.Wallet `json:"wallets"`
	NextCursor string          `json:"next_cursor,omitempty"`
}

type walletsResponse struct {
	Data walletsData `json:"data,omitempty"`
}

// Wallets handles http request of an administrator to list every user's wallet.
func (h *Handler) Wallets(gctx *gin.Context) {
	var req walletsRequest
	if err := gctx.ShouldBindQuery(&req); err != nil {
		transferdelivery.WriteBindError(gctx, err)
		return
	}

	wallets, err := h.service.ListWallets(gctx.Request.Context(), req.Limit, req.Cursor)
	if err != nil {
		transferdelivery.WriteError(gctx, err)
		return
	}

	data := walletsData{Wallets: wallets}
	if data.Wallets == nil {
		data.Wallets = []domain.Wallet{}
	}

	if n := len(wallets); n > 0 && int32(n) == domain.PageLimit(req.Limit) {
		data.NextCursor = wallets[n-1].Username
	}

	gctx.JSON(http.StatusOK, walletsResponse{Data: data})
}
