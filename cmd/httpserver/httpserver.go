// Package httpserver manages server creation and api routing.
package httpserver

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/go-petr/pet-wallet/internal/accountdelivery"
	"github.com/go-petr/pet-wallet/internal/accountrepo"
	"github.com/go-petr/pet-wallet/internal/accountservice"
	"github.com/go-petr/pet-wallet/internal/ledgerdelivery"
	"github.com/go-petr/pet-wallet/internal/ledgerservice"
	"github.com/go-petr/pet-wallet/internal/middleware"
	"github.com/go-petr/pet-wallet/internal/notificationrepo"
	"github.com/go-petr/pet-wallet/internal/notificationsink"
	"github.com/go-petr/pet-wallet/internal/recordrepo"
	"github.com/go-petr/pet-wallet/internal/splitdelivery"
	"github.com/go-petr/pet-wallet/internal/splitrepo"
	"github.com/go-petr/pet-wallet/internal/splitservice"
	"github.com/go-petr/pet-wallet/internal/transferdelivery"
	"github.com/go-petr/pet-wallet/internal/transferrepo"
	"github.com/go-petr/pet-wallet/internal/transferservice"
	"github.com/go-petr/pet-wallet/pkg/configpkg"
	"github.com/go-petr/pet-wallet/pkg/tokenpkg"
)

// Server holds db connection, handlers router and configuration.
type Server struct {
	DB         *sql.DB
	Engine     *gin.Engine
	Config     configpkg.Config
	TokenMaker tokenpkg.Maker
	// Dispatcher drains the notification queue into the notifications table.
	// It is not started by New; the caller runs it for the lifetime of the server.
	Dispatcher *notificationsink.Dispatcher
}

// ServeHTTP implements the http.Handler interface for the Server type.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.Engine.ServeHTTP(w, r)
}

func newQueue(config configpkg.Config) (notificationsink.Queue, error) {
	switch config.NotificationQueue {
	case "", configpkg.QueueMemory:
		return notificationsink.NewChannelQueue(config.NotificationBuffer), nil
	case configpkg.QueueRedis:
		if config.RedisAddress == "" {
			return nil, errors.New("REDIS_ADDRESS is required for the redis notification queue")
		}

		client := redis.NewClient(&redis.Options{Addr: config.RedisAddress})

		return notificationsink.NewRedisQueue(client, notificationsink.DefaultRedisKey), nil
	}

	return nil, fmt.Errorf("unsupported notification queue %q", config.NotificationQueue)
}

// New creates Server type with instantiated domains and routes.
func New(conn *sql.DB, logger zerolog.Logger, config configpkg.Config) (*Server, error) {
	accountRepo := accountrepo.NewRepoPGS(conn)
	recordRepo := recordrepo.NewRepoPGS(conn)
	notificationRepo := notificationrepo.NewRepoPGS(conn)
	splitRepo := splitrepo.NewRepoPGS(conn)
	transferRepo := transferrepo.NewRepoPGS(conn)

	tokenMaker, err := tokenpkg.NewMaker(config.TokenType, config.TokenSymmetricKey)
	if err != nil {
		return nil, fmt.Errorf("cannot create token maker: %w", err)
	}

	queue, err := newQueue(config)
	if err != nil {
		return nil, err
	}

	sink := notificationsink.New(queue)
	dispatcher := notificationsink.NewDispatcher(queue, notificationRepo, config.NotificationWorkers)

	accountService := accountservice.New(accountRepo)
	ledgerService := ledgerservice.New(recordRepo, notificationRepo)
	transferService := transferservice.New(transferRepo, accountRepo, sink, config.TransferTimeout)
	splitService := splitservice.New(splitRepo, accountRepo, transferService, sink)

	if err := transferdelivery.RegisterValidators(); err != nil {
		return nil, errors.New("cannot register validators")
	}

	accountHandler := accountdelivery.NewHandler(accountService)
	ledgerHandler := ledgerdelivery.NewHandler(ledgerService)
	transferHandler := transferdelivery.NewHandler(transferService)
	splitHandler := splitdelivery.NewHandler(splitService)

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	engine.Use(middleware.RequestLogger(logger))

	authRoutes := engine.Group("/").Use(middleware.AuthMiddleware(tokenMaker))

	authRoutes.GET("/wallet", accountHandler.Wallet)
	authRoutes.GET("/wallet/qr", accountHandler.WalletQR)
	authRoutes.POST("/wallet/topup", transferHandler.TopUp)

	authRoutes.GET("/accounts", accountHandler.List)
	authRoutes.POST("/accounts", transferHandler.OpenAccount)

	authRoutes.POST("/transfers/wallet", transferHandler.SendToWallet)
	authRoutes.POST("/transfers/bank", transferHandler.BankTransfer)
	authRoutes.POST("/transfers/qr", transferHandler.PayQR)
	authRoutes.GET("/transfers/:id", ledgerHandler.Transfer)
	authRoutes.POST("/bills", transferHandler.PayBill)

	authRoutes.GET("/transactions", ledgerHandler.History)
	authRoutes.GET("/notifications", ledgerHandler.Notifications)
	authRoutes.PUT("/notifications/:id/read", ledgerHandler.MarkRead)

	authRoutes.POST("/splits", splitHandler.Create)
	authRoutes.GET("/splits", splitHandler.List)
	authRoutes.GET("/splits/:id", splitHandler.Get)
	authRoutes.POST("/splits/:id/settle", splitHandler.Settle)
	authRoutes.POST("/splits/:id/decline", splitHandler.Decline)

	adminRoutes := engine.Group("/admin").Use(middleware.AuthMiddleware(tokenMaker), middleware.RequireAdmin())
	adminRoutes.GET("/transactions", ledgerHandler.Audit)
	adminRoutes.GET("/wallets", accountHandler.Wallets)

	server := &Server{
		DB:         conn,
		Engine:     engine,
		Config:     config,
		TokenMaker: tokenMaker,
		Dispatcher: dispatcher,
	}

	return server, nil
}
