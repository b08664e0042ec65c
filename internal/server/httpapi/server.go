// Package httpapi exposes the service over HTTP. It owns the gin engine, the
// request gate and authorization middleware, and the JSON handlers.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dkolesnikov/expensio/internal/logging"
	"github.com/dkolesnikov/expensio/internal/server/authz"
	"github.com/dkolesnikov/expensio/internal/server/config"
	"github.com/dkolesnikov/expensio/internal/server/services"
	"github.com/gin-gonic/gin"
)

const shutdownTimeout = 5 * time.Second

type Server struct {
	address   string
	logger    logging.Logger
	users     *services.UserService
	expenses  *services.ExpenseService
	policy    *authz.Policy
	jwtSecret []byte
	engine    *gin.Engine
}

func NewServer(cfg *config.Config, l logging.Logger, us *services.UserService, es *services.ExpenseService) (*Server, error) {
	policy, err := authz.FromConfig(cfg.AuthRules)
	if err != nil {
		return nil, err
	}

	s := &Server{
		address:   cfg.EndpointAddr,
		logger:    l.With("module", "http_server"),
		users:     us,
		expenses:  es,
		policy:    policy,
		jwtSecret: []byte(cfg.SecretKey),
	}
	s.engine = s.newEngine()
	return s, nil
}

func (s *Server) newEngine() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	// The gate runs on every route; the policy middleware is the only place
	// that rejects.
	r.Use(s.authenticate(), s.authorize())

	api := r.Group("/api")
	{
		api.GET("/ping", s.handlePing)

		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", s.handleRegister)
			authGroup.POST("/login", s.handleLogin)
		}

		expenseGroup := api.Group("/expenses")
		{
			expenseGroup.POST("", s.handleAddExpense)
			expenseGroup.GET("", s.handleListExpenses)
			expenseGroup.GET("/total", s.handleTotal)
			expenseGroup.GET("/:id", s.handleGetExpense)
			expenseGroup.PUT("/:id", s.handleUpdateExpense)
			expenseGroup.DELETE("/:id", s.handleDeleteExpense)
			expenseGroup.POST("/:id/receipt", s.handleAttachReceipt)
			expenseGroup.GET("/:id/receipt", s.handleReceiptURL)
		}
	}

	return r
}

// Run serves until the context is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.address,
		Handler: s.engine,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "shutdown error", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

func (s *Server) handlePing(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "pong"})
}
