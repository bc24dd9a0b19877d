package server

import (
	"context"
	"net/http"
	"time"

	"signals-ledger-go/internal/api"
	"signals-ledger-go/internal/models"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// Server exposes the investment service over JSON HTTP.
type Server struct {
	router  *chi.Mux
	server  *http.Server
	service *api.InvestmentService
	cfg     models.ServerConfig
}

func New(service *api.InvestmentService, cfg models.ServerConfig) *Server {
	s := &Server{
		router:  chi.NewRouter(),
		service: service,
		cfg:     cfg,
	}

	s.setupMiddleware()
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(loggingMiddleware)

	origins := s.cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", idempotencyHeader},
		MaxAge:         300,
	}))
}

func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Route("/plans", func(r chi.Router) {
			r.Get("/", s.handleListPlans)
			r.Get("/{planId}/quote", s.handleQuotePlan)
		})

		r.Route("/users/{userId}", func(r chi.Router) {
			r.Get("/balance", s.handleGetBalance)
			r.Get("/transactions", s.handleTransactionHistory)
			r.Post("/deposits", s.handleDeposit)
			r.Post("/withdrawals", s.handleWithdraw)
			r.Get("/investments", s.handleListInvestments)
			r.Post("/investments", s.handleCreateInvestment)
			r.Get("/investments/stats", s.handleInvestmentStats)
		})

		r.Route("/investments/{investmentId}", func(r chi.Router) {
			r.Get("/", s.handleGetInvestment)
			r.Post("/payment-address", s.handleRequestPaymentAddress)
			r.Post("/payment", s.handleAttachPayment)
			r.Post("/confirm", s.handleConfirmPayment)
			r.Post("/complete", s.handleCompleteInvestment)
			r.Post("/cancel", s.handleCancelInvestment)
		})
	})
}

func (s *Server) Start() error {
	zap.L().Info("Starting HTTP server", zap.String("addr", s.cfg.Addr))
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	zap.L().Info("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		zap.L().Info("HTTP request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())))
	})
}
