package server

import (
	"net/http"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/cors"

	"hrms/internal/domain/attendance"
	"hrms/internal/domain/audit"
	"hrms/internal/domain/leave"
	"hrms/internal/domain/payroll"
	"hrms/internal/domain/user"
	"hrms/internal/platform/config"
	cryptoutil "hrms/internal/platform/crypto"
	"hrms/internal/platform/email"
	"hrms/internal/platform/filedb"
	"hrms/internal/platform/metrics"
	attendancehandler "hrms/internal/transport/http/handlers/attendance"
	audithandler "hrms/internal/transport/http/handlers/audit"
	authhandler "hrms/internal/transport/http/handlers/auth"
	leavehandler "hrms/internal/transport/http/handlers/leave"
	payrollhandler "hrms/internal/transport/http/handlers/payroll"
	"hrms/internal/transport/http/middleware"
)

type App struct {
	Config  config.Config
	Store   *filedb.Store
	Metrics *metrics.Collector
	Router  http.Handler
}

// New opens the file store, bootstraps every collection, and assembles the
// router with all handlers wired.
func New(cfg config.Config) (*App, error) {
	store, err := filedb.Open(cfg.DataDir)
	if err != nil {
		return nil, err
	}
	if err := store.Init(user.Collection, attendance.Collection, leave.Collection, payroll.Collection, audit.Collection); err != nil {
		return nil, err
	}

	cryptoSvc, err := cryptoutil.New(cfg.DataEncryptionKey)
	if err != nil {
		return nil, err
	}

	users := user.NewStore(store)
	attendanceStore := attendance.NewStore(store)
	leaveStore := leave.NewStore(store)
	payrollStore := payroll.NewStore(store)
	auditSvc := audit.New(store)
	mailer := email.New(cfg)

	leaveSvc := leave.NewService(leaveStore, attendanceStore)
	payrollSvc := payroll.NewService(payrollStore, users, cryptoSvc, filepath.Join(cfg.DataDir, "payslips"))

	collector := metrics.New()

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(collector))
	router.Use(middleware.Recoverer)
	router.Use(middleware.SecureHeaders(cfg.Environment == "production"))
	router.Use(cors.New(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: false,
	}).Handler)
	router.Use(middleware.BodyLimit(cfg.MaxBodyBytes))
	router.Use(middleware.Auth(cfg.JWTSecret))
	router.Use(middleware.RateLimit(cfg.RateLimitPerMinute, time.Minute))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	router.Route("/api", func(r chi.Router) {
		r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"status":"ok"}`))
		})

		if cfg.MetricsEnabled {
			r.Get("/metrics", func(w http.ResponseWriter, req *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				payload := collector.Snapshot()
				writeSnapshot(w, payload)
			})
		}

		authhandler.NewHandler(users, mailer, cfg.JWTSecret, cfg.TokenTTL, cfg.EmailFrom).RegisterRoutes(r)
		attendancehandler.NewHandler(attendanceStore, users, auditSvc).RegisterRoutes(r)
		leavehandler.NewHandler(leaveSvc, users, auditSvc, mailer, cfg.EmailFrom).RegisterRoutes(r)
		payrollhandler.NewHandler(payrollSvc, users, auditSvc).RegisterRoutes(r)
		audithandler.NewHandler(auditSvc).RegisterRoutes(r)
	})

	router.Mount("/", spaHandler{staticPath: cfg.FrontendDir, indexPath: "index.html"})

	return &App{
		Config:  cfg,
		Store:   store,
		Metrics: collector,
		Router:  router,
	}, nil
}
