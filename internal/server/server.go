package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dukerupert/choreshare/internal/handler"
	"github.com/dukerupert/choreshare/internal/middleware"
	"github.com/dukerupert/choreshare/internal/notify"
	"github.com/dukerupert/choreshare/internal/rotation"
	"github.com/dukerupert/choreshare/internal/store"
	ws "github.com/dukerupert/choreshare/internal/websocket"
)

type Options struct {
	Location       *time.Location
	SessionTTL     time.Duration
	ReminderWindow time.Duration
	Runner         rotation.RunnerConfig
}

type Server struct {
	db            *sql.DB
	hub           *ws.Hub
	registry      *prometheus.Registry
	authH         *handler.AuthHandler
	houseH        *handler.HouseHandler
	choreH        *handler.ChoreHandler
	assignmentH   *handler.AssignmentHandler
	shoppingH     *handler.ShoppingHandler
	notificationH *handler.NotificationHandler
	rotationH     *handler.RotationHandler
	sessionStore  *store.SessionStore
	userStore     *store.UserStore
	rateLimiter   *middleware.RateLimiter
	rotation      *rotation.Service
	dispatcher    *notify.Dispatcher
	runner        *rotation.Runner
	logger        *slog.Logger
}

func New(db *sql.DB, opts Options, logger *slog.Logger) *Server {
	if opts.Location == nil {
		opts.Location = time.Local
	}

	hub := ws.NewHub(logger)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	userStore := store.NewUserStore(db)
	sessionStore := store.NewSessionStore(db)
	houseStore := store.NewHouseStore(db)
	choreStore := store.NewChoreStore(db)
	assignmentStore := store.NewAssignmentStore(db)
	shoppingStore := store.NewShoppingStore(db)
	notificationStore := store.NewNotificationStore(db)
	jobRunStore := store.NewJobRunStore(db)

	dispatcher := notify.NewDispatcher(notificationStore, assignmentStore, hub, opts.ReminderWindow, logger)
	svc := rotation.NewService(houseStore, userStore, choreStore, assignmentStore, logger,
		rotation.WithLocation(opts.Location),
		rotation.WithNotifier(dispatcher),
		rotation.WithMetrics(rotation.NewMetrics(registry)),
	)
	runner := rotation.NewRunner(svc, jobRunStore, dispatcher, opts.Runner, logger)

	return &Server{
		db:            db,
		hub:           hub,
		registry:      registry,
		authH:         handler.NewAuthHandler(userStore, sessionStore, opts.SessionTTL, logger.With("component", "auth")),
		houseH:        handler.NewHouseHandler(houseStore, userStore, hub, logger.With("component", "house")),
		choreH:        handler.NewChoreHandler(choreStore, userStore, hub, logger.With("component", "chore")),
		assignmentH:   handler.NewAssignmentHandler(assignmentStore, choreStore, dispatcher, hub, svc.CurrentWeek, logger.With("component", "assignment")),
		shoppingH:     handler.NewShoppingHandler(shoppingStore, userStore, hub, logger.With("component", "shopping")),
		notificationH: handler.NewNotificationHandler(notificationStore, logger.With("component", "notification")),
		rotationH:     handler.NewRotationHandler(svc, logger.With("component", "rotation_handler")),
		sessionStore:  sessionStore,
		userStore:     userStore,
		rateLimiter:   middleware.NewRateLimiter(),
		rotation:      svc,
		dispatcher:    dispatcher,
		runner:        runner,
		logger:        logger,
	}
}

// SessionStore returns the session store for cleanup tasks.
func (s *Server) SessionStore() *store.SessionStore {
	return s.sessionStore
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

// Runner returns the background rotation runner.
func (s *Server) Runner() *rotation.Runner {
	return s.runner
}

func (s *Server) Rotation() *rotation.Service {
	return s.rotation
}

func (s *Server) Dispatcher() *notify.Dispatcher {
	return s.dispatcher
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	// Public routes (no auth required)
	outerMux.HandleFunc("POST /api/register", s.rateLimitedHandler(s.authH.Register))
	outerMux.HandleFunc("POST /api/login", s.rateLimitedHandler(s.authH.Login))
	outerMux.HandleFunc("GET /health", s.healthHandler)
	outerMux.Handle("GET /metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))

	// Protected routes, wrapped with RequireAuth
	protectedMux := http.NewServeMux()
	s.registerProtectedRoutes(protectedMux)

	authMiddleware := middleware.RequireAuth(s.sessionStore, s.userStore)
	outerMux.Handle("/", authMiddleware(protectedMux))

	return middleware.RequestLogger(s.logger.With("component", "http"))(outerMux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	status, code := "ok", http.StatusOK
	if err := s.db.PingContext(r.Context()); err != nil {
		status, code = "unavailable", http.StatusServiceUnavailable
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"status": status})
}

func (s *Server) rateLimitedHandler(h http.HandlerFunc) http.HandlerFunc {
	rl := middleware.RateLimit(s.rateLimiter, middleware.ByIP, 10, time.Minute)
	return func(w http.ResponseWriter, r *http.Request) {
		rl(http.HandlerFunc(h)).ServeHTTP(w, r)
	}
}

func (s *Server) registerProtectedRoutes(mux *http.ServeMux) {
	house := func(h http.HandlerFunc) http.Handler {
		return middleware.RequireHouse(h)
	}

	// Account
	mux.HandleFunc("POST /api/logout", s.authH.Logout)
	mux.HandleFunc("GET /api/me", s.authH.Me)
	mux.HandleFunc("PATCH /api/me", s.authH.UpdateMe)

	// Houses
	mux.HandleFunc("POST /api/houses", s.houseH.Create)
	mux.HandleFunc("POST /api/houses/join", s.houseH.Join)
	mux.HandleFunc("POST /api/houses/leave", s.houseH.Leave)
	mux.Handle("GET /api/house", house(s.houseH.Get))
	mux.Handle("PATCH /api/house", house(s.houseH.Rename))

	// Chores
	mux.Handle("GET /api/chores", house(s.choreH.List))
	mux.Handle("POST /api/chores", house(s.choreH.Create))
	mux.Handle("DELETE /api/chores/{id}", house(s.choreH.Delete))

	// Assignments
	mux.Handle("GET /api/assignments", house(s.assignmentH.List))
	mux.Handle("POST /api/assignments/{id}/complete", house(s.assignmentH.Complete))
	mux.Handle("GET /api/history", house(s.assignmentH.History))
	mux.Handle("GET /api/calendar", house(s.assignmentH.Calendar))
	mux.Handle("GET /api/leaderboard", house(s.assignmentH.Leaderboard))

	// Shopping list
	mux.Handle("GET /api/shopping", house(s.shoppingH.List))
	mux.Handle("POST /api/shopping", house(s.shoppingH.Create))
	mux.Handle("POST /api/shopping/{id}/purchase", house(s.shoppingH.Purchase))
	mux.Handle("DELETE /api/shopping/{id}", house(s.shoppingH.Delete))

	// Notifications
	mux.HandleFunc("GET /api/notifications", s.notificationH.List)
	mux.HandleFunc("POST /api/notifications/{id}/read", s.notificationH.MarkRead)

	// Rotation
	mux.Handle("POST /api/rotation/run", house(s.rotationH.Run))

	// WebSocket
	mux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub, s.logger))
}
