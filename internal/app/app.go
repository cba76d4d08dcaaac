package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alexedwards/scs/goredisstore"
	"github.com/alexedwards/scs/v2"
	"github.com/exaring/otelpgx"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/metinatakli/screening-booking/internal/booking"
	"github.com/metinatakli/screening-booking/internal/domain"
	"github.com/metinatakli/screening-booking/internal/events"
	"github.com/metinatakli/screening-booking/internal/repository"
	appvalidator "github.com/metinatakli/screening-booking/internal/validator"
	"github.com/metinatakli/screening-booking/internal/vcs"
	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
	"github.com/riandyrn/otelchi"
	"go.opentelemetry.io/contrib/bridges/otelslog"
)

const serviceName = "screening-booking-api"

var (
	version = vcs.Version()
)

// BookingService is the booking core as seen by the HTTP handlers.
type BookingService interface {
	Create(ctx context.Context, params booking.CreateParams) (*domain.Booking, error)
	Edit(ctx context.Context, bookingID int, params booking.EditParams) (*domain.Booking, error)
	Cancel(ctx context.Context, bookingID int) error
	Get(ctx context.Context, bookingID int) (*domain.Booking, error)
	List(ctx context.Context, pagination domain.Pagination) ([]domain.Booking, *domain.Metadata, error)
	Confirmation(ctx context.Context, userID, scheduleID int) (*domain.Confirmation, bool, error)
	ScheduleContext(ctx context.Context, scheduleID int) (*domain.ScheduleContext, error)
}

type Application struct {
	config         Config
	logger         *slog.Logger
	db             *pgxpool.Pool
	redis          redis.UniversalClient
	validator      *validator.Validate
	sessionManager *scs.SessionManager

	userRepo domain.UserRepository
	bookings BookingService
}

func NewApp(
	cfg Config,
	logger *slog.Logger,
	db *pgxpool.Pool,
	redisClient redis.UniversalClient,
	validator *validator.Validate,
	sessionManager *scs.SessionManager,
	userRepo domain.UserRepository,
	bookings BookingService) *Application {

	return &Application{
		config:         cfg,
		logger:         logger,
		db:             db,
		redis:          redisClient,
		validator:      validator,
		sessionManager: sessionManager,
		userRepo:       userRepo,
		bookings:       bookings,
	}
}

func Run() error {
	cfg, displayVersion, err := LoadConfig(os.Args[1:])
	if err != nil {
		return err
	}

	if displayVersion {
		fmt.Printf("Version:\t%s\n", version)
		os.Exit(0)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	shutdownTelemetry, err := InitTelemetry(cfg, logger)
	if err != nil {
		return err
	}
	defer shutdownTelemetry(context.Background())

	if cfg.OtelCollectorUrl != "" {
		logger = slog.New(NewMultiHandler(logger.Handler(), otelslog.NewHandler(serviceName)))
	}

	db, err := NewDatabasePool(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	redisClient, err := NewRedisClient(cfg)
	if err != nil {
		return err
	}
	defer redisClient.Close()

	publisher, err := newEventPublisher(cfg, logger)
	if err != nil {
		return err
	}
	defer publisher.Close()

	manager := NewBookingManager(cfg, logger, db, redisClient, publisher)

	app := NewApp(
		cfg,
		logger,
		db,
		redisClient,
		appvalidator.NewValidator(),
		NewSessionManager(redisClient),
		repository.NewPostgresUserRepository(db),
		manager,
	)

	return app.serve()
}

// NewBookingManager wires the booking core to Postgres, the Redis schedule cache and the
// event publisher.
func NewBookingManager(
	cfg Config,
	logger *slog.Logger,
	db *pgxpool.Pool,
	redisClient redis.UniversalClient,
	publisher domain.EventPublisher) *booking.Manager {

	var schedules domain.ScheduleRepository = repository.NewPostgresScheduleRepository(db)
	if cfg.Booking.ScheduleCacheTTL > 0 {
		schedules = repository.NewCachedScheduleRepository(schedules, redisClient, cfg.Booking.ScheduleCacheTTL, logger)
	}

	return booking.NewManager(
		repository.NewPostgresTransactor(db),
		repository.NewPostgresBookingRepository(db),
		schedules,
		repository.NewPostgresSeatRepository(db),
		repository.NewPostgresServiceRepository(db),
		booking.WithLockPolicy(cfg.Booking.LockPolicy),
		booking.WithUnknownServicePolicy(cfg.Booking.UnknownServicePolicy),
		booking.WithPublisher(publisher),
		booking.WithLogger(logger),
	)
}

type eventPublisher interface {
	domain.EventPublisher
	Close() error
}

type noopCloser struct {
	events.NoopPublisher
}

func (noopCloser) Close() error {
	return nil
}

func newEventPublisher(cfg Config, logger *slog.Logger) (eventPublisher, error) {
	if cfg.AMQP.URL == "" {
		logger.Info("AMQP URL not set, booking events will not be published")
		return noopCloser{}, nil
	}

	return events.NewAMQPPublisher(cfg.AMQP.URL)
}

func NewSessionManager(client *redis.Client) *scs.SessionManager {
	sessionManager := scs.New()

	sessionManager.Store = goredisstore.New(client)
	sessionManager.IdleTimeout = 20 * time.Minute
	sessionManager.Cookie.Name = "session_id"

	return sessionManager
}

func NewRedisClient(cfg Config) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:            cfg.Redis.URL,
		MaxIdleConns:    cfg.Redis.MaxIdleConns,
		MaxActiveConns:  cfg.Redis.MaxOpenConns,
		ConnMaxIdleTime: cfg.Redis.MaxIdleTime,
	})

	err := errors.Join(redisotel.InstrumentTracing(rdb), redisotel.InstrumentMetrics(rdb))
	if err != nil {
		rdb.Close()
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	err = rdb.Ping(ctx).Err()
	if err != nil {
		rdb.Close()
		return nil, err
	}

	return rdb, nil
}

func NewDatabasePool(cfg Config) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(cfg.DB.DSN)
	if err != nil {
		return nil, err
	}

	config.MaxConnIdleTime = cfg.DB.MaxIdleTime
	config.MaxConns = int32(cfg.DB.MaxOpenConns)
	config.ConnConfig.Tracer = otelpgx.NewTracer()

	db, err := pgxpool.NewWithConfig(context.Background(), config)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	err = db.Ping(ctx)
	if err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

func (app *Application) serve() error {
	srv := &http.Server{
		Addr:         fmt.Sprintf("0.0.0.0:%d", app.config.Port),
		Handler:      app.Routes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		ErrorLog:     slog.NewLogLogger(app.logger.Handler(), slog.LevelDebug),
	}

	shutdownError := make(chan error)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		s := <-quit

		app.logger.Info("shutting down server", "signal", s.String())

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		shutdownError <- srv.Shutdown(ctx)
	}()

	app.logger.Info("starting server", "addr", srv.Addr, "env", app.config.Env)

	err := srv.ListenAndServe()
	if !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	err = <-shutdownError
	if err != nil {
		return err
	}

	app.logger.Info("stopped server", "addr", srv.Addr)

	return nil
}

func (app *Application) Routes() http.Handler {
	r := chi.NewRouter()

	r.NotFound(app.notFoundResponse)
	r.MethodNotAllowed(app.methodNotAllowedResponse)

	r.Use(middleware.RequestID)
	r.Use(otelchi.Middleware(serviceName, otelchi.WithChiRoutes(r)))
	r.Use(app.logRequest)
	r.Use(app.recoverPanic)
	r.Use(app.sessionManager.LoadAndSave)

	r.Get("/health", app.GetHealth)

	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", app.Login)
		r.Delete("/", app.Logout)
	})

	r.Route("/schedules/{scheduleId}", func(r chi.Router) {
		r.Get("/booking-context", app.GetBookingContext)
		r.With(app.requireAuthentication).Get("/confirmation", app.GetConfirmation)
	})

	r.Route("/bookings", func(r chi.Router) {
		r.Get("/", app.ListBookings)
		r.With(app.requireAuthentication).Post("/", app.CreateBooking)

		r.Route("/{bookingId}", func(r chi.Router) {
			r.Get("/", app.GetBooking)
			r.With(app.requireAuthentication).Put("/", app.UpdateBooking)
			r.With(app.requireAuthentication).Delete("/", app.CancelBooking)
		})
	})

	return r
}
