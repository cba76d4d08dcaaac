package integration_test

import (
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/metinatakli/screening-booking/internal/app"
	"github.com/metinatakli/screening-booking/internal/events"
	"github.com/metinatakli/screening-booking/internal/repository"
	appvalidator "github.com/metinatakli/screening-booking/internal/validator"
)

type TestApp struct {
	App *app.Application
	DB  *pgxpool.Pool
}

func newTestApp(cfg app.Config) (*TestApp, error) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	validator := appvalidator.NewValidator()

	db, err := app.NewDatabasePool(cfg)
	if err != nil {
		return nil, err
	}

	redisClient, err := app.NewRedisClient(cfg)
	if err != nil {
		db.Close()
		return nil, err
	}

	sessionManager := app.NewSessionManager(redisClient)

	userRepo := repository.NewPostgresUserRepository(db)
	manager := app.NewBookingManager(cfg, logger, db, redisClient, events.NoopPublisher{})

	application := app.NewApp(
		cfg,
		logger,
		db,
		redisClient,
		validator,
		sessionManager,
		userRepo,
		manager,
	)

	return &TestApp{
		App: application,
		DB:  db,
	}, nil
}
