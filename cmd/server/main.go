package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-logger/glog"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"github.com/kestrelhq/phonebook"
	"github.com/kestrelhq/phonebook/middleware/sessionguard"
)

func main() {
	lgr := glog.NewLogger(
		glog.WithLoggerTypePretty(),
		glog.WithLevel(glog.Debug),
		glog.WithName("phonebook"),
		glog.WithAddSource(false),
		glog.WithRichErrorHandler(goerrors.ToSlogAttributes),
	)

	cfg, err := phonebook.LoadConfig()
	if err != nil {
		lgr.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	sqldb, err := sql.Open(sqliteshim.ShimName, cfg.GetDSN())
	if err != nil {
		lgr.Error("failed to open database", "error", err)
		os.Exit(1)
	}

	db := bun.NewDB(sqldb, sqlitedialect.New())

	if err := phonebook.Migrate(ctx, db); err != nil {
		lgr.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	repo := phonebook.NewRepositoryManager(db)
	repo.MustValidate()

	tokens := phonebook.NewTokenService(
		[]byte(cfg.GetSigningKey()),
		cfg.GetTokenExpiration(),
		cfg.GetIssuer(),
		lgr.GetLogger("tokens"),
	)

	mailer, err := phonebook.NewVerificationMailer(
		cfg.GetResendAPIKey(),
		cfg.GetMailSender(),
		cfg.GetBaseURL(),
	)
	if err != nil {
		lgr.Error("failed to initialize mailer", "error", err)
		os.Exit(1)
	}
	mailer.WithLogger(lgr.GetLogger("mailer"))

	accounts := phonebook.NewAccounts(repo, tokens, mailer).
		WithLogger(lgr.GetLogger("accounts"))

	verifications := phonebook.NewVerifications(repo, mailer).
		WithLogger(lgr.GetLogger("verifications"))

	avatars := phonebook.NewAvatarProcessor(
		repo,
		cfg.GetAvatarsDir(),
		cfg.GetTmpDir(),
		cfg.GetBaseURL(),
	).WithLogger(lgr.GetLogger("avatars"))

	contacts := phonebook.NewContactBook(repo).
		WithLogger(lgr.GetLogger("contacts"))

	guard := sessionguard.New(sessionguard.Config{
		Validator: tokens,
		Users:     repo.Users(),
	})

	controller := phonebook.NewController(
		phonebook.WithControllerLogger(lgr.GetLogger("http")),
		phonebook.WithAccounts(accounts),
		phonebook.WithVerifications(verifications),
		phonebook.WithAvatars(avatars),
		phonebook.WithContacts(contacts),
		phonebook.WithGuard(guard),
	)

	app := fiber.New(fiber.Config{
		ErrorHandler: phonebook.HTTPErrorHandler(lgr.GetLogger("http"), false),
	})

	app.Static("/avatars", cfg.GetAvatarsDir())

	controller.RegisterRoutes(app)

	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"message": "Not found",
		})
	})

	go func() {
		if err := app.Listen(cfg.GetServerAddress()); err != nil {
			lgr.Error("server stopped", "error", err)
			os.Exit(1)
		}
	}()

	lgr.Info("server listening", "address", cfg.GetServerAddress())

	WaitExitSignal()

	if err := app.Shutdown(); err != nil {
		lgr.Error("failed to shut down server", "error", err)
	}
}

// WaitExitSignal blocks until the process receives an exit signal.
func WaitExitSignal() os.Signal {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(
		sigCh,
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGQUIT,
	)
	return <-sigCh
}
