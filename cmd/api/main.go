package main

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

	"github.com/cmlabs-hris/payroll-ledger/internal/config"
	"github.com/cmlabs-hris/payroll-ledger/internal/domain/employee"
	"github.com/cmlabs-hris/payroll-ledger/internal/domain/ledger"
	"github.com/cmlabs-hris/payroll-ledger/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-ledger/internal/domain/scope"
	"github.com/cmlabs-hris/payroll-ledger/internal/domain/user"
	"github.com/cmlabs-hris/payroll-ledger/internal/fixtures"
	appHTTP "github.com/cmlabs-hris/payroll-ledger/internal/handler/http"
	"github.com/cmlabs-hris/payroll-ledger/internal/pkg/database"
	"github.com/cmlabs-hris/payroll-ledger/internal/pkg/events"
	"github.com/cmlabs-hris/payroll-ledger/internal/pkg/jwt"
	"github.com/cmlabs-hris/payroll-ledger/internal/repository/memory"
	"github.com/cmlabs-hris/payroll-ledger/internal/repository/postgresql"
	employeeService "github.com/cmlabs-hris/payroll-ledger/internal/service/employee"
	ledgerService "github.com/cmlabs-hris/payroll-ledger/internal/service/ledger"
	payrollService "github.com/cmlabs-hris/payroll-ledger/internal/service/payroll"
	"github.com/go-chi/httplog/v3"
)

type repositories struct {
	transactor database.Transactor
	ledger     ledger.LedgerRepository
	payroll    payroll.PayrollRepository
	employee   employee.EmployeeRepository
	close      func()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Error loading config:", err)
		os.Exit(1)
	}

	logFormat := httplog.SchemaECS.Concise(cfg.App.Env != "production")
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:       cfg.SlogLevel(),
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", cfg.App.Name),
		slog.String("version", cfg.App.Version),
		slog.String("env", cfg.App.Env),
	)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server stopped with error", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	repos, err := openRepositories(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer repos.close()

	JWTService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration)

	if cfg.App.SeedDemoData {
		seeded, err := fixtures.SeedDemo(ctx, repos.ledger, repos.employee, 0)
		if err != nil {
			return fmt.Errorf("seed demo data: %w", err)
		}
		if cfg.Payroll.FundingSourceAccountID == "" {
			cfg.Payroll.FundingSourceAccountID = seeded.FundingSourceAccountID
		}
		logDemoData(logger, JWTService, seeded, cfg.App.Env)
	}

	var publisher events.Publisher = events.Noop{}
	if len(cfg.Kafka.Brokers) > 0 {
		producer, err := events.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic, logger)
		if err != nil {
			return fmt.Errorf("init kafka producer: %w", err)
		}
		defer producer.Close()
		publisher = producer
	}

	ledgerSvc := ledgerService.NewLedgerService(repos.transactor, repos.ledger, repos.employee, logger)
	payrollSvc := payrollService.NewPayrollService(
		repos.transactor,
		repos.payroll,
		repos.employee,
		repos.ledger,
		ledgerSvc,
		publisher,
		logger,
		payrollService.Config{
			TopUpStep:              cfg.Payroll.TopUpStep,
			MaxTopUp:               cfg.Payroll.MaxTopUp,
			FundingSourceAccountID: cfg.Payroll.FundingSourceAccountID,
		},
	)
	employeeSvc := employeeService.NewEmployeeService(repos.employee)

	router := appHTTP.NewRouter(
		appHTTP.RouterOptions{
			Logger:         logger,
			LogLevel:       cfg.SlogLevel(),
			AllowedOrigins: cfg.CORS.AllowedOrigins,
		},
		JWTService,
		appHTTP.NewPayrollHandler(payrollSvc),
		appHTTP.NewLedgerHandler(ledgerSvc),
		appHTTP.NewEmployeeHandler(employeeSvc),
	)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server running", slog.String("addr", server.Addr), slog.String("storage", cfg.App.StorageDriver))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func openRepositories(ctx context.Context, cfg *config.Config, logger *slog.Logger) (repositories, error) {
	switch cfg.App.StorageDriver {
	case config.StorageDriverMemory:
		store := memory.NewStore()
		logger.Warn("using in-memory storage, data is lost on restart")
		return repositories{
			transactor: store,
			ledger:     memory.NewLedgerRepository(store),
			payroll:    memory.NewPayrollRepository(store),
			employee:   memory.NewEmployeeRepository(store),
			close:      func() {},
		}, nil

	default:
		db, err := database.NewPostgreSQLDB(cfg.DatabaseURL())
		if err != nil {
			return repositories{}, fmt.Errorf("connect database: %w", err)
		}
		if err := postgresql.Migrate(ctx, db); err != nil {
			db.Close()
			return repositories{}, fmt.Errorf("migrate database: %w", err)
		}
		return repositories{
			transactor: postgresql.NewTransactor(db),
			ledger:     postgresql.NewLedgerRepository(db),
			payroll:    postgresql.NewPayrollRepository(db),
			employee:   postgresql.NewEmployeeRepository(db),
			close:      db.Close,
		}, nil
	}
}

// logDemoData prints the seeded IDs and, outside production, ready-to-use
// access tokens.
func logDemoData(logger *slog.Logger, JWTService jwt.Service, seeded fixtures.SeededDataIDs, env string) {
	logger.Info("demo data seeded",
		slog.String("company_id", seeded.CompanyID),
		slog.String("funding_account_id", seeded.FundingAccountID),
		slog.String("funding_source_account_id", seeded.FundingSourceAccountID),
		slog.Any("employee_ids", seeded.EmployeeIDs),
	)
	if env == "production" {
		return
	}

	companyID := seeded.CompanyID
	for _, actor := range []scope.Actor{
		{Role: user.RoleAdmin, UserID: "demo-admin"},
		{Role: user.RoleEmployer, UserID: "demo-employer", CompanyID: &companyID},
	} {
		token, _, err := JWTService.GenerateAccessToken(actor)
		if err != nil {
			logger.Error("failed to mint demo token", slog.String("role", string(actor.Role)), slog.Any("error", err))
			continue
		}
		logger.Info("demo access token", slog.String("role", string(actor.Role)), slog.String("token", token))
	}
}
