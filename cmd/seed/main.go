package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/kevin07696/recurringhub/internal/adapters/memory"
	"github.com/kevin07696/recurringhub/internal/adapters/postgres"
	"github.com/kevin07696/recurringhub/internal/adapters/secrets"
	"github.com/kevin07696/recurringhub/internal/config"
	"github.com/kevin07696/recurringhub/internal/domain"
	"github.com/kevin07696/recurringhub/internal/domain/ports"
	customerService "github.com/kevin07696/recurringhub/internal/services/customer"
	paymentService "github.com/kevin07696/recurringhub/internal/services/payment"
	"github.com/kevin07696/recurringhub/pkg/security"
	"github.com/kevin07696/recurringhub/pkg/timeutil"
)

type sampleCustomer struct {
	name      string
	phone     string
	plan      string
	fee       int64
	dueDay    int
	startDate string
	lastPaid  string
	status    domain.AccountStatus
	payment   *samplePayment
}

type samplePayment struct {
	date      string
	method    string
	reference string
}

var samples = []sampleCustomer{
	{"Rajesh Kumar", "9876543210", domain.PlanPremium, 5000, 5, "2024-08-01", "2025-11-01", domain.AccountStatusActive,
		&samplePayment{"2025-11-01", domain.MethodUPI, "TXN001"}},
	{"Priya Singh", "8765432109", domain.PlanStandard, 3500, 15, "2024-09-15", "2025-10-15", domain.AccountStatusActive,
		&samplePayment{"2025-11-02", domain.MethodBankTransfer, "TXN002"}},
	{"Amit Patel", "7654321098", domain.PlanBasic, 2000, 1, "2024-07-01", "2025-08-20", domain.AccountStatusSuspended, nil},
	{"Neha Verma", "6543210987", domain.PlanPremium, 4500, 20, "2024-10-01", "2025-11-03", domain.AccountStatusActive,
		&samplePayment{"2025-11-03", domain.MethodUPI, "TXN003"}},
	{"Vikram Joshi", "9432109876", domain.PlanStandard, 3000, 10, "2024-09-01", "2025-11-02", domain.AccountStatusActive,
		&samplePayment{"2025-11-02", domain.MethodCash, "TXN004"}},
}

func main() {
	dryRun := flag.Bool("dry-run", false, "seed an in-memory store and print the result instead of writing to PostgreSQL")
	flag.Parse()

	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatal("Failed to create logger:", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx := context.Background()

	var store ports.Store
	if *dryRun {
		store = memory.NewStore()
	} else {
		if os.Getenv("STORAGE_DRIVER") == "" {
			_ = os.Setenv("STORAGE_DRIVER", config.StoragePostgres)
		}
		cfg, err := config.LoadFromEnv()
		if err != nil {
			logger.Fatal("Invalid configuration", zap.Error(err))
		}
		provider, err := cfg.Secrets.NewSecretProvider(ctx, logger)
		if err != nil {
			logger.Fatal("Failed to create secret provider", zap.Error(err))
		}
		if err := cfg.ResolveSecrets(ctx, secrets.NewResolver(provider, logger)); err != nil {
			logger.Fatal("Failed to resolve secrets", zap.Error(err))
		}

		pool, err := postgres.NewPool(ctx, postgres.PoolConfig{DSN: cfg.Database.ConnectionString(), MaxConns: 2})
		if err != nil {
			logger.Fatal("Failed to connect to database", zap.Error(err))
		}
		defer pool.Close()
		store = postgres.NewStore(postgres.NewDBExecutor(pool))
	}

	svcLogger := security.NewZapLogger(logger)
	customers := customerService.NewService(store, svcLogger)
	payments := paymentService.NewService(store, nil, svcLogger, nil)

	for _, s := range samples {
		c, err := customers.Create(ctx, domain.CustomerDraft{
			Name:            s.name,
			Phone:           s.phone,
			Plan:            s.plan,
			MonthlyFee:      decimal.NewFromInt(s.fee),
			DueDay:          s.dueDay,
			StartDate:       mustDate(s.startDate),
			LastPaymentDate: datePtr(s.lastPaid),
		})
		if err != nil {
			logger.Fatal("Failed to create customer", zap.String("name", s.name), zap.Error(err))
		}

		if s.status != domain.AccountStatusActive {
			status := s.status
			if _, err := customers.Update(ctx, c.ID, domain.CustomerPatch{Status: &status}); err != nil {
				logger.Fatal("Failed to set customer status", zap.String("name", s.name), zap.Error(err))
			}
		}

		if s.payment != nil {
			if _, err := payments.RecordPayment(ctx, domain.PaymentDraft{
				CustomerID:  c.ID,
				Amount:      c.MonthlyFee,
				Date:        mustDate(s.payment.date),
				Method:      s.payment.method,
				Status:      domain.PaymentStatusCompleted,
				ReferenceID: s.payment.reference,
			}); err != nil {
				logger.Fatal("Failed to record payment", zap.String("name", s.name), zap.Error(err))
			}
		}
	}

	all, err := customers.List(ctx, customerService.ListFilter{})
	if err != nil {
		logger.Fatal("Failed to list customers", zap.Error(err))
	}

	now := timeutil.Now()
	for _, c := range all {
		logger.Info("Seeded customer",
			zap.String("id", c.ID),
			zap.String("name", c.Name),
			zap.String("status", string(c.Status)),
			zap.String("cycle_status", string(c.CycleStatus(now))),
		)
	}
	logger.Info("Seed complete", zap.Int("customers", len(all)), zap.Bool("dry_run", *dryRun))
}

func mustDate(s string) time.Time {
	t, err := timeutil.ParseISODate(s)
	if err != nil {
		log.Fatalf("bad sample date %q: %v", s, err)
	}
	return t
}

func datePtr(s string) *time.Time {
	t := mustDate(s)
	return &t
}
