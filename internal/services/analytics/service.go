package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/kevin07696/recurringhub/internal/domain"
	"github.com/kevin07696/recurringhub/internal/domain/ports"
	"github.com/kevin07696/recurringhub/pkg/resilience"
)

// Service computes analytics over one consistent store snapshot per call
type Service struct {
	store    ports.Store
	logger   ports.Logger
	timeouts *resilience.TimeoutConfig
}

// NewService creates an analytics service
func NewService(store ports.Store, logger ports.Logger, timeouts *resilience.TimeoutConfig) *Service {
	if timeouts == nil {
		timeouts = resilience.DefaultTimeoutConfig()
	}
	return &Service{store: store, logger: logger, timeouts: timeouts}
}

func (s *Service) snapshot(ctx context.Context) (*ports.Snapshot, error) {
	ctx, cancel := s.timeouts.SnapshotContext(ctx)
	defer cancel()

	snap, err := s.store.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	return snap, nil
}

// Revenue returns month-over-month revenue
func (s *Service) Revenue(ctx context.Context, now time.Time) (RevenueSummary, error) {
	snap, err := s.snapshot(ctx)
	if err != nil {
		return RevenueSummary{}, err
	}
	return RevenueMetrics(snap.Payments, now), nil
}

// Customers returns account status counts
func (s *Service) Customers(ctx context.Context) (CustomerSummary, error) {
	snap, err := s.snapshot(ctx)
	if err != nil {
		return CustomerSummary{}, err
	}
	return CustomerMetrics(snap.Customers), nil
}

// Methods returns the payment method distribution
func (s *Service) Methods(ctx context.Context) ([]MethodShare, error) {
	snap, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return PaymentMethodDistribution(snap.Payments), nil
}

// Trend returns the 30-day revenue trend ending at now
func (s *Service) Trend(ctx context.Context, now time.Time) ([]TrendPoint, error) {
	snap, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return RevenueTrend(snap.Payments, now), nil
}

// TopPeriods returns the best five months
func (s *Service) TopPeriods(ctx context.Context) ([]PeriodTotal, error) {
	snap, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return TopPeriods(snap.Payments), nil
}

// Collection returns per-plan collection rates for now's month
func (s *Service) Collection(ctx context.Context, now time.Time) (CollectionReport, error) {
	snap, err := s.snapshot(ctx)
	if err != nil {
		return CollectionReport{}, err
	}

	report := CollectionRateByPlan(snap.Payments, snap.Customers, now)
	if report.OrphanPayments > 0 {
		s.logger.Warn("Payments reference missing customers; excluded from collection rate",
			ports.Int("orphan_payments", report.OrphanPayments),
			ports.Date("as_of", now),
		)
	}
	return report, nil
}

// Churn returns the at-risk report
func (s *Service) Churn(ctx context.Context, now time.Time) (ChurnReport, error) {
	snap, err := s.snapshot(ctx)
	if err != nil {
		return ChurnReport{}, err
	}
	return ChurnRate(snap.Customers, now), nil
}

// Cohorts returns the tenure breakdown
func (s *Service) Cohorts(ctx context.Context, now time.Time) (CohortBreakdown, error) {
	snap, err := s.snapshot(ctx)
	if err != nil {
		return CohortBreakdown{}, err
	}
	return CustomerCohorts(snap.Customers, now), nil
}

// Dashboard returns the landing summary
func (s *Service) Dashboard(ctx context.Context, now time.Time) (Dashboard, error) {
	snap, err := s.snapshot(ctx)
	if err != nil {
		return Dashboard{}, err
	}
	return DashboardSummary(snap.Payments, snap.Customers, now), nil
}

// PaymentsReport returns payments inside the window
func (s *Service) PaymentsReport(ctx context.Context, r DateRange, from, to *time.Time, now time.Time) ([]domain.Payment, error) {
	snap, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return FilterPayments(snap.Payments, r, from, to, now), nil
}

// CustomersReport returns the per-customer rollup for customers matching f
func (s *Service) CustomersReport(ctx context.Context, f ExportFilter, now time.Time) ([]CustomerReportRow, error) {
	snap, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return CustomerReport(FilterCustomers(snap.Customers, f), snap.Payments, now), nil
}
