package usecase_test

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	adapterRepo "github.com/wekeepgrowing/payment-reconciler/internal/adapter/repository"
	"github.com/wekeepgrowing/payment-reconciler/internal/domain/entity"
	"github.com/wekeepgrowing/payment-reconciler/internal/domain/gateway"
	"github.com/wekeepgrowing/payment-reconciler/internal/domain/model"
	"github.com/wekeepgrowing/payment-reconciler/internal/domain/repository"
	"github.com/wekeepgrowing/payment-reconciler/internal/usecase"
)

var testNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

const testPeriod = 30 * 24 * time.Hour

func fixedClock(t time.Time) usecase.Clock {
	return func() time.Time { return t }
}

// MockStatusChecker is a mock implementation of gateway.StatusChecker
type MockStatusChecker struct {
	mock.Mock
}

func (m *MockStatusChecker) Check(ctx context.Context, tranID string) gateway.Result {
	args := m.Called(ctx, tranID)
	return args.Get(0).(gateway.Result)
}

func (m *MockStatusChecker) Name() string {
	return "mock"
}

// MockPublisher is a mock implementation of event.SettlementPublisher
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishSettlement(ctx context.Context, evt entity.SettlementEvent) error {
	args := m.Called(ctx, evt)
	return args.Error(0)
}

func (m *MockPublisher) Close() error {
	return nil
}

// memoryPlanCache is an in-memory PlanCacheRepository
type memoryPlanCache struct {
	mu      sync.Mutex
	entries map[uuid.UUID]repository.CachedPlan
	writes  int
}

func newMemoryPlanCache() *memoryPlanCache {
	return &memoryPlanCache{entries: make(map[uuid.UUID]repository.CachedPlan)}
}

func (c *memoryPlanCache) Get(ctx context.Context, userID uuid.UUID) (*repository.CachedPlan, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	plan, ok := c.entries[userID]
	if !ok {
		return nil, nil
	}
	return &plan, nil
}

func (c *memoryPlanCache) Set(ctx context.Context, userID uuid.UUID, plan repository.CachedPlan) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[userID] = plan
	c.writes++
	return nil
}

func (c *memoryPlanCache) Delete(ctx context.Context, userID uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, userID)
	return nil
}

// ledger bundles sqlite backed repositories and the services built on them
type ledger struct {
	db        *gorm.DB
	txRepo    repository.TransactionRepository
	audits    repository.VerificationAuditRepository
	cache     *memoryPlanCache
	checker   *MockStatusChecker
	publisher *MockPublisher
	catalog   *entity.PlanCatalog
	guard     *usecase.TransitionGuard
	resolver  *usecase.PlanResolver
	repair    *usecase.PlanRepairService
}

func newLedger(t *testing.T) *ledger {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "ledger.db")), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(&model.Transaction{}, &model.VerificationAudit{}))

	logger := zap.NewNop()
	pro := decimal.RequireFromString("15.00")
	basic := decimal.RequireFromString("9.00")

	l := &ledger{
		db:        db,
		txRepo:    adapterRepo.NewTransactionRepository(db, logger),
		audits:    adapterRepo.NewVerificationAuditRepository(db, logger),
		cache:     newMemoryPlanCache(),
		checker:   new(MockStatusChecker),
		publisher: new(MockPublisher),
		catalog: entity.NewPlanCatalog(testPeriod,
			entity.PlanSpec{Name: "basic", Period: testPeriod, Amount: &basic, Currency: "USD"},
			entity.PlanSpec{Name: "pro", Period: testPeriod, Amount: &pro, Currency: "USD"},
			entity.PlanSpec{Name: "pro-annual", Period: 365 * 24 * time.Hour},
		),
	}
	l.publisher.On("PublishSettlement", mock.Anything, mock.Anything).Return(nil).Maybe()

	l.guard = usecase.NewTransitionGuard(l.txRepo, l.audits, l.publisher, l.catalog, logger).WithClock(fixedClock(testNow))
	l.resolver = usecase.NewPlanResolver(l.txRepo, logger).WithClock(fixedClock(testNow))
	l.repair = usecase.NewPlanRepairService(l.txRepo, l.cache, logger).WithClock(fixedClock(testNow))
	return l
}

func (l *ledger) reconciler() *usecase.ReconciliationService {
	return usecase.NewReconciliationService(l.txRepo, l.checker, l.guard, l.repair, l.resolver, zap.NewNop())
}

func (l *ledger) pending(t *testing.T, tranID string, userID uuid.UUID, plan string) *model.Transaction {
	t.Helper()
	tx := &model.Transaction{
		TranID: tranID,
		UserID: userID,
		Plan:   plan,
		Amount: decimal.RequireFromString("15.00"),
		Status: model.TransactionStatusPending,
	}
	require.NoError(t, l.txRepo.Create(context.Background(), tx))
	return tx
}

func (l *ledger) completed(t *testing.T, tranID string, userID uuid.UUID, plan string, expiresAt time.Time) *model.Transaction {
	t.Helper()
	date := expiresAt.Add(-testPeriod)
	tx := &model.Transaction{
		TranID:          tranID,
		UserID:          userID,
		Plan:            plan,
		Amount:          decimal.RequireFromString("15.00"),
		Status:          model.TransactionStatusCompleted,
		TransactionDate: &date,
		ExpiresAt:       &expiresAt,
	}
	require.NoError(t, l.txRepo.Create(context.Background(), tx))
	return tx
}

func (l *ledger) get(t *testing.T, tranID string) *model.Transaction {
	t.Helper()
	tx, err := l.txRepo.Get(context.Background(), tranID)
	require.NoError(t, err)
	require.NotNil(t, tx)
	return tx
}

func (l *ledger) decisions(t *testing.T, tranID string) []model.VerificationDecision {
	t.Helper()
	var audits []model.VerificationAudit
	require.NoError(t, l.db.Where("tran_id = ?", tranID).Order("id ASC").Find(&audits).Error)
	out := make([]model.VerificationDecision, 0, len(audits))
	for _, a := range audits {
		out = append(out, a.Decision)
	}
	return out
}

func successResult(body string) gateway.Result {
	return gateway.ClassifyJSON([]byte(body))
}

func networkError() gateway.Result {
	return gateway.Indeterminate(&gateway.CheckError{
		Code:    gateway.CheckErrTransport,
		Message: "Check API request failed",
		Details: "dial tcp: connection refused",
	}, nil)
}
