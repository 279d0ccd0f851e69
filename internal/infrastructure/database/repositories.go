package database

import (
	"github.com/redis/go-redis/v9"
	"github.com/wekeepgrowing/payment-reconciler/internal/adapter/repository"
	domainRepo "github.com/wekeepgrowing/payment-reconciler/internal/domain/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Repositories holds all repository instances
type Repositories struct {
	Transaction domainRepo.TransactionRepository
	Audit       domainRepo.VerificationAuditRepository
	// PlanCache is nil when Redis is not configured.
	PlanCache domainRepo.PlanCacheRepository
}

// NewRepositories creates new repository instances with database connection
func NewRepositories(db *gorm.DB, redisClient *redis.Client, keyPrefix string, logger *zap.Logger) *Repositories {
	repos := &Repositories{
		Transaction: repository.NewTransactionRepository(db, logger),
		Audit:       repository.NewVerificationAuditRepository(db, logger),
	}
	if redisClient != nil {
		repos.PlanCache = repository.NewPlanCacheRepository(redisClient, keyPrefix, logger)
	}
	return repos
}
