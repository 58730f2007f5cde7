// Package dependency provides dependency injection for the application.
package dependency

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/finance-tracker/recurring/config"
	"github.com/finance-tracker/recurring/internal/application/adapter"
	"github.com/finance-tracker/recurring/internal/application/usecase/billpattern"
	"github.com/finance-tracker/recurring/internal/application/usecase/classification"
	"github.com/finance-tracker/recurring/internal/application/usecase/detection"
	"github.com/finance-tracker/recurring/internal/application/usecase/label"
	"github.com/finance-tracker/recurring/internal/application/usecase/maintenance"
	"github.com/finance-tracker/recurring/internal/application/usecase/occurrence"
	"github.com/finance-tracker/recurring/internal/application/usecase/recommendation"
	"github.com/finance-tracker/recurring/internal/infra/server/router"
	"github.com/finance-tracker/recurring/internal/integration/adapters"
	"github.com/finance-tracker/recurring/internal/integration/cache"
	"github.com/finance-tracker/recurring/internal/integration/entrypoint/controller"
	"github.com/finance-tracker/recurring/internal/integration/entrypoint/middleware"
	"github.com/finance-tracker/recurring/internal/integration/persistence"
)

// Injector holds all application dependencies.
type Injector struct {
	Config *config.Config
	DB     *gorm.DB
	Router *router.Router
	Rescan *maintenance.RescanUseCase
}

// NewInjector creates a new dependency injector with all dependencies wired.
// redisClient may be nil, in which case caches, locks and rate limits stay in process.
func NewInjector(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) *Injector {
	// Domain configuration, built once and injected
	detectionConfig := DetectionConfig(cfg.Detection)
	matchingConfig := MatchingConfig(cfg.Recommendation)
	keywordPolicy := BillKeywordPolicy(cfg.Detection)

	// Create repositories
	transactionRepo := persistence.NewTransactionRepository(db)
	patternRepo := persistence.NewBillPatternRepository(db)

	// Create adapters/services
	var (
		candidateCache adapter.CandidateCache
		labelCache     adapter.LabelCache
		locker         adapter.PatternLocker
		rateLimitStore middleware.RateLimitStore
	)
	if redisClient != nil {
		candidateCache = cache.NewRedisCandidateCache(redisClient, cfg.Redis.CandidateTTL)
		labelCache = cache.NewRedisLabelCache(redisClient, cfg.Redis.LabelTTL)
		locker = adapters.NewRedisPatternLocker(redisClient, cfg.Redis.LockTTL, cfg.Redis.LockRetryDelay)
		rateLimitStore = middleware.NewRedisRateLimitStore(redisClient)
	} else {
		candidateCache = cache.NewMemoryCandidateCache(cfg.Redis.CandidateTTL)
		labelCache = cache.NewMemoryLabelCache(cfg.Redis.LabelTTL)
		locker = adapters.NewMemoryPatternLocker()
		rateLimitStore = middleware.NewMemoryRateLimitStore()
	}
	labelService := adapters.NewGeminiService(cfg.AI.GeminiAPIKey, cfg.AI.Model, cfg.AI.Timeout)
	tokenService := adapters.NewTokenService(cfg.JWT.Secret)

	detector := detection.NewDetector(detectionConfig)
	matcher := recommendation.NewMatcher(matchingConfig, keywordPolicy)

	// Create classification use cases
	propagateUseCase := classification.NewPropagateUseCase(transactionRepo, patternRepo, locker)
	batchUpdateUseCase := classification.NewBatchUpdateUseCase(transactionRepo, patternRepo, locker)
	getClassificationUseCase := classification.NewGetClassificationUseCase(transactionRepo, keywordPolicy)

	// Create occurrence use cases
	syncUseCase := occurrence.NewSyncOccurrencesUseCase(transactionRepo, patternRepo, locker, propagateUseCase, candidateCache, detectionConfig)
	listOccurrencesUseCase := occurrence.NewListOccurrencesUseCase(patternRepo)
	linkUseCase := occurrence.NewLinkTransactionUseCase(transactionRepo, patternRepo, locker, propagateUseCase, candidateCache, detectionConfig)
	unlinkUseCase := occurrence.NewUnlinkTransactionUseCase(transactionRepo, patternRepo, locker, candidateCache)

	// Create bill pattern use cases
	createUseCase := billpattern.NewCreateFromPatternUseCase(transactionRepo, patternRepo, syncUseCase, propagateUseCase, candidateCache)
	listUseCase := billpattern.NewListPatternsUseCase(patternRepo)
	getUseCase := billpattern.NewGetPatternUseCase(patternRepo)
	updateUseCase := billpattern.NewUpdatePatternUseCase(patternRepo, locker, syncUseCase, candidateCache)
	deleteUseCase := billpattern.NewDeletePatternUseCase(transactionRepo, patternRepo, locker, propagateUseCase, candidateCache)
	cleanupUseCase := billpattern.NewCleanupDuplicatesUseCase(patternRepo, locker)

	// Create detection use cases
	detectUseCase := detection.NewDetectPatternsUseCase(transactionRepo, patternRepo, candidateCache, detector, createUseCase)
	classifyRemainingUseCase := detection.NewClassifyRemainingUseCase(transactionRepo, detector, keywordPolicy)

	// Create recommendation and label use cases
	listRecommendationsUseCase := recommendation.NewListRecommendationsUseCase(transactionRepo, patternRepo, matcher)
	acceptRecommendationUseCase := recommendation.NewAcceptRecommendationUseCase(linkUseCase)
	suggestLabelUseCase := label.NewSuggestLabelUseCase(transactionRepo, patternRepo, labelService, labelCache, keywordPolicy)

	rescanUseCase := maintenance.NewRescanUseCase(
		transactionRepo,
		patternRepo,
		detectUseCase,
		classifyRemainingUseCase,
		syncUseCase,
		cleanupUseCase,
		propagateUseCase,
	)

	// Create controllers
	var cacheHealthChecker func() bool
	if redisClient != nil {
		cacheHealthChecker = func() bool {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return redisClient.Ping(ctx).Err() == nil
		}
	}
	healthController := controller.NewHealthController(func() bool {
		sqlDB, err := db.DB()
		if err != nil {
			return false
		}
		return sqlDB.Ping() == nil
	}, cacheHealthChecker)

	billPatternController := controller.NewBillPatternController(
		detectUseCase,
		createUseCase,
		listUseCase,
		getUseCase,
		updateUseCase,
		deleteUseCase,
		cleanupUseCase,
		syncUseCase,
		listOccurrencesUseCase,
		linkUseCase,
		unlinkUseCase,
	)

	recommendationController := controller.NewRecommendationController(
		listRecommendationsUseCase,
		acceptRecommendationUseCase,
	)

	classificationController := controller.NewClassificationController(
		batchUpdateUseCase,
		classifyRemainingUseCase,
		propagateUseCase,
		getClassificationUseCase,
	)

	labelController := controller.NewLabelController(suggestLabelUseCase)

	// Create middleware
	var rateLimiter *middleware.RateLimiter
	if cfg.RateLimit.Enabled && cfg.Server.Environment != "test" && cfg.Server.Environment != "e2e" {
		rateLimiter = middleware.NewRateLimiterWithConfig(rateLimitStore, cfg.RateLimit.MaxRequests, cfg.RateLimit.Window)
	}
	authMiddleware := middleware.NewAuthMiddleware(tokenService)

	// Create router
	r := router.NewRouter(
		healthController,
		billPatternController,
		recommendationController,
		classificationController,
		labelController,
		rateLimiter,
		authMiddleware,
	)

	return &Injector{
		Config: cfg,
		DB:     db,
		Router: r,
		Rescan: rescanUseCase,
	}
}
