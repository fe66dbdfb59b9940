package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"impactx/internal/models"
	"impactx/internal/repository"

	"github.com/google/uuid"
)

// ErrNoEligibleImpacts is returned when a distribution finds no verified
// impacts inside the pool window. Nothing is mutated in that case.
var ErrNoEligibleImpacts = errors.New("no eligible impacts")

// PoolService owns sponsor pools and the reward allocation engine.
type PoolService struct {
	poolRepo   *repository.PoolRepository
	impactRepo *repository.ImpactRepository

	// poolLocks serializes distributions per pool so two concurrent calls
	// cannot both read the same eligible set and append twice.
	poolLocks sync.Map // uuid.UUID -> *sync.Mutex
}

func NewPoolService(poolRepo *repository.PoolRepository, impactRepo *repository.ImpactRepository) *PoolService {
	return &PoolService{
		poolRepo:   poolRepo,
		impactRepo: impactRepo,
	}
}

func (s *PoolService) CreatePool(ctx context.Context, req models.CreatePoolRequest) (*models.Pool, error) {
	if req.Name == "" {
		return nil, fmt.Errorf("pool name is required")
	}
	if req.EndAt <= req.StartAt {
		return nil, fmt.Errorf("pool window is invalid: end_at must be after start_at")
	}
	if req.Budget < 0 {
		return nil, fmt.Errorf("pool budget must be non-negative")
	}

	pool := &models.Pool{
		ID:            uuid.New(),
		Name:          req.Name,
		StartAt:       req.StartAt,
		EndAt:         req.EndAt,
		Budget:        req.Budget,
		Contributions: models.Contributions{},
		Distributions: models.Distributions{},
		CreatedAt:     time.Now().UnixMilli(),
	}

	if err := s.poolRepo.Create(ctx, pool); err != nil {
		return nil, err
	}

	slog.Info("Pool created", "pool_id", pool.ID, "name", pool.Name, "budget", pool.Budget)
	return pool, nil
}

func (s *PoolService) GetPool(ctx context.Context, id uuid.UUID) (*models.Pool, error) {
	return s.poolRepo.GetByID(ctx, id)
}

func (s *PoolService) GetPools(ctx context.Context) ([]models.Pool, error) {
	pools, err := s.poolRepo.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	if pools == nil {
		pools = []models.Pool{}
	}
	return pools, nil
}

// Contribute appends a sponsor contribution; the pool budget itself is never
// mutated, contributions stack on top of it.
func (s *PoolService) Contribute(ctx context.Context, poolID uuid.UUID, req models.ContributeRequest) (*models.Pool, error) {
	if req.Amount <= 0 {
		return nil, fmt.Errorf("contribution amount must be positive")
	}

	lock := s.lockFor(poolID)
	lock.Lock()
	defer lock.Unlock()

	pool, err := s.poolRepo.GetByID(ctx, poolID)
	if err != nil {
		return nil, err
	}

	pool.Contributions = append(pool.Contributions, models.Contribution{
		Sponsor: req.Sponsor,
		Amount:  req.Amount,
	})

	if err := s.poolRepo.Update(ctx, pool); err != nil {
		return nil, err
	}

	slog.Info("Pool contribution recorded", "pool_id", poolID, "sponsor", req.Sponsor, "amount", req.Amount)
	return pool, nil
}

// Distribute computes one distribution event: verified impacts inside the
// pool window share the total budget in proportion to their scores. A pool
// may be distributed any number of times over the same impacts.
func (s *PoolService) Distribute(ctx context.Context, poolID uuid.UUID) (*models.Distribution, error) {
	lock := s.lockFor(poolID)
	lock.Lock()
	defer lock.Unlock()

	pool, err := s.poolRepo.GetByID(ctx, poolID)
	if err != nil {
		return nil, err
	}

	eligible, err := s.impactRepo.GetVerifiedInWindow(ctx, pool.StartAt, pool.EndAt)
	if err != nil {
		return nil, err
	}
	if len(eligible) == 0 {
		return nil, ErrNoEligibleImpacts
	}

	distribution := ComputeDistribution(pool, eligible, time.Now().UnixMilli())

	pool.Distributions = append(pool.Distributions, distribution)
	if err := s.poolRepo.Update(ctx, pool); err != nil {
		return nil, err
	}

	slog.Info("Pool distributed",
		"pool_id", pool.ID,
		"eligible", len(eligible),
		"total_distributed", distribution.TotalDistributed)

	return &distribution, nil
}

// ComputeDistribution is the pure allocation computation. Weights are each
// impact's score; a zero or missing score still earns the floor weight of 1.
// When every score is zero the denominator falls back to the impact count.
func ComputeDistribution(pool *models.Pool, eligible []models.Impact, at int64) models.Distribution {
	totalWeight := 0.0
	for _, impact := range eligible {
		if impact.AIScore != nil {
			totalWeight += float64(*impact.AIScore)
		}
	}
	if totalWeight == 0 {
		totalWeight = float64(len(eligible))
	}

	totalBudget := pool.TotalBudget()

	allocations := make([]models.Allocation, 0, len(eligible))
	totalDistributed := 0.0
	for _, impact := range eligible {
		weight := 1.0
		if impact.AIScore != nil && *impact.AIScore > 0 {
			weight = float64(*impact.AIScore)
		}

		amount := round2(weight / totalWeight * totalBudget)
		totalDistributed += amount

		allocations = append(allocations, models.Allocation{
			WalletAddress: impact.WalletAddress,
			ImpactID:      impact.ID,
			Amount:        amount,
		})
	}

	return models.Distribution{
		At:               at,
		TotalDistributed: round2(totalDistributed),
		Allocations:      allocations,
	}
}

func (s *PoolService) lockFor(poolID uuid.UUID) *sync.Mutex {
	lock, _ := s.poolLocks.LoadOrStore(poolID, &sync.Mutex{})
	return lock.(*sync.Mutex)
}
