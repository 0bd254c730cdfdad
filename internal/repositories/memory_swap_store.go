package repositories

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mroshb/skill_swap/internal/models"
	"github.com/mroshb/skill_swap/pkg/errors"
)

type pendingTuple struct {
	offeredBy     uint
	requestedFrom uint
	offeredSkill  string
	wantedSkill   string
}

func tupleOf(o *models.SwapOffer) pendingTuple {
	return pendingTuple{
		offeredBy:     o.OfferedBy,
		requestedFrom: o.RequestedFrom,
		offeredSkill:  o.OfferedSkill,
		wantedSkill:   o.WantedSkill,
	}
}

// MemorySwapStore is an in-process swap store. A single mutex makes the
// quota check, duplicate check and insert one atomic step, mirroring the
// transaction and partial index of SwapRepository.
type MemorySwapStore struct {
	mu sync.RWMutex

	offers  map[uuid.UUID]*models.SwapOffer
	pending map[pendingTuple]uuid.UUID

	// failNext is returned (wrapped as a storage error) by the next call.
	failNext error
}

func NewMemorySwapStore() *MemorySwapStore {
	return &MemorySwapStore{
		offers:  make(map[uuid.UUID]*models.SwapOffer),
		pending: make(map[pendingTuple]uuid.UUID),
	}
}

// FailNext makes the next store call fail with a storage error wrapping err.
func (s *MemorySwapStore) FailNext(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failNext = err
}

// injectedError must be called with s.mu held for writing.
func (s *MemorySwapStore) injectedError() error {
	if s.failNext == nil {
		return nil
	}
	err := s.failNext
	s.failNext = nil
	return errors.Wrap(err, errors.ErrCodeStorage, "memory store failure")
}

func (s *MemorySwapStore) Insert(ctx context.Context, offer *models.SwapOffer, maxPendingOutgoing int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.injectedError(); err != nil {
		return err
	}

	var pending int
	for tuple := range s.pending {
		if tuple.offeredBy == offer.OfferedBy {
			pending++
		}
	}
	if pending >= maxPendingOutgoing {
		return errors.New(errors.ErrCodeQuotaExceeded, fmt.Sprintf("at most %d pending outgoing offers allowed", maxPendingOutgoing))
	}

	tuple := tupleOf(offer)
	if _, exists := s.pending[tuple]; exists {
		return errors.New(errors.ErrCodeDuplicatePendingOffer, "an identical offer is already pending")
	}

	if offer.ID == uuid.Nil {
		offer.ID = uuid.New()
	}
	if offer.Status == "" {
		offer.Status = models.SwapStatusPending
	}
	now := time.Now().UTC()
	if offer.CreatedAt.IsZero() {
		offer.CreatedAt = now
	}
	if offer.UpdatedAt.IsZero() {
		offer.UpdatedAt = offer.CreatedAt
	}

	s.offers[offer.ID] = cloneOffer(offer)
	s.pending[tuple] = offer.ID
	return nil
}

func (s *MemorySwapStore) GetByID(ctx context.Context, id uuid.UUID) (*models.SwapOffer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.injectedError(); err != nil {
		return nil, err
	}

	offer, exists := s.offers[id]
	if !exists {
		return nil, errors.New(errors.ErrCodeNotFound, "swap offer not found")
	}
	return cloneOffer(offer), nil
}

func (s *MemorySwapStore) CompareAndSetStatus(ctx context.Context, id uuid.UUID, from, to models.SwapStatus, at time.Time) (*models.SwapOffer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.injectedError(); err != nil {
		return nil, err
	}

	offer, exists := s.offers[id]
	if !exists {
		return nil, errors.New(errors.ErrCodeNotFound, "swap offer not found")
	}
	if offer.Status != from {
		return nil, errors.New(errors.ErrCodeInvalidTransition, fmt.Sprintf("offer is %s, not %s", offer.Status, from))
	}

	if from == models.SwapStatusPending {
		delete(s.pending, tupleOf(offer))
	}
	offer.Status = to
	offer.UpdatedAt = at

	return cloneOffer(offer), nil
}

func (s *MemorySwapStore) ListForUser(ctx context.Context, userID uint, status *models.SwapStatus) ([]models.SwapOffer, error) {
	return s.list(func(o *models.SwapOffer) bool {
		return o.IsParty(userID) && (status == nil || o.Status == *status)
	})
}

func (s *MemorySwapStore) ListAll(ctx context.Context, status *models.SwapStatus) ([]models.SwapOffer, error) {
	return s.list(func(o *models.SwapOffer) bool {
		return status == nil || o.Status == *status
	})
}

func (s *MemorySwapStore) list(match func(o *models.SwapOffer) bool) ([]models.SwapOffer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.injectedError(); err != nil {
		return nil, err
	}

	offers := make([]models.SwapOffer, 0)
	for _, offer := range s.offers {
		if match(offer) {
			offers = append(offers, *cloneOffer(offer))
		}
	}

	sort.Slice(offers, func(i, j int) bool {
		if !offers[i].UpdatedAt.Equal(offers[j].UpdatedAt) {
			return offers[i].UpdatedAt.After(offers[j].UpdatedAt)
		}
		if !offers[i].CreatedAt.Equal(offers[j].CreatedAt) {
			return offers[i].CreatedAt.After(offers[j].CreatedAt)
		}
		return offers[i].ID.String() < offers[j].ID.String()
	})

	return offers, nil
}

func (s *MemorySwapStore) CountByStatus(ctx context.Context) (map[models.SwapStatus]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.injectedError(); err != nil {
		return nil, err
	}

	counts := make(map[models.SwapStatus]int64)
	for _, offer := range s.offers {
		counts[offer.Status]++
	}
	return counts, nil
}

func (s *MemorySwapStore) Delete(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.injectedError(); err != nil {
		return err
	}

	offer, exists := s.offers[id]
	if !exists {
		return errors.New(errors.ErrCodeNotFound, "swap offer not found")
	}
	if offer.Status == models.SwapStatusPending {
		delete(s.pending, tupleOf(offer))
	}
	delete(s.offers, id)
	return nil
}

func (s *MemorySwapStore) Ping(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.injectedError()
}

func cloneOffer(o *models.SwapOffer) *models.SwapOffer {
	c := *o
	c.OfferedByUser = nil
	c.RequestedFromUser = nil
	return &c
}
