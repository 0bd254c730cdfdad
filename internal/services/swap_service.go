package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mroshb/skill_swap/internal/metrics"
	"github.com/mroshb/skill_swap/internal/models"
	"github.com/mroshb/skill_swap/internal/security"
	"github.com/mroshb/skill_swap/pkg/errors"
	"github.com/mroshb/skill_swap/pkg/logger"
)

// SwapStore persists swap offers. Insert must apply the pending quota and
// the pending-tuple uniqueness atomically with the write, and
// CompareAndSetStatus must only write when the stored status equals from.
type SwapStore interface {
	Insert(ctx context.Context, offer *models.SwapOffer, maxPendingOutgoing int) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.SwapOffer, error)
	CompareAndSetStatus(ctx context.Context, id uuid.UUID, from, to models.SwapStatus, at time.Time) (*models.SwapOffer, error)
	ListForUser(ctx context.Context, userID uint, status *models.SwapStatus) ([]models.SwapOffer, error)
	ListAll(ctx context.Context, status *models.SwapStatus) ([]models.SwapOffer, error)
	CountByStatus(ctx context.Context) (map[models.SwapStatus]int64, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Ping(ctx context.Context) error
}

// UserDirectory resolves parties. The swap services never write to it.
type UserDirectory interface {
	Exists(ctx context.Context, id uint) (bool, error)
	BriefOf(ctx context.Context, id uint) (*models.UserBrief, error)
}

type Decision string

const (
	DecisionAccept Decision = "accept"
	DecisionReject Decision = "reject"
)

func ParseDecision(s string) (Decision, error) {
	switch Decision(s) {
	case DecisionAccept, DecisionReject:
		return Decision(s), nil
	}
	return "", errors.New(errors.ErrCodeValidation, fmt.Sprintf("decision must be %q or %q", DecisionAccept, DecisionReject))
}

func (d Decision) target() models.SwapStatus {
	if d == DecisionAccept {
		return models.SwapStatusAccepted
	}
	return models.SwapStatusRejected
}

// SwapService owns the lifecycle of swap offers.
type SwapService struct {
	store              SwapStore
	users              UserDirectory
	maxPendingOutgoing int
	now                func() time.Time
}

func NewSwapService(store SwapStore, users UserDirectory, maxPendingOutgoing int) *SwapService {
	return &SwapService{
		store:              store,
		users:              users,
		maxPendingOutgoing: maxPendingOutgoing,
		now: func() time.Time {
			// postgres keeps microseconds
			return time.Now().UTC().Truncate(time.Microsecond)
		},
	}
}

func (s *SwapService) MaxPendingOutgoing() int {
	return s.maxPendingOutgoing
}

// Propose creates a pending offer from proposerID to counterpartyID.
func (s *SwapService) Propose(ctx context.Context, proposerID, counterpartyID uint, offeredSkill, wantedSkill string) (*models.SwapOffer, error) {
	offer, err := s.propose(ctx, proposerID, counterpartyID, offeredSkill, wantedSkill)
	if err != nil {
		metrics.RecordProposeRejection(errors.CodeOf(err))
		logger.Debug("Swap proposal rejected",
			"proposer_id", proposerID,
			"counterparty_id", counterpartyID,
			"code", errors.CodeOf(err),
		)
		return nil, err
	}

	metrics.RecordTransition(string(models.SwapStatusPending))
	logger.Info("Swap offer proposed",
		"offer_id", offer.ID,
		"proposer_id", proposerID,
		"counterparty_id", counterpartyID,
	)

	attachBriefs(ctx, s.users, offer, nil)
	return offer, nil
}

func (s *SwapService) propose(ctx context.Context, proposerID, counterpartyID uint, offeredSkill, wantedSkill string) (*models.SwapOffer, error) {
	if proposerID == 0 || counterpartyID == 0 {
		return nil, errors.New(errors.ErrCodeValidation, "both parties are required")
	}
	if proposerID == counterpartyID {
		return nil, errors.New(errors.ErrCodeValidation, "cannot propose a swap to yourself")
	}

	offeredSkill = security.SanitizeSkill(offeredSkill)
	wantedSkill = security.SanitizeSkill(wantedSkill)
	if !security.ValidateSkill(offeredSkill) {
		return nil, errors.New(errors.ErrCodeValidation, fmt.Sprintf("offered skill must be 1-%d characters", security.MaxSkillLength))
	}
	if !security.ValidateSkill(wantedSkill) {
		return nil, errors.New(errors.ErrCodeValidation, fmt.Sprintf("wanted skill must be 1-%d characters", security.MaxSkillLength))
	}

	if err := s.requireUser(ctx, proposerID, "proposer"); err != nil {
		return nil, err
	}
	if err := s.requireUser(ctx, counterpartyID, "counterparty"); err != nil {
		return nil, err
	}

	now := s.now()
	offer := &models.SwapOffer{
		ID:            uuid.New(),
		OfferedBy:     proposerID,
		RequestedFrom: counterpartyID,
		OfferedSkill:  offeredSkill,
		WantedSkill:   wantedSkill,
		Status:        models.SwapStatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.store.Insert(ctx, offer, s.maxPendingOutgoing); err != nil {
		return nil, err
	}
	return offer, nil
}

func (s *SwapService) requireUser(ctx context.Context, id uint, role string) error {
	exists, err := s.users.Exists(ctx, id)
	if err != nil {
		return err
	}
	if !exists {
		return errors.New(errors.ErrCodeValidation, fmt.Sprintf("%s %d does not exist", role, id))
	}
	return nil
}

// ListFor returns the offers userID is a party to, most recently touched
// first. A nil status returns every status.
func (s *SwapService) ListFor(ctx context.Context, userID uint, status *models.SwapStatus) ([]models.SwapOffer, error) {
	if status != nil && !status.Valid() {
		return nil, errors.New(errors.ErrCodeValidation, fmt.Sprintf("unknown status %q", *status))
	}

	offers, err := s.store.ListForUser(ctx, userID, status)
	if err != nil {
		return nil, err
	}

	cache := make(map[uint]*models.UserBrief)
	for i := range offers {
		attachBriefs(ctx, s.users, &offers[i], cache)
	}
	return offers, nil
}

// Get returns a single offer to one of its parties.
func (s *SwapService) Get(ctx context.Context, offerID uuid.UUID, viewerID uint) (*models.SwapOffer, error) {
	offer, err := s.store.GetByID(ctx, offerID)
	if err != nil {
		return nil, err
	}
	if !offer.IsParty(viewerID) {
		return nil, errors.New(errors.ErrCodeForbidden, "only the parties of an offer may view it")
	}

	attachBriefs(ctx, s.users, offer, nil)
	return offer, nil
}

// Respond accepts or rejects a pending offer. Only the counterparty may
// respond.
func (s *SwapService) Respond(ctx context.Context, offerID uuid.UUID, responderID uint, decision Decision) (*models.SwapOffer, error) {
	if _, err := ParseDecision(string(decision)); err != nil {
		return nil, err
	}

	return s.transition(ctx, offerID, responderID, models.SwapStatusPending, decision.target(),
		func(o *models.SwapOffer) bool { return o.RequestedFrom == responderID },
		"only the counterparty may respond to an offer",
	)
}

// Cancel withdraws a pending offer. Only the proposer may cancel.
func (s *SwapService) Cancel(ctx context.Context, offerID uuid.UUID, cancellerID uint) (*models.SwapOffer, error) {
	return s.transition(ctx, offerID, cancellerID, models.SwapStatusPending, models.SwapStatusCancelled,
		func(o *models.SwapOffer) bool { return o.OfferedBy == cancellerID },
		"only the proposer may cancel an offer",
	)
}

// Complete marks an accepted offer as done. Either party may complete.
func (s *SwapService) Complete(ctx context.Context, offerID uuid.UUID, actorID uint) (*models.SwapOffer, error) {
	return s.transition(ctx, offerID, actorID, models.SwapStatusAccepted, models.SwapStatusCompleted,
		func(o *models.SwapOffer) bool { return o.IsParty(actorID) },
		"only the parties of an offer may complete it",
	)
}

// transition checks existence, then authorization, then the current status,
// and finally applies the move with a compare-and-set so a concurrent
// transition of the same offer makes this one fail instead of overwriting it.
func (s *SwapService) transition(
	ctx context.Context,
	offerID uuid.UUID,
	actorID uint,
	from, to models.SwapStatus,
	authorized func(*models.SwapOffer) bool,
	forbidden string,
) (*models.SwapOffer, error) {
	offer, err := s.store.GetByID(ctx, offerID)
	if err != nil {
		return nil, err
	}

	if !authorized(offer) {
		return nil, errors.New(errors.ErrCodeForbidden, forbidden)
	}

	if offer.Status != from || !from.CanTransitionTo(to) {
		return nil, errors.New(errors.ErrCodeInvalidTransition, fmt.Sprintf("offer is %s, cannot move to %s", offer.Status, to))
	}

	updated, err := s.store.CompareAndSetStatus(ctx, offerID, from, to, s.now())
	if err != nil {
		return nil, err
	}

	metrics.RecordTransition(string(to))
	logger.Info("Swap offer transitioned",
		"offer_id", offerID,
		"actor_id", actorID,
		"from", from,
		"to", to,
	)

	attachBriefs(ctx, s.users, updated, nil)
	return updated, nil
}
