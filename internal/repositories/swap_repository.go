package repositories

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mroshb/skill_swap/internal/models"
	"github.com/mroshb/skill_swap/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SwapRepository persists swap offers in postgres. The pending-tuple
// uniqueness lives in the partial index idx_swap_offers_pending_tuple, so
// it holds across processes.
type SwapRepository struct {
	db *gorm.DB
}

func NewSwapRepository(db *gorm.DB) *SwapRepository {
	return &SwapRepository{db: db}
}

// Insert stores a new pending offer. The proposer's user row is locked for
// the duration of the transaction so concurrent proposals from the same user
// see each other when counting against the pending quota.
func (r *SwapRepository) Insert(ctx context.Context, offer *models.SwapOffer, maxPendingOutgoing int) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var proposer models.User
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Select("id").First(&proposer, offer.OfferedBy).Error; err != nil {
			if stderrors.Is(err, gorm.ErrRecordNotFound) {
				return errors.New(errors.ErrCodeValidation, "proposer does not exist")
			}
			return errors.Wrap(err, errors.ErrCodeStorage, "failed to lock proposer")
		}

		var pending int64
		if err := tx.Model(&models.SwapOffer{}).
			Where("offered_by = ? AND status = ?", offer.OfferedBy, models.SwapStatusPending).
			Count(&pending).Error; err != nil {
			return errors.Wrap(err, errors.ErrCodeStorage, "failed to count pending offers")
		}
		if pending >= int64(maxPendingOutgoing) {
			return errors.New(errors.ErrCodeQuotaExceeded, fmt.Sprintf("at most %d pending outgoing offers allowed", maxPendingOutgoing))
		}

		if err := tx.Create(offer).Error; err != nil {
			if stderrors.Is(err, gorm.ErrDuplicatedKey) {
				return errors.Wrap(err, errors.ErrCodeDuplicatePendingOffer, "an identical offer is already pending")
			}
			return errors.Wrap(err, errors.ErrCodeStorage, "failed to create swap offer")
		}
		return nil
	})

	if err != nil && errors.CodeOf(err) == "" {
		return errors.Wrap(err, errors.ErrCodeStorage, "swap offer transaction failed")
	}
	return err
}

// GetByID retrieves a swap offer by ID
func (r *SwapRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.SwapOffer, error) {
	var offer models.SwapOffer
	result := r.db.WithContext(ctx).Where("id = ?", id).First(&offer)

	if stderrors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, errors.New(errors.ErrCodeNotFound, "swap offer not found")
	}
	if result.Error != nil {
		return nil, errors.Wrap(result.Error, errors.ErrCodeStorage, "failed to get swap offer")
	}

	return &offer, nil
}

// CompareAndSetStatus moves an offer from one status to another only if it
// is still in the expected status at write time.
func (r *SwapRepository) CompareAndSetStatus(ctx context.Context, id uuid.UUID, from, to models.SwapStatus, at time.Time) (*models.SwapOffer, error) {
	result := r.db.WithContext(ctx).Model(&models.SwapOffer{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]interface{}{
			"status":     to,
			"updated_at": at,
		})

	if result.Error != nil {
		return nil, errors.Wrap(result.Error, errors.ErrCodeStorage, "failed to update swap offer")
	}

	current, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if result.RowsAffected == 0 {
		return nil, errors.New(errors.ErrCodeInvalidTransition, fmt.Sprintf("offer is %s, not %s", current.Status, from))
	}

	return current, nil
}

// ListForUser returns offers where the user is either party, most recently
// touched first.
func (r *SwapRepository) ListForUser(ctx context.Context, userID uint, status *models.SwapStatus) ([]models.SwapOffer, error) {
	var offers []models.SwapOffer

	query := r.db.WithContext(ctx).Where("(offered_by = ? OR requested_from = ?)", userID, userID)
	if status != nil {
		query = query.Where("status = ?", *status)
	}

	if err := query.Order("updated_at DESC").Order("created_at DESC").Find(&offers).Error; err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeStorage, "failed to list swap offers")
	}

	return offers, nil
}

// ListAll returns every offer, most recently touched first.
func (r *SwapRepository) ListAll(ctx context.Context, status *models.SwapStatus) ([]models.SwapOffer, error) {
	var offers []models.SwapOffer

	query := r.db.WithContext(ctx)
	if status != nil {
		query = query.Where("status = ?", *status)
	}

	if err := query.Order("updated_at DESC").Order("created_at DESC").Find(&offers).Error; err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeStorage, "failed to list swap offers")
	}

	return offers, nil
}

// CountByStatus returns the number of offers per status.
func (r *SwapRepository) CountByStatus(ctx context.Context) (map[models.SwapStatus]int64, error) {
	var rows []struct {
		Status models.SwapStatus
		Total  int64
	}

	err := r.db.WithContext(ctx).Model(&models.SwapOffer{}).
		Select("status, count(*) AS total").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeStorage, "failed to count swap offers")
	}

	counts := make(map[models.SwapStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Total
	}
	return counts, nil
}

// Delete hard-deletes an offer regardless of its status.
func (r *SwapRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.SwapOffer{})

	if result.Error != nil {
		return errors.Wrap(result.Error, errors.ErrCodeStorage, "failed to delete swap offer")
	}
	if result.RowsAffected == 0 {
		return errors.New(errors.ErrCodeNotFound, "swap offer not found")
	}

	return nil
}

// Ping checks the database connection
func (r *SwapRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeStorage, "failed to get database instance")
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return errors.Wrap(err, errors.ErrCodeStorage, "database unreachable")
	}
	return nil
}
