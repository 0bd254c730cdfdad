package services

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/mroshb/skill_swap/internal/models"
	"github.com/mroshb/skill_swap/pkg/errors"
	"github.com/mroshb/skill_swap/pkg/logger"
	"github.com/xuri/excelize/v2"
)

const exportSheet = "Swaps"

var exportHeader = []interface{}{
	"ID", "Offered By", "Requested From", "Offered Skill", "Wanted Skill", "Status", "Created At", "Updated At",
}

// AdminService backs the moderation console. Its operations sit outside
// the offer state machine.
type AdminService struct {
	store SwapStore
	users UserDirectory
}

func NewAdminService(store SwapStore, users UserDirectory) *AdminService {
	return &AdminService{
		store: store,
		users: users,
	}
}

func (s *AdminService) ListAll(ctx context.Context, status *models.SwapStatus) ([]models.SwapOffer, error) {
	if status != nil && !status.Valid() {
		return nil, errors.New(errors.ErrCodeValidation, fmt.Sprintf("unknown status %q", *status))
	}

	offers, err := s.store.ListAll(ctx, status)
	if err != nil {
		return nil, err
	}

	cache := make(map[uint]*models.UserBrief)
	for i := range offers {
		attachBriefs(ctx, s.users, &offers[i], cache)
	}
	return offers, nil
}

// Stats returns the number of offers in every status, including zeros.
func (s *AdminService) Stats(ctx context.Context) (map[models.SwapStatus]int64, error) {
	counts, err := s.store.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}

	stats := make(map[models.SwapStatus]int64, len(models.AllSwapStatuses))
	for _, status := range models.AllSwapStatuses {
		stats[status] = counts[status]
	}
	return stats, nil
}

// Delete removes an offer whatever its status.
func (s *AdminService) Delete(ctx context.Context, id uuid.UUID, adminID uint) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}

	logger.Warn("Swap offer deleted by moderator", "offer_id", id, "admin_id", adminID)
	return nil
}

// ExportXLSX writes every offer as a spreadsheet to w.
func (s *AdminService) ExportXLSX(ctx context.Context, w io.Writer) error {
	offers, err := s.ListAll(ctx, nil)
	if err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to prepare export")
	}

	if err := f.SetSheetRow(exportSheet, "A1", &exportHeader); err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to write export header")
	}

	for i, o := range offers {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeInternal, "failed to address export row")
		}

		row := []interface{}{
			o.ID.String(),
			partyLabel(o.OfferedBy, o.OfferedByUser),
			partyLabel(o.RequestedFrom, o.RequestedFromUser),
			o.OfferedSkill,
			o.WantedSkill,
			string(o.Status),
			o.CreatedAt.UTC().Format(time.RFC3339),
			o.UpdatedAt.UTC().Format(time.RFC3339),
		}
		if err := f.SetSheetRow(exportSheet, cell, &row); err != nil {
			return errors.Wrap(err, errors.ErrCodeInternal, "failed to write export row")
		}
	}

	if err := f.Write(w); err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to write export")
	}

	logger.Info("Swap offers exported", "rows", len(offers))
	return nil
}

func partyLabel(id uint, brief *models.UserBrief) string {
	if brief == nil {
		return fmt.Sprintf("#%d", id)
	}
	return fmt.Sprintf("%s (#%d)", brief.DisplayName, id)
}
