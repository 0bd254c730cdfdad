package services

import (
	"context"

	"github.com/mroshb/skill_swap/internal/models"
	"github.com/mroshb/skill_swap/pkg/logger"
)

// attachBriefs fills in the party briefs of offer. Offers are already
// persisted when this runs, so lookup failures are logged and the brief left
// empty. A non-nil cache is shared across offers of one listing.
func attachBriefs(ctx context.Context, users UserDirectory, offer *models.SwapOffer, cache map[uint]*models.UserBrief) {
	offer.OfferedByUser = loadBrief(ctx, users, offer.OfferedBy, cache)
	offer.RequestedFromUser = loadBrief(ctx, users, offer.RequestedFrom, cache)
}

func loadBrief(ctx context.Context, users UserDirectory, userID uint, cache map[uint]*models.UserBrief) *models.UserBrief {
	if brief, ok := cache[userID]; ok {
		return brief
	}

	brief, err := users.BriefOf(ctx, userID)
	if err != nil {
		logger.Warn("Failed to load user brief", "user_id", userID, "error", err)
		brief = nil
	}

	if cache != nil {
		cache[userID] = brief
	}
	return brief
}
