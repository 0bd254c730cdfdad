package api

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/mroshb/skill_swap/internal/models"
	"github.com/mroshb/skill_swap/internal/services"
	"github.com/mroshb/skill_swap/pkg/errors"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Pinger reports storage reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	swaps   *services.SwapService
	admin   *services.AdminService
	storage Pinger
	driver  string
}

func NewHandler(swaps *services.SwapService, admin *services.AdminService, storage Pinger, driver string) *Handler {
	return &Handler{
		swaps:   swaps,
		admin:   admin,
		storage: storage,
		driver:  driver,
	}
}

// Propose handles POST /api/v1/swaps
func (h *Handler) Propose(c *gin.Context) {
	var req ProposeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, errors.Wrap(err, errors.ErrCodeValidation, "invalid request body"))
		return
	}

	offer, err := h.swaps.Propose(c.Request.Context(), c.GetUint(ctxUserID), req.RequestedFrom, req.OfferedSkill, req.WantedSkill)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, offer)
}

// List handles GET /api/v1/swaps?status=
func (h *Handler) List(c *gin.Context) {
	status := statusFilter(c)

	offers, err := h.swaps.ListFor(c.Request.Context(), c.GetUint(ctxUserID), status)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, SwapListResponse{Swaps: offers, Count: len(offers)})
}

// Get handles GET /api/v1/swaps/:id
func (h *Handler) Get(c *gin.Context) {
	id, ok := offerID(c)
	if !ok {
		return
	}

	offer, err := h.swaps.Get(c.Request.Context(), id, c.GetUint(ctxUserID))
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, offer)
}

// Respond handles PUT /api/v1/swaps/:id/respond
func (h *Handler) Respond(c *gin.Context) {
	id, ok := offerID(c)
	if !ok {
		return
	}

	var req RespondRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, errors.Wrap(err, errors.ErrCodeValidation, "invalid request body"))
		return
	}

	decision, err := services.ParseDecision(req.Decision)
	if err != nil {
		abortWithError(c, err)
		return
	}

	offer, err := h.swaps.Respond(c.Request.Context(), id, c.GetUint(ctxUserID), decision)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, offer)
}

// Cancel handles PUT /api/v1/swaps/:id/cancel
func (h *Handler) Cancel(c *gin.Context) {
	id, ok := offerID(c)
	if !ok {
		return
	}

	offer, err := h.swaps.Cancel(c.Request.Context(), id, c.GetUint(ctxUserID))
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, offer)
}

// Complete handles PUT /api/v1/swaps/:id/complete
func (h *Handler) Complete(c *gin.Context) {
	id, ok := offerID(c)
	if !ok {
		return
	}

	offer, err := h.swaps.Complete(c.Request.Context(), id, c.GetUint(ctxUserID))
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, offer)
}

// AdminList handles GET /api/v1/admin/swaps
func (h *Handler) AdminList(c *gin.Context) {
	offers, err := h.admin.ListAll(c.Request.Context(), statusFilter(c))
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, SwapListResponse{Swaps: offers, Count: len(offers)})
}

// AdminStats handles GET /api/v1/admin/swaps/stats
func (h *Handler) AdminStats(c *gin.Context) {
	stats, err := h.admin.Stats(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}

	var total int64
	for _, n := range stats {
		total += n
	}
	c.JSON(http.StatusOK, StatsResponse{Total: total, ByStatus: stats})
}

// AdminExport handles GET /api/v1/admin/swaps/export
func (h *Handler) AdminExport(c *gin.Context) {
	var buf bytes.Buffer
	if err := h.admin.ExportXLSX(c.Request.Context(), &buf); err != nil {
		abortWithError(c, err)
		return
	}

	filename := fmt.Sprintf("swaps-%s.xlsx", time.Now().UTC().Format("20060102-150405"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

// AdminDelete handles DELETE /api/v1/admin/swaps/:id
func (h *Handler) AdminDelete(c *gin.Context) {
	id, ok := offerID(c)
	if !ok {
		return
	}

	if err := h.admin.Delete(c.Request.Context(), id, c.GetUint(ctxUserID)); err != nil {
		abortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// Health handles GET /health
func (h *Handler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := h.storage.Ping(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, HealthResponse{Status: "unavailable", Storage: h.driver})
		return
	}

	c.JSON(http.StatusOK, HealthResponse{Status: "ok", Storage: h.driver})
}

func offerID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		abortWithError(c, errors.New(errors.ErrCodeValidation, "invalid offer id"))
		return uuid.Nil, false
	}
	return id, true
}

// statusFilter returns nil when no status query is given. Unknown values
// are passed through for the service to reject.
func statusFilter(c *gin.Context) *models.SwapStatus {
	raw := c.Query("status")
	if raw == "" {
		return nil
	}
	status := models.SwapStatus(raw)
	return &status
}
