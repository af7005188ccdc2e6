package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"scoreservice.app/review/internal/http/dto"
	"scoreservice.app/review/internal/service"
)

type ReviewHandler struct {
	reviewService service.ReviewService
}

func NewReviewHandler(reviewService service.ReviewService) *ReviewHandler {
	return &ReviewHandler{reviewService: reviewService}
}

// DesignReview reviews a caller supplied prompt.
func (h *ReviewHandler) DesignReview(c *gin.Context) {
	var req dto.DesignReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: invalidBodyMessage})
		return
	}
	if err := req.Validate(); err != nil {
		respondValidation(c, err)
		return
	}

	out, err := h.reviewService.Review(c.Request.Context(), req.ToParams())
	if err != nil {
		respondError(c, err, "run design review")
		return
	}

	c.JSON(http.StatusOK, dto.DesignReviewResponse{ID: out.ID, Result: out.Result})
}

// Analyze fetches the design and requirements trees from Backlog and reviews them.
func (h *ReviewHandler) Analyze(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.AnalysisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: invalidBodyMessage})
		return
	}
	if err := req.Validate(); err != nil {
		respondValidation(c, err)
		return
	}

	out, err := h.reviewService.Analyze(ctx, req.ToParams())
	if err != nil {
		respondError(c, err, "run analysis")
		return
	}

	slog.InfoContext(ctx, "analysis served", "review_id", out.ReviewID, "documents", out.Documents)
	c.JSON(http.StatusOK, dto.ToAnalysisResponse(out))
}
