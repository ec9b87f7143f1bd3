package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"wanderlust/internal/middleware"
	"wanderlust/internal/model"
	"wanderlust/internal/service"
)

// ReviewRequestDTO is the payload for creating a new review.
type ReviewRequestDTO struct {
	Comment string `form:"comment" json:"comment" binding:"required"`
	Rating  int    `form:"rating" json:"rating" binding:"required,min=1,max=5"`
}

// ReviewHandler ties HTTP requests to the ReviewService.
type ReviewHandler struct {
	reviewSvc *service.ReviewService
}

// NewReviewHandler constructs a ReviewHandler.
func NewReviewHandler(rs *service.ReviewService) *ReviewHandler {
	return &ReviewHandler{reviewSvc: rs}
}

// RegisterRoutes registers:
//
//	POST   /listings/:id/reviews
//	DELETE /listings/:id/reviews/:reviewId
func (h *ReviewHandler) RegisterRoutes(rg *gin.RouterGroup, auth, author gin.HandlerFunc) {
	grp := rg.Group("/listings/:id/reviews", auth)
	{
		grp.POST("", h.CreateReview)
		grp.DELETE("/:reviewId", author, h.DestroyReview)
	}
}

// CreateReview handles POST /listings/:id/reviews
func (h *ReviewHandler) CreateReview(c *gin.Context) {
	listingID := c.Param("id")

	var req ReviewRequestDTO
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "redirect": "/listings/" + listingID})
		return
	}

	rev, err := h.reviewSvc.CreateReview(
		c.Request.Context(),
		listingID,
		middleware.UserID(c),
		model.ReviewInput{Comment: req.Comment, Rating: req.Rating},
	)
	if err != nil {
		respondError(c, "CreateReview", err, "/listings/"+listingID, "")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":  "New Review Created!",
		"redirect": "/listings/" + listingID,
		"review":   rev,
	})
}

// DestroyReview handles DELETE /listings/:id/reviews/:reviewId
func (h *ReviewHandler) DestroyReview(c *gin.Context) {
	listingID := c.Param("id")
	if err := h.reviewSvc.DestroyReview(c.Request.Context(), listingID, c.Param("reviewId")); err != nil {
		respondError(c, "DestroyReview", err, "/listings/"+listingID, "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Review Deleted!", "redirect": "/listings/" + listingID})
}
