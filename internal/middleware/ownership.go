package middleware

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"wanderlust/internal/repository"
)

// RequireListingOwner lets the request through only when the current user
// owns the listing named by the :id parameter.
func RequireListingOwner(listings repository.ListingRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		l, err := listings.FindByID(c.Request.Context(), id)
		if errors.Is(err, repository.ErrNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{
				"error":    "Listing you requested for does not exist!",
				"redirect": "/listings",
			})
			return
		}
		if err != nil {
			log.Printf("[RequireListingOwner] %s: %v", id, err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong"})
			return
		}
		if l.Owner != UserID(c) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error":    "You are not the owner of this listing",
				"redirect": "/listings/" + id,
			})
			return
		}
		c.Next()
	}
}

// RequireReviewAuthor lets the request through only when the current user
// wrote the review named by the :reviewId parameter.
func RequireReviewAuthor(reviews repository.ReviewRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		r, err := reviews.FindByID(c.Request.Context(), c.Param("reviewId"))
		if errors.Is(err, repository.ErrNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{
				"error":    "Review does not exist!",
				"redirect": "/listings/" + c.Param("id"),
			})
			return
		}
		if err != nil {
			log.Printf("[RequireReviewAuthor] %s: %v", c.Param("reviewId"), err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong"})
			return
		}
		if r.Author != UserID(c) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error":    "You are not the author of this review",
				"redirect": "/listings/" + c.Param("id"),
			})
			return
		}
		c.Next()
	}
}
