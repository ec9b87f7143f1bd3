package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"wanderlust/internal/service"
)

const msgListingMissing = "Listing you requested for does not exist!"

// respondError maps a workflow error to a response. formPath is where the
// client should go back to on a bad submission.
func respondError(c *gin.Context, op string, err error, formPath, geocodeMsg string) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": msgListingMissing, "redirect": "/listings"})
	case errors.Is(err, service.ErrGeocodeFailed):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": geocodeMsg, "redirect": formPath})
	case errors.Is(err, service.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "redirect": formPath})
	default:
		log.Printf("[%s] %v", op, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong"})
	}
}
