package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"wanderlust/internal/middleware"
	"wanderlust/internal/repository"
	"wanderlust/internal/service"
)

// NewRouter wires every route of the app onto a fresh gin engine.
func NewRouter(store *repository.Store, geocoder service.Geocoder, jwtSecret string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	auth := middleware.JWTAuthMiddleware(jwtSecret)
	root := r.Group("/")

	listings := &ListingHandler{Svc: service.NewListingService(store, geocoder)}
	listings.RegisterRoutes(root, auth, middleware.RequireListingOwner(store.Listings))

	reviews := NewReviewHandler(service.NewReviewService(store))
	reviews.RegisterRoutes(root, auth, middleware.RequireReviewAuthor(store.Reviews))

	images := &ImageHandler{Repo: store.Images}
	images.RegisterRoutes(root)

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Page Not Found!"})
	})
	return r
}
