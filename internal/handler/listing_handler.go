package handler

import (
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"wanderlust/internal/middleware"
	"wanderlust/internal/model"
	"wanderlust/internal/service"
)

// ListingHandler serves the listing pages' data.
type ListingHandler struct {
	Svc *service.ListingService
}

// RegisterRoutes registers the listing routes. auth authenticates the
// caller, owner checks that the caller owns :id.
func (h *ListingHandler) RegisterRoutes(rg *gin.RouterGroup, auth, owner gin.HandlerFunc) {
	rg.GET("/listings", h.Index)
	rg.GET("/listings/:id", h.Show)

	protected := rg.Group("/", auth)
	{
		protected.POST("/listings", h.Create)
		protected.GET("/listings/:id/edit", owner, h.EditForm)
		protected.PUT("/listings/:id", owner, h.Update)
		protected.DELETE("/listings/:id", owner, h.Delete)
	}
}

// listingForm is bound from JSON or from a (multipart) form. Omitted
// fields stay nil.
type listingForm struct {
	Title       *string  `form:"title" json:"title"`
	Description *string  `form:"description" json:"description"`
	Price       *float64 `form:"price" json:"price"`
	Location    *string  `form:"location" json:"location"`
	Country     *string  `form:"country" json:"country"`
}

func (f listingForm) input() model.ListingInput {
	return model.ListingInput{
		Title:       f.Title,
		Description: f.Description,
		Price:       f.Price,
		Location:    f.Location,
		Country:     f.Country,
	}
}

// GET /listings
func (h *ListingHandler) Index(c *gin.Context) {
	list, err := h.Svc.List(c.Request.Context())
	if err != nil {
		respondError(c, "Index", err, "/listings", "")
		return
	}
	c.JSON(http.StatusOK, list)
}

// GET /listings/:id
func (h *ListingHandler) Show(c *gin.Context) {
	detail, err := h.Svc.Show(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, "Show", err, "/listings", "")
		return
	}
	c.JSON(http.StatusOK, detail)
}

// POST /listings
func (h *ListingHandler) Create(c *gin.Context) {
	var form listingForm
	if err := c.ShouldBind(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload", "redirect": "/listings/new"})
		return
	}
	upload, file, err := formImage(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid image", "redirect": "/listings/new"})
		return
	}
	if file != nil {
		defer file.Close()
	}

	l, err := h.Svc.Create(c.Request.Context(), middleware.UserID(c), form.input(), upload)
	if err != nil {
		respondError(c, "CreateListing", err, "/listings/new", "Invalid location. Please enter a valid place.")
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message":  "New Listing Created!",
		"redirect": "/listings/" + l.ID,
		"listing":  l,
	})
}

// GET /listings/:id/edit
func (h *ListingHandler) EditForm(c *gin.Context) {
	form, err := h.Svc.EditForm(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, "EditForm", err, "/listings", "")
		return
	}
	c.JSON(http.StatusOK, form)
}

// PUT /listings/:id
func (h *ListingHandler) Update(c *gin.Context) {
	id := c.Param("id")
	editPath := "/listings/" + id + "/edit"

	var form listingForm
	if err := c.ShouldBind(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload", "redirect": editPath})
		return
	}
	upload, file, err := formImage(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid image", "redirect": editPath})
		return
	}
	if file != nil {
		defer file.Close()
	}

	l, err := h.Svc.Update(c.Request.Context(), id, form.input(), upload)
	if err != nil {
		respondError(c, "UpdateListing", err, editPath, "Invalid location update.")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":  "Listing Updated!",
		"redirect": "/listings/" + id,
		"listing":  l,
	})
}

// DELETE /listings/:id
func (h *ListingHandler) Delete(c *gin.Context) {
	if err := h.Svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, "DeleteListing", err, "/listings", "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Listing Deleted!", "redirect": "/listings"})
}

// formImage opens the optional "image" file of a multipart request. The
// caller closes the returned file.
func formImage(c *gin.Context) (*service.ImageUpload, multipart.File, error) {
	fileHeader, err := c.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}

	file, err := fileHeader.Open()
	if err != nil {
		return nil, nil, err
	}
	return &service.ImageUpload{Filename: fileHeader.Filename, Content: file}, file, nil
}
