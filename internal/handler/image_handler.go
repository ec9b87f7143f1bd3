package handler

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"path"
	"strings"

	"github.com/gin-gonic/gin"

	"wanderlust/internal/repository"
)

// ImageHandler serves stored listing images. Image URLs look like
// /upload/<id> or /upload/<transform>/<id>; transforms are ignored and the
// original bytes are returned.
type ImageHandler struct {
	Repo repository.ImageRepository
}

func (h *ImageHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/upload/*path", h.DownloadImage)
}

func (h *ImageHandler) DownloadImage(c *gin.Context) {
	p := strings.Trim(c.Param("path"), "/")
	if p == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "image not found"})
		return
	}
	id := path.Base(p)

	data, filename, err := h.Repo.Download(c.Request.Context(), id)
	if errors.Is(err, repository.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "image not found"})
		return
	}
	if err != nil {
		log.Printf("[DownloadImage] %s: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "download failed"})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("inline; filename=%q", filename))
	c.Data(http.StatusOK, http.DetectContentType(data), data)
}
