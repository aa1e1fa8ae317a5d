package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/gabrielmatsan/brev-ly/internal/domain"
	"github.com/gabrielmatsan/brev-ly/internal/logger"
	"github.com/gabrielmatsan/brev-ly/pkg/response"
	"github.com/gabrielmatsan/brev-ly/pkg/validator"
)

type LinkService interface {
	Create(ctx context.Context, req *domain.CreateLinkRequest) (*domain.Link, error)
	Resolve(ctx context.Context, shortURL string) (string, error)
	List(ctx context.Context, page, limit int) (*domain.LinkPage, error)
	Delete(ctx context.Context, id string) error
	ExportAll(ctx context.Context) (string, error)
}

type LinkHandler struct {
	service LinkService
}

func NewLinkHandler(service LinkService) *LinkHandler {
	return &LinkHandler{service: service}
}

// Shorten handles POST /link/shorten.
func (h *LinkHandler) Shorten(c *gin.Context) {
	var req domain.CreateLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}

	if errs := validator.Validate(&req); len(errs) > 0 {
		response.ValidationErrors(c, errs)
		return
	}

	link, err := h.service.Create(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, domain.ErrShortURLExists) {
			response.BadRequest(c, "Short URL already exists")
			return
		}

		logger.FromContext(c.Request.Context()).Error("Failed to create link", "error", err)
		response.InternalServerError(c)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"id":          link.ID,
		"originalUrl": link.OriginalURL,
		"shortUrl":    link.ShortURL,
		"visits":      link.Visits,
		"createdAt":   link.CreatedAt,
	})
}

// List handles GET /link.
func (h *LinkHandler) List(c *gin.Context) {
	page := queryInt(c, "page", 1)
	limit := queryInt(c, "limit", 10)

	result, err := h.service.List(c.Request.Context(), page, limit)
	if err != nil {
		logger.FromContext(c.Request.Context()).Error("Failed to list links", "error", err)
		response.InternalServerError(c)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":    "Links fetched successfully",
		"links":      result.Links,
		"pagination": result.Pagination,
	})
}

// Export handles POST /link/export.
func (h *LinkHandler) Export(c *gin.Context) {
	url, err := h.service.ExportAll(c.Request.Context())
	if err != nil {
		logger.FromContext(c.Request.Context()).Error("Failed to export links", "error", err)
		response.InternalServerError(c)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Exported successfully",
		"url":     url,
	})
}

// Resolve handles PATCH /link/shortUrl/:url. It is conceptually a fetch,
// but it also counts the visit, hence the non-GET verb.
func (h *LinkHandler) Resolve(c *gin.Context) {
	shortURL := c.Param("url")

	originalURL, err := h.service.Resolve(c.Request.Context(), shortURL)
	if err != nil {
		if errors.Is(err, domain.ErrLinkNotFound) {
			response.NotFound(c, "Link not found")
			return
		}

		logger.FromContext(c.Request.Context()).Error("Failed to resolve link", "error", err)
		response.InternalServerError(c)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":     "Original URL fetched successfully",
		"originalUrl": originalURL,
	})
}

// Delete handles DELETE /link/shortUrl/:urlId.
func (h *LinkHandler) Delete(c *gin.Context) {
	id := c.Param("urlId")

	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, domain.ErrLinkNotFound) {
			response.NotFound(c, "Link not found")
			return
		}

		logger.FromContext(c.Request.Context()).Error("Failed to delete link", "error", err)
		response.InternalServerError(c)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Link deleted successfully",
	})
}

func queryInt(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}

	value, err := strconv.Atoi(raw)
	if err != nil || value < 1 {
		return fallback
	}

	return value
}
