package http

import (
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/tidebook/booking-backend/internal/auth"
	"github.com/tidebook/booking-backend/internal/media"
	"github.com/tidebook/booking-backend/internal/pkg/request"
	"github.com/tidebook/booking-backend/internal/pkg/response"
)

const maxUploadBytes = 10 << 20 // 10 MiB

type Handler struct {
	service media.Service
}

func NewHandler(service media.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) Upload(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing file field"})
		return
	}
	if header.Size > maxUploadBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file too large"})
		return
	}

	m, err := h.service.Upload(c.Request.Context(), auth.GetTenantID(c), auth.GetUserID(c), header)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, NewMediaResponse(m))
}

func (h *Handler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	items, total, err := h.service.List(c.Request.Context(), auth.GetTenantID(c), page, pageSize)
	if err != nil {
		response.Error(c, err)
		return
	}

	resp := make([]MediaResponse, len(items))
	for i, m := range items {
		resp[i] = NewMediaResponse(m)
	}
	c.JSON(http.StatusOK, response.NewPageResponse(resp, page, pageSize, total))
}

func (h *Handler) Get(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid media id"})
		return
	}

	m, err := h.service.Get(c.Request.Context(), auth.GetTenantID(c), uri.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, NewMediaResponse(m))
}

func (h *Handler) Download(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid media id"})
		return
	}

	rc, m, err := h.service.Download(c.Request.Context(), auth.GetTenantID(c), uri.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer rc.Close()

	c.Header("Content-Disposition", `inline; filename="`+m.Filename+`"`)
	c.DataFromReader(http.StatusOK, m.Size, m.ContentType, rc, nil)
}

func (h *Handler) DownloadThumbnail(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid media id"})
		return
	}

	rc, _, err := h.service.DownloadThumbnail(c.Request.Context(), auth.GetTenantID(c), uri.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer rc.Close()

	// Thumbnail size is unknown without a stat; stream it instead.
	c.Status(http.StatusOK)
	c.Header("Content-Type", "image/jpeg")
	_, _ = io.Copy(c.Writer, rc)
}

func (h *Handler) Delete(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid media id"})
		return
	}

	if err := h.service.Delete(c.Request.Context(), auth.GetTenantID(c), uri.ID); err != nil {
		response.Error(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
