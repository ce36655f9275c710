package uploads

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"invoice-backend/internal/chats"
	"invoice-backend/internal/classify"
	"invoice-backend/internal/extract"
	"invoice-backend/internal/shared/server/middleware"
	"invoice-backend/internal/shared/server/respond"
	"invoice-backend/internal/shared/telemetry"
	"invoice-backend/internal/shared/util"
)

// pdfThumbnailURL is the static placeholder returned for PDF uploads; images
// are returned inline as data URLs.
const pdfThumbnailURL = "/static/pdf-thumbnail.png"

// Handler accepts document uploads, runs extraction, and hands the caller
// back the text to attach to a chat message. Files are not persisted.
type Handler struct {
	Pipeline          *extract.Pipeline
	RejectionKeywords []string

	// now is stubbed in tests; the upload timestamp lands in the pathname.
	now func() time.Time
}

func NewHandler(pipeline *extract.Pipeline, rejectionKeywords []string) *Handler {
	return &Handler{
		Pipeline:          pipeline,
		RejectionKeywords: rejectionKeywords,
		now:               time.Now,
	}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/files/upload", h.upload)
}

type uploadResponse struct {
	URL           string `json:"url"`
	Pathname      string `json:"pathname"`
	ContentType   string `json:"contentType"`
	ExtractedText string `json:"extractedText"`
}

func (h *Handler) upload(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	if userID == "" {
		respond.Error(c, http.StatusUnauthorized, "unauthorized", "Missing identity", nil)
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "No file uploaded", nil)
		return
	}

	contentType := fileHeader.Header.Get("Content-Type")
	if err := classify.Validate(contentType, fileHeader.Size); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", validationMessage(err), nil)
		return
	}

	name, err := util.SanitizeFileName(fileHeader.Filename)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid file name", nil)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to read upload", nil)
		return
	}
	defer file.Close()

	// Size was validated from the multipart header; re-cap the read anyway.
	data, err := io.ReadAll(io.LimitReader(file, classify.MaxUploadBytes+1))
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to read upload", nil)
		return
	}
	if int64(len(data)) > classify.MaxUploadBytes {
		respond.Error(c, http.StatusBadRequest, "validation_error", validationMessage(classify.ErrFileTooLarge), nil)
		return
	}

	result, err := h.Pipeline.Extract(c.Request.Context(), data, contentType)
	if err != nil {
		telemetry.Error("uploads.extract.failed", map[string]any{
			"content_type": contentType,
			"size_bytes":   len(data),
			"err":          err.Error(),
			"request_id":   c.GetString("requestId"),
		})
		respond.Error(c, http.StatusInternalServerError, "internal_error", "Failed to process file", nil)
		return
	}

	if err := chats.CheckRejected(result.Text, h.RejectionKeywords); err != nil {
		var rejected *chats.RejectedError
		if errors.As(err, &rejected) {
			respond.Error(c, http.StatusBadRequest, "document_rejected", rejected.Error(), nil)
			return
		}
		respond.Error(c, http.StatusBadRequest, "document_rejected", err.Error(), nil)
		return
	}

	telemetry.Info("uploads.extracted", map[string]any{
		"content_type": contentType,
		"source":       string(result.Source),
		"pages":        result.PageCount,
		"text_bytes":   len(result.Text),
	})

	url := pdfThumbnailURL
	if !classify.IsPDF(contentType) {
		url = fmt.Sprintf("data:%s;base64,%s", contentType, base64.StdEncoding.EncodeToString(data))
	}

	respond.JSON(c, http.StatusOK, uploadResponse{
		URL:           url,
		Pathname:      fmt.Sprintf("/uploads/%d-%s", h.now().UnixMilli(), name),
		ContentType:   contentType,
		ExtractedText: result.Text,
	})
}

func validationMessage(err error) string {
	switch {
	case errors.Is(err, classify.ErrFileTooLarge):
		return "File size should be less than 5MB"
	case errors.Is(err, classify.ErrUnsupportedMediaType):
		return "File type should be JPEG, PNG, or PDF"
	default:
		return err.Error()
	}
}
