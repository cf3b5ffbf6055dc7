package student

import (
	"io"

	"github.com/gofiber/fiber/v2"

	"github.com/cliniclog/logbook-api/model"
	"github.com/cliniclog/logbook-api/services"
	"github.com/cliniclog/logbook-api/services/storage"
	"github.com/cliniclog/logbook-api/utils/middleware"
	"github.com/cliniclog/logbook-api/utils/pdfvalidation"
	"github.com/cliniclog/logbook-api/utils/response"
)

// AttachmentHandler handles signed attestation PDF uploads
type AttachmentHandler struct {
	logs    *services.LogEntryService
	objects *storage.ObjectStore
}

// NewAttachmentHandler creates a new attachment handler. objects may be nil
// when object storage is not configured.
func NewAttachmentHandler(logs *services.LogEntryService, objects *storage.ObjectStore) *AttachmentHandler {
	return &AttachmentHandler{
		logs:    logs,
		objects: objects,
	}
}

// UploadAttestation validates and stores a signed attestation PDF
func (h *AttachmentHandler) UploadAttestation(c *fiber.Ctx) error {
	profile, ok := middleware.CurrentProfile(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}
	if h.objects == nil {
		return response.Error(c, fiber.StatusServiceUnavailable, "File uploads are not available", "storage_unavailable")
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return response.BadRequest(c, "A PDF file is required")
	}

	result, err := pdfvalidation.ValidatePDFFile(fileHeader, pdfvalidation.AttestationLimits)
	if err != nil {
		return response.InternalServerError(c, "Failed to read uploaded file")
	}
	if !result.Valid {
		return response.ValidationError(c, result.Error)
	}

	file, err := fileHeader.Open()
	if err != nil {
		return response.InternalServerError(c, "Failed to read uploaded file")
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return response.InternalServerError(c, "Failed to read uploaded file")
	}

	key := storage.AttestationKey(profile.ID.String(), fileHeader.Filename)
	if err := h.objects.Upload(c.Context(), key, content, "application/pdf"); err != nil {
		return response.InternalServerError(c, "Failed to store file")
	}

	attachment := &model.LogAttachment{
		StudentID:   profile.ID,
		FileName:    fileHeader.Filename,
		ObjectKey:   key,
		SizeBytes:   result.FileSize,
		PageCount:   result.PageCount,
		ContentType: "application/pdf",
	}
	if err := h.logs.RecordAttestation(c.Context(), profile, attachment); err != nil {
		return response.FromError(c, err)
	}

	return response.Created(c, "Attestation uploaded", attachment)
}
