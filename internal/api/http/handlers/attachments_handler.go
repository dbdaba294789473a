package handlers

import (
	"io"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/api/dto"
	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/service"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

// AttachmentsHandler exposes ticket attachment endpoints.
type AttachmentsHandler struct {
	service *service.AttachmentService
}

// NewAttachmentsHandler constructs handler.
func NewAttachmentsHandler(attachmentService *service.AttachmentService) *AttachmentsHandler {
	return &AttachmentsHandler{service: attachmentService}
}

// Upload handles POST /api/tickets/:id/attachments (multipart form, "file"
// field). Duplicate content on the same ticket is a soft success returning
// the existing record.
func (h *AttachmentsHandler) Upload(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return apperrors.NewInvalidInput("file field required", nil)
	}
	file, err := fileHeader.Open()
	if err != nil {
		return apperrors.NewInvalidInput("unreadable file", nil)
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		return apperrors.NewInvalidInput("unreadable file", nil)
	}

	result, err := h.service.Upload(c.UserContext(), principal, c.Params("id"), fileHeader.Filename, data)
	if err != nil {
		return err
	}

	status := http.StatusCreated
	if !result.Created {
		status = http.StatusOK
	}
	return c.Status(status).JSON(fiber.Map{"data": dto.UploadAttachmentResponse{
		Attachment: h.attachmentResponse(result.Attachment),
		Duplicate:  !result.Created,
	}})
}

// List handles GET /api/tickets/:id/attachments.
func (h *AttachmentsHandler) List(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	attachments, err := h.service.List(c.UserContext(), principal, c.Params("id"))
	if err != nil {
		return err
	}
	items := make([]dto.AttachmentResponse, 0, len(attachments))
	for i := range attachments {
		items = append(items, h.attachmentResponse(&attachments[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Download handles GET /api/tickets/:id/attachments/:attachmentId.
func (h *AttachmentsHandler) Download(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	attachment, data, err := h.service.Download(c.UserContext(), principal, c.Params("id"), c.Params("attachmentId"))
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+attachment.FileName+`"`)
	c.Set(fiber.HeaderContentType, fiber.MIMEOctetStream)
	return c.Send(data)
}

// Delete handles DELETE /api/tickets/:id/attachments/:attachmentId.
func (h *AttachmentsHandler) Delete(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	if err := h.service.Delete(c.UserContext(), principal, c.Params("id"), c.Params("attachmentId")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

func (h *AttachmentsHandler) attachmentResponse(attachment *domain.Attachment) dto.AttachmentResponse {
	resp := dto.AttachmentResponse{
		ID:          attachment.ID,
		TicketID:    attachment.TicketID,
		FileName:    attachment.FileName,
		ContentHash: attachment.ContentHash,
		SizeBytes:   attachment.SizeBytes,
		CreatedAt:   attachment.CreatedAt,
	}
	if url, ok := h.service.PublicURL(attachment); ok {
		resp.URL = url
	}
	return resp
}
