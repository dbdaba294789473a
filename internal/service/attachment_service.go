package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/policy"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	"github.com/spec-kit/helpdesk-service/internal/storage"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

// allowedExtensions is the closed set of file types accepted as attachments.
var allowedExtensions = map[string]struct{}{
	"png":  {},
	"jpg":  {},
	"jpeg": {},
	"gif":  {},
	"pdf":  {},
	"docx": {},
	"xlsx": {},
}

// AttachmentService manages ticket attachments: extension validation,
// content-hash deduplication, the per-ticket cap and blob storage.
type AttachmentService struct {
	tickets     repository.TicketRepository
	attachments repository.AttachmentRepository
	users       repository.UserRepository
	blobs       storage.BlobStore
	cfg         config.StorageConfig
	logger      *zap.Logger
}

// AttachmentDependencies bundles collaborators for the attachment service.
type AttachmentDependencies struct {
	TicketRepo     repository.TicketRepository
	AttachmentRepo repository.AttachmentRepository
	UserRepo       repository.UserRepository
	BlobStore      storage.BlobStore
	Config         config.StorageConfig
	Logger         *zap.Logger
}

// NewAttachmentService constructs the service.
func NewAttachmentService(deps AttachmentDependencies) *AttachmentService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AttachmentService{
		tickets:     deps.TicketRepo,
		attachments: deps.AttachmentRepo,
		users:       deps.UserRepo,
		blobs:       deps.BlobStore,
		cfg:         deps.Config,
		logger:      logger,
	}
}

// UploadResult reports the stored attachment and whether the upload created
// a new blob. Created is false when identical content already existed on the
// ticket; the duplicate is a soft success returning the existing record.
type UploadResult struct {
	Attachment *domain.Attachment
	Created    bool
}

// Upload validates and stores one file on a ticket.
func (s *AttachmentService) Upload(ctx context.Context, actor *domain.User, ticketID, fileName string, data []byte) (*UploadResult, error) {
	ticket, err := s.authorizedTicket(ctx, actor, ticketID, policy.OpEdit)
	if err != nil {
		return nil, err
	}

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(fileName), "."))
	if _, ok := allowedExtensions[ext]; !ok {
		return nil, apperrors.NewInvalidInput("file type not allowed", map[string]any{"extension": ext})
	}
	if len(data) == 0 {
		return nil, apperrors.NewInvalidInput("file is empty", nil)
	}

	sum := sha256.Sum256(data)
	contentHash := hex.EncodeToString(sum[:])

	existing, err := s.attachments.FindByHash(ctx, ticket.ID, contentHash)
	if err == nil {
		return &UploadResult{Attachment: existing, Created: false}, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.MapError(err)
	}

	count, err := s.attachments.CountByTicket(ctx, ticket.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if max := s.cfg.MaxAttachments; max > 0 && count >= max {
		return nil, apperrors.NewInvalidInput("attachment limit reached", map[string]any{"max": max})
	}

	storageKey := fmt.Sprintf("t%s_%s.%s", ticket.ID, contentHash, ext)

	storeCtx, cancel := context.WithTimeout(ctx, s.cfg.OperationTimeout())
	defer cancel()
	if err := s.blobs.Put(storeCtx, storageKey, data); err != nil {
		return nil, apperrors.NewUnavailable("attachment store unavailable", err)
	}

	attachment := &domain.Attachment{
		TicketID:    ticket.ID,
		StorageKey:  storageKey,
		FileName:    filepath.Base(fileName),
		ContentHash: contentHash,
		SizeBytes:   int64(len(data)),
	}
	if err := s.attachments.Create(ctx, attachment); err != nil {
		// metadata failed to persist; drop the orphan blob
		if delErr := s.blobs.Delete(storeCtx, storageKey); delErr != nil && !errors.Is(delErr, storage.ErrNotFound) {
			s.logger.Warn("orphaned attachment blob",
				zap.String("storage_key", storageKey),
				zap.Error(delErr))
		}
		return nil, apperrors.MapError(err)
	}
	return &UploadResult{Attachment: attachment, Created: true}, nil
}

// List returns the ticket's attachment records.
func (s *AttachmentService) List(ctx context.Context, actor *domain.User, ticketID string) ([]domain.Attachment, error) {
	ticket, err := s.authorizedTicket(ctx, actor, ticketID, policy.OpView)
	if err != nil {
		return nil, err
	}
	attachments, err := s.attachments.ListByTicket(ctx, ticket.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return attachments, nil
}

// Download fetches an attachment's bytes along with its metadata.
func (s *AttachmentService) Download(ctx context.Context, actor *domain.User, ticketID, attachmentID string) (*domain.Attachment, []byte, error) {
	attachment, err := s.authorizedAttachment(ctx, actor, ticketID, attachmentID, policy.OpView)
	if err != nil {
		return nil, nil, err
	}

	storeCtx, cancel := context.WithTimeout(ctx, s.cfg.OperationTimeout())
	defer cancel()
	data, err := s.blobs.Get(storeCtx, attachment.StorageKey)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil, apperrors.NewNotFound("attachment content", map[string]any{"attachment_id": attachmentID})
		}
		return nil, nil, apperrors.NewUnavailable("attachment store unavailable", err)
	}
	return attachment, data, nil
}

// Delete removes an attachment record; the blob removal is best-effort.
func (s *AttachmentService) Delete(ctx context.Context, actor *domain.User, ticketID, attachmentID string) error {
	attachment, err := s.authorizedAttachment(ctx, actor, ticketID, attachmentID, policy.OpEdit)
	if err != nil {
		return err
	}

	if err := s.attachments.Delete(ctx, attachment.ID); err != nil {
		return apperrors.MapError(err)
	}

	storeCtx, cancel := context.WithTimeout(ctx, s.cfg.OperationTimeout())
	defer cancel()
	if err := s.blobs.Delete(storeCtx, attachment.StorageKey); err != nil && !errors.Is(err, storage.ErrNotFound) {
		s.logger.Warn("orphaned attachment blob",
			zap.String("storage_key", attachment.StorageKey),
			zap.Error(err))
	}
	return nil
}

// PublicURL returns a browsable URL for the attachment when the backend
// exposes one.
func (s *AttachmentService) PublicURL(attachment *domain.Attachment) (string, bool) {
	if attachment == nil {
		return "", false
	}
	return s.blobs.PublicURL(attachment.StorageKey)
}

func (s *AttachmentService) authorizedAttachment(ctx context.Context, actor *domain.User, ticketID, attachmentID string, op policy.Operation) (*domain.Attachment, error) {
	ticket, err := s.authorizedTicket(ctx, actor, ticketID, op)
	if err != nil {
		return nil, err
	}

	attachments, err := s.attachments.ListByTicket(ctx, ticket.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	for i := range attachments {
		if attachments[i].ID == attachmentID {
			return &attachments[i], nil
		}
	}
	return nil, apperrors.NewNotFound("attachment", map[string]any{"attachment_id": attachmentID})
}

func (s *AttachmentService) authorizedTicket(ctx context.Context, actor *domain.User, ticketID string, op policy.Operation) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.MapError(err)
	}

	var actorDepts []string
	if actor != nil && actor.Role == domain.RoleAgent {
		actorDepts, err = s.users.DepartmentsOf(ctx, actor.ID)
		if err != nil {
			return nil, apperrors.MapError(err)
		}
	}
	if decision := policy.CanPerform(actor, actorDepts, ticket, op); !decision.Allowed {
		return nil, apperrors.NewForbidden(decision.Reason)
	}
	return ticket, nil
}
