package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// AttachmentRepository persists attachment metadata. The content hash lives
// here so duplicate detection is a lookup, not a byte-compare against the
// blob store.
type AttachmentRepository interface {
	Create(ctx context.Context, attachment *domain.Attachment) error
	ListByTicket(ctx context.Context, ticketID string) ([]domain.Attachment, error)
	GetByStorageKey(ctx context.Context, ticketID, storageKey string) (*domain.Attachment, error)
	FindByHash(ctx context.Context, ticketID, contentHash string) (*domain.Attachment, error)
	CountByTicket(ctx context.Context, ticketID string) (int, error)
	Delete(ctx context.Context, id string) error
	DeleteByTicket(ctx context.Context, ticketID string) error
}

type attachmentRepository struct {
	pool *pgxpool.Pool
}

// NewAttachmentRepository constructs repository.
func NewAttachmentRepository(pool *pgxpool.Pool) AttachmentRepository {
	return &attachmentRepository{pool: pool}
}

const attachmentColumns = `id, ticket_id, storage_key, file_name, content_hash, size_bytes, created_at`

func (r *attachmentRepository) Create(ctx context.Context, attachment *domain.Attachment) error {
	const query = `
        INSERT INTO attachments (ticket_id, storage_key, file_name, content_hash, size_bytes)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		attachment.TicketID,
		attachment.StorageKey,
		attachment.FileName,
		attachment.ContentHash,
		attachment.SizeBytes,
	).Scan(&attachment.ID, &attachment.CreatedAt)
}

func (r *attachmentRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.Attachment, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+attachmentColumns+` FROM attachments WHERE ticket_id=$1 ORDER BY created_at`, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Attachment
	for rows.Next() {
		var attachment domain.Attachment
		if err := scanAttachment(rows.Scan, &attachment); err != nil {
			return nil, err
		}
		result = append(result, attachment)
	}
	return result, rows.Err()
}

func (r *attachmentRepository) GetByStorageKey(ctx context.Context, ticketID, storageKey string) (*domain.Attachment, error) {
	var attachment domain.Attachment
	row := r.pool.QueryRow(ctx,
		`SELECT `+attachmentColumns+` FROM attachments WHERE ticket_id=$1 AND storage_key=$2`,
		ticketID, storageKey)
	if err := scanAttachment(row.Scan, &attachment); err != nil {
		return nil, err
	}
	return &attachment, nil
}

func (r *attachmentRepository) FindByHash(ctx context.Context, ticketID, contentHash string) (*domain.Attachment, error) {
	var attachment domain.Attachment
	row := r.pool.QueryRow(ctx,
		`SELECT `+attachmentColumns+` FROM attachments WHERE ticket_id=$1 AND content_hash=$2`,
		ticketID, contentHash)
	if err := scanAttachment(row.Scan, &attachment); err != nil {
		return nil, err
	}
	return &attachment, nil
}

func scanAttachment(scan func(...any) error, attachment *domain.Attachment) error {
	return scan(
		&attachment.ID,
		&attachment.TicketID,
		&attachment.StorageKey,
		&attachment.FileName,
		&attachment.ContentHash,
		&attachment.SizeBytes,
		&attachment.CreatedAt,
	)
}

func (r *attachmentRepository) CountByTicket(ctx context.Context, ticketID string) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM attachments WHERE ticket_id=$1`, ticketID).Scan(&count)
	return count, err
}

func (r *attachmentRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM attachments WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *attachmentRepository) DeleteByTicket(ctx context.Context, ticketID string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM attachments WHERE ticket_id=$1`, ticketID)
	return err
}
