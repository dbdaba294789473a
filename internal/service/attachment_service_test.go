package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

type attachmentFixture struct {
	*ticketFixture
	svc    *AttachmentService
	ticket *domain.Ticket
}

func newAttachmentFixture(t *testing.T, maxAttachments int) *attachmentFixture {
	t.Helper()
	base := newTicketFixture(t, func(n int) int { return 0 })
	svc := NewAttachmentService(AttachmentDependencies{
		TicketRepo:     base.tickets,
		AttachmentRepo: base.attachments,
		UserRepo:       base.users,
		BlobStore:      base.blobs,
		Config: config.StorageConfig{
			MaxAttachments:       maxAttachments,
			OperationTimeoutSecs: 5,
		},
	})
	return &attachmentFixture{
		ticketFixture: base,
		svc:           svc,
		ticket:        base.createTicket(t, base.user1),
	}
}

func TestUploadStoresBlobAndMetadata(t *testing.T) {
	f := newAttachmentFixture(t, 20)
	ctx := context.Background()

	data := []byte("fake pdf bytes")
	result, err := f.svc.Upload(ctx, f.user1, f.ticket.ID, "report.pdf", data)
	require.NoError(t, err)
	require.True(t, result.Created)
	require.Equal(t, "report.pdf", result.Attachment.FileName)
	require.Equal(t, int64(len(data)), result.Attachment.SizeBytes)

	sum := sha256.Sum256(data)
	hash := hex.EncodeToString(sum[:])
	require.Equal(t, hash, result.Attachment.ContentHash)
	require.Equal(t, fmt.Sprintf("t%s_%s.pdf", f.ticket.ID, hash), result.Attachment.StorageKey)

	stored, err := f.blobs.Get(ctx, result.Attachment.StorageKey)
	require.NoError(t, err)
	require.Equal(t, data, stored)
}

func TestUploadRejectsUnknownExtension(t *testing.T) {
	f := newAttachmentFixture(t, 20)

	for _, name := range []string{"payload.exe", "script.sh", "noextension", "archive.tar.gz"} {
		_, err := f.svc.Upload(context.Background(), f.user1, f.ticket.ID, name, []byte("data"))
		require.True(t, apperrors.IsCode(err, "INVALID_INPUT"), "file %s", name)
	}
}

func TestUploadRejectsEmptyFile(t *testing.T) {
	f := newAttachmentFixture(t, 20)

	_, err := f.svc.Upload(context.Background(), f.user1, f.ticket.ID, "empty.png", nil)
	require.True(t, apperrors.IsCode(err, "INVALID_INPUT"))
}

func TestUploadDuplicateContentIsSoftSuccess(t *testing.T) {
	f := newAttachmentFixture(t, 20)
	ctx := context.Background()

	data := []byte("same bytes twice")
	first, err := f.svc.Upload(ctx, f.user1, f.ticket.ID, "one.png", data)
	require.NoError(t, err)
	require.True(t, first.Created)

	// same content under a different name dedupes to the existing record
	second, err := f.svc.Upload(ctx, f.user1, f.ticket.ID, "two.png", data)
	require.NoError(t, err)
	require.False(t, second.Created)
	require.Equal(t, first.Attachment.ID, second.Attachment.ID)

	count, err := f.attachments.CountByTicket(ctx, f.ticket.ID)
	require.NoError(t, err)
	require.Equal(t, 1, count)
}

func TestUploadEnforcesPerTicketCap(t *testing.T) {
	f := newAttachmentFixture(t, 2)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := f.svc.Upload(ctx, f.user1, f.ticket.ID, fmt.Sprintf("file%d.png", i), []byte(fmt.Sprintf("content %d", i)))
		require.NoError(t, err)
	}

	_, err := f.svc.Upload(ctx, f.user1, f.ticket.ID, "overflow.png", []byte("one too many"))
	require.True(t, apperrors.IsCode(err, "INVALID_INPUT"))

	// a duplicate of existing content still succeeds at the cap
	dup, err := f.svc.Upload(ctx, f.user1, f.ticket.ID, "again.png", []byte("content 0"))
	require.NoError(t, err)
	require.False(t, dup.Created)
}

func TestUploadRequiresEditAccess(t *testing.T) {
	f := newAttachmentFixture(t, 20)

	_, err := f.svc.Upload(context.Background(), f.user2, f.ticket.ID, "sneaky.png", []byte("data"))
	require.True(t, apperrors.IsCode(err, "FORBIDDEN"))
}

func TestDownloadRoundTrip(t *testing.T) {
	f := newAttachmentFixture(t, 20)
	ctx := context.Background()

	data := []byte("downloadable")
	result, err := f.svc.Upload(ctx, f.user1, f.ticket.ID, "doc.docx", data)
	require.NoError(t, err)

	attachment, got, err := f.svc.Download(ctx, f.agent1, f.ticket.ID, result.Attachment.ID)
	require.NoError(t, err)
	require.Equal(t, result.Attachment.ID, attachment.ID)
	require.Equal(t, data, got)

	_, _, err = f.svc.Download(ctx, f.agent1, f.ticket.ID, "missing")
	require.True(t, apperrors.IsCode(err, "NOT_FOUND"))
}

func TestDeleteAttachmentRemovesBlob(t *testing.T) {
	f := newAttachmentFixture(t, 20)
	ctx := context.Background()

	result, err := f.svc.Upload(ctx, f.user1, f.ticket.ID, "gone.png", []byte("soon gone"))
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(ctx, f.user1, f.ticket.ID, result.Attachment.ID))

	list, err := f.svc.List(ctx, f.user1, f.ticket.ID)
	require.NoError(t, err)
	require.Empty(t, list)
	_, err = f.blobs.Get(ctx, result.Attachment.StorageKey)
	require.Error(t, err)
}
