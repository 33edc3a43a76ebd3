package gatedcontent_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/previewpro/gated-content/pkg/gatedcontent"
	"github.com/previewpro/gated-content/pkg/gatedcontent/repo/memory"
	memorystorage "github.com/previewpro/gated-content/pkg/gatedcontent/storage/memory"
)

const testPublicBase = "https://view.example.com"

func setupTestService(t *testing.T) gatedcontent.Service {
	svc, err := gatedcontent.New(
		gatedcontent.WithRepository(memory.New()),
		gatedcontent.WithBlobStore("memory", memorystorage.New()),
		gatedcontent.WithEventSink(gatedcontent.NewNoopEventSink()),
		gatedcontent.WithPublicBaseURL(testPublicBase),
	)
	require.NoError(t, err)
	require.NotNil(t, svc)
	return svc
}

func startSession(t *testing.T, svc gatedcontent.Service, ownerID uuid.UUID, body string) *gatedcontent.UploadSession {
	session, err := svc.StartSession(context.Background(), gatedcontent.StartSessionRequest{
		OwnerID:  ownerID,
		FileName: "beach-day.mp4",
		MimeType: "video/mp4",
		Size:     int64(len(body)),
	})
	require.NoError(t, err)
	return session
}

func TestServiceCreation(t *testing.T) {
	tests := []struct {
		name        string
		options     []gatedcontent.Option
		expectError bool
	}{
		{
			name:        "no options should fail",
			options:     []gatedcontent.Option{},
			expectError: true,
		},
		{
			name: "repository without blob store should fail",
			options: []gatedcontent.Option{
				gatedcontent.WithRepository(memory.New()),
			},
			expectError: true,
		},
		{
			name: "repository and blob store should succeed",
			options: []gatedcontent.Option{
				gatedcontent.WithRepository(memory.New()),
				gatedcontent.WithBlobStore("memory", memorystorage.New()),
			},
			expectError: false,
		},
		{
			name: "multiple blob stores without default should fail",
			options: []gatedcontent.Option{
				gatedcontent.WithRepository(memory.New()),
				gatedcontent.WithBlobStore("a", memorystorage.New()),
				gatedcontent.WithBlobStore("b", memorystorage.New()),
			},
			expectError: true,
		},
		{
			name: "multiple blob stores with default should succeed",
			options: []gatedcontent.Option{
				gatedcontent.WithRepository(memory.New()),
				gatedcontent.WithBlobStore("a", memorystorage.New()),
				gatedcontent.WithBlobStore("b", memorystorage.New()),
				gatedcontent.WithDefaultBackend("b"),
			},
			expectError: false,
		},
		{
			name: "default naming an unregistered backend should fail",
			options: []gatedcontent.Option{
				gatedcontent.WithRepository(memory.New()),
				gatedcontent.WithBlobStore("memory", memorystorage.New()),
				gatedcontent.WithDefaultBackend("s3"),
			},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := gatedcontent.New(tt.options...)

			if tt.expectError {
				assert.Error(t, err)
				assert.Nil(t, svc)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, svc)
			}
		})
	}
}

func TestStartSessionValidation(t *testing.T) {
	svc := setupTestService(t)
	ctx := context.Background()
	ownerID := uuid.New()

	t.Run("missing owner", func(t *testing.T) {
		_, err := svc.StartSession(ctx, gatedcontent.StartSessionRequest{
			FileName: "clip.mp4",
			MimeType: "video/mp4",
			Size:     100,
		})
		assert.Error(t, err)
	})

	t.Run("empty binary", func(t *testing.T) {
		_, err := svc.StartSession(ctx, gatedcontent.StartSessionRequest{
			OwnerID:  ownerID,
			FileName: "clip.mp4",
			MimeType: "video/mp4",
			Size:     0,
		})
		assert.ErrorIs(t, err, gatedcontent.ErrEmptyUpload)
	})

	t.Run("non-video binary", func(t *testing.T) {
		_, err := svc.StartSession(ctx, gatedcontent.StartSessionRequest{
			OwnerID:  ownerID,
			FileName: "photo.png",
			MimeType: "image/png",
			Size:     100,
		})
		assert.ErrorIs(t, err, gatedcontent.ErrNotVideo)
	})

	t.Run("unknown storage backend", func(t *testing.T) {
		_, err := svc.StartSession(ctx, gatedcontent.StartSessionRequest{
			OwnerID:            ownerID,
			FileName:           "clip.mp4",
			MimeType:           "video/mp4",
			Size:               100,
			StorageBackendName: "glacier",
		})
		assert.ErrorIs(t, err, gatedcontent.ErrStorageBackendNotFound)
	})

	t.Run("valid request", func(t *testing.T) {
		session, err := svc.StartSession(ctx, gatedcontent.StartSessionRequest{
			OwnerID:  ownerID,
			FileName: "clip.mp4",
			MimeType: "video/mp4",
			Size:     100,
		})
		require.NoError(t, err)
		assert.Equal(t, gatedcontent.SessionStateSelecting, session.State())
		assert.Equal(t, ownerID, session.OwnerID)
	})
}

func TestUploadAndPublishHappyPath(t *testing.T) {
	svc := setupTestService(t)
	ctx := context.Background()
	ownerID := uuid.New()
	body := strings.Repeat("v", 4096)

	session := startSession(t, svc, ownerID, body)

	require.NoError(t, svc.Upload(ctx, session.ID, strings.NewReader(body)))
	assert.Equal(t, gatedcontent.SessionStateEditing, session.State())
	assert.NotEmpty(t, session.ObjectKey())

	// Default title is derived from the file name once the upload lands.
	draft := session.DraftSnapshot()
	assert.Equal(t, "beach-day", draft.Title)
	assert.Equal(t, gatedcontent.DefaultBlurLevel, draft.BlurLevel)
	assert.Equal(t, gatedcontent.DefaultCTAText, draft.CTAText)

	progress, err := svc.Progress(session.ID)
	require.NoError(t, err)
	assert.Equal(t, 1.0, progress.Fraction)
	assert.Equal(t, int64(len(body)), progress.BytesTransferred)

	title := "Sunset surfing"
	blur := 25
	price := "4.99"
	require.NoError(t, svc.UpdateDraft(session.ID, gatedcontent.UpdateDraftRequest{
		Title:     &title,
		BlurLevel: &blur,
		Price:     &price,
	}))

	item, err := svc.Publish(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, "Sunset surfing", item.Title)
	assert.Equal(t, 25, item.BlurLevel)
	assert.Equal(t, "4.99", item.Price)
	assert.Equal(t, ownerID, item.OwnerID)
	assert.Equal(t, "video/mp4", item.MimeType)

	// The session is gone once publishing succeeded.
	_, err = svc.GetSession(session.ID)
	assert.ErrorIs(t, err, gatedcontent.ErrSessionNotFound)

	// Anonymous resolution returns the projection without owner identity.
	projection, err := svc.Resolve(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, item.ID, projection.ID)
	assert.Equal(t, "Sunset surfing", projection.Title)
	assert.Equal(t, 25, projection.BlurLevel)
	assert.NotEmpty(t, projection.VideoURL)

	link := svc.PublicLink(item.ID)
	assert.Equal(t, testPublicBase+"/?video="+item.ID.String(), link)
}

func TestPublishClampsBlurLevel(t *testing.T) {
	svc := setupTestService(t)
	ctx := context.Background()
	body := "some video bytes"

	session := startSession(t, svc, uuid.New(), body)
	require.NoError(t, svc.Upload(ctx, session.ID, strings.NewReader(body)))

	blur := 55
	require.NoError(t, svc.UpdateDraft(session.ID, gatedcontent.UpdateDraftRequest{BlurLevel: &blur}))

	item, err := svc.Publish(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, gatedcontent.MaxBlurLevel, item.BlurLevel)
}

func TestPublishAppliesDefaults(t *testing.T) {
	svc := setupTestService(t)
	ctx := context.Background()
	body := "some video bytes"

	session := startSession(t, svc, uuid.New(), body)
	require.NoError(t, svc.Upload(ctx, session.ID, strings.NewReader(body)))

	// Blank out the derived title; publish must fall back to the default.
	empty := ""
	require.NoError(t, svc.UpdateDraft(session.ID, gatedcontent.UpdateDraftRequest{
		Title:   &empty,
		CTAText: &empty,
	}))

	item, err := svc.Publish(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, gatedcontent.DefaultTitle, item.Title)
	assert.Equal(t, gatedcontent.DefaultCTAText, item.CTAText)
}

// chunkedReader hands out fixed-size chunks and invokes onChunk after each,
// giving tests a hook at upload chunk boundaries.
type chunkedReader struct {
	data      []byte
	pos       int
	chunkSize int
	onChunk   func(delivered int)
}

func (r *chunkedReader) Read(p []byte) (int, error) {
	if r.pos >= len(r.data) {
		return 0, io.EOF
	}
	n := r.chunkSize
	if n > len(p) {
		n = len(p)
	}
	if r.pos+n > len(r.data) {
		n = len(r.data) - r.pos
	}
	copy(p, r.data[r.pos:r.pos+n])
	r.pos += n
	if r.onChunk != nil {
		r.onChunk(r.pos)
	}
	return n, nil
}

func TestCancelMidUpload(t *testing.T) {
	svc := setupTestService(t)
	ctx := context.Background()
	body := strings.Repeat("v", 10000)

	session := startSession(t, svc, uuid.New(), body)

	cancelled := false
	reader := &chunkedReader{
		data:      []byte(body),
		chunkSize: 1000,
		onChunk: func(delivered int) {
			if !cancelled && delivered >= 4000 {
				cancelled = true
				require.NoError(t, svc.Cancel(session.ID))
			}
		},
	}

	err := svc.Upload(ctx, session.ID, reader)
	require.Error(t, err)
	assert.ErrorIs(t, err, gatedcontent.ErrUploadCancelled)
	assert.Equal(t, gatedcontent.SessionStateCancelled, session.State())

	// Cancelled sessions are destroyed, not resumable.
	_, err = svc.GetSession(session.ID)
	assert.ErrorIs(t, err, gatedcontent.ErrSessionNotFound)
}

func TestCancelBeforeUpload(t *testing.T) {
	svc := setupTestService(t)
	session := startSession(t, svc, uuid.New(), "bytes")

	require.NoError(t, svc.Cancel(session.ID))
	assert.Equal(t, gatedcontent.SessionStateCancelled, session.State())

	_, err := svc.GetSession(session.ID)
	assert.ErrorIs(t, err, gatedcontent.ErrSessionNotFound)
}

func TestCancelEditingSession(t *testing.T) {
	svc := setupTestService(t)
	ctx := context.Background()
	session := startSession(t, svc, uuid.New(), "bytes")

	require.NoError(t, svc.Upload(ctx, session.ID, strings.NewReader("bytes")))
	require.Equal(t, gatedcontent.SessionStateEditing, session.State())

	// An abandoned draft ends immediately, no publish step needed.
	require.NoError(t, svc.Cancel(session.ID))
	assert.Equal(t, gatedcontent.SessionStateCancelled, session.State())

	_, err := svc.GetSession(session.ID)
	assert.ErrorIs(t, err, gatedcontent.ErrSessionNotFound)
}

func TestCancelUnknownSession(t *testing.T) {
	svc := setupTestService(t)
	err := svc.Cancel(uuid.New())
	assert.ErrorIs(t, err, gatedcontent.ErrSessionNotFound)
}

func TestProgressIsMonotonicAndCappedUntilStored(t *testing.T) {
	svc := setupTestService(t)
	ctx := context.Background()
	body := strings.Repeat("v", 8000)

	session := startSession(t, svc, uuid.New(), body)

	var last float64
	reader := &chunkedReader{
		data:      []byte(body),
		chunkSize: 500,
		onChunk: func(delivered int) {
			p, err := svc.Progress(session.ID)
			require.NoError(t, err)
			assert.GreaterOrEqual(t, p.Fraction, last, "fraction must never decrease")
			assert.Less(t, p.Fraction, 1.0, "fraction must stay below 1.0 until durably stored")
			last = p.Fraction
		},
	}

	require.NoError(t, svc.Upload(ctx, session.ID, reader))

	p, err := svc.Progress(session.ID)
	require.NoError(t, err)
	assert.Equal(t, 1.0, p.Fraction)
}

// flakyRepo fails CreateContent a configured number of times before
// delegating, to exercise publish retry.
type flakyRepo struct {
	gatedcontent.Repository
	failuresLeft int
}

func (r *flakyRepo) CreateContent(ctx context.Context, item *gatedcontent.ContentItem) error {
	if r.failuresLeft > 0 {
		r.failuresLeft--
		return errors.New("connection refused")
	}
	return r.Repository.CreateContent(ctx, item)
}

func TestPublishRetryAfterRepositoryFailure(t *testing.T) {
	repo := &flakyRepo{Repository: memory.New(), failuresLeft: 1}
	svc, err := gatedcontent.New(
		gatedcontent.WithRepository(repo),
		gatedcontent.WithBlobStore("memory", memorystorage.New()),
		gatedcontent.WithPublicBaseURL(testPublicBase),
	)
	require.NoError(t, err)

	ctx := context.Background()
	body := "some video bytes"
	session := startSession(t, svc, uuid.New(), body)
	require.NoError(t, svc.Upload(ctx, session.ID, strings.NewReader(body)))

	_, err = svc.Publish(ctx, session.ID)
	require.Error(t, err)
	assert.Equal(t, gatedcontent.SessionStateFailed, session.State())

	// The binary is durably stored, so the draft survives and publishing may
	// be retried without re-uploading.
	item, err := svc.Publish(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, "beach-day", item.Title)

	_, err = svc.GetSession(session.ID)
	assert.ErrorIs(t, err, gatedcontent.ErrSessionNotFound)
}

func TestUpdateDraftRequiresEditingState(t *testing.T) {
	svc := setupTestService(t)
	session := startSession(t, svc, uuid.New(), "bytes")

	title := "too early"
	err := svc.UpdateDraft(session.ID, gatedcontent.UpdateDraftRequest{Title: &title})
	assert.ErrorIs(t, err, gatedcontent.ErrInvalidTransition)
}

func TestPublishBeforeUploadRejected(t *testing.T) {
	svc := setupTestService(t)
	session := startSession(t, svc, uuid.New(), "bytes")

	_, err := svc.Publish(context.Background(), session.ID)
	assert.ErrorIs(t, err, gatedcontent.ErrInvalidTransition)
}

func TestListContentNewestFirst(t *testing.T) {
	svc := setupTestService(t)
	ctx := context.Background()
	ownerID := uuid.New()

	titles := []string{"first", "second", "third"}
	for _, title := range titles {
		body := "video " + title
		session := startSession(t, svc, ownerID, body)
		require.NoError(t, svc.Upload(ctx, session.ID, strings.NewReader(body)))
		tcopy := title
		require.NoError(t, svc.UpdateDraft(session.ID, gatedcontent.UpdateDraftRequest{Title: &tcopy}))
		_, err := svc.Publish(ctx, session.ID)
		require.NoError(t, err)
	}

	items, err := svc.ListContent(ctx, ownerID)
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, "third", items[0].Title)
	assert.Equal(t, "first", items[2].Title)

	// Another owner sees nothing.
	other, err := svc.ListContent(ctx, uuid.New())
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestDeleteContentEnforcesOwnership(t *testing.T) {
	svc := setupTestService(t)
	ctx := context.Background()
	ownerID := uuid.New()
	body := "some video bytes"

	session := startSession(t, svc, ownerID, body)
	require.NoError(t, svc.Upload(ctx, session.ID, strings.NewReader(body)))
	item, err := svc.Publish(ctx, session.ID)
	require.NoError(t, err)

	err = svc.DeleteContent(ctx, item.ID, uuid.New())
	assert.ErrorIs(t, err, gatedcontent.ErrNotOwner)

	require.NoError(t, svc.DeleteContent(ctx, item.ID, ownerID))

	_, err = svc.Resolve(ctx, item.ID)
	assert.ErrorIs(t, err, gatedcontent.ErrContentNotFound)

	err = svc.DeleteContent(ctx, item.ID, ownerID)
	assert.ErrorIs(t, err, gatedcontent.ErrContentNotFound)
}

func TestResolveUnknownContent(t *testing.T) {
	svc := setupTestService(t)
	_, err := svc.Resolve(context.Background(), uuid.New())
	assert.ErrorIs(t, err, gatedcontent.ErrContentNotFound)
}

func TestConcurrentSessionsAreIndependent(t *testing.T) {
	svc := setupTestService(t)
	ctx := context.Background()
	ownerID := uuid.New()

	bodyA := strings.Repeat("a", 2000)
	bodyB := strings.Repeat("b", 3000)

	sessionA := startSession(t, svc, ownerID, bodyA)
	sessionB := startSession(t, svc, ownerID, bodyB)

	// Finish B first, then A; both must publish cleanly.
	require.NoError(t, svc.Upload(ctx, sessionB.ID, strings.NewReader(bodyB)))
	require.NoError(t, svc.Upload(ctx, sessionA.ID, strings.NewReader(bodyA)))

	itemB, err := svc.Publish(ctx, sessionB.ID)
	require.NoError(t, err)
	itemA, err := svc.Publish(ctx, sessionA.ID)
	require.NoError(t, err)

	assert.NotEqual(t, itemA.ID, itemB.ID)
	assert.NotEqual(t, itemA.ObjectKey, itemB.ObjectKey)
}
