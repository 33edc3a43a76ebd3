package gatedcontent

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/previewpro/gated-content/pkg/gatedcontent/objectkey"
)

// service implements the Service interface
type service struct {
	repository     Repository
	blobStores     map[string]BlobStore
	defaultBackend string
	keyGenerator   objectkey.Generator
	eventSink      EventSink
	publicBaseURL  string

	sessMu   sync.RWMutex
	sessions map[uuid.UUID]*UploadSession
}

// Option represents a functional option for configuring the service
type Option func(*service)

// WithRepository sets the repository for the service
func WithRepository(repo Repository) Option {
	return func(s *service) {
		s.repository = repo
	}
}

// WithBlobStore adds a blob storage backend
func WithBlobStore(name string, store BlobStore) Option {
	return func(s *service) {
		if s.blobStores == nil {
			s.blobStores = make(map[string]BlobStore)
		}
		s.blobStores[name] = store
	}
}

// WithDefaultBackend selects the backend used when a session does not name one
func WithDefaultBackend(name string) Option {
	return func(s *service) {
		s.defaultBackend = name
	}
}

// WithObjectKeyGenerator sets the object key generation strategy
func WithObjectKeyGenerator(gen objectkey.Generator) Option {
	return func(s *service) {
		s.keyGenerator = gen
	}
}

// WithEventSink sets the event sink for the service
func WithEventSink(sink EventSink) Option {
	return func(s *service) {
		s.eventSink = sink
	}
}

// WithPublicBaseURL sets the base used to construct public links
func WithPublicBaseURL(base string) Option {
	return func(s *service) {
		s.publicBaseURL = strings.TrimRight(base, "/")
	}
}

// New creates a new service instance with the given options
func New(options ...Option) (Service, error) {
	s := &service{
		blobStores: make(map[string]BlobStore),
		sessions:   make(map[uuid.UUID]*UploadSession),
	}

	for _, option := range options {
		option(s)
	}

	if s.repository == nil {
		return nil, fmt.Errorf("repository is required")
	}
	if len(s.blobStores) == 0 {
		return nil, fmt.Errorf("at least one blob store is required")
	}
	if s.defaultBackend == "" {
		if len(s.blobStores) == 1 {
			for name := range s.blobStores {
				s.defaultBackend = name
			}
		} else {
			return nil, fmt.Errorf("default backend is required with multiple blob stores")
		}
	}
	if _, ok := s.blobStores[s.defaultBackend]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrStorageBackendNotFound, s.defaultBackend)
	}
	if s.keyGenerator == nil {
		s.keyGenerator = objectkey.NewRecommendedGenerator()
	}

	return s, nil
}

// Upload session operations

func (s *service) StartSession(ctx context.Context, req StartSessionRequest) (*UploadSession, error) {
	if req.OwnerID == uuid.Nil {
		return nil, fmt.Errorf("owner id is required")
	}
	if req.Size <= 0 {
		return nil, ErrEmptyUpload
	}
	if !IsVideoMimeType(req.MimeType) {
		return nil, fmt.Errorf("%w: %q", ErrNotVideo, req.MimeType)
	}

	backendName := req.StorageBackendName
	if backendName == "" {
		backendName = s.defaultBackend
	}
	if _, err := s.GetBackend(backendName); err != nil {
		return nil, err
	}

	session := newUploadSession(req, backendName)
	if err := session.transition(SessionStateSelecting); err != nil {
		return nil, err
	}

	s.sessMu.Lock()
	s.sessions[session.ID] = session
	s.sessMu.Unlock()

	return session, nil
}

func (s *service) GetSession(sessionID uuid.UUID) (*UploadSession, error) {
	s.sessMu.RLock()
	defer s.sessMu.RUnlock()

	session, exists := s.sessions[sessionID]
	if !exists {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

func (s *service) Upload(ctx context.Context, sessionID uuid.UUID, reader io.Reader) error {
	session, err := s.GetSession(sessionID)
	if err != nil {
		return &SessionError{SessionID: sessionID, Op: "upload", Err: err}
	}

	backend, err := s.GetBackend(session.StorageBackendName)
	if err != nil {
		return &SessionError{SessionID: sessionID, Op: "upload", Err: err}
	}

	if err := session.transition(SessionStateUploading); err != nil {
		return err
	}

	uploadCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	session.setCancelFunc(cancel)

	objectKey := s.keyGenerator.GenerateKey(session.OwnerID, session.FileName, time.Now())

	uploadErr := backend.UploadWithParams(uploadCtx, &sessionReader{
		ctx:     uploadCtx,
		session: session,
		reader:  reader,
	}, UploadParams{
		ObjectKey: objectKey,
		MimeType:  session.MimeType,
	})

	if session.cancelled.Load() {
		// Fire-and-forget cleanup: partial bytes at the store must not
		// linger, and the caller is not kept waiting for the delete.
		session.mu.Lock()
		session.state = SessionStateCancelled
		session.mu.Unlock()
		go func() {
			if err := backend.Delete(context.Background(), objectKey); err != nil && !errors.Is(err, ErrObjectNotFound) {
				slog.Warn("Failed to clean up cancelled upload", "object_key", objectKey, "err", err)
			}
		}()
		s.destroySession(sessionID)
		return &SessionError{SessionID: sessionID, Op: "upload", Err: ErrUploadCancelled}
	}

	if uploadErr != nil {
		storageErr := &StorageError{
			Backend: session.StorageBackendName,
			Key:     objectKey,
			Op:      "upload",
			Err:     uploadErr,
		}
		session.fail(storageErr)
		s.destroySession(sessionID)
		return storageErr
	}

	if err := session.completeUpload(objectKey); err != nil {
		// Cancellation raced the store's confirmation. The object is
		// durable; reconciling it is left to a periodic sweep.
		s.destroySession(sessionID)
		return err
	}

	if s.eventSink != nil {
		if err := s.eventSink.UploadCompleted(ctx, session); err != nil {
			slog.Warn("Event sink rejected upload event", "session_id", session.ID, "err", err)
		}
	}

	return nil
}

func (s *service) Cancel(sessionID uuid.UUID) error {
	session, err := s.GetSession(sessionID)
	if err != nil {
		return &SessionError{SessionID: sessionID, Op: "cancel", Err: err}
	}

	session.markCancelled()

	// A session with no transfer or publish in flight ends immediately;
	// mid-upload or mid-publish the flag is observed at the next chunk or
	// step boundary.
	session.mu.Lock()
	switch session.state {
	case SessionStateSelecting, SessionStateUploaded, SessionStateEditing:
		session.state = SessionStateCancelled
		session.mu.Unlock()
		s.destroySession(sessionID)
		return nil
	}
	session.mu.Unlock()
	return nil
}

func (s *service) Progress(sessionID uuid.UUID) (Progress, error) {
	session, err := s.GetSession(sessionID)
	if err != nil {
		return Progress{}, &SessionError{SessionID: sessionID, Op: "progress", Err: err}
	}
	return session.Progress(), nil
}

// Draft operations

func (s *service) UpdateDraft(sessionID uuid.UUID, req UpdateDraftRequest) error {
	session, err := s.GetSession(sessionID)
	if err != nil {
		return &SessionError{SessionID: sessionID, Op: "update_draft", Err: err}
	}
	return session.updateDraft(req)
}

func (s *service) Publish(ctx context.Context, sessionID uuid.UUID) (*ContentItem, error) {
	session, err := s.GetSession(sessionID)
	if err != nil {
		return nil, &SessionError{SessionID: sessionID, Op: "publish", Err: err}
	}

	session.mu.Lock()
	if session.cancelled.Load() {
		if session.state == SessionStateEditing || session.state == SessionStateFailed {
			session.state = SessionStateCancelled
		}
		session.mu.Unlock()
		s.destroySession(sessionID)
		return nil, &SessionError{SessionID: sessionID, Op: "publish", Err: ErrUploadCancelled}
	}
	if session.state == SessionStateFailed && (!session.stored.Load() || session.objectKey == "") {
		// Only a failed repository insert is retryable; a failed or
		// cancelled transfer requires a fresh session.
		session.mu.Unlock()
		return nil, &SessionError{SessionID: sessionID, Op: "publish", Err: ErrInvalidTransition}
	}
	if err := session.transitionLocked(SessionStatePublishing); err != nil {
		session.mu.Unlock()
		return nil, err
	}
	draft := session.draft
	session.mu.Unlock()

	item := &ContentItem{
		ID:             uuid.New(),
		OwnerID:        session.OwnerID,
		StorageBackend: session.StorageBackendName,
		ObjectKey:      session.ObjectKey(),
		Title:          draft.Title,
		BlurLevel:      ClampBlurLevel(draft.BlurLevel),
		CTAText:        draft.CTAText,
		Price:          draft.Price,
		ButtonColor:    draft.ButtonColor,
		FileName:       session.FileName,
		FileSize:       session.bytesTotal,
		MimeType:       session.MimeType,
		CreatedAt:      time.Now().UTC(),
	}
	if item.Title == "" {
		item.Title = DefaultTitle
	}
	if item.CTAText == "" {
		item.CTAText = DefaultCTAText
	}

	if err := s.repository.CreateContent(ctx, item); err != nil {
		// The binary is durably stored; keep the draft so the caller can
		// retry the insert without re-uploading.
		contentErr := &ContentError{ContentID: item.ID, Op: "publish", Err: err}
		session.fail(contentErr)
		return nil, contentErr
	}

	if err := session.transition(SessionStatePublished); err != nil {
		return nil, err
	}
	s.destroySession(sessionID)

	if s.eventSink != nil {
		if err := s.eventSink.ContentPublished(ctx, item); err != nil {
			slog.Warn("Event sink rejected publish event", "content_id", item.ID, "err", err)
		}
	}

	return item, nil
}

// Content operations

func (s *service) GetContent(ctx context.Context, id uuid.UUID) (*ContentItem, error) {
	return s.repository.GetContent(ctx, id)
}

func (s *service) ListContent(ctx context.Context, ownerID uuid.UUID) ([]*ContentItem, error) {
	return s.repository.ListContentByOwner(ctx, ownerID)
}

func (s *service) DeleteContent(ctx context.Context, id uuid.UUID, requestingOwnerID uuid.UUID) error {
	item, err := s.repository.GetContent(ctx, id)
	if err != nil {
		return &ContentError{ContentID: id, Op: "delete", Err: err}
	}

	if err := s.repository.DeleteContent(ctx, id, requestingOwnerID); err != nil {
		return &ContentError{ContentID: id, Op: "delete", Err: err}
	}

	// Best-effort blob removal; a leftover object is reconciled by sweep.
	if backend, err := s.GetBackend(item.StorageBackend); err == nil {
		go func() {
			if err := backend.Delete(context.Background(), item.ObjectKey); err != nil && !errors.Is(err, ErrObjectNotFound) {
				slog.Warn("Failed to delete stored object", "object_key", item.ObjectKey, "err", err)
			}
		}()
	}

	if s.eventSink != nil {
		if err := s.eventSink.ContentDeleted(ctx, id); err != nil {
			slog.Warn("Event sink rejected delete event", "content_id", id, "err", err)
		}
	}

	return nil
}

// Public resolution

func (s *service) Resolve(ctx context.Context, id uuid.UUID) (*PublicProjection, error) {
	item, err := s.repository.GetContent(ctx, id)
	if err != nil {
		return nil, err
	}

	backend, err := s.GetBackend(item.StorageBackend)
	if err != nil {
		return nil, &ContentError{ContentID: id, Op: "resolve", Err: err}
	}

	videoURL, err := backend.GetPreviewURL(ctx, item.ObjectKey)
	if err != nil {
		return nil, &StorageError{
			Backend: item.StorageBackend,
			Key:     item.ObjectKey,
			Op:      "get_preview_url",
			Err:     err,
		}
	}

	return &PublicProjection{
		ID:          item.ID,
		VideoURL:    videoURL,
		Title:       item.Title,
		BlurLevel:   item.BlurLevel,
		CTAText:     item.CTAText,
		Price:       item.Price,
		ButtonColor: item.ButtonColor,
	}, nil
}

func (s *service) PublicLink(id uuid.UUID) string {
	return fmt.Sprintf("%s/?video=%s", s.publicBaseURL, id)
}

// Storage backend operations

func (s *service) RegisterBackend(name string, backend BlobStore) {
	s.blobStores[name] = backend
}

func (s *service) GetBackend(name string) (BlobStore, error) {
	backend, exists := s.blobStores[name]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrStorageBackendNotFound, name)
	}
	return backend, nil
}

// Helper methods

func (s *service) destroySession(sessionID uuid.UUID) {
	s.sessMu.Lock()
	delete(s.sessions, sessionID)
	s.sessMu.Unlock()
}
