package gatedcontent

import (
	"context"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// legalTransitions is the publish state machine. A transition not listed
// here is rejected with ErrInvalidTransition.
//
// failed -> publishing covers the one recoverable failure: the binary is
// already durably stored but the repository insert failed, so the caller may
// retry publishing without re-uploading.
var legalTransitions = map[SessionState][]SessionState{
	SessionStateIdle:       {SessionStateSelecting},
	SessionStateSelecting:  {SessionStateUploading, SessionStateCancelled, SessionStateFailed},
	SessionStateUploading:  {SessionStateUploaded, SessionStateCancelled, SessionStateFailed},
	SessionStateUploaded:   {SessionStateEditing, SessionStateCancelled},
	SessionStateEditing:    {SessionStatePublishing, SessionStateCancelled},
	SessionStatePublishing: {SessionStatePublished, SessionStateCancelled, SessionStateFailed},
	SessionStateFailed:     {SessionStatePublishing},
}

func canTransition(from, to SessionState) bool {
	for _, next := range legalTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Draft holds the editable, not-yet-persisted fields of a ContentItem
// between a successful upload and a successful publish.
type Draft struct {
	Title       string `json:"title"`
	BlurLevel   int    `json:"blur_level"`
	CTAText     string `json:"cta_text"`
	Price       string `json:"price"`
	ButtonColor string `json:"button_color,omitempty"`
}

// UploadSession is the transient state of a single upload. Sessions are
// independent of each other; two uploads from the same owner may complete in
// either order.
//
// Byte counters use atomics so Progress may be polled concurrently with the
// transfer without blocking it. Everything else is guarded by mu.
type UploadSession struct {
	ID                 uuid.UUID
	OwnerID            uuid.UUID
	FileName           string
	MimeType           string
	StorageBackendName string
	CreatedAt          time.Time

	bytesTotal       int64
	bytesTransferred atomic.Int64
	stored           atomic.Bool // blob store acknowledged durable placement
	cancelled        atomic.Bool

	mu        sync.Mutex
	state     SessionState
	objectKey string
	draft     Draft
	failure   error
	cancelFn  context.CancelFunc
}

func newUploadSession(req StartSessionRequest, backendName string) *UploadSession {
	return &UploadSession{
		ID:                 uuid.New(),
		OwnerID:            req.OwnerID,
		FileName:           req.FileName,
		MimeType:           req.MimeType,
		StorageBackendName: backendName,
		CreatedAt:          time.Now().UTC(),
		bytesTotal:         req.Size,
		state:              SessionStateIdle,
		draft: Draft{
			BlurLevel: DefaultBlurLevel,
			CTAText:   DefaultCTAText,
		},
	}
}

// State returns the current state of the session.
func (s *UploadSession) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Err returns the failure recorded when the session entered the failed
// state, nil otherwise.
func (s *UploadSession) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failure
}

// DraftSnapshot returns a copy of the session's draft fields.
func (s *UploadSession) DraftSnapshot() Draft {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft
}

// ObjectKey returns the storage key of the uploaded binary, empty until the
// store confirmed placement.
func (s *UploadSession) ObjectKey() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.objectKey
}

// Progress returns a monotonic snapshot of the transfer. The fraction is
// capped just below 1.0 until the blob store confirms the object is durably
// placed, so callers are never told the content is ready when it is not.
func (s *UploadSession) Progress() Progress {
	transferred := s.bytesTransferred.Load()
	p := Progress{
		BytesTransferred: transferred,
		BytesTotal:       s.bytesTotal,
	}
	if s.stored.Load() {
		p.Fraction = 1.0
		return p
	}
	if s.bytesTotal > 0 {
		p.Fraction = float64(transferred) / float64(s.bytesTotal)
	}
	if p.Fraction > 0.99 {
		p.Fraction = 0.99
	}
	return p
}

// transition moves the session to next, rejecting moves the state machine
// does not allow.
func (s *UploadSession) transition(next SessionState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transitionLocked(next)
}

func (s *UploadSession) transitionLocked(next SessionState) error {
	if !canTransition(s.state, next) {
		return &SessionError{SessionID: s.ID, Op: "transition", Err: ErrInvalidTransition}
	}
	s.state = next
	return nil
}

// markCancelled flags the session for cooperative cancellation and aborts an
// in-flight transfer. The actual state transition happens at the next chunk
// boundary (mid-upload) or immediately (before upload started).
func (s *UploadSession) markCancelled() {
	s.cancelled.Store(true)
	s.mu.Lock()
	cancel := s.cancelFn
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

func (s *UploadSession) setCancelFunc(fn context.CancelFunc) {
	s.mu.Lock()
	s.cancelFn = fn
	s.mu.Unlock()
}

// completeUpload records durable placement and advances
// uploading -> uploaded -> editing, attaching the default title derived from
// the original filename. A cancellation that raced the store's confirmation
// wins: storage is left alone but the session ends cancelled instead of
// editable, since the caller abandoned the flow.
func (s *UploadSession) completeUpload(objectKey string) error {
	s.stored.Store(true)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.objectKey = objectKey

	if s.cancelled.Load() {
		s.state = SessionStateCancelled
		return &SessionError{SessionID: s.ID, Op: "upload", Err: ErrUploadCancelled}
	}

	if err := s.transitionLocked(SessionStateUploaded); err != nil {
		return err
	}
	if s.draft.Title == "" {
		s.draft.Title = TitleFromFileName(s.FileName)
	}
	return s.transitionLocked(SessionStateEditing)
}

// fail records err and moves the session to failed.
func (s *UploadSession) fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failure = err
	s.state = SessionStateFailed
}

// updateDraft applies non-nil fields while the session is editable.
func (s *UploadSession) updateDraft(req UpdateDraftRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != SessionStateEditing {
		return &SessionError{SessionID: s.ID, Op: "update_draft", Err: ErrInvalidTransition}
	}
	if req.Title != nil {
		s.draft.Title = *req.Title
	}
	if req.BlurLevel != nil {
		s.draft.BlurLevel = *req.BlurLevel
	}
	if req.CTAText != nil {
		s.draft.CTAText = *req.CTAText
	}
	if req.Price != nil {
		s.draft.Price = *req.Price
	}
	if req.ButtonColor != nil {
		s.draft.ButtonColor = *req.ButtonColor
	}
	return nil
}

// sessionReader streams upload bytes to the blob store while counting
// progress and honoring cancellation at each chunk boundary.
type sessionReader struct {
	ctx     context.Context
	session *UploadSession
	reader  io.Reader
}

func (r *sessionReader) Read(p []byte) (int, error) {
	if r.session.cancelled.Load() {
		return 0, ErrUploadCancelled
	}
	if err := r.ctx.Err(); err != nil {
		if r.session.cancelled.Load() {
			return 0, ErrUploadCancelled
		}
		return 0, err
	}
	n, err := r.reader.Read(p)
	if n > 0 {
		r.session.bytesTransferred.Add(int64(n))
	}
	return n, err
}
