package service

import (
	"context"
	"crypto/rand"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/yndnr/lwm2m-seccfg/internal/core/domain"
	"github.com/yndnr/lwm2m-seccfg/internal/core/editor"
	"github.com/yndnr/lwm2m-seccfg/pkg/cmap"
)

// EditSessionIDPrefix prefixes every edit session id.
const EditSessionIDPrefix = "lwes-"

// Session outcomes reported to EditorMetrics.
const (
	OutcomeSaved     = "saved"
	OutcomeCancelled = "cancelled"
	OutcomeExpired   = "expired"
)

// EditorMetrics observes the edit session lifecycle.
type EditorMetrics interface {
	SessionOpened()
	SessionClosed(outcome string)
	MergeRejected(tab string)
}

// EditorConfig configures the EditorService.
type EditorConfig struct {
	// SessionTTL is the idle time after which a session expires.
	SessionTTL time.Duration

	// SweepInterval is how often expired sessions are removed.
	SweepInterval time.Duration

	// MaxSessions caps the number of open sessions (0 = unlimited).
	MaxSessions int
}

// DefaultEditorConfig returns the default editor settings.
func DefaultEditorConfig() EditorConfig {
	return EditorConfig{
		SessionTTL:    30 * time.Minute,
		SweepInterval: time.Minute,
		MaxSessions:   1000,
	}
}

// EditorService keeps server-side edit sessions. Requests on one session
// are serialised; different sessions proceed in parallel.
type EditorService struct {
	cfg      EditorConfig
	sessions *cmap.Map[*editSession]
	profiles *ProfileService
	metrics  EditorMetrics
	logger   *slog.Logger
	now      func() time.Time

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

type editSession struct {
	mu        sync.Mutex
	id        string
	profileID string
	session   *editor.Session
	createdAt time.Time
	lastUsed  atomic.Int64 // unix nanoseconds
	gone      bool         // removed from the map; guarded by mu
}

func (es *editSession) touch(now time.Time) {
	es.lastUsed.Store(now.UnixNano())
}

func (es *editSession) idleSince() time.Time {
	return time.Unix(0, es.lastUsed.Load())
}

// EditorOption configures an EditorService.
type EditorOption func(*EditorService)

// WithProfiles binds sessions opened with a profile id to stored documents.
func WithProfiles(p *ProfileService) EditorOption {
	return func(s *EditorService) {
		s.profiles = p
	}
}

// WithEditorMetrics registers lifecycle observers.
func WithEditorMetrics(m EditorMetrics) EditorOption {
	return func(s *EditorService) {
		s.metrics = m
	}
}

// WithEditorLogger sets the logger.
func WithEditorLogger(l *slog.Logger) EditorOption {
	return func(s *EditorService) {
		s.logger = l
	}
}

// withClock replaces time.Now in tests.
func withClock(now func() time.Time) EditorOption {
	return func(s *EditorService) {
		s.now = now
	}
}

// NewEditorService creates an EditorService. Call Start to run the sweeper.
func NewEditorService(cfg EditorConfig, opts ...EditorOption) *EditorService {
	def := DefaultEditorConfig()
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = def.SessionTTL
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = def.SweepInterval
	}

	s := &EditorService{
		cfg:      cfg,
		sessions: cmap.New[*editSession](),
		logger:   slog.Default(),
		now:      time.Now,
		stopCh:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start runs the expiry sweeper until Stop is called.
func (s *EditorService) Start() {
	s.wg.Add(1)
	go s.sweepLoop()
}

// Stop terminates the sweeper. It is safe to call more than once.
func (s *EditorService) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
	s.wg.Wait()
}

func (s *EditorService) sweepLoop() {
	defer s.wg.Done()
	ticker := time.NewTicker(s.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			if n := s.Sweep(); n > 0 {
				s.logger.Info("expired edit sessions removed", "count", n)
			}
		}
	}
}

// Sweep removes sessions idle for longer than the TTL and returns how many
// were removed. Sessions busy with a request are left for the next sweep.
func (s *EditorService) Sweep() int {
	cutoff := s.now().Add(-s.cfg.SessionTTL)
	removed := s.sessions.DeleteIf(func(_ string, es *editSession) bool {
		if !es.idleSince().Before(cutoff) || !es.mu.TryLock() {
			return false
		}
		defer es.mu.Unlock()
		if !es.idleSince().Before(cutoff) {
			return false
		}
		es.gone = true
		return true
	})
	for range removed {
		s.closed(OutcomeExpired)
	}
	return len(removed)
}

// Count returns the number of open sessions.
func (s *EditorService) Count() int {
	return s.sessions.Count()
}

// ============================================================================
// Open / Get
// ============================================================================

// OpenRequest describes a new edit session.
type OpenRequest struct {
	// Endpoint is the device endpoint name shown on the client tab.
	Endpoint string

	// ProfileID, when set, loads the stored document (or defaults) and makes
	// Save persist the result under that id.
	ProfileID string

	// Document is edited when ProfileID is empty. Nil starts from defaults.
	Document *domain.SecurityConfig

	// Host is used for defaults when no document is given.
	Host string
}

// SessionView is a snapshot of an edit session.
type SessionView struct {
	ID        string       `json:"id"`
	ProfileID string       `json:"profileId,omitempty"`
	CreatedAt int64        `json:"createdAt"`
	ExpiresAt int64        `json:"expiresAt"`
	State     editor.State `json:"state"`
}

// SaveResult is returned by Save.
type SaveResult struct {
	ID        string                 `json:"id"`
	ProfileID string                 `json:"profileId,omitempty"`
	Persisted bool                   `json:"persisted"`
	Endpoint  string                 `json:"endpoint"`
	Document  *domain.SecurityConfig `json:"document"`
}

// Open creates a session.
func (s *EditorService) Open(ctx context.Context, req *OpenRequest) (*SessionView, error) {
	if s.cfg.MaxSessions > 0 && s.sessions.Count() >= s.cfg.MaxSessions {
		return nil, domain.ErrRateLimited.WithDetails("too many open edit sessions")
	}

	doc := req.Document
	if req.ProfileID != "" {
		if s.profiles == nil {
			return nil, domain.ErrInvalidArgument.WithDetails("profile storage is not configured")
		}
		stored, err := s.profiles.GetOrDefault(ctx, req.ProfileID)
		if err != nil {
			return nil, err
		}
		doc = stored
	}
	if doc == nil {
		doc = domain.DefaultSecurityConfig(req.Host)
	}

	id, err := ulid.New(ulid.Timestamp(s.now()), rand.Reader)
	if err != nil {
		return nil, domain.ErrInternalServer.WithCause(err)
	}

	now := s.now()
	es := &editSession{
		id:        EditSessionIDPrefix + strings.ToLower(id.String()),
		profileID: req.ProfileID,
		createdAt: now,
	}
	es.touch(now)
	es.session = editor.New(req.Endpoint, doc, editor.WithRejectHook(func(tab editor.Tab, field string) {
		if s.metrics != nil {
			s.metrics.MergeRejected(tab.String())
		}
		s.logger.Debug("edit held back by validation", "session_id", es.id, "tab", tab.String(), "field", field)
	}))
	s.sessions.Set(es.id, es)

	if s.metrics != nil {
		s.metrics.SessionOpened()
	}
	s.logger.InfoContext(ctx, "edit session opened", "session_id", es.id, "profile_id", req.ProfileID)

	return s.view(es), nil
}

// Get returns the current state of a session.
func (s *EditorService) Get(_ context.Context, id string) (*SessionView, error) {
	es, err := s.acquire(id)
	if err != nil {
		return nil, err
	}
	defer es.mu.Unlock()
	return s.view(es), nil
}

// Apply runs fn on the session under its lock and returns the new state.
// The session stays open when fn fails.
func (s *EditorService) Apply(_ context.Context, id string, fn func(*editor.Session) error) (*SessionView, error) {
	es, err := s.acquire(id)
	if err != nil {
		return nil, err
	}
	defer es.mu.Unlock()

	es.touch(s.now())
	if err := fn(es.session); err != nil {
		return nil, err
	}
	return s.view(es), nil
}

// ============================================================================
// Save / Cancel
// ============================================================================

// Save merges the active tab and closes the session. A session bound to a
// profile is persisted first; when the merged document fails validation the
// session stays open and the validation error is returned.
func (s *EditorService) Save(ctx context.Context, id string) (*SaveResult, error) {
	es, err := s.acquire(id)
	if err != nil {
		return nil, err
	}
	defer es.mu.Unlock()
	es.touch(s.now())

	persist := es.profileID != "" && s.profiles != nil
	if persist {
		if err := es.session.Flush(); err != nil {
			return nil, err
		}
		if err := s.profiles.Put(ctx, es.profileID, es.session.Document()); err != nil {
			return nil, err
		}
	}

	res, err := es.session.Save()
	if err != nil {
		return nil, err
	}
	s.remove(es)
	s.closed(OutcomeSaved)
	s.logger.InfoContext(ctx, "edit session saved", "session_id", es.id, "profile_id", es.profileID, "persisted", persist)

	return &SaveResult{
		ID:        es.id,
		ProfileID: es.profileID,
		Persisted: persist,
		Endpoint:  res.Endpoint,
		Document:  res.Document,
	}, nil
}

// Cancel discards the session.
func (s *EditorService) Cancel(ctx context.Context, id string) error {
	es, err := s.acquire(id)
	if err != nil {
		return err
	}
	defer es.mu.Unlock()

	if err := es.session.Cancel(); err != nil {
		return err
	}
	s.remove(es)
	s.closed(OutcomeCancelled)
	s.logger.InfoContext(ctx, "edit session cancelled", "session_id", es.id)
	return nil
}

func (s *EditorService) lookup(id string) (*editSession, error) {
	if id == "" {
		return nil, domain.ErrMissingArgument.WithDetails("session id")
	}
	es, ok := s.sessions.Get(id)
	if !ok {
		return nil, domain.ErrEditSessionNotFound.WithDetails(id)
	}
	return es, nil
}

// acquire looks up id and locks the session. A session removed while the
// caller waited for the lock is reported as not found.
func (s *EditorService) acquire(id string) (*editSession, error) {
	es, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	es.mu.Lock()
	if es.gone {
		es.mu.Unlock()
		return nil, domain.ErrEditSessionNotFound.WithDetails(id)
	}
	return es, nil
}

// remove drops es from the map. The caller holds es.mu.
func (s *EditorService) remove(es *editSession) {
	es.gone = true
	s.sessions.Delete(es.id)
}

func (s *EditorService) view(es *editSession) *SessionView {
	return &SessionView{
		ID:        es.id,
		ProfileID: es.profileID,
		CreatedAt: es.createdAt.UnixMilli(),
		ExpiresAt: es.idleSince().Add(s.cfg.SessionTTL).UnixMilli(),
		State:     es.session.State(),
	}
}

func (s *EditorService) closed(outcome string) {
	if s.metrics != nil {
		s.metrics.SessionClosed(outcome)
	}
}
