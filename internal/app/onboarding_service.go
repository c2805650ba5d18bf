package app

import (
	"context"
	"errors"
	"sync"
	"time"

	"onboarding-service/internal/domain"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// SessionRepository abstracts where live onboarding sessions are kept (in-memory, Redis, etc).
type SessionRepository interface {
	Add(session *Session)
	Get(sessionID string) (*Session, bool)
	// Touch is called after every accepted mutation.
	Touch(session *Session)
	Delete(sessionID string)
}

// CatalogRepository loads question catalogs (from cache/backing store).
type CatalogRepository interface {
	GetCatalog(ctx context.Context, persona domain.Persona) (domain.Catalog, error)
}

// OnboardingService contains the onboarding use cases. It owns one Flow per
// session and pushes a fresh View to subscribers after every change.
type OnboardingService struct {
	sessions   SessionRepository
	catalogs   CatalogRepository
	sink       CompletionSink
	transition *Transition
	metrics    *Metrics
	logger     zerolog.Logger
	newID      func() string
}

// Option configures an OnboardingService.
type Option func(*OnboardingService)

// WithTransition enables the timed transition stage between persona choice and the first question.
func WithTransition(t *Transition) Option {
	return func(s *OnboardingService) { s.transition = t }
}

func WithMetrics(m *Metrics) Option {
	return func(s *OnboardingService) { s.metrics = m }
}

func WithLogger(l zerolog.Logger) Option {
	return func(s *OnboardingService) { s.logger = l }
}

// WithIDGenerator overrides uuid session ids; useful in tests.
func WithIDGenerator(fn func() string) Option {
	return func(s *OnboardingService) { s.newID = fn }
}

func NewOnboardingService(store SessionRepository, catalogs CatalogRepository, sink CompletionSink, opts ...Option) *OnboardingService {
	s := &OnboardingService{
		sessions:   store,
		catalogs:   catalogs,
		sink:       sink,
		transition: NewTransition(TransitionConfig{}),
		logger:     zerolog.Nop(),
		newID:      func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewSession is exported for infrastructure layers that need to seed sessions.
func NewSession(id string, withTransition bool) *Session {
	return newSessionWithClock(id, withTransition, time.Now)
}

// NewSessionWithClock is test-only for deterministic timestamps.
func NewSessionWithClock(id string, withTransition bool, now func() time.Time) *Session {
	return newSessionWithClock(id, withTransition, now)
}

// Start opens a new session in the selecting stage.
func (s *OnboardingService) Start(_ context.Context) (domain.View, error) {
	session := NewSession(s.newID(), s.transition.Enabled())
	s.sessions.Add(session)
	s.metrics.sessionStarted()
	s.metrics.stage(domain.StageSelecting)
	s.logger.Debug().Str("session_id", session.ID()).Msg("session started")
	return session.View(), nil
}

// View returns the current render model of a session.
func (s *OnboardingService) View(_ context.Context, sessionID string) (domain.View, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return domain.View{}, domain.ErrSessionNotFound
	}
	return session.View(), nil
}

// ChoosePersona loads the persona's catalog and starts its questionnaire.
func (s *OnboardingService) ChoosePersona(ctx context.Context, sessionID, persona string) (domain.View, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return domain.View{}, domain.ErrSessionNotFound
	}
	p, err := domain.ParsePersona(persona)
	if err != nil {
		s.metrics.reject("choosePersona")
		return session.View(), err
	}
	catalog, err := s.catalogs.GetCatalog(ctx, p)
	if err != nil {
		s.logger.Error().Err(err).Str("session_id", sessionID).Str("persona", persona).Msg("load catalog")
		return session.View(), err
	}

	view, err := s.apply(session, "choosePersona", func(f *Flow) error {
		return f.ChoosePersona(catalog)
	})
	if err != nil {
		return view, err
	}
	if view.Stage == domain.StageTransitioning {
		s.runTransition(session, p)
		view = session.View()
	}
	s.logger.Info().Str("session_id", sessionID).Str("persona", persona).Msg("persona chosen")
	return view, nil
}

func (s *OnboardingService) Advance(_ context.Context, sessionID string) (domain.View, error) {
	return s.do(sessionID, "advance", (*Flow).Advance)
}

func (s *OnboardingService) Retreat(_ context.Context, sessionID string) (domain.View, error) {
	return s.do(sessionID, "retreat", (*Flow).Retreat)
}

func (s *OnboardingService) BackToQuestions(_ context.Context, sessionID string) (domain.View, error) {
	return s.do(sessionID, "backToQuestions", (*Flow).BackToQuestions)
}

func (s *OnboardingService) SetAnswer(_ context.Context, sessionID, questionID, value string) (domain.View, error) {
	return s.do(sessionID, "setAnswer", func(f *Flow) error {
		return f.SetAnswer(questionID, value)
	})
}

func (s *OnboardingService) ToggleChoice(_ context.Context, sessionID, questionID, option string) (domain.View, error) {
	return s.do(sessionID, "toggleChoice", func(f *Flow) error {
		return f.ToggleChoice(questionID, option)
	})
}

func (s *OnboardingService) SetOtherText(_ context.Context, sessionID, questionID, text string) (domain.View, error) {
	return s.do(sessionID, "setOtherText", func(f *Flow) error {
		return f.SetOtherText(questionID, text)
	})
}

func (s *OnboardingService) ReviewEdit(_ context.Context, sessionID, questionID string, answer domain.Answer) (domain.View, error) {
	return s.do(sessionID, "reviewEdit", func(f *Flow) error {
		return f.ReviewEdit(questionID, answer)
	})
}

// Submit hands the session's answers to the completion sink.
func (s *OnboardingService) Submit(ctx context.Context, sessionID string) (domain.View, error) {
	view, err := s.do(sessionID, "submit", func(f *Flow) error {
		return f.Submit(ctx, s.sink)
	})
	if err != nil {
		if !errors.Is(err, domain.ErrInvalidTransition) {
			s.logger.Error().Err(err).Str("session_id", sessionID).Msg("submit onboarding")
		}
		return view, err
	}
	s.metrics.complete(view.Persona)
	s.logger.Info().Str("session_id", sessionID).Str("persona", string(view.Persona)).Msg("onboarding submitted")
	return view, nil
}

// Restart drops the persona and answers and returns to selection.
func (s *OnboardingService) Restart(_ context.Context, sessionID string) (domain.View, error) {
	return s.do(sessionID, "restart", func(f *Flow) error {
		f.Restart()
		return nil
	})
}

// Subscribe returns a channel that receives views for a session.
// The caller must invoke the returned cancel function to avoid leaks.
func (s *OnboardingService) Subscribe(_ context.Context, sessionID string) (<-chan domain.View, func(), error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return nil, nil, domain.ErrSessionNotFound
	}
	ch, cancel := session.subscribe()
	return ch, cancel, nil
}

// Leave stops any pending timers and discards the session.
func (s *OnboardingService) Leave(_ context.Context, sessionID string) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return
	}
	session.close()
	s.sessions.Delete(sessionID)
	s.metrics.sessionEnded()
	s.logger.Debug().
		Str("session_id", sessionID).
		Str("stage", string(session.Stage())).
		Dur("age", time.Since(session.CreatedAt())).
		Time("updated_at", session.UpdatedAt()).
		Msg("session left")
}

func (s *OnboardingService) do(sessionID, op string, fn func(*Flow) error) (domain.View, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return domain.View{}, domain.ErrSessionNotFound
	}
	return s.apply(session, op, fn)
}

func (s *OnboardingService) apply(session *Session, op string, fn func(*Flow) error) (domain.View, error) {
	view, entered, err := session.apply(fn)
	if err != nil {
		s.metrics.reject(op)
		s.logger.Warn().Err(err).
			Str("session_id", session.ID()).
			Str("op", op).
			Str("stage", string(view.Stage)).
			Msg("operation rejected")
		return view, err
	}
	if entered {
		s.metrics.stage(view.Stage)
	}
	s.sessions.Touch(session)
	return view, nil
}

func (s *OnboardingService) runTransition(session *Session, persona domain.Persona) {
	ctx, gen, ok := session.beginTransition(s.transition.First(persona))
	if !ok {
		return
	}
	go func() {
		err := s.transition.Run(ctx, persona, func(msg string) {
			session.setMessage(gen, msg)
		})
		if err != nil {
			return
		}
		if session.finishTransition(gen) {
			s.metrics.stage(domain.StageStepping)
			s.sessions.Touch(session)
		}
	}()
}

// Session is the single owner of one onboarding flow.
type Session struct {
	id        string
	createdAt time.Time
	now       func() time.Time

	mu          sync.Mutex
	flow        *Flow
	updatedAt   time.Time
	message     string
	subscribers map[chan domain.View]struct{}
	closed      bool

	transitionGen    uint64
	cancelTransition context.CancelFunc
}

// newSessionWithClock allows deterministic timestamps in tests.
func newSessionWithClock(id string, withTransition bool, now func() time.Time) *Session {
	created := now()
	return &Session{
		id:          id,
		createdAt:   created,
		updatedAt:   created,
		now:         now,
		flow:        NewFlow(withTransition),
		subscribers: make(map[chan domain.View]struct{}),
	}
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) CreatedAt() time.Time {
	return s.createdAt
}

// UpdatedAt is the time of the last accepted change.
func (s *Session) UpdatedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updatedAt
}

// Stage is the current flow stage.
func (s *Session) Stage() domain.Stage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flow.Stage()
}

// View renders the session.
func (s *Session) View() domain.View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

// apply runs fn against the flow. entered reports a stage change.
func (s *Session) apply(fn func(*Flow) error) (view domain.View, entered bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return s.viewLocked(), false, domain.ErrSessionNotFound
	}
	before := s.flow.Stage()
	if err := fn(s.flow); err != nil {
		return s.viewLocked(), false, err
	}
	after := s.flow.Stage()
	if before == domain.StageTransitioning && after != domain.StageTransitioning {
		s.stopTransitionLocked()
	}
	s.updatedAt = s.now()
	if after == domain.StageTransitioning && before != after {
		// beginTransition broadcasts once the first message is set.
		return s.viewLocked(), true, nil
	}
	return s.broadcastLocked(), before != after, nil
}

// beginTransition arms a new transition generation. ok is false when the
// session was closed or already left the stage, in which case nothing runs.
func (s *Session) beginTransition(first string) (context.Context, uint64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || s.flow.Stage() != domain.StageTransitioning {
		return nil, 0, false
	}
	s.stopTransitionLocked()
	ctx, cancel := context.WithCancel(context.Background())
	s.cancelTransition = cancel
	s.message = first
	s.broadcastLocked()
	return ctx, s.transitionGen, true
}

func (s *Session) setMessage(gen uint64, msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || gen != s.transitionGen || s.flow.Stage() != domain.StageTransitioning {
		return
	}
	s.message = msg
	s.broadcastLocked()
}

// finishTransition moves to the first question unless gen was superseded.
func (s *Session) finishTransition(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || gen != s.transitionGen || s.flow.CompleteTransition() != nil {
		return false
	}
	s.stopTransitionLocked()
	s.updatedAt = s.now()
	s.broadcastLocked()
	return true
}

// stopTransitionLocked cancels the pending timer and invalidates its callbacks.
func (s *Session) stopTransitionLocked() {
	if s.cancelTransition != nil {
		s.cancelTransition()
		s.cancelTransition = nil
	}
	s.transitionGen++
	s.message = ""
}

func (s *Session) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopTransitionLocked()
	s.closed = true
	for ch := range s.subscribers {
		delete(s.subscribers, ch)
		close(ch)
	}
}

func (s *Session) subscribe() (<-chan domain.View, func()) {
	ch := make(chan domain.View, 8)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	s.subscribers[ch] = struct{}{}
	ch <- s.viewLocked()
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

func (s *Session) broadcastLocked() domain.View {
	v := s.viewLocked()
	for ch := range s.subscribers {
		select {
		case ch <- v:
		default:
			// Slow subscriber: drop its oldest view so the latest always lands.
			select {
			case <-ch:
			default:
			}
			ch <- v
		}
	}
	return v
}

func (s *Session) viewLocked() domain.View {
	v := s.flow.View()
	v.SessionID = s.id
	if v.Stage == domain.StageTransitioning {
		v.Message = s.message
	}
	return v
}
