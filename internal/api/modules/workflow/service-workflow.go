package workflow_module

import (
	"context"
	"log"
	"sync"

	apperrors "github.com/ethanbaker/learnwithai/internal/errors"
	"github.com/ethanbaker/learnwithai/pkg/transcript"
	"github.com/ethanbaker/learnwithai/pkg/workflow"
	"github.com/google/uuid"
)

// WorkflowService runs orchestrator actions against stored sessions, one
// action at a time per session
type WorkflowService struct {
	store        workflow.Store
	orchestrator *workflow.Orchestrator
	languages    []transcript.Language

	locks map[uuid.UUID]*sessionLock
	mutex sync.Mutex
}

// sessionLock serialises actions on one session. refs counts holders and
// waiters; the entry is dropped when it reaches zero.
type sessionLock struct {
	mu   sync.Mutex
	refs int
}

var workflowService *WorkflowService

// Init installs the service used by the route handlers
func Init(store workflow.Store, orchestrator *workflow.Orchestrator, languages []transcript.Language) {
	workflowService = NewWorkflowService(store, orchestrator, languages)
}

// GetService returns the service installed by Init
func GetService() *WorkflowService {
	if workflowService == nil {
		log.Fatal("[WORKFLOW-API]: service used before Init")
	}
	return workflowService
}

// NewWorkflowService creates a workflow service
func NewWorkflowService(store workflow.Store, orchestrator *workflow.Orchestrator, languages []transcript.Language) *WorkflowService {
	return &WorkflowService{
		store:        store,
		orchestrator: orchestrator,
		languages:    languages,
		locks:        make(map[uuid.UUID]*sessionLock),
	}
}

// action is one orchestrator call on a session record
type action func(ctx context.Context, rec *workflow.Record) (*workflow.Result, error)

// lock blocks until the caller owns the session and returns the unlock func
func (s *WorkflowService) lock(id uuid.UUID) func() {
	s.mutex.Lock()
	l, ok := s.locks[id]
	if !ok {
		l = &sessionLock{}
		s.locks[id] = l
	}
	l.refs++
	s.mutex.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()

		s.mutex.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, id)
		}
		s.mutex.Unlock()
	}
}

func parseID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, apperrors.NewInvalidInput("session id must be a UUID")
	}
	return id, nil
}

// Create creates an empty session
func (s *WorkflowService) Create(ctx context.Context) (*workflow.Session, error) {
	return s.store.Create(ctx)
}

// Get returns a session by id
func (s *WorkflowService) Get(ctx context.Context, rawID string) (*workflow.Session, error) {
	id, err := parseID(rawID)
	if err != nil {
		return nil, err
	}
	return s.store.Get(ctx, id)
}

// Delete removes a session
func (s *WorkflowService) Delete(ctx context.Context, rawID string) error {
	id, err := parseID(rawID)
	if err != nil {
		return err
	}

	unlock := s.lock(id)
	defer unlock()

	return s.store.Delete(ctx, id)
}

// Languages returns the translation target languages
func (s *WorkflowService) Languages() []transcript.Language {
	return s.languages
}

// Run loads a session, applies fn to its record and saves the record back.
// The record is saved even when fn fails, since failures such as a rejected
// credential or a retrieval error still change it.
func (s *WorkflowService) Run(ctx context.Context, rawID string, fn action) (*workflow.Session, *workflow.Result, error) {
	id, err := parseID(rawID)
	if err != nil {
		return nil, nil, err
	}

	unlock := s.lock(id)
	defer unlock()

	sess, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	result, runErr := fn(ctx, &sess.Record)
	sess.Record.Running = ""

	if err := s.store.Save(ctx, sess); err != nil {
		log.Printf("[WORKFLOW-API]: failed to save session %s: %v", id, err)
		if runErr == nil {
			return nil, nil, err
		}
	}

	return sess, result, runErr
}

// reporter logs chunk progress for a session
func reporter(id string) workflow.Reporter {
	return func(task string, done, total int) {
		log.Printf("[WORKFLOW-API]: session %s: %s %d/%d", id, task, done, total)
	}
}

// Reset clears a session
func (s *WorkflowService) Reset(ctx context.Context, id string) (*workflow.Session, *workflow.Result, error) {
	return s.Run(ctx, id, func(ctx context.Context, rec *workflow.Record) (*workflow.Result, error) {
		return s.orchestrator.Reset(ctx, rec), nil
	})
}

// LoadTranscriptOptions lists caption languages for a watch URL
func (s *WorkflowService) LoadTranscriptOptions(ctx context.Context, id, url string) (*workflow.Session, *workflow.Result, error) {
	return s.Run(ctx, id, func(ctx context.Context, rec *workflow.Record) (*workflow.Result, error) {
		return s.orchestrator.LoadTranscriptOptions(ctx, rec, url)
	})
}

// FetchTranscript retrieves a transcript
func (s *WorkflowService) FetchTranscript(ctx context.Context, id, language string) (*workflow.Session, *workflow.Result, error) {
	return s.Run(ctx, id, func(ctx context.Context, rec *workflow.Record) (*workflow.Result, error) {
		return s.orchestrator.FetchTranscript(ctx, rec, language)
	})
}

// SubmitManualTranscript accepts pasted transcript text
func (s *WorkflowService) SubmitManualTranscript(ctx context.Context, id, text string) (*workflow.Session, *workflow.Result, error) {
	return s.Run(ctx, id, func(ctx context.Context, rec *workflow.Record) (*workflow.Result, error) {
		return s.orchestrator.AcceptManualTranscript(ctx, rec, text)
	})
}

// SetCredential validates and stores a chat provider key
func (s *WorkflowService) SetCredential(ctx context.Context, id, key string) (*workflow.Session, *workflow.Result, error) {
	return s.Run(ctx, id, func(ctx context.Context, rec *workflow.Record) (*workflow.Result, error) {
		return s.orchestrator.SetCredential(ctx, rec, key)
	})
}

// RunPrimary runs a primary task
func (s *WorkflowService) RunPrimary(ctx context.Context, id, task, target string) (*workflow.Session, *workflow.Result, error) {
	parsed, err := workflow.ParsePrimaryTask(task)
	if err != nil {
		return nil, nil, err
	}

	return s.Run(ctx, id, func(ctx context.Context, rec *workflow.Record) (*workflow.Result, error) {
		return s.orchestrator.RunPrimary(ctx, rec, parsed, target, reporter(id))
	})
}

// RunFollowup runs a follow-up task
func (s *WorkflowService) RunFollowup(ctx context.Context, id, task, target string) (*workflow.Session, *workflow.Result, error) {
	parsed, err := workflow.ParseFollowupTask(task)
	if err != nil {
		return nil, nil, err
	}

	return s.Run(ctx, id, func(ctx context.Context, rec *workflow.Record) (*workflow.Result, error) {
		return s.orchestrator.RunFollowup(ctx, rec, parsed, target, reporter(id))
	})
}
