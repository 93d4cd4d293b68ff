package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	apperrors "github.com/ethanbaker/learnwithai/internal/errors"
	"github.com/ethanbaker/learnwithai/pkg/workflow"
	"github.com/google/uuid"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	_ workflow.Store = (*MySqlStore)(nil)
	_ workflow.Store = (*InMemoryStore)(nil)
)

// MySqlStore handles session persistence using GORM
type MySqlStore struct {
	db *gorm.DB
}

// NewMySqlStore creates a new session store with a MySQL connection
func NewMySqlStore(databaseURL string) (*MySqlStore, error) {
	return NewGormStore(mysql.Open(databaseURL))
}

// NewGormStore creates a session store on any GORM dialector
func NewGormStore(dialector gorm.Dialector) (*MySqlStore, error) {
	db, err := gorm.Open(dialector, &gorm.Config{Logger: logger.Default.LogMode(logger.Warn)})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Auto-migrate tables
	if err := db.AutoMigrate(&MySqlSession{}); err != nil {
		return nil, fmt.Errorf("failed to migrate tables: %w", err)
	}

	return &MySqlStore{db: db}, nil
}

// Create creates a new empty session in the database
func (s *MySqlStore) Create(ctx context.Context) (*workflow.Session, error) {
	now := time.Now().UTC()
	row := &MySqlSession{
		ID:        uuid.New(),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.db.WithContext(ctx).Create(row).Error; err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return row.toSession(), nil
}

// Get retrieves a session by ID
func (s *MySqlStore) Get(ctx context.Context, id uuid.UUID) (*workflow.Session, error) {
	var row MySqlSession
	result := s.db.WithContext(ctx).First(&row, "id = ?", id)

	if result.Error != nil {
		// Handle not found error
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFound(id.String())
		}
		// Handle generic errors
		return nil, fmt.Errorf("failed to get session: %w", result.Error)
	}

	return row.toSession(), nil
}

// Save writes the session record back and bumps its update time
func (s *MySqlStore) Save(ctx context.Context, session *workflow.Session) error {
	if session == nil {
		return fmt.Errorf("session cannot be nil")
	}

	session.UpdatedAt = time.Now().UTC()
	row := fromSession(session)

	result := s.db.WithContext(ctx).Model(&MySqlSession{}).Where("id = ?", session.ID).Updates(map[string]any{
		"record":     row.Record,
		"updated_at": row.UpdatedAt,
	})
	if result.Error != nil {
		return fmt.Errorf("failed to save session: %w", result.Error)
	}
	if result.RowsAffected > 0 {
		return nil
	}

	// MySQL reports changed rows, so an identical write affects none
	var count int64
	if err := s.db.WithContext(ctx).Model(&MySqlSession{}).Where("id = ?", session.ID).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	if count == 0 {
		return apperrors.NewNotFound(session.ID.String())
	}

	return nil
}

// Delete removes a session from the database
func (s *MySqlStore) Delete(ctx context.Context, id uuid.UUID) error {
	result := s.db.WithContext(ctx).Where("id = ?", id).Delete(&MySqlSession{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete session: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.NewNotFound(id.String())
	}

	return nil
}

// Expire deletes every session last updated before the cutoff
func (s *MySqlStore) Expire(ctx context.Context, before time.Time) (int, error) {
	result := s.db.WithContext(ctx).Where("updated_at < ?", before.UTC()).Delete(&MySqlSession{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to expire sessions: %w", result.Error)
	}

	return int(result.RowsAffected), nil
}

// GetDB returns the underlying GORM database connection
func (s *MySqlStore) GetDB() *gorm.DB {
	return s.db
}

// Close closes the database connection
func (s *MySqlStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB from gorm.DB: %w", err)
	}
	return sqlDB.Close()
}

// InMemoryStore keeps sessions in process memory (single replica deployments
// and the interactive CLI)
type InMemoryStore struct {
	sessions map[uuid.UUID]*workflow.Session
	mu       sync.RWMutex
}

// NewInMemoryStore creates a new in-memory session store
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		sessions: make(map[uuid.UUID]*workflow.Session),
	}
}

// Create creates a new empty session in memory
func (s *InMemoryStore) Create(ctx context.Context) (*workflow.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	session := &workflow.Session{
		ID:        uuid.New(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.sessions[session.ID] = session

	return copySession(session), nil
}

// Get retrieves a copy of a session by ID
func (s *InMemoryStore) Get(ctx context.Context, id uuid.UUID) (*workflow.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, exists := s.sessions[id]
	if !exists {
		return nil, apperrors.NewNotFound(id.String())
	}

	return copySession(session), nil
}

// Save stores a copy of the session
func (s *InMemoryStore) Save(ctx context.Context, session *workflow.Session) error {
	if session == nil {
		return fmt.Errorf("session cannot be nil")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.sessions[session.ID]; !exists {
		return apperrors.NewNotFound(session.ID.String())
	}

	session.UpdatedAt = time.Now().UTC()
	stored := copySession(session)
	stored.Record.Running = ""
	s.sessions[session.ID] = stored

	return nil
}

// Delete removes a session from memory
func (s *InMemoryStore) Delete(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.sessions[id]; !exists {
		return apperrors.NewNotFound(id.String())
	}
	delete(s.sessions, id)

	return nil
}

// Expire deletes every session last updated before the cutoff
func (s *InMemoryStore) Expire(ctx context.Context, before time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, session := range s.sessions {
		if session.UpdatedAt.Before(before) {
			delete(s.sessions, id)
			removed++
		}
	}

	return removed, nil
}

func copySession(s *workflow.Session) *workflow.Session {
	c := *s
	c.Record = s.Record.Clone()
	return &c
}
