package session

import (
	"time"

	"github.com/ethanbaker/learnwithai/pkg/workflow"
	"github.com/google/uuid"
)

// MySqlSession is the database row for a workflow session
type MySqlSession struct {
	ID        uuid.UUID `json:"id" gorm:"type:char(36);primaryKey;unique;not null"`
	CreatedAt time.Time `json:"created_at" gorm:"column:created_at"`
	UpdatedAt time.Time `json:"updated_at" gorm:"column:updated_at;index"`

	Record RecordData `json:"record" gorm:"column:record;type:text;not null"`
}

// TableName pins the table name
func (MySqlSession) TableName() string {
	return "workflow_sessions"
}

func (s *MySqlSession) toSession() *workflow.Session {
	return &workflow.Session{
		ID:        s.ID,
		Record:    s.Record.Record.Clone(),
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}

func fromSession(s *workflow.Session) *MySqlSession {
	return &MySqlSession{
		ID:        s.ID,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
		Record:    RecordData{Record: s.Record.Clone()},
	}
}
