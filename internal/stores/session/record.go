package session

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/ethanbaker/learnwithai/pkg/workflow"
)

// RecordData wraps a workflow record so it can be stored as a JSON column
type RecordData struct {
	workflow.Record
}

// Value implements the driver.Valuer interface for database storage
func (r RecordData) Value() (driver.Value, error) {
	data, err := json.Marshal(r.Record)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal record: %w", err)
	}
	return string(data), nil
}

// Scan implements the sql.Scanner interface for database retrieval
func (r *RecordData) Scan(value any) error {
	if value == nil {
		r.Record = workflow.Record{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into RecordData", value)
	}

	var rec workflow.Record
	if err := json.Unmarshal(bytes, &rec); err != nil {
		return fmt.Errorf("failed to unmarshal RecordData: %w", err)
	}

	// Running states never survive a request
	rec.Running = ""
	r.Record = rec
	return nil
}
