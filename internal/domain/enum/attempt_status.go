package enum

import (
	"database/sql/driver"
	"encoding/json"
)

// AttemptStatus is the journaled outcome of one checkout submission
type AttemptStatus int

const (
	AttemptStatusSubmitting  AttemptStatus = 0
	AttemptStatusSucceeded   AttemptStatus = 1
	AttemptStatusFailed      AttemptStatus = 2
	AttemptStatusCompensated AttemptStatus = 3
	// AttemptStatusOrphaned means a sale header exists remotely without all of its lines
	AttemptStatusOrphaned AttemptStatus = 4
)

func (s AttemptStatus) String() string {
	names := [...]string{"Submitting", "Succeeded", "Failed", "Compensated", "Orphaned"}
	if int(s) < 0 || int(s) >= len(names) {
		return "Submitting"
	}
	return names[s]
}

func (s AttemptStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s AttemptStatus) Value() (driver.Value, error) {
	return int64(s), nil
}

func (s *AttemptStatus) Scan(value interface{}) error {
	if value == nil {
		*s = AttemptStatusSubmitting
		return nil
	}
	switch v := value.(type) {
	case int64:
		*s = AttemptStatus(v)
	case int32:
		*s = AttemptStatus(v)
	case int:
		*s = AttemptStatus(v)
	}
	return nil
}
