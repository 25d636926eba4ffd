package domain

import (
	"time"

	"github.com/google/uuid"
)

// ActivityType groups audit entries.
type ActivityType string

const (
	ActivityValidation    ActivityType = "validation"
	ActivityExecution     ActivityType = "execution"
	ActivityConfiguration ActivityType = "configuration"
	ActivityGasCheck      ActivityType = "gas_check"
	ActivityNotification  ActivityType = "notification"
)

// ActivityLevel is the severity of an audit entry.
type ActivityLevel string

const (
	LevelInfo    ActivityLevel = "info"
	LevelWarning ActivityLevel = "warning"
	LevelError   ActivityLevel = "error"
	LevelSuccess ActivityLevel = "success"
)

// ActivityLog is one append-only audit entry.
type ActivityLog struct {
	ID        uuid.UUID
	UserID    string
	Type      ActivityType
	Level     ActivityLevel
	Message   string
	Metadata  map[string]any
	CreatedAt time.Time
}

// NewActivityLog builds an entry stamped now.
func NewActivityLog(userID string, typ ActivityType, level ActivityLevel, message string, metadata map[string]any) *ActivityLog {
	return &ActivityLog{
		ID:        uuid.New(),
		UserID:    userID,
		Type:      typ,
		Level:     level,
		Message:   message,
		Metadata:  metadata,
		CreatedAt: time.Now().UTC(),
	}
}
