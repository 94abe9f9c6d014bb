package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Importance levels accepted on the notification intake.
type Importance string

const (
	ImportanceLow    Importance = "low"
	ImportanceNormal Importance = "normal"
	ImportanceHigh   Importance = "high"
)

// ErrInvalidPayload is returned when a notification body does not decode.
var ErrInvalidPayload = errors.New("notify: invalid payload")

// Notification is a decoded intake message.
type Notification struct {
	Summary    string
	Message    string
	Importance Importance
}

// Sender delivers a notification to the desktop.
type Sender interface {
	Notify(ctx context.Context, n Notification) error
}

// wireNotification mirrors the JSON body. Pointers tell missing fields from empty ones.
type wireNotification struct {
	Summary    *string `json:"summary"`
	Message    *string `json:"message"`
	Importance *string `json:"importance"`
}

// Parse decodes a notification body.
//
// summary and message are required. importance is optional and defaults
// to normal; an unrecognised value also maps to normal.
func Parse(payload []byte) (Notification, error) {
	var w wireNotification
	if err := json.Unmarshal(payload, &w); err != nil {
		return Notification{}, fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}
	if w.Summary == nil {
		return Notification{}, fmt.Errorf("%w: missing summary", ErrInvalidPayload)
	}
	if w.Message == nil {
		return Notification{}, fmt.Errorf("%w: missing message", ErrInvalidPayload)
	}

	n := Notification{
		Summary:    *w.Summary,
		Message:    *w.Message,
		Importance: ImportanceNormal,
	}
	if w.Importance != nil {
		n.Importance = ParseImportance(*w.Importance)
	}
	return n, nil
}

// ParseImportance maps s to an Importance, defaulting to normal.
func ParseImportance(s string) Importance {
	switch Importance(strings.ToLower(strings.TrimSpace(s))) {
	case ImportanceLow:
		return ImportanceLow
	case ImportanceHigh:
		return ImportanceHigh
	default:
		return ImportanceNormal
	}
}

// Urgency returns the freedesktop urgency byte: 0 low, 1 normal, 2 critical.
func (i Importance) Urgency() byte {
	switch i {
	case ImportanceLow:
		return 0
	case ImportanceHigh:
		return 2
	default:
		return 1
	}
}

// Icon returns the freedesktop icon name for the importance.
func (i Importance) Icon() string {
	if i == ImportanceHigh {
		return "dialog-warning"
	}
	return "dialog-information"
}

// ExpireTimeout returns the display time in milliseconds. High importance
// notifications stay until dismissed (0).
func (i Importance) ExpireTimeout() int32 {
	switch i {
	case ImportanceLow:
		return 5000
	case ImportanceHigh:
		return 0
	default:
		return 10000
	}
}
