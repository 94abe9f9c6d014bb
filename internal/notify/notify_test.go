package notify

import (
	"errors"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    Notification
		wantErr bool
	}{
		{
			name:    "importance defaults to normal",
			payload: `{"summary":"Hi","message":"Hello"}`,
			want:    Notification{Summary: "Hi", Message: "Hello", Importance: ImportanceNormal},
		},
		{
			name:    "high importance",
			payload: `{"summary":"Door","message":"Front door open","importance":"high"}`,
			want:    Notification{Summary: "Door", Message: "Front door open", Importance: ImportanceHigh},
		},
		{
			name:    "low importance",
			payload: `{"summary":"s","message":"m","importance":"low"}`,
			want:    Notification{Summary: "s", Message: "m", Importance: ImportanceLow},
		},
		{
			name:    "unknown importance falls back to normal",
			payload: `{"summary":"s","message":"m","importance":"urgent"}`,
			want:    Notification{Summary: "s", Message: "m", Importance: ImportanceNormal},
		},
		{
			name:    "empty strings are present",
			payload: `{"summary":"","message":""}`,
			want:    Notification{Importance: ImportanceNormal},
		},
		{name: "missing message", payload: `{"summary":"Hi"}`, wantErr: true},
		{name: "missing summary", payload: `{"message":"Hello"}`, wantErr: true},
		{name: "malformed json", payload: `{"summary":`, wantErr: true},
		{name: "not an object", payload: `"hello"`, wantErr: true},
		{name: "wrong field type", payload: `{"summary":1,"message":"m"}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse([]byte(tt.payload))
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidPayload) {
					t.Errorf("Parse() error = %v, want ErrInvalidPayload", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Parse() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestImportanceMapping(t *testing.T) {
	tests := []struct {
		importance Importance
		urgency    byte
		icon       string
		timeout    int32
	}{
		{ImportanceLow, 0, "dialog-information", 5000},
		{ImportanceNormal, 1, "dialog-information", 10000},
		{ImportanceHigh, 2, "dialog-warning", 0},
	}

	for _, tt := range tests {
		t.Run(string(tt.importance), func(t *testing.T) {
			if got := tt.importance.Urgency(); got != tt.urgency {
				t.Errorf("Urgency() = %d, want %d", got, tt.urgency)
			}
			if got := tt.importance.Icon(); got != tt.icon {
				t.Errorf("Icon() = %q, want %q", got, tt.icon)
			}
			if got := tt.importance.ExpireTimeout(); got != tt.timeout {
				t.Errorf("ExpireTimeout() = %d, want %d", got, tt.timeout)
			}
		})
	}
}
