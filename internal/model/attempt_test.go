package model

import "testing"

func TestAttemptTransitions(t *testing.T) {
	tests := []struct {
		status         string
		canScore       bool
		canPublish     bool
		canInvalidate  bool
	}{
		{AttemptPrinted, true, false, true},
		{AttemptScanned, true, false, true},
		{AttemptScored, true, true, true},
		{AttemptPublished, false, false, false},
		{AttemptInvalidated, false, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			if got := CanApplyScore(tt.status); got != tt.canScore {
				t.Errorf("CanApplyScore(%s) = %v, want %v", tt.status, got, tt.canScore)
			}
			if got := CanPublish(tt.status); got != tt.canPublish {
				t.Errorf("CanPublish(%s) = %v, want %v", tt.status, got, tt.canPublish)
			}
			if got := CanInvalidate(tt.status); got != tt.canInvalidate {
				t.Errorf("CanInvalidate(%s) = %v, want %v", tt.status, got, tt.canInvalidate)
			}
		})
	}
}

func TestValidEventType(t *testing.T) {
	for _, v := range []string{EventStartWork, EventSubmit, EventExitRoom, EventEnterRoom} {
		if !ValidEventType(v) {
			t.Errorf("ValidEventType(%s) = false", v)
		}
	}
	for _, v := range []string{"", "pause", "START_WORK"} {
		if ValidEventType(v) {
			t.Errorf("ValidEventType(%q) = true", v)
		}
	}
}
