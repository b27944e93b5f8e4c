package models

import "testing"

func TestPriority_Valid(t *testing.T) {
	tests := []struct {
		priority Priority
		valid    bool
	}{
		{PriorityHigh, true},
		{PriorityMedium, true},
		{PriorityLow, true},
		{"HIGH", false},
		{"High", false},
		{"urgent", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := tt.priority.Valid(); got != tt.valid {
			t.Errorf("%q: expected valid=%v, got %v", tt.priority, tt.valid, got)
		}
	}
}

func TestPriority_String(t *testing.T) {
	if got := PriorityMedium.String(); got != "medium" {
		t.Errorf("expected medium, got %q", got)
	}
}
