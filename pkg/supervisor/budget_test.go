package supervisor

import (
	"testing"
	"time"
)

func TestRestartBudget_Allow(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		max      int
		restarts []time.Duration
		want     []bool
	}{
		{
			name:     "three restarts fit in five minutes",
			max:      3,
			restarts: []time.Duration{0, time.Minute, 2 * time.Minute},
			want:     []bool{true, true, true},
		},
		{
			name:     "fourth restart inside window is refused",
			max:      3,
			restarts: []time.Duration{0, time.Minute, 2 * time.Minute, 3 * time.Minute},
			want:     []bool{true, true, true, false},
		},
		{
			name:     "old restarts leave the window",
			max:      3,
			restarts: []time.Duration{0, time.Minute, 2 * time.Minute, 5*time.Minute + time.Second},
			want:     []bool{true, true, true, true},
		},
		{
			name:     "refused restart is not counted",
			max:      1,
			restarts: []time.Duration{0, time.Minute, 5*time.Minute + time.Second},
			want:     []bool{true, false, true},
		},
		{
			name:     "zero budget refuses everything",
			max:      0,
			restarts: []time.Duration{0},
			want:     []bool{false},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewRestartBudget(tt.max, 5*time.Minute)
			for i, offset := range tt.restarts {
				if got := b.Allow(base.Add(offset)); got != tt.want[i] {
					t.Errorf("Allow(+%v) = %v, want %v", offset, got, tt.want[i])
				}
			}
		})
	}
}

func TestRestartBudget_Used(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	b := NewRestartBudget(3, 5*time.Minute)

	b.Allow(base)
	b.Allow(base.Add(time.Minute))

	if got := b.Used(base.Add(2 * time.Minute)); got != 2 {
		t.Errorf("Used() = %d, want 2", got)
	}
	if got := b.Used(base.Add(5*time.Minute + 30*time.Second)); got != 1 {
		t.Errorf("Used() after first expiry = %d, want 1", got)
	}
}
