package security

import (
	"testing"
	"time"
)

func TestIsExpired(t *testing.T) {
	tests := []struct {
		name      string
		expiresAt time.Time
		want      bool
	}{
		{"zero time never expires", time.Time{}, false},
		{"future deadline", time.Now().Add(time.Hour), false},
		{"long past deadline", time.Now().Add(-time.Hour), true},
		{"within grace period", time.Now().Add(-time.Second), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsExpired(tt.expiresAt); got != tt.want {
				t.Errorf("IsExpired() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsExpiredWithGracePeriod(t *testing.T) {
	justPast := time.Now().Add(-time.Second)

	if IsExpiredWithGracePeriod(justPast, 10*time.Second) {
		t.Error("deadline inside the grace period should not read as expired")
	}
	if !IsExpiredWithGracePeriod(justPast, 0) {
		t.Error("past deadline with zero grace should read as expired")
	}
}
