package models

import (
	"testing"
	"time"
)

func TestValidFadeWindow(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		name      string
		expiresAt time.Time
		want      bool
	}{
		{"one second ahead", now.Add(time.Second), true},
		{"exactly at the limit", now.Add(MaxFadeLifetime), true},
		{"one millisecond past the limit", now.Add(MaxFadeLifetime + time.Millisecond), false},
		{"equal to now", now, false},
		{"in the past", now.Add(-time.Hour), false},
		{"zero time", time.Time{}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ValidFadeWindow(tc.expiresAt, now); got != tc.want {
				t.Errorf("ValidFadeWindow(%v) = %v, want %v", tc.expiresAt, got, tc.want)
			}
		})
	}
}

func TestFadeExpired(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	fade := Fade{ExpiresAt: now.Add(time.Minute)}
	if fade.Expired(now) {
		t.Error("fade with a future deadline reported expired")
	}
	// The boundary instant itself counts as expired.
	if !fade.Expired(now.Add(time.Minute)) {
		t.Error("fade at its deadline not reported expired")
	}
	if !fade.Expired(now.Add(2 * time.Minute)) {
		t.Error("fade past its deadline not reported expired")
	}
}
