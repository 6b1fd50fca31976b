package domain

import (
	"errors"
	"testing"
	"time"
)

func TestParseDuration(t *testing.T) {
	tests := []struct {
		token string
		want  Duration
	}{
		{"1w", Duration{Unit: DurationWeek, Count: 1}},
		{"2w", Duration{Unit: DurationWeek, Count: 2}},
		{"1m", Duration{Unit: DurationMonth, Count: 1}},
		{"12m", Duration{Unit: DurationMonth, Count: 12}},
		{"1y", Duration{Unit: DurationYear, Count: 1}},
		{"1000y", Duration{Unit: DurationYear, Count: 1000}},
	}

	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			got, err := ParseDuration(tt.token)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("want %+v, got %+v", tt.want, got)
			}
			if got.String() != tt.token {
				t.Errorf("want String() %q, got %q", tt.token, got.String())
			}
		})
	}
}

func TestParseDuration_Invalid(t *testing.T) {
	tokens := []string{"", "w", "2", "2d", "0w", "-1w", "+1w", "1.5m", "abcy", "1 y", "1001y", "2W", "99999999999999999999w"}

	for _, token := range tokens {
		t.Run(token, func(t *testing.T) {
			_, err := ParseDuration(token)
			if !errors.Is(err, ErrInvalidDuration) {
				t.Errorf("want ErrInvalidDuration for %q, got %v", token, err)
			}
		})
	}
}

func TestDuration_ExpiresAt(t *testing.T) {
	from := time.Date(2024, 2, 20, 10, 30, 0, 0, time.UTC)

	tests := []struct {
		token string
		want  time.Time
	}{
		{"2w", from.Add(14 * 24 * time.Hour)},
		{"1m", from.Add(30 * 24 * time.Hour)},
		// うるう年でも365日固定
		{"1y", from.Add(365 * 24 * time.Hour)},
		{"3y", from.Add(3 * 365 * 24 * time.Hour)},
	}

	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			d, err := ParseDuration(tt.token)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			got := d.ExpiresAt(from)
			if !got.Equal(tt.want) {
				t.Errorf("want %s, got %s", tt.want, got)
			}
		})
	}

	// from は変更されない
	if !from.Equal(time.Date(2024, 2, 20, 10, 30, 0, 0, time.UTC)) {
		t.Errorf("from was modified: %s", from)
	}
}

func TestDuration_ExpiresAt_NonUTCLocation(t *testing.T) {
	loc := time.FixedZone("JST", 9*60*60)
	from := time.Date(2024, 3, 1, 0, 0, 0, 0, loc)

	d := Duration{Unit: DurationWeek, Count: 1}
	got := d.ExpiresAt(from)
	if got.Sub(from) != 7*24*time.Hour {
		t.Errorf("want 168h, got %s", got.Sub(from))
	}
	if got.Location() != time.UTC {
		t.Errorf("want UTC, got %s", got.Location())
	}
}
