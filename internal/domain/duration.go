package domain

import (
	"fmt"
	"strconv"
	"time"
)

// DurationUnit は有効期間の単位を表す。
type DurationUnit byte

const (
	// DurationWeek は7日単位。
	DurationWeek DurationUnit = 'w'
	// DurationMonth は30日単位（暦月ではない）。
	DurationMonth DurationUnit = 'm'
	// DurationYear は365日単位（うるう年は考慮しない）。
	DurationYear DurationUnit = 'y'
)

// MaxDurationCount は期間トークンで指定できる最大の数量。
const MaxDurationCount = 1000

// Duration は "<count><unit>" 形式の期間トークンを解析した値。
type Duration struct {
	Unit  DurationUnit
	Count int
}

// ParseDuration は "2w" / "1m" / "1y" 形式のトークンを解析する。
func ParseDuration(token string) (Duration, error) {
	if len(token) < 2 {
		return Duration{}, fmt.Errorf("%w: %q", ErrInvalidDuration, token)
	}

	unit := DurationUnit(token[len(token)-1])
	switch unit {
	case DurationWeek, DurationMonth, DurationYear:
	default:
		return Duration{}, fmt.Errorf("%w: %q", ErrInvalidDuration, token)
	}

	digits := token[:len(token)-1]
	for i := 0; i < len(digits); i++ {
		if digits[i] < '0' || digits[i] > '9' {
			return Duration{}, fmt.Errorf("%w: %q", ErrInvalidDuration, token)
		}
	}
	count, err := strconv.Atoi(digits)
	if err != nil || count < 1 || count > MaxDurationCount {
		return Duration{}, fmt.Errorf("%w: %q", ErrInvalidDuration, token)
	}

	return Duration{Unit: unit, Count: count}, nil
}

// Days は期間の日数を返す。
func (d Duration) Days() int {
	switch d.Unit {
	case DurationWeek:
		return 7 * d.Count
	case DurationMonth:
		return 30 * d.Count
	case DurationYear:
		return 365 * d.Count
	}
	return 0
}

// ExpiresAt は from から期間を加算した失効日時を返す。
// UTCで日数を加算するため、夏時間の影響を受けず常に24時間×日数となる。
func (d Duration) ExpiresAt(from time.Time) time.Time {
	return from.UTC().AddDate(0, 0, d.Days())
}

// String はトークン形式の文字列を返す。
func (d Duration) String() string {
	return strconv.Itoa(d.Count) + string(rune(d.Unit))
}
