package dates

import (
	"errors"
	"testing"
	"time"
)

func TestParseDateOnly(t *testing.T) {
	got, err := Parse("2024-01-10")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	want := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("expected %s, got %s", want, got)
	}
}

func TestParseISODateTimeTruncatesToDay(t *testing.T) {
	got, err := Parse("2024-03-05T22:15:00Z")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if Format(got) != "2024-03-05" {
		t.Fatalf("expected 2024-03-05, got %s", Format(got))
	}
}

func TestParseBlankIsNil(t *testing.T) {
	got, err := Parse("   ")
	if err != nil || got != nil {
		t.Fatalf("expected nil, nil; got %v, %v", got, err)
	}
}

func TestParseInvalid(t *testing.T) {
	_, err := Parse("10/01/2024")
	if !errors.Is(err, ErrInvalidDate) {
		t.Fatalf("expected ErrInvalidDate, got %v", err)
	}
}

func TestDaysBetween(t *testing.T) {
	from := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 6, 2, 23, 59, 0, 0, time.UTC)
	if got := DaysBetween(from, to); got != 1 {
		t.Fatalf("expected 1, got %d", got)
	}
	if got := DaysBetween(to, from); got != -1 {
		t.Fatalf("expected -1, got %d", got)
	}
	leap := time.Date(2023, 6, 2, 0, 0, 0, 0, time.UTC)
	if got := DaysBetween(leap, to); got != 366 {
		t.Fatalf("expected 366 across leap day, got %d", got)
	}
}

func TestFormatNil(t *testing.T) {
	if Format(nil) != "" {
		t.Fatalf("expected empty string for nil")
	}
}
