package reminder

import (
	"testing"
	"time"
)

func TestCombineDateTime(t *testing.T) {
	got, err := CombineDateTime("25-12-2026", "09:30")
	if err != nil {
		t.Fatalf("combine: %v", err)
	}
	want := time.Date(2026, time.December, 25, 9, 30, 0, 0, time.Local)
	if !got.Equal(want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestCombineDateTime_RejectsBadInput(t *testing.T) {
	cases := []struct{ date, timeOfDay string }{
		{"2026-12-25", "09:30"}, // wrong date order
		{"25-12-2026", "9:30pm"},
		{"", "09:30"},
		{"25-12-2026", ""},
	}
	for _, tc := range cases {
		if _, err := CombineDateTime(tc.date, tc.timeOfDay); err == nil {
			t.Errorf("expected error for %q %q", tc.date, tc.timeOfDay)
		}
	}
}

func TestOffsetTime(t *testing.T) {
	anchor := time.Date(2026, time.December, 25, 9, 30, 0, 0, time.Local)

	cases := []struct {
		minutesBefore int
		want          time.Time
	}{
		{0, anchor},
		{30, anchor.Add(-30 * time.Minute)},
		{60, anchor.Add(-time.Hour)},
	}
	for _, tc := range cases {
		got, err := OffsetTime("25-12-2026", "09:30", tc.minutesBefore)
		if err != nil {
			t.Fatalf("offset %d: %v", tc.minutesBefore, err)
		}
		if got != tc.want.UnixMilli() {
			t.Errorf("offset %d: expected %d, got %d", tc.minutesBefore, tc.want.UnixMilli(), got)
		}
	}
}

func TestOffsetTime_BadDate(t *testing.T) {
	if _, err := OffsetTime("not-a-date", "09:30", 30); err == nil {
		t.Error("expected error for unparseable date")
	}
}

func TestValidType(t *testing.T) {
	if !ValidType(TypeAppointment) || !ValidType(TypeMedication) {
		t.Error("known types must validate")
	}
	if ValidType("Checkup") || ValidType("") {
		t.Error("unknown types must not validate")
	}
}
