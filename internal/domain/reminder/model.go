package reminder

import (
	"fmt"
	"time"
)

// Reminder types. A reminder is linked either to a booked appointment or to
// a medication from a past order.
const (
	TypeAppointment = "Appointment"
	TypeMedication  = "Medication"
)

// StatusScheduled is the only status a reminder record carries. The active
// view is a time projection and deletion removes the row, so no further
// transitions are recorded.
const StatusScheduled = "Scheduled"

// Reminder maps to the reminder table. Time is the absolute fire instant in
// epoch milliseconds.
type Reminder struct {
	ReminderID string `db:"reminder_id" json:"reminderId"`
	Type       string `db:"type" json:"type"`
	UserID     string `db:"user_id" json:"userId"`
	LinkedID   string `db:"linked_id" json:"linkedId"`
	Time       int64  `db:"time_ms" json:"time"`
	Status     string `db:"status" json:"status"`
}

// TaskPayload is the deferred task payload, delivered once at or after
// ReminderTime.
type TaskPayload struct {
	ReminderID   string `json:"reminderId"`
	ReminderTime int64  `json:"reminderTime"`
	ReminderType string `json:"reminderType"`
}

// ValidType reports whether t is a known reminder type.
func ValidType(t string) bool {
	return t == TypeAppointment || t == TypeMedication
}

const dateTimeLayout = "02-01-2006 15:04"

// CombineDateTime combines a "dd-mm-yyyy" date and a 24-hour "HH:mm" time
// into a single local-time instant.
func CombineDateTime(date, timeOfDay string) (time.Time, error) {
	t, err := time.ParseInLocation(dateTimeLayout, date+" "+timeOfDay, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("combine date/time %q %q: %w", date, timeOfDay, err)
	}
	return t, nil
}

// OffsetTime computes the fire instant for an offset reminder: the combined
// anchor instant minus minutesBefore minutes, in epoch milliseconds. It backs
// the "On Time" (0), "30 Minutes Before" (30), and "1 Hour Before" (60)
// options.
func OffsetTime(date, timeOfDay string, minutesBefore int) (int64, error) {
	anchor, err := CombineDateTime(date, timeOfDay)
	if err != nil {
		return 0, err
	}
	return anchor.Add(-time.Duration(minutesBefore) * time.Minute).UnixMilli(), nil
}
