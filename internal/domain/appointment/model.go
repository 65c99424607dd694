package appointment

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Doctor is a directory entry users pick from when booking.
type Doctor struct {
	ID         uuid.UUID `db:"id" json:"id"`
	Name       string    `db:"name" json:"name"`
	Contact    string    `db:"contact" json:"contact"`
	Specialty  string    `db:"specialty" json:"specialty"`
	Experience int       `db:"experience" json:"experience"`
	Rating     float32   `db:"rating" json:"rating"`
}

// Appointment is a booked consultation. Date and Time are stored in the
// display formats the booking screens use: "dd-mm-yyyy" and 24-hour "HH:mm".
type Appointment struct {
	AppointmentID uuid.UUID `db:"appointment_id" json:"appointmentId"`
	UserID        string    `db:"user_id" json:"userId"`
	DoctorName    string    `db:"doctor_name" json:"doctorName"`
	Date          string    `db:"date" json:"date"`
	Time          string    `db:"time" json:"time"`
	CreatedAt     time.Time `db:"created_at" json:"createdAt"`
}

const dateTimeLayout = "02-01-2006 15:04"

// StartsAt combines the stored date and time strings into a local-time
// instant.
func (a *Appointment) StartsAt() (time.Time, error) {
	t, err := time.ParseInLocation(dateTimeLayout, a.Date+" "+a.Time, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("appointment %s has unparseable schedule %q %q: %w",
			a.AppointmentID, a.Date, a.Time, err)
	}
	return t, nil
}
