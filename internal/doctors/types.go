package doctors

import (
	"fmt"
	"strings"
	"time"

	"github.com/Raheemullah8/hms-portal/internal/models"
	"github.com/Raheemullah8/hms-portal/internal/transport"
)

// Weekdays in the order the availability template lists them.
var Weekdays = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// AvailabilitySlot is one day of a doctor's weekly template.
type AvailabilitySlot struct {
	Day         string `json:"day"`
	StartTime   string `json:"startTime"`
	EndTime     string `json:"endTime"`
	IsAvailable bool   `json:"isAvailable"`
}

// Doctor is a doctor document with its user populated under userId.
type Doctor struct {
	ID                string             `json:"_id"`
	User              models.UserRef     `json:"userId"`
	Specialization    string             `json:"specialization,omitempty"`
	Qualification     string             `json:"qualification,omitempty"`
	Experience        int                `json:"experience,omitempty"`
	ConsultationFee   float64            `json:"consultationFee,omitempty"`
	RoomNumber        string             `json:"roomNumber,omitempty"`
	MaxPatientsPerDay int                `json:"maxPatientsPerDay,omitempty"`
	TodayPatientCount int                `json:"todayPatientCount,omitempty"`
	IsAvailable       bool               `json:"isAvailable"`
	AvailableSlots    []AvailabilitySlot `json:"availableSlots,omitempty"`
	CreatedAt         time.Time          `json:"createdAt,omitempty"`
}

// Name is the doctor's display name.
func (d Doctor) Name() string {
	if d.User.Name != "" {
		return d.User.Name
	}
	return d.ID
}

// DisplaySpecialization prefers the doctor document, then the user.
func (d Doctor) DisplaySpecialization() string {
	if d.Specialization != "" {
		return d.Specialization
	}
	return d.User.Specialization
}

// Active reports the user account's active flag.
func (d Doctor) Active() bool { return d.User.Active() }

// DoctorList is the data of GET /doctors/alldoctors.
type DoctorList struct {
	Doctors []Doctor `json:"doctors"`
}

// DoctorData is the data of the single doctor endpoints.
type DoctorData struct {
	Doctor Doctor `json:"doctor"`
}

// AvailabilityData is the data of GET/PUT /doctors/availability.
type AvailabilityData struct {
	AvailableSlots []AvailabilitySlot `json:"availableSlots"`
	IsAvailable    bool               `json:"isAvailable"`
}

type (
	ListResponse         = transport.Envelope[DoctorList]
	DoctorResponse       = transport.Envelope[DoctorData]
	AvailabilityResponse = transport.Envelope[AvailabilityData]
)

// UpdateProfileRequest is the body of PUT /doctors/profile. Empty fields
// are left unchanged by the backend.
type UpdateProfileRequest struct {
	Name              string  `json:"name,omitempty"`
	Phone             string  `json:"phone,omitempty"`
	Address           string  `json:"address,omitempty"`
	ProfileImage      string  `json:"profileImage,omitempty"`
	Specialization    string  `json:"specialization,omitempty"`
	Qualification     string  `json:"qualification,omitempty"`
	Experience        int     `json:"experience,omitempty"`
	ConsultationFee   float64 `json:"consultationFee,omitempty"`
	RoomNumber        string  `json:"roomNumber,omitempty"`
	MaxPatientsPerDay int     `json:"maxPatientsPerDay,omitempty"`
}

func (r UpdateProfileRequest) Validate() *transport.Error {
	fields := map[string]string{}
	if r.Experience < 0 {
		fields["experience"] = "Experience cannot be negative"
	}
	if r.ConsultationFee < 0 {
		fields["consultationFee"] = "Consultation fee cannot be negative"
	}
	if r.MaxPatientsPerDay < 0 {
		fields["maxPatientsPerDay"] = "Max patients per day cannot be negative"
	}
	if len(fields) > 0 {
		return transport.Validation(fields)
	}
	return nil
}

// UpdateAvailabilityRequest is the body of PUT /doctors/availability.
type UpdateAvailabilityRequest struct {
	AvailableSlots []AvailabilitySlot `json:"availableSlots"`
	IsAvailable    bool               `json:"isAvailable"`
}

// Validate checks day names, duplicates and the time window of every
// available day.
func (r UpdateAvailabilityRequest) Validate() *transport.Error {
	fields := map[string]string{}
	seen := make(map[string]bool, len(r.AvailableSlots))
	for i, slot := range r.AvailableSlots {
		field := fmt.Sprintf("availableSlots[%d]", i)
		if !IsWeekday(slot.Day) {
			fields[field] = fmt.Sprintf("%q is not a weekday", slot.Day)
			continue
		}
		if seen[slot.Day] {
			fields[field] = fmt.Sprintf("%s is listed twice", slot.Day)
			continue
		}
		seen[slot.Day] = true
		if !slot.IsAvailable {
			continue
		}
		start, err := ParseClock(slot.StartTime)
		if err != nil {
			fields[field] = fmt.Sprintf("%s start time: %v", slot.Day, err)
			continue
		}
		end, err := ParseClock(slot.EndTime)
		if err != nil {
			fields[field] = fmt.Sprintf("%s end time: %v", slot.Day, err)
			continue
		}
		if !start.Before(end) {
			fields[field] = fmt.Sprintf("%s must start before it ends", slot.Day)
		}
	}
	if len(fields) > 0 {
		return transport.Validation(fields)
	}
	return nil
}

// IsWeekday reports whether day is a full English weekday name.
func IsWeekday(day string) bool {
	for _, d := range Weekdays {
		if d == day {
			return true
		}
	}
	return false
}

const clockLayout = "03:04 PM"

// ParseClock parses an "hh:mm AM/PM" time of day.
func ParseClock(value string) (time.Time, error) {
	t, err := time.Parse(clockLayout, strings.ToUpper(strings.TrimSpace(value)))
	if err != nil {
		return time.Time{}, fmt.Errorf("want hh:mm AM/PM, got %q", value)
	}
	return t, nil
}

// DefaultWeeklyTemplate is the schedule offered before a doctor sets one.
func DefaultWeeklyTemplate() []AvailabilitySlot {
	out := make([]AvailabilitySlot, 0, len(Weekdays))
	for _, day := range Weekdays[:5] {
		out = append(out, AvailabilitySlot{Day: day, StartTime: "09:00 AM", EndTime: "05:00 PM", IsAvailable: true})
	}
	out = append(out,
		AvailabilitySlot{Day: "Saturday", StartTime: "10:00 AM", EndTime: "02:00 PM", IsAvailable: false},
		AvailabilitySlot{Day: "Sunday", IsAvailable: false},
	)
	return out
}

// TimeOptions lists the selectable times, 08:00 AM to 06:00 PM every 30 minutes.
func TimeOptions() []string {
	start, _ := ParseClock("08:00 AM")
	end, _ := ParseClock("06:00 PM")
	var out []string
	for t := start; !t.After(end); t = t.Add(30 * time.Minute) {
		out = append(out, t.Format(clockLayout))
	}
	return out
}
