package patients

import (
	"regexp"
	"strings"
	"time"

	"github.com/Raheemullah8/hms-portal/internal/models"
	"github.com/Raheemullah8/hms-portal/internal/transport"
)

// EmergencyContact is who to call for a patient.
type EmergencyContact struct {
	Name     string `json:"name,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Relation string `json:"relation,omitempty"`
}

// Patient is a patient document with its user populated under userId.
type Patient struct {
	ID               string            `json:"_id"`
	User             models.UserRef    `json:"userId"`
	BloodGroup       string            `json:"bloodGroup,omitempty"`
	Allergies        []string          `json:"allergies,omitempty"`
	EmergencyContact *EmergencyContact `json:"emergencyContact,omitempty"`
	CreatedAt        time.Time         `json:"createdAt"`
}

func (p Patient) Name() string {
	if p.User.Name != "" {
		return p.User.Name
	}
	return p.ID
}

func (p Patient) Email() string { return p.User.Email }

func (p Patient) Active() bool { return p.User.Active() }

type PatientList struct {
	Patients []Patient `json:"patients"`
}

type PatientData struct {
	Patient Patient `json:"patient"`
}

type (
	// ProfileResponse carries the patient directly under data.
	ProfileResponse = transport.Envelope[Patient]
	ListResponse    = transport.Envelope[PatientList]
	PatientResponse = transport.Envelope[PatientData]
)

var (
	phonePattern = regexp.MustCompile(`^[0-9]{10}$`)
	bloodGroups  = map[string]bool{"A+": true, "A-": true, "B+": true, "B-": true, "AB+": true, "AB-": true, "O+": true, "O-": true}
)

// UpdateProfileRequest is the body of PUT /patient/profile.
type UpdateProfileRequest struct {
	Name             string            `json:"name,omitempty"`
	Phone            string            `json:"phone,omitempty"`
	Address          string            `json:"address,omitempty"`
	DateOfBirth      string            `json:"dateOfBirth,omitempty"`
	Gender           string            `json:"gender,omitempty"`
	ProfileImage     string            `json:"profileImage,omitempty"`
	BloodGroup       string            `json:"bloodGroup,omitempty"`
	Allergies        []string          `json:"allergies,omitempty"`
	EmergencyContact *EmergencyContact `json:"emergencyContact,omitempty"`
}

// Normalize trims free text and drops blank allergies.
func (r UpdateProfileRequest) Normalize() UpdateProfileRequest {
	r.Name = strings.TrimSpace(r.Name)
	r.Phone = strings.TrimSpace(r.Phone)
	r.BloodGroup = strings.ToUpper(strings.TrimSpace(r.BloodGroup))
	var allergies []string
	for _, a := range r.Allergies {
		if a = strings.TrimSpace(a); a != "" {
			allergies = append(allergies, a)
		}
	}
	r.Allergies = allergies
	return r
}

func (r UpdateProfileRequest) Validate() *transport.Error {
	fields := map[string]string{}
	if r.Phone != "" && !phonePattern.MatchString(r.Phone) {
		fields["phone"] = "Phone number must be 10 digits"
	}
	if r.BloodGroup != "" && !bloodGroups[r.BloodGroup] {
		fields["bloodGroup"] = "Unknown blood group"
	}
	if ec := r.EmergencyContact; ec != nil && ec.Phone != "" && !phonePattern.MatchString(ec.Phone) {
		fields["emergencyContact.phone"] = "Emergency contact phone must be 10 digits"
	}
	if len(fields) > 0 {
		return transport.Validation(fields)
	}
	return nil
}

// AdminUpdate is PUT /patient/:id.
type AdminUpdate struct {
	ID   string
	Data AdminUpdateRequest
}

// AdminUpdateRequest is what an admin may change, including the account's
// active flag.
type AdminUpdateRequest struct {
	UpdateProfileRequest
	IsActive *bool `json:"isActive,omitempty"`
}
