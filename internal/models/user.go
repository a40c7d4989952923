package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Role tags a user profile.
type Role string

const (
	RolePatient Role = "patient"
	RoleDoctor  Role = "doctor"
	RoleAdmin   Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RolePatient, RoleDoctor, RoleAdmin:
		return true
	}
	return false
}

// LandingRoute is the dashboard a freshly authenticated user is sent to.
// Unknown roles land on the patient dashboard.
func (r Role) LandingRoute() string {
	switch r {
	case RoleDoctor:
		return "/doctor/dashboard"
	case RoleAdmin:
		return "/admin/dashboard"
	default:
		return "/patient/dashboard"
	}
}

// UserProfile is the user payload returned by the backend. The client treats it
// as opaque: known fields are decoded for display and everything else is kept
// in Extra so a round trip through the session store loses nothing.
type UserProfile struct {
	ID             string `json:"_id,omitempty"`
	Name           string `json:"name,omitempty"`
	Email          string `json:"email,omitempty"`
	Phone          string `json:"phone,omitempty"`
	Role           Role   `json:"role,omitempty"`
	ProfileImage   string `json:"profileImage,omitempty"`
	Address        string `json:"address,omitempty"`
	DateOfBirth    string `json:"dateOfBirth,omitempty"`
	Gender         string `json:"gender,omitempty"`
	Specialization string `json:"specialization,omitempty"`
	IsActive       *bool  `json:"isActive,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

// Active defaults to true when the backend omits the flag.
func (u *UserProfile) Active() bool {
	if u == nil || u.IsActive == nil {
		return true
	}
	return *u.IsActive
}

type userProfileAlias UserProfile

var knownUserFields = map[string]struct{}{
	"_id": {}, "name": {}, "email": {}, "phone": {}, "role": {}, "profileImage": {},
	"address": {}, "dateOfBirth": {}, "gender": {}, "specialization": {}, "isActive": {},
}

// UnmarshalJSON decodes the known fields and stashes the rest in Extra.
func (u *UserProfile) UnmarshalJSON(data []byte) error {
	var alias userProfileAlias
	if err := json.Unmarshal(data, &alias); err != nil {
		return fmt.Errorf("models: decode user profile: %w", err)
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("models: decode user profile: %w", err)
	}
	for key := range knownUserFields {
		delete(raw, key)
	}
	if len(raw) == 0 {
		raw = nil
	}
	*u = UserProfile(alias)
	u.Extra = raw
	return nil
}

// MarshalJSON writes the known fields merged with Extra.
func (u UserProfile) MarshalJSON() ([]byte, error) {
	base, err := json.Marshal(userProfileAlias(u))
	if err != nil {
		return nil, err
	}
	if len(u.Extra) == 0 {
		return base, nil
	}
	merged := make(map[string]json.RawMessage, len(u.Extra)+len(knownUserFields))
	for key, value := range u.Extra {
		if _, known := knownUserFields[key]; known {
			continue
		}
		merged[key] = value
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(base, &fields); err != nil {
		return nil, err
	}
	for key, value := range fields {
		merged[key] = value
	}
	return json.Marshal(merged)
}

// UserRef is a userId field that may arrive populated or as a bare id.
type UserRef struct {
	UserProfile
}

// UnmarshalJSON accepts a string id, null, or a user document.
func (r *UserRef) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	switch {
	case trimmed == "" || trimmed == "null":
		*r = UserRef{}
		return nil
	case strings.HasPrefix(trimmed, `"`):
		var id string
		if err := json.Unmarshal(data, &id); err != nil {
			return fmt.Errorf("models: decode user id: %w", err)
		}
		*r = UserRef{UserProfile: UserProfile{ID: id}}
		return nil
	}
	return r.UserProfile.UnmarshalJSON(data)
}
