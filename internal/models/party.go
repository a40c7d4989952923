package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Party is a reference the backend may send either as a bare id string or as a
// populated document. Populated doctor and patient documents nest the user
// under userId, which Party exposes as User.
type Party struct {
	ID             string       `json:"_id,omitempty"`
	Name           string       `json:"name,omitempty"`
	Email          string       `json:"email,omitempty"`
	Phone          string       `json:"phone,omitempty"`
	Specialization string       `json:"specialization,omitempty"`
	User           *UserProfile `json:"userId,omitempty"`
}

// DisplayName prefers the nested user's name.
func (p Party) DisplayName() string {
	if p.User != nil && p.User.Name != "" {
		return p.User.Name
	}
	if p.Name != "" {
		return p.Name
	}
	return p.ID
}

// DisplayEmail prefers the nested user's email.
func (p Party) DisplayEmail() string {
	if p.User != nil && p.User.Email != "" {
		return p.User.Email
	}
	return p.Email
}

// IsZero reports whether the reference carries nothing at all.
func (p Party) IsZero() bool {
	return p.ID == "" && p.Name == "" && p.Email == "" && p.User == nil
}

type partyAlias Party

// UnmarshalJSON accepts a string id, null, or an object. The nested userId
// may itself be a string id.
func (p *Party) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*p = Party{}
		return nil
	}
	if data[0] == '"' {
		var id string
		if err := json.Unmarshal(data, &id); err != nil {
			return fmt.Errorf("models: decode reference id: %w", err)
		}
		*p = Party{ID: id}
		return nil
	}

	var shadow struct {
		partyAlias
		User json.RawMessage `json:"userId,omitempty"`
	}
	if err := json.Unmarshal(data, &shadow); err != nil {
		return fmt.Errorf("models: decode reference: %w", err)
	}
	*p = Party(shadow.partyAlias)
	p.User = nil

	user := bytes.TrimSpace(shadow.User)
	switch {
	case len(user) == 0 || bytes.Equal(user, []byte("null")):
	case user[0] == '"':
		var id string
		if err := json.Unmarshal(user, &id); err != nil {
			return fmt.Errorf("models: decode user id: %w", err)
		}
		p.User = &UserProfile{ID: id}
	default:
		var profile UserProfile
		if err := json.Unmarshal(user, &profile); err != nil {
			return err
		}
		p.User = &profile
	}
	return nil
}
