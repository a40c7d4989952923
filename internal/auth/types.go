package auth

import (
	"regexp"
	"strings"

	"github.com/Raheemullah8/hms-portal/internal/models"
	"github.com/Raheemullah8/hms-portal/internal/transport"
)

var (
	emailPattern = regexp.MustCompile(`^\S+@\S+$`)
	phonePattern = regexp.MustCompile(`^[0-9]{10}$`)
)

const minPasswordLen = 6

// Genders offered by the registration form.
var Genders = []string{"male", "female", "other"}

// Response is what both auth endpoints return. Unlike the resource
// endpoints, the user and token sit at the top level.
type Response struct {
	Success bool                `json:"success"`
	Message string              `json:"message,omitempty"`
	User    *models.UserProfile `json:"user"`
	Token   string              `json:"token"`
}

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r LoginRequest) Validate() *transport.Error {
	fields := map[string]string{}
	validateEmail(fields, r.Email)
	validatePassword(fields, r.Password)
	if len(fields) > 0 {
		return transport.Validation(fields)
	}
	return nil
}

// RegisterRequest is the body of POST /auth/register. ProfileImage is a
// reference string; uploads are not handled here.
type RegisterRequest struct {
	Name         string      `json:"name"`
	Email        string      `json:"email"`
	Password     string      `json:"password"`
	Phone        string      `json:"phone"`
	Address      string      `json:"address"`
	DateOfBirth  string      `json:"dateOfBirth"`
	Gender       string      `json:"gender"`
	ProfileImage string      `json:"profileImage,omitempty"`
	Role         models.Role `json:"role"`
}

func (r RegisterRequest) Validate() *transport.Error {
	fields := map[string]string{}
	if strings.TrimSpace(r.Name) == "" {
		fields["name"] = "Name is required"
	}
	validateEmail(fields, r.Email)
	validatePassword(fields, r.Password)
	switch {
	case r.Phone == "":
		fields["phone"] = "Phone number is required"
	case !phonePattern.MatchString(r.Phone):
		fields["phone"] = "Invalid phone number"
	}
	if strings.TrimSpace(r.Address) == "" {
		fields["address"] = "Address is required"
	}
	if strings.TrimSpace(r.DateOfBirth) == "" {
		fields["dateOfBirth"] = "Date of birth is required"
	}
	if !validGender(r.Gender) {
		fields["gender"] = "Gender is required"
	}
	if len(fields) > 0 {
		return transport.Validation(fields)
	}
	return nil
}

func validateEmail(fields map[string]string, email string) {
	switch {
	case email == "":
		fields["email"] = "Email is required"
	case !emailPattern.MatchString(email):
		fields["email"] = "Invalid email address"
	}
}

func validatePassword(fields map[string]string, password string) {
	switch {
	case password == "":
		fields["password"] = "Password is required"
	case len(password) < minPasswordLen:
		fields["password"] = "Password must be at least 6 characters"
	}
}

func validGender(g string) bool {
	for _, known := range Genders {
		if g == known {
			return true
		}
	}
	return false
}
