package domain

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

var fieldValidator = validator.New()

// Registration is the normalized input of a sign-up request.
type Registration struct {
	FullName  string
	Username  string
	Email     string
	Password  string
	HasAvatar bool
}

// Normalize trims every field and lower-cases username and email.
func (r *Registration) Normalize() {
	r.FullName = strings.TrimSpace(r.FullName)
	r.Username = NormalizeLogin(r.Username)
	r.Email = NormalizeLogin(r.Email)
}

// NormalizeLogin returns the canonical stored form of a username or email.
func NormalizeLogin(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// ValidateRegistration reports every missing or malformed sign-up field.
func ValidateRegistration(r Registration) error {
	fields := map[string]string{}
	required(fields, "fullName", r.FullName)
	username(fields, "username", r.Username)
	required(fields, "password", r.Password)
	email(fields, "email", r.Email)
	if !r.HasAvatar {
		fields["avatar"] = "avatar file is required"
	}
	return result(fields)
}

// ValidateAccountUpdate checks the editable profile fields.
func ValidateAccountUpdate(fullName, emailAddr string) error {
	fields := map[string]string{}
	required(fields, "fullName", fullName)
	email(fields, "email", emailAddr)
	return result(fields)
}

// ValidatePasswordChange checks both halves of a password change request.
func ValidatePasswordChange(oldPassword, newPassword string) error {
	fields := map[string]string{}
	required(fields, "oldPassword", oldPassword)
	required(fields, "newPassword", newPassword)
	return result(fields)
}

func required(fields map[string]string, name, value string) {
	if strings.TrimSpace(value) == "" {
		fields[name] = name + " is required"
	}
}

// username rejects '@'; usernames and emails must stay disjoint for login
// lookups.
func username(fields map[string]string, name, value string) {
	required(fields, name, value)
	if strings.Contains(value, "@") {
		fields[name] = name + " must not contain '@'"
	}
}

func email(fields map[string]string, name, value string) {
	if strings.TrimSpace(value) == "" {
		fields[name] = name + " is required"
		return
	}
	if err := fieldValidator.Var(value, "email"); err != nil {
		fields[name] = name + " must be a valid email"
	}
}

func result(fields map[string]string) error {
	if len(fields) == 0 {
		return nil
	}
	return &ValidationError{Fields: fields}
}
