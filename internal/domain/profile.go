package domain

import (
	"fmt"
	"strings"
	"time"
)

type Profile struct {
	ID          string    `json:"id"`
	Username    string    `json:"username,omitempty"`
	FirstName   string    `json:"firstName,omitempty"`
	LastName    string    `json:"lastName,omitempty"`
	DateOfBirth string    `json:"dateOfBirth,omitempty"`
	AvatarURL   string    `json:"avatarUrl,omitempty"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// ProfileUpdate carries only the fields being changed.
type ProfileUpdate struct {
	Username    *string `json:"username,omitempty"`
	FirstName   *string `json:"firstName,omitempty"`
	LastName    *string `json:"lastName,omitempty"`
	DateOfBirth *string `json:"dateOfBirth,omitempty"`
	AvatarURL   *string `json:"avatarUrl,omitempty"`
}

func (u ProfileUpdate) Empty() bool {
	return u.Username == nil && u.FirstName == nil && u.LastName == nil &&
		u.DateOfBirth == nil && u.AvatarURL == nil
}

func (u ProfileUpdate) Validate() error {
	if u.DateOfBirth != nil && *u.DateOfBirth != "" {
		if _, err := time.Parse(time.DateOnly, *u.DateOfBirth); err != nil {
			return fmt.Errorf("%w: date of birth must be YYYY-MM-DD", ErrInvalidInput)
		}
	}
	if u.Username != nil && strings.ContainsAny(*u.Username, " \t\n") {
		return fmt.Errorf("%w: username cannot contain whitespace", ErrInvalidInput)
	}
	return nil
}

func (p *Profile) Apply(u ProfileUpdate) {
	if u.Username != nil {
		p.Username = *u.Username
	}
	if u.FirstName != nil {
		p.FirstName = *u.FirstName
	}
	if u.LastName != nil {
		p.LastName = *u.LastName
	}
	if u.DateOfBirth != nil {
		p.DateOfBirth = *u.DateOfBirth
	}
	if u.AvatarURL != nil {
		p.AvatarURL = *u.AvatarURL
	}
}
