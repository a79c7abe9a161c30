package entity

import (
	"fmt"
	"strings"
)

const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

// Principal is the verified caller, decoded from the token's "user" claim.
type Principal struct {
	ID        int64  `json:"id"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Email     string `json:"email,omitempty"`
	LoginKey  string `json:"loginKey,omitempty"`
	UserType  string `json:"userType,omitempty"`
	Mobile    string `json:"mobile,omitempty"`
}

func (p *Principal) Role() string {
	if p == nil || strings.TrimSpace(p.UserType) == "" {
		return RoleUser
	}
	return strings.ToUpper(strings.TrimSpace(p.UserType))
}

func (p *Principal) IsAdmin() bool {
	return p != nil && strings.EqualFold(strings.TrimSpace(p.UserType), RoleAdmin)
}

// DisplayName is the name snapshot stored on every message the principal sends.
func (p *Principal) DisplayName() string {
	if p == nil {
		return ""
	}
	if p.FirstName != "" {
		return strings.TrimSpace(p.FirstName + " " + p.LastName)
	}
	if p.Email != "" {
		return p.Email
	}
	return fmt.Sprintf("User #%d", p.ID)
}

// IdentityKey is what the token subject must match.
func (p *Principal) IdentityKey() string {
	if p.LoginKey != "" {
		return p.LoginKey
	}
	return p.Email
}
