package upstream

import (
	"context"
	"errors"
	"strings"
)

const StatusRemoved = "REMOVED"

var ErrProfileNotFound = errors.New("user profile not found")

type TripMember struct {
	ID          int64  `json:"id"`
	UserID      int64  `json:"userId"`
	Email       string `json:"email,omitempty"`
	DisplayName string `json:"displayName,omitempty"`
	Role        string `json:"role,omitempty"`
	Status      string `json:"status,omitempty"`
	JoinedAt    string `json:"joinedAt,omitempty"`
}

func (m TripMember) IsRemoved() bool {
	return strings.EqualFold(strings.TrimSpace(m.Status), StatusRemoved)
}

type UserProfile struct {
	ID        int64  `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email,omitempty"`
	Mobile    string `json:"mobile,omitempty"`
}

func (p *UserProfile) FullName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

// MembershipRoster lists the members of a trip as known by the expense tracker.
type MembershipRoster interface {
	ListMembers(ctx context.Context, tripID int64) ([]TripMember, error)
}

// ProfileLookup resolves a user profile; ErrProfileNotFound when the user is unknown.
type ProfileLookup interface {
	ProfileByID(ctx context.Context, userID int64) (*UserProfile, error)
}

// baseResponse is the envelope both upstream services wrap their payloads in.
type baseResponse[T any] struct {
	Data   T `json:"data"`
	Status *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"status,omitempty"`
}
