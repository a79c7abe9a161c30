package upstream

import (
	"context"
	"fmt"
	"time"
)

// RosterClient reads trip members from the expense tracker service.
type RosterClient struct {
	rest restClient
}

func NewRosterClient(baseURL, serviceToken string, timeout time.Duration) *RosterClient {
	return &RosterClient{rest: newRestClient(baseURL, serviceToken, timeout)}
}

func (c *RosterClient) ListMembers(ctx context.Context, tripID int64) ([]TripMember, error) {
	var body baseResponse[[]TripMember]
	if _, err := c.rest.getJSON(ctx, fmt.Sprintf("/shared-trips/%d/members", tripID), &body); err != nil {
		return nil, err
	}
	return body.Data, nil
}
