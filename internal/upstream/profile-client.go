package upstream

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// ProfileClient reads user profiles from the user service.
type ProfileClient struct {
	rest restClient
}

func NewProfileClient(baseURL, serviceToken string, timeout time.Duration) *ProfileClient {
	return &ProfileClient{rest: newRestClient(baseURL, serviceToken, timeout)}
}

func (c *ProfileClient) ProfileByID(ctx context.Context, userID int64) (*UserProfile, error) {
	var body baseResponse[[]*UserProfile]
	status, err := c.rest.getJSON(ctx, fmt.Sprintf("/user/by-id/%d", userID), &body)
	if status == http.StatusNotFound {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, err
	}
	if len(body.Data) == 0 || body.Data[0] == nil {
		return nil, ErrProfileNotFound
	}
	return body.Data[0], nil
}
