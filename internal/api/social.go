package api

import (
	"context"
	"net/http"
)

// Follow adds the caller to userID's followers.
func (c *Client) Follow(ctx context.Context, userID string) error {
	return c.postJSON(ctx, http.MethodPost, "/api/users/"+userID+"/follow", map[string]string{}, nil)
}

// Unfollow removes the caller from userID's followers.
func (c *Client) Unfollow(ctx context.Context, userID string) error {
	return c.postJSON(ctx, http.MethodDelete, "/api/users/"+userID+"/follow", map[string]string{}, nil)
}

// Followers lists who follows userID.
func (c *Client) Followers(ctx context.Context, userID string) ([]UserSummary, error) {
	var resp struct {
		Users []UserSummary `json:"users"`
	}
	if err := c.getJSON(ctx, "/api/users/"+userID+"/followers", &resp); err != nil {
		return nil, err
	}
	return resp.Users, nil
}

// Following lists who userID follows.
func (c *Client) Following(ctx context.Context, userID string) ([]UserSummary, error) {
	var resp struct {
		Users []UserSummary `json:"users"`
	}
	if err := c.getJSON(ctx, "/api/users/"+userID+"/following", &resp); err != nil {
		return nil, err
	}
	return resp.Users, nil
}

// Stats fetches the analytics dashboard summary for the caller.
func (c *Client) Stats(ctx context.Context) (*Stats, error) {
	var resp struct {
		Stats Stats `json:"stats"`
	}
	if err := c.getJSON(ctx, "/api/analytics/summary", &resp); err != nil {
		return nil, err
	}
	return &resp.Stats, nil
}
