package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"wallshare/internal/gateway"
)

// Feed returns one page of the wallpaper feed. Passing the ETag from a
// previous page lets the backend answer 304; in that case notModified is
// true and page is nil.
func (c *Client) Feed(ctx context.Context, page int, etag string) (fp *FeedPage, notModified bool, err error) {
	if page < 1 {
		page = 1
	}
	opts := gateway.Options{Headers: http.Header{}}
	if etag != "" {
		opts.Headers.Set("If-None-Match", etag)
	}

	res := c.gw.FetchResult(ctx, c.url(fmt.Sprintf("/api/wallpapers/feed?page=%d", page)), opts)
	if !res.Success {
		return nil, false, res.Err
	}
	if res.NotModified {
		return nil, true, nil
	}

	var out FeedPage
	if err := json.Unmarshal(res.Data, &out); err != nil {
		return nil, false, fmt.Errorf("decode feed: %w", err)
	}
	return &out, false, nil
}

// Wallpaper fetches a single wallpaper by id.
func (c *Client) Wallpaper(ctx context.Context, id string) (*Wallpaper, error) {
	var resp struct {
		Wallpaper Wallpaper `json:"wallpaper"`
	}
	if err := c.getJSON(ctx, "/api/wallpapers/"+id, &resp); err != nil {
		return nil, err
	}
	return &resp.Wallpaper, nil
}

// Upload publishes a new wallpaper as a multipart form: the image bytes
// plus title and tags fields. The cropping that the interactive clients do
// happens before the bytes reach this call.
func (c *Client) Upload(ctx context.Context, title string, tags []string, filename string, image io.Reader) (*Wallpaper, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	if err := mw.WriteField("title", title); err != nil {
		return nil, err
	}
	if err := mw.WriteField("tags", strings.Join(tags, ",")); err != nil {
		return nil, err
	}
	part, err := mw.CreateFormFile("image", filename)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, image); err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	opts := gateway.Options{
		Method:  http.MethodPost,
		Headers: http.Header{"Content-Type": []string{mw.FormDataContentType()}},
		Body:    &buf,
	}
	res := c.gw.FetchResult(ctx, c.url("/api/wallpapers"), opts)
	if !res.Success {
		return nil, res.Err
	}
	var resp struct {
		Wallpaper Wallpaper `json:"wallpaper"`
	}
	if err := json.Unmarshal(res.Data, &resp); err != nil {
		return nil, fmt.Errorf("decode upload response: %w", err)
	}
	return &resp.Wallpaper, nil
}

// Profile fetches the caller's profile.
func (c *Client) Profile(ctx context.Context) (*Profile, error) {
	var resp struct {
		Profile Profile `json:"profile"`
	}
	if err := c.getJSON(ctx, "/api/profile", &resp); err != nil {
		return nil, err
	}
	return &resp.Profile, nil
}

// SetupProfile completes first-run profile setup.
func (c *Client) SetupProfile(ctx context.Context, username, bio, avatarURL string) error {
	payload := map[string]string{"username": username, "bio": bio, "avatar_url": avatarURL}
	return c.postJSON(ctx, http.MethodPost, "/api/profile/setup", payload, nil)
}

// UpdateSettings saves account preferences.
func (c *Client) UpdateSettings(ctx context.Context, s Settings) error {
	return c.postJSON(ctx, http.MethodPut, "/api/settings", s, nil)
}
