// Package playlist pushes generated track lists to an external playlist
// provider over HTTP. The provider contract is deliberately small: one
// endpoint accepting a named artist list and answering with a reference to
// the created playlist. Wiring a provider is optional; without one the
// application serves local track lists only.
package playlist

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jasselhoff/festival-planner/internal/domain"
)

const requestTimeout = 10 * time.Second

// Client implements domain.PlaylistCreator against a provider base URL.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

var _ domain.PlaylistCreator = (*Client)(nil)

// NewClient creates a provider client. token may be empty when the provider
// endpoint is unauthenticated.
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: requestTimeout},
	}
}

type createPlaylistRequest struct {
	Name    string   `json:"name"`
	Artists []string `json:"artists"`
}

type createPlaylistResponse struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// CreatePlaylist pushes the ranked artist list to the provider and returns
// the provider's reference for the created playlist.
func (c *Client) CreatePlaylist(ctx context.Context, name string, artists []string) (*domain.PlaylistRef, error) {
	body, err := json.Marshal(createPlaylistRequest{Name: name, Artists: artists})
	if err != nil {
		return nil, fmt.Errorf("failed to encode playlist request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/playlists", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build playlist request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("playlist provider request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		// Read a little of the body so provider errors show up in logs.
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("playlist provider returned status %d: %s", resp.StatusCode, snippet)
	}

	var created createPlaylistResponse
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return nil, fmt.Errorf("failed to decode playlist response: %w", err)
	}
	if created.ID == "" {
		return nil, fmt.Errorf("playlist provider response missing id")
	}

	return &domain.PlaylistRef{ID: created.ID, URL: created.URL}, nil
}
