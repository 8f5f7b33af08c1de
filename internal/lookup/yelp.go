// Package lookup talks to the Yelp autocomplete API for merchant
// enrichment. It sits outside the transactional core: calls are cancelable
// through the request context and failures never block an import.
package lookup

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

const defaultBaseURL = "https://api.yelp.com/v3"

// Suggestion is one autocomplete hit.
type Suggestion struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// YelpClient queries business autocomplete.
type YelpClient struct {
	BaseURL string
	APIKey  string
	HTTP    *http.Client
}

// NewYelpClient builds a client; an empty apiKey disables lookups.
func NewYelpClient(apiKey string) *YelpClient {
	return &YelpClient{BaseURL: defaultBaseURL, APIKey: apiKey, HTTP: http.DefaultClient}
}

// Enabled reports whether the client has credentials to call out.
func (c *YelpClient) Enabled() bool { return c != nil && c.APIKey != "" }

// Autocomplete returns business suggestions for text. The context cancels
// the underlying request.
func (c *YelpClient) Autocomplete(ctx context.Context, text string) ([]Suggestion, error) {
	if !c.Enabled() {
		return nil, nil
	}
	base := c.BaseURL
	if base == "" {
		base = defaultBaseURL
	}
	endpoint := fmt.Sprintf("%s/autocomplete?%s", base, url.Values{"text": {text}}.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.APIKey)

	client := c.HTTP
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("yelp autocomplete: status %d", resp.StatusCode)
	}

	var body struct {
		Businesses []Suggestion `json:"businesses"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, err
	}
	return body.Businesses, nil
}
