package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/oauth2"
)

// ErrInvalidUserinfo is returned when the provider rejects the token or
// answers with a payload that does not identify a user.
var ErrInvalidUserinfo = errors.New("invalid userinfo response")

// maxUserinfoBytes bounds how much of a userinfo body is read.
const maxUserinfoBytes = 1 << 20

// Fetcher retrieves the provider-side user identifier for an access token.
type Fetcher interface {
	FetchUID(ctx context.Context, p Config, accessToken string) (string, error)
}

// HTTPFetcher calls provider userinfo endpoints over HTTP.
type HTTPFetcher struct {
	client  *http.Client
	timeout time.Duration
}

// NewHTTPFetcher creates an HTTPFetcher. A nil client uses http.DefaultClient.
func NewHTTPFetcher(client *http.Client, timeout time.Duration) *HTTPFetcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPFetcher{client: client, timeout: timeout}
}

// FetchUID calls the userinfo endpoint with accessToken as bearer credential
// and returns the value of the provider's UID field.
func (f *HTTPFetcher) FetchUID(ctx context.Context, p Config, accessToken string) (string, error) {
	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, f.client)
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: accessToken,
		TokenType:   "Bearer",
	}))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.UserinfoURL, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch %s userinfo: %w", p.Name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("%w: %s userinfo returned status %d", ErrInvalidUserinfo, p.Name, resp.StatusCode)
	}

	var info map[string]any
	dec := json.NewDecoder(io.LimitReader(resp.Body, maxUserinfoBytes))
	dec.UseNumber()
	if err := dec.Decode(&info); err != nil {
		return "", fmt.Errorf("%w: decode %s userinfo: %v", ErrInvalidUserinfo, p.Name, err)
	}

	uid, ok := uidString(info[p.UIDField])
	if !ok {
		return "", fmt.Errorf("%w: %s userinfo has no %q field", ErrInvalidUserinfo, p.Name, p.UIDField)
	}
	return uid, nil
}

func uidString(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, t != ""
	case json.Number:
		return t.String(), true
	default:
		return "", false
	}
}
