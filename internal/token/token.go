// Package token supplies access tokens to the signaling and handshake
// clients. Credentials are an explicit dependency: both clients receive a
// Source at construction instead of reading ambient global state.
package token

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrNoToken is returned by a Source that currently holds no credential.
var ErrNoToken = errors.New("no access token available")

// Source provides the current access token.
type Source interface {
	Token() (string, error)
}

// Refresher is a Source that can also probe the backend for a fresh
// token. The signaling client calls Refresh after an abnormal close
// (code 1006), which in practice means the server rejected the token
// right after connecting.
type Refresher interface {
	Source
	Refresh(ctx context.Context) error
}

// Static is a fixed-token Source, useful for tests and CLI usage where
// the token is supplied up front.
type Static string

// Token returns the fixed token, or ErrNoToken when empty.
func (s Static) Token() (string, error) {
	if s == "" {
		return "", ErrNoToken
	}
	return string(s), nil
}

// ProbeSource wraps a Source with a check-token probe endpoint. The probe
// does not rotate the token itself; a 2xx response means the server-side
// session was renewed and the existing token is valid again.
type ProbeSource struct {
	Source
	ProbeURL string

	// Client defaults to a 5-second-timeout http.Client when nil.
	Client *http.Client
}

// Refresh performs the check-token probe with bearer authentication.
func (p *ProbeSource) Refresh(ctx context.Context) error {
	tok, err := p.Token()
	if err != nil {
		return err
	}
	if p.ProbeURL == "" {
		return errors.New("no probe endpoint configured")
	}

	client := p.Client
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.ProbeURL, nil)
	if err != nil {
		return fmt.Errorf("build token probe request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+tok)

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("token probe: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("token probe rejected: %s", resp.Status)
	}
	return nil
}
