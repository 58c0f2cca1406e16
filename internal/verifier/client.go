// Package verifier calls the console backend to verify operator credentials.
// The backend is treated as an opaque oracle: it either issues a token or
// says no. Nothing in this package validates passwords itself.
package verifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/opsdeck/authcore/internal/config"
	"github.com/opsdeck/authcore/internal/models"
	pkglogger "github.com/opsdeck/authcore/pkg/logger"
)

// Denial is returned when the backend explicitly rejects the credentials.
// It is distinct from a transport failure: the request reached the backend
// and the backend said no.
type Denial struct {
	Message string
}

func (d *Denial) Error() string {
	if d.Message == "" {
		return models.ErrInvalidCredentials.Error()
	}
	return d.Message
}

func (d *Denial) Unwrap() error {
	return models.ErrInvalidCredentials
}

// Result carries the token and identity issued on successful verification.
type Result struct {
	Token string
	User  models.User
}

// Client is an HTTP credential verifier with a bounded request timeout. A
// hung backend fails the login with a transport error instead of blocking
// the login flow indefinitely.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

func NewClient(cfg *config.VerifierConfig, logger *slog.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
	}
}

type verifyRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type verifyResponse struct {
	Success bool        `json:"success"`
	Token   string      `json:"token"`
	User    models.User `json:"user"`
	Message string      `json:"message"`
}

// Verify submits the credentials to the backend. It returns a *Denial error
// on an explicit rejection and wraps models.ErrTransport for everything the
// backend never got to answer (network failure, timeout, non-2xx, bad JSON).
func (c *Client) Verify(ctx context.Context, identifier, secret string) (*Result, error) {
	body, err := json.Marshal(verifyRequest{Email: identifier, Password: secret})
	if err != nil {
		return nil, fmt.Errorf("%w: encode request: %v", models.ErrTransport, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/login", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", models.ErrTransport, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("credential verifier unreachable",
			slog.String("identifier", pkglogger.SanitizedEmail(identifier)),
			slog.Any("error", err))
		return nil, fmt.Errorf("%w: %v", models.ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Warn("credential verifier returned unexpected status",
			slog.Int("status", resp.StatusCode))
		return nil, fmt.Errorf("%w: unexpected status %d", models.ErrTransport, resp.StatusCode)
	}

	var vr verifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&vr); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", models.ErrTransport, err)
	}

	if !vr.Success {
		return nil, &Denial{Message: vr.Message}
	}

	if vr.Token == "" {
		return nil, fmt.Errorf("%w: success response without token", models.ErrTransport)
	}

	return &Result{Token: vr.Token, User: vr.User}, nil
}
