package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"pickleballshannon/internal/config"
)

// turnstileVerifyURL is Cloudflare's fixed siteverify endpoint.
const turnstileVerifyURL = "https://challenges.cloudflare.com/turnstile/v0/siteverify"

// Verifier checks challenge tokens issued by the bot-mitigation widget.
// A disabled verifier accepts everything; callers decide whether a missing
// token is an error before calling Verify.
type Verifier interface {
	IsEnabled() bool
	Verify(ctx context.Context, token string) (bool, error)
}

// TurnstileService verifies Cloudflare Turnstile tokens
type TurnstileService struct {
	cfg       *config.TurnstileConfig
	client    *http.Client
	verifyURL string
}

// NewTurnstileService creates a new Turnstile verification service
func NewTurnstileService(cfg *config.TurnstileConfig) *TurnstileService {
	return &TurnstileService{
		cfg:       cfg,
		client:    &http.Client{Timeout: 10 * time.Second},
		verifyURL: turnstileVerifyURL,
	}
}

// turnstileResponse is Cloudflare's siteverify response body
type turnstileResponse struct {
	Success     bool     `json:"success"`
	ChallengeTS string   `json:"challenge_ts"`
	Hostname    string   `json:"hostname"`
	ErrorCodes  []string `json:"error-codes"`
}

// IsEnabled returns whether token verification is configured for this deployment
func (s *TurnstileService) IsEnabled() bool {
	return s.cfg.SecretKey != ""
}

// Verify checks a challenge token against Cloudflare's siteverify endpoint.
// Callers must treat a returned error the same as a failed verification.
func (s *TurnstileService) Verify(ctx context.Context, token string) (bool, error) {
	if !s.IsEnabled() {
		return true, nil
	}

	data := url.Values{}
	data.Set("secret", s.cfg.SecretKey)
	data.Set("response", token)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.verifyURL, strings.NewReader(data.Encode()))
	if err != nil {
		return false, fmt.Errorf("failed to create verification request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("failed to reach verification service: %w", err)
	}
	defer resp.Body.Close()

	var result turnstileResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return false, fmt.Errorf("failed to parse verification response: %w", err)
	}

	if !result.Success {
		return false, nil
	}
	return true, nil
}
