package form

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"
)

// Widget is a rendered challenge widget. Response returns the current token
// (empty while unsolved) and Reset clears the widget after a submission.
// The widget is scoped to the client; there is no global load callback.
type Widget interface {
	Response() string
	Reset()
}

// Client posts the form draft to the contact endpoint. A single-flight
// guard keeps a double-triggered submit from producing two requests.
type Client struct {
	endpoint   string
	widget     Widget // nil when the challenge widget is not configured
	httpClient *http.Client

	mu       sync.Mutex
	inFlight bool
}

// NewClient creates a form client for the given contact endpoint. Pass a
// nil widget when no challenge site key is configured.
func NewClient(endpoint string, widget Widget) *Client {
	return &Client{
		endpoint:   endpoint,
		widget:     widget,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// submitPayload is the JSON body posted to the contact endpoint.
type submitPayload struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Phone           string `json:"phone"`
	ServiceInterest string `json:"service_interest"`
	Message         string `json:"message"`
	TurnstileToken  string `json:"turnstileToken"`
}

type submitResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

// Submit validates the draft, acquires the challenge token and posts the
// submission. Validation failures and a missing challenge token block the
// submit with no network call. On success the draft is cleared and the
// widget reset; on any server error the entered values are kept and the
// server's message is surfaced.
func (c *Client) Submit(ctx context.Context, s State) State {
	if errs := Validate(s.Fields); len(errs) > 0 {
		next := s
		next.Errors = errs
		return next
	}

	token := ""
	if c.widget != nil {
		token = c.widget.Response()
		if token == "" {
			next := s
			next.Status = StatusError
			next.ErrorMessage = "Please complete the security check"
			return next
		}
	}

	// Single-flight guard: a re-entrant submit while a request is
	// outstanding makes no network call.
	c.mu.Lock()
	if c.inFlight {
		c.mu.Unlock()
		next := s
		next.Status = StatusSubmitting
		return next
	}
	c.inFlight = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.inFlight = false
		c.mu.Unlock()
	}()

	return c.post(ctx, s, token)
}

func (c *Client) post(ctx context.Context, s State, token string) State {
	payload := submitPayload{
		Name:            s.Fields.Name,
		Email:           s.Fields.Email,
		Phone:           s.Fields.Phone,
		ServiceInterest: s.Fields.ServiceInterest,
		Message:         s.Fields.Message,
		TurnstileToken:  token,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return errorState(s, "Something went wrong. Please try again.")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return errorState(s, "Something went wrong. Please try again.")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errorState(s, "Something went wrong. Please try again.")
	}
	defer resp.Body.Close()

	var decoded submitResponse
	_ = json.NewDecoder(resp.Body).Decode(&decoded)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		message := decoded.Error
		if message == "" {
			message = "Something went wrong. Please try again."
		}
		return errorState(s, message)
	}

	if c.widget != nil {
		c.widget.Reset()
	}

	next := NewState()
	next.Status = StatusSuccess
	return next
}

// errorState keeps the entered values and shows the banner message.
func errorState(s State, message string) State {
	next := s
	next.Status = StatusError
	next.ErrorMessage = message
	return next
}
