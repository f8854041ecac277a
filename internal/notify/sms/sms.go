// Package sms submits text messages to an HTTP SMS gateway.
package sms

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

var (
	ErrInvalidPhone = errors.New("invalid phone number")
	ErrDisabled     = errors.New("sms gateway disabled")
)

type Config struct {
	URL       string
	APIKey    string
	SenderID  string
	Timeout   time.Duration
	RateLimit float64
	Enabled   bool
}

type Client struct {
	cfg     Config
	http    *http.Client
	limiter *rate.Limiter
}

func NewClient(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}

	return &Client{
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(limit, 1),
	}
}

// gatewayResponse is the JSON body returned by the gateway. Only the fields
// needed to detect a rejected message are decoded.
type gatewayResponse struct {
	Status string `json:"status"`
	Errors []struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"errors"`
}

func (c *Client) Send(ctx context.Context, phone, text string) error {
	if !c.cfg.Enabled {
		return ErrDisabled
	}

	number, err := NormalizePhone(phone)
	if err != nil {
		return err
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("waiting for sms rate limit: %w", err)
	}

	form := url.Values{
		"apikey":  {c.cfg.APIKey},
		"sender":  {c.cfg.SenderID},
		"numbers": {number},
		"message": {text},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("creating sms request: %w", err)
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("calling sms gateway: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return fmt.Errorf("reading sms gateway response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("sms gateway returned status %d", resp.StatusCode)
	}

	var gr gatewayResponse
	if err := json.Unmarshal(body, &gr); err != nil {
		// Some gateways answer with plain text on success.
		return nil
	}

	if strings.EqualFold(gr.Status, "failure") {
		msg := "message rejected"
		if len(gr.Errors) > 0 && gr.Errors[0].Message != "" {
			msg = gr.Errors[0].Message
		}

		return fmt.Errorf("sms gateway: %s", msg)
	}

	return nil
}

// NormalizePhone reduces a phone number to the 12 digit 91XXXXXXXXXX form
// the gateway expects.
func NormalizePhone(phone string) (string, error) {
	var sb strings.Builder

	for _, r := range phone {
		if r >= '0' && r <= '9' {
			sb.WriteRune(r)
		}
	}

	digits := strings.TrimLeft(sb.String(), "0")

	switch {
	case len(digits) == 10:
		return "91" + digits, nil
	case len(digits) == 12 && strings.HasPrefix(digits, "91"):
		return digits, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidPhone, phone)
	}
}
