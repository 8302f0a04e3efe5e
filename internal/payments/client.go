// Package payments wraps the external card-charging gateway. Only charge
// creation is used; the confirmation is persisted by the payment service.
package payments

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/nkoudou/brocante/internal/observability"
)

const defaultBaseURL = "https://api.stripe.com"

type Config struct {
	SecretKey string
	// BaseURL overrides the gateway host, mainly for tests
	BaseURL string
}

type Client struct {
	cfg        Config
	httpClient *http.Client
	prom       *observability.Prom
}

func New(cfg Config, prom *observability.Prom) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}

	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		prom: prom,
	}
}

// Charge is the confirmation the gateway returns for a successful charge.
type Charge struct {
	ID       string `json:"id"`
	Created  int64  `json:"created"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Status   string `json:"status"`

	PaymentMethodDetails struct {
		Card struct {
			Brand    string `json:"brand"`
			Country  string `json:"country"`
			ExpMonth int    `json:"exp_month"`
			ExpYear  int    `json:"exp_year"`
		} `json:"card"`
	} `json:"payment_method_details"`
}

type apiError struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// CreateCharge charges the given source token. Amount is in minor units.
func (c *Client) CreateCharge(ctx context.Context, amountMinor int64, currency, description, sourceToken string) (Charge, error) {
	form := url.Values{}
	form.Set("amount", strconv.FormatInt(amountMinor, 10))
	form.Set("currency", currency)
	form.Set("description", description)
	form.Set("source", sourceToken)

	var charge Charge

	err := c.observe("create_charge", func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/v1/charges", strings.NewReader(form.Encode()))

		if err != nil {
			return fmt.Errorf("build request: %w", err)
		}

		req.Header.Set("Authorization", "Bearer "+c.cfg.SecretKey)
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

		resp, err := c.httpClient.Do(req)

		if err != nil {
			return fmt.Errorf("gateway call: %w", err)
		}

		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)

		if err != nil {
			return fmt.Errorf("read body: %w", err)
		}

		if resp.StatusCode != http.StatusOK {
			var apiErr apiError

			if json.Unmarshal(body, &apiErr) == nil && apiErr.Error.Message != "" {
				return fmt.Errorf("gateway status %d: %s", resp.StatusCode, apiErr.Error.Message)
			}

			return fmt.Errorf("gateway status %d", resp.StatusCode)
		}

		return json.Unmarshal(body, &charge)
	})

	if err != nil {
		return Charge{}, err
	}

	return charge, nil
}

func (c *Client) observe(op string, fn func() error) error {
	if c.prom != nil {
		return c.prom.ObserveCollaborator("payments", op, fn)
	}
	return fn()
}
