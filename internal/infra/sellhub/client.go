package sellhub

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"softcrate-backend/internal/config"
)

const dashURL = "https://dash.sellhub.cx"

// MissingConfigError reports which Sellhub variables are absent so the
// handler can surface them the way the storefront admin expects.
type MissingConfigError struct {
	Missing []string
}

func (e *MissingConfigError) Error() string {
	return "missing sellhub config: " + strings.Join(e.Missing, ", ")
}

type Client struct {
	cfg        config.SellhubConfig
	httpClient *http.Client
}

func NewClient(cfg config.SellhubConfig, timeout time.Duration) *Client {
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *Client) checkoutConfig() error {
	var missing []string
	if c.cfg.APIKey == "" {
		missing = append(missing, "SELLHUB_API_KEY")
	}
	if c.cfg.ProductID == "" {
		missing = append(missing, "SELLHUB_PRODUCT_ID")
	}
	if c.cfg.VariantID == "" {
		missing = append(missing, "SELLHUB_VARIANT_ID")
	}
	if c.cfg.ProductName == "" {
		missing = append(missing, "SELLHUB_PRODUCT_NAME")
	}
	if c.cfg.Price == "" {
		missing = append(missing, "SELLHUB_PRICE")
	}
	if c.cfg.MethodName == "" {
		missing = append(missing, "SELLHUB_METHOD_NAME")
	}
	if len(missing) > 0 {
		return &MissingConfigError{Missing: missing}
	}
	return nil
}

type CheckoutParams struct {
	Email     string
	Quantity  int
	ReturnURL string
}

type Checkout struct {
	URL string `json:"url"`
}

// CreateCheckout opens a hosted Sellhub checkout for the configured variant
// and returns the URL the customer should be redirected to.
func (c *Client) CreateCheckout(ctx context.Context, p CheckoutParams) (*Checkout, error) {
	if err := c.checkoutConfig(); err != nil {
		return nil, err
	}

	quantity := p.Quantity
	if quantity < 1 {
		quantity = 1
	}
	returnURL := p.ReturnURL
	if returnURL == "" {
		returnURL = c.cfg.ReturnURL
	}

	payload := map[string]any{
		"email": p.Email,
		"cart": []map[string]any{{
			"productId": c.cfg.ProductID,
			"variantId": c.cfg.VariantID,
			"quantity":  quantity,
		}},
		"gateway":   c.cfg.MethodName,
		"currency":  c.cfg.Currency,
		"returnUrl": returnURL,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	endpoint := strings.TrimRight(c.cfg.StoreURL, "/") + "/api/checkout"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", c.cfg.AuthPrefix+c.cfg.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("sellhub checkout returned %d", resp.StatusCode)
	}
	var out Checkout
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode sellhub checkout response: %w", err)
	}
	if out.URL == "" {
		return nil, fmt.Errorf("sellhub checkout response carried no url")
	}
	return &out, nil
}

// Variants proxies the dashboard variants listing, passing the raw query
// string through and returning the raw JSON body.
func (c *Client) Variants(ctx context.Context, rawQuery string) (json.RawMessage, error) {
	if c.cfg.APIKey == "" {
		return nil, &MissingConfigError{Missing: []string{"SELLHUB_API_KEY"}}
	}

	target := dashURL + "/api/sellhub/products/variants"
	if rawQuery != "" {
		target += "?" + rawQuery
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", c.cfg.AuthPrefix+c.cfg.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var data json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		data = json.RawMessage("{}")
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return data, fmt.Errorf("sellhub variants returned %d", resp.StatusCode)
	}
	return data, nil
}
