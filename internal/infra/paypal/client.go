package paypal

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	liveAPI    = "https://api-m.paypal.com"
	sandboxAPI = "https://api-m.sandbox.paypal.com"
	liveIPN    = "https://ipnpb.paypal.com/cgi-bin/webscr"
	sandboxIPN = "https://ipnpb.sandbox.paypal.com/cgi-bin/webscr"
)

type Client struct {
	clientID   string
	secret     string
	apiURL     string
	ipnURL     string
	httpClient *http.Client
}

// NewClient builds a PayPal REST client. mode selects live or sandbox
// endpoints; anything other than "sandbox" means live.
func NewClient(clientID, secret, mode string, timeout time.Duration) *Client {
	apiURL, ipnURL := liveAPI, liveIPN
	if mode == "sandbox" {
		apiURL, ipnURL = sandboxAPI, sandboxIPN
	}
	return &Client{
		clientID:   clientID,
		secret:     secret,
		apiURL:     apiURL,
		ipnURL:     ipnURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *Client) accessToken(ctx context.Context) (string, error) {
	if c.clientID == "" || c.secret == "" {
		return "", fmt.Errorf("paypal credentials not configured")
	}

	body := strings.NewReader("grant_type=client_credentials")
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL+"/v1/oauth2/token", body)
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(c.clientID, c.secret)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("paypal authentication failed (%d): %s", resp.StatusCode, msg)
	}

	var token struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return "", err
	}
	return token.AccessToken, nil
}

type CreateOrderParams struct {
	Total       string
	Currency    string
	Description string
	CustomID    string
	BrandName   string
	ReturnURL   string
	CancelURL   string
}

type CheckoutOrder struct {
	ID          string
	ApprovalURL string
}

func (c *Client) CreateOrder(ctx context.Context, p CreateOrderParams) (*CheckoutOrder, error) {
	token, err := c.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	payload := map[string]any{
		"intent": "CAPTURE",
		"purchase_units": []map[string]any{{
			"amount": map[string]string{
				"currency_code": p.Currency,
				"value":         p.Total,
			},
			"description": p.Description,
			"custom_id":   p.CustomID,
		}},
		"application_context": map[string]string{
			"brand_name":   p.BrandName,
			"landing_page": "NO_PREFERENCE",
			"user_action":  "PAY_NOW",
			"return_url":   p.ReturnURL,
			"cancel_url":   p.CancelURL,
		},
	}

	var created struct {
		ID    string `json:"id"`
		Links []struct {
			Rel  string `json:"rel"`
			Href string `json:"href"`
		} `json:"links"`
	}
	if err := c.postJSON(ctx, token, "/v2/checkout/orders", payload, &created); err != nil {
		return nil, err
	}

	out := &CheckoutOrder{ID: created.ID}
	for _, l := range created.Links {
		if l.Rel == "approve" {
			out.ApprovalURL = l.Href
		}
	}
	if out.ApprovalURL == "" {
		return nil, fmt.Errorf("no approval URL in paypal response for order %s", created.ID)
	}
	return out, nil
}

type CaptureResult struct {
	Status     string
	TxnID      string
	CustomID   string
	Amount     string
	Currency   string
	PayerName  string
	PayerEmail string
}

func (c *Client) CaptureOrder(ctx context.Context, orderID string) (*CaptureResult, error) {
	token, err := c.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	var captured struct {
		Status string `json:"status"`
		Payer  struct {
			Email string `json:"email_address"`
			Name  struct {
				Given   string `json:"given_name"`
				Surname string `json:"surname"`
			} `json:"name"`
		} `json:"payer"`
		PurchaseUnits []struct {
			CustomID string `json:"custom_id"`
			Payments struct {
				Captures []struct {
					ID       string `json:"id"`
					CustomID string `json:"custom_id"`
					Amount   struct {
						CurrencyCode string `json:"currency_code"`
						Value        string `json:"value"`
					} `json:"amount"`
				} `json:"captures"`
			} `json:"payments"`
		} `json:"purchase_units"`
	}
	path := fmt.Sprintf("/v2/checkout/orders/%s/capture", orderID)
	if err := c.postJSON(ctx, token, path, struct{}{}, &captured); err != nil {
		return nil, err
	}

	out := &CaptureResult{
		Status:     captured.Status,
		PayerEmail: captured.Payer.Email,
	}
	if captured.Payer.Name.Given != "" {
		out.PayerName = strings.TrimSpace(captured.Payer.Name.Given + " " + captured.Payer.Name.Surname)
	}
	if len(captured.PurchaseUnits) > 0 {
		pu := captured.PurchaseUnits[0]
		out.CustomID = pu.CustomID
		if len(pu.Payments.Captures) > 0 {
			capture := pu.Payments.Captures[0]
			out.TxnID = capture.ID
			out.Amount = capture.Amount.Value
			out.Currency = capture.Amount.CurrencyCode
			if out.CustomID == "" {
				out.CustomID = capture.CustomID
			}
		}
	}
	return out, nil
}

// VerifyIPN echoes a notification back to PayPal and reports whether the
// answer is VERIFIED.
func (c *Client) VerifyIPN(ctx context.Context, form url.Values) (bool, error) {
	body := url.Values{"cmd": {"_notify-validate"}}
	for k, vs := range form {
		for _, v := range vs {
			body.Add(k, v)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.ipnURL, strings.NewReader(body.Encode()))
	if err != nil {
		return false, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	answer, err := io.ReadAll(resp.Body)
	if err != nil {
		return false, err
	}
	return strings.TrimSpace(string(answer)) == "VERIFIED", nil
}

func (c *Client) postJSON(ctx context.Context, token, path string, payload, out any) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL+path, strings.NewReader(string(b)))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("paypal %s returned %d: %s", path, resp.StatusCode, msg)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
