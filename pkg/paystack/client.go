package paystack

import (
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// SignatureHeader carries the HMAC-SHA-512 digest of the raw webhook body.
const SignatureHeader = "X-Paystack-Signature"

// EventChargeSuccess is the only webhook event type that triggers ticket
// issuance; every other event is acknowledged without action.
const EventChargeSuccess = "charge.success"

// Client represents a Paystack API client
type Client struct {
	BaseURL string
	Secret  string
	MockAPI bool
	client  *http.Client
}

// NewClient creates a new Paystack API client. The HTTP client carries a
// timeout so a hung gateway call fails verification instead of blocking the
// issuance request indefinitely.
func NewClient(baseURL, secret string, mockAPI bool) *Client {
	return &Client{
		BaseURL: baseURL,
		Secret:  secret,
		MockAPI: mockAPI,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// TransactionData is the data member of a Paystack verification response.
type TransactionData struct {
	Status          string  `json:"status"`
	Reference       string  `json:"reference"`
	Amount          float64 `json:"amount"`
	Currency        string  `json:"currency"`
	GatewayResponse string  `json:"gateway_response"`
}

type verifyResponse struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    TransactionData `json:"data"`
}

// WebhookEvent is the body of a Paystack webhook notification.
type WebhookEvent struct {
	Event string `json:"event"`
	Data  struct {
		Reference string `json:"reference"`
		Amount    float64 `json:"amount"`
		Metadata  struct {
			RaffleID    string `json:"raffleId"`
			DisplayName string `json:"displayName"`
			Contact     string `json:"contact"`
			Email       string `json:"email"`
			Quantity    int    `json:"quantity"`
		} `json:"metadata"`
	} `json:"data"`
}

// VerifyTransaction checks whether the referenced charge succeeded. Any
// outcome other than a confirmed successful charge is an error; a timeout or
// unreachable gateway is never treated as success.
func (c *Client) VerifyTransaction(ctx context.Context, reference string) (*TransactionData, error) {
	if c.MockAPI {
		return c.mockVerifyTransaction(reference)
	}

	url := fmt.Sprintf("%s/transaction/verify/%s", strings.TrimSuffix(c.BaseURL, "/"), reference)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.Secret)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("paystack request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("paystack returned status %d", resp.StatusCode)
	}

	var body verifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode paystack response: %w", err)
	}
	if !body.Status || body.Data.Status != "success" {
		reason := body.Message
		if body.Data.GatewayResponse != "" {
			reason = body.Data.GatewayResponse
		}
		if reason == "" {
			reason = "unknown error"
		}
		return nil, fmt.Errorf("payment not successful: %s", reason)
	}
	return &body.Data, nil
}

// mockVerifyTransaction mocks the verification call for local development.
// References prefixed with "failed" are reported as declined.
func (c *Client) mockVerifyTransaction(reference string) (*TransactionData, error) {
	if strings.HasPrefix(strings.ToLower(reference), "failed") {
		return nil, fmt.Errorf("payment not successful: declined")
	}
	return &TransactionData{
		Status:    "success",
		Reference: reference,
		Currency:  "GHS",
	}, nil
}

// VerifyWebhookSignature recomputes the HMAC-SHA-512 digest of the exact raw
// payload bytes and compares it to the signature header in constant time.
func VerifyWebhookSignature(secret string, payload []byte, signature string) bool {
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
