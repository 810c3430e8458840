package midtrans

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/ihza6661/dua-insan-story-sub002/pkg/config"
	pkgerrors "github.com/ihza6661/dua-insan-story-sub002/pkg/errors"
	"github.com/ihza6661/dua-insan-story-sub002/pkg/logger"
)

const (
	sandboxEnv    = "sandbox"
	productionEnv = "production"
)

var (
	errServerKeyRequired = errors.New("midtrans server key is required")
	errInvalidEnv        = fmt.Errorf("midtrans environment must be %q or %q", sandboxEnv, productionEnv)
	errLoggerRequired    = errors.New("midtrans logger is required")
)

var snapBaseURLs = map[string]string{
	sandboxEnv:    "https://app.sandbox.midtrans.com/snap/v1",
	productionEnv: "https://app.midtrans.com/snap/v1",
}

// SnapRequest is the transaction payload sent to the Snap API.
type SnapRequest struct {
	TransactionDetails TransactionDetails `json:"transaction_details"`
	CustomerDetails    *CustomerDetails   `json:"customer_details,omitempty"`
}

type TransactionDetails struct {
	OrderID     string `json:"order_id"`
	GrossAmount int64  `json:"gross_amount"`
}

type CustomerDetails struct {
	FirstName string `json:"first_name,omitempty"`
	Email     string `json:"email,omitempty"`
}

// SnapToken is the gateway's handle the client-side payment page consumes.
type SnapToken struct {
	Token       string `json:"token"`
	RedirectURL string `json:"redirect_url"`
}

// TokenCreator creates gateway transactions. Implementations must be
// swappable between sandbox and production credentials.
type TokenCreator interface {
	CreateSnapToken(ctx context.Context, req SnapRequest) (*SnapToken, error)
}

// NotificationVerifier parses and authenticates inbound webhook payloads.
type NotificationVerifier interface {
	ParseNotification(payload []byte) (*Notification, error)
}

// Gateway is the full adapter surface the checkout and webhook flows use.
type Gateway interface {
	TokenCreator
	NotificationVerifier
}

// Client talks to the Snap HTTP API with centralized auth, logging, and
// error mapping.
type Client struct {
	httpClient *http.Client
	serverKey  string
	env        string
	baseURL    string
	logger     *logger.Logger
}

var _ Gateway = (*Client)(nil)

// NewClient initializes the gateway wrapper and validates the credentials.
func NewClient(ctx context.Context, cfg config.MidtransConfig, logg *logger.Logger) (*Client, error) {
	if logg == nil {
		return nil, errLoggerRequired
	}
	env, err := normalizeEnv(cfg.Environment())
	if err != nil {
		return nil, err
	}

	serverKey := strings.TrimSpace(cfg.ServerKey)
	if serverKey == "" {
		return nil, errServerKeyRequired
	}

	c := &Client{
		httpClient: &http.Client{Timeout: cfg.TokenTimeout},
		serverKey:  serverKey,
		env:        env,
		baseURL:    snapBaseURLs[env],
		logger:     logg,
	}

	logg.Info(ctx, fmt.Sprintf("midtrans client initialized (%s)", env))
	return c, nil
}

// Environment reports the normalized gateway environment in use.
func (c *Client) Environment() string {
	if c == nil {
		return ""
	}
	return c.env
}

// CreateSnapToken requests a transaction token for the encoded order id.
// The call runs outside any database transaction; the caller treats a
// failure as retryable.
func (c *Client) CreateSnapToken(ctx context.Context, req SnapRequest) (*SnapToken, error) {
	if req.TransactionDetails.OrderID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "gateway order id required")
	}
	if req.TransactionDetails.GrossAmount <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "gross amount must be positive")
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode snap request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/transactions", bytes.NewReader(body))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build snap request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Authorization", "Basic "+basicAuth(c.serverKey))

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "call payment gateway")
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read gateway response")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, fmt.Sprintf("gateway returned status %d", resp.StatusCode)).
			WithDetails(map[string]any{"body": string(payload)})
	}

	var token SnapToken
	if err := json.Unmarshal(payload, &token); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode gateway response")
	}
	if token.Token == "" {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "gateway response missing token")
	}
	return &token, nil
}

// ParseNotification decodes and authenticates a raw webhook payload.
func (c *Client) ParseNotification(payload []byte) (*Notification, error) {
	var n Notification
	if err := json.Unmarshal(payload, &n); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode notification")
	}
	if err := n.VerifySignature(c.serverKey); err != nil {
		return nil, err
	}
	return &n, nil
}

func basicAuth(serverKey string) string {
	return base64.StdEncoding.EncodeToString([]byte(serverKey + ":"))
}

func normalizeEnv(raw string) (string, error) {
	env := strings.TrimSpace(strings.ToLower(raw))
	if env == "" {
		env = sandboxEnv
	}
	switch env {
	case sandboxEnv, productionEnv:
		return env, nil
	default:
		return "", errInvalidEnv
	}
}
