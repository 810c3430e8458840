package midtrans

import (
	"context"
	"crypto/sha512"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ihza6661/dua-insan-story-sub002/pkg/config"
	pkgerrors "github.com/ihza6661/dua-insan-story-sub002/pkg/errors"
	"github.com/ihza6661/dua-insan-story-sub002/pkg/logger"
)

func testClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	c, err := NewClient(context.Background(), config.MidtransConfig{
		ServerKey:    "SB-server-key",
		Env:          "sandbox",
		TokenTimeout: 5 * time.Second,
	}, logger.New(logger.Options{ServiceName: "test"}))
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if baseURL != "" {
		c.baseURL = baseURL
	}
	return c
}

func TestNormalizeEnv(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"", sandboxEnv, false},
		{"Sandbox", sandboxEnv, false},
		{"PRODUCTION", productionEnv, false},
		{"staging", "", true},
	}
	for _, tt := range tests {
		got, err := normalizeEnv(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Fatalf("normalizeEnv(%q): expected error", tt.in)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Fatalf("normalizeEnv(%q) = %q, %v; want %q", tt.in, got, err, tt.want)
		}
	}
}

func TestCreateSnapToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/transactions" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); !strings.HasPrefix(auth, "Basic ") {
			t.Fatalf("missing basic auth header, got %q", auth)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"token":"snap-123","redirect_url":"https://example.test/pay"}`))
	}))
	defer srv.Close()

	c := testClient(t, srv.URL)
	tok, err := c.CreateSnapToken(context.Background(), SnapRequest{
		TransactionDetails: TransactionDetails{OrderID: "42-abc", GrossAmount: 150000},
	})
	if err != nil {
		t.Fatalf("CreateSnapToken: %v", err)
	}
	if tok.Token != "snap-123" {
		t.Fatalf("unexpected token %q", tok.Token)
	}
}

func TestCreateSnapTokenGatewayError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error_messages":["unauthorized"]}`))
	}))
	defer srv.Close()

	c := testClient(t, srv.URL)
	_, err := c.CreateSnapToken(context.Background(), SnapRequest{
		TransactionDetails: TransactionDetails{OrderID: "42-abc", GrossAmount: 1000},
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error, got %v", err)
	}
}

func TestCreateSnapTokenValidation(t *testing.T) {
	c := testClient(t, "")
	_, err := c.CreateSnapToken(context.Background(), SnapRequest{
		TransactionDetails: TransactionDetails{OrderID: "", GrossAmount: 1000},
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestVerifySignature(t *testing.T) {
	n := &Notification{
		OrderID:     "42-abc",
		StatusCode:  "200",
		GrossAmount: "150000.00",
	}
	sum := sha512.Sum512([]byte(n.OrderID + n.StatusCode + n.GrossAmount + "secret"))
	n.SignatureKey = hex.EncodeToString(sum[:])

	if err := n.VerifySignature("secret"); err != nil {
		t.Fatalf("expected valid signature, got %v", err)
	}
	if err := n.VerifySignature("other-key"); err == nil {
		t.Fatalf("expected signature mismatch")
	}
	n.SignatureKey = ""
	if err := n.VerifySignature("secret"); err == nil {
		t.Fatalf("expected missing signature error")
	}
}

func TestNotificationOutcomes(t *testing.T) {
	tests := []struct {
		status    string
		fraud     string
		succeeded bool
		failed    bool
	}{
		{StatusSettlement, "", true, false},
		{StatusCapture, FraudAccept, true, false},
		{StatusCapture, FraudChallenge, false, false},
		{StatusPending, "", false, false},
		{StatusDeny, "", false, true},
		{StatusCancel, "", false, true},
		{StatusExpire, "", false, true},
	}
	for _, tt := range tests {
		n := &Notification{TransactionStatus: tt.status, FraudStatus: tt.fraud}
		if got := n.Succeeded(); got != tt.succeeded {
			t.Fatalf("%s/%s: Succeeded()=%v", tt.status, tt.fraud, got)
		}
		if got := n.Failed(); got != tt.failed {
			t.Fatalf("%s/%s: Failed()=%v", tt.status, tt.fraud, got)
		}
	}
}

func TestOrderIDCodec(t *testing.T) {
	encoded := EncodeOrderID(42)
	if !strings.HasPrefix(encoded, "42-") {
		t.Fatalf("encoded order id %q missing payment id prefix", encoded)
	}
	id, err := DecodePaymentID(encoded)
	if err != nil || id != 42 {
		t.Fatalf("DecodePaymentID(%q) = %d, %v", encoded, id, err)
	}

	for _, bad := range []string{"", "abc-def", "-abc", "0-x", "42"} {
		if _, err := DecodePaymentID(bad); err == nil {
			t.Fatalf("DecodePaymentID(%q): expected error", bad)
		}
	}
}
