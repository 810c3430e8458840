package midtrans

import (
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"

	pkgerrors "github.com/ihza6661/dua-insan-story-sub002/pkg/errors"
)

// Transaction statuses the gateway reports on its webhook channel.
const (
	StatusCapture    = "capture"
	StatusSettlement = "settlement"
	StatusPending    = "pending"
	StatusDeny       = "deny"
	StatusCancel     = "cancel"
	StatusExpire     = "expire"
	StatusRefund     = "refund"
)

// Fraud statuses attached to card captures.
const (
	FraudAccept    = "accept"
	FraudChallenge = "challenge"
	FraudDeny      = "deny"
)

// Notification is the webhook payload the gateway posts on every
// transaction status change.
type Notification struct {
	OrderID           string `json:"order_id"`
	StatusCode        string `json:"status_code"`
	GrossAmount       string `json:"gross_amount"`
	SignatureKey      string `json:"signature_key"`
	TransactionStatus string `json:"transaction_status"`
	TransactionID     string `json:"transaction_id"`
	PaymentType       string `json:"payment_type"`
	FraudStatus       string `json:"fraud_status"`
	TransactionTime   string `json:"transaction_time"`
	SettlementTime    string `json:"settlement_time"`
}

// VerifySignature checks the payload's signature_key against the
// sha512 digest of order_id + status_code + gross_amount + server key.
func (n *Notification) VerifySignature(serverKey string) error {
	if n.SignatureKey == "" {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "missing webhook signature")
	}
	sum := sha512.Sum512([]byte(n.OrderID + n.StatusCode + n.GrossAmount + serverKey))
	expected := hex.EncodeToString(sum[:])
	if subtle.ConstantTimeCompare([]byte(expected), []byte(n.SignatureKey)) != 1 {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid webhook signature")
	}
	return nil
}

// Succeeded reports whether the transaction reached a settled state.
// Card captures count only once the fraud check accepts them.
func (n *Notification) Succeeded() bool {
	switch n.TransactionStatus {
	case StatusSettlement:
		return true
	case StatusCapture:
		return n.FraudStatus == "" || n.FraudStatus == FraudAccept
	default:
		return false
	}
}

// Failed reports whether the transaction terminally failed.
func (n *Notification) Failed() bool {
	switch n.TransactionStatus {
	case StatusDeny, StatusCancel, StatusExpire:
		return true
	default:
		return false
	}
}
