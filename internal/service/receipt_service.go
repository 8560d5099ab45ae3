package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"agentshield-ledger/internal/core/domain"

	"github.com/rs/zerolog"
)

// SignedReceiptEmitter implements ports.ReceiptEmitter. Each confirmed
// charge is signed with HMAC-SHA256 over a canonical rendering, so
// downstream billing can verify the tuple was emitted by the ledger.
type SignedReceiptEmitter struct {
	secret []byte
	log    zerolog.Logger
}

// NewSignedReceiptEmitter creates the HMAC receipt emitter.
func NewSignedReceiptEmitter(secret string, log zerolog.Logger) *SignedReceiptEmitter {
	return &SignedReceiptEmitter{secret: []byte(secret), log: log}
}

// Emit signs the confirmed charge and hands it off.
func (e *SignedReceiptEmitter) Emit(ctx context.Context, receipt domain.Receipt) error {
	payload, err := canonicalReceipt(receipt)
	if err != nil {
		return fmt.Errorf("canonicalize receipt: %w", err)
	}
	signature := e.sign(payload)

	e.log.Info().
		Str("trace_id", receipt.TraceID).
		Int64("actual_amount", receipt.ActualAmount).
		Time("confirmed_at", receipt.ConfirmedAt).
		Str("signature", signature).
		Msg("receipt emitted")
	return nil
}

// Verify checks a signature produced by Emit. Constant-time comparison.
func (e *SignedReceiptEmitter) Verify(receipt domain.Receipt, signature string) bool {
	payload, err := canonicalReceipt(receipt)
	if err != nil {
		return false
	}
	expected := e.sign(payload)
	return hmac.Equal([]byte(expected), []byte(signature))
}

func (e *SignedReceiptEmitter) sign(payload string) string {
	mac := hmac.New(sha256.New, e.secret)
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}

// canonicalReceipt renders the signed fields in a fixed order.
// Format: TRACE_ID|AMOUNT|CONFIRMED_AT_RFC3339|SCOPE_CHAIN_JSON
func canonicalReceipt(receipt domain.Receipt) (string, error) {
	chain, err := json.Marshal(receipt.ScopeChain)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s|%d|%s|%s",
		receipt.TraceID,
		receipt.ActualAmount,
		receipt.ConfirmedAt.UTC().Format(time.RFC3339Nano),
		chain,
	), nil
}
