package payment_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/voteflow/voteflow-api/internal/domain/payment"
	"github.com/voteflow/voteflow-api/internal/pkg/momo"
)

const webhookSecret = "test-webhook-secret"

// Signature and shape checks happen before any storage access, so these
// tests need no database.

func TestWebhookRejectsBadSignature(t *testing.T) {
	h := payment.NewHandler(nil, nil, webhookSecret)

	body := `{"transaction_id":"tx-1","phone_number":"+233240000001","amount":10,"status":"success"}`
	req := httptest.NewRequest(http.MethodPost, "/webhooks/momo", strings.NewReader(body))
	req.Header.Set("X-Momo-Signature", "deadbeef")
	rec := httptest.NewRecorder()

	h.Webhook(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestWebhookRejectsMissingSignature(t *testing.T) {
	h := payment.NewHandler(nil, nil, webhookSecret)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/momo", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()

	h.Webhook(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestWebhookRejectsInvalidJSON(t *testing.T) {
	h := payment.NewHandler(nil, nil, webhookSecret)

	body := []byte(`not json at all`)
	req := httptest.NewRequest(http.MethodPost, "/webhooks/momo", strings.NewReader(string(body)))
	req.Header.Set("X-Momo-Signature", momo.GenerateSignature(body, webhookSecret))
	rec := httptest.NewRecorder()

	h.Webhook(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestWebhookRejectsMissingFieldsStatus(t *testing.T) {
	h := payment.NewHandler(nil, nil, webhookSecret)

	body := []byte(`{"transaction_id":"tx-1"}`)
	req := httptest.NewRequest(http.MethodPost, "/webhooks/momo", strings.NewReader(string(body)))
	req.Header.Set("X-Momo-Signature", momo.GenerateSignature(body, webhookSecret))
	rec := httptest.NewRecorder()

	h.Webhook(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
}
