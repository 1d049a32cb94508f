package paystack

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/esusuhq/esusu/internal/apperror"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return New("sk_test_secret", "NGN", WithBaseURL(server.URL))
}

func TestVerifyAccount(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/bank/resolve" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("account_number"); got != "0001234567" {
			t.Errorf("account_number = %s, want 0001234567", got)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk_test_secret" {
			t.Errorf("authorization header = %q", got)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"status":  true,
			"message": "Account number resolved",
			"data":    map[string]any{"account_name": "ADA OBI"},
		})
	})

	res, err := client.VerifyAccount(context.Background(), "0001234567", "058")
	if err != nil {
		t.Fatalf("VerifyAccount failed: %v", err)
	}
	if res.AccountName != "ADA OBI" {
		t.Errorf("account name = %q, want ADA OBI", res.AccountName)
	}
}

func TestVerifyAccountBusinessRejection(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"status":  false,
			"message": "Could not resolve account name. Check parameters or try again.",
		})
	})

	_, err := client.VerifyAccount(context.Background(), "0000000000", "058")
	var gwErr *apperror.GatewayError
	if !asGateway(err, &gwErr) {
		t.Fatalf("expected GatewayError, got %v", err)
	}
	if gwErr.Transient {
		t.Error("business rejection flagged as transient")
	}
}

func TestCreateTransferRecipient(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/transferrecipient" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		if body["type"] != "nuban" {
			t.Errorf("type = %q, want nuban", body["type"])
		}
		json.NewEncoder(w).Encode(map[string]any{
			"status": true,
			"data": map[string]any{
				"recipient_code": "RCP_abc123",
				"details": map[string]any{
					"account_name": "ADA OBI",
					"bank_name":    "GTBank",
				},
			},
		})
	})

	res, err := client.CreateTransferRecipient(context.Background(), "ADA OBI", "0001234567", "058", "NGN")
	if err != nil {
		t.Fatalf("CreateTransferRecipient failed: %v", err)
	}
	if res.RecipientCode != "RCP_abc123" {
		t.Errorf("recipient code = %q", res.RecipientCode)
	}
	if res.BankName != "GTBank" {
		t.Errorf("bank name = %q", res.BankName)
	}
}

func TestChargeSavedInstrument(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		if body["amount"] != float64(500000) {
			t.Errorf("amount = %v, want 500000", body["amount"])
		}
		json.NewEncoder(w).Encode(map[string]any{
			"status": true,
			"data": map[string]any{
				"status":    "success",
				"reference": "ref_001",
				"amount":    500000,
			},
		})
	})

	res, err := client.ChargeSavedInstrument(context.Background(), "AUTH_xyz", "ada@example.com", 500000)
	if err != nil {
		t.Fatalf("ChargeSavedInstrument failed: %v", err)
	}
	if res.Status != "success" || res.Reference != "ref_001" || res.AmountMinor != 500000 {
		t.Errorf("unexpected result: %+v", res)
	}
}

func TestInitiateTransferServerError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		json.NewEncoder(w).Encode(map[string]any{"status": false, "message": "server error"})
	})

	_, err := client.InitiateTransfer(context.Background(), "RCP_abc123", 100000)
	var gwErr *apperror.GatewayError
	if !asGateway(err, &gwErr) {
		t.Fatalf("expected GatewayError, got %v", err)
	}
	if !gwErr.Transient {
		t.Error("5xx response not flagged as transient")
	}
}

func TestRefund(t *testing.T) {
	var gotReference string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		gotReference = body["transaction"]
		json.NewEncoder(w).Encode(map[string]any{"status": true, "data": map[string]any{}})
	})

	if err := client.Refund(context.Background(), "ref_001"); err != nil {
		t.Fatalf("Refund failed: %v", err)
	}
	if gotReference != "ref_001" {
		t.Errorf("refund reference = %q, want ref_001", gotReference)
	}
}

func asGateway(err error, target **apperror.GatewayError) bool {
	return errors.As(err, target)
}
