package relayer

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ABSFinance/colloseum-monorepo/internal/crypto"
	"github.com/ABSFinance/colloseum-monorepo/internal/domain"
)

const testKeyHex = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"

func testOps() domain.OrderedOperations {
	return domain.OrderedOperations{
		PoolID: "pool-1",
		Operations: []domain.Operation{
			{Kind: domain.OpApprove, To: "0xaa", Data: []byte{0x01}},
			{Kind: domain.OpDeposit, To: "0xbb", Data: []byte{0x02, 0x03}},
			{Kind: domain.OpWithdraw, To: "0xaa", Data: []byte{0x04}},
		},
		AddressTable: []string{"0xaa", "0xbb"},
	}
}

func TestSubmit(t *testing.T) {
	var got submitRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/bundles" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]string{"transaction_id": "tx-99"})
	}))
	defer srv.Close()

	signer, err := crypto.NewBundleSigner(testKeyHex, 1)
	if err != nil {
		t.Fatalf("NewBundleSigner: %v", err)
	}
	client := New(srv.URL, signer)

	txID, err := client.Submit(context.Background(), testOps())
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if txID != "tx-99" {
		t.Fatalf("transaction id = %q, want tx-99", txID)
	}

	if got.PoolID != "pool-1" {
		t.Errorf("pool id = %q", got.PoolID)
	}
	if len(got.Addresses) != 2 {
		t.Errorf("address table = %v, want 2 entries", got.Addresses)
	}
	// Operations reference the address table by index; the repeated target
	// reuses the first entry.
	wantIdx := []int{0, 1, 0}
	for i, op := range got.Operations {
		if op.To != wantIdx[i] {
			t.Errorf("operation %d index = %d, want %d", i, op.To, wantIdx[i])
		}
	}
	if got.Operations[1].Data != "0x0203" {
		t.Errorf("operation 1 data = %q", got.Operations[1].Data)
	}
	if got.Signer == "" || got.Signature == "" {
		t.Error("submission not signed")
	}
}

func TestSubmitTargetMissingFromTable(t *testing.T) {
	client := New("http://unused", nil)
	ops := testOps()
	ops.AddressTable = []string{"0xaa"} // 0xbb missing

	if _, err := client.Submit(context.Background(), ops); err == nil {
		t.Fatal("expected error for target missing from address table")
	}
}

func TestSubmitRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"error": "signature mismatch"})
	}))
	defer srv.Close()

	client := New(srv.URL, nil)
	if _, err := client.Submit(context.Background(), testOps()); err == nil {
		t.Fatal("expected error for rejected bundle")
	}
}

func TestConfirm(t *testing.T) {
	tests := []struct {
		name    string
		status  string
		wantErr error
	}{
		{"confirmed", "confirmed", nil},
		{"pending", "pending", domain.ErrNotConfirmed},
		{"submitted", "submitted", domain.ErrNotConfirmed},
		{"failed", "failed", domain.ErrConfirmFailed},
		{"reverted", "reverted", domain.ErrConfirmFailed},
		{"dropped", "dropped", domain.ErrConfirmFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/v1/bundles/tx-1" {
					t.Errorf("unexpected path %s", r.URL.Path)
				}
				json.NewEncoder(w).Encode(map[string]string{"status": tt.status})
			}))
			defer srv.Close()

			err := New(srv.URL, nil).Confirm(context.Background(), "tx-1")
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("Confirm: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}

	t.Run("unknown status", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]string{"status": "weird"})
		}))
		defer srv.Close()

		err := New(srv.URL, nil).Confirm(context.Background(), "tx-1")
		if err == nil || errors.Is(err, domain.ErrNotConfirmed) || errors.Is(err, domain.ErrConfirmFailed) {
			t.Fatalf("err = %v, want distinct error for unknown status", err)
		}
	})
}

func TestQuote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/quotes" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		if body["from"] != "WETH" || body["to"] != "USDC" {
			t.Errorf("quote request = %v", body)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"amount_out":     2000.5,
			"min_amount_out": 1990.0,
			"call_data":      "0xdeadbeef",
		})
	}))
	defer srv.Close()

	q, err := New(srv.URL, nil).Quote(context.Background(), "WETH", "USDC", 1)
	if err != nil {
		t.Fatalf("Quote: %v", err)
	}
	if q.AmountOut != 2000.5 || q.MinAmountOut != 1990.0 {
		t.Errorf("quote = %+v", q)
	}
	if len(q.CallData) != 4 || q.CallData[0] != 0xde {
		t.Errorf("calldata = %x", q.CallData)
	}
}

func TestQuoteRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"error": "no route"})
	}))
	defer srv.Close()

	if _, err := New(srv.URL, nil).Quote(context.Background(), "WETH", "USDC", 1); err == nil {
		t.Fatal("expected error for rejected quote")
	}
}

func TestHTTPErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	if err := New(srv.URL, nil).Confirm(context.Background(), "tx-1"); err == nil {
		t.Fatal("expected error for HTTP 500")
	}
}
