// Package relayer is the REST client for the transaction relayer that
// broadcasts operation bundles on-chain and serves swap quotes.
package relayer

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ABSFinance/colloseum-monorepo/internal/crypto"
	"github.com/ABSFinance/colloseum-monorepo/internal/domain"
	"github.com/ABSFinance/colloseum-monorepo/internal/venue"
)

// Client implements domain.Submitter and venue.QuoteSource against the
// relayer REST API. Submissions are signed so the relayer can verify the
// bundle came from the registered executor key.
type Client struct {
	baseURL    string
	httpClient *http.Client
	signer     *crypto.BundleSigner
}

// New creates a relayer client. baseURL is the API root, e.g.
// "https://relayer.absfinance.io". signer may be nil for read-only use
// (quotes and status polling).
func New(baseURL string, signer *crypto.BundleSigner) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		signer: signer,
	}
}

// submitRequest is the wire shape of a bundle submission.
type submitRequest struct {
	PoolID     string          `json:"pool_id"`
	Operations []wireOperation `json:"operations"`
	Addresses  []string        `json:"address_table"`
	Timestamp  int64           `json:"timestamp"`
	Signer     string          `json:"signer,omitempty"`
	Signature  string          `json:"signature,omitempty"`
}

// wireOperation compresses a single call: To indexes into the address table,
// Data is hex-encoded calldata.
type wireOperation struct {
	To   int    `json:"to"`
	Data string `json:"data"`
}

// Submit posts an operation bundle and returns the relayer's transaction id.
// Target addresses are sent once in the address table and referenced by
// index from each operation.
func (c *Client) Submit(ctx context.Context, ops domain.OrderedOperations) (string, error) {
	index := make(map[string]int, len(ops.AddressTable))
	for i, addr := range ops.AddressTable {
		index[addr] = i
	}

	wireOps := make([]wireOperation, 0, len(ops.Operations))
	for _, op := range ops.Operations {
		idx, ok := index[op.To]
		if !ok {
			return "", fmt.Errorf("relayer: operation target %s missing from address table", op.To)
		}
		wireOps = append(wireOps, wireOperation{
			To:   idx,
			Data: "0x" + hex.EncodeToString(op.Data),
		})
	}

	req := submitRequest{
		PoolID:     ops.PoolID,
		Operations: wireOps,
		Addresses:  ops.AddressTable,
		Timestamp:  time.Now().Unix(),
	}

	if c.signer != nil {
		sig, err := c.signer.SignBundle(req.PoolID, ops, req.Timestamp)
		if err != nil {
			return "", fmt.Errorf("relayer: sign bundle: %w", err)
		}
		req.Signer = c.signer.Address().Hex()
		req.Signature = sig
	}

	respBody, err := c.doRequest(ctx, http.MethodPost, "/v1/bundles", req)
	if err != nil {
		return "", fmt.Errorf("relayer: submit bundle: %w", err)
	}

	var result struct {
		TransactionID string `json:"transaction_id"`
		ErrorMsg      string `json:"error,omitempty"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("relayer: decode submit response: %w", err)
	}
	if result.TransactionID == "" {
		return "", fmt.Errorf("relayer: bundle rejected: %s", result.ErrorMsg)
	}
	return result.TransactionID, nil
}

// Confirm polls the status of a submitted bundle. It returns nil once the
// transaction is confirmed, domain.ErrNotConfirmed while it is still
// pending, and domain.ErrConfirmFailed when the relayer reports a terminal
// failure.
func (c *Client) Confirm(ctx context.Context, transactionID string) error {
	path := fmt.Sprintf("/v1/bundles/%s", transactionID)

	respBody, err := c.doRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return fmt.Errorf("relayer: get bundle %s: %w", transactionID, err)
	}

	var result struct {
		Status   string `json:"status"`
		ErrorMsg string `json:"error,omitempty"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return fmt.Errorf("relayer: decode status response: %w", err)
	}

	switch result.Status {
	case "confirmed":
		return nil
	case "pending", "submitted":
		return domain.ErrNotConfirmed
	case "failed", "reverted", "dropped":
		if result.ErrorMsg != "" {
			return fmt.Errorf("%w: %s", domain.ErrConfirmFailed, result.ErrorMsg)
		}
		return domain.ErrConfirmFailed
	default:
		return fmt.Errorf("relayer: unknown bundle status %q", result.Status)
	}
}

// Quote fetches a bounded swap quote converting amount of fromAsset into
// toAsset.
func (c *Client) Quote(ctx context.Context, fromAsset, toAsset string, amount float64) (venue.Quote, error) {
	body := map[string]any{
		"from":   fromAsset,
		"to":     toAsset,
		"amount": amount,
	}

	respBody, err := c.doRequest(ctx, http.MethodPost, "/v1/quotes", body)
	if err != nil {
		return venue.Quote{}, fmt.Errorf("relayer: quote %s->%s: %w", fromAsset, toAsset, err)
	}

	var result struct {
		AmountOut    float64 `json:"amount_out"`
		MinAmountOut float64 `json:"min_amount_out"`
		CallData     string  `json:"call_data"`
		ErrorMsg     string  `json:"error,omitempty"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return venue.Quote{}, fmt.Errorf("relayer: decode quote response: %w", err)
	}
	if result.ErrorMsg != "" {
		return venue.Quote{}, fmt.Errorf("relayer: quote %s->%s rejected: %s", fromAsset, toAsset, result.ErrorMsg)
	}

	callData, err := hex.DecodeString(trimHexPrefix(result.CallData))
	if err != nil {
		return venue.Quote{}, fmt.Errorf("relayer: decode quote calldata: %w", err)
	}

	return venue.Quote{
		AmountOut:    result.AmountOut,
		MinAmountOut: result.MinAmountOut,
		CallData:     callData,
	}, nil
}

// doRequest builds, sends, and reads an HTTP request against the relayer
// API. It returns the raw response body.
func (c *Client) doRequest(ctx context.Context, method, path string, body any) ([]byte, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(respBody))
	}
	return respBody, nil
}

func trimHexPrefix(s string) string {
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		return s[2:]
	}
	return s
}

var _ domain.Submitter = (*Client)(nil)
var _ venue.QuoteSource = (*Client)(nil)
