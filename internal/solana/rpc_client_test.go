package solana

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

// rpcCall is the slice of the request body the tests care about.
type rpcCall struct {
	Method string        `json:"method"`
	Params []interface{} `json:"params"`
}

func readCall(t *testing.T, r *http.Request) rpcCall {
	t.Helper()
	var call rpcCall
	if err := json.NewDecoder(r.Body).Decode(&call); err != nil {
		t.Fatalf("decode request body: %v", err)
	}
	return call
}

const getTransactionFixture = `{
	"jsonrpc": "2.0",
	"id": 1,
	"result": {
		"slot": 123456,
		"blockTime": 1700000000,
		"meta": {
			"err": null,
			"fee": 5000,
			"logMessages": ["Program log: Hello"],
			"innerInstructions": [
				{"index": 0, "instructions": [{"programIdIndex": 3, "accounts": [1, 2], "data": "3Bxs"}]}
			],
			"loadedAddresses": {"writable": ["addr3"], "readonly": ["addr4"]}
		},
		"transaction": {
			"signatures": ["testsig123"],
			"message": {
				"accountKeys": ["addr1", "addr2"],
				"recentBlockhash": "hash1",
				"instructions": [{"programIdIndex": 2, "accounts": [0, 1], "data": "9xQe"}]
			}
		}
	}
}`

func TestHTTPClient_GetTransaction(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		call := readCall(t, r)
		if call.Method != "getTransaction" {
			t.Errorf("method = %s, want getTransaction", call.Method)
		}
		if len(call.Params) != 2 {
			t.Fatalf("params length = %d, want 2", len(call.Params))
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, getTransactionFixture)
	}))
	defer server.Close()

	tx, err := NewHTTPClient(server.URL).GetTransaction(context.Background(), "testsig123")
	if err != nil {
		t.Fatalf("GetTransaction: %v", err)
	}
	if tx == nil {
		t.Fatal("expected transaction, got nil")
	}

	if tx.Signature != "testsig123" {
		t.Errorf("signature = %s, want testsig123", tx.Signature)
	}
	if tx.Slot != 123456 {
		t.Errorf("slot = %d, want 123456", tx.Slot)
	}
	if tx.BlockTime != 1700000000 {
		t.Errorf("blockTime = %d, want 1700000000", tx.BlockTime)
	}
	if !tx.Succeeded() {
		t.Error("expected transaction to be successful")
	}
	if tx.Meta == nil || tx.Meta.Fee != 5000 {
		t.Fatalf("unexpected meta: %+v", tx.Meta)
	}

	if len(tx.Meta.InnerInstructions) != 1 {
		t.Fatalf("inner groups = %d, want 1", len(tx.Meta.InnerInstructions))
	}
	inner := tx.Meta.InnerInstructions[0]
	if inner.Index != 0 || len(inner.Instructions) != 1 || inner.Instructions[0].ProgramIDIndex != 3 {
		t.Errorf("unexpected inner group: %+v", inner)
	}

	if tx.Message == nil || len(tx.Message.Instructions) != 1 {
		t.Fatalf("unexpected message: %+v", tx.Message)
	}
	if tx.Message.Instructions[0].Data != "9xQe" {
		t.Errorf("instruction data = %s, want 9xQe", tx.Message.Instructions[0].Data)
	}

	keys := tx.AllAccountKeys()
	want := []string{"addr1", "addr2", "addr3", "addr4"}
	if len(keys) != len(want) {
		t.Fatalf("account keys = %v, want %v", keys, want)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Errorf("account key %d = %s, want %s", i, keys[i], want[i])
		}
	}
}

func TestHTTPClient_GetTransaction_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"jsonrpc": "2.0", "id": 1, "result": null}`)
	}))
	defer server.Close()

	tx, err := NewHTTPClient(server.URL).GetTransaction(context.Background(), "nonexistent")
	if err != nil {
		t.Fatalf("GetTransaction: %v", err)
	}
	if tx != nil {
		t.Errorf("expected nil for unknown signature, got %+v", tx)
	}
}

func TestHTTPClient_GetSignaturesForAddress(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		call := readCall(t, r)
		if call.Method != "getSignaturesForAddress" {
			t.Errorf("method = %s, want getSignaturesForAddress", call.Method)
		}
		if len(call.Params) != 2 {
			t.Fatalf("params length = %d, want 2", len(call.Params))
		}
		cfg, ok := call.Params[1].(map[string]interface{})
		if !ok {
			t.Fatalf("params[1] is %T, want config map", call.Params[1])
		}
		if cfg["before"] != "cursor1" {
			t.Errorf("before = %v, want cursor1", cfg["before"])
		}
		if cfg["limit"] != float64(10) {
			t.Errorf("limit = %v, want 10", cfg["limit"])
		}

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{
			"jsonrpc": "2.0",
			"id": 1,
			"result": [
				{"signature": "sig1", "slot": 100, "blockTime": 1700000000, "err": null},
				{"signature": "sig2", "slot": 99, "blockTime": null, "err": {"InstructionError": [0, "Custom"]}}
			]
		}`)
	}))
	defer server.Close()

	sigs, err := NewHTTPClient(server.URL).GetSignaturesForAddress(
		context.Background(), "testaddr", &SignaturesOpts{Before: "cursor1", Limit: 10})
	if err != nil {
		t.Fatalf("GetSignaturesForAddress: %v", err)
	}

	if len(sigs) != 2 {
		t.Fatalf("signatures = %d, want 2", len(sigs))
	}
	if sigs[0].Signature != "sig1" || sigs[0].Slot != 100 {
		t.Errorf("unexpected first entry: %+v", sigs[0])
	}
	if sigs[0].Err != nil {
		t.Errorf("first entry err = %v, want nil", sigs[0].Err)
	}
	if sigs[1].Err == nil {
		t.Error("second entry should carry the transaction error")
	}
	if sigs[1].BlockTime != nil {
		t.Errorf("second entry blockTime = %v, want nil", sigs[1].BlockTime)
	}
}

func TestHTTPClient_RetriesRateLimit(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"jsonrpc": "2.0", "id": 1, "result": 999}`)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL,
		WithMaxRetries(3),
		WithRetryDelay(10*time.Millisecond),
	)

	slot, err := client.GetSlot(context.Background())
	if err != nil {
		t.Fatalf("GetSlot: %v", err)
	}
	if slot != 999 {
		t.Errorf("slot = %d, want 999", slot)
	}
	if attempts.Load() != 3 {
		t.Errorf("attempts = %d, want 3", attempts.Load())
	}
}

func TestHTTPClient_RetriesServerError(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"jsonrpc": "2.0", "id": 1, "result": 42}`)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, WithRetryDelay(time.Millisecond))

	slot, err := client.GetSlot(context.Background())
	if err != nil {
		t.Fatalf("GetSlot: %v", err)
	}
	if slot != 42 {
		t.Errorf("slot = %d, want 42", slot)
	}
	if attempts.Load() != 2 {
		t.Errorf("attempts = %d, want 2", attempts.Load())
	}
}

func TestHTTPClient_NoRetryOnClientError(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, WithRetryDelay(time.Millisecond))

	if _, err := client.GetSlot(context.Background()); err == nil {
		t.Fatal("expected error, got nil")
	}
	if attempts.Load() != 1 {
		t.Errorf("attempts = %d, want 1 (4xx must not be retried)", attempts.Load())
	}
}

func TestHTTPClient_RetriesExhausted(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL,
		WithMaxRetries(1),
		WithRetryDelay(time.Millisecond),
	)

	_, err := client.GetSlot(context.Background())
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !strings.Contains(err.Error(), "retries exhausted") {
		t.Errorf("error = %v, want retries exhausted", err)
	}
}

func TestHTTPClient_NodeError(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"jsonrpc": "2.0", "id": 1, "error": {"code": -32600, "message": "Invalid Request"}}`)
	}))
	defer server.Close()

	_, err := NewHTTPClient(server.URL).GetSlot(context.Background())
	if err == nil {
		t.Fatal("expected error, got nil")
	}

	var nerr *nodeError
	if !errors.As(err, &nerr) {
		t.Fatalf("error is %T, want *nodeError", err)
	}
	if nerr.Code != -32600 {
		t.Errorf("code = %d, want -32600", nerr.Code)
	}
	if attempts.Load() != 1 {
		t.Errorf("attempts = %d, want 1 (node errors must not be retried)", attempts.Load())
	}
}

func TestHTTPClient_ContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(100 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := NewHTTPClient(server.URL).GetSlot(ctx); err == nil {
		t.Fatal("expected error from cancelled context")
	}
}
