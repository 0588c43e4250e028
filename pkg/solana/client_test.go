package solana

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ybbus/jsonrpc"
)

type rpcHandler func(params json.RawMessage) (interface{}, *jsonrpc.RPCError)

// fakeRPC is a minimal JSON-RPC 2.0 server that dispatches on method name.
type fakeRPC struct {
	sync.Mutex
	handlers map[string]rpcHandler
	calls    map[string]int
	url      string
}

func newFakeRPC(t *testing.T, handlers map[string]rpcHandler) (*fakeRPC, Client) {
	f := &fakeRPC{handlers: handlers, calls: make(map[string]int)}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID     int             `json:"id"`
			Method string          `json:"method"`
			Params json.RawMessage `json:"params"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		f.Lock()
		f.calls[req.Method]++
		handler, ok := f.handlers[req.Method]
		f.Unlock()

		resp := map[string]interface{}{"jsonrpc": "2.0", "id": req.ID}
		if !ok {
			resp["error"] = &jsonrpc.RPCError{Code: -32601, Message: "Method not found"}
		} else if result, rpcErr := handler(req.Params); rpcErr != nil {
			resp["error"] = rpcErr
		} else {
			resp["result"] = result
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(server.Close)

	f.url = server.URL
	return f, New(server.URL)
}

func (f *fakeRPC) callCount(method string) int {
	f.Lock()
	defer f.Unlock()
	return f.calls[method]
}

func TestSignatureStatus(t *testing.T) {
	zero, one := 0, 1

	for _, tc := range []struct {
		s         SignatureStatus
		confirmed bool
		finalized bool
	}{
		{s: SignatureStatus{Slot: 10, Confirmations: &zero}},
		{s: SignatureStatus{Slot: 10, Confirmations: &zero, ConfirmationStatus: "random"}},
		{s: SignatureStatus{Slot: 10, Confirmations: &zero, ConfirmationStatus: confirmationStatusProcessed}},
		{s: SignatureStatus{Slot: 10, Confirmations: &one}, confirmed: true},
		{s: SignatureStatus{Slot: 10, Confirmations: &zero, ConfirmationStatus: confirmationStatusConfirmed}, confirmed: true},
		{s: SignatureStatus{Slot: 10, Confirmations: &zero, ConfirmationStatus: confirmationStatusFinalized}, confirmed: true, finalized: true},
		{s: SignatureStatus{Slot: 10}, confirmed: true, finalized: true},
	} {
		assert.Equal(t, tc.confirmed, tc.s.Confirmed())
		assert.Equal(t, tc.finalized, tc.s.Finalized())

		assert.True(t, tc.s.Reached(CommitmentProcessed))
		assert.Equal(t, tc.confirmed, tc.s.Reached(CommitmentConfirmed))
		assert.Equal(t, tc.finalized, tc.s.Reached(CommitmentFinalized))
	}
}

func TestClient_GetAccountInfo(t *testing.T) {
	owner := public(generateKeys(t, 1)[0])
	existing := public(generateKeys(t, 1)[0])

	_, c := newFakeRPC(t, map[string]rpcHandler{
		"getAccountInfo": func(params json.RawMessage) (interface{}, *jsonrpc.RPCError) {
			var p []interface{}
			assert.NoError(t, json.Unmarshal(params, &p))
			assert.Len(t, p, 2)
			assert.Equal(t, "base64", p[1].(map[string]interface{})["encoding"])
			assert.Equal(t, "confirmed", p[1].(map[string]interface{})["commitment"])

			if p[0] != base58.Encode(existing) {
				return map[string]interface{}{"context": map[string]interface{}{"slot": 1}, "value": nil}, nil
			}
			return map[string]interface{}{
				"context": map[string]interface{}{"slot": 1},
				"value": map[string]interface{}{
					"lamports":   1461600,
					"owner":      base58.Encode(owner),
					"data":       []string{base64.StdEncoding.EncodeToString([]byte{1, 2, 3}), "base64"},
					"executable": false,
					"rentEpoch":  0,
				},
			}, nil
		},
	})

	info, err := c.GetAccountInfo(context.Background(), existing, CommitmentConfirmed)
	require.NoError(t, err)
	assert.Equal(t, owner, info.Owner)
	assert.Equal(t, []byte{1, 2, 3}, info.Data)
	assert.EqualValues(t, 1461600, info.Lamports)
	assert.False(t, info.Executable)

	_, err = c.GetAccountInfo(context.Background(), owner, CommitmentConfirmed)
	assert.Equal(t, ErrNoAccountInfo, err)
}

func TestClient_GetLatestBlockhash_Cached(t *testing.T) {
	expected := Blockhash{4, 5, 6}

	f, c := newFakeRPC(t, map[string]rpcHandler{
		"getLatestBlockhash": func(json.RawMessage) (interface{}, *jsonrpc.RPCError) {
			return map[string]interface{}{
				"context": map[string]interface{}{"slot": 1},
				"value":   map[string]interface{}{"blockhash": expected.String(), "lastValidBlockHeight": 150},
			}, nil
		},
	})

	for i := 0; i < 5; i++ {
		actual, err := c.GetLatestBlockhash(context.Background())
		require.NoError(t, err)
		assert.Equal(t, expected, actual)
	}
	assert.Equal(t, 1, f.callCount("getLatestBlockhash"))
}

func TestClient_SubmitTransaction(t *testing.T) {
	keys := generateKeys(t, 2)
	txn := NewTransaction(public(keys[0]), NewInstruction(public(keys[1]), []byte{1}))
	require.NoError(t, txn.Sign(keys[0]))

	var simulationErr interface{}
	_, c := newFakeRPC(t, map[string]rpcHandler{
		"sendTransaction": func(params json.RawMessage) (interface{}, *jsonrpc.RPCError) {
			var p []interface{}
			require.NoError(t, json.Unmarshal(params, &p))
			require.Len(t, p, 2)

			raw, err := base64.StdEncoding.DecodeString(p[0].(string))
			require.NoError(t, err)
			assert.Equal(t, txn.Marshal(), raw)

			config := p[1].(map[string]interface{})
			assert.Equal(t, false, config["skipPreflight"])
			assert.Equal(t, "base64", config["encoding"])

			if simulationErr != nil {
				return nil, &jsonrpc.RPCError{
					Code:    -32002,
					Message: "Transaction simulation failed",
					Data:    map[string]interface{}{"err": simulationErr, "logs": []string{}},
				}
			}
			return txn.Signature().String(), nil
		},
	})

	sig, err := c.SubmitTransaction(context.Background(), txn, CommitmentConfirmed)
	require.NoError(t, err)
	assert.Equal(t, txn.Signature(), sig)

	simulationErr = "BlockhashNotFound"
	_, err = c.SubmitTransaction(context.Background(), txn, CommitmentConfirmed)
	var txErr *TransactionError
	require.True(t, errors.As(err, &txErr))
	assert.Equal(t, TransactionErrorBlockhashNotFound, txErr.ErrorKey())

	simulationErr = map[string]interface{}{"InstructionError": []interface{}{0, map[string]interface{}{"Custom": 0}}}
	_, err = c.SubmitTransaction(context.Background(), txn, CommitmentConfirmed)
	require.True(t, errors.As(err, &txErr))
	require.NotNil(t, txErr.CustomError())
	assert.Equal(t, CustomError(0), *txErr.CustomError())
}

func TestClient_GetSignatureStatus(t *testing.T) {
	var landed, failed Signature
	landed[0] = 1
	failed[0] = 2

	_, c := newFakeRPC(t, map[string]rpcHandler{
		"getSignatureStatuses": func(params json.RawMessage) (interface{}, *jsonrpc.RPCError) {
			var p []json.RawMessage
			require.NoError(t, json.Unmarshal(params, &p))

			var sigs []string
			require.NoError(t, json.Unmarshal(p[0], &sigs))
			require.Len(t, sigs, 1)

			status := map[string]interface{}{
				"slot":               12,
				"confirmations":      nil,
				"confirmationStatus": "finalized",
				"err":                nil,
			}
			if sigs[0] == failed.String() {
				status["err"] = map[string]interface{}{"InstructionError": []interface{}{1, map[string]interface{}{"Custom": 4}}}
			}
			return map[string]interface{}{
				"context": map[string]interface{}{"slot": 13},
				"value":   []interface{}{status},
			}, nil
		},
	})

	s, err := c.GetSignatureStatus(context.Background(), landed, CommitmentFinalized)
	require.NoError(t, err)
	assert.EqualValues(t, 12, s.Slot)
	assert.Nil(t, s.ErrorResult)

	s, err = c.GetSignatureStatus(context.Background(), failed, CommitmentFinalized)
	require.Error(t, err)
	require.NotNil(t, s)

	var txErr *TransactionError
	require.True(t, errors.As(err, &txErr))
	assert.Equal(t, 1, txErr.InstructionError().Index)
	assert.Equal(t, CustomError(4), *txErr.CustomError())
}

func TestClient_GetSignatureStatus_Cancelled(t *testing.T) {
	_, c := newFakeRPC(t, map[string]rpcHandler{
		"getSignatureStatuses": func(json.RawMessage) (interface{}, *jsonrpc.RPCError) {
			return map[string]interface{}{
				"context": map[string]interface{}{"slot": 13},
				"value":   []interface{}{nil},
			}, nil
		},
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.GetSignatureStatus(ctx, Signature{}, CommitmentConfirmed)
	assert.Equal(t, context.Canceled, err)
}

func TestClient_Balances(t *testing.T) {
	key := public(generateKeys(t, 1)[0])

	_, c := newFakeRPC(t, map[string]rpcHandler{
		"getBalance": func(json.RawMessage) (interface{}, *jsonrpc.RPCError) {
			return map[string]interface{}{"context": map[string]interface{}{"slot": 1}, "value": 5000000000}, nil
		},
		"getMinimumBalanceForRentExemption": func(params json.RawMessage) (interface{}, *jsonrpc.RPCError) {
			assert.JSONEq(t, `[82]`, string(params))
			return 1461600, nil
		},
		"getTokenAccountBalance": func(json.RawMessage) (interface{}, *jsonrpc.RPCError) {
			return nil, &jsonrpc.RPCError{Code: invalidParamCode, Message: "Invalid param: could not find account"}
		},
		"requestAirdrop": func(json.RawMessage) (interface{}, *jsonrpc.RPCError) {
			return Signature{7}.String(), nil
		},
	})

	balance, err := c.GetBalance(context.Background(), key, CommitmentProcessed)
	require.NoError(t, err)
	assert.EqualValues(t, 5000000000, balance)

	minimum, err := c.GetMinimumBalanceForRentExemption(context.Background(), 82)
	require.NoError(t, err)
	assert.EqualValues(t, 1461600, minimum)

	_, _, err = c.GetTokenAccountBalance(context.Background(), key, CommitmentConfirmed)
	assert.Equal(t, ErrNoBalance, err)

	sig, err := c.RequestAirdrop(context.Background(), key, 5000000000, CommitmentConfirmed)
	require.NoError(t, err)
	assert.Equal(t, Signature{7}, sig)
}

// recordingLimiter records waited keys and fails once closed.
type recordingLimiter struct {
	sync.Mutex
	keys   []string
	closed bool
}

func (l *recordingLimiter) Wait(_ context.Context, key string) error {
	l.Lock()
	defer l.Unlock()

	if l.closed {
		return errors.New("limiter closed")
	}
	l.keys = append(l.keys, key)
	return nil
}

func TestClient_Limiter(t *testing.T) {
	f, _ := newFakeRPC(t, map[string]rpcHandler{
		"getSlot": func(json.RawMessage) (interface{}, *jsonrpc.RPCError) {
			return 42, nil
		},
	})

	limiter := &recordingLimiter{}
	c := NewWithLimiter(f.url, limiter)

	slot, err := c.GetSlot(context.Background(), CommitmentConfirmed)
	require.NoError(t, err)
	assert.EqualValues(t, 42, slot)
	assert.Equal(t, []string{"getSlot"}, limiter.keys)

	limiter.closed = true
	_, err = c.GetSlot(context.Background(), CommitmentConfirmed)
	assert.Error(t, err)
	assert.Equal(t, 1, f.callCount("getSlot"))
}

func TestHandleRPCError(t *testing.T) {
	c := New("http://localhost").(*client)

	assert.Equal(t, errRateLimited, c.handleRPCError("m", &jsonrpc.RPCError{Code: 429}))
	assert.Equal(t, errServiceError, c.handleRPCError("m", &jsonrpc.RPCError{Code: 503}))
	assert.Equal(t, errServiceError, c.handleRPCError("m", &jsonrpc.RPCError{Code: rpcNodeUnhealthyCode}))
	assert.Equal(t, errRateLimited, c.handleRPCError("m", &jsonrpc.HTTPError{Code: http.StatusTooManyRequests}))

	other := &jsonrpc.RPCError{Code: invalidParamCode}
	assert.Equal(t, other, c.handleRPCError("m", other))

}
