package chain

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSeed = "9d61b19deffd5a60ba844af492ec2cc44449c5697b326919703bac031cae7f60"

func newTestClient(t *testing.T, cfg Config, handler http.HandlerFunc) *Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	signer, err := NewKeySigner(testSeed)
	require.NoError(t, err)

	cfg.NodeURL = server.URL
	cfg.Timeout = 5 * time.Second

	return New(cfg, signer)
}

func writeRPCResult(t *testing.T, w http.ResponseWriter, result interface{}) {
	t.Helper()

	w.Header().Set("Content-Type", "application/json")
	require.NoError(t, json.NewEncoder(w).Encode(map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      1,
		"result":  result,
	}))
}

func writeRPCError(t *testing.T, w http.ResponseWriter, code int, message string) {
	t.Helper()

	w.Header().Set("Content-Type", "application/json")
	require.NoError(t, json.NewEncoder(w).Encode(map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      1,
		"error":   map[string]interface{}{"code": code, "message": message},
	}))
}

func TestClient_RegisterBlob(t *testing.T) {
	c := newTestClient(t, Config{PackageID: "0xpkg"}, func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		assert.Equal(t, "cork_executeMoveCall", req.Method)
		require.Len(t, req.Params, 1)

		call := req.Params[0].(map[string]interface{})
		assert.Equal(t, "0xpkg::storage::register_blob", call["target"])
		assert.NotEmpty(t, call["signature"])
		assert.NotEmpty(t, call["sender"])

		writeRPCResult(t, w, executeResult{Digest: "register-digest", Status: "success"})
	})

	digest, err := c.RegisterBlob(context.Background(), 1024)
	require.NoError(t, err)
	assert.Equal(t, "register-digest", digest)
}

func TestClient_RegisterBlob_missingPackage(t *testing.T) {
	c := New(Config{}, NoSigner{})

	_, err := c.RegisterBlob(context.Background(), 1024)
	require.ErrorIs(t, err, ErrMissingConfig)
}

func TestClient_execute_failedStatus(t *testing.T) {
	c := newTestClient(t, Config{PackageID: "0xpkg"}, func(w http.ResponseWriter, r *http.Request) {
		writeRPCResult(t, w, executeResult{Digest: "d", Status: "aborted"})
	})

	_, err := c.CertifyBlob(context.Background(), "blob-1", "register-digest")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "aborted")
}

func TestClient_RegisterNamespace(t *testing.T) {
	var calls int32

	c := newTestClient(t, Config{PackageID: "0xpkg", RegistryID: "0xreg"}, func(w http.ResponseWriter, r *http.Request) {
		// the node flakes twice, the third attempt lands
		if atomic.AddInt32(&calls, 1) < 3 {
			writeRPCError(t, w, -32000, "node busy")
			return
		}

		var req rpcRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		call := req.Params[0].(map[string]interface{})
		assert.Equal(t, "0xpkg::namespace::register", call["target"])

		args := call["arguments"].([]interface{})
		require.Len(t, args, 2)
		assert.Equal(t, "0xreg", args[0])
		assert.Equal(t, "alice.tuscany", args[1])

		writeRPCResult(t, w, executeResult{Digest: "ns-digest", Status: "success", CreatedID: "0xns"})
	})

	namespaceID, digest, err := c.RegisterNamespace(context.Background(), "alice.tuscany")
	require.NoError(t, err)
	assert.Equal(t, "0xns", namespaceID)
	assert.Equal(t, "ns-digest", digest)
	assert.EqualValues(t, 3, atomic.LoadInt32(&calls))
}

func TestClient_RegisterNamespace_givesUp(t *testing.T) {
	var calls int32

	c := newTestClient(t, Config{PackageID: "0xpkg", RegistryID: "0xreg"}, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		writeRPCError(t, w, -32000, "node busy")
	})

	_, _, err := c.RegisterNamespace(context.Background(), "alice.tuscany")
	require.Error(t, err)

	// the first attempt plus two retries
	assert.EqualValues(t, 3, atomic.LoadInt32(&calls))
}

func TestClient_RegisterNamespace_missingRegistry(t *testing.T) {
	c := New(Config{PackageID: "0xpkg"}, NoSigner{})

	_, _, err := c.RegisterNamespace(context.Background(), "alice.tuscany")
	require.ErrorIs(t, err, ErrMissingConfig)
}

func TestClient_MintTokens(t *testing.T) {
	c := newTestClient(t, Config{PackageID: "0xpkg", TreasuryID: "0xtre"}, func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		call := req.Params[0].(map[string]interface{})
		assert.Equal(t, "0xpkg::token::mint", call["target"])

		args := call["arguments"].([]interface{})
		require.Len(t, args, 4)
		assert.Equal(t, "0xtre", args[0])
		assert.Equal(t, "0xrecipient", args[1])
		assert.Equal(t, "CORK", args[2])
		assert.EqualValues(t, 100, args[3])

		writeRPCResult(t, w, executeResult{Digest: "mint-digest", Status: "success"})
	})

	digest, err := c.MintTokens(context.Background(), "0xrecipient", "CORK", 100)
	require.NoError(t, err)
	assert.Equal(t, "mint-digest", digest)
}

func TestClient_MintTokens_missingTreasury(t *testing.T) {
	c := New(Config{PackageID: "0xpkg"}, NoSigner{})

	_, err := c.MintTokens(context.Background(), "0xrecipient", "CORK", 100)
	require.ErrorIs(t, err, ErrMissingConfig)
}

func TestClient_GetBalance(t *testing.T) {
	c := newTestClient(t, Config{}, func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		assert.Equal(t, "cork_getBalance", req.Method)
		assert.Equal(t, "0xaddr", req.Params[0])

		writeRPCResult(t, w, balanceResult{Cork: 150, Urban: 42})
	})

	balance, err := c.GetBalance(context.Background(), "0xaddr")
	require.NoError(t, err)
	assert.Equal(t, "0xaddr", balance.Address)
	assert.EqualValues(t, 150, balance.Cork)
	assert.EqualValues(t, 42, balance.Urban)
}

func TestClient_ListBottles(t *testing.T) {
	c := newTestClient(t, Config{}, func(w http.ResponseWriter, r *http.Request) {
		writeRPCResult(t, w, []bottleResult{
			{ObjectID: "0xb1", Name: "Barolo 2019", Vintage: "2019", Origin: "Piedmont"},
			{ObjectID: "0xb2", Name: "Rioja Reserva", Vintage: "2016", Origin: "Rioja"},
		})
	})

	bottles, err := c.ListBottles(context.Background(), "0xaddr")
	require.NoError(t, err)
	require.Len(t, bottles, 2)
	assert.Equal(t, "0xb1", bottles[0].ObjectID)
	assert.Equal(t, "Rioja Reserva", bottles[1].Name)
}

func TestClient_rpcError(t *testing.T) {
	c := newTestClient(t, Config{}, func(w http.ResponseWriter, r *http.Request) {
		writeRPCError(t, w, -32601, "method not found")
	})

	_, err := c.GetBalance(context.Background(), "0xaddr")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "method not found")
}

func TestNewKeySigner(t *testing.T) {
	signer, err := NewKeySigner(testSeed)
	require.NoError(t, err)

	assert.Equal(t, "0xd75a980182b10ab7d54bfed3c964073a0ee172f3daa62325af021a68f707511a", signer.Address())

	sig, err := signer.Sign(moveCall{Target: "0xpkg::token::mint"})
	require.NoError(t, err)
	assert.NotEmpty(t, sig)
}

func TestNewKeySigner_invalidSeed(t *testing.T) {
	_, err := NewKeySigner("zz")
	require.Error(t, err)

	_, err = NewKeySigner("abcd")
	require.Error(t, err)
}

func TestNoSigner(t *testing.T) {
	_, err := NoSigner{}.Sign(moveCall{})
	require.ErrorIs(t, err, ErrMissingConfig)
	assert.Empty(t, NoSigner{}.Address())
}
