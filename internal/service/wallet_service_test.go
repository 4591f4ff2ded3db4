package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTonTestServer(t *testing.T, balanceNanoton int64, status string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/accounts/EQtest-wallet", r.URL.Path)
		assert.Equal(t, "Bearer test-api-key", r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(map[string]interface{}{
			"balance": balanceNanoton,
			"status":  status,
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newWalletService(url string) *TonWalletService {
	cfg := newTestConfig()
	cfg.TON.APIURL = url
	cfg.TON.APIKey = "test-api-key"
	return NewTonWalletService(cfg)
}

func TestWalletHealthy(t *testing.T) {
	srv := newTonTestServer(t, 1_500_000_000, "active")
	svc := newWalletService(srv.URL)

	health, err := svc.Health(context.Background())
	require.NoError(t, err)
	assert.True(t, health.Healthy)
	assert.InDelta(t, 1.5, health.BalanceTON, 1e-9)
	assert.Equal(t, "active", health.Status)
}

func TestWalletUnhealthyLowBalance(t *testing.T) {
	// 0.04 TON，低于 0.05 下限
	srv := newTonTestServer(t, 40_000_000, "active")
	svc := newWalletService(srv.URL)

	health, err := svc.Health(context.Background())
	require.NoError(t, err)
	assert.False(t, health.Healthy)
}

func TestWalletUnhealthyInactiveAccount(t *testing.T) {
	srv := newTonTestServer(t, 1_500_000_000, "uninit")
	svc := newWalletService(srv.URL)

	health, err := svc.Health(context.Background())
	require.NoError(t, err)
	assert.False(t, health.Healthy)
}

func TestWalletHealthAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)
	svc := newWalletService(srv.URL)

	health, err := svc.Health(context.Background())
	require.Error(t, err)
	assert.False(t, health.Healthy)
}

func TestWalletMintDeterministic(t *testing.T) {
	svc := newWalletService("http://unused")

	addr1, hash1, err := svc.Mint(context.Background(), "https://gateway.test/ipfs/QmMeta", "42")
	require.NoError(t, err)
	assert.True(t, len(addr1) > 2 && addr1[:2] == "EQ")
	assert.NotEmpty(t, hash1)

	addr2, hash2, err := svc.Mint(context.Background(), "https://gateway.test/ipfs/QmMeta", "42")
	require.NoError(t, err)
	assert.Equal(t, addr1, addr2)
	assert.Equal(t, hash1, hash2)

	addr3, _, err := svc.Mint(context.Background(), "https://gateway.test/ipfs/QmOther", "42")
	require.NoError(t, err)
	assert.NotEqual(t, addr1, addr3)
}
