package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"quiz_nft_backend/internal/config"
	"quiz_nft_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPinataTestServer(t *testing.T) (*httptest.Server, *[]string) {
	t.Helper()

	var filenames []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/pinning/pinFileToIPFS":
			if r.Header.Get("pinata_api_key") != "test-key" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			require.NoError(t, r.ParseMultipartForm(10<<20))
			file, header, err := r.FormFile("file")
			require.NoError(t, err)
			defer file.Close()
			filenames = append(filenames, header.Filename)

			json.NewEncoder(w).Encode(map[string]string{"IpfsHash": "QmTestHash"})
		case r.Method == http.MethodDelete:
			w.WriteHeader(http.StatusOK)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv, &filenames
}

func newPinataConfig(url string) *config.StorageConfig {
	return &config.StorageConfig{
		Type:          util.StoragePinata,
		PinataAPIURL:  url,
		PinataAPIKey:  "test-key",
		PinataSecret:  "test-secret",
		GatewayURL:    "https://gateway.test/ipfs",
		UploadTimeout: 5 * time.Second,
	}
}

func TestPinataUploadImage(t *testing.T) {
	srv, filenames := newPinataTestServer(t)
	provider := NewPinataProvider(newPinataConfig(srv.URL))

	cid, err := provider.UploadImage(context.Background(), []byte("png-bytes"), "result_1.png")
	require.NoError(t, err)
	assert.Equal(t, "QmTestHash", cid)
	assert.Equal(t, []string{"result_1.png"}, *filenames)
}

func TestPinataUploadJSON(t *testing.T) {
	srv, filenames := newPinataTestServer(t)
	provider := NewPinataProvider(newPinataConfig(srv.URL))

	cid, err := provider.UploadJSON(context.Background(), map[string]string{"name": "x"}, "result_1_metadata")
	require.NoError(t, err)
	assert.Equal(t, "QmTestHash", cid)
	assert.Equal(t, []string{"result_1_metadata.json"}, *filenames)
}

func TestPinataUploadErrorWraps(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("pin queue full"))
	}))
	t.Cleanup(srv.Close)

	provider := NewPinataProvider(newPinataConfig(srv.URL))
	_, err := provider.UploadImage(context.Background(), []byte("png"), "x.png")
	require.Error(t, err)
	assert.ErrorIs(t, err, util.ErrStorageUpload)
	assert.Contains(t, err.Error(), "pin queue full")
}

func TestPinataUnpin(t *testing.T) {
	srv, _ := newPinataTestServer(t)
	provider := NewPinataProvider(newPinataConfig(srv.URL))

	assert.NoError(t, provider.Unpin(context.Background(), "QmTestHash"))
}

func TestStorageServiceResolveURL(t *testing.T) {
	cfg := newTestConfig()
	cfg.Storage = *newPinataConfig("http://unused")
	svc := NewStorageService(cfg)

	assert.Equal(t, "https://gateway.test/ipfs/QmX", svc.ResolveURL("QmX"))
}

func TestStorageServiceDefaultsToPinata(t *testing.T) {
	cfg := newTestConfig()
	cfg.Storage = config.StorageConfig{Type: "unknown"}
	svc := NewStorageService(cfg)

	_, ok := svc.Provider.(*PinataProvider)
	assert.True(t, ok)
}
