package utils

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDownloadTemp(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte("payload"))
	}))
	defer srv.Close()

	name, err := DownloadTemp(context.Background(), srv.URL+"/ok", "dl-*.bin")
	require.NoError(t, err)
	defer os.Remove(name)
	data, err := os.ReadFile(name)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))

	_, err = DownloadTemp(context.Background(), srv.URL+"/missing", "dl-*.bin")
	assert.ErrorContains(t, err, "404")
}
