package keystore

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func newRecordingServer(t *testing.T, record func(*http.Request)) string {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		record(r)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"keys":[]}`))
	}))
	t.Cleanup(server.Close)
	return server.URL
}
