package requestid

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func echoServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Seen-ID", r.Header.Get(headerKey))
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestTransportGeneratesID(t *testing.T) {
	srv := echoServer(t)
	client := &http.Client{Transport: Transport(nil)}

	resp, err := client.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	_, err = uuid.Parse(resp.Header.Get("X-Seen-ID"))
	require.NoError(t, err)
}

func TestTransportUsesContextID(t *testing.T) {
	srv := echoServer(t)
	client := &http.Client{Transport: Transport(nil)}

	req, err := http.NewRequestWithContext(WithValue(context.Background(), "req-42"), http.MethodGet, srv.URL, nil)
	require.NoError(t, err)
	resp, err := client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, "req-42", resp.Header.Get("X-Seen-ID"))
	require.Empty(t, req.Header.Get(headerKey), "caller request must not be mutated")
}

func TestTransportKeepsExistingHeader(t *testing.T) {
	srv := echoServer(t)
	client := &http.Client{Transport: Transport(nil)}

	req, err := http.NewRequest(http.MethodGet, srv.URL, nil)
	require.NoError(t, err)
	req.Header.Set(headerKey, "fixed")
	resp, err := client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, "fixed", resp.Header.Get("X-Seen-ID"))
	require.Equal(t, "fixed", FromRequest(req))
}

func TestValueWithoutID(t *testing.T) {
	require.Empty(t, Value(context.Background()))
	require.Empty(t, FromRequest(nil))
	require.NotEqual(t, New(), New())
}
