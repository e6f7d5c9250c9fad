package koronavirus

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"covidcurve/internal/components/telemetry"
	"covidcurve/internal/covid"

	"github.com/stretchr/testify/require"
)

func TestClientFetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/":
			require.Contains(t, r.Header.Get("user-agent"), "Mozilla")
			w.Write([]byte("<html>ok</html>"))
		default:
			w.WriteHeader(http.StatusServiceUnavailable)
		}
	}))
	defer server.Close()

	tel := telemetry.NewTestAPI(t)
	client := NewClient(ClientOptions{Timeout: time.Second * 5}, tel)

	ctx := context.Background()

	body, err := client.Fetch(ctx, server.URL+"/")
	require.NoError(t, err)
	require.Equal(t, "<html>ok</html>", string(body))

	_, err = client.Fetch(ctx, server.URL+"/down")
	require.ErrorIs(t, err, covid.ErrNetwork)
	require.NotEmpty(t, tel.Reports("broken", report_client_fetch))
}

func TestClientFetchUnreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	link := server.URL
	server.Close()

	client := NewClient(ClientOptions{Timeout: time.Second}, telemetry.NewTestAPI(t))
	_, err := client.Fetch(context.Background(), link)
	require.ErrorIs(t, err, covid.ErrNetwork)
}

func TestClientDump(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>ok</html>"))
	}))
	defer server.Close()

	dir := filepath.Join(t.TempDir(), "dump")
	client := NewClient(ClientOptions{DumpDir: dir}, telemetry.NewTestAPI(t))
	_, err := client.Fetch(context.Background(), server.URL)
	require.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestClientRateLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	client := NewClient(ClientOptions{RequestsPerSecond: 20}, telemetry.NewTestAPI(t))

	start := time.Now()
	for i := 0; i < 3; i++ {
		_, err := client.Fetch(context.Background(), server.URL)
		require.NoError(t, err)
	}
	// first request passes immediately, the next two wait ~50ms each
	require.GreaterOrEqual(t, time.Since(start), time.Millisecond*90)
}

func TestNewClientDefaults(t *testing.T) {
	client := NewClient(ClientOptions{}, telemetry.NewTestAPI(t))
	require.Equal(t, time.Second*30, client.http.GetClient().Timeout)
	require.Equal(t, defaultUserAgent, client.http.Header.Get("user-agent"))

	client = NewClient(ClientOptions{
		Timeout:   time.Second * 2,
		UserAgent: "covidcurve-test",
	}, telemetry.NewTestAPI(t))
	require.Equal(t, time.Second*2, client.http.GetClient().Timeout)
	require.Equal(t, "covidcurve-test", client.http.Header.Get("user-agent"))
}
