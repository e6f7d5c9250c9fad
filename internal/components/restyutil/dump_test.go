package restyutil

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/require"
)

func TestDump(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("x-page", r.URL.Path)
		w.Write([]byte("<html>statistics</html>"))
	}))
	defer server.Close()

	dir := filepath.Join(t.TempDir(), "dump")
	output, err := NewFilesystemOutput(dir)
	require.NoError(t, err)

	client := resty.New()
	Dump(client, output, func(err error) { t.Error(err) })

	_, err = client.R().Get(server.URL + "/hirek")
	require.NoError(t, err)
	_, err = client.R().Get(server.URL + "/")
	require.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Regexp(t, `^001-127\.0\.0\.1_\d+_hirek\.txt$`, entries[0].Name())

	contents, err := os.ReadFile(filepath.Join(dir, entries[0].Name()))
	require.NoError(t, err)
	require.Contains(t, string(contents), "GET "+server.URL+"/hirek")
	require.Contains(t, string(contents), "X-Page: /hirek")
	require.Contains(t, string(contents), "<html>statistics</html>")
}
