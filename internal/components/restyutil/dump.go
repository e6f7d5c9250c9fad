// Package restyutil writes the exchanges of a resty client to disk so a page
// that stopped parsing can be looked at after the fact.
package restyutil

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/go-resty/resty/v2"
)

// Output receives one formatted exchange per response.
type Output interface {
	Write(id string, contents string) error
}

type FilesystemOutput struct {
	directory string
}

// NewFilesystemOutput writes exchanges as files into dir, creating it if needed.
func NewFilesystemOutput(dir string) (FilesystemOutput, error) {
	err := os.MkdirAll(dir, 0755)
	if err != nil {
		return FilesystemOutput{}, err
	}
	return FilesystemOutput{directory: dir}, nil
}

func (o FilesystemOutput) Write(id string, contents string) error {
	return os.WriteFile(filepath.Join(o.directory, id), []byte(contents), 0600)
}

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// Dump registers a hook writing every response of the client to output as
// "<n>-<host><path>.txt". Errors writing the dump are passed to onErr.
func Dump(client *resty.Client, output Output, onErr func(error)) {
	var counter uint64
	client.OnAfterResponse(func(_ *resty.Client, res *resty.Response) error {
		n := atomic.AddUint64(&counter, 1)

		name := res.Request.URL
		if res.RawResponse != nil && res.RawResponse.Request != nil {
			u := res.RawResponse.Request.URL
			name = u.Host + u.Path
		}
		name = strings.Trim(unsafeChars.ReplaceAllString(name, "_"), "_")
		id := fmt.Sprintf("%03d-%s.txt", n, name)

		err := output.Write(id, FormatExchange(res))
		if err != nil && onErr != nil {
			onErr(err)
		}
		return nil
	})
}

func formatHeaders(headers http.Header) string {
	keys := make([]string, 0, len(headers))
	for k := range headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var out strings.Builder
	for _, k := range keys {
		for _, v := range headers[k] {
			fmt.Fprintf(&out, "%s: %s\n", k, v)
		}
	}
	return strings.TrimSuffix(out.String(), "\n")
}

// FormatExchange renders the request line and headers followed by the
// response status, headers and body.
func FormatExchange(res *resty.Response) string {
	var requestHeaders string
	if res.Request.RawRequest != nil {
		requestHeaders = formatHeaders(res.Request.RawRequest.Header)
	}
	return fmt.Sprintf(
		"---- REQUEST ----\n\n%s %s\n\n%s\n\n---- RESPONSE ----\n\n%s\n\n%s\n\n%s",
		res.Request.Method, res.Request.URL,
		requestHeaders,
		res.Status(),
		formatHeaders(res.Header()),
		res.String(),
	)
}
