// Package fetcher provides the HTTP transport used to retrieve GIAS extracts.
package fetcher

import (
	"context"
	"io"

	"github.com/rotisserie/eris"
)

// Fetcher defines the interface for retrieving a remote file.
type Fetcher interface {
	// Get performs a single GET request. A non-2xx status is not an error;
	// callers must inspect Response.OK.
	Get(ctx context.Context, url string) (*Response, error)
}

// Response is the subset of an HTTP response the download pipeline needs.
type Response struct {
	StatusCode int
	Status     string
	Body       io.ReadCloser
}

// OK reports whether the response carries a 2xx status.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Text reads the full body as a string and closes it.
func (r *Response) Text() (string, error) {
	defer r.Body.Close() //nolint:errcheck
	data, err := io.ReadAll(r.Body)
	if err != nil {
		return "", eris.Wrap(err, "fetcher: read body")
	}
	return string(data), nil
}
