package gias

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/RogerHowellDfE/gias-data/internal/fetcher"
)

// fakeResponse is one canned transport response.
type fakeResponse struct {
	status int
	body   string
}

// fakeFetcher implements fetcher.Fetcher for testing. Responses are keyed by
// URL; unknown URLs get a 404. A non-nil err fails every request.
type fakeFetcher struct {
	responses map[string]fakeResponse
	err       error
	calls     []string
}

func (f *fakeFetcher) Get(_ context.Context, url string) (*fetcher.Response, error) {
	f.calls = append(f.calls, url)
	if f.err != nil {
		return nil, f.err
	}
	fr, ok := f.responses[url]
	if !ok {
		fr = fakeResponse{status: http.StatusNotFound}
	}
	return &fetcher.Response{
		StatusCode: fr.status,
		Status:     fmt.Sprintf("%d %s", fr.status, http.StatusText(fr.status)),
		Body:       io.NopCloser(strings.NewReader(fr.body)),
	}, nil
}
