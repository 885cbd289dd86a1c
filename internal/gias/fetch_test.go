package gias

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const csvBody = "header1,header2\nvalue1,value2"

func fetchPaths(t *testing.T) (finalPath, tempPath string) {
	t.Helper()
	dir := t.TempDir()
	finalPath = filepath.Join(dir, "edubasealldata.csv")
	return finalPath, finalPath + ".tmp"
}

func TestFetchFile_Success(t *testing.T) {
	finalPath, tempPath := fetchPaths(t)
	f := &fakeFetcher{responses: map[string]fakeResponse{
		"https://example.test/edubasealldata20260830.csv": {status: http.StatusOK, body: csvBody},
	}}

	res := FetchFile(context.Background(), f, "https://example.test/edubasealldata20260830.csv", finalPath, tempPath, 20)

	assert.True(t, res.Success)
	assert.Empty(t, res.Warning)

	data, err := os.ReadFile(finalPath)
	require.NoError(t, err)
	assert.Equal(t, csvBody, string(data))

	_, err = os.Stat(tempPath)
	assert.True(t, errors.Is(err, os.ErrNotExist), "temp file must not remain")
}

func TestFetchFile_NotFound(t *testing.T) {
	finalPath, tempPath := fetchPaths(t)
	f := &fakeFetcher{}

	res := FetchFile(context.Background(), f, "https://example.test/missing.csv", finalPath, tempPath, 20)

	assert.False(t, res.Success)
	assert.Empty(t, res.Warning)
	_, err := os.Stat(finalPath)
	assert.True(t, errors.Is(err, os.ErrNotExist), "no file may be written on 404")
}

func TestFetchFile_TransportError(t *testing.T) {
	finalPath, tempPath := fetchPaths(t)
	f := &fakeFetcher{err: errors.New("connection refused")}

	// A stale temp file from an interrupted earlier run gets cleaned up.
	require.NoError(t, os.WriteFile(tempPath, []byte("partial"), 0o644))

	res := FetchFile(context.Background(), f, "https://example.test/x.csv", finalPath, tempPath, 20)

	assert.False(t, res.Success)
	_, err := os.Stat(tempPath)
	assert.True(t, errors.Is(err, os.ErrNotExist), "stale temp file must be removed")
}

func TestFetchFile_CleanupFailureDoesNotPanic(t *testing.T) {
	finalPath, tempPath := fetchPaths(t)

	// An undeletable temp path: os.Remove refuses a non-empty directory.
	require.NoError(t, os.MkdirAll(filepath.Join(tempPath, "stuck"), 0o755))

	f := &fakeFetcher{err: errors.New("connection refused")}
	res := FetchFile(context.Background(), f, "https://example.test/x.csv", finalPath, tempPath, 20)

	assert.False(t, res.Success)
	assert.Empty(t, res.Warning)

	// The cleanup failure is absorbed: the stuck path is still there and the
	// final path was never created.
	info, err := os.Stat(tempPath)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
	_, err = os.Stat(finalPath)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestFetchFile_RejectsHTMLErrorPage(t *testing.T) {
	finalPath, tempPath := fetchPaths(t)
	f := &fakeFetcher{responses: map[string]fakeResponse{
		"https://example.test/x.csv": {status: http.StatusOK, body: "<!DOCTYPE html><html><body>down for maintenance</body></html>"},
	}}

	res := FetchFile(context.Background(), f, "https://example.test/x.csv", finalPath, tempPath, 20)

	assert.False(t, res.Success)
	_, err := os.Stat(finalPath)
	assert.True(t, errors.Is(err, os.ErrNotExist), "rejected content must not reach disk")
}

func TestFetchFile_DoesNotReplaceOnFailure(t *testing.T) {
	finalPath, tempPath := fetchPaths(t)
	require.NoError(t, os.WriteFile(finalPath, []byte(csvBody), 0o644))

	f := &fakeFetcher{} // 404 for every URL
	res := FetchFile(context.Background(), f, "https://example.test/x.csv", finalPath, tempPath, 20)

	assert.False(t, res.Success)
	data, err := os.ReadFile(finalPath)
	require.NoError(t, err)
	assert.Equal(t, csvBody, string(data), "existing file must stay untouched")
}

func TestFetchFile_SizeIncreaseWarning(t *testing.T) {
	finalPath, tempPath := fetchPaths(t)

	// 26 bytes before, 34 bytes after: +30.77%, over the 1% threshold.
	oldBody := "header1,header2\nvalue1,val"
	newBody := "header1,header2\nvalue1,value2,ext\n"
	require.NoError(t, os.WriteFile(finalPath, []byte(oldBody), 0o644))

	f := &fakeFetcher{responses: map[string]fakeResponse{
		"https://example.test/x.csv": {status: http.StatusOK, body: newBody},
	}}

	res := FetchFile(context.Background(), f, "https://example.test/x.csv", finalPath, tempPath, 1)

	assert.True(t, res.Success)
	assert.Contains(t, res.Warning, "increased in size by")

	data, err := os.ReadFile(finalPath)
	require.NoError(t, err)
	assert.Equal(t, newBody, string(data), "warning must not block the replacement")
}

func TestFetchFile_ExactThresholdDoesNotWarn(t *testing.T) {
	finalPath, tempPath := fetchPaths(t)

	// 100 bytes before, 120 bytes after: exactly +20%.
	oldBody := "a,b\n" + strings.Repeat("x", 96)
	newBody := "a,b\n" + strings.Repeat("x", 116)
	require.NoError(t, os.WriteFile(finalPath, []byte(oldBody), 0o644))

	f := &fakeFetcher{responses: map[string]fakeResponse{
		"https://example.test/x.csv": {status: http.StatusOK, body: newBody},
	}}

	res := FetchFile(context.Background(), f, "https://example.test/x.csv", finalPath, tempPath, 20)

	assert.True(t, res.Success)
	assert.Empty(t, res.Warning)
}

func TestFetchFile_WriteFailure(t *testing.T) {
	dir := t.TempDir()
	finalPath := filepath.Join(dir, "nope", "out.csv")
	tempPath := finalPath + ".tmp" // parent dir missing, write fails

	f := &fakeFetcher{responses: map[string]fakeResponse{
		"https://example.test/x.csv": {status: http.StatusOK, body: csvBody},
	}}

	res := FetchFile(context.Background(), f, "https://example.test/x.csv", finalPath, tempPath, 20)
	assert.False(t, res.Success)
	assert.Empty(t, res.Warning)
}
