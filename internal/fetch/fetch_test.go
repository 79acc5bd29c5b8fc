package fetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFetcher() *Fetcher {
	return New(nil, 0, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestDownload_StreamsBodyAndOverwrites(t *testing.T) {
	body := bytes.Repeat([]byte("hearthstone"), 100_000)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		w.Header().Set("Content-Type", "application/zip")
		_, _ = w.Write(body)
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "temp.zip")
	require.NoError(t, os.WriteFile(dest, []byte("stale partial download from last time, longer than nothing"), 0o644))

	n, err := newTestFetcher().Download(context.Background(), srv.URL+"/pre_patch.zip", dest)
	require.NoError(t, err)
	assert.Equal(t, int64(len(body)), n)

	got, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.True(t, bytes.Equal(body, got), "downloaded bytes differ")
}

func TestDownload_Non2xxLeavesNoArchive(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down for maintenance", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "temp.zip")
	_, err := newTestFetcher().Download(context.Background(), srv.URL, dest)
	require.Error(t, err)

	var se *StatusError
	require.True(t, errors.As(err, &se), "err=%v", err)
	assert.Equal(t, http.StatusServiceUnavailable, se.StatusCode)
	assert.Equal(t, CauseRemote, Classify(err))

	_, statErr := os.Stat(dest)
	assert.True(t, os.IsNotExist(statErr), "no archive should be written for a failed request")
}

func TestDownload_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	_, err := newTestFetcher().Download(context.Background(), srv.URL, filepath.Join(t.TempDir(), "temp.zip"))
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusNotFound, se.StatusCode)
}

func TestDownload_ConnectionRefusedIsNetwork(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := newTestFetcher().Download(context.Background(), url, filepath.Join(t.TempDir(), "temp.zip"))
	require.Error(t, err)
	assert.Equal(t, CauseNetwork, Classify(err))
}

func TestClassify_Unknown(t *testing.T) {
	assert.Equal(t, CauseUnknown, Classify(nil))
	assert.Equal(t, CauseUnknown, Classify(errors.New("disk on fire")))
	assert.Equal(t, CauseRemote, Classify(fmt.Errorf("wrapped: %w", &StatusError{StatusCode: 500, Status: "500 Internal Server Error"})))
}

func TestDownload_CancelledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("x"))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newTestFetcher().Download(ctx, srv.URL, filepath.Join(t.TempDir(), "temp.zip"))
	assert.ErrorIs(t, err, context.Canceled)
}
