package fetch

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
)

// DefaultChunkSize is the read/write unit used while streaming the body.
const DefaultChunkSize = 8192

// Cause groups download failures into the categories shown to the user.
type Cause int

const (
	CauseUnknown Cause = iota
	// CauseNetwork covers DNS, connection and TLS failures on the user's side.
	CauseNetwork
	// CauseRemote means the server answered with a non-2xx status.
	CauseRemote
)

func (c Cause) String() string {
	switch c {
	case CauseNetwork:
		return "network"
	case CauseRemote:
		return "remote"
	default:
		return "unknown"
	}
}

// StatusError is returned for any response outside 200-299.
type StatusError struct {
	URL        string
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: unexpected status %s", e.URL, e.Status)
}

type Fetcher struct {
	client    *http.Client
	chunkSize int
	log       *slog.Logger
}

// New returns a Fetcher. A nil client means http.DefaultClient; the download
// is not given a timeout.
func New(client *http.Client, chunkSize int, logger *slog.Logger) *Fetcher {
	if client == nil {
		client = http.DefaultClient
	}
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Fetcher{client: client, chunkSize: chunkSize, log: logger.With("component", "fetch")}
}

// Download streams url into dest, replacing any existing file. The destination
// is only opened once a 2xx response has been received. It returns the number
// of bytes written.
func (f *Fetcher) Download(ctx context.Context, url, dest string) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/zip")

	resp, err := f.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return 0, &StatusError{URL: url, StatusCode: resp.StatusCode, Status: resp.Status}
	}

	f.log.Info("downloading patch",
		"url", url,
		"dest", dest,
		"content_length", resp.ContentLength,
		"content_type", resp.Header.Get("Content-Type"),
	)

	out, err := os.Create(dest)
	if err != nil {
		return 0, fmt.Errorf("create %s: %w", dest, err)
	}

	n, err := io.CopyBuffer(onlyWriter{out}, resp.Body, make([]byte, f.chunkSize))
	if err != nil {
		_ = out.Close()
		return n, fmt.Errorf("write %s after %d bytes: %w", dest, n, err)
	}
	if err := out.Close(); err != nil {
		return n, fmt.Errorf("close %s: %w", dest, err)
	}
	if resp.ContentLength >= 0 && n != resp.ContentLength {
		return n, fmt.Errorf("short body: got %d of %d bytes: %w", n, resp.ContentLength, io.ErrUnexpectedEOF)
	}

	f.log.Info("download complete", "bytes", n)
	return n, nil
}

// onlyWriter hides *os.File's ReadFrom so io.CopyBuffer uses our buffer and
// the body is written in bounded chunks.
type onlyWriter struct{ w io.Writer }

func (o onlyWriter) Write(p []byte) (int, error) { return o.w.Write(p) }

// Classify maps a Download error to a user-facing category.
func Classify(err error) Cause {
	if err == nil {
		return CauseUnknown
	}
	var se *StatusError
	if errors.As(err, &se) {
		return CauseRemote
	}

	var (
		dnsErr    *net.DNSError
		opErr     *net.OpError
		certErr   *tls.CertificateVerificationError
		unknownCA x509.UnknownAuthorityError
		hostErr   x509.HostnameError
		recordErr tls.RecordHeaderError
	)
	switch {
	case errors.As(err, &dnsErr),
		errors.As(err, &opErr),
		errors.As(err, &certErr),
		errors.As(err, &unknownCA),
		errors.As(err, &hostErr),
		errors.As(err, &recordErr):
		return CauseNetwork
	case errors.Is(err, io.ErrUnexpectedEOF):
		return CauseNetwork
	}
	return CauseUnknown
}
