package resolver

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/c360studio/xsdgraph/schema"
)

const (
	defaultNetworkTimeout = 30 * time.Second
	defaultMaxResponse    = 16 << 20 // 16 MiB
	defaultUserAgent      = "xsdgraph/0.1"
	maxRedirects          = 5
)

// Fetched is the raw content of one schema source together with the
// staleness fingerprint observed while fetching it.
type Fetched struct {
	Data        []byte
	Fingerprint string
}

// Fetcher obtains raw schema bytes for one kind of source identity.
// Implementations classify their failures with the schema error
// taxonomy so callers can tell a missing file from a network fault.
type Fetcher interface {
	// Probe computes the current staleness fingerprint for id without
	// fetching content, or returns an empty string when the source
	// cannot be probed cheaply. An error means the source is no longer
	// probeable at all (for example a deleted file) and any cached
	// entry must not be served.
	Probe(ctx context.Context, id schema.SourceID) (string, error)

	// Fetch retrieves the content and its fingerprint.
	Fetch(ctx context.Context, id schema.SourceID) (*Fetched, error)
}

// FileFetcher reads schema documents from the local filesystem.
type FileFetcher struct{}

// NewFileFetcher builds the default filesystem fetcher.
func NewFileFetcher() *FileFetcher {
	return &FileFetcher{}
}

// Probe stats the file and derives a fingerprint from its modification
// time and size, so edited files are re-read without hashing content.
func (f *FileFetcher) Probe(_ context.Context, id schema.SourceID) (string, error) {
	info, err := os.Stat(id.Value)
	if err != nil {
		return "", err
	}
	return fileFingerprint(info), nil
}

// Fetch reads the file. Any failure is reported as FileNotFound; the
// distinction between absent and unreadable is carried in the cause.
func (f *FileFetcher) Fetch(_ context.Context, id schema.SourceID) (*Fetched, error) {
	info, err := os.Stat(id.Value)
	if err != nil {
		return nil, &schema.Error{
			Kind:    schema.ErrFileNotFound,
			Source:  id,
			Message: "schema file not found",
			Err:     err,
		}
	}
	data, err := os.ReadFile(id.Value)
	if err != nil {
		return nil, &schema.Error{
			Kind:    schema.ErrFileNotFound,
			Source:  id,
			Message: "schema file not readable",
			Err:     err,
		}
	}
	return &Fetched{Data: data, Fingerprint: fileFingerprint(info)}, nil
}

func fileFingerprint(info os.FileInfo) string {
	return fmt.Sprintf("%d-%d", info.ModTime().UnixNano(), info.Size())
}

// HTTPConfig configures an HTTPFetcher.
type HTTPConfig struct {
	// Timeout bounds one fetch end to end. Zero picks a default.
	Timeout time.Duration

	// MaxResponseBytes caps the response body. Zero picks a default.
	MaxResponseBytes int64

	// UserAgent overrides the request User-Agent header.
	UserAgent string

	// Gate, when non-nil, re-validates every redirect target, so a
	// vetted URL cannot bounce the client to a private address.
	Gate Gate

	// Client substitutes the underlying HTTP client, for tests.
	// Timeout and redirect policy are only applied to built clients.
	Client *http.Client
}

// HTTPFetcher retrieves schema documents over HTTP or HTTPS with a
// per-request timeout, a response size cap, and redirect re-validation.
type HTTPFetcher struct {
	client   *http.Client
	agent    string
	maxBytes int64
}

// NewHTTPFetcher builds a network fetcher.
func NewHTTPFetcher(cfg HTTPConfig) *HTTPFetcher {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultNetworkTimeout
	}
	maxBytes := cfg.MaxResponseBytes
	if maxBytes <= 0 {
		maxBytes = defaultMaxResponse
	}
	agent := cfg.UserAgent
	if agent == "" {
		agent = defaultUserAgent
	}

	client := cfg.Client
	if client == nil {
		client = &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return fmt.Errorf("too many redirects (max %d)", maxRedirects)
				}
				if cfg.Gate == nil {
					return nil
				}
				id, err := schema.URLID(req.URL.String())
				if err != nil {
					return fmt.Errorf("redirect blocked: %w", err)
				}
				if err := cfg.Gate.Check(id); err != nil {
					return fmt.Errorf("redirect blocked: %w", err)
				}
				return nil
			},
		}
	}

	return &HTTPFetcher{client: client, agent: agent, maxBytes: maxBytes}
}

// Probe reports that remote sources cannot be checked cheaply; the
// cache relies on TTL expiry for them instead.
func (f *HTTPFetcher) Probe(context.Context, schema.SourceID) (string, error) {
	return "", nil
}

// Fetch performs the GET. A 404 or 410 maps to FileNotFound, an
// exceeded deadline to NetworkTimeout, and every other transport or
// status failure to NetworkError.
func (f *HTTPFetcher) Fetch(ctx context.Context, id schema.SourceID) (*Fetched, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, id.Value, nil)
	if err != nil {
		return nil, &schema.Error{
			Kind:    schema.ErrNetwork,
			Source:  id,
			Message: "cannot build request",
			Err:     err,
		}
	}
	req.Header.Set("User-Agent", f.agent)
	req.Header.Set("Accept", "application/xml,text/xml;q=0.9,*/*;q=0.5")

	resp, err := f.client.Do(req)
	if err != nil {
		kind := schema.ErrNetwork
		msg := "fetch failed"
		if isTimeout(err) {
			kind = schema.ErrNetworkTimeout
			msg = "fetch timed out"
		}
		return nil, &schema.Error{Kind: kind, Source: id, Message: msg, Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return nil, &schema.Error{
			Kind:    schema.ErrFileNotFound,
			Source:  id,
			Message: fmt.Sprintf("remote schema not found (HTTP %d)", resp.StatusCode),
		}
	default:
		return nil, &schema.Error{
			Kind:    schema.ErrNetwork,
			Source:  id,
			Message: fmt.Sprintf("unexpected HTTP status %d", resp.StatusCode),
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		kind := schema.ErrNetwork
		msg := "read response"
		if isTimeout(err) {
			kind = schema.ErrNetworkTimeout
			msg = "response read timed out"
		}
		return nil, &schema.Error{Kind: kind, Source: id, Message: msg, Err: err}
	}
	if int64(len(body)) > f.maxBytes {
		return nil, &schema.Error{
			Kind:    schema.ErrNetwork,
			Source:  id,
			Message: fmt.Sprintf("response exceeds %d bytes", f.maxBytes),
		}
	}

	sum := sha256.Sum256(body)
	return &Fetched{
		Data:        body,
		Fingerprint: "sha256-" + hex.EncodeToString(sum[:16]),
	}, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
