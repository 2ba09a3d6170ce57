package http

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	// DefaultTimeout is used when NewClient is given a non-positive timeout.
	DefaultTimeout = 60 * time.Second

	// MaxTrackSize caps a remote source held in memory.
	MaxTrackSize = 256 << 20
)

// ErrTooLarge is returned when a response exceeds the client's size cap.
var ErrTooLarge = errors.New("response too large")

// Client fetches remote tracks into memory for decoding.
//
// Every request carries the "melody" User-Agent and is bounded by the
// client timeout and by MaxTrackSize.
type Client struct {
	httpClient *http.Client
	userAgent  string
	maxSize    int64
}

// NewClient creates a client with the given timeout.
func NewClient(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		userAgent:  "melody",
		maxSize:    MaxTrackSize,
	}
}

// Get fetches url without progress reporting.
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	return c.Fetch(ctx, url, nil)
}

// Fetch downloads url into memory. onProgress, if non-nil, is called after
// every chunk with the bytes read so far and the Content-Length (-1 when
// the server does not send one).
//
// Example:
//
//	data, err := client.Fetch(ctx, "https://example.com/song.ogg", nil)
func (c *Client) Fetch(ctx context.Context, url string, onProgress func(read, total int64)) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: %s", url, resp.Status)
	}
	if resp.ContentLength > c.maxSize {
		return nil, fmt.Errorf("fetch %s: %w", url, ErrTooLarge)
	}

	var buf bytes.Buffer
	if resp.ContentLength > 0 {
		buf.Grow(int(resp.ContentLength))
	}

	w := &counter{dst: &buf, total: resp.ContentLength, report: onProgress}
	// One byte over the cap tells a truncated body from an exact fit.
	n, err := io.Copy(w, io.LimitReader(resp.Body, c.maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", url, err)
	}
	if n > c.maxSize {
		return nil, fmt.Errorf("fetch %s: %w", url, ErrTooLarge)
	}
	return buf.Bytes(), nil
}

type counter struct {
	dst    io.Writer
	read   int64
	total  int64
	report func(read, total int64)
}

func (c *counter) Write(p []byte) (int, error) {
	n, err := c.dst.Write(p)
	c.read += int64(n)
	if c.report != nil {
		c.report(c.read, c.total)
	}
	return n, err
}
