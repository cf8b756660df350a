// Copyright (c) 2026 The XGo Authors (xgo.dev). All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package fetch downloads source archives into a local cache directory.
//
// A URL is cached under the last segment of its path. When that file
// already exists no request is made, so a download is never repeated.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/rs/dnscache"
	"github.com/rs/zerolog/log"
)

// DefaultUserAgent is sent with every request unless overridden.
const DefaultUserAgent = "xstage/1.0"

// DownloadError reports a failed transfer: a transport failure, a non-2xx
// response or a failure writing the body to disk.
type DownloadError struct {
	URL        string
	Path       string // cache path the archive was meant for
	StatusCode int    // 0 when no response was received
	Err        error
}

func (e *DownloadError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("download %s: unexpected status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("download %s: %v", e.URL, e.Err)
}

func (e *DownloadError) Unwrap() error { return e.Err }

var errNoFileName = errors.New("URL path has no file name")

// Fetcher downloads archives over HTTP(S).
type Fetcher struct {
	client    *http.Client
	userAgent string
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithHTTPClient sets a custom HTTP client. A nil client keeps the default.
func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) {
		if c != nil {
			f.client = c
		}
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		if ua != "" {
			f.userAgent = ua
		}
	}
}

// WithTimeout bounds a whole download. Zero means no limit.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		f.client.Timeout = d
	}
}

// New creates a Fetcher. Host lookups go through a DNS cache; there is no
// overall timeout unless WithTimeout is given.
func New(opts ...Option) *Fetcher {
	resolver := &dnscache.Resolver{}
	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	f := &Fetcher{
		client: &http.Client{
			Transport: &http.Transport{
				Proxy: http.ProxyFromEnvironment,
				DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
					host, port, err := net.SplitHostPort(addr)
					if err != nil {
						return nil, err
					}
					ips, err := resolver.LookupHost(ctx, host)
					if err != nil {
						return nil, err
					}
					var lastErr error
					for _, ip := range ips {
						conn, err := dialer.DialContext(ctx, network, net.JoinHostPort(ip, port))
						if err == nil {
							return conn, nil
						}
						lastErr = err
					}
					if lastErr == nil {
						lastErr = fmt.Errorf("no addresses for %s", host)
					}
					return nil, lastErr
				},
				MaxIdleConns:          10,
				IdleConnTimeout:       90 * time.Second,
				TLSHandshakeTimeout:   10 * time.Second,
				ExpectContinueTimeout: 1 * time.Second,
			},
		},
		userAgent: DefaultUserAgent,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// FileName returns the cache file name for rawURL: the last segment of its
// path.
func FileName(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	name := path.Base(u.Path)
	if name == "." || name == "/" || name == ".." {
		return "", errNoFileName
	}
	return name, nil
}

// Fetch returns the path of the archive for rawURL inside dir, downloading
// it first when it is not already there. A failed download leaves nothing
// at that path.
func (f *Fetcher) Fetch(ctx context.Context, rawURL, dir string) (string, error) {
	name, err := FileName(rawURL)
	if err != nil {
		return "", &DownloadError{URL: rawURL, Err: err}
	}
	dest := filepath.Join(dir, name)
	if _, err := os.Stat(dest); err == nil {
		log.Debug().Str("url", rawURL).Str("path", dest).Msg("archive cached")
		return dest, nil
	}

	log.Info().Str("url", rawURL).Str("path", dest).Msg("downloading")
	if err := f.download(ctx, rawURL, dest); err != nil {
		return "", err
	}
	return dest, nil
}

func (f *Fetcher) download(ctx context.Context, rawURL, dest string) error {
	fail := func(status int, err error) error {
		return &DownloadError{URL: rawURL, Path: dest, StatusCode: status, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fail(0, fmt.Errorf("creating request: %w", err))
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "*/*")

	resp, err := f.client.Do(req)
	if err != nil {
		return fail(0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1024))
		return fail(resp.StatusCode, fmt.Errorf("%s", resp.Status))
	}

	tmp, err := os.CreateTemp(filepath.Dir(dest), "."+filepath.Base(dest)+".*.part")
	if err != nil {
		return fail(0, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	n, err := io.Copy(tmp, resp.Body)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fail(0, fmt.Errorf("writing %s: %w", dest, err))
	}
	if err := os.Rename(tmpName, dest); err != nil {
		return fail(0, err)
	}
	log.Debug().Str("path", dest).Int64("bytes", n).Msg("download complete")
	return nil
}
