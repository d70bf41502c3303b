// Package images implements the image-download collaborator: fetch bytes
// for a legacy photo URL, store them locally, return the new reference.
package images

import (
	"context"
	crand "crypto/rand"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

var ErrNotFound = errors.New("images: not found")

const maxImageBytes = 20 << 20 // refuse anything above 20 MiB

type Downloader struct {
	hc       *http.Client
	mediaDir string
	rl       *rate.Limiter
	sem      *semaphore.Weighted
}

// New builds a Downloader writing into mediaDir. rps caps request rate
// against the legacy media host, workers caps in-flight downloads.
func New(mediaDir string, rps, workers int) (*Downloader, error) {
	if mediaDir == "" {
		return nil, fmt.Errorf("media dir is required")
	}
	if err := os.MkdirAll(mediaDir, 0o755); err != nil {
		return nil, fmt.Errorf("create media dir: %w", err)
	}
	if rps <= 0 {
		rps = 5
	}
	if workers <= 0 {
		workers = 4
	}
	return &Downloader{
		hc:       &http.Client{Timeout: 30 * time.Second},
		mediaDir: mediaDir,
		rl:       rate.NewLimiter(rate.Limit(rps), rps),
		sem:      semaphore.NewWeighted(int64(workers)),
	}, nil
}

// Fetch downloads one image with client-side rate limiting and retries,
// stores it under a content-addressed name and returns the reference path.
// Re-fetching the same URL returns the same reference.
func (d *Downloader) Fetch(ctx context.Context, url string) (string, error) {
	if err := d.sem.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer d.sem.Release(1)

	name := fileName(url)
	dst := filepath.Join(d.mediaDir, name)
	if _, err := os.Stat(dst); err == nil {
		return "/media/" + name, nil
	}

	body, err := d.get(ctx, url)
	if err != nil {
		return "", err
	}

	// write via temp file so a failed download never leaves a partial ref
	tmp, err := os.CreateTemp(d.mediaDir, ".dl-*")
	if err != nil {
		return "", fmt.Errorf("temp file: %w", err)
	}
	if _, err := tmp.Write(body); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("write image: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("close image: %w", err)
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("store image: %w", err)
	}
	return "/media/" + name, nil
}

// get performs a GET with rate limiting and retries on 429 and transient
// 5xx, honoring Retry-After when provided.
func (d *Downloader) get(ctx context.Context, url string) ([]byte, error) {
	if err := d.rl.Wait(ctx); err != nil {
		return nil, err
	}

	var lastErr error
	for i := 0; i < 4; i++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", "legacy-migrator/1.0")

		resp, err := d.hc.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
			if i < 3 && sleepCtx(ctx, backoff(i)) {
				continue
			}
			return nil, lastErr
		}

		switch resp.StatusCode {
		case http.StatusOK:
			b, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes+1))
			resp.Body.Close()
			if err != nil {
				return nil, err
			}
			if len(b) > maxImageBytes {
				return nil, fmt.Errorf("image exceeds %d bytes", maxImageBytes)
			}
			return b, nil

		case http.StatusNotFound, http.StatusGone:
			resp.Body.Close()
			return nil, ErrNotFound

		case http.StatusTooManyRequests, http.StatusInternalServerError,
			http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			wait := retryAfter(resp)
			resp.Body.Close()
			if wait == 0 {
				wait = backoff(i)
			}
			lastErr = fmt.Errorf("remote %d", resp.StatusCode)
			if i < 3 && sleepCtx(ctx, wait) {
				continue
			}
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, lastErr

		default:
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
			resp.Body.Close()
			return nil, fmt.Errorf("bad status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
		}
	}
	return nil, lastErr
}

// fileName derives a stable content-addressed name from the source URL.
func fileName(url string) string {
	sum := sha1.Sum([]byte(url))
	ext := path.Ext(url)
	if ext == "" || len(ext) > 5 {
		ext = ".jpg"
	}
	return hex.EncodeToString(sum[:]) + ext
}

// sleepCtx waits for d or returns early if ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// retryAfter parses Retry-After (seconds or HTTP-date); 0 if absent.
func retryAfter(resp *http.Response) time.Duration {
	h := resp.Header.Get("Retry-After")
	if h == "" {
		return 0
	}
	if secs, err := strconv.Atoi(strings.TrimSpace(h)); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(h); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

// backoff doubles each attempt (200ms, 400ms, 800ms...) with up to +50%
// jitter to avoid thundering herds.
func backoff(i int) time.Duration {
	base := time.Duration(1<<i) * 200 * time.Millisecond
	var b [1]byte
	if _, err := crand.Read(b[:]); err != nil {
		return base
	}
	f := float64(b[0]) / 255.0
	j := time.Duration(0.5 * f * float64(base))
	return base + j
}
