// Package utils provides cached downloads and on-disk snapshots for the
// globe's remote datasets.
package utils

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/sudorandom/dc-globe/pkg/logging"
)

var ErrNotFound = errors.New("file not found on server")

type progressWriter struct {
	io.Writer
	total uint64
	last  uint64
	label string
}

func (pw *progressWriter) Write(p []byte) (int, error) {
	n, err := pw.Writer.Write(p)
	pw.total += uint64(n)
	if pw.total-pw.last > 5*1024*1024 { // Log every 5MB
		l := logging.Component("cache")
		l.Info().Str("file", pw.label).Uint64("mb", pw.total/1024/1024).Msg("Downloading")
		pw.last = pw.total
	}
	return n, err
}

func get(ctx context.Context, client *http.Client, url string) (*http.Response, error) {
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		closeBody(resp)
		if resp.StatusCode == http.StatusNotFound {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("bad status: %s", resp.Status)
	}
	return resp, nil
}

func closeBody(resp *http.Response) {
	if err := resp.Body.Close(); err != nil {
		logging.Debug().Err(err).Msg("Error closing response body")
	}
}

// DownloadFile downloads a file from a URL to a local path safely.
func DownloadFile(ctx context.Context, client *http.Client, url, path string) error {
	resp, err := get(ctx, client, url)
	if err != nil {
		return err
	}
	defer closeBody(resp)

	// Create a temp file in the same directory to ensure atomic move
	tmpFile, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmpFile.Name()
	defer func() {
		if err := os.Remove(tmpName); err != nil && !os.IsNotExist(err) {
			logging.Warn().Err(err).Str("path", tmpName).Msg("Error removing temp file")
		}
	}() // Clean up if we fail

	pw := &progressWriter{Writer: tmpFile, label: filepath.Base(path)}
	if _, err := io.Copy(pw, resp.Body); err != nil {
		_ = tmpFile.Close()
		return err
	}
	if err := tmpFile.Close(); err != nil {
		return err
	}

	// Atomic rename to final path
	return os.Rename(tmpName, path)
}

// GetCacheFileName returns the expected local filename for a given URL.
func GetCacheFileName(url string) string {
	url, _, _ = strings.Cut(url, "?")
	urlParts := strings.Split(strings.TrimRight(url, "/"), "/")
	return urlParts[len(urlParts)-1]
}

// GetCachedReader returns a reader for the given URL. With a cache dir the
// file is downloaded once and served from disk afterwards; an empty cache dir
// streams straight from the network.
func GetCachedReader(ctx context.Context, client *http.Client, url, cacheDir string) (io.ReadCloser, error) {
	log := logging.Component("cache")
	if cacheDir == "" {
		log.Debug().Str("url", url).Msg("Streaming")
		resp, err := get(ctx, client, url)
		if err != nil {
			return nil, err
		}
		return resp.Body, nil
	}

	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache dir: %w", err)
	}
	localPath := filepath.Join(cacheDir, GetCacheFileName(url))

	if _, err := os.Stat(localPath); os.IsNotExist(err) {
		log.Info().Str("url", url).Msg("Downloading")
		if err := DownloadFile(ctx, client, url, localPath); err != nil {
			return nil, err // Return the error directly so caller can see ErrNotFound
		}
	} else {
		log.Debug().Str("path", localPath).Msg("Using cached file")
	}
	f, err := os.Open(localPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache: %w", err)
	}
	return f, nil
}
