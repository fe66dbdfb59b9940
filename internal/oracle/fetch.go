package oracle

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"impactx/internal/database/minio"
)

const maxImageBytes = 10 << 20

// FetchImageBytes resolves an image reference to raw bytes. Locally uploaded
// images live under /uploads/ and are read from object storage first, with an
// HTTP round trip against our own public URL as fallback. Anything else is
// treated as a remote URL.
func (c *Client) FetchImageBytes(ctx context.Context, imageRef string) ([]byte, error) {
	if strings.HasPrefix(imageRef, "/uploads/") {
		key := strings.TrimPrefix(imageRef, "/uploads/")
		if c.minioStore != nil {
			data, err := c.minioStore.GetFileBytes(ctx, minio.Storage.Uploads, key)
			if err == nil {
				return data, nil
			}
			slog.Warn("Object storage read failed, falling back to HTTP", "key", key, "error", err)
		}
		return c.fetchURL(ctx, c.serviceURL+imageRef)
	}

	if strings.HasPrefix(imageRef, "http://") || strings.HasPrefix(imageRef, "https://") {
		return c.fetchURL(ctx, imageRef)
	}

	return nil, fmt.Errorf("%w: unsupported image reference %q", ErrImageUnavailable, imageRef)
}

func (c *Client) fetchURL(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build image request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch image: unexpected status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read image body: %w", err)
	}
	if len(data) > maxImageBytes {
		return nil, fmt.Errorf("image exceeds %d byte limit", maxImageBytes)
	}

	return data, nil
}
