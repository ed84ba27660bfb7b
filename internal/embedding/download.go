package embedding

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
)

// Downloader fetches model weights from url into dest, reporting percent
// complete (or -1 when the total size is unknown).
type Downloader func(ctx context.Context, url, dest string, progress func(percent float64)) error

// HTTPDownload is the default Downloader. It streams the response body to a
// temporary file and renames it into place so a partial download never
// poisons the weight cache.
func HTTPDownload(ctx context.Context, url, dest string, progress func(percent float64)) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return fmt.Errorf("create model dir: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("fetch model weights: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetch model weights: server returned %d", resp.StatusCode)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dest), ".download-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	total := resp.ContentLength
	var written int64
	buf := make([]byte, 256*1024)
	for {
		if err := ctx.Err(); err != nil {
			tmp.Close()
			return err
		}
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			if _, writeErr := tmp.Write(buf[:n]); writeErr != nil {
				tmp.Close()
				return fmt.Errorf("write model weights: %w", writeErr)
			}
			written += int64(n)
			if progress != nil {
				if total > 0 {
					progress(float64(written) / float64(total) * 100)
				} else {
					progress(-1)
				}
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			tmp.Close()
			return fmt.Errorf("read model weights: %w", readErr)
		}
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		return fmt.Errorf("move weights into cache: %w", err)
	}
	return nil
}
