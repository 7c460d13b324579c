// Package download transfers a batch of artifacts with bounded
// concurrency. The batch is fail-fast: the first failing transfer
// cancels the in-flight remainder and is reported to the caller.
// Already-written files are left in place; re-running overwrites them.
package download

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"

	"github.com/reglet-dev/lockfetch/internal/apperrors"
	"golang.org/x/sync/errgroup"
)

// Item is one transfer: a source URL and the destination path it is
// written to. The batch is keyed by destination, so two items sharing
// a URL but naming different paths both materialize on disk.
type Item struct {
	URL  string
	Path string
}

// Fetch downloads all items, running at most limit transfers at once.
// Parent directories of each destination must already exist.
func Fetch(ctx context.Context, items []Item, limit int) error {
	if limit <= 0 {
		limit = 1
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for _, item := range items {
		item := item
		g.Go(func() error {
			if err := fetchOne(ctx, item); err != nil {
				return apperrors.NewDownloadError(item.URL, err)
			}
			slog.Debug("downloaded artifact", "url", item.URL, "path", item.Path)
			return nil
		})
	}

	return g.Wait()
}

func fetchOne(ctx context.Context, item Item) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, item.URL, nil)
	if err != nil {
		return err
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %q", resp.Status)
	}

	f, err := os.Create(item.Path)
	if err != nil {
		return err
	}

	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
