package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/couchcryptid/nuclide-data-etl/internal/domain"
	"github.com/couchcryptid/nuclide-data-etl/internal/observability"
)

// KAERIDir is the raw-dir subdirectory holding one KAERI page per element.
const KAERIDir = "KAERI"

// Fetcher downloads raw source documents into a directory. It implements
// pipeline.Fetcher: a document already on disk is never downloaded again.
type Fetcher struct {
	source     string // metrics label
	httpClient *http.Client
	urlFor     func(identifier string) string
	pathFor    func(identifier string) string // relative to the destination dir
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewKAERIFetcher fetches KAERI nuclide pages, e.g. <baseURL>?nuc=He, into
// <dest>/KAERI/He.html.
func NewKAERIFetcher(baseURL string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Fetcher {
	return &Fetcher{
		source:     "kaeri",
		httpClient: &http.Client{Timeout: timeout},
		urlFor: func(id string) string {
			return baseURL + "?" + url.Values{"nuc": {id}}.Encode()
		},
		pathFor: func(id string) string {
			return filepath.Join(KAERIDir, id+".html")
		},
		metrics: metrics,
		logger:  logger,
	}
}

// NewAMDCFetcher fetches AMDC mass tables, e.g. <baseURL>/mass.mas03, into
// <dest>/mass.mas03.
func NewAMDCFetcher(baseURL string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Fetcher {
	return &Fetcher{
		source:     "amdc",
		httpClient: &http.Client{Timeout: timeout},
		urlFor: func(id string) string {
			return strings.TrimRight(baseURL, "/") + "/" + url.PathEscape(id)
		},
		pathFor: func(id string) string { return id },
		metrics: metrics,
		logger:  logger,
	}
}

// Fetch saves the document for identifier under destDir unless it is already there.
func (f *Fetcher) Fetch(ctx context.Context, identifier, destDir string) error {
	if identifier == "" || strings.ContainsAny(identifier, `/\`) || identifier == "." || identifier == ".." {
		return fmt.Errorf("%w: invalid document identifier %q", domain.ErrSourceUnavailable, identifier)
	}

	path := filepath.Join(destDir, f.pathFor(identifier))
	if _, err := os.Stat(path); err == nil {
		f.metrics.DocumentsFetched.WithLabelValues(f.source, "cached").Inc()
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("stat %s: %w", path, err)
	}

	if err := f.download(ctx, f.urlFor(identifier), path); err != nil {
		f.metrics.DocumentsFetched.WithLabelValues(f.source, "error").Inc()
		return err
	}
	f.metrics.DocumentsFetched.WithLabelValues(f.source, "fetched").Inc()
	f.logger.Debug("fetched raw document", "source", f.source, "identifier", identifier, "path", path)
	return nil
}

// download writes to a temp file and renames it into place so a failed
// transfer never leaves a partial document that later runs would treat as cached.
func (f *Fetcher) download(ctx context.Context, u, path string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s request: %w", domain.ErrSourceUnavailable, f.source, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: %s: status %d: %s", domain.ErrSourceUnavailable, u, resp.StatusCode, body)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("create dirs: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".fetch-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("%w: read %s: %w", domain.ErrSourceUnavailable, u, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}
