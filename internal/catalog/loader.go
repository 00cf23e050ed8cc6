package catalog

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/patchpilot/patchpilot/internal/httputil"
	"github.com/patchpilot/patchpilot/internal/logging"
)

var log = logging.L("catalog")

//go:embed catalog.sample.json
var sampleCatalog []byte

// Loader fetches and decodes catalog documents. Local sources are read
// synchronously; remote ones go through the retrying HTTP client under the
// configured timeout.
type Loader struct {
	client *http.Client
	retry  httputil.RetryConfig
}

// NewLoader returns a Loader whose remote fetches are bounded by timeout.
func NewLoader(timeout time.Duration) *Loader {
	return &Loader{
		client: &http.Client{Timeout: timeout},
		retry:  httputil.DefaultRetryConfig(),
	}
}

// Load reads and decodes the catalog from src. A document without the
// required top-level shape fails with ErrDecodeFailed; individual entries
// missing required fields are skipped rather than failing the load.
func (l *Loader) Load(ctx context.Context, src Source) (*Catalog, error) {
	var data []byte

	switch {
	case src.UseSample:
		if len(sampleCatalog) == 0 {
			return nil, ErrMissingSample
		}
		data = sampleCatalog
	case src.URL == nil:
		return nil, ErrInvalidSource
	case src.URL.Scheme == "http" || src.URL.Scheme == "https":
		body, err := httputil.Get(ctx, l.client, src.URL.String(), l.retry)
		if err != nil {
			return nil, fmt.Errorf("fetch catalog: %w", err)
		}
		data = body
	default:
		path := src.URL.Path
		if src.URL.Scheme == "" {
			path = src.URL.String()
		}
		body, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read catalog: %w", err)
		}
		data = body
	}

	catalog, err := decode(data)
	if err != nil {
		return nil, err
	}

	log.Debug("catalog loaded", "entries", len(catalog.Apps), "lastUpdated", catalog.LastUpdated)
	return catalog, nil
}

func decode(data []byte) (*Catalog, error) {
	var catalog Catalog
	if err := json.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecodeFailed, err)
	}
	if catalog.Apps == nil {
		return nil, fmt.Errorf("%w: missing apps array", ErrDecodeFailed)
	}

	// One bad entry never poisons the document; it is dropped, not fatal
	kept := catalog.Apps[:0]
	for _, entry := range catalog.Apps {
		if entry.Name == "" || entry.LatestVersion == "" || entry.DownloadURL == "" {
			log.Warn("skipping catalog entry missing required fields", "name", entry.Name)
			continue
		}
		kept = append(kept, entry)
	}
	catalog.Apps = kept

	return &catalog, nil
}
