package loader

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/afuentes/mktpulse/internal/models"
)

// Table is a raw delimited source: a header row plus string data rows.
// Typing and validation happen downstream in the schema normalizer.
type Table struct {
	Source string
	Header []string
	Rows   [][]string
}

// HTTPClient is the minimal client surface, swappable in tests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Loader reads CSV sources from local files or http(s) URLs.
type Loader struct {
	httpc HTTPClient
	retry backoff
}

func New(timeout time.Duration) *Loader {
	return &Loader{
		httpc: &http.Client{Timeout: timeout},
		retry: backoff{base: 100 * time.Millisecond, maxRetries: 2},
	}
}

// Load fetches and parses one source. A present-but-empty source returns
// *models.EmptyInputError so callers can degrade instead of failing the
// whole refresh.
func (l *Loader) Load(ctx context.Context, source, location string) (*Table, error) {
	var rc io.ReadCloser
	var err error
	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		rc, err = l.fetchWithRetry(ctx, location)
	} else {
		rc, err = os.Open(location)
	}
	if err != nil {
		return nil, fmt.Errorf("source %s: %w", source, err)
	}
	defer rc.Close()
	return parse(source, rc)
}

func (l *Loader) fetchWithRetry(ctx context.Context, url string) (io.ReadCloser, error) {
	var body io.ReadCloser
	err := l.retry.do(func(i int) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		resp, err := l.httpc.Do(req)
		if err != nil {
			return err
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
			resp.Body.Close()
			return fmt.Errorf("non-2xx: %d body=%s", resp.StatusCode, string(b))
		}
		body = resp.Body
		return nil
	})
	if err != nil {
		return nil, err
	}
	return body, nil
}

func parse(source string, r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, &models.EmptyInputError{Source: source}
	}
	if err != nil {
		return nil, fmt.Errorf("source %s: csv header: %w", source, err)
	}

	var rows [][]string
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("source %s: csv read: %w", source, err)
		}
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return nil, &models.EmptyInputError{Source: source}
	}
	return &Table{Source: source, Header: header, Rows: rows}, nil
}
