package ingest

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/plumeview/plumeview/internal/forecast"
)

// Loader reads unified forecast documents from a local file or an HTTP
// endpoint, depending on the source string.
type Loader struct {
	client *Client
}

// NewLoader creates a loader backed by the given client. A nil client
// gets default configuration.
func NewLoader(client *Client) *Loader {
	if client == nil {
		client = NewClient(ClientConfig{})
	}
	return &Loader{client: client}
}

// Load fetches and decodes the document at source. Sources starting with
// http:// or https:// are fetched over the network; anything else is
// treated as a file path.
func (l *Loader) Load(ctx context.Context, source string) (*forecast.Dataset, error) {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		body, err := l.client.Fetch(ctx, source)
		if err != nil {
			return nil, err
		}
		return forecast.Decode(bytes.NewReader(body))
	}

	f, err := os.Open(source)
	if err != nil {
		return nil, fmt.Errorf("open forecast document: %w", err)
	}
	defer f.Close()
	return forecast.Decode(f)
}

// BreakerState exposes the underlying client's circuit breaker state.
func (l *Loader) BreakerState() string {
	return l.client.BreakerState().String()
}
