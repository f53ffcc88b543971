// Package importer reads and writes the machines collection in its stored
// JSON layout, from files, readers or a remote URL.
package importer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"maintenance-tracker/internal/kv"
	"maintenance-tracker/internal/model"
	"maintenance-tracker/internal/store"
)

// ErrFormat is returned for payloads that are neither a machines array nor an
// object holding one under the "machines" key.
var ErrFormat = errors.New("unrecognised import format")

// Decode parses either a bare machines array or a storage dump object
// {"machines": [...], ...}. Other keys of a dump are ignored.
func Decode(r io.Reader) ([]model.Machine, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read import: %w", err)
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, ErrFormat
	}

	switch raw[0] {
	case '[':
		var machines []model.Machine
		if err := json.Unmarshal(raw, &machines); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrFormat, err)
		}
		return machines, nil
	case '{':
		var dump map[string]json.RawMessage
		if err := json.Unmarshal(raw, &dump); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrFormat, err)
		}
		list, ok := dump[kv.KeyMachines]
		if !ok {
			return nil, fmt.Errorf("%w: no %q key", ErrFormat, kv.KeyMachines)
		}
		return Decode(bytes.NewReader(list))
	default:
		return nil, ErrFormat
	}
}

// Encode writes machines as an indented JSON array.
func Encode(w io.Writer, machines []model.Machine) error {
	if machines == nil {
		machines = []model.Machine{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(machines)
}

// FromReader decodes r and imports the records into s.
func FromReader(ctx context.Context, s store.Store, r io.Reader) (store.ImportResult, error) {
	machines, err := Decode(r)
	if err != nil {
		return store.ImportResult{}, err
	}
	return s.Import(ctx, machines)
}

// Fetcher downloads import payloads over HTTP.
type Fetcher struct {
	client *resty.Client
}

// NewFetcher creates a Fetcher with the given request timeout.
func NewFetcher(timeout time.Duration) *Fetcher {
	client := resty.New().
		SetHeader("Accept", "application/json").
		SetTimeout(timeout)
	return &Fetcher{client: client}
}

// Fetch downloads url and decodes its body.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]model.Machine, error) {
	resp, err := f.client.R().
		SetContext(ctx).
		Get(url)
	if err != nil {
		return nil, fmt.Errorf("http request failed: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("received non-200 status code: %d", resp.StatusCode())
	}
	return Decode(bytes.NewReader(resp.Body()))
}

// FromURL fetches url and imports the records into s.
func (f *Fetcher) FromURL(ctx context.Context, s store.Store, url string) (store.ImportResult, error) {
	machines, err := f.Fetch(ctx, url)
	if err != nil {
		return store.ImportResult{}, err
	}
	return s.Import(ctx, machines)
}
