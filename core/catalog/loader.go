package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"soundfolio/logger"
	"soundfolio/model"
)

// Failure reasons reported by LoadError.
const (
	ReasonNetwork = "network error"
	ReasonStatus  = "unexpected status"
	ReasonParse   = "malformed JSON"
	ReasonShape   = "catalog root is not an array"
	ReasonRead    = "read error"
	ReasonInvalid = "invalid catalog"
)

// LoadError describes why the catalog could not be loaded. The message is
// meant to be shown to the user verbatim.
type LoadError struct {
	Source string
	Reason string
	Err    error
}

func (e *LoadError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("failed to load track catalog from %s: %s", e.Source, e.Reason)
	}
	return fmt.Sprintf("failed to load track catalog from %s: %s: %v", e.Source, e.Reason, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// ObjectFetcher reads an object from a bucket. storage.MinioClient implements it.
type ObjectFetcher interface {
	FetchObject(ctx context.Context, bucket, key string) (io.ReadCloser, error)
}

// Loader fetches the track catalog document from a fixed location.
type Loader struct {
	source  string
	client  *http.Client
	objects ObjectFetcher
}

// NewLoader creates a loader for source, which may be a file path, an
// http(s) URL or a minio://bucket/key reference. objects may be nil when no
// object storage is configured.
func NewLoader(source string, objects ObjectFetcher) *Loader {
	return &Loader{
		source:  source,
		client:  &http.Client{Timeout: 15 * time.Second},
		objects: objects,
	}
}

// Source returns the configured catalog location.
func (l *Loader) Source() string { return l.source }

// IsFile reports whether the catalog lives on the local filesystem.
func (l *Loader) IsFile() bool {
	return !strings.Contains(l.source, "://")
}

// Load fetches, parses and validates the catalog.
func (l *Loader) Load(ctx context.Context) (*Catalog, error) {
	raw, err := l.fetch(ctx)
	if err != nil {
		return nil, err
	}

	tracks, err := Parse(raw)
	if err != nil {
		var le *LoadError
		if errors.As(err, &le) {
			le.Source = l.source
		}
		return nil, err
	}

	// Duplicate ids would make id lookups ambiguous; the rest only affects
	// single entries.
	for _, verr := range model.ValidateCatalog(tracks) {
		if errors.Is(verr, model.ErrDuplicateID) {
			return nil, &LoadError{Source: l.source, Reason: ReasonInvalid, Err: verr}
		}
		logger.Warn("catalog entry failed validation",
			logger.String("source", l.source),
			logger.ErrorField(verr))
	}

	logger.Info("track catalog loaded",
		logger.String("source", l.source),
		logger.Int("tracks", len(tracks)))
	return New(tracks), nil
}

// Parse decodes a catalog document. The root value must be a JSON array.
func Parse(raw []byte) ([]model.Track, error) {
	trimmed := bytes.TrimSpace(raw)
	if !json.Valid(trimmed) {
		var probe any
		err := json.Unmarshal(trimmed, &probe)
		return nil, &LoadError{Reason: ReasonParse, Err: err}
	}
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, &LoadError{Reason: ReasonShape}
	}

	var tracks []model.Track
	if err := json.Unmarshal(trimmed, &tracks); err != nil {
		return nil, &LoadError{Reason: ReasonParse, Err: err}
	}
	return tracks, nil
}

func (l *Loader) fetch(ctx context.Context) ([]byte, error) {
	switch {
	case strings.HasPrefix(l.source, "http://"), strings.HasPrefix(l.source, "https://"):
		return l.fetchHTTP(ctx)
	case strings.HasPrefix(l.source, "minio://"):
		return l.fetchObject(ctx)
	default:
		data, err := os.ReadFile(l.source)
		if err != nil {
			return nil, &LoadError{Source: l.source, Reason: ReasonRead, Err: err}
		}
		return data, nil
	}
}

func (l *Loader) fetchHTTP(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.source, nil)
	if err != nil {
		return nil, &LoadError{Source: l.source, Reason: ReasonNetwork, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, &LoadError{Source: l.source, Reason: ReasonNetwork, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &LoadError{Source: l.source, Reason: ReasonStatus, Err: fmt.Errorf("HTTP %d", resp.StatusCode)}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &LoadError{Source: l.source, Reason: ReasonRead, Err: err}
	}
	return data, nil
}

func (l *Loader) fetchObject(ctx context.Context) ([]byte, error) {
	bucket, key, ok := strings.Cut(strings.TrimPrefix(l.source, "minio://"), "/")
	if !ok || bucket == "" || key == "" {
		return nil, &LoadError{Source: l.source, Reason: ReasonRead, Err: errors.New("expected minio://bucket/key")}
	}
	if l.objects == nil {
		return nil, &LoadError{Source: l.source, Reason: ReasonNetwork, Err: errors.New("object storage is not configured")}
	}

	obj, err := l.objects.FetchObject(ctx, bucket, key)
	if err != nil {
		return nil, &LoadError{Source: l.source, Reason: ReasonNetwork, Err: err}
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, &LoadError{Source: l.source, Reason: ReasonRead, Err: err}
	}
	return data, nil
}
