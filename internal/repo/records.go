package repo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/miradorstack/mirador-status/internal/models"
	"github.com/miradorstack/mirador-status/internal/utils"
)

// FileSource reads raw service records from a JSON file, typically a saved
// response of the PagerDuty list-services endpoint.
type FileSource struct {
	path string
}

// NewFileSource constructs a FileSource reading path.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// Path returns the file the source reads.
func (s *FileSource) Path() string {
	return s.path
}

// Load reads and decodes the records file.
func (s *FileSource) Load(ctx context.Context) ([]models.RawService, error) {
	if s == nil || s.path == "" {
		return nil, utils.NewAppError("records.load", "source path not configured", nil)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, utils.NewAppError("records.load", "read "+s.path, err)
	}
	records, err := DecodeRecords(bytes.NewReader(data))
	if err != nil {
		return nil, utils.NewAppError("records.load", "decode "+s.path, err)
	}
	return records, nil
}

// DecodeRecords accepts either the list-services envelope
// ({"services": [...]}) or a bare array of service objects. Numbers are kept
// as json.Number so passthrough fields are emitted unchanged.
func DecodeRecords(r io.Reader) ([]models.RawService, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var payload json.RawMessage
	if err := dec.Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode records: %w", err)
	}

	payload = bytes.TrimSpace(payload)
	if len(payload) == 0 {
		return nil, fmt.Errorf("decode records: empty document")
	}

	switch payload[0] {
	case '[':
		return decodeArray(payload)
	case '{':
		var envelope struct {
			Services json.RawMessage `json:"services"`
		}
		if err := json.Unmarshal(payload, &envelope); err != nil {
			return nil, fmt.Errorf("decode envelope: %w", err)
		}
		if services := bytes.TrimSpace(envelope.Services); len(services) == 0 || bytes.Equal(services, []byte("null")) {
			return nil, fmt.Errorf("decode envelope: missing services array")
		}
		return decodeArray(envelope.Services)
	default:
		return nil, fmt.Errorf("decode records: expected an array or an object with a services array")
	}
}

func decodeArray(data []byte) ([]models.RawService, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var records []models.RawService
	if err := dec.Decode(&records); err != nil {
		return nil, fmt.Errorf("decode services: %w", err)
	}
	for i, rec := range records {
		if rec == nil {
			return nil, fmt.Errorf("decode services: record %d is null", i)
		}
	}
	return records, nil
}
