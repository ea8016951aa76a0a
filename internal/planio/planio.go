// Package planio reads allocation requests and writes reports as JSON,
// optionally zstd-compressed.
package planio

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/cory-johannsen/stashplan/internal/inventory"
)

// CompressedSuffix marks paths read and written through zstd.
const CompressedSuffix = ".zst"

//go:embed request.schema.json
var requestSchemaSource string

var requestSchema = jsonschema.MustCompileString("request.schema.json", requestSchemaSource)

// DecodeRequest validates data against the request schema and decodes it.
//
// Postcondition: Returns the decoded request, or an error wrapping
// inventory.ErrInvalidRequest when data is not a structurally valid request.
// Semantic checks are left to inventory.Request.Validate.
func DecodeRequest(data []byte) (inventory.Request, error) {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return inventory.Request{}, fmt.Errorf("%w: malformed JSON: %v", inventory.ErrInvalidRequest, err)
	}
	if err := requestSchema.Validate(doc); err != nil {
		return inventory.Request{}, fmt.Errorf("%w: %v", inventory.ErrInvalidRequest, err)
	}

	var req inventory.Request
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return inventory.Request{}, fmt.Errorf("%w: %v", inventory.ErrInvalidRequest, err)
	}
	return req, nil
}

// ReadRequest reads and decodes a request from r.
func ReadRequest(r io.Reader) (inventory.Request, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return inventory.Request{}, fmt.Errorf("reading request: %w", err)
	}
	return DecodeRequest(data)
}

// ReadRequestFile reads a request from path; "-" reads stdin. Paths ending in
// CompressedSuffix are decompressed.
func ReadRequestFile(path string) (inventory.Request, error) {
	rc, err := Open(path)
	if err != nil {
		return inventory.Request{}, err
	}
	defer rc.Close()
	return ReadRequest(rc)
}

// EncodeReport writes v as indented JSON followed by a newline.
func EncodeReport(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	data = append(data, '\n')
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	return nil
}

// WriteReportFile writes v to path; "-" writes stdout. Paths ending in
// CompressedSuffix are compressed.
func WriteReportFile(path string, v any) (err error) {
	wc, err := Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := wc.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing %s: %w", path, cerr)
		}
	}()
	return EncodeReport(wc, v)
}

// Open opens path for reading, decompressing zstd input.
//
// Postcondition: the caller must Close the returned reader.
func Open(path string) (io.ReadCloser, error) {
	var f io.ReadCloser = io.NopCloser(os.Stdin)
	if path != "-" {
		file, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("opening %s: %w", path, err)
		}
		f = file
	}
	if !strings.HasSuffix(path, CompressedSuffix) {
		return f, nil
	}
	dec, err := zstd.NewReader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("opening zstd stream %s: %w", path, err)
	}
	return &zstdReadCloser{dec: dec, under: f}, nil
}

// Create opens path for writing, compressing zstd output.
//
// Postcondition: the caller must Close the returned writer to flush it.
func Create(path string) (io.WriteCloser, error) {
	var f io.WriteCloser = nopWriteCloser{os.Stdout}
	if path != "-" {
		file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
		if err != nil {
			return nil, fmt.Errorf("creating %s: %w", path, err)
		}
		f = file
	}
	if !strings.HasSuffix(path, CompressedSuffix) {
		return f, nil
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("creating zstd stream %s: %w", path, err)
	}
	return &zstdWriteCloser{enc: enc, under: f}, nil
}

type zstdReadCloser struct {
	dec   *zstd.Decoder
	under io.Closer
}

func (z *zstdReadCloser) Read(p []byte) (int, error) { return z.dec.Read(p) }

func (z *zstdReadCloser) Close() error {
	z.dec.Close()
	return z.under.Close()
}

type zstdWriteCloser struct {
	enc   *zstd.Encoder
	under io.Closer
}

func (z *zstdWriteCloser) Write(p []byte) (int, error) { return z.enc.Write(p) }

func (z *zstdWriteCloser) Close() error {
	if err := z.enc.Close(); err != nil {
		z.under.Close()
		return err
	}
	return z.under.Close()
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }
