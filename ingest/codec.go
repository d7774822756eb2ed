package ingest

import (
	"bufio"
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"hydra/core"
	"hydra/metrics"

	"github.com/vmihailenco/msgpack/v5"
	"github.com/xeipuuv/gojsonschema"
)

// Format names an on-disk log encoding.
type Format string

const (
	FormatAuto    Format = "auto"
	FormatJSON    Format = "json"
	FormatMsgpack Format = "msgpack"
)

// DefaultMaxSize bounds decoded input when Options.MaxSize is zero
const DefaultMaxSize = 256 * 1024 * 1024 // 256MB

//go:embed ocel2.schema.json
var ocelSchema []byte

var schemaLoader = gojsonschema.NewBytesLoader(ocelSchema)

// Options controls decoding.
type Options struct {
	ValidateSchema bool
	MaxSize        int64
}

// ParseFormat converts a format name. The empty string means auto.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "", FormatAuto:
		return FormatAuto, nil
	case FormatJSON, FormatMsgpack:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// FormatFromPath guesses the format from a file extension.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".jsonocel":
		return FormatJSON
	case ".msgpack", ".mpk", ".mp":
		return FormatMsgpack
	default:
		return FormatAuto
	}
}

// sniff detects JSON by its first non-space byte; anything else is msgpack
func sniff(data []byte) Format {
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	if len(trimmed) > 0 && trimmed[0] == '{' {
		return FormatJSON
	}
	return FormatMsgpack
}

// ReadFile decodes the log stored at path.
func ReadFile(path string, format Format, opts Options) (*core.Log, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	defer f.Close()

	if format == FormatAuto || format == "" {
		format = FormatFromPath(path)
	}
	return Decode(bufio.NewReader(f), format, opts)
}

// Decode reads a whole log from r. With FormatAuto the encoding is sniffed
// from the content.
func Decode(r io.Reader, format Format, opts Options) (*core.Log, error) {
	format, err := ParseFormat(string(format))
	if err != nil {
		return nil, err
	}

	maxSize := opts.MaxSize
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	data, err := io.ReadAll(io.LimitReader(r, maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read log: %w", err)
	}
	if int64(len(data)) > maxSize {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrTooLarge, maxSize)
	}

	if format == FormatAuto {
		format = sniff(data)
	}

	log, err := decodeBytes(data, format, opts)
	status := "success"
	if err != nil {
		status = "failure"
	}
	metrics.LogsDecoded.WithLabelValues(string(format), status).Inc()
	return log, err
}

func decodeBytes(data []byte, format Format, opts Options) (*core.Log, error) {
	var doc document
	switch format {
	case FormatJSON:
		if opts.ValidateSchema {
			if err := validateSchema(data); err != nil {
				return nil, err
			}
		}
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedLog, err)
		}
	case FormatMsgpack:
		if err := msgpack.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedLog, err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	return doc.toLog(), nil
}

func validateSchema(data []byte) error {
	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedLog, err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return fmt.Errorf("%w: %s", ErrSchemaViolation, strings.Join(msgs, "; "))
	}
	return nil
}

// Encode writes log in the given format. FormatAuto writes JSON.
func Encode(w io.Writer, log *core.Log, format Format) error {
	if log == nil {
		return core.ErrNilLog
	}
	doc := fromLog(log)

	switch format {
	case FormatAuto, FormatJSON, "":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	case FormatMsgpack:
		enc := msgpack.NewEncoder(w)
		enc.UseCompactInts(true)
		return enc.Encode(doc)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// WriteFile encodes log to path, picking the format from the extension when
// format is auto.
func WriteFile(path string, log *core.Log, format Format) error {
	if format == FormatAuto || format == "" {
		format = FormatFromPath(path)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	w := bufio.NewWriter(f)
	if err := Encode(w, log, format); err != nil {
		f.Close()
		return fmt.Errorf("failed to encode log: %w", err)
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}
