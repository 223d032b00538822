// Package dataset decodes interval datasets from YAML or JSON files,
// optionally lz4-compressed, into entries ready to be indexed.
//
// A dataset names an endpoint kind and lists records. Each record carries
// either a from/to pair or, for ipv4 datasets, a range in CIDR or
// "first-last" notation, plus an optional value and labels:
//
//	kind: ipv4
//	intervals:
//	  - range: 10.0.0.0/24
//	    value: office
//	    labels: {site: berlin}
package dataset

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/pierrec/lz4/v4"
	"gopkg.in/yaml.v3"
	"k8s.io/apimachinery/pkg/labels"

	"github.com/Sumatoshi-tech/intervalidx/pkg/alg/interval"
)

// Format identifies the document encoding.
type Format string

// Supported formats.
const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

const lz4Extension = ".lz4"

// Endpoint is a textual endpoint that also accepts bare numbers.
type Endpoint string

// UnmarshalJSON accepts a JSON string or number.
func (e *Endpoint) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*e = Endpoint(s)

		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidEndpoint, data)
	}

	*e = Endpoint(n.String())

	return nil
}

// UnmarshalYAML accepts any scalar.
func (e *Endpoint) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("%w: line %d: expected a scalar", ErrInvalidEndpoint, node.Line)
	}

	*e = Endpoint(node.Value)

	return nil
}

// Record is one raw dataset entry.
type Record struct {
	Name   string            `json:"name,omitempty"   yaml:"name,omitempty"`
	From   Endpoint          `json:"from,omitempty"   yaml:"from,omitempty"`
	To     Endpoint          `json:"to,omitempty"     yaml:"to,omitempty"`
	Range  string            `json:"range,omitempty"  yaml:"range,omitempty"`
	Value  string            `json:"value,omitempty"  yaml:"value,omitempty"`
	Labels map[string]string `json:"labels,omitempty" yaml:"labels,omitempty"`
}

// Document is the top-level dataset file layout.
type Document struct {
	Name    string   `json:"name,omitempty" yaml:"name,omitempty"`
	Kind    string   `json:"kind,omitempty" yaml:"kind,omitempty"`
	Records []Record `json:"intervals"      yaml:"intervals"`
}

// Entry is a validated record.
type Entry struct {
	Interval interval.Interval[int64]
	Name     string
	Value    string
	Labels   labels.Set
}

// Dataset is a decoded, validated dataset.
type Dataset struct {
	Name    string
	Kind    Kind
	Entries []Entry
}

// Load reads and decodes the dataset at path. A ".lz4" suffix enables
// decompression; the remaining extension selects the format. maxBytes bounds
// the decompressed size; zero disables the limit.
func Load(path string, maxBytes uint64) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()

	name := path

	var r io.Reader = f

	if strings.EqualFold(filepath.Ext(name), lz4Extension) {
		r = lz4.NewReader(f)
		name = strings.TrimSuffix(name, filepath.Ext(name))
	}

	format, err := FormatFromPath(name)
	if err != nil {
		return nil, err
	}

	data, err := readLimited(r, maxBytes)
	if err != nil {
		return nil, fmt.Errorf("read dataset %s: %w", path, err)
	}

	ds, err := Decode(data, format)
	if err != nil {
		return nil, fmt.Errorf("decode dataset %s: %w", path, err)
	}

	if ds.Name == "" {
		ds.Name = strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	}

	return ds, nil
}

// FormatFromPath picks the format from the file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, filepath.Ext(path))
	}
}

// Validate checks data against the dataset schema without converting records.
func Validate(data []byte, format Format) error {
	doc, err := decodeGeneric(data, format)
	if err != nil {
		return err
	}

	return validateDocument(doc)
}

// Decode validates data against the schema and converts every record.
func Decode(data []byte, format Format) (*Dataset, error) {
	if err := Validate(data, format); err != nil {
		return nil, err
	}

	var doc Document

	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("unmarshal yaml: %w", err)
		}
	case FormatJSON:
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("unmarshal json: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}

	return FromDocument(doc)
}

// FromDocument converts a decoded document into a Dataset.
func FromDocument(doc Document) (*Dataset, error) {
	kind, err := ParseKind(doc.Kind)
	if err != nil {
		return nil, err
	}

	ds := &Dataset{
		Name:    doc.Name,
		Kind:    kind,
		Entries: make([]Entry, 0, len(doc.Records)),
	}

	for i, rec := range doc.Records {
		entry, err := rec.entry(kind)
		if err != nil {
			return nil, fmt.Errorf("%w: record %d: %w", ErrInvalidRecord, i, err)
		}

		ds.Entries = append(ds.Entries, entry)
	}

	return ds, nil
}

func (rec Record) entry(kind Kind) (Entry, error) {
	var (
		iv  interval.Interval[int64]
		err error
	)

	switch {
	case rec.Range != "" && kind == KindIPv4:
		iv, err = ParseRange(rec.Range)
	case rec.Range != "":
		return Entry{}, fmt.Errorf("range notation requires kind %q", KindIPv4)
	default:
		iv, err = ParseInterval(kind, string(rec.From), string(rec.To))
	}

	if err != nil {
		return Entry{}, err
	}

	set := labels.Set(rec.Labels)
	if _, err := labels.ValidatedSelectorFromSet(set); err != nil {
		return Entry{}, fmt.Errorf("labels: %w", err)
	}

	return Entry{Interval: iv, Name: rec.Name, Value: rec.Value, Labels: set}, nil
}

func decodeGeneric(data []byte, format Format) (any, error) {
	var doc any

	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("unmarshal yaml: %w", err)
		}
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()

		if err := dec.Decode(&doc); err != nil {
			return nil, fmt.Errorf("unmarshal json: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}

	return doc, nil
}

// readLimited reads at most maxBytes from r. Zero, or a bound no int64 can
// express, means unlimited.
func readLimited(r io.Reader, maxBytes uint64) ([]byte, error) {
	if maxBytes == 0 || maxBytes >= math.MaxInt64 {
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("read: %w", err)
		}

		return data, nil
	}

	data, err := io.ReadAll(io.LimitReader(r, int64(maxBytes)+1))
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}

	if uint64(len(data)) > maxBytes {
		return nil, fmt.Errorf("%w: exceeds %d bytes", ErrTooLarge, maxBytes)
	}

	return data, nil
}
