// Package dfile implements the self-describing container file used to
// persist dendrograms: a flat sequence of named datasets (text, int32, or
// float64 arrays with shape and optional min/max range hints) plus scalar
// file-level attributes, behind a magic signature and format version.
//
// Payload blocks are serialized with a one-byte format tag packing the
// compression codec and checksum kind, followed by the optional CRC32 of the
// compressed bytes and the compressed bytes themselves. Readers verify the
// signature, version, and checksums; any failure is reported through the
// sentinel errors below.
package dfile

import (
	"errors"
	"fmt"
)

// signature identifies a dendro container file. The non-ASCII lead byte and
// line-ending bytes catch text-mode corruption, after the HDF5 convention.
var signature = [8]byte{0x89, 'D', 'N', 'D', '\r', '\n', 0x1a, '\n'}

// formatVersion is the current container layout version.
const formatVersion = 1

// Common errors.
var (
	ErrNotDendroFile = errors.New("dfile: not a dendro container file")
	ErrVersion       = errors.New("dfile: unsupported container version")
	ErrBadChecksum   = errors.New("dfile: payload checksum mismatch")
	ErrTruncated     = errors.New("dfile: truncated container file")
)

// Kind is the element type of a dataset.
type Kind uint8

const (
	KindText Kind = iota
	KindInt32
	KindFloat64
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindInt32:
		return "int32"
	case KindFloat64:
		return "float64"
	default:
		return "unknown"
	}
}

// Compression is the codec applied to dataset payloads.
// At most 8 codecs (3 bits of the format byte).
type Compression uint8

const (
	Uncompressed Compression = 0
	Snappy       Compression = 1
	Deflate      Compression = 2
)

func (c Compression) String() string {
	switch c {
	case Uncompressed:
		return "no compression"
	case Snappy:
		return "snappy"
	case Deflate:
		return "deflate"
	default:
		return "unknown compression"
	}
}

// Checksum is the error-detection code stored with dataset payloads.
// At most 4 kinds (2 bits of the format byte).
type Checksum uint8

const (
	NoChecksum Checksum = 0
	CRC32      Checksum = 1
)

func (c Checksum) String() string {
	switch c {
	case NoChecksum:
		return "no checksum"
	case CRC32:
		return "CRC32"
	default:
		return "unknown checksum"
	}
}

// packFormat combines a compression codec and checksum kind into the single
// format byte stored ahead of each payload block.
func packFormat(compress Compression, checksum Checksum) uint8 {
	return (uint8(compress)&0x07)<<5 | (uint8(checksum)&0x03)<<3
}

// unpackFormat splits a payload format byte.
func unpackFormat(format uint8) (Compression, Checksum) {
	return Compression(format >> 5), Checksum((format >> 3) & 0x03)
}

// WriteOptions controls payload serialization.
// Start with [DefaultWriteOptions] and override the fields you need.
type WriteOptions struct {
	// Compression is the codec for dataset payloads. Default: Snappy.
	Compression Compression

	// Checksum is the error-detection code stored with each payload.
	// Default: CRC32.
	Checksum Checksum
}

// DefaultWriteOptions returns the options used when none are given:
// snappy compression with CRC32 checksums.
func DefaultWriteOptions() WriteOptions {
	return WriteOptions{Compression: Snappy, Checksum: CRC32}
}

// validateOptions checks that opts names known codecs.
func validateOptions(opts WriteOptions) error {
	switch opts.Compression {
	case Uncompressed, Snappy, Deflate:
	default:
		return fmt.Errorf("dfile: invalid compression %d", opts.Compression)
	}
	switch opts.Checksum {
	case NoChecksum, CRC32:
	default:
		return fmt.Errorf("dfile: invalid checksum %d", opts.Checksum)
	}
	return nil
}

// File is the in-memory image of a container file.
type File struct {
	// Attrs holds file-level scalar attributes, such as the field
	// dimensionality.
	Attrs map[string]int64

	// Datasets holds the named datasets in file order.
	Datasets []*Dataset
}

// Dataset returns the dataset with the given name, or nil if absent.
func (f *File) Dataset(name string) *Dataset {
	for _, ds := range f.Datasets {
		if ds.Name == name {
			return ds
		}
	}
	return nil
}

// Dataset is one named payload: exactly one of Text, Ints, or Floats is
// populated according to Kind. Shape is empty for text datasets.
type Dataset struct {
	Name  string
	Kind  Kind
	Shape []int

	Text   string
	Ints   []int32
	Floats []float64

	// HasRange marks that Min and Max record the payload's value range.
	// Written as a storage hint for array datasets; never required by
	// readers.
	HasRange bool
	Min, Max float64
}

// NewTextDataset builds a text dataset.
func NewTextDataset(name, text string) *Dataset {
	return &Dataset{Name: name, Kind: KindText, Text: text}
}

// NewIntDataset builds an int32 array dataset with the given row-major data.
func NewIntDataset(name string, shape []int, data []int32) *Dataset {
	return &Dataset{Name: name, Kind: KindInt32, Shape: shape, Ints: data}
}

// NewFloatDataset builds a float64 array dataset with the given row-major
// data.
func NewFloatDataset(name string, shape []int, data []float64) *Dataset {
	return &Dataset{Name: name, Kind: KindFloat64, Shape: shape, Floats: data}
}

// WithRange records a min/max range hint on the dataset and returns it.
func (ds *Dataset) WithRange(min, max float64) *Dataset {
	ds.HasRange = true
	ds.Min, ds.Max = min, max
	return ds
}

// elemCount returns the number of elements implied by the dataset shape.
func elemCount(shape []int) int {
	n := 1
	for _, dim := range shape {
		n *= dim
	}
	return n
}
