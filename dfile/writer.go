package dfile

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"io"
	"math"
	"os"
	"sort"

	"github.com/golang/snappy"
	"github.com/klauspost/compress/flate"
)

// Write serializes f to path with the given options, replacing any existing
// file. Attributes are written in sorted name order and datasets in file
// order, so identical inputs produce identical bytes.
func Write(path string, f *File, opts WriteOptions) error {
	if err := validateOptions(opts); err != nil {
		return err
	}

	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("dfile: creating %s: %w", path, err)
	}
	w := bufio.NewWriter(out)

	if err := writeFile(w, f, opts); err != nil {
		out.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		out.Close()
		return fmt.Errorf("dfile: writing %s: %w", path, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("dfile: closing %s: %w", path, err)
	}
	return nil
}

func writeFile(w io.Writer, f *File, opts WriteOptions) error {
	if _, err := w.Write(signature[:]); err != nil {
		return err
	}
	if err := writeUint8(w, formatVersion); err != nil {
		return err
	}

	names := make([]string, 0, len(f.Attrs))
	for name := range f.Attrs {
		names = append(names, name)
	}
	sort.Strings(names)
	if err := writeUint16(w, uint16(len(names))); err != nil {
		return err
	}
	for _, name := range names {
		if err := writeString(w, name); err != nil {
			return fmt.Errorf("dfile: attribute name: %w", err)
		}
		if err := writeUint64(w, uint64(f.Attrs[name])); err != nil {
			return err
		}
	}

	if err := writeUint16(w, uint16(len(f.Datasets))); err != nil {
		return err
	}
	for _, ds := range f.Datasets {
		if err := writeDataset(w, ds, opts); err != nil {
			return fmt.Errorf("dfile: dataset %q: %w", ds.Name, err)
		}
	}
	return nil
}

func writeDataset(w io.Writer, ds *Dataset, opts WriteOptions) error {
	raw, err := encodePayload(ds)
	if err != nil {
		return err
	}

	if err := writeString(w, ds.Name); err != nil {
		return err
	}
	if err := writeUint8(w, uint8(ds.Kind)); err != nil {
		return err
	}
	if err := writeUint8(w, uint8(len(ds.Shape))); err != nil {
		return err
	}
	for _, dim := range ds.Shape {
		if err := writeUint64(w, uint64(dim)); err != nil {
			return err
		}
	}
	if ds.HasRange {
		if err := writeUint8(w, 1); err != nil {
			return err
		}
		if err := writeUint64(w, math.Float64bits(ds.Min)); err != nil {
			return err
		}
		if err := writeUint64(w, math.Float64bits(ds.Max)); err != nil {
			return err
		}
	} else {
		if err := writeUint8(w, 0); err != nil {
			return err
		}
	}

	block, err := serializeBlock(raw, opts)
	if err != nil {
		return err
	}
	if err := writeUint64(w, uint64(len(block))); err != nil {
		return err
	}
	_, err = w.Write(block)
	return err
}

// encodePayload renders the dataset's elements as raw little-endian bytes,
// validating that array lengths match the declared shape.
func encodePayload(ds *Dataset) ([]byte, error) {
	switch ds.Kind {
	case KindText:
		return []byte(ds.Text), nil
	case KindInt32:
		if len(ds.Ints) != elemCount(ds.Shape) {
			return nil, fmt.Errorf("int32 data length %d does not match shape %v", len(ds.Ints), ds.Shape)
		}
		raw := make([]byte, 4*len(ds.Ints))
		for i, v := range ds.Ints {
			binary.LittleEndian.PutUint32(raw[4*i:], uint32(v))
		}
		return raw, nil
	case KindFloat64:
		if len(ds.Floats) != elemCount(ds.Shape) {
			return nil, fmt.Errorf("float64 data length %d does not match shape %v", len(ds.Floats), ds.Shape)
		}
		raw := make([]byte, 8*len(ds.Floats))
		for i, v := range ds.Floats {
			binary.LittleEndian.PutUint64(raw[8*i:], math.Float64bits(v))
		}
		return raw, nil
	default:
		return nil, fmt.Errorf("unknown dataset kind %d", ds.Kind)
	}
}

// serializeBlock wraps raw payload bytes in a block: the format byte, the
// optional CRC32 of the compressed bytes, then the compressed bytes. The
// checksum precedes the data so deserialization never needs a length field
// for the data itself.
func serializeBlock(raw []byte, opts WriteOptions) ([]byte, error) {
	var compressed []byte
	switch opts.Compression {
	case Uncompressed:
		compressed = raw
	case Snappy:
		compressed = snappy.Encode(nil, raw)
	case Deflate:
		var buf bytes.Buffer
		fw, err := flate.NewWriter(&buf, flate.DefaultCompression)
		if err != nil {
			return nil, err
		}
		if _, err := fw.Write(raw); err != nil {
			return nil, err
		}
		if err := fw.Close(); err != nil {
			return nil, err
		}
		compressed = buf.Bytes()
	}

	block := make([]byte, 0, 1+4+len(compressed))
	block = append(block, packFormat(opts.Compression, opts.Checksum))
	if opts.Checksum == CRC32 {
		var crc [4]byte
		binary.LittleEndian.PutUint32(crc[:], crc32.ChecksumIEEE(compressed))
		block = append(block, crc[:]...)
	}
	return append(block, compressed...), nil
}

func writeUint8(w io.Writer, v uint8) error {
	_, err := w.Write([]byte{v})
	return err
}

func writeUint16(w io.Writer, v uint16) error {
	var buf [2]byte
	binary.LittleEndian.PutUint16(buf[:], v)
	_, err := w.Write(buf[:])
	return err
}

func writeUint64(w io.Writer, v uint64) error {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	_, err := w.Write(buf[:])
	return err
}

func writeString(w io.Writer, s string) error {
	// Names are length-prefixed with a uint16.
	if len(s) > math.MaxUint16 {
		return fmt.Errorf("name of %d bytes exceeds the %d-byte limit", len(s), math.MaxUint16)
	}
	if err := writeUint16(w, uint16(len(s))); err != nil {
		return err
	}
	_, err := io.WriteString(w, s)
	return err
}
