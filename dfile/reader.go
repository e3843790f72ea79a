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

	"github.com/golang/snappy"
	"github.com/klauspost/compress/flate"
)

// Read parses the container file at path into memory, verifying the
// signature, version, and every payload checksum.
func Read(path string) (*File, error) {
	in, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("dfile: opening %s: %w", path, err)
	}
	defer in.Close()

	f, err := readFile(bufio.NewReader(in))
	if err != nil {
		return nil, fmt.Errorf("dfile: reading %s: %w", path, err)
	}
	return f, nil
}

// Identify reports whether the file at path starts with the dendro container
// signature. It never reads past the signature.
func Identify(path string) bool {
	in, err := os.Open(path)
	if err != nil {
		return false
	}
	defer in.Close()

	var sig [8]byte
	if _, err := io.ReadFull(in, sig[:]); err != nil {
		return false
	}
	return sig == signature
}

func readFile(r io.Reader) (*File, error) {
	var sig [8]byte
	if _, err := io.ReadFull(r, sig[:]); err != nil {
		return nil, ErrNotDendroFile
	}
	if sig != signature {
		return nil, ErrNotDendroFile
	}
	version, err := readUint8(r)
	if err != nil {
		return nil, ErrTruncated
	}
	if version != formatVersion {
		return nil, fmt.Errorf("%w: %d", ErrVersion, version)
	}

	nattrs, err := readUint16(r)
	if err != nil {
		return nil, ErrTruncated
	}
	f := &File{Attrs: make(map[string]int64, nattrs)}
	for i := 0; i < int(nattrs); i++ {
		name, err := readString(r)
		if err != nil {
			return nil, ErrTruncated
		}
		value, err := readUint64(r)
		if err != nil {
			return nil, ErrTruncated
		}
		f.Attrs[name] = int64(value)
	}

	ndatasets, err := readUint16(r)
	if err != nil {
		return nil, ErrTruncated
	}
	for i := 0; i < int(ndatasets); i++ {
		ds, err := readDataset(r)
		if err != nil {
			return nil, err
		}
		f.Datasets = append(f.Datasets, ds)
	}
	return f, nil
}

func readDataset(r io.Reader) (*Dataset, error) {
	name, err := readString(r)
	if err != nil {
		return nil, ErrTruncated
	}
	ds := &Dataset{Name: name}

	kind, err := readUint8(r)
	if err != nil {
		return nil, ErrTruncated
	}
	ds.Kind = Kind(kind)

	ndim, err := readUint8(r)
	if err != nil {
		return nil, ErrTruncated
	}
	for i := 0; i < int(ndim); i++ {
		dim, err := readUint64(r)
		if err != nil {
			return nil, ErrTruncated
		}
		ds.Shape = append(ds.Shape, int(dim))
	}

	hasRange, err := readUint8(r)
	if err != nil {
		return nil, ErrTruncated
	}
	if hasRange != 0 {
		minBits, err := readUint64(r)
		if err != nil {
			return nil, ErrTruncated
		}
		maxBits, err := readUint64(r)
		if err != nil {
			return nil, ErrTruncated
		}
		ds.HasRange = true
		ds.Min = math.Float64frombits(minBits)
		ds.Max = math.Float64frombits(maxBits)
	}

	blockLen, err := readUint64(r)
	if err != nil {
		return nil, ErrTruncated
	}
	block := make([]byte, blockLen)
	if _, err := io.ReadFull(r, block); err != nil {
		return nil, ErrTruncated
	}
	raw, err := deserializeBlock(block)
	if err != nil {
		return nil, fmt.Errorf("dataset %q: %w", name, err)
	}
	if err := decodePayload(ds, raw); err != nil {
		return nil, fmt.Errorf("dataset %q: %w", name, err)
	}
	return ds, nil
}

// deserializeBlock reverses serializeBlock: format byte, optional CRC32,
// compressed payload.
func deserializeBlock(block []byte) ([]byte, error) {
	if len(block) < 1 {
		return nil, ErrTruncated
	}
	compress, checksum := unpackFormat(block[0])
	data := block[1:]

	var stored uint32
	if checksum == CRC32 {
		if len(data) < 4 {
			return nil, ErrTruncated
		}
		stored = binary.LittleEndian.Uint32(data[:4])
		data = data[4:]
	}
	if checksum == CRC32 && crc32.ChecksumIEEE(data) != stored {
		return nil, ErrBadChecksum
	}

	switch compress {
	case Uncompressed:
		return data, nil
	case Snappy:
		return snappy.Decode(nil, data)
	case Deflate:
		fr := flate.NewReader(bytes.NewReader(data))
		defer fr.Close()
		return io.ReadAll(fr)
	default:
		return nil, fmt.Errorf("unknown compression %d", compress)
	}
}

// decodePayload fills the dataset's elements from raw little-endian bytes,
// validating the byte count against the declared shape.
func decodePayload(ds *Dataset, raw []byte) error {
	switch ds.Kind {
	case KindText:
		ds.Text = string(raw)
		return nil
	case KindInt32:
		n := elemCount(ds.Shape)
		if len(raw) != 4*n {
			return fmt.Errorf("payload is %d bytes, want %d for shape %v", len(raw), 4*n, ds.Shape)
		}
		ds.Ints = make([]int32, n)
		for i := range ds.Ints {
			ds.Ints[i] = int32(binary.LittleEndian.Uint32(raw[4*i:]))
		}
		return nil
	case KindFloat64:
		n := elemCount(ds.Shape)
		if len(raw) != 8*n {
			return fmt.Errorf("payload is %d bytes, want %d for shape %v", len(raw), 8*n, ds.Shape)
		}
		ds.Floats = make([]float64, n)
		for i := range ds.Floats {
			ds.Floats[i] = math.Float64frombits(binary.LittleEndian.Uint64(raw[8*i:]))
		}
		return nil
	default:
		return fmt.Errorf("unknown dataset kind %d", ds.Kind)
	}
}

func readUint8(r io.Reader) (uint8, error) {
	var buf [1]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return buf[0], nil
}

func readUint16(r io.Reader) (uint16, error) {
	var buf [2]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(buf[:]), nil
}

func readUint64(r io.Reader) (uint64, error) {
	var buf [8]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(buf[:]), nil
}

func readString(r io.Reader) (string, error) {
	n, err := readUint16(r)
	if err != nil {
		return "", err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}
