package graph

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"io"
	"os"
	"unsafe"
)

const (
	magicBytes    = "SPFWDSET"
	version       = uint32(1)
	maxVertices   = 100_000_000
	maxEdges      = 500_000_000
	maxWeightSets = 64
	maxNameLen    = 255
)

// fileHeader is the binary header.
type fileHeader struct {
	Magic         [8]byte
	Version       uint32
	NumVertices   uint32
	NumEdges      uint32
	NumWeightSets uint32
	HasCoords     uint32
}

// WriteBinary serializes a Dataset to a binary file.
// Uses unsafe.Slice for fast zero-copy I/O.
func WriteBinary(path string, ds *Dataset) error {
	g := ds.Graph
	if err := ds.Validate(); err != nil {
		return fmt.Errorf("invalid dataset: %w", err)
	}
	if len(ds.Weights) > maxWeightSets {
		return fmt.Errorf("%d weight sets exceed limit %d", len(ds.Weights), maxWeightSets)
	}

	tmpPath := path + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		f.Close()
		os.Remove(tmpPath) // clean up on error
	}()

	crcWriter := crc32Writer{w: f, hash: crc32.NewIEEE()}
	w := &crcWriter

	hdr := fileHeader{
		Version:       version,
		NumVertices:   g.NumVertices,
		NumEdges:      g.NumEdges(),
		NumWeightSets: uint32(len(ds.Weights)),
	}
	if g.HasCoordinates() {
		hdr.HasCoords = 1
	}
	copy(hdr.Magic[:], magicBytes)
	if err := binary.Write(w, binary.LittleEndian, &hdr); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	// Topology.
	if err := writeUint32Slice(w, g.Offsets); err != nil {
		return fmt.Errorf("write Offsets: %w", err)
	}
	if err := writeUint32Slice(w, g.Dest); err != nil {
		return fmt.Errorf("write Dest: %w", err)
	}
	if err := writeUint32Slice(w, g.EdgeID); err != nil {
		return fmt.Errorf("write EdgeID: %w", err)
	}

	// Weight sets, in name order so the output is deterministic.
	for _, name := range ds.WeightNames() {
		if len(name) == 0 || len(name) > maxNameLen {
			return fmt.Errorf("invalid weight set name %q", name)
		}
		if err := writeName(w, name); err != nil {
			return fmt.Errorf("write weight set name %q: %w", name, err)
		}
		if err := writeUint32Slice(w, ds.Weights[name]); err != nil {
			return fmt.Errorf("write weight set %q: %w", name, err)
		}
	}

	// Coordinates.
	if hdr.HasCoords == 1 {
		if err := writeFloat64Slice(w, g.NodeLat); err != nil {
			return fmt.Errorf("write NodeLat: %w", err)
		}
		if err := writeFloat64Slice(w, g.NodeLon); err != nil {
			return fmt.Errorf("write NodeLon: %w", err)
		}
	}

	// Write CRC32 trailer.
	checksum := crcWriter.hash.Sum32()
	if err := binary.Write(f, binary.LittleEndian, checksum); err != nil {
		return fmt.Errorf("write CRC32: %w", err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	// Atomic rename.
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename: %w", err)
	}

	return nil
}

// ReadBinary deserializes a Dataset from a binary file.
func ReadBinary(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	defer f.Close()

	crcReader := crc32Reader{r: f, hash: crc32.NewIEEE()}
	r := &crcReader

	// Read and validate header.
	var hdr fileHeader
	if err := binary.Read(r, binary.LittleEndian, &hdr); err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	if string(hdr.Magic[:]) != magicBytes {
		return nil, fmt.Errorf("invalid magic bytes: %q", hdr.Magic)
	}
	if hdr.Version != version {
		return nil, fmt.Errorf("unsupported version: %d", hdr.Version)
	}
	if hdr.NumVertices > maxVertices {
		return nil, fmt.Errorf("NumVertices %d exceeds limit %d", hdr.NumVertices, maxVertices)
	}
	if hdr.NumEdges > maxEdges {
		return nil, fmt.Errorf("NumEdges %d exceeds limit %d", hdr.NumEdges, maxEdges)
	}
	if hdr.NumWeightSets > maxWeightSets {
		return nil, fmt.Errorf("NumWeightSets %d exceeds limit %d", hdr.NumWeightSets, maxWeightSets)
	}

	g := &Graph{NumVertices: hdr.NumVertices}

	if g.Offsets, err = readUint32Slice(r, int(hdr.NumVertices)); err != nil {
		return nil, fmt.Errorf("read Offsets: %w", err)
	}
	if g.Dest, err = readUint32Slice(r, int(hdr.NumEdges)); err != nil {
		return nil, fmt.Errorf("read Dest: %w", err)
	}
	if g.EdgeID, err = readUint32Slice(r, int(hdr.NumEdges)); err != nil {
		return nil, fmt.Errorf("read EdgeID: %w", err)
	}

	ds := NewDataset(g)
	for i := uint32(0); i < hdr.NumWeightSets; i++ {
		name, err := readName(r)
		if err != nil {
			return nil, fmt.Errorf("read weight set name %d: %w", i, err)
		}
		if _, dup := ds.Weights[name]; dup {
			return nil, fmt.Errorf("duplicate weight set %q", name)
		}
		if ds.Weights[name], err = readUint32Slice(r, int(hdr.NumEdges)); err != nil {
			return nil, fmt.Errorf("read weight set %q: %w", name, err)
		}
	}

	if hdr.HasCoords == 1 {
		if g.NodeLat, err = readFloat64Slice(r, int(hdr.NumVertices)); err != nil {
			return nil, fmt.Errorf("read NodeLat: %w", err)
		}
		if g.NodeLon, err = readFloat64Slice(r, int(hdr.NumVertices)); err != nil {
			return nil, fmt.Errorf("read NodeLon: %w", err)
		}
	}

	// Read and validate CRC32.
	expectedCRC := crcReader.hash.Sum32()
	var storedCRC uint32
	if err := binary.Read(f, binary.LittleEndian, &storedCRC); err != nil {
		return nil, fmt.Errorf("read CRC32: %w", err)
	}
	if storedCRC != expectedCRC {
		return nil, fmt.Errorf("CRC32 mismatch: stored=%08x computed=%08x", storedCRC, expectedCRC)
	}

	if err := ds.Validate(); err != nil {
		return nil, fmt.Errorf("CSR invalid: %w", err)
	}

	return ds, nil
}

func writeName(w io.Writer, name string) error {
	if err := binary.Write(w, binary.LittleEndian, uint32(len(name))); err != nil {
		return err
	}
	_, err := io.WriteString(w, name)
	return err
}

func readName(r io.Reader) (string, error) {
	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return "", err
	}
	if n == 0 || n > maxNameLen {
		return "", fmt.Errorf("invalid name length %d", n)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

// Zero-copy I/O helpers using unsafe.Slice.

func writeUint32Slice(w io.Writer, s []uint32) error {
	if len(s) == 0 {
		return nil
	}
	b := unsafe.Slice((*byte)(unsafe.Pointer(&s[0])), len(s)*4)
	_, err := w.Write(b)
	return err
}

func writeFloat64Slice(w io.Writer, s []float64) error {
	if len(s) == 0 {
		return nil
	}
	b := unsafe.Slice((*byte)(unsafe.Pointer(&s[0])), len(s)*8)
	_, err := w.Write(b)
	return err
}

func readUint32Slice(r io.Reader, n int) ([]uint32, error) {
	if n == 0 {
		return nil, nil
	}
	s := make([]uint32, n)
	b := unsafe.Slice((*byte)(unsafe.Pointer(&s[0])), n*4)
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, err
	}
	return s, nil
}

func readFloat64Slice(r io.Reader, n int) ([]float64, error) {
	if n == 0 {
		return nil, nil
	}
	s := make([]float64, n)
	b := unsafe.Slice((*byte)(unsafe.Pointer(&s[0])), n*8)
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, err
	}
	return s, nil
}

// CRC32 wrapping writers/readers.

type crc32Writer struct {
	w    io.Writer
	hash crc32Hash
}

type crc32Hash interface {
	Write([]byte) (int, error)
	Sum32() uint32
}

func (cw *crc32Writer) Write(p []byte) (int, error) {
	cw.hash.Write(p)
	return cw.w.Write(p)
}

type crc32Reader struct {
	r    io.Reader
	hash crc32Hash
}

func (cr *crc32Reader) Read(p []byte) (int, error) {
	n, err := cr.r.Read(p)
	if n > 0 {
		cr.hash.Write(p[:n])
	}
	return n, err
}
