package vptree

import (
	"bufio"
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"io"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"
	"gonum.org/v1/gonum/mat"
)

const (
	// magicNumber identifies persisted trees (ASCII "VPT1").
	magicNumber = 0x56505431
	// formatVersion is the current persisted layout.
	formatVersion = 0x00010000
)

// fileHeader precedes the payload of every persisted tree.
type fileHeader struct {
	Magic       uint32
	Version     uint32
	Compression CompressionType
	Padding1    [3]byte
	RawSize     uint64 // uncompressed payload length
	StoredSize  uint64 // payload length as written
	Checksum    uint32 // CRC32 (IEEE) of the stored payload
	Padding2    [4]byte
}

var headerSize = int64(binary.Size(fileHeader{}))

// WriteTo persists t to w using the configured compression. The metric,
// splitter and statistic builder are not persisted; load with the same
// configuration the tree was built with.
func (t *Tree) WriteTo(w io.Writer) (int64, error) {
	ctx := context.Background()
	n, err := t.writeTo(w)
	t.logger.LogSave(ctx, n, t.cfg.Compression, err)
	return n, err
}

func (t *Tree) writeTo(w io.Writer) (int64, error) {
	if t.IsEmpty() {
		return 0, ErrEmptyTree
	}

	var raw bytes.Buffer
	a := NewArchiveWriter(&raw)
	s := newTreeArchiver(a, &t.cfg)
	s.tree(t)
	if err := s.err(); err != nil {
		return 0, err
	}

	return writeFrame(w, raw.Bytes(), t.cfg.Compression)
}

// writeFrame compresses an archived payload and writes it behind a header.
func writeFrame(w io.Writer, raw []byte, c CompressionType) (int64, error) {
	payload, ctype, err := compressPayload(raw, c)
	if err != nil {
		return 0, err
	}
	h := fileHeader{
		Magic:       magicNumber,
		Version:     formatVersion,
		Compression: ctype,
		RawSize:     uint64(len(raw)),
		StoredSize:  uint64(len(payload)),
		Checksum:    crc32.ChecksumIEEE(payload),
	}
	if err := binary.Write(w, binary.LittleEndian, &h); err != nil {
		return 0, err
	}
	n, err := w.Write(payload)
	return headerSize + int64(n), err
}

// ReadFrom replaces t's contents with a tree read from r. Whatever t held
// before is released first, so on error t is left empty. Statistics are
// rebuilt with the configured StatisticBuilder and then overwritten with the
// persisted statistic state.
func (t *Tree) ReadFrom(r io.Reader) (int64, error) {
	ctx := context.Background()
	if t.logger == nil {
		applyDefaults(&t.cfg)
		t.logger = t.cfg.Logger
	}
	n, repaired, err := t.readFrom(r)
	t.logger.LogLoad(ctx, n, repaired, err)
	return n, err
}

func (t *Tree) readFrom(r io.Reader) (int64, int, error) {
	t.release()

	var h fileHeader
	if err := binary.Read(r, binary.LittleEndian, &h); err != nil {
		return 0, 0, fmt.Errorf("vptree: read header: %w", err)
	}
	read := headerSize
	if h.Magic != magicNumber {
		return read, 0, fmt.Errorf("%w: got 0x%08x", ErrInvalidMagic, h.Magic)
	}
	if h.Version != formatVersion {
		return read, 0, fmt.Errorf("%w: got 0x%08x", ErrUnsupportedVersion, h.Version)
	}
	if !h.Compression.valid() {
		return read, 0, fmt.Errorf("%w: %d", ErrUnknownCompression, h.Compression)
	}
	if h.RawSize > maxPayloadSize || h.StoredSize > maxPayloadSize {
		return read, 0, fmt.Errorf("vptree: payload of %d bytes (%d stored) exceeds limit of %d",
			h.RawSize, h.StoredSize, maxPayloadSize)
	}

	payload, err := io.ReadAll(io.LimitReader(r, int64(h.StoredSize)))
	read += int64(len(payload))
	if err != nil {
		return read, 0, err
	}
	if uint64(len(payload)) != h.StoredSize {
		return read, 0, fmt.Errorf("vptree: payload truncated: %w", io.ErrUnexpectedEOF)
	}
	if sum := crc32.ChecksumIEEE(payload); sum != h.Checksum {
		return read, 0, fmt.Errorf("%w: expected 0x%08x, got 0x%08x", ErrChecksumMismatch, h.Checksum, sum)
	}
	raw, err := decompressPayload(payload, h.Compression, int(h.RawSize))
	if err != nil {
		return read, 0, err
	}

	loaded := &Tree{cfg: t.cfg, logger: t.logger}
	s := newTreeArchiver(NewArchiveReader(bytes.NewReader(raw)), &loaded.cfg)
	s.tree(loaded)
	if err := s.err(); err != nil {
		return read, s.repaired, err
	}

	t.root = loaded.root
	t.dataset = loaded.dataset
	t.oldFromNew = loaded.oldFromNew
	t.newFromOld = loaded.newFromOld
	t.cfg = loaded.cfg
	return read, s.repaired, nil
}

// release drops t's nodes, dataset and permutation.
func (t *Tree) release() {
	t.root = nil
	t.dataset = nil
	t.oldFromNew = nil
	t.newFromOld = nil
}

// Load reads a tree written by WriteTo. cfg must carry the metric the tree
// was built with.
func Load(r io.Reader, cfg Config) (*Tree, error) {
	applyDefaults(&cfg)
	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}
	t := &Tree{cfg: cfg, logger: cfg.Logger}
	if _, err := t.ReadFrom(r); err != nil {
		return nil, err
	}
	return t, nil
}

// SaveFile writes t to filename atomically through a temporary file in the
// same directory.
func (t *Tree) SaveFile(filename string) error {
	dir := filepath.Dir(filename)
	tmp, err := os.CreateTemp(dir, filepath.Base(filename)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		_ = tmp.Close()
		if tmpName != "" {
			_ = os.Remove(tmpName)
		}
	}()

	buf := bufio.NewWriterSize(tmp, 256*1024)
	if _, err := t.WriteTo(buf); err != nil {
		return err
	}
	if err := buf.Flush(); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmpName, filename); err != nil {
		return err
	}
	tmpName = ""
	return nil
}

// LoadFile reads a tree written by SaveFile.
func LoadFile(filename string, cfg Config) (*Tree, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Load(bufio.NewReaderSize(f, 256*1024), cfg)
}

// treeArchiver walks a tree through an Archive in either direction.
//
// The dataset and permutation are written once, ahead of the nodes. Nodes
// follow in pre-order, each naming its parent by pre-order id (-1 for the
// root). On load a child is first linked to the node carrying its recorded
// id and then checked against the node actually loading it; disagreeing
// links are corrected and counted in repaired.
type treeArchiver struct {
	a   Archive
	cfg *Config

	dataset *Dataset
	byID    []*Node
	maxID   int

	repaired int
	fail     error
}

func newTreeArchiver(a Archive, cfg *Config) *treeArchiver {
	return &treeArchiver{a: a, cfg: cfg}
}

// err reports the first failure. A structural failure stops reading
// partway through a record, so it precedes any archive error it causes.
func (s *treeArchiver) err() error {
	if s.fail != nil {
		return s.fail
	}
	return s.a.Err()
}

func (s *treeArchiver) failf(format string, args ...any) {
	if s.fail == nil {
		s.fail = fmt.Errorf("vptree: "+format, args...)
	}
}

func (s *treeArchiver) tree(t *Tree) {
	a := s.a
	loading := a.Loading()

	points, dims := t.Len(), t.Dims()
	a.Int("points", &points)
	a.Int("dims", &dims)

	var flat []float64
	if !loading {
		flat = rowMajor(t.dataset.m)
	}
	a.Floats("dataset", &flat)
	a.Ints("oldFromNew", &t.oldFromNew)
	a.Int("maxLeafSize", &t.cfg.MaxLeafSize)
	if s.err() != nil {
		return
	}

	if loading {
		if points <= 0 || dims <= 0 || len(flat) != points*dims {
			s.failf("dataset of %d values does not hold %d points of dimension %d", len(flat), points, dims)
			return
		}
		if t.oldFromNew != nil && !isPermutation(t.oldFromNew, points) {
			s.failf("oldFromNew is not a permutation of %d points", points)
			return
		}
		if t.cfg.MaxLeafSize < 1 {
			s.failf("invalid maxLeafSize %d", t.cfg.MaxLeafSize)
			return
		}
		t.dataset = newDataset(mat.NewDense(points, dims, flat))
		if t.oldFromNew != nil {
			t.newFromOld = invert(t.oldFromNew)
		}
		t.root = &Node{bound: emptyBound(s.cfg.Metric), dataset: t.dataset}
	}

	s.dataset = t.dataset
	s.maxID = 2 * points
	s.node(t.root, -1)
}

func (s *treeArchiver) node(n *Node, parentID int) {
	a := s.a
	loading := a.Loading()

	id := len(s.byID)
	s.byID = append(s.byID, n)
	if id >= s.maxID {
		s.failf("more than %d nodes", s.maxID)
		return
	}

	recorded := parentID
	a.Int("parent", &recorded)
	a.Int("begin", &n.begin)
	a.Int("count", &n.count)
	a.Floats("center", &n.bound.center)
	a.Float("innerRadius", &n.bound.innerRadius)
	a.Float("outerRadius", &n.bound.outerRadius)

	var stat []byte
	if !loading && n.stat != nil {
		b, err := json.Marshal(n.stat)
		if err != nil {
			s.failf("encode statistic: %v", err)
			return
		}
		stat = b
	}
	a.Bytes("statistic", &stat)

	a.Float("parentDistance", &n.parentDistance)
	a.Float("furthestDescendantDistance", &n.furthestDescendantDistance)
	if s.err() != nil {
		return
	}

	if loading {
		if n.begin < 0 || n.count < 0 || n.begin+n.count > s.dataset.Len() {
			s.failf("node range [%d, %d) outside dataset of %d points", n.begin, n.begin+n.count, s.dataset.Len())
			return
		}
		if (n.count > 0 || n.bound.center != nil) && len(n.bound.center) != s.dataset.Dims() {
			s.failf("node %d center has dimension %d, dataset has %d", id, len(n.bound.center), s.dataset.Dims())
			return
		}
		if recorded >= 0 && recorded < len(s.byID) {
			n.parent = s.byID[recorded]
		}
	}

	s.child("hasLeft", &n.left, id)
	s.child("hasRight", &n.right, id)
	if s.err() != nil {
		return
	}
	a.Bool("firstPointIsCentroid", &n.firstPointIsCentroid)
	if !loading || s.err() != nil {
		return
	}

	if (n.left == nil) != (n.right == nil) {
		s.failf("node %d has exactly one child", id)
		return
	}
	if n.left != nil {
		// A centroid node keeps its vantage point out of both children.
		want := n.count
		if n.firstPointIsCentroid {
			want--
		}
		if got := n.left.count + n.right.count; got != want {
			s.failf("children of node %d hold %d points, want %d", id, got, want)
			return
		}
	}
	for _, c := range []*Node{n.left, n.right} {
		if c != nil && c.parent != n {
			c.parent = n
			s.repaired++
		}
	}

	n.stat = s.cfg.Statistic(n)
	if stat != nil && n.stat != nil {
		if err := json.Unmarshal(stat, n.stat); err != nil {
			s.failf("decode statistic of node %d: %v", id, err)
		}
	}
}

func (s *treeArchiver) child(name string, slot **Node, parentID int) {
	if s.err() != nil {
		return
	}
	has := *slot != nil
	s.a.Bool(name, &has)
	if !has || s.err() != nil {
		return
	}
	if s.a.Loading() {
		*slot = &Node{bound: emptyBound(s.cfg.Metric), dataset: s.dataset}
	}
	s.node(*slot, parentID)
}

// rowMajor returns m's elements row by row without the padding of strided
// views.
func rowMajor(m *mat.Dense) []float64 {
	r, c := m.Dims()
	raw := m.RawMatrix()
	if raw.Stride == c {
		return raw.Data[:r*c]
	}
	out := make([]float64, 0, r*c)
	for i := 0; i < r; i++ {
		out = append(out, m.RawRowView(i)...)
	}
	return out
}

func isPermutation(p []int, n int) bool {
	if len(p) != n {
		return false
	}
	seen := make([]bool, n)
	for _, v := range p {
		if v < 0 || v >= n || seen[v] {
			return false
		}
		seen[v] = true
	}
	return true
}
