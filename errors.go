package vptree

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyDataset is returned when a tree is built from a dataset with no
	// points or no dimensions.
	ErrEmptyDataset = errors.New("vptree: dataset is empty")

	// ErrEmptyTree is returned when querying or saving a tree whose contents
	// were transferred away.
	ErrEmptyTree = errors.New("vptree: tree is empty")

	// ErrInvalidK is returned when k is not positive.
	ErrInvalidK = errors.New("vptree: k must be positive")

	// ErrInvalidRange is returned by range search when lo > hi or either end
	// is negative or NaN.
	ErrInvalidRange = errors.New("vptree: invalid distance range")

	// ErrInvalidMagic is returned when a persisted stream does not start with
	// the tree file magic number.
	ErrInvalidMagic = errors.New("vptree: invalid magic number")

	// ErrUnsupportedVersion is returned for persisted streams written by an
	// incompatible format version.
	ErrUnsupportedVersion = errors.New("vptree: unsupported format version")

	// ErrChecksumMismatch is returned when the persisted payload does not match
	// its recorded CRC32.
	ErrChecksumMismatch = errors.New("vptree: checksum mismatch")

	// ErrUnknownCompression is returned for an unrecognized CompressionType.
	ErrUnknownCompression = errors.New("vptree: unknown compression type")
)

// ErrDimensionMismatch indicates a point or query whose dimensionality differs
// from the tree's.
type ErrDimensionMismatch struct {
	Expected int
	Actual   int
}

func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("vptree: dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

// FieldMismatchError is returned by an archive when the next field in a
// loaded stream is not the one the reader asked for.
//
// The underlying error (if any) can be accessed via errors.Unwrap.
type FieldMismatchError struct {
	Want  string
	Got   string
	cause error
}

func (e *FieldMismatchError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("vptree: archive field %q: %v", e.Want, e.cause)
	}
	return fmt.Sprintf("vptree: archive field mismatch: want %q, got %q", e.Want, e.Got)
}

func (e *FieldMismatchError) Unwrap() error { return e.cause }
