package vptree

import (
	"errors"
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// CompressionType selects how a persisted tree's payload is compressed.
type CompressionType uint8

const (
	// CompressionNone stores the payload as is.
	CompressionNone CompressionType = 0
	// CompressionLZ4 uses LZ4 block compression (fast).
	CompressionLZ4 CompressionType = 1
	// CompressionZSTD uses Zstandard (better ratio).
	CompressionZSTD CompressionType = 2
)

func (c CompressionType) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZSTD:
		return "zstd"
	default:
		return fmt.Sprintf("CompressionType(%d)", uint8(c))
	}
}

// maxPayloadSize bounds the uncompressed and stored payload sizes accepted on
// load.
const maxPayloadSize = 1<<31 - 1

// maxLZ4Ratio is the largest expansion an LZ4 block can decode to.
const maxLZ4Ratio = 255

func (c CompressionType) valid() bool {
	return c <= CompressionZSTD
}

var (
	zstdEncoderPool sync.Pool
	zstdDecoderPool sync.Pool
)

func getZstdEncoder() *zstd.Encoder {
	if v := zstdEncoderPool.Get(); v != nil {
		return v.(*zstd.Encoder)
	}
	enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	return enc
}

func getZstdDecoder() *zstd.Decoder {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder)
	}
	dec, _ := zstd.NewReader(nil, zstd.WithDecoderMaxMemory(maxPayloadSize))
	return dec
}

// compressPayload compresses data with c. It returns the compression actually
// applied: payloads that do not shrink below 90% of their size are stored
// uncompressed.
func compressPayload(data []byte, c CompressionType) ([]byte, CompressionType, error) {
	if len(data) == 0 {
		return data, CompressionNone, nil
	}

	var out []byte
	switch c {
	case CompressionNone:
		return data, CompressionNone, nil
	case CompressionLZ4:
		buf := make([]byte, lz4.CompressBlockBound(len(data)))
		n, err := lz4.CompressBlock(data, buf, nil)
		if err != nil {
			return nil, c, fmt.Errorf("vptree: lz4 compress: %w", err)
		}
		out = buf[:n] // n == 0 means incompressible
	case CompressionZSTD:
		enc := getZstdEncoder()
		out = enc.EncodeAll(data, nil)
		zstdEncoderPool.Put(enc)
	default:
		return nil, c, ErrUnknownCompression
	}

	if len(out) == 0 || float64(len(out)) > float64(len(data))*0.9 {
		return data, CompressionNone, nil
	}
	return out, c, nil
}

// decompressPayload reverses compressPayload. rawSize is the expected
// uncompressed length.
func decompressPayload(data []byte, c CompressionType, rawSize int) ([]byte, error) {
	if rawSize < 0 || rawSize > maxPayloadSize {
		return nil, fmt.Errorf("vptree: payload size %d out of range", rawSize)
	}
	switch c {
	case CompressionNone:
		if len(data) != rawSize {
			return nil, fmt.Errorf("vptree: payload is %d bytes, header says %d", len(data), rawSize)
		}
		return data, nil
	case CompressionLZ4:
		if rawSize > maxLZ4Ratio*len(data) {
			return nil, fmt.Errorf("vptree: %d lz4 bytes cannot decode to %d", len(data), rawSize)
		}
		out := make([]byte, rawSize)
		n, err := lz4.UncompressBlock(data, out)
		if err != nil {
			return nil, fmt.Errorf("vptree: lz4 decompress: %w", err)
		}
		if n != rawSize {
			return nil, errors.New("vptree: decompressed size mismatch")
		}
		return out, nil
	case CompressionZSTD:
		dec := getZstdDecoder()
		defer zstdDecoderPool.Put(dec)
		out, err := dec.DecodeAll(data, make([]byte, 0, min(rawSize, 8*len(data))))
		if err != nil {
			return nil, fmt.Errorf("vptree: zstd decompress: %w", err)
		}
		if len(out) != rawSize {
			return nil, errors.New("vptree: decompressed size mismatch")
		}
		return out, nil
	default:
		return nil, ErrUnknownCompression
	}
}
