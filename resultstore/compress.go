package resultstore

import (
	"encoding/binary"
	"errors"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression defines the payload compression algorithm.
type Compression uint8

const (
	// CompressionNone stores payloads uncompressed.
	CompressionNone Compression = 0
	// CompressionLZ4 uses LZ4 block compression (fast).
	CompressionLZ4 Compression = 1
	// CompressionZSTD uses ZSTD block compression (better ratio).
	CompressionZSTD Compression = 2
)

// ZSTD encoder/decoder pools for efficiency
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

func putZstdEncoder(enc *zstd.Encoder) {
	zstdEncoderPool.Put(enc)
}

func getZstdDecoder() *zstd.Decoder {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder)
	}
	dec, _ := zstd.NewReader(nil)
	return dec
}

func putZstdDecoder(dec *zstd.Decoder) {
	zstdDecoderPool.Put(dec)
}

// Frame format: [Algo uint8][UncompressedSize uint32][CompressedSize uint32][Data...]
// If CompressedSize == 0, the data is stored uncompressed. The algo
// byte makes frames self-describing, so a store can read back payloads
// written under a different compression setting.
const frameHeaderSize = 9

// EncodeFrame compresses payload with the given algorithm and wraps it
// in a self-describing frame. Incompressible payloads (ratio > 0.9)
// fall back to raw storage.
func EncodeFrame(payload []byte, algo Compression) ([]byte, error) {
	var compressed []byte
	var err error

	switch algo {
	case CompressionLZ4:
		compressed, err = compressLZ4(payload)
	case CompressionZSTD:
		compressed = compressZSTD(payload)
	case CompressionNone:
	default:
		return nil, errors.New("resultstore: unknown compression algorithm")
	}

	if err != nil {
		return nil, err
	}

	if len(compressed) == 0 || float64(len(compressed)) > float64(len(payload))*0.9 {
		frame := make([]byte, frameHeaderSize+len(payload))
		frame[0] = byte(algo)
		binary.LittleEndian.PutUint32(frame[1:], uint32(len(payload)))
		binary.LittleEndian.PutUint32(frame[5:], 0) // 0 = uncompressed
		copy(frame[frameHeaderSize:], payload)
		return frame, nil
	}

	frame := make([]byte, frameHeaderSize+len(compressed))
	frame[0] = byte(algo)
	binary.LittleEndian.PutUint32(frame[1:], uint32(len(payload)))
	binary.LittleEndian.PutUint32(frame[5:], uint32(len(compressed)))
	copy(frame[frameHeaderSize:], compressed)
	return frame, nil
}

func compressLZ4(payload []byte) ([]byte, error) {
	compressed := make([]byte, lz4.CompressBlockBound(len(payload)))

	n, err := lz4.CompressBlock(payload, compressed, nil)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil // Incompressible
	}
	return compressed[:n], nil
}

func compressZSTD(payload []byte) []byte {
	enc := getZstdEncoder()
	defer putZstdEncoder(enc)

	return enc.EncodeAll(payload, nil)
}

// DecodeFrame unwraps a frame and returns the original payload. The
// algorithm is read from the frame header.
func DecodeFrame(frame []byte) ([]byte, error) {
	if len(frame) < frameHeaderSize {
		return nil, errors.New("resultstore: frame too small for header")
	}

	algo := Compression(frame[0])
	uncompressedSize := binary.LittleEndian.Uint32(frame[1:])
	compressedSize := binary.LittleEndian.Uint32(frame[5:])

	if compressedSize == 0 {
		if uint32(len(frame)) < frameHeaderSize+uncompressedSize {
			return nil, errors.New("resultstore: frame data too small")
		}
		return frame[frameHeaderSize : frameHeaderSize+uncompressedSize], nil
	}

	if uint32(len(frame)) < frameHeaderSize+compressedSize {
		return nil, errors.New("resultstore: compressed frame data too small")
	}
	compressedData := frame[frameHeaderSize : frameHeaderSize+compressedSize]
	result := make([]byte, uncompressedSize)

	switch algo {
	case CompressionLZ4:
		n, err := lz4.UncompressBlock(compressedData, result)
		if err != nil {
			return nil, err
		}
		if uint32(n) != uncompressedSize {
			return nil, errors.New("resultstore: decompressed size mismatch")
		}
		return result, nil

	case CompressionZSTD:
		dec := getZstdDecoder()
		defer putZstdDecoder(dec)

		decoded, err := dec.DecodeAll(compressedData, result[:0])
		if err != nil {
			return nil, err
		}
		if uint32(len(decoded)) != uncompressedSize {
			return nil, errors.New("resultstore: decompressed size mismatch")
		}
		return decoded, nil

	default:
		return nil, errors.New("resultstore: unknown compression algorithm in frame")
	}
}
