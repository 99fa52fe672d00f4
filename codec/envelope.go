package codec

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression defines the compression algorithm applied to an envelope
// payload.
type Compression uint8

const (
	// CompressionNone indicates no compression.
	CompressionNone Compression = 0
	// CompressionLZ4 indicates LZ4 block compression (fast, good for small
	// partial results exchanged frequently).
	CompressionLZ4 Compression = 1
	// CompressionZSTD indicates ZSTD block compression (better ratio, good
	// for large result sets).
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

// Envelope layout:
//
//	[nameLen uint8][codec name][compression uint8][uncompressedSize uint32 LE][payload]
//
// If the compressed payload would not beat 0.9x of the original size, the
// payload is stored uncompressed and the compression byte is CompressionNone.
const envelopeOverhead = 1 + 1 + 4

// Pack marshals v with the given codec and wraps it in a self-describing,
// optionally compressed envelope. A nil codec selects Default.
func Pack(c Codec, comp Compression, v any) ([]byte, error) {
	if c == nil {
		c = Default
	}

	payload, err := c.Marshal(v)
	if err != nil {
		return nil, err
	}

	name := c.Name()
	if len(name) > 255 {
		return nil, fmt.Errorf("codec name %q too long", name)
	}

	compressed, err := compressPayload(payload, comp)
	if err != nil {
		return nil, err
	}
	if compressed == nil || len(compressed) > len(payload)*9/10 {
		compressed = payload
		comp = CompressionNone
	}

	out := make([]byte, 0, len(name)+envelopeOverhead+len(compressed))
	out = append(out, byte(len(name)))
	out = append(out, name...)
	out = append(out, byte(comp))
	out = binary.LittleEndian.AppendUint32(out, uint32(len(payload)))
	out = append(out, compressed...)
	return out, nil
}

// Unpack decodes a Pack envelope into v, resolving the codec by the name
// recorded in the header.
func Unpack(data []byte, v any) error {
	if len(data) < 1 {
		return errors.New("envelope too small")
	}

	nameLen := int(data[0])
	if len(data) < 1+nameLen+envelopeOverhead-1 {
		return errors.New("envelope header truncated")
	}
	name := string(data[1 : 1+nameLen])

	c, ok := ByName(name)
	if !ok {
		return fmt.Errorf("unknown codec %q", name)
	}

	rest := data[1+nameLen:]
	comp := Compression(rest[0])
	uncompressedSize := binary.LittleEndian.Uint32(rest[1:5])
	payload := rest[5:]

	decoded, err := decompressPayload(payload, comp, uncompressedSize)
	if err != nil {
		return err
	}

	return c.Unmarshal(decoded, v)
}

func compressPayload(data []byte, comp Compression) ([]byte, error) {
	if comp == CompressionNone || len(data) == 0 {
		return nil, nil
	}

	switch comp {
	case CompressionLZ4:
		bound := lz4.CompressBlockBound(len(data))
		compressed := make([]byte, bound)
		n, err := lz4.CompressBlock(data, compressed, nil)
		if err != nil {
			return nil, err
		}
		if n == 0 {
			return nil, nil // Incompressible
		}
		return compressed[:n], nil

	case CompressionZSTD:
		enc := getZstdEncoder()
		defer putZstdEncoder(enc)
		return enc.EncodeAll(data, nil), nil

	default:
		return nil, fmt.Errorf("unknown compression %d", comp)
	}
}

func decompressPayload(data []byte, comp Compression, uncompressedSize uint32) ([]byte, error) {
	switch comp {
	case CompressionNone:
		return data, nil

	case CompressionLZ4:
		result := make([]byte, uncompressedSize)
		n, err := lz4.UncompressBlock(data, result)
		if err != nil {
			return nil, err
		}
		if uint32(n) != uncompressedSize {
			return nil, errors.New("decompressed size mismatch")
		}
		return result, nil

	case CompressionZSTD:
		dec := getZstdDecoder()
		defer putZstdDecoder(dec)
		decoded, err := dec.DecodeAll(data, make([]byte, 0, uncompressedSize))
		if err != nil {
			return nil, err
		}
		if uint32(len(decoded)) != uncompressedSize {
			return nil, errors.New("decompressed size mismatch")
		}
		return decoded, nil

	default:
		return nil, fmt.Errorf("unknown compression %d", comp)
	}
}
