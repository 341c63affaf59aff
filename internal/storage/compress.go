package storage

import (
	"sync"

	"github.com/klauspost/compress/zstd"
)

var (
	zstdOnce    sync.Once
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
	zstdErr     error
)

// codec returns process-wide zstd encoder and decoder; both are safe for
// concurrent EncodeAll/DecodeAll calls.
func codec() (*zstd.Encoder, *zstd.Decoder, error) {
	zstdOnce.Do(func() {
		zstdEncoder, zstdErr = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
		if zstdErr != nil {
			return
		}
		zstdDecoder, zstdErr = zstd.NewReader(nil)
	})
	return zstdEncoder, zstdDecoder, zstdErr
}

func compress(src string) ([]byte, error) {
	enc, _, err := codec()
	if err != nil {
		return nil, err
	}
	return enc.EncodeAll([]byte(src), nil), nil
}

func decompress(src []byte) (string, error) {
	_, dec, err := codec()
	if err != nil {
		return "", err
	}
	out, err := dec.DecodeAll(src, nil)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
