// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package index

import (
	"bytes"
	"fmt"
	"io"
	"sync"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

var (
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
	gzipMagic = []byte{0x1f, 0x8b}
)

// maxDecompressedBytes bounds the inflated size of one payload.
const maxDecompressedBytes = 256 << 20

var zstdDecoderPool sync.Pool

func getZstdDecoder() (*zstd.Decoder, error) {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder), nil
	}
	return zstd.NewReader(nil, zstd.WithDecoderMaxMemory(maxDecompressedBytes))
}

func putZstdDecoder(dec *zstd.Decoder) {
	zstdDecoderPool.Put(dec)
}

// Decompress inflates a zstd or gzip payload, recognised by its magic
// bytes. Any other payload is returned unchanged.
func Decompress(payload []byte) ([]byte, error) {
	switch {
	case bytes.HasPrefix(payload, zstdMagic):
		dec, err := getZstdDecoder()
		if err != nil {
			return nil, err
		}
		defer putZstdDecoder(dec)
		out, err := dec.DecodeAll(payload, nil)
		if err != nil {
			return nil, fmt.Errorf("%w: zstd: %w", ErrInvalidPayload, err)
		}
		return out, nil

	case bytes.HasPrefix(payload, gzipMagic):
		zr, err := gzip.NewReader(bytes.NewReader(payload))
		if err != nil {
			return nil, fmt.Errorf("%w: gzip: %w", ErrInvalidPayload, err)
		}
		defer zr.Close()
		out, err := io.ReadAll(io.LimitReader(zr, maxDecompressedBytes+1))
		if err != nil {
			return nil, fmt.Errorf("%w: gzip: %w", ErrInvalidPayload, err)
		}
		if len(out) > maxDecompressedBytes {
			return nil, fmt.Errorf("%w: gzip: inflated payload exceeds %d bytes", ErrInvalidPayload, maxDecompressedBytes)
		}
		return out, nil

	default:
		return payload, nil
	}
}
