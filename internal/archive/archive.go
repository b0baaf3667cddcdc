// Package archive wraps export documents for transport: optional compression,
// optional age encryption, and a BLAKE3 digest of the resulting bytes.
package archive

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"

	"filippo.io/age"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/tidwall/jsonc"
	"github.com/zeebo/blake3"
)

// Compression names the compression applied before encryption.
type Compression string

const (
	CompressionNone Compression = "none"
	CompressionZstd Compression = "zstd"
	CompressionLZ4  Compression = "lz4"
)

// ParseCompression accepts "none", "zstd" and "lz4". An empty name means none.
func ParseCompression(name string) (Compression, error) {
	switch Compression(strings.ToLower(strings.TrimSpace(name))) {
	case "", CompressionNone:
		return CompressionNone, nil
	case CompressionZstd:
		return CompressionZstd, nil
	case CompressionLZ4:
		return CompressionLZ4, nil
	default:
		return "", fmt.Errorf("archive: unknown compression %q", name)
	}
}

// Options controls Seal.
type Options struct {
	Compression Compression
	// Recipients are age X25519 public keys (age1...). Empty means no encryption.
	Recipients []string
}

// Sealed is a ready-to-write export file.
type Sealed struct {
	Data     []byte
	FileName string
	Digest   string
}

// maxOpenSize bounds decompressed output.
const maxOpenSize = 256 << 20

var (
	// ErrEncrypted is returned by Open for encrypted input without identities.
	ErrEncrypted = errors.New("archive: document is encrypted and no identity was supplied")
	// ErrTooLarge is returned when decompressed output exceeds the size bound.
	ErrTooLarge = errors.New("archive: decompressed document is too large")

	ageHeader = []byte("age-encryption.org/v1\n")
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
	lz4Magic  = []byte{0x04, 0x22, 0x4d, 0x18}
)

// Seal compresses and encrypts doc according to opts. fileName is the plain
// export file name; suffixes are appended for each layer.
func Seal(doc []byte, fileName string, opts Options) (Sealed, error) {
	data := doc
	name := fileName

	switch opts.Compression {
	case "", CompressionNone:
	case CompressionZstd:
		compressed, err := compressZstd(data)
		if err != nil {
			return Sealed{}, err
		}
		data, name = compressed, name+".zst"
	case CompressionLZ4:
		compressed, err := compressLZ4(data)
		if err != nil {
			return Sealed{}, err
		}
		data, name = compressed, name+".lz4"
	default:
		return Sealed{}, fmt.Errorf("archive: unknown compression %q", opts.Compression)
	}

	if len(opts.Recipients) > 0 {
		encrypted, err := encrypt(data, opts.Recipients)
		if err != nil {
			return Sealed{}, err
		}
		data, name = encrypted, name+".age"
	}

	return Sealed{Data: data, FileName: name, Digest: Digest(data)}, nil
}

// Open undoes Seal. Layers are detected from their headers, so plain JSON
// passes straight through. The result is normalized with jsonc so that
// comments and trailing commas in hand-edited files are accepted.
func Open(data []byte, identities []age.Identity) ([]byte, error) {
	if bytes.HasPrefix(data, ageHeader) {
		if len(identities) == 0 {
			return nil, ErrEncrypted
		}
		decrypted, err := decrypt(data, identities)
		if err != nil {
			return nil, err
		}
		data = decrypted
	}

	switch {
	case bytes.HasPrefix(data, zstdMagic):
		decompressed, err := decompressZstd(data)
		if err != nil {
			return nil, err
		}
		data = decompressed
	case bytes.HasPrefix(data, lz4Magic):
		decompressed, err := decompressLZ4(data)
		if err != nil {
			return nil, err
		}
		data = decompressed
	}

	return jsonc.ToJSON(data), nil
}

// ParseIdentities reads age identities, one per line, as written by age-keygen.
func ParseIdentities(r io.Reader) ([]age.Identity, error) {
	identities, err := age.ParseIdentities(r)
	if err != nil {
		return nil, fmt.Errorf("archive: parse identities: %w", err)
	}
	return identities, nil
}

// Digest returns the hex encoded BLAKE3-256 digest of data.
func Digest(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func compressZstd(data []byte) ([]byte, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("archive: zstd encoder: %w", err)
	}
	defer encoder.Close()
	return encoder.EncodeAll(data, nil), nil
}

func decompressZstd(data []byte) ([]byte, error) {
	decoder, err := zstd.NewReader(nil, zstd.WithDecoderMaxMemory(maxOpenSize))
	if err != nil {
		return nil, fmt.Errorf("archive: zstd decoder: %w", err)
	}
	defer decoder.Close()
	out, err := decoder.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("archive: zstd decompress: %w", err)
	}
	return out, nil
}

func compressLZ4(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	writer := lz4.NewWriter(&buf)
	if _, err := writer.Write(data); err != nil {
		return nil, fmt.Errorf("archive: lz4 compress: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("archive: lz4 finalize: %w", err)
	}
	return buf.Bytes(), nil
}

func decompressLZ4(data []byte) ([]byte, error) {
	return readBounded(lz4.NewReader(bytes.NewReader(data)), "lz4 decompress")
}

func encrypt(data []byte, recipientKeys []string) ([]byte, error) {
	recipients := make([]age.Recipient, 0, len(recipientKeys))
	for _, key := range recipientKeys {
		recipient, err := age.ParseX25519Recipient(strings.TrimSpace(key))
		if err != nil {
			return nil, fmt.Errorf("archive: parsing recipient key %q: %w", key, err)
		}
		recipients = append(recipients, recipient)
	}

	var buf bytes.Buffer
	writer, err := age.Encrypt(&buf, recipients...)
	if err != nil {
		return nil, fmt.Errorf("archive: creating age encryptor: %w", err)
	}
	if _, err := writer.Write(data); err != nil {
		return nil, fmt.Errorf("archive: writing to age encryptor: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("archive: finalizing age encryption: %w", err)
	}
	return buf.Bytes(), nil
}

func decrypt(data []byte, identities []age.Identity) ([]byte, error) {
	reader, err := age.Decrypt(bytes.NewReader(data), identities...)
	if err != nil {
		return nil, fmt.Errorf("archive: decrypting: %w", err)
	}
	return readBounded(reader, "read decrypted document")
}

func readBounded(r io.Reader, op string) ([]byte, error) {
	out, err := io.ReadAll(io.LimitReader(r, maxOpenSize+1))
	if err != nil {
		return nil, fmt.Errorf("archive: %s: %w", op, err)
	}
	if len(out) > maxOpenSize {
		return nil, ErrTooLarge
	}
	return out, nil
}
