package backup

import (
	"bytes"
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/yndnr/lwm2m-seccfg/internal/storage"
)

// Archive errors.
var (
	ErrInvalidMagic       = errors.New("backup: invalid magic bytes")
	ErrChecksumMismatch   = errors.New("backup: checksum mismatch")
	ErrPassphraseRequired = errors.New("backup: archive is sealed, passphrase required")
	ErrPassphraseTooWeak  = errors.New("backup: passphrase too weak (minimum 8 characters)")
	ErrDecryptionFailed   = errors.New("backup: decryption failed, wrong passphrase or corrupted data")
)

var magicBytes = []byte("LWSCBKUP")

const (
	headerVersion = 1
	checksumSize  = sha256.Size
)

// Options controls sealing. A nil Passphrase writes a plain archive.
type Options struct {
	Passphrase []byte
	Cipher     CipherType
}

type header struct {
	Version   int        `json:"version"`
	CreatedAt int64      `json:"created_at"`
	Encrypted bool       `json:"encrypted"`
	Cipher    CipherType `json:"cipher,omitempty"`
	Salt      []byte     `json:"salt,omitempty"`
}

// Info describes a written or restored archive.
type Info struct {
	CreatedAt int64      `json:"created_at"`
	Size      int64      `json:"size"`
	Checksum  string     `json:"checksum"`
	Encrypted bool       `json:"encrypted"`
	Cipher    CipherType `json:"cipher,omitempty"`
}

// Write archives the full contents of kv to w.
func Write(ctx context.Context, w io.Writer, kv storage.KVEngine, opts Options) (*Info, error) {
	snap, err := kv.SaveSnapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("backup: snapshot: %w", err)
	}
	body, err := io.ReadAll(snap)
	snap.Close()
	if err != nil {
		return nil, fmt.Errorf("backup: read snapshot: %w", err)
	}

	hdr := header{Version: headerVersion, CreatedAt: time.Now().UnixMilli()}
	if len(opts.Passphrase) > 0 {
		if len(opts.Passphrase) < MinPassphraseLength {
			return nil, ErrPassphraseTooWeak
		}
		kind, err := ParseCipher(string(opts.Cipher))
		if err != nil {
			return nil, err
		}
		salt, err := newSalt()
		if err != nil {
			return nil, err
		}
		hdr.Encrypted, hdr.Cipher, hdr.Salt = true, kind, salt
	}

	hdrJSON, err := json.Marshal(hdr)
	if err != nil {
		return nil, fmt.Errorf("backup: marshal header: %w", err)
	}

	if hdr.Encrypted {
		aead, err := newAEAD(hdr.Cipher, deriveKey(opts.Passphrase, hdr.Salt))
		if err != nil {
			return nil, err
		}
		if body, err = seal(aead, body, hdrJSON); err != nil {
			return nil, fmt.Errorf("backup: encrypt: %w", err)
		}
	}

	var buf bytes.Buffer
	buf.Write(magicBytes)
	writeChunk(&buf, hdrJSON)
	writeChunk(&buf, body)
	sum := sha256.Sum256(buf.Bytes())
	buf.Write(sum[:])

	n, err := w.Write(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("backup: write: %w", err)
	}

	return &Info{
		CreatedAt: hdr.CreatedAt,
		Size:      int64(n),
		Checksum:  hex.EncodeToString(sum[:]),
		Encrypted: hdr.Encrypted,
		Cipher:    hdr.Cipher,
	}, nil
}

// Restore verifies the archive read from r and replaces the contents of kv.
// kv is not touched when verification or decryption fails.
func Restore(ctx context.Context, r io.Reader, kv storage.KVEngine, opts Options) (*Info, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("backup: read: %w", err)
	}
	if len(data) < len(magicBytes)+8+checksumSize {
		return nil, ErrChecksumMismatch
	}
	if !bytes.Equal(data[:len(magicBytes)], magicBytes) {
		return nil, ErrInvalidMagic
	}

	payload, trailer := data[:len(data)-checksumSize], data[len(data)-checksumSize:]
	sum := sha256.Sum256(payload)
	if subtle.ConstantTimeCompare(sum[:], trailer) != 1 {
		return nil, ErrChecksumMismatch
	}

	rest := payload[len(magicBytes):]
	hdrJSON, rest, err := readChunk(rest)
	if err != nil {
		return nil, err
	}
	body, _, err := readChunk(rest)
	if err != nil {
		return nil, err
	}

	var hdr header
	if err := json.Unmarshal(hdrJSON, &hdr); err != nil {
		return nil, fmt.Errorf("backup: decode header: %w", err)
	}
	if hdr.Version != headerVersion {
		return nil, fmt.Errorf("backup: unsupported version %d", hdr.Version)
	}

	if hdr.Encrypted {
		if len(opts.Passphrase) == 0 {
			return nil, ErrPassphraseRequired
		}
		aead, err := newAEAD(hdr.Cipher, deriveKey(opts.Passphrase, hdr.Salt))
		if err != nil {
			return nil, err
		}
		if body, err = open(aead, body, hdrJSON); err != nil {
			return nil, ErrDecryptionFailed
		}
	}

	if err := kv.LoadSnapshot(ctx, bytes.NewReader(body)); err != nil {
		return nil, fmt.Errorf("backup: load snapshot: %w", err)
	}

	return &Info{
		CreatedAt: hdr.CreatedAt,
		Size:      int64(len(data)),
		Checksum:  hex.EncodeToString(sum[:]),
		Encrypted: hdr.Encrypted,
		Cipher:    hdr.Cipher,
	}, nil
}

func writeChunk(buf *bytes.Buffer, chunk []byte) {
	var n [4]byte
	binary.BigEndian.PutUint32(n[:], uint32(len(chunk)))
	buf.Write(n[:])
	buf.Write(chunk)
}

func readChunk(b []byte) (chunk, rest []byte, err error) {
	if len(b) < 4 {
		return nil, nil, ErrChecksumMismatch
	}
	n := binary.BigEndian.Uint32(b[:4])
	b = b[4:]
	if uint64(len(b)) < uint64(n) {
		return nil, nil, ErrChecksumMismatch
	}
	return b[:n], b[n:], nil
}
