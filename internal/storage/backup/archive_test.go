package backup

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/yndnr/lwm2m-seccfg/internal/storage/memory"
)

func seeded(t *testing.T) *memory.Engine {
	t.Helper()
	kv := memory.New()
	ctx := context.Background()
	for k, v := range map[string]string{
		"profile/a": `{"client":{"securityConfigClientMode":"NO_SEC"}}`,
		"profile/b": `{"client":{"securityConfigClientMode":"PSK"}}`,
	} {
		if err := kv.Set(ctx, []byte(k), []byte(v)); err != nil {
			t.Fatal(err)
		}
	}
	return kv
}

func TestWriteRestore(t *testing.T) {
	tests := []struct {
		name string
		opts Options
	}{
		{"plain", Options{}},
		{"aes-gcm", Options{Passphrase: []byte("correct horse"), Cipher: CipherAESGCM}},
		{"chacha20", Options{Passphrase: []byte("correct horse"), Cipher: CipherChaCha20}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			var buf bytes.Buffer
			info, err := Write(ctx, &buf, seeded(t), tt.opts)
			if err != nil {
				t.Fatal(err)
			}
			if info.Encrypted != (len(tt.opts.Passphrase) > 0) {
				t.Errorf("Encrypted = %v", info.Encrypted)
			}
			if info.Size != int64(buf.Len()) {
				t.Errorf("Size = %d, want %d", info.Size, buf.Len())
			}

			dst := memory.New()
			restored, err := Restore(ctx, bytes.NewReader(buf.Bytes()), dst, tt.opts)
			if err != nil {
				t.Fatal(err)
			}
			if restored.Checksum != info.Checksum {
				t.Errorf("checksum mismatch %s != %s", restored.Checksum, info.Checksum)
			}
			got, err := dst.Get(ctx, []byte("profile/b"))
			if err != nil {
				t.Fatal(err)
			}
			if !bytes.Contains(got, []byte("PSK")) {
				t.Errorf("restored value = %s", got)
			}
		})
	}
}

func TestRestoreErrors(t *testing.T) {
	ctx := context.Background()
	sealedOpts := Options{Passphrase: []byte("correct horse")}

	var sealed bytes.Buffer
	if _, err := Write(ctx, &sealed, seeded(t), sealedOpts); err != nil {
		t.Fatal(err)
	}

	corrupt := bytes.Clone(sealed.Bytes())
	corrupt[len(magicBytes)+6] ^= 0xff

	badMagic := bytes.Clone(sealed.Bytes())
	badMagic[0] = 'X'

	tests := []struct {
		name string
		data []byte
		opts Options
		want error
	}{
		{"no passphrase", sealed.Bytes(), Options{}, ErrPassphraseRequired},
		{"wrong passphrase", sealed.Bytes(), Options{Passphrase: []byte("wrong horse")}, ErrDecryptionFailed},
		{"corrupted", corrupt, sealedOpts, ErrChecksumMismatch},
		{"bad magic", badMagic, sealedOpts, ErrInvalidMagic},
		{"truncated", sealed.Bytes()[:10], sealedOpts, ErrChecksumMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dst := memory.New()
			_ = dst.Set(ctx, []byte("keep"), []byte("1"))
			_, err := Restore(ctx, bytes.NewReader(tt.data), dst, tt.opts)
			if !errors.Is(err, tt.want) {
				t.Fatalf("Restore() error = %v, want %v", err, tt.want)
			}
			if _, err := dst.Get(ctx, []byte("keep")); err != nil {
				t.Error("failed restore modified the engine")
			}
		})
	}
}

func TestWriteRejectsWeakPassphrase(t *testing.T) {
	var buf bytes.Buffer
	_, err := Write(context.Background(), &buf, memory.New(), Options{Passphrase: []byte("short")})
	if !errors.Is(err, ErrPassphraseTooWeak) {
		t.Errorf("Write() error = %v, want ErrPassphraseTooWeak", err)
	}
}

func TestParseCipher(t *testing.T) {
	for in, want := range map[string]CipherType{
		"":                  CipherAESGCM,
		"aes-gcm":           CipherAESGCM,
		"chacha20-poly1305": CipherChaCha20,
	} {
		got, err := ParseCipher(in)
		if err != nil || got != want {
			t.Errorf("ParseCipher(%q) = %s, %v", in, got, err)
		}
	}
	if _, err := ParseCipher("rot13"); err == nil {
		t.Error("ParseCipher(rot13) succeeded")
	}
}
