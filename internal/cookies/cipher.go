// Package cookies recovers an authenticated claude.ai session from a local
// Chromium-style encrypted cookie store.
//
// Values are encrypted with AES-128-CBC under a key derived from the app's
// Safe Storage secret in the OS keychain. Chrome and the Claude desktop app
// share the magic and key derivation but lay out their ciphertext
// differently, so decryption is dispatched on a Format tag.
package cookies

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha1" //nolint:gosec // PBKDF2-SHA1 is the fixed Chromium scheme
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

// ErrDecryption indicates a format or cipher mismatch: either a corrupted
// store or an unsupported format version. Not retryable.
var ErrDecryption = errors.New("cookies: decryption failed")

// Format selects the on-disk ciphertext layout.
type Format int

const (
	// FormatChrome is the legacy browser layout: "v10" magic then
	// ciphertext, CBC with a fixed all-space IV and PKCS#7 padding.
	FormatChrome Format = iota
	// FormatDesktopApp is the Claude desktop app layout: "v10" magic,
	// a 16-byte nonce (unused), a 16-byte IV, then ciphertext with
	// padding that is stripped only when well-formed.
	FormatDesktopApp
)

// String returns the format name for logs and errors.
func (f Format) String() string {
	switch f {
	case FormatChrome:
		return "chrome"
	case FormatDesktopApp:
		return "desktop-app"
	default:
		return "unknown"
	}
}

// Fixed parameters of the Chromium Safe Storage scheme.
const (
	pbkdf2Iterations = 1003
	keyLen           = 16
)

var (
	cookieMagic = []byte("v10")
	pbkdf2Salt  = []byte("saltysalt")
	chromeIV    = bytes.Repeat([]byte{0x20}, aes.BlockSize)
)

// DeriveKey stretches the OS Safe Storage secret into the 16-byte AES key.
// The key must not outlive the decrypt loop and must never be logged.
func DeriveKey(secret []byte) []byte {
	return pbkdf2.Key(secret, pbkdf2Salt, pbkdf2Iterations, keyLen, sha1.New)
}

// Decrypt recovers the plaintext of a single cookie value.
//
// Inputs shorter than the magic, or not starting with it, are treated as
// already-plaintext legacy rows and returned as-is.
func Decrypt(format Format, raw, key []byte) (string, error) {
	if len(raw) < len(cookieMagic) || !bytes.HasPrefix(raw, cookieMagic) {
		return lossyString(raw), nil
	}
	payload := raw[len(cookieMagic):]

	switch format {
	case FormatChrome:
		return decryptChrome(payload, key)
	case FormatDesktopApp:
		return decryptDesktopApp(payload, key)
	default:
		return "", fmt.Errorf("%w: unknown format %d", ErrDecryption, format)
	}
}

func decryptChrome(payload, key []byte) (string, error) {
	plain, err := decryptCBC(payload, key, chromeIV)
	if err != nil {
		return "", err
	}
	unpadded, ok := unpadPKCS7(plain)
	if !ok {
		return "", fmt.Errorf("%w: invalid padding", ErrDecryption)
	}
	return lossyString(unpadded), nil
}

func decryptDesktopApp(payload, key []byte) (string, error) {
	// Layout: 16-byte nonce | 16-byte IV | ciphertext (>= 1 block).
	if len(payload) < 48 {
		return "", fmt.Errorf("%w: payload too short (%d bytes)", ErrDecryption, len(payload))
	}
	if len(payload)%aes.BlockSize != 0 {
		return "", fmt.Errorf("%w: payload length %d not block-aligned", ErrDecryption, len(payload))
	}

	iv := payload[16:32]
	plain, err := decryptCBC(payload[32:], key, iv)
	if err != nil {
		return "", err
	}
	// The app writes padding inconsistently, so anomalies are tolerated:
	// strip only a well-formed trailer, otherwise keep the buffer intact.
	return lossyString(stripLoosePadding(plain)), nil
}

func decryptCBC(ciphertext, key, iv []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecryption, err)
	}
	if len(ciphertext) == 0 || len(ciphertext)%aes.BlockSize != 0 {
		return nil, fmt.Errorf("%w: ciphertext length %d not block-aligned", ErrDecryption, len(ciphertext))
	}

	plain := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plain, ciphertext)
	return plain, nil
}

// unpadPKCS7 removes standard PKCS#7 padding, reporting false when the
// trailer is malformed.
func unpadPKCS7(buf []byte) ([]byte, bool) {
	if len(buf) == 0 {
		return nil, false
	}
	pad := int(buf[len(buf)-1])
	if pad < 1 || pad > aes.BlockSize || pad > len(buf) {
		return nil, false
	}
	for _, b := range buf[len(buf)-pad:] {
		if int(b) != pad {
			return nil, false
		}
	}
	return buf[:len(buf)-pad], true
}

// stripLoosePadding truncates a PKCS#7 trailer if the final byte names a
// plausible pad length. Out-of-range values leave the buffer unchanged.
func stripLoosePadding(buf []byte) []byte {
	if len(buf) == 0 {
		return buf
	}
	pad := int(buf[len(buf)-1])
	if pad >= 1 && pad <= aes.BlockSize && pad <= len(buf) {
		return buf[:len(buf)-pad]
	}
	return buf
}

// lossyString decodes bytes as UTF-8, substituting the replacement rune
// for invalid sequences rather than failing.
func lossyString(b []byte) string {
	return strings.ToValidUTF8(string(b), "�")
}
