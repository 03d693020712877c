// Package crypt reads and writes protected configuration files: AES-256-CBC
// with PKCS#5 padding, stored as a 16-byte IV followed by the ciphertext.
package crypt

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	KeySize = 32
	// CompanionExt is appended to a config path to find its protected copy.
	CompanionExt = ".enc"
	// KeyEnv names the environment variable holding the hex key.
	KeyEnv = "FDMCTL_KEY"
)

var (
	ErrTooShort  = errors.New("crypt: encrypted data too short")
	ErrKeySize   = errors.New("crypt: key must be 32 bytes")
	ErrBadCipher = errors.New("crypt: decryption failed (wrong key or corrupted data)")
	ErrNoKey     = errors.New("crypt: no key configured")
)

// ParseKey decodes a 64 character hex key.
func ParseKey(s string) ([]byte, error) {
	key, err := hex.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("crypt: decode key: %w", err)
	}
	if len(key) != KeySize {
		return nil, ErrKeySize
	}
	return key, nil
}

// KeyFromEnv reads the key from FDMCTL_KEY.
func KeyFromEnv() ([]byte, error) {
	s := os.Getenv(KeyEnv)
	if s == "" {
		return nil, ErrNoKey
	}
	return ParseKey(s)
}

// Decrypt returns the plaintext of an IV-prefixed ciphertext.
func Decrypt(key, data []byte) ([]byte, error) {
	if len(key) != KeySize {
		return nil, ErrKeySize
	}
	if len(data) < aes.BlockSize+1 {
		return nil, ErrTooShort
	}
	iv, ct := data[:aes.BlockSize], data[aes.BlockSize:]
	if len(ct)%aes.BlockSize != 0 {
		return nil, ErrBadCipher
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	pt := make([]byte, len(ct))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(pt, ct)
	return unpad(pt)
}

// Encrypt returns a fresh random IV followed by the padded ciphertext.
func Encrypt(key, plaintext []byte) ([]byte, error) {
	if len(key) != KeySize {
		return nil, ErrKeySize
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	padded := pad(plaintext)
	out := make([]byte, aes.BlockSize+len(padded))
	iv := out[:aes.BlockSize]
	if _, err := rand.Read(iv); err != nil {
		return nil, fmt.Errorf("crypt: generate iv: %w", err)
	}
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(out[aes.BlockSize:], padded)
	return out, nil
}

func pad(b []byte) []byte {
	n := aes.BlockSize - len(b)%aes.BlockSize
	return append(bytes.Clone(b), bytes.Repeat([]byte{byte(n)}, n)...)
}

func unpad(b []byte) ([]byte, error) {
	if len(b) == 0 {
		return nil, ErrBadCipher
	}
	n := int(b[len(b)-1])
	if n == 0 || n > aes.BlockSize || n > len(b) {
		return nil, ErrBadCipher
	}
	for _, c := range b[len(b)-n:] {
		if int(c) != n {
			return nil, ErrBadCipher
		}
	}
	return b[:len(b)-n], nil
}

// ReadEncryptedFile reads and decrypts path.
func ReadEncryptedFile(key []byte, path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	pt, err := Decrypt(key, data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return pt, nil
}

// LocateCompanion returns path+".enc" when that file exists.
func LocateCompanion(path string) (string, bool) {
	enc := path + CompanionExt
	if st, err := os.Stat(enc); err == nil && !st.IsDir() {
		return enc, true
	}
	return "", false
}

// DefaultOutputPath names the encrypted copy of in: a known config
// extension is replaced with .bin, anything else gets .bin appended.
func DefaultOutputPath(in string) string {
	switch strings.ToLower(filepath.Ext(in)) {
	case ".xml", ".yaml", ".yml", ".toml":
		return strings.TrimSuffix(in, filepath.Ext(in)) + ".bin"
	}
	return in + ".bin"
}
