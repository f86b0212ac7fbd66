// Package secret encrypts the gateway account password stored in its
// JSON config file.
package secret

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"

	"xmppctl/internal/config"
	"xmppctl/storage"
)

const (
	// Prefix marks values produced by Encrypt.
	Prefix = "enc:v1:"

	keyInfo  = "xmppctl-password-v1"
	saltSize = 16
	keySize  = chacha20poly1305.KeySize
)

var (
	// ErrNotEncrypted indicates a value without the enc:v1: prefix.
	ErrNotEncrypted = errors.New("value is not encrypted")
	// ErrDecrypt indicates a wrong key or a tampered value.
	ErrDecrypt = errors.New("decryption failed: wrong key or tampered value")
)

// Passphrase returns XMPP_ENCRYPTION_KEY, falling back to a key derived from
// the host name. The boolean reports whether the fallback was used.
func Passphrase() (string, bool) {
	if key := os.Getenv("XMPP_ENCRYPTION_KEY"); key != "" {
		return key, false
	}
	return "host:" + config.Hostname(), true
}

func deriveKey(passphrase string, salt []byte) ([]byte, error) {
	r := hkdf.New(sha256.New, []byte(passphrase), salt, []byte(keyInfo))
	key := make([]byte, keySize)
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, err
	}
	return key, nil
}

// Encrypt seals plaintext with a key derived from passphrase.
// Wire format: Prefix + base64(salt[16] + nonce[12] + ciphertext).
func Encrypt(plaintext, passphrase string) (string, error) {
	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	key, err := deriveKey(passphrase, salt)
	if err != nil {
		return "", err
	}
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return "", err
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}

	wire := make([]byte, 0, saltSize+len(nonce)+len(plaintext)+aead.Overhead())
	wire = append(wire, salt...)
	wire = append(wire, nonce...)
	wire = aead.Seal(wire, nonce, []byte(plaintext), nil)
	return Prefix + base64.StdEncoding.EncodeToString(wire), nil
}

// Decrypt reverses Encrypt.
func Decrypt(value, passphrase string) (string, error) {
	if !strings.HasPrefix(value, Prefix) {
		return "", ErrNotEncrypted
	}
	wire, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(value, Prefix))
	if err != nil {
		return "", fmt.Errorf("invalid base64 value: %w", err)
	}
	nonceSize := chacha20poly1305.NonceSize
	if len(wire) < saltSize+nonceSize+chacha20poly1305.Overhead {
		return "", fmt.Errorf("value too short: %d bytes", len(wire))
	}

	salt := wire[:saltSize]
	nonce := wire[saltSize : saltSize+nonceSize]
	key, err := deriveKey(passphrase, salt)
	if err != nil {
		return "", err
	}
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return "", err
	}
	plaintext, err := aead.Open(nil, nonce, wire[saltSize+nonceSize:], nil)
	if err != nil {
		return "", ErrDecrypt
	}
	return string(plaintext), nil
}

// UpdateConfig encrypts password into xmpp.encryptedPassword of the config
// file at path and drops any plaintext xmpp.password.
func UpdateConfig(path, password, passphrase string) error {
	doc, err := storage.LoadConfig(path)
	if err != nil {
		return err
	}
	sealed, err := Encrypt(password, passphrase)
	if err != nil {
		return fmt.Errorf("encrypt password: %w", err)
	}
	xmpp := doc.Section("xmpp")
	xmpp["encryptedPassword"] = sealed
	delete(xmpp, "password")
	return storage.SaveConfig(path, doc)
}
