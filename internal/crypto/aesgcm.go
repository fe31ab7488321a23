// Package crypto decrypts the credential values stored in ISAC user files.
//
// Values are AES-GCM sealed. The key, the nonce and the ciphertext are base64
// encoded; the 16-byte authentication tag is appended to the ciphertext.
//
// Import rules:
//   - CAN import: internal/errors, std lib
//   - MUST NOT import: other internal packages
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"encoding/base64"
	"fmt"
	"unicode/utf8"

	"github.com/mrz1836/injecteur/internal/errors"
)

// TagSize is the length of the GCM authentication tag appended to the data.
const TagSize = 16

// SealedValue is the "valeur" block of an encrypted credential entry.
type SealedValue struct {
	Key   string `mapstructure:"key_aes"`
	Nonce string `mapstructure:"iv_base64"`
	Data  string `mapstructure:"data_base64"`
}

// Decrypt opens v and returns the plaintext, which must be valid UTF-8.
// Every failure wraps errors.ErrDecryptFailed.
func Decrypt(v SealedValue) (string, error) {
	key, err := base64.StdEncoding.DecodeString(v.Key)
	if err != nil {
		return "", errors.Wrap(errors.ErrDecryptFailed, "key_aes is not base64")
	}
	nonce, err := base64.StdEncoding.DecodeString(v.Nonce)
	if err != nil {
		return "", errors.Wrap(errors.ErrDecryptFailed, "iv_base64 is not base64")
	}
	data, err := base64.StdEncoding.DecodeString(v.Data)
	if err != nil {
		return "", errors.Wrap(errors.ErrDecryptFailed, "data_base64 is not base64")
	}
	if len(data) < TagSize {
		return "", errors.Wrap(errors.ErrDecryptFailed, "data too short to hold a tag")
	}
	if len(nonce) == 0 {
		return "", errors.Wrap(errors.ErrDecryptFailed, "empty nonce")
	}

	aead, err := newGCM(key, len(nonce))
	if err != nil {
		return "", err
	}

	plaintext, err := aead.Open(nil, nonce, data, nil)
	if err != nil {
		return "", errors.Wrap(errors.ErrDecryptFailed, "authentication failed")
	}
	if !utf8.Valid(plaintext) {
		return "", errors.Wrap(errors.ErrDecryptFailed, "plaintext is not utf-8")
	}
	return string(plaintext), nil
}

// Seal encrypts plaintext with key and nonce and returns the encoded value.
// It is the inverse of Decrypt and is used to produce credential files.
func Seal(key, nonce []byte, plaintext string) (SealedValue, error) {
	if len(nonce) == 0 {
		return SealedValue{}, errors.Wrap(errors.ErrDecryptFailed, "empty nonce")
	}
	aead, err := newGCM(key, len(nonce))
	if err != nil {
		return SealedValue{}, err
	}
	sealed := aead.Seal(nil, nonce, []byte(plaintext), nil)
	return SealedValue{
		Key:   base64.StdEncoding.EncodeToString(key),
		Nonce: base64.StdEncoding.EncodeToString(nonce),
		Data:  base64.StdEncoding.EncodeToString(sealed),
	}, nil
}

func newGCM(key []byte, nonceSize int) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, errors.Wrap(errors.ErrDecryptFailed, fmt.Sprintf("invalid key of %d bytes", len(key)))
	}
	aead, err := cipher.NewGCMWithNonceSize(block, nonceSize)
	if err != nil {
		return nil, errors.Wrap(errors.ErrDecryptFailed, err.Error())
	}
	return aead, nil
}
