package gateway

import (
	"bytes"
	"checkout/entity"
	"encoding/base64"
	"fmt"
	"gitee.com/golang-module/dongle"
	"strings"
)

const blockSize = 16

// CipherVariant names the AES variant selected by key length.
type CipherVariant string

const (
	AES128ECB CipherVariant = "AES-128-ECB"
	AES192ECB CipherVariant = "AES-192-ECB"
	AES256ECB CipherVariant = "AES-256-ECB"
)

func CipherVariantFor(key []byte) (CipherVariant, error) {
	switch len(key) {
	case 16:
		return AES128ECB, nil
	case 24:
		return AES192ECB, nil
	case 32:
		return AES256ECB, nil
	}
	return "", fmt.Errorf("%w: %d bytes, expected 16, 24 or 32", ErrInvalidKeyLength, len(key))
}

// Pad appends n bytes of value n so the length is a multiple of size.
// Aligned input gets a full block of padding.
func Pad(data []byte, size int) []byte {
	n := size - len(data)%size
	out := make([]byte, 0, len(data)+n)
	out = append(out, data...)
	return append(out, bytes.Repeat([]byte{byte(n)}, n)...)
}

// EncryptECB encrypts block-aligned plaintext with AES in ECB mode. No padding is applied.
func EncryptECB(plain, key []byte) ([]byte, error) {
	if _, err := CipherVariantFor(key); err != nil {
		return nil, err
	}
	if len(plain) == 0 || len(plain)%blockSize != 0 {
		return nil, fmt.Errorf("aes-ecb: plaintext of %d bytes is not block aligned", len(plain))
	}
	c := dongle.NewCipher()
	c.SetMode(dongle.ECB)
	c.SetPadding(dongle.No)
	c.SetKey(key)
	encrypted := dongle.Encrypt.FromBytes(plain).ByAes(c)
	if encrypted.Error != nil {
		return nil, fmt.Errorf("aes-ecb: %w", encrypted.Error)
	}
	return encrypted.ToRawBytes(), nil
}

// CipherSigner computes the Easypaisa merchantHashedReq.
type CipherSigner struct {
	Order []string
}

// PlainText joins every field of Order as name=value with '&', empty values included.
func (s CipherSigner) PlainText(fields *entity.FieldSet) string {
	parts := make([]string, 0, len(s.Order))
	for _, name := range s.Order {
		parts = append(parts, name+"="+fields.Value(name))
	}
	return strings.Join(parts, "&")
}

func (s CipherSigner) Sign(fields *entity.FieldSet, secret string) (string, error) {
	if secret == "" {
		return "", ErrMissingSecret
	}
	key := []byte(secret)
	if _, err := CipherVariantFor(key); err != nil {
		return "", err
	}
	encrypted, err := EncryptECB(Pad([]byte(s.PlainText(fields)), blockSize), key)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(encrypted), nil
}
