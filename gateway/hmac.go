package gateway

import (
	"checkout/entity"
	"fmt"
	"gitee.com/golang-module/dongle"
	"sort"
	"strings"
)

// HashCase is the hex casing of an HMAC tag.
type HashCase string

const (
	HashLower HashCase = "lower"
	HashUpper HashCase = "upper"
)

func ParseHashCase(s string) (HashCase, error) {
	switch HashCase(strings.ToLower(strings.TrimSpace(s))) {
	case HashLower, "":
		return HashLower, nil
	case HashUpper:
		return HashUpper, nil
	}
	return "", fmt.Errorf("%w: unsupported hash case %q", ErrMissingConfiguration, s)
}

// HMACSigner computes the JazzCash secure hash.
type HMACSigner struct {
	Prefix   string
	TagField string
	Case     HashCase
}

// SigningString is "secret&v1&v2&..." over the values of prefixed, non-blank
// fields sorted by name in byte order. The tag field never participates.
func (s HMACSigner) SigningString(fields *entity.FieldSet, secret string) string {
	entries := make([]entity.Field, 0, fields.Len())
	for _, f := range fields.Fields() {
		if !strings.HasPrefix(f.Name, s.Prefix) || f.Name == s.TagField {
			continue
		}
		if strings.TrimSpace(f.Value) == "" {
			continue
		}
		entries = append(entries, f)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name < entries[j].Name
	})

	parts := make([]string, 0, len(entries)+1)
	parts = append(parts, secret)
	for _, e := range entries {
		parts = append(parts, e.Value)
	}
	return strings.Join(parts, "&")
}

func (s HMACSigner) Sign(fields *entity.FieldSet, secret string) (string, error) {
	if secret == "" {
		return "", ErrMissingSecret
	}
	mac := dongle.Encrypt.FromString(s.SigningString(fields, secret)).ByHmacSha256(secret)
	if mac.Error != nil {
		return "", fmt.Errorf("hmac-sha256: %w", mac.Error)
	}
	tag := mac.ToHexString()
	if s.Case == HashUpper {
		return strings.ToUpper(tag), nil
	}
	return strings.ToLower(tag), nil
}
