// Package gateway implements canonical field assembly, signing and callback
// verification for the JazzCash (HMAC) and Easypaisa (AES-ECB) hosted checkouts.
//
// Every function in this package is pure: profiles are read-only values derived
// from configuration, and the same input always yields the same output, so the
// package is safe for concurrent use without locking.
package gateway

import (
	"checkout/entity"
	"fmt"
	"slices"
	"strings"
	"time"
)

// Family groups gateways sharing field rules and signing algorithm.
type Family int

const (
	// FamilyHMAC signs sorted pp_* values with HMAC-SHA256 (JazzCash)
	FamilyHMAC Family = iota + 1
	// FamilyCipher encrypts a fixed-order field string with AES-ECB (Easypaisa)
	FamilyCipher
	// FamilyAccount authenticates with API credentials and carries no tag (Easypaisa MA)
	FamilyAccount
)

func (f Family) String() string {
	switch f {
	case FamilyHMAC:
		return "hmac"
	case FamilyCipher:
		return "cipher"
	case FamilyAccount:
		return "account"
	}
	return "unknown"
}

// AmountFormat is the gateway's wire representation of an amount.
type AmountFormat int

const (
	// AmountMinorUnits is an integer count of minor units: 110.00 => "11000"
	AmountMinorUnits AmountFormat = iota + 1
	// AmountOneDecimal is major units with exactly one decimal: 110 => "110.0"
	AmountOneDecimal
)

// SuccessRule marks a callback as approved when Field equals Value.
type SuccessRule struct {
	Field string
	Value string
	// Fold compares case-insensitively
	Fold bool
}

func (r SuccessRule) matches(fields *entity.FieldSet) bool {
	v, ok := fields.Get(r.Field)
	if !ok {
		return false
	}
	if r.Fold {
		return strings.EqualFold(v, r.Value)
	}
	return v == r.Value
}

// Profile is the static descriptor of one gateway in one environment.
// Profiles are produced by Registry.Resolve and must be treated as read-only.
type Profile struct {
	Name        string
	Environment string
	Family      Family
	Endpoint    string

	// Order is the canonical field order; every name is present in a built set
	Order []string
	// Static holds configuration-derived field values
	Static map[string]string

	TagField string
	// Prefix selects the fields participating in HMAC signing
	Prefix string
	Case   HashCase
	Secret string
	// Credentials is the Credentials header value of account profiles
	Credentials string

	AmountFormat       AmountFormat
	MaxReferenceLength int
	Expiry             time.Duration
	// RequirePayer demands a valid mobile number and CNIC digits
	RequirePayer bool

	ReferenceField    string
	ResponseCodeField string
	MessageField      string
	SuccessRules      []SuccessRule
}

// Signer derives the authentication tag of a field set.
type Signer interface {
	Sign(fields *entity.FieldSet, secret string) (string, error)
}

func (p *Profile) Signer() Signer {
	switch p.Family {
	case FamilyCipher:
		return CipherSigner{Order: p.Order}
	case FamilyAccount:
		return unsigned{gateway: p.Name}
	}
	return HMACSigner{Prefix: p.Prefix, TagField: p.TagField, Case: p.Case}
}

type unsigned struct {
	gateway string
}

func (s unsigned) Sign(*entity.FieldSet, string) (string, error) {
	return "", fmt.Errorf("%w: %s requests carry no tag", ErrMissingConfiguration, s.gateway)
}

// Sign attaches the authentication tag to fields and returns the payload for the redirect form.
func Sign(fields *entity.FieldSet, p *Profile) (*entity.SignedPayload, error) {
	tag, err := p.Signer().Sign(fields.Without(p.TagField), p.Secret)
	if err != nil {
		return nil, err
	}
	return &entity.SignedPayload{
		Endpoint: p.Endpoint,
		Fields:   fields.With(p.TagField, tag),
	}, nil
}

// Covers reports whether the tag authenticates the field name.
func (p *Profile) Covers(name string) bool {
	if name == "" || name == p.TagField {
		return false
	}
	switch p.Family {
	case FamilyHMAC:
		return strings.HasPrefix(name, p.Prefix)
	case FamilyCipher:
		return slices.Contains(p.Order, name)
	}
	return false
}

// checkRules rejects success rules reading fields outside the tag.
func (p *Profile) checkRules() error {
	for _, rule := range p.SuccessRules {
		if !p.Covers(rule.Field) {
			return fmt.Errorf("%w: %s success rule reads unsigned field %s", ErrMissingConfiguration, p.Name, rule.Field)
		}
	}
	return nil
}

// approves only consults rules over signed fields.
func (p *Profile) approves(fields *entity.FieldSet) bool {
	for _, rule := range p.SuccessRules {
		if p.Covers(rule.Field) && rule.matches(fields) {
			return true
		}
	}
	return false
}
