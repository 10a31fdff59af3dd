package gateway

import (
	"checkout/entity"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"strings"
)

// Outcome is the result of verifying an inbound gateway payload.
// It is only produced by Verify; an inauthentic outcome is never approved.
type Outcome struct {
	gateway      string
	authentic    bool
	approved     bool
	reference    string
	responseCode string
	message      string
	raw          map[string]string
	err          error
}

func (o *Outcome) Gateway() string      { return o.gateway }
func (o *Outcome) Authentic() bool      { return o.authentic }
func (o *Outcome) Approved() bool       { return o.authentic && o.approved }
func (o *Outcome) Reference() string    { return o.reference }
func (o *Outcome) ResponseCode() string { return o.responseCode }
func (o *Outcome) Message() string      { return o.message }

// Err reports why the expected tag could not be computed, if it could not.
func (o *Outcome) Err() error { return o.err }

// Raw returns a copy of the inbound fields.
func (o *Outcome) Raw() map[string]string {
	out := make(map[string]string, len(o.raw))
	for k, v := range o.raw {
		out[k] = v
	}
	return out
}

func (o *Outcome) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Gateway      string            `json:"gateway"`
		Authentic    bool              `json:"authentic"`
		Approved     bool              `json:"approved"`
		Reference    string            `json:"reference"`
		ResponseCode string            `json:"response_code,omitempty"`
		Message      string            `json:"message,omitempty"`
		Raw          map[string]string `json:"raw_response"`
	}{
		Gateway:      o.gateway,
		Authentic:    o.authentic,
		Approved:     o.Approved(),
		Reference:    o.reference,
		ResponseCode: o.responseCode,
		Message:      o.message,
		Raw:          o.raw,
	})
}

// Verify recomputes the tag of inbound with the profile's signer and compares it
// with the supplied one. Business approval is only evaluated for authentic payloads.
func Verify(inbound *entity.FieldSet, p *Profile) *Outcome {
	outcome := &Outcome{
		gateway:      p.Name,
		reference:    inbound.Value(p.ReferenceField),
		responseCode: inbound.Value(p.ResponseCodeField),
		message:      inbound.Value(p.MessageField),
		raw:          inbound.Map(),
	}

	supplied := inbound.Value(p.TagField)
	if strings.TrimSpace(supplied) == "" {
		outcome.err = fmt.Errorf("%w: %s is missing", ErrVerificationMismatch, p.TagField)
		return outcome
	}
	expected, err := p.Signer().Sign(inbound.Without(p.TagField), p.Secret)
	if err != nil {
		outcome.err = err
		return outcome
	}
	if !tagsEqual(p.Family, supplied, expected) {
		outcome.err = ErrVerificationMismatch
		return outcome
	}

	outcome.authentic = true
	outcome.approved = p.approves(inbound)
	return outcome
}

// VerifyTag is Verify for callers that branch on errors: it fails with
// ErrVerificationMismatch when the payload is not authentic.
func VerifyTag(inbound *entity.FieldSet, p *Profile) (*Outcome, error) {
	outcome := Verify(inbound, p)
	if !outcome.Authentic() {
		if outcome.err != nil {
			return outcome, outcome.err
		}
		return outcome, ErrVerificationMismatch
	}
	return outcome, nil
}

// hex tags compare case-insensitively, base64 tags byte for byte
func tagsEqual(family Family, supplied, expected string) bool {
	if family == FamilyHMAC {
		supplied, expected = strings.ToLower(supplied), strings.ToLower(expected)
	}
	return subtle.ConstantTimeCompare([]byte(supplied), []byte(expected)) == 1
}
