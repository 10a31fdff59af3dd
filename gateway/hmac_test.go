package gateway

import (
	"checkout/entity"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"testing"
)

func referenceHMAC(message, key string) string {
	mac := hmac.New(sha256.New, []byte(key))
	mac.Write([]byte(message))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestSigningString(t *testing.T) {
	fields := entity.NewFieldSet(
		entity.Field{Name: "pp_TxnRefNo", Value: "T1"},
		entity.Field{Name: "pp_Amount", Value: "11000"},
		entity.Field{Name: "pp_BillReference", Value: "   "},
		entity.Field{Name: "pp_SecureHash", Value: "ignored"},
		entity.Field{Name: "ppmpf_1", Value: "custom"},
		entity.Field{Name: "other", Value: "x"},
		entity.Field{Name: "pp_Language", Value: "EN"},
	)

	hosted := HMACSigner{Prefix: "pp_", TagField: "pp_SecureHash"}
	if got, want := hosted.SigningString(fields, "salt"), "salt&11000&EN&T1"; got != want {
		t.Errorf("hosted signing string = %q, want %q", got, want)
	}

	// "pp_" < "ppm" in byte order, so ppmpf_* sorts last
	rest := HMACSigner{Prefix: "pp", TagField: "pp_SecureHash"}
	if got, want := rest.SigningString(fields, "salt"), "salt&11000&EN&T1&custom"; got != want {
		t.Errorf("rest signing string = %q, want %q", got, want)
	}
}

func TestSigningStringByteOrder(t *testing.T) {
	// uppercase letters sort before lowercase in byte order
	fields := entity.NewFieldSet(
		entity.Field{Name: "pp_a", Value: "lower"},
		entity.Field{Name: "pp_B", Value: "upper"},
	)
	signer := HMACSigner{Prefix: "pp_", TagField: "pp_SecureHash"}
	if got := signer.SigningString(fields, "k"); got != "k&upper&lower" {
		t.Errorf("signing string = %q", got)
	}
}

func TestHMACSign(t *testing.T) {
	fields := entity.NewFieldSet(
		entity.Field{Name: "pp_Amount", Value: "11000"},
		entity.Field{Name: "pp_TxnRefNo", Value: "abc-123"},
	)
	want := referenceHMAC(testSalt+"&11000&abc-123", testSalt)

	lower := HMACSigner{Prefix: "pp_", TagField: "pp_SecureHash", Case: HashLower}
	got, err := lower.Sign(fields, testSalt)
	if err != nil {
		t.Fatal(err)
	}
	if got != want {
		t.Errorf("tag = %s, want %s", got, want)
	}

	upper := HMACSigner{Prefix: "pp_", TagField: "pp_SecureHash", Case: HashUpper}
	got, err = upper.Sign(fields, testSalt)
	if err != nil {
		t.Fatal(err)
	}
	if got != strings.ToUpper(want) {
		t.Errorf("upper tag = %s", got)
	}
	if len(got) != 64 {
		t.Errorf("tag length = %d", len(got))
	}
}

func TestHMACSignMissingSecret(t *testing.T) {
	signer := HMACSigner{Prefix: "pp_", TagField: "pp_SecureHash"}
	_, err := signer.Sign(entity.NewFieldSet(entity.Field{Name: "pp_Amount", Value: "1"}), "")
	if !errors.Is(err, ErrMissingSecret) {
		t.Fatalf("err = %v, want ErrMissingSecret", err)
	}
}

func TestParseHashCase(t *testing.T) {
	for in, want := range map[string]HashCase{"": HashLower, "lower": HashLower, " UPPER ": HashUpper} {
		got, err := ParseHashCase(in)
		if err != nil || got != want {
			t.Errorf("ParseHashCase(%q) = %s, %v", in, got, err)
		}
	}
	if _, err := ParseHashCase("camel"); !errors.Is(err, ErrMissingConfiguration) {
		t.Errorf("err = %v", err)
	}
}
