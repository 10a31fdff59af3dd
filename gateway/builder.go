package gateway

import (
	"checkout/entity"
	"fmt"
	"net/mail"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

// TimestampLayout is YYYYMMDDHHMMSS.
const TimestampLayout = "20060102150405"

const (
	maxBillReferenceLength = 20
	maxDescriptionLength   = 255
)

var (
	mobilePattern = regexp.MustCompile(`^03\d{9}$`)
	cnicPattern   = regexp.MustCompile(`^\d{6}$`)
)

// FormatTimestamp renders t in its own location; no timezone conversion is applied.
func FormatTimestamp(t time.Time) string {
	return t.Format(TimestampLayout)
}

// CheckReference validates a merchant reference against the gateway maximum.
func CheckReference(reference string, max int) error {
	if strings.TrimSpace(reference) == "" {
		return fmt.Errorf("%w: reference", ErrMissingField)
	}
	if utf8.RuneCountInString(reference) > max {
		return fmt.Errorf("%w: reference exceeds %d characters", ErrFieldTooLong, max)
	}
	return nil
}

func ValidateMobileNumber(mobile string) error {
	if !mobilePattern.MatchString(mobile) {
		return fmt.Errorf("%w: mobile number must look like 03XXXXXXXXX", ErrInvalidField)
	}
	return nil
}

func checkLength(name, value string, max int) error {
	if utf8.RuneCountInString(value) > max {
		return fmt.Errorf("%w: %s exceeds %d characters", ErrFieldTooLong, name, max)
	}
	return nil
}

// Build assembles the canonical field set of req for profile p at time now.
// Every field of p.Order is present; unset values are empty strings.
func Build(req entity.TransactionRequest, p *Profile, now time.Time) (*entity.FieldSet, error) {
	if err := CheckReference(req.Reference, p.MaxReferenceLength); err != nil {
		return nil, err
	}
	amount, err := FormatAmount(req.Amount, p.AmountFormat)
	if err != nil {
		return nil, err
	}

	var values map[string]string
	switch p.Family {
	case FamilyHMAC:
		values, err = jazzCashValues(req, p, amount, now)
	case FamilyCipher:
		values, err = easypaisaValues(req, p, amount)
	case FamilyAccount:
		values, err = accountValues(req, amount)
	default:
		err = fmt.Errorf("%w: gateway %s has no field rules", ErrMissingConfiguration, p.Name)
	}
	if err != nil {
		return nil, err
	}

	fields := make([]entity.Field, 0, len(p.Order))
	for _, name := range p.Order {
		value, ok := values[name]
		if !ok {
			value = p.Static[name]
		}
		fields = append(fields, entity.Field{Name: name, Value: value})
	}
	return entity.NewFieldSet(fields...), nil
}

func jazzCashValues(req entity.TransactionRequest, p *Profile, amount string, now time.Time) (map[string]string, error) {
	values := map[string]string{
		"pp_TxnRefNo":    req.Reference,
		"pp_Amount":      amount,
		"pp_TxnDateTime": FormatTimestamp(now),
	}
	if p.Expiry > 0 {
		values["pp_TxnExpiryDateTime"] = FormatTimestamp(now.Add(p.Expiry))
	}

	billReference := req.BillReference
	if billReference == "" {
		billReference = req.Reference
	}
	if err := checkLength("bill reference", billReference, maxBillReferenceLength); err != nil {
		return nil, err
	}
	values["pp_BillReference"] = billReference

	if req.Description != "" {
		if err := checkLength("description", req.Description, maxDescriptionLength); err != nil {
			return nil, err
		}
		values["pp_Description"] = req.Description
	}

	if p.RequirePayer {
		if err := ValidateMobileNumber(req.MobileNumber); err != nil {
			return nil, err
		}
		if !cnicPattern.MatchString(req.CNICLast6) {
			return nil, fmt.Errorf("%w: last 6 digits of CNIC required", ErrInvalidField)
		}
		values["pp_MobileNumber"] = req.MobileNumber
		values["pp_CNIC"] = req.CNICLast6
	}
	return values, nil
}

func easypaisaValues(req entity.TransactionRequest, p *Profile, amount string) (map[string]string, error) {
	autoRedirect := "1"
	switch req.Redirect {
	case entity.RedirectAuto, "":
	case entity.RedirectManual:
		autoRedirect = "0"
	default:
		return nil, fmt.Errorf("%w: redirect must be auto or manual", ErrInvalidField)
	}
	if err := checkLength("email", req.Email, maxDescriptionLength); err != nil {
		return nil, err
	}

	values := map[string]string{
		"amount":       amount,
		"autoRedirect": autoRedirect,
		"emailAddr":    req.Email,
		"mobileNum":    req.MobileNumber,
		"orderRefNum":  req.Reference,
	}
	if req.PaymentMethod != "" {
		if !easypaisaPaymentMethods[req.PaymentMethod] {
			return nil, fmt.Errorf("%w: payment method %q", ErrInvalidField, req.PaymentMethod)
		}
		values["paymentMethod"] = req.PaymentMethod
	}
	return values, nil
}

func accountValues(req entity.TransactionRequest, amount string) (map[string]string, error) {
	if err := ValidateMobileNumber(req.MobileNumber); err != nil {
		return nil, err
	}
	if _, err := mail.ParseAddress(req.Email); err != nil || len(req.Email) > maxDescriptionLength {
		return nil, fmt.Errorf("%w: valid email required", ErrInvalidField)
	}
	return map[string]string{
		"emailAddress":      req.Email,
		"mobileAccountNo":   req.MobileNumber,
		"orderId":           req.Reference,
		"transactionAmount": amount,
	}, nil
}
