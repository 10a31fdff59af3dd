package gateway

import "errors"

var (
	// validation errors: the caller can fix the input
	ErrInvalidAmount = errors.New("invalid amount")
	ErrFieldTooLong  = errors.New("field too long")
	ErrMissingField  = errors.New("missing field")
	ErrInvalidField  = errors.New("invalid field")

	// configuration errors: the deployment is broken
	ErrMissingSecret        = errors.New("missing secret")
	ErrInvalidKeyLength     = errors.New("invalid key length")
	ErrUnknownGateway       = errors.New("unknown gateway")
	ErrMissingConfiguration = errors.New("missing configuration")

	// upstream errors: retryable by the caller, never by the engine
	ErrUpstreamTimeout       = errors.New("upstream timeout")
	ErrUpstreamRequestFailed = errors.New("upstream request failed")

	ErrVerificationMismatch = errors.New("verification mismatch")
)

func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrFieldTooLong) ||
		errors.Is(err, ErrMissingField) ||
		errors.Is(err, ErrInvalidField)
}

func IsConfiguration(err error) bool {
	return errors.Is(err, ErrMissingSecret) ||
		errors.Is(err, ErrInvalidKeyLength) ||
		errors.Is(err, ErrUnknownGateway) ||
		errors.Is(err, ErrMissingConfiguration)
}

func IsRetryable(err error) bool {
	return errors.Is(err, ErrUpstreamTimeout) || errors.Is(err, ErrUpstreamRequestFailed)
}

// Code maps an error to a stable snake_case identifier for API responses.
func Code(err error) string {
	codes := []struct {
		err  error
		code string
	}{
		{ErrInvalidAmount, "invalid_amount"},
		{ErrFieldTooLong, "field_too_long"},
		{ErrMissingField, "missing_field"},
		{ErrInvalidField, "invalid_field"},
		{ErrMissingSecret, "missing_secret"},
		{ErrInvalidKeyLength, "invalid_key_length"},
		{ErrUnknownGateway, "unknown_gateway"},
		{ErrMissingConfiguration, "missing_configuration"},
		{ErrUpstreamTimeout, "upstream_timeout"},
		{ErrUpstreamRequestFailed, "upstream_request_failed"},
		{ErrVerificationMismatch, "verification_mismatch"},
	}
	for _, c := range codes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	return "internal_error"
}
