package internal

import (
	"checkout/entity"
	"checkout/gateway"
	"html/template"
	"io"
)

var redirectTemplate = template.Must(template.New("redirect").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Redirecting to payment</title></head>
<body onload="document.forms[0].submit()" style="font-family:sans-serif;padding:20px;">
<form method="POST" action="{{.Endpoint}}">
{{- range .Fields}}
<input type="hidden" name="{{.Name}}" value="{{.Value}}">
{{- end}}
<noscript><button type="submit">Continue to payment</button></noscript>
</form>
</body>
</html>
`))

var outcomeTemplate = template.Must(template.New("outcome").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>{{.Title}}</title></head>
<body style="font-family:sans-serif;padding:20px;">
{{- if not .Authentic}}
<h1>Verification Failed</h1>
<p>We could not verify the authenticity of this payment.</p>
<p>Please do not refresh or retry immediately; contact support with your reference <strong>{{.Reference}}</strong>.</p>
{{- else if .Approved}}
<h1>Payment Successful</h1>
<p>Reference: <strong>{{.Reference}}</strong></p>
{{- if .Amount}}
<p>Amount: <strong>{{.Amount}} PKR</strong></p>
{{- end}}
<p>Thank you! You can safely close this tab.</p>
{{- else}}
<h1>Payment Failed</h1>
<p>Reference: <strong>{{.Reference}}</strong></p>
<p>Response code: <strong>{{.Code}}</strong></p>
<p>Description: <strong>{{.Message}}</strong></p>
<p>Please try again or contact support.</p>
{{- end}}
</body>
</html>
`))

type outcomePage struct {
	Title     string
	Authentic bool
	Approved  bool
	Reference string
	Amount    string
	Code      string
	Message   string
}

// RenderRedirectForm writes an auto-submitting form posting the payload to its endpoint.
func RenderRedirectForm(w io.Writer, payload *entity.SignedPayload) error {
	return redirectTemplate.Execute(w, struct {
		Endpoint string
		Fields   []entity.Field
	}{
		Endpoint: payload.Endpoint,
		Fields:   payload.Fields.Fields(),
	})
}

// RenderOutcome writes the human readable result of a callback.
func RenderOutcome(w io.Writer, outcome *gateway.Outcome) error {
	page := outcomePage{
		Title:     "Payment Failed",
		Authentic: outcome.Authentic(),
		Approved:  outcome.Approved(),
		Reference: orNA(outcome.Reference()),
		Code:      orNA(outcome.ResponseCode()),
		Message:   outcome.Message(),
	}
	if page.Message == "" {
		page.Message = "Unknown error"
	}
	switch {
	case !page.Authentic:
		page.Title = "Verification Failed"
	case page.Approved:
		page.Title = "Payment Successful"
		page.Amount = displayAmount(outcome)
	}
	return outcomeTemplate.Execute(w, page)
}

func displayAmount(outcome *gateway.Outcome) string {
	raw := outcome.Raw()
	if v, ok := raw["pp_Amount"]; ok && v != "" {
		amount, err := gateway.ParseMinorUnits(v)
		if err != nil {
			return ""
		}
		return amount.StringFixed(2)
	}
	return raw["amount"]
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
