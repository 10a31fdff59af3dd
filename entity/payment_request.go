package entity

// SignedPayload is a signed field set ready for the redirect form; the browser
// posts every field to Endpoint.
type SignedPayload struct {
	Endpoint string    `json:"endpoint"`
	Fields   *FieldSet `json:"fields"`
}
