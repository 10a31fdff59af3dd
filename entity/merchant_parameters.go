package entity

import "encoding/json"

// MobileAccountRequest is the Easypaisa MA (mobile account) initiate body.
type MobileAccountRequest struct {
	EmailAddress    string `json:"emailAddress"`
	MobileAccountNo string `json:"mobileAccountNo"`
	// OrderID is the merchant reference, max 20 characters
	OrderID string `json:"orderId"`
	StoreID string `json:"storeId"`
	// TransactionAmount is sent as a JSON number with one decimal (e.g. 10.0)
	TransactionAmount json.Number `json:"transactionAmount"`
	// TransactionType: "MA" = Mobile Account
	TransactionType string `json:"transactionType"`
}

// MobileAccountResponse is the subset of the Easypaisa MA response the service inspects.
type MobileAccountResponse struct {
	ResponseCode        string `json:"responseCode"`
	ResponseDesc        string `json:"responseDesc"`
	TransactionID       string `json:"transactionId"`
	OrderID             string `json:"orderId"`
	TransactionDateTime string `json:"transactionDateTime"`
}

// InitiateResult is returned by the server-to-server initiate operations.
type InitiateResult struct {
	OK        bool            `json:"ok"`
	Authentic bool            `json:"authentic"`
	Request   InitiateEcho    `json:"request"`
	Response  json.RawMessage `json:"response"`
}

// InitiateEcho repeats the values the service sent upstream.
type InitiateEcho struct {
	Reference string `json:"reference"`
	Amount    string `json:"amount"`
	Mobile    string `json:"mobile_number,omitempty"`
}
