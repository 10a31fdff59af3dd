package services

import (
	"checkout/entity"
	"checkout/gateway"
	"context"
)

// Checkout is consumed by the HTTP handlers and the CLI.
type Checkout interface {
	Init(ctx context.Context, gatewayName string, req entity.TransactionRequest) (*entity.SignedPayload, error)
	Return(ctx context.Context, gatewayName string, inbound *entity.FieldSet) (*gateway.Outcome, error)
	InitiateWallet(ctx context.Context, req entity.TransactionRequest) (*entity.InitiateResult, error)
	InitiateMobileAccount(ctx context.Context, req entity.TransactionRequest) (*entity.InitiateResult, error)
}
