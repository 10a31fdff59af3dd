package services

import (
	"checkout/entity"
	"context"
)

// Database stores the append-only payment log and callback journal.
// Transaction state is owned by the surrounding application.
type Database interface {
	WriteLogMessage(ctx context.Context, data Data) error
	SaveCallback(ctx context.Context, record *entity.CallbackRecord) error
}

type Data interface {
	DataType() string
}
