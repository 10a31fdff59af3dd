package entity

import "time"

// CallbackRecord is an append-only journal entry of a verified gateway callback.
// The supplied authentication tag is not stored.
type CallbackRecord struct {
	Gateway      string            `json:"gateway" bson:"gateway"`
	Reference    string            `json:"reference" bson:"reference"`
	Authentic    bool              `json:"authentic" bson:"authentic"`
	Approved     bool              `json:"approved" bson:"approved"`
	ResponseCode string            `json:"response_code" bson:"response_code"`
	Message      string            `json:"message" bson:"message"`
	Fields       map[string]string `json:"fields" bson:"fields"`
	ReceivedAt   time.Time         `json:"received_at" bson:"received_at"`
}

func (c *CallbackRecord) DataType() string {
	return "callback"
}

// LogMessage is a log line mirrored into the payment log collection.
type LogMessage struct {
	Time     time.Time `json:"time" bson:"time"`
	Level    string    `json:"level" bson:"level"`
	Category string    `json:"category" bson:"category"`
	Text     string    `json:"text" bson:"text"`
}

func (l *LogMessage) DataType() string {
	return "log"
}
