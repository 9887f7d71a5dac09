package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ExportRequestMessage asks a worker to run one export.
type ExportRequestMessage struct {
	ID          string    `json:"id"`
	StartDate   string    `json:"startDate"`
	EndDate     string    `json:"endDate"`
	Format      string    `json:"format"`
	Currency    string    `json:"currency,omitempty"`
	RequestedAt time.Time `json:"requestedAt"`
}

func NewExportRequestMessage(start, end, format, currency string) *ExportRequestMessage {
	return &ExportRequestMessage{
		ID:          uuid.NewString(),
		StartDate:   start,
		EndDate:     end,
		Format:      format,
		Currency:    currency,
		RequestedAt: time.Now().UTC(),
	}
}

func (m *ExportRequestMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ExportRequestMessageFromJSON decodes a request. Only structural problems are
// reported here; date and format values are checked by the consumer.
func ExportRequestMessageFromJSON(data []byte) (*ExportRequestMessage, error) {
	var msg ExportRequestMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.StartDate == "" || msg.EndDate == "" || msg.Format == "" {
		return nil, fmt.Errorf("export request %q: startDate, endDate and format are required", msg.ID)
	}
	return &msg, nil
}

// ExportCompletedMessage announces the outcome of an export.
type ExportCompletedMessage struct {
	ID          string    `json:"id"`
	Format      string    `json:"format"`
	State       string    `json:"state"`
	Location    string    `json:"location,omitempty"`
	RecordCount int       `json:"recordCount"`
	Error       string    `json:"error,omitempty"`
	FinishedAt  time.Time `json:"finishedAt"`
}

func (m *ExportCompletedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ExportCompletedMessageFromJSON(data []byte) (*ExportCompletedMessage, error) {
	var msg ExportCompletedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
