package production

import (
	"encoding/json"
	"time"

	"github.com/Seba-07/bysimmed-production-console/internal/erp"
	"github.com/Seba-07/bysimmed-production-console/internal/timer"
)

const (
	EventTimerStarted   = "TimerStarted"
	EventTimerPaused    = "TimerPaused"
	EventTimerReset     = "TimerReset"
	EventTimerCompleted = "TimerCompleted"
	EventOrderStatus    = "OrderStatusPushed"
)

const (
	TopicTimerTransitions = "production.timer.transition"
	TopicOrderStatus      = "production.order.status"
)

// Partition key = order_id, so every event of one order keeps its order.
func PartitionKey(orderID string) []byte { return []byte(orderID) }

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	CorrelationID string          `json:"correlation_id,omitempty"` // order_id
	Payload       json.RawMessage `json:"payload"`
}

type TimerTransitionPayload struct {
	OrderID        string       `json:"order_id"`
	ProductID      string       `json:"product_id"`
	ComponentID    string       `json:"component_id,omitempty"`
	Status         timer.Status `json:"status"`
	ElapsedSeconds int64        `json:"elapsed_seconds"`
}

// OrderStatusPayload records a status push attempt against the ERP API.
// Pushed=false means local and remote state have diverged.
type OrderStatusPayload struct {
	OrderID string     `json:"order_id"`
	Estado  erp.Status `json:"estado"`
	Pushed  bool       `json:"pushed"`
	Error   string     `json:"error,omitempty"`
}
