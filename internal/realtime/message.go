package realtime

import (
	"github.com/google/uuid"
)

type SSEEvent string

const (
	SSEEventTelemetryRecorded SSEEvent = "TelemetryRecorded"
	SSEEventVisitUpdated      SSEEvent = "VisitUpdated"
	SSEEventVisitClosed       SSEEvent = "VisitClosed"
)

// AdminTelemetryChannel carries every recorded learning event to admin dashboards.
const AdminTelemetryChannel = "admin:telemetry"

func UserChannel(userID uuid.UUID) string { return "user:" + userID.String() }

type SSEMessage struct {
	Channel string   `json:"channel"`
	Event   SSEEvent `json:"event"`
	Data    any      `json:"data,omitempty"`
}
