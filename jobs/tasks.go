package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskRBACFallbackDrift compares stored roles with the fallback table.
	TaskRBACFallbackDrift = "rbac:fallback_drift"
)

// FallbackDriftPayload narrows an audit to one role. An empty Role audits
// every stored role.
type FallbackDriftPayload struct {
	Role string `json:"role,omitempty"`
}

// NewFallbackDriftTask constructs an Asynq task.
func NewFallbackDriftTask(role string) (*asynq.Task, error) {
	data, err := json.Marshal(FallbackDriftPayload{Role: role})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskRBACFallbackDrift, data, asynq.Queue(QueueDefault)), nil
}
