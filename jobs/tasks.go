package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskLogisticsReconcile sweeps oil receipts and driver jobs for drift.
	TaskLogisticsReconcile = "logistics:reconcile"
)

// ReconcilePayload scopes a reconciliation sweep. A nil BranchID covers every
// branch.
type ReconcilePayload struct {
	BranchID *int64 `json:"branchId,omitempty"`
}

// NewReconcileTask constructs an Asynq task.
func NewReconcileTask(payload ReconcilePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskLogisticsReconcile, data), nil
}
