package tasks

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

// Task type names routed through asynq.
const (
	TypeDeviceClaimPurge = "device_claims:purge"
)

// DeviceClaimPurgePayload carries the retention window for a purge run.
// Claims older than RetentionDays whole days are deleted.
type DeviceClaimPurgePayload struct {
	RetentionDays int `json:"retention_days"`
}

// NewDeviceClaimPurgeTask builds the periodic task that clears out stale
// per-device submission claims. Claims only guard the current day, so
// anything older is dead weight in the database.
func NewDeviceClaimPurgeTask(retentionDays int) (*asynq.Task, error) {
	payload, err := json.Marshal(DeviceClaimPurgePayload{RetentionDays: retentionDays})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeDeviceClaimPurge, payload), nil
}
