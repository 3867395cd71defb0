package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"

	"github.com/panchi64/attendance-tracker/internal/domain"
	"github.com/panchi64/attendance-tracker/internal/repository"
	"github.com/panchi64/attendance-tracker/internal/tasks"
)

// DeviceClaimPurgeHandler deletes device submission claims older than the
// retention window. Claims are only consulted for the current day, so the
// purge can never affect a dedup decision.
type DeviceClaimPurgeHandler struct {
	deviceRepo repository.DeviceSubmissionRepository
	log        *logrus.Entry
}

func NewDeviceClaimPurgeHandler(deviceRepo repository.DeviceSubmissionRepository) *DeviceClaimPurgeHandler {
	if deviceRepo == nil {
		panic("DeviceSubmissionRepository cannot be nil for DeviceClaimPurgeHandler")
	}
	return &DeviceClaimPurgeHandler{
		deviceRepo: deviceRepo,
		log:        logrus.WithField("component", "device_claim_purge"),
	}
}

// ProcessTask implements asynq.Handler for tasks.TypeDeviceClaimPurge.
func (h *DeviceClaimPurgeHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload tasks.DeviceClaimPurgePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		// A malformed payload will never succeed on retry.
		return fmt.Errorf("unmarshal purge payload: %w: %v", asynq.SkipRetry, err)
	}

	retention := payload.RetentionDays
	if retention < 1 {
		retention = 1
	}

	cutoff := domain.Day(time.Now().UTC().AddDate(0, 0, -retention))

	deleted, err := h.deviceRepo.PurgeBefore(ctx, cutoff)
	if err != nil {
		h.log.WithError(err).WithField("cutoff", cutoff).Error("Device claim purge failed")
		return fmt.Errorf("purge device claims before %s: %w", cutoff, err)
	}

	h.log.WithFields(logrus.Fields{
		"cutoff":  cutoff,
		"deleted": deleted,
	}).Info("Purged stale device claims")
	return nil
}
