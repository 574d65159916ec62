// Package scheduler runs deferred and periodic work over asynq: scheduled
// campaign calls fire either as an exact per-campaign task or through the
// periodic due sweep that catches anything the exact task missed.
package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// TaskCampaignRun executes one scheduled campaign at its start date.
	TaskCampaignRun = "campaigns.run"

	// TaskCampaignSweep runs every due scheduled campaign. Enqueued
	// periodically as a safety net for missed or re-dated campaigns.
	TaskCampaignSweep = "campaigns.sweep"
)

type CampaignRunPayload struct {
	CampaignID     string `json:"campaignId"`
	OrganizationID string `json:"organizationId"`
}

func NewCampaignRunTask(payload CampaignRunPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskCampaignRun, data), nil
}

func ParseCampaignRunPayload(task *asynq.Task) (CampaignRunPayload, error) {
	var payload CampaignRunPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return CampaignRunPayload{}, err
	}
	return payload, nil
}

func NewCampaignSweepTask() *asynq.Task {
	return asynq.NewTask(TaskCampaignSweep, nil)
}
