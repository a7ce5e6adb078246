package workflows

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"
)

// MediaCleanupInput identifies a media object left behind by a failed inline delete.
type MediaCleanupInput struct {
	ItemID string `json:"item_id"`
	URL    string `json:"url"`
	Reason string `json:"reason"`
}

// MediaDeleter is the part of media.Store the cleanup activity needs.
type MediaDeleter interface {
	Delete(ctx context.Context, url string) error
}

// MediaActivities holds the dependencies of the cleanup activities.
type MediaActivities struct {
	Media MediaDeleter
}

// DeleteMedia removes the object behind url. Deleting an object that is
// already gone succeeds, so retries are safe.
func (a *MediaActivities) DeleteMedia(ctx context.Context, url string) error {
	activity.GetLogger(ctx).Info("deleting orphaned media", "url", url)
	if err := a.Media.Delete(ctx, url); err != nil {
		return fmt.Errorf("delete media %s: %w", url, err)
	}
	return nil
}

// mediaCleanupRetry backs off from 5 s to 10 min between attempts.
var mediaCleanupRetry = &temporal.RetryPolicy{
	InitialInterval:    5 * time.Second,
	BackoffCoefficient: 2.0,
	MaximumInterval:    10 * time.Minute,
}

// MediaCleanupWorkflow retries DeleteMedia until the media host accepts it.
func MediaCleanupWorkflow(ctx workflow.Context, in MediaCleanupInput) error {
	ctx = workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout:    30 * time.Second,
		ScheduleToCloseTimeout: 24 * time.Hour,
		RetryPolicy:            mediaCleanupRetry,
	})

	var a *MediaActivities
	if err := workflow.ExecuteActivity(ctx, a.DeleteMedia, in.URL).Get(ctx, nil); err != nil {
		workflow.GetLogger(ctx).Error("media cleanup gave up", "item_id", in.ItemID, "url", in.URL, "error", err)
		return err
	}
	return nil
}

// MediaCleanupWorkflowID derives a stable workflow id from the URL, so
// repeated reports for the same object collapse into one running workflow.
func MediaCleanupWorkflowID(url string) string {
	sum := sha256.Sum256([]byte(url))
	return "media-cleanup-" + hex.EncodeToString(sum[:12])
}

// StartMediaCleanup starts MediaCleanupWorkflow on the client's task queue.
// If a workflow for the same URL is already running, its handle is reused.
func (tc *TemporalClient) StartMediaCleanup(ctx context.Context, in MediaCleanupInput) error {
	run, err := tc.Client.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
		ID:        MediaCleanupWorkflowID(in.URL),
		TaskQueue: tc.TaskQueue,
	}, MediaCleanupWorkflow, in)
	if err != nil {
		return fmt.Errorf("start media cleanup for %s: %w", in.URL, err)
	}
	tc.log.InfoContext(ctx, "media cleanup scheduled",
		"workflow_id", run.GetID(), "run_id", run.GetRunID(), "url", in.URL)
	return nil
}

// NewMediaWorker returns a worker on the client's task queue with the media
// cleanup workflow and activities registered. The caller starts and stops it.
func (tc *TemporalClient) NewMediaWorker(acts *MediaActivities) worker.Worker {
	w := worker.New(tc.Client, tc.TaskQueue, worker.Options{})
	w.RegisterWorkflow(MediaCleanupWorkflow)
	w.RegisterActivity(acts)
	return w
}
