// Package worker exports generated instances to the configured sheet,
// driven by AMQP sync messages with a pending-scan fallback.
package worker

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/akinalpfdn/ExpenseTracker-sub000/internal/amqp"
	"github.com/akinalpfdn/ExpenseTracker-sub000/internal/core"
	"github.com/akinalpfdn/ExpenseTracker-sub000/internal/sheets"
)

// ExportStore is the slice of the repository the worker needs.
type ExportStore interface {
	GetInstance(ctx context.Context, id string) (core.ExpenseInstance, error)
	GetPendingExportInstances(ctx context.Context, limit int) ([]core.ExpenseInstance, error)
	MarkInstanceSynced(ctx context.Context, id string) error
	MarkInstanceSyncError(ctx context.Context, id string) error
}

// ExportWorker writes instances to the sheet and records the outcome in
// storage.
type ExportWorker struct {
	storage   ExportStore
	writer    sheets.InstanceWriter
	batchSize int
}

func NewExportWorker(storage ExportStore, writer sheets.InstanceWriter, batchSize int) *ExportWorker {
	return &ExportWorker{
		storage:   storage,
		writer:    writer,
		batchSize: batchSize,
	}
}

// HandleSyncMessage processes a single instance sync message from AMQP.
func (w *ExportWorker) HandleSyncMessage(ctx context.Context, msg *amqp.InstanceSyncMessage) error {
	slog.InfoContext(ctx, "Processing sync message",
		"instance_id", msg.InstanceID,
		"origin_id", msg.OriginID)

	inst, err := w.storage.GetInstance(ctx, msg.InstanceID)
	if err != nil {
		return fmt.Errorf("get instance from storage: %w", err)
	}

	return w.exportInstance(ctx, inst)
}

// ProcessPendingInstances exports instances that have not been synced yet.
// This is a backup mechanism in case AMQP messages are lost.
func (w *ExportWorker) ProcessPendingInstances(ctx context.Context) error {
	pending, err := w.storage.GetPendingExportInstances(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("get pending instances: %w", err)
	}

	if len(pending) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Processing pending instances", "count", len(pending))

	for _, inst := range pending {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := w.exportInstance(ctx, inst); err != nil {
			slog.ErrorContext(ctx, "Failed to export instance",
				"instance_id", inst.ID, "error", err)
		}
	}

	return nil
}

// StartupSyncCheck exports any backlog left over from worker downtime,
// using a larger batch than the periodic scan.
func (w *ExportWorker) StartupSyncCheck(ctx context.Context) error {
	pending, err := w.storage.GetPendingExportInstances(ctx, w.batchSize*5)
	if err != nil {
		return fmt.Errorf("get pending instances for startup check: %w", err)
	}

	if len(pending) == 0 {
		slog.InfoContext(ctx, "No pending instances found on startup")
		return nil
	}

	slog.InfoContext(ctx, "Found pending instances on startup, processing...",
		"count", len(pending))

	synced := 0
	failed := 0

	for _, inst := range pending {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := w.exportInstance(ctx, inst); err != nil {
			slog.ErrorContext(ctx, "Failed to export instance during startup",
				"instance_id", inst.ID, "error", err)
			failed++
			continue
		}
		synced++
	}

	slog.InfoContext(ctx, "Startup sync completed",
		"total", len(pending),
		"synced", synced,
		"errors", failed)

	return nil
}

func (w *ExportWorker) exportInstance(ctx context.Context, inst core.ExpenseInstance) error {
	ref, err := w.writer.AppendInstance(ctx, inst)
	if err != nil {
		if markErr := w.storage.MarkInstanceSyncError(ctx, inst.ID); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark sync error",
				"instance_id", inst.ID, "error", markErr)
		}
		return fmt.Errorf("append to sheets: %w", err)
	}

	if err := w.storage.MarkInstanceSynced(ctx, inst.ID); err != nil {
		// The export itself worked; the pending scan will retry the mark.
		slog.ErrorContext(ctx, "Failed to mark as synced",
			"instance_id", inst.ID, "error", err)
	}

	slog.InfoContext(ctx, "Exported instance",
		"instance_id", inst.ID,
		"sheets_ref", ref,
		"description", inst.Description,
		"amount_cents", inst.Amount.Cents)

	return nil
}
