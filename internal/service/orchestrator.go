package service

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"papertrade/internal/models"
	"papertrade/internal/repository"
)

// Event names delivered to the notification sink.
const (
	EventMarketAdded    = "market_added"
	EventMarketResolved = "market_resolved"
	EventPayoutLogs     = "payout_logs"
)

// EventSink receives change notifications fire-and-forget. Implementations
// must log delivery failures themselves and never propagate them.
type EventSink interface {
	Emit(ctx context.Context, event string, data any)
}

// SyncAndSettleResult is the outcome of one pipeline run. Skipped is set when
// a run was coalesced because another one was still in flight.
type SyncAndSettleResult struct {
	Report     SyncReport         `json:"report"`
	PayoutLogs []models.PayoutLog `json:"payout_logs"`
	Skipped    bool               `json:"skipped"`
}

// Orchestrator runs synchronization then settlement as one unit of work: a
// single transaction, committed only when both engines succeed. It is the
// only place the pipeline commits or rolls back.
type Orchestrator struct {
	Store      repository.Repository
	Sync       *MarketSyncService
	Resolution *ResolutionService
	Sink       EventSink
	Logger     *zap.Logger

	mu sync.Mutex
}

// RunSyncAndSettle executes one pipeline run. Overlapping triggers are
// coalesced: if a run is already in flight the call returns immediately with
// Skipped set.
func (o *Orchestrator) RunSyncAndSettle(ctx context.Context) (SyncAndSettleResult, error) {
	if !o.mu.TryLock() {
		o.logInfo("sync run already in flight, trigger coalesced")
		return SyncAndSettleResult{Skipped: true}, nil
	}
	defer o.mu.Unlock()

	var result SyncAndSettleResult
	err := o.Store.InTx(ctx, func(tx repository.Repository) error {
		report, err := o.Sync.Sync(ctx, tx)
		if err != nil {
			return err
		}
		result.Report = report

		if len(report.ClosedWithWinners) > 0 {
			logs, err := o.Resolution.Resolve(ctx, tx, report.ClosedWithWinners)
			if err != nil {
				return err
			}
			result.PayoutLogs = logs
		}
		return nil
	})
	if err != nil {
		o.logFailure(err)
		return SyncAndSettleResult{}, err
	}

	o.notify(ctx, result)
	return result, nil
}

// notify forwards the run's outcome to the sink. Delivery happens after
// commit and can never fail the transaction.
func (o *Orchestrator) notify(ctx context.Context, result SyncAndSettleResult) {
	if o.Sink == nil {
		return
	}
	o.Sink.Emit(ctx, EventMarketAdded, map[string]any{"markets": result.Report.AddedMarkets})
	o.Sink.Emit(ctx, EventMarketResolved, map[string]any{"markets": result.Report.ClosedWithWinners})
	o.Sink.Emit(ctx, EventPayoutLogs, map[string]any{"payout_logs": result.PayoutLogs})
}

func (o *Orchestrator) logFailure(err error) {
	if o.Logger == nil {
		return
	}
	var syncErr *SyncError
	var resErr *ResolutionError
	switch {
	case errors.As(err, &syncErr):
		o.Logger.Error("market sync failed, run rolled back",
			zap.String("stage", syncErr.Stage), zap.Error(syncErr.Err))
	case errors.As(err, &resErr):
		o.Logger.Error("resolution failed, run rolled back",
			zap.String("stage", resErr.Stage), zap.Error(resErr.Err))
	default:
		o.Logger.Error("sync and settle failed, run rolled back", zap.Error(err))
	}
}

func (o *Orchestrator) logInfo(msg string) {
	if o.Logger != nil {
		o.Logger.Info(msg)
	}
}
