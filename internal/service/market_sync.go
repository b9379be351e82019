package service

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"papertrade/internal/client/clob"
	"papertrade/internal/models"
	"papertrade/internal/repository"
)

// SyncError tags a failed sync run with the sub-step that failed, so the
// orchestrator can log precisely and roll back the whole run.
type SyncError struct {
	Stage string
	Err   error
}

func (e *SyncError) Error() string {
	return fmt.Sprintf("market sync failed at %s: %v", e.Stage, e.Err)
}

func (e *SyncError) Unwrap() error {
	return e.Err
}

func syncErr(stage string, err error) error {
	return &SyncError{Stage: stage, Err: err}
}

// ClosedMarket is the hand-off contract from synchronization to settlement:
// a market that just left the feed together with its winning tokens.
type ClosedMarket struct {
	ConditionID     string   `json:"condition_id"`
	WinningTokenIDs []string `json:"winning_token_ids"`
}

// SyncReport summarizes one sync run. AddedMarkets carries the full feed
// payload of newly tracked markets for the notification sink.
type SyncReport struct {
	AddedTracked      []string       `json:"added_tracked"`
	RemovedTracked    []string       `json:"removed_tracked"`
	AddedStable       []string       `json:"added_stable"`
	OutcomesInserted  []string       `json:"outcomes_inserted"`
	MarkedUntradable  []string       `json:"marked_untradable"`
	ClosedWithWinners []ClosedMarket `json:"closed_with_winners"`
	AddedMarkets      []clob.Market  `json:"-"`
}

// MarketSyncService reconciles the ledger's tracked-market set against the
// feed. The diff is deliberately a full-set difference rather than an
// incremental delta: a missed cycle heals itself on the next run.
type MarketSyncService struct {
	Feed   MarketFeed
	Logger *zap.Logger
}

// Sync stages one reconciliation run against store. It never commits; the
// caller owns the enclosing transaction.
func (s *MarketSyncService) Sync(ctx context.Context, store repository.Repository) (SyncReport, error) {
	report := SyncReport{}

	feedMarkets, err := s.Feed.ListTradableMarkets(ctx)
	if err != nil {
		return report, syncErr("fetch_clob_markets", err)
	}
	feedByID := make(map[string]clob.Market, len(feedMarkets))
	for _, m := range feedMarkets {
		if m.ConditionID == "" {
			s.logWarn("feed market missing condition_id, skipped", zap.String("question", m.Question))
			continue
		}
		feedByID[m.ConditionID] = m
	}

	tracked, err := store.ListSyncHotMarkets(ctx)
	if err != nil {
		return report, syncErr("load_hot_markets", err)
	}
	trackedIDs := make(map[string]struct{}, len(tracked))
	for _, m := range tracked {
		trackedIDs[m.ConditionID] = struct{}{}
	}

	stable, err := store.ListMarkets(ctx)
	if err != nil {
		return report, syncErr("load_stable_markets", err)
	}
	stableIDs := make(map[string]struct{}, len(stable))
	for _, m := range stable {
		stableIDs[m.ConditionID] = struct{}{}
	}

	var toAdd []clob.Market
	seen := make(map[string]struct{}, len(feedMarkets))
	for _, m := range feedMarkets {
		if m.ConditionID == "" {
			continue
		}
		if _, dup := seen[m.ConditionID]; dup {
			continue
		}
		seen[m.ConditionID] = struct{}{}
		if _, ok := trackedIDs[m.ConditionID]; !ok {
			toAdd = append(toAdd, m)
		}
	}
	var toRemove []string
	for _, m := range tracked {
		if _, ok := feedByID[m.ConditionID]; !ok {
			toRemove = append(toRemove, m.ConditionID)
		}
	}

	if err := s.addTracked(ctx, store, toAdd, &report); err != nil {
		return report, err
	}
	if err := s.removeTracked(ctx, store, toRemove, &report); err != nil {
		return report, err
	}
	if err := s.addStable(ctx, store, stableIDs, &report); err != nil {
		return report, err
	}
	if err := s.addOutcomes(ctx, store, &report); err != nil {
		return report, err
	}

	marked, err := store.MarkMarketsUntradable(ctx, toRemove)
	if err != nil {
		return report, syncErr("mark_markets_untradable", err)
	}
	report.MarkedUntradable = marked

	if err := s.markWinners(ctx, store, marked, &report); err != nil {
		return report, err
	}

	return report, nil
}

// addTracked inserts a tracking row plus an ADDED audit row per new market.
// Inserts are conflict-safe; only rows actually inserted drive the
// downstream steps.
func (s *MarketSyncService) addTracked(ctx context.Context, store repository.Repository, toAdd []clob.Market, report *SyncReport) error {
	for _, m := range toAdd {
		tokensJSON, err := json.Marshal(m.Tokens)
		if err != nil {
			return syncErr("add_hot_markets", err)
		}
		inserted, err := store.CreateSyncHotMarket(ctx, &models.SyncHotMarket{
			ConditionID: m.ConditionID,
			Question:    m.Question,
			Description: m.Description,
			Tokens:      tokensJSON,
		})
		if err != nil {
			return syncErr("add_hot_markets", err)
		}
		if !inserted {
			continue
		}
		if err := store.InsertMarketChangeLog(ctx, &models.MarketChangeLog{
			ConditionID: m.ConditionID,
			ChangeType:  models.MarketChangeAdded,
		}); err != nil {
			return syncErr("add_hot_markets", err)
		}
		report.AddedTracked = append(report.AddedTracked, m.ConditionID)
		report.AddedMarkets = append(report.AddedMarkets, m)
	}
	return nil
}

// removeTracked deletes tracking rows plus a DELETED audit row per market
// that left the feed.
func (s *MarketSyncService) removeTracked(ctx context.Context, store repository.Repository, toRemove []string, report *SyncReport) error {
	for _, id := range toRemove {
		if err := store.DeleteSyncHotMarket(ctx, id); err != nil {
			return syncErr("remove_hot_markets", err)
		}
		if err := store.InsertMarketChangeLog(ctx, &models.MarketChangeLog{
			ConditionID: id,
			ChangeType:  models.MarketChangeDeleted,
		}); err != nil {
			return syncErr("remove_hot_markets", err)
		}
		report.RemovedTracked = append(report.RemovedTracked, id)
	}
	return nil
}

// addStable inserts a permanent Market row for every newly tracked market
// that has none. Stable rows are never deleted, only flagged untradable.
func (s *MarketSyncService) addStable(ctx context.Context, store repository.Repository, stableIDs map[string]struct{}, report *SyncReport) error {
	for _, id := range report.AddedTracked {
		if _, ok := stableIDs[id]; ok {
			continue
		}
		inserted, err := store.CreateMarket(ctx, &models.Market{ConditionID: id, IsTradable: true})
		if err != nil {
			return syncErr("add_stable_markets", err)
		}
		if inserted {
			report.AddedStable = append(report.AddedStable, id)
		}
	}
	return nil
}

// addOutcomes inserts MarketOutcome rows for each newly stabilized market.
// Blank token IDs are a data error: skipped and logged, never fatal.
func (s *MarketSyncService) addOutcomes(ctx context.Context, store repository.Repository, report *SyncReport) error {
	newStable := make(map[string]struct{}, len(report.AddedStable))
	for _, id := range report.AddedStable {
		newStable[id] = struct{}{}
	}
	for _, m := range report.AddedMarkets {
		if _, ok := newStable[m.ConditionID]; !ok {
			continue
		}
		for _, tok := range m.Tokens {
			if tok.TokenID == "" {
				s.logWarn("feed token missing token_id, outcome skipped",
					zap.String("condition_id", m.ConditionID),
					zap.String("outcome", tok.Outcome))
				continue
			}
			outcome := &models.MarketOutcome{
				Market: m.ConditionID,
				Token:  tok.TokenID,
			}
			if tok.Outcome != "" {
				text := tok.Outcome
				outcome.OutcomeText = &text
			}
			inserted, err := store.CreateMarketOutcome(ctx, outcome)
			if err != nil {
				return syncErr("add_market_outcomes", err)
			}
			if inserted {
				report.OutcomesInserted = append(report.OutcomesInserted, m.ConditionID+":"+tok.TokenID)
			}
		}
	}
	return nil
}

// markWinners asks the feed for each newly untradable market's resolution and
// flags the winning outcome rows. Markets with no reported winner yet are
// left untradable and unresolved.
func (s *MarketSyncService) markWinners(ctx context.Context, store repository.Repository, conditionIDs []string, report *SyncReport) error {
	for _, id := range conditionIDs {
		market, err := s.Feed.GetMarket(ctx, id)
		if err != nil {
			return syncErr("mark_market_outcome_winner", err)
		}
		winners := market.WinningTokenIDs()
		if len(winners) == 0 {
			s.logWarn("no winner reported for closed market", zap.String("condition_id", id))
			continue
		}
		if _, err := store.MarkOutcomeWinners(ctx, id, winners); err != nil {
			return syncErr("mark_market_outcome_winner", err)
		}
		report.ClosedWithWinners = append(report.ClosedWithWinners, ClosedMarket{
			ConditionID:     id,
			WinningTokenIDs: winners,
		})
	}
	return nil
}

func (s *MarketSyncService) logWarn(msg string, fields ...zap.Field) {
	if s.Logger != nil {
		s.Logger.Warn(msg, fields...)
	}
}
