package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"papertrade/internal/models"
	"papertrade/internal/repository"
)

// ResolutionError tags a failed settlement batch with the sub-step that
// failed. A failure in any market aborts the whole batch; there is no
// best-effort partial settlement across markets.
type ResolutionError struct {
	Stage string
	Err   error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("resolution failed at %s: %v", e.Stage, e.Err)
}

func (e *ResolutionError) Unwrap() error {
	return e.Err
}

func resolutionErr(stage string, err error) error {
	return &ResolutionError{Stage: stage, Err: err}
}

// ResolutionService converts every open position in a closed market into a
// payout (winning tokens, 1 USDC per share) or a zero-payout write-off, and
// deletes the position either way. Every position that existed gets exactly
// one PayoutLog row.
type ResolutionService struct {
	Logger *zap.Logger
}

// Resolve settles each closed market in list order. It never commits; the
// caller owns the enclosing transaction.
func (s *ResolutionService) Resolve(ctx context.Context, store repository.Repository, closed []ClosedMarket) ([]models.PayoutLog, error) {
	var logs []models.PayoutLog
	for _, cm := range closed {
		marketLogs, err := s.resolveMarket(ctx, store, cm)
		if err != nil {
			return logs, err
		}
		logs = append(logs, marketLogs...)
	}
	return logs, nil
}

func (s *ResolutionService) resolveMarket(ctx context.Context, store repository.Repository, cm ClosedMarket) ([]models.PayoutLog, error) {
	positions, err := store.ListPositionsByMarket(ctx, cm.ConditionID)
	if err != nil {
		return nil, resolutionErr("load_positions", err)
	}
	if len(positions) == 0 {
		return nil, nil
	}

	names := make([]string, 0, len(positions))
	seen := make(map[string]struct{}, len(positions))
	for _, pos := range positions {
		if _, ok := seen[pos.UserName]; !ok {
			seen[pos.UserName] = struct{}{}
			names = append(names, pos.UserName)
		}
	}
	users, err := store.ListUsersByNames(ctx, names)
	if err != nil {
		return nil, resolutionErr("load_users", err)
	}
	userByName := make(map[string]*models.User, len(users))
	for i := range users {
		userByName[users[i].Name] = &users[i]
	}

	winning := make(map[string]struct{}, len(cm.WinningTokenIDs))
	for _, id := range cm.WinningTokenIDs {
		winning[id] = struct{}{}
	}

	logs := make([]models.PayoutLog, 0, len(positions))
	for _, pos := range positions {
		entry, err := s.settlePosition(ctx, store, pos, userByName, winning)
		if err != nil {
			return logs, err
		}
		logs = append(logs, entry)
	}
	return logs, nil
}

// settlePosition writes the payout decision, credits the holder when the
// token won, and removes the position from the ledger.
func (s *ResolutionService) settlePosition(
	ctx context.Context,
	store repository.Repository,
	pos models.UserPosition,
	users map[string]*models.User,
	winning map[string]struct{},
) (models.PayoutLog, error) {
	_, isWinner := winning[pos.Token]

	entry := models.PayoutLog{
		UserName: pos.UserName,
		Market:   pos.Market,
		Token:    pos.Token,
		IsWinner: isWinner,
	}
	if isWinner {
		entry.SharesPaid = pos.Shares
	}
	if err := store.InsertPayoutLog(ctx, &entry); err != nil {
		return entry, resolutionErr("insert_payout_log", err)
	}

	if isWinner {
		user, ok := users[pos.UserName]
		if !ok {
			// Position without a user row: write it off, keep the audit trail.
			if s.Logger != nil {
				s.Logger.Warn("winning position has no user row, payout skipped",
					zap.String("user", pos.UserName),
					zap.String("market", pos.Market),
					zap.String("token", pos.Token))
			}
		} else {
			user.Balance = user.Balance.Add(pos.Shares)
			if err := store.SaveUser(ctx, user); err != nil {
				return entry, resolutionErr("credit_balance", err)
			}
		}
	}

	if err := store.DeletePosition(ctx, &pos); err != nil {
		return entry, resolutionErr("delete_position", err)
	}
	return entry, nil
}
