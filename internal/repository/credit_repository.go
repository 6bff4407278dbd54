package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"goalplanner/internal/model"
)

// ErrQuotaExhausted is returned by Reserve when the ledger has no credits left.
var ErrQuotaExhausted = errors.New("credit quota exhausted")

// CreditRepository implements the reserve/commit/release ledger verbs. Every
// balance change is a single conditional UPDATE so concurrent requests cannot
// both pass the quota check, regardless of how many service instances run.
type CreditRepository struct {
	db *gorm.DB
}

func NewCreditRepository(db *gorm.DB) *CreditRepository {
	return &CreditRepository{db: db}
}

// Grant upserts the user's ledger and adds n credits.
func (r *CreditRepository) Grant(ctx context.Context, userID uint, n int) error {
	ledger := model.CreditLedger{UserID: userID, Remaining: n}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{"remaining": gorm.Expr("remaining + ?", n)}),
	}).Create(&ledger).Error
	if err != nil {
		return fmt.Errorf("grant credits: %w", err)
	}
	return nil
}

// Reserve atomically moves one credit from remaining to reserved. It returns
// the remaining balance after the reservation, or ErrQuotaExhausted (with the
// current balance) when no credit is available.
func (r *CreditRepository) Reserve(ctx context.Context, userID uint) (int, error) {
	res := r.db.WithContext(ctx).Model(&model.CreditLedger{}).
		Where("user_id = ? AND remaining > 0", userID).
		Updates(map[string]interface{}{
			"remaining": gorm.Expr("remaining - 1"),
			"reserved":  gorm.Expr("reserved + 1"),
		})
	if res.Error != nil {
		return 0, fmt.Errorf("reserve credit: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		remaining, err := r.Remaining(ctx, userID)
		if err != nil {
			remaining = 0
		}
		return remaining, ErrQuotaExhausted
	}
	return r.Remaining(ctx, userID)
}

// Commit consumes a reserved credit after the metered call succeeded.
func (r *CreditRepository) Commit(ctx context.Context, userID uint) error {
	res := r.db.WithContext(ctx).Model(&model.CreditLedger{}).
		Where("user_id = ? AND reserved > 0", userID).
		Update("reserved", gorm.Expr("reserved - 1"))
	if res.Error != nil {
		return fmt.Errorf("commit credit: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("commit credit: no reservation held for user %d", userID)
	}
	return nil
}

// Release returns a reserved credit to the balance after a failed attempt.
func (r *CreditRepository) Release(ctx context.Context, userID uint) error {
	res := r.db.WithContext(ctx).Model(&model.CreditLedger{}).
		Where("user_id = ? AND reserved > 0", userID).
		Updates(map[string]interface{}{
			"remaining": gorm.Expr("remaining + 1"),
			"reserved":  gorm.Expr("reserved - 1"),
		})
	if res.Error != nil {
		return fmt.Errorf("release credit: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("release credit: no reservation held for user %d", userID)
	}
	return nil
}

func (r *CreditRepository) Remaining(ctx context.Context, userID uint) (int, error) {
	var ledger model.CreditLedger
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&ledger).Error
	switch {
	case err == nil:
		return ledger.Remaining, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return 0, nil
	default:
		return 0, fmt.Errorf("read ledger: %w", err)
	}
}
