package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/erp/progress-billing/internal/domain/shared"
	"gorm.io/gorm"
)

// persistEvents writes the aggregate's pending events to the outbox inside tx and
// clears them from the aggregate. A nil saver leaves the events untouched.
func persistEvents(ctx context.Context, tx *gorm.DB, saver shared.OutboxEventSaver, agg shared.AggregateRoot) error {
	if saver == nil {
		return nil
	}
	events := agg.GetDomainEvents()
	if len(events) == 0 {
		return nil
	}
	if err := saver.SaveEvents(ctx, tx, events...); err != nil {
		return fmt.Errorf("failed to save events to outbox: %w", err)
	}
	agg.ClearDomainEvents()
	return nil
}

// translateWriteError maps driver-level unique violations onto shared.ErrAlreadyExists.
// It relies on gorm.Config.TranslateError being enabled.
func translateWriteError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w: %v", shared.ErrAlreadyExists, err)
	}
	return err
}

// concurrentModification is returned when an optimistic version check fails
func concurrentModification(what string) error {
	return shared.NewDomainError(shared.CodeConcurrencyConflict,
		fmt.Sprintf("the %s has been modified by another transaction", what))
}
