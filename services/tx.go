package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hackingtorch/hackingtorch/repositories"
)

// txRunner выполняет fn внутри одной транзакции: ошибка из fn откатывает
// всё. Интерфейс узкий, чтобы транзакции подменялись в тестах.
type txRunner interface {
	RunInTx(ctx context.Context, fn func(exec repositories.SQLExecutor) error) error
}

type sqlTxRunner struct {
	db *sql.DB
}

func (r sqlTxRunner) RunInTx(ctx context.Context, fn func(exec repositories.SQLExecutor) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
