package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Currency owns durable balances per user and currency type.
type Currency struct {
	store *Store
}

func NewCurrency(store *Store) *Currency {
	return &Currency{store: store}
}

// Add credits (or debits, with a negative amount) a balance and returns the
// new total. Balances never go below zero.
func (c *Currency) Add(ctx context.Context, userID, currency string, amount int) (int, error) {
	tx, err := c.store.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	var balance int
	err = tx.QueryRowContext(ctx,
		`SELECT balance FROM currency_balances WHERE user_id = ? AND currency = ?`,
		userID, currency).Scan(&balance)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return 0, err
	}

	balance += amount
	if balance < 0 {
		balance = 0
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO currency_balances (user_id, currency, balance) VALUES (?, ?, ?)
		 ON CONFLICT (user_id, currency) DO UPDATE SET balance = excluded.balance`,
		userID, currency, balance); err != nil {
		return 0, fmt.Errorf("update balance: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return balance, nil
}

// Balance reads one currency total.
func (c *Currency) Balance(ctx context.Context, userID, currency string) (int, error) {
	var balance int
	err := c.store.db.QueryRowContext(ctx,
		`SELECT balance FROM currency_balances WHERE user_id = ? AND currency = ?`,
		userID, currency).Scan(&balance)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	return balance, err
}
