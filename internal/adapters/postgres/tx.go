package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/samirrijal/placeshare/internal/core/domain"
	"github.com/samirrijal/placeshare/internal/core/ports"
)

// TxManager implements ports.Transactor on a single pgx transaction.
type TxManager struct {
	db *DB
}

func NewTxManager(db *DB) *TxManager {
	return &TxManager{db: db}
}

// WithinTx commits when fn returns nil and rolls back otherwise.
// A failed commit is returned as is; callers decide whether to retry.
func (m *TxManager) WithinTx(ctx context.Context, fn func(ctx context.Context, tx ports.PlaceTx) error) error {
	tx, err := m.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if tx != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	if err := fn(ctx, &placeTx{tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	tx = nil
	return nil
}

type placeTx struct {
	tx pgx.Tx
}

func (t *placeTx) LockUser(ctx context.Context, id string) (*domain.User, error) {
	return scanUser(t.tx.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1 FOR UPDATE`, id))
}

func (t *placeTx) InsertPlace(ctx context.Context, p *domain.Place) error {
	err := t.tx.QueryRow(ctx, `
		INSERT INTO places (title, description, image, address, lat, lng, creator_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id::text, created_at, updated_at
	`, p.Title, p.Description, p.Image, p.Address, p.Location.Lat, p.Location.Lng, p.CreatorID,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert place: %w", err)
	}
	return nil
}

func (t *placeTx) DeletePlace(ctx context.Context, id string) error {
	tag, err := t.tx.Exec(ctx, `DELETE FROM places WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete place: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (t *placeTx) SaveUserPlaces(ctx context.Context, userID string, placeIDs []string) error {
	if placeIDs == nil {
		placeIDs = []string{}
	}
	tag, err := t.tx.Exec(ctx, `
		UPDATE users SET place_ids = $2::text[]::uuid[] WHERE id = $1
	`, userID, placeIDs)
	if err != nil {
		return fmt.Errorf("save user places: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("save user places: %w", domain.ErrNotFound)
	}
	return nil
}

var _ ports.Transactor = (*TxManager)(nil)
