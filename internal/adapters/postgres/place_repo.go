package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/samirrijal/placeshare/internal/core/domain"
)

const placeColumns = `id::text, title, description, image, address, lat, lng, creator_id::text, created_at, updated_at`

// PlaceRepo implements ports.PlaceRepository.
type PlaceRepo struct {
	db *DB
}

func NewPlaceRepo(db *DB) *PlaceRepo {
	return &PlaceRepo{db: db}
}

func scanPlace(row pgx.Row, extra ...any) (*domain.Place, error) {
	p := &domain.Place{}
	dest := append([]any{
		&p.ID, &p.Title, &p.Description, &p.Image, &p.Address,
		&p.Location.Lat, &p.Location.Lng, &p.CreatorID, &p.CreatedAt, &p.UpdatedAt,
	}, extra...)
	if err := row.Scan(dest...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

func (r *PlaceRepo) GetByID(ctx context.Context, id string) (*domain.Place, error) {
	return scanPlace(r.db.Pool.QueryRow(ctx, `
		SELECT `+placeColumns+`
		FROM places WHERE id = $1
	`, id))
}

// GetWithCreator loads a place and its owner in one statement.
func (r *PlaceRepo) GetWithCreator(ctx context.Context, id string) (*domain.Place, *domain.User, error) {
	u := &domain.User{}
	p, err := scanPlace(r.db.Pool.QueryRow(ctx, `
		SELECT p.id::text, p.title, p.description, p.image, p.address, p.lat, p.lng,
		       p.creator_id::text, p.created_at, p.updated_at,
		       u.id::text, u.name, u.email, u.image, u.place_ids::text[], u.created_at
		FROM places p
		JOIN users u ON u.id = p.creator_id
		WHERE p.id = $1
	`, id), &u.ID, &u.Name, &u.Email, &u.Image, &u.PlaceIDs, &u.CreatedAt)
	if err != nil {
		return nil, nil, err
	}
	return p, u, nil
}

// ListByIDs returns the places in ids, in the order given. Unknown ids are skipped.
func (r *PlaceRepo) ListByIDs(ctx context.Context, ids []string) ([]domain.Place, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT `+placeColumns+`
		FROM places
		WHERE id = ANY($1::text[]::uuid[])
		ORDER BY array_position($1::text[], id::text)
	`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	places := make([]domain.Place, 0, len(ids))
	for rows.Next() {
		p, err := scanPlace(rows)
		if err != nil {
			return nil, err
		}
		places = append(places, *p)
	}
	return places, rows.Err()
}

func (r *PlaceRepo) Update(ctx context.Context, place *domain.Place) error {
	err := r.db.Pool.QueryRow(ctx, `
		UPDATE places SET title = $2, description = $3, updated_at = now()
		WHERE id = $1
		RETURNING updated_at
	`, place.ID, place.Title, place.Description).Scan(&place.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrNotFound
	}
	return err
}
