package data

import (
	"context"
	"database/sql"
	"encoding/json"

	apperrors "github.com/stevenleohash/fortune-flow-end/internal/errors"
)

// ShopRepo provides read access to shop records. Shop CRUD belongs to the
// external management layer; the coordinator only reads the dispatch payload.
type ShopRepo struct {
	DB *sql.DB
}

// NewShopRepo creates a new ShopRepo instance with the given database connection.
func NewShopRepo(db *sql.DB) *ShopRepo {
	return &ShopRepo{DB: db}
}

// GetShopData returns the shop's opaque payload data, or errors.ErrNotFound.
func (r *ShopRepo) GetShopData(ctx context.Context, shopID string) (json.RawMessage, error) {
	query := `SELECT data FROM shops WHERE id = $1`

	var raw []byte
	if err := r.DB.QueryRowContext(ctx, query, shopID).Scan(&raw); err != nil {
		return nil, apperrors.MapDBError("get shop data", err)
	}
	return json.RawMessage(raw), nil
}
