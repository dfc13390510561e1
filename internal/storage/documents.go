package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// GetDocument returns the user's document in collection split by top-level key.
func (db *DB) GetDocument(ctx context.Context, collection string, userID int) (map[string]json.RawMessage, error) {
	var data []byte
	err := db.Pool.QueryRow(ctx,
		`SELECT data FROM documents WHERE collection = $1 AND user_id = $2`,
		collection, userID).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s document: %w", collection, err)
	}
	return splitDocument(data)
}

// SetDocument merges patch into the user's document inside one transaction.
func (db *DB) SetDocument(ctx context.Context, collection string, userID int, patch map[string]any) error {
	norm, err := normalizePatch(patch)
	if err != nil {
		return err
	}

	return db.inTx(ctx, func(tx pgx.Tx) error {
		doc := make(map[string]any)
		var data []byte
		err := tx.QueryRow(ctx,
			`SELECT data FROM documents WHERE collection = $1 AND user_id = $2 FOR UPDATE`,
			collection, userID).Scan(&data)
		switch {
		case errors.Is(err, pgx.ErrNoRows):
		case err != nil:
			return fmt.Errorf("locking %s document: %w", collection, err)
		default:
			if err := json.Unmarshal(data, &doc); err != nil {
				return fmt.Errorf("decoding %s document: %w", collection, err)
			}
		}

		mergeDocument(doc, norm)
		merged, err := json.Marshal(doc)
		if err != nil {
			return fmt.Errorf("encoding %s document: %w", collection, err)
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO documents (collection, user_id, data, updated_at)
			VALUES ($1, $2, $3, NOW())
			ON CONFLICT (collection, user_id) DO UPDATE
				SET data = EXCLUDED.data, updated_at = NOW()
		`, collection, userID, merged)
		if err != nil {
			return fmt.Errorf("writing %s document: %w", collection, err)
		}
		return nil
	})
}
