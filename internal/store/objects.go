package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/klauspost/compress/zstd"

	"uiforge/cas"
	"uiforge/element"
)

var (
	encoder, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	decoder, _ = zstd.NewReader(nil)
)

// putObject stores the forest under its content digest. Storing a forest
// that is already present is a no-op.
func putObject(ctx context.Context, tx *sql.Tx, f element.Forest) ([]byte, error) {
	if f == nil {
		f = element.Forest{}
	}
	digest, err := cas.ForestDigest(f)
	if err != nil {
		return nil, fmt.Errorf("hashing snapshot: %w", err)
	}
	body, err := cas.CanonicalJSON(f)
	if err != nil {
		return nil, fmt.Errorf("encoding snapshot: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO objects (digest, size, data, created_at) VALUES (?, ?, ?, ?)`,
		digest, len(body), encoder.EncodeAll(body, nil), time.Now().UnixMilli(),
	)
	if err != nil {
		return nil, fmt.Errorf("inserting object: %w", err)
	}
	return digest, nil
}

func (db *DB) getObject(ctx context.Context, digest []byte) (element.Forest, error) {
	var data []byte
	err := db.conn.QueryRowContext(ctx, `SELECT data FROM objects WHERE digest = ?`, digest).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, cas.ShortHex(digest))
	}
	if err != nil {
		return nil, fmt.Errorf("querying object: %w", err)
	}

	body, err := decoder.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("decompressing object %s: %w", cas.ShortHex(digest), err)
	}
	var f element.Forest
	if err := json.Unmarshal(body, &f); err != nil {
		return nil, fmt.Errorf("decoding object %s: %w", cas.ShortHex(digest), err)
	}
	return f, nil
}
