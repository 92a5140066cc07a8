package cellar

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"cavescout/services/enrich"
)

// Store persists the last enriched set per wine type. A refresh replaces
// the previous snapshot wholesale; there is no history.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) Store {
	return Store{db: db}
}

func (s Store) ReplaceSnapshot(
	ctx context.Context,
	wineType string,
	listings []enrich.EnrichedListing,
) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(
		ctx,
		`DELETE FROM snapshot_listings WHERE wine_type = ?`,
		wineType,
	)
	if err != nil {
		return err
	}

	insert, err := tx.PrepareContext(ctx, `
		INSERT INTO snapshot_listings (
			wine_type, position, name, price, url, ean, declared_vintage,
			rating, ratings_count, matched_name, matched_vintage,
			vintage_match, confidence, source_url, ratio
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return err
	}
	defer insert.Close()

	for position, listing := range listings {
		_, err = insert.ExecContext(
			ctx,
			wineType,
			position,
			listing.Name,
			listing.Price,
			listing.Url,
			listing.EAN,
			listing.DeclaredVintage,
			listing.Rating,
			listing.ReviewCount,
			listing.MatchedName,
			listing.MatchedVintage,
			int(listing.VintageMatch),
			listing.Confidence,
			listing.SourceUrl,
			listing.Ratio,
		)
		if err != nil {
			return err
		}
	}

	_, err = tx.ExecContext(
		ctx,
		`INSERT INTO snapshot_meta (wine_type, refreshed_at) VALUES (?, ?)
			ON CONFLICT (wine_type) DO UPDATE SET refreshed_at = excluded.refreshed_at`,
		wineType,
		time.Now().Unix(),
	)
	if err != nil {
		return err
	}

	return tx.Commit()
}

// Snapshot returns the stored set for a wine type in its original order,
// along with the time it was taken. A missing snapshot is not an error;
// it comes back as a nil slice and zero time.
func (s Store) Snapshot(
	ctx context.Context,
	wineType string,
) ([]enrich.EnrichedListing, time.Time, error) {
	var refreshedAt time.Time
	var unix int64
	err := s.db.QueryRowContext(
		ctx,
		`SELECT refreshed_at FROM snapshot_meta WHERE wine_type = ?`,
		wineType,
	).Scan(&unix)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, time.Time{}, nil
	case err != nil:
		return nil, time.Time{}, err
	}
	refreshedAt = time.Unix(unix, 0)

	rows, err := s.db.QueryContext(
		ctx,
		`SELECT name, price, url, ean, declared_vintage, rating,
			ratings_count, matched_name, matched_vintage, vintage_match,
			confidence, source_url, ratio
			FROM snapshot_listings WHERE wine_type = ? ORDER BY position`,
		wineType,
	)
	if err != nil {
		return nil, time.Time{}, err
	}
	defer rows.Close()

	var listings []enrich.EnrichedListing
	for rows.Next() {
		var listing enrich.EnrichedListing
		var vintageMatch int
		err = rows.Scan(
			&listing.Name,
			&listing.Price,
			&listing.Url,
			&listing.EAN,
			&listing.DeclaredVintage,
			&listing.Rating,
			&listing.ReviewCount,
			&listing.MatchedName,
			&listing.MatchedVintage,
			&vintageMatch,
			&listing.Confidence,
			&listing.SourceUrl,
			&listing.Ratio,
		)
		if err != nil {
			return nil, time.Time{}, err
		}
		listing.VintageMatch = enrich.VintageAgreement(vintageMatch)
		listings = append(listings, listing)
	}
	return listings, refreshedAt, rows.Err()
}
