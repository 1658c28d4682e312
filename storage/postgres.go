package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"propscrape/models"
)

// PersistenceError wraps a failed storage operation with enough context
// to log it against the listing that caused it.
type PersistenceError struct {
	Op  string
	URL string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.URL, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, connString string) (*PostgresStore, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	config.MaxConns = 10
	config.MinConns = 2
	config.MaxConnLifetime = 30 * time.Minute
	config.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	store := &PostgresStore{pool: pool}
	if err := store.migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return store, nil
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}

func (s *PostgresStore) Pool() *pgxpool.Pool {
	return s.pool
}

func (s *PostgresStore) migrate(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS listings (
			id UUID PRIMARY KEY,
			external_id TEXT NOT NULL DEFAULT '',
			listing_url TEXT NOT NULL UNIQUE,
			title TEXT NOT NULL DEFAULT '',
			price TEXT NOT NULL DEFAULT '',
			price_numeric DOUBLE PRECISION,
			property_type TEXT NOT NULL DEFAULT '',
			bedrooms INTEGER,
			bathrooms INTEGER,
			size TEXT NOT NULL DEFAULT '',
			description TEXT NOT NULL DEFAULT '',
			key_features TEXT[] NOT NULL DEFAULT '{}',
			date_added TIMESTAMPTZ,
			agent_phone TEXT,
			scraping_status TEXT NOT NULL DEFAULT 'pending',
			scraping_error TEXT NOT NULL DEFAULT '',
			first_seen_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			last_seen_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS listing_images (
			id BIGSERIAL PRIMARY KEY,
			listing_id UUID NOT NULL REFERENCES listings(id) ON DELETE CASCADE,
			image_url TEXT NOT NULL,
			image_order INTEGER NOT NULL,
			is_primary BOOLEAN NOT NULL DEFAULT FALSE,
			image_title TEXT NOT NULL DEFAULT '',
			mirror_status TEXT NOT NULL DEFAULT 'pending',
			mirror_attempts INTEGER NOT NULL DEFAULT 0,
			s3_key TEXT,
			content_hash TEXT,
			scraped_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE (listing_id, image_order),
			UNIQUE (listing_id, image_url)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_listings_status ON listings(scraping_status)`,
		`DROP INDEX IF EXISTS idx_listings_external_id`,
		`CREATE UNIQUE INDEX IF NOT EXISTS uniq_listings_external_id
			ON listings(external_id) WHERE external_id <> ''`,
		`CREATE INDEX IF NOT EXISTS idx_listing_images_mirror ON listing_images(mirror_status, mirror_attempts)`,
	}

	for _, stmt := range statements {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// Listings
// =============================================================================

// UpsertListing writes one extracted record and its full image set in a
// single transaction, keyed by listing URL. Every listing column is
// replaced with the new extraction, so re-running the same page converges
// on one identical row. The previous image rows are dropped and the new
// set inserted in order, which keeps image_order dense and primary flags
// consistent no matter what the old set looked like. Returns true when
// the listing row was created rather than updated.
//
// external_id carries a partial unique index, so a second URL spelling
// of an already stored property is rejected rather than duplicated.
func (s *PostgresStore) UpsertListing(ctx context.Context, l *models.ExtractedListing) (bool, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return false, &PersistenceError{Op: "begin", URL: l.ListingURL, Err: err}
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO listings (
			id, external_id, listing_url, title, price, price_numeric,
			property_type, bedrooms, bathrooms, size, description, key_features,
			date_added, agent_phone, scraping_status, scraping_error,
			first_seen_at, last_seen_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, '', NOW(), NOW()
		)
		ON CONFLICT (listing_url) DO UPDATE SET
			external_id = EXCLUDED.external_id,
			title = EXCLUDED.title,
			price = EXCLUDED.price,
			price_numeric = EXCLUDED.price_numeric,
			property_type = EXCLUDED.property_type,
			bedrooms = EXCLUDED.bedrooms,
			bathrooms = EXCLUDED.bathrooms,
			size = EXCLUDED.size,
			description = EXCLUDED.description,
			key_features = EXCLUDED.key_features,
			date_added = EXCLUDED.date_added,
			agent_phone = EXCLUDED.agent_phone,
			scraping_status = EXCLUDED.scraping_status,
			scraping_error = '',
			last_seen_at = NOW()
		RETURNING id, (xmax = 0)`

	var listingID uuid.UUID
	var created bool
	err = tx.QueryRow(ctx, query,
		uuid.New(), l.Identifier, l.ListingURL, l.Title, l.Price, l.PriceNumeric,
		l.PropertyType, l.Bedrooms, l.Bathrooms, l.Size, l.Description, l.KeyFeatures,
		l.DateAdded, l.AgentPhone, models.StatusCompleted,
	).Scan(&listingID, &created)
	if err != nil {
		return false, &PersistenceError{Op: "upsert listing", URL: l.ListingURL, Err: err}
	}

	if _, err := tx.Exec(ctx, `DELETE FROM listing_images WHERE listing_id = $1`, listingID); err != nil {
		return false, &PersistenceError{Op: "clear images", URL: l.ListingURL, Err: err}
	}

	insertImage := `
		INSERT INTO listing_images (listing_id, image_url, image_order, is_primary, image_title, scraped_at)
		VALUES ($1, $2, $3, $4, $5, NOW())`
	for i, url := range dedupeImageURLs(l.ImageURLs) {
		if _, err := tx.Exec(ctx, insertImage, listingID, url, i, i == 0, imageTitle(i)); err != nil {
			return false, &PersistenceError{Op: "insert image", URL: l.ListingURL, Err: err}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return false, &PersistenceError{Op: "commit", URL: l.ListingURL, Err: err}
	}
	return created, nil
}

// MarkListingScraping flags an existing row as in progress. A URL with no
// row is left alone; discovery alone never creates one.
func (s *PostgresStore) MarkListingScraping(ctx context.Context, listingURL string) error {
	query := `UPDATE listings SET scraping_status = $2, last_seen_at = NOW() WHERE listing_url = $1`
	_, err := s.pool.Exec(ctx, query, listingURL, models.StatusScraping)
	return err
}

// MarkListingFailed records a failed visit against an existing row.
// Deliberately an UPDATE: a page that never loaded must not materialise
// a listing row.
func (s *PostgresStore) MarkListingFailed(ctx context.Context, listingURL, message string) error {
	query := `
		UPDATE listings SET scraping_status = $2, scraping_error = $3, last_seen_at = NOW()
		WHERE listing_url = $1`
	_, err := s.pool.Exec(ctx, query, listingURL, models.StatusFailed, message)
	return err
}

func (s *PostgresStore) GetListingByURL(ctx context.Context, listingURL string) (*models.PersistedListing, error) {
	query := `
		SELECT id, external_id, listing_url, title, price, price_numeric,
			property_type, bedrooms, bathrooms, size, description, key_features,
			date_added, agent_phone, scraping_status, scraping_error,
			first_seen_at, last_seen_at
		FROM listings WHERE listing_url = $1`

	var l models.PersistedListing
	err := s.pool.QueryRow(ctx, query, listingURL).Scan(
		&l.ID, &l.Identifier, &l.ListingURL, &l.Title, &l.Price, &l.PriceNumeric,
		&l.PropertyType, &l.Bedrooms, &l.Bathrooms, &l.Size, &l.Description, &l.KeyFeatures,
		&l.DateAdded, &l.AgentPhone, &l.ScrapingStatus, &l.ScrapingError,
		&l.FirstSeenAt, &l.LastSeenAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (s *PostgresStore) GetListingByID(ctx context.Context, id uuid.UUID) (*models.PersistedListing, error) {
	query := `
		SELECT id, external_id, listing_url, title, price, price_numeric,
			property_type, bedrooms, bathrooms, size, description, key_features,
			date_added, agent_phone, scraping_status, scraping_error,
			first_seen_at, last_seen_at
		FROM listings WHERE id = $1`

	var l models.PersistedListing
	err := s.pool.QueryRow(ctx, query, id).Scan(
		&l.ID, &l.Identifier, &l.ListingURL, &l.Title, &l.Price, &l.PriceNumeric,
		&l.PropertyType, &l.Bedrooms, &l.Bathrooms, &l.Size, &l.Description, &l.KeyFeatures,
		&l.DateAdded, &l.AgentPhone, &l.ScrapingStatus, &l.ScrapingError,
		&l.FirstSeenAt, &l.LastSeenAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// =============================================================================
// Listing Images
// =============================================================================

func (s *PostgresStore) GetListingImages(ctx context.Context, listingID uuid.UUID) ([]models.ListingImage, error) {
	query := `
		SELECT id, listing_id, image_url, image_order, is_primary, image_title,
			mirror_status, mirror_attempts, s3_key, content_hash, scraped_at
		FROM listing_images
		WHERE listing_id = $1
		ORDER BY image_order`

	rows, err := s.pool.Query(ctx, query, listingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var images []models.ListingImage
	for rows.Next() {
		var img models.ListingImage
		if err := rows.Scan(
			&img.ID, &img.ListingID, &img.ImageURL, &img.ImageOrder, &img.IsPrimary, &img.ImageTitle,
			&img.MirrorStatus, &img.MirrorAttempts, &img.S3Key, &img.ContentHash, &img.ScrapedAt,
		); err != nil {
			return nil, err
		}
		images = append(images, img)
	}
	return images, rows.Err()
}

func (s *PostgresStore) GetPendingImages(ctx context.Context, limit int) ([]models.ListingImage, error) {
	query := `
		SELECT id, listing_id, image_url, image_order, is_primary, image_title,
			mirror_status, mirror_attempts, s3_key, content_hash, scraped_at
		FROM listing_images
		WHERE mirror_status = 'pending' AND mirror_attempts < 3
		ORDER BY scraped_at
		LIMIT $1`

	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var images []models.ListingImage
	for rows.Next() {
		var img models.ListingImage
		if err := rows.Scan(
			&img.ID, &img.ListingID, &img.ImageURL, &img.ImageOrder, &img.IsPrimary, &img.ImageTitle,
			&img.MirrorStatus, &img.MirrorAttempts, &img.S3Key, &img.ContentHash, &img.ScrapedAt,
		); err != nil {
			return nil, err
		}
		images = append(images, img)
	}
	return images, rows.Err()
}

func (s *PostgresStore) UpdateImageMirrorStatus(ctx context.Context, id int64, status models.MirrorStatus, s3Key, contentHash *string, attempts int) error {
	query := `
		UPDATE listing_images SET
			mirror_status = $2,
			s3_key = COALESCE($3, s3_key),
			content_hash = COALESCE($4, content_hash),
			mirror_attempts = $5
		WHERE id = $1`
	_, err := s.pool.Exec(ctx, query, id, status, s3Key, contentHash, attempts)
	return err
}

// imageTitle labels a stored image by its 1-based position on the page.
func imageTitle(order int) string {
	return fmt.Sprintf("Image %d", order+1)
}

// dedupeImageURLs keeps the first occurrence of each URL so the stored
// order still reflects discovery order on the page.
func dedupeImageURLs(urls []string) []string {
	seen := make(map[string]struct{}, len(urls))
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}
	return out
}
