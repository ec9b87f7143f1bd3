package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"wanderlust/internal/model"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS listings (
	id             TEXT PRIMARY KEY,
	title          TEXT NOT NULL,
	description    TEXT NOT NULL DEFAULT '',
	image_url      TEXT,
	image_filename TEXT,
	price          DOUBLE PRECISION,
	location       TEXT NOT NULL,
	country        TEXT NOT NULL,
	geometry_type  TEXT NOT NULL DEFAULT 'Point',
	lon            DOUBLE PRECISION NOT NULL,
	lat            DOUBLE PRECISION NOT NULL,
	review_ids     TEXT[] NOT NULL DEFAULT '{}',
	owner_id       TEXT NOT NULL DEFAULT '',
	created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS reviews (
	id         TEXT PRIMARY KEY,
	comment    TEXT NOT NULL,
	rating     INTEGER NOT NULL CHECK (rating BETWEEN 1 AND 5),
	author_id  TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS users (
	id       TEXT PRIMARY KEY,
	username TEXT NOT NULL,
	email    TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS images (
	id         TEXT PRIMARY KEY,
	filename   TEXT NOT NULL,
	data       BYTEA NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_listings_owner ON listings(owner_id);
`

func EnsurePostgresSchema(ctx context.Context, db *sqlx.DB) error {
	ctx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	if _, err := db.ExecContext(ctx, postgresSchema); err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}
	return nil
}

func NewPostgresStore(db *sqlx.DB) *Store {
	return &Store{
		Listings: &PostgresListingRepository{DB: db},
		Reviews:  &PostgresReviewRepository{DB: db},
		Users:    &PostgresUserRepository{DB: db},
		Images:   &PostgresImageRepository{DB: db},
		Tx:       &PostgresTransactor{DB: db},
	}
}

type pgTxKey struct{}

// ext returns the transaction carried by ctx, or db.
func ext(ctx context.Context, db *sqlx.DB) sqlx.ExtContext {
	if tx, ok := ctx.Value(pgTxKey{}).(*sqlx.Tx); ok {
		return tx
	}
	return db
}

type PostgresTransactor struct {
	DB *sqlx.DB
}

func (t *PostgresTransactor) WithTx(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if _, ok := ctx.Value(pgTxKey{}).(*sqlx.Tx); ok {
		return fn(ctx)
	}

	tx, err := t.DB.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("PostgresTransactor.BeginTxx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(context.WithValue(ctx, pgTxKey{}, tx)); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("PostgresTransactor.Commit: %w", err)
	}
	return nil
}

const listingColumns = `id, title, description, image_url, image_filename, price,
	location, country, geometry_type, lon, lat, review_ids, owner_id`

type listingRow struct {
	ID            string          `db:"id"`
	Title         string          `db:"title"`
	Description   string          `db:"description"`
	ImageURL      sql.NullString  `db:"image_url"`
	ImageFilename sql.NullString  `db:"image_filename"`
	Price         sql.NullFloat64 `db:"price"`
	Location      string          `db:"location"`
	Country       string          `db:"country"`
	GeometryType  string          `db:"geometry_type"`
	Lon           float64         `db:"lon"`
	Lat           float64         `db:"lat"`
	ReviewIDs     pq.StringArray  `db:"review_ids"`
	OwnerID       string          `db:"owner_id"`
}

func toListingRow(l *model.Listing) listingRow {
	row := listingRow{
		ID:           l.ID,
		Title:        l.Title,
		Description:  l.Description,
		Location:     l.Location,
		Country:      l.Country,
		GeometryType: l.Geometry.Type,
		ReviewIDs:    pq.StringArray(l.Reviews),
		OwnerID:      l.Owner,
	}
	if row.GeometryType == "" {
		row.GeometryType = "Point"
	}
	if len(l.Geometry.Coordinates) == 2 {
		row.Lon, row.Lat = l.Geometry.Coordinates[0], l.Geometry.Coordinates[1]
	}
	if row.ReviewIDs == nil {
		row.ReviewIDs = pq.StringArray{}
	}
	if l.Image != nil {
		row.ImageURL = sql.NullString{String: l.Image.URL, Valid: true}
		row.ImageFilename = sql.NullString{String: l.Image.Filename, Valid: true}
	}
	if l.Price != nil {
		row.Price = sql.NullFloat64{Float64: *l.Price, Valid: true}
	}
	return row
}

func (row listingRow) toModel() model.Listing {
	l := model.Listing{
		ID:          row.ID,
		Title:       row.Title,
		Description: row.Description,
		Location:    row.Location,
		Country:     row.Country,
		Geometry:    model.Geometry{Type: row.GeometryType, Coordinates: []float64{row.Lon, row.Lat}},
		Reviews:     []string(row.ReviewIDs),
		Owner:       row.OwnerID,
	}
	if l.Reviews == nil {
		l.Reviews = []string{}
	}
	if row.ImageURL.Valid {
		l.Image = &model.Image{URL: row.ImageURL.String, Filename: row.ImageFilename.String}
	}
	if row.Price.Valid {
		p := row.Price.Float64
		l.Price = &p
	}
	return l
}

type PostgresListingRepository struct {
	DB *sqlx.DB
}

func (r *PostgresListingRepository) FindAll(ctx context.Context) ([]model.Listing, error) {
	var rows []listingRow
	q := `SELECT ` + listingColumns + ` FROM listings ORDER BY created_at`
	if err := sqlx.SelectContext(ctx, ext(ctx, r.DB), &rows, q); err != nil {
		return nil, fmt.Errorf("ListingRepository.FindAll: %w", err)
	}
	list := make([]model.Listing, 0, len(rows))
	for _, row := range rows {
		list = append(list, row.toModel())
	}
	return list, nil
}

func (r *PostgresListingRepository) FindByID(ctx context.Context, id string) (*model.Listing, error) {
	var row listingRow
	q := `SELECT ` + listingColumns + ` FROM listings WHERE id = $1`
	err := sqlx.GetContext(ctx, ext(ctx, r.DB), &row, q, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ListingRepository.FindByID: %w", err)
	}
	l := row.toModel()
	return &l, nil
}

const insertListing = `
	INSERT INTO listings
		(id, title, description, image_url, image_filename, price, location, country, geometry_type, lon, lat, review_ids, owner_id)
	VALUES
		(:id, :title, :description, :image_url, :image_filename, :price, :location, :country, :geometry_type, :lon, :lat, :review_ids, :owner_id)`

func (r *PostgresListingRepository) Create(ctx context.Context, l *model.Listing) error {
	l.ID = uuid.NewString()
	if l.Reviews == nil {
		l.Reviews = []string{}
	}
	if _, err := sqlx.NamedExecContext(ctx, ext(ctx, r.DB), insertListing, toListingRow(l)); err != nil {
		return fmt.Errorf("ListingRepository.Create: %w", err)
	}
	return nil
}

func (r *PostgresListingRepository) CreateMany(ctx context.Context, ls []model.Listing) (int, error) {
	if len(ls) == 0 {
		return 0, nil
	}
	rows := make([]listingRow, 0, len(ls))
	for i := range ls {
		ls[i].ID = uuid.NewString()
		if ls[i].Reviews == nil {
			ls[i].Reviews = []string{}
		}
		rows = append(rows, toListingRow(&ls[i]))
	}
	res, err := sqlx.NamedExecContext(ctx, ext(ctx, r.DB), insertListing, rows)
	if err != nil {
		return 0, fmt.Errorf("ListingRepository.CreateMany: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("ListingRepository.CreateMany: %w", err)
	}
	return int(n), nil
}

func (r *PostgresListingRepository) Update(ctx context.Context, l *model.Listing) error {
	res, err := sqlx.NamedExecContext(ctx, ext(ctx, r.DB), `
		UPDATE listings SET
			title          = :title,
			description    = :description,
			price          = COALESCE(CAST(:price AS DOUBLE PRECISION), price),
			image_url      = COALESCE(CAST(:image_url AS TEXT), image_url),
			image_filename = COALESCE(CAST(:image_filename AS TEXT), image_filename),
			location       = :location,
			country        = :country,
			geometry_type  = :geometry_type,
			lon            = :lon,
			lat            = :lat
		WHERE id = :id`, toListingRow(l))
	if err != nil {
		return fmt.Errorf("ListingRepository.Update: %w", err)
	}
	return requireAffected(res, "ListingRepository.Update")
}

func (r *PostgresListingRepository) Delete(ctx context.Context, id string) (*model.Listing, error) {
	var row listingRow
	q := `DELETE FROM listings WHERE id = $1 RETURNING ` + listingColumns
	err := sqlx.GetContext(ctx, ext(ctx, r.DB), &row, q, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ListingRepository.Delete: %w", err)
	}
	l := row.toModel()
	return &l, nil
}

func (r *PostgresListingRepository) AddReview(ctx context.Context, listingID, reviewID string) error {
	res, err := ext(ctx, r.DB).ExecContext(ctx,
		`UPDATE listings SET review_ids = array_append(review_ids, $1) WHERE id = $2`, reviewID, listingID)
	if err != nil {
		return fmt.Errorf("ListingRepository.AddReview: %w", err)
	}
	return requireAffected(res, "ListingRepository.AddReview")
}

func (r *PostgresListingRepository) RemoveReview(ctx context.Context, listingID, reviewID string) error {
	res, err := ext(ctx, r.DB).ExecContext(ctx,
		`UPDATE listings SET review_ids = array_remove(review_ids, $1) WHERE id = $2`, reviewID, listingID)
	if err != nil {
		return fmt.Errorf("ListingRepository.RemoveReview: %w", err)
	}
	return requireAffected(res, "ListingRepository.RemoveReview")
}

func (r *PostgresListingRepository) DeleteAll(ctx context.Context) (int64, error) {
	res, err := ext(ctx, r.DB).ExecContext(ctx, `DELETE FROM listings`)
	if err != nil {
		return 0, fmt.Errorf("ListingRepository.DeleteAll: %w", err)
	}
	return res.RowsAffected()
}

type PostgresReviewRepository struct {
	DB *sqlx.DB
}

const reviewColumns = `id, comment, rating, author_id, created_at`

func (r *PostgresReviewRepository) Create(ctx context.Context, review *model.Review) error {
	review.ID = uuid.NewString()
	review.CreatedAt = time.Now().UTC()
	_, err := sqlx.NamedExecContext(ctx, ext(ctx, r.DB), `
		INSERT INTO reviews (id, comment, rating, author_id, created_at)
		VALUES (:id, :comment, :rating, :author_id, :created_at)`, review)
	if err != nil {
		return fmt.Errorf("ReviewRepository.Create: %w", err)
	}
	return nil
}

func (r *PostgresReviewRepository) FindByID(ctx context.Context, id string) (*model.Review, error) {
	var rev model.Review
	err := sqlx.GetContext(ctx, ext(ctx, r.DB), &rev, `SELECT `+reviewColumns+` FROM reviews WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ReviewRepository.FindByID: %w", err)
	}
	return &rev, nil
}

func (r *PostgresReviewRepository) FindByIDs(ctx context.Context, ids []string) ([]model.Review, error) {
	if len(ids) == 0 {
		return []model.Review{}, nil
	}
	var found []model.Review
	q := `SELECT ` + reviewColumns + ` FROM reviews WHERE id = ANY($1)`
	if err := sqlx.SelectContext(ctx, ext(ctx, r.DB), &found, q, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("ReviewRepository.FindByIDs: %w", err)
	}
	byID := make(map[string]model.Review, len(found))
	for _, rev := range found {
		byID[rev.ID] = rev
	}
	return orderByIDs(ids, byID), nil
}

func (r *PostgresReviewRepository) Delete(ctx context.Context, id string) error {
	res, err := ext(ctx, r.DB).ExecContext(ctx, `DELETE FROM reviews WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("ReviewRepository.Delete: %w", err)
	}
	return requireAffected(res, "ReviewRepository.Delete")
}

func (r *PostgresReviewRepository) DeleteMany(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res, err := ext(ctx, r.DB).ExecContext(ctx, `DELETE FROM reviews WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return 0, fmt.Errorf("ReviewRepository.DeleteMany: %w", err)
	}
	return res.RowsAffected()
}

type PostgresUserRepository struct {
	DB *sqlx.DB
}

func (r *PostgresUserRepository) FindByIDs(ctx context.Context, ids []string) (map[string]model.User, error) {
	users := make(map[string]model.User, len(ids))
	if len(ids) == 0 {
		return users, nil
	}
	var found []model.User
	q := `SELECT id, username, email FROM users WHERE id = ANY($1)`
	if err := sqlx.SelectContext(ctx, ext(ctx, r.DB), &found, q, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("UserRepository.FindByIDs: %w", err)
	}
	for _, u := range found {
		users[u.ID] = u
	}
	return users, nil
}

type PostgresImageRepository struct {
	DB *sqlx.DB
}

func (r *PostgresImageRepository) Upload(ctx context.Context, file io.Reader, filename string) (string, error) {
	data, err := io.ReadAll(file)
	if err != nil {
		return "", fmt.Errorf("ImageRepository.Upload: %w", err)
	}
	id := uuid.NewString()
	_, err = ext(ctx, r.DB).ExecContext(ctx,
		`INSERT INTO images (id, filename, data) VALUES ($1, $2, $3)`, id, filename, data)
	if err != nil {
		return "", fmt.Errorf("ImageRepository.Upload: %w", err)
	}
	return id, nil
}

func (r *PostgresImageRepository) Download(ctx context.Context, id string) ([]byte, string, error) {
	var img struct {
		Filename string `db:"filename"`
		Data     []byte `db:"data"`
	}
	err := sqlx.GetContext(ctx, ext(ctx, r.DB), &img, `SELECT filename, data FROM images WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, "", ErrNotFound
	}
	if err != nil {
		return nil, "", fmt.Errorf("ImageRepository.Download: %w", err)
	}
	return img.Data, img.Filename, nil
}

func (r *PostgresImageRepository) Delete(ctx context.Context, id string) error {
	res, err := ext(ctx, r.DB).ExecContext(ctx, `DELETE FROM images WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("ImageRepository.Delete: %w", err)
	}
	return requireAffected(res, "ImageRepository.Delete")
}

func requireAffected(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
