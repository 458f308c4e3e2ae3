package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/newsboard/newsboard/internal/model"
)

var (
	ErrNewsNotFound = errors.New("news not found")
)

const newsColumns = `id, title, slug, category, youtube_link, start_date, end_date, view_count`

type NewsRepository interface {
	Create(ctx context.Context, news *model.News) error
	Update(ctx context.Context, news *model.News) error
	ByID(ctx context.Context, id int64) (*model.News, error)
	All(ctx context.Context) ([]*model.News, error)
	Active(ctx context.Context, category string, now time.Time) ([]*model.News, error)
	Archived(ctx context.Context, now time.Time) ([]*model.News, error)
	Delete(ctx context.Context, id int64) error
	IncrementViewCount(ctx context.Context, id int64) error
	WithTx(tx *sqlx.Tx) NewsRepository
}

type newsRepository struct {
	db sqlx.ExtContext
}

func NewNewsRepository(db sqlx.ExtContext) NewsRepository {
	return &newsRepository{db: db}
}

func (r *newsRepository) WithTx(tx *sqlx.Tx) NewsRepository {
	return &newsRepository{db: tx}
}

func (r *newsRepository) Create(ctx context.Context, news *model.News) error {
	query := `INSERT INTO news (title, slug, category, youtube_link, start_date, end_date, view_count) VALUES (?, ?, ?, ?, ?, ?, 0)`

	id, err := insertID(ctx, r.db, query,
		news.Title,
		news.Slug,
		news.Category,
		news.YoutubeLink,
		dbTime(news.StartDate),
		dbTime(news.EndDate),
	)
	if err != nil {
		return err
	}

	news.ID = id
	return nil
}

// Update overwrites every mutable column. view_count is left untouched.
func (r *newsRepository) Update(ctx context.Context, news *model.News) error {
	query := r.db.Rebind(`UPDATE news SET title = ?, slug = ?, category = ?, youtube_link = ?, start_date = ?, end_date = ? WHERE id = ?`)

	_, err := r.db.ExecContext(ctx, query,
		news.Title,
		news.Slug,
		news.Category,
		news.YoutubeLink,
		dbTime(news.StartDate),
		dbTime(news.EndDate),
		news.ID,
	)
	return err
}

func (r *newsRepository) ByID(ctx context.Context, id int64) (*model.News, error) {
	news := &model.News{}
	query := r.db.Rebind(`SELECT ` + newsColumns + ` FROM news WHERE id = ?`)

	err := sqlx.GetContext(ctx, r.db, news, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNewsNotFound
	}
	if err != nil {
		return nil, err
	}

	normalize(news)
	return news, nil
}

func (r *newsRepository) All(ctx context.Context) ([]*model.News, error) {
	query := `SELECT ` + newsColumns + ` FROM news ORDER BY start_date DESC, id DESC`
	return r.list(ctx, query)
}

// Active returns the category's items whose inclusive window contains now, newest start first.
func (r *newsRepository) Active(ctx context.Context, category string, now time.Time) ([]*model.News, error) {
	query := `SELECT ` + newsColumns + ` FROM news
		WHERE category = ? AND start_date <= ? AND end_date >= ?
		ORDER BY start_date DESC, id DESC`
	now = dbTime(now)
	return r.list(ctx, query, category, now, now)
}

// Archived returns items whose window has closed, most recently expired first.
func (r *newsRepository) Archived(ctx context.Context, now time.Time) ([]*model.News, error) {
	query := `SELECT ` + newsColumns + ` FROM news WHERE end_date < ? ORDER BY end_date DESC, id DESC`
	return r.list(ctx, query, dbTime(now))
}

func (r *newsRepository) list(ctx context.Context, query string, args ...any) ([]*model.News, error) {
	var items []*model.News

	err := sqlx.SelectContext(ctx, r.db, &items, r.db.Rebind(query), args...)
	if err != nil {
		return nil, err
	}

	for _, n := range items {
		normalize(n)
	}
	return items, nil
}

func (r *newsRepository) Delete(ctx context.Context, id int64) error {
	query := r.db.Rebind(`DELETE FROM news WHERE id = ?`)

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		return ErrNewsNotFound
	}

	return nil
}

// IncrementViewCount bumps the counter in a single statement so concurrent views are not lost.
func (r *newsRepository) IncrementViewCount(ctx context.Context, id int64) error {
	query := r.db.Rebind(`UPDATE news SET view_count = view_count + 1 WHERE id = ?`)

	_, err := r.db.ExecContext(ctx, query, id)
	return err
}

func normalize(n *model.News) {
	n.StartDate = n.StartDate.UTC()
	n.EndDate = n.EndDate.UTC()
}
