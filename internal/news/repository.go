package news

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrPostNotFound is returned when no post matches the identifier.
var ErrPostNotFound = errors.New("news post not found")

// Repository persists news posts.
type Repository interface {
	// List returns up to limit posts, newest first.
	List(ctx context.Context, limit int) ([]Post, error)
	Create(ctx context.Context, post Post) (Post, error)
	Delete(ctx context.Context, id int64) error
	Count(ctx context.Context) (int, error)
}

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a Postgres-backed news repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// List returns the newest posts.
func (r *PostgresRepository) List(ctx context.Context, limit int) ([]Post, error) {
	rows, err := r.db.Query(ctx, `SELECT id, title, summary, category, author_email, created_at
        FROM news_posts ORDER BY created_at DESC, id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []Post
	for rows.Next() {
		var p Post
		if err := rows.Scan(&p.ID, &p.Title, &p.Summary, &p.Category, &p.AuthorEmail, &p.CreatedAt); err != nil {
			return nil, err
		}
		p.CreatedAt = p.CreatedAt.UTC()
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

// Create inserts a post and returns it with its assigned identifier.
func (r *PostgresRepository) Create(ctx context.Context, post Post) (Post, error) {
	err := r.db.QueryRow(ctx, `INSERT INTO news_posts (title, summary, category, author_email, created_at)
        VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		post.Title, post.Summary, post.Category, post.AuthorEmail, post.CreatedAt.UTC()).Scan(&post.ID)
	if err != nil {
		return Post{}, err
	}
	return post, nil
}

// Delete removes a post.
func (r *PostgresRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM news_posts WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrPostNotFound
	}
	return nil
}

// Count returns the number of stored posts.
func (r *PostgresRepository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM news_posts`).Scan(&n)
	return n, err
}
