package news

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aggregator-demo/aggregator/internal/apperr"
)

// Service manages the news feed.
type Service struct {
	repo          Repository
	defaultAuthor string
	now           func() time.Time
}

// NewService constructs a news service. defaultAuthor signs the default posts.
func NewService(repo Repository, defaultAuthor string) *Service {
	return &Service{repo: repo, defaultAuthor: defaultAuthor, now: func() time.Time { return time.Now().UTC() }}
}

// EnsureDefaults inserts the default posts when the feed is empty. It reports
// how many posts were created.
func (s *Service) EnsureDefaults(ctx context.Context) (int, error) {
	n, err := s.repo.Count(ctx)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		return 0, nil
	}
	for _, d := range defaultPosts {
		createdAt, err := time.Parse(time.DateOnly, d.date)
		if err != nil {
			return 0, err
		}
		if _, err := s.repo.Create(ctx, Post{
			Title:       d.title,
			Summary:     d.summary,
			Category:    d.category,
			AuthorEmail: s.defaultAuthor,
			CreatedAt:   createdAt,
		}); err != nil {
			return 0, err
		}
	}
	return len(defaultPosts), nil
}

// List returns the newest posts, seeding the defaults into an empty feed.
func (s *Service) List(ctx context.Context) ([]Post, error) {
	if _, err := s.EnsureDefaults(ctx); err != nil {
		return nil, err
	}
	return s.repo.List(ctx, ListLimit)
}

// Create publishes a post. Fields are trimmed and truncated to their limits.
func (s *Service) Create(ctx context.Context, draft Draft) (Post, error) {
	title := strings.TrimSpace(draft.Title)
	summary := strings.TrimSpace(draft.Summary)
	if title == "" || summary == "" {
		return Post{}, fmt.Errorf("%w: title and summary are required", apperr.ErrInvalidRequest)
	}
	category := truncate(strings.TrimSpace(draft.Category), MaxCategoryLength)
	if category == "" {
		category = DefaultCategory
	}
	author := draft.AuthorEmail
	if author == "" {
		author = s.defaultAuthor
	}
	return s.repo.Create(ctx, Post{
		Title:       truncate(title, MaxTitleLength),
		Summary:     truncate(summary, MaxSummaryLength),
		Category:    category,
		AuthorEmail: author,
		CreatedAt:   s.now(),
	})
}

// Delete removes a post.
func (s *Service) Delete(ctx context.Context, id int64) error {
	err := s.repo.Delete(ctx, id)
	if errors.Is(err, ErrPostNotFound) {
		return fmt.Errorf("%w: news item %d", apperr.ErrNotFound, id)
	}
	return err
}

// Count returns the number of stored posts.
func (s *Service) Count(ctx context.Context) (int, error) {
	return s.repo.Count(ctx)
}

func truncate(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit])
}
