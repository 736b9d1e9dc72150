package news

import (
	"context"
	"sort"
	"sync"
)

type memoryRepository struct {
	mu     sync.RWMutex
	nextID int64
	posts  map[int64]Post
}

// NewMemoryRepository builds an in-memory news store for tests and development.
func NewMemoryRepository() Repository {
	return &memoryRepository{posts: make(map[int64]Post)}
}

func (r *memoryRepository) List(_ context.Context, limit int) ([]Post, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Post, 0, len(r.posts))
	for _, p := range r.posts {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *memoryRepository) Create(_ context.Context, post Post) (Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	post.ID = r.nextID
	r.posts[post.ID] = post
	return post, nil
}

func (r *memoryRepository) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.posts[id]; !ok {
		return ErrPostNotFound
	}
	delete(r.posts, id)
	return nil
}

func (r *memoryRepository) Count(_ context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.posts), nil
}
