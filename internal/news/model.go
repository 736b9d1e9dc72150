package news

import "time"

// Field limits and defaults of a post.
const (
	MaxTitleLength    = 200
	MaxSummaryLength  = 1000
	MaxCategoryLength = 50
	DefaultCategory   = "General"
	// ListLimit bounds the number of posts returned by a listing.
	ListLimit = 100
)

// Post is an admin-authored announcement.
type Post struct {
	ID          int64
	Title       string
	Summary     string
	Category    string
	AuthorEmail string
	CreatedAt   time.Time
}

// View is the JSON shape of a post.
type View struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Summary     string    `json:"summary"`
	Category    string    `json:"category"`
	AuthorEmail string    `json:"authorEmail"`
	Date        string    `json:"date"`
	CreatedAt   time.Time `json:"createdAt"`
}

// View converts p into its API representation.
func (p Post) View() View {
	category := p.Category
	if category == "" {
		category = DefaultCategory
	}
	return View{
		ID:          p.ID,
		Title:       p.Title,
		Summary:     p.Summary,
		Category:    category,
		AuthorEmail: p.AuthorEmail,
		Date:        p.CreatedAt.Format(time.DateOnly),
		CreatedAt:   p.CreatedAt,
	}
}

// Draft is the admin input for a new post.
type Draft struct {
	Title       string
	Summary     string
	Category    string
	AuthorEmail string
}

type defaultPost struct {
	title    string
	summary  string
	category string
	date     string
}

var defaultPosts = []defaultPost{
	{
		title:    "Aggregator is live in demo mode",
		summary:  "Swap, Deposit, News and Admin Profile tabs are now available for the course project.",
		category: "Product",
		date:     "2026-02-04",
	},
	{
		title:    "Admin profile now shows 25 users",
		summary:  "The admin panel gained user cards, transactions and overall USD statistics.",
		category: "Admin",
		date:     "2026-02-03",
	},
	{
		title:    "Transaction history updated",
		summary:  "Every user sees their own operations with direction and dollar amount.",
		category: "Transactions",
		date:     "2026-02-02",
	},
	{
		title:    "Student team prepares a public demo day",
		summary:  "The Aggregator team is testing login, deposit and token swap scenarios.",
		category: "Team",
		date:     "2026-01-31",
	},
}
