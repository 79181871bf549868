package zendesk

import "time"

// Article is one help-center article as returned by the listing API,
// reduced to the fields the sync pipeline consumes.
type Article struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	HTMLURL   string    `json:"html_url"`
	UpdatedAt time.Time `json:"updated_at"`
}

type listResponse struct {
	Articles []Article `json:"articles"`
	NextPage *string   `json:"next_page"`
}
