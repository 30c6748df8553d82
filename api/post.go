package api

// PostSummary is one entry of the posts list
type PostSummary struct {
	UID                  string `json:"uid"`
	FirstPublicationDate string `json:"first_publication_date"`
	Data                 struct {
		Title    string `json:"title"`
		Subtitle string `json:"subtitle"`
		Author   string `json:"author"`
	} `json:"data"`
}

// PostsPage is the response of the load-more endpoint. NextPage is null on the last page.
type PostsPage struct {
	Results  []PostSummary `json:"results"`
	NextPage *string       `json:"next_page"`
	Page     int           `json:"page"`
}

// Error is the body of every failed JSON response
type Error struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

// WebhookEvent is the payload the content repository posts when documents change
type WebhookEvent struct {
	Type      string   `json:"type"`
	Secret    string   `json:"secret"`
	Documents []string `json:"documents"`
}
