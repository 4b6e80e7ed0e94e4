package store

// Item is a single saved piece of content.
type Item struct {
	ID          int64  `json:"id"`
	Type        string `json:"type"` // url, note, pdf, image, screenshot
	Title       string `json:"title"`
	Content     string `json:"content,omitempty"`
	URL         string `json:"url,omitempty"`
	FilePath    string `json:"file_path,omitempty"`
	FaviconPath string `json:"favicon_path,omitempty"`
	Excerpt     string `json:"excerpt,omitempty"`
	Archived    bool   `json:"archived"`
	Favorite    bool   `json:"favorite"`
	CreatedAt   int64  `json:"created_at"`
	UpdatedAt   int64  `json:"updated_at"`

	// Tags is the comma-joined tag names, in link order.
	Tags string `json:"tags,omitempty"`
	// Metadata is attached for url items on Get.
	Metadata *URLMetadata `json:"metadata,omitempty"`
}

// URLMetadata is the 1:1 extension row for url items, written once at
// creation when extraction succeeded.
type URLMetadata struct {
	ItemID             int64  `json:"item_id"`
	Domain             string `json:"domain"`
	Author             string `json:"author,omitempty"`
	PublishedDate      string `json:"published_date,omitempty"`
	WordCount          int    `json:"word_count"`
	ReadingTimeMinutes int    `json:"reading_time_minutes"`
}

// Tag is a user-defined label, many-to-many with items.
type Tag struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Color     string `json:"color"`
	CreatedAt int64  `json:"created_at"`
	ItemCount int    `json:"item_count"`
}

// ItemUpdate carries a partial update: nil fields keep their prior value.
type ItemUpdate struct {
	Title    *string
	Content  *string
	Excerpt  *string
	Archived *bool
	Favorite *bool
	// Tags, when non-nil, replaces the item's full tag set.
	Tags *[]string
}

// Pagination describes one page of a result set.
type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

// ItemList is a filtered, paginated listing.
type ItemList struct {
	Items      []*Item    `json:"items"`
	Pagination Pagination `json:"pagination"`
}

// SearchHit is one full-text search result with highlighted snippets.
type SearchHit struct {
	Item
	Rank           float64 `json:"rank"`
	TitleSnippet   string  `json:"title_snippet"`
	ContentSnippet string  `json:"content_snippet"`
}

// SearchResults is a ranked, paginated search response.
type SearchResults struct {
	Results    []*SearchHit `json:"results"`
	Query      string       `json:"query"`
	Pagination Pagination   `json:"pagination"`
}
