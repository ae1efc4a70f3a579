package search

// Kind identifies the catalog entity type in a search result.
type Kind string

const (
	KindService  Kind = "service"
	KindVideo    Kind = "video"
	KindCuration Kind = "curation"
)

// Result is a single search hit returned to the caller.
type Result struct {
	Kind       Kind   `json:"kind"`
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Image      string `json:"image,omitempty"`
	Snippet    string `json:"snippet,omitempty"`
	CategoryID int64  `json:"category_id,omitempty"`
}

// Query describes a search request. ExcludeIDs removes entities that are
// already placed in the caller's list so they are never offered again.
type Query struct {
	Text       string
	Kind       Kind // empty = all kinds
	CategoryID int64
	ExcludeIDs []int64
	Limit      int
	Offset     int
}

// Response is the envelope returned by the search endpoint.
type Response struct {
	Results []Result `json:"results"`
	Total   int      `json:"total"`
	Query   string   `json:"query"`
}

// Searcher can execute a full-text search.
type Searcher interface {
	Search(q Query) ([]Result, int, error)
	Healthy() bool
}

// Indexer can push catalog entities into a search index.
type Indexer interface {
	IndexService(rec ServiceRecord) error
	IndexVideo(rec VideoRecord) error
	IndexCuration(rec CurationRecord) error
	DeleteService(id int64) error
}

// ServiceRecord is the data we index for an AI service.
type ServiceRecord struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Summary    string `json:"summary"`
	LogoURL    string `json:"logoUrl"`
	CategoryID int64  `json:"categoryId"`
	IsActive   bool   `json:"isActive"`
}

// VideoRecord is the data we index for a video.
type VideoRecord struct {
	ID           int64  `json:"id"`
	Title        string `json:"title"`
	ThumbnailURL string `json:"thumbnailUrl"`
	IsActive     bool   `json:"isActive"`
}

// CurationRecord is the data we index for a curation.
type CurationRecord struct {
	ID         int64  `json:"id"`
	Title      string `json:"title"`
	Subtitle   string `json:"subtitle"`
	CoverImage string `json:"coverImage"`
	IsActive   bool   `json:"isActive"`
}
