package catalog

// SearchResponse is the body of a Google Books volumes query
type SearchResponse struct {
	TotalItems int      `json:"totalItems"`
	Items      []Volume `json:"items"`
}

// Volume is a single Google Books result
type Volume struct {
	ID         string      `json:"id"`
	VolumeInfo VolumeInfo  `json:"volumeInfo"`
	SearchInfo *SearchInfo `json:"searchInfo,omitempty"`
}

// VolumeInfo holds the bibliographic fields of a volume
type VolumeInfo struct {
	Title         string      `json:"title"`
	Subtitle      string      `json:"subtitle,omitempty"`
	Authors       []string    `json:"authors,omitempty"`
	Description   string      `json:"description,omitempty"`
	PublishedDate string      `json:"publishedDate,omitempty"`
	Categories    []string    `json:"categories,omitempty"`
	PageCount     int         `json:"pageCount,omitempty"`
	ImageLinks    *ImageLinks `json:"imageLinks,omitempty"`
}

// ImageLinks lists cover image URLs
type ImageLinks struct {
	SmallThumbnail string `json:"smallThumbnail,omitempty"`
	Thumbnail      string `json:"thumbnail,omitempty"`
}

// SearchInfo carries the snippet matched by a search
type SearchInfo struct {
	TextSnippet string `json:"textSnippet,omitempty"`
}

// Thumbnail returns the best available cover URL, or ""
func (v Volume) Thumbnail() string {
	if v.VolumeInfo.ImageLinks == nil {
		return ""
	}
	if v.VolumeInfo.ImageLinks.Thumbnail != "" {
		return v.VolumeInfo.ImageLinks.Thumbnail
	}
	return v.VolumeInfo.ImageLinks.SmallThumbnail
}
