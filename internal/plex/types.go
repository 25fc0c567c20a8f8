package plex

// Item is one library entry: a movie, or whatever else a snapshot record
// happened to resolve to (Type distinguishes).
type Item struct {
	RatingKey string `json:"ratingKey"`
	Title     string `json:"title"`
	Year      int    `json:"year,omitempty"`
	Type      string `json:"type"`
}

// IsMovie reports whether the item is a movie-kind library entry.
func (i Item) IsMovie() bool { return i.Type == "movie" }

// Collection is a library collection header.
type Collection struct {
	RatingKey  string
	Title      string
	ChildCount int
}

// rootResponse is the response of GET /.
type rootResponse struct {
	MediaContainer struct {
		MachineIdentifier string `json:"machineIdentifier"`
		FriendlyName      string `json:"friendlyName"`
	} `json:"MediaContainer"`
}

// sectionsResponse is the response of GET /library/sections.
type sectionsResponse struct {
	MediaContainer struct {
		Directory []struct {
			Key   string `json:"key"`
			Title string `json:"title"`
			Type  string `json:"type"`
		} `json:"Directory"`
	} `json:"MediaContainer"`
}

// metadataResponse is the response of search, metadata fetch and collection
// children endpoints.
type metadataResponse struct {
	MediaContainer struct {
		Metadata []metadataEntry `json:"Metadata"`
	} `json:"MediaContainer"`
}

type metadataEntry struct {
	RatingKey  string `json:"ratingKey"`
	Title      string `json:"title"`
	Year       int    `json:"year"`
	Type       string `json:"type"`
	ChildCount int    `json:"childCount"`
	Collection []struct {
		Tag string `json:"tag"`
	} `json:"Collection"`
}

func (m metadataEntry) item() Item {
	return Item{
		RatingKey: m.RatingKey,
		Title:     m.Title,
		Year:      m.Year,
		Type:      m.Type,
	}
}
