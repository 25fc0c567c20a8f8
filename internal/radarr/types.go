package radarr

// Tag is a catalog label resolved by name, created when absent.
type Tag struct {
	ID    int    `json:"id,omitempty"`
	Label string `json:"label"`
}

// Movie is a catalog entry. The same shape is returned by the lookup
// endpoint, where ID is zero and AddOptions unset.
type Movie struct {
	ID               int64       `json:"id,omitempty"`
	Title            string      `json:"title"`
	TMDBID           int64       `json:"tmdbId"`
	Year             int         `json:"year,omitempty"`
	Monitored        bool        `json:"monitored"`
	QualityProfileID int         `json:"qualityProfileId,omitempty"`
	RootFolderPath   string      `json:"rootFolderPath,omitempty"`
	Tags             []int       `json:"tags,omitempty"`
	AddOptions       *AddOptions `json:"addOptions,omitempty"`
}

// AddOptions controls what the manager does right after a create.
type AddOptions struct {
	SearchForMovie bool `json:"searchForMovie"`
}
