package pipeline

// Variant selects which suggestion strategy a flavor uses.
type Variant string

const (
	VariantRelated  Variant = "related"
	VariantContrast Variant = "contrast"
)

// Flavor binds a recommendation strategy to its library collection, snapshot
// file and acquisition tag set.
type Flavor struct {
	Name           string
	Variant        Variant
	CollectionName string
	SnapshotFile   string
	Tags           []string
}

// Flavors returns the two configured flavors, reconciled independently per
// seed title.
func Flavors() []Flavor {
	return []Flavor{
		{
			Name:           "recently-watched",
			Variant:        VariantRelated,
			CollectionName: "Based on your recently watched movie",
			SnapshotFile:   "recently_watched_collection.json",
			Tags:           []string{"movies", "due-to-previously-watched"},
		},
		{
			Name:           "change-of-taste",
			Variant:        VariantContrast,
			CollectionName: "Change of Taste",
			SnapshotFile:   "change_of_taste_collection.json",
			Tags:           []string{"movies", "change-of-taste"},
		},
	}
}
