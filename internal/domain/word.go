package domain

// Category classifies a word entry in the corpus
type Category string

const (
	CategoryPerson    Category = "person"
	CategoryPlace     Category = "place"
	CategoryThing     Category = "thing"
	CategoryAnimal    Category = "animal"
	CategoryConcept   Category = "concept"
	CategoryBrand     Category = "brand"
	CategoryCharacter Category = "character"
)

// Categories lists every valid category, in a stable order
var Categories = []Category{
	CategoryPerson,
	CategoryPlace,
	CategoryThing,
	CategoryAnimal,
	CategoryConcept,
	CategoryBrand,
	CategoryCharacter,
}

// ValidCategory reports whether c is one of the known categories
func ValidCategory(c Category) bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// WordEntry is a candidate secret word with the facts the Oracle answers from
type WordEntry struct {
	Word     string   `json:"word"`
	Category Category `json:"category"`
	Facts    string   `json:"facts"`
}
