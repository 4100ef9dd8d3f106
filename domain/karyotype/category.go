package karyotype

import "strings"

// Category is the display classification of an anomaly.
type Category string

const (
	CategoryMultichromosomal      Category = "Multichromosomal unbalanced"
	CategoryBalancedTranslocation Category = "Balanced translocation"
	CategoryUnbalancedTransloc    Category = "Unbalanced translocation"
	CategoryBalancedInsertion     Category = "Balanced insertion"
	CategoryPloidy                Category = "Ploidy"
	CategoryPleiade               Category = "Chromosomal pleiade"
	CategoryMarker                Category = "Marker chromosome"
	CategoryDoubleMinutes         Category = "Double minutes"
	CategoryHSR                   Category = "Homogeneously staining region"
	CategoryRing                  Category = "Ring"
	CategoryDerivative            Category = "Derivative chromosome"
	CategoryInsertion             Category = "Insertion"
	CategoryTranslocation         Category = "Translocation"
	CategoryDuplication           Category = "Duplication"
	CategoryDeletion              Category = "Deletion"
	CategoryTriplication          Category = "Triplication/quadruplication"
	CategoryDicentric             Category = "Dicentric chromosome"
	CategoryIsodicentric          Category = "Isodicentric chromosome"
	CategoryIsoderivative         Category = "Isoderivative chromosome"
	CategoryIsochromosome         Category = "Isochromosome"
	CategoryOther                 Category = "Other"
)

// PloidyMarker is the ISCN relative-ploidy notation matched by the Ploidy
// rule. The Tetraploidy and Triploidy pseudo-anomalies do not match it.
const PloidyMarker = "<2n>"

// GainOf returns the category of a whole-chromosome gain.
func GainOf(chromosome string) Category {
	return Category("Gain of chromosome " + chromosome)
}

// LossOf returns the category of a whole-chromosome loss.
func LossOf(chromosome string) Category {
	return Category("Loss of chromosome " + chromosome)
}

// classificationRule pairs a token test with the category it yields.
type classificationRule struct {
	name     string
	matches  func(token string) bool
	category func(token string) Category
}

func fixed(c Category) func(string) Category {
	return func(string) Category { return c }
}

func hasPrefix(prefix string) func(string) bool {
	return func(token string) bool { return strings.HasPrefix(token, prefix) }
}

func contains(substr string) func(string) bool {
	return func(token string) bool { return strings.Contains(token, substr) }
}

func equals(literal string) func(string) bool {
	return func(token string) bool { return token == literal }
}

// classificationRules is evaluated top to bottom and the first match wins.
// Several rules can match the same token, so the order is the contract.
var classificationRules = []classificationRule{
	{"multichromosomal", IsComplexMultichromosomal, fixed(CategoryMultichromosomal)},
	{"balanced-translocation", IsBalancedTranslocation, fixed(CategoryBalancedTranslocation)},
	{"unbalanced-translocation", IsUnbalancedTranslocation, fixed(CategoryUnbalancedTransloc)},
	{"balanced-insertion", IsBalancedInsertion, fixed(CategoryBalancedInsertion)},
	{"ploidy", equals(PloidyMarker), fixed(CategoryPloidy)},
	{"pleiade", contains("~"), fixed(CategoryPleiade)},
	{"marker", equals("+mar"), fixed(CategoryMarker)},
	{"double-minutes", contains("dmin"), fixed(CategoryDoubleMinutes)},
	{"hsr", hasPrefix("hsr"), fixed(CategoryHSR)},
	{"ring", hasPrefix("r("), fixed(CategoryRing)},
	{"derivative", hasPrefix("der"), fixed(CategoryDerivative)},
	{"insertion", hasPrefix("ins"), fixed(CategoryInsertion)},
	{"translocation", hasPrefix("t("), fixed(CategoryTranslocation)},
	{"gain", hasPrefix("+"), func(token string) Category { return GainOf(digitsOf(token)) }},
	{"loss", hasPrefix("-"), func(token string) Category { return LossOf(digitsOf(token)) }},
	{"duplication", hasPrefix("dup"), fixed(CategoryDuplication)},
	{"deletion", hasPrefix("del"), fixed(CategoryDeletion)},
	{"triplication", hasPrefix("trp"), fixed(CategoryTriplication)},
	{"dicentric", hasPrefix("dic"), fixed(CategoryDicentric)},
	{"isodicentric", hasPrefix("idic"), fixed(CategoryIsodicentric)},
	{"isoderivative", hasPrefix("ider"), fixed(CategoryIsoderivative)},
	{"isochromosome", func(token string) bool {
		return strings.HasPrefix(token, "i(") || strings.Contains(token, "iso")
	}, fixed(CategoryIsochromosome)},
}

// Classify maps a normalized token to its display category.
func Classify(token string) Category {
	category, _ := classify(token)
	return category
}

// classify also returns the name of the rule that fired, "" for Other.
func classify(token string) (Category, string) {
	for _, r := range classificationRules {
		if r.matches(token) {
			return r.category(token), r.name
		}
	}
	return CategoryOther, ""
}
