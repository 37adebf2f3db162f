package location

import (
	"regexp"
	"strings"
)

// QueryClass is the tier a query is routed to.
type QueryClass int

const (
	ClassEmpty QueryClass = iota
	ClassCurrentLocation
	ClassBuildingCode
	ClassPlaceName
)

func (c QueryClass) String() string {
	switch c {
	case ClassEmpty:
		return "empty"
	case ClassCurrentLocation:
		return "current_location"
	case ClassBuildingCode:
		return "building_code"
	default:
		return "place_name"
	}
}

// DefaultCodePrefixes are the code families issued on campus.
var DefaultCodePrefixes = []string{"DAL", "VAST"}

var currentLocationAliases = map[string]struct{}{
	"my location":      {},
	"current location": {},
}

// Classifier decides which resolution tier a query belongs to.
type Classifier struct {
	code *regexp.Regexp
}

// NewClassifier builds a classifier for codes of the form PREFIX(-SEGMENT)+ where each
// segment is letters or digits. Matching ignores case.
func NewClassifier(prefixes []string) *Classifier {
	if len(prefixes) == 0 {
		prefixes = DefaultCodePrefixes
	}

	quoted := make([]string, 0, len(prefixes))
	for _, p := range prefixes {
		p = strings.TrimSpace(p)
		if p != "" {
			quoted = append(quoted, regexp.QuoteMeta(p))
		}
	}

	return &Classifier{
		code: regexp.MustCompile(`(?i)^(?:` + strings.Join(quoted, "|") + `)(?:-[A-Z0-9]+)+$`),
	}
}

// Classify routes a query to a tier. Rules are checked in tier order.
func (c *Classifier) Classify(query string) QueryClass {
	q := strings.TrimSpace(query)
	switch {
	case q == "":
		return ClassEmpty
	case isCurrentLocationAlias(q):
		return ClassCurrentLocation
	case c.code.MatchString(q):
		return ClassBuildingCode
	default:
		return ClassPlaceName
	}
}

var defaultClassifier = NewClassifier(DefaultCodePrefixes)

// Classify routes a query using the default code prefixes.
func Classify(query string) QueryClass {
	return defaultClassifier.Classify(query)
}

func isCurrentLocationAlias(q string) bool {
	_, ok := currentLocationAliases[strings.Join(strings.Fields(strings.ToLower(q)), " ")]
	return ok
}
