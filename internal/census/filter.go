package census

import "strings"

// Filter selects databases by name prefix and tables by keyword, both
// case-insensitively.
type Filter struct {
	prefix   string
	keywords []string
}

func NewFilter(prefix string, keywords []string) Filter {
	lowered := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		lowered = append(lowered, strings.ToLower(kw))
	}
	return Filter{prefix: strings.ToLower(prefix), keywords: lowered}
}

func (f Filter) MatchDatabase(name string) bool {
	return strings.HasPrefix(strings.ToLower(name), f.prefix)
}

func (f Filter) MatchTable(name string) bool {
	name = strings.ToLower(name)
	for _, kw := range f.keywords {
		if strings.Contains(name, kw) {
			return true
		}
	}
	return false
}
