package classify

import "strings"

// FallbackCategory is used whenever classification fails or the model answers
// with a label outside the fixed set.
const FallbackCategory = "Uncategorized"

const FallbackControversy = 1

var Categories = []string{
	"Politics & Government",
	"Business & Finance",
	"Technology",
	"Health",
	"Science & Environment",
	"Sports",
	"Entertainment",
	"Crime & Law",
	"Lifestyle",
	"World News",
	"Education",
	"Opinion & Editorials",
}

var categorySet = func() map[string]struct{} {
	set := make(map[string]struct{}, len(Categories))
	for _, c := range Categories {
		set[c] = struct{}{}
	}
	return set
}()

// IsKnownCategory reports whether c is a member of the fixed enumeration.
func IsKnownCategory(c string) bool {
	_, ok := categorySet[c]
	return ok
}

func categoryList() string {
	return strings.Join(Categories, ", ")
}
