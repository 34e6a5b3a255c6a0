package analyzer

import "github.com/ibeckermayer/replyloop/internal/types"

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s))
	copy(out, s)
	return out
}

func cloneItem(it types.Item) types.Item {
	it.Comments = cloneStrings(it.Comments)
	return it
}

func cloneClassification(c types.Classification) types.Classification {
	c.Categories = cloneStrings(c.Categories)
	return c
}

// uniqueStrings drops repeats while keeping first-seen order
func uniqueStrings(in []string) []string {
	seen := make(map[string]bool, len(in))
	var out []string
	for _, s := range in {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
