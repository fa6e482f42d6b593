package reconcile

import "sort"

// FindUntracked returns the names in all that are not in tracked.
func FindUntracked(all, tracked map[string]struct{}) map[string]struct{} {
	untracked := make(map[string]struct{})
	for name := range all {
		if _, ok := tracked[name]; !ok {
			untracked[name] = struct{}{}
		}
	}
	return untracked
}

// SortedNames returns the members of set in ascending order.
func SortedNames(set map[string]struct{}) []string {
	names := make([]string, 0, len(set))
	for name := range set {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NameSet builds a set from names.
func NameSet(names ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return set
}
