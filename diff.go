package agroi18n

import "sort"

// BundleDiff describes how a freshly fetched bundle differs from the copy
// already held in the store. Bundles are overwritten wholesale, never merged
// with deletion semantics, so Removed keys stay readable from the runtime
// state until the next page session.
type BundleDiff struct {
	// Added contains keys present only in the new bundle.
	Added []string

	// Changed contains keys whose translation differs between versions.
	Changed []string

	// Removed contains keys present only in the old bundle.
	Removed []string

	// Unchanged counts keys with identical translations in both versions.
	Unchanged int
}

// DiffBundles compares a stored bundle against a freshly fetched one.
func DiffBundles(old, new Bundle) BundleDiff {
	var d BundleDiff
	for k, v := range new {
		prev, ok := old[k]
		switch {
		case !ok:
			d.Added = append(d.Added, k)
		case prev != v:
			d.Changed = append(d.Changed, k)
		default:
			d.Unchanged++
		}
	}
	for k := range old {
		if _, ok := new[k]; !ok {
			d.Removed = append(d.Removed, k)
		}
	}
	sort.Strings(d.Added)
	sort.Strings(d.Changed)
	sort.Strings(d.Removed)
	return d
}

// Empty reports whether the two bundles were identical.
func (d BundleDiff) Empty() bool {
	return len(d.Added) == 0 && len(d.Changed) == 0 && len(d.Removed) == 0
}
