package versions

// UpdatedDependency is a dependency whose spec changed between two mappings
type UpdatedDependency struct {
	Package string `json:"package"`
	From    string `json:"from"`
	To      string `json:"to"`
}

// Delta is the structural difference between two dependency mappings
type Delta struct {
	Added   []Dependency        `json:"added"`
	Removed []Dependency        `json:"removed"`
	Updated []UpdatedDependency `json:"updated"`
}

// Empty reports whether the two mappings were identical
func (d Delta) Empty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0 && len(d.Updated) == 0
}

// Diff compares two dependency mappings. Added entries follow newDeps'
// order; removed and updated entries follow oldDeps' order. Specs are
// compared as plain strings. Neither input is modified.
func Diff(oldDeps, newDeps Dependencies) Delta {
	delta := Delta{
		Added:   []Dependency{},
		Removed: []Dependency{},
		Updated: []UpdatedDependency{},
	}

	for _, dep := range newDeps.List() {
		if _, ok := oldDeps.Get(dep.Package); !ok {
			delta.Added = append(delta.Added, dep)
		}
	}

	for _, dep := range oldDeps.List() {
		spec, ok := newDeps.Get(dep.Package)
		switch {
		case !ok:
			delta.Removed = append(delta.Removed, dep)
		case spec != dep.Version:
			delta.Updated = append(delta.Updated, UpdatedDependency{
				Package: dep.Package,
				From:    dep.Version,
				To:      spec,
			})
		}
	}

	return delta
}
