// FILE: lixenwraith/appsettings/namespace.go
package appsettings

type memberKind int

const (
	memberLeaf memberKind = iota
	memberNamespace
)

// describe decides whether prefix.name is a namespace: it has descendant
// keys, or the store declares it as a section. Everything else is a leaf.
func describe(store Store, prefix, name string) memberKind {
	path := joinPath(prefix, name)
	if store.HasDescendants(path) {
		return memberNamespace
	}
	if ss, ok := store.(SectionStore); ok && ss.HasSection(path) {
		return memberNamespace
	}
	return memberLeaf
}

// child returns a facade scoped one level deeper. It never touches the store.
func (c Configuration) child(name string) Configuration {
	return Configuration{
		prefix: joinPath(c.prefix, name),
		depth:  c.depth + 1,
		locale:    c.locale,
		store:     c.store,
		localeSet: c.localeSet,
	}
}
