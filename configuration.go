// FILE: lixenwraith/appsettings/configuration.go
package appsettings

import (
	"fmt"
	"strings"
	"sync"
)

// Configuration is an immutable view of a Store rooted at a namespace prefix
// and bound to a conversion locale. Navigating into a namespace returns a new
// value; a Configuration is safe to copy and share between goroutines.
type Configuration struct {
	prefix string
	// depth counts namespace descents from the root facade.
	depth  int
	locale Locale
	store  Store
	// localeSet is false only for the zero Configuration, whose locale is
	// chosen on first use.
	localeSet bool
}

// Option customizes a root Configuration.
type Option func(*options)

type options struct {
	section string
	locale  *Locale
}

// WithSection roots the facade at a named settings section, e.g. "Production".
func WithSection(name string) Option {
	return func(o *options) {
		o.section = name
	}
}

// WithLocale fixes the conversion locale instead of the store's or process default.
func WithLocale(loc Locale) Option {
	return func(o *options) {
		o.locale = &loc
	}
}

// New creates a root Configuration over store. A nil store selects DefaultStore.
// The locale is taken from WithLocale, else from a LocaleStore, else CurrentLocale.
func New(store Store, opts ...Option) Configuration {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if store == nil {
		store = DefaultStore()
	}

	loc := storeLocale(store)
	if o.locale != nil {
		loc = *o.locale
	}

	return Configuration{
		prefix:    strings.Trim(o.section, KeyDelimiter),
		locale:    loc,
		store:     store,
		localeSet: true,
	}
}

// storeLocale is the locale a LocaleStore reports, else CurrentLocale.
func storeLocale(store Store) Locale {
	if ls, ok := store.(LocaleStore); ok {
		if loc, found := ls.Locale(); found {
			return loc
		}
	}
	return CurrentLocale()
}

// Default creates a root Configuration over the process-wide default store.
func Default(opts ...Option) Configuration {
	return New(DefaultStore(), opts...)
}

var (
	defaultMu    sync.RWMutex
	defaultStore Store
)

// SetDefaultStore replaces the store used by Default. nil restores the environment store.
func SetDefaultStore(s Store) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultStore = s
}

// DefaultStore returns the process-wide store: the one installed with
// SetDefaultStore, or an EnvStore over the unprefixed process environment.
func DefaultStore() Store {
	defaultMu.RLock()
	s := defaultStore
	defaultMu.RUnlock()
	if s != nil {
		return s
	}
	return NewEnvStore("")
}

// Prefix returns the dotted namespace path of the facade, "" at the root.
func (c Configuration) Prefix() string { return c.prefix }

// Locale returns the conversion locale.
func (c Configuration) Locale() Locale { return c.ensure().locale }

// Store returns the backing store.
func (c Configuration) Store() Store { return c.store }

// WithLocale returns a copy of c converting with loc.
func (c Configuration) WithLocale(loc Locale) Configuration {
	c.locale = loc
	c.localeSet = true
	return c
}

// ensure gives the zero Configuration the default store and the locale New
// would choose for it.
func (c Configuration) ensure() Configuration {
	if c.store == nil {
		c.store = DefaultStore()
	}
	if !c.localeSet {
		c.locale = storeLocale(c.store)
		c.localeSet = true
	}
	return c
}

func (c Configuration) path(name string) string {
	return joinPath(c.prefix, name)
}

// Resolve classifies and answers one request. A namespace always wins over
// leaf lookup. A leaf that is absent and has no usable default resolves to an
// absent Value on a root facade, and to a *KeyNotFoundError on a facade
// reached by descending into a namespace.
func (c Configuration) Resolve(req Request) (Outcome, error) {
	c = c.ensure()
	if req.Name == "" || strings.Contains(req.Name, KeyDelimiter) {
		return Outcome{}, fmt.Errorf("%w: member name %q", ErrInvalidRequest, req.Name)
	}

	if describe(c.store, c.prefix, req.Name) == memberNamespace {
		child := c.child(req.Name)
		return Outcome{section: &child}, nil
	}

	var defaults []any
	if req.Kind == MethodCall {
		defaults = req.Args
	}
	path := c.path(req.Name)
	v, found, err := resolve(c.store, path, req.Type, c.locale, defaults)
	if err != nil {
		return Outcome{}, err
	}
	if !found && c.depth > 0 {
		return Outcome{}, &KeyNotFoundError{Path: path}
	}
	return Outcome{value: v}, nil
}

// Property resolves a plain member read.
func (c Configuration) Property(name string) (Outcome, error) {
	return c.Resolve(Request{Name: name, Kind: PropertyGet})
}

// Call resolves a member call whose arguments form the default chain.
// Without arguments it behaves exactly like Property.
func (c Configuration) Call(name string, defaults ...any) (Outcome, error) {
	return c.Resolve(Request{Name: name, Kind: MethodCall, Args: defaults})
}

// Value resolves name as a leaf with the given defaults and returns its raw
// or default value. It fails with ErrNamespace if name is a namespace.
func (c Configuration) Value(name string, defaults ...any) (Value, error) {
	return c.leaf(Request{Name: name, Kind: MethodCall, Args: defaults})
}

// Typed resolves name as a leaf converted to kind. A stored value is tried
// first, then defaults in order; defaults are returned unconverted.
func (c Configuration) Typed(name string, kind Kind, defaults ...any) (Value, error) {
	return c.leaf(Request{Name: name, Kind: MethodCall, Type: kind, Args: defaults})
}

func (c Configuration) leaf(req Request) (Value, error) {
	out, err := c.Resolve(req)
	if err != nil {
		return Value{}, err
	}
	if out.IsSection() {
		return Value{}, fmt.Errorf("%w: %s", ErrNamespace, c.path(req.Name))
	}
	return out.Value(), nil
}

// Section descends into the namespace name. It fails with *KeyNotFoundError
// when no such namespace exists, at the root as well as deeper.
func (c Configuration) Section(name string) (Configuration, error) {
	c = c.ensure()
	if name == "" || strings.Contains(name, KeyDelimiter) {
		return Configuration{}, fmt.Errorf("%w: section name %q", ErrInvalidRequest, name)
	}
	if describe(c.store, c.prefix, name) != memberNamespace {
		return Configuration{}, &KeyNotFoundError{Path: c.path(name)}
	}
	return c.child(name), nil
}

// Sub descends through every segment of a dotted namespace path.
// An empty path returns c unchanged.
func (c Configuration) Sub(path string) (Configuration, error) {
	path = strings.Trim(path, KeyDelimiter)
	if path == "" {
		return c.ensure(), nil
	}
	cur := c
	for _, segment := range strings.Split(path, KeyDelimiter) {
		next, err := cur.Section(segment)
		if err != nil {
			return Configuration{}, err
		}
		cur = next
	}
	return cur, nil
}

// Path resolves a dotted member chain such as "ThirdPartyApi.Key". Every
// segment but the last must be a namespace; errors carry the full path up to
// the failing segment.
func (c Configuration) Path(path string) (Outcome, error) {
	segments := strings.Split(path, KeyDelimiter)
	cur := c
	for _, segment := range segments[:len(segments)-1] {
		next, err := cur.Section(segment)
		if err != nil {
			return Outcome{}, err
		}
		cur = next
	}
	return cur.Property(segments[len(segments)-1])
}

// Get reads key below the facade prefix without member dispatch, so keys
// that are not valid member names ("weird:key") stay reachable.
func (c Configuration) Get(key string) (string, bool) {
	c = c.ensure()
	return c.store.Lookup(c.path(key))
}

// GetAs is Get converted to kind. An absent key yields an absent Value.
func (c Configuration) GetAs(key string, kind Kind) (Value, error) {
	c = c.ensure()
	v, _, err := lookup(c.store, c.path(key), kind, c.locale)
	return v, err
}

// Has reports whether name is a namespace or a stored leaf below the facade.
func (c Configuration) Has(name string) bool {
	c = c.ensure()
	if describe(c.store, c.prefix, name) == memberNamespace {
		return true
	}
	_, ok := c.store.Lookup(c.path(name))
	return ok
}

// Keys returns the names of the direct members of the facade's namespace.
func (c Configuration) Keys() []string {
	c = c.ensure()
	return childNames(c.store.Keys(c.prefix), c.prefix)
}

// Children returns a facade for every direct member that is a namespace.
func (c Configuration) Children() []Configuration {
	c = c.ensure()
	var children []Configuration
	for _, name := range c.Keys() {
		if describe(c.store, c.prefix, name) == memberNamespace {
			children = append(children, c.child(name))
		}
	}
	return children
}
