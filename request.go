// FILE: lixenwraith/appsettings/request.go
package appsettings

// RequestKind distinguishes a member read from a member call.
type RequestKind int

const (
	PropertyGet RequestKind = iota
	MethodCall
)

func (k RequestKind) String() string {
	if k == MethodCall {
		return "call"
	}
	return "property"
}

// Request is one access against a Configuration: a member name, how it was
// accessed, an optional target kind and, for calls, the ordered default chain.
type Request struct {
	Name string
	Kind RequestKind
	// Type is the requested target kind. KindAbsent leaves the value untyped.
	Type Kind
	// Args are candidate defaults, consulted in order when the key is absent.
	Args []any
}

// Outcome is the result of resolving a Request: either a leaf Value
// (possibly absent) or a child Configuration, never both.
type Outcome struct {
	value   Value
	section *Configuration
}

// IsSection reports whether the request denoted a namespace.
func (o Outcome) IsSection() bool {
	return o.section != nil
}

// Value returns the leaf value. It is absent for sections.
func (o Outcome) Value() Value {
	return o.value
}

// Section returns the child facade when the request denoted a namespace.
func (o Outcome) Section() (Configuration, bool) {
	if o.section == nil {
		return Configuration{}, false
	}
	return *o.section, true
}
