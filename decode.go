// FILE: lixenwraith/appsettings/decode.go
package appsettings

import (
	"fmt"
	"net"
	"net/url"
	"reflect"
	"time"

	"github.com/mitchellh/mapstructure"
)

// Bind decodes the direct leaves of the facade's namespace into target, a
// non-nil pointer to a struct or map. Fields are matched by `toml` tag or
// name, case-insensitively. Nested namespaces are not descended into; bind a
// Section for those. Numbers, times and durations are parsed with the
// facade's locale.
func (c Configuration) Bind(target any) error {
	rv := reflect.ValueOf(target)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return fmt.Errorf("bind target must be non-nil pointer, got %T", target)
	}
	c = c.ensure()

	leaves := make(map[string]any)
	for _, name := range c.Keys() {
		if describe(c.store, c.prefix, name) == memberNamespace {
			continue
		}
		if raw, ok := c.store.Lookup(c.path(name)); ok {
			leaves[name] = raw
		}
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		TagName:          "toml",
		WeaklyTypedInput: true,
		DecodeHook:       c.decodeHook(),
	})
	if err != nil {
		return fmt.Errorf("decoder creation failed: %w", err)
	}

	if err := decoder.Decode(leaves); err != nil {
		return fmt.Errorf("bind %q: %w", c.prefix, err)
	}
	return nil
}

// decodeHook composes the hooks Bind applies to setting text.
func (c Configuration) decodeHook() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		textParserHookFunc(),
		stringToLocaleKindHookFunc(c.locale),
		mapstructure.StringToSliceHookFunc(","),
	)
}

var (
	timeType     = reflect.TypeOf(time.Time{})
	durationType = reflect.TypeOf(time.Duration(0))
)

// stringToLocaleKindHookFunc parses setting text for numeric, bool, time and
// duration fields with Convert, so "1,05" fills a float64 under a German locale.
func stringToLocaleKindHookFunc(loc Locale) mapstructure.DecodeHookFunc {
	return func(f reflect.Type, t reflect.Type, data any) (any, error) {
		if f.Kind() != reflect.String {
			return data, nil
		}
		kind, ok := targetKind(t)
		if !ok {
			return data, nil
		}
		v, err := Convert(data.(string), kind, loc)
		if err != nil {
			return nil, err
		}
		return v.Interface(), nil
	}
}

func targetKind(t reflect.Type) (Kind, bool) {
	switch {
	case t == timeType:
		return KindTime, true
	case t == durationType:
		return KindDuration, true
	}
	switch t.Kind() {
	case reflect.Bool:
		return KindBool, true
	case reflect.Float32, reflect.Float64:
		return KindFloat, true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return KindInt, true
	}
	return KindAbsent, false
}

// textParser turns setting text into a pointer to the parsed value.
type textParser struct {
	maxLen int
	parse  func(string) (any, error)
}

// textParsers covers the structured types settings commonly hold as text.
// Lengths bound the longest valid IPv6 address, IPv6 CIDR and URL.
var textParsers = map[reflect.Type]textParser{
	reflect.TypeOf(net.IP{}): {45, func(s string) (any, error) {
		ip := net.ParseIP(s)
		if ip == nil {
			return nil, fmt.Errorf("invalid IP address: %s", s)
		}
		return &ip, nil
	}},
	reflect.TypeOf(net.IPNet{}): {49, func(s string) (any, error) {
		_, ipnet, err := net.ParseCIDR(s)
		if err != nil {
			return nil, fmt.Errorf("invalid CIDR: %w", err)
		}
		return ipnet, nil
	}},
	reflect.TypeOf(url.URL{}): {2048, func(s string) (any, error) {
		u, err := url.Parse(s)
		if err != nil {
			return nil, fmt.Errorf("invalid URL: %w", err)
		}
		return u, nil
	}},
}

// textParserHookFunc fills net.IP, net.IPNet and url.URL fields, or pointers
// to them, from setting text.
func textParserHookFunc() mapstructure.DecodeHookFunc {
	return func(f reflect.Type, t reflect.Type, data any) (any, error) {
		if f.Kind() != reflect.String {
			return data, nil
		}
		elem := t
		if t.Kind() == reflect.Ptr {
			elem = t.Elem()
		}
		p, ok := textParsers[elem]
		if !ok {
			return data, nil
		}

		raw := data.(string)
		if len(raw) > p.maxLen {
			return nil, fmt.Errorf("%s value too long: %d bytes", elem, len(raw))
		}
		ptr, err := p.parse(raw)
		if err != nil {
			return nil, err
		}
		if t.Kind() == reflect.Ptr {
			return ptr, nil
		}
		return reflect.ValueOf(ptr).Elem().Interface(), nil
	}
}
