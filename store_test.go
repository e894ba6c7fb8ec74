// FILE: lixenwraith/appsettings/store_test.go
package appsettings

import (
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapStore(t *testing.T) {
	src := map[string]string{"A": "1", "Ns.B": "2", "Ns.Deep.C": "3"}
	s := NewMapStore(src)
	src["A"] = "changed"

	v, ok := s.Lookup("A")
	assert.True(t, ok)
	assert.Equal(t, "1", v, "store keeps its own copy")

	assert.True(t, s.HasDescendants("Ns"))
	assert.True(t, s.HasDescendants("Ns.Deep"))
	assert.False(t, s.HasDescendants("A"))
	assert.False(t, s.HasDescendants("N"))

	assert.Equal(t, []string{"A", "Ns.B", "Ns.Deep.C"}, s.Keys(""))
	assert.Equal(t, []string{"Ns.B", "Ns.Deep.C"}, s.Keys("Ns"))

	s.Set("Ns.E", "")
	v, ok = s.Lookup("Ns.E")
	assert.True(t, ok)
	assert.Empty(t, v)

	s.Delete("A")
	_, ok = s.Lookup("A")
	assert.False(t, ok)

	s.DeclareSection("Empty")
	assert.True(t, s.HasSection("Empty"))
	assert.False(t, s.HasSection("Ns"))

	s.Replace(map[string]string{"X": "y"})
	assert.Equal(t, map[string]string{"X": "y"}, s.Snapshot())
	assert.Equal(t, 1, s.Len())
}

func TestMapStoreConcurrentAccess(t *testing.T) {
	s := NewMapStore(map[string]string{"Ns.Key": "0"})
	cfg := New(s, WithLocale(Invariant))

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				s.Set("Ns.Key", "1")
				s.Set("Ns.Other", "2")
				s.Delete("Ns.Other")
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				ns, err := cfg.Section("Ns")
				if err != nil {
					t.Error(err)
					return
				}
				if _, err := ns.Typed("Key", KindInt); err != nil {
					t.Error(err)
					return
				}
			}
		}()
	}
	wg.Wait()
}

// TestEnvStore tests the process environment store
func TestEnvStore(t *testing.T) {
	t.Setenv("APPSTORETEST_ApiKey", "abc")
	t.Setenv("APPSTORETEST_ThirdPartyApi__Key", "something")
	t.Setenv("APPSTORETEST_ThirdPartyApi__Secret", "blah")
	t.Setenv("APPSTORETEST_Empty", "")

	s := NewEnvStore("APPSTORETEST_")
	assert.Equal(t, "APPSTORETEST_", s.Prefix())

	v, ok := s.Lookup("ApiKey")
	assert.True(t, ok)
	assert.Equal(t, "abc", v)

	v, ok = s.Lookup("ThirdPartyApi.Key")
	assert.True(t, ok)
	assert.Equal(t, "something", v)

	v, ok = s.Lookup("Empty")
	assert.True(t, ok)
	assert.Empty(t, v)

	_, ok = s.Lookup("Missing")
	assert.False(t, ok)

	assert.True(t, s.HasDescendants("ThirdPartyApi"))
	assert.False(t, s.HasDescendants("ApiKey"))

	assert.Equal(t, []string{"ThirdPartyApi.Key", "ThirdPartyApi.Secret"}, s.Keys("ThirdPartyApi"))
	assert.Contains(t, s.Keys(""), "ApiKey")

	t.Run("OversizedValue", func(t *testing.T) {
		t.Setenv("APPSTORETEST_Huge", strings.Repeat("x", MaxValueSize+1))
		_, ok := s.Lookup("Huge")
		assert.False(t, ok)

		cfg := New(s, WithLocale(Invariant))
		v, err := cfg.Value("Huge", "fallback")
		require.NoError(t, err)
		assert.Equal(t, StringValue("fallback"), v, "untyped reads fall through to defaults")

		_, err = cfg.Typed("Huge", KindInt, 5)
		assert.ErrorIs(t, err, ErrValueSize)

		_, found, err := s.LookupTyped("ApiKey", KindInt)
		assert.ErrorIs(t, err, ErrKindNotSupported)
		assert.False(t, found)
	})

	t.Run("Facade", func(t *testing.T) {
		cfg := New(s)
		api, err := cfg.Section("ThirdPartyApi")
		require.NoError(t, err)
		assert.Equal(t, []string{"Key", "Secret"}, api.Keys())

		_, err = api.Property("Null")
		var notFound *KeyNotFoundError
		require.ErrorAs(t, err, &notFound)
		assert.Equal(t, "ThirdPartyApi.Null", notFound.Path)
	})
}

func TestPathHelpers(t *testing.T) {
	assert.Equal(t, "a", joinPath("", "a"))
	assert.Equal(t, "a.b", joinPath("a", "b"))

	keys := []string{"b.x", "a", "b.y.z", "c.q", "bb.x"}
	assert.Equal(t, []string{"a", "b", "bb", "c"}, childNames(keys, ""))
	assert.Equal(t, []string{"x", "y"}, childNames(keys, "b"))
	assert.Empty(t, childNames(keys, "a"))
	assert.Equal(t, []string{"b.x", "b.y.z"}, keysUnder(keys, "b"))

	assert.Equal(t, "A__B__C", pathToEnvKey("A.B.C"))
	assert.Equal(t, "A.B.C", envKeyToPath("A__B__C"))

	assert.NoError(t, validatePath("Server.Port"))
	assert.NoError(t, validatePath("odd-1.snake_case"))
	for _, bad := range []string{"", "a..b", ".a", "weird:key", "sp ace"} {
		err := validatePath(bad)
		assert.True(t, errors.Is(err, ErrInvalidPath), bad)
	}
}

func TestFlattenMap(t *testing.T) {
	var sections []string
	flat := flattenMap(map[string]any{
		"a": 1,
		"b": map[string]any{
			"c":     "x",
			"empty": map[string]any{},
			"d":     map[any]any{"e": true},
		},
	}, "", func(p string) { sections = append(sections, p) })

	assert.Equal(t, map[string]any{"a": 1, "b.c": "x", "b.d.e": true}, flat)
	assert.ElementsMatch(t, []string{"b", "b.empty", "b.d"}, sections)

	nested := make(map[string]any)
	setNestedValue(nested, "x.y.z", "v")
	setNestedValue(nested, "x.w", 1)
	assert.Equal(t, map[string]any{"x": map[string]any{"y": map[string]any{"z": "v"}, "w": 1}}, nested)
}
