// FILE: lixenwraith/appsettings/configuration_test.go
package appsettings_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lixenwraith/appsettings"
)

func newFacade(values map[string]string, opts ...appsettings.Option) appsettings.Configuration {
	opts = append([]appsettings.Option{appsettings.WithLocale(appsettings.Invariant)}, opts...)
	return appsettings.New(appsettings.NewMapStore(values), opts...)
}

func section(t *testing.T, cfg appsettings.Configuration, name string) appsettings.Configuration {
	t.Helper()
	sub, err := cfg.Section(name)
	require.NoError(t, err)
	return sub
}

// TestEndToEndScenarios covers the reference behaviors of the facade
func TestEndToEndScenarios(t *testing.T) {
	t.Run("PresentKeyIgnoresDefault", func(t *testing.T) {
		cfg := newFacade(map[string]string{"ApiKey": "a0c5837ebb094b578b436f03121bb022"})

		out, err := cfg.Property("ApiKey")
		require.NoError(t, err)
		assert.False(t, out.IsSection())
		assert.Equal(t, appsettings.StringValue("a0c5837ebb094b578b436f03121bb022"), out.Value())

		out, err = cfg.Call("ApiKey", "default")
		require.NoError(t, err)
		assert.Equal(t, "a0c5837ebb094b578b436f03121bb022", out.Value().String())
	})

	t.Run("NamespaceLeaves", func(t *testing.T) {
		cfg := newFacade(map[string]string{
			"ThirdPartyApi.Key":    "something",
			"ThirdPartyApi.Secret": "blah",
		})

		out, err := cfg.Property("ThirdPartyApi")
		require.NoError(t, err)
		require.True(t, out.IsSection())
		api, ok := out.Section()
		require.True(t, ok)
		assert.Equal(t, "ThirdPartyApi", api.Prefix())

		key, err := api.Property("Key")
		require.NoError(t, err)
		assert.Equal(t, "something", key.Value().String())

		secret, err := cfg.Path("ThirdPartyApi.Secret")
		require.NoError(t, err)
		assert.Equal(t, "blah", secret.Value().String())
	})

	t.Run("TypedDecimalAndDefault", func(t *testing.T) {
		cfg := newFacade(map[string]string{"Namespace.Thing": "123.45"})
		ns := section(t, cfg, "Namespace")

		v, err := ns.Typed("Thing", appsettings.KindFloat)
		require.NoError(t, err)
		f, ok := v.Float()
		require.True(t, ok)
		assert.InDelta(t, 123.45, f, 1e-9)

		// Zero-arg call reaches the same namespace as the property form
		out, err := cfg.Call("Namespace")
		require.NoError(t, err)
		viaCall, ok := out.Section()
		require.True(t, ok)

		for _, scope := range []appsettings.Configuration{ns, viaCall} {
			missing, err := scope.Call("MissingThing", 99.99)
			require.NoError(t, err)
			assert.Equal(t, appsettings.FloatValue(99.99), missing.Value())
		}
	})

	t.Run("MissingLeafInNamespace", func(t *testing.T) {
		cfg := newFacade(map[string]string{"ThirdPartyApi.Key": "something"})
		api := section(t, cfg, "ThirdPartyApi")

		_, err := api.Property("Null")
		require.Error(t, err)
		assert.True(t, errors.Is(err, appsettings.ErrKeyNotFound))
		var notFound *appsettings.KeyNotFoundError
		require.ErrorAs(t, err, &notFound)
		assert.Equal(t, "ThirdPartyApi.Null", notFound.Path)
		assert.Contains(t, err.Error(), "ThirdPartyApi.Null")
	})

	t.Run("TypedInteger", func(t *testing.T) {
		cfg := newFacade(map[string]string{"NumberOfRetries": "12"})

		v, err := cfg.Typed("NumberOfRetries", appsettings.KindInt)
		require.NoError(t, err)
		assert.Equal(t, appsettings.IntValue(12), v)
	})

	t.Run("GermanDate", func(t *testing.T) {
		store := appsettings.NewMapStore(map[string]string{"GermanDate": "22.01.2002"})
		want := time.Date(2002, time.January, 22, 0, 0, 0, 0, time.UTC)

		german := appsettings.New(store, appsettings.WithLocale(appsettings.MustParseLocale("de-DE")))
		v, err := german.Typed("GermanDate", appsettings.KindTime)
		require.NoError(t, err)
		got, ok := v.Time()
		require.True(t, ok)
		assert.True(t, want.Equal(got), "got %v", got)

		invariant := appsettings.New(store, appsettings.WithLocale(appsettings.Invariant))
		_, err = invariant.Typed("GermanDate", appsettings.KindTime)
		require.Error(t, err)
		assert.True(t, errors.Is(err, appsettings.ErrConversion))
	})
}

// TestResolutionProperties checks the facade rules for all keys of a store
func TestResolutionProperties(t *testing.T) {
	values := map[string]string{
		"ApiKey":            "abc",
		"Retries":           "3",
		"Empty":             "",
		"ThirdPartyApi.Key": "something",
		"Deep.Er.Leaf":      "x",
	}
	cfg := newFacade(values)

	t.Run("PresentKeysAgreeAcrossForms", func(t *testing.T) {
		for _, name := range []string{"ApiKey", "Retries", "Empty"} {
			prop, err := cfg.Property(name)
			require.NoError(t, err)
			call, err := cfg.Call(name)
			require.NoError(t, err)
			withDefaults, err := cfg.Call(name, "a", "b")
			require.NoError(t, err)
			raw, ok := cfg.Get(name)
			require.True(t, ok)

			assert.Equal(t, values[name], prop.Value().String(), name)
			assert.Equal(t, prop, call, name)
			assert.Equal(t, prop, withDefaults, name)
			assert.Equal(t, values[name], raw, name)
		}
	})

	t.Run("EmptyValueIsPresent", func(t *testing.T) {
		out, err := cfg.Call("Empty", "fallback")
		require.NoError(t, err)
		assert.Equal(t, appsettings.StringValue(""), out.Value())
	})

	t.Run("AbsentAtRoot", func(t *testing.T) {
		out, err := cfg.Property("Missing")
		require.NoError(t, err)
		assert.True(t, out.Value().IsAbsent())

		out, err = cfg.Call("Missing", "d")
		require.NoError(t, err)
		assert.Equal(t, appsettings.StringValue("d"), out.Value())

		out, err = cfg.Call("Missing", nil, nil, "d2")
		require.NoError(t, err)
		assert.Equal(t, appsettings.StringValue("d2"), out.Value())

		var nilPtr *int
		out, err = cfg.Call("Missing", nilPtr, nil)
		require.NoError(t, err)
		assert.True(t, out.Value().IsAbsent())
	})

	t.Run("DefaultsAreNotConverted", func(t *testing.T) {
		v, err := cfg.Typed("Missing", appsettings.KindInt, "not a number")
		require.NoError(t, err)
		assert.Equal(t, appsettings.StringValue("not a number"), v)
	})

	t.Run("AbsentBoolAtRoot", func(t *testing.T) {
		v, err := cfg.Typed("IsSettingMissing", appsettings.KindBool)
		require.NoError(t, err)
		assert.True(t, v.IsAbsent())
	})

	t.Run("DefaultsInNamespace", func(t *testing.T) {
		api := section(t, cfg, "ThirdPartyApi")
		out, err := api.Call("MissingWords", "hi mom!")
		require.NoError(t, err)
		assert.Equal(t, "hi mom!", out.Value().String())

		_, err = api.Call("MissingSetting")
		var notFound *appsettings.KeyNotFoundError
		require.ErrorAs(t, err, &notFound)
		assert.Equal(t, "ThirdPartyApi.MissingSetting", notFound.Path)
	})

	t.Run("NestedPathErrors", func(t *testing.T) {
		out, err := cfg.Path("Deep.Er.Leaf")
		require.NoError(t, err)
		assert.Equal(t, "x", out.Value().String())

		_, err = cfg.Path("Deep.Er.Nope")
		var notFound *appsettings.KeyNotFoundError
		require.ErrorAs(t, err, &notFound)
		assert.Equal(t, "Deep.Er.Nope", notFound.Path)

		_, err = cfg.Path("NoSuchNamespace.AnythingElse")
		require.ErrorAs(t, err, &notFound)
		assert.Equal(t, "NoSuchNamespace", notFound.Path)

		_, err = cfg.Section("ApiKey")
		require.ErrorAs(t, err, &notFound)
		assert.Equal(t, "ApiKey", notFound.Path)
	})

	t.Run("NamespaceWinsOverLeaf", func(t *testing.T) {
		both := newFacade(map[string]string{"Api": "leaf", "Api.Key": "k"})
		out, err := both.Property("Api")
		require.NoError(t, err)
		assert.True(t, out.IsSection())

		raw, ok := both.Get("Api")
		assert.True(t, ok)
		assert.Equal(t, "leaf", raw)

		_, err = both.Value("Api")
		assert.True(t, errors.Is(err, appsettings.ErrNamespace))
	})

	t.Run("Idempotent", func(t *testing.T) {
		first, err := cfg.Typed("Retries", appsettings.KindInt)
		require.NoError(t, err)
		for i := 0; i < 5; i++ {
			again, err := cfg.Typed("Retries", appsettings.KindInt)
			require.NoError(t, err)
			assert.True(t, first.Equal(again))
		}
	})

	t.Run("InvalidRequests", func(t *testing.T) {
		_, err := cfg.Property("")
		assert.True(t, errors.Is(err, appsettings.ErrInvalidRequest))
		_, err = cfg.Property("ThirdPartyApi.Key")
		assert.True(t, errors.Is(err, appsettings.ErrInvalidRequest))
		_, err = cfg.Section("")
		assert.True(t, errors.Is(err, appsettings.ErrInvalidRequest))
	})

	t.Run("ConversionErrorSurfaces", func(t *testing.T) {
		bad := newFacade(map[string]string{"Retries": "many"})
		_, err := bad.Typed("Retries", appsettings.KindInt, 5)
		require.Error(t, err)
		var convErr *appsettings.ConversionError
		require.ErrorAs(t, err, &convErr)
		assert.Equal(t, "many", convErr.Raw)
		assert.Equal(t, appsettings.KindInt, convErr.Target)
	})
}

func TestRawKeyAccess(t *testing.T) {
	cfg := newFacade(map[string]string{
		"weird:key":     "works",
		"Section.odd-1": "7",
	})

	v, ok := cfg.Get("weird:key")
	assert.True(t, ok)
	assert.Equal(t, "works", v)

	_, ok = cfg.Get("absent")
	assert.False(t, ok)

	sec := section(t, cfg, "Section")
	typed, err := sec.GetAs("odd-1", appsettings.KindInt)
	require.NoError(t, err)
	assert.Equal(t, appsettings.IntValue(7), typed)

	typed, err = sec.GetAs("nothing", appsettings.KindInt)
	require.NoError(t, err)
	assert.True(t, typed.IsAbsent())
}

func TestSectionRootedFacade(t *testing.T) {
	store := appsettings.NewMapStore(map[string]string{
		"Production.Url":        "https://prod",
		"Production.Db.Host":    "db1",
		"Development.Url":       "http://localhost",
		"Production.Db.Timeout": "00:00:30",
	})
	prod := appsettings.New(store, appsettings.WithSection("Production"), appsettings.WithLocale(appsettings.Invariant))

	assert.Equal(t, "Production", prod.Prefix())

	out, err := prod.Property("Url")
	require.NoError(t, err)
	assert.Equal(t, "https://prod", out.Value().String())

	// A section-rooted facade keeps root semantics for missing leaves
	out, err = prod.Property("Missing")
	require.NoError(t, err)
	assert.True(t, out.Value().IsAbsent())

	db, err := prod.Sub("Db")
	require.NoError(t, err)
	timeout, err := db.Typed("Timeout", appsettings.KindDuration)
	require.NoError(t, err)
	assert.Equal(t, appsettings.DurationValue(30*time.Second), timeout)

	_, err = db.Property("Port")
	var notFound *appsettings.KeyNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "Production.Db.Port", notFound.Path)
}

func TestEnumeration(t *testing.T) {
	store := appsettings.NewMapStore(map[string]string{
		"b":         "1",
		"a":         "2",
		"Ns.x":      "3",
		"Ns.Deep.y": "4",
	})
	store.DeclareSection("EmptyNs")
	cfg := appsettings.New(store)

	assert.Equal(t, []string{"Ns", "a", "b"}, cfg.Keys())
	assert.True(t, cfg.Has("a"))
	assert.True(t, cfg.Has("Ns"))
	assert.True(t, cfg.Has("EmptyNs"))
	assert.False(t, cfg.Has("zzz"))

	children := cfg.Children()
	require.Len(t, children, 1)
	assert.Equal(t, "Ns", children[0].Prefix())
	assert.Equal(t, []string{"Deep", "x"}, children[0].Keys())

	empty, err := cfg.Section("EmptyNs")
	require.NoError(t, err)
	assert.Empty(t, empty.Keys())
}

func TestLocaleSelection(t *testing.T) {
	german := appsettings.MustParseLocale("de")

	t.Run("OptionWins", func(t *testing.T) {
		store := appsettings.NewLayeredStore()
		store.SetLocale(german)
		cfg := appsettings.New(store, appsettings.WithLocale(appsettings.Invariant))
		assert.True(t, cfg.Locale().IsInvariant())
	})

	t.Run("StoreLocale", func(t *testing.T) {
		store := appsettings.NewLayeredStore()
		store.SetLocale(german)
		cfg := appsettings.New(store)
		assert.Equal(t, german, cfg.Locale())
	})

	t.Run("CurrentLocaleFallback", func(t *testing.T) {
		appsettings.SetCurrentLocale(german)
		defer appsettings.ResetCurrentLocale()
		cfg := appsettings.New(appsettings.NewMapStore(nil))
		assert.Equal(t, german, cfg.Locale())
	})

	t.Run("WithLocaleCopy", func(t *testing.T) {
		cfg := newFacade(map[string]string{"Rate": "1,05"})
		de := cfg.WithLocale(german)

		v, err := de.Typed("Rate", appsettings.KindFloat)
		require.NoError(t, err)
		assert.Equal(t, appsettings.FloatValue(1.05), v)

		// The source facade still parses with invariant conventions
		v, err = cfg.Typed("Rate", appsettings.KindFloat)
		require.NoError(t, err)
		assert.Equal(t, appsettings.FloatValue(105), v)
	})
}

func TestDefaultStore(t *testing.T) {
	t.Run("Installed", func(t *testing.T) {
		appsettings.SetDefaultStore(appsettings.NewMapStore(map[string]string{"Name": "installed"}))
		defer appsettings.SetDefaultStore(nil)

		out, err := appsettings.Default().Property("Name")
		require.NoError(t, err)
		assert.Equal(t, "installed", out.Value().String())

		out, err = appsettings.New(nil).Property("Name")
		require.NoError(t, err)
		assert.Equal(t, "installed", out.Value().String())
	})

	t.Run("EnvironmentFallback", func(t *testing.T) {
		t.Setenv("APPSETTINGS_TEST__Key", "from-env")

		var zero appsettings.Configuration
		api, err := zero.Section("APPSETTINGS_TEST")
		require.NoError(t, err)
		out, err := api.Property("Key")
		require.NoError(t, err)
		assert.Equal(t, "from-env", out.Value().String())
	})
	t.Run("ZeroValueLocale", func(t *testing.T) {
		appsettings.SetDefaultStore(appsettings.NewMapStore(map[string]string{"Rate": "1,05"}))
		defer appsettings.SetDefaultStore(nil)
		appsettings.SetCurrentLocale(appsettings.MustParseLocale("de"))
		defer appsettings.ResetCurrentLocale()

		var zero appsettings.Configuration
		assert.Equal(t, "de", zero.Locale().String())

		fromZero, err := zero.Typed("Rate", appsettings.KindFloat)
		require.NoError(t, err)
		fromDefault, err := appsettings.Default().Typed("Rate", appsettings.KindFloat)
		require.NoError(t, err)
		assert.Equal(t, appsettings.FloatValue(1.05), fromZero)
		assert.Equal(t, fromDefault, fromZero)

		pinned, err := zero.WithLocale(appsettings.Invariant).Typed("Rate", appsettings.KindFloat)
		require.NoError(t, err)
		assert.Equal(t, appsettings.FloatValue(105), pinned, "an explicit locale is kept")
	})
}
