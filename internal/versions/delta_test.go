package versions

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func deps(t *testing.T, raw string) Dependencies {
	t.Helper()
	var d Dependencies
	require.NoError(t, json.Unmarshal([]byte(raw), &d))
	return d
}

func TestDiff_Example(t *testing.T) {
	oldDeps := deps(t, `{"a":"1.0","b":"2.0"}`)
	newDeps := deps(t, `{"b":"2.0","c":"3.0"}`)

	delta := Diff(oldDeps, newDeps)

	assert.Equal(t, []Dependency{{Package: "c", Version: "3.0"}}, delta.Added)
	assert.Equal(t, []Dependency{{Package: "a", Version: "1.0"}}, delta.Removed)
	assert.Empty(t, delta.Updated)
	assert.False(t, delta.Empty())
}

func TestDiff_PreservesInputOrder(t *testing.T) {
	oldDeps := deps(t, `{"zeta":"^1.0.0","alpha":"^1.0.0","mid":"^2.0.0","gone2":"1","gone1":"1"}`)
	newDeps := deps(t, `{"new2":"1","mid":"^3.0.0","zeta":"^1.1.0","new1":"1","alpha":"^1.0.0"}`)

	delta := Diff(oldDeps, newDeps)

	assert.Equal(t, []Dependency{
		{Package: "new2", Version: "1"},
		{Package: "new1", Version: "1"},
	}, delta.Added)
	assert.Equal(t, []Dependency{
		{Package: "gone2", Version: "1"},
		{Package: "gone1", Version: "1"},
	}, delta.Removed)
	assert.Equal(t, []UpdatedDependency{
		{Package: "zeta", From: "^1.0.0", To: "^1.1.0"},
		{Package: "mid", From: "^2.0.0", To: "^3.0.0"},
	}, delta.Updated)
}

func TestDiff_ByteComparisonNotSemantic(t *testing.T) {
	delta := Diff(
		NewDependencies(Dependency{Package: "http", Version: "^1.0.0"}),
		NewDependencies(Dependency{Package: "http", Version: "^1.0"}),
	)

	require.Len(t, delta.Updated, 1)
	assert.Equal(t, UpdatedDependency{Package: "http", From: "^1.0.0", To: "^1.0"}, delta.Updated[0])
}

func TestDiff_Completeness(t *testing.T) {
	oldDeps := deps(t, `{"a":"1","b":"2","c":"3","d":"4"}`)
	newDeps := deps(t, `{"b":"2","c":"30","e":"5"}`)

	delta := Diff(oldDeps, newDeps)

	seen := map[string]int{}
	for _, d := range delta.Added {
		seen[d.Package]++
	}
	for _, d := range delta.Removed {
		seen[d.Package]++
	}
	for _, d := range delta.Updated {
		seen[d.Package]++
	}

	assert.Equal(t, map[string]int{"a": 1, "c": 1, "d": 1, "e": 1}, seen)
	_, unchanged := seen["b"]
	assert.False(t, unchanged)
}

func TestDiff_EmptyAndIdentical(t *testing.T) {
	empty := Diff(Dependencies{}, Dependencies{})
	assert.True(t, empty.Empty())
	assert.NotNil(t, empty.Added)

	same := deps(t, `{"a":"1"}`)
	assert.True(t, Diff(same, same).Empty())
}

func TestDiff_DoesNotMutateInputs(t *testing.T) {
	oldDeps := deps(t, `{"a":"1","b":"2"}`)
	newDeps := deps(t, `{"b":"3","c":"4"}`)

	_ = Diff(oldDeps, newDeps)

	assert.Equal(t, []Dependency{{"a", "1"}, {"b", "2"}}, oldDeps.List())
	assert.Equal(t, []Dependency{{"b", "3"}, {"c", "4"}}, newDeps.List())
}

func TestDependencies_UnmarshalStructuredSpecs(t *testing.T) {
	d := deps(t, `{
		"flutter": {"sdk": "flutter"},
		"meta": null,
		"collection": "^1.18.0",
		"forked": {"git": {"url": "https://example.com/x.git", "ref": "main"}}
	}`)

	assert.Equal(t, []Dependency{
		{Package: "flutter", Version: `{"sdk":"flutter"}`},
		{Package: "meta", Version: AnyVersion},
		{Package: "collection", Version: "^1.18.0"},
		{Package: "forked", Version: `{"git":{"url":"https://example.com/x.git","ref":"main"}}`},
	}, d.List())
}

func TestDependencies_NullAndZeroValue(t *testing.T) {
	var d Dependencies
	require.NoError(t, json.Unmarshal([]byte(`null`), &d))
	assert.Equal(t, 0, d.Len())

	out, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Equal(t, `{}`, string(out))

	_, ok := d.Get("anything")
	assert.False(t, ok)
}

func TestDependencies_MarshalKeepsOrder(t *testing.T) {
	d := NewDependencies(
		Dependency{Package: "zeta", Version: "1"},
		Dependency{Package: "alpha", Version: "2"},
	)

	out, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Equal(t, `{"zeta":"1","alpha":"2"}`, string(out))
}

func TestDependencies_InvalidJSON(t *testing.T) {
	var d Dependencies
	assert.Error(t, json.Unmarshal([]byte(`["a","b"]`), &d))
}
