package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TaoKevinKK/lilac/internal/core/domain"
)

func TestResolveMatchesScalar(t *testing.T) {
	item := map[string]any{"text": "hello", "meta": map[string]any{"lang": "en"}}

	matches := resolveMatches(item, domain.ParsePath("meta.lang"))
	require.Len(t, matches, 1)
	assert.Equal(t, domain.Path{"meta", "lang"}, matches[0].path)
	assert.Equal(t, "en", matches[0].value)
}

func TestResolveMatchesWildcardFanOut(t *testing.T) {
	item := map[string]any{
		"text": []any{[]any{"hello"}, []any{"hi", "bye"}},
	}

	matches := resolveMatches(item, domain.ParsePath("text.*.*"))
	require.Len(t, matches, 3)
	assert.Equal(t, domain.Path{"text", "0", "0"}, matches[0].path)
	assert.Equal(t, "hello", matches[0].value)
	assert.Equal(t, domain.Path{"text", "1", "0"}, matches[1].path)
	assert.Equal(t, "hi", matches[1].value)
	assert.Equal(t, domain.Path{"text", "1", "1"}, matches[2].path)
	assert.Equal(t, "bye", matches[2].value)
}

func TestResolveMatchesStructuralMisses(t *testing.T) {
	item := map[string]any{"text": "hello", "n": 1}

	// Absent key, wildcard over a non-sequence, field under a scalar:
	// all yield no match, never an error.
	assert.Empty(t, resolveMatches(item, domain.ParsePath("missing")))
	assert.Empty(t, resolveMatches(item, domain.ParsePath("text.*")))
	assert.Empty(t, resolveMatches(item, domain.ParsePath("n.sub")))
}

func TestExtractValuePreservesFanOutShape(t *testing.T) {
	item := map[string]any{
		"docs": []any{
			map[string]any{"title": "a"},
			map[string]any{"title": "b"},
			map[string]any{},
		},
	}

	got := extractValue(item, domain.ParsePath("docs.*.title"))
	assert.Equal(t, []any{"a", "b", nil}, got)
}

func TestExtractValueCopies(t *testing.T) {
	inner := map[string]any{"lang": "en"}
	item := map[string]any{"meta": inner}

	got := extractValue(item, domain.ParsePath("meta")).(map[string]any)
	got["lang"] = "de"
	assert.Equal(t, "en", inner["lang"])
}

func TestRenestOutputs(t *testing.T) {
	item := map[string]any{
		"text": []any{[]any{"hello"}, []any{"hi", "bye"}},
	}
	outputs := []domain.Item{5, 2, 3}

	idx := 0
	tree, err := renestOutputs(item, domain.ParsePath("text.*.*"), outputs, &idx)
	require.NoError(t, err)
	assert.Equal(t, 3, idx)
	assert.Equal(t, []any{[]any{5}, []any{2, 3}}, tree)
}

func TestRenestOutputsTooFew(t *testing.T) {
	item := map[string]any{"text": []any{"hello", "hi"}}

	idx := 0
	_, err := renestOutputs(item, domain.ParsePath("text.*"), []domain.Item{5}, &idx)
	assert.ErrorIs(t, err, domain.ErrShapeMismatch)
}

func TestFlattenFanoutInverseOfRenest(t *testing.T) {
	tree := []any{[]any{5}, []any{2, 3}}
	assert.Equal(t, []domain.Item{5, 2, 3}, flattenFanout(tree, 2))

	assert.Equal(t, []domain.Item{tree}, flattenFanout(tree, 0))
	assert.Nil(t, flattenFanout(nil, 0))
	assert.Nil(t, flattenFanout("scalar", 1))
}
