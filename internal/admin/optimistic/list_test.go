package optimistic_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"finitefield.org/recruit-admin/internal/admin/optimistic"
)

func TestListIndexOperations(t *testing.T) {
	t.Parallel()

	list := optimistic.NewList([]string{"Go", "Rust"})

	require.True(t, list.UpdateAt(1, "Zig"))
	require.False(t, list.UpdateAt(2, "Haskell"))
	require.False(t, list.UpdateAt(-1, "Haskell"))
	require.Equal(t, []string{"Go", "Zig"}, list.Values())

	require.True(t, list.PatchAt(0, func(v *string) { *v += "lang" }))
	require.False(t, list.PatchAt(5, func(v *string) { *v = "x" }))
	require.Equal(t, []string{"Golang", "Zig"}, list.Values())

	require.False(t, list.RemoveAt(2))
	require.True(t, list.RemoveAt(0))
	require.Equal(t, []string{"Zig"}, list.Values())
}

func TestListAppendEmptyAssignsDistinctKeys(t *testing.T) {
	t.Parallel()

	list := optimistic.NewList[string](nil)
	first := list.AppendEmpty()
	second := list.AppendEmpty()

	require.NotEmpty(t, first)
	require.NotEqual(t, first, second)
	require.Equal(t, []string{"", ""}, list.Values())
	require.Equal(t, 1, list.IndexOf(second))
	require.Equal(t, -1, list.IndexOf("missing"))
}

func TestListKeysSurviveReordering(t *testing.T) {
	t.Parallel()

	list := optimistic.NewList([]string{"a", "b", "c"})
	items := list.Items()
	keyC := items[2].Key

	require.True(t, list.Remove(items[0].Key))
	require.True(t, list.Update(keyC, "C"))
	require.Equal(t, []string{"b", "C"}, list.Values())

	require.False(t, list.Remove(items[0].Key), "removed key must not address another element")
	require.True(t, list.Patch(items[1].Key, func(v *string) { *v = "B" }))
	require.Equal(t, []string{"B", "C"}, list.Values())
}

func TestListAllowsDuplicates(t *testing.T) {
	t.Parallel()

	list := optimistic.NewList([]string{"Go"})
	key := list.AppendEmpty()
	require.True(t, list.Update(key, "Go"))
	require.Equal(t, []string{"Go", "Go"}, list.Values())
}

func TestListCopiesAreDetached(t *testing.T) {
	t.Parallel()

	list := optimistic.NewList([]string{"Go"})
	values := list.Values()
	values[0] = "mutated"
	items := list.Items()
	items[0].Value = "mutated"

	require.Equal(t, []string{"Go"}, list.Values())
}
