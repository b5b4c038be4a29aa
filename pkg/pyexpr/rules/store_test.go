package rules_test

import (
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/pyexpr/pkg/pyexpr/rules"
)

type storeFactory func(t *testing.T) rules.Store

func storeContractTest(t *testing.T, name string, factory storeFactory) {
	t.Run(name+"/Save_and_Load", func(t *testing.T) {
		store := factory(t)
		defer store.Close()

		r := rules.Rule{ID: "id-1", Name: "adult", Expression: "age >= 18", Description: "d", Tags: []string{"a", "b"}}
		require.NoError(t, store.Save(r))

		loaded, err := store.Load("adult")
		require.NoError(t, err)
		assert.Equal(t, r, loaded)
	})

	t.Run(name+"/Load_NotFound", func(t *testing.T) {
		store := factory(t)
		defer store.Close()

		_, err := store.Load("missing")
		assert.ErrorIs(t, err, rules.ErrNotFound)
	})

	t.Run(name+"/Save_Overwrite", func(t *testing.T) {
		store := factory(t)
		defer store.Close()

		require.NoError(t, store.Save(rules.Rule{ID: "1", Name: "r", Expression: "1"}))
		require.NoError(t, store.Save(rules.Rule{ID: "2", Name: "r", Expression: "2"}))

		loaded, err := store.Load("r")
		require.NoError(t, err)
		assert.Equal(t, "2", loaded.Expression)
		assert.Equal(t, "2", loaded.ID)
		assert.Nil(t, loaded.Tags)
	})

	t.Run(name+"/List_OrderedByName", func(t *testing.T) {
		store := factory(t)
		defer store.Close()

		empty, err := store.List()
		require.NoError(t, err)
		assert.Empty(t, empty)

		for _, n := range []string{"charlie", "alpha", "bravo"} {
			require.NoError(t, store.Save(rules.Rule{ID: n, Name: n, Expression: "True"}))
		}
		list, err := store.List()
		require.NoError(t, err)
		require.Len(t, list, 3)
		assert.Equal(t, "alpha", list[0].Name)
		assert.Equal(t, "bravo", list[1].Name)
		assert.Equal(t, "charlie", list[2].Name)
	})

	t.Run(name+"/Delete", func(t *testing.T) {
		store := factory(t)
		defer store.Close()

		require.NoError(t, store.Save(rules.Rule{ID: "x", Name: "x", Expression: "1"}))
		require.NoError(t, store.Delete("x"))
		_, err := store.Load("x")
		assert.ErrorIs(t, err, rules.ErrNotFound)

		assert.NoError(t, store.Delete("never-existed"))
	})

	t.Run(name+"/Tags_NotAliased", func(t *testing.T) {
		store := factory(t)
		defer store.Close()

		tags := []string{"one"}
		require.NoError(t, store.Save(rules.Rule{ID: "t", Name: "t", Expression: "1", Tags: tags}))
		tags[0] = "changed"

		loaded, err := store.Load("t")
		require.NoError(t, err)
		assert.Equal(t, []string{"one"}, loaded.Tags)
	})

	t.Run(name+"/Closed", func(t *testing.T) {
		store := factory(t)
		require.NoError(t, store.Close())
		assert.NoError(t, store.Close())

		assert.ErrorIs(t, store.Save(rules.Rule{Name: "r", Expression: "1"}), rules.ErrStoreClosed)
		_, err := store.Load("r")
		assert.ErrorIs(t, err, rules.ErrStoreClosed)
		_, err = store.List()
		assert.ErrorIs(t, err, rules.ErrStoreClosed)
		assert.ErrorIs(t, store.Delete("r"), rules.ErrStoreClosed)
	})

	t.Run(name+"/Concurrent", func(t *testing.T) {
		store := factory(t)
		defer store.Close()

		var wg sync.WaitGroup
		for g := 0; g < 10; g++ {
			wg.Add(1)
			go func(id int) {
				defer wg.Done()
				n := "rule-" + string(rune('a'+id))
				for j := 0; j < 20; j++ {
					switch j % 3 {
					case 0:
						assert.NoError(t, store.Save(rules.Rule{ID: n, Name: n, Expression: "1"}))
					case 1:
						_, _ = store.Load(n)
					case 2:
						_, err := store.List()
						assert.NoError(t, err)
					}
				}
			}(g)
		}
		wg.Wait()

		list, err := store.List()
		require.NoError(t, err)
		assert.Len(t, list, 10)
	})
}

func TestMemoryStore(t *testing.T) {
	storeContractTest(t, "MemoryStore", func(t *testing.T) rules.Store {
		return rules.NewMemoryStore()
	})
}

func TestSQLiteStore(t *testing.T) {
	storeContractTest(t, "SQLiteStore", func(t *testing.T) rules.Store {
		store, err := rules.NewSQLiteStore(":memory:")
		require.NoError(t, err)
		return store
	})
}

func TestSQLiteStore_Persistence(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "rules.db")

	store1, err := rules.NewSQLiteStore(dbPath)
	require.NoError(t, err)
	require.NoError(t, store1.Save(rules.Rule{ID: "p", Name: "persisted", Expression: "x > 1", Tags: []string{"t"}}))
	require.NoError(t, store1.Close())

	store2, err := rules.NewSQLiteStore(dbPath)
	require.NoError(t, err)
	defer store2.Close()

	r, err := store2.Load("persisted")
	require.NoError(t, err)
	assert.Equal(t, "x > 1", r.Expression)
	assert.Equal(t, []string{"t"}, r.Tags)
}

func TestSQLiteStore_InvalidPath(t *testing.T) {
	_, err := rules.NewSQLiteStore("/nonexistent/path/rules.db")
	assert.Error(t, err)
}

func TestMemoryStore_Len(t *testing.T) {
	store := rules.NewMemoryStore()
	assert.Equal(t, 0, store.Len())
	require.NoError(t, store.Save(rules.Rule{Name: "a", Expression: "1"}))
	require.NoError(t, store.Save(rules.Rule{Name: "a", Expression: "2"}))
	require.NoError(t, store.Save(rules.Rule{Name: "b", Expression: "1"}))
	assert.Equal(t, 2, store.Len())
}
