package collection

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/kingrea/dutyflow/internal/failure"
	"github.com/kingrea/dutyflow/internal/storage"
)

type note struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

func (n note) ItemID() string { return n.ID }

const key = "notes"

func TestLoadFallsBackToDefault(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	log := zerolog.Nop()

	mem := storage.NewMemory()
	require.Equal(t, []note{}, Load(ctx, mem, key, []note{}, log), "missing key")

	require.NoError(t, mem.Write(ctx, key, []byte(`{not json`)))
	require.Equal(t, []note{}, Load(ctx, mem, key, []note{}, log), "malformed json")

	require.NoError(t, mem.Write(ctx, key, []byte(`null`)))
	require.Equal(t, []note{}, Load(ctx, mem, key, []note{}, log), "null document")

	mem.ReadErr = errors.New("disk gone")
	require.Equal(t, []note{{ID: "d"}}, Load(ctx, mem, key, []note{{ID: "d"}}, log), "read failure")

	require.Nil(t, Load[note](ctx, nil, key, nil, log))
}

func TestUpsertKeepsPositionAndUniqueness(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	log := zerolog.Nop()
	mem := storage.NewMemory()

	items := []note{{ID: "a", Text: "one"}, {ID: "b", Text: "two"}, {ID: "c", Text: "three"}}
	updated := Upsert(items, note{ID: "b", Text: "TWO"})
	require.Len(t, updated, len(items), "existing id keeps length")
	require.Equal(t, "two", items[1].Text, "input untouched")

	require.NoError(t, Save(ctx, mem, key, updated, log))
	loaded := Load(ctx, mem, key, []note{}, log)
	require.Equal(t, []note{{ID: "a", Text: "one"}, {ID: "b", Text: "TWO"}, {ID: "c", Text: "three"}}, loaded)

	grown := Upsert(loaded, note{ID: "d", Text: "four"})
	require.Len(t, grown, len(loaded)+1, "new id grows by one")
	require.Equal(t, "d", grown[len(grown)-1].ID)

	count := 0
	for _, n := range Upsert(grown, note{ID: "d", Text: "again"}) {
		if n.ID == "d" {
			count++
		}
	}
	require.Equal(t, 1, count)
}

func TestRemove(t *testing.T) {
	t.Parallel()

	items := []note{{ID: "a"}, {ID: "b"}}
	require.Equal(t, items, Remove(items, "zzz"))
	require.Equal(t, []note{{ID: "a"}}, Remove(items, "b"))
	require.Empty(t, Remove([]note{}, "a"))
	require.Equal(t, 1, Index(items, "b"))
	require.Equal(t, -1, Index(items, "q"))
}

func TestSaveFailureIsPersistenceError(t *testing.T) {
	t.Parallel()

	mem := storage.NewMemory()
	mem.WriteErr = errors.New("quota exceeded")
	err := Save(context.Background(), mem, key, []note{{ID: "a"}}, zerolog.Nop())
	require.ErrorIs(t, err, failure.ErrPersistence)

	require.ErrorIs(t, Save[note](context.Background(), nil, key, nil, zerolog.Nop()), failure.ErrPersistence)
}

func TestCollectionPutAndDelete(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	mem := storage.NewMemory()

	c := Open[note](ctx, mem, key, zerolog.Nop())
	require.Zero(t, c.Len())

	created, err := c.Put(ctx, note{ID: "a", Text: "one"})
	require.NoError(t, err)
	require.True(t, created)
	created, err = c.Put(ctx, note{ID: "a", Text: "uno"})
	require.NoError(t, err)
	require.False(t, created)
	got, ok := c.Get("a")
	require.True(t, ok)
	require.Equal(t, "uno", got.Text)

	reopened := Open[note](ctx, mem, key, zerolog.Nop())
	require.Equal(t, []note{{ID: "a", Text: "uno"}}, reopened.Items())

	removed, err := reopened.Delete(ctx, "missing")
	require.NoError(t, err)
	require.False(t, removed)
	removed, err = reopened.Delete(ctx, "a")
	require.NoError(t, err)
	require.True(t, removed)
	require.Empty(t, Open[note](ctx, mem, key, zerolog.Nop()).Items())
}

func TestCollectionKeepsItemWhenWriteFails(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	mem := storage.NewMemory()
	c := Open[note](ctx, mem, key, zerolog.Nop())

	mem.WriteErr = errors.New("read-only")
	created, err := c.Put(ctx, note{ID: "a"})
	require.True(t, created)
	require.ErrorIs(t, err, failure.ErrPersistence)
	require.Equal(t, 1, c.Len())
}
