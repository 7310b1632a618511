package breakpoints_test

import (
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polyrun/debug-client/internal/breakpoints"
	"github.com/polyrun/debug-client/internal/errors"
	"github.com/polyrun/debug-client/internal/paths"
	"github.com/polyrun/debug-client/pkg/types"
)

type memStorage struct {
	data map[string][]byte
	puts int
}

func newMemStorage() *memStorage {
	return &memStorage{data: make(map[string][]byte)}
}

func (m *memStorage) Get(key string) ([]byte, bool, error) {
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memStorage) Put(key string, value []byte) error {
	m.puts++
	m.data[key] = append([]byte(nil), value...)
	return nil
}

func testIndex() *paths.Index {
	return paths.BuildIndex([]types.FileDescriptor{
		{FileID: "f1", FileName: "a.py", FilePath: "src/a.py"},
		{FileID: "f2", FileName: "b.py", FilePath: "src/b.py"},
	})
}

func quiet() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestAddDeduplicates(t *testing.T) {
	s := breakpoints.NewStore(testIndex(), quiet())

	bp, added, err := s.Add("f1", 3, "")
	require.NoError(t, err)
	assert.True(t, added)
	assert.Equal(t, "f1:3", bp.ID)
	assert.Equal(t, "src/a.py", bp.FilePath)

	again, added, err := s.Add("f1", 3, "x > 0")
	require.NoError(t, err)
	assert.False(t, added)
	assert.Equal(t, bp, again)
	assert.Equal(t, 1, s.Len())
}

func TestAddUnknownFile(t *testing.T) {
	s := breakpoints.NewStore(testIndex(), quiet())

	_, _, err := s.Add("missing", 3, "")
	require.Error(t, err)
	assert.Equal(t, errors.CodeUnknownFile, errors.CodeOf(err))
	assert.Equal(t, 0, s.Len())
}

func TestAddClampsLine(t *testing.T) {
	s := breakpoints.NewStore(testIndex(), quiet())

	bp, added, err := s.Add("f1", 0, "")
	require.NoError(t, err)
	assert.True(t, added)
	assert.Equal(t, 1, bp.Line)
}

func TestCapacity(t *testing.T) {
	s := breakpoints.NewStore(testIndex(), quiet(), breakpoints.WithCapacity(2))

	_, _, err := s.Add("f1", 1, "")
	require.NoError(t, err)
	_, _, err = s.Add("f1", 2, "")
	require.NoError(t, err)

	_, _, err = s.Add("f1", 3, "")
	require.Error(t, err)
	assert.Equal(t, errors.CodeBreakpointLimit, errors.CodeOf(err))

	// A duplicate of an existing pair is still a no-op, not a limit error.
	_, added, err := s.Add("f1", 1, "")
	require.NoError(t, err)
	assert.False(t, added)
}

func TestSubOneLineKeepsPairUnique(t *testing.T) {
	// Line 0 and line 1 are the same pair after clamping; toggle and
	// remove must see what add stored, never insert a second entry.
	s := breakpoints.NewStore(testIndex(), quiet())

	_, added, err := s.Add("f1", 0, "")
	require.NoError(t, err)
	require.True(t, added)

	_, added, err = s.Toggle("f1", 0)
	require.NoError(t, err)
	assert.False(t, added)
	assert.Equal(t, 0, s.Len())

	_, _, err = s.Add("f1", 0, "")
	require.NoError(t, err)
	assert.True(t, s.RemoveAt("f1", 0))
	assert.Equal(t, 0, s.Len())

	_, _, err = s.Add("f1", 1, "")
	require.NoError(t, err)
	_, added, err = s.Add("f1", 0, "")
	require.NoError(t, err)
	assert.False(t, added)
	assert.Equal(t, 1, s.Len())
}

func TestToggle(t *testing.T) {
	s := breakpoints.NewStore(testIndex(), quiet())

	_, added, err := s.Toggle("f1", 5)
	require.NoError(t, err)
	assert.True(t, added)
	assert.Equal(t, 1, s.Len())

	_, added, err = s.Toggle("f1", 5)
	require.NoError(t, err)
	assert.False(t, added)
	assert.Equal(t, 0, s.Len())
}

func TestRemove(t *testing.T) {
	s := breakpoints.NewStore(testIndex(), quiet())

	bp, _, err := s.Add("f1", 3, "")
	require.NoError(t, err)

	assert.True(t, s.Remove(bp.ID))
	assert.False(t, s.Remove(bp.ID))

	_, _, err = s.Add("f2", 7, "")
	require.NoError(t, err)
	assert.True(t, s.RemoveAt("f2", 7))
	assert.Equal(t, 0, s.Len())
}

func TestListInsertionOrder(t *testing.T) {
	s := breakpoints.NewStore(testIndex(), quiet())

	_, _, _ = s.Add("f2", 9, "")
	_, _, _ = s.Add("f1", 1, "")
	_, _, _ = s.Add("f1", 4, "")

	list := s.List()
	require.Len(t, list, 3)
	assert.Equal(t, "f2:9", list[0].ID)
	assert.Equal(t, "f1:1", list[1].ID)
	assert.Equal(t, "f1:4", list[2].ID)
}

func TestCanonical(t *testing.T) {
	s := breakpoints.NewStore(testIndex(), quiet())

	_, _, _ = s.Add("f1", 3, "")
	_, _, _ = s.Add("f2", 7, "")

	canon := s.Canonical()
	require.Len(t, canon, 2)
	assert.Equal(t, types.CanonicalBreakpoint{File: "src/a.py", Line: 3}, canon[0])
	assert.Equal(t, types.CanonicalBreakpoint{File: "src/b.py", Line: 7}, canon[1])
}

func TestClear(t *testing.T) {
	s := breakpoints.NewStore(testIndex(), quiet())

	_, _, _ = s.Add("f1", 3, "")
	s.Clear()
	assert.Equal(t, 0, s.Len())
}

func TestPersistence(t *testing.T) {
	st := newMemStorage()
	s := breakpoints.NewStore(testIndex(), quiet(), breakpoints.WithStorage(st))

	_, _, err := s.Add("f1", 3, "x > 0")
	require.NoError(t, err)
	_, _, err = s.Add("f2", 7, "")
	require.NoError(t, err)

	// A fresh store over the same storage sees the same set.
	reloaded := breakpoints.NewStore(testIndex(), quiet(), breakpoints.WithStorage(st))
	require.NoError(t, reloaded.Load())

	list := reloaded.List()
	require.Len(t, list, 2)
	assert.Equal(t, "f1:3", list[0].ID)
	assert.Equal(t, "x > 0", list[0].Condition)
	assert.Equal(t, "f2:7", list[1].ID)
}

func TestLoadDropsUnresolvableFiles(t *testing.T) {
	st := newMemStorage()
	raw, err := json.Marshal([]map[string]any{
		{"fileId": "f1", "line": 3},
		{"fileId": "gone", "line": 5},
		{"fileId": "f2", "line": 7},
	})
	require.NoError(t, err)
	require.NoError(t, st.Put(breakpoints.StorageKey, raw))

	s := breakpoints.NewStore(testIndex(), quiet(), breakpoints.WithStorage(st))
	require.NoError(t, s.Load())

	list := s.List()
	require.Len(t, list, 2)
	assert.Equal(t, "f1:3", list[0].ID)
	assert.Equal(t, "f2:7", list[1].ID)
}

func TestLoadStopsAtCapacity(t *testing.T) {
	st := newMemStorage()
	raw, err := json.Marshal([]map[string]any{
		{"fileId": "f1", "line": 1},
		{"fileId": "f1", "line": 2},
		{"fileId": "f1", "line": 3},
	})
	require.NoError(t, err)
	require.NoError(t, st.Put(breakpoints.StorageKey, raw))

	s := breakpoints.NewStore(testIndex(), quiet(),
		breakpoints.WithStorage(st), breakpoints.WithCapacity(2))
	require.NoError(t, s.Load())
	assert.Equal(t, 2, s.Len())
}

func TestLoadDiscardsCorruptState(t *testing.T) {
	st := newMemStorage()
	require.NoError(t, st.Put(breakpoints.StorageKey, []byte("{not json")))

	s := breakpoints.NewStore(testIndex(), quiet(), breakpoints.WithStorage(st))
	require.NoError(t, s.Load())
	assert.Equal(t, 0, s.Len())
}

func TestOnChange(t *testing.T) {
	s := breakpoints.NewStore(testIndex(), quiet())

	var calls int
	s.OnChange(func() { calls++ })

	_, _, _ = s.Add("f1", 3, "")
	assert.Equal(t, 1, calls)

	// A duplicate add mutates nothing and must not fire the callback.
	_, _, _ = s.Add("f1", 3, "")
	assert.Equal(t, 1, calls)

	s.Remove("f1:3")
	assert.Equal(t, 2, calls)

	s.Clear()
	assert.Equal(t, 3, calls)
}
