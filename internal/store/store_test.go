package store_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/stash/internal/kv"
	"github.com/roach88/stash/internal/store"
	"github.com/roach88/stash/internal/testutil"
)

func newStore(t *testing.T) (*store.Store, *testutil.RecordingPersister, *testutil.FakeClock) {
	t.Helper()
	clock := testutil.NewFakeClock()
	persister := testutil.NewRecordingPersister()
	s := store.New(nil, persister, store.Options{
		Clock:  clock,
		Logger: testutil.Logger(),
	})
	return s, persister, clock
}

func TestGet_AbsentKey(t *testing.T) {
	s, _, _ := newStore(t)
	_, ok := s.Get("missing")
	assert.False(t, ok)
}

func TestSet_ThenGet(t *testing.T) {
	s, _, _ := newStore(t)
	s.Set("name", kv.String("stash"), store.Deferred)

	v, ok := s.Get("name")
	require.True(t, ok)
	assert.Equal(t, kv.String("stash"), v)
}

func TestSet_NilRemovesEntry(t *testing.T) {
	s, _, _ := newStore(t)
	s.Set("k", kv.Bool(true), store.Deferred)
	s.Set("k", nil, store.Deferred)

	_, ok := s.Get("k")
	assert.False(t, ok)
}

func TestTypedGetters_Defaults(t *testing.T) {
	s, _, _ := newStore(t)

	assert.True(t, s.Bool("absent", true))
	assert.False(t, s.Bool("absent", false))
	assert.Equal(t, "fallback", s.String("absent", "fallback"))
	assert.Empty(t, s.StringList("absent"))
	assert.Empty(t, s.BoolMap("absent"))
}

func TestTypedGetters_KindMismatchFallsBackToDefault(t *testing.T) {
	s, _, _ := newStore(t)
	s.Set("k", kv.String("not a bool"), store.Deferred)

	assert.True(t, s.Bool("k", true))
	assert.Empty(t, s.StringList("k"))
}

func TestTypedGetters_Values(t *testing.T) {
	s, _, _ := newStore(t)
	s.Set("b", kv.Bool(true), store.Deferred)
	s.Set("s", kv.String("v"), store.Deferred)
	s.Set("l", kv.StringList{"a", "b"}, store.Deferred)
	s.Set("m", kv.BoolMap{"x": true}, store.Deferred)

	assert.True(t, s.Bool("b", false))
	assert.Equal(t, "v", s.String("s", ""))
	assert.Equal(t, []string{"a", "b"}, s.StringList("l"))
	assert.Equal(t, map[string]bool{"x": true}, s.BoolMap("m"))
}

func TestGetters_ReturnCopies(t *testing.T) {
	s, _, _ := newStore(t)
	s.Set("l", kv.StringList{"a"}, store.Deferred)

	got := s.StringList("l")
	got[0] = "mutated"
	assert.Equal(t, []string{"a"}, s.StringList("l"))
}

func TestBlob_RoundTrip(t *testing.T) {
	s, _, _ := newStore(t)
	payload := []byte{0x00, 0x01, 0xFF}
	s.SetBlob("blob", payload, store.Deferred)

	got, ok := s.Blob("blob")
	require.True(t, ok)
	assert.Equal(t, payload, got)
}

func TestBlob_AcceptsBase64StringForm(t *testing.T) {
	// After a reload, blobs come back from disk as strings.
	s, _, _ := newStore(t)
	s.Set("blob", kv.String("AAH/"), store.Deferred)

	got, ok := s.Blob("blob")
	require.True(t, ok)
	assert.Equal(t, []byte{0x00, 0x01, 0xFF}, got)
}

func TestBlob_RejectsNonBase64String(t *testing.T) {
	s, _, _ := newStore(t)
	s.Set("k", kv.String("not base64!!"), store.Deferred)

	_, ok := s.Blob("k")
	assert.False(t, ok)
}

func TestSnapshot_IsDeepCopy(t *testing.T) {
	s, _, _ := newStore(t)
	s.Set("l", kv.StringList{"a"}, store.Deferred)

	snap := s.Snapshot()
	snap["l"].(kv.StringList)[0] = "mutated"
	assert.Equal(t, []string{"a"}, s.StringList("l"))
}

func TestRestore_ReplacesDocumentAndCancelsPending(t *testing.T) {
	s, persister, clock := newStore(t)
	s.Set("old", kv.Bool(true), store.Deferred)
	require.True(t, s.Pending())

	s.Restore(kv.Document{"new": kv.String("v")})

	assert.False(t, s.Pending())
	_, ok := s.Get("old")
	assert.False(t, ok)
	assert.Equal(t, "v", s.String("new", ""))

	// The cancelled deferred write must never fire.
	clock.Advance(store.DefaultDelay * 2)
	assert.Equal(t, 0, persister.Count())
}

func TestLen(t *testing.T) {
	s, _, _ := newStore(t)
	assert.Equal(t, 0, s.Len())
	s.Set("a", kv.Bool(true), store.Deferred)
	s.Set("b", kv.Bool(false), store.Deferred)
	assert.Equal(t, 2, s.Len())
}
