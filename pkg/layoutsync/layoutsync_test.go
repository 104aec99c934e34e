package layoutsync

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type doc struct {
	Rev int
}

func TestRemoteRefreshSuppressedWhileEditing(t *testing.T) {
	s := New(doc{Rev: 1})
	require.Equal(t, Clean, s.State())

	// clean syncers take refreshes
	assert.True(t, s.ApplyRemote(doc{Rev: 2}))
	assert.Equal(t, doc{Rev: 2}, s.Local())

	// dirty syncers ignore them
	s.Edit(doc{Rev: 3})
	require.Equal(t, Dirty, s.State())
	assert.False(t, s.ApplyRemote(doc{Rev: 99}))
	assert.Equal(t, doc{Rev: 3}, s.Local())

	// saving syncers ignore them too
	toSave, ok := s.BeginSave()
	require.True(t, ok)
	assert.Equal(t, doc{Rev: 3}, toSave)
	assert.False(t, s.ApplyRemote(doc{Rev: 100}))
	assert.Equal(t, doc{Rev: 3}, s.Local())

	s.SaveSucceeded()
	assert.Equal(t, Clean, s.State())
	assert.True(t, s.ApplyRemote(doc{Rev: 4}))
}

func TestEditDuringSaveQueuesAnotherSave(t *testing.T) {
	s := New(doc{Rev: 1})
	s.Edit(doc{Rev: 2})

	_, ok := s.BeginSave()
	require.True(t, ok)

	// the user keeps typing while the save is in flight
	s.Edit(doc{Rev: 3})
	require.Equal(t, Saving, s.State())

	s.SaveSucceeded()
	// not clean: the Rev 3 edit still needs persisting
	require.Equal(t, Dirty, s.State())

	toSave, ok := s.BeginSave()
	require.True(t, ok)
	assert.Equal(t, doc{Rev: 3}, toSave)
	s.SaveSucceeded()
	assert.Equal(t, Clean, s.State())
}

func TestSaveFailedRetries(t *testing.T) {
	s := New(doc{Rev: 1})
	s.Edit(doc{Rev: 2})

	_, ok := s.BeginSave()
	require.True(t, ok)
	s.SaveFailed()
	require.Equal(t, Dirty, s.State())

	toSave, ok := s.BeginSave()
	require.True(t, ok)
	assert.Equal(t, doc{Rev: 2}, toSave)
}

func TestBeginSaveOnCleanIsNoop(t *testing.T) {
	s := New(doc{Rev: 1})
	_, ok := s.BeginSave()
	assert.False(t, ok)
	assert.Equal(t, Clean, s.State())
}
