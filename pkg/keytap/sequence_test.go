package keytap

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSequenceExpiry(t *testing.T) {
	base := time.Now()
	s := NewSequence(time.Second)
	ks := mustSeq(t, "ctrl+k", "ctrl+c")

	assert.Len(t, s.Push(ks[0], base), 1)
	assert.Len(t, s.Push(ks[1], base.Add(900*time.Millisecond)), 2)
	assert.False(t, s.Expired(base.Add(1800*time.Millisecond)))
	assert.True(t, s.Expired(base.Add(2*time.Second)))

	got := s.Push(ks[1], base.Add(3*time.Second))
	assert.Len(t, got, 1)

	s.Clear()
	assert.False(t, s.IsPending())
}

func TestSequenceKeysIsCopy(t *testing.T) {
	s := NewSequence(0)
	ks := mustSeq(t, "a")
	out := s.Push(ks[0], time.Now())
	out[0].Key = "Z"
	assert.Equal(t, "a", s.Keys()[0].Key)
	assert.False(t, s.Expired(time.Now().Add(time.Hour)), "zero timeout never expires")
}
