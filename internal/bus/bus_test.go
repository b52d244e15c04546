package bus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLatestWins(t *testing.T) {
	b := New[int]()

	_, ok := b.Latest()
	assert.False(t, ok)

	b.Publish(1)
	b.Publish(2)
	b.Publish(3)

	v, ok := b.Latest()
	require.True(t, ok)
	assert.Equal(t, 3, v, "only the most recent publish is retained")
}

func TestSubscriberSeesPublishes(t *testing.T) {
	b := New[string]()
	var got []string
	b.Subscribe(func(v string) { got = append(got, v) })

	b.Publish("a")
	b.Publish("b")
	assert.Equal(t, []string{"a", "b"}, got)
}

func TestLateSubscriberObservesCurrentValue(t *testing.T) {
	b := New[int]()
	b.Publish(41)
	b.Publish(42)

	var got int
	b.Subscribe(func(v int) { got = v })
	assert.Equal(t, 42, got)
}

func TestNilValuePublishes(t *testing.T) {
	b := New[*int]()
	n := 7
	b.Publish(&n)
	b.Publish(nil)

	v, ok := b.Latest()
	require.True(t, ok)
	assert.Nil(t, v, "nil is a real value, not absence")
}
