package city

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_DefaultsToVancouver(t *testing.T) {
	assert.Equal(t, DefaultCity, New("").Get())
	assert.Equal(t, DefaultCity, New("   ").Get())
	assert.Equal(t, "Paris", New("Paris").Get())
}

func TestSet_SameValueNotifiesOnce(t *testing.T) {
	s := New("Vancouver")

	var got []string
	s.Subscribe(func(c string) { got = append(got, c) })

	assert.True(t, s.Set("Paris"))
	assert.False(t, s.Set("Paris"))

	assert.Equal(t, []string{"Paris"}, got)
	assert.Equal(t, "Paris", s.Get())
}

func TestSet_EachChangeNotifiesOnce(t *testing.T) {
	s := New("Vancouver")

	calls := 0
	s.Subscribe(func(string) { calls++ })

	s.Set("Paris")
	s.Set("Tokyo")
	s.Set("Paris")

	assert.Equal(t, 3, calls)
}

func TestSet_InitialValueIsNotAChange(t *testing.T) {
	s := New("Vancouver")

	calls := 0
	s.Subscribe(func(string) { calls++ })

	assert.False(t, s.Set("Vancouver"))
	assert.Zero(t, calls)
}

func TestSet_BlankIgnored(t *testing.T) {
	s := New("Vancouver")

	calls := 0
	s.Subscribe(func(string) { calls++ })

	assert.False(t, s.Set(""))
	assert.False(t, s.Set("  "))
	assert.Zero(t, calls)
	assert.Equal(t, "Vancouver", s.Get())
}

func TestSet_NotifiesInSubscriptionOrder(t *testing.T) {
	s := New("Vancouver")

	var order []int
	for i := 0; i < 4; i++ {
		i := i
		s.Subscribe(func(string) { order = append(order, i) })
	}

	s.Set("Berlin")
	assert.Equal(t, []int{0, 1, 2, 3}, order)
}

func TestSet_NotifiesBeforeReturning(t *testing.T) {
	s := New("Vancouver")

	var seen string
	s.Subscribe(func(string) { seen = s.Get() })

	s.Set("Delhi")
	assert.Equal(t, "Delhi", seen)
}

func TestUnsubscribe(t *testing.T) {
	s := New("Vancouver")

	a, b := 0, 0
	unsubA := s.Subscribe(func(string) { a++ })
	s.Subscribe(func(string) { b++ })
	require.Equal(t, 2, s.Subscribers())

	s.Set("Paris")
	unsubA()
	unsubA()
	s.Set("Tokyo")

	assert.Equal(t, 1, a)
	assert.Equal(t, 2, b)
	assert.Equal(t, 1, s.Subscribers())
}

func TestSuggest(t *testing.T) {
	assert.Equal(t, []string{"Montreal", "Mumbai", "Mexico City"}, Suggest("m"))
	assert.Equal(t, []string{"London", "Los Angeles"}, Suggest("LO"))
	assert.Empty(t, Suggest(""))
	assert.Empty(t, Suggest("zzz"))
}

func TestSuggest_CapsResults(t *testing.T) {
	cities := []string{"Ba", "Bb", "Bc", "Bd", "Be", "Bf", "Bg"}
	assert.Equal(t, []string{"Ba", "Bb", "Bc", "Bd", "Be"}, suggestFrom(cities, "b"))
}

func TestKnownReturnsCopy(t *testing.T) {
	list := Known()
	require.Len(t, list, 20)
	assert.Equal(t, "Vancouver", list[0])

	list[0] = "Atlantis"
	assert.Equal(t, "Vancouver", Known()[0])
	assert.Empty(t, Suggest("Atl"))
	assert.Equal(t, []string{"Vancouver"}, Suggest("van"))
}
