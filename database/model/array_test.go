package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStringArrayValue(t *testing.T) {
	var empty StringArray
	v, err := empty.Value()
	assert.NoError(t, err)
	assert.Equal(t, "[]", v)

	v, err = StringArray{"dairy", "frozen"}.Value()
	assert.NoError(t, err)
	assert.Equal(t, `["dairy","frozen"]`, v)
}

func TestStringArrayScan(t *testing.T) {
	var a StringArray
	assert.NoError(t, a.Scan(`["dairy","frozen"]`))
	assert.Equal(t, StringArray{"dairy", "frozen"}, a)

	var b StringArray
	assert.NoError(t, b.Scan([]byte(`["dairy"]`)))
	assert.Equal(t, StringArray{"dairy"}, b)

	var c StringArray
	assert.NoError(t, c.Scan(nil))
	assert.Nil(t, c)
	assert.NoError(t, c.Scan(""))
	assert.Nil(t, c)

	assert.Error(t, c.Scan(42))
}

func TestStringArrayContainsAndRemove(t *testing.T) {
	a := StringArray{"dairy", "frozen", "produce"}
	assert.True(t, a.Contains("frozen"))
	assert.False(t, a.Contains("bakery"))

	removed := a.Remove("frozen")
	assert.Equal(t, StringArray{"dairy", "produce"}, removed)
	// Removing an absent element is a no-op.
	assert.Equal(t, removed, removed.Remove("bakery"))
}

func TestIntArrayRoundTrip(t *testing.T) {
	v, err := IntArray{1, 2, 3}.Value()
	assert.NoError(t, err)
	assert.Equal(t, "[1,2,3]", v)

	var a IntArray
	assert.NoError(t, a.Scan("[1,2,3]"))
	assert.Equal(t, IntArray{1, 2, 3}, a)

	assert.True(t, a.Contains(2))
	assert.Equal(t, IntArray{1, 3}, a.Remove(2))
}

func TestListHasMember(t *testing.T) {
	list := &List{UserIds: IntArray{1, 3}}
	assert.True(t, list.HasMember(1))
	assert.False(t, list.HasMember(2))
}
