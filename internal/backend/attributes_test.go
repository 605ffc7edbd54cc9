package backend

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/KilimcininKorOglu/automember/internal/schema"
)

func TestAttributeSelectorWants(t *testing.T) {
	s := schema.LoadDefaultSchema()

	tests := []struct {
		name      string
		requested []string
		attr      string
		want      bool
	}{
		{name: "nil selects user", requested: nil, attr: "cn", want: true},
		{name: "empty selects user", requested: []string{}, attr: "cn", want: true},
		{name: "nil skips operational", requested: nil, attr: "entryUUID", want: false},
		{name: "star selects user", requested: []string{"*"}, attr: "member", want: true},
		{name: "star skips operational", requested: []string{"*"}, attr: "createTimestamp", want: false},
		{name: "plus selects operational", requested: []string{"+"}, attr: "createTimestamp", want: true},
		{name: "plus skips user", requested: []string{"+"}, attr: "cn", want: false},
		{name: "named", requested: []string{"uid"}, attr: "uid", want: true},
		{name: "alias", requested: []string{"commonName"}, attr: "cn", want: true},
		{name: "oid", requested: []string{"2.5.4.3"}, attr: "cn", want: true},
		{name: "option stripped", requested: []string{"cn;lang-en"}, attr: "cn", want: true},
		{name: "named operational", requested: []string{"entryUUID"}, attr: "entryuuid", want: true},
		{name: "not named", requested: []string{"uid"}, attr: "cn", want: false},
		{name: "no attributes", requested: []string{"1.1"}, attr: "cn", want: false},
		{name: "1.1 with others", requested: []string{"1.1", "cn"}, attr: "cn", want: true},
		{name: "unknown to schema", requested: []string{"*"}, attr: "x-custom", want: true},
		{name: "unknown operational fallback", requested: []string{"*"}, attr: "numSubordinates", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sel := NewAttributeSelector(s, tt.requested)
			assert.Equal(t, tt.want, sel.Wants(tt.attr))
		})
	}
}

func TestAttributeSelectorWithoutSchema(t *testing.T) {
	sel := NewAttributeSelector(nil, []string{"*"})
	assert.True(t, sel.Wants("cn"))
	assert.False(t, sel.Wants("modifyTimestamp"))
	assert.False(t, sel.WantsType(nil))

	sel = NewAttributeSelector(nil, []string{"CN"})
	assert.True(t, sel.Wants("cn"))
	assert.True(t, NewAttributeSelector(nil, []string{"1.1"}).SelectsNothing())
}

func TestAttributeSelectorSelect(t *testing.T) {
	e := entry("uid=a,dc=com", "uid", "a", "cn", "A", "entryUUID", "x")

	got, unchanged := NewAttributeSelector(nil, []string{"*", "+"}).Select(e)
	assert.True(t, unchanged)
	assert.Same(t, e, got)

	got, unchanged = NewAttributeSelector(nil, nil).Select(e)
	assert.False(t, unchanged)
	assert.NotSame(t, e, got)
	assert.ElementsMatch(t, []string{"uid", "cn"}, got.AttributeNames())

	got.MergeAttribute("cn", "B")
	assert.Equal(t, []string{"A"}, e.GetAttribute("cn"), "projection does not alias values")

	got, unchanged = NewAttributeSelector(nil, []string{"1.1"}).Select(e)
	assert.False(t, unchanged)
	assert.Empty(t, got.Attributes)
}
