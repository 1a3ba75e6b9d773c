package layer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOverlapMode_Permissions(t *testing.T) {
	assert.True(t, AnyOverlap.AllowsStacking())
	assert.True(t, AnyOverlap.AllowsOverlap())
	assert.False(t, NoOverlap.AllowsStacking())
	assert.False(t, NoOverlap.AllowsOverlap())
	assert.False(t, OverlapOnly.AllowsStacking())
	assert.True(t, OverlapOnly.AllowsOverlap())
	assert.True(t, StackingOnly.AllowsStacking())
	assert.False(t, StackingOnly.AllowsOverlap())
}

func TestParseOverlapMode(t *testing.T) {
	m, err := ParseOverlapMode("")
	require.NoError(t, err)
	assert.Equal(t, AnyOverlap, m)

	m, err = ParseOverlapMode("no-overlap")
	require.NoError(t, err)
	assert.Equal(t, NoOverlap, m)

	_, err = ParseOverlapMode("sometimes")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sometimes")
}

func TestLayer_Defaults(t *testing.T) {
	l := Layer{Type: "pos"}
	assert.Equal(t, KindSpan, l.Shape())
	assert.Equal(t, AnyOverlap, l.Overlap())
	require.NoError(t, l.Validate())
}

func TestLayer_Validate_LinkCompareRequired(t *testing.T) {
	l := Layer{Type: "event", LinkFeatures: []string{"args"}}
	err := l.Validate()
	require.ErrorIs(t, err, ErrInvalidLayer)
	assert.Contains(t, err.Error(), "linkCompare")

	l.LinkCompare = LinkRoleAsLabel
	require.NoError(t, l.Validate())
}

func TestLayer_Validate_Errors(t *testing.T) {
	cases := map[string]Layer{
		"missing type":      {},
		"unknown kind":      {Type: "x", Kind: "tree"},
		"bad overlap":       {Type: "x", OverlapMode: "weird"},
		"duplicate feature": {Type: "x", LabelFeatures: []string{"a", "a"}},
		"bad link compare":  {Type: "x", LinkFeatures: []string{"l"}, LinkCompare: "both"},
	}
	for name, l := range cases {
		t.Run(name, func(t *testing.T) {
			require.ErrorIs(t, l.Validate(), ErrInvalidLayer)
		})
	}
}

func TestIndex(t *testing.T) {
	idx := Index([]Layer{{Type: "a"}, {Type: "b", OverlapMode: NoOverlap}, {Type: "b"}})
	require.Len(t, idx, 2)
	assert.Equal(t, AnyOverlap, idx["b"].Overlap(), "later definition wins")
}
