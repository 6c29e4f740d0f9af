package questions

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSource_DrawUsesPlayerCount(t *testing.T) {
	all := []Question{
		{ID: "duo", MinPlayers: 2, MaxPlayers: 2},
		{ID: "crowd", MinPlayers: 3, MaxPlayers: 10},
	}
	s := NewSource(all, 1)

	assert.Equal(t, []string{"duo"}, ids(s.Draw(2, 5)))
	assert.Equal(t, []string{"crowd"}, ids(s.Draw(4, 5)))
	assert.Empty(t, s.Draw(11, 5))
}

func TestSource_EachDrawStartsFromTheFullCatalog(t *testing.T) {
	s := NewSource([]Question{normal("a"), normal("b")}, 7)

	assert.Len(t, s.Draw(3, 2), 2)
	assert.Len(t, s.Draw(3, 2), 2)
}
