package position

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPositionString(t *testing.T) {
	p := Position{Filename: "specs/counter.rill", Line: 3, Column: 7}
	assert.Equal(t, "counter.rill:3:7", p.String())

	assert.Equal(t, "3:7", Position{Line: 3, Column: 7}.String())
}

func TestSpanString(t *testing.T) {
	s := Span{
		Start: Position{Line: 3, Column: 1},
		End:   Position{Line: 3, Column: 10},
	}
	assert.Equal(t, "3:1-10", s.String())

	multi := Span{
		Start: Position{Line: 3, Column: 1},
		End:   Position{Line: 5, Column: 2},
	}
	assert.Equal(t, "3:1-5:2", multi.String())
}

func TestSpanUnion(t *testing.T) {
	a := Span{Start: Position{Line: 1, Column: 1}, End: Position{Line: 1, Column: 5}}
	b := Span{Start: Position{Line: 2, Column: 1}, End: Position{Line: 2, Column: 9}}

	u := a.Union(b)
	assert.Equal(t, a.Start, u.Start)
	assert.Equal(t, b.End, u.End)
}

func TestInvalidPosition(t *testing.T) {
	assert.False(t, Position{}.IsValid())
	assert.False(t, Span{}.IsValid())
}
