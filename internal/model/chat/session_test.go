package chat

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/zhouzirui/shopbot/backend/internal/model/catalog"
)

func products(n int) []catalog.Product {
	out := make([]catalog.Product, n)
	for i := range out {
		out[i] = catalog.Product{ID: i + 1, Name: "p"}
	}
	return out
}

func TestAdvanceClampsAtEnd(t *testing.T) {
	s := NewSession("u", time.Now())
	s.SetResults("x", products(25))

	assert.True(t, s.Advance())
	assert.Equal(t, 10, s.DisplayOffset)
	assert.True(t, s.Advance())
	assert.Equal(t, 20, s.DisplayOffset)
	assert.Len(t, s.Page(), 5)
	assert.False(t, s.HasMore())

	for i := 0; i < 3; i++ {
		assert.False(t, s.Advance())
		assert.Equal(t, 15, s.DisplayOffset)
	}
}

func TestAdvanceWithFewerThanAPage(t *testing.T) {
	s := NewSession("u", time.Now())
	s.SetResults("x", products(3))
	assert.False(t, s.Advance())
	assert.Equal(t, 0, s.DisplayOffset)
	assert.Len(t, s.Page(), 3)
}

func TestCloneIsDeep(t *testing.T) {
	s := NewSession("u", time.Now())
	s.SetResults("x", products(2))
	s.OpenCart(7)

	cp := s.Clone()
	cp.LastResults[0].Name = "changed"
	*cp.ActiveCartID = 9

	assert.Equal(t, "p", s.LastResults[0].Name)
	assert.Equal(t, 7, *s.ActiveCartID)
}

func TestCloseCart(t *testing.T) {
	s := NewSession("u", time.Now())
	s.OpenCart(3)
	s.Phase = PhasePostAdd
	s.CloseCart()
	assert.Nil(t, s.ActiveCartID)
	assert.Equal(t, PhaseWelcome, s.Phase)
}
