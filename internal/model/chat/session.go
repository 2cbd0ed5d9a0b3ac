package chat

import (
	"time"

	"github.com/zhouzirui/shopbot/backend/internal/model/catalog"
)

// Phase is the advisory stage of a conversation. It only shapes default
// prompts; handlers do not refuse intents based on it.
type Phase string

const (
	PhaseWelcome        Phase = "welcome"
	PhaseExploring      Phase = "exploring"
	PhaseCartManagement Phase = "cart_management"
	PhasePostAdd        Phase = "post_add"
)

// DefaultPageSize is how many products a listing shows at once.
const DefaultPageSize = 10

// QueryAll marks LastResults as the full catalog.
const QueryAll = "*"

// Session is the per-identity conversational state.
type Session struct {
	ID            string            `json:"id"`
	Phase         Phase             `json:"phase"`
	LastResults   []catalog.Product `json:"lastResults"`
	LastQuery     string            `json:"lastQuery"`
	DisplayOffset int               `json:"displayOffset"`
	PageSize      int               `json:"pageSize"`
	ActiveCartID  *int              `json:"activeCartId"`
	CreatedAt     time.Time         `json:"createdAt"`
	UpdatedAt     time.Time         `json:"updatedAt"`
}

// NewSession returns a fresh session in the welcome phase.
func NewSession(id string, now time.Time) *Session {
	return &Session{
		ID:        id,
		Phase:     PhaseWelcome,
		PageSize:  DefaultPageSize,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// SetResults replaces the result set and rewinds pagination.
func (s *Session) SetResults(query string, products []catalog.Product) {
	s.LastQuery = query
	s.LastResults = products
	s.DisplayOffset = 0
}

// Page returns the products at the current offset.
func (s *Session) Page() []catalog.Product {
	size := s.pageSize()
	if s.DisplayOffset >= len(s.LastResults) {
		return nil
	}
	end := s.DisplayOffset + size
	if end > len(s.LastResults) {
		end = len(s.LastResults)
	}
	return s.LastResults[s.DisplayOffset:end]
}

// Advance moves to the next page. It returns false, leaving the offset on the
// last full page, when no further page exists.
func (s *Session) Advance() bool {
	size := s.pageSize()
	next := s.DisplayOffset + size
	if next >= len(s.LastResults) {
		s.DisplayOffset = max(0, len(s.LastResults)-size)
		return false
	}
	s.DisplayOffset = next
	return true
}

// HasMore reports whether results remain after the current page.
func (s *Session) HasMore() bool {
	return s.DisplayOffset+s.pageSize() < len(s.LastResults)
}

// OpenCart records the cart the session is building.
func (s *Session) OpenCart(id int) {
	s.ActiveCartID = &id
}

// CloseCart forgets the active cart and returns to the welcome phase.
func (s *Session) CloseCart() {
	s.ActiveCartID = nil
	s.Phase = PhaseWelcome
}

// Clone returns a deep copy safe to hand to another goroutine.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	cp := *s
	if s.LastResults != nil {
		cp.LastResults = make([]catalog.Product, len(s.LastResults))
		copy(cp.LastResults, s.LastResults)
	}
	if s.ActiveCartID != nil {
		id := *s.ActiveCartID
		cp.ActiveCartID = &id
	}
	return &cp
}

func (s *Session) pageSize() int {
	if s.PageSize <= 0 {
		return DefaultPageSize
	}
	return s.PageSize
}
