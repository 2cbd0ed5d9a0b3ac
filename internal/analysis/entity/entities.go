package entity

import "strings"

// Entities are the semantic slots pulled out of a search message. An empty
// field means the slot was not found.
type Entities struct {
	Type     string `json:"tipo,omitempty"`
	Color    string `json:"color,omitempty"`
	Category string `json:"categoria,omitempty"`
	Size     string `json:"talla,omitempty"`
}

// Empty reports whether no slot is set.
func (e Entities) Empty() bool {
	return e.Type == "" && e.Color == "" && e.Category == "" && e.Size == ""
}

// Canonical folds every slot onto the vocabulary. Type and category values
// outside the vocabulary are dropped rather than guessed.
func (e Entities) Canonical() Entities {
	return Entities{
		Type:     CanonicalType(absentIfNull(e.Type)),
		Color:    canonicalColorOrEmpty(absentIfNull(e.Color)),
		Category: CanonicalCategory(absentIfNull(e.Category)),
		Size:     CanonicalSize(absentIfNull(e.Size)),
	}
}

func canonicalColorOrEmpty(v string) string {
	if v == "" {
		return ""
	}
	return CanonicalColor(v)
}

// IsAbsent reports whether v is empty or one of the literal answers models
// use for "nothing".
func IsAbsent(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "null", "none", "nil", "ninguno", "ninguna", "n/a":
		return true
	}
	return false
}

func absentIfNull(v string) string {
	if IsAbsent(v) {
		return ""
	}
	return strings.TrimSpace(v)
}

// Match extracts entities locally by scanning the text against the
// vocabularies. The first hit per slot wins.
func Match(text string) Entities {
	normalized := Normalize(text)
	var e Entities
	for _, tok := range tokens(normalized) {
		if e.Type == "" {
			if v, ok := canonical(tok, Types); ok {
				e.Type = v
				continue
			}
		}
		if e.Color == "" {
			if v, ok := canonical(tok, Colors); ok {
				e.Color = v
				continue
			}
		}
		if e.Category == "" {
			if v, ok := canonical(tok, Categories); ok {
				e.Category = v
				continue
			}
		}
	}
	if m := sizePattern.FindStringSubmatch(normalized); m != nil {
		e.Size = m[1]
	}
	return e
}

// MatchCategory returns the first vocabulary category found in text, or "".
func MatchCategory(text string) string {
	for _, tok := range tokens(Normalize(text)) {
		if v, ok := canonical(tok, Categories); ok {
			return v
		}
	}
	return ""
}
