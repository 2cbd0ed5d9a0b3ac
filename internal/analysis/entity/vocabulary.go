package entity

import (
	"regexp"
	"strings"
)

// Canonical vocabularies. Every token is singular, unaccented and lower-case.
var (
	Types = []string{
		"pantalon", "camiseta", "camisa", "falda", "sudadera", "chaqueta",
		"vestido", "short", "remera", "buzo", "campera",
	}
	Colors = []string{
		"rojo", "azul", "verde", "negro", "blanco", "gris", "rosa", "morado",
		"naranja", "amarillo", "marron", "beige", "celeste",
	}
	Categories = []string{"deportivo", "casual", "formal", "elegante", "sport"}
	Sizes      = []string{"s", "m", "l", "xl", "xxl"}

	// DescriptionKeywords are matched as substrings of normalized input and
	// product text by the description search.
	DescriptionKeywords = []string{
		"ideal", "aire libre", "comoda", "moderna", "ligera", "diseno", "diario", "alta calidad",
	}
)

var sizePattern = regexp.MustCompile(`\btalla\s+(xxl|xl|s|m|l)\b`)

// canonical maps an inflected word ("pantalones", "rojas", "deportiva") onto
// its vocabulary entry. The second result is false when nothing matches.
func canonical(word string, vocab []string) (string, bool) {
	word = Normalize(word)
	if word == "" {
		return "", false
	}

	candidates := []string{word}
	if strings.HasSuffix(word, "es") {
		candidates = append(candidates, strings.TrimSuffix(word, "es"))
	}
	if strings.HasSuffix(word, "s") {
		candidates = append(candidates, strings.TrimSuffix(word, "s"))
	}
	for _, c := range candidates {
		if strings.HasSuffix(c, "a") {
			candidates = append(candidates, strings.TrimSuffix(c, "a")+"o")
		}
	}

	for _, c := range candidates {
		for _, v := range vocab {
			if c == v {
				return v, true
			}
		}
	}
	return "", false
}

// CanonicalType returns the vocabulary type for word, or "".
func CanonicalType(word string) string {
	v, _ := canonical(word, Types)
	return v
}

// CanonicalCategory returns the vocabulary category for word, or "".
func CanonicalCategory(word string) string {
	v, _ := canonical(word, Categories)
	return v
}

// CanonicalColor maps known color inflections onto the vocabulary and keeps
// any other single word as-is, since the catalog may carry colors outside it.
func CanonicalColor(word string) string {
	if v, ok := canonical(word, Colors); ok {
		return v
	}
	return Normalize(word)
}

// CanonicalSize returns the size token if it is one of Sizes.
func CanonicalSize(word string) string {
	word = Normalize(word)
	for _, s := range Sizes {
		if word == s {
			return s
		}
	}
	return ""
}

// MatchDescriptionKeywords returns the description keywords present in text.
func MatchDescriptionKeywords(text string) []string {
	normalized := Normalize(text)
	var found []string
	for _, kw := range DescriptionKeywords {
		if strings.Contains(normalized, kw) {
			found = append(found, kw)
		}
	}
	return found
}
