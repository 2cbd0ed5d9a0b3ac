package entity

import (
	"regexp"
	"strconv"
)

var (
	explicitIDPattern   = regexp.MustCompile(`\bid\s*(\d+)`)
	verbIDPattern       = regexp.MustCompile(`\b(?:agregar|comprar|anadir)\s+(?:el\s+)?(?:producto\s+)?(\d+)\b(\s*(?:unidades|unidad|x)\b)?`)
	lineIDPattern       = regexp.MustCompile(`(?:\bid\s*)?(\d+)`)
	editIDPattern       = regexp.MustCompile(`\b(?:id|producto)\s*(\d+)`)
	quantityPattern     = regexp.MustCompile(`(\d+)\s*(?:unidades|unidad|x)\b`)
	targetQtyPattern    = regexp.MustCompile(`\ba\s+(-?\d+)\s*(?:unidades|unidad|x)?`)
	quantityWordPattern = regexp.MustCompile(`\b(uno|una|dos|tres|cuatro|cinco|seis|siete|ocho|nueve|diez)\b`)
)

var quantityWords = map[string]int{
	"uno": 1, "una": 1, "dos": 2, "tres": 3, "cuatro": 4, "cinco": 5,
	"seis": 6, "siete": 7, "ocho": 8, "nueve": 9, "diez": 10,
}

// ParseProductID finds the product id in an add request. "id N" wins over
// "agregar N"; a number directly followed by a unit word is a quantity, not
// an id.
func ParseProductID(text string) (int, bool) {
	normalized := Normalize(text)
	if m := explicitIDPattern.FindStringSubmatch(normalized); m != nil {
		return atoi(m[1])
	}
	for _, m := range verbIDPattern.FindAllStringSubmatch(normalized, -1) {
		if m[2] != "" {
			continue
		}
		return atoi(m[1])
	}
	return 0, false
}

// ParseQuantity reads "N unidades" / "N x", then a spelled-out number, and
// defaults to 1.
func ParseQuantity(text string) int {
	normalized := Normalize(text)
	if m := quantityPattern.FindStringSubmatch(normalized); m != nil {
		if n, ok := atoi(m[1]); ok {
			return n
		}
	}
	if m := quantityWordPattern.FindStringSubmatch(normalized); m != nil {
		return quantityWords[m[1]]
	}
	return 1
}

// ParseLineID returns the first number in text, optionally prefixed by "id".
func ParseLineID(text string) (int, bool) {
	if m := lineIDPattern.FindStringSubmatch(Normalize(text)); m != nil {
		return atoi(m[1])
	}
	return 0, false
}

// ParseEditID returns the product id named as "id N" or "producto N".
func ParseEditID(text string) (int, bool) {
	if m := editIDPattern.FindStringSubmatch(Normalize(text)); m != nil {
		return atoi(m[1])
	}
	return 0, false
}

// ParseTargetQuantity reads the "... a N unidades" part of an edit request.
// The last occurrence wins; the value may be zero or negative.
func ParseTargetQuantity(text string) (int, bool) {
	matches := targetQtyPattern.FindAllStringSubmatch(Normalize(text), -1)
	if len(matches) == 0 {
		return 0, false
	}
	return atoi(matches[len(matches)-1][1])
}

func atoi(s string) (int, bool) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}
