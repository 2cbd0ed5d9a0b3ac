package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeFoldsAccentsAndCase(t *testing.T) {
	assert.Equal(t, "ver mas", Normalize("  Ver   MÁS "))
	assert.Equal(t, "anadir pantalon", Normalize("Añadir pantalón"))
	assert.Equal(t, "", Normalize("   "))
}

func TestBuildQueryPrecedence(t *testing.T) {
	cases := []struct {
		name string
		in   Entities
		want string
	}{
		{"type and color", Entities{Type: "pantalon", Color: "rojo"}, "pantalon rojo"},
		{"category alone", Entities{Category: "deportivo"}, "deportivo"},
		{"category suppressed by type", Entities{Type: "camiseta", Category: "deportivo"}, "camiseta"},
		{"color and category", Entities{Color: "azul", Category: "formal"}, "azul formal"},
		{"size never queried", Entities{Size: "m"}, ""},
		{"empty", Entities{}, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, BuildQuery(tc.in))
		})
	}
}

func TestMatchExtractsInflectedForms(t *testing.T) {
	got := Match("Busco pantalones ROJOS deportivos talla XL")
	assert.Equal(t, Entities{Type: "pantalon", Color: "rojo", Category: "deportivo", Size: "xl"}, got)

	got = Match("camisetas negras")
	assert.Equal(t, Entities{Type: "camiseta", Color: "negro"}, got)

	assert.True(t, Match("hola, qué tal").Empty())
}

func TestCanonicalDropsUnknownTypeAndCategory(t *testing.T) {
	in := Entities{Type: "Pantalones", Color: "Rojas", Category: "urbano", Size: "M"}
	assert.Equal(t, Entities{Type: "pantalon", Color: "rojo", Size: "m"}, in.Canonical())

	nulls := Entities{Type: "null", Color: "None", Category: "", Size: "null"}
	assert.True(t, nulls.Canonical().Empty())

	assert.Equal(t, "turquesa", Entities{Color: "Turquesa"}.Canonical().Color)
}

func TestParseProductID(t *testing.T) {
	cases := []struct {
		in     string
		want   int
		wantOK bool
	}{
		{"agregar ID 113", 113, true},
		{"comprar producto 42", 42, true},
		{"agregar 3 unidades del id 7", 7, true},
		{"añadir 15", 15, true},
		{"agregar 3 unidades", 0, false},
		{"quiero algo", 0, false},
	}
	for _, tc := range cases {
		got, ok := ParseProductID(tc.in)
		assert.Equal(t, tc.wantOK, ok, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}
}

func TestParseQuantity(t *testing.T) {
	assert.Equal(t, 3, ParseQuantity("agregar id 10 3 unidades"))
	assert.Equal(t, 2, ParseQuantity("agregar id 10 2x"))
	assert.Equal(t, 2, ParseQuantity("comprar dos del id 10"))
	assert.Equal(t, 1, ParseQuantity("agregar ID 113"))
}

func TestParseTargetQuantity(t *testing.T) {
	n, ok := ParseTargetQuantity("cambiar cantidad del ID 154 a 3 unidades")
	require.True(t, ok)
	assert.Equal(t, 3, n)

	n, ok = ParseTargetQuantity("cambiar id 154 a 0")
	require.True(t, ok)
	assert.Equal(t, 0, n)

	n, ok = ParseTargetQuantity("cambiar id 154 a -2 unidades")
	require.True(t, ok)
	assert.Equal(t, -2, n)

	_, ok = ParseTargetQuantity("cambiar cantidad del id 154")
	assert.False(t, ok)
}

func TestParseEditAndLineID(t *testing.T) {
	id, ok := ParseEditID("modificar cantidad producto 12 a 4")
	require.True(t, ok)
	assert.Equal(t, 12, id)

	_, ok = ParseEditID("cambiar cantidad")
	assert.False(t, ok)

	id, ok = ParseLineID("eliminar ID 99")
	require.True(t, ok)
	assert.Equal(t, 99, id)

	_, ok = ParseLineID("eliminar algo")
	assert.False(t, ok)
}

func TestMatchDescriptionKeywords(t *testing.T) {
	assert.Equal(t, []string{"comoda", "diario"}, MatchDescriptionKeywords("Ropa cómoda para el diario"))
	assert.Equal(t, []string{"aire libre"}, MatchDescriptionKeywords("prendas para AIRE LIBRE"))
	assert.Empty(t, MatchDescriptionKeywords("algo lindo"))
}
