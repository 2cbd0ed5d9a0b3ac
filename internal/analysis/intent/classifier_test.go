package intent

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		text string
		want Tag
	}{
		{"ver más", ShowMore},
		{"Siguiente página", ShowMore},
		{"seguir comprando", ContinueShopping},
		{"finalizar compra", FinalizePurchase},
		{"quiero pagar", FinalizePurchase},
		{"eliminar ID 99", RemoveProduct},
		{"cambiar cantidad del ID 154 a 3 unidades", EditQuantity},
		{"agregar ID 113", AddByID},
		{"comprar 42", AddByID},
		{"ver carrito", ViewCart},
		{"¿qué tengo?", ViewCart},
		{"todos los productos", ListAll},
		{"prendas de color azul", SearchByName},
		{"tenés algo rojo?", SearchByName},
		{"recomiéndame algo", Suggest},
		{"algo cómodo para el finde", Suggest},
		{"quiero comprar dos camisetas", AddToCart},
		{"añadir una falda", AddToCart},
		{"quiero llevar algunos pantalones", SearchByName},
		{"ropa deportiva", SearchByCategory},
		{"algo formal", SearchByCategory},
		{"busco pantalones rojos", SearchByName},
		{"camisetas", SearchByName},
		{"algo ideal para el aire libre", SearchByDescription},
		{"hola", Other},
		{"", Other},
	}
	for _, tc := range cases {
		t.Run(tc.text, func(t *testing.T) {
			assert.Equal(t, tc.want, Classify(tc.text))
		})
	}
}

func TestShowMoreOutranksEveryOtherCue(t *testing.T) {
	lowerCues := []string{
		"finalizar compra", "eliminar id 3", "cambiar cantidad", "agregar id 4",
		"ver carrito", "todos los productos", "ropa de color rojo", "recomienda",
		"comprar dos", "ropa deportiva", "busco pantalon", "ideal",
	}
	for _, cue := range lowerCues {
		assert.Equal(t, ShowMore, Classify("ver mas "+cue), cue)
		assert.Equal(t, ShowMore, Classify(cue+" y siguiente"), cue)
	}
}

func TestCategoryYieldsToPurchaseVerb(t *testing.T) {
	// No quantity token, so the add-to-cart rule does not fire either and the
	// name rule picks up the garment.
	assert.Equal(t, SearchByName, Classify("llevar pantalon deportivo"))
	assert.Equal(t, SearchByCategory, Classify("pantalon deportivo"))
}

func TestAddToCartNeedsQuantityToken(t *testing.T) {
	// "comprar 2" alone reads as a product id.
	assert.Equal(t, AddByID, Classify("quiero comprar 2 remeras"))
	assert.Equal(t, AddToCart, Classify("quiero llevar 2 remeras"))
	assert.NotEqual(t, AddToCart, Classify("comprar remeras"))
}
