// Package intent maps a chat message onto the action the shopper wants.
package intent

import (
	"regexp"

	"github.com/zhouzirui/shopbot/backend/internal/analysis/entity"
)

// Tag identifies a classified intent.
type Tag string

const (
	ShowMore            Tag = "show_more"
	ContinueShopping    Tag = "continue_shopping"
	FinalizePurchase    Tag = "finalize_purchase"
	RemoveProduct       Tag = "remove_product"
	EditQuantity        Tag = "edit_quantity"
	AddByID             Tag = "add_by_id"
	ViewCart            Tag = "view_cart"
	ListAll             Tag = "list_all"
	SearchByName        Tag = "search_by_name"
	Suggest             Tag = "suggest"
	AddToCart           Tag = "add_to_cart"
	SearchByCategory    Tag = "search_by_category"
	SearchByDescription Tag = "search_by_description"
	Other               Tag = "other"
)

// Tags lists every tag a Classify call can return.
var Tags = []Tag{
	ShowMore, ContinueShopping, FinalizePurchase, RemoveProduct, EditQuantity,
	AddByID, ViewCart, ListAll, SearchByName, Suggest, AddToCart,
	SearchByCategory, SearchByDescription, Other,
}

type rule struct {
	tag   Tag
	match func(normalized string) bool
}

func pattern(expr string) func(string) bool {
	re := regexp.MustCompile(expr)
	return re.MatchString
}

var (
	purchaseVerb  = regexp.MustCompile(`quiero comprar|agregar al carrito|anadir|comprar|llevar`)
	quantityToken = regexp.MustCompile(`\d+|\b(?:un|una|uno|dos|tres|cuatro|cinco)\b`)
	categoryCue   = regexp.MustCompile(`ropa (?:deportiv|casual|formal|elegant)|deportiv|casual|formal|elegant`)
	categoryVeto  = regexp.MustCompile(`comprar|agregar|anadir|llevar`)
)

// cascade is evaluated top to bottom and the first match wins. Several cues
// overlap ("comoda" is both a suggestion and a description cue, "casual"
// both a category and a name cue), so the order decides.
var cascade = []rule{
	{ShowMore, pattern(`ver mas|mostrar mas|mas productos|siguiente|continuar|siguiente pagina`)},
	{ContinueShopping, pattern(`seguir comprando|seguir viendo|volver a la tienda`)},
	{FinalizePurchase, pattern(`finalizar compra|finalizar|terminar compra|terminar|pagar|checkout|proceder`)},
	{RemoveProduct, pattern(`eliminar|quitar|borrar|sacar|remover`)},
	{EditQuantity, pattern(`cambiar cantidad|modificar cantidad|actualizar cantidad|editar cantidad|quiero \d+.*del id|cambiar.*a \d+ unidades`)},
	{AddByID, pattern(`agregar (?:producto |id )?\d+|comprar (?:producto |id )?\d+|id \d+`)},
	{ViewCart, pattern(`ver (?:mi )?carrito|mostrar (?:mi )?carrito|que tengo|mi carrito`)},
	{ListAll, pattern(`todos los productos|todo el catalogo|muestra todo|ver todo|lista completa`)},
	{SearchByName, pattern(`prendas? (?:de )?color|ropa (?:de )?color|tenes.*(?:rojo|azul|verde|negro|blanco|amarillo|gris)`)},
	{Suggest, pattern(`recomienda|recomendaci|sugiere|sugerencia|que compro|que me conviene|buscame|perfecta? para|recomiendame|comoda|comodo`)},
	{AddToCart, func(s string) bool {
		return purchaseVerb.MatchString(s) && quantityToken.MatchString(s)
	}},
	{SearchByCategory, func(s string) bool {
		return categoryCue.MatchString(s) && !categoryVeto.MatchString(s)
	}},
	{SearchByName, pattern(`busco|quiero|necesito|mostrame|muestra|dame|ver|pantalon|camiseta|camisa|falda|sudadera|chaqueta|short|remera|buzo|vestido`)},
	{SearchByDescription, pattern(`ideal|aire libre|comod|modern|liger|diseno|diario|uso|usar|material|alta|calidad|buen|actividad`)},
}

// Classify returns the intent of text. It never fails; unmatched text is Other.
func Classify(text string) Tag {
	normalized := entity.Normalize(text)
	for _, r := range cascade {
		if r.match(normalized) {
			return r.tag
		}
	}
	return Other
}
