package dialogue

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/zhouzirui/shopbot/backend/internal/analysis/entity"
	"github.com/zhouzirui/shopbot/backend/internal/model/catalog"
	"github.com/zhouzirui/shopbot/backend/internal/model/chat"
)

const welcomeMessage = "👋 ¡Hola! Bienvenido/a a nuestra tienda.\n\n" +
	"¿Qué producto estás buscando hoy?\n\n" +
	"Puedo ayudarte a:\n" +
	"• Buscar productos\n" +
	"• Crear tu carrito\n" +
	"• Darte recomendaciones\n\n" +
	"💡 Ejemplo: \"busco pantalones negros\""

const helpMessage = "🤔 No entendí tu mensaje.\n\nPodés probar con:\n" +
	"• \"ver carrito\"\n" +
	"• \"camisetas rojas\"\n" +
	"• \"ropa deportiva\"\n" +
	"• \"recomiéndame algo\"\n" +
	"• \"agregar ID 113\""

const postAddMenu = "💡 Opciones:\n" +
	"• \"seguir comprando\"\n" +
	"• \"cambiar cantidad del ID X a Y\"\n" +
	"• \"ver carrito\" o \"finalizar compra\""

const moreHint = "💡 Escribí \"ver más\" para mostrar más productos."

// price prints catalog prices the way they are stored: 25 stays "25", 19.9
// stays "19.9".
func price(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// total prints computed amounts with two decimals.
func total(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

func plural(n int, singular, pluralForm string) string {
	if n == 1 {
		return singular
	}
	return pluralForm
}

// writeProducts renders one bullet per product with id, price and stock.
func writeProducts(b *strings.Builder, products []catalog.Product) {
	for _, p := range products {
		fmt.Fprintf(b, "• %s\n  ID: %d | Precio: $%s | Stock: %d\n\n", p.Name, p.ID, price(p.Price), p.Stock)
	}
}

// writePage renders the session's current page plus the position and "ver
// más" hints.
func writePage(b *strings.Builder, s *chat.Session) {
	page := s.Page()
	writeProducts(b, page)
	if len(s.LastResults) > len(page) {
		fmt.Fprintf(b, "(Mostrando %d a %d de %d productos)\n", s.DisplayOffset+1, s.DisplayOffset+len(page), len(s.LastResults))
	}
	if s.HasMore() {
		b.WriteString(moreHint + "\n")
	}
}

func writeNumbered(b *strings.Builder, products []catalog.Product) {
	for i, p := range products {
		fmt.Fprintf(b, "%d. %s (ID %d) - $%s\n", i+1, p.Name, p.ID, price(p.Price))
	}
}

func writeCartLines(b *strings.Builder, cart catalog.Cart, withQtyLabel bool) {
	for _, item := range cart.Items {
		if withQtyLabel {
			fmt.Fprintf(b, "• ID: %d | Cantidad actual: %dx | %s\n", item.ID(), item.Qty, item.Name())
			continue
		}
		fmt.Fprintf(b, "• ID: %d | %dx %s\n", item.ID(), item.Qty, item.Name())
	}
}

func vocabularyHint() string {
	return strings.Join(entity.Categories, ", ")
}

func insufficientStock(p catalog.Product, requested int) string {
	return fmt.Sprintf("❌ Lo siento, \"%s\" no tiene stock suficiente.\n\nStock disponible: %d\nCantidad solicitada: %d",
		p.Name, p.Stock, requested)
}
