package dialogue

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/zhouzirui/shopbot/backend/internal/analysis/entity"
	"github.com/zhouzirui/shopbot/backend/internal/model/catalog"
	"github.com/zhouzirui/shopbot/backend/internal/model/chat"
	catalogsvc "github.com/zhouzirui/shopbot/backend/internal/service/catalog"
)

func upstreamMessage(err error) string {
	return catalogsvc.UserMessage(err)
}

func isNotFound(err error) bool {
	return errors.Is(err, catalogsvc.ErrNotFound)
}

// activeCart fetches the session's cart. A cart the service no longer knows
// is forgotten and reported as absent.
func (e *Engine) activeCart(ctx context.Context, s *chat.Session) (catalog.Cart, bool, error) {
	if s.ActiveCartID == nil {
		return catalog.Cart{}, false, nil
	}
	cart, err := e.catalog.GetCart(ctx, *s.ActiveCartID)
	if isNotFound(err) {
		s.CloseCart()
		return catalog.Cart{}, false, nil
	}
	if err != nil {
		return catalog.Cart{}, false, err
	}
	return cart, true, nil
}

// addItem is the stock-checked add. The requested quantity is merged with
// what the cart already holds for the product; nothing is sent to the cart
// endpoints when stock does not cover the total.
func (e *Engine) addItem(ctx context.Context, s *chat.Session, productID, qty int) string {
	if qty <= 0 {
		return "❌ La cantidad tiene que ser mayor a 0."
	}

	product, err := e.catalog.GetProduct(ctx, productID)
	if isNotFound(err) {
		return fmt.Sprintf("❌ No encontré ningún producto con ID %d.", productID)
	}
	if err != nil {
		return e.apology("agregar el producto", err)
	}

	cart, hasCart, err := e.activeCart(ctx, s)
	if err != nil {
		return e.apology("agregar el producto", err)
	}
	inCart := 0
	if hasCart {
		if line, ok := cart.Line(productID); ok {
			inCart = line.Qty
		}
	}

	if product.Stock < inCart+qty {
		msg := insufficientStock(product, qty)
		if inCart > 0 {
			msg += fmt.Sprintf("\nYa tenés %d en tu carrito", inCart)
		}
		return msg
	}

	var b strings.Builder
	line := []catalog.LineItem{{ProductID: productID, Qty: inCart + qty}}
	if !hasCart {
		created, err := e.catalog.CreateCart(ctx, line)
		if err != nil {
			return e.apology("agregar el producto", err)
		}
		s.OpenCart(created.ID)
		fmt.Fprintf(&b, "✅ Carrito creado (ID: %d)\n\n", created.ID)
		fmt.Fprintf(&b, "Agregué %dx %s\n", qty, product.Name)
		fmt.Fprintf(&b, "Total: $%s\n\n", total(created.TotalPrice))
	} else {
		updated, err := e.catalog.UpdateCart(ctx, cart.ID, line)
		if err != nil {
			return e.apology("agregar el producto", err)
		}
		fmt.Fprintf(&b, "✅ Agregué %dx %s\n\n", qty, product.Name)
		if inCart > 0 {
			fmt.Fprintf(&b, "Ahora tenés %d en tu carrito.\n", inCart+qty)
		}
		fmt.Fprintf(&b, "Total actualizado: $%s\n\n", total(updated.TotalPrice))
	}

	s.Phase = chat.PhasePostAdd
	b.WriteString(postAddMenu)
	return b.String()
}

func (e *Engine) addByID(ctx context.Context, text string, s *chat.Session) string {
	id, ok := entity.ParseProductID(text)
	if !ok {
		return "❌ No encontré un ID válido. Probá con: \"agregar ID 113\""
	}
	return e.addItem(ctx, s, id, entity.ParseQuantity(text))
}

// addToCart resolves a described product. Several matches become a numbered
// list kept in the session for a follow-up "agregar ID"; a single match is
// added with quantity 1.
func (e *Engine) addToCart(ctx context.Context, text string, s *chat.Session) string {
	query := entity.BuildQuery(e.extractor.Extract(ctx, text))
	if query == "" {
		return "❌ Necesito que me indiques qué producto querés.\n\nEjemplo: \"comprar 2 camisetas rojas\""
	}

	products, err := e.catalog.SearchProducts(ctx, query)
	if err != nil {
		return e.apology("buscar el producto", err)
	}
	switch len(products) {
	case 0:
		return fmt.Sprintf("❌ No encontré productos para \"%s\".\n\nProbá buscando primero en el catálogo.", query)
	case 1:
		return e.addItem(ctx, s, products[0].ID, 1)
	}

	s.SetResults(query, products)
	s.Phase = chat.PhaseExploring

	var b strings.Builder
	fmt.Fprintf(&b, "Encontré *%d* opciones:\n\n", len(products))
	writeNumbered(&b, s.Page())
	if s.HasMore() {
		b.WriteString("\n" + moreHint)
	}
	b.WriteString("\n💡 Escribí \"agregar ID X\" para elegir uno.")
	return b.String()
}

func (e *Engine) removeProduct(ctx context.Context, text string, s *chat.Session) string {
	if s.ActiveCartID == nil {
		return "🛒 Tu carrito está vacío. No hay nada para eliminar."
	}
	cart, ok, err := e.activeCart(ctx, s)
	if err != nil {
		return e.apology("eliminar el producto", err)
	}
	if !ok || len(cart.Items) == 0 {
		return "🛒 Tu carrito está vacío."
	}

	id, found := entity.ParseEditID(text)
	if !found {
		id, found = entity.ParseLineID(text)
	}
	if !found {
		var b strings.Builder
		b.WriteString("*Productos en tu carrito:*\n\n")
		writeCartLines(&b, cart, false)
		b.WriteString("\n¿Qué producto querés eliminar?\nEscribí: \"eliminar ID [número]\"")
		return b.String()
	}

	line, inCart := cart.Line(id)
	if !inCart {
		return fmt.Sprintf("❌ El producto con ID %d no está en tu carrito.", id)
	}

	updated, err := e.catalog.UpdateCart(ctx, cart.ID, []catalog.LineItem{{ProductID: id, Qty: 0}})
	if err != nil {
		return e.apology("eliminar el producto", err)
	}

	removed := fmt.Sprintf("✅ Eliminé %dx %s de tu carrito.", line.Qty, line.Name())
	if len(updated.Items) == 0 {
		s.CloseCart()
		return removed + "\n\nTu carrito ahora está *vacío*.\n\n💡 ¿Qué estás buscando ahora?"
	}
	s.Phase = chat.PhaseCartManagement
	return fmt.Sprintf("%s\nNuevo total: $%s\n\n💡 ¿Querés seguir comprando o finalizar tu compra?", removed, total(updated.TotalPrice))
}

// editQuantity sets one line to an absolute quantity after re-checking stock
// for the new value. Zero or negative targets are refused before any update.
func (e *Engine) editQuantity(ctx context.Context, text string, s *chat.Session) string {
	if s.ActiveCartID == nil {
		return "🛒 Tu carrito está vacío. Primero agregá productos."
	}
	cart, ok, err := e.activeCart(ctx, s)
	if err != nil {
		return e.apology("consultar el carrito", err)
	}
	if !ok || len(cart.Items) == 0 {
		return "🛒 Tu carrito está vacío."
	}

	id, found := entity.ParseEditID(text)
	if !found {
		var b strings.Builder
		b.WriteString("Productos en tu carrito:\n\n")
		writeCartLines(&b, cart, true)
		b.WriteString("\n💡 ¿Qué producto querés modificar? Ejemplo: \"cambiar cantidad del ID 154 a 3 unidades\"")
		return b.String()
	}

	qty, found := entity.ParseTargetQuantity(text)
	if !found {
		return fmt.Sprintf("❌ ¿A cuántas unidades querés cambiarlo? Ejemplo: \"cambiar ID %d a 3 unidades\"", id)
	}
	if qty <= 0 {
		return fmt.Sprintf("❌ La cantidad debe ser mayor a 0. Si querés eliminar el producto, usá: \"eliminar ID %d\"", id)
	}

	line, inCart := cart.Line(id)
	if !inCart {
		return fmt.Sprintf("❌ El producto con ID %d no está en tu carrito.", id)
	}

	product, err := e.catalog.GetProduct(ctx, id)
	if isNotFound(err) {
		return fmt.Sprintf("❌ El producto con ID %d ya no está disponible. Podés eliminarlo con \"eliminar ID %d\".", id, id)
	}
	if err != nil {
		return e.apology("editar la cantidad", err)
	}
	if product.Stock < qty {
		return fmt.Sprintf("%s\nCantidad actual en tu carrito: %d", insufficientStock(product, qty), line.Qty)
	}

	updated, err := e.catalog.UpdateCart(ctx, cart.ID, []catalog.LineItem{{ProductID: id, Qty: qty}})
	if err != nil {
		return e.apology("editar la cantidad", err)
	}
	s.Phase = chat.PhaseCartManagement

	var b strings.Builder
	fmt.Fprintf(&b, "✅ Cantidad actualizada para \"%s\"\n", line.Name())
	fmt.Fprintf(&b, "Antes: %dx | Ahora: %dx\n", line.Qty, qty)
	fmt.Fprintf(&b, "Nuevo total del carrito: $%s\n\n", total(updated.TotalPrice))
	b.WriteString("💡 Podés seguir comprando, modificar otras cantidades o finalizar tu compra.")
	return b.String()
}

func (e *Engine) viewCart(ctx context.Context, _ string, s *chat.Session) string {
	return e.renderCart(ctx, s, false)
}

func (e *Engine) finalize(ctx context.Context, _ string, s *chat.Session) string {
	return e.renderCart(ctx, s, true)
}

// renderCart lists the cart with per-line subtotals and the service total.
// When closing, the cart is forgotten after rendering.
func (e *Engine) renderCart(ctx context.Context, s *chat.Session, closing bool) string {
	cart, ok, err := e.activeCart(ctx, s)
	if err != nil {
		return e.apology("consultar el carrito", err)
	}
	if !ok {
		if closing {
			return "🛒 Tu carrito está vacío. Agregá productos antes de finalizar la compra."
		}
		return "🛒 Todavía no tenés un carrito. Buscá un producto y sumalo con \"agregar ID <número>\"."
	}
	if len(cart.Items) == 0 {
		return "🛒 Tu carrito está vacío."
	}

	var b strings.Builder
	b.WriteString("🛒 *Tu carrito:*\n\n")
	for _, item := range cart.Items {
		unit := 0.0
		if item.Product != nil {
			unit = item.Product.Price
		}
		fmt.Fprintf(&b, "• %dx %s\n  $%s c/u → $%s\n\n", item.Qty, item.Name(), price(unit), total(item.Subtotal()))
	}
	fmt.Fprintf(&b, "*Total: $%s*\n\n", total(cart.TotalPrice))

	if closing {
		b.WriteString("✅ ¡Gracias por tu compra!\nTu pedido ha sido registrado.")
		s.CloseCart()
		return b.String()
	}
	s.Phase = chat.PhaseCartManagement
	b.WriteString("💡 Escribí \"finalizar compra\" cuando estés listo.")
	return b.String()
}
