package dialogue

import (
	"context"
	"fmt"
	"strings"

	"github.com/zhouzirui/shopbot/backend/internal/analysis/entity"
	"github.com/zhouzirui/shopbot/backend/internal/model/catalog"
	"github.com/zhouzirui/shopbot/backend/internal/model/chat"
)

const suggestionCount = 5

func (e *Engine) listAll(ctx context.Context, _ string, s *chat.Session) string {
	products, err := e.catalog.SearchProducts(ctx, "")
	if err != nil {
		return e.apology("cargar los productos", err)
	}
	if len(products) == 0 {
		return "📦 El catálogo está vacío por ahora."
	}

	s.SetResults(chat.QueryAll, products)
	s.Phase = chat.PhaseExploring

	var b strings.Builder
	b.WriteString("📦 *Catálogo completo:*\n\n")
	writePage(&b, s)
	return strings.TrimRight(b.String(), "\n")
}

// searchByCategory asks for the category on its own and searches with that
// single word. Results are not re-checked against the category field.
func (e *Engine) searchByCategory(ctx context.Context, text string, s *chat.Session) string {
	category := e.extractor.Category(ctx, text)
	if category == "" {
		return "❌ No pude identificar la categoría.\n\nCategorías disponibles: " + vocabularyHint()
	}

	products, err := e.catalog.SearchProducts(ctx, category)
	if err != nil {
		return e.apology("buscar productos", err)
	}
	if len(products) == 0 {
		return "❌ No encontré productos en esa categoría.\n\nCategorías disponibles: " + vocabularyHint()
	}

	s.SetResults(category, products)
	s.Phase = chat.PhaseExploring

	var b strings.Builder
	fmt.Fprintf(&b, "✅ Encontré %d %s en \"%s\":\n\n", len(products), plural(len(products), "producto", "productos"), category)
	writePage(&b, s)
	b.WriteString("💡 Podés agregar productos a tu carrito usando el ID.")
	return b.String()
}

// searchByName searches with the extracted slots. When type+color finds
// nothing it retries with the type alone and filters by color locally; a size
// narrows the results only if something is left.
func (e *Engine) searchByName(ctx context.Context, text string, s *chat.Session) string {
	ents := e.extractor.Extract(ctx, text)
	query := entity.BuildQuery(ents)
	if query == "" {
		return "❌ No entendí qué estás buscando.\n\n💡 Ejemplos:\n• \"pantalones\"\n• \"camisetas rojas\"\n• \"pantalones negros talla M\""
	}

	products, err := e.catalog.SearchProducts(ctx, query)
	if err != nil {
		return e.apology("buscar productos", err)
	}

	if len(products) == 0 && ents.Color != "" {
		query = ents.Type
		products, err = e.catalog.SearchProducts(ctx, query)
		if err != nil {
			return e.apology("buscar productos", err)
		}
		products = filterByColor(products, ents.Color)
		if query == "" {
			query = ents.Color
		}
	}

	if ents.Size != "" {
		if sized := filterBySize(products, ents.Size); len(sized) > 0 {
			products = sized
		}
	}

	if len(products) == 0 {
		return "❌ No encontré productos con esa búsqueda.\n\n💡 Probá con:\n• Solo tipo: \"pantalones\", \"camisetas\"\n• Con color: \"camisetas rojas\""
	}

	s.SetResults(query, products)
	s.Phase = chat.PhaseExploring

	var b strings.Builder
	fmt.Fprintf(&b, "✅ Encontré %d %s:\n\n", len(products), plural(len(products), "producto", "productos"))
	writePage(&b, s)
	if len(products) > 1 {
		fmt.Fprintf(&b, "💡 Para agregar uno a tu carrito escribí \"agregar ID <número>\", por ejemplo \"agregar ID %d\".", products[0].ID)
	} else {
		fmt.Fprintf(&b, "💡 Para agregarlo a tu carrito escribí \"agregar ID %d\".", products[0].ID)
	}
	return b.String()
}

func (e *Engine) searchByDescription(ctx context.Context, text string, s *chat.Session) string {
	keywords := entity.MatchDescriptionKeywords(text)
	if len(keywords) == 0 {
		return "❌ No entendí qué características buscás.\n\n💡 Ejemplos:\n• \"ropa cómoda para el diario\"\n• \"prendas para aire libre\""
	}

	products, err := e.catalog.SearchProducts(ctx, "")
	if err != nil {
		return e.apology("buscar por descripción", err)
	}

	matched := make([]catalog.Product, 0, len(products))
	for _, p := range products {
		haystack := entity.Normalize(p.Name + " " + p.Description)
		for _, kw := range keywords {
			if strings.Contains(haystack, kw) {
				matched = append(matched, p)
				break
			}
		}
	}
	if len(matched) == 0 {
		return "❌ No encontré productos con esas características.\n\n💡 Probá buscar por tipo o categoría."
	}

	s.SetResults(strings.Join(keywords, " "), matched)
	s.Phase = chat.PhaseExploring

	var b strings.Builder
	fmt.Fprintf(&b, "✅ *%d* %s:\n\n", len(matched), plural(len(matched), "producto encontrado", "productos encontrados"))
	writePage(&b, s)
	return strings.TrimRight(b.String(), "\n")
}

// suggest picks products uniformly at random without replacement.
func (e *Engine) suggest(ctx context.Context, _ string, s *chat.Session) string {
	products, err := e.catalog.SearchProducts(ctx, "")
	if err != nil {
		return e.apology("sugerir productos", err)
	}
	if len(products) == 0 {
		return "📦 El catálogo está vacío por ahora."
	}

	pool := make([]catalog.Product, len(products))
	copy(pool, products)
	e.shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
	sample := pool[:min(suggestionCount, len(pool))]

	s.SetResults(chat.QueryAll, sample)
	s.Phase = chat.PhaseExploring

	var b strings.Builder
	b.WriteString("💡 *Te recomiendo estos productos:*\n\n")
	for i, p := range sample {
		fmt.Fprintf(&b, "%d. %s\n   ID: %d | $%s\n\n", i+1, p.Name, p.ID, price(p.Price))
	}
	b.WriteString("Para sumar uno escribí \"agregar ID <número>\".")
	return b.String()
}

func (e *Engine) showMore(_ context.Context, _ string, s *chat.Session) string {
	if len(s.LastResults) == 0 {
		return "❌ No hay búsqueda activa para mostrar más resultados. Probá buscando algo primero."
	}
	if !s.Advance() {
		return "✅ Ya mostramos todos los productos de esta búsqueda."
	}

	page := s.Page()
	var b strings.Builder
	fmt.Fprintf(&b, "✅ Mostrando productos %d a %d de %d:\n\n", s.DisplayOffset+1, s.DisplayOffset+len(page), len(s.LastResults))
	writeProducts(&b, page)
	if s.HasMore() {
		b.WriteString(moreHint)
	}
	return strings.TrimRight(b.String(), "\n")
}

func filterByColor(products []catalog.Product, color string) []catalog.Product {
	color = entity.Normalize(color)
	out := make([]catalog.Product, 0, len(products))
	for _, p := range products {
		if strings.Contains(entity.Normalize(p.Name), color) || strings.Contains(entity.Normalize(p.Color), color) {
			out = append(out, p)
		}
	}
	return out
}

func filterBySize(products []catalog.Product, size string) []catalog.Product {
	marker := "TALLA " + strings.ToUpper(size)
	out := make([]catalog.Product, 0, len(products))
	for _, p := range products {
		if strings.Contains(strings.ToUpper(p.Name), marker) {
			out = append(out, p)
		}
	}
	return out
}
