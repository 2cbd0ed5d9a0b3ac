package extraction

import (
	"fmt"
	"strings"

	"github.com/zhouzirui/shopbot/backend/internal/analysis/entity"
)

func slotPrompt(text string) string {
	return fmt.Sprintf(`Analizá este mensaje de un cliente de una tienda de ropa y extraé los datos de búsqueda:
%q

Campos posibles:
- tipo: %s (siempre en singular y sin acento)
- color: %s
- categoria: %s
- talla: %s

Respondé SOLO con un objeto JSON con las claves "tipo", "color", "categoria" y "talla".
Si un campo no aparece, usá null.

Ejemplos:
"pantalones rojos" -> {"tipo":"pantalon","color":"rojo","categoria":null,"talla":null}
"camisetas deportivas talla M" -> {"tipo":"camiseta","color":null,"categoria":"deportivo","talla":"m"}
"busco shorts" -> {"tipo":"short","color":null,"categoria":null,"talla":null}

Convertí siempre plurales a singular (pantalones -> pantalon) y quitá los acentos.`,
		text,
		strings.Join(entity.Types, ", "),
		strings.Join(entity.Colors, ", "),
		strings.Join(entity.Categories, ", "),
		strings.Join(entity.Sizes, ", "),
	)
}

func categoryPrompt(text string) string {
	return fmt.Sprintf("Del texto: %q\nExtraé SOLO la categoría.\nCategorías: %s\nRespondé una sola palabra.",
		text, strings.Join(entity.Categories, ", "))
}
