package extraction

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/shopbot/backend/internal/analysis/entity"
	"github.com/zhouzirui/shopbot/backend/internal/service/oracle"
)

func reply(text string, err error) oracle.Oracle {
	return oracle.Func(func(context.Context, string) (string, error) {
		return text, err
	})
}

func TestExtractParsesOracleJSON(t *testing.T) {
	svc := NewService(reply("Claro! ```json\n{\"tipo\":\"Pantalones\",\"color\":\"rojos\",\"categoria\":null,\"talla\":\"M\",\"extra\":3}\n```", nil), nil)

	got := svc.Extract(context.Background(), "busco pantalones rojos talla m")
	assert.Equal(t, entity.Entities{Type: "pantalon", Color: "rojo", Size: "m"}, got)
}

func TestExtractIgnoresTextAfterFirstObject(t *testing.T) {
	replies := map[string]string{
		"second object":  "{\"tipo\":\"pantalon\",\"color\":\"rojo\",\"categoria\":null,\"talla\":null}\nOtro ejemplo: {\"tipo\":\"falda\"}",
		"trailing brace": "```json\n{\"tipo\":\"pantalon\",\"color\":\"rojo\"}\n```\n(formato {campo: valor})",
	}
	for name, raw := range replies {
		t.Run(name, func(t *testing.T) {
			got := NewService(reply(raw, nil), nil).Extract(context.Background(), "pantalones rojos")
			assert.Equal(t, entity.Entities{Type: "pantalon", Color: "rojo"}, got)
		})
	}
}

func TestExtractAcceptsEnglishKeys(t *testing.T) {
	svc := NewService(reply(`{"type":"camiseta","category":"deportivo","color":"none"}`, nil), nil)
	assert.Equal(t, entity.Entities{Type: "camiseta", Category: "deportivo"}, svc.Extract(context.Background(), "x"))
}

func TestExtractDegradesToEmpty(t *testing.T) {
	cases := map[string]oracle.Oracle{
		"oracle error":   reply("", errors.New("timeout")),
		"no json":        reply("pantalon rojo", nil),
		"malformed json": reply(`{"tipo": pantalon}`, nil),
	}
	for name, o := range cases {
		t.Run(name, func(t *testing.T) {
			got := NewService(o, nil).Extract(context.Background(), "busco pantalones rojos")
			assert.True(t, got.Empty())
		})
	}
}

func TestExtractWithoutOracleUsesVocabulary(t *testing.T) {
	svc := NewService(nil, nil)
	require.False(t, svc.Enabled())
	assert.Equal(t, entity.Entities{Type: "falda", Color: "negro"}, svc.Extract(context.Background(), "Faldas negras"))
	assert.Equal(t, "formal", svc.Category(context.Background(), "ropa formal"))
}

func TestCategory(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, "deportivo", NewService(reply("Deportiva.", nil), nil).Category(ctx, "x"))
	assert.Equal(t, "urbano", NewService(reply("\"urbano\"", nil), nil).Category(ctx, "x"))
	assert.Equal(t, "", NewService(reply("null", nil), nil).Category(ctx, "x"))
	assert.Equal(t, "", NewService(reply("", errors.New("down")), nil).Category(ctx, "x"))
}

func TestSlotPromptEmbedsTextAndVocabulary(t *testing.T) {
	p := slotPrompt("quiero una campera")
	assert.Contains(t, p, `"quiero una campera"`)
	assert.Contains(t, p, "campera")
	assert.Contains(t, p, "xxl")
}
