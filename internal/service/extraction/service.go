// Package extraction pulls the semantic search slots (type, color, category,
// size) out of a message, using the language model when one is configured.
package extraction

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/zhouzirui/shopbot/backend/internal/analysis/entity"
	"github.com/zhouzirui/shopbot/backend/internal/service/oracle"
)

// Service extracts entities. A nil oracle selects the local vocabulary
// matcher; with an oracle, any oracle or parse failure yields no entities.
type Service struct {
	oracle oracle.Oracle
	logger *zap.Logger
}

// NewService builds the extractor. o may be nil.
func NewService(o oracle.Oracle, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{oracle: o, logger: logger.Named("extraction")}
}

// Enabled reports whether the language model is used.
func (s *Service) Enabled() bool {
	return s != nil && s.oracle != nil
}

// Extract returns the canonical entities found in text.
func (s *Service) Extract(ctx context.Context, text string) entity.Entities {
	if !s.Enabled() {
		return entity.Match(text)
	}

	raw, err := s.oracle.Complete(ctx, slotPrompt(text))
	if err != nil {
		s.logger.Warn("slot extraction failed", zap.Error(err))
		return entity.Entities{}
	}

	parsed, err := parseEntities(raw)
	if err != nil {
		s.logger.Warn("slot extraction output unparseable", zap.Error(err), zap.String("raw", raw))
		return entity.Entities{}
	}
	return parsed.Canonical()
}

// Category asks for the single category word in text. The answer is kept even
// when it is outside the vocabulary; callers search with it as given.
func (s *Service) Category(ctx context.Context, text string) string {
	if !s.Enabled() {
		return entity.MatchCategory(text)
	}

	raw, err := s.oracle.Complete(ctx, categoryPrompt(text))
	if err != nil {
		s.logger.Warn("category extraction failed", zap.Error(err))
		return ""
	}
	return parseCategory(raw)
}

// parseEntities decodes the first JSON object in raw. Spanish and English keys
// are accepted; unknown keys and non-string values are ignored.
func parseEntities(raw string) (entity.Entities, error) {
	start := strings.Index(raw, "{")
	if start == -1 {
		return entity.Entities{}, errors.New("missing json object")
	}

	// Only the first value is decoded; trailing text is ignored.
	fields := make(map[string]any)
	if err := json.NewDecoder(strings.NewReader(raw[start:])).Decode(&fields); err != nil {
		return entity.Entities{}, fmt.Errorf("decode entities: %w", err)
	}

	pick := func(keys ...string) string {
		for _, key := range keys {
			if v, ok := fields[key].(string); ok && !entity.IsAbsent(v) {
				return v
			}
		}
		return ""
	}

	return entity.Entities{
		Type:     pick("tipo", "type"),
		Color:    pick("color"),
		Category: pick("categoria", "category"),
		Size:     pick("talla", "size"),
	}, nil
}

func parseCategory(raw string) string {
	fields := strings.FieldsFunc(entity.Normalize(raw), func(r rune) bool {
		return !('a' <= r && r <= 'z')
	})
	if len(fields) == 0 || entity.IsAbsent(fields[0]) {
		return ""
	}
	if canonical := entity.CanonicalCategory(fields[0]); canonical != "" {
		return canonical
	}
	return fields[0]
}
