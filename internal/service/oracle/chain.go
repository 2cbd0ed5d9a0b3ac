package oracle

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
)

const chainSystemPrompt = `Sos un extractor de datos para una tienda de ropa. Respondé únicamente lo que se pide, sin explicaciones ni formato adicional.`

// ChainOracle runs prompts through an eino chat template and chat model.
type ChainOracle struct {
	runnable compose.Runnable[map[string]any, *schema.Message]
}

// NewChainOracle compiles the template -> model chain for chatModel.
func NewChainOracle(ctx context.Context, chatModel model.ChatModel) (*ChainOracle, error) {
	if chatModel == nil {
		return nil, errors.New("oracle: chat model is required")
	}

	template := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage(chainSystemPrompt),
		schema.UserMessage("{prompt}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(template)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile oracle chain: %w", err)
	}
	return &ChainOracle{runnable: runnable}, nil
}

// Complete implements Oracle.
func (c *ChainOracle) Complete(ctx context.Context, text string) (string, error) {
	msg, err := c.runnable.Invoke(ctx, map[string]any{"prompt": text})
	if err != nil {
		return "", fmt.Errorf("oracle chain invoke: %w", err)
	}
	if msg == nil {
		return "", errors.New("oracle chain returned no message")
	}
	return strings.TrimSpace(msg.Content), nil
}
