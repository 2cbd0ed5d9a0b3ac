package oracle

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/zhouzirui/shopbot/backend/internal/config"
)

type fakeChatModel struct {
	reply string
	err   error
	seen  []*schema.Message
}

func (m *fakeChatModel) Generate(_ context.Context, input []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	m.seen = input
	if m.err != nil {
		return nil, m.err
	}
	return schema.AssistantMessage(m.reply, nil), nil
}

func (m *fakeChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := m.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

func (m *fakeChatModel) BindTools([]*schema.ToolInfo) error { return nil }

func TestChainOracleCompletes(t *testing.T) {
	fake := &fakeChatModel{reply: "  {\"tipo\":\"pantalon\"}\n"}
	o, err := NewChainOracle(context.Background(), fake)
	require.NoError(t, err)

	out, err := o.Complete(context.Background(), `texto con {llaves} "pantalones"`)
	require.NoError(t, err)
	assert.Equal(t, `{"tipo":"pantalon"}`, out)

	require.Len(t, fake.seen, 2)
	assert.Equal(t, schema.System, fake.seen[0].Role)
	assert.Contains(t, fake.seen[1].Content, "pantalones")
}

func TestChainOracleSurfacesModelError(t *testing.T) {
	o, err := NewChainOracle(context.Background(), &fakeChatModel{err: errors.New("quota")})
	require.NoError(t, err)

	_, err = o.Complete(context.Background(), "hola")
	assert.ErrorContains(t, err, "quota")
}

func TestWithTimeoutCancels(t *testing.T) {
	slow := Func(func(ctx context.Context, _ string) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	})

	start := time.Now()
	_, err := WithTimeout(slow, 20*time.Millisecond).Complete(context.Background(), "x")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
}

func TestNewWithoutProvider(t *testing.T) {
	_, err := New(context.Background(), config.OracleConfig{Provider: config.ProviderNone})
	assert.ErrorIs(t, err, ErrDisabled)
}

func TestGeminiOracle(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, ":generateContent"), r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"deportivo"}]}}]}`))
	}))
	defer srv.Close()

	o, err := newGeminiOracle(context.Background(),
		config.GeminiConfig{APIKey: "test", Model: "gemini-2.5-flash"},
		genai.HTTPOptions{BaseURL: srv.URL + "/"},
	)
	require.NoError(t, err)

	out, err := o.Complete(context.Background(), "categoria?")
	require.NoError(t, err)
	assert.Equal(t, "deportivo", out)
}
