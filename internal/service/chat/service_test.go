package chat_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	model "github.com/zhouzirui/shopbot/backend/internal/model/chat"
	chat "github.com/zhouzirui/shopbot/backend/internal/service/chat"
)

func TestRecordTurnKeepsOrder(t *testing.T) {
	svc := chat.NewService(0)
	ctx := context.Background()

	require.NoError(t, svc.RecordTurn(ctx, "+54911", "view_cart", "ver carrito", []string{"bienvenida", "carrito"}))

	got, err := svc.LoadTranscript(ctx, "+54911")
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, model.SenderUser, got[0].Sender)
	assert.Equal(t, "view_cart", got[0].Intent)
	assert.Equal(t, "bienvenida", got[1].Content)
	assert.Equal(t, model.SenderAssistant, got[2].Sender)
	assert.NotEmpty(t, got[2].ID)
	assert.NotEqual(t, got[1].ID, got[2].ID)
}

func TestSaveMessageTrimsToLimit(t *testing.T) {
	svc := chat.NewService(3)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := svc.SaveMessage(ctx, model.Message{SessionID: "u", Content: fmt.Sprint(i)})
		require.NoError(t, err)
	}

	got, err := svc.LoadTranscript(ctx, "u")
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "2", got[0].Content)
	assert.Equal(t, "4", got[2].Content)
}

func TestLoadTranscriptNotFound(t *testing.T) {
	svc := chat.NewService(0)
	ctx := context.Background()

	_, err := svc.LoadTranscript(ctx, "missing")
	assert.ErrorIs(t, err, chat.ErrSessionNotFound)

	_, err = svc.SaveMessage(ctx, model.Message{Content: "x"})
	assert.ErrorIs(t, err, chat.ErrSessionRequired)

	_, _ = svc.SaveMessage(ctx, model.Message{SessionID: "gone", Content: "x"})
	svc.Forget(ctx, "gone")
	_, err = svc.LoadTranscript(ctx, "gone")
	assert.ErrorIs(t, err, chat.ErrSessionNotFound)
}
