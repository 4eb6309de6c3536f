package ai

import (
	"context"
	"errors"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/require"

	"github.com/Qairow13/InstGPT/internal/model/conversation"
)

type fakeChatModel struct {
	reply string
	err   error
	got   []*schema.Message
	calls int
}

func (f *fakeChatModel) Generate(_ context.Context, input []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	f.calls++
	f.got = input
	if f.err != nil {
		return nil, f.err
	}
	return schema.AssistantMessage(f.reply, nil), nil
}

func (f *fakeChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := f.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

func newTestService(t *testing.T, m *fakeChatModel) *Service {
	t.Helper()
	svc, err := NewService(context.Background(), m, nil)
	require.NoError(t, err)
	return svc
}

func TestNewService_NilModel(t *testing.T) {
	_, err := NewService(context.Background(), nil, nil)
	require.Error(t, err)
}

func TestComplete_SendsSystemThenHistory(t *testing.T) {
	m := &fakeChatModel{reply: "  Здравствуйте!  "}
	svc := newTestService(t, m)

	history := []conversation.Turn{
		{Role: conversation.RoleUser, Content: "привет"},
		{Role: conversation.RoleAssistant, Content: "добрый день"},
		{Role: conversation.RoleUser, Content: "сколько стоит {набор}?"},
	}
	reply, err := svc.Complete(context.Background(), "be brief", history)
	require.NoError(t, err)
	require.Equal(t, "Здравствуйте!", reply)

	require.Len(t, m.got, 4)
	require.Equal(t, schema.System, m.got[0].Role)
	require.Equal(t, "be brief", m.got[0].Content)
	require.Equal(t, schema.User, m.got[1].Role)
	require.Equal(t, schema.Assistant, m.got[2].Role)
	require.Equal(t, schema.User, m.got[3].Role)
	require.Equal(t, "сколько стоит {набор}?", m.got[3].Content)
}

func TestComplete_ModelError(t *testing.T) {
	svc := newTestService(t, &fakeChatModel{err: errors.New("upstream 500")})
	_, err := svc.Complete(context.Background(), "sys", []conversation.Turn{{Role: conversation.RoleUser, Content: "hi"}})
	require.Error(t, err)
	require.Contains(t, err.Error(), "upstream 500")
}

func TestComplete_BlankReply(t *testing.T) {
	svc := newTestService(t, &fakeChatModel{reply: " \n\t "})
	_, err := svc.Complete(context.Background(), "sys", []conversation.Turn{{Role: conversation.RoleUser, Content: "hi"}})
	require.ErrorIs(t, err, ErrEmptyResponse)
}

func TestResolveSystemPrompt(t *testing.T) {
	require.Equal(t, "custom", ResolveSystemPrompt("  custom "))
	require.Equal(t, DefaultSystemPrompt(), ResolveSystemPrompt("   "))
	require.Contains(t, DefaultSystemPrompt(), "ИИ-продавец")
}
