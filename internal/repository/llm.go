package repository

import (
	"context"
	"fmt"

	"github.com/gage-technologies/mistral-go"
	"go.uber.org/zap"

	"github.com/anthon-sd/rookify-sub000/internal/adapters"
	apperrors "github.com/anthon-sd/rookify-sub000/internal/errors"
)

type chatClient interface {
	Chat(model string, messages []mistral.ChatMessage, params *mistral.ChatRequestParams) (*mistral.ChatCompletionResponse, error)
}

type LlmRepo struct {
	client chatClient
	model  string
	log    *zap.SugaredLogger
}

func NewLlmRepository(adapter *adapters.LlmAdapter, log *zap.SugaredLogger) *LlmRepo {
	return &LlmRepo{client: adapter.Client, model: adapter.Model, log: log}
}

type llmAnswer struct {
	text string
	err  error
}

// SendRequestToLlm sends one user message. The client has no context
// support, so a cancelled ctx abandons the call rather than aborting it.
func (l *LlmRepo) SendRequestToLlm(ctx context.Context, request string) (string, error) {
	done := make(chan llmAnswer, 1)

	go func() {
		params := mistral.DefaultChatRequestParams
		resp, err := l.client.Chat(l.model, []mistral.ChatMessage{{Content: request, Role: mistral.RoleUser}}, &params)
		if err != nil {
			done <- llmAnswer{err: fmt.Errorf("%w: %v", apperrors.ErrAnnotationFailed, err)}
			return
		}
		if resp == nil || len(resp.Choices) == 0 {
			done <- llmAnswer{err: fmt.Errorf("%w: no choices returned", apperrors.ErrAnnotationFailed)}
			return
		}
		done <- llmAnswer{text: fmt.Sprintf("%v", resp.Choices[0].Message.Content)}
	}()

	select {
	case a := <-done:
		if a.err != nil {
			l.log.Warnw("llm request failed", "model", l.model, "error", a.err)
		}
		return a.text, a.err
	case <-ctx.Done():
		return "", fmt.Errorf("%w: %v", apperrors.ErrAnnotationFailed, ctx.Err())
	}
}
