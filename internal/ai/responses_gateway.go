package ai

import (
	"LinguaChat/internal/service/session"
	"context"
	"errors"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/responses"
	"go.uber.org/zap"
)

// ResponsesGateway реализует Gateway поверх Responses API.
// Состояние диалога хранится у нас (session.Store), поэтому каждый запрос stateless:
// instructions + вся история реплик.
type ResponsesGateway struct {
	client  *openai.Client
	model   openai.ChatModel
	timeout time.Duration
	logger  *zap.SugaredLogger
}

// Options: параметры подключения к OpenAI.
type Options struct {
	APIKey  string
	BaseURL string // пусто: официальный endpoint
	// Таймаут одной попытки на стороне SDK
	Timeout time.Duration
	// Повторы при 429/5xx на стороне SDK; 0: без повторов
	MaxRetries int
}

// NewOpenAIClient создаёт клиента openai-go по опциям.
func NewOpenAIClient(o Options) *openai.Client {
	opts := []option.RequestOption{option.WithMaxRetries(max(0, o.MaxRetries))}
	if o.APIKey != "" {
		opts = append(opts, option.WithAPIKey(o.APIKey))
	}
	if o.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(o.BaseURL))
	}
	if o.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(o.Timeout))
	}
	c := openai.NewClient(opts...)
	return &c
}

func NewResponsesGateway(client *openai.Client, model string, timeout time.Duration, logger *zap.SugaredLogger) *ResponsesGateway {
	if model == "" {
		model = string(openai.ChatModelGPT4o)
	}
	return &ResponsesGateway{client: client, model: openai.ChatModel(model), timeout: timeout, logger: logger}
}

func (g *ResponsesGateway) Send(ctx context.Context, systemPrompt string, transcript []session.Turn) (string, error) {
	items := make(responses.ResponseInputParam, 0, len(transcript))
	for _, t := range transcript {
		switch t.Role {
		case session.RoleUser:
			items = append(items, userMessage(t.Text))
		case session.RoleAssistant:
			items = append(items, assistantMessage(t.Text))
		}
	}
	if len(items) == 0 {
		return "", &Error{Kind: KindMalformed, Err: errors.New("empty transcript")}
	}
	return g.do(ctx, "chat", systemPrompt, items)
}

func (g *ResponsesGateway) Classify(ctx context.Context, instructions string, text string) (string, error) {
	return g.do(ctx, "classify", instructions, responses.ResponseInputParam{userMessage(text)})
}

func (g *ResponsesGateway) do(ctx context.Context, op string, instructions string, items responses.ResponseInputParam) (string, error) {
	if g.client == nil {
		return "", &Error{Kind: KindAuth, Err: errors.New("nil openai client")}
	}
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	params := responses.ResponseNewParams{
		Model: g.model,
		Input: responses.ResponseNewParamsInputUnion{OfInputItemList: items},
	}
	if st := strings.TrimSpace(instructions); st != "" {
		params.Instructions = openai.String(st)
	}

	start := time.Now()
	g.logger.Debugw("Запрос в OpenAI...", "op", op, "items", len(items))
	resp, err := g.client.Responses.New(ctx, params)
	dur := time.Since(start)
	if err != nil {
		gwErr := classify(err)
		g.logger.Errorw("Ошибка ответа OpenAI", "op", op, "kind", gwErr.Kind.String(), "duration", dur.String(), "error", err)
		return "", gwErr
	}

	out := strings.TrimSpace(resp.OutputText())
	if out == "" {
		g.logger.Warnw("Пустой ответ OpenAI", "op", op, "duration", dur.String(), "status", resp.Status)
		return "", &Error{Kind: KindMalformed, Err: ErrEmptyReply}
	}
	g.logger.Infow("Ответ OpenAI получен", "op", op, "duration", dur.String())
	return out, nil
}

func userMessage(text string) responses.ResponseInputItemUnionParam {
	return responses.ResponseInputItemParamOfMessage(
		responses.ResponseInputMessageContentListParam{
			{OfInputText: &responses.ResponseInputTextParam{Text: text}},
		},
		responses.EasyInputMessageRoleUser,
	)
}

// Реплики ассистента передаются как output_message с контентом output_text.
func assistantMessage(text string) responses.ResponseInputItemUnionParam {
	var out responses.ResponseOutputTextParam
	out.Text = text
	return responses.ResponseInputItemParamOfOutputMessage(
		[]responses.ResponseOutputMessageContentUnionParam{{OfOutputText: &out}},
		"",
		responses.ResponseOutputMessageStatusCompleted,
	)
}
