package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/nomada-travel/nomada/backend/internal/log"
	chatmodel "github.com/nomada-travel/nomada/backend/internal/model/chat"
)

// historyLimit caps how much transcript is replayed to the model.
const historyLimit = 10

// Service answers chat turns with a two-pass tool-calling flow: a decision
// pass picks a tool or a direct answer, and an explanation pass turns raw
// tool output into natural language.
type Service struct {
	chatModel model.ChatModel
	tools     *Registry
	chain     compose.Runnable[map[string]any, *schema.Message]
}

// NewService compiles the prompt chain over the given chat model.
func NewService(ctx context.Context, chatModel model.ChatModel, tools *Registry) (*Service, error) {
	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.MessagesPlaceholder("history", true),
		schema.UserMessage("{query}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("compile agent chain: %w", err)
	}

	return &Service{chatModel: chatModel, tools: tools, chain: runnable}, nil
}

// decision is the strict-JSON shape the model must produce on the first
// pass.
type decision struct {
	Tool   string         `json:"tool"`
	Args   map[string]any `json:"args"`
	Answer string         `json:"answer"`
}

// Answer runs one agent turn and returns the final reply text.
func (s *Service) Answer(ctx context.Context, history []chatmodel.Message, message string) (string, error) {
	return s.answer(ctx, history, message, nil)
}

// AnswerStream behaves like Answer and forwards explanation fragments to
// onDelta as the model produces them. The decision pass is never streamed.
func (s *Service) AnswerStream(ctx context.Context, history []chatmodel.Message, message string, onDelta func(chunk string)) (string, error) {
	return s.answer(ctx, history, message, onDelta)
}

func (s *Service) answer(ctx context.Context, history []chatmodel.Message, message string, onDelta func(string)) (string, error) {
	dec, err := s.decide(ctx, history, message)
	if err != nil {
		return "", err
	}

	// Direct answer path.
	if dec.Tool == "" {
		if onDelta != nil && dec.Answer != "" {
			onDelta(dec.Answer)
		}
		return dec.Answer, nil
	}

	tool, ok := s.tools.Lookup(dec.Tool)
	if !ok {
		text := fmt.Sprintf("I tried to call an unknown tool '%s'. Please refine your request.", dec.Tool)
		if onDelta != nil {
			onDelta(text)
		}
		return text, nil
	}

	args := dec.Args
	if args == nil {
		args = map[string]any{}
	}

	log.Info().Str("tool", tool.Name).Msg("agent tool call")

	result, err := tool.Run(ctx, args)
	if err != nil {
		text := fmt.Sprintf("Tool '%s' failed with an error: %v", tool.Name, err)
		if onDelta != nil {
			onDelta(text)
		}
		return text, nil
	}

	return s.explain(ctx, message, tool, args, result, onDelta)
}

// decide runs the first model pass and parses its JSON verdict. Output
// that is not valid JSON becomes a direct answer, as the original flow
// treats free text from the model.
func (s *Service) decide(ctx context.Context, history []chatmodel.Message, message string) (decision, error) {
	input := map[string]any{
		"system":  buildDecisionPrompt(s.tools.Tools()),
		"history": historyMessages(history),
		"query":   message,
	}

	response, err := s.chain.Invoke(ctx, input)
	if err != nil {
		return decision{}, fmt.Errorf("agent decision: %w", err)
	}

	return parseDecision(response.Content), nil
}

func (s *Service) explain(ctx context.Context, message string, tool Tool, args map[string]any, result any, onDelta func(string)) (string, error) {
	input := map[string]any{
		"system":  explainSystemPrompt,
		"history": []*schema.Message(nil),
		"query":   buildExplainPrompt(message, tool, args, result),
	}

	if onDelta == nil {
		response, err := s.chain.Invoke(ctx, input)
		if err != nil {
			return "", fmt.Errorf("agent explanation: %w", err)
		}
		return response.Content, nil
	}

	reader, err := s.chain.Stream(ctx, input)
	if err != nil {
		return "", fmt.Errorf("agent explanation stream: %w", err)
	}
	defer reader.Close()

	var chunks []*schema.Message
	for {
		chunk, err := reader.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("agent explanation stream: %w", err)
		}
		if chunk.Content != "" {
			onDelta(chunk.Content)
		}
		chunks = append(chunks, chunk)
	}

	merged, err := schema.ConcatMessages(chunks)
	if err != nil {
		return "", fmt.Errorf("merge explanation chunks: %w", err)
	}
	return merged.Content, nil
}

// parseDecision extracts the JSON verdict from model output, tolerating
// markdown code fences. Unparseable output is wrapped as a direct answer.
func parseDecision(content string) decision {
	text := strings.TrimSpace(content)
	if fenced := stripCodeFence(text); fenced != "" {
		text = fenced
	}

	var dec decision
	if err := json.Unmarshal([]byte(text), &dec); err != nil {
		return decision{Answer: strings.TrimSpace(content)}
	}
	return dec
}

func stripCodeFence(text string) string {
	if !strings.HasPrefix(text, "```") {
		return ""
	}
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	if i := strings.LastIndex(text, "```"); i >= 0 {
		text = text[:i]
	}
	return strings.TrimSpace(text)
}

// historyMessages converts the recent transcript to model messages.
func historyMessages(messages []chatmodel.Message) []*schema.Message {
	if len(messages) == 0 {
		return nil
	}

	start := 0
	if len(messages) > historyLimit {
		start = len(messages) - historyLimit
	}

	history := make([]*schema.Message, 0, len(messages)-start)
	for _, msg := range messages[start:] {
		switch msg.Sender {
		case chatmodel.SenderUser:
			history = append(history, schema.UserMessage(msg.Content))
		case chatmodel.SenderAssistant:
			history = append(history, schema.AssistantMessage(msg.Content, nil))
		}
	}
	return history
}
