package summarizer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/responses"
)

const (
	baseMaxOutputTokens  int64 = 512
	limitMaxOutputTokens int64 = 2048
)

// OpenAITransformer calls OpenAI's Responses API.
type OpenAITransformer struct {
	client openai.Client
	model  string
}

func NewOpenAITransformer(apiKey string, model string) (*OpenAITransformer, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("API key is empty")
	}

	model = strings.TrimSpace(model)
	if model == "" {
		model = openai.ChatModelGPT5Mini
	}

	return &OpenAITransformer{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}, nil
}

// Transform sends instruction as the system prompt and text as the input.
// The output budget grows while the model stops on max_output_tokens.
func (t *OpenAITransformer) Transform(
	ctx context.Context,
	instruction string,
	text string,
) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", errors.New("input is empty")
	}

	maxOutputTokens := baseMaxOutputTokens
	for {
		resp, err := t.client.Responses.New(ctx, responses.ResponseNewParams{
			Model:           t.model,
			MaxOutputTokens: openai.Int(maxOutputTokens),
			Instructions:    openai.String(instruction),
			Input: responses.ResponseNewParamsInputUnion{
				OfString: openai.String(text),
			},
		})
		if err != nil {
			return "", fmt.Errorf("do request: %w", err)
		}

		if resp.Status == "incomplete" {
			if resp.IncompleteDetails.Reason == "max_output_tokens" && maxOutputTokens < limitMaxOutputTokens {
				maxOutputTokens = nextMaxOutputTokens(maxOutputTokens)
				continue
			}
			return "", fmt.Errorf(
				"response is incomplete (reason = %s, maxOutputTokens = %d)",
				resp.IncompleteDetails.Reason,
				maxOutputTokens,
			)
		}

		output := strings.TrimSpace(resp.OutputText())
		if output == "" {
			return "", fmt.Errorf("output text is missing (status = %s)", resp.Status)
		}
		return output, nil
	}
}

func nextMaxOutputTokens(current int64) int64 {
	return min(current*2, limitMaxOutputTokens)
}
