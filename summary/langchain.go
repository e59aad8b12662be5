package summary

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

const (
	// DefaultOracleBaseURL is the OpenAI compatible endpoint of Gemini
	DefaultOracleBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai/"
	DefaultOracleModel   = "gemini-2.0-flash"
)

// LangchainCompleter completes prompts with any OpenAI compatible chat model
type LangchainCompleter struct {
	llm llms.Model
}

func NewLangchainCompleter(apiKey, baseURL, model string) (*LangchainCompleter, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("oracle API key required")
	}
	llm, err := openai.New(
		openai.WithToken(apiKey),
		openai.WithBaseURL(baseURL),
		openai.WithModel(model),
	)
	if err != nil {
		return nil, fmt.Errorf("failed creating text generation client: %w", err)
	}
	return &LangchainCompleter{llm: llm}, nil
}

func (c *LangchainCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, c.llm, prompt)
}
