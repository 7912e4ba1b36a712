package generate

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"go.uber.org/zap"
)

const (
	// FallbackAnswer replaces cleaned output that is empty or merely echoes
	// the question back.
	FallbackAnswer = "The law of Rwanda is defined by its Constitution and related legal codes. It provides the framework for governance, rights, and justice in the country."

	// Disclaimer is appended to every answer, generated or fallback.
	Disclaimer = "Disclaimer: This is a simplified summary. For legal advice, consult a qualified lawyer."

	// emptyContextPlaceholder stands in for context when retrieval found nothing.
	emptyContextPlaceholder = "No relevant law found."

	// maxSentences bounds the cleaned answer length.
	maxSentences = 3
)

const promptTemplate = `You are an AI legal assistant for Rwanda laws.
Answer clearly, in plain language, and cite relevant articles.

Context:
%s

Question:
%s

Answer politely in 2-3 short sentences with a reference to the law:
`

var (
	sentenceBoundary = regexp.MustCompile(`[.!?]\s+`)
	terminalPunct    = regexp.MustCompile(`[.!?]$`)
)

// BuildPrompt assembles the fixed grounding prompt. An empty context is
// replaced with a literal placeholder so the model is told, rather than
// left to guess, that retrieval came up empty.
func BuildPrompt(contextText, question string) string {
	if strings.TrimSpace(contextText) == "" {
		contextText = emptyContextPlaceholder
	}
	return fmt.Sprintf(promptTemplate, contextText, question)
}

// CleanAnswer normalizes raw model output: keeps at most the first three
// sentences, collapses immediately-repeated words, and guarantees terminal
// punctuation. Output that ends up empty, or that still contains the
// question verbatim (a sign the model echoed the prompt), is replaced with
// FallbackAnswer.
func CleanAnswer(raw, question string) string {
	cleaned := strings.TrimSpace(raw)

	sentences := splitSentences(cleaned)
	if len(sentences) > maxSentences {
		sentences = sentences[:maxSentences]
	}
	cleaned = strings.Join(sentences, ". ")
	cleaned = collapseRepeatedWords(cleaned)

	if cleaned != "" && !terminalPunct.MatchString(cleaned) {
		cleaned += "."
	}

	// Sentence splitting rewrites the question's own terminal punctuation,
	// so the echo check compares without it.
	question = strings.TrimRight(strings.TrimSpace(question), ".!?")
	if cleaned == "" || (question != "" && strings.Contains(strings.ToLower(cleaned), strings.ToLower(question))) {
		cleaned = FallbackAnswer
	}

	return cleaned
}

// splitSentences breaks text into sentence-like units on ./!/? followed by
// whitespace, dropping empty units. Trailing terminal punctuation is
// stripped from the last unit so rejoining doesn't double it.
func splitSentences(text string) []string {
	parts := sentenceBoundary.Split(text, -1)
	sentences := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			sentences = append(sentences, p)
		}
	}
	if n := len(sentences); n > 0 {
		sentences[n-1] = strings.TrimRight(sentences[n-1], ".!?")
		if sentences[n-1] == "" {
			sentences = sentences[:n-1]
		}
	}
	return sentences
}

// collapseRepeatedWords drops immediately-repeated words, compared
// case-insensitively. A duplicate is recognized even when it carries
// trailing punctuation; the punctuation survives the collapse. A word that
// already ends in punctuation starts a fresh run, so "applies, applies" is
// left alone.
func collapseRepeatedWords(text string) string {
	words := strings.Fields(text)
	if len(words) < 2 {
		return text
	}

	out := words[:1]
	for _, w := range words[1:] {
		prev := out[len(out)-1]
		core, suffix := splitTrailingPunct(w)
		if core != "" && strings.EqualFold(core, prev) {
			if suffix != "" {
				out[len(out)-1] = prev + suffix
			}
			continue
		}
		out = append(out, w)
	}
	return strings.Join(out, " ")
}

// splitTrailingPunct splits w into its leading word part and any trailing
// non-letter, non-digit runes.
func splitTrailingPunct(w string) (core, suffix string) {
	i := len(w)
	for i > 0 {
		r, size := utf8.DecodeLastRuneInString(w[:i])
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			break
		}
		i -= size
	}
	return w[:i], w[i:]
}

// Service pairs a Generator with the prompt/clean pipeline.
type Service struct {
	gen    Generator
	logger *zap.Logger
}

// NewService creates an answer generation service around gen.
func NewService(gen Generator, logger *zap.Logger) *Service {
	return &Service{gen: gen, logger: logger}
}

// Answer generates a grounded answer for question against contextText.
// The cleaned answer always carries the disclaimer suffix. Inference
// failures are returned as-is; no retry is attempted here.
func (s *Service) Answer(ctx context.Context, contextText, question string) (string, error) {
	prompt := BuildPrompt(contextText, question)

	raw, err := s.gen.Generate(ctx, prompt)
	if err != nil {
		return "", err
	}

	// Some models echo the prompt ahead of the completion.
	raw = strings.TrimSpace(strings.Replace(raw, prompt, "", 1))

	answer := CleanAnswer(raw, question)
	if answer == FallbackAnswer {
		s.logger.Debug("generated answer replaced by fallback",
			zap.String("question", question),
		)
	}

	return answer + "\n\n" + Disclaimer, nil
}
