// Package answer orchestrates the question answering pipeline: embedding,
// document retrieval, web harvesting, ranking and generation.
package answer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/amategeko/gazette/pkg/eventstream"
	"github.com/amategeko/gazette/pkg/generate"
	"github.com/amategeko/gazette/pkg/harvest"
	"github.com/amategeko/gazette/pkg/history"
	"github.com/amategeko/gazette/pkg/rank"
	"github.com/amategeko/gazette/pkg/registry"
	"github.com/amategeko/gazette/pkg/vector"
	"github.com/amategeko/gazette/pkg/websearch"
)

// Mode selects which sources feed the answer.
type Mode string

const (
	// ModeHybrid combines stored documents with freshly harvested pages.
	ModeHybrid Mode = "hybrid"

	// ModeLive answers from stored documents only, without harvesting.
	ModeLive Mode = "live"

	// ModeDBOnly answers from the document store, falling back to a web
	// lookup when the store has nothing relevant.
	ModeDBOnly Mode = "dbonly"
)

// ShortCircuitMessage is returned when neither the store nor the harvest
// produced any candidate context. It bypasses generation entirely.
const ShortCircuitMessage = "I could not find any relevant laws in the database or online at the moment."

// Context strings used when the dbonly web fallback yields nothing.
const (
	noWebDefinition = "No clear web definition found."
	webFetchFailed  = "Failed to fetch from web."
)

// ErrEmptyQuestion is returned when the question is empty after trimming.
var ErrEmptyQuestion = errors.New("question cannot be empty")

// ErrUnknownMode is returned for modes outside the known set.
var ErrUnknownMode = errors.New("unknown answer mode")

const (
	defaultTopK             = 3
	defaultRankLimit        = 5
	defaultEmbedConcurrency = 4
)

// Harvester fetches candidate law documents from the configured web sources.
type Harvester interface {
	Harvest(ctx context.Context) ([]harvest.Law, error)
}

// Config holds orchestrator tuning knobs.
type Config struct {
	// TopK bounds the stored-document retrieval. Defaults to 3.
	TopK int

	// RankLimit bounds the ranked candidate set. Defaults to 5.
	RankLimit int

	// EmbedConcurrency bounds concurrent embedding of harvested documents.
	// Defaults to 4.
	EmbedConcurrency int

	// UnifiedRanking ranks stored and harvested candidates together in a
	// single pass. When false, stored context is concatenated ahead of the
	// ranked harvested context without being re-ranked against it.
	UnifiedRanking bool

	// SkipHarvestWhenSatisfied skips harvesting in hybrid mode when the
	// store already produced results.
	SkipHarvestWhenSatisfied bool
}

// Document is one context document surfaced with an answer.
type Document struct {
	Title   string  `json:"title,omitempty"`
	Content string  `json:"content"`
	Score   float64 `json:"score"`
	Kind    string  `json:"kind"`
}

// Result is a completed answer.
type Result struct {
	Answer    string         `json:"answer"`
	Source    history.Source `json:"source"`
	Mode      Mode           `json:"mode"`
	Documents []Document     `json:"documents,omitempty"`
}

// Answerer sequences the pipeline. Per-source failures degrade to an empty
// contribution from that source; only critical-path failures (embedding the
// question, generating the final answer) surface to the caller.
type Answerer struct {
	models    *registry.ModelRegistry
	driver    vector.Driver
	harvester Harvester
	searcher  websearch.Searcher
	histStore history.Store
	publisher eventstream.Publisher
	logger    *zap.Logger

	topK             int
	rankLimit        int
	embedConcurrency int
	unifiedRanking   bool
	skipHarvest      bool
}

// NewAnswerer creates an Answerer. The harvester, searcher, history store
// and publisher are optional; a nil collaborator disables that part of the
// pipeline.
func NewAnswerer(
	models *registry.ModelRegistry,
	driver vector.Driver,
	harvester Harvester,
	searcher websearch.Searcher,
	histStore history.Store,
	publisher eventstream.Publisher,
	c Config,
	logger *zap.Logger,
) *Answerer {
	topK := c.TopK
	if topK <= 0 {
		topK = defaultTopK
	}
	rankLimit := c.RankLimit
	if rankLimit <= 0 {
		rankLimit = defaultRankLimit
	}
	embedConcurrency := c.EmbedConcurrency
	if embedConcurrency <= 0 {
		embedConcurrency = defaultEmbedConcurrency
	}

	return &Answerer{
		models:           models,
		driver:           driver,
		harvester:        harvester,
		searcher:         searcher,
		histStore:        histStore,
		publisher:        publisher,
		logger:           logger,
		topK:             topK,
		rankLimit:        rankLimit,
		embedConcurrency: embedConcurrency,
		unifiedRanking:   c.UnifiedRanking,
		skipHarvest:      c.SkipHarvestWhenSatisfied,
	}
}

// Answer runs the pipeline for one question in the given mode.
func (a *Answerer) Answer(ctx context.Context, question string, mode Mode) (*Result, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, ErrEmptyQuestion
	}

	startedAt := time.Now()

	var (
		result *Result
		err    error
	)

	switch mode {
	case ModeHybrid:
		result, err = a.answerHybrid(ctx, question)
	case ModeLive:
		result, err = a.answerLive(ctx, question)
	case ModeDBOnly:
		result, err = a.answerDBOnly(ctx, question)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMode, mode)
	}
	if err != nil {
		return nil, err
	}

	a.recordExchange(ctx, question, result, startedAt)

	return result, nil
}

// answerHybrid merges stored and harvested candidates, ranks them and
// generates a grounded answer.
func (a *Answerer) answerHybrid(ctx context.Context, question string) (*Result, error) {
	questionEmbedding, err := a.models.Embed(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("embedding question: %w", err)
	}

	stored := a.retrieveStored(ctx, questionEmbedding)

	var harvested []harvest.Law
	if a.harvester != nil && !(a.skipHarvest && len(stored) > 0) {
		harvested, err = a.harvester.Harvest(ctx)
		if err != nil {
			a.logger.Warn("harvest failed", zap.Error(err))
			harvested = nil
		}
	}

	if len(stored) == 0 && len(harvested) == 0 {
		a.logger.Info("no candidates from any source", zap.String("question", question))
		return &Result{
			Answer: ShortCircuitMessage,
			Source: history.SourceDatabase,
			Mode:   ModeHybrid,
		}, nil
	}

	harvestedCandidates := a.embedHarvested(ctx, harvested)

	var (
		contextText string
		documents   []Document
	)
	if a.unifiedRanking {
		contextText, documents = a.unifiedContext(questionEmbedding, stored, harvestedCandidates)
	} else {
		contextText, documents = a.asymmetricContext(questionEmbedding, stored, harvestedCandidates)
	}

	answerText, err := a.generateAnswer(ctx, contextText, question)
	if err != nil {
		return nil, err
	}

	return &Result{
		Answer:    answerText,
		Source:    history.SourceDatabase,
		Mode:      ModeHybrid,
		Documents: documents,
	}, nil
}

// answerLive answers from stored documents only.
func (a *Answerer) answerLive(ctx context.Context, question string) (*Result, error) {
	questionEmbedding, err := a.models.Embed(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("embedding question: %w", err)
	}

	stored := a.retrieveStored(ctx, questionEmbedding)

	var parts []string
	documents := make([]Document, 0, len(stored))
	for _, res := range stored {
		parts = append(parts, formatCandidate(res.Title, res.Content))
		documents = append(documents, Document{
			Title:   res.Title,
			Content: res.Content,
			Score:   float64(res.Score),
			Kind:    "stored",
		})
	}

	answerText, err := a.generateAnswer(ctx, strings.Join(parts, "\n\n"), question)
	if err != nil {
		return nil, err
	}

	return &Result{
		Answer:    answerText,
		Source:    history.SourceDatabase,
		Mode:      ModeLive,
		Documents: documents,
	}, nil
}

// answerDBOnly answers from the document store, falling back to a web
// lookup when the store yields nothing.
func (a *Answerer) answerDBOnly(ctx context.Context, question string) (*Result, error) {
	questionEmbedding, err := a.models.Embed(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("embedding question: %w", err)
	}

	stored := a.retrieveStored(ctx, questionEmbedding)

	source := history.SourceDatabase
	var contextText string
	documents := make([]Document, 0, len(stored))

	if len(stored) > 0 {
		var parts []string
		for _, res := range stored {
			parts = append(parts, res.Content)
			documents = append(documents, Document{
				Title:   res.Title,
				Content: res.Content,
				Score:   float64(res.Score),
				Kind:    "stored",
			})
		}
		contextText = strings.Join(parts, "\n---\n")
	} else {
		source = history.SourceWeb
		contextText = a.searchWeb(ctx, question)
	}

	// cap the context at the first three chunks
	chunks := strings.SplitN(contextText, "\n---\n", 4)
	if len(chunks) > 3 {
		chunks = chunks[:3]
	}
	contextText = strings.Join(chunks, "\n---\n")

	answerText, err := a.generateAnswer(ctx, contextText, question)
	if err != nil {
		return nil, err
	}

	return &Result{
		Answer:    answerText,
		Source:    source,
		Mode:      ModeDBOnly,
		Documents: documents,
	}, nil
}

// retrieveStored queries the document store, degrading to an empty result
// on failure.
func (a *Answerer) retrieveStored(ctx context.Context, questionEmbedding []float32) []vector.QueryResult {
	if a.driver == nil {
		return nil
	}

	results, err := a.driver.Query(ctx, questionEmbedding, a.topK)
	if err != nil {
		a.logger.Warn("document retrieval failed", zap.Error(err))
		return nil
	}

	return results
}

// searchWeb runs the web lookup, mapping failures to the fixed context
// strings the generator is prompted with.
func (a *Answerer) searchWeb(ctx context.Context, question string) string {
	if a.searcher == nil {
		return noWebDefinition
	}

	text, err := a.searcher.Search(ctx, question)
	if err != nil {
		if errors.Is(err, websearch.ErrNoAnswer) {
			return noWebDefinition
		}
		a.logger.Warn("web search failed", zap.Error(err))
		return webFetchFailed
	}

	return text
}

// embedHarvested embeds harvested documents with bounded concurrency,
// preserving discovery order. Documents whose embedding fails are dropped.
func (a *Answerer) embedHarvested(ctx context.Context, harvested []harvest.Law) []rank.Candidate {
	if len(harvested) == 0 {
		return nil
	}

	candidates := make([]rank.Candidate, len(harvested))
	ok := make([]bool, len(harvested))

	sem := make(chan struct{}, a.embedConcurrency)
	var wg sync.WaitGroup

	for i, law := range harvested {
		wg.Add(1)
		go func(i int, law harvest.Law) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				return
			}

			embedding, err := a.models.Embed(ctx, law.Content)
			if err != nil {
				a.logger.Warn("embedding harvested document failed",
					zap.String("title", law.Title),
					zap.Error(err),
				)
				return
			}

			candidates[i] = rank.Candidate{
				Kind:      rank.KindHarvested,
				Title:     law.Title,
				Content:   law.Content,
				Embedding: embedding,
			}
			ok[i] = true
		}(i, law)
	}

	wg.Wait()

	out := make([]rank.Candidate, 0, len(harvested))
	for i := range candidates {
		if ok[i] {
			out = append(out, candidates[i])
		}
	}

	return out
}

// unifiedContext ranks stored and harvested candidates in a single pass.
// Stored candidates carry the store's own similarity score; harvested
// candidates are scored by cosine similarity against the question.
func (a *Answerer) unifiedContext(questionEmbedding []float32, stored []vector.QueryResult, harvested []rank.Candidate) (string, []Document) {
	ranked := make([]rank.Ranked, 0, len(stored)+len(harvested))

	for _, res := range stored {
		ranked = append(ranked, rank.Ranked{
			Candidate: rank.Candidate{
				Kind:    rank.KindStored,
				Title:   res.Title,
				Content: res.Content,
			},
			Score: float64(res.Score),
		})
	}
	for _, cand := range harvested {
		ranked = append(ranked, rank.Ranked{
			Candidate: cand,
			Score:     rank.CosineSimilarity(cand.Embedding, questionEmbedding),
		})
	}

	top := rank.Order(ranked, a.rankLimit)

	var parts []string
	documents := make([]Document, 0, len(top))
	for _, r := range top {
		parts = append(parts, formatCandidate(r.Title, r.Content))
		documents = append(documents, Document{
			Title:   r.Title,
			Content: r.Content,
			Score:   r.Score,
			Kind:    string(r.Kind),
		})
	}

	return strings.Join(parts, "\n\n"), documents
}

// asymmetricContext keeps the stored context ahead of the ranked harvested
// context without re-ranking the two sets against each other. Harvested
// candidates are still ranked among themselves against the question.
func (a *Answerer) asymmetricContext(questionEmbedding []float32, stored []vector.QueryResult, harvested []rank.Candidate) (string, []Document) {
	var parts []string
	var documents []Document

	for _, res := range stored {
		parts = append(parts, formatCandidate(res.Title, res.Content))
		documents = append(documents, Document{
			Title:   res.Title,
			Content: res.Content,
			Score:   float64(res.Score),
			Kind:    string(rank.KindStored),
		})
	}

	ranked := rank.Rank(questionEmbedding, harvested, a.rankLimit)

	for _, r := range ranked {
		parts = append(parts, formatCandidate(r.Title, r.Content))
		documents = append(documents, Document{
			Title:   r.Title,
			Content: r.Content,
			Score:   r.Score,
			Kind:    string(r.Kind),
		})
	}

	return strings.Join(parts, "\n\n"), documents
}

// generateAnswer resolves the generation model and produces the final
// disclaimer-suffixed answer.
func (a *Answerer) generateAnswer(ctx context.Context, contextText, question string) (string, error) {
	gen, err := a.models.Generator()
	if err != nil {
		return "", fmt.Errorf("loading generation model: %w", err)
	}

	svc := generate.NewService(gen, a.logger)
	return svc.Answer(ctx, contextText, question)
}

// recordExchange persists the exchange and publishes an event. Both are
// best effort: failures are logged, never surfaced.
func (a *Answerer) recordExchange(ctx context.Context, question string, result *Result, startedAt time.Time) {
	if result.Answer == ShortCircuitMessage {
		return
	}

	if a.histStore != nil {
		err := a.histStore.Record(ctx, history.Exchange{
			Question: question,
			Answer:   result.Answer,
			Source:   result.Source,
		})
		if err != nil {
			a.logger.Warn("recording exchange failed", zap.Error(err))
		}
	}

	if a.publisher != nil {
		completedAt := time.Now()

		storedDocs, harvestedDocs := 0, 0
		for _, doc := range result.Documents {
			if doc.Kind == string(rank.KindHarvested) {
				harvestedDocs++
			} else {
				storedDocs++
			}
		}

		event := &eventstream.ExchangeRecordedEvent{
			SchemaVersion: eventstream.SchemaVersionV1,
			EventType:     eventstream.EventTypeExchangeRecorded,
			EventID:       uuid.NewString(),
			EmittedAt:     completedAt,
			Question:      question,
			Answer:        result.Answer,
			Source:        string(result.Source),
			Mode:          string(result.Mode),
			Context: eventstream.ExchangeContext{
				StoredDocs:    storedDocs,
				HarvestedDocs: harvestedDocs,
			},
			RequestMeta: eventstream.ExchangeDuration{
				StartedAt:   startedAt,
				CompletedAt: completedAt,
				DurationMs:  completedAt.Sub(startedAt).Milliseconds(),
			},
		}

		if err := a.publisher.PublishExchange(ctx, event); err != nil {
			a.logger.Warn("publishing exchange event failed", zap.Error(err))
		}
	}
}

// formatCandidate renders one candidate for the prompt context.
func formatCandidate(title, content string) string {
	if title == "" {
		return content
	}
	return fmt.Sprintf("(%s) %s", title, content)
}
