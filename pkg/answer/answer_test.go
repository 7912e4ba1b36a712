package answer_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/amategeko/gazette/pkg/answer"
	"github.com/amategeko/gazette/pkg/embeddings"
	"github.com/amategeko/gazette/pkg/eventstream"
	"github.com/amategeko/gazette/pkg/generate"
	"github.com/amategeko/gazette/pkg/harvest"
	"github.com/amategeko/gazette/pkg/history"
	"github.com/amategeko/gazette/pkg/registry"
	testutils "github.com/amategeko/gazette/pkg/utils/test"
	"github.com/amategeko/gazette/pkg/vector"
)

func TestAnswer(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Answer Suite")
}

type fakeHarvester struct {
	laws  []harvest.Law
	err   error
	calls int
}

func (f *fakeHarvester) Harvest(_ context.Context) ([]harvest.Law, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.laws, nil
}

type capturingPublisher struct {
	events []*eventstream.ExchangeRecordedEvent
}

func (c *capturingPublisher) PublishExchange(_ context.Context, event *eventstream.ExchangeRecordedEvent) error {
	if event == nil {
		return eventstream.ErrNilExchangeEvent
	}
	c.events = append(c.events, event)
	return nil
}

func (c *capturingPublisher) Close() error { return nil }

var _ = Describe("Answerer", func() {
	var (
		logger    *zap.Logger
		embedder  *testutils.MockEmbedder
		generator *testutils.MockGenerator
		driver    *testutils.MockVectorDriver
		harvester *fakeHarvester
		searcher  *testutils.MockWebSearcher
		histStore *testutils.MockHistoryStore
		publisher *capturingPublisher
		models    *registry.ModelRegistry
	)

	BeforeEach(func() {
		logger = zap.NewNop()
		embedder = testutils.NewMockEmbedder()
		generator = testutils.NewMockGenerator("The legal age of majority is 18 years. This is set by the Civil Code.")
		driver = testutils.NewMockVectorDriver()
		harvester = &fakeHarvester{}
		searcher = testutils.NewMockWebSearcher("Rwanda is a country in East Africa.")
		histStore = testutils.NewMockHistoryStore()
		publisher = &capturingPublisher{}
		models = registry.NewModelRegistry(
			func() (embeddings.Embedder, error) { return embedder, nil },
			func() (generate.Generator, error) { return generator, nil },
			logger,
		)
	})

	newAnswerer := func(cfg answer.Config) *answer.Answerer {
		return answer.NewAnswerer(models, driver, harvester, searcher, histStore, publisher, cfg, logger)
	}

	Describe("validation", func() {
		It("should reject an empty question before any model call", func() {
			a := newAnswerer(answer.Config{})
			_, err := a.Answer(context.Background(), "   ", answer.ModeHybrid)
			Expect(err).To(MatchError(answer.ErrEmptyQuestion))
			Expect(embedder.Calls).To(BeZero())
		})

		It("should reject an unknown mode", func() {
			a := newAnswerer(answer.Config{})
			_, err := a.Answer(context.Background(), "a question", answer.Mode("telepathy"))
			Expect(err).To(MatchError(answer.ErrUnknownMode))
		})
	})

	Describe("hybrid mode", func() {
		It("should answer from a stored law when harvesting yields nothing", func() {
			driver.Results = []vector.QueryResult{
				{
					Document: vector.Document{
						ID:      "law-1",
						Title:   "Civil Code",
						Content: "The age of majority is fixed at 18 years.",
					},
					Score: 0.92,
				},
			}

			a := newAnswerer(answer.Config{UnifiedRanking: true})
			res, err := a.Answer(context.Background(), "What is the legal age of majority in Rwanda?", answer.ModeHybrid)
			Expect(err).NotTo(HaveOccurred())

			Expect(generator.Prompts).To(HaveLen(1))
			Expect(generator.Prompts[0]).To(ContainSubstring("The age of majority is fixed at 18 years."))
			Expect(res.Answer).To(HaveSuffix(generate.Disclaimer))
			Expect(res.Source).To(Equal(history.SourceDatabase))
			Expect(res.Documents).To(HaveLen(1))
			Expect(res.Documents[0].Kind).To(Equal("stored"))
		})

		It("should short-circuit without generating when every source is empty", func() {
			harvester.err = errors.New("all sources down")

			a := newAnswerer(answer.Config{UnifiedRanking: true})
			res, err := a.Answer(context.Background(), "anything at all?", answer.ModeHybrid)
			Expect(err).NotTo(HaveOccurred())

			Expect(res.Answer).To(Equal(answer.ShortCircuitMessage))
			Expect(generator.Prompts).To(BeEmpty())
			Expect(histStore.Exchanges).To(BeEmpty())
			Expect(publisher.events).To(BeEmpty())
		})

		It("should merge harvested documents into the ranked context", func() {
			harvester.laws = []harvest.Law{
				{Title: "Land Law", Content: "Land is held under emphyteutic lease."},
			}

			a := newAnswerer(answer.Config{UnifiedRanking: true})
			res, err := a.Answer(context.Background(), "How is land held in Rwanda?", answer.ModeHybrid)
			Expect(err).NotTo(HaveOccurred())

			Expect(generator.Prompts).To(HaveLen(1))
			Expect(generator.Prompts[0]).To(ContainSubstring("(Land Law) Land is held under emphyteutic lease."))
			Expect(res.Documents).To(HaveLen(1))
			Expect(res.Documents[0].Kind).To(Equal("harvested"))
		})

		It("should cap the ranked candidate set", func() {
			for i := 0; i < 8; i++ {
				harvester.laws = append(harvester.laws, harvest.Law{
					Title:   "Law",
					Content: strings.Repeat("x", i+1),
				})
			}

			a := newAnswerer(answer.Config{UnifiedRanking: true, RankLimit: 5})
			res, err := a.Answer(context.Background(), "what laws exist?", answer.ModeHybrid)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Documents).To(HaveLen(5))
		})

		It("should degrade to harvested content when retrieval fails", func() {
			driver.QueryErr = errors.New("connection refused")
			harvester.laws = []harvest.Law{
				{Title: "Penal Code", Content: "Defines offences and penalties."},
			}

			a := newAnswerer(answer.Config{UnifiedRanking: true})
			res, err := a.Answer(context.Background(), "what does the penal code do?", answer.ModeHybrid)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Answer).NotTo(Equal(answer.ShortCircuitMessage))
			Expect(res.Documents).To(HaveLen(1))
		})

		It("should skip harvesting when the store is satisfied and the policy allows", func() {
			driver.Results = []vector.QueryResult{
				{Document: vector.Document{ID: "law-1", Content: "stored content"}, Score: 0.9},
			}

			a := newAnswerer(answer.Config{UnifiedRanking: true, SkipHarvestWhenSatisfied: true})
			_, err := a.Answer(context.Background(), "a question", answer.ModeHybrid)
			Expect(err).NotTo(HaveOccurred())
			Expect(harvester.calls).To(BeZero())
		})

		It("should record the exchange and publish an event", func() {
			driver.Results = []vector.QueryResult{
				{Document: vector.Document{ID: "law-1", Content: "stored content"}, Score: 0.9},
			}

			a := newAnswerer(answer.Config{UnifiedRanking: true})
			res, err := a.Answer(context.Background(), "a question", answer.ModeHybrid)
			Expect(err).NotTo(HaveOccurred())

			Expect(histStore.Exchanges).To(HaveLen(1))
			Expect(histStore.Exchanges[0].Question).To(Equal("a question"))
			Expect(histStore.Exchanges[0].Answer).To(Equal(res.Answer))
			Expect(histStore.Exchanges[0].Source).To(Equal(history.SourceDatabase))

			Expect(publisher.events).To(HaveLen(1))
			Expect(publisher.events[0].Question).To(Equal("a question"))
			Expect(publisher.events[0].Mode).To(Equal("hybrid"))
			Expect(publisher.events[0].EventID).NotTo(BeEmpty())
			Expect(publisher.events[0].Context.StoredDocs).To(Equal(1))
		})

		It("should collapse repeated words from the raw generation", func() {
			driver.Results = []vector.QueryResult{
				{Document: vector.Document{ID: "law-1", Content: "constitutional text"}, Score: 0.8},
			}
			generator.Response = "the the constitution protects fundamental rights."

			a := newAnswerer(answer.Config{UnifiedRanking: true})
			res, err := a.Answer(context.Background(), "who protects rights?", answer.ModeHybrid)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Answer).To(ContainSubstring("the constitution protects fundamental rights"))
			Expect(res.Answer).NotTo(ContainSubstring("the the"))
		})

		It("should surface generation failure as an error", func() {
			driver.Results = []vector.QueryResult{
				{Document: vector.Document{ID: "law-1", Content: "stored content"}, Score: 0.9},
			}
			generator.Err = errors.New("model crashed")

			a := newAnswerer(answer.Config{UnifiedRanking: true})
			_, err := a.Answer(context.Background(), "a question", answer.ModeHybrid)
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("live mode", func() {
		It("should answer from stored documents without harvesting", func() {
			driver.Results = []vector.QueryResult{
				{Document: vector.Document{ID: "law-1", Title: "Labour Code", Content: "Regulates employment."}, Score: 0.8},
			}

			a := newAnswerer(answer.Config{})
			res, err := a.Answer(context.Background(), "what regulates employment?", answer.ModeLive)
			Expect(err).NotTo(HaveOccurred())

			Expect(harvester.calls).To(BeZero())
			Expect(generator.Prompts).To(HaveLen(1))
			Expect(generator.Prompts[0]).To(ContainSubstring("Regulates employment."))
			Expect(res.Source).To(Equal(history.SourceDatabase))
		})

		It("should still generate with the placeholder when the store is empty", func() {
			a := newAnswerer(answer.Config{})
			res, err := a.Answer(context.Background(), "an unanswerable question?", answer.ModeLive)
			Expect(err).NotTo(HaveOccurred())

			Expect(generator.Prompts).To(HaveLen(1))
			Expect(generator.Prompts[0]).To(ContainSubstring("No relevant law found."))
			Expect(res.Answer).To(HaveSuffix(generate.Disclaimer))
		})
	})

	Describe("dbonly mode", func() {
		It("should answer from the store when it has results", func() {
			driver.Results = []vector.QueryResult{
				{Document: vector.Document{ID: "chunk-1", Content: "chunked document text"}, Score: 0.7},
			}

			a := newAnswerer(answer.Config{})
			res, err := a.Answer(context.Background(), "what does the document say?", answer.ModeDBOnly)
			Expect(err).NotTo(HaveOccurred())

			Expect(searcher.Queries).To(BeEmpty())
			Expect(res.Source).To(Equal(history.SourceDatabase))
			Expect(generator.Prompts[0]).To(ContainSubstring("chunked document text"))
		})

		It("should fall back to the web when the store is empty", func() {
			a := newAnswerer(answer.Config{})
			res, err := a.Answer(context.Background(), "what is rwanda?", answer.ModeDBOnly)
			Expect(err).NotTo(HaveOccurred())

			Expect(searcher.Queries).To(Equal([]string{"what is rwanda?"}))
			Expect(res.Source).To(Equal(history.SourceWeb))
			Expect(generator.Prompts[0]).To(ContainSubstring("Rwanda is a country in East Africa."))

			Expect(histStore.Exchanges).To(HaveLen(1))
			Expect(histStore.Exchanges[0].Source).To(Equal(history.SourceWeb))
		})

		It("should still generate when the web lookup fails", func() {
			searcher.Err = errors.New("network down")

			a := newAnswerer(answer.Config{})
			res, err := a.Answer(context.Background(), "what is rwanda?", answer.ModeDBOnly)
			Expect(err).NotTo(HaveOccurred())
			Expect(generator.Prompts[0]).To(ContainSubstring("Failed to fetch from web."))
			Expect(res.Source).To(Equal(history.SourceWeb))
		})
	})
})
