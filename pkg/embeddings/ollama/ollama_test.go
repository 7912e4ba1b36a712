package ollama_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/amategeko/gazette/pkg/embeddings"
	"github.com/amategeko/gazette/pkg/embeddings/ollama"
)

func TestOllamaEmbedder(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Ollama Embedder Suite")
}

var _ = Describe("Embedder", func() {
	var (
		server *httptest.Server
		ctx    context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
	})

	AfterEach(func() {
		if server != nil {
			server.Close()
			server = nil
		}
	})

	newEmbedder := func(url string) *ollama.Embedder {
		e, err := ollama.NewEmbedder(ollama.EmbedderConfig{BaseURL: url})
		Expect(err).NotTo(HaveOccurred())
		return e
	}

	It("returns the embedding from the API response", func() {
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			Expect(r.URL.Path).To(Equal("/api/embed"))
			json.NewEncoder(w).Encode(map[string]any{
				"embeddings": [][]float32{{0.1, 0.2, 0.3}},
			})
		}))

		emb, err := newEmbedder(server.URL).Embed(ctx, "legal age of majority")
		Expect(err).NotTo(HaveOccurred())
		Expect(emb).To(Equal([]float32{0.1, 0.2, 0.3}))
	})

	It("rejects empty input before any network call", func() {
		called := false
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
		}))

		_, err := newEmbedder(server.URL).Embed(ctx, "   \n\t ")
		Expect(err).To(MatchError(embeddings.ErrEmptyText))
		Expect(called).To(BeFalse())
	})

	It("wraps non-200 responses as embedding failures", func() {
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "model blew up", http.StatusInternalServerError)
		}))

		_, err := newEmbedder(server.URL).Embed(ctx, "question")
		Expect(err).To(MatchError(embeddings.ErrEmbedding))
	})

	It("reports an unreachable server as model unavailable", func() {
		_, err := newEmbedder("http://127.0.0.1:1").Embed(ctx, "question")
		Expect(err).To(MatchError(embeddings.ErrModelUnavailable))
	})

	It("errors when the response carries no embeddings", func() {
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]any{"embeddings": [][]float32{}})
		}))

		_, err := newEmbedder(server.URL).Embed(ctx, "question")
		Expect(err).To(MatchError(embeddings.ErrEmbedding))
	})
})
