package askcmder_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	askcmder "github.com/amategeko/gazette/cmd/gazette/ask"
	"github.com/amategeko/gazette/pkg/answer"
	"github.com/amategeko/gazette/pkg/history"
)

func TestAsk(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Ask Command Suite")
}

var _ = Describe("NewAskCmd", func() {
	It("creates a command with the correct use string", func() {
		cmd := askcmder.NewAskCmd()
		Expect(cmd.Use).To(Equal("ask <question>"))
	})

	It("requires exactly one argument", func() {
		cmd := askcmder.NewAskCmd()
		Expect(cmd.Args(cmd, []string{})).To(HaveOccurred())
		Expect(cmd.Args(cmd, []string{"a", "b"})).To(HaveOccurred())
		Expect(cmd.Args(cmd, []string{"question"})).NotTo(HaveOccurred())
	})

	It("defaults to hybrid mode", func() {
		cmd := askcmder.NewAskCmd()
		f := cmd.Flags().Lookup("mode")
		Expect(f).NotTo(BeNil())
		Expect(f.DefValue).To(Equal("hybrid"))
	})

	It("has an --api-target flag", func() {
		cmd := askcmder.NewAskCmd()
		f := cmd.Flags().Lookup("api-target")
		Expect(f).NotTo(BeNil())
		Expect(f.DefValue).To(Equal("http://localhost:8080"))
	})
})

var _ = Describe("AskAPI", func() {
	It("posts the question and parses the result", func() {
		var gotPath, gotQuestion, gotMode string

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path

			var req map[string]string
			Expect(json.NewDecoder(r.Body).Decode(&req)).To(Succeed())
			gotQuestion = req["question"]
			gotMode = req["mode"]

			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(answer.Result{
				Answer: "The legal age of majority is 18 years.",
				Source: history.SourceDatabase,
				Mode:   answer.ModeHybrid,
			})
		}))
		defer server.Close()

		result, err := askcmder.AskAPI(context.Background(), server.URL, "What is the age of majority?", "hybrid")
		Expect(err).NotTo(HaveOccurred())
		Expect(gotPath).To(Equal("/v1/ask"))
		Expect(gotQuestion).To(Equal("What is the age of majority?"))
		Expect(gotMode).To(Equal("hybrid"))
		Expect(result.Answer).To(Equal("The legal age of majority is 18 years."))
		Expect(result.Source).To(Equal(history.SourceDatabase))
	})

	It("returns an error for non-200 responses", func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"question is required"}`))
		}))
		defer server.Close()

		_, err := askcmder.AskAPI(context.Background(), server.URL, "", "hybrid")
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("HTTP 400"))
	})

	It("returns an error for an unreachable server", func() {
		_, err := askcmder.AskAPI(context.Background(), "http://127.0.0.1:1", "question", "hybrid")
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("failed to connect"))
	})

	It("returns an error for malformed response bodies", func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("not json"))
		}))
		defer server.Close()

		_, err := askcmder.AskAPI(context.Background(), server.URL, "question", "hybrid")
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("parse"))
	})
})
