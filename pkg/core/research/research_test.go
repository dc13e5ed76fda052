package research

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"sec_copilot/pkg/core/prompt"
	"sec_copilot/pkg/core/secapi"
)

type mockSearcher struct {
	SearchFilingsFunc  func(ctx context.Context, ticker, companyQuery string, formTypes []string) ([]secapi.FilingRecord, error)
	FullTextSearchFunc func(ctx context.Context, query string, formTypes []string) ([]secapi.FilingRecord, error)
}

func (m *mockSearcher) SearchFilings(ctx context.Context, ticker, companyQuery string, formTypes []string) ([]secapi.FilingRecord, error) {
	return m.SearchFilingsFunc(ctx, ticker, companyQuery, formTypes)
}

func (m *mockSearcher) FullTextSearch(ctx context.Context, query string, formTypes []string) ([]secapi.FilingRecord, error) {
	return m.FullTextSearchFunc(ctx, query, formTypes)
}

type mockDocs struct {
	FetchTextFunc func(ctx context.Context, url string) (string, error)
}

func (m *mockDocs) FetchText(ctx context.Context, url string) (string, error) {
	return m.FetchTextFunc(ctx, url)
}

type mockProvider struct {
	GenerateFunc func(ctx context.Context, prompt, systemPrompt string, options map[string]interface{}) (string, error)
}

func (m *mockProvider) GenerateResponse(ctx context.Context, prompt, systemPrompt string, options map[string]interface{}) (string, error) {
	return m.GenerateFunc(ctx, prompt, systemPrompt, options)
}

func (m *mockProvider) AdaptInstructions(raw string) string { return raw }

func tenK() secapi.FilingRecord {
	return secapi.FilingRecord{
		CompanyName:    "AMAZON COM INC",
		Ticker:         "AMZN",
		FormType:       "10-K",
		FiledAt:        "2024-02-02T16:01:19-05:00",
		PeriodOfReport: "2023-12-31",
		LinkToFiling:   "https://www.sec.gov/Archives/edgar/data/1018724/amzn-20231231.htm",
	}
}

func TestRetrieve_MetadataBeforeFullText(t *testing.T) {
	search := &mockSearcher{
		SearchFilingsFunc: func(ctx context.Context, ticker, companyQuery string, formTypes []string) ([]secapi.FilingRecord, error) {
			if ticker != "AMZN" {
				t.Errorf("ticker = %q, want AMZN", ticker)
			}
			return []secapi.FilingRecord{tenK()}, nil
		},
		FullTextSearchFunc: func(ctx context.Context, query string, formTypes []string) ([]secapi.FilingRecord, error) {
			rec := tenK()
			rec.FormType = "10-Q"
			return []secapi.FilingRecord{rec}, nil
		},
	}
	docs := &mockDocs{
		FetchTextFunc: func(ctx context.Context, url string) (string, error) {
			return "Net sales $574,785", nil
		},
	}

	evidence, err := NewRetriever(search, docs).Retrieve(context.Background(), "Show me Amazon's revenue")
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}

	if len(evidence) != 2 {
		t.Fatalf("got %d evidence blocks, want 2", len(evidence))
	}
	if strings.HasPrefix(evidence[0], "Full-text match") {
		t.Error("metadata evidence must come before full-text matches")
	}
	if !strings.HasPrefix(evidence[1], "Full-text match") {
		t.Errorf("second block = %q, want full-text label", evidence[1])
	}
	if !strings.Contains(evidence[0], "574,785") {
		t.Errorf("first block = %q, want extracted figure", evidence[0])
	}
	if !strings.Contains(evidence[0], "10-K") || !strings.Contains(evidence[0], "2024-02-02") {
		t.Errorf("first block = %q, want form type and filing date", evidence[0])
	}
}

func TestRetrieve_PrimaryFailurePropagates(t *testing.T) {
	search := &mockSearcher{
		SearchFilingsFunc: func(ctx context.Context, ticker, companyQuery string, formTypes []string) ([]secapi.FilingRecord, error) {
			return nil, errors.New("HTTP 401")
		},
		FullTextSearchFunc: func(ctx context.Context, query string, formTypes []string) ([]secapi.FilingRecord, error) {
			t.Error("full-text search must not run after a metadata failure")
			return nil, nil
		},
	}

	_, err := NewRetriever(search, &mockDocs{}).Retrieve(context.Background(), "Amazon revenue")
	if err == nil {
		t.Fatal("expected metadata failure to propagate")
	}
}

func TestRetrieve_FullTextFailureDegrades(t *testing.T) {
	search := &mockSearcher{
		SearchFilingsFunc: func(ctx context.Context, ticker, companyQuery string, formTypes []string) ([]secapi.FilingRecord, error) {
			return []secapi.FilingRecord{tenK()}, nil
		},
		FullTextSearchFunc: func(ctx context.Context, query string, formTypes []string) ([]secapi.FilingRecord, error) {
			return nil, errors.New("service unavailable")
		},
	}
	docs := &mockDocs{
		FetchTextFunc: func(ctx context.Context, url string) (string, error) {
			return "", errors.New("fetch blocked")
		},
	}

	evidence, err := NewRetriever(search, docs).Retrieve(context.Background(), "Amazon revenue")
	if err != nil {
		t.Fatalf("full-text or fetch failures must not fail the retrieval: %v", err)
	}
	if len(evidence) != 1 {
		t.Fatalf("got %d evidence blocks, want the metadata block", len(evidence))
	}
}

func TestRetrieve_UnresolvedQueryUsesCompanySearch(t *testing.T) {
	search := &mockSearcher{
		SearchFilingsFunc: func(ctx context.Context, ticker, companyQuery string, formTypes []string) ([]secapi.FilingRecord, error) {
			if ticker != "" {
				t.Errorf("ticker = %q, want empty for unresolved query", ticker)
			}
			if companyQuery == "" {
				t.Error("companyQuery must carry the raw query")
			}
			return nil, nil
		},
		FullTextSearchFunc: func(ctx context.Context, query string, formTypes []string) ([]secapi.FilingRecord, error) {
			return nil, nil
		},
	}

	if _, err := NewRetriever(search, &mockDocs{}).Retrieve(context.Background(), "filings for Example Holdings Corp"); err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
}

func TestSynthesize_EmptyEvidenceShortCircuits(t *testing.T) {
	provider := &mockProvider{
		GenerateFunc: func(ctx context.Context, prompt, systemPrompt string, options map[string]interface{}) (string, error) {
			t.Error("LLM must not be invoked on empty evidence")
			return "", nil
		},
	}

	got, err := NewSynthesizer(provider).Synthesize(context.Background(), "anything", nil)
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if got != NoFilingsMessage {
		t.Errorf("answer = %q, want canned no-filings message", got)
	}
}

func TestSynthesize_StripsCodeFences(t *testing.T) {
	provider := &mockProvider{
		GenerateFunc: func(ctx context.Context, prompt, systemPrompt string, options map[string]interface{}) (string, error) {
			if !strings.Contains(prompt, "Evidence 1") {
				t.Errorf("prompt = %q, want numbered evidence", prompt)
			}
			return "```markdown\n**Answer** here\n```", nil
		},
	}

	got, err := NewSynthesizer(provider).Synthesize(context.Background(), "q", []string{"some evidence"})
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if got != "**Answer** here" {
		t.Errorf("answer = %q, want fences stripped", got)
	}
}

func TestSynthesize_UsesRegisteredTemplate(t *testing.T) {
	prompt.Get().Clear()
	defer prompt.Get().Clear()
	err := prompt.Get().Register(&prompt.PromptTemplate{
		ID:             prompt.PromptIDs.AssistantFilingAnswer,
		SystemPrompt:   "Answer from the filings.",
		UserPromptTmpl: "Q: {{.Question}}\nE: {{.Evidence}}",
	})
	if err != nil {
		t.Fatal(err)
	}

	provider := &mockProvider{
		GenerateFunc: func(ctx context.Context, userPrompt, systemPrompt string, options map[string]interface{}) (string, error) {
			if !strings.HasPrefix(userPrompt, "Q: revenue?") {
				t.Errorf("prompt = %q, want template rendering", userPrompt)
			}
			if !strings.Contains(userPrompt, "E: --- Evidence 1 ---") {
				t.Errorf("prompt = %q, want evidence blocks in template slot", userPrompt)
			}
			if systemPrompt != "Answer from the filings." {
				t.Errorf("system prompt = %q, want registered prompt", systemPrompt)
			}
			return "ok", nil
		},
	}

	if _, err := NewSynthesizer(provider).Synthesize(context.Background(), "revenue?", []string{"some evidence"}); err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
}

func TestSynthesizeStructured_ParsesLenientJSON(t *testing.T) {
	provider := &mockProvider{
		GenerateFunc: func(ctx context.Context, prompt, systemPrompt string, options map[string]interface{}) (string, error) {
			if rf, ok := options["response_format"].(map[string]interface{}); !ok || rf["type"] != "json_object" {
				t.Errorf("options = %v, want json_object response format", options)
			}
			// Trailing comma: the repair chain must cope.
			return `{"answer": "Revenue was $574,785 million.", "figures_used": ["revenue"], "sources": ["https://example.com/10k"],}`, nil
		},
	}

	got, err := NewSynthesizer(provider).SynthesizeStructured(context.Background(), "q", []string{"evidence"})
	if err != nil {
		t.Fatalf("SynthesizeStructured: %v", err)
	}
	if !strings.Contains(got.Answer, "574,785") {
		t.Errorf("answer = %q", got.Answer)
	}
	if len(got.Sources) != 1 || got.Sources[0] != "https://example.com/10k" {
		t.Errorf("sources = %v", got.Sources)
	}
}

func TestFilingSearchTool_NeverErrors(t *testing.T) {
	search := &mockSearcher{
		SearchFilingsFunc: func(ctx context.Context, ticker, companyQuery string, formTypes []string) ([]secapi.FilingRecord, error) {
			return nil, errors.New("upstream down")
		},
		FullTextSearchFunc: func(ctx context.Context, query string, formTypes []string) ([]secapi.FilingRecord, error) {
			return nil, nil
		},
	}
	provider := &mockProvider{
		GenerateFunc: func(ctx context.Context, prompt, systemPrompt string, options map[string]interface{}) (string, error) {
			return "", errors.New("unused")
		},
	}

	tool := NewFilingSearchTool(NewRetriever(search, &mockDocs{}), NewSynthesizer(provider))
	got := tool.Search(context.Background(), "Amazon revenue")

	if !strings.Contains(got, "temporarily unavailable") {
		t.Errorf("answer = %q, want containment message", got)
	}
}

func TestPipeline_EndToEnd(t *testing.T) {
	// Stub filing document.
	docSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html><body><p>Net sales $500,000</p></body></html>")
	}))
	defer docSrv.Close()

	// Stub metadata service returning one 10-K linking to the document.
	metaSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := tenK()
		rec.LinkToFiling = docSrv.URL + "/amzn-20231231.htm"
		json.NewEncoder(w).Encode(map[string]interface{}{"filings": []secapi.FilingRecord{rec}})
	}))
	defer metaSrv.Close()

	client := secapi.NewClient("test-key", secapi.WithBaseURLs(metaSrv.URL, metaSrv.URL))
	fetcher := secapi.NewDocumentFetcher()
	fetcher.SetSleeper(func(time.Duration) {})

	var sawFigure, sawURL bool
	provider := &mockProvider{
		GenerateFunc: func(ctx context.Context, prompt, systemPrompt string, options map[string]interface{}) (string, error) {
			sawFigure = strings.Contains(prompt, "500,000")
			sawURL = strings.Contains(prompt, docSrv.URL)
			return "Per the 10-K filed 2024-02-02, net sales were $500,000 (source: " + docSrv.URL + "/amzn-20231231.htm).", nil
		},
	}

	tool := NewFilingSearchTool(NewRetriever(client, fetcher), NewSynthesizer(provider))
	answer := tool.Search(context.Background(), "Show me the financial statements for Amazon")

	if !sawFigure {
		t.Error("extracted figure never reached the synthesis prompt")
	}
	if !sawURL {
		t.Error("document URL never reached the synthesis prompt")
	}
	if !strings.Contains(answer, "500,000") {
		t.Errorf("answer = %q, want the extracted figure", answer)
	}
	if !strings.Contains(answer, docSrv.URL) {
		t.Errorf("answer = %q, want the document URL", answer)
	}
}
