package secapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func stubFilings(n int) []FilingRecord {
	records := make([]FilingRecord, n)
	for i := range records {
		records[i] = FilingRecord{
			CompanyName:  "AMAZON COM INC",
			Ticker:       "AMZN",
			FormType:     "10-K",
			FiledAt:      "2024-02-02T16:01:19-05:00",
			LinkToFiling: "https://www.sec.gov/Archives/edgar/data/1018724/amzn-20231231.htm",
		}
	}
	return records
}

func newStubServer(t *testing.T, capture *metadataQuery, filings []FilingRecord) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if capture != nil {
			if err := json.NewDecoder(r.Body).Decode(capture); err != nil {
				t.Errorf("failed to decode query: %v", err)
			}
		}
		json.NewEncoder(w).Encode(map[string]interface{}{"filings": filings})
	}))
}

func TestSearchFilings_TickerQuery(t *testing.T) {
	var captured metadataQuery
	srv := newStubServer(t, &captured, stubFilings(1))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURLs(srv.URL, srv.URL))

	records, err := client.SearchFilings(context.Background(), "AMZN", "", nil)
	if err != nil {
		t.Fatalf("SearchFilings: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}

	if !strings.Contains(captured.Query, "ticker:AMZN") {
		t.Errorf("query expression = %q, want ticker filter", captured.Query)
	}
	if !strings.Contains(captured.Query, `formType:("10-K" OR "10-Q")`) {
		t.Errorf("query expression = %q, want default form filter", captured.Query)
	}
	if len(captured.Sort) != 1 || captured.Sort[0]["filedAt"].Order != "desc" {
		t.Errorf("sort spec = %+v, want filedAt desc", captured.Sort)
	}
}

func TestSearchFilings_CompanyNameFallback(t *testing.T) {
	var captured metadataQuery
	srv := newStubServer(t, &captured, stubFilings(1))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURLs(srv.URL, srv.URL))

	if _, err := client.SearchFilings(context.Background(), "", "Acme Holdings", nil); err != nil {
		t.Fatalf("SearchFilings: %v", err)
	}

	if !strings.Contains(captured.Query, "companyName:Acme Holdings") {
		t.Errorf("query expression = %q, want companyName filter", captured.Query)
	}
	if strings.Contains(captured.Query, "ticker:") {
		t.Errorf("query expression = %q, must not contain ticker filter", captured.Query)
	}
}

func TestSearchFilings_TruncatesToPrimaryLimit(t *testing.T) {
	srv := newStubServer(t, nil, stubFilings(5))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURLs(srv.URL, srv.URL))

	records, err := client.SearchFilings(context.Background(), "AMZN", "", nil)
	if err != nil {
		t.Fatalf("SearchFilings: %v", err)
	}
	if len(records) != primaryResultLimit {
		t.Errorf("got %d records, want %d", len(records), primaryResultLimit)
	}
}

func TestFullTextSearch_QuotesQueryAndTruncates(t *testing.T) {
	var captured fullTextQuery
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&captured)
		json.NewEncoder(w).Encode(map[string]interface{}{"filings": stubFilings(4)})
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURLs(srv.URL, srv.URL))

	records, err := client.FullTextSearch(context.Background(), "cloud revenue", []string{"10-K", "10-Q"})
	if err != nil {
		t.Fatalf("FullTextSearch: %v", err)
	}
	if len(records) != fullTextResultLimit {
		t.Errorf("got %d records, want %d", len(records), fullTextResultLimit)
	}

	if captured.Query != `"cloud revenue"` {
		t.Errorf("query = %q, want quoted literal", captured.Query)
	}
	if captured.StartDate != fullTextStartDate || captured.EndDate != fullTextEndDate {
		t.Errorf("date window = %s..%s, want fixed window", captured.StartDate, captured.EndDate)
	}
}

func TestSearchFilings_HTTPErrorPropagates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := NewClient("bad-key", WithBaseURLs(srv.URL, srv.URL))

	if _, err := client.SearchFilings(context.Background(), "AMZN", "", nil); err == nil {
		t.Fatal("expected error from non-200 response")
	}
}

func TestFilingRecord_FiledDate(t *testing.T) {
	r := FilingRecord{FiledAt: "2024-02-02T16:01:19-05:00"}
	if got := r.FiledDate(); got != "2024-02-02" {
		t.Errorf("FiledDate = %q, want 2024-02-02", got)
	}
}

func TestDocumentFetcher_HeadersAndThrottle(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.Write([]byte("<html><body>Net sales $500,000</body></html>"))
	}))
	defer srv.Close()

	fetcher := NewDocumentFetcher()
	var slept time.Duration
	fetcher.SetSleeper(func(d time.Duration) { slept += d })

	text, err := fetcher.FetchText(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("FetchText: %v", err)
	}

	if gotUA != documentUserAgent {
		t.Errorf("user agent = %q, want %q", gotUA, documentUserAgent)
	}
	if slept != politenessDelay {
		t.Errorf("slept %v, want the %v politeness delay", slept, politenessDelay)
	}
	if !strings.Contains(text, "Net sales $500,000") {
		t.Errorf("flattened text = %q, want document body", text)
	}
}

func TestDocumentFetcher_Non2xxFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "blocked", http.StatusForbidden)
	}))
	defer srv.Close()

	fetcher := NewDocumentFetcher()
	fetcher.SetSleeper(func(time.Duration) {})

	if _, err := fetcher.Fetch(context.Background(), srv.URL); err == nil {
		t.Fatal("expected error for 403 response")
	}
}

func TestFlattenHTML_StripsScriptsAndXBRL(t *testing.T) {
	html := `<html><head><style>body{}</style></head><body>
	<script>alert(1)</script>
	<p>Net sales <ix:nonFraction name="us-gaap:Revenues">574,785</ix:nonFraction></p>
	</body></html>`

	text := FlattenHTML(html)

	if strings.Contains(text, "alert(1)") {
		t.Error("script content survived flattening")
	}
	if !strings.Contains(text, "574,785") {
		t.Error("XBRL-tagged figure lost during flattening")
	}
}
