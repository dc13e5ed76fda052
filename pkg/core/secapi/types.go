package secapi

// FilingRecord is one filing returned by the metadata or full-text
// search services. Records are read-only snapshots; nothing mutates
// them after the response is decoded.
type FilingRecord struct {
	CompanyName    string `json:"companyName"`
	Ticker         string `json:"ticker"`
	FormType       string `json:"formType"`
	FiledAt        string `json:"filedAt"`
	PeriodOfReport string `json:"periodOfReport"`
	Description    string `json:"description"`
	LinkToFiling   string `json:"linkToFilingDetails"`
	LinkToHTML     string `json:"linkToHtml"`
	LinkToTxt      string `json:"linkToTxt"`
}

// FiledDate returns the date portion of the filedAt timestamp
// (e.g. "2024-02-02" from "2024-02-02T16:01:19-05:00").
func (r FilingRecord) FiledDate() string {
	if len(r.FiledAt) >= 10 {
		return r.FiledAt[:10]
	}
	return r.FiledAt
}

// filingsResponse is the common envelope of both search endpoints.
type filingsResponse struct {
	Total struct {
		Value int `json:"value"`
	} `json:"total"`
	Filings []FilingRecord `json:"filings"`
}

// metadataQuery is the structured query object of the metadata service:
// a Lucene-style query expression plus pagination and sort spec.
type metadataQuery struct {
	Query string              `json:"query"`
	From  string              `json:"from"`
	Size  string              `json:"size"`
	Sort  []map[string]sortBy `json:"sort"`
}

type sortBy struct {
	Order string `json:"order"`
}

// fullTextQuery is the request shape of the full-text search service.
type fullTextQuery struct {
	Query     string   `json:"query"`
	FormTypes []string `json:"formTypes"`
	StartDate string   `json:"startDate"`
	EndDate   string   `json:"endDate"`
}
