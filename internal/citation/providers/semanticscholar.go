package providers

import (
	"context"
	"fmt"
	"strings"
)

// SemanticScholar wraps the Semantic Scholar Graph API.
type SemanticScholar struct {
	client *httpClient
}

// NewSemanticScholar returns a SemanticScholar client.
func NewSemanticScholar(cfg Config) *SemanticScholar {
	return &SemanticScholar{client: newHTTPClient(cfg)}
}

// Name implements Client.
func (s *SemanticScholar) Name() string { return "semantic_scholar" }

type semanticScholarResponse struct {
	Data []struct {
		CitedPaper struct {
			Title   string `json:"title"`
			Authors []struct {
				Name string `json:"name"`
			} `json:"authors"`
			Venue   string `json:"venue"`
			Year    int    `json:"year"`
			Abstract string `json:"abstract"`
			URL     string `json:"url"`
			ExternalIDs struct {
				DOI string `json:"DOI"`
			} `json:"externalIds"`
			CitationCount int `json:"citationCount"`
		} `json:"citedPaper"`
	} `json:"data"`
}

// FetchReferences implements Client.
func (s *SemanticScholar) FetchReferences(ctx context.Context, doi string) ([]Reference, error) {
	url := fmt.Sprintf(
		"%s/graph/v1/paper/DOI:%s/references?fields=title,authors,venue,year,externalIds,abstract,url,citationCount",
		s.client.cfg.BaseURL, doi,
	)

	body, err := s.client.get(ctx, url)
	if err != nil {
		return nil, err
	}

	if body == nil {
		return nil, nil
	}

	var parsed semanticScholarResponse
	if err := decodeJSON(body, &parsed); err != nil {
		return nil, err
	}

	refs := make([]Reference, 0, len(parsed.Data))

	for _, d := range parsed.Data {
		names := make([]string, 0, len(d.CitedPaper.Authors))
		for _, a := range d.CitedPaper.Authors {
			names = append(names, a.Name)
		}

		refs = append(refs, Reference{
			Title:         d.CitedPaper.Title,
			Authors:       strings.Join(names, ", "),
			Journal:       d.CitedPaper.Venue,
			Year:          d.CitedPaper.Year,
			DOI:           d.CitedPaper.ExternalIDs.DOI,
			URL:           d.CitedPaper.URL,
			Abstract:      d.CitedPaper.Abstract,
			CitationCount: d.CitedPaper.CitationCount,
		})
	}

	return refs, nil
}
