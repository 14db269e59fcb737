package providers

import (
	"context"
	"fmt"
	"strconv"
)

// CrossRef wraps the CrossRef works API.
type CrossRef struct {
	client *httpClient
}

// NewCrossRef returns a CrossRef client.
func NewCrossRef(cfg Config) *CrossRef {
	return &CrossRef{client: newHTTPClient(cfg)}
}

// Name implements Client.
func (c *CrossRef) Name() string { return "crossref" }

type crossRefResponse struct {
	Message struct {
		Reference []crossRefReference `json:"reference"`
	} `json:"message"`
}

type crossRefReference struct {
	ArticleTitle string `json:"article-title"`
	Unstructured string `json:"unstructured"`
	JournalTitle string `json:"journal-title"`
	DOI          string `json:"DOI"`
	Year         string `json:"year"`
	Volume       string `json:"volume"`
	Page         string `json:"page"`
	Author       string `json:"author"`
}

// FetchReferences implements Client.
func (c *CrossRef) FetchReferences(ctx context.Context, doi string) ([]Reference, error) {
	url := fmt.Sprintf("%s/works/%s", c.client.cfg.BaseURL, doi)

	body, err := c.client.get(ctx, url)
	if err != nil {
		return nil, err
	}

	if body == nil {
		return nil, nil
	}

	var parsed crossRefResponse
	if err := decodeJSON(body, &parsed); err != nil {
		return nil, err
	}

	refs := make([]Reference, 0, len(parsed.Message.Reference))

	for _, r := range parsed.Message.Reference {
		title := r.ArticleTitle
		if title == "" {
			title = r.Unstructured
		}

		year, _ := strconv.Atoi(r.Year)

		refs = append(refs, Reference{
			Title:   title,
			Authors: r.Author,
			Journal: r.JournalTitle,
			Year:    year,
			Volume:  r.Volume,
			Pages:   r.Page,
			DOI:     r.DOI,
		})
	}

	return refs, nil
}
