package providers

import (
	"context"
	"fmt"
)

// OpenCitations wraps the OpenCitations COCI references endpoint.
type OpenCitations struct {
	client *httpClient
}

// NewOpenCitations returns an OpenCitations client.
func NewOpenCitations(cfg Config) *OpenCitations {
	return &OpenCitations{client: newHTTPClient(cfg)}
}

// Name implements Client.
func (o *OpenCitations) Name() string { return "opencitations" }

type openCitationsEdge struct {
	Cited     string `json:"cited"`
	OCI       string `json:"oci"`
	Creation  string `json:"creation"`
	Timespan  string `json:"timespan"`
}

// FetchReferences implements Client.
func (o *OpenCitations) FetchReferences(ctx context.Context, doi string) ([]Reference, error) {
	url := fmt.Sprintf("%s/references/%s", o.client.cfg.BaseURL, doi)

	body, err := o.client.get(ctx, url)
	if err != nil {
		return nil, err
	}

	if body == nil {
		return nil, nil
	}

	var edges []openCitationsEdge
	if err := decodeJSON(body, &edges); err != nil {
		return nil, err
	}

	refs := make([]Reference, 0, len(edges))

	for _, e := range edges {
		refs = append(refs, Reference{
			DOI:      e.Cited,
			OCI:      e.OCI,
			Creation: e.Creation,
			Timespan: e.Timespan,
		})
	}

	return refs, nil
}
