// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package research

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/pdiddy/foodsafety-engine/internal/httputil"
	"github.com/pdiddy/foodsafety-engine/pkg/types"
)

// pubmedAPIBase is the NCBI E-utilities root. Declared as a var so tests can
// substitute an httptest server.
var pubmedAPIBase = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils"

const (
	pubmedArticleURL  = "https://pubmed.ncbi.nlm.nih.gov/%s/"
	pubmedTool        = "foodsafety-engine"
	defaultMaxArticle = 3
)

// PubMedBackend searches PubMed through esearch and resolves titles through
// esummary. Toxins are searched in the context of the sample's proteins; a
// sample without toxins searches its proteins for food-safety literature.
type PubMedBackend struct {
	Client *http.Client
	Config types.ResearchConfig
}

// NewPubMedBackend returns a backend using cfg's HTTP settings and API key.
func NewPubMedBackend(cfg types.ResearchConfig) *PubMedBackend {
	return &PubMedBackend{Client: httputil.NewClient(cfg.HTTPConfig), Config: cfg}
}

// Name returns the backend identifier.
func (b *PubMedBackend) Name() string { return SourcePubMed }

// Research implements Backend.
func (b *PubMedBackend) Research(ctx context.Context, s Subjects) ([]types.Finding, error) {
	var out []types.Finding
	for _, q := range pubmedTerms(s) {
		subject := q.Subject
		ids, err := b.search(ctx, q.Term)
		if err != nil {
			return out, errors.Wrapf(err, "searching PubMed for %s", subject)
		}
		if len(ids) == 0 {
			continue
		}
		articles, err := b.summaries(ctx, ids)
		if err != nil {
			return out, errors.Wrapf(err, "summarizing PubMed results for %s", subject)
		}
		for _, a := range articles {
			text := a.Source
			if a.PubDate != "" {
				text = strings.TrimSpace(text + ", " + a.PubDate)
			}
			out = append(out, types.Finding{
				Subject: subject,
				Source:  SourcePubMed,
				Title:   a.Title,
				Text:    text,
				URL:     fmt.Sprintf(pubmedArticleURL, a.UID),
			})
		}
	}
	return out, nil
}

type pubmedTerm struct {
	Subject string
	Term    string
}

// pubmedTerms builds one query per toxin, or one per protein when the
// sample names no toxins. Order follows the sample.
func pubmedTerms(s Subjects) []pubmedTerm {
	var out []pubmedTerm
	if len(s.Toxins) == 0 {
		for _, p := range s.Proteins {
			out = append(out, pubmedTerm{Subject: p, Term: phrase(p) + " AND food safety"})
		}
		return out
	}

	var within string
	if len(s.Proteins) > 0 {
		parts := make([]string, len(s.Proteins))
		for i, p := range s.Proteins {
			parts[i] = phrase(p)
		}
		within = " AND (" + strings.Join(parts, " OR ") + ")"
	}
	for _, t := range s.Toxins {
		out = append(out, pubmedTerm{Subject: t, Term: phrase(t) + within})
	}
	return out
}

func phrase(name string) string {
	return `"` + strings.ReplaceAll(name, "_", " ") + `"`
}

func (b *PubMedBackend) params() url.Values {
	v := url.Values{
		"db":      {"pubmed"},
		"retmode": {"json"},
		"tool":    {pubmedTool},
	}
	if b.Config.PubMedEmail != "" {
		v.Set("email", b.Config.PubMedEmail)
	}
	if b.Config.PubMedAPIKey != "" {
		v.Set("api_key", b.Config.PubMedAPIKey)
	}
	return v
}

func (b *PubMedBackend) search(ctx context.Context, term string) ([]string, error) {
	maxArticles := b.Config.MaxArticles
	if maxArticles <= 0 {
		maxArticles = defaultMaxArticle
	}
	v := b.params()
	v.Set("term", term)
	v.Set("retmax", strconv.Itoa(maxArticles))
	v.Set("sort", "relevance")

	var sr esearchResponse
	if err := b.get(ctx, "/esearch.fcgi", v, &sr); err != nil {
		return nil, err
	}
	return sr.Result.IDList, nil
}

func (b *PubMedBackend) summaries(ctx context.Context, ids []string) ([]esummaryArticle, error) {
	v := b.params()
	v.Set("id", strings.Join(ids, ","))

	var sr esummaryResponse
	if err := b.get(ctx, "/esummary.fcgi", v, &sr); err != nil {
		return nil, err
	}

	var out []esummaryArticle
	for _, uid := range sr.Result.UIDs {
		raw, ok := sr.Result.Articles[uid]
		if !ok {
			continue
		}
		var a esummaryArticle
		if err := json.Unmarshal(raw, &a); err != nil {
			return nil, errors.Wrapf(err, "parsing summary %s", uid)
		}
		if a.UID == "" {
			a.UID = uid
		}
		out = append(out, a)
	}
	return out, nil
}

func (b *PubMedBackend) get(ctx context.Context, path string, params url.Values, into any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pubmedAPIBase+path+"?"+params.Encode(), nil)
	if err != nil {
		return errors.Wrap(err, "creating request")
	}
	if b.Config.UserAgent != "" {
		req.Header.Set("User-Agent", b.Config.UserAgent)
	}

	resp, err := httputil.DoWithRetry(ctx, b.Client, req, b.Config.MaxRetries)
	if err != nil {
		return errors.Wrap(err, "PubMed request")
	}
	defer resp.Body.Close()

	if err := httputil.CheckStatus(resp); err != nil {
		return err
	}
	if err := json.NewDecoder(resp.Body).Decode(into); err != nil {
		return errors.Wrap(err, "parsing PubMed response")
	}
	return nil
}

// E-utilities JSON structures.
type esearchResponse struct {
	Result struct {
		Count  string   `json:"count"`
		IDList []string `json:"idlist"`
	} `json:"esearchresult"`
}

type esummaryResponse struct {
	Result esummaryResult `json:"result"`
}

// esummaryResult holds "uids" next to one object per uid.
type esummaryResult struct {
	UIDs     []string
	Articles map[string]json.RawMessage
}

func (r *esummaryResult) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if uids, ok := raw["uids"]; ok {
		if err := json.Unmarshal(uids, &r.UIDs); err != nil {
			return err
		}
		delete(raw, "uids")
	}
	r.Articles = raw
	return nil
}

type esummaryArticle struct {
	UID     string `json:"uid"`
	Title   string `json:"title"`
	Source  string `json:"source"`
	PubDate string `json:"pubdate"`
}
