package textstore

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"stock-insight/internal/api"
	"stock-insight/internal/errs"
	"stock-insight/internal/interfaces"
	"stock-insight/internal/types"
)

// HTTP reads companies and tweets from a feed service:
//
//	GET /companies/{ticker} -> {"ticker": "AAPL", "influential_people": ["name", ...]}
//	GET /tweets?influencer=name -> {"influencer": {"name", "authority_score"}, "tweets": [{"tweet_text"}]}
//
// Authority lives on the tweet document, so each document is fetched once per
// ttl and serves both GetInfluencers and GetTexts.
type HTTP struct {
	client *api.Client
	docs   *Cache[*tweetDoc]
}

var _ interfaces.SentimentTextStore = (*HTTP)(nil)

type companyDoc struct {
	Ticker     string   `json:"ticker"`
	Influencer []string `json:"influential_people"`
}

type tweetDoc struct {
	Influencer struct {
		Name      string   `json:"name"`
		Authority *float64 `json:"authority_score"`
	} `json:"influencer"`
	Tweets []struct {
		Text string `json:"tweet_text"`
	} `json:"tweets"`
}

func NewHTTP(client *api.Client, ttl time.Duration) *HTTP {
	return &HTTP{client: client, docs: NewCache[*tweetDoc](ttl)}
}

func (h *HTTP) GetInfluencers(ctx context.Context, ticker string) ([]types.Influencer, error) {
	resp, err := h.client.GET(ctx, "/companies/"+url.PathEscape(normalizeTicker(ticker)))
	if api.IsStatus(err, http.StatusNotFound) {
		return nil, errs.ErrNotFound
	}
	if err != nil {
		return nil, errs.Upstream("textstore.GetInfluencers", err)
	}
	var company companyDoc
	if err := resp.ParseJSON(&company); err != nil {
		return nil, errs.Upstream("textstore.GetInfluencers", err)
	}

	out := make([]types.Influencer, 0, len(company.Influencer))
	for _, name := range company.Influencer {
		doc, err := h.tweets(ctx, name)
		if err != nil {
			return nil, err
		}
		inf := types.Influencer{Name: name}
		if doc != nil {
			inf.Authority = doc.Influencer.Authority
		}
		out = append(out, inf)
	}
	return out, nil
}

func (h *HTTP) GetTexts(ctx context.Context, influencer string) ([]string, error) {
	doc, err := h.tweets(ctx, influencer)
	if err != nil || doc == nil {
		return nil, err
	}
	texts := make([]string, 0, len(doc.Tweets))
	for _, t := range doc.Tweets {
		texts = append(texts, t.Text)
	}
	return texts, nil
}

// tweets returns nil without error when the influencer has no document
func (h *HTTP) tweets(ctx context.Context, name string) (*tweetDoc, error) {
	return h.docs.GetOrFetch(name, func() (*tweetDoc, error) {
		resp, err := h.client.GET(ctx, "/tweets?influencer="+url.QueryEscape(name))
		if api.IsStatus(err, http.StatusNotFound) {
			return nil, nil
		}
		if err != nil {
			return nil, errs.Upstream("textstore.tweets", err)
		}
		var doc tweetDoc
		if err := resp.ParseJSON(&doc); err != nil {
			return nil, errs.Upstream("textstore.tweets", err)
		}
		return &doc, nil
	})
}
