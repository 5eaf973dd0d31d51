package textstore

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stock-insight/internal/errs"
)

const feedHTML = `<html><body>
<article class="post"><p class="body">Beat and   raise,
  strong guidance</p><span class="meta">2h</span></article>
<article class="post"><p class="body">Margins under pressure</p></article>
<article class="post"><p class="body">  </p></article>
<article class="post"><p class="body">Old news</p></article>
</body></html>`

func feedSeed(url string, limit int) *Seed {
	return &Seed{Companies: []SeedCompany{{
		Ticker: "AAPL",
		Influencers: []SeedInfluencer{
			{Name: "analyst_a", Texts: []string{"Seeded view"}, Feed: &SeedFeed{URL: url, Item: "article.post", Text: "p.body", Limit: limit}},
			{Name: "blogger_b", Texts: []string{"No feed here"}},
		},
	}}}
}

func TestScrapeStore(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(feedHTML))
	}))
	t.Cleanup(srv.Close)

	ctx := context.Background()
	s := NewScrape(feedSeed(srv.URL+"/feed", 3), time.Hour, WithScrapeTimeout(5*time.Second))

	infs, err := s.GetInfluencers(ctx, "aapl")
	require.NoError(t, err)
	require.Len(t, infs, 2)

	texts, err := s.GetTexts(ctx, "analyst_a")
	require.NoError(t, err)
	assert.Equal(t, []string{"Seeded view", "Beat and raise, strong guidance", "Margins under pressure", "Old news"}, texts)

	_, err = s.GetTexts(ctx, "analyst_a")
	require.NoError(t, err)
	assert.Equal(t, int32(1), hits.Load(), "posts are cached")

	plain, err := s.GetTexts(ctx, "blogger_b")
	require.NoError(t, err)
	assert.Equal(t, []string{"No feed here"}, plain)

	_, err = s.GetInfluencers(ctx, "MSFT")
	assert.True(t, errors.Is(err, errs.ErrNotFound))
}

func TestScrapeStoreLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(feedHTML))
	}))
	t.Cleanup(srv.Close)

	s := NewScrape(feedSeed(srv.URL, 1), time.Hour)
	texts, err := s.GetTexts(context.Background(), "analyst_a")
	require.NoError(t, err)
	assert.Equal(t, []string{"Seeded view", "Beat and raise, strong guidance"}, texts)
}

func TestScrapeStoreUpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)

	s := NewScrape(feedSeed(srv.URL, 0), time.Hour)
	_, err := s.GetTexts(context.Background(), "analyst_a")
	assert.True(t, errors.Is(err, errs.ErrUpstream))
}
