package textstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"

	"stock-insight/internal/errs"
	"stock-insight/internal/interfaces"
	"stock-insight/internal/logger"
	"stock-insight/internal/types"
)

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Scrape serves companies and influencers from a seed and extends each
// influencer's texts with posts scraped from their feed page
type Scrape struct {
	base      *Memory
	feeds     map[string]SeedFeed
	timeout   time.Duration
	userAgent string
	posts     *Cache[[]string]
}

var _ interfaces.SentimentTextStore = (*Scrape)(nil)

type ScrapeOption func(*Scrape)

func WithScrapeTimeout(d time.Duration) ScrapeOption {
	return func(s *Scrape) { s.timeout = d }
}

func WithUserAgent(ua string) ScrapeOption {
	return func(s *Scrape) {
		if ua != "" {
			s.userAgent = ua
		}
	}
}

// NewScrape builds the store from seed. Scraped posts are kept for ttl.
func NewScrape(seed *Seed, ttl time.Duration, opts ...ScrapeOption) *Scrape {
	s := &Scrape{
		base:      NewMemoryFromSeed(seed),
		feeds:     make(map[string]SeedFeed),
		timeout:   30 * time.Second,
		userAgent: defaultUserAgent,
		posts:     NewCache[[]string](ttl),
	}
	for _, c := range seed.Companies {
		for _, inf := range c.Influencers {
			if inf.Feed != nil {
				s.feeds[inf.Name] = *inf.Feed
			}
		}
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Scrape) GetInfluencers(ctx context.Context, ticker string) ([]types.Influencer, error) {
	return s.base.GetInfluencers(ctx, ticker)
}

// GetTexts returns the seeded texts followed by the scraped posts
func (s *Scrape) GetTexts(ctx context.Context, influencer string) ([]string, error) {
	texts, err := s.base.GetTexts(ctx, influencer)
	if err != nil {
		return nil, err
	}
	feed, ok := s.feeds[influencer]
	if !ok {
		return texts, nil
	}

	posts, err := s.posts.GetOrFetch(influencer, func() ([]string, error) {
		return s.scrapeFeed(ctx, feed)
	})
	if err != nil {
		return nil, errs.Upstream("textstore.scrape", fmt.Errorf("%s: %w", influencer, err))
	}
	out := make([]string, 0, len(texts)+len(posts))
	out = append(out, texts...)
	return append(out, posts...), nil
}

// scrapeFeed visits feed.URL once and extracts the text of every post
func (s *Scrape) scrapeFeed(ctx context.Context, feed SeedFeed) ([]string, error) {
	item := feed.Item
	if item == "" {
		item = "article"
	}

	c := colly.NewCollector(
		colly.MaxDepth(1),
		colly.StdlibContext(ctx),
		colly.UserAgent(s.userAgent),
	)
	c.SetRequestTimeout(s.timeout)

	var posts []string
	c.OnHTML(item, func(e *colly.HTMLElement) {
		if feed.Limit > 0 && len(posts) >= feed.Limit {
			return
		}
		sel := e.DOM
		if feed.Text != "" {
			sel = e.DOM.Find(feed.Text)
		}
		if text := collapse(sel); text != "" {
			posts = append(posts, text)
		}
	})

	var visitErr error
	c.OnError(func(r *colly.Response, err error) {
		visitErr = fmt.Errorf("status %d: %w", r.StatusCode, err)
	})

	if err := c.Visit(feed.URL); err != nil && visitErr == nil {
		visitErr = err
	}
	c.Wait()
	if visitErr != nil {
		return nil, visitErr
	}

	logger.Debug(ctx, "Feed scraped", "url", feed.URL, "posts", len(posts))
	return posts, nil
}

// collapse joins the text of every node in sel with single spaces
func collapse(sel *goquery.Selection) string {
	var parts []string
	sel.Each(func(_ int, n *goquery.Selection) {
		if t := strings.Join(strings.Fields(n.Text()), " "); t != "" {
			parts = append(parts, t)
		}
	})
	return strings.Join(parts, " ")
}
