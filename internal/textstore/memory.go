package textstore

import (
	"context"
	"sync"

	"stock-insight/internal/errs"
	"stock-insight/internal/interfaces"
	"stock-insight/internal/types"
)

// Memory is an in-process text store
type Memory struct {
	mu          sync.RWMutex
	influencers map[string][]types.Influencer // by ticker
	texts       map[string][]string           // by influencer name
}

var _ interfaces.SentimentTextStore = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{
		influencers: make(map[string][]types.Influencer),
		texts:       make(map[string][]string),
	}
}

// NewMemoryFromSeed builds a store holding every company in s
func NewMemoryFromSeed(s *Seed) *Memory {
	m := NewMemory()
	for _, c := range s.Companies {
		m.AddCompany(c.Ticker)
		for _, inf := range c.Influencers {
			m.AddInfluencer(c.Ticker, types.Influencer{Name: inf.Name, Authority: inf.Authority})
			m.AddTexts(inf.Name, inf.Texts...)
		}
	}
	return m
}

// AddCompany registers ticker with no influencers, if it is not known yet
func (m *Memory) AddCompany(ticker string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := normalizeTicker(ticker)
	if _, ok := m.influencers[key]; !ok {
		m.influencers[key] = []types.Influencer{}
	}
}

// AddInfluencer registers the company if needed and attaches inf to it
func (m *Memory) AddInfluencer(ticker string, inf types.Influencer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := normalizeTicker(ticker)
	m.influencers[key] = append(m.influencers[key], inf)
}

func (m *Memory) AddTexts(influencer string, texts ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.texts[influencer] = append(m.texts[influencer], texts...)
}

// HasCompany reports whether ticker is known
func (m *Memory) HasCompany(ctx context.Context, ticker string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.influencers[normalizeTicker(ticker)]
	return ok, nil
}

func (m *Memory) GetInfluencers(ctx context.Context, ticker string) ([]types.Influencer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	infs, ok := m.influencers[normalizeTicker(ticker)]
	if !ok {
		return nil, errs.ErrNotFound
	}
	out := make([]types.Influencer, len(infs))
	copy(out, infs)
	return out, nil
}

func (m *Memory) GetTexts(ctx context.Context, influencer string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	texts := m.texts[influencer]
	out := make([]string, len(texts))
	copy(out, texts)
	return out, nil
}
