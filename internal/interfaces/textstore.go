package interfaces

import (
	"context"

	"stock-insight/internal/types"
)

// SentimentTextStore looks up the influencers tracked for a company and the texts they authored.
type SentimentTextStore interface {
	// GetInfluencers returns errs.ErrNotFound when the company is unknown.
	// A known company with nothing configured returns an empty slice and nil.
	GetInfluencers(ctx context.Context, ticker string) ([]types.Influencer, error)

	GetTexts(ctx context.Context, influencer string) ([]string, error)
}
