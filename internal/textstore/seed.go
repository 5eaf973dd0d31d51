package textstore

import (
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Seed is the on-disk description of tracked companies, used by Memory and by
// `insight seed` to populate a SQLite store.
//
//	companies:
//	  - ticker: AAPL
//	    influencers:
//	      - name: tim_cook
//	        authority_score: 0.95
//	        texts:
//	          - "Record quarter for services"
type Seed struct {
	Companies []SeedCompany `yaml:"companies"`
}

type SeedCompany struct {
	Ticker      string           `yaml:"ticker"`
	Influencers []SeedInfluencer `yaml:"influencers"`
}

// SeedInfluencer carries the influencer's texts. An influencer listed under
// several companies shares one text list; later entries append.
type SeedInfluencer struct {
	Name      string    `yaml:"name"`
	Authority *float64  `yaml:"authority_score"`
	Texts     []string  `yaml:"texts"`
	Feed      *SeedFeed `yaml:"feed,omitempty"`
}

// SeedFeed points at an HTML page listing the influencer's posts. Only the
// SCRAPE backend reads it.
type SeedFeed struct {
	URL   string `yaml:"url"`
	Item  string `yaml:"item"`  // CSS selector of one post, default "article"
	Text  string `yaml:"text"`  // selector of the post body inside Item, empty uses the whole item
	Limit int    `yaml:"limit"` // most recent posts kept, 0 keeps all
}

// ParseSeed decodes and validates a seed document
func ParseSeed(r io.Reader) (*Seed, error) {
	var s Seed
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil && err != io.EOF {
		return nil, fmt.Errorf("decode seed: %w", err)
	}
	for i, c := range s.Companies {
		if strings.TrimSpace(c.Ticker) == "" {
			return nil, fmt.Errorf("companies[%d]: ticker is required", i)
		}
		for j, inf := range c.Influencers {
			if strings.TrimSpace(inf.Name) == "" {
				return nil, fmt.Errorf("companies[%d].influencers[%d]: name is required", i, j)
			}
			if inf.Authority != nil && (*inf.Authority < 0 || *inf.Authority > 1) {
				return nil, fmt.Errorf("companies[%d].influencers[%d]: authority_score must be in [0,1], got %g", i, j, *inf.Authority)
			}
			if inf.Feed != nil && strings.TrimSpace(inf.Feed.URL) == "" {
				return nil, fmt.Errorf("companies[%d].influencers[%d]: feed.url is required", i, j)
			}
			if inf.Feed != nil && inf.Feed.Limit < 0 {
				return nil, fmt.Errorf("companies[%d].influencers[%d]: feed.limit cannot be negative", i, j)
			}
		}
	}
	return &s, nil
}

// LoadSeed reads a seed document from path
func LoadSeed(path string) (*Seed, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseSeed(f)
}

func normalizeTicker(t string) string {
	return strings.ToUpper(strings.TrimSpace(t))
}
