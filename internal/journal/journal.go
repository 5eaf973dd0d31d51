package journal

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"stock-insight/internal/types"
)

const fileExt = ".jsonl"

// Entry is one journaled analysis. The forecast series is left out.
type Entry struct {
	Time              string  `json:"time"`
	AnalysisID        string  `json:"analysis_id,omitempty"`
	Ticker            string  `json:"ticker"`
	HorizonDays       int     `json:"horizon_days"`
	LastPrice         float64 `json:"last_price"`
	PredictedPrice    float64 `json:"predicted_price"`
	PctChange         float64 `json:"pct_change"`
	StockScore        float64 `json:"stock_score"`
	TweetScore        float64 `json:"tweet_score"`
	FinalScore        float64 `json:"final_score"`
	Recommendation    string  `json:"recommendation"`
	Risk              string  `json:"risk"`
	SentimentFallback string  `json:"sentiment_fallback,omitempty"`
	Explanation       string  `json:"explanation,omitempty"`
}

// Journal appends analysis results to one JSON-lines file per day
type Journal struct {
	mu  sync.Mutex
	dir string
	loc *time.Location
	now func() time.Time
}

type Option func(*Journal)

// WithLocation sets the zone that decides which day a result belongs to
func WithLocation(loc *time.Location) Option {
	return func(j *Journal) { j.loc = loc }
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(j *Journal) { j.now = now }
}

func New(dir string, opts ...Option) *Journal {
	j := &Journal{dir: dir, loc: time.UTC, now: time.Now}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

func (j *Journal) Dir() string { return j.dir }

// DayFile returns the journal path for the day containing t
func (j *Journal) DayFile(t time.Time) string {
	return filepath.Join(j.dir, t.In(j.loc).Format("2006-01-02")+fileExt)
}

// Append writes r as a single line to today's file
func (j *Journal) Append(r *types.AnalysisResult) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	now := j.now().In(j.loc)
	e := Entry{
		Time:              now.Format(time.RFC3339),
		AnalysisID:        r.AnalysisID,
		Ticker:            r.Ticker,
		HorizonDays:       r.HorizonDays,
		LastPrice:         r.LastPrice,
		PredictedPrice:    r.PredictedPrice,
		PctChange:         r.PctChange,
		StockScore:        r.StockScore,
		TweetScore:        r.TweetScore,
		FinalScore:        r.FinalScore,
		Recommendation:    string(r.Recommendation),
		Risk:              string(r.Risk),
		SentimentFallback: r.SentimentFallback,
		Explanation:       r.Explanation,
	}

	p := j.DayFile(now)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(p, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	b, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal journal entry: %w", err)
	}
	_, err = fmt.Fprintln(f, string(b))
	return err
}

// CompressOlder gzips day files last modified more than retentionDays ago.
// It returns how many files were compressed. Zero retention disables it.
func (j *Journal) CompressOlder(retentionDays int) (int, error) {
	if retentionDays <= 0 {
		return 0, nil
	}
	cutoff := j.now().AddDate(0, 0, -retentionDays)

	var paths []string
	err := filepath.WalkDir(j.dir, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return filepath.SkipDir
			}
			return err
		}
		if d.IsDir() || filepath.Ext(p) != fileExt {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		if info.ModTime().Before(cutoff) {
			paths = append(paths, p)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	n := 0
	for _, p := range paths {
		if err := gzipFile(p); err != nil {
			return n, fmt.Errorf("compress %s: %w", p, err)
		}
		n++
	}
	return n, nil
}

// gzipFile replaces p with p.gz. An existing archive wins over the original.
func gzipFile(p string) error {
	gz := p + ".gz"
	if _, err := os.Stat(gz); err == nil {
		return os.Remove(p)
	}

	in, err := os.Open(p)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(gz, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	gw := gzip.NewWriter(out)
	if _, err := io.Copy(gw, in); err != nil {
		_ = gw.Close()
		_ = out.Close()
		_ = os.Remove(gz)
		return err
	}
	if err := gw.Close(); err != nil {
		_ = out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Remove(p)
}
