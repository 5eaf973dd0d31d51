package digest

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"stock-insight/internal/interfaces"
	"stock-insight/internal/journal"
	"stock-insight/internal/types"
)

// tickerRow aggregates one ticker's journaled signals for a day
type tickerRow struct {
	Ticker    string
	Runs      int
	Buy       int
	Hold      int
	Sell      int
	ScoreSum  float64
	Last      journal.Entry
	Fallbacks int
}

type summarizer struct {
	journal *journal.Journal
	loc     *time.Location
	now     func() time.Time
	// cutoff is the time of day after which the digest for that day is due
	cutoff time.Duration
}

var _ interfaces.DigestSummarizer = (*summarizer)(nil)

type Option func(*summarizer)

// WithCutoff sets the time of day after which ShouldRunNow reports true
func WithCutoff(hour, minute int) Option {
	return func(s *summarizer) {
		s.cutoff = time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute
	}
}

func WithLocation(loc *time.Location) Option {
	return func(s *summarizer) { s.loc = loc }
}

func WithClock(now func() time.Time) Option {
	return func(s *summarizer) { s.now = now }
}

// NewSummarizer reads the day files of j and writes CSV digests next to them
func NewSummarizer(j *journal.Journal, opts ...Option) interfaces.DigestSummarizer {
	s := &summarizer{
		journal: j,
		loc:     time.UTC,
		now:     time.Now,
		cutoff:  22 * time.Hour,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *summarizer) csvPath(t time.Time) string {
	return filepath.Join(s.journal.Dir(), "digest", t.In(s.loc).Format("2006-01-02")+".csv")
}

// SummarizeDay writes the digest for the day containing t. It returns an
// empty path and no error when nothing was journaled that day.
func (s *summarizer) SummarizeDay(t time.Time) (string, error) {
	f, err := os.Open(s.journal.DayFile(t))
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	defer f.Close()

	rows := map[string]*tickerRow{}
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		var e journal.Entry
		if err := json.Unmarshal(sc.Bytes(), &e); err != nil || e.Ticker == "" {
			continue
		}
		row := rows[e.Ticker]
		if row == nil {
			row = &tickerRow{Ticker: e.Ticker}
			rows[e.Ticker] = row
		}
		row.Runs++
		row.ScoreSum += e.FinalScore
		switch types.Recommendation(e.Recommendation) {
		case types.Buy:
			row.Buy++
		case types.Sell:
			row.Sell++
		default:
			row.Hold++
		}
		if e.SentimentFallback != "" {
			row.Fallbacks++
		}
		row.Last = e
	}
	if err := sc.Err(); err != nil {
		return "", err
	}
	if len(rows) == 0 {
		return "", nil
	}

	keys := make([]string, 0, len(rows))
	for k := range rows {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	outPath := s.csvPath(t)
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return "", err
	}
	out, err := os.Create(outPath)
	if err != nil {
		return "", err
	}
	defer out.Close()

	w := csv.NewWriter(out)
	headers := []string{"ticker", "runs", "buy", "hold", "sell", "avg_final_score",
		"last_recommendation", "last_risk", "last_price", "predicted_price", "pct_change", "sentiment_fallbacks"}
	if err := w.Write(headers); err != nil {
		return "", err
	}
	var runs, buy, hold, sell int
	for _, k := range keys {
		r := rows[k]
		rec := []string{
			r.Ticker,
			strconv.Itoa(r.Runs),
			strconv.Itoa(r.Buy),
			strconv.Itoa(r.Hold),
			strconv.Itoa(r.Sell),
			fmt.Sprintf("%.4f", r.ScoreSum/float64(r.Runs)),
			r.Last.Recommendation,
			r.Last.Risk,
			fmt.Sprintf("%.2f", r.Last.LastPrice),
			fmt.Sprintf("%.2f", r.Last.PredictedPrice),
			fmt.Sprintf("%.3f", r.Last.PctChange),
			strconv.Itoa(r.Fallbacks),
		}
		if err := w.Write(rec); err != nil {
			return "", err
		}
		runs += r.Runs
		buy += r.Buy
		hold += r.Hold
		sell += r.Sell
	}
	_ = w.Write([]string{"TOTAL", strconv.Itoa(runs), strconv.Itoa(buy), strconv.Itoa(hold), strconv.Itoa(sell), "", "", "", "", "", "", ""})
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}
	return outPath, nil
}

func (s *summarizer) SummarizeToday() (string, error) { return s.SummarizeDay(s.now()) }

// ShouldRunNow is true once today's cutoff has passed and no digest exists yet
func (s *summarizer) ShouldRunNow() (bool, string) {
	now := s.now().In(s.loc)
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.loc)
	outPath := s.csvPath(now)
	if now.Before(midnight.Add(s.cutoff)) {
		return false, outPath
	}
	if _, err := os.Stat(outPath); errors.Is(err, os.ErrNotExist) {
		return true, outPath
	}
	return false, outPath
}
