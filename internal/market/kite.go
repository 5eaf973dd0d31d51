package market

import (
	"context"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	kiteconnect "github.com/zerodha/gokiteconnect/v4"

	"stock-insight/internal/errs"
	"stock-insight/internal/interfaces"
	"stock-insight/internal/logger"
	"stock-insight/internal/types"
)

// kiteMaxDaysPerRequest is the historical API limit for the day interval
const kiteMaxDaysPerRequest = 2000

// kiteAPI is the subset of the Kite Connect client used for price history
type kiteAPI interface {
	GetInstrumentsByExchange(exchange string) (kiteconnect.Instruments, error)
	GetHistoricalData(instrumentToken int, interval string, fromDate time.Time, toDate time.Time, continuous bool, OI bool) ([]kiteconnect.HistoricalData, error)
	GetLTP(instruments ...string) (kiteconnect.QuoteLTP, error)
}

// Kite reads daily closes from Zerodha Kite Connect. Tickers may be bare
// trading symbols, EXCHANGE:SYMBOL, or carry a .NS / .BO suffix.
type Kite struct {
	api      kiteAPI
	exchange string
	mapper   *instrumentMapper
	loadMu   sync.Mutex
}

var _ interfaces.PriceHistoryProvider = (*Kite)(nil)

// KiteParams configures NewKite. Empty credentials fall back to KITE_API_KEY
// and KITE_ACCESS_TOKEN.
type KiteParams struct {
	APIKey      string
	AccessToken string
	Exchange    string
	BaseURI     string
}

func NewKite(p KiteParams) (*Kite, error) {
	if p.APIKey == "" {
		p.APIKey = os.Getenv("KITE_API_KEY")
	}
	if p.AccessToken == "" {
		p.AccessToken = os.Getenv("KITE_ACCESS_TOKEN")
	}
	if p.APIKey == "" || p.AccessToken == "" {
		return nil, fmt.Errorf("KITE_API_KEY and KITE_ACCESS_TOKEN are required for the KITE source")
	}

	kc := kiteconnect.New(p.APIKey)
	kc.SetAccessToken(p.AccessToken)
	if p.BaseURI != "" {
		kc.SetBaseURI(p.BaseURI)
	}
	return newKite(kc, p.Exchange), nil
}

func newKite(api kiteAPI, exchange string) *Kite {
	if exchange == "" {
		exchange = "NSE"
	}
	return &Kite{api: api, exchange: exchange, mapper: newInstrumentMapper()}
}

// token resolves ticker to an instrument token, loading the exchange dump on first use
func (k *Kite) token(ctx context.Context, ticker string) (int, error) {
	exchange, symbol := splitKiteSymbol(ticker, k.exchange)
	if t, ok := k.mapper.getToken(exchange, symbol); ok {
		return t, nil
	}

	k.loadMu.Lock()
	defer k.loadMu.Unlock()
	if !k.mapper.isLoaded(exchange) {
		instruments, err := k.api.GetInstrumentsByExchange(exchange)
		if err != nil {
			return 0, errs.Upstream("kite.instruments", err)
		}
		for _, inst := range instruments {
			k.mapper.addMapping(exchange, inst.Tradingsymbol, inst.InstrumentToken)
		}
		k.mapper.markLoaded(exchange)
		logger.Debug(ctx, "Kite instruments loaded", "exchange", exchange, "count", len(instruments))
	}

	if t, ok := k.mapper.getToken(exchange, symbol); ok {
		return t, nil
	}
	return 0, errs.NoData("kite.instruments", "unknown symbol %s:%s", exchange, symbol)
}

// GetHistory returns daily closes in [start, end], splitting long ranges into
// requests the historical API accepts
func (k *Kite) GetHistory(ctx context.Context, ticker string, start, end time.Time) ([]types.PricePoint, error) {
	token, err := k.token(ctx, ticker)
	if err != nil {
		return nil, err
	}

	byDay := make(map[time.Time]float64)
	for from := start; !from.After(end); from = from.AddDate(0, 0, kiteMaxDaysPerRequest) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		to := from.AddDate(0, 0, kiteMaxDaysPerRequest-1)
		if to.After(end) {
			to = end
		}
		candles, err := k.api.GetHistoricalData(token, "day", from, to, false, false)
		if err != nil {
			return nil, errs.Upstream("kite.historical", err)
		}
		for _, c := range candles {
			// candles are stamped at local exchange midnight
			d := c.Date.Time
			byDay[time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)] = c.Close
		}
	}
	if len(byDay) == 0 {
		return nil, errs.NoData("kite.historical", "no closes for %s between %s and %s",
			ticker, start.Format("2006-01-02"), end.Format("2006-01-02"))
	}

	points := make([]types.PricePoint, 0, len(byDay))
	for d, c := range byDay {
		points = append(points, types.PricePoint{Date: d, Close: c})
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Date.Before(points[j].Date) })
	return points, nil
}

// GetLatestClose returns the last traded price
func (k *Kite) GetLatestClose(ctx context.Context, ticker string) (float64, error) {
	exchange, symbol := splitKiteSymbol(ticker, k.exchange)
	key := instrumentKey(exchange, symbol)
	quotes, err := k.api.GetLTP(key)
	if err != nil {
		return 0, errs.Upstream("kite.ltp", err)
	}
	q, ok := quotes[key]
	if !ok {
		return 0, errs.NoData("kite.ltp", "no quote for %s", key)
	}
	return q.LastPrice, nil
}
