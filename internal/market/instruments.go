package market

import (
	"strings"
	"sync"
)

// instrumentMapper maps exchange-qualified trading symbols to Kite instrument
// tokens. Each exchange's dump is loaded at most once.
type instrumentMapper struct {
	mu     sync.RWMutex
	tokens map[string]int // "NSE:RELIANCE" -> token
	loaded map[string]bool
}

func newInstrumentMapper() *instrumentMapper {
	return &instrumentMapper{
		tokens: make(map[string]int),
		loaded: make(map[string]bool),
	}
}

func instrumentKey(exchange, symbol string) string {
	return exchange + ":" + symbol
}

func (im *instrumentMapper) addMapping(exchange, symbol string, token int) {
	im.mu.Lock()
	defer im.mu.Unlock()
	im.tokens[instrumentKey(exchange, symbol)] = token
}

func (im *instrumentMapper) markLoaded(exchange string) {
	im.mu.Lock()
	defer im.mu.Unlock()
	im.loaded[exchange] = true
}

func (im *instrumentMapper) isLoaded(exchange string) bool {
	im.mu.RLock()
	defer im.mu.RUnlock()
	return im.loaded[exchange]
}

func (im *instrumentMapper) getToken(exchange, symbol string) (int, bool) {
	im.mu.RLock()
	defer im.mu.RUnlock()
	token, ok := im.tokens[instrumentKey(exchange, symbol)]
	return token, ok
}

// splitKiteSymbol turns a Yahoo-style ticker into an exchange and trading
// symbol: RELIANCE.NS is NSE:RELIANCE, TCS.BO is BSE:TCS, a bare symbol uses fallback.
func splitKiteSymbol(ticker, fallback string) (exchange, symbol string) {
	t := strings.ToUpper(strings.TrimSpace(ticker))
	switch {
	case strings.HasSuffix(t, ".NS"):
		return "NSE", strings.TrimSuffix(t, ".NS")
	case strings.HasSuffix(t, ".BO"):
		return "BSE", strings.TrimSuffix(t, ".BO")
	}
	if ex, sym, ok := strings.Cut(t, ":"); ok {
		return ex, sym
	}
	return fallback, t
}
