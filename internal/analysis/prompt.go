package analysis

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"stock-insight/internal/types"
)

// ExplanationErrorPrefix starts the explanation when narration fails
const ExplanationErrorPrefix = "Error generating explanation: "

// RecentHistory returns the last n points that carry an actual close
func RecentHistory(series []types.ForecastPoint, n int) []types.ForecastPoint {
	end := len(series)
	for end > 0 && !series[end-1].HasActual() {
		end--
	}
	start := max(0, end-n)
	out := make([]types.ForecastPoint, end-start)
	copy(out, series[start:end])
	return out
}

// BuildPrompt renders the narration request for r using the supplied history points
func BuildPrompt(r *types.AnalysisResult, history []types.ForecastPoint) (string, error) {
	historyJSON, err := json.MarshalIndent(history, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal history: %w", err)
	}

	var b strings.Builder
	b.WriteString("You are a financial assistant for retail investors.\n\n")
	fmt.Fprintf(&b, "Company/Ticker: %s\n", r.Ticker)
	fmt.Fprintf(&b, "Last Price: %s\n", num(r.LastPrice))
	fmt.Fprintf(&b, "Predicted Price (%d days): %s\n", r.HorizonDays, num(r.PredictedPrice))
	fmt.Fprintf(&b, "%% Change (forecast): %.3f%%\n", r.PctChange)
	fmt.Fprintf(&b, "Stock Model Score (0-1): %s\n", num(r.StockScore))
	fmt.Fprintf(&b, "Tweet Sentiment Score (0-1): %s\n", num(r.TweetScore))
	fmt.Fprintf(&b, "Combined Score (0-1): %s\n", num(r.FinalScore))
	fmt.Fprintf(&b, "Recommendation: %s\n", r.Recommendation)
	fmt.Fprintf(&b, "Risk Level: %s\n\n", r.Risk)
	fmt.Fprintf(&b, "Historical closing prices (last %d days):\n", len(history))
	b.Write(historyJSON)
	b.WriteString("\n\n")
	b.WriteString("Explain this to the user in **simple words** in under 100 words. Highlight:\n")
	b.WriteString("- Expected market direction (bullish / bearish / neutral)\n")
	b.WriteString("- How sentiment and forecast interact\n")
	b.WriteString("- Caution or optimistic signals\n")
	return b.String(), nil
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
