package interfaces

import "time"

// DigestSummarizer condenses a day of journaled signals into a per-ticker CSV
type DigestSummarizer interface {
	SummarizeDay(t time.Time) (csvPath string, err error)
	SummarizeToday() (csvPath string, err error)
	ShouldRunNow() (shouldRun bool, csvPath string)
}
