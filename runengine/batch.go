package runengine

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"time"
)

const (
	batchPrefixLen      = 4
	fallbackBatchPrefix = "RUN"
)

// GenerateBatchCode builds a human readable batch label such as "OAT-417K".
// The prefix is the first word of the project name, upper-cased and reduced
// to at most four letters. Codes are not unique; runs are keyed by id.
func GenerateBatchCode(projectName string, rng *rand.Rand) string {
	digits := 100 + rng.IntN(900)
	letter := rune('A' + rng.IntN(26))
	return fmt.Sprintf("%s-%d%c", batchPrefix(projectName), digits, letter)
}

func batchPrefix(projectName string) string {
	words := strings.Fields(projectName)
	if len(words) == 0 {
		return fallbackBatchPrefix
	}

	var b strings.Builder
	for _, r := range strings.ToUpper(words[0]) {
		if r < 'A' || r > 'Z' {
			continue
		}
		b.WriteRune(r)
		if b.Len() == batchPrefixLen {
			break
		}
	}
	if b.Len() == 0 {
		return fallbackBatchPrefix
	}
	return b.String()
}

// FormatDuration renders whole minutes and seconds, e.g. "14m 30s"
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	minutes := int(d / time.Minute)
	seconds := int((d % time.Minute) / time.Second)
	return fmt.Sprintf("%dm %ds", minutes, seconds)
}
