package runengine

import (
	"math/rand/v2"
	"regexp"
	"testing"
	"time"
)

var batchCodePattern = regexp.MustCompile(`^[A-Z]{1,4}-\d{3}[A-Z]$`)

func TestGenerateBatchCode(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))

	tests := []struct {
		name       string
		wantPrefix string
	}{
		{"Oat Milk Barista Blend", "OAT"},
		{"Chocolate Protein Bar", "CHOC"},
		{"x", "X"},
		{"", "RUN"},
		{"   ", "RUN"},
		{"123 Blend", "RUN"},
		{"pH-Stable Emulsion", "PHST"},
		{"Crème brûlée", "CRME"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for i := 0; i < 50; i++ {
				code := GenerateBatchCode(tt.name, rng)
				if !batchCodePattern.MatchString(code) {
					t.Fatalf("code %q does not match batch format", code)
				}
				if got := code[:len(tt.wantPrefix)+1]; got != tt.wantPrefix+"-" {
					t.Fatalf("code %q: expected prefix %q", code, tt.wantPrefix)
				}
			}
		})
	}
}

func TestFormatDuration(t *testing.T) {
	start := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		end  time.Time
		want string
	}{
		{start.Add(14*time.Minute + 30*time.Second), "14m 30s"},
		{start, "0m 0s"},
		{start.Add(59*time.Second + 900*time.Millisecond), "0m 59s"},
		{start.Add(2*time.Hour + 5*time.Second), "120m 5s"},
		{start.Add(-time.Second), "0m 0s"},
	}

	for _, tt := range tests {
		if got := FormatDuration(tt.end.Sub(start)); got != tt.want {
			t.Errorf("FormatDuration(%s) = %q, want %q", tt.end.Sub(start), got, tt.want)
		}
	}
}
