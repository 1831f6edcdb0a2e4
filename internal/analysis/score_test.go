package analysis

import (
	"math"
	"strings"
	"testing"
)

func TestViralScoreWorkedExample(t *testing.T) {
	// 2 emotional keywords, 3 questions, 1 exclamation, 0 action words,
	// optimal duration: 0.5 + 0.2 + 0.10 + 0.06 + 0.02 = 0.88.
	transcript := "This amazing secret will change you? Really? Are you sure? Yes!"
	got := CalculateViralScore(transcript, 45)
	if math.Abs(got-0.88) > 1e-9 {
		t.Fatalf("expected 0.88, got %v", got)
	}
}

func TestViralScoreDurationBands(t *testing.T) {
	cases := []struct {
		duration float64
		want     float64
	}{
		{45, 0.7}, // optimal band
		{30, 0.7}, // band edges inclusive
		{60, 0.7},
		{20, 0.6}, // acceptable band
		{90, 0.6},
		{10, 0.5}, // outside both
		{120, 0.5},
	}
	for _, tc := range cases {
		got := CalculateViralScore("neutral words only", tc.duration)
		if math.Abs(got-tc.want) > 1e-9 {
			t.Fatalf("duration %v: expected %v, got %v", tc.duration, tc.want, got)
		}
	}
}

func TestViralScoreCapsEachBonus(t *testing.T) {
	// All 8 emotional words (cap 0.2 at 4), 20 questions (cap 0.1 at 5),
	// 20 exclamations, all 8 action phrases (cap 0.1 at 5), optimal
	// duration. 0.5+0.2+0.2+0.1+0.1+0.1 = 1.2, clamped to 1.
	transcript := strings.Join(emotionalWords, " ") + " " +
		strings.Join(actionWords, " ") + " " +
		strings.Repeat("?", 20) + strings.Repeat("!", 20)
	got := CalculateViralScore(transcript, 45)
	if got != 1.0 {
		t.Fatalf("expected clamp to 1.0, got %v", got)
	}
}

func TestViralScoreNeverLeavesUnitInterval(t *testing.T) {
	transcripts := []string{
		"",
		"plain speech with nothing special",
		strings.Repeat("amazing! incredible? ", 500),
		strings.Repeat("?", 1000),
	}
	durations := []float64{0, 1, 15, 29.9, 45, 90, 91, 100000}

	for _, tr := range transcripts {
		for _, d := range durations {
			got := CalculateViralScore(tr, d)
			if got < 0 || got > 1 {
				t.Fatalf("score %v outside [0,1] for duration %v", got, d)
			}
		}
	}
}

func TestViralScoreCaseInsensitive(t *testing.T) {
	lower := CalculateViralScore("this is amazing", 45)
	upper := CalculateViralScore("THIS IS AMAZING", 45)
	if lower != upper {
		t.Fatalf("case sensitivity detected: %v vs %v", lower, upper)
	}
	if math.Abs(lower-0.75) > 1e-9 {
		t.Fatalf("expected 0.75, got %v", lower)
	}
}
