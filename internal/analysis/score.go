package analysis

import "strings"

// Keyword lexicons for the deterministic score. Each distinct hit counts
// once, substring matched, case-insensitive.
var (
	emotionalWords = []string{
		"amazing", "incredible", "shocking", "unbelievable",
		"secret", "revealed", "breakthrough", "transformation",
	}
	actionWords = []string{
		"learn", "discover", "find out", "watch",
		"see", "try", "do this", "follow",
	}
)

// CalculateViralScore is a deterministic, network-free estimate of clip
// potential. It backs the AI scoring as a fallback and a validator, so its
// arithmetic must stay stable: base 0.5, a duration-band bonus, capped
// bonuses for emotional keywords, questions, exclamations and action
// phrases, clamped to [0,1].
func CalculateViralScore(transcript string, duration float64) float64 {
	score := 0.5

	switch {
	case duration >= 30 && duration <= 60:
		score += 0.2
	case duration >= 15 && duration <= 90:
		score += 0.1
	}

	text := strings.ToLower(transcript)

	emotionalCount := 0
	for _, word := range emotionalWords {
		if strings.Contains(text, word) {
			emotionalCount++
		}
	}
	score += capped(float64(emotionalCount)*0.05, 0.2)

	score += capped(float64(strings.Count(text, "?"))*0.02, 0.1)
	score += capped(float64(strings.Count(text, "!"))*0.02, 0.1)

	actionCount := 0
	for _, word := range actionWords {
		if strings.Contains(text, word) {
			actionCount++
		}
	}
	score += capped(float64(actionCount)*0.02, 0.1)

	return clamp(score, 0, 1)
}

func capped(v, max float64) float64 {
	if v > max {
		return max
	}
	return v
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
