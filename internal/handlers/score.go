package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/clipscout/clipscout/internal/analysis"
)

// ScoreHandler exposes the deterministic heuristic score. No network
// calls, no quota usage; useful for previews and for sanity-checking the
// AI-ranked clips.
type ScoreHandler struct{}

// NewScoreHandler creates a score handler.
func NewScoreHandler() *ScoreHandler {
	return &ScoreHandler{}
}

type scoreRequest struct {
	Transcript string  `json:"transcript"`
	Duration   float64 `json:"duration"`
}

// Handle scores a transcript snippet.
func (h *ScoreHandler) Handle(c *fiber.Ctx) error {
	var req scoreRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{
			"error": "Invalid request body",
			"code":  "ERR_BAD_REQUEST",
		})
	}
	if strings.TrimSpace(req.Transcript) == "" {
		return c.Status(400).JSON(fiber.Map{
			"error": "transcript is required",
			"code":  "ERR_EMPTY_TRANSCRIPT",
		})
	}
	if req.Duration < 0 {
		return c.Status(400).JSON(fiber.Map{
			"error": "duration must be non-negative",
			"code":  "ERR_INVALID_DURATION",
		})
	}

	return c.JSON(fiber.Map{
		"score": analysis.CalculateViralScore(req.Transcript, req.Duration),
	})
}
