package theme

import (
	"fmt"
	"strings"

	"pocket/internal/game"
)

type DefaultTheme struct {
}

var qualityLabels = map[game.Quality]string{
	game.Perfect: "\033[1;32mPerfect\033[0m",
	game.Good:    "\033[1;36mGood\033[0m",
	game.Okay:    "\033[1;33mOkay\033[0m",
	game.Early:   "\033[38;5;208mEarly\033[0m",
	game.Late:    "\033[38;5;208mLate\033[0m",
	game.Miss:    "\033[1;31mMiss\033[0m",
}

func (t *DefaultTheme) RenderQuality(q game.Quality) string {
	label, ok := qualityLabels[q]
	if !ok {
		return q.String()
	}
	return label
}

func (t *DefaultTheme) RenderBeatMarker(accent bool) string {
	if accent {
		return "\033[1;35m◆\033[0m"
	}
	return "\033[1;34m◇\033[0m"
}

func (t *DefaultTheme) RenderNoteMarker(state game.NoteState) string {
	switch state {
	case game.StateHit:
		return "\033[1;32m⬤\033[0m"
	case game.StateMissed:
		return "\033[1;31m⨯\033[0m"
	}
	return "⬤"
}

func (t *DefaultTheme) RenderMeter(level float64, width int) string {
	if width < 1 {
		return ""
	}
	filled := int(level / 100 * float64(width))
	if filled > width {
		filled = width
	}
	color := "\033[1;32m"
	if level > 80 {
		color = "\033[1;31m"
	} else if level > 50 {
		color = "\033[1;33m"
	}
	return fmt.Sprintf("%s%s\033[0m%s",
		color,
		strings.Repeat("█", filled),
		strings.Repeat("░", width-filled))
}
