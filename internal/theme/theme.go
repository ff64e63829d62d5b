package theme

import (
	"pocket/internal/game"
)

type Theme interface {
	RenderQuality(q game.Quality) string
	RenderBeatMarker(accent bool) string
	RenderNoteMarker(state game.NoteState) string
	RenderMeter(level float64, width int) string
}
