package view

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/term"

	"pocket/internal/game"
	"pocket/internal/session"
	"pocket/internal/theme"
)

const framePeriod = 33 * time.Millisecond

// Terminal renders session state into the alternate screen buffer. It
// only consumes session events; the scoring core never knows it exists.
type Terminal struct {
	theme theme.Theme

	buffer       strings.Builder
	restoreState *term.State
	rows         int
	cols         int

	phase      session.Phase
	modeName   string
	tempo      int
	totalNotes int
	resolved   int
	score      int
	streak     int
	bestStreak int
	multiplier float64
	lastNote   *game.Note
	beatFlash  time.Time
	beatAccent bool
	volume     float64
}

func New(th theme.Theme, modeName string, tempo, totalNotes int) *Terminal {
	return &Terminal{
		theme:      th,
		modeName:   modeName,
		tempo:      tempo,
		totalNotes: totalNotes,
		multiplier: 1.0,
	}
}

func (t *Terminal) Init() error {
	cols, rows, err := term.GetSize(int(os.Stdout.Fd()))
	if nil != err {
		return fmt.Errorf("unable to get terminal size: %w", err)
	}
	t.cols, t.rows = cols, rows

	state, err := term.MakeRaw(int(os.Stdout.Fd()))
	if nil != err {
		return err
	}
	t.restoreState = state

	fmt.Printf("%s%s%s",
		"\033[?1049h", // Enable alternate buffer
		"\033[?25l",   // Make the cursor invisible
		"\033[J",      // Clear the screen
	)
	return nil
}

func (t *Terminal) Deinit() error {
	fmt.Printf("%s%s",
		"\033[?1049l", // Disable alternate buffer
		"\033[?25h",   // Make the cursor visible
	)
	if nil == t.restoreState {
		return nil
	}
	return term.Restore(int(os.Stdout.Fd()), t.restoreState)
}

// Run consumes events and volume samples until the event channel
// closes, rendering at a fixed frame cadence.
func (t *Terminal) Run(events <-chan session.Event, volumes <-chan float64) {
	frames := time.NewTicker(framePeriod)
	defer frames.Stop()

	for {
		select {
		case e, ok := <-events:
			if !ok {
				return
			}
			t.apply(e)
		case v, ok := <-volumes:
			if !ok {
				// detector disconnected; a nil channel blocks so this
				// arm never spins on the closed channel
				volumes = nil
				continue
			}
			t.volume = v
		case <-frames.C:
			t.render()
		}
	}
}

func (t *Terminal) apply(e session.Event) {
	switch e.Kind {
	case session.EventPhase:
		t.phase = e.Phase
	case session.EventBeat:
		t.beatFlash = time.Now()
		t.beatAccent = e.Beat.Accent
	case session.EventNote:
		note := e.Note
		t.lastNote = &note
		t.resolved++
	case session.EventScore:
		t.score = e.Score
		t.streak = e.Streak
		t.bestStreak = e.BestStreak
		t.multiplier = e.Multiplier
	}
}

func (t *Terminal) render() {
	col := t.cols/2 - 18
	if col < 2 {
		col = 2
	}
	row := t.rows/2 - 5
	if row < 2 {
		row = 2
	}

	t.fill(row, col, fmt.Sprintf("%v  \033[1m%v bpm\033[0m   ", t.modeName, t.tempo))

	switch t.phase {
	case session.Countdown:
		t.fill(row+2, col, "\033[1;33mGet ready...\033[0m        ")
	case session.Playing:
		t.fill(row+2, col, strings.Repeat(" ", 20))
	case session.Complete:
		t.fill(row+2, col, "\033[1;32mComplete\033[0m            ")
	}

	beat := " "
	if time.Since(t.beatFlash) < 120*time.Millisecond {
		beat = t.theme.RenderBeatMarker(t.beatAccent)
	}
	t.fill(row+3, col, beat)

	t.fill(row+5, col, fmt.Sprintf("Score   %8v  x%.1f ", t.score, t.multiplier))
	t.fill(row+6, col, fmt.Sprintf("Streak  %8v  best %v ", t.streak, t.bestStreak))
	t.fill(row+7, col, fmt.Sprintf("Notes   %8v/%v ", t.resolved, t.totalNotes))

	if nil != t.lastNote {
		t.fill(row+8, col, fmt.Sprintf("%s %s          ",
			t.theme.RenderNoteMarker(t.lastNote.State),
			t.theme.RenderQuality(t.lastNote.Quality)))
	}

	t.fill(row+10, col, t.theme.RenderMeter(t.volume, 24))
	t.flush()
}

func (t *Terminal) fill(row, column int, message string) {
	t.buffer.WriteString("\033[")
	t.buffer.WriteString(strconv.Itoa(row))
	t.buffer.WriteString(";")
	t.buffer.WriteString(strconv.Itoa(column))
	t.buffer.WriteString("H")
	t.buffer.WriteString(message)
}

func (t *Terminal) flush() {
	os.Stdout.WriteString(t.buffer.String())
	t.buffer.Reset()
}
