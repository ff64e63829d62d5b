package exercise

import (
	"math/rand"
)

// Mode is one of the practice game modes.
type Mode struct {
	Key         string
	Name        string
	Description string
}

var Modes = []Mode{
	{"groove", "Groove Lock", "Play steady quarter notes to lock into the groove. Focus on feel."},
	{"precision", "Precision Strike", "Hit notes at exact beats. Timing windows get tighter as you level up."},
	{"subdivisions", "Subdivision Master", "Practice eighth notes, triplets, and sixteenths. Build your subdivision skills."},
	{"endurance", "Endurance Run", "Keep the groove going as long as possible. Tempo gradually increases."},
	{"syncopation", "Syncopation Challenge", "Hit off-beat accents and syncopated patterns. Test your rhythmic independence."},
}

func ModeByKey(key string) (Mode, bool) {
	for _, m := range Modes {
		if m.Key == key {
			return m, true
		}
	}
	return Mode{}, false
}

// Difficulty holds the judgement windows and tempo range for one level.
type Difficulty struct {
	Name            string
	PerfectWindowMs float64
	GoodWindowMs    float64
	TempoMin        int
	TempoMax        int
	Complexity      int
}

var Difficulties = map[int]Difficulty{
	1: {"Beginner", 80, 150, 60, 90, 1},
	2: {"Easy", 60, 120, 70, 100, 2},
	3: {"Medium", 45, 90, 80, 120, 3},
	4: {"Hard", 30, 60, 90, 140, 4},
	5: {"Expert", 20, 40, 100, 160, 5},
}

// Rhythm patterns per mode and complexity, in beat fractions of a
// quarter note. Precision and endurance stay on straight quarters.
var patterns = map[string]map[int][][]float64{
	"groove": {
		1: {{1, 1, 1, 1}},
		2: {{1, 1, 1, 1}, {1, 0.5, 0.5, 1, 1}},
		3: {{1, 1, 1, 1}, {1, 0.5, 0.5, 1, 1}, {0.5, 0.5, 1, 0.5, 0.5, 1}},
		4: {{1, 0.5, 0.5, 0.5, 0.5, 1, 1}, {0.5, 0.5, 0.5, 0.5, 1, 1, 1}},
		5: {{0.5, 0.5, 0.5, 0.5, 0.5, 0.5, 0.5, 0.5}},
	},
	"subdivisions": {
		1: {{1, 1, 1, 1}},
		2: {{0.5, 0.5, 0.5, 0.5, 0.5, 0.5, 0.5, 0.5}},
		3: {repeat([]float64{0.333, 0.333, 0.333}, 4)},
		4: {repeat([]float64{0.25, 0.25, 0.25, 0.25}, 4)},
		5: {{0.25, 0.25, 0.5, 0.25, 0.25, 0.5, 0.5, 0.5}},
	},
	"syncopation": {
		1: {{1, 1, 1, 1}},
		2: {{0.5, 1, 0.5, 1, 1}},
		3: {{0.5, 0.5, 0.5, 1.5, 0.5, 0.5}},
		4: {{0.5, 1.5, 0.5, 1.5}},
		5: {{0.75, 0.75, 0.5, 0.75, 0.75, 0.5}},
	},
}

func repeat(bar []float64, times int) []float64 {
	out := make([]float64, 0, len(bar)*times)
	for i := 0; i < times; i++ {
		out = append(out, bar...)
	}
	return out
}

// Exercise is one generated beat grid plus its judgement parameters.
type Exercise struct {
	GameMode        string
	ModeName        string
	Difficulty      int
	DifficultyName  string
	Tempo           int
	PerfectWindowMs float64
	GoodWindowMs    float64
	BeatTimes       []float64 // ms offsets from grid start, strictly increasing
	TotalNotes      int
	DurationMs      float64
	DurationBars    int
}

// Generator builds timing exercises. The rand source is injected so
// tests can fix the sequence.
type Generator struct {
	rng *rand.Rand
}

func NewGenerator(seed int64) *Generator {
	return &Generator{rng: rand.New(rand.NewSource(seed))}
}

// Generate builds an exercise. Unknown modes fall back to groove,
// difficulty clamps to 1..5, and tempo 0 picks a random tempo from the
// difficulty's range.
func (g *Generator) Generate(gameMode string, difficulty, tempo, durationBars int) Exercise {
	mode, ok := ModeByKey(gameMode)
	if !ok {
		mode, _ = ModeByKey("groove")
	}
	if difficulty < 1 {
		difficulty = 1
	}
	if difficulty > 5 {
		difficulty = 5
	}
	if durationBars < 1 {
		durationBars = 1
	}
	diff := Difficulties[difficulty]

	if tempo <= 0 {
		tempo = diff.TempoMin + g.rng.Intn(diff.TempoMax-diff.TempoMin+1)
	}

	pattern := g.pattern(mode.Key, diff.Complexity, durationBars)

	beatDurationMs := 60000.0 / float64(tempo)
	beatTimes := make([]float64, 0, len(pattern))
	current := 0.0
	for _, fraction := range pattern {
		beatTimes = append(beatTimes, current)
		current += beatDurationMs * fraction
	}

	return Exercise{
		GameMode:        mode.Key,
		ModeName:        mode.Name,
		Difficulty:      difficulty,
		DifficultyName:  diff.Name,
		Tempo:           tempo,
		PerfectWindowMs: diff.PerfectWindowMs,
		GoodWindowMs:    diff.GoodWindowMs,
		BeatTimes:       beatTimes,
		TotalNotes:      len(beatTimes),
		DurationMs:      current,
		DurationBars:    durationBars,
	}
}

func (g *Generator) pattern(mode string, complexity, bars int) []float64 {
	byComplexity, ok := patterns[mode]
	if !ok {
		// precision and endurance: straight quarters
		return repeat([]float64{1, 1, 1, 1}, bars)
	}
	available, ok := byComplexity[min(complexity, 5)]
	if !ok {
		available = [][]float64{{1, 1, 1, 1}}
	}
	pattern := []float64{}
	for i := 0; i < bars; i++ {
		pattern = append(pattern, available[g.rng.Intn(len(available))]...)
	}
	return pattern
}
