package config

import (
	"gopkg.in/alecthomas/kingpin.v2"
)

var (
	app = kingpin.New("pocket", "Bass timing practice in the terminal.")

	Debug  = app.Flag("debug", "Enable debug logging").Envar("POCKET_DEBUG").Bool()
	DBPath = app.Flag("db", "Sqlite database path").Default("pocket.db").Envar("POCKET_DB").String()

	Play           = app.Command("play", "Run a timing practice session")
	PlayMode       = Play.Flag("mode", "Game mode").Default("groove").Short('m').Enum("groove", "precision", "subdivisions", "endurance", "syncopation")
	PlayDifficulty = Play.Flag("difficulty", "Difficulty level 1-5").Default("1").Short('d').Int()
	PlayTempo      = Play.Flag("tempo", "Tempo in bpm, 0 picks one for the difficulty").Default("0").Short('t').Int()
	PlayBars       = Play.Flag("bars", "Exercise length in bars").Default("8").Short('b').Int()
	PlayDevice     = Play.Flag("device", "Audio input device name, default input if empty").String()
	PlayWav        = Play.Flag("wav", "Replay a wav file instead of opening a device").String()
	PlayServer     = Play.Flag("server", "Base URL of a remote session service").String()
	PlaySilent     = Play.Flag("silent", "Disable the metronome click").Bool()

	Calibrate        = app.Command("calibrate", "Calibrate noise floor, threshold and latency")
	CalibrateDevice  = Calibrate.Flag("device", "Audio input device name").String()
	CalibrateWav     = Calibrate.Flag("wav", "Replay a wav file instead of opening a device").String()
	CalibrateLatency = Calibrate.Flag("measure-latency", "Measure round-trip latency with a click play-along").Bool()

	Devices = app.Command("devices", "List audio input devices")

	History      = app.Command("history", "Recent session results")
	HistoryLimit = History.Flag("limit", "Number of sessions to show").Default("20").Int()
	HistoryMode  = History.Flag("mode", "Filter by game mode").String()

	Top     = app.Command("top", "High scores per game mode")
	TopMode = Top.Flag("mode", "Filter by game mode").String()

	Serve     = app.Command("serve", "Run the HTTP session service")
	ServeAddr = Serve.Flag("addr", "Listen address").Default(":8093").Envar("POCKET_ADDR").String()
)

// Parse is called explicitly from main rather than in init so importing
// this package in tests has no side effects.
func Parse(args []string) (string, error) {
	app.Version("0.1.0")
	return app.Parse(args)
}
