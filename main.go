package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/eiannone/keyboard"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"pocket/internal/api"
	"pocket/internal/audio"
	"pocket/internal/beat"
	"pocket/internal/calibrate"
	"pocket/internal/config"
	"pocket/internal/exercise"
	"pocket/internal/onset"
	"pocket/internal/server"
	"pocket/internal/session"
	"pocket/internal/store"
	"pocket/internal/theme"
	"pocket/internal/view"
)

func main() {
	command, err := config.Parse(os.Args[1:])
	if nil != err {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.WarnLevel)
	if *config.Debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	if err := run(command); nil != err {
		log.Fatal().Err(err).Msg("pocket failed")
	}
}

func run(command string) error {
	switch command {
	case config.Play.FullCommand():
		return runPlay()
	case config.Calibrate.FullCommand():
		return runCalibrate()
	case config.Devices.FullCommand():
		return runDevices()
	case config.History.FullCommand():
		return runHistory()
	case config.Top.FullCommand():
		return runTop()
	case config.Serve.FullCommand():
		return runServe()
	}
	return fmt.Errorf("unknown command %v", command)
}

func openSource(deviceID, wavPath string) (audio.Source, error) {
	if wavPath != "" {
		return audio.OpenFile(wavPath)
	}
	return audio.Open(deviceID)
}

func runPlay() error {
	st, err := store.Open(*config.DBPath)
	if nil != err {
		return err
	}
	defer st.Close()

	clock := clockwork.NewRealClock()
	detector := onset.NewDetector(clock)

	latencyMs, err := calibrate.LoadApply(st, detector)
	if nil != err {
		return err
	}

	src, err := openSource(*config.PlayDevice, *config.PlayWav)
	if nil != err {
		return err
	}
	if err := detector.Connect(src); nil != err {
		return err
	}
	defer detector.Disconnect()

	var provider api.Provider
	if *config.PlayServer != "" {
		provider = api.NewClient(*config.PlayServer)
	} else {
		provider = api.NewLocal(exercise.NewGenerator(time.Now().UnixNano()), st)
	}

	var click session.Clicker
	if !*config.PlaySilent {
		track, err := beat.NewClickTrack()
		if nil != err {
			return fmt.Errorf("unable to open audio output: %w", err)
		}
		defer track.Close()
		click = track
	}

	sched := beat.NewScheduler(clock)
	sess := session.New(provider, detector, sched, clock, click, latencyMs)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	startResp, err := sess.Start(ctx, api.StartRequest{
		GameMode:     *config.PlayMode,
		Difficulty:   *config.PlayDifficulty,
		TempoBpm:     *config.PlayTempo,
		DurationBars: *config.PlayBars,
	})
	if nil != err {
		return err
	}

	keyChannel, err := keyboard.GetKeys(16)
	if nil != err {
		return fmt.Errorf("unable to open keyboard: %w", err)
	}
	defer func() {
		if err := keyboard.Close(); nil != err {
			log.Debug().Err(err).Msg("unable to close keyboard")
		}
	}()
	go func() {
		for key := range keyChannel {
			if key.Key == keyboard.KeyEsc || key.Key == keyboard.KeyCtrlC {
				cancel()
				return
			}
		}
	}()

	type result struct {
		resp *api.CompleteResponse
		err  error
	}
	done := make(chan result, 1)
	go func() {
		resp, err := sess.Run(ctx)
		done <- result{resp, err}
	}()

	term := view.New(&theme.DefaultTheme{}, startResp.ModeName, startResp.Tempo, startResp.TotalNotes)
	if err := term.Init(); nil != err {
		return err
	}
	term.Run(sess.Events(), detector.Volumes())
	if err := term.Deinit(); nil != err {
		log.Debug().Err(err).Msg("terminal restore failed")
	}

	res := <-done
	if nil != res.err {
		if res.err == context.Canceled {
			fmt.Println("Session abandoned.")
			return nil
		}
		return res.err
	}
	printResult(res.resp)
	return nil
}

func printResult(resp *api.CompleteResponse) {
	s := resp.Stats
	fmt.Println()
	if resp.IsNewHighScore {
		fmt.Println("★ New high score!")
	}
	fmt.Printf("Score %v   accuracy %.1f%%   best streak %v\n",
		s.TotalScore, s.AccuracyPercentage, s.BestStreak)
	renderStats(s)
	for _, tip := range resp.Tips {
		fmt.Printf("  • %v\n", tip)
	}
}

func runCalibrate() error {
	st, err := store.Open(*config.DBPath)
	if nil != err {
		return err
	}
	defer st.Close()

	clock := clockwork.NewRealClock()
	detector := onset.NewDetector(clock)
	if _, err := calibrate.LoadApply(st, detector); nil != err {
		return err
	}

	src, err := openSource(*config.CalibrateDevice, *config.CalibrateWav)
	if nil != err {
		return err
	}
	if err := detector.Connect(src); nil != err {
		return err
	}
	defer detector.Disconnect()

	controller := calibrate.New(detector, st)

	th := &theme.DefaultTheme{}
	fmt.Println("Keep quiet: sampling ambient noise...")
	if err := controller.Start(func(frac float64) {
		fmt.Printf("\r  %s %3.0f%%", th.RenderMeter(detector.CurrentVolume(), 24), frac*100)
	}); nil != err {
		return err
	}
	fmt.Println()

	fmt.Println("Now play 3 notes to confirm the threshold:")
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	if err := controller.ConfirmSignal(ctx, func(done, required int) {
		fmt.Printf("  note %v/%v\n", done, required)
	}); nil != err {
		return err
	}

	if *config.CalibrateLatency {
		latency, err := measureLatency(detector, clock)
		if nil != err {
			log.Warn().Err(err).Msg("latency measurement failed, keeping default")
		} else {
			controller.SetMeasuredLatency(float64(latency.Milliseconds()))
		}
	}

	result, _ := controller.Result()
	fmt.Printf("\nThreshold %.1f (release %.1f), latency %.0f ms\n",
		result.Threshold, result.Threshold*0.5, result.SystemLatencyMs)
	fmt.Print("Apply? [y/N] ")

	var answer string
	fmt.Scanln(&answer)
	if answer != "y" && answer != "Y" {
		controller.Cancel()
		fmt.Println("Discarded; previous calibration remains in effect.")
		return nil
	}
	if err := controller.Apply(); nil != err {
		return err
	}
	fmt.Println("Saved.")
	return nil
}

// measureLatency plays an 8-click track and matches the player's
// onsets against the click times.
func measureLatency(detector *onset.Detector, clock clockwork.Clock) (time.Duration, error) {
	const clickCount = 8
	const tempo = 90.0

	track, err := beat.NewClickTrack()
	if nil != err {
		return 0, err
	}
	defer track.Close()

	fmt.Printf("Play along with %v clicks...\n", clickCount)

	start := clock.Now()
	clicks := []time.Duration{}
	onsets := []time.Duration{}
	onsetCh := make(chan time.Duration, clickCount*2)
	detector.SetOnsetHandler(func(t time.Time) {
		select {
		case onsetCh <- t.Sub(start):
		default:
		}
	})
	defer detector.DetachOnsetHandler()

	sched := beat.NewScheduler(clock)
	clickCh := make(chan time.Duration, clickCount)
	if err := sched.Start(tempo, func(b beat.Beat) {
		if b.Index < clickCount {
			track.Play(b.Accent)
			clickCh <- b.Time.Sub(start)
		}
	}); nil != err {
		return 0, err
	}

	interval := beat.BeatInterval(tempo)
	deadline := clock.After(time.Duration(clickCount)*interval + time.Second)
collect:
	for {
		select {
		case c := <-clickCh:
			clicks = append(clicks, c)
		case o := <-onsetCh:
			onsets = append(onsets, o)
		case <-deadline:
			break collect
		}
	}
	sched.Stop()

	latency, ok := calibrate.EstimateLatency(clicks, onsets)
	if !ok {
		return 0, fmt.Errorf("no onsets matched the click track")
	}
	return latency, nil
}

func runDevices() error {
	devices := audio.Devices()
	if len(devices) == 0 {
		fmt.Println("No input devices found.")
		return nil
	}
	fmt.Println(renderDevices(devices))
	return nil
}

func runHistory() error {
	st, err := store.Open(*config.DBPath)
	if nil != err {
		return err
	}
	defer st.Close()

	records, err := st.History(*config.HistoryLimit, *config.HistoryMode)
	if nil != err {
		return err
	}
	if len(records) == 0 {
		fmt.Println("No sessions yet.")
		return nil
	}
	fmt.Println(renderHistory(records))
	return nil
}

func runTop() error {
	st, err := store.Open(*config.DBPath)
	if nil != err {
		return err
	}
	defer st.Close()

	scores, err := st.Leaderboard(*config.TopMode)
	if nil != err {
		return err
	}
	if len(scores) == 0 {
		fmt.Println("No high scores yet.")
		return nil
	}
	fmt.Println(renderLeaderboard(scores))
	return nil
}

func runServe() error {
	st, err := store.Open(*config.DBPath)
	if nil != err {
		return err
	}
	defer st.Close()

	local := api.NewLocal(exercise.NewGenerator(time.Now().UnixNano()), st)
	return server.New(local, st).ListenAndServe(*config.ServeAddr)
}
