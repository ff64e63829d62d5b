package main

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"pocket/internal/api"
	"pocket/internal/audio"
	"pocket/internal/store"
)

func newTable(headers ...interface{}) table.Writer {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(headers)
	return tw
}

func renderDevices(devices []audio.Device) string {
	tw := newTable("#", "Device")
	for i, d := range devices {
		tw.AppendRow(table.Row{i, d.Label})
	}
	return tw.Render()
}

func renderHistory(records []store.SessionRecord) string {
	tw := newTable("When", "Mode", "Diff", "Tempo", "Score", "Acc", "Streak", "P/G/O", "E/L/M")
	for _, r := range records {
		tw.AppendRow(table.Row{
			r.CreatedAt.Format("Jan 02 15:04"),
			r.GameMode,
			r.Difficulty,
			r.TempoBpm,
			r.Score,
			fmt.Sprintf("%.1f%%", r.Accuracy),
			r.BestStreak,
			fmt.Sprintf("%v/%v/%v", r.PerfectHits, r.GoodHits, r.OkHits),
			fmt.Sprintf("%v/%v/%v", r.EarlyHits, r.LateHits, r.MissedNotes),
		})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 5, Align: text.AlignRight},
		{Number: 6, Align: text.AlignRight},
		{Number: 7, Align: text.AlignRight},
	})
	return tw.Render()
}

func renderLeaderboard(scores []store.HighScore) string {
	tw := newTable("Mode", "Tempo", "Diff", "High score", "Best acc", "Best streak", "Achieved")
	for _, h := range scores {
		tw.AppendRow(table.Row{
			h.GameMode,
			h.TempoBpm,
			h.Difficulty,
			h.HighScore,
			fmt.Sprintf("%.1f%%", h.BestAccuracy),
			h.BestStreak,
			h.AchievedAt.Format("Jan 02 2006"),
		})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 4, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
	})
	return tw.Render()
}

func renderStats(s api.Stats) {
	tw := newTable("Perfect", "Good", "Okay", "Early", "Late", "Miss", "Avg offset")
	tw.AppendRow(table.Row{
		s.PerfectHits, s.GoodHits, s.OkHits, s.EarlyHits, s.LateHits, s.MissedNotes,
		fmt.Sprintf("%+.1f ms", s.AverageTimingMs),
	})
	fmt.Println(tw.Render())
}
