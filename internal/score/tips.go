package score

// Tips turns session statistics into short practice advice.
func Tips(s Stats) []string {
	tips := []string{}

	if s.EarlyHits > s.LateHits*2 {
		tips = append(tips, "You're rushing! Try to relax and let the beat come to you.")
	}
	if s.LateHits > s.EarlyHits*2 {
		tips = append(tips, "You're dragging behind the beat. Commit to the attack a little earlier.")
	}
	if s.TotalNotes > 0 && s.MissedNotes*4 > s.TotalNotes {
		tips = append(tips, "Lots of missed notes. Drop the tempo or difficulty and build back up.")
	}
	if s.AverageTimingMs < -10 {
		tips = append(tips, "Your hits trend early. Listen for the click instead of predicting it.")
	}
	if s.AverageTimingMs > 10 {
		tips = append(tips, "Your hits trend late. Lock your eyes off the fretboard and onto the pulse.")
	}
	if s.BestStreak >= 20 {
		tips = append(tips, "Great streak! Consistency like that is what being in the pocket means.")
	}
	if s.AccuracyPercentage >= 95 && s.TotalNotes > 0 {
		tips = append(tips, "Excellent accuracy. Time to move up a difficulty level.")
	}
	if len(tips) == 0 {
		tips = append(tips, "Solid session. Keep it steady and keep it in the pocket.")
	}
	return tips
}
