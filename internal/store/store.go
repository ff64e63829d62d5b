package store

import (
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Store is the sqlite persistence layer: calibration settings, session
// history and high scores.
type Store struct {
	db *sql.DB
}

func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if nil != err {
		return nil, err
	}

	initStatement := `
	create table if not exists settings
	  (
		  key text not null primary key,
		  value real not null
	  );
	create table if not exists timing_sessions
	  (
		  id integer not null primary key,
		  game_mode text,
		  difficulty integer,
		  tempo_bpm integer,
		  total_notes integer,
		  perfect_hits integer,
		  good_hits integer,
		  ok_hits integer,
		  early_hits integer,
		  late_hits integer,
		  missed_notes integer,
		  best_streak integer,
		  score integer,
		  accuracy real,
		  average_timing_ms real,
		  duration_seconds real,
		  created_at timestamp not null default current_timestamp
	  );
	create table if not exists timing_high_scores
	  (
		  id integer not null primary key,
		  game_mode text,
		  tempo_bpm integer,
		  difficulty integer,
		  high_score integer,
		  best_accuracy real,
		  best_streak integer,
		  achieved_at timestamp not null default current_timestamp,
		  unique(game_mode, tempo_bpm, difficulty)
	  );
	`
	if _, err = db.Exec(initStatement); nil != err {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Setting reads one settings value; the second return is false when the
// key has never been written.
func (s *Store) Setting(key string) (float64, bool, error) {
	var value float64
	err := s.db.QueryRow("select value from settings where key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if nil != err {
		return 0, false, err
	}
	return value, true, nil
}

func (s *Store) SetSetting(key string, value float64) error {
	_, err := s.db.Exec("insert or replace into settings(key, value) values(?, ?)", key, value)
	return err
}

// SessionRecord is one completed session row.
type SessionRecord struct {
	ID              int64
	GameMode        string
	Difficulty      int
	TempoBpm        int
	TotalNotes      int
	PerfectHits     int
	GoodHits        int
	OkHits          int
	EarlyHits       int
	LateHits        int
	MissedNotes     int
	BestStreak      int
	Score           int
	Accuracy        float64
	AverageTimingMs float64
	DurationSeconds float64
	CreatedAt       time.Time
}

func (s *Store) SaveSession(rec SessionRecord) error {
	_, err := s.db.Exec(`insert into timing_sessions
		(game_mode, difficulty, tempo_bpm, total_notes, perfect_hits, good_hits,
		 ok_hits, early_hits, late_hits, missed_notes, best_streak, score,
		 accuracy, average_timing_ms, duration_seconds)
		values(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.GameMode, rec.Difficulty, rec.TempoBpm, rec.TotalNotes,
		rec.PerfectHits, rec.GoodHits, rec.OkHits, rec.EarlyHits, rec.LateHits,
		rec.MissedNotes, rec.BestStreak, rec.Score, rec.Accuracy,
		rec.AverageTimingMs, rec.DurationSeconds)
	return err
}

// History returns the most recent sessions, newest first, optionally
// filtered by game mode.
func (s *Store) History(limit int, gameMode string) ([]SessionRecord, error) {
	query := `select id, game_mode, difficulty, tempo_bpm, total_notes,
		perfect_hits, good_hits, ok_hits, early_hits, late_hits, missed_notes,
		best_streak, score, accuracy, average_timing_ms, duration_seconds,
		created_at from timing_sessions`
	args := []interface{}{}
	if gameMode != "" {
		query += " where game_mode = ?"
		args = append(args, gameMode)
	}
	query += " order by created_at desc, id desc limit ?"
	args = append(args, limit)

	rows, err := s.db.Query(query, args...)
	if nil != err {
		return nil, err
	}
	defer rows.Close()

	records := []SessionRecord{}
	for rows.Next() {
		var r SessionRecord
		if err := rows.Scan(&r.ID, &r.GameMode, &r.Difficulty, &r.TempoBpm,
			&r.TotalNotes, &r.PerfectHits, &r.GoodHits, &r.OkHits, &r.EarlyHits,
			&r.LateHits, &r.MissedNotes, &r.BestStreak, &r.Score, &r.Accuracy,
			&r.AverageTimingMs, &r.DurationSeconds, &r.CreatedAt); nil != err {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// HighScore is one row of the per-(mode, tempo, difficulty) leaderboard.
type HighScore struct {
	GameMode     string
	TempoBpm     int
	Difficulty   int
	HighScore    int
	BestAccuracy float64
	BestStreak   int
	AchievedAt   time.Time
}

// UpsertHighScore records a finished session against the leaderboard and
// reports whether it set a new high score.
func (s *Store) UpsertHighScore(rec SessionRecord) (bool, error) {
	var current int
	err := s.db.QueryRow(`select high_score from timing_high_scores
		where game_mode = ? and tempo_bpm = ? and difficulty = ?`,
		rec.GameMode, rec.TempoBpm, rec.Difficulty).Scan(&current)
	if err == sql.ErrNoRows {
		_, err = s.db.Exec(`insert into timing_high_scores
			(game_mode, tempo_bpm, difficulty, high_score, best_accuracy, best_streak)
			values(?, ?, ?, ?, ?, ?)`,
			rec.GameMode, rec.TempoBpm, rec.Difficulty, rec.Score, rec.Accuracy, rec.BestStreak)
		return nil == err, err
	}
	if nil != err {
		return false, err
	}
	if rec.Score <= current {
		return false, nil
	}
	_, err = s.db.Exec(`update timing_high_scores
		set high_score = ?, best_accuracy = ?, best_streak = ?, achieved_at = current_timestamp
		where game_mode = ? and tempo_bpm = ? and difficulty = ?`,
		rec.Score, rec.Accuracy, rec.BestStreak,
		rec.GameMode, rec.TempoBpm, rec.Difficulty)
	return nil == err, err
}

// Leaderboard lists high scores, best first, optionally filtered by
// game mode.
func (s *Store) Leaderboard(gameMode string) ([]HighScore, error) {
	query := `select game_mode, tempo_bpm, difficulty, high_score,
		best_accuracy, best_streak, achieved_at from timing_high_scores`
	args := []interface{}{}
	if gameMode != "" {
		query += " where game_mode = ?"
		args = append(args, gameMode)
	}
	query += " order by high_score desc"

	rows, err := s.db.Query(query, args...)
	if nil != err {
		return nil, err
	}
	defer rows.Close()

	scores := []HighScore{}
	for rows.Next() {
		var h HighScore
		if err := rows.Scan(&h.GameMode, &h.TempoBpm, &h.Difficulty,
			&h.HighScore, &h.BestAccuracy, &h.BestStreak, &h.AchievedAt); nil != err {
			return nil, err
		}
		scores = append(scores, h)
	}
	return scores, rows.Err()
}

// RecentAccuracy averages accuracy over the latest sessions of a mode,
// feeding the difficulty recommendation.
func (s *Store) RecentAccuracy(gameMode string, limit int) (float64, int, error) {
	records, err := s.History(limit, gameMode)
	if nil != err {
		return 0, 0, err
	}
	if len(records) == 0 {
		return 0, 0, nil
	}
	sum := 0.0
	for _, r := range records {
		sum += r.Accuracy
	}
	return sum / float64(len(records)), len(records), nil
}
