package stats

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	_ "modernc.org/sqlite"

	"github.com/siegfried/workrave/internal/clock"
	"github.com/siegfried/workrave/internal/core"
)

const dbFileName = "stats.db"

// Store manages persistence of daily statistics using SQLite. It implements
// core.Statistics.
type Store struct {
	db    *sql.DB
	clock clock.Source

	dayID      string
	dayStarted time.Time
	beenActive bool
}

// NewStore opens the statistics database at path, or stats.db in dir when
// path is a directory. The most recent day is resumed.
func NewStore(path string, src clock.Source) (*Store, error) {
	store, err := open(path, src)
	if err != nil {
		return nil, err
	}

	if err := store.loadCurrentDay(); err != nil {
		store.db.Close()
		return nil, err
	}

	return store, nil
}

// NewReader opens the statistics database for reports only. No day is
// started or resumed, so counters cannot be recorded through it.
func NewReader(path string, src clock.Source) (*Store, error) {
	return open(path, src)
}

func open(path string, src clock.Source) (*Store, error) {
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		path = filepath.Join(path, dbFileName)
	}

	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.Wrap(err, "failed to create database directory")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open database")
	}
	// A single connection keeps ":memory:" databases coherent.
	db.SetMaxOpenConns(1)

	store := &Store{db: db, clock: src}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to initialize schema")
	}

	return store, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// initSchema creates the database tables if they don't exist
func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS days (
		id TEXT PRIMARY KEY,
		started_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS break_counters (
		day_id TEXT NOT NULL REFERENCES days(id),
		break_id TEXT NOT NULL,
		kind TEXT NOT NULL,
		value INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (day_id, break_id, kind)
	);

	CREATE TABLE IF NOT EXISTS counters (
		day_id TEXT NOT NULL REFERENCES days(id),
		kind TEXT NOT NULL,
		value INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (day_id, kind)
	);

	CREATE INDEX IF NOT EXISTS idx_days_started_at ON days(started_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

func (s *Store) loadCurrentDay() error {
	var id string
	var started int64
	err := s.db.QueryRow(
		"SELECT id, started_at FROM days ORDER BY started_at DESC, rowid DESC LIMIT 1",
	).Scan(&id, &started)

	if err == sql.ErrNoRows {
		return s.newDay()
	}
	if err != nil {
		return errors.Wrap(err, "failed to load current day")
	}

	s.dayID = id
	s.dayStarted = time.Unix(started, 0)
	s.beenActive = true
	return s.StartNewDay()
}

// CurrentDay returns the id of the day counters are recorded against.
func (s *Store) CurrentDay() string {
	return s.dayID
}

// StartNewDay archives the current day and starts a new one, unless the
// current day already started today.
func (s *Store) StartNewDay() error {
	now := s.clock.Now()
	if s.dayID != "" && sameDate(now, s.dayStarted) {
		return s.touch(now)
	}
	return s.newDay()
}

func (s *Store) newDay() error {
	now := s.clock.Now()
	id := uuid.NewString()

	_, err := s.db.Exec(
		"INSERT INTO days (id, started_at, updated_at) VALUES (?, ?, ?)",
		id, now.Unix(), now.Unix(),
	)
	if err != nil {
		return errors.Wrap(err, "failed to start new day")
	}

	s.dayID = id
	s.dayStarted = now
	s.beenActive = false
	return nil
}

// Update records the user's activity on the current day. The first
// activity of a day moves its start to that moment.
func (s *Store) Update(active bool) error {
	if !active {
		return nil
	}

	now := s.clock.Now()
	if !s.beenActive {
		s.beenActive = true
		_, err := s.db.Exec("UPDATE days SET started_at = ? WHERE id = ?", now.Unix(), s.dayID)
		if err != nil {
			return errors.Wrap(err, "failed to update day start")
		}
		s.dayStarted = now
	}
	return s.touch(now)
}

func (s *Store) touch(now time.Time) error {
	_, err := s.db.Exec("UPDATE days SET updated_at = ? WHERE id = ?", now.Unix(), s.dayID)
	return errors.Wrap(err, "failed to update day")
}

// IncrementBreakCounter adds one to a break counter of the current day
func (s *Store) IncrementBreakCounter(id core.BreakID, counter core.BreakCounter) error {
	_, err := s.db.Exec(
		`INSERT INTO break_counters (day_id, break_id, kind, value) VALUES (?, ?, ?, 1)
		 ON CONFLICT(day_id, break_id, kind) DO UPDATE SET value = value + 1`,
		s.dayID, id.String(), counter.String(),
	)
	return errors.Wrapf(err, "failed to increment %s/%s", id, counter)
}

// SetBreakCounter sets a break counter of the current day
func (s *Store) SetBreakCounter(id core.BreakID, counter core.BreakCounter, value int64) error {
	_, err := s.db.Exec(
		`INSERT INTO break_counters (day_id, break_id, kind, value) VALUES (?, ?, ?, ?)
		 ON CONFLICT(day_id, break_id, kind) DO UPDATE SET value = excluded.value`,
		s.dayID, id.String(), counter.String(), value,
	)
	return errors.Wrapf(err, "failed to set %s/%s", id, counter)
}

// SetCounter sets a day-wide counter of the current day
func (s *Store) SetCounter(counter core.Counter, value int64) error {
	_, err := s.db.Exec(
		`INSERT INTO counters (day_id, kind, value) VALUES (?, ?, ?)
		 ON CONFLICT(day_id, kind) DO UPDATE SET value = excluded.value`,
		s.dayID, counter.String(), value,
	)
	return errors.Wrapf(err, "failed to set %s", counter)
}

// GetDailyStats returns the statistics of the given day
func (s *Store) GetDailyStats(dayID string) (*DailyStats, error) {
	stats := &DailyStats{
		ID:       dayID,
		Breaks:   make(map[core.BreakID]BreakStats),
		Counters: make(map[core.Counter]int64),
	}

	var started, updated int64
	err := s.db.QueryRow(
		"SELECT started_at, updated_at FROM days WHERE id = ?", dayID,
	).Scan(&started, &updated)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", ErrDayNotFound, dayID)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to query day")
	}
	stats.StartedAt = time.Unix(started, 0)
	stats.UpdatedAt = time.Unix(updated, 0)

	rows, err := s.db.Query(
		"SELECT break_id, kind, value FROM break_counters WHERE day_id = ?", dayID,
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query break counters")
	}
	defer rows.Close()

	for rows.Next() {
		var breakName, kind string
		var value int64
		if err := rows.Scan(&breakName, &kind, &value); err != nil {
			return nil, errors.Wrap(err, "failed to scan break counter")
		}
		id, ok := core.ParseBreakID(breakName)
		if !ok {
			continue
		}
		counter, ok := core.ParseBreakCounter(kind)
		if !ok {
			continue
		}
		if stats.Breaks[id] == nil {
			stats.Breaks[id] = BreakStats{}
		}
		stats.Breaks[id][counter] = value
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to read break counters")
	}

	var active int64
	err = s.db.QueryRow(
		"SELECT value FROM counters WHERE day_id = ? AND kind = ?",
		dayID, core.ValueTotalActiveTime.String(),
	).Scan(&active)
	if err != nil && err != sql.ErrNoRows {
		return nil, errors.Wrap(err, "failed to query counters")
	}
	stats.Counters[core.ValueTotalActiveTime] = active

	return stats, nil
}

// History returns up to limit days, newest first
func (s *Store) History(limit int) ([]*DailyStats, error) {
	rows, err := s.db.Query(
		"SELECT id FROM days ORDER BY started_at DESC, rowid DESC LIMIT ?", limit,
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query history")
	}

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, errors.Wrap(err, "failed to scan day")
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to read history")
	}

	days := make([]*DailyStats, 0, len(ids))
	for _, id := range ids {
		day, err := s.GetDailyStats(id)
		if err != nil {
			return nil, err
		}
		days = append(days, day)
	}
	return days, nil
}

// GetComplianceReport generates a compliance report for a time period
func (s *Store) GetComplianceReport(period string) (*ComplianceReport, error) {
	var startDate time.Time
	now := s.clock.Now()

	switch period {
	case "today":
		startDate = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	case "week":
		startDate = now.AddDate(0, 0, -7)
	case "month":
		startDate = now.AddDate(0, -1, 0)
	default:
		return nil, fmt.Errorf("%w: %s", ErrInvalidPeriod, period)
	}

	report := &ComplianceReport{Period: period}

	err := s.db.QueryRow(
		"SELECT COUNT(*) FROM days WHERE started_at >= ?", startDate.Unix(),
	).Scan(&report.Days)
	if err != nil {
		return nil, errors.Wrap(err, "failed to count days")
	}

	rows, err := s.db.Query(
		`SELECT bc.kind, SUM(bc.value)
		 FROM break_counters bc JOIN days d ON d.id = bc.day_id
		 WHERE d.started_at >= ?
		 GROUP BY bc.kind`,
		startDate.Unix(),
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query compliance")
	}
	defer rows.Close()

	for rows.Next() {
		var kind string
		var total int64
		if err := rows.Scan(&kind, &total); err != nil {
			return nil, errors.Wrap(err, "failed to scan compliance")
		}
		counter, _ := core.ParseBreakCounter(kind)
		switch counter {
		case core.CounterUniqueBreaks:
			report.UniqueBreaks = total
		case core.CounterTaken:
			report.Taken = total
		case core.CounterNaturalTaken:
			report.NaturalTaken = total
		case core.CounterSkipped:
			report.Skipped = total
		case core.CounterPostponed:
			report.Postponed = total
		case core.CounterIgnored:
			report.Ignored = total
		}
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to read compliance")
	}

	// Natural breaks never started a break, so they are not in UniqueBreaks.
	report.ComplianceRate = CalculateComplianceRate(
		report.Taken+report.NaturalTaken, report.UniqueBreaks+report.NaturalTaken)

	days := report.Days
	if days == 0 {
		days = 1
	}
	report.AveragePerDay = float64(report.Taken+report.NaturalTaken) / float64(days)

	return report, nil
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.In(a.Location()).Date()
	return ay == by && am == bm && ad == bd
}
