// Package persistence provides SQLite-based checkpoint storage so long runs
// can be stopped and resumed.
package persistence

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/pthm-cable/selkie/agent"
	"github.com/pthm-cable/selkie/geo"
	"github.com/pthm-cable/selkie/telemetry"
)

// DB wraps a SQLite connection for run state persistence.
type DB struct {
	conn *sqlx.DB
	log  *slog.Logger
}

// Open opens or creates a SQLite database at the given path.
func Open(path string, log *slog.Logger) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if log == nil {
		log = slog.Default()
	}

	db := &DB{conn: conn, log: log}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS agents (
		id TEXT PRIMARY KEY,
		sex INTEGER NOT NULL,
		age_years INTEGER NOT NULL,
		age_ticks INTEGER NOT NULL,
		lat REAL NOT NULL,
		lon REAL NOT NULL,
		heading REAL NOT NULL,
		energy REAL NOT NULL,
		stomach REAL NOT NULL,
		state INTEGER NOT NULL,
		state_duration INTEGER NOT NULL,
		patch_residence INTEGER NOT NULL,
		haul_out_ticks INTEGER NOT NULL,
		memory_json TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		tick INTEGER NOT NULL,
		type TEXT NOT NULL,
		agent_id TEXT NOT NULL,
		detail TEXT
	);

	CREATE TABLE IF NOT EXISTS tracks (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		time TEXT NOT NULL,
		agent_id TEXT NOT NULL,
		lat REAL NOT NULL,
		lon REAL NOT NULL,
		state TEXT NOT NULL,
		energy REAL NOT NULL,
		stomach REAL NOT NULL,
		depth REAL NOT NULL,
		tide REAL NOT NULL,
		hsi REAL NOT NULL
	);

	CREATE TABLE IF NOT EXISTS daily_stats (
		date TEXT NOT NULL,
		tick INTEGER NOT NULL,
		alive INTEGER NOT NULL,
		dead INTEGER NOT NULL,
		energy_mean REAL NOT NULL,
		energy_std REAL NOT NULL,
		stomach_mean REAL NOT NULL,
		PRIMARY KEY (date, tick)
	);

	CREATE TABLE IF NOT EXISTS run_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_events_tick ON events(tick);
	CREATE INDEX IF NOT EXISTS idx_tracks_agent ON tracks(agent_id);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// SaveCheckpoint writes the full population plus the tick cursor (full
// replace).
func (db *DB) SaveCheckpoint(tick int, simTime time.Time, agents []*agent.Agent) error {
	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM agents"); err != nil {
		return err
	}

	stmt, err := tx.Preparex(`INSERT INTO agents
		(id, sex, age_years, age_ticks, lat, lon, heading, energy, stomach,
		 state, state_duration, patch_residence, haul_out_ticks, memory_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, a := range agents {
		memJSON, _ := json.Marshal(a.Memory.HaulOutSites)
		_, err := stmt.Exec(
			a.ID, int(a.Sex), a.AgeYears, a.AgeTicks,
			a.Pos.Lat, a.Pos.Lon, a.Heading, a.Energy, a.StomachLoad,
			int(a.State), a.StateDuration, a.PatchResidence, a.HaulOutTicks,
			string(memJSON),
		)
		if err != nil {
			return fmt.Errorf("insert agent %s: %w", a.ID, err)
		}
	}

	if err := saveMetaTx(tx, "last_tick", strconv.Itoa(tick)); err != nil {
		return err
	}
	if err := saveMetaTx(tx, "sim_time", simTime.UTC().Format(time.RFC3339)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	db.log.Info("checkpoint saved", "tick", tick, "agents", len(agents))
	return nil
}

type agentRow struct {
	ID             string  `db:"id"`
	Sex            int     `db:"sex"`
	AgeYears       int     `db:"age_years"`
	AgeTicks       int     `db:"age_ticks"`
	Lat            float64 `db:"lat"`
	Lon            float64 `db:"lon"`
	Heading        float64 `db:"heading"`
	Energy         float64 `db:"energy"`
	Stomach        float64 `db:"stomach"`
	State          int     `db:"state"`
	StateDuration  int     `db:"state_duration"`
	PatchResidence int     `db:"patch_residence"`
	HaulOutTicks   int     `db:"haul_out_ticks"`
	MemoryJSON     string  `db:"memory_json"`
}

// LoadCheckpoint restores the population and the tick cursor. Agents are
// rebuilt with fresh RNG streams derived from seed; replay is therefore not
// bit-identical across a resume, only statistically equivalent.
func (db *DB) LoadCheckpoint(p agent.Params, seed int64, log *slog.Logger) ([]*agent.Agent, int, time.Time, error) {
	var rows []agentRow
	if err := db.conn.Select(&rows, "SELECT * FROM agents ORDER BY id"); err != nil {
		return nil, 0, time.Time{}, fmt.Errorf("select agents: %w", err)
	}

	agents := make([]*agent.Agent, 0, len(rows))
	for i, r := range rows {
		a := agent.New(r.ID, geo.Point{Lat: r.Lat, Lon: r.Lon}, r.AgeYears, agent.Sex(r.Sex), p, seed+int64(i), log)
		a.AgeTicks = r.AgeTicks
		a.Heading = r.Heading
		a.Energy = r.Energy
		a.StomachLoad = r.Stomach
		a.State = agent.State(r.State)
		a.StateDuration = r.StateDuration
		a.PatchResidence = r.PatchResidence
		a.HaulOutTicks = r.HaulOutTicks
		var sites []geo.Point
		if err := json.Unmarshal([]byte(r.MemoryJSON), &sites); err == nil {
			a.Memory.HaulOutSites = sites
		}
		agents = append(agents, a)
	}

	tickStr, err := db.GetMeta("last_tick")
	if err != nil {
		return nil, 0, time.Time{}, fmt.Errorf("load tick cursor: %w", err)
	}
	tick, err := strconv.Atoi(tickStr)
	if err != nil {
		return nil, 0, time.Time{}, fmt.Errorf("parse tick cursor: %w", err)
	}

	timeStr, err := db.GetMeta("sim_time")
	if err != nil {
		return nil, 0, time.Time{}, fmt.Errorf("load time cursor: %w", err)
	}
	simTime, err := time.Parse(time.RFC3339, timeStr)
	if err != nil {
		return nil, 0, time.Time{}, fmt.Errorf("parse time cursor: %w", err)
	}

	db.log.Info("checkpoint loaded", "tick", tick, "agents", len(agents))
	return agents, tick, simTime, nil
}

// SaveEvents appends events to the database.
func (db *DB) SaveEvents(events []telemetry.Event) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, e := range events {
		_, err := tx.Exec(
			"INSERT INTO events (tick, type, agent_id, detail) VALUES (?, ?, ?, ?)",
			e.Tick, e.Type.String(), e.AgentID, e.Detail,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// SaveDailyStats appends one day's population summary.
func (db *DB) SaveDailyStats(s telemetry.DailyStats) error {
	_, err := db.conn.Exec(
		`INSERT OR REPLACE INTO daily_stats
		(date, tick, alive, dead, energy_mean, energy_std, stomach_mean)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		s.Date, s.Tick, s.Alive, s.Dead, s.EnergyMean, s.EnergyStd, s.StomachMean,
	)
	return err
}

// ArchiveTracks appends track rows, mirroring the CSV output for queryable
// post-processing.
func (db *DB) ArchiveTracks(records []telemetry.TrackRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Preparex(`INSERT INTO tracks
		(time, agent_id, lat, lon, state, energy, stomach, depth, tide, hsi)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, r := range records {
		_, err := stmt.Exec(r.Time, r.AgentID, r.Lat, r.Lon, r.State,
			r.Energy, r.Stomach, r.Depth, r.Tide, r.HSI)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// SaveMeta stores a key-value pair in run metadata.
func (db *DB) SaveMeta(key, value string) error {
	_, err := db.conn.Exec(
		"INSERT OR REPLACE INTO run_meta (key, value) VALUES (?, ?)",
		key, value,
	)
	return err
}

func saveMetaTx(tx *sqlx.Tx, key, value string) error {
	_, err := tx.Exec(
		"INSERT OR REPLACE INTO run_meta (key, value) VALUES (?, ?)",
		key, value,
	)
	return err
}

// GetMeta retrieves a metadata value.
func (db *DB) GetMeta(key string) (string, error) {
	var value string
	err := db.conn.Get(&value, "SELECT value FROM run_meta WHERE key = ?", key)
	return value, err
}

// HasCheckpoint reports whether a resumable checkpoint exists.
func (db *DB) HasCheckpoint() bool {
	_, err := db.GetMeta("last_tick")
	return err == nil
}
