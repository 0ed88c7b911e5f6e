// Package archive persists fetched time-series, segments, and triggers
// in a SQLite file so a rerun over the same span only fetches new data.
//
// Archives are keyed by IFO, tag, and span through their file name,
// IFO-TAG-START-DURATION.sqlite. Writing replaces the file through a
// backup: the old archive is moved aside first and restored if the
// write fails, so a crash never leaves a truncated archive behind.
package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/gwdetchar/gwsummary/internal/data"
	"github.com/gwdetchar/gwsummary/internal/gpstime"
	"github.com/gwdetchar/gwsummary/internal/model"
	"github.com/gwdetchar/gwsummary/internal/segments"
	"github.com/gwdetchar/gwsummary/internal/triggers"
)

// Path names the archive file for one IFO, tag, and span inside dir.
func Path(dir, ifo, tag string, span gpstime.Span) string {
	name := fmt.Sprintf("%s-%s-%d-%d.sqlite",
		ifo, tag, int64(span.Start), int64(span.Duration()))
	return filepath.Join(dir, name)
}

// Archive is an open archive database.
type Archive struct {
	db   *sql.DB
	path string
}

// Open opens an archive file. With create false, a missing file is an
// error; the caller treats that as "no prior archive".
func Open(path string, create bool) (*Archive, error) {
	mode := "rw"
	if create {
		if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
			return nil, fmt.Errorf("create archive directory: %w", err)
		}
		mode = "rwc"
	} else if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("archive not found: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?mode="+mode)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}

	// SQLite supports one writer; a single connection avoids lock
	// contention entirely.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	a := &Archive{db: db, path: path}
	if create {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("enable WAL mode: %w", err)
		}
		if err := a.createTables(); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("create archive tables: %w", err)
		}
	}
	return a, nil
}

// Close closes the database connection.
func (a *Archive) Close() error {
	return a.db.Close()
}

func (a *Archive) createTables() error {
	schema := `
	-- One row per stored time-series segment.
	CREATE TABLE IF NOT EXISTS series (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		channel TEXT NOT NULL,
		epoch REAL NOT NULL,
		sample_rate REAL NOT NULL,
		unit TEXT,
		samples TEXT NOT NULL,
		UNIQUE(channel, epoch)
	);

	CREATE INDEX IF NOT EXISTS idx_series_channel ON series(channel);

	-- One row per data-quality flag, segment lists as JSON.
	CREATE TABLE IF NOT EXISTS flags (
		flag TEXT PRIMARY KEY,
		known TEXT NOT NULL,
		active TEXT NOT NULL
	);

	-- One row per trigger.
	CREATE TABLE IF NOT EXISTS triggers (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		etg TEXT NOT NULL,
		channel TEXT NOT NULL,
		time REAL NOT NULL,
		frequency REAL NOT NULL,
		snr REAL NOT NULL,
		duration REAL,
		bandwidth REAL,
		extra TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_triggers_key ON triggers(etg, channel);
	`
	_, err := a.db.ExecContext(context.Background(), schema)
	return err
}

// Stores bundles the in-memory stores an archive round-trips.
type Stores struct {
	Data     *data.Store
	Segments *segments.Store
	Triggers *triggers.Store
}

// Write dumps the stores into the archive at path. An existing archive
// is moved to a ".bak" sibling first and restored when the write fails.
func Write(ctx context.Context, path string, stores Stores, logger *slog.Logger) error {
	backup := path + ".bak"
	hadPrior := false
	if _, err := os.Stat(path); err == nil {
		if err := os.Rename(path, backup); err != nil {
			return fmt.Errorf("back up archive: %w", err)
		}
		hadPrior = true
	}

	err := writeNew(ctx, path, stores)
	if err != nil {
		_ = os.Remove(path)
		if hadPrior {
			if rerr := os.Rename(backup, path); rerr != nil {
				logger.Error("restore archive backup failed", "path", backup, "error", rerr)
			} else {
				logger.Warn("archive write failed, prior archive restored", "path", path)
			}
		}
		return err
	}

	if hadPrior {
		_ = os.Remove(backup)
	}
	logger.Debug("archive written", "path", path)
	return nil
}

func writeNew(ctx context.Context, path string, stores Stores) error {
	a, err := Open(path, true)
	if err != nil {
		return err
	}
	defer a.Close()

	if stores.Data != nil {
		if err := a.writeSeries(ctx, stores.Data.All()); err != nil {
			return err
		}
	}
	if stores.Segments != nil {
		for _, name := range stores.Segments.Names() {
			flag, ok := stores.Segments.Get(name)
			if !ok {
				continue
			}
			if err := a.writeFlag(ctx, flag); err != nil {
				return err
			}
		}
	}
	if stores.Triggers != nil {
		var werr error
		stores.Triggers.Each(func(etg, channel string, rows []model.Trigger) {
			if werr == nil {
				werr = a.writeTriggers(ctx, etg, channel, rows)
			}
		})
		if werr != nil {
			return werr
		}
	}
	return nil
}

func (a *Archive) writeSeries(ctx context.Context, series []*model.TimeSeries) error {
	query := `
	INSERT INTO series (channel, epoch, sample_rate, unit, samples)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(channel, epoch) DO UPDATE SET
		sample_rate = excluded.sample_rate,
		unit = excluded.unit,
		samples = excluded.samples
	`
	for _, ts := range series {
		samples, err := json.Marshal(ts.Samples)
		if err != nil {
			return fmt.Errorf("serialize samples for %s: %w", ts.Channel, err)
		}
		if _, err := a.db.ExecContext(ctx, query,
			ts.Channel, ts.Epoch, ts.SampleRate, ts.Unit, string(samples)); err != nil {
			return fmt.Errorf("archive series %s: %w", ts.Channel, err)
		}
	}
	return nil
}

func (a *Archive) writeFlag(ctx context.Context, flag *model.DataQualityFlag) error {
	known, err := json.Marshal(flag.Known)
	if err != nil {
		return fmt.Errorf("serialize flag %s: %w", flag.Name, err)
	}
	active, err := json.Marshal(flag.Active)
	if err != nil {
		return fmt.Errorf("serialize flag %s: %w", flag.Name, err)
	}
	query := `
	INSERT INTO flags (flag, known, active)
	VALUES (?, ?, ?)
	ON CONFLICT(flag) DO UPDATE SET
		known = excluded.known,
		active = excluded.active
	`
	if _, err := a.db.ExecContext(ctx, query, flag.Name, string(known), string(active)); err != nil {
		return fmt.Errorf("archive flag %s: %w", flag.Name, err)
	}
	return nil
}

func (a *Archive) writeTriggers(ctx context.Context, etg, channel string, rows []model.Trigger) error {
	query := `
	INSERT INTO triggers (etg, channel, time, frequency, snr, duration, bandwidth, extra)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	for _, row := range rows {
		var extra string
		if len(row.Extra) > 0 {
			b, err := json.Marshal(row.Extra)
			if err != nil {
				return fmt.Errorf("serialize trigger extras: %w", err)
			}
			extra = string(b)
		}
		if _, err := a.db.ExecContext(ctx, query,
			etg, channel, row.Time, row.Frequency, row.SNR,
			row.Duration, row.Bandwidth, extra); err != nil {
			return fmt.Errorf("archive triggers %s/%s: %w", etg, channel, err)
		}
	}
	return nil
}

// Read loads an archive back into the stores. A missing file is not an
// error; there is simply nothing to restore.
func Read(ctx context.Context, path string, stores Stores, logger *slog.Logger) error {
	if _, err := os.Stat(path); err != nil {
		logger.Debug("no archive to read", "path", path)
		return nil
	}
	a, err := Open(path, false)
	if err != nil {
		return err
	}
	defer a.Close()

	if stores.Data != nil {
		if err := a.readSeries(ctx, stores.Data); err != nil {
			return err
		}
	}
	if stores.Segments != nil {
		if err := a.readFlags(ctx, stores.Segments); err != nil {
			return err
		}
	}
	if stores.Triggers != nil {
		if err := a.readTriggers(ctx, stores.Triggers); err != nil {
			return err
		}
	}
	logger.Debug("archive read", "path", path)
	return nil
}

func (a *Archive) readSeries(ctx context.Context, store *data.Store) error {
	rows, err := a.db.QueryContext(ctx,
		"SELECT channel, epoch, sample_rate, unit, samples FROM series ORDER BY channel, epoch")
	if err != nil {
		return fmt.Errorf("read archived series: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		ts := &model.TimeSeries{}
		var samples string
		if err := rows.Scan(&ts.Channel, &ts.Epoch, &ts.SampleRate, &ts.Unit, &samples); err != nil {
			return fmt.Errorf("scan archived series: %w", err)
		}
		if err := json.Unmarshal([]byte(samples), &ts.Samples); err != nil {
			return fmt.Errorf("parse archived samples for %s: %w", ts.Channel, err)
		}
		store.Add(ts)
	}
	return rows.Err()
}

func (a *Archive) readFlags(ctx context.Context, store *segments.Store) error {
	rows, err := a.db.QueryContext(ctx, "SELECT flag, known, active FROM flags")
	if err != nil {
		return fmt.Errorf("read archived flags: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		flag := &model.DataQualityFlag{}
		var known, active string
		if err := rows.Scan(&flag.Name, &known, &active); err != nil {
			return fmt.Errorf("scan archived flag: %w", err)
		}
		if err := json.Unmarshal([]byte(known), &flag.Known); err != nil {
			return fmt.Errorf("parse archived flag %s: %w", flag.Name, err)
		}
		if err := json.Unmarshal([]byte(active), &flag.Active); err != nil {
			return fmt.Errorf("parse archived flag %s: %w", flag.Name, err)
		}
		store.Add(flag)
	}
	return rows.Err()
}

func (a *Archive) readTriggers(ctx context.Context, store *triggers.Store) error {
	rows, err := a.db.QueryContext(ctx,
		"SELECT etg, channel, time, frequency, snr, duration, bandwidth, extra FROM triggers ORDER BY etg, channel, time")
	if err != nil {
		return fmt.Errorf("read archived triggers: %w", err)
	}
	defer rows.Close()

	pending := make(map[[2]string][]model.Trigger)
	for rows.Next() {
		var etg, channel string
		var extra sql.NullString
		row := model.Trigger{}
		if err := rows.Scan(&etg, &channel, &row.Time, &row.Frequency, &row.SNR,
			&row.Duration, &row.Bandwidth, &extra); err != nil {
			return fmt.Errorf("scan archived trigger: %w", err)
		}
		if extra.Valid && extra.String != "" {
			if err := json.Unmarshal([]byte(extra.String), &row.Extra); err != nil {
				return fmt.Errorf("parse archived trigger extras: %w", err)
			}
		}
		k := [2]string{etg, channel}
		pending[k] = append(pending[k], row)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	for k, trs := range pending {
		store.Add(k[0], k[1], trs)
	}
	return nil
}
