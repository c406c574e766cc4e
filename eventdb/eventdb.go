// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package eventdb persists committed staker events in sqlite.
package eventdb

import (
	"context"
	"database/sql"
	"encoding/json"

	sqlite3 "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"github.com/vechain/stakeweight/builtin/staker/events"
	"github.com/vechain/stakeweight/log"
	"github.com/vechain/stakeweight/metrics"
	"github.com/vechain/stakeweight/thor"
)

const eventTableSchema = `CREATE TABLE IF NOT EXISTS event (
	seq INTEGER PRIMARY KEY AUTOINCREMENT,
	blockNumber INTEGER NOT NULL,
	eventIndex INTEGER NOT NULL,
	address BLOB(20) NOT NULL,
	topic BLOB(32) NOT NULL,
	name TEXT NOT NULL,
	args TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS eventBlockIndex ON event(blockNumber, eventIndex);
CREATE INDEX IF NOT EXISTS eventAddressIndex ON event(address);
CREATE INDEX IF NOT EXISTS eventTopicIndex ON event(topic);
`

var (
	logger              = log.WithContext("pkg", "eventdb")
	metricEventsWritten = metrics.LazyLoadCounter("eventdb_events_written_count")
)

type EventDB struct {
	path          string
	db            *sql.DB
	driverVersion string
}

// New creates or opens the event db at path.
func New(path string) (edb *EventDB, err error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if edb == nil {
			db.Close()
		}
	}()
	// a single connection keeps ":memory:" databases shared
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(eventTableSchema); err != nil {
		return nil, errors.Wrap(err, "create schema")
	}
	driverVer, _, _ := sqlite3.Version()
	logger.Debug("event db opened", "path", path, "sqlite", driverVer)
	return &EventDB{path: path, db: db, driverVersion: driverVer}, nil
}

// NewMem creates an in-memory event db.
func NewMem() (*EventDB, error) {
	return New(":memory:")
}

func (db *EventDB) Close() error {
	return db.db.Close()
}

func (db *EventDB) Path() string {
	return db.path
}

func (db *EventDB) DriverVersion() string {
	return db.driverVersion
}

// Write stores the events committed at blockNumber in one transaction.
func (db *EventDB) Write(ctx context.Context, blockNumber uint32, evs []*events.Event) error {
	if len(evs) == 0 {
		return nil
	}
	tx, err := db.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO event(blockNumber, eventIndex, address, topic, name, args) VALUES(?,?,?,?,?,?)")
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, ev := range evs {
		args, err := json.Marshal(ev.Args)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, blockNumber, i, ev.Address.Bytes(), ev.Topic.Bytes(), ev.Name, string(args)); err != nil {
			return errors.Wrapf(err, "insert event %v", ev.Name)
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	metricEventsWritten().Add(int64(len(evs)))
	return nil
}

// Filter queries events, ordered by block and index.
func (db *EventDB) Filter(ctx context.Context, filter *Filter) ([]*Event, error) {
	stmt := "SELECT blockNumber, eventIndex, address, topic, name, args FROM event WHERE 1"
	var args []any
	if filter == nil {
		filter = &Filter{}
	}
	if filter.Address != nil {
		stmt += " AND address = ?"
		args = append(args, filter.Address.Bytes())
	}
	if filter.Topic != nil {
		stmt += " AND topic = ?"
		args = append(args, filter.Topic.Bytes())
	}
	if filter.Range != nil {
		stmt += " AND blockNumber >= ?"
		args = append(args, filter.Range.From)
		if filter.Range.To >= filter.Range.From {
			stmt += " AND blockNumber <= ?"
			args = append(args, filter.Range.To)
		}
	}
	if filter.Order == DESC {
		stmt += " ORDER BY blockNumber DESC, eventIndex DESC"
	} else {
		stmt += " ORDER BY blockNumber ASC, eventIndex ASC"
	}
	if filter.Options != nil {
		stmt += " LIMIT ?, ?"
		args = append(args, filter.Options.Offset, filter.Options.Limit)
	}
	return db.query(ctx, stmt, args...)
}

func (db *EventDB) query(ctx context.Context, stmt string, args ...any) ([]*Event, error) {
	rows, err := db.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Event
	for rows.Next() {
		var (
			ev          Event
			addr, topic []byte
			encodedArgs string
		)
		if err := rows.Scan(&ev.BlockNumber, &ev.Index, &addr, &topic, &ev.Name, &encodedArgs); err != nil {
			return nil, err
		}
		ev.Address = thor.BytesToAddress(addr)
		ev.Topic = thor.BytesToBytes32(topic)
		if err := json.Unmarshal([]byte(encodedArgs), &ev.Args); err != nil {
			return nil, errors.Wrap(err, "decode args")
		}
		out = append(out, &ev)
	}
	return out, rows.Err()
}

// LatestBlock returns the highest block number holding events, or 0 when empty.
func (db *EventDB) LatestBlock(ctx context.Context) (uint32, error) {
	var n sql.NullInt64
	if err := db.db.QueryRowContext(ctx, "SELECT MAX(blockNumber) FROM event").Scan(&n); err != nil {
		return 0, err
	}
	return uint32(n.Int64), nil
}
