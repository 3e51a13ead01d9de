// Package history keeps a local record of every submission attempt.
package history

import (
	"bikelog/internal/history/db"
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

type Attempt struct {
	RunID        string
	Time         time.Time
	Outcome      string
	SSID         string
	LoginStatus  int
	SubmitStatus int
	// notification / success messages or the error that ended the attempt
	Detail string
}

type Store struct {
	db  *sql.DB
	qry *db.Queries
}

func NewStore(database *sql.DB) Store {
	return Store{
		db:  database,
		qry: db.New(database),
	}
}

// Open opens (and creates if needed) the sqlite database at `path`.
func Open(path string) (Store, error) {
	database, err := sql.Open("sqlite", path)
	if err != nil {
		return Store{}, err
	}
	// a single connection keeps ":memory:" databases consistent
	database.SetMaxOpenConns(1)

	_, err = database.Exec(db.Schema)
	if err != nil && !strings.Contains(err.Error(), "already exists") {
		database.Close()
		return Store{}, fmt.Errorf("apply history schema: %w", err)
	}
	return NewStore(database), nil
}

func (s Store) Close() error {
	return s.db.Close()
}

func (s Store) Record(ctx context.Context, a Attempt) error {
	return s.qry.CreateAttempt(ctx, db.CreateAttemptParams{
		Runid:        a.RunID,
		Attemptedat:  a.Time.Unix(),
		Outcome:      a.Outcome,
		Ssid:         a.SSID,
		Loginstatus:  int64(a.LoginStatus),
		Submitstatus: int64(a.SubmitStatus),
		Detail:       a.Detail,
	})
}

// Recent returns up to `limit` attempts, newest first.
func (s Store) Recent(ctx context.Context, limit int) ([]Attempt, error) {
	rows, err := s.qry.ListAttempts(ctx, int64(limit))
	if err != nil {
		return nil, err
	}

	out := make([]Attempt, len(rows))
	for i, r := range rows {
		out[i] = Attempt{
			RunID:        r.Runid,
			Time:         time.Unix(r.Attemptedat, 0),
			Outcome:      r.Outcome,
			SSID:         r.Ssid,
			LoginStatus:  int(r.Loginstatus),
			SubmitStatus: int(r.Submitstatus),
			Detail:       r.Detail,
		}
	}
	return out, nil
}
