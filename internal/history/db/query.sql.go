package db

import (
	"context"
)

type Attempt struct {
	ID           int64
	Runid        string
	Attemptedat  int64
	Outcome      string
	Ssid         string
	Loginstatus  int64
	Submitstatus int64
	Detail       string
}

const createAttempt = `-- name: CreateAttempt :exec
insert into Attempt(runId, attemptedAt, outcome, ssid, loginStatus, submitStatus, detail)
values (?, ?, ?, ?, ?, ?, ?)
`

type CreateAttemptParams struct {
	Runid        string
	Attemptedat  int64
	Outcome      string
	Ssid         string
	Loginstatus  int64
	Submitstatus int64
	Detail       string
}

func (q *Queries) CreateAttempt(ctx context.Context, arg CreateAttemptParams) error {
	_, err := q.db.ExecContext(ctx, createAttempt,
		arg.Runid,
		arg.Attemptedat,
		arg.Outcome,
		arg.Ssid,
		arg.Loginstatus,
		arg.Submitstatus,
		arg.Detail,
	)
	return err
}

const listAttempts = `-- name: ListAttempts :many
select id, runId, attemptedAt, outcome, ssid, loginStatus, submitStatus, detail from Attempt
order by attemptedAt desc, id desc
limit ?
`

func (q *Queries) ListAttempts(ctx context.Context, limit int64) ([]Attempt, error) {
	rows, err := q.db.QueryContext(ctx, listAttempts, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Attempt
	for rows.Next() {
		var i Attempt
		if err := rows.Scan(
			&i.ID,
			&i.Runid,
			&i.Attemptedat,
			&i.Outcome,
			&i.Ssid,
			&i.Loginstatus,
			&i.Submitstatus,
			&i.Detail,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
