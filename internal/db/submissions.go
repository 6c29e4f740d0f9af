package db

import (
	"context"
	"fmt"

	"payoffquiz/internal/gamedata"
)

const insertSubmission = `
	INSERT INTO submissions (room_code, player_id, question_id, question_index, round, choice, is_default, submitted_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
`

func (d *DB) RecordSubmission(ctx context.Context, rec gamedata.SubmissionRecord) error {
	_, err := d.conn.ExecContext(ctx, insertSubmission,
		rec.RoomCode, rec.PlayerID, rec.QuestionID, rec.Index, rec.Round, rec.Choice, rec.Default, rec.At)
	if err != nil {
		return fmt.Errorf("recording submission: %w", err)
	}
	return nil
}

func (d *DB) BatchRecordSubmissions(ctx context.Context, recs []gamedata.SubmissionRecord) error {
	tx, err := d.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, insertSubmission)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, rec := range recs {
		if _, err := stmt.ExecContext(ctx, rec.RoomCode, rec.PlayerID, rec.QuestionID, rec.Index, rec.Round,
			rec.Choice, rec.Default, rec.At); err != nil {
			return fmt.Errorf("recording submission in batch: %w", err)
		}
	}
	return tx.Commit()
}

// CountSubmissions returns how many answers were stored for a room.
func (d *DB) CountSubmissions(ctx context.Context, roomCode string) (int, error) {
	var n int
	err := d.conn.QueryRowContext(ctx, `SELECT count(*) FROM submissions WHERE room_code = $1`, roomCode).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting submissions: %w", err)
	}
	return n, nil
}
