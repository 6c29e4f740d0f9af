package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"payoffquiz/internal/gamedata"
	"payoffquiz/internal/gameerr"
)

type GameRecord struct {
	ID          string
	RoomCode    string
	CreatedAt   time.Time
	FinishedAt  time.Time
	QuestionIDs []string
	Leaderboard []gamedata.Standing
}

// SaveFinalResult stores a finished game, its leaderboard and every scored
// round in one transaction. Games are looked up again by room code.
func (d *DB) SaveFinalResult(ctx context.Context, res gamedata.FinalResult) error {
	tx, err := d.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	id := uuid.NewString()
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO games (id, room_code, created_at, finished_at, question_ids)
		VALUES ($1, $2, $3, $4, $5)
	`, id, res.RoomCode, res.CreatedAt, res.FinishedAt, pq.Array(res.QuestionIDs)); err != nil {
		return fmt.Errorf("inserting game: %w", err)
	}

	for _, s := range res.Leaderboard {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO game_players (game_id, player_id, name, final_score, rank)
			VALUES ($1, $2, $3, $4, $5)
		`, id, s.PlayerID, s.Name, s.Score, s.Rank); err != nil {
			return fmt.Errorf("inserting game player %s: %w", s.PlayerID, err)
		}
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO question_results (game_id, question_index, round, question_id, player_id, choice, base_score, final_score)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()
	for _, rec := range res.History {
		for playerID, final := range rec.Final {
			if _, err := stmt.ExecContext(ctx, id, rec.Index, rec.Round, rec.QuestionID, playerID,
				rec.Choices[playerID], rec.Base[playerID], final); err != nil {
				return fmt.Errorf("inserting result of question %d: %w", rec.Index, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing final result: %w", err)
	}
	d.log.Info().Str("room", res.RoomCode).Str("game", id).Int("rounds", len(res.History)).Msg("final result saved")
	return nil
}

// LatestGame returns the most recently finished game played in a room.
func (d *DB) LatestGame(ctx context.Context, roomCode string) (*GameRecord, error) {
	g := GameRecord{RoomCode: roomCode}
	err := d.conn.QueryRowContext(ctx, `
		SELECT id, created_at, finished_at, question_ids
		FROM games WHERE room_code = $1
		ORDER BY finished_at DESC LIMIT 1
	`, roomCode).Scan(&g.ID, &g.CreatedAt, &g.FinishedAt, pq.Array(&g.QuestionIDs))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: no finished game for %s", gameerr.ErrNotFound, roomCode)
	}
	if err != nil {
		return nil, fmt.Errorf("getting game: %w", err)
	}

	rows, err := d.conn.QueryContext(ctx, `
		SELECT rank, player_id, name, final_score
		FROM game_players WHERE game_id = $1
		ORDER BY rank, player_id
	`, g.ID)
	if err != nil {
		return nil, fmt.Errorf("getting leaderboard: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var s gamedata.Standing
		if err := rows.Scan(&s.Rank, &s.PlayerID, &s.Name, &s.Score); err != nil {
			return nil, err
		}
		g.Leaderboard = append(g.Leaderboard, s)
	}
	return &g, rows.Err()
}
