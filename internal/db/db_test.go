package db

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"payoffquiz/internal/gamedata"
	"payoffquiz/internal/gameerr"
)

func getTestDB(t *testing.T) *DB {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping database tests")
	}
	database, err := Connect(context.Background(), dsn)
	if err != nil {
		t.Fatalf("Connect() error: %v", err)
	}
	if err := database.Migrate(); err != nil {
		t.Fatalf("Migrate() error: %v", err)
	}
	t.Cleanup(func() {
		database.conn.Exec("DELETE FROM submissions")
		database.conn.Exec("DELETE FROM games")
		database.Close()
	})
	return database
}

func TestConnect(t *testing.T) {
	database := getTestDB(t)
	if err := database.Ping(context.Background()); err != nil {
		t.Errorf("Ping() error: %v", err)
	}
}

func TestMigrate(t *testing.T) {
	database := getTestDB(t)

	// Running again is a no-op.
	if err := database.Migrate(); err != nil {
		t.Fatalf("second Migrate() error: %v", err)
	}
	tables := []string{"games", "game_players", "question_results", "submissions"}
	for _, table := range tables {
		var exists bool
		err := database.conn.QueryRow(`
			SELECT EXISTS (SELECT FROM information_schema.tables WHERE table_name = $1)
		`, table).Scan(&exists)
		if err != nil {
			t.Errorf("checking table %s: %v", table, err)
		}
		if !exists {
			t.Errorf("table %s does not exist", table)
		}
	}
}

func TestRecordSubmission(t *testing.T) {
	database := getTestDB(t)
	ctx := context.Background()
	now := time.Now().UTC()

	err := database.RecordSubmission(ctx, gamedata.SubmissionRecord{
		RoomCode: "TST1", PlayerID: "p1", QuestionID: "q1", Index: 0, Round: 1, Choice: "A", At: now,
	})
	if err != nil {
		t.Fatalf("RecordSubmission() error: %v", err)
	}
	batch := []gamedata.SubmissionRecord{
		{RoomCode: "TST1", PlayerID: "p2", QuestionID: "q1", Index: 0, Round: 1, Choice: "B", At: now},
		{RoomCode: "TST1", PlayerID: "p3", QuestionID: "q1", Index: 0, Round: 1, Choice: "A", Default: true, At: now},
	}
	if err := database.BatchRecordSubmissions(ctx, batch); err != nil {
		t.Fatalf("BatchRecordSubmissions() error: %v", err)
	}

	n, err := database.CountSubmissions(ctx, "TST1")
	if err != nil {
		t.Fatalf("CountSubmissions() error: %v", err)
	}
	if n != 3 {
		t.Errorf("count = %d, want 3", n)
	}
}

func TestSaveFinalResult(t *testing.T) {
	database := getTestDB(t)
	ctx := context.Background()
	created := time.Now().UTC().Add(-10 * time.Minute).Truncate(time.Millisecond)

	res := gamedata.FinalResult{
		RoomCode:    "TST2",
		CreatedAt:   created,
		FinishedAt:  created.Add(5 * time.Minute),
		QuestionIDs: []string{"q1", "q2"},
		Leaderboard: []gamedata.Standing{
			{Rank: 1, PlayerID: "p1", Name: "Alice", Score: 7},
			{Rank: 2, PlayerID: "p2", Name: "Bob", Score: 3},
		},
		History: []gamedata.RoundRecord{
			{Index: 0, Round: 1, QuestionID: "q1",
				Choices: map[string]string{"p1": "2", "p2": "3"},
				Base:    map[string]int{"p1": 2, "p2": 3}, Final: map[string]int{"p1": 2, "p2": 3}},
			{Index: 1, Round: 1, QuestionID: "q2",
				Choices: map[string]string{"p1": "5", "p2": "1"},
				Base:    map[string]int{"p1": 5, "p2": 0}, Final: map[string]int{"p1": 5, "p2": 0}},
		},
	}
	if err := database.SaveFinalResult(ctx, res); err != nil {
		t.Fatalf("SaveFinalResult() error: %v", err)
	}

	g, err := database.LatestGame(ctx, "TST2")
	if err != nil {
		t.Fatalf("LatestGame() error: %v", err)
	}
	if len(g.QuestionIDs) != 2 || g.QuestionIDs[1] != "q2" {
		t.Errorf("QuestionIDs = %v", g.QuestionIDs)
	}
	if len(g.Leaderboard) != 2 || g.Leaderboard[0].PlayerID != "p1" || g.Leaderboard[0].Score != 7 {
		t.Errorf("Leaderboard = %+v", g.Leaderboard)
	}

	var rows int
	database.conn.QueryRow(`SELECT count(*) FROM question_results WHERE game_id = $1`, g.ID).Scan(&rows)
	if rows != 4 {
		t.Errorf("question_results rows = %d, want 4", rows)
	}
}

func TestLatestGame_NotFound(t *testing.T) {
	database := getTestDB(t)
	_, err := database.LatestGame(context.Background(), "NONE")
	if !errors.Is(err, gameerr.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}
