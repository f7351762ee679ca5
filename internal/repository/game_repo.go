package repository

import (
	"fmt"

	"github.com/stp282-cyber/wordtest-oracle-sub001/internal/database"
	"github.com/stp282-cyber/wordtest-oracle-sub001/internal/models"
)

// GameRepository stores mini-game scores
type GameRepository struct {
	db database.Querier
}

// NewGameRepository creates a new game repository
func NewGameRepository(db database.Querier) *GameRepository {
	return &GameRepository{db: db}
}

// WithTx returns a repository bound to tx
func (r *GameRepository) WithTx(tx *database.Tx) *GameRepository {
	return &GameRepository{db: tx}
}

// CreateScore inserts a finished game and sets its ID
func (r *GameRepository) CreateScore(s *models.GameScore) error {
	query := "INSERT INTO game_scores (student_id, game_kind, score, details, created_at) VALUES (?, ?, ?, ?, ?)"
	id, err := r.db.ExecReturningID(query, s.StudentID, string(s.GameKind), s.Score, s.Details, s.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to create game score: %w", err)
	}
	s.ID = id
	return nil
}

// ListScores returns a student's scores newest first
func (r *GameRepository) ListScores(studentID int64) ([]models.GameScore, error) {
	query := `
		SELECT id, student_id, game_kind, score, details, created_at
		FROM game_scores
		WHERE student_id = ?
		ORDER BY id DESC
	`
	rows, err := r.db.Query(query, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query game scores: %w", err)
	}
	defer rows.Close()

	var scores []models.GameScore
	for rows.Next() {
		var s models.GameScore
		if err := rows.Scan(&s.ID, &s.StudentID, &s.GameKind, &s.Score, &s.Details, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan game score: %w", err)
		}
		scores = append(scores, s)
	}
	return scores, rows.Err()
}

// Leaderboard returns each active student's best score for a game
func (r *GameRepository) Leaderboard(kind models.GameKind, limit int) ([]models.LeaderboardEntry, error) {
	query := `
		SELECT g.student_id, s.display_name, MAX(g.score) AS best, COUNT(*)
		FROM game_scores g
		JOIN students s ON s.id = g.student_id
		WHERE g.game_kind = ? AND s.active = ?
		GROUP BY g.student_id, s.display_name
		ORDER BY best DESC, g.student_id ASC
		LIMIT ?
	`
	rows, err := r.db.Query(query, string(kind), true, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query leaderboard: %w", err)
	}
	defer rows.Close()

	var entries []models.LeaderboardEntry
	for rows.Next() {
		var e models.LeaderboardEntry
		if err := rows.Scan(&e.StudentID, &e.DisplayName, &e.BestScore, &e.Plays); err != nil {
			return nil, fmt.Errorf("failed to scan leaderboard entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
