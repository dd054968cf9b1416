package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"challenge-hub/internal/model"
)

type ChallengeRepository struct {
	pool *pgxpool.Pool
}

func NewChallengeRepository(pool *pgxpool.Pool) *ChallengeRepository {
	return &ChallengeRepository{pool: pool}
}

const challengeColumns = `c.id, c.title, c.deadline, c.duration, c.money_prize, c.status,
	        c.contact_email, c.project_description, c.project_brief, c.project_tasks,
	        COALESCE(array_agg(p.user_id::text) FILTER (WHERE p.user_id IS NOT NULL), '{}'),
	        c.created_at, c.updated_at`

const challengeJoin = ` FROM challenges c
	 LEFT JOIN challenge_participants p ON p.challenge_id = c.id`

func scanChallenge(row pgx.Row) (model.Challenge, error) {
	var c model.Challenge
	err := row.Scan(&c.ID, &c.Title, &c.Deadline, &c.Duration, &c.MoneyPrize,
		&c.Status, &c.ContactEmail, &c.ProjectDescription, &c.ProjectBrief,
		&c.ProjectTasks, &c.Participants, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Challenge{}, model.ErrChallengeNotFound
	}
	if err != nil {
		return model.Challenge{}, fmt.Errorf("scan challenge: %w", err)
	}
	return c, nil
}

func (r *ChallengeRepository) FindByID(ctx context.Context, id string) (model.Challenge, error) {
	return scanChallenge(r.pool.QueryRow(ctx,
		`SELECT `+challengeColumns+challengeJoin+` WHERE c.id = $1 GROUP BY c.id`, id))
}

func (r *ChallengeRepository) List(ctx context.Context) ([]model.Challenge, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+challengeColumns+challengeJoin+` GROUP BY c.id ORDER BY c.created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list challenges: %w", err)
	}
	defer rows.Close()

	challenges := make([]model.Challenge, 0)
	for rows.Next() {
		c, err := scanChallenge(rows)
		if err != nil {
			return nil, err
		}
		challenges = append(challenges, c)
	}
	return challenges, rows.Err()
}

func (r *ChallengeRepository) Create(ctx context.Context, c model.Challenge) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO challenges (id, title, deadline, duration, money_prize, status,
		                         contact_email, project_description, project_brief,
		                         project_tasks, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		c.ID, c.Title, c.Deadline, c.Duration, c.MoneyPrize, c.Status,
		c.ContactEmail, c.ProjectDescription, c.ProjectBrief, c.ProjectTasks,
		c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create challenge: %w", err)
	}
	return nil
}

func (r *ChallengeRepository) Update(ctx context.Context, c model.Challenge) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE challenges
		 SET title = $2, deadline = $3, duration = $4, money_prize = $5, status = $6,
		     contact_email = $7, project_description = $8, project_brief = $9,
		     project_tasks = $10, updated_at = $11
		 WHERE id = $1`,
		c.ID, c.Title, c.Deadline, c.Duration, c.MoneyPrize, c.Status,
		c.ContactEmail, c.ProjectDescription, c.ProjectBrief, c.ProjectTasks,
		time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update challenge: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrChallengeNotFound
	}
	return nil
}

func (r *ChallengeRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM challenges WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete challenge: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrChallengeNotFound
	}
	return nil
}

// AddParticipant relies on the composite primary key: a second join attempt
// conflicts and affects zero rows.
func (r *ChallengeRepository) AddParticipant(ctx context.Context, challengeID string, userID string) error {
	tag, err := r.pool.Exec(ctx,
		`INSERT INTO challenge_participants (challenge_id, user_id)
		 VALUES ($1, $2)
		 ON CONFLICT DO NOTHING`,
		challengeID, userID)
	if err != nil {
		return fmt.Errorf("add participant: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrAlreadyJoined
	}
	return nil
}

func (r *ChallengeRepository) RemoveParticipant(ctx context.Context, challengeID string, userID string) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM challenge_participants WHERE challenge_id = $1 AND user_id = $2`,
		challengeID, userID)
	if err != nil {
		return fmt.Errorf("remove participant: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotInChallenge
	}
	return nil
}
