package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"challenge-hub/internal/cache"
	"challenge-hub/internal/model"
)

const challengesAllKey = "challenges:all"

func challengeKey(id string) string { return "challenge:" + id }

// ChallengeService is thin CRUD over the challenge store with a cache-aside
// read path. Writes invalidate the entity key and the collection key; a
// cache fault degrades to a store read, never to a failed request.
type ChallengeService struct {
	store ChallengeStore
	cache *cache.Cache
	now   func() time.Time
}

func NewChallengeService(store ChallengeStore, c *cache.Cache) *ChallengeService {
	return &ChallengeService{store: store, cache: c, now: time.Now}
}

func (s *ChallengeService) Create(ctx context.Context, req model.CreateChallengeRequest, deadline time.Time) (model.Challenge, error) {
	now := s.now().UTC()
	challenge := model.Challenge{
		ID:                 uuid.NewString(),
		Title:              req.Title,
		Deadline:           deadline,
		Duration:           req.Duration,
		MoneyPrize:         req.MoneyPrize,
		Status:             model.ChallengeOpen,
		ContactEmail:       req.ContactEmail,
		ProjectDescription: req.ProjectDescription,
		ProjectBrief:       req.ProjectBrief,
		ProjectTasks:       req.ProjectTasks,
		Participants:       []string{},
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	if err := s.store.Create(ctx, challenge); err != nil {
		return model.Challenge{}, err
	}

	s.invalidate(ctx, challengesAllKey)
	return challenge, nil
}

func (s *ChallengeService) Edit(ctx context.Context, id string, req model.EditChallengeRequest, deadline *time.Time) (model.Challenge, error) {
	challenge, err := s.store.FindByID(ctx, id)
	if err != nil {
		return model.Challenge{}, err
	}

	if req.Status != nil && *req.Status != challenge.Status {
		if !model.ValidStatusTransition(challenge.Status, *req.Status) {
			return model.Challenge{}, model.ErrInvalidTransition
		}
		challenge.Status = *req.Status
	}
	if req.Title != nil {
		challenge.Title = *req.Title
	}
	if deadline != nil {
		challenge.Deadline = *deadline
	}
	if req.Duration != nil {
		challenge.Duration = *req.Duration
	}
	if req.MoneyPrize != nil {
		challenge.MoneyPrize = *req.MoneyPrize
	}
	if req.ContactEmail != nil {
		challenge.ContactEmail = *req.ContactEmail
	}
	if req.ProjectDescription != nil {
		challenge.ProjectDescription = *req.ProjectDescription
	}
	if req.ProjectBrief != nil {
		challenge.ProjectBrief = *req.ProjectBrief
	}
	if req.ProjectTasks != nil {
		challenge.ProjectTasks = *req.ProjectTasks
	}
	challenge.UpdatedAt = s.now().UTC()

	if err := s.store.Update(ctx, challenge); err != nil {
		return model.Challenge{}, err
	}

	s.refresh(ctx, challenge)
	s.invalidate(ctx, challengesAllKey)
	return challenge, nil
}

func (s *ChallengeService) Delete(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}

	s.invalidate(ctx, challengeKey(id), challengesAllKey)
	return nil
}

func (s *ChallengeService) Find(ctx context.Context, id string) (model.Challenge, error) {
	var cached model.Challenge
	if err := s.cache.Get(ctx, challengeKey(id), &cached); err == nil {
		return cached, nil
	}

	challenge, err := s.store.FindByID(ctx, id)
	if err != nil {
		return model.Challenge{}, err
	}

	s.refresh(ctx, challenge)
	return challenge, nil
}

func (s *ChallengeService) List(ctx context.Context) ([]model.Challenge, error) {
	var cached []model.Challenge
	if err := s.cache.Get(ctx, challengesAllKey, &cached); err == nil {
		return cached, nil
	}

	challenges, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}

	if len(challenges) > 0 {
		if err := s.cache.Set(ctx, challengesAllKey, challenges); err != nil {
			slog.Warn("cache populate failed", "key", challengesAllKey, "error", err)
		}
	}
	return challenges, nil
}

// Join checks the lifecycle gate against the store, not the cache: a stale
// cached "open" must not admit participants into a closed challenge.
func (s *ChallengeService) Join(ctx context.Context, userID string, challengeID string) (model.Challenge, error) {
	challenge, err := s.store.FindByID(ctx, challengeID)
	if err != nil {
		return model.Challenge{}, err
	}
	if challenge.Status != model.ChallengeOpen {
		return model.Challenge{}, model.ErrChallengeNotOpen
	}

	if err := s.store.AddParticipant(ctx, challengeID, userID); err != nil {
		return model.Challenge{}, err
	}

	s.invalidate(ctx, challengeKey(challengeID), challengesAllKey)
	return s.store.FindByID(ctx, challengeID)
}

func (s *ChallengeService) Leave(ctx context.Context, userID string, challengeID string) error {
	if _, err := s.store.FindByID(ctx, challengeID); err != nil {
		return err
	}

	if err := s.store.RemoveParticipant(ctx, challengeID, userID); err != nil {
		return err
	}

	s.invalidate(ctx, challengeKey(challengeID), challengesAllKey)
	return nil
}

func (s *ChallengeService) refresh(ctx context.Context, challenge model.Challenge) {
	if err := s.cache.Set(ctx, challengeKey(challenge.ID), challenge); err != nil {
		slog.Warn("cache populate failed", "key", challengeKey(challenge.ID), "error", err)
	}
}

func (s *ChallengeService) invalidate(ctx context.Context, keys ...string) {
	if err := s.cache.Delete(ctx, keys...); err != nil {
		slog.Warn("cache invalidate failed", "keys", keys, "error", err)
	}
}
