package quiz

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/abhisek/quizmind/internal/apperr"
	"github.com/abhisek/quizmind/internal/model"
	"github.com/abhisek/quizmind/internal/store"
)

// RegisterUser creates a user. Usernames are unique.
func (s *Service) RegisterUser(ctx context.Context, req RegisterUserRequest) (*model.User, error) {
	req.Username = strings.TrimSpace(req.Username)
	if err := s.check(req); err != nil {
		return nil, err
	}
	skill, _ := model.ParseSkill(req.Skill)
	role := model.RoleStudent
	if req.Role != "" {
		role = model.Role(req.Role)
	}

	u := &model.User{
		ID:        uuid.NewString(),
		Username:  req.Username,
		Skill:     skill,
		Role:      role,
		CreatedAt: s.now().UTC(),
	}
	if err := s.st.Users().Create(ctx, u); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, apperr.Conflict("username_taken", fmt.Sprintf("The username %q is already taken.", req.Username))
		}
		return nil, apperr.Storage(err)
	}
	s.log.Info("user registered", "user_id", u.ID, "username", u.Username, "skill", string(u.Skill))
	return u, nil
}

// GetUser returns a user by ID.
func (s *Service) GetUser(ctx context.Context, id string) (*model.User, error) {
	u, err := s.st.Users().Get(ctx, id)
	if err != nil {
		return nil, notFound(err, "user_not_found", "User not found.")
	}
	return u, nil
}

// DeleteUser removes a user together with their sessions, answers,
// leaderboard entries and adaptive profile, then re-ranks every topic the
// user had entries in.
func (s *Service) DeleteUser(ctx context.Context, id string) error {
	entries, err := s.st.Leaderboard().ForUser(ctx, id)
	if err != nil {
		return apperr.Storage(err)
	}
	topics := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		topics[e.Topic] = struct{}{}
	}

	if err := s.st.Users().Delete(ctx, id); err != nil {
		return notFound(err, "user_not_found", "User not found.")
	}
	s.engine.Forget(id)

	for topic := range topics {
		if err := s.board.Rerank(ctx, topic); err != nil {
			s.log.Error("rerank after user deletion failed", "user_id", id, "topic", topic, "error", err)
			return err
		}
	}
	s.log.Info("user deleted", "user_id", id, "topics_reranked", len(topics))
	return nil
}
