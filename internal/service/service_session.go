// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/MKhiriev/go-auth-keeper/internal/logger"
	"github.com/MKhiriev/go-auth-keeper/internal/utils"
	"github.com/MKhiriev/go-auth-keeper/models"
)

// sessionService writes each concern under its own field set so that two
// pending operations never carry the same field:
//
//	tokens    -> access_token, refresh_token
//	profile   -> user
//	timestamp -> timestamp
type sessionService struct {
	syncer Syncer
	state  StateStore

	now    func() time.Time
	logger *logger.Logger
}

func NewSessionService(syncer Syncer, state StateStore, log *logger.Logger) SessionService {
	return &sessionService{
		syncer: syncer,
		state:  state,
		now:    time.Now,
		logger: log.WithStr("service", "session"),
	}
}

func (s *sessionService) Login(ctx context.Context, accessToken, refreshToken string, user models.User) (models.SyncResult, error) {
	tokens, err := tokensPayload(accessToken, refreshToken)
	if err != nil {
		return models.SyncResult{}, err
	}
	profile, err := profilePayload(user)
	if err != nil {
		return models.SyncResult{}, err
	}

	s.syncer.ScheduleSync(profile, models.PriorityLow)
	s.syncer.ScheduleSync(s.timestampPayload(), models.PriorityLow)

	// the forced pass flushes the profile and timestamp along with the tokens
	result := s.syncer.ForceSyncImmediate(ctx, tokens)
	if !result.Success {
		s.logger.Error().
			Err(result.Err()).
			Int64("user_id", user.UserID).
			Msg("login state was not persisted")
		return result, notPersisted(result)
	}

	s.logger.Info().
		Int64("user_id", user.UserID).
		Strs("fallbacks", result.FallbacksUsed).
		Dur("duration", result.Duration).
		Msg("login state persisted")
	return result, nil
}

func (s *sessionService) RefreshTokens(ctx context.Context, accessToken, refreshToken string) error {
	tokens, err := tokensPayload(accessToken, refreshToken)
	if err != nil {
		return err
	}

	s.syncer.ScheduleSync(tokens, models.PriorityHigh)
	s.logger.Debug().Msg("token refresh scheduled")
	return nil
}

func (s *sessionService) UpdateProfile(ctx context.Context, user models.User) error {
	profile, err := profilePayload(user)
	if err != nil {
		return err
	}

	s.syncer.ScheduleSync(profile, models.PriorityLow)
	return nil
}

func (s *sessionService) Touch(ctx context.Context) {
	s.syncer.ScheduleSync(s.timestampPayload(), models.PriorityLow)
}

// Restore returns the freshest value of every field across the backends.
// An access token whose "exp" claim has passed is dropped;
// the refresh token is kept so the caller can rotate the pair.
func (s *sessionService) Restore(ctx context.Context) (models.AuthState, error) {
	payload, source, err := s.state.Read(ctx)
	if err != nil {
		return models.AuthState{}, fmt.Errorf("error reading auth state: %w", err)
	}
	if len(payload) == 0 {
		return models.AuthState{}, ErrNoStoredState
	}

	state := models.AuthState{
		AccessToken:  payload[models.FieldAccessToken],
		RefreshToken: payload[models.FieldRefreshToken],
		Source:       source,
	}

	if raw, ok := payload[models.FieldUser]; ok && raw != "" {
		var user models.User
		if err = json.Unmarshal([]byte(raw), &user); err != nil {
			return models.AuthState{}, fmt.Errorf("%w: user: %v", ErrCorruptedState, err)
		}
		state.User = &user
	}

	if raw, ok := payload[models.FieldTimestamp]; ok && raw != "" {
		syncedAt, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			s.logger.Warn().Err(err).Str("source", source).Msg("ignoring malformed timestamp marker")
		} else {
			state.SyncedAt = syncedAt
		}
	}

	if state.AccessToken != "" {
		token, err := utils.ParseTokenUnverified(state.AccessToken)
		switch {
		case errors.Is(err, utils.ErrNotAJWT):
			// opaque tokens carry no expiry
		case err != nil:
			s.logger.Warn().Err(err).Msg("dropping unparsable access token")
			state.AccessToken = ""
		case token.Expired(s.now()):
			s.logger.Info().Time("expired_at", token.ExpiresAt.Time).Msg("dropping expired access token")
			state.AccessToken = ""
		}
	}

	if state.Empty() {
		return models.AuthState{}, ErrNoStoredState
	}

	s.logger.Debug().Str("source", source).Msg("auth state restored")
	return state, nil
}

func (s *sessionService) Logout(ctx context.Context) error {
	s.syncer.ClearPendingOperations()

	if err := s.state.Delete(ctx); err != nil {
		s.logger.Error().Err(err).Msg("error removing auth state")
		return fmt.Errorf("error removing auth state: %w", err)
	}

	s.logger.Info().Msg("auth state removed")
	return nil
}

func (s *sessionService) Flush(ctx context.Context) (models.SyncResult, error) {
	result := s.syncer.ForceSyncImmediate(ctx, nil)
	if !result.Success {
		return result, notPersisted(result)
	}
	return result, nil
}

func (s *sessionService) DiscardPending(ctx context.Context) {
	dropped := s.syncer.Stats().PendingOperations
	s.syncer.ClearPendingOperations()
	s.logger.Info().Int("dropped", dropped).Msg("pending operations discarded")
}

func (s *sessionService) Stats(ctx context.Context) models.SyncStats {
	return s.syncer.Stats()
}

func (s *sessionService) timestampPayload() models.SyncPayload {
	return models.SyncPayload{models.FieldTimestamp: s.now().UTC().Format(time.RFC3339Nano)}
}

func tokensPayload(accessToken, refreshToken string) (models.SyncPayload, error) {
	if accessToken == "" || refreshToken == "" {
		return nil, fmt.Errorf("%w: both tokens are required", ErrInvalidDataProvided)
	}

	return models.SyncPayload{
		models.FieldAccessToken:  accessToken,
		models.FieldRefreshToken: refreshToken,
	}, nil
}

func profilePayload(user models.User) (models.SyncPayload, error) {
	if user.Login == "" {
		return nil, fmt.Errorf("%w: user login is empty", ErrInvalidDataProvided)
	}

	raw, err := json.Marshal(user)
	if err != nil {
		return nil, fmt.Errorf("error encoding user profile: %w", err)
	}

	return models.SyncPayload{models.FieldUser: string(raw)}, nil
}

func notPersisted(result models.SyncResult) error {
	if err := result.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrStateNotPersisted, err)
	}
	return ErrStateNotPersisted
}
