//go:build integration

package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"govnav/internal/form"
	id "govnav/pkg/domain"
	"govnav/pkg/platform/sentinel"
	"govnav/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	ctx      context.Context
	postgres *containers.PostgresContainer
	store    *PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.ctx = context.Background()
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.Require().NoError(EnsureSchema(s.ctx, s.postgres.DB))
	s.store = NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(s.ctx, "form_sessions"))
}

func (s *PostgresStoreSuite) newSession() form.FormSession {
	session := form.NewSession(id.NewUserID(), "housing_assistance", 2, time.Now().UTC().Truncate(time.Microsecond))
	session.Values["full_name"] = "Ada Lovelace"
	session.Values["household_size"] = 4.0
	session.UserEdited["full_name"] = true
	session.Outcomes["full_name"] = form.Outcome{Valid: true}
	return session
}

func (s *PostgresStoreSuite) TestCreateAndGetRoundTrip() {
	session := s.newSession()
	s.Require().NoError(s.store.Create(s.ctx, session))

	got, err := s.store.Get(s.ctx, session.ID)
	s.Require().NoError(err)
	s.Equal(session.ID, got.ID)
	s.Equal(session.UserID, got.UserID)
	s.Equal(session.ServiceID, got.ServiceID)
	s.Equal(form.StatusDraft, got.Status)
	s.Equal(session.Version, got.Version)
	s.Equal("Ada Lovelace", got.Values["full_name"])
	s.Equal(4.0, got.Values["household_size"])
	s.True(got.UserEdited["full_name"])
	s.True(got.Outcomes["full_name"].Valid)
	s.Nil(got.SubmittedAt)
}

func (s *PostgresStoreSuite) TestCreateDuplicateConflicts() {
	session := s.newSession()
	s.Require().NoError(s.store.Create(s.ctx, session))
	s.ErrorIs(s.store.Create(s.ctx, session), sentinel.ErrConflict)
}

func (s *PostgresStoreSuite) TestGetMissing() {
	_, err := s.store.Get(s.ctx, id.NewSessionID())
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestUpdateVersionCheck() {
	session := s.newSession()
	s.Require().NoError(s.store.Create(s.ctx, session))

	prev := session.Version
	session.Status = form.StatusInProgress
	session.Values["nickname"] = "Ada"
	session.Version++
	s.Require().NoError(s.store.Update(s.ctx, session, prev))

	got, err := s.store.Get(s.ctx, session.ID)
	s.Require().NoError(err)
	s.Equal(form.StatusInProgress, got.Status)
	s.Equal(session.Version, got.Version)

	// A writer still holding the old version loses.
	stale := got.Clone()
	stale.Version++
	s.ErrorIs(s.store.Update(s.ctx, stale, prev), sentinel.ErrConflict)

	missing := form.NewSession(id.NewUserID(), "svc", 1, time.Now())
	s.ErrorIs(s.store.Update(s.ctx, missing, 1), sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestSubmittedAtRoundTrip() {
	session := s.newSession()
	s.Require().NoError(s.store.Create(s.ctx, session))

	prev := session.Version
	submitted := time.Now().UTC().Truncate(time.Microsecond)
	session.Status = form.StatusSubmitted
	session.SubmittedAt = &submitted
	session.Version++
	s.Require().NoError(s.store.Update(s.ctx, session, prev))

	got, err := s.store.Get(s.ctx, session.ID)
	s.Require().NoError(err)
	s.Require().NotNil(got.SubmittedAt)
	s.True(got.SubmittedAt.Equal(submitted))
}

func (s *PostgresStoreSuite) TestListByUserNewestFirst() {
	userID := id.NewUserID()
	older := form.NewSession(userID, "svc", 1, time.Now().UTC().Add(-time.Hour))
	newer := form.NewSession(userID, "svc", 1, time.Now().UTC())
	other := form.NewSession(id.NewUserID(), "svc", 1, time.Now().UTC())
	for _, session := range []form.FormSession{older, newer, other} {
		s.Require().NoError(s.store.Create(s.ctx, session))
	}

	sessions, err := s.store.ListByUser(s.ctx, userID)
	s.Require().NoError(err)
	s.Require().Len(sessions, 2)
	s.Equal(newer.ID, sessions[0].ID)
	s.Equal(older.ID, sessions[1].ID)
}
