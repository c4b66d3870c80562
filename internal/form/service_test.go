package form_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"govnav/internal/catalog"
	"govnav/internal/form"
	"govnav/internal/form/store"
	id "govnav/pkg/domain"
	dErrors "govnav/pkg/domain-errors"
)

type fakeExtractor struct {
	fields []form.ExtractedField
	err    error
}

func (f *fakeExtractor) GetExtractedFields(_ context.Context, _ id.DocumentID) ([]form.ExtractedField, error) {
	return f.fields, f.err
}

type fakeProfileReader struct {
	fields map[id.FieldID]form.FieldValue
	err    error
}

func (f *fakeProfileReader) GetProfileFields(_ context.Context, _ id.UserID) (map[id.FieldID]form.FieldValue, error) {
	return f.fields, f.err
}

type ServiceSuite struct {
	suite.Suite
	ctx       context.Context
	store     *store.MemoryStore
	extractor *fakeExtractor
	profiles  *fakeProfileReader
	service   *form.Service
	userID    id.UserID
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	svc := &catalog.ServiceDefinition{
		ID:       "housing_assistance",
		Category: "housing",
		Requirements: []catalog.Requirement{
			{
				ID: "req_age", Type: catalog.RequirementAge, Mandatory: true,
				Condition: catalog.Condition{Field: "age", Operator: catalog.OpGte, Value: catalog.IntValue(18)},
			},
		},
	}
	minLen := 2
	formDef := &catalog.FormDefinition{
		ServiceID: "housing_assistance",
		Version:   3,
		Steps: []catalog.Step{
			{
				ID: "applicant",
				Fields: []catalog.Field{
					{ID: "full_name", Type: catalog.FieldText, Required: true, Rules: catalog.ValidationRules{MinLength: &minLen}},
					{ID: "birth_date", Type: catalog.FieldDate, Required: true},
					{ID: "nickname", Type: catalog.FieldText},
				},
			},
		},
	}
	snapshot, err := catalog.NewSnapshot([]*catalog.ServiceDefinition{svc}, []*catalog.FormDefinition{formDef})
	s.Require().NoError(err)

	index := catalog.NewIndex()
	index.Publish(snapshot)

	s.ctx = context.Background()
	s.store = store.NewMemory()
	s.extractor = &fakeExtractor{}
	s.profiles = &fakeProfileReader{}
	s.service = form.NewService(index, s.store,
		form.WithExtractor(s.extractor),
		form.WithProfileReader(s.profiles),
	)
	s.userID = id.NewUserID()
}

func (s *ServiceSuite) startSession() form.FormSession {
	session, err := s.service.StartForm(s.ctx, s.userID, "housing_assistance")
	s.Require().NoError(err)
	return session
}

func (s *ServiceSuite) TestStartForm() {
	session := s.startSession()

	s.Equal(form.StatusDraft, session.Status)
	s.Equal(3, session.FormVersion)
	s.Equal(int64(1), session.Version)

	stored, err := s.store.Get(s.ctx, session.ID)
	s.Require().NoError(err)
	s.Equal(session.ID, stored.ID)
}

func (s *ServiceSuite) TestStartFormUnknownService() {
	_, err := s.service.StartForm(s.ctx, s.userID, "no_such_service")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ServiceSuite) TestStartFormRequiresUser() {
	_, err := s.service.StartForm(s.ctx, id.UserID{}, "housing_assistance")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func (s *ServiceSuite) TestUpdateFieldAccepted() {
	session := s.startSession()

	res, err := s.service.UpdateField(s.ctx, session.ID, "full_name", "Ada Lovelace", session.Version)
	s.Require().NoError(err)
	s.True(res.Applied)
	s.True(res.Outcome.Valid)
	s.Equal(session.Version+1, res.Session.Version)
	s.Equal(form.StatusInProgress, res.Session.Status)
	s.True(res.Session.UserEdited["full_name"])
}

func (s *ServiceSuite) TestUpdateFieldStaleVersion() {
	session := s.startSession()

	_, err := s.service.UpdateField(s.ctx, session.ID, "full_name", "Ada", session.Version)
	s.Require().NoError(err)

	_, err = s.service.UpdateField(s.ctx, session.ID, "full_name", "Grace", session.Version)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
}

func (s *ServiceSuite) TestUpdateFieldRejectedLeavesSessionUnchanged() {
	session := s.startSession()

	res, err := s.service.UpdateField(s.ctx, session.ID, "full_name", "A", session.Version)
	s.Require().NoError(err)
	s.False(res.Applied)
	s.False(res.Outcome.Valid)

	stored, err := s.store.Get(s.ctx, session.ID)
	s.Require().NoError(err)
	s.Equal(session.Version, stored.Version)
	s.NotContains(stored.Values, id.FieldID("full_name"))
	s.Equal(form.StatusDraft, stored.Status)
}

func (s *ServiceSuite) TestUpdateFieldUnknownField() {
	session := s.startSession()

	_, err := s.service.UpdateField(s.ctx, session.ID, "shoe_size", "44", session.Version)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
}

func (s *ServiceSuite) TestUpdateFieldClosedSession() {
	session := s.startSession()
	prev := session.Version
	session.Status = form.StatusSubmitted
	session.Version++
	s.Require().NoError(s.store.Update(s.ctx, session, prev))

	_, err := s.service.UpdateField(s.ctx, session.ID, "full_name", "Ada", session.Version)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeSessionClosed))
}

func (s *ServiceSuite) TestUpdateFieldUnknownSession() {
	_, err := s.service.UpdateField(s.ctx, id.NewSessionID(), "full_name", "Ada", 1)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ServiceSuite) TestValidateFormPromotesAndDemotes() {
	session := s.startSession()

	res, err := s.service.UpdateField(s.ctx, session.ID, "full_name", "Ada Lovelace", session.Version)
	s.Require().NoError(err)
	res, err = s.service.UpdateField(s.ctx, session.ID, "birth_date", "1990-06-15", res.Session.Version)
	s.Require().NoError(err)

	result, err := s.service.ValidateForm(s.ctx, session.ID)
	s.Require().NoError(err)
	s.True(result.Valid)
	s.Equal(100, result.Progress)

	stored, err := s.store.Get(s.ctx, session.ID)
	s.Require().NoError(err)
	s.Equal(form.StatusReadyForReview, stored.Status)

	// Any edit demotes the session until validation passes again.
	res, err = s.service.UpdateField(s.ctx, session.ID, "nickname", "Ada", stored.Version)
	s.Require().NoError(err)
	s.Equal(form.StatusInProgress, res.Session.Status)
}

func (s *ServiceSuite) TestValidateFormIncompleteStaysPut() {
	session := s.startSession()

	result, err := s.service.ValidateForm(s.ctx, session.ID)
	s.Require().NoError(err)
	s.False(result.Valid)
	s.Equal(0, result.Progress)
	s.Contains(result.Fields[id.FieldID("full_name")].Errors, "missing required field")

	stored, err := s.store.Get(s.ctx, session.ID)
	s.Require().NoError(err)
	s.Equal(form.StatusDraft, stored.Status)
	s.Equal(session.Version, stored.Version)
}

func (s *ServiceSuite) TestGetState() {
	session := s.startSession()
	res, err := s.service.UpdateField(s.ctx, session.ID, "full_name", "Ada", session.Version)
	s.Require().NoError(err)

	state, err := s.service.GetState(s.ctx, session.ID)
	s.Require().NoError(err)
	s.Equal(res.Session.Version, state.Session.Version)
	s.Equal(50, state.Progress)
}

func (s *ServiceSuite) TestListSessions() {
	first := s.startSession()
	second := s.startSession()
	other, err := s.service.StartForm(s.ctx, id.NewUserID(), "housing_assistance")
	s.Require().NoError(err)

	sessions, err := s.service.ListSessions(s.ctx, s.userID)
	s.Require().NoError(err)
	s.Require().Len(sessions, 2)

	ids := []id.SessionID{sessions[0].ID, sessions[1].ID}
	s.Contains(ids, first.ID)
	s.Contains(ids, second.ID)
	s.NotContains(ids, other.ID)
}

func (s *ServiceSuite) TestAutoFillFromDocument() {
	session := s.startSession()
	s.extractor.fields = []form.ExtractedField{
		{FieldID: "full_name", Value: "Ada Lovelace", Confidence: 0.95},
		{FieldID: "birth_date", Value: "1990-06-15", Confidence: 0.9},
	}

	res, err := s.service.AutoFill(s.ctx, session.ID, form.AutoFillSource{Type: form.SourceDocument, DocumentID: id.NewDocumentID()})
	s.Require().NoError(err)
	s.Equal([]id.FieldID{"birth_date", "full_name"}, res.Applied)
	s.Empty(res.Skipped)
	s.Equal(form.StatusInProgress, res.Session.Status)

	// Auto-filled fields are not user edits; a later pass may refine them.
	s.False(res.Session.UserEdited["full_name"])
}

func (s *ServiceSuite) TestAutoFillSkipReasons() {
	session := s.startSession()

	res, err := s.service.UpdateField(s.ctx, session.ID, "full_name", "Grace Hopper", session.Version)
	s.Require().NoError(err)
	current := res.Session

	s.extractor.fields = []form.ExtractedField{
		{FieldID: "full_name", Value: "Ada Lovelace", Confidence: 0.95},
		{FieldID: "shoe_size", Value: "44", Confidence: 0.95},
		{FieldID: "nickname", Value: "Ada", Confidence: 0.2},
		{FieldID: "birth_date", Value: "not-a-date", Confidence: 0.95},
	}

	fill, err := s.service.AutoFill(s.ctx, session.ID, form.AutoFillSource{Type: form.SourceDocument, DocumentID: id.NewDocumentID()})
	s.Require().NoError(err)
	s.Empty(fill.Applied)
	s.Equal(map[id.FieldID]string{
		"full_name":  "user_edited",
		"shoe_size":  "unknown_field",
		"nickname":   "low_confidence",
		"birth_date": "invalid",
	}, fill.Skipped)

	// Nothing applied, so nothing was persisted.
	stored, err := s.store.Get(s.ctx, session.ID)
	s.Require().NoError(err)
	s.Equal(current.Version, stored.Version)
	s.Equal("Grace Hopper", stored.Values["full_name"])
}

func (s *ServiceSuite) TestAutoFillFromProfile() {
	session := s.startSession()
	s.profiles.fields = map[id.FieldID]form.FieldValue{"full_name": "Ada Lovelace"}

	res, err := s.service.AutoFill(s.ctx, session.ID, form.AutoFillSource{Type: form.SourceProfile})
	s.Require().NoError(err)
	s.Equal([]id.FieldID{"full_name"}, res.Applied)
	s.Equal("Ada Lovelace", res.Session.Values["full_name"])
}

func (s *ServiceSuite) TestAutoFillExtractorFailure() {
	session := s.startSession()
	s.extractor.err = errors.New("ocr backend down")

	_, err := s.service.AutoFill(s.ctx, session.ID, form.AutoFillSource{Type: form.SourceDocument, DocumentID: id.NewDocumentID()})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeUnavailable))
}

func (s *ServiceSuite) TestAutoFillExtractorTimeout() {
	session := s.startSession()
	s.extractor.err = context.DeadlineExceeded

	_, err := s.service.AutoFill(s.ctx, session.ID, form.AutoFillSource{Type: form.SourceDocument, DocumentID: id.NewDocumentID()})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeTimeout))
}

func (s *ServiceSuite) TestAutoFillRequiresDocumentID() {
	session := s.startSession()

	_, err := s.service.AutoFill(s.ctx, session.ID, form.AutoFillSource{Type: form.SourceDocument})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func (s *ServiceSuite) TestAutoFillUnknownSource() {
	session := s.startSession()

	_, err := s.service.AutoFill(s.ctx, session.ID, form.AutoFillSource{Type: "telepathy"})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
}

func (s *ServiceSuite) TestAutoFillClosedSession() {
	session := s.startSession()
	prev := session.Version
	session.Status = form.StatusSubmitted
	session.Version++
	s.Require().NoError(s.store.Update(s.ctx, session, prev))

	_, err := s.service.AutoFill(s.ctx, session.ID, form.AutoFillSource{Type: form.SourceProfile})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeSessionClosed))
}

func TestUpdateFieldAdvancesCurrentStep(t *testing.T) {
	svc := &catalog.ServiceDefinition{ID: "multi_step"}
	formDef := &catalog.FormDefinition{
		ServiceID: "multi_step",
		Version:   1,
		Steps: []catalog.Step{
			{ID: "identity", Fields: []catalog.Field{
				{ID: "full_name", Type: catalog.FieldText, Required: true},
			}},
			{ID: "details", Fields: []catalog.Field{
				{ID: "birth_date", Type: catalog.FieldDate, Required: true},
				{ID: "nickname", Type: catalog.FieldText},
			}},
		},
	}
	snapshot, err := catalog.NewSnapshot([]*catalog.ServiceDefinition{svc}, []*catalog.FormDefinition{formDef})
	require.NoError(t, err)
	index := catalog.NewIndex()
	index.Publish(snapshot)
	service := form.NewService(index, store.NewMemory())

	ctx := context.Background()
	session, err := service.StartForm(ctx, id.NewUserID(), "multi_step")
	require.NoError(t, err)
	assert.Equal(t, 0, session.CurrentStep)

	res, err := service.UpdateField(ctx, session.ID, "full_name", "Ada Lovelace", session.Version)
	require.NoError(t, err)
	require.True(t, res.Applied)
	assert.Equal(t, 1, res.Session.CurrentStep)

	res, err = service.UpdateField(ctx, session.ID, "birth_date", "1990-06-15", res.Session.Version)
	require.NoError(t, err)
	require.True(t, res.Applied)
	// All required fields satisfied; the session stays on the last step.
	assert.Equal(t, 1, res.Session.CurrentStep)

	state, err := service.GetState(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, state.Session.CurrentStep)
}
