package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/richwell-portal/registrar-api/internal/models"
	"github.com/richwell-portal/registrar-api/internal/repository"
	appErrors "github.com/richwell-portal/registrar-api/pkg/errors"
)

type mockEnrollStore struct {
	existing          *models.Enrollment
	past              []models.EnrollmentDetail
	deleted           []string
	confirmed         *models.Enrollment
	confirmedAttempts []models.SubjectAttempt
	confirmErr        error
}

func (m *mockEnrollStore) FindByStudentAndTerm(ctx context.Context, studentID, termID string) (*models.Enrollment, error) {
	return m.existing, nil
}

func (m *mockEnrollStore) ListPastByStudent(ctx context.Context, studentID, excludeTermID string) ([]models.EnrollmentDetail, error) {
	return m.past, nil
}

func (m *mockEnrollStore) Delete(ctx context.Context, id string) error {
	m.deleted = append(m.deleted, id)
	m.existing = nil
	return nil
}

func (m *mockEnrollStore) ConfirmWithAttempts(ctx context.Context, enrollment *models.Enrollment, attempts []models.SubjectAttempt) error {
	if m.confirmErr != nil {
		return m.confirmErr
	}
	enrollment.ID = "enr-new"
	m.confirmed = enrollment
	m.confirmedAttempts = attempts
	return nil
}

type mockEnrollAttempts struct {
	attempts    []models.SubjectAttempt
	ungraded    map[string][]models.SubjectAttemptDetail
	countByTerm map[string]int
}

func (m *mockEnrollAttempts) ListByStudent(ctx context.Context, studentID string, statusIn ...models.AttemptStatus) ([]models.SubjectAttempt, error) {
	return m.attempts, nil
}

func (m *mockEnrollAttempts) ListDetailByStudentAndTerm(ctx context.Context, studentID, termID string) ([]models.SubjectAttemptDetail, error) {
	return nil, nil
}

func (m *mockEnrollAttempts) ListUngraded(ctx context.Context, studentID, termID string) ([]models.SubjectAttemptDetail, error) {
	return m.ungraded[termID], nil
}

func (m *mockEnrollAttempts) CountByStudentAndTerm(ctx context.Context, studentID, termID string) (int, error) {
	return m.countByTerm[termID], nil
}

type mockFlags struct{ open bool }

func (m *mockFlags) GetBool(ctx context.Context, key string) (bool, error) {
	return m.open, nil
}

type mockEnrollSubjects struct{ subjects []models.Subject }

func (m *mockEnrollSubjects) FindByIDs(ctx context.Context, ids []string) ([]models.Subject, error) {
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var out []models.Subject
	for _, s := range m.subjects {
		if want[s.ID] {
			out = append(out, s)
		}
	}
	return out, nil
}

type mockSections struct {
	sections   map[string]*models.Section
	professors map[string]*string
}

func (m *mockSections) FindForSubject(ctx context.Context, subjectID, termID string) (*models.Section, error) {
	return m.sections[subjectID], nil
}

func (m *mockSections) FirstProfessor(ctx context.Context, sectionID string) (*string, error) {
	return m.professors[sectionID], nil
}

type stubPrereqs struct{ blocked map[string]models.EligibilityResult }

func (s *stubPrereqs) Check(ctx context.Context, student *models.StudentDetail, subjectID string, passingGrade *float64) (models.EligibilityResult, error) {
	if result, ok := s.blocked[subjectID]; ok {
		return result, nil
	}
	return models.EligibilityResult{SubjectID: subjectID, CanTake: true}, nil
}

type stubLevels struct{ level models.CurriculumLevel }

func (s *stubLevels) CurrentLevel(ctx context.Context, student *models.StudentDetail) (models.CurriculumLevel, error) {
	return s.level, nil
}

type mockAuditRecorder struct{ trails []models.AuditTrail }

func (m *mockAuditRecorder) Record(ctx context.Context, trail models.AuditTrail) {
	m.trails = append(m.trails, trail)
}

type enrollFixture struct {
	store    *mockEnrollStore
	attempts *mockEnrollAttempts
	flags    *mockFlags
	subjects *mockEnrollSubjects
	sections *mockSections
	prereqs  *stubPrereqs
	levels   *stubLevels
	audit    *mockAuditRecorder
}

func newEnrollFixture() *enrollFixture {
	return &enrollFixture{
		store:    &mockEnrollStore{},
		attempts: &mockEnrollAttempts{ungraded: map[string][]models.SubjectAttemptDetail{}, countByTerm: map[string]int{}},
		flags:    &mockFlags{open: true},
		subjects: &mockEnrollSubjects{},
		sections: &mockSections{sections: map[string]*models.Section{}, professors: map[string]*string{}},
		prereqs:  &stubPrereqs{blocked: map[string]models.EligibilityResult{}},
		levels:   &stubLevels{level: models.CurriculumLevel{Year: 1, TermNo: 1}},
		audit:    &mockAuditRecorder{},
	}
}

func (f *enrollFixture) service() *EnrollmentService {
	return NewEnrollmentService(f.store, f.attempts, f.flags, f.subjects, f.sections, f.prereqs, f.levels, f.audit, nil, zap.NewNop())
}

func activeStudent() *models.StudentDetail {
	curriculumID := "cur-1"
	return &models.StudentDetail{
		Student: models.Student{
			ID:           "s1",
			CurriculumID: &curriculumID,
			Status:       models.StudentStatusActive,
		},
		PassingGrade: 2.00,
	}
}

func activeTerm() *models.Term { return &models.Term{ID: "term-c", Name: "SY 2025-2026 1st Sem"} }

func TestCanEnrollClosedSwitch(t *testing.T) {
	fixture := newEnrollFixture()
	fixture.flags.open = false

	decision, err := fixture.service().CanEnroll(context.Background(), activeStudent(), activeTerm())
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
	assert.Equal(t, models.EnrollClosed, decision.Reason)
}

func TestCanEnrollInactiveStudent(t *testing.T) {
	fixture := newEnrollFixture()
	student := activeStudent()
	student.Status = models.StudentStatusInactive

	decision, err := fixture.service().CanEnroll(context.Background(), student, activeTerm())
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
	assert.Equal(t, models.EnrollStudentNotActive, decision.Reason)
}

func TestCanEnrollAlreadyEnrolled(t *testing.T) {
	fixture := newEnrollFixture()
	fixture.store.existing = &models.Enrollment{ID: "enr-1", StudentID: "s1", TermID: "term-c"}
	fixture.attempts.countByTerm["term-c"] = 4

	decision, err := fixture.service().CanEnroll(context.Background(), activeStudent(), activeTerm())
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
	assert.Equal(t, models.EnrollAlreadyEnrolled, decision.Reason)
	assert.Empty(t, fixture.store.deleted)
}

func TestCanEnrollOrphanEnrollmentSelfHeals(t *testing.T) {
	fixture := newEnrollFixture()
	fixture.store.existing = &models.Enrollment{ID: "enr-orphan", StudentID: "s1", TermID: "term-c"}
	fixture.attempts.countByTerm["term-c"] = 0

	decision, err := fixture.service().CanEnroll(context.Background(), activeStudent(), activeTerm())
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
	assert.Equal(t, models.EnrollEligible, decision.Reason)
	assert.Equal(t, []string{"enr-orphan"}, fixture.store.deleted)

	require.Len(t, fixture.audit.trails, 1)
	assert.Equal(t, models.AuditActionOrphanCleanup, fixture.audit.trails[0].Action)
}

func TestCanEnrollNoHistoryBeyondFirstTerm(t *testing.T) {
	fixture := newEnrollFixture()
	fixture.levels.level = models.CurriculumLevel{Year: 2, TermNo: 1}

	decision, err := fixture.service().CanEnroll(context.Background(), activeStudent(), activeTerm())
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
	assert.Equal(t, models.EnrollStatusError, decision.Reason)
}

func TestCanEnrollUngradedSubjectsBlock(t *testing.T) {
	fixture := newEnrollFixture()
	fixture.store.past = []models.EnrollmentDetail{
		{Enrollment: models.Enrollment{ID: "enr-b", TermID: "term-b"}},
		{Enrollment: models.Enrollment{ID: "enr-a", TermID: "term-a"}},
	}
	fixture.attempts.ungraded["term-b"] = []models.SubjectAttemptDetail{
		{SubjectAttempt: models.SubjectAttempt{SubjectID: "cs103", Status: models.AttemptStatusEnrolled}, SubjectCode: "CS103"},
		{SubjectAttempt: models.SubjectAttempt{SubjectID: "pe101", Status: models.AttemptStatusEnrolled}, SubjectCode: "PE101"},
	}

	decision, err := fixture.service().CanEnroll(context.Background(), activeStudent(), activeTerm())
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
	assert.Equal(t, models.EnrollUngradedSubjects, decision.Reason)
	require.Len(t, decision.Ungraded, 2)
	assert.Equal(t, "CS103", decision.Ungraded[0].Code)
	assert.Equal(t, "PE101", decision.Ungraded[1].Code)
}

func TestCanEnrollAfterGradesPosted(t *testing.T) {
	fixture := newEnrollFixture()
	fixture.store.past = []models.EnrollmentDetail{
		{Enrollment: models.Enrollment{ID: "enr-b", TermID: "term-b"}},
	}

	decision, err := fixture.service().CanEnroll(context.Background(), activeStudent(), activeTerm())
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
	assert.Equal(t, models.EnrollEligible, decision.Reason)
}

func subjectsWithUnits(units float64, count int) []models.Subject {
	subjects := make([]models.Subject, count)
	for i := range subjects {
		subjects[i] = models.Subject{
			ID:    string(rune('a' + i)),
			Code:  string(rune('A' + i)),
			Units: units,
		}
	}
	return subjects
}

func TestConfirmAtUnitCapSucceeds(t *testing.T) {
	fixture := newEnrollFixture()
	fixture.subjects.subjects = subjectsWithUnits(3.0, 10)
	ids := make([]string, 10)
	for i := range ids {
		ids[i] = string(rune('a' + i))
	}

	enrollment, err := fixture.service().Confirm(context.Background(), activeStudent(), activeTerm(), ids)
	require.NoError(t, err)
	assert.InDelta(t, 30.0, enrollment.TotalUnits, 0.001)
	assert.Equal(t, models.EnrollmentStatusConfirmed, enrollment.Status)
	assert.Len(t, fixture.store.confirmedAttempts, 10)
}

func TestConfirmOverUnitCapRejected(t *testing.T) {
	fixture := newEnrollFixture()
	fixture.subjects.subjects = subjectsWithUnits(3.01, 10)
	ids := make([]string, 10)
	for i := range ids {
		ids[i] = string(rune('a' + i))
	}

	_, err := fixture.service().Confirm(context.Background(), activeStudent(), activeTerm(), ids)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnitCapExceeded.Code, appErrors.FromError(err).Code)
	assert.Nil(t, fixture.store.confirmed)
	assert.Empty(t, fixture.store.confirmedAttempts)
}

func TestConfirmRejectsRepeatedSelection(t *testing.T) {
	fixture := newEnrollFixture()
	fixture.subjects.subjects = subjectsWithUnits(3.0, 2)

	_, err := fixture.service().Confirm(context.Background(), activeStudent(), activeTerm(), []string{"a", "a"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrDuplicateSubject.Code, appErrors.FromError(err).Code)
	assert.Nil(t, fixture.store.confirmed)
}

func TestConfirmRejectsSubjectAlreadyAttemptedThisTerm(t *testing.T) {
	fixture := newEnrollFixture()
	fixture.subjects.subjects = subjectsWithUnits(3.0, 2)
	fixture.attempts.attempts = []models.SubjectAttempt{
		{SubjectID: "a", TermID: "term-c", Status: models.AttemptStatusEnrolled},
	}

	_, err := fixture.service().Confirm(context.Background(), activeStudent(), activeTerm(), []string{"a", "b"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrDuplicateSubject.Code, appErrors.FromError(err).Code)
	assert.Nil(t, fixture.store.confirmed)
}

func TestConfirmRevalidatesPrerequisites(t *testing.T) {
	fixture := newEnrollFixture()
	fixture.subjects.subjects = subjectsWithUnits(3.0, 2)
	fixture.prereqs.blocked["b"] = models.EligibilityResult{
		SubjectID: "b",
		CanTake:   false,
		Prereqs: []models.PrereqCheck{
			{Subject: models.Subject{ID: "x", Code: "CS102"}, State: models.PrereqUnmet},
		},
	}

	_, err := fixture.service().Confirm(context.Background(), activeStudent(), activeTerm(), []string{"a", "b"})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrUnmetPrereq.Code, appErr.Code)
	assert.NotNil(t, appErr.Details)
	assert.Nil(t, fixture.store.confirmed)
}

func TestConfirmLostRaceMapsToEnrollmentExists(t *testing.T) {
	fixture := newEnrollFixture()
	fixture.subjects.subjects = subjectsWithUnits(3.0, 1)
	fixture.store.confirmErr = repository.ErrDuplicateEnrollment

	_, err := fixture.service().Confirm(context.Background(), activeStudent(), activeTerm(), []string{"a"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrEnrollmentExists.Code, appErrors.FromError(err).Code)
}

func TestConfirmAssignsSectionAndProfessorWhenAvailable(t *testing.T) {
	fixture := newEnrollFixture()
	fixture.subjects.subjects = subjectsWithUnits(3.0, 2)
	professorID := "prof-1"
	fixture.sections.sections["a"] = &models.Section{ID: "sec-1", Code: "BSCS-1A", Status: models.SectionStatusOpen}
	fixture.sections.professors["sec-1"] = &professorID

	_, err := fixture.service().Confirm(context.Background(), activeStudent(), activeTerm(), []string{"a", "b"})
	require.NoError(t, err)
	require.Len(t, fixture.store.confirmedAttempts, 2)

	withSection := fixture.store.confirmedAttempts[0]
	require.NotNil(t, withSection.SectionID)
	assert.Equal(t, "sec-1", *withSection.SectionID)
	require.NotNil(t, withSection.ProfessorID)
	assert.Equal(t, "prof-1", *withSection.ProfessorID)
	assert.Equal(t, models.AttemptStatusEnrolled, withSection.Status)

	withoutSection := fixture.store.confirmedAttempts[1]
	assert.Nil(t, withoutSection.SectionID)
	assert.Nil(t, withoutSection.ProfessorID)
}

func TestConfirmEmptySelectionRejected(t *testing.T) {
	fixture := newEnrollFixture()

	_, err := fixture.service().Confirm(context.Background(), activeStudent(), activeTerm(), nil)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestConfirmRecordsAudit(t *testing.T) {
	fixture := newEnrollFixture()
	fixture.subjects.subjects = subjectsWithUnits(3.0, 1)

	_, err := fixture.service().Confirm(context.Background(), activeStudent(), activeTerm(), []string{"a"})
	require.NoError(t, err)
	require.Len(t, fixture.audit.trails, 1)
	assert.Equal(t, models.AuditActionConfirmEnroll, fixture.audit.trails[0].Action)
}
