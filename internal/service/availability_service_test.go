package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/richwell-portal/registrar-api/internal/models"
)

type mockAvailabilityCurricula struct {
	placements []models.CurriculumSubjectDetail
	levels     map[string]models.CurriculumLevel
}

func (m *mockAvailabilityCurricula) ListSubjects(ctx context.Context, curriculumID string) ([]models.CurriculumSubjectDetail, error) {
	return m.placements, nil
}

func (m *mockAvailabilityCurricula) MapSubjectLevels(ctx context.Context, curriculumID string) (map[string]models.CurriculumLevel, error) {
	return m.levels, nil
}

// planFixture wires the planner against the real level and prerequisite
// services so the classification runs end to end over in-memory data.
type planFixture struct {
	curricula *mockAvailabilityCurricula
	attempts  *mockLevelAttempts
	subjects  *mockPrereqSubjects
	grades    *mockPrereqGrades
}

func (f *planFixture) service() *AvailabilityService {
	levels := NewLevelService(f.attempts, f.curricula, zap.NewNop())
	prereqs := NewPrereqService(f.subjects, f.attempts, f.grades, zap.NewNop())
	return NewAvailabilityService(levels, prereqs, f.curricula, f.attempts, nil, time.Minute, nil, zap.NewNop())
}

func placement(subjectID, code string, year, termNo int) models.CurriculumSubjectDetail {
	return models.CurriculumSubjectDetail{
		CurriculumSubject: models.CurriculumSubject{
			SubjectID: subjectID,
			YearLevel: year,
			TermNo:    termNo,
		},
		SubjectCode: code,
		Units:       3,
	}
}

// seededFixture mirrors the bundled BSCS seed data: first-year subjects
// completed in a past term, CS103 incomplete with a passing grade, CS104
// completed, and the second-year subjects gated on those two.
func seededFixture() *planFixture {
	placements := []models.CurriculumSubjectDetail{
		placement("cs101", "CS101", 1, 1),
		placement("cs102", "CS102", 1, 1),
		placement("math101", "MATH101", 1, 1),
		placement("eng101", "ENG101", 1, 1),
		placement("cs103", "CS103", 1, 2),
		placement("cs104", "CS104", 1, 2),
		placement("math102", "MATH102", 1, 2),
		placement("cs201", "CS201", 2, 1),
		placement("cs202", "CS202", 2, 1),
	}
	levels := make(map[string]models.CurriculumLevel, len(placements))
	for _, p := range placements {
		levels[p.SubjectID] = p.Level()
	}

	return &planFixture{
		curricula: &mockAvailabilityCurricula{placements: placements, levels: levels},
		attempts: &mockLevelAttempts{attempts: []models.SubjectAttempt{
			{ID: "att-cs101", SubjectID: "cs101", TermID: "term-a", Status: models.AttemptStatusCompleted},
			{ID: "att-cs102", SubjectID: "cs102", TermID: "term-a", Status: models.AttemptStatusCompleted},
			{ID: "att-math101", SubjectID: "math101", TermID: "term-a", Status: models.AttemptStatusCompleted},
			{ID: "att-eng101", SubjectID: "eng101", TermID: "term-a", Status: models.AttemptStatusCompleted},
			{ID: "att-cs103", SubjectID: "cs103", TermID: "term-b", Status: models.AttemptStatusIncomplete},
			{ID: "att-cs104", SubjectID: "cs104", TermID: "term-b", Status: models.AttemptStatusCompleted},
			{ID: "att-math102", SubjectID: "math102", TermID: "term-b", Status: models.AttemptStatusCompleted},
		}},
		subjects: &mockPrereqSubjects{prereqs: map[string][]models.Subject{
			"cs103": {{ID: "cs102", Code: "CS102"}},
			"cs201": {{ID: "cs103", Code: "CS103"}},
			"cs202": {{ID: "cs104", Code: "CS104"}},
		}},
		grades: &mockPrereqGrades{grades: map[string]*models.Grade{
			"att-cs103": {ID: "g1", AttemptID: "att-cs103", Value: "2.50"},
		}},
	}
}

func availabilityStudent() *models.StudentDetail {
	curriculumID := "cur-1"
	return &models.StudentDetail{
		Student:      models.Student{ID: "s1", CurriculumID: &curriculumID},
		PassingGrade: 2.00,
	}
}

func entryByCode(t *testing.T, plan models.AvailabilityPlan, code string) models.SubjectAvailability {
	t.Helper()
	for _, e := range plan.Subjects {
		if e.Subject.Code == code {
			return e
		}
	}
	t.Fatalf("subject %s not in plan", code)
	return models.SubjectAvailability{}
}

func TestAvailabilityIncompletePrereqBlocksDependent(t *testing.T) {
	fixture := seededFixture()
	svc := fixture.service()
	term := &models.Term{ID: "term-c"}

	plan, err := svc.ListAvailableSubjects(context.Background(), availabilityStudent(), term, false)
	require.NoError(t, err)
	assert.True(t, plan.HasIncomplete)

	cs201 := entryByCode(t, plan, "CS201")
	assert.Equal(t, models.AvailabilityIncPrereq, cs201.Tag)
	assert.NotEqual(t, models.AvailabilityReady, cs201.Tag)
	assert.Contains(t, cs201.Reason, "CS103")
	assert.Contains(t, cs201.Reason, "2.50")
	require.Len(t, cs201.WithIncomplete, 1)
	assert.InDelta(t, 2.5, cs201.WithIncomplete[0].Grade, 0.001)

	cs202 := entryByCode(t, plan, "CS202")
	assert.Equal(t, models.AvailabilityReady, cs202.Tag)
}

func TestAvailabilityPastAttemptsMarkedTaken(t *testing.T) {
	fixture := seededFixture()
	svc := fixture.service()
	term := &models.Term{ID: "term-c"}

	plan, err := svc.ListAvailableSubjects(context.Background(), availabilityStudent(), term, false)
	require.NoError(t, err)

	for _, code := range []string{"CS101", "CS102", "MATH101", "ENG101", "CS104"} {
		entry := entryByCode(t, plan, code)
		assert.Equal(t, models.AvailabilityTaken, entry.Tag, code)
	}
	// An incomplete past attempt is still an attempt: the subject is not
	// offered again through the planner.
	assert.Equal(t, models.AvailabilityTaken, entryByCode(t, plan, "CS103").Tag)
}

func TestAvailabilityCurrentTermAttemptsAreHidden(t *testing.T) {
	fixture := seededFixture()
	svc := fixture.service()
	// Pretend term-b is the active term: its attempts are mid-processing.
	term := &models.Term{ID: "term-b"}

	plan, err := svc.ListAvailableSubjects(context.Background(), availabilityStudent(), term, false)
	require.NoError(t, err)

	for _, e := range plan.Subjects {
		assert.NotEqual(t, "CS103", e.Subject.Code)
		assert.NotEqual(t, "CS104", e.Subject.Code)
		assert.NotEqual(t, "MATH102", e.Subject.Code)
	}
}

func TestAvailabilityIncompletePathUnlocksNextYear(t *testing.T) {
	// Student placed at (1,2): first-term subject completed, plus an INC
	// attempt carried from the second term.
	placements := []models.CurriculumSubjectDetail{
		placement("cs101", "CS101", 1, 1),
		placement("cs103", "CS103", 1, 2),
		placement("cs104", "CS104", 1, 2),
		placement("cs201", "CS201", 2, 1),
	}
	levels := make(map[string]models.CurriculumLevel, len(placements))
	for _, p := range placements {
		levels[p.SubjectID] = p.Level()
	}
	fixture := &planFixture{
		curricula: &mockAvailabilityCurricula{placements: placements, levels: levels},
		attempts: &mockLevelAttempts{attempts: []models.SubjectAttempt{
			{ID: "att-cs101", SubjectID: "cs101", TermID: "term-a", Status: models.AttemptStatusCompleted},
			{ID: "att-cs104", SubjectID: "cs104", TermID: "term-b", Status: models.AttemptStatusIncomplete},
		}},
		subjects: &mockPrereqSubjects{prereqs: map[string][]models.Subject{}},
		grades:   &mockPrereqGrades{},
	}
	svc := fixture.service()
	term := &models.Term{ID: "term-c"}

	withPath, err := svc.ListAvailableSubjects(context.Background(), availabilityStudent(), term, true)
	require.NoError(t, err)
	assert.True(t, withPath.HasIncomplete)
	assert.True(t, entryByCode(t, withPath, "CS201").Visible)
	assert.Equal(t, models.AvailabilityReady, entryByCode(t, withPath, "CS201").Tag)

	withoutPath, err := svc.ListAvailableSubjects(context.Background(), availabilityStudent(), term, false)
	require.NoError(t, err)
	assert.False(t, entryByCode(t, withoutPath, "CS201").Visible)
	assert.Equal(t, models.AvailabilityFutureLevel, entryByCode(t, withoutPath, "CS201").Tag)
	assert.Contains(t, entryByCode(t, withoutPath, "CS201").Reason, "Year 2, Term 1")
}

func TestAvailabilityFirstTermLevelNeverUnlocksNextYear(t *testing.T) {
	// Level (1,1) plus an INC: include_incomplete_path must not widen the
	// visible set because only a second-term level unlocks the preview.
	placements := []models.CurriculumSubjectDetail{
		placement("cs101", "CS101", 1, 1),
		placement("cs103", "CS103", 1, 2),
	}
	levels := make(map[string]models.CurriculumLevel, len(placements))
	for _, p := range placements {
		levels[p.SubjectID] = p.Level()
	}
	fixture := &planFixture{
		curricula: &mockAvailabilityCurricula{placements: placements, levels: levels},
		attempts: &mockLevelAttempts{attempts: []models.SubjectAttempt{
			{ID: "att-cs101", SubjectID: "cs101", TermID: "term-a", Status: models.AttemptStatusIncomplete},
		}},
		subjects: &mockPrereqSubjects{prereqs: map[string][]models.Subject{}},
		grades:   &mockPrereqGrades{},
	}
	svc := fixture.service()
	term := &models.Term{ID: "term-b"}

	plan, err := svc.ListAvailableSubjects(context.Background(), availabilityStudent(), term, true)
	require.NoError(t, err)
	assert.True(t, plan.HasIncomplete)
	assert.Equal(t, models.AvailabilityFutureLevel, entryByCode(t, plan, "CS103").Tag)
}

func TestAvailabilityNoCurriculumReturnsEmptyPlan(t *testing.T) {
	fixture := seededFixture()
	svc := fixture.service()

	plan, err := svc.ListAvailableSubjects(context.Background(), &models.StudentDetail{Student: models.Student{ID: "s1"}}, &models.Term{ID: "t"}, false)
	require.NoError(t, err)
	assert.Empty(t, plan.Subjects)
	assert.False(t, plan.HasIncomplete)
}
