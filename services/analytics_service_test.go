package services

import (
	"context"
	"testing"
	"time"

	"etkin.link/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// analyticsFormInput zorunlu metin + tek seçim + çoklu seçim alanlı form.
func analyticsFormInput() FormInput {
	return FormInput{
		Title:    "Anket",
		IsActive: true,
		IsPublic: true,
		Fields: []FormFieldInput{
			{FieldType: models.FieldTypeText, Label: "Ad", Required: true},
			{FieldType: models.FieldTypeRadio, Label: "Renk", Options: []string{"Red", "Blue", "Green"}},
			{FieldType: models.FieldTypeCheckbox, Label: "İlgi", Options: []string{"Müzik", "Spor"}},
		},
	}
}

// backdate gönderimin created_at değerini senaryo gereği geçmişe çeker.
func backdate(t *testing.T, db *gorm.DB, submissionID uint, ts time.Time) {
	t.Helper()
	err := db.Model(&models.FormSubmission{}).
		Where("id = ?", submissionID).
		Update("created_at", ts).Error
	require.NoError(t, err)
}

func newAnalyticsFixture(t *testing.T, db *gorm.DB, fixedNow time.Time) *AnalyticsService {
	t.Helper()
	svc := NewAnalyticsServiceWithDB(db)
	svc.now = func() time.Time { return fixedNow }
	return svc
}

func TestComputeAnalytics_DistributionAndRates(t *testing.T) {
	db := newTestDB(t)
	owner := seedUser(t, db, "Sahip", "sahip@etkin.link", false)
	event := seedEvent(t, db, owner.ID)
	form := createTestForm(t, db, owner.ID, event.ID, analyticsFormInput())
	submissionSvc := NewSubmissionServiceWithDB(db)
	ids := fieldIDs(form)
	ctx := context.Background()

	fixedNow := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	svc := newAnalyticsFixture(t, db, fixedNow)

	// 3 gönderim: 2 Red, 1 Blue; çoklu seçim yalnızca birinde dolu
	submit := func(name, color string, interests any) uint {
		raw := map[uint]any{ids["Ad"]: name, ids["Renk"]: color}
		if interests != nil {
			raw[ids["İlgi"]] = interests
		}
		submission, err := submissionSvc.Submit(ctx, form.ID, nil, raw)
		require.NoError(t, err)
		return submission.ID
	}
	first := submit("Ayşe", "Red", []string{"Müzik", "Spor"})
	second := submit("Ali", "Red", nil)
	third := submit("Veli", "Blue", nil)

	backdate(t, db, first, time.Date(2026, 8, 27, 9, 0, 0, 0, time.UTC))
	backdate(t, db, second, time.Date(2026, 8, 27, 17, 0, 0, 0, time.UTC))
	backdate(t, db, third, time.Date(2026, 8, 31, 8, 0, 0, 0, time.UTC))

	report, err := svc.ComputeAnalytics(ctx, form.ID, owner.ID, Range7)
	require.NoError(t, err)

	assert.Equal(t, 3, report.TotalSubmissions)
	assert.Equal(t, 7, report.RangeDays)
	require.Len(t, report.Fields, 3)

	// Alan istatistikleri sort_order sırasındadır
	adStats := report.Fields[0]
	renkStats := report.Fields[1]
	ilgiStats := report.Fields[2]

	assert.Equal(t, 100, adStats.CompletionRate)
	assert.Equal(t, 100, renkStats.CompletionRate)
	assert.Equal(t, 33, ilgiStats.CompletionRate)
	assert.Equal(t, 2, ilgiStats.EmptyResponses)

	// Ortalama: round((100+100+33)/3) = 78
	assert.Equal(t, 78, report.AverageCompletionRate)

	// Dağılım: Red 2 (%67), Blue 1 (%33), sayıya göre azalan.
	// Hiç işaretlenmemiş Green tabloya girmez.
	require.Len(t, renkStats.Distribution, 2)
	assert.Equal(t, OptionCount{Option: "Red", Count: 2, Percentage: 67}, renkStats.Distribution[0])
	assert.Equal(t, OptionCount{Option: "Blue", Count: 1, Percentage: 33}, renkStats.Distribution[1])

	// Serbest metin alanında dağılım yok, örnek cevaplar yeniden eskiye
	assert.Empty(t, adStats.Distribution)
	require.NotEmpty(t, adStats.SampleAnswers)
	assert.Equal(t, "Veli", adStats.SampleAnswers[0])
}

func TestComputeAnalytics_TrendAndPeak(t *testing.T) {
	db := newTestDB(t)
	owner := seedUser(t, db, "Sahip", "sahip@etkin.link", false)
	event := seedEvent(t, db, owner.ID)
	form := createTestForm(t, db, owner.ID, event.ID, analyticsFormInput())
	submissionSvc := NewSubmissionServiceWithDB(db)
	ids := fieldIDs(form)
	ctx := context.Background()

	fixedNow := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	svc := newAnalyticsFixture(t, db, fixedNow)

	submitAt := func(ts time.Time) {
		submission, err := submissionSvc.Submit(ctx, form.ID, nil, map[uint]any{ids["Ad"]: "X"})
		require.NoError(t, err)
		backdate(t, db, submission.ID, ts)
	}
	submitAt(time.Date(2026, 8, 27, 9, 0, 0, 0, time.UTC))
	submitAt(time.Date(2026, 8, 27, 21, 0, 0, 0, time.UTC))
	submitAt(time.Date(2026, 8, 31, 8, 0, 0, 0, time.UTC))
	// Pencere dışı: 7 günlük rapora girmemeli
	submitAt(time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC))

	report, err := svc.ComputeAnalytics(ctx, form.ID, owner.ID, Range7)
	require.NoError(t, err)

	assert.Equal(t, 3, report.TotalSubmissions)

	// Trend her zaman tam 7 kayıttır, en eski gün başta, boş günler sıfır
	require.Len(t, report.SubmissionTrend, 7)
	assert.Equal(t, "2026-08-25", report.SubmissionTrend[0].Date)
	assert.Equal(t, "2026-08-31", report.SubmissionTrend[6].Date)

	total := 0
	byDate := make(map[string]int)
	for _, point := range report.SubmissionTrend {
		total += point.Count
		byDate[point.Date] = point.Count
	}
	assert.Equal(t, 3, total)
	assert.Equal(t, 2, byDate["2026-08-27"])
	assert.Equal(t, 1, byDate["2026-08-31"])
	assert.Equal(t, 0, byDate["2026-08-26"])

	require.NotNil(t, report.PeakSubmissionDay)
	assert.Equal(t, "2026-08-27", report.PeakSubmissionDay.Date)
	assert.Equal(t, 2, report.PeakSubmissionDay.Count)
}

func TestComputeAnalytics_PeakTieEarliestWins(t *testing.T) {
	db := newTestDB(t)
	owner := seedUser(t, db, "Sahip", "sahip@etkin.link", false)
	event := seedEvent(t, db, owner.ID)
	form := createTestForm(t, db, owner.ID, event.ID, analyticsFormInput())
	submissionSvc := NewSubmissionServiceWithDB(db)
	ids := fieldIDs(form)
	ctx := context.Background()

	fixedNow := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	svc := newAnalyticsFixture(t, db, fixedNow)

	for _, ts := range []time.Time{
		time.Date(2026, 8, 26, 10, 0, 0, 0, time.UTC),
		time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC),
	} {
		submission, err := submissionSvc.Submit(ctx, form.ID, nil, map[uint]any{ids["Ad"]: "X"})
		require.NoError(t, err)
		backdate(t, db, submission.ID, ts)
	}

	report, err := svc.ComputeAnalytics(ctx, form.ID, owner.ID, Range7)
	require.NoError(t, err)
	require.NotNil(t, report.PeakSubmissionDay)
	assert.Equal(t, "2026-08-26", report.PeakSubmissionDay.Date)
	assert.Equal(t, 1, report.PeakSubmissionDay.Count)
}

func TestComputeAnalytics_EmptyForm(t *testing.T) {
	db := newTestDB(t)
	owner := seedUser(t, db, "Sahip", "sahip@etkin.link", false)
	event := seedEvent(t, db, owner.ID)
	form := createTestForm(t, db, owner.ID, event.ID, analyticsFormInput())

	fixedNow := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	svc := newAnalyticsFixture(t, db, fixedNow)

	report, err := svc.ComputeAnalytics(context.Background(), form.ID, owner.ID, Range7)
	require.NoError(t, err)

	assert.Zero(t, report.TotalSubmissions)
	assert.Zero(t, report.AverageCompletionRate)
	assert.Nil(t, report.PeakSubmissionDay)
	require.Len(t, report.SubmissionTrend, 7)
	for _, point := range report.SubmissionTrend {
		assert.Zero(t, point.Count)
	}
	for _, stats := range report.Fields {
		assert.Zero(t, stats.TotalResponses)
		assert.Zero(t, stats.CompletionRate)
		assert.Empty(t, stats.Distribution)
	}
}

func TestComputeAnalytics_OwnershipAndRange(t *testing.T) {
	db := newTestDB(t)
	owner := seedUser(t, db, "Sahip", "sahip@etkin.link", false)
	other := seedUser(t, db, "Diğer", "diger@etkin.link", false)
	event := seedEvent(t, db, owner.ID)
	form := createTestForm(t, db, owner.ID, event.ID, analyticsFormInput())
	svc := NewAnalyticsServiceWithDB(db)

	_, err := svc.ComputeAnalytics(context.Background(), form.ID, other.ID, Range30)
	require.ErrorIs(t, err, ErrFormForbidden)

	_, err = svc.ComputeAnalytics(context.Background(), 99999, owner.ID, Range30)
	require.ErrorIs(t, err, ErrFormNotFound)

	// Tanınmayan pencere 30 güne düşer
	assert.Equal(t, Range30, ParseRange("bugün"))
	assert.Equal(t, Range7, ParseRange(" 7D "))
	assert.Equal(t, Range90, ParseRange("90d"))
}
