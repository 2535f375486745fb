package services

import (
	"context"
	"sync"
	"testing"

	"etkin.link/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fullFormInput tüm alan tiplerini içeren bir form girdisi üretir.
func fullFormInput() FormInput {
	return FormInput{
		Title:    "Kayıt Formu",
		IsActive: true,
		IsPublic: true,
		Fields: []FormFieldInput{
			{FieldType: models.FieldTypeText, Label: "Ad", Required: true},
			{FieldType: models.FieldTypeEmail, Label: "E-posta", Required: true},
			{FieldType: models.FieldTypeNumber, Label: "Yaş"},
			{FieldType: models.FieldTypeRadio, Label: "Renk", Options: []string{"Red", "Blue"}},
			{FieldType: models.FieldTypeCheckbox, Label: "İlgi Alanları", Options: []string{"Müzik", "Spor", "Kitap"}},
			{FieldType: models.FieldTypeFile, Label: "Özgeçmiş"},
		},
	}
}

// fieldIDs etikete göre alan ID'lerini toplar.
func fieldIDs(form *models.Form) map[string]uint {
	ids := make(map[string]uint, len(form.Fields))
	for _, field := range form.Fields {
		ids[field.Label] = field.ID
	}
	return ids
}

// minimalAnswers zorunlu alanları dolduran en küçük geçerli cevap kümesi.
func minimalAnswers(form *models.Form) map[uint]any {
	ids := fieldIDs(form)
	return map[uint]any{
		ids["Ad"]:      "Ali",
		ids["E-posta"]: "ali@example.com",
	}
}

func TestSubmit_AllFieldTypes(t *testing.T) {
	db := newTestDB(t)
	owner := seedUser(t, db, "Sahip", "sahip@etkin.link", false)
	event := seedEvent(t, db, owner.ID)
	form := createTestForm(t, db, owner.ID, event.ID, fullFormInput())
	svc := NewSubmissionServiceWithDB(db)
	ids := fieldIDs(form)

	raw := map[uint]any{
		ids["Ad"]:            "  Ayşe Yılmaz  ",
		ids["E-posta"]:       "ayse@example.com",
		ids["Yaş"]:           "29",
		ids["Renk"]:          "Red",
		ids["İlgi Alanları"]: []string{"Müzik", "Kitap"},
		ids["Özgeçmiş"]:      map[string]any{"url": "https://cdn.example.com/cv.pdf", "name": "cv.pdf", "mime": "application/pdf"},
	}
	submission, err := svc.Submit(context.Background(), form.ID, nil, raw)
	require.NoError(t, err)
	require.NotEmpty(t, submission.Key)
	assert.Nil(t, submission.UserID)

	answers := submission.Answers
	assert.Equal(t, "Ayşe Yılmaz", answers[ids["Ad"]].Text)
	assert.Equal(t, 29.0, answers[ids["Yaş"]].Number)
	assert.Equal(t, models.AnswerKindSingle, answers[ids["Renk"]].Kind)
	assert.Equal(t, "Red", answers[ids["Renk"]].Text)
	assert.Equal(t, []string{"Müzik", "Kitap"}, answers[ids["İlgi Alanları"]].Values)
	assert.Equal(t, "https://cdn.example.com/cv.pdf", answers[ids["Özgeçmiş"]].File.URL)
}

func TestSubmit_LegacyCommaJoinedCheckbox(t *testing.T) {
	db := newTestDB(t)
	owner := seedUser(t, db, "Sahip", "sahip@etkin.link", false)
	event := seedEvent(t, db, owner.ID)
	form := createTestForm(t, db, owner.ID, event.ID, fullFormInput())
	svc := NewSubmissionServiceWithDB(db)
	ids := fieldIDs(form)

	// Tek string, virgülle birleştirilmiş eski kodlama: ayrılıp kırpılır
	raw := minimalAnswers(form)
	raw[ids["İlgi Alanları"]] = "Müzik, Spor"
	submission, err := svc.Submit(context.Background(), form.ID, nil, raw)
	require.NoError(t, err)
	assert.Equal(t, []string{"Müzik", "Spor"}, submission.Answers[ids["İlgi Alanları"]].Values)
}

func TestSubmit_FieldValidation(t *testing.T) {
	db := newTestDB(t)
	owner := seedUser(t, db, "Sahip", "sahip@etkin.link", false)
	event := seedEvent(t, db, owner.ID)
	form := createTestForm(t, db, owner.ID, event.ID, fullFormInput())
	svc := NewSubmissionServiceWithDB(db)
	ids := fieldIDs(form)
	ctx := context.Background()

	cases := []struct {
		name   string
		mutate func(map[uint]any)
		label  string
	}{
		{"zorunlu alan eksik", func(m map[uint]any) { delete(m, ids["Ad"]) }, "Ad"},
		{"zorunlu alan boş", func(m map[uint]any) { m[ids["Ad"]] = "   " }, "Ad"},
		{"geçersiz e-posta", func(m map[uint]any) { m[ids["E-posta"]] = "ali@@" }, "E-posta"},
		{"sayısal olmayan yaş", func(m map[uint]any) { m[ids["Yaş"]] = "yirmi" }, "Yaş"},
		{"listede olmayan renk", func(m map[uint]any) { m[ids["Renk"]] = "Green" }, "Renk"},
		{"listede olmayan ilgi", func(m map[uint]any) { m[ids["İlgi Alanları"]] = []string{"Sinema"} }, "İlgi Alanları"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			raw := minimalAnswers(form)
			tc.mutate(raw)
			_, err := svc.Submit(ctx, form.ID, nil, raw)
			require.ErrorIs(t, err, ErrSubmissionValidation)

			var fieldErr *FieldValidationError
			require.ErrorAs(t, err, &fieldErr)
			assert.Equal(t, tc.label, fieldErr.Label)
		})
	}
}

func TestSubmit_UnknownFieldKeysDiscarded(t *testing.T) {
	db := newTestDB(t)
	owner := seedUser(t, db, "Sahip", "sahip@etkin.link", false)
	event := seedEvent(t, db, owner.ID)
	form := createTestForm(t, db, owner.ID, event.ID, fullFormInput())
	svc := NewSubmissionServiceWithDB(db)

	raw := minimalAnswers(form)
	raw[99999] = "hayalet cevap"
	submission, err := svc.Submit(context.Background(), form.ID, nil, raw)
	require.NoError(t, err)
	_, exists := submission.Answers[99999]
	assert.False(t, exists)
}

func TestSubmit_InactiveForm(t *testing.T) {
	db := newTestDB(t)
	owner := seedUser(t, db, "Sahip", "sahip@etkin.link", false)
	event := seedEvent(t, db, owner.ID)

	input := fullFormInput()
	input.IsActive = false
	form := createTestForm(t, db, owner.ID, event.ID, input)
	svc := NewSubmissionServiceWithDB(db)

	_, err := svc.Submit(context.Background(), form.ID, nil, minimalAnswers(form))
	require.ErrorIs(t, err, ErrFormInactive)
}

func TestSubmit_PrivateFormAccess(t *testing.T) {
	db := newTestDB(t)
	owner := seedUser(t, db, "Sahip", "sahip@etkin.link", false)
	other := seedUser(t, db, "Diğer", "diger@etkin.link", false)
	event := seedEvent(t, db, owner.ID)

	input := fullFormInput()
	input.IsPublic = false
	form := createTestForm(t, db, owner.ID, event.ID, input)
	svc := NewSubmissionServiceWithDB(db)
	ctx := context.Background()

	_, err := svc.Submit(ctx, form.ID, nil, minimalAnswers(form))
	require.ErrorIs(t, err, ErrFormAccessDenied)

	_, err = svc.Submit(ctx, form.ID, &other.ID, minimalAnswers(form))
	require.ErrorIs(t, err, ErrFormAccessDenied)

	submission, err := svc.Submit(ctx, form.ID, &owner.ID, minimalAnswers(form))
	require.NoError(t, err)
	require.NotNil(t, submission.UserID)
	assert.Equal(t, owner.ID, *submission.UserID)
}

func TestSubmit_CapacitySequential(t *testing.T) {
	db := newTestDB(t)
	owner := seedUser(t, db, "Sahip", "sahip@etkin.link", false)
	event := seedEvent(t, db, owner.ID)

	input := fullFormInput()
	limit := 2
	input.MaxSubmissions = &limit
	form := createTestForm(t, db, owner.ID, event.ID, input)
	svc := NewSubmissionServiceWithDB(db)
	ctx := context.Background()

	for i := 0; i < limit; i++ {
		_, err := svc.Submit(ctx, form.ID, nil, minimalAnswers(form))
		require.NoError(t, err)
	}

	_, err := svc.Submit(ctx, form.ID, nil, minimalAnswers(form))
	require.ErrorIs(t, err, ErrFormCapacityReached)
}

func TestSubmit_CapacityConcurrent(t *testing.T) {
	db := newTestDB(t)
	owner := seedUser(t, db, "Sahip", "sahip@etkin.link", false)
	event := seedEvent(t, db, owner.ID)

	input := fullFormInput()
	limit := 3
	input.MaxSubmissions = &limit
	form := createTestForm(t, db, owner.ID, event.ID, input)
	svc := NewSubmissionServiceWithDB(db)

	const attempts = 8
	results := make(chan error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Submit(context.Background(), form.ID, nil, minimalAnswers(form))
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	succeeded, capacityHits := 0, 0
	for err := range results {
		switch {
		case err == nil:
			succeeded++
		default:
			require.ErrorIs(t, err, ErrFormCapacityReached)
			capacityHits++
		}
	}
	// Limit hiçbir koşulda aşılmaz
	assert.Equal(t, limit, succeeded)
	assert.Equal(t, attempts-limit, capacityHits)

	count, err := svc.CountByFormID(context.Background(), form.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(limit), count)
}

func TestSubmit_CapacityConcurrentSingleSlot(t *testing.T) {
	db := newTestDB(t)
	owner := seedUser(t, db, "Sahip", "sahip@etkin.link", false)
	event := seedEvent(t, db, owner.ID)

	input := fullFormInput()
	limit := 1
	input.MaxSubmissions = &limit
	form := createTestForm(t, db, owner.ID, event.ID, input)
	svc := NewSubmissionServiceWithDB(db)

	const attempts = 5
	results := make(chan error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Submit(context.Background(), form.ID, nil, minimalAnswers(form))
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	succeeded := 0
	for err := range results {
		if err == nil {
			succeeded++
		} else {
			require.ErrorIs(t, err, ErrFormCapacityReached)
		}
	}
	// Tek slot: yarışan herkesin içinden tam olarak biri kazanır
	assert.Equal(t, 1, succeeded)
}

func TestGetSubmissionsForOwner_Ordering(t *testing.T) {
	db := newTestDB(t)
	owner := seedUser(t, db, "Sahip", "sahip@etkin.link", false)
	other := seedUser(t, db, "Diğer", "diger@etkin.link", false)
	event := seedEvent(t, db, owner.ID)
	form := createTestForm(t, db, owner.ID, event.ID, fullFormInput())
	svc := NewSubmissionServiceWithDB(db)
	ids := fieldIDs(form)
	ctx := context.Background()

	for _, name := range []string{"Birinci", "İkinci", "Üçüncü"} {
		raw := minimalAnswers(form)
		raw[ids["Ad"]] = name
		_, err := svc.Submit(ctx, form.ID, nil, raw)
		require.NoError(t, err)
	}

	_, err := svc.GetSubmissionsForOwner(ctx, form.ID, other.ID)
	require.ErrorIs(t, err, ErrFormForbidden)

	submissions, err := svc.GetSubmissionsForOwner(ctx, form.ID, owner.ID)
	require.NoError(t, err)
	require.Len(t, submissions, 3)

	// Yeniden eskiye
	assert.Equal(t, "Üçüncü", submissions[0].Answers[ids["Ad"]].Text)
	assert.Equal(t, "Birinci", submissions[2].Answers[ids["Ad"]].Text)
}
