package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"etkin.link/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportCSV(t *testing.T) {
	db := newTestDB(t)
	owner := seedUser(t, db, "Sahip", "sahip@etkin.link", false)
	event := seedEvent(t, db, owner.ID)
	form := createTestForm(t, db, owner.ID, event.ID, fullFormInput())
	submissionSvc := NewSubmissionServiceWithDB(db)
	exportSvc := NewExportServiceWithDB(db)
	ids := fieldIDs(form)
	ctx := context.Background()

	raw := minimalAnswers(form)
	raw[ids["İlgi Alanları"]] = []string{"Müzik", "Spor"}
	first, err := submissionSvc.Submit(ctx, form.ID, nil, raw)
	require.NoError(t, err)
	// Deterministik sıra için ilk gönderim geçmişe çekilir
	backdate(t, db, first.ID, time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC))

	second, err := submissionSvc.Submit(ctx, form.ID, nil, minimalAnswers(form))
	require.NoError(t, err)
	backdate(t, db, second.ID, time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC))

	data, err := exportSvc.ExportCSV(ctx, form.ID, owner.ID)
	require.NoError(t, err)

	// Her hücre tırnaklıdır ve satır sonu CRLF'dir
	text := string(data)
	assert.True(t, strings.HasPrefix(text, `"SubmissionId","SubmittedAt"`))
	assert.Contains(t, text, "\r\n")
	for _, line := range strings.Split(strings.TrimSuffix(text, "\r\n"), "\r\n") {
		assert.True(t, strings.HasPrefix(line, `"`))
		assert.True(t, strings.HasSuffix(line, `"`))
	}

	// Zorla tırnaklama standart CSV okuyucuyla geri okunabilir kalır
	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)

	header := records[0]
	require.Len(t, header, 2+len(form.Fields))
	assert.Equal(t, "SubmissionId", header[0])
	assert.Equal(t, "SubmittedAt", header[1])
	// Alan etiketleri sort_order sırasıyla
	for i, field := range form.Fields {
		assert.Equal(t, field.Label, header[2+i])
	}

	// Satırlar yeniden eskiye: önce ikinci gönderim
	assert.Equal(t, second.Key, records[1][0])
	assert.Equal(t, first.Key, records[2][0])
	assert.Equal(t, "2026-08-31T10:00:00Z", records[1][1])

	// Çoklu seçim ", " ile birleştirilir; cevapsız hücre boş kalır
	row := records[2]
	colIndex := func(label string) int {
		for i, h := range header {
			if h == label {
				return i
			}
		}
		t.Fatalf("başlıkta %q yok", label)
		return -1
	}
	assert.Equal(t, "Müzik, Spor", row[colIndex("İlgi Alanları")])
	assert.Equal(t, "", row[colIndex("Renk")])
	assert.Equal(t, "Ali", row[colIndex("Ad")])
}

func TestExportCSV_QuoteEscaping(t *testing.T) {
	db := newTestDB(t)
	owner := seedUser(t, db, "Sahip", "sahip@etkin.link", false)
	event := seedEvent(t, db, owner.ID)
	form := createTestForm(t, db, owner.ID, event.ID, fullFormInput())
	submissionSvc := NewSubmissionServiceWithDB(db)
	exportSvc := NewExportServiceWithDB(db)
	ids := fieldIDs(form)
	ctx := context.Background()

	raw := minimalAnswers(form)
	raw[ids["Ad"]] = `Ali "Usta" Veli`
	_, err := submissionSvc.Submit(ctx, form.ID, nil, raw)
	require.NoError(t, err)

	data, err := exportSvc.ExportCSV(ctx, form.ID, owner.ID)
	require.NoError(t, err)

	// İç tırnaklar ikilenir
	assert.Contains(t, string(data), `"Ali ""Usta"" Veli"`)

	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, `Ali "Usta" Veli`, records[1][2])
}

func TestExportCSV_DeletedFieldStaysOut(t *testing.T) {
	db := newTestDB(t)
	owner := seedUser(t, db, "Sahip", "sahip@etkin.link", false)
	event := seedEvent(t, db, owner.ID)
	formSvc := NewFormServiceWithDB(db)
	submissionSvc := NewSubmissionServiceWithDB(db)
	exportSvc := NewExportServiceWithDB(db)
	ctx := context.Background()

	form := createTestForm(t, db, owner.ID, event.ID, fullFormInput())
	ids := fieldIDs(form)

	raw := minimalAnswers(form)
	raw[ids["Renk"]] = "Red"
	_, err := submissionSvc.Submit(ctx, form.ID, nil, raw)
	require.NoError(t, err)

	// Renk alanı silinir: başlıktan düşer, eski cevap dışa aktarımda görünmez
	input := FormInput{
		Title:    form.Title,
		IsActive: true,
		IsPublic: true,
		Fields: []FormFieldInput{
			{ID: ids["Ad"], FieldType: models.FieldTypeText, Label: "Ad", Required: true},
			{ID: ids["E-posta"], FieldType: models.FieldTypeEmail, Label: "E-posta", Required: true},
		},
	}
	_, err = formSvc.UpdateForm(ctx, form.ID, owner.ID, input)
	require.NoError(t, err)

	data, err := exportSvc.ExportCSV(ctx, form.ID, owner.ID)
	require.NoError(t, err)

	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, []string{"SubmissionId", "SubmittedAt", "Ad", "E-posta"}, records[0])
	assert.NotContains(t, string(data), "Red")
}

func TestExportCSV_Ownership(t *testing.T) {
	db := newTestDB(t)
	owner := seedUser(t, db, "Sahip", "sahip@etkin.link", false)
	other := seedUser(t, db, "Diğer", "diger@etkin.link", false)
	system := seedUser(t, db, "System", "system@etkin.link", true)
	event := seedEvent(t, db, owner.ID)
	form := createTestForm(t, db, owner.ID, event.ID, fullFormInput())
	exportSvc := NewExportServiceWithDB(db)
	ctx := context.Background()

	_, err := exportSvc.ExportCSV(ctx, form.ID, other.ID)
	require.ErrorIs(t, err, ErrFormForbidden)

	// Sistem kullanıcısı her formu dışa aktarabilir
	_, err = exportSvc.ExportCSV(ctx, form.ID, system.ID)
	require.NoError(t, err)

	_, err = exportSvc.ExportCSV(ctx, 99999, owner.ID)
	require.ErrorIs(t, err, ErrFormNotFound)
}
