package services

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"etkin.link/configs"
	"etkin.link/configs/configslog"
	"etkin.link/repositories"

	"gorm.io/gorm"
)

// IExportService gönderimlerin düz tablo (CSV) çıktısı için arayüz.
type IExportService interface {
	ExportCSV(ctx context.Context, formID uint, requestingUserID uint) ([]byte, error)
	WriteCSV(ctx context.Context, formID uint, requestingUserID uint, w io.Writer) error
}

// ExportService IExportService arayüzünü uygular.
type ExportService struct {
	formRepo       repositories.IFormRepository
	submissionRepo repositories.ISubmissionRepository
	userRepo       repositories.IUserRepository
}

// NewExportService yeni bir ExportService örneği oluşturur.
func NewExportService() IExportService {
	return NewExportServiceWithDB(configs.GetDB())
}

// NewExportServiceWithDB verilen DB üzerinde çalışan servis üretir (testler dahil).
func NewExportServiceWithDB(db *gorm.DB) IExportService {
	return &ExportService{
		formRepo:       repositories.NewFormRepositoryTx(db),
		submissionRepo: repositories.NewSubmissionRepositoryTx(db),
		userRepo:       repositories.NewUserRepositoryTx(db),
	}
}

// ExportCSV formun tüm gönderimlerini CSV olarak üretir.
func (s *ExportService) ExportCSV(ctx context.Context, formID uint, requestingUserID uint) ([]byte, error) {
	var buf bytes.Buffer
	if err := s.WriteCSV(ctx, formID, requestingUserID, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteCSV CSV çıktısını verilen writer'a akıtır.
// Başlık: SubmissionId, SubmittedAt ve sort_order sırasıyla alan etiketleri.
// Satır sırası gönderim deposunun doğal sırasıdır (yeniden eskiye); pencere
// uygulanmaz, tüm gönderimler dahildir. Cevabı olmayan hücre boş kalır.
func (s *ExportService) WriteCSV(ctx context.Context, formID uint, requestingUserID uint, w io.Writer) error {
	form, err := s.formRepo.FindByID(ctx, formID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrFormNotFound
		}
		return err
	}
	if err := requireOwner(ctx, s.userRepo, requestingUserID, form.CreatorUserID); err != nil {
		return err
	}

	submissions, err := s.submissionRepo.FindAllByFormID(ctx, formID)
	if err != nil {
		return err
	}

	header := make([]string, 0, len(form.Fields)+2)
	header = append(header, "SubmissionId", "SubmittedAt")
	for _, field := range form.Fields {
		header = append(header, field.Label)
	}
	if err := writeCSVRow(w, header); err != nil {
		return err
	}

	for _, submission := range submissions {
		row := make([]string, 0, len(header))
		row = append(row, submission.Key, submission.CreatedAt.UTC().Format(time.RFC3339))
		for _, field := range form.Fields {
			answer, ok := submission.Answers[field.ID]
			if !ok {
				row = append(row, "")
				continue
			}
			row = append(row, answer.Display())
		}
		if err := writeCSVRow(w, row); err != nil {
			return err
		}
	}

	configslog.SLog.Infof("CSV dışa aktarıldı: Form %d, %d satır", formID, len(submissions))
	return nil
}

// writeCSVRow tek satırı yazar. encoding/csv yalnızca gerektiğinde tırnaklar;
// çıktı sözleşmesi her hücrenin tırnaklanmasını istediğinden satır elle kurulur.
// İç tırnaklar ikilenir, satır sonu CRLF'dir.
func writeCSVRow(w io.Writer, cells []string) error {
	var sb strings.Builder
	for i, cell := range cells {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteByte('"')
		sb.WriteString(strings.ReplaceAll(cell, `"`, `""`))
		sb.WriteByte('"')
	}
	sb.WriteString("\r\n")
	_, err := io.WriteString(w, sb.String())
	return err
}

var _ IExportService = (*ExportService)(nil)
