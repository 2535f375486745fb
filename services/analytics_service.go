package services

import (
	"context"
	"errors"
	"math"
	"sort"
	"strings"
	"time"

	"etkin.link/configs"
	"etkin.link/models"
	"etkin.link/repositories"

	"gorm.io/gorm"
)

// TrendDateLayout trend ve zirve günü tarihlerinin formatı.
const TrendDateLayout = "2006-01-02"

// Range analiz penceresinin gün cinsinden uzunluğu.
type Range int

const (
	Range7  Range = 7
	Range30 Range = 30
	Range90 Range = 90
)

// ParseRange "7d"/"30d"/"90d" değerlerini çözer; tanınmayan girdi 30 güne düşer.
func ParseRange(s string) Range {
	switch strings.TrimSpace(strings.ToLower(s)) {
	case "7d":
		return Range7
	case "90d":
		return Range90
	default:
		return Range30
	}
}

// Days pencere uzunluğunu döndürür.
func (r Range) Days() int { return int(r) }

// OptionCount tek bir seçeneğin dağılımdaki payı.
type OptionCount struct {
	Option     string `json:"option"`
	Count      int    `json:"count"`
	Percentage int    `json:"percentage"`
}

// FieldStats tek alanın pencere içi istatistikleri.
// Distribution yalnızca seçenekli tiplerde doludur; diğer tipler için tüketici
// SampleAnswers'ı gösterir.
type FieldStats struct {
	FieldID        uint             `json:"field_id"`
	Label          string           `json:"label"`
	FieldType      models.FieldType `json:"field_type"`
	TotalResponses int              `json:"total_responses"`
	EmptyResponses int              `json:"empty_responses"`
	CompletionRate int              `json:"completion_rate"`
	Distribution   []OptionCount    `json:"distribution"`
	SampleAnswers  []string         `json:"sample_answers"`
}

// TrendPoint tek günün gönderim sayısı.
type TrendPoint struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// PeakDay en yoğun günün tarihi ve sayısı.
type PeakDay struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// AnalyticsReport bir formun pencere içi tüm istatistikleri.
type AnalyticsReport struct {
	FormID                uint         `json:"form_id"`
	RangeDays             int          `json:"range_days"`
	TotalSubmissions      int          `json:"total_submissions"`
	AverageCompletionRate int          `json:"average_completion_rate"`
	SubmissionTrend       []TrendPoint `json:"submission_trend"`
	PeakSubmissionDay     *PeakDay     `json:"peak_submission_day,omitempty"`
	Fields                []FieldStats `json:"fields"`
}

// IAnalyticsService form istatistikleri için arayüz.
type IAnalyticsService interface {
	ComputeAnalytics(ctx context.Context, formID uint, requestingUserID uint, rng Range) (*AnalyticsReport, error)
}

// AnalyticsService IAnalyticsService arayüzünü uygular. Salt okunurdur;
// gönderim yazmalarıyla eşzamanlı çalışabilir, hafifçe bayat bir anlık
// görüntü kabul edilebilir.
type AnalyticsService struct {
	formRepo       repositories.IFormRepository
	submissionRepo repositories.ISubmissionRepository
	userRepo       repositories.IUserRepository
	now            func() time.Time
}

// NewAnalyticsService yeni bir AnalyticsService örneği oluşturur.
func NewAnalyticsService() IAnalyticsService {
	return NewAnalyticsServiceWithDB(configs.GetDB())
}

// NewAnalyticsServiceWithDB verilen DB üzerinde çalışan servis üretir (testler dahil).
func NewAnalyticsServiceWithDB(db *gorm.DB) *AnalyticsService {
	return &AnalyticsService{
		formRepo:       repositories.NewFormRepositoryTx(db),
		submissionRepo: repositories.NewSubmissionRepositoryTx(db),
		userRepo:       repositories.NewUserRepositoryTx(db),
		now:            func() time.Time { return time.Now().UTC() },
	}
}

// ComputeAnalytics formun alan bazlı ve bütünsel istatistiklerini hesaplar.
// Pencere [bugün-(n-1) günün başlangıcı, şimdi] aralığıdır (UTC takvim günleri).
func (s *AnalyticsService) ComputeAnalytics(ctx context.Context, formID uint, requestingUserID uint, rng Range) (*AnalyticsReport, error) {
	form, err := s.formRepo.FindByID(ctx, formID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrFormNotFound
		}
		return nil, err
	}
	if err := requireOwner(ctx, s.userRepo, requestingUserID, form.CreatorUserID); err != nil {
		return nil, err
	}

	now := s.now()
	days := rng.Days()
	windowStart := startOfDay(now).AddDate(0, 0, -(days - 1))

	submissions, err := s.submissionRepo.FindByFormIDSince(ctx, formID, windowStart)
	if err != nil {
		return nil, err
	}

	report := &AnalyticsReport{
		FormID:           formID,
		RangeDays:        days,
		TotalSubmissions: len(submissions),
		Fields:           make([]FieldStats, 0, len(form.Fields)),
	}

	// Alan bazlı istatistikler
	rateSum := 0
	for _, field := range form.Fields {
		stats := computeFieldStats(field, submissions)
		rateSum += stats.CompletionRate
		report.Fields = append(report.Fields, stats)
	}
	if len(form.Fields) > 0 {
		report.AverageCompletionRate = roundPercent(float64(rateSum), float64(len(form.Fields)))
	}

	// Günlük trend: her zaman tam olarak n kayıt, boş günler sıfırla
	report.SubmissionTrend = computeTrend(submissions, windowStart, days)

	// Zirve günü: eşitlikte en erken gün kazanır; hiç gönderim yoksa yok
	if report.TotalSubmissions > 0 {
		peak := report.SubmissionTrend[0]
		for _, point := range report.SubmissionTrend[1:] {
			if point.Count > peak.Count {
				peak = point
			}
		}
		report.PeakSubmissionDay = &PeakDay{Date: peak.Date, Count: peak.Count}
	}

	return report, nil
}

// computeFieldStats tek alan için doldurulma ve dağılım istatistiklerini üretir.
// Gönderimler yeniden eskiye sıralı gelir; örnek cevaplar bu sıradan alınır.
func computeFieldStats(field models.FormField, submissions []models.FormSubmission) FieldStats {
	stats := FieldStats{
		FieldID:       field.ID,
		Label:         field.Label,
		FieldType:     field.FieldType,
		Distribution:  []OptionCount{},
		SampleAnswers: []string{},
	}

	answered := make([]models.Answer, 0, len(submissions))
	for _, submission := range submissions {
		// Silinmiş alanlara işaret eden eski gönderimler cevapsız sayılır.
		answer, ok := submission.Answers[field.ID]
		if !ok || answer.IsEmpty() {
			continue
		}
		answered = append(answered, answer)
	}

	stats.TotalResponses = len(answered)
	stats.EmptyResponses = len(submissions) - len(answered)
	if len(submissions) > 0 {
		stats.CompletionRate = roundPercent(float64(len(answered))*100, float64(len(submissions)))
	}

	for i := 0; i < len(answered) && i < 5; i++ {
		stats.SampleAnswers = append(stats.SampleAnswers, answered[i].Display())
	}

	if field.FieldType.IsChoice() && len(answered) > 0 {
		stats.Distribution = computeDistribution(field, answered)
	}
	return stats
}

// computeDistribution seçenek değerleri üzerinden frekans tablosu kurar.
// Sayaçlar alanın ilan edilmiş seçenek sırasıyla tohumlanır; böylece eşitlikler
// form sahibinin sırasını, listede olmayan eski değerler ilk görülme sırasını izler.
// Hiç işaretlenmemiş seçenekler tabloya girmez.
func computeDistribution(field models.FormField, answered []models.Answer) []OptionCount {
	counts := make(map[string]int)
	order := make([]string, 0, len(field.Options))
	for _, opt := range field.Options.NonBlank() {
		if _, ok := counts[opt]; !ok {
			counts[opt] = 0
			order = append(order, opt)
		}
	}

	total := len(answered)
	for _, answer := range answered {
		for _, value := range answerChoiceValues(answer) {
			if _, ok := counts[value]; !ok {
				order = append(order, value)
			}
			counts[value]++
		}
	}

	distribution := make([]OptionCount, 0, len(order))
	for _, option := range order {
		if counts[option] == 0 {
			continue
		}
		distribution = append(distribution, OptionCount{
			Option:     option,
			Count:      counts[option],
			Percentage: roundPercent(float64(counts[option])*100, float64(total)),
		})
	}
	sort.SliceStable(distribution, func(i, j int) bool {
		return distribution[i].Count > distribution[j].Count
	})
	return distribution
}

// answerChoiceValues bir cevabın dağılıma katacağı tekil değerleri çıkarır.
// MultiChoice'ta her eleman bir sayım; eski virgülle birleştirilmiş metin
// kodlaması sayımdan önce ayrılıp kırpılır.
func answerChoiceValues(answer models.Answer) []string {
	switch answer.Kind {
	case models.AnswerKindMulti:
		return trimNonEmpty(answer.Values)
	case models.AnswerKindSingle, models.AnswerKindText:
		return trimNonEmpty(strings.Split(answer.Text, ","))
	}
	return nil
}

// computeTrend pencere içindeki her takvim günü için gönderim sayısını üretir.
// Dizi her zaman tam 'days' uzunluğundadır, en eski gün başta.
func computeTrend(submissions []models.FormSubmission, windowStart time.Time, days int) []TrendPoint {
	countsByDay := make(map[string]int, days)
	for _, submission := range submissions {
		day := submission.CreatedAt.UTC().Format(TrendDateLayout)
		countsByDay[day]++
	}

	trend := make([]TrendPoint, 0, days)
	for i := 0; i < days; i++ {
		day := windowStart.AddDate(0, 0, i).Format(TrendDateLayout)
		trend = append(trend, TrendPoint{Date: day, Count: countsByDay[day]})
	}
	return trend
}

// startOfDay UTC gün başlangıcını döndürür.
func startOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// roundPercent pay*100/payda yerine çağıranın verdiği payı paydaya bölüp
// en yakın tam sayıya yuvarlar; payda 0 ise 0 döner.
func roundPercent(numerator, denominator float64) int {
	if denominator == 0 {
		return 0
	}
	return int(math.Round(numerator / denominator))
}

var _ IAnalyticsService = (*AnalyticsService)(nil)
