package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/yourusername/stoolpool-api/internal/domain/entity"
	"github.com/yourusername/stoolpool-api/internal/domain/repository"
	"github.com/yourusername/stoolpool-api/internal/service/assessment"
)

const defaultReportBatchSize = 100

// ReportService рассылает еженедельные отчёты пользователям, включившим их в настройках
type ReportService struct {
	userRepo  repository.UserRepository
	entryRepo repository.HealthEntryRepository
	email     EmailService
	interval  time.Duration
	batchSize int
	location  *time.Location
	now       func() time.Time
}

// NewReportService создает сервис отчётов
func NewReportService(
	userRepo repository.UserRepository,
	entryRepo repository.HealthEntryRepository,
	email EmailService,
	interval time.Duration,
	batchSize int,
	location *time.Location,
) (*ReportService, error) {
	if userRepo == nil || entryRepo == nil {
		return nil, fmt.Errorf("repositories are required for ReportService")
	}
	if email == nil {
		return nil, fmt.Errorf("EmailService is required for ReportService")
	}
	if interval <= 0 {
		return nil, fmt.Errorf("report interval must be positive")
	}
	if batchSize <= 0 {
		batchSize = defaultReportBatchSize
	}
	if location == nil {
		location = time.UTC
	}

	return &ReportService{
		userRepo:  userRepo,
		entryRepo: entryRepo,
		email:     email,
		interval:  interval,
		batchSize: batchSize,
		location:  location,
		now:       time.Now,
	}, nil
}

// Start запускает рассылку по таймеру до отмены контекста
func (s *ReportService) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	go func() {
		defer ticker.Stop()
		log.Printf("[ReportService] Запущена рассылка отчётов с интервалом %v", s.interval)
		for {
			select {
			case <-ctx.Done():
				log.Printf("[ReportService] Рассылка отчётов остановлена")
				return
			case <-ticker.C:
				if _, err := s.SendWeeklyReports(ctx); err != nil {
					log.Printf("[ReportService] Ошибка рассылки отчётов: %v", err)
				}
			}
		}
	}()
}

// SendWeeklyReports отправляет отчёт каждому пользователю, которому он не отправлялся в течение интервала.
// Возвращает количество отправленных писем.
func (s *ReportService) SendWeeklyReports(ctx context.Context) (int, error) {
	now := s.now()
	since := now.Add(-s.interval)
	sent := 0
	// Успешно обработанные пользователи выпадают из выборки, поэтому смещение растёт только на число неудач
	offset := 0

	for {
		if err := ctx.Err(); err != nil {
			return sent, err
		}

		users, err := s.userRepo.ListForWeeklyReport(since, s.batchSize, offset)
		if err != nil {
			return sent, fmt.Errorf("failed to list users for weekly report: %w", err)
		}
		if len(users) == 0 {
			break
		}

		for i := range users {
			user := &users[i]
			delivered, err := s.sendReport(ctx, user, now)
			if err != nil {
				log.Printf("[ReportService] Не удалось отправить отчёт пользователю ID=%d: %v", user.ID, err)
				offset++
				continue
			}
			if delivered {
				sent++
			}
		}

		if len(users) < s.batchSize {
			break
		}
	}

	log.Printf("[ReportService] Отправлено еженедельных отчётов: %d", sent)
	return sent, nil
}

// sendReport отправляет отчёт одному пользователю и отмечает отправку.
// Пользователям без записей за неделю письмо не отправляется, но отметка ставится.
func (s *ReportService) sendReport(ctx context.Context, user *entity.User, now time.Time) (bool, error) {
	entries, err := s.entryRepo.ListChronological(user.ID)
	if err != nil {
		return false, err
	}

	summary := assessment.Aggregate(entries, assessment.AggregateOptions{Now: now, Location: s.location})
	delivered := false
	if summary.WeeklyCount > 0 {
		if err := s.email.SendWeeklyReport(ctx, user, summary, now.Add(-s.interval)); err != nil {
			return false, err
		}
		delivered = true
	}

	if err := s.userRepo.MarkReportSent(user.ID, now); err != nil {
		return delivered, err
	}
	return delivered, nil
}
