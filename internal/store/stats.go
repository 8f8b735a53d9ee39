package store

import (
	"context"
	"math"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/qrevent/qrevent/internal/models"
)

type OrganizerStats struct {
	TotalEvents        int64 `json:"totalEvents"`
	TotalRegistrations int64 `json:"totalRegistrations"`
	QRValidated        int64 `json:"qrValidated"`
}

type AdminStats struct {
	TotalUsers         int64   `json:"totalUsers"`
	ParticipantCount   int64   `json:"participantCount"`
	OrganizerCount     int64   `json:"organizerCount"`
	AdminCount         int64   `json:"adminCount"`
	TotalEvents        int64   `json:"totalEvents"`
	TotalRegistrations int64   `json:"totalRegistrations"`
	QRValidated        int64   `json:"qrValidated"`
	AvgPerEvent        float64 `json:"avgPerEvent"`
}

// OrganizerStats counts the events, registrations and validated tickets
// belonging to one organizer.
func (s *Store) OrganizerStats(ctx context.Context, organizerID uuid.UUID) (OrganizerStats, error) {
	var stats OrganizerStats
	db := s.db.WithContext(ctx)
	owned := func() *gorm.DB {
		return db.Model(&models.Event{}).Select("id").Where("organizer_id = ?", organizerID)
	}

	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		return db.Model(&models.Event{}).Where("organizer_id = ?", organizerID).Count(&stats.TotalEvents).Error
	})
	g.Go(func() error {
		return db.Model(&models.EventParticipant{}).Where("event_id IN (?)", owned()).Count(&stats.TotalRegistrations).Error
	})
	g.Go(func() error {
		return db.Model(&models.Ticket{}).Where("event_id IN (?) AND is_validated = ?", owned(), true).Count(&stats.QRValidated).Error
	})
	if err := g.Wait(); err != nil {
		return OrganizerStats{}, err
	}
	return stats, nil
}

// AdminStats counts users per role, events, registrations and validations
// across the whole platform.
func (s *Store) AdminStats(ctx context.Context) (AdminStats, error) {
	var stats AdminStats
	db := s.db.WithContext(ctx)

	countRole := func(name string, dst *int64) func() error {
		return func() error {
			return db.Model(&models.User{}).
				Joins("JOIN roles ON roles.id = users.role_id").
				Where("roles.name = ?", name).
				Count(dst).Error
		}
	}

	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error { return db.Model(&models.User{}).Count(&stats.TotalUsers).Error })
	g.Go(countRole(models.RoleParticipant, &stats.ParticipantCount))
	g.Go(countRole(models.RoleOrganizer, &stats.OrganizerCount))
	g.Go(countRole(models.RoleAdmin, &stats.AdminCount))
	g.Go(func() error { return db.Model(&models.Event{}).Count(&stats.TotalEvents).Error })
	g.Go(func() error { return db.Model(&models.EventParticipant{}).Count(&stats.TotalRegistrations).Error })
	g.Go(func() error {
		return db.Model(&models.Ticket{}).Where("is_validated = ?", true).Count(&stats.QRValidated).Error
	})
	if err := g.Wait(); err != nil {
		return AdminStats{}, err
	}

	if stats.TotalEvents > 0 {
		avg := float64(stats.TotalRegistrations) / float64(stats.TotalEvents)
		stats.AvgPerEvent = math.Round(avg*10) / 10
	}
	return stats, nil
}
