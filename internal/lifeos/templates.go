package lifeos

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/entrefine/lifeos/internal/domain"
	"github.com/entrefine/lifeos/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TemplateService manages reusable focus-session presets.
type TemplateService struct {
	db *gorm.DB
}

// NewTemplateService constructs a TemplateService.
func NewTemplateService(db *gorm.DB) *TemplateService {
	return &TemplateService{db: db}
}

// TemplateInput carries the fields for creating a task template.
type TemplateInput struct {
	Name            string
	Category        string
	DefaultDuration *int
	Room            models.RoomName
}

// Create adds a template for the user.
func (s *TemplateService) Create(ctx context.Context, userID uuid.UUID, in TemplateInput) (*models.TaskTemplate, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, domain.Wrap(domain.ErrBadRequest, "template name is required")
	}

	duration := 25
	if in.DefaultDuration != nil {
		duration = *in.DefaultDuration
	}
	if duration < minSessionMinutes || duration > maxSessionMinutes {
		return nil, domain.Wrap(domain.ErrBadRequest, "duration out of range")
	}

	room := in.Room
	if room == "" {
		room = models.RoomStudy
	}
	if _, ok := roomLevelField[room]; !ok {
		return nil, domain.Wrap(domain.ErrBadRequest, "unknown room")
	}

	tpl := models.TaskTemplate{
		UserID:          userID,
		Name:            name,
		Category:        strings.TrimSpace(in.Category),
		DefaultDuration: duration,
		Room:            room,
	}
	if err := s.db.WithContext(ctx).Create(&tpl).Error; err != nil {
		return nil, fmt.Errorf("lifeos: create template: %w", err)
	}
	return &tpl, nil
}

// List returns the user's templates grouped by category then name.
func (s *TemplateService) List(ctx context.Context, userID uuid.UUID) ([]models.TaskTemplate, error) {
	var out []models.TaskTemplate
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("category, name").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("lifeos: list templates: %w", err)
	}
	return out, nil
}

// TemplateUpdate carries the mutable template fields; nil means keep.
type TemplateUpdate struct {
	Name            *string
	Category        *string
	DefaultDuration *int
	Room            *models.RoomName
}

// Update applies a partial update to one of the user's templates.
func (s *TemplateService) Update(ctx context.Context, userID, templateID uuid.UUID, in TemplateUpdate) (*models.TaskTemplate, error) {
	changes := map[string]any{}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, domain.Wrap(domain.ErrBadRequest, "template name is required")
		}
		changes["name"] = name
	}
	if in.Category != nil {
		changes["category"] = strings.TrimSpace(*in.Category)
	}
	if in.DefaultDuration != nil {
		if *in.DefaultDuration < minSessionMinutes || *in.DefaultDuration > maxSessionMinutes {
			return nil, domain.Wrap(domain.ErrBadRequest, "duration out of range")
		}
		changes["default_duration"] = *in.DefaultDuration
	}
	if in.Room != nil {
		if _, ok := roomLevelField[*in.Room]; !ok {
			return nil, domain.Wrap(domain.ErrBadRequest, "unknown room")
		}
		changes["room"] = *in.Room
	}

	conn := s.db.WithContext(ctx)
	if len(changes) > 0 {
		res := conn.Model(&models.TaskTemplate{}).
			Where("id = ? AND user_id = ?", templateID, userID).
			Updates(changes)
		if res.Error != nil {
			return nil, fmt.Errorf("lifeos: update template: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return nil, domain.Wrap(domain.ErrNotFound, "task template not found")
		}
	}

	var tpl models.TaskTemplate
	err := conn.Where("id = ? AND user_id = ?", templateID, userID).First(&tpl).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.Wrap(domain.ErrNotFound, "task template not found")
	}
	if err != nil {
		return nil, fmt.Errorf("lifeos: load template: %w", err)
	}
	return &tpl, nil
}

// Delete removes one of the user's templates. Past sessions keep their
// template reference unset rather than blocking the delete.
func (s *TemplateService) Delete(ctx context.Context, userID, templateID uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ? AND user_id = ?", templateID, userID).Delete(&models.TaskTemplate{})
		if res.Error != nil {
			return fmt.Errorf("lifeos: delete template: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return domain.Wrap(domain.ErrNotFound, "task template not found")
		}
		if err := tx.Model(&models.FocusSession{}).
			Where("task_template_id = ?", templateID).
			Update("task_template_id", nil).Error; err != nil {
			return fmt.Errorf("lifeos: detach sessions: %w", err)
		}
		return nil
	})
}
