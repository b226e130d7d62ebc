package posts

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/autoflexeasy/autoflex-backend/internal/repo"
	"github.com/autoflexeasy/autoflex-backend/pkg/db/models"
)

// Repository persists posts scoped to their owner.
type Repository struct {
	repo.Table[models.Post]
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Table: repo.NewTable[models.Post](db)}
}

func (r *Repository) ListByOwner(ctx context.Context, ownerID string) ([]models.Post, error) {
	var rows []models.Post
	if err := r.DB(ctx).
		Where("user_id = ?", ownerID).
		Order("created_at DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *Repository) Create(ctx context.Context, post *models.Post) error {
	return r.DB(ctx).Create(post).Error
}

// FindOwned returns nil when the post does not exist or belongs to someone else.
func (r *Repository) FindOwned(ctx context.Context, ownerID string, id uuid.UUID) (*models.Post, error) {
	return r.FindOne(ctx, nil, "id = ? AND user_id = ?", id, ownerID)
}

func (r *Repository) Update(ctx context.Context, post *models.Post) error {
	return r.DB(ctx).Model(post).Select("title", "content", "updated_at").Updates(post).Error
}

// DeleteOwned reports whether a row was removed.
func (r *Repository) DeleteOwned(ctx context.Context, ownerID string, id uuid.UUID) (bool, error) {
	res := r.DB(ctx).Where("id = ? AND user_id = ?", id, ownerID).Delete(&models.Post{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
