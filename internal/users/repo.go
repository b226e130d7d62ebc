package users

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/autoflexeasy/autoflex-backend/internal/repo"
	"github.com/autoflexeasy/autoflex-backend/pkg/db/models"
)

// Repository reads the role mirror in the users table. It never writes roles.
type Repository struct {
	repo.Table[models.User]
}

// NewRepository constructs a users repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Table: repo.NewTable[models.User](db)}
}

// RoleFor returns the stored role for id. A missing row or null role yields "".
func (r *Repository) RoleFor(ctx context.Context, id string) (string, error) {
	user, err := r.FindOne(ctx, repo.Columns("id", "role"), "id = ?", id)
	if err != nil {
		return "", err
	}
	if user == nil || user.Role == nil {
		return "", nil
	}
	return strings.TrimSpace(*user.Role), nil
}

// RolesFor returns stored roles keyed by id; ids without a row are omitted.
func (r *Repository) RolesFor(ctx context.Context, ids []string) (map[string]string, error) {
	out := make(map[string]string, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []models.User
	if err := r.DB(ctx).Select("id", "role").Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		if row.Role != nil {
			out[row.ID] = strings.TrimSpace(*row.Role)
		}
	}
	return out, nil
}

// Count returns the number of mirrored users.
func (r *Repository) Count(ctx context.Context) (int64, error) {
	return r.Table.Count(ctx, nil)
}

// Recent lists the newest rows first.
func (r *Repository) Recent(ctx context.Context, limit int) ([]models.User, error) {
	if limit <= 0 {
		limit = 25
	}
	var rows []models.User
	if err := r.DB(ctx).Order("created_at DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
