package posts

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/autoflexeasy/autoflex-backend/pkg/db"
	"github.com/autoflexeasy/autoflex-backend/pkg/db/models"
	pkgerrors "github.com/autoflexeasy/autoflex-backend/pkg/errors"
)

const (
	maxTitleLength   = 200
	maxContentLength = 10000
)

type repository interface {
	ListByOwner(ctx context.Context, ownerID string) ([]models.Post, error)
	Create(ctx context.Context, post *models.Post) error
	FindOwned(ctx context.Context, ownerID string, id uuid.UUID) (*models.Post, error)
	Update(ctx context.Context, post *models.Post) error
	DeleteOwned(ctx context.Context, ownerID string, id uuid.UUID) (bool, error)
}

type ServiceParams struct {
	Repo repository
}

// Service manages the dashboard posts of a single owner at a time.
type Service struct {
	repo repository
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Repo == nil {
		return nil, errors.New("repo is required")
	}
	return &Service{repo: params.Repo}, nil
}

// PostDTO is the transport shape of a post.
type PostDTO struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type CreateInput struct {
	Title   string `json:"title" validate:"required,notblank,max=200"`
	Content string `json:"content" validate:"max=10000"`
}

// UpdateInput applies only the fields that are set.
type UpdateInput struct {
	Title   *string `json:"title" validate:"omitempty,notblank,max=200"`
	Content *string `json:"content" validate:"omitempty,max=10000"`
}

func toDTO(p models.Post) PostDTO {
	return PostDTO{ID: p.ID, Title: p.Title, Content: p.Content, CreatedAt: p.CreatedAt, UpdatedAt: p.UpdatedAt}
}

func (s *Service) List(ctx context.Context, ownerID string) ([]PostDTO, error) {
	if ownerID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	rows, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list posts")
	}
	out := make([]PostDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, toDTO(row))
	}
	return out, nil
}

func (s *Service) Create(ctx context.Context, ownerID string, input CreateInput) (*PostDTO, error) {
	if ownerID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	title, err := cleanTitle(input.Title)
	if err != nil {
		return nil, err
	}
	content, err := cleanContent(input.Content)
	if err != nil {
		return nil, err
	}
	post := &models.Post{UserID: ownerID, Title: title, Content: content}
	if err := s.repo.Create(ctx, post); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "post already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create post")
	}
	dto := toDTO(*post)
	return &dto, nil
}

func (s *Service) Update(ctx context.Context, ownerID string, id uuid.UUID, input UpdateInput) (*PostDTO, error) {
	post, err := s.owned(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if input.Title != nil {
		title, err := cleanTitle(*input.Title)
		if err != nil {
			return nil, err
		}
		post.Title = title
	}
	if input.Content != nil {
		content, err := cleanContent(*input.Content)
		if err != nil {
			return nil, err
		}
		post.Content = content
	}
	post.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, post); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update post")
	}
	dto := toDTO(*post)
	return &dto, nil
}

func (s *Service) Delete(ctx context.Context, ownerID string, id uuid.UUID) error {
	if ownerID == "" {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	removed, err := s.repo.DeleteOwned(ctx, ownerID, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete post")
	}
	if !removed {
		return pkgerrors.New(pkgerrors.CodeNotFound, "post not found")
	}
	return nil
}

func (s *Service) owned(ctx context.Context, ownerID string, id uuid.UUID) (*models.Post, error) {
	if ownerID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	post, err := s.repo.FindOwned(ctx, ownerID, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load post")
	}
	if post == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "post not found")
	}
	return post, nil
}

func cleanTitle(raw string) (string, error) {
	title := strings.TrimSpace(raw)
	if title == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "title is required").WithDetails(map[string]string{"title": "is required"})
	}
	if utf8.RuneCountInString(title) > maxTitleLength {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "title is too long").WithDetails(map[string]string{"title": "must be at most 200 characters"})
	}
	return title, nil
}

func cleanContent(raw string) (string, error) {
	content := strings.TrimSpace(raw)
	if utf8.RuneCountInString(content) > maxContentLength {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "content is too long").WithDetails(map[string]string{"content": "must be at most 10000 characters"})
	}
	return content, nil
}
