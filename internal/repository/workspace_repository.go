package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shipgate/engine/internal/models"
	appErr "github.com/shipgate/engine/pkg/errors"
	"gorm.io/gorm"
)

type WorkspaceRepository interface {
	BaseRepository[models.Workspace]
	IsMember(ctx context.Context, workspaceID, userID uuid.UUID) (bool, error)
	ListMemberEmails(ctx context.Context, workspaceID uuid.UUID) ([]string, error)
	AddMember(ctx context.Context, member *models.WorkspaceMember) error
	CreateInvitation(ctx context.Context, inv *models.Invitation) error
	GetInvitationByToken(ctx context.Context, token string, dest *models.Invitation) error
	UpdateInvitation(ctx context.Context, inv *models.Invitation) error
}

type workspaceRepository struct {
	BaseRepository[models.Workspace]
	db *gorm.DB
}

func NewWorkspaceRepository(db *gorm.DB) WorkspaceRepository {
	return &workspaceRepository{BaseRepository: NewBaseRepository[models.Workspace](db), db: db}
}

func (r *workspaceRepository) IsMember(ctx context.Context, workspaceID, userID uuid.UUID) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.WorkspaceMember{}).
		Where("workspace_id = ? AND user_id = ?", workspaceID, userID).
		Count(&n).Error
	if err != nil {
		return false, appErr.Wrap(err, appErr.CodeInternal, "membership check failed")
	}
	return n > 0, nil
}

func (r *workspaceRepository) ListMemberEmails(ctx context.Context, workspaceID uuid.UUID) ([]string, error) {
	var emails []string
	err := r.db.WithContext(ctx).Model(&models.WorkspaceMember{}).
		Joins("JOIN users ON users.id = workspace_members.user_id").
		Where("workspace_members.workspace_id = ?", workspaceID).
		Pluck("users.email", &emails).Error
	if err != nil {
		return nil, appErr.Wrap(err, appErr.CodeInternal, "list member emails failed")
	}
	return emails, nil
}

func (r *workspaceRepository) AddMember(ctx context.Context, member *models.WorkspaceMember) error {
	if err := r.db.WithContext(ctx).Create(member).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return appErr.Wrap(err, appErr.CodeConflict, "already a member")
		}
		return appErr.Wrap(err, appErr.CodeInternal, "add member failed")
	}
	return nil
}

func (r *workspaceRepository) CreateInvitation(ctx context.Context, inv *models.Invitation) error {
	if err := r.db.WithContext(ctx).Create(inv).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return appErr.Wrap(err, appErr.CodeConflict, "invitation token collision")
		}
		return appErr.Wrap(err, appErr.CodeInternal, "create invitation failed")
	}
	return nil
}

func (r *workspaceRepository) GetInvitationByToken(ctx context.Context, token string, dest *models.Invitation) error {
	if err := r.db.WithContext(ctx).Where("token = ?", token).First(dest).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return appErr.New(appErr.CodeNotFound, "invitation not found")
		}
		return appErr.Wrap(err, appErr.CodeInternal, "get invitation failed")
	}
	return nil
}

func (r *workspaceRepository) UpdateInvitation(ctx context.Context, inv *models.Invitation) error {
	if err := r.db.WithContext(ctx).Save(inv).Error; err != nil {
		return appErr.Wrap(err, appErr.CodeInternal, "update invitation failed")
	}
	return nil
}
