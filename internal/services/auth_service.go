package services

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/shipgate/engine/internal/models"
	"github.com/shipgate/engine/internal/repository"
	appErr "github.com/shipgate/engine/pkg/errors"
	"golang.org/x/crypto/bcrypt"
)

type AuthService interface {
	Register(ctx context.Context, email, password, name string) (*models.User, *models.Workspace, error)
	Login(ctx context.Context, email, password string) (string, *models.User, error)
}

type authService struct {
	userRepo   repository.UserRepository
	workspaces WorkspaceService
	hmacSecret []byte
}

func NewAuthService(userRepo repository.UserRepository, workspaces WorkspaceService, secret []byte) AuthService {
	return &authService{userRepo: userRepo, workspaces: workspaces, hmacSecret: secret}
}

var _ AuthService = (*authService)(nil)

// Register creates the user and a personal workspace with the user as its
// first admin.
func (s *authService) Register(ctx context.Context, email, password, name string) (*models.User, *models.Workspace, error) {
	if len(password) < 8 {
		return nil, nil, appErr.New(appErr.CodeInvalid, "password must be at least 8 characters")
	}
	ph, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, nil, appErr.Wrap(err, appErr.CodeInternal, "hash password failed")
	}

	user := &models.User{Email: email, PasswordHash: string(ph), Name: name}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, nil, err
	}

	ws, err := s.workspaces.CreateWorkspace(ctx, name+"'s workspace", user.ID)
	if err != nil {
		return nil, nil, err
	}
	return user, ws, nil
}

func (s *authService) Login(ctx context.Context, email, password string) (string, *models.User, error) {
	var user models.User
	if err := s.userRepo.GetByEmail(ctx, email, &user); err != nil {
		return "", nil, appErr.New(appErr.CodeUnauthorized, "invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", nil, appErr.New(appErr.CodeUnauthorized, "invalid credentials")
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": user.ID.String(),
		"exp": time.Now().Add(24 * time.Hour).Unix(),
	})
	tokenString, err := token.SignedString(s.hmacSecret)
	if err != nil {
		return "", nil, appErr.Wrap(err, appErr.CodeInternal, "sign token failed")
	}
	return tokenString, &user, nil
}
