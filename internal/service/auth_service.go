package service

import (
	"fmt"

	"go-agritrace/internal/apperr"
	"go-agritrace/internal/model"
	"go-agritrace/internal/repository"
	"go-agritrace/pkg/jwt"
	"go-agritrace/pkg/validator"

	"github.com/google/uuid"
)

type RegisterRequest struct {
	FullName        string     `json:"fullName" validate:"required"`
	Phone           string     `json:"phone" validate:"required"`
	Email           string     `json:"email" validate:"required,email"`
	Address         string     `json:"address"`
	Password        string     `json:"password" validate:"required,min=6"`
	ConfirmPassword string     `json:"confirmPassword"`
	Role            model.Role `json:"role"`
}

type AuthResponse struct {
	Token string             `json:"token"`
	User  model.UserResponse `json:"user"`
}

type AuthService interface {
	Register(req *RegisterRequest) (*AuthResponse, error)
	Login(email, password string) (*AuthResponse, error)
	Me(userID uuid.UUID) (*model.UserResponse, error)
}

type authService struct {
	userRepo repository.UserRepository
}

func NewAuthService(userRepo repository.UserRepository) AuthService {
	return &authService{userRepo: userRepo}
}

func (s *authService) Register(req *RegisterRequest) (*AuthResponse, error) {
	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		return nil, apperr.New(apperr.KindValidation,
			fmt.Sprintf("%s failed on %s", errs[0].FailedField, errs[0].Tag))
	}
	if req.Password != req.ConfirmPassword {
		return nil, apperr.New(apperr.KindValidation, "passwords do not match")
	}

	role := req.Role
	if role == "" {
		role = model.RoleFarmer
	}
	// The admin role exists only through operator seeding.
	if role == model.RoleAdmin {
		return nil, apperr.New(apperr.KindForbidden, "cannot register as admin")
	}
	if !role.Valid() {
		return nil, apperr.New(apperr.KindValidation, "unknown role")
	}

	if existing, _ := s.userRepo.FindByEmail(req.Email); existing != nil {
		return nil, apperr.New(apperr.KindValidation, "user already exists")
	}

	user := &model.User{
		FullName: req.FullName,
		Phone:    req.Phone,
		Email:    req.Email,
		Address:  req.Address,
		Role:     role,
	}
	if err := user.SetPassword(req.Password); err != nil {
		return nil, err
	}
	if err := s.userRepo.Create(user); err != nil {
		return nil, err
	}

	return s.respond(user)
}

func (s *authService) Login(email, password string) (*AuthResponse, error) {
	user, err := s.userRepo.FindByEmail(email)
	if err != nil {
		return nil, apperr.New(apperr.KindUnauthorized, "invalid credentials")
	}
	if !user.CheckPassword(password) {
		return nil, apperr.New(apperr.KindUnauthorized, "invalid credentials")
	}
	return s.respond(user)
}

func (s *authService) Me(userID uuid.UUID) (*model.UserResponse, error) {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		return nil, apperr.New(apperr.KindNotFound, "user not found")
	}
	resp := user.ToResponse()
	return &resp, nil
}

func (s *authService) respond(user *model.User) (*AuthResponse, error) {
	token, err := jwt.GenerateToken(user.ID, user.Email, user.FullName, string(user.Role))
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to generate token", err)
	}
	return &AuthResponse{Token: token, User: user.ToResponse()}, nil
}
