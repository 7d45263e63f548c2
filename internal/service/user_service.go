package service

import (
	"regexp"
	"strings"

	"go-agritrace/internal/apperr"
	"go-agritrace/internal/model"
	"go-agritrace/internal/repository"

	"github.com/google/uuid"
)

var walletPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)

type ProfileUpdate struct {
	FullName    string `json:"fullName"`
	CompanyName string `json:"companyName"`
	Avatar      string `json:"avatar"`
}

type UserService interface {
	UpdateWallet(userID uuid.UUID, walletAddress string) (string, error)
	UpdateProfile(userID uuid.UUID, update *ProfileUpdate) (*model.UserResponse, error)
	UpdateFCMToken(userID uuid.UUID, token string) error
	Farmers() ([]model.UserResponse, error)
}

type userService struct {
	userRepo repository.UserRepository
}

func NewUserService(userRepo repository.UserRepository) UserService {
	return &userService{userRepo: userRepo}
}

func (s *userService) UpdateWallet(userID uuid.UUID, walletAddress string) (string, error) {
	if !walletPattern.MatchString(walletAddress) {
		return "", apperr.New(apperr.KindValidation, "invalid wallet address")
	}
	normalized := strings.ToLower(walletAddress)

	if err := s.userRepo.UpdateFields(userID, map[string]interface{}{
		"wallet_address": normalized,
	}); err != nil {
		// Unique index violation: the wallet belongs to another account.
		return "", apperr.Wrap(apperr.KindValidation, "wallet already linked to another account", err)
	}
	return normalized, nil
}

func (s *userService) UpdateProfile(userID uuid.UUID, update *ProfileUpdate) (*model.UserResponse, error) {
	fields := map[string]interface{}{}
	if update.FullName != "" {
		fields["full_name"] = update.FullName
	}
	if update.CompanyName != "" {
		fields["company_name"] = update.CompanyName
	}
	if update.Avatar != "" {
		fields["avatar"] = update.Avatar
	}

	if len(fields) > 0 {
		if err := s.userRepo.UpdateFields(userID, fields); err != nil {
			return nil, err
		}
	}

	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		return nil, apperr.New(apperr.KindNotFound, "user not found")
	}
	resp := user.ToResponse()
	return &resp, nil
}

func (s *userService) UpdateFCMToken(userID uuid.UUID, token string) error {
	return s.userRepo.UpdateFields(userID, map[string]interface{}{
		"fcm_token": token,
	})
}

func (s *userService) Farmers() ([]model.UserResponse, error) {
	farmers, err := s.userRepo.FindByRole(model.RoleFarmer)
	if err != nil {
		return nil, err
	}

	responses := make([]model.UserResponse, 0, len(farmers))
	for i := range farmers {
		responses = append(responses, farmers[i].ToResponse())
	}
	return responses, nil
}
