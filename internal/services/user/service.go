package user

import (
	"errors"

	"cleanbage/internal/models"
	"cleanbage/internal/repositories"

	"golang.org/x/crypto/bcrypt"
)

type Service interface {
	GetByID(id string) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	Create(input *models.CreateUserInput) (*models.User, error)
	Update(user *models.User) error
	List(limit, offset int) ([]models.User, int64, error)
}

type service struct {
	repo repositories.UserRepository
}

func NewService(repo repositories.UserRepository) Service {
	return &service{
		repo: repo,
	}
}

func (s *service) GetByID(id string) (*models.User, error) {
	return s.repo.GetByID(id)
}

func (s *service) GetByEmail(email string) (*models.User, error) {
	return s.repo.GetByEmail(email)
}

func (s *service) Create(input *models.CreateUserInput) (*models.User, error) {
	if input.Email == "" {
		return nil, errors.New("email is required")
	}

	// Check if user already exists
	existingUser, _ := s.repo.GetByEmail(input.Email)
	if existingUser != nil {
		return nil, repositories.ErrDuplicateIdentity
	}

	// Hash password
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.New("failed to hash password")
	}

	role := input.Role
	if role == "" {
		role = models.RoleUser
	}
	society := input.Society
	if society == "" {
		society = "Default Society"
	}

	user := &models.User{
		Name:     input.Name,
		Email:    input.Email,
		Phone:    input.Phone,
		Password: string(hashedPassword),
		Society:  society,
		Role:     role,
	}

	if err := s.repo.Create(user); err != nil {
		return nil, err
	}

	return user, nil
}

func (s *service) Update(user *models.User) error {
	return s.repo.Update(user)
}

func (s *service) List(limit, offset int) ([]models.User, int64, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.repo.List(limit, offset)
}
