package service

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"agrolink/internal/auth"
	"agrolink/internal/domain"
	"agrolink/internal/repository"
)

// TokenTTL срок действия bearer-токена
const TokenTTL = 24 * time.Hour

var phoneRe = regexp.MustCompile(`^[+0-9\s()-]{6,20}$`)

var (
	ErrEmailTaken   = &ValidationError{msg: "Correo ya registrado"}
	ErrEmailInUse   = &ValidationError{msg: "Email ya está en uso"}
	ErrInvalidRole  = &ValidationError{msg: "Rol inválido"}
	ErrInvalidPhone = &ValidationError{msg: "Phone inválido"}
)

// UserService регистрация, вход, восстановление пароля и профиль
type UserService struct {
	users  repository.UserRepository
	tokens *auth.TokenManager
}

func NewUserService(users repository.UserRepository, tokens *auth.TokenManager) *UserService {
	return &UserService{users: users, tokens: tokens}
}

// RegisterInput входные данные регистрации
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Role     domain.Role
	Phone    string
}

// Register создаёт пользователя. Админ не регистрируется самостоятельно;
// email уникален без учёта регистра и хранится в нижнем регистре.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	if in.Role != domain.RoleProducer && in.Role != domain.RoleConsumer {
		return nil, ErrInvalidRole
	}
	if in.Name == "" || in.Email == "" || in.Password == "" {
		return nil, Validationf("name, email y password son obligatorios")
	}
	if in.Phone == "" {
		return nil, Validationf("Phone requerido")
	}
	if !phoneRe.MatchString(in.Phone) {
		return nil, ErrInvalidPhone
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), 10)
	if err != nil {
		return nil, err
	}
	u := domain.User{
		Name:     strings.TrimSpace(in.Name),
		Email:    strings.ToLower(strings.TrimSpace(in.Email)),
		Password: string(hash),
		Role:     in.Role,
		Phone:    strings.TrimSpace(in.Phone),
	}
	if err := s.users.Create(ctx, &u); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	return &u, nil
}

// LoginResult токен и роль для фронта
type LoginResult struct {
	Token string      `json:"token"`
	Role  domain.Role `json:"role"`
}

// Login проверяет пароль и выпускает токен на сутки
func (s *UserService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrBadCredentials
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)) != nil {
		return nil, ErrBadCredentials
	}
	token, err := s.tokens.Issue(auth.Identity{UserID: u.ID, Role: u.Role})
	if err != nil {
		return nil, err
	}
	return &LoginResult{Token: token, Role: u.Role}, nil
}

// Recover перезаписывает пароль. Для неизвестного email тоже отвечает
// успехом, чтобы не раскрывать базу адресов.
func (s *UserService) Recover(ctx context.Context, email, newPassword string) error {
	if email == "" || newPassword == "" {
		return Validationf("email y newPassword son requeridos")
	}
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), 10)
	if err != nil {
		return err
	}
	u.Password = string(hash)
	return s.users.Update(ctx, u)
}

// Profile публичные поля собственного профиля
type Profile struct {
	ID    string      `json:"id"`
	Name  string      `json:"name"`
	Email string      `json:"email"`
	Phone string      `json:"phone"`
	Role  domain.Role `json:"role"`
}

// Me возвращает профиль вызывающего
func (s *UserService) Me(ctx context.Context, actor auth.Identity) (*Profile, error) {
	u, err := s.users.GetByID(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	return &Profile{ID: u.ID, Name: u.Name, Email: u.Email, Phone: u.Phone, Role: u.Role}, nil
}

// UpdateMe self-service правка name/email/phone
func (s *UserService) UpdateMe(ctx context.Context, actor auth.Identity, name, email, phone string) (*Profile, error) {
	if name == "" || email == "" || phone == "" {
		return nil, Validationf("name, email y phone son obligatorios")
	}
	if !phoneRe.MatchString(phone) {
		return nil, ErrInvalidPhone
	}
	u, err := s.users.GetByID(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	u.Name = strings.TrimSpace(name)
	u.Email = strings.ToLower(strings.TrimSpace(email))
	u.Phone = strings.TrimSpace(phone)
	if err := s.users.Update(ctx, u); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrEmailInUse
		}
		return nil, err
	}
	return &Profile{ID: u.ID, Name: u.Name, Email: u.Email, Phone: u.Phone, Role: u.Role}, nil
}
