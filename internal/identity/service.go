package identity

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	berr "github.com/next-trace/scg-rideshare/contract/errors"
	"github.com/next-trace/scg-rideshare/contract/topics"
)

// StudentEmailDomain is the only email domain passengers may register with.
const StudentEmailDomain = "@student.giu-uni.de"

const (
	msgEmailTaken     = "User with this email already exists"
	msgUserNotFound   = "User not found"
	msgDriverNotFound = "Driver not found"
	msgNotADriver     = "Driver is not a driver"
)

// RegisterInput is a self-service registration.
type RegisterInput struct {
	Email        string      `json:"email"`
	FullName     string      `json:"fullName"`
	UniversityID string      `json:"universityId"`
	Role         topics.Role `json:"role"`
}

// Service implements the identity operations.
type Service struct {
	store  Store
	logger *slog.Logger
	now    func() time.Time
}

// NewService wires a Service over store. A nil logger means slog.Default().
func NewService(store Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}

	return &Service{store: store, logger: logger, now: time.Now}
}

// Register creates a passenger or driver. Admins cannot self-register.
func (s *Service) Register(ctx context.Context, in RegisterInput) (User, error) {
	email := strings.TrimSpace(in.Email)

	if in.Role == topics.RolePassenger && !strings.HasSuffix(email, StudentEmailDomain) {
		return User{}, berr.BadRequest("Only GIU student emails are allowed (e.g. mo" + StudentEmailDomain + ")")
	}

	if in.Role != topics.RoleDriver && in.Role != topics.RolePassenger {
		return User{}, berr.BadRequest("Only DRIVER or PASSENGER roles can register")
	}

	existing, err := s.store.GetByEmail(ctx, email)
	if err != nil {
		return User{}, err
	}

	if existing != nil {
		return User{}, berr.Conflict(msgEmailTaken)
	}

	u := User{
		ID:           uuid.NewString(),
		Email:        email,
		FullName:     strings.TrimSpace(in.FullName),
		UniversityID: strings.TrimSpace(in.UniversityID),
		Role:         in.Role,
		CreatedAt:    s.now().UTC(),
	}

	if in.Role == topics.RoleDriver {
		approved := false
		u.IsApproved = &approved
	}

	if err := s.store.Create(ctx, u); err != nil {
		return User{}, err
	}

	s.logger.InfoContext(ctx, "user registered", "user_id", u.ID, "role", u.Role)

	return u, nil
}

// ApproveDriver marks a driver approved.
func (s *Service) ApproveDriver(ctx context.Context, userID string) (string, error) {
	u, err := s.driver(ctx, userID)
	if err != nil {
		return "", err
	}

	approved := true
	u.IsApproved = &approved

	if err := s.store.Update(ctx, *u); err != nil {
		return "", err
	}

	s.logger.InfoContext(ctx, "driver approved", "user_id", userID)

	return "Driver approved successfully", nil
}

// RejectDriver deletes the driver account.
func (s *Service) RejectDriver(ctx context.Context, userID string) (string, error) {
	if _, err := s.driver(ctx, userID); err != nil {
		return "", err
	}

	if err := s.store.Delete(ctx, userID); err != nil {
		return "", err
	}

	s.logger.InfoContext(ctx, "driver rejected", "user_id", userID)

	return "Driver rejected", nil
}

func (s *Service) driver(ctx context.Context, userID string) (*User, error) {
	u, err := s.store.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	if u == nil {
		return nil, berr.NotFound(msgDriverNotFound)
	}

	if u.Role != topics.RoleDriver {
		return nil, berr.BadRequest(msgNotADriver)
	}

	return u, nil
}

// FindByID returns NotFound for unknown ids.
func (s *Service) FindByID(ctx context.Context, id string) (User, error) {
	u, err := s.store.Get(ctx, id)
	if err != nil {
		return User{}, err
	}

	if u == nil {
		return User{}, berr.NotFound(msgUserNotFound)
	}

	return *u, nil
}

// FindByEmail returns NotFound for unknown emails.
func (s *Service) FindByEmail(ctx context.Context, email string) (User, error) {
	u, err := s.store.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return User{}, err
	}

	if u == nil {
		return User{}, berr.NotFound(msgUserNotFound)
	}

	return *u, nil
}

func (s *Service) FindAll(ctx context.Context) ([]User, error) {
	return s.store.List(ctx)
}

// Exists answers user.exists. Unknown users are a negative answer, not an error.
func (s *Service) Exists(ctx context.Context, userID string) (topics.UserExistsReply, error) {
	u, err := s.store.Get(ctx, userID)
	if err != nil {
		return topics.UserExistsReply{}, err
	}

	if u == nil {
		return topics.UserExistsReply{Exists: false}, nil
	}

	verified := u.IsEmailVerified

	return topics.UserExistsReply{Exists: true, Role: u.Role, IsEmailVerified: &verified}, nil
}
