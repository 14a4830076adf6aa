package usecase

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"agrikonnect/internal/domain/model"
	repo "agrikonnect/internal/repository"

	"github.com/golang-jwt/jwt/v4"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// accesstokenの有効期限
const accessTokenTTL = 15 * time.Minute

const bcryptCost = 12

type AuthUsecase struct {
	users  repo.UserRepository
	secret []byte
	logger *zap.Logger
}

func NewAuthUsecase(users repo.UserRepository, jwtSecret string, logger *zap.Logger) *AuthUsecase {
	return &AuthUsecase{
		users:  users,
		secret: []byte(jwtSecret),
		logger: logger,
	}
}

type UserDTO struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Role     string

	// role=farmerのとき必須
	FarmName string
	Location string

	// role=customerのとき任意
	Phone   string
	Address string
}

type LoginInput struct {
	Email    string
	Password string
}

type LoginOutput struct {
	User        UserDTO `json:"user"`
	AccessToken string  `json:"access_token"`
	ExpiresIn   int     `json:"expires_in"`

	// ロール別の遷移先
	LandingPath string `json:"landing_path"`
}

// ロールごとのダッシュボード遷移先
func RoleLandingPath(role model.Role) string {
	switch role {
	case model.RoleFarmer:
		return "/farmer/dashboard"
	case model.RoleAdmin:
		return "/admin/dashboard"
	default:
		return "/"
	}
}

// 会員登録。customer / farmer のみ（adminは自己登録させない）。
func (u *AuthUsecase) Register(ctx context.Context, in RegisterInput) (UserDTO, error) {
	name := strings.TrimSpace(in.Name)
	email := strings.ToLower(strings.TrimSpace(in.Email))

	if name == "" {
		return UserDTO{}, NewHTTPError(http.StatusBadRequest, "name required")
	}
	if email == "" || !strings.Contains(email, "@") {
		return UserDTO{}, NewHTTPError(http.StatusBadRequest, "invalid email")
	}
	if len(in.Password) < 8 {
		return UserDTO{}, NewHTTPError(http.StatusBadRequest, "password must be at least 8 characters")
	}

	var role model.Role
	switch strings.ToUpper(strings.TrimSpace(in.Role)) {
	case "", string(model.RoleCustomer):
		role = model.RoleCustomer
	case string(model.RoleFarmer):
		role = model.RoleFarmer
		if strings.TrimSpace(in.FarmName) == "" {
			return UserDTO{}, NewHTTPError(http.StatusBadRequest, "farm_name required")
		}
	default:
		return UserDTO{}, NewHTTPError(http.StatusBadRequest, "invalid role")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcryptCost)
	if err != nil {
		return UserDTO{}, NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	now := time.Now()
	user := model.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := u.users.Create(ctx, &user); err != nil {
		if err == repo.ErrDuplicateEmail {
			return UserDTO{}, NewHTTPError(http.StatusConflict, "email already registered")
		}
		u.logger.Error("create user failed", zap.String("email", email), zap.Error(err))
		return UserDTO{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	//ロールプロフィール
	switch role {
	case model.RoleCustomer:
		if err := u.users.CreateCustomer(ctx, &model.Customer{
			UserID:         user.ID,
			Phone:          strings.TrimSpace(in.Phone),
			DefaultAddress: strings.TrimSpace(in.Address),
		}); err != nil {
			u.logger.Error("create customer profile failed", zap.Int64("user_id", user.ID), zap.Error(err))
			return UserDTO{}, NewHTTPError(http.StatusInternalServerError, "db error")
		}
	case model.RoleFarmer:
		if err := u.users.CreateFarmer(ctx, &model.Farmer{
			UserID:   user.ID,
			FarmName: strings.TrimSpace(in.FarmName),
			Location: strings.TrimSpace(in.Location),
		}); err != nil {
			u.logger.Error("create farmer profile failed", zap.Int64("user_id", user.ID), zap.Error(err))
			return UserDTO{}, NewHTTPError(http.StatusInternalServerError, "db error")
		}
	}

	return UserDTO{ID: user.ID, Name: user.Name, Email: user.Email, Role: string(user.Role)}, nil
}

func (u *AuthUsecase) Login(ctx context.Context, in LoginInput) (LoginOutput, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" || in.Password == "" {
		return LoginOutput{}, NewHTTPError(http.StatusBadRequest, "email and password required")
	}

	user, err := u.users.FindByEmail(ctx, email)
	if err == repo.ErrUserNotFound {
		return LoginOutput{}, NewHTTPError(http.StatusUnauthorized, "invalid credentials")
	}
	if err != nil {
		u.logger.Error("find user failed", zap.String("email", email), zap.Error(err))
		return LoginOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if !user.IsActive {
		return LoginOutput{}, NewHTTPError(http.StatusForbidden, "account disabled")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		return LoginOutput{}, NewHTTPError(http.StatusUnauthorized, "invalid credentials")
	}

	//ロールプロフィールのIDをclaimsに積む
	var customerID, farmerID int64
	switch user.Role {
	case model.RoleCustomer:
		if c, err := u.users.FindCustomerByUserID(ctx, user.ID); err == nil {
			customerID = c.ID
		}
	case model.RoleFarmer:
		if f, err := u.users.FindFarmerByUserID(ctx, user.ID); err == nil {
			farmerID = f.ID
		}
	}

	now := time.Now()
	expiresAt := now.Add(accessTokenTTL)

	claims := jwt.MapClaims{
		"sub":         strconv.FormatInt(user.ID, 10),
		"role":        string(user.Role),
		"customer_id": customerID,
		"farmer_id":   farmerID,
		"iat":         now.Unix(),
		"exp":         expiresAt.Unix(),
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(u.secret)
	if err != nil {
		return LoginOutput{}, NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	user.LastLoginAt = &now
	user.UpdatedAt = now
	if err := u.users.Update(ctx, user); err != nil {
		u.logger.Warn("update last login failed", zap.Int64("user_id", user.ID), zap.Error(err))
	}

	return LoginOutput{
		User:        UserDTO{ID: user.ID, Name: user.Name, Email: user.Email, Role: string(user.Role)},
		AccessToken: signed,
		ExpiresIn:   int(accessTokenTTL.Seconds()),
		LandingPath: RoleLandingPath(user.Role),
	}, nil
}
