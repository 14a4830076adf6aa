package repository

import (
	"context"
	"errors"

	"agrikonnect/internal/domain/model"
)

// ユーザーが見つかりませんを統一
var ErrUserNotFound = errors.New("user not found")

// メール重複（uniqueIndex違反）を統一
var ErrDuplicateEmail = errors.New("email already registered")

// ユーザーとロールプロフィールの保存・取得を約束
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	FindByID(ctx context.Context, userID int64) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	Update(ctx context.Context, user *model.User) error

	CreateCustomer(ctx context.Context, c *model.Customer) error
	CreateFarmer(ctx context.Context, f *model.Farmer) error

	// 注文を置くユーザーのcustomerプロフィール解決
	FindCustomerByUserID(ctx context.Context, userID int64) (*model.Customer, error)
	FindFarmerByUserID(ctx context.Context, userID int64) (*model.Farmer, error)

	ListFarmers(ctx context.Context, page int, limit int) ([]model.Farmer, int64, error)
	SetFarmerVerified(ctx context.Context, farmerID int64, verified bool) error
	SetUserActive(ctx context.Context, userID int64, active bool) error
}
