package usecase

import (
	"context"
	"testing"

	"agrikonnect/internal/domain/model"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

const testSecret = "unit-test-secret"

func newAuthFixture() (*AuthUsecase, *fakeUserRepo) {
	users := newFakeUserRepo()
	uc := NewAuthUsecase(users, testSecret, zap.NewNop())
	return uc, users
}

func registerCustomer(t *testing.T, uc *AuthUsecase) UserDTO {
	t.Helper()
	out, err := uc.Register(context.Background(), RegisterInput{
		Name:     "Asha",
		Email:    "asha@example.com",
		Password: "secret-password",
		Role:     "customer",
	})
	assert.NoError(t, err)
	return out
}

// =====================
// Register
// =====================

func TestRegister_CustomerCreatesProfile(t *testing.T) {
	uc, users := newAuthFixture()

	out := registerCustomer(t, uc)
	assert.Equal(t, "CUSTOMER", out.Role)

	//customerプロフィールが一緒に作られる
	c, err := users.FindCustomerByUserID(context.Background(), out.ID)
	assert.NoError(t, err)
	assert.Equal(t, out.ID, c.UserID)

	//パスワードは平文で保存されない
	u, _ := users.FindByID(context.Background(), out.ID)
	assert.NotEqual(t, "secret-password", u.PasswordHash)
	assert.NotEmpty(t, u.PasswordHash)
}

func TestRegister_FarmerNeedsFarmName(t *testing.T) {
	uc, _ := newAuthFixture()

	_, err := uc.Register(context.Background(), RegisterInput{
		Name:     "Bo",
		Email:    "bo@example.com",
		Password: "secret-password",
		Role:     "farmer",
	})
	assertErrContains(t, err, "farm_name required")

	out, err := uc.Register(context.Background(), RegisterInput{
		Name:     "Bo",
		Email:    "bo@example.com",
		Password: "secret-password",
		Role:     "farmer",
		FarmName: "Hilltop Farm",
	})
	assert.NoError(t, err)
	assert.Equal(t, "FARMER", out.Role)
}

func TestRegister_AdminRoleRejected(t *testing.T) {
	uc, _ := newAuthFixture()

	_, err := uc.Register(context.Background(), RegisterInput{
		Name:     "Eve",
		Email:    "eve@example.com",
		Password: "secret-password",
		Role:     "admin",
	})
	assertErrContains(t, err, "invalid role")
}

func TestRegister_DuplicateEmail(t *testing.T) {
	uc, _ := newAuthFixture()
	registerCustomer(t, uc)

	_, err := uc.Register(context.Background(), RegisterInput{
		Name:     "Asha Again",
		Email:    "ASHA@example.com", // 大文字でも同一扱い
		Password: "secret-password",
	})
	assertErrContains(t, err, "email already registered")
}

func TestRegister_ShortPassword(t *testing.T) {
	uc, _ := newAuthFixture()

	_, err := uc.Register(context.Background(), RegisterInput{
		Name:     "Asha",
		Email:    "asha@example.com",
		Password: "short",
	})
	assertErrContains(t, err, "at least 8 characters")
}

// =====================
// Login
// =====================

func TestLogin_Success(t *testing.T) {
	uc, _ := newAuthFixture()
	registered := registerCustomer(t, uc)

	out, err := uc.Login(context.Background(), LoginInput{
		Email:    "asha@example.com",
		Password: "secret-password",
	})
	assert.NoError(t, err)
	assert.Equal(t, registered.ID, out.User.ID)
	assert.Equal(t, "/", out.LandingPath)
	assert.NotEmpty(t, out.AccessToken)

	//claimsの中身
	token, err := jwt.Parse(out.AccessToken, func(t *jwt.Token) (interface{}, error) {
		return []byte(testSecret), nil
	})
	assert.NoError(t, err)
	claims := token.Claims.(jwt.MapClaims)
	assert.Equal(t, "CUSTOMER", claims["role"])
	assert.NotZero(t, claims["customer_id"])
}

func TestLogin_WrongPassword(t *testing.T) {
	uc, _ := newAuthFixture()
	registerCustomer(t, uc)

	_, err := uc.Login(context.Background(), LoginInput{
		Email:    "asha@example.com",
		Password: "wrong-password",
	})
	assertErrContains(t, err, "invalid credentials")
}

func TestLogin_UnknownEmail(t *testing.T) {
	uc, _ := newAuthFixture()

	_, err := uc.Login(context.Background(), LoginInput{
		Email:    "nobody@example.com",
		Password: "whatever123",
	})
	assertErrContains(t, err, "invalid credentials")
}

func TestLogin_DeactivatedUser(t *testing.T) {
	uc, users := newAuthFixture()
	registered := registerCustomer(t, uc)

	assert.NoError(t, users.SetUserActive(context.Background(), registered.ID, false))

	_, err := uc.Login(context.Background(), LoginInput{
		Email:    "asha@example.com",
		Password: "secret-password",
	})
	assertErrContains(t, err, "account disabled")
}

// =====================
// ロール別の遷移先
// =====================

func TestRoleLandingPath(t *testing.T) {
	assert.Equal(t, "/", RoleLandingPath(model.RoleCustomer))
	assert.Equal(t, "/farmer/dashboard", RoleLandingPath(model.RoleFarmer))
	assert.Equal(t, "/admin/dashboard", RoleLandingPath(model.RoleAdmin))
}
