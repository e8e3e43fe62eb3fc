package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"polkaedu_backend/internal/chain"
	"polkaedu_backend/internal/model"
	"polkaedu_backend/internal/repository"
	"polkaedu_backend/internal/util"
	"polkaedu_backend/pkg/logger"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type UserService struct {
	UserRepo     *repository.UserRepository
	JWTSecret    string
	JWTExpire    time.Duration
	PasswordCost int
}

func NewUserService(userRepo *repository.UserRepository, jwtSecret string, jwtExpire time.Duration) *UserService {
	return &UserService{
		UserRepo:     userRepo,
		JWTSecret:    jwtSecret,
		JWTExpire:    jwtExpire,
		PasswordCost: bcrypt.DefaultCost,
	}
}

type CreateUserRequest struct {
	Email         string `json:"email"`
	Password      string `json:"password"`
	Name          string `json:"name"`
	WalletAddress string `json:"walletAddress"`
}

type WalletUserRequest struct {
	WalletAddress string `json:"walletAddress" binding:"required"`
	Name          string `json:"name"`
	Email         string `json:"email"`
}

type UpdateUserRequest struct {
	Email         *string `json:"email"`
	Name          *string `json:"name"`
	WalletAddress *string `json:"walletAddress"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	Token string      `json:"token"`
	User  *model.User `json:"user"`
}

func (s *UserService) CreateUser(req CreateUserRequest) (*model.User, error) {
	email := strings.TrimSpace(req.Email)
	if email == "" {
		return nil, util.ErrEmailRequired
	}
	if req.Password == "" {
		return nil, util.ErrPasswordRequired
	}

	if _, err := s.UserRepo.FindByEmail(email); err == nil {
		return nil, util.ErrEmailAlreadyRegistered
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	user := &model.User{Email: email, Name: req.Name}

	if req.WalletAddress != "" {
		if err := s.checkWalletFree(req.WalletAddress, ""); err != nil {
			return nil, err
		}
		wallet := req.WalletAddress
		user.WalletAddress = &wallet
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.PasswordCost)
	if err != nil {
		return nil, err
	}
	user.PasswordHash = string(hash)

	if err := s.create(user); err != nil {
		return nil, err
	}
	return user, nil
}

// create 依赖唯一索引兜底并发注册
func (s *UserService) create(user *model.User) error {
	err := s.UserRepo.Create(user)
	if repository.IsDuplicateKey(err) {
		if _, findErr := s.UserRepo.FindByEmail(user.Email); findErr == nil {
			return util.ErrEmailAlreadyRegistered
		}
		return util.ErrWalletAlreadyAssociated
	}
	return err
}

// checkWalletFree 校验地址格式，且未被 exceptUserID 以外的用户绑定
func (s *UserService) checkWalletFree(wallet, exceptUserID string) error {
	if !chain.ValidateAddress(wallet) {
		return util.Errorf(util.ErrValidation, "invalid wallet address: %s", wallet)
	}
	owner, err := s.UserRepo.FindByWallet(wallet)
	if err == nil && owner.ID != exceptUserID {
		return util.ErrWalletAlreadyAssociated
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	return nil
}

func (s *UserService) checkEmailFree(email, exceptUserID string) error {
	owner, err := s.UserRepo.FindByEmail(email)
	if err == nil && owner.ID != exceptUserID {
		return util.ErrEmailAlreadyRegistered
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	return nil
}

// GetOrCreateByWallet 按钱包查找用户，不存在时创建无密码用户；已存在时按需更新姓名和邮箱
func (s *UserService) GetOrCreateByWallet(wallet, name, email string) (*model.User, error) {
	wallet = strings.TrimSpace(wallet)
	if wallet == "" {
		return nil, util.NewError(util.ErrValidation, "walletAddress is required")
	}
	if !chain.ValidateAddress(wallet) {
		return nil, util.Errorf(util.ErrValidation, "invalid wallet address: %s", wallet)
	}

	user, err := s.UserRepo.FindByWallet(wallet)
	if err == nil {
		if name == "" && email == "" {
			return user, nil
		}
		return s.applyProfile(user, name, email)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if email != "" {
		if err := s.checkEmailFree(email, ""); err != nil {
			return nil, err
		}
	}

	short := util.ShortAddress(wallet)
	if email == "" {
		email = fmt.Sprintf("wallet_%s@polkaedu.local", short)
	}
	if name == "" {
		name = "User " + short
	}

	user = &model.User{Email: email, Name: name, WalletAddress: &wallet}
	if err := s.create(user); err != nil {
		// 并发请求已经为同一钱包建好了用户
		if errors.Is(err, util.ErrWalletAlreadyAssociated) {
			return s.UserRepo.FindByWallet(wallet)
		}
		return nil, err
	}

	logger.Log.Info("Created wallet user", zap.String("userId", user.ID), zap.String("wallet", wallet))
	return user, nil
}

func (s *UserService) applyProfile(user *model.User, name, email string) (*model.User, error) {
	if email != "" && email != user.Email {
		if err := s.checkEmailFree(email, user.ID); err != nil {
			return nil, err
		}
		user.Email = email
	}
	if name != "" {
		user.Name = name
	}
	if err := s.UserRepo.Update(user); err != nil {
		if repository.IsDuplicateKey(err) {
			return nil, util.ErrEmailAlreadyRegistered
		}
		return nil, err
	}
	return user, nil
}

// AssociateWallet 为已有用户绑定钱包
func (s *UserService) AssociateWallet(userID, wallet string) (*model.User, error) {
	user, err := s.GetUser(userID)
	if err != nil {
		return nil, err
	}
	if err := s.checkWalletFree(wallet, user.ID); err != nil {
		return nil, err
	}
	user.WalletAddress = &wallet
	if err := s.UserRepo.Update(user); err != nil {
		if repository.IsDuplicateKey(err) {
			return nil, util.ErrWalletAlreadyAssociated
		}
		return nil, err
	}
	return user, nil
}

func (s *UserService) GetUser(id string) (*model.User, error) {
	user, err := s.UserRepo.FindByID(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrUserNotFound
	}
	return user, err
}

func (s *UserService) GetUserByWallet(wallet string) (*model.User, error) {
	user, err := s.UserRepo.FindByWallet(wallet)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrUserNotFound
	}
	return user, err
}

func (s *UserService) ListUsers() ([]model.User, error) {
	return s.UserRepo.List()
}

func (s *UserService) UpdateUser(id string, req UpdateUserRequest) (*model.User, error) {
	user, err := s.GetUser(id)
	if err != nil {
		return nil, err
	}

	if req.Email != nil {
		email := strings.TrimSpace(*req.Email)
		if email == "" {
			return nil, util.ErrEmailRequired
		}
		if err := s.checkEmailFree(email, user.ID); err != nil {
			return nil, err
		}
		user.Email = email
	}
	if req.Name != nil {
		user.Name = *req.Name
	}
	if req.WalletAddress != nil {
		if *req.WalletAddress == "" {
			user.WalletAddress = nil
		} else {
			if err := s.checkWalletFree(*req.WalletAddress, user.ID); err != nil {
				return nil, err
			}
			wallet := *req.WalletAddress
			user.WalletAddress = &wallet
		}
	}

	if err := s.UserRepo.Update(user); err != nil {
		return nil, err
	}
	return user, nil
}

// DeleteUser 不会删除该用户的报名和证书
func (s *UserService) DeleteUser(id string) error {
	err := s.UserRepo.Delete(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return util.ErrUserNotFound
	}
	return err
}

func (s *UserService) Login(req LoginRequest) (*LoginResponse, error) {
	user, err := s.UserRepo.FindByEmail(req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrInvalidCredentials
		}
		return nil, err
	}

	// 钱包用户没有密码，不能用邮箱登录
	if user.PasswordHash == "" {
		return nil, util.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, util.ErrInvalidCredentials
	}

	token, err := util.GenerateJWT(user, s.JWTSecret, s.JWTExpire)
	if err != nil {
		return nil, err
	}
	return &LoginResponse{Token: token, User: user}, nil
}
