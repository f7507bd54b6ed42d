package service

import (
	"context"
	"errors"
	"strings"

	"LovMapServer/apps/server/internal/dto"
	"LovMapServer/apps/server/internal/repository"
	"LovMapServer/apps/server/internal/utils"
	"LovMapServer/config"
	"LovMapServer/consts"
	"LovMapServer/model"
	"LovMapServer/pkg/logger"
	pkgutil "LovMapServer/pkg/util"

	"golang.org/x/crypto/bcrypt"
)

// authServiceImpl 认证服务实现
type authServiceImpl struct {
	userRepo       repository.IUserRepository
	profileService IProfileService
	serverCfg      config.ServerConfig
}

// NewAuthService 创建认证服务实例
func NewAuthService(
	userRepo repository.IUserRepository,
	profileService IProfileService,
	serverCfg config.ServerConfig,
) IAuthService {
	return &authServiceImpl{
		userRepo:       userRepo,
		profileService: profileService,
		serverCfg:      serverCfg,
	}
}

// Register 注册并建档
func (s *authServiceImpl) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.TokenResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	// 邮箱查重
	if _, err := s.userRepo.GetByEmail(ctx, email); err == nil {
		return nil, utils.NewBizError(consts.CodeUserAlreadyExist)
	} else if !errors.Is(err, repository.ErrRecordNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	uuid := strings.ReplaceAll(pkgutil.NewUUID(), "-", "")[:28]

	profile := &model.UserProfile{
		Uuid:                 uuid,
		Email:                email,
		Code:                 DeriveFriendCode(uuid),
		PasswordHash:         string(hash),
		NotifyNewLovs:        true,
		NotifyNewFriendships: true,
		NotifyNewReactions:   true,
	}
	if pseudo := strings.TrimSpace(req.Pseudo); pseudo != "" {
		profile.Pseudo = pseudo
		profile.HasSetInitialPseudo = true
	} else {
		// 未提供昵称时用邮箱本地部分占位，初始昵称保持未锁定
		profile.Pseudo = pseudoFromEmail(email)
	}

	if err := s.userRepo.EnsureProfile(ctx, profile); err != nil {
		return nil, err
	}

	logger.Info(ctx, "用户已注册",
		logger.String("uuid", uuid),
		logger.String("code", profile.Code),
	)

	return s.issueToken(uuid, email, profile)
}

// Login 登录
// 查不到用户和密码错误返回同一个错误码，不暴露账号是否存在。
func (s *authServiceImpl) Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	profile, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrRecordNotFound) {
			return nil, utils.NewBizError(consts.CodePasswordError)
		}
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(profile.PasswordHash), []byte(req.Password)) != nil {
		return nil, utils.NewBizError(consts.CodePasswordError)
	}

	// 登录后幂等补档（缺失字段补全，不覆盖已有资料）
	stored, err := s.profileService.EnsureProfile(ctx, profile.Uuid, email)
	if err != nil {
		return nil, err
	}

	return s.issueToken(stored.Uuid, stored.Email, stored)
}

// issueToken 签发令牌并组装响应
func (s *authServiceImpl) issueToken(uuid, email string, profile *model.UserProfile) (*dto.TokenResponse, error) {
	token, expireAt, err := utils.SignToken(s.serverCfg.JWTSecret, uuid, email, s.serverCfg.JWTExpire)
	if err != nil {
		return nil, err
	}
	return &dto.TokenResponse{
		Token:    token,
		ExpireAt: expireAt.Unix(),
		Profile:  dto.ConvertProfileResponse(profile),
	}, nil
}
