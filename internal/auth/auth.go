// Package auth 实现单管理员鉴权：bcrypt 哈希保存在本地 JSON 文件中，
// 登录成功后签发 HS256 JWT，HTTP 层只通过 Gate 询问 token 是否有效。
package auth

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/inkhub/inkhub/internal/config"
)

// ErrInvalidCredentials 表示密码错误。
var ErrInvalidCredentials = errors.New("auth: invalid credentials")

const subject = "admin"

// Gate 是 HTTP 层唯一依赖的鉴权判断。
type Gate interface {
	Authorized(token string) bool
}

// Policy 决定列表与删除是否需要登录；详情、保存、重命名始终需要。
type Policy struct {
	ProtectList   bool
	ProtectDelete bool
}

// PolicyFromConfig 从 [Auth] 配置段读取策略开关。
func PolicyFromConfig(cfg config.AuthConfig) Policy {
	return Policy{ProtectList: cfg.ProtectList, ProtectDelete: cfg.ProtectDelete}
}

// Options 描述 Authenticator 的参数。
type Options struct {
	SecretKey       string
	AdminPassword   string
	CredentialsPath string
	TokenTTL        time.Duration
	ForceReset      bool
	BcryptCost      int
	Logger          *logrus.Logger
	Now             func() time.Time
}

// OptionsFromConfig 从 [Auth] 配置段构造 Options。
func OptionsFromConfig(cfg config.AuthConfig, logger *logrus.Logger) Options {
	return Options{
		SecretKey:       cfg.SecretKey,
		AdminPassword:   cfg.AdminPassword,
		CredentialsPath: cfg.CredentialsPath,
		TokenTTL:        cfg.TokenTTL.DurationValue(),
		ForceReset:      cfg.ForceReset,
		Logger:          logger,
	}
}

// Authenticator 实现 Gate，并负责登录与修改密码。
type Authenticator struct {
	secret []byte
	ttl    time.Duration
	cost   int
	now    func() time.Time
	logger *logrus.Logger

	mu    sync.Mutex
	creds *credentialsFile
}

var _ Gate = (*Authenticator)(nil)

// NewAuthenticator 初始化凭据文件：不存在、损坏或要求强制重置时用 AdminPassword 重新写入。
func NewAuthenticator(opts Options) (*Authenticator, error) {
	if opts.SecretKey == "" {
		return nil, errors.New("auth: secret key is required")
	}
	if opts.TokenTTL <= 0 {
		opts.TokenTTL = 12 * time.Hour
	}
	if opts.BcryptCost == 0 {
		opts.BcryptCost = bcrypt.DefaultCost
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}

	a := &Authenticator{
		secret: []byte(opts.SecretKey),
		ttl:    opts.TokenTTL,
		cost:   opts.BcryptCost,
		now:    opts.Now,
		logger: opts.Logger,
		creds:  &credentialsFile{path: opts.CredentialsPath},
	}
	if err := a.seed(opts.AdminPassword, opts.ForceReset); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *Authenticator) seed(password string, force bool) error {
	fields := logrus.Fields{"action": "auth_init", "path": a.creds.path}

	_, err := a.creds.load()
	switch {
	case err == nil && !force:
		return nil
	case err == nil && force:
		fields["reason"] = "force_reset"
	case errors.Is(err, errCredentialsMissing):
		fields["reason"] = "missing"
	case errors.Is(err, errCredentialsCorrupt):
		fields["reason"] = "corrupt"
		a.logger.WithFields(fields).WithError(err).Warn("auth_file_invalid")
	default:
		return err
	}

	if password == "" {
		return fmt.Errorf("auth: ADMIN_PASSWORD is required to initialize %s (%s)", a.creds.path, fields["reason"])
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), a.cost)
	if err != nil {
		return fmt.Errorf("auth: hash password: %w", err)
	}
	if err := a.creds.store(string(hash)); err != nil {
		return err
	}
	a.logger.WithFields(fields).Info("auth_file_seeded")
	return nil
}

// Login 校验密码并签发 token。
func (a *Authenticator) Login(password string) (string, error) {
	if err := a.verify(password); err != nil {
		return "", err
	}
	return a.Issue()
}

// ChangePassword 校验当前密码后写入新密码的哈希。
func (a *Authenticator) ChangePassword(current, next string) error {
	if strings.TrimSpace(next) == "" {
		return errors.New("auth: new password must not be empty")
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.verifyLocked(current); err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(next), a.cost)
	if err != nil {
		return fmt.Errorf("auth: hash password: %w", err)
	}
	if err := a.creds.store(string(hash)); err != nil {
		return err
	}
	a.logger.WithFields(logrus.Fields{"action": "auth_password", "path": a.creds.path}).Info("password_changed")
	return nil
}

// Issue 签发新的访问 token。
func (a *Authenticator) Issue() (string, error) {
	now := a.now()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("auth: sign token: %w", err)
	}
	return signed, nil
}

// TTL 返回 token 有效期。
func (a *Authenticator) TTL() time.Duration {
	return a.ttl
}

// Authorized 校验 token 签名、算法与有效期，接受可选的 "Bearer " 前缀。
func (a *Authenticator) Authorized(token string) bool {
	token = strings.TrimSpace(token)
	if len(token) > 7 && strings.EqualFold(token[:7], "bearer ") {
		token = strings.TrimSpace(token[7:])
	}
	if token == "" {
		return false
	}

	var claims jwt.RegisteredClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return a.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil || !parsed.Valid {
		return false
	}
	return claims.Subject == subject
}

func (a *Authenticator) verify(password string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.verifyLocked(password)
}

func (a *Authenticator) verifyLocked(password string) error {
	hash, err := a.creds.load()
	if err != nil {
		a.logger.WithFields(logrus.Fields{"action": "auth_login", "path": a.creds.path}).
			WithError(err).Error("auth_file_unreadable")
		return ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return ErrInvalidCredentials
	}
	return nil
}
