// Package auth は認証・登録・メール確認のビジネスロジックを提供する。
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/mail"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/hitoshi/dlhub/internal/model"
	"github.com/hitoshi/dlhub/internal/repository"
)

// bcryptCost はパスワードハッシュのコストパラメータ。
const bcryptCost = 12

// ユーザー名の制約。英数字とアンダースコアのみを許可する。
const (
	usernameMinLength = 3
	usernameMaxLength = 50
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

// VerificationMailer はメール確認リンクの送信インターフェース。
type VerificationMailer interface {
	SendVerificationEmail(to, username, token string) error
}

// Metrics は認証イベントの計測インターフェース。nilの場合は計測しない。
type Metrics interface {
	RecordLoginSuccess()
	RecordLoginFailure()
	RecordLoginLocked()
	RecordRegistration()
	RecordVerificationEmail(sent bool)
	RecordEmailVerified()
}

// Config は認証サービスの設定。
type Config struct {
	PasswordMinLength  int
	LoginAttemptsLimit int           // ロックアウトまでの失敗回数（既定5）
	LoginLockoutTime   time.Duration // ロックアウト期間（既定15分）
}

// Service は認証関連のビジネスロジックを担う。
type Service struct {
	userRepo    repository.UserRepository
	sessionRepo repository.SessionRepository
	mailer      VerificationMailer
	metrics     Metrics
	config      Config

	// now はテストで差し替え可能な現在時刻関数。
	now func() time.Time
}

// NewService はServiceを生成する。mailerとmetricsはnilを許容する。
func NewService(userRepo repository.UserRepository, sessionRepo repository.SessionRepository, mailer VerificationMailer, metrics Metrics, config Config) *Service {
	return &Service{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		mailer:      mailer,
		metrics:     metrics,
		config:      config,
		now:         time.Now,
	}
}

// Login は識別子（ユーザー名またはメールアドレス）とパスワードで認証する。
// 検証は必ずこの順序で行う:
//  1. セッションのロックアウト判定（ロック中はDBへ一切問い合わせない）
//  2. ユーザー検索（ユーザー名・メールどちらでも一致）
//  3. パスワード照合
//  4. メール確認状態の判定
//
// 不存在とパスワード不一致はどちらも同じ汎用エラーを返し、失敗として記録する。
// メール未確認はパスワード一致後にのみ判明するため、専用のエラーを返す
// （失敗カウンタは増やさない）。成功時はカウンタを消去し、セッションへ
// ユーザー情報を書き込む。
func (s *Service) Login(ctx context.Context, sess *model.Session, identifier, password string) (*model.User, error) {
	if s.IsLoginLocked(sess) {
		if s.metrics != nil {
			s.metrics.RecordLoginLocked()
		}
		slog.Warn("login attempt while locked out",
			"session_id", sess.ID,
			"attempts", sess.LoginAttempts)
		return nil, model.NewAccountLockedError()
	}

	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		return nil, model.NewValidationError("ユーザー名とパスワードを入力してください。")
	}

	user, err := s.userRepo.FindByUsernameOrEmail(ctx, identifier)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		if err := s.RecordFailedLogin(ctx, sess); err != nil {
			return nil, err
		}
		if s.metrics != nil {
			s.metrics.RecordLoginFailure()
		}
		return nil, model.NewInvalidCredentialsError()
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		if err := s.RecordFailedLogin(ctx, sess); err != nil {
			return nil, err
		}
		if s.metrics != nil {
			s.metrics.RecordLoginFailure()
		}
		return nil, model.NewInvalidCredentialsError()
	}

	if !user.EmailVerified {
		slog.Info("login rejected: email not verified", "user_id", user.ID)
		return nil, model.NewEmailNotVerifiedError()
	}

	if err := s.ClearFailedLogins(ctx, sess); err != nil {
		return nil, err
	}

	if err := s.sessionRepo.UpdateAuth(ctx, sess.ID, user.ID, user.Role, user.Username); err != nil {
		return nil, fmt.Errorf("failed to update session auth: %w", err)
	}
	sess.UserID = user.ID
	sess.UserRole = user.Role
	sess.Username = user.Username

	if s.metrics != nil {
		s.metrics.RecordLoginSuccess()
	}
	slog.Info("user logged in", "user_id", user.ID, "username", user.Username)

	return user, nil
}

// RegisterResult は登録結果を表す。
// EmailSentがfalseの場合、登録自体は成功しているが確認メールの送信に失敗している。
type RegisterResult struct {
	User      *model.User
	EmailSent bool
}

// Register は新規ユーザーを登録し、確認メールの送信を試みる。
// ユーザー名・メールの一意性は1クエリでまとめて確認し、どちらが衝突したかは
// エラーから判別できない。確認メールの送信失敗は登録を取り消さない
// （ユーザーは作成済みのまま、EmailSent=falseで警告扱いとする）。
func (s *Service) Register(ctx context.Context, username, email, password string) (*RegisterResult, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(strings.ToLower(email))

	if err := validateUsername(username); err != nil {
		return nil, err
	}
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if len(password) < s.config.PasswordMinLength {
		return nil, model.NewValidationError(
			fmt.Sprintf("パスワードは%d文字以上で入力してください。", s.config.PasswordMinLength))
	}

	exists, err := s.userRepo.ExistsByUsernameOrEmail(ctx, username, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check user existence: %w", err)
	}
	if exists {
		return nil, model.NewAlreadyTakenError()
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	token, err := generateToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate verification token: %w", err)
	}

	user := &model.User{
		ID:                uuid.NewString(),
		Username:          username,
		Email:             email,
		PasswordHash:      string(hash),
		Role:              model.RoleMember,
		EmailVerified:     false,
		VerificationToken: &token,
		CreatedAt:         s.now(),
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	if s.metrics != nil {
		s.metrics.RecordRegistration()
	}
	slog.Info("user registered", "user_id", user.ID, "username", username)

	emailSent := false
	if s.mailer != nil {
		if err := s.mailer.SendVerificationEmail(email, username, token); err != nil {
			slog.Error("failed to send verification email", "user_id", user.ID, "error", err)
		} else {
			emailSent = true
		}
	}
	if s.metrics != nil {
		s.metrics.RecordVerificationEmail(emailSent)
	}

	return &RegisterResult{User: user, EmailSent: emailSent}, nil
}

// VerifyEmail は確認トークンを消費してメールアドレスを確認済みにする。
// トークンは1回限り有効で、消費は単一のUPDATEでアトミックに行う。
// 空・不明・消費済みトークンはいずれも同じ失敗として扱う。
func (s *Service) VerifyEmail(ctx context.Context, token string) (bool, error) {
	if token == "" {
		return false, nil
	}

	verified, err := s.userRepo.VerifyEmailByToken(ctx, token)
	if err != nil {
		return false, fmt.Errorf("failed to verify email: %w", err)
	}
	if verified {
		if s.metrics != nil {
			s.metrics.RecordEmailVerified()
		}
		slog.Info("email verified")
	}
	return verified, nil
}

// validateUsername はユーザー名の形式を検証する。
func validateUsername(username string) *model.APIError {
	if len(username) < usernameMinLength || len(username) > usernameMaxLength {
		return model.NewValidationError(
			fmt.Sprintf("ユーザー名は%d文字以上%d文字以下で入力してください。", usernameMinLength, usernameMaxLength))
	}
	if !usernamePattern.MatchString(username) {
		return model.NewValidationError("ユーザー名には英数字とアンダースコアのみ使用できます。")
	}
	return nil
}

// validateEmail はメールアドレスの形式を検証する。
func validateEmail(email string) *model.APIError {
	if email == "" {
		return model.NewValidationError("メールアドレスを入力してください。")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return model.NewValidationError("メールアドレスの形式が正しくありません。")
	}
	return nil
}

// generateToken は暗号的に安全な確認トークンを生成する。
func generateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
