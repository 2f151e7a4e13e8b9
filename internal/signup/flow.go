// Package signup はOTPメール認証付きのサインアップフローを提供する。
//
// ステップ1でアカウント情報を受け取りOTPを送信し、ステップ2でOTPを検証して
// アカウントを作成する。ステップ間のデータはプロセスメモリ上にのみ保持する。
package signup

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/hitoshi/taskdeck/internal/backend"
	"github.com/hitoshi/taskdeck/internal/model"
)

// otpPattern はOTPの形式（6桁の数字）。
var otpPattern = regexp.MustCompile(`^[0-9]{6}$`)

// OTPSender はOTPメールを送信するバックエンドAPI。
type OTPSender interface {
	SendOTP(ctx context.Context, email string) error
}

// Registrar はOTP検証とアカウント作成を行う主体。リクエストのセッションストアが実装する。
type Registrar interface {
	VerifyOTP(ctx context.Context, email, code string) error
	SignUp(ctx context.Context, req backend.SignUpRequest) error
}

// Metrics はサインアップフローが記録するメトリクス。
type Metrics interface {
	RecordOTPSend(success bool)
}

// Config はサインアップフローの設定。
type Config struct {
	ResendCooldown  time.Duration // OTP再送の待機時間（デフォルト: 30秒）
	TTL             time.Duration // サインアップ途中データの保持期間（デフォルト: 15分）
	CleanupInterval time.Duration // 期限切れデータのクリーンアップ間隔
}

// Form はサインアップフォームの入力値。
type Form struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
	FullName        string `json:"fullName"`
	Username        string `json:"username"`
	Redirect        string `json:"-"`
}

// Status はOTP検証画面に表示する状態。
type Status struct {
	Email    string `json:"email"`
	ResendIn int    `json:"resendIn"`
}

// Flow はサインアップフローを管理する。
type Flow struct {
	sender  OTPSender
	metrics Metrics
	logger  *slog.Logger
	config  Config
	pending *pendingStore
	now     func() time.Time
	stopCh  chan struct{}
}

// NewFlow は新しいFlowを生成する。
// バックグラウンドで期限切れデータのクリーンアップを開始する。
func NewFlow(sender OTPSender, metrics Metrics, logger *slog.Logger, config Config) *Flow {
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = time.Minute
	}
	f := &Flow{
		sender:  sender,
		metrics: metrics,
		logger:  logger,
		config:  config,
		pending: newPendingStore(config.TTL),
		now:     time.Now,
		stopCh:  make(chan struct{}),
	}

	go f.cleanupLoop()

	return f
}

// Stop はクリーンアップのバックグラウンドゴルーチンを停止する。
func (f *Flow) Stop() {
	close(f.stopCh)
}

// Start はステップ1を処理する。ネットワーク呼び出しの前に入力を検証し、
// OTPを送信してサインアップ途中データを保存する。戻り値はフローID。
func (f *Flow) Start(ctx context.Context, form Form) (string, error) {
	// 1. ローカル検証
	email := strings.TrimSpace(form.Email)
	if email == "" || form.Password == "" || form.ConfirmPassword == "" {
		return "", ErrMissingFields
	}
	if form.Password != form.ConfirmPassword {
		return "", ErrPasswordMismatch
	}

	// 2. OTP送信
	if err := f.sender.SendOTP(ctx, email); err != nil {
		f.metrics.RecordOTPSend(false)
		f.logger.Warn("OTPの送信に失敗しました", slog.String("error", err.Error()))
		return "", fmt.Errorf("%w: %w", ErrSendFailed, err)
	}
	f.metrics.RecordOTPSend(true)

	// 3. 途中データを保存し、再送の待機を開始する
	now := f.now()
	entry := &pendingEntry{
		signup: model.PendingSignup{
			Email:       email,
			Password:    form.Password,
			FullName:    strings.TrimSpace(form.FullName),
			Username:    strings.TrimSpace(form.Username),
			RedirectURL: form.Redirect,
			CreatedAt:   now,
		},
		limiter: rate.NewLimiter(rate.Every(f.config.ResendCooldown), 1),
	}
	entry.limiter.AllowN(now, 1)

	flowID := uuid.NewString()
	f.pending.put(flowID, entry)

	return flowID, nil
}

// Verify はステップ2を処理する。OTPを検証し、検証済みとしてアカウントを作成する。
// 成功時は途中データを破棄して返す（RedirectURLの引き継ぎに使う）。
func (f *Flow) Verify(ctx context.Context, reg Registrar, flowID, code string) (*model.PendingSignup, error) {
	code = strings.TrimSpace(code)
	if !otpPattern.MatchString(code) {
		return nil, ErrInvalidCode
	}

	entry := f.pending.get(flowID, f.now())
	if entry == nil {
		return nil, ErrFlowNotFound
	}
	p := entry.signup

	if err := reg.VerifyOTP(ctx, p.Email, code); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrVerificationFailed, err)
	}

	req := backend.SignUpRequest{
		Email:    p.Email,
		Password: p.Password,
		FullName: p.FullName,
		Username: p.Username,
		Verified: true,
	}
	if err := reg.SignUp(ctx, req); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRegistrationFailed, err)
	}

	f.pending.remove(flowID)
	f.logger.Info("account created after otp verification")

	return &p, nil
}

// Resend はOTPを再送する。待機時間中は*CooldownErrorを返す。
// 待機はクライアント表示用の抑止であり、サーバー側のOTP有効期限は確認しない。
func (f *Flow) Resend(ctx context.Context, flowID string) error {
	now := f.now()
	entry := f.pending.get(flowID, now)
	if entry == nil {
		return ErrFlowNotFound
	}

	r := entry.limiter.ReserveN(now, 1)
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		return &CooldownError{Remaining: delay}
	}

	if err := f.sender.SendOTP(ctx, entry.signup.Email); err != nil {
		// 送信できなかった場合は待機を開始しない
		r.CancelAt(now)
		f.metrics.RecordOTPSend(false)
		return fmt.Errorf("%w: %w", ErrSendFailed, err)
	}
	f.metrics.RecordOTPSend(true)
	return nil
}

// Status はOTP検証画面の表示内容（送信先と再送までの残り秒数）を返す。
func (f *Flow) Status(flowID string) (Status, error) {
	now := f.now()
	entry := f.pending.get(flowID, now)
	if entry == nil {
		return Status{}, ErrFlowNotFound
	}

	remaining := 0
	if tokens := entry.limiter.TokensAt(now); tokens < 1 {
		wait := time.Duration((1 - tokens) * float64(f.config.ResendCooldown))
		remaining = (&CooldownError{Remaining: wait}).Seconds()
	}

	return Status{
		Email:    entry.signup.Email,
		ResendIn: remaining,
	}, nil
}

// Cancel はサインアップ途中データを破棄する。存在しない場合は何もしない。
func (f *Flow) Cancel(flowID string) {
	f.pending.remove(flowID)
}

// cleanupLoop はバックグラウンドで期限切れデータを定期的に削除する。
func (f *Flow) cleanupLoop() {
	ticker := time.NewTicker(f.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := f.pending.purge(f.now()); n > 0 {
				f.logger.Info("期限切れのサインアップ途中データを削除しました", slog.Int("count", n))
			}
		case <-f.stopCh:
			return
		}
	}
}
