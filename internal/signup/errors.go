package signup

import (
	"errors"
	"fmt"
	"math"
	"time"
)

var (
	// ErrMissingFields はメールアドレス・パスワード・確認用パスワードのいずれかが未入力であることを示す。
	ErrMissingFields = errors.New("signup: missing required fields")
	// ErrPasswordMismatch はパスワードと確認用パスワードが一致しないことを示す。
	ErrPasswordMismatch = errors.New("signup: passwords do not match")
	// ErrSendFailed はOTPの送信に失敗したことを示す。
	ErrSendFailed = errors.New("signup: failed to send otp")
	// ErrInvalidCode はOTPが6桁の数字でないことを示す。
	ErrInvalidCode = errors.New("signup: otp must be 6 digits")
	// ErrFlowNotFound はサインアップ途中の情報が存在しない（期限切れ・取消済み）ことを示す。
	ErrFlowNotFound = errors.New("signup: pending signup not found")
	// ErrVerificationFailed はバックエンドがOTPを受け付けなかったことを示す。
	ErrVerificationFailed = errors.New("signup: otp verification failed")
	// ErrRegistrationFailed はOTP検証後のアカウント作成に失敗したことを示す。
	ErrRegistrationFailed = errors.New("signup: account creation failed")
	// ErrResendCooldown は再送の待機時間中であることを示す。*CooldownErrorがこれにマッチする。
	ErrResendCooldown = errors.New("signup: resend is cooling down")
)

// CooldownError は再送の待機時間中に再送を要求したことを表す。
type CooldownError struct {
	Remaining time.Duration
}

// Error はerrorインターフェースを実装する。
func (e *CooldownError) Error() string {
	return fmt.Sprintf("signup: resend available in %ds", e.Seconds())
}

// Is はerrors.Is(err, ErrResendCooldown)を成立させる。
func (e *CooldownError) Is(target error) bool {
	return target == ErrResendCooldown
}

// Seconds は残り待機時間を秒単位（切り上げ）で返す。
func (e *CooldownError) Seconds() int {
	return int(math.Ceil(e.Remaining.Seconds()))
}
