package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/hitoshi/taskdeck/internal/model"
)

// ErrInvalidToken はトークンから利用可能なユーザー情報を取り出せないことを示す。
// 呼び出し元は保存済みトークンを破棄し、未認証状態に戻す。
var ErrInvalidToken = errors.New("auth: token carries no usable identity")

// Claims はベアラートークンのペイロード。
// subはメールアドレス、idはユーザーID（文字列または数値）。
type Claims struct {
	UserID   model.ID `json:"id"`
	FullName string   `json:"fullName"`
	Username string   `json:"username"`
	Name     string   `json:"name"`
	jwt.RegisteredClaims
}

// tokenParser は署名を検証しないパーサー。署名の検証はトークンを発行したバックエンドが行う。
// パディング付きのbase64urlセグメントも受け付ける。
var tokenParser = jwt.NewParser(jwt.WithPaddingAllowed())

// DecodeToken はベアラートークンの中央セグメントをデコードしてセッションを組み立てる。
// 副作用はない。デコード・パースの失敗、sub/idの欠落、期限切れのexpはErrInvalidTokenを返す。
func DecodeToken(token string) (*model.Session, error) {
	return decodeTokenAt(token, time.Now())
}

func decodeTokenAt(token string, now time.Time) (*model.Session, error) {
	claims := &Claims{}
	if _, _, err := tokenParser.ParseUnverified(token, claims); err != nil {
		// algが未知・未指定でもペイロードは読み取れているため、その場合のみ続行する
		if !errors.Is(err, jwt.ErrTokenUnverifiable) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
		}
	}

	if claims.Subject == "" || claims.UserID == "" {
		return nil, fmt.Errorf("%w: missing sub or id claim", ErrInvalidToken)
	}
	if claims.ExpiresAt != nil && !claims.ExpiresAt.After(now) {
		return nil, fmt.Errorf("%w: token expired at %s", ErrInvalidToken, claims.ExpiresAt.Time.Format(time.RFC3339))
	}

	return &model.Session{
		UserID:   claims.UserID.String(),
		Email:    claims.Subject,
		FullName: claims.FullName,
		Username: claims.Username,
		Name:     claims.Name,
		Token:    token,
	}, nil
}
