package auth

import "context"

type storeKey struct{}

// WithStore はcontextにStoreを格納する。
func WithStore(ctx context.Context, s *Store) context.Context {
	return context.WithValue(ctx, storeKey{}, s)
}

// StoreFrom はcontextからStoreを取得する。未設定の場合はnilを返す。
func StoreFrom(ctx context.Context) *Store {
	s, _ := ctx.Value(storeKey{}).(*Store)
	return s
}
