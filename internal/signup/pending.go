package signup

import (
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/hitoshi/taskdeck/internal/model"
)

// pendingEntry は1件のサインアップ途中データと再送用のリミッター。
type pendingEntry struct {
	signup  model.PendingSignup
	limiter *rate.Limiter
}

// pendingStore はサインアップ途中データをプロセスメモリ上に保持する。
// キーはsignup_flow Cookieに入るフローID。永続化はしない。
type pendingStore struct {
	mu      sync.Mutex
	entries map[string]*pendingEntry
	ttl     time.Duration
}

func newPendingStore(ttl time.Duration) *pendingStore {
	return &pendingStore{
		entries: make(map[string]*pendingEntry),
		ttl:     ttl,
	}
}

func (p *pendingStore) put(id string, e *pendingEntry) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.entries[id] = e
}

// get は有効期限内のエントリを返す。期限切れのエントリはその場で削除する。
func (p *pendingStore) get(id string, now time.Time) *pendingEntry {
	p.mu.Lock()
	defer p.mu.Unlock()

	e, ok := p.entries[id]
	if !ok {
		return nil
	}
	if p.expired(e, now) {
		delete(p.entries, id)
		return nil
	}
	return e
}

func (p *pendingStore) remove(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.entries, id)
}

// purge は期限切れのエントリを削除し、削除件数を返す。
func (p *pendingStore) purge(now time.Time) int {
	p.mu.Lock()
	defer p.mu.Unlock()

	n := 0
	for id, e := range p.entries {
		if p.expired(e, now) {
			delete(p.entries, id)
			n++
		}
	}
	return n
}

func (p *pendingStore) len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.entries)
}

func (p *pendingStore) expired(e *pendingEntry, now time.Time) bool {
	return now.Sub(e.signup.CreatedAt) > p.ttl
}
