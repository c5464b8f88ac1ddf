package identity

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"emotic-chat/internal/kvstore"
)

// User is the current identity. Names are unauthenticated local labels; two real
// people picking the same name share state, which is accepted ambiguity.
type User struct {
	Name       string `json:"name"`
	CreatedAt  int64  `json:"created_at"`
	LastActive int64  `json:"last_active"`
	IsGuest    bool   `json:"is_guest,omitempty"`
}

const (
	currentUserKey = "emotic_user"
	userListKey    = "emotic_users"

	// GuestName labels every guest session.
	GuestName = "Guest"

	inactiveAfter = 10 * 24 * time.Hour
)

// ErrEmptyName is returned by Login when the trimmed username is empty.
var ErrEmptyName = errors.New("identity: empty username")

// Provider owns login/guest/logout and the persisted local account list.
type Provider struct {
	kv  kvstore.Store
	log zerolog.Logger

	current *User
	now     func() time.Time
}

func NewProvider(kv kvstore.Store, log zerolog.Logger) *Provider {
	p := &Provider{kv: kv, log: log, now: time.Now}
	p.cleanupInactive()
	p.restore()
	return p
}

// restore loads the previously signed-in user. Guest records are never restored
// across a restart.
func (p *Provider) restore() {
	raw, ok := p.kv.Get(currentUserKey)
	if !ok {
		return
	}
	var u User
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		p.kv.Remove(currentUserKey)
		return
	}
	if u.IsGuest {
		p.kv.Remove(currentUserKey)
		return
	}
	p.current = &u
}

// cleanupInactive drops local accounts with no activity for 10 days.
func (p *Provider) cleanupInactive() {
	users := p.loadUsers()
	if len(users) == 0 {
		return
	}
	cutoff := p.now().Add(-inactiveAfter).UnixMilli()
	kept := users[:0]
	for _, u := range users {
		if u.LastActive > cutoff {
			kept = append(kept, u)
		}
	}
	if len(kept) != len(users) {
		p.log.Info().Int("removed", len(users)-len(kept)).Msg("pruned inactive users")
		p.saveUsers(kept)
	}
}

func (p *Provider) loadUsers() []User {
	raw, ok := p.kv.Get(userListKey)
	if !ok {
		return nil
	}
	var users []User
	if err := json.Unmarshal([]byte(raw), &users); err != nil {
		return nil
	}
	return users
}

func (p *Provider) saveUsers(users []User) {
	b, err := json.Marshal(users)
	if err != nil {
		return
	}
	if err := p.kv.Set(userListKey, string(b)); err != nil {
		p.log.Warn().Err(err).Msg("save user list")
	}
}

// Login signs in under name, creating a local account record on first use and
// touching LastActive otherwise. Returns the user and whether the account is new.
func (p *Provider) Login(name string) (User, bool, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return User{}, false, ErrEmptyName
	}

	now := p.now().UnixMilli()
	users := p.loadUsers()
	created := false
	var cur User
	found := false
	for i := range users {
		if users[i].Name == name {
			users[i].LastActive = now
			cur = users[i]
			found = true
			break
		}
	}
	if !found {
		cur = User{Name: name, CreatedAt: now, LastActive: now}
		users = append(users, cur)
		created = true
	}
	p.saveUsers(users)

	p.current = &cur
	if b, err := json.Marshal(cur); err == nil {
		if err := p.kv.Set(currentUserKey, string(b)); err != nil {
			p.log.Warn().Err(err).Msg("persist current user")
		}
	}
	return cur, created, nil
}

// LoginAsGuest starts a transient guest session. Any stale guest chat state is
// cleared first.
func (p *Provider) LoginAsGuest() User {
	now := p.now().UnixMilli()
	u := User{Name: GuestName, CreatedAt: now, LastActive: now, IsGuest: true}
	p.current = &u
	p.kv.Remove(Namespace(u))
	return u
}

// Logout clears the current identity. Guest chat state is purged.
func (p *Provider) Logout() {
	if p.current != nil && p.current.IsGuest {
		p.kv.Remove(Namespace(*p.current))
	}
	p.kv.Remove(currentUserKey)
	p.current = nil
}

// Current returns the signed-in user, if any.
func (p *Provider) Current() (User, bool) {
	if p.current == nil {
		return User{}, false
	}
	return *p.current, true
}

// Close is the unload hook: guest state never survives a restart.
func (p *Provider) Close() {
	if p.current != nil && p.current.IsGuest {
		p.kv.Remove(Namespace(*p.current))
		p.kv.Remove(currentUserKey)
		p.current = nil
	}
}
