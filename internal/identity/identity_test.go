package identity

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"emotic-chat/internal/kvstore"
)

func newProvider(t *testing.T) (*Provider, *kvstore.MemStore) {
	t.Helper()
	kv := kvstore.NewMemStore(0)
	return NewProvider(kv, zerolog.Nop()), kv
}

func TestNamespace(t *testing.T) {
	tests := []struct {
		name string
		user User
		want string
	}{
		{"named user", User{Name: "alice"}, "emotic_chats_alice"},
		{"another named user", User{Name: "bob"}, "emotic_chats_bob"},
		{"guest ignores display name", User{Name: "Guest", IsGuest: true}, "emotic_guest_chats"},
		{"guest with odd name still shared", User{Name: "whoever", IsGuest: true}, "emotic_guest_chats"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Namespace(tc.user); got != tc.want {
				t.Fatalf("Namespace(%+v) = %q, want %q", tc.user, got, tc.want)
			}
		})
	}
}

func TestLoginCreatesAndTouchesAccounts(t *testing.T) {
	p, _ := newProvider(t)

	u, created, err := p.Login("alice")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if !created {
		t.Fatalf("first login should create the account")
	}
	if u.Name != "alice" || u.IsGuest {
		t.Fatalf("unexpected user: %+v", u)
	}

	again, created, err := p.Login("alice")
	if err != nil {
		t.Fatalf("relogin: %v", err)
	}
	if created {
		t.Fatalf("second login should reuse the account")
	}
	if again.CreatedAt != u.CreatedAt {
		t.Fatalf("CreatedAt changed on relogin")
	}

	cur, ok := p.Current()
	if !ok || cur.Name != "alice" {
		t.Fatalf("current = %+v, %v", cur, ok)
	}
}

func TestLoginRejectsEmptyName(t *testing.T) {
	p, _ := newProvider(t)
	if _, _, err := p.Login("   "); err != ErrEmptyName {
		t.Fatalf("expected ErrEmptyName, got %v", err)
	}
}

func TestNamedUserRestoredAcrossRestart(t *testing.T) {
	kv := kvstore.NewMemStore(0)
	p1 := NewProvider(kv, zerolog.Nop())
	if _, _, err := p1.Login("alice"); err != nil {
		t.Fatalf("login: %v", err)
	}

	p2 := NewProvider(kv, zerolog.Nop())
	cur, ok := p2.Current()
	if !ok || cur.Name != "alice" {
		t.Fatalf("named user not restored: %+v, %v", cur, ok)
	}
}

func TestGuestNeverRestoredAcrossRestart(t *testing.T) {
	kv := kvstore.NewMemStore(0)
	p1 := NewProvider(kv, zerolog.Nop())
	u := p1.LoginAsGuest()
	if !u.IsGuest || u.Name != GuestName {
		t.Fatalf("unexpected guest: %+v", u)
	}
	// Simulate a crash that skipped Close: even a persisted guest record is
	// dropped on the next start.
	b, _ := json.Marshal(u)
	if err := kv.Set(currentUserKey, string(b)); err != nil {
		t.Fatalf("seed guest record: %v", err)
	}

	p2 := NewProvider(kv, zerolog.Nop())
	if _, ok := p2.Current(); ok {
		t.Fatalf("guest session survived a restart")
	}
}

func TestGuestStatePurgedOnClose(t *testing.T) {
	p, kv := newProvider(t)
	u := p.LoginAsGuest()
	ns := Namespace(u)
	if err := kv.Set(ns, "guest chat state"); err != nil {
		t.Fatalf("seed guest state: %v", err)
	}

	p.Close()
	if _, ok := kv.Get(ns); ok {
		t.Fatalf("guest state survived Close")
	}
	if _, ok := p.Current(); ok {
		t.Fatalf("guest identity survived Close")
	}
}

func TestLogoutPurgesGuestStateOnly(t *testing.T) {
	p, kv := newProvider(t)
	if _, _, err := p.Login("alice"); err != nil {
		t.Fatalf("login: %v", err)
	}
	aliceNS := Namespace(User{Name: "alice"})
	if err := kv.Set(aliceNS, "alice chats"); err != nil {
		t.Fatalf("seed: %v", err)
	}

	p.Logout()
	if _, ok := p.Current(); ok {
		t.Fatalf("logout left a current user")
	}
	if _, ok := kv.Get(aliceNS); !ok {
		t.Fatalf("named-user state must persist across logout")
	}

	g := p.LoginAsGuest()
	gNS := Namespace(g)
	if err := kv.Set(gNS, "guest chats"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	p.Logout()
	if _, ok := kv.Get(gNS); ok {
		t.Fatalf("guest state must be purged on logout")
	}
}

func TestInactiveUsersPruned(t *testing.T) {
	kv := kvstore.NewMemStore(0)
	now := time.Now().UnixMilli()
	stale := now - 11*24*time.Hour.Milliseconds()
	users := []User{
		{Name: "fresh", CreatedAt: now, LastActive: now},
		{Name: "stale", CreatedAt: stale, LastActive: stale},
	}
	b, _ := json.Marshal(users)
	if err := kv.Set(userListKey, string(b)); err != nil {
		t.Fatalf("seed users: %v", err)
	}

	p := NewProvider(kv, zerolog.Nop())
	kept := p.loadUsers()
	if len(kept) != 1 || kept[0].Name != "fresh" {
		t.Fatalf("expected only the fresh user, got %+v", kept)
	}
}
