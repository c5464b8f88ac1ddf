package chat

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"emotic-chat/internal/identity"
	"emotic-chat/internal/kvstore"
)

// Replier is the remote reply service: one call per user message.
type Replier interface {
	Fetch(ctx context.Context, input, username string) (string, error)
}

// UpdateKind tags store update events.
type UpdateKind int

const (
	UpdateState UpdateKind = iota
	UpdateReply
	UpdateStorageFull
)

// Update is delivered on Updates() after every mutation so the presentation
// layer can re-render.
type Update struct {
	Kind   UpdateKind
	ChatID string
}

// Options tune store behavior. Zero values pick defaults.
type Options struct {
	// TitleLimit bounds derived chat titles, in runes.
	TitleLimit int
}

// Store owns the conversation state for the current identity: the set of
// chats, the active chat, and the send/reconcile flow for assistant replies.
// Every mutation is mirrored synchronously to the key/value substrate under
// the identity's namespace key.
//
// The store does not serialize concurrent SendMessage calls per chat; the
// composer is expected to gate submission on Loading().
type Store struct {
	kv      kvstore.Store
	replier Replier
	log     zerolog.Logger

	titleLimit int

	mu          sync.Mutex
	key         string
	username    string
	state       State
	inFlight    int
	storageFull bool

	updates chan Update
	wg      sync.WaitGroup

	newID func() string
	now   func() time.Time
}

func NewStore(kv kvstore.Store, replier Replier, log zerolog.Logger, opts Options) *Store {
	limit := opts.TitleLimit
	if limit <= 0 {
		limit = DefaultTitleLimit
	}
	return &Store{
		kv:         kv,
		replier:    replier,
		log:        log,
		titleLimit: limit,
		updates:    make(chan Update, 64),
		newID:      uuid.NewString,
		now:        time.Now,
	}
}

// Updates delivers a notification after each mutation. Sends never block; a
// slow consumer misses intermediate events, not final state.
func (s *Store) Updates() <-chan Update {
	return s.updates
}

// Wait blocks until all in-flight reply requests have been reconciled.
func (s *Store) Wait() {
	s.wg.Wait()
}

// Initialize loads the persisted state for u's namespace, seeding a single
// fresh chat when nothing (or nothing well-formed) is stored. Call it once per
// identity change; it never merges state across namespaces.
func (s *Store) Initialize(u identity.User) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.key = identity.Namespace(u)
	s.username = u.Name
	s.state = State{Version: stateVersion}

	raw, ok := s.kv.Get(s.key)
	if !ok {
		s.createChatLocked()
		return
	}

	var loaded State
	if err := json.Unmarshal([]byte(raw), &loaded); err != nil || loaded.Version != stateVersion {
		// Malformed or unknown-version blob: discard and start fresh. This is
		// recovered locally, never surfaced beyond the resulting empty state.
		s.log.Warn().Str("key", s.key).Msg("discarding malformed conversation state")
		s.kv.Remove(s.key)
		s.createChatLocked()
		return
	}

	s.state = loaded
	if len(s.state.Chats) == 0 {
		s.createChatLocked()
		return
	}
	if s.findChatLocked(s.state.ActiveChatID) == nil {
		s.state.ActiveChatID = s.state.Chats[0].ID
	}
	s.emit(Update{Kind: UpdateState, ChatID: s.state.ActiveChatID})
}

// CreateChat adds a fresh empty chat and makes it active.
func (s *Store) CreateChat() Chat {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createChatLocked()
}

func (s *Store) createChatLocked() Chat {
	c := Chat{
		ID:        s.newID(),
		Title:     DefaultTitle,
		CreatedAt: s.now().UnixMilli(),
		Messages:  []Message{},
	}
	s.state.Chats = append(s.state.Chats, c)
	s.state.ActiveChatID = c.ID
	s.persistLocked()
	s.log.Debug().Str("chat_id", c.ID).Msg("created chat")
	s.emit(Update{Kind: UpdateState, ChatID: c.ID})
	return c
}

// SwitchChat makes chatID active. Unknown ids are ignored; stale sidebar
// references must not dangle the active pointer.
func (s *Store) SwitchChat(chatID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.findChatLocked(chatID) == nil {
		return
	}
	s.state.ActiveChatID = chatID
	s.persistLocked()
	s.emit(Update{Kind: UpdateState, ChatID: chatID})
}

// SendMessage appends a user message to the active chat and issues the one
// reply request. Whitespace-only content is a no-op. The reply (or the error
// placeholder) is reconciled against the chat that was active at send time,
// even if the user has switched or deleted chats since.
func (s *Store) SendMessage(ctx context.Context, content string) {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return
	}

	s.mu.Lock()
	active := s.findChatLocked(s.state.ActiveChatID)
	if active == nil {
		s.mu.Unlock()
		return
	}
	chatID := active.ID
	wasEmpty := len(active.Messages) == 0
	active.Messages = append(active.Messages, Message{
		ID:        s.newID(),
		Content:   content,
		Author:    AuthorUser,
		Timestamp: s.now().UnixMilli(),
		ChatID:    chatID,
	})
	s.inFlight++
	username := s.username
	s.persistLocked()
	s.emit(Update{Kind: UpdateState, ChatID: chatID})
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		text, err := s.replier.Fetch(ctx, trimmed, username)
		if err != nil {
			// Absorbed: the failure is visible only as the placeholder reply.
			s.log.Warn().Err(err).Str("chat_id", chatID).Msg("reply request failed")
			text = ErrorReplyText
		}
		s.reconcile(chatID, trimmed, text, wasEmpty)
	}()
}

// reconcile lands the assistant reply on its send-time chat. If that chat was
// deleted while the request was outstanding there is nothing to append to.
func (s *Store) reconcile(chatID, userContent, text string, wasEmpty bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.inFlight--
	c := s.findChatLocked(chatID)
	if c == nil {
		s.emit(Update{Kind: UpdateReply, ChatID: chatID})
		return
	}
	c.Messages = append(c.Messages, Message{
		ID:        s.newID(),
		Content:   text,
		Author:    AuthorAssistant,
		Timestamp: s.now().UnixMilli(),
		ChatID:    chatID,
	})
	if wasEmpty {
		c.Title = deriveTitle(userContent, s.titleLimit)
	}
	s.persistLocked()
	s.emit(Update{Kind: UpdateReply, ChatID: chatID})
}

// DeleteMessage removes messageID from the active chat, if present.
func (s *Store) DeleteMessage(messageID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.findChatLocked(s.state.ActiveChatID)
	if c == nil {
		return
	}
	for i := range c.Messages {
		if c.Messages[i].ID == messageID {
			c.Messages = append(c.Messages[:i], c.Messages[i+1:]...)
			s.persistLocked()
			s.emit(Update{Kind: UpdateState, ChatID: c.ID})
			return
		}
	}
}

// ClearChat removes the chat with chatID entirely. Deleting the active chat
// reassigns the active pointer to the first remaining chat, or seeds a fresh
// one when none remain.
func (s *Store) ClearChat(chatID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i := range s.state.Chats {
		if s.state.Chats[i].ID == chatID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return
	}
	s.state.Chats = append(s.state.Chats[:idx], s.state.Chats[idx+1:]...)

	if s.state.ActiveChatID == chatID {
		if len(s.state.Chats) > 0 {
			s.state.ActiveChatID = s.state.Chats[0].ID
		} else {
			s.state.ActiveChatID = ""
			s.createChatLocked()
			return
		}
	}
	s.persistLocked()
	s.emit(Update{Kind: UpdateState, ChatID: s.state.ActiveChatID})
}

// DeleteAllChats drops every chat and leaves exactly one fresh empty chat
// active.
func (s *Store) DeleteAllChats() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Chats = nil
	s.state.ActiveChatID = ""
	s.createChatLocked()
}

// Chats returns a copy of all chats in insertion order.
func (s *Store) Chats() []Chat {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Chat, len(s.state.Chats))
	for i, c := range s.state.Chats {
		out[i] = c
		out[i].Messages = append([]Message(nil), c.Messages...)
	}
	return out
}

// ActiveChatID returns the id of the active chat, or "" when no chats exist.
func (s *Store) ActiveChatID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.ActiveChatID
}

// ActiveChat returns a copy of the active chat.
func (s *Store) ActiveChat() (Chat, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.findChatLocked(s.state.ActiveChatID)
	if c == nil {
		return Chat{}, false
	}
	out := *c
	out.Messages = append([]Message(nil), c.Messages...)
	return out, true
}

// Loading reports whether a reply request is outstanding.
func (s *Store) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inFlight > 0
}

// StorageFull reports whether the last persistence attempt hit the capacity
// limit. It resets on the next successful write.
func (s *Store) StorageFull() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.storageFull
}

func (s *Store) findChatLocked(chatID string) *Chat {
	if chatID == "" {
		return nil
	}
	for i := range s.state.Chats {
		if s.state.Chats[i].ID == chatID {
			return &s.state.Chats[i]
		}
	}
	return nil
}

// persistLocked mirrors the in-memory state to the substrate. A capacity
// failure flags storageFull and keeps the in-memory mutation; only durability
// is at risk.
func (s *Store) persistLocked() {
	if s.key == "" {
		return
	}
	b, err := json.Marshal(s.state)
	if err != nil {
		s.log.Error().Err(err).Msg("serialize conversation state")
		return
	}
	if err := s.kv.Set(s.key, string(b)); err != nil {
		if errors.Is(err, kvstore.ErrQuotaExceeded) {
			s.storageFull = true
			s.log.Warn().Str("key", s.key).Msg("storage full; state kept in memory only")
			s.emit(Update{Kind: UpdateStorageFull})
			return
		}
		s.log.Error().Err(err).Str("key", s.key).Msg("persist conversation state")
		return
	}
	s.storageFull = false
}

func (s *Store) emit(u Update) {
	select {
	case s.updates <- u:
	default:
	}
}
