// Package persistence keeps the bot's chat, user and conversation state in
// memory and mirrors it to a single JSON row so dialogues survive restarts.
package persistence

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"maps"
	"sync"

	"remindbot/internal/models"
)

// Store reads and replaces the singleton state row.
type Store interface {
	LoadState(ctx context.Context) ([]byte, error)
	SaveState(ctx context.Context, info []byte) error
}

type snapshot struct {
	ChatData map[int64]models.ReminderContext                   `json:"chat_data"`
	UserData map[int64]models.UserData                          `json:"user_data"`
	ConvData map[string]map[models.ConversationKey]models.State `json:"conv_data"`
}

func emptySnapshot() snapshot {
	return snapshot{
		ChatData: map[int64]models.ReminderContext{},
		UserData: map[int64]models.UserData{},
		ConvData: map[string]map[models.ConversationKey]models.State{},
	}
}

// Persistence is loaded lazily on first access. Until a load succeeds every
// access retries it; updates made meanwhile are kept and win over the
// loaded row.
type Persistence struct {
	store Store
	log   *slog.Logger

	mu     sync.Mutex
	data   snapshot
	loaded bool
	dirty  bool
}

func New(store Store, log *slog.Logger) *Persistence {
	if log == nil {
		log = slog.Default()
	}
	return &Persistence{
		store: store,
		log:   log.With("component", "persistence"),
		data:  emptySnapshot(),
	}
}

// Loaded reports whether the stored state has been read successfully.
func (p *Persistence) Loaded() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.loaded
}

// Dirty reports whether there are updates not yet flushed.
func (p *Persistence) Dirty() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.dirty
}

func (p *Persistence) ensureLoaded(ctx context.Context) {
	if p.loaded {
		return
	}
	p.log.Info("loading state from db")
	loaded, err := p.load(ctx)
	if err != nil {
		p.log.Error("error loading state from db", "err", err)
		return
	}
	mergeInto(&loaded, p.data)
	p.data = loaded
	p.loaded = true
}

func (p *Persistence) load(ctx context.Context) (snapshot, error) {
	blob, err := p.store.LoadState(ctx)
	if err != nil {
		return snapshot{}, err
	}
	s := emptySnapshot()
	if blob == nil {
		p.log.Info("no stored state, starting empty")
		return s, nil
	}
	if err := json.Unmarshal(blob, &s); err != nil {
		return snapshot{}, fmt.Errorf("decode state: %w", err)
	}
	if s.ChatData == nil {
		s.ChatData = map[int64]models.ReminderContext{}
	}
	if s.UserData == nil {
		s.UserData = map[int64]models.UserData{}
	}
	if s.ConvData == nil {
		s.ConvData = map[string]map[models.ConversationKey]models.State{}
	}
	return s, nil
}

// mergeInto overlays updates made while the state could not be loaded.
func mergeInto(dst *snapshot, src snapshot) {
	maps.Copy(dst.ChatData, src.ChatData)
	maps.Copy(dst.UserData, src.UserData)
	for name, convs := range src.ConvData {
		if dst.ConvData[name] == nil {
			dst.ConvData[name] = map[models.ConversationKey]models.State{}
		}
		maps.Copy(dst.ConvData[name], convs)
	}
}

// ChatData returns a copy of every chat's dialogue context.
func (p *Persistence) ChatData(ctx context.Context) map[int64]models.ReminderContext {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ensureLoaded(ctx)
	return maps.Clone(p.data.ChatData)
}

// UserData returns a copy of every user's data.
func (p *Persistence) UserData(ctx context.Context) map[int64]models.UserData {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ensureLoaded(ctx)
	out := make(map[int64]models.UserData, len(p.data.UserData))
	for id, u := range p.data.UserData {
		out[id] = u.Clone()
	}
	return out
}

// Conversations returns a copy of the states of the named conversation.
func (p *Persistence) Conversations(ctx context.Context, name string) map[models.ConversationKey]models.State {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ensureLoaded(ctx)
	out := maps.Clone(p.data.ConvData[name])
	if out == nil {
		out = map[models.ConversationKey]models.State{}
	}
	return out
}

// Chat returns one chat's context.
func (p *Persistence) Chat(ctx context.Context, chatID int64) (models.ReminderContext, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ensureLoaded(ctx)
	c, ok := p.data.ChatData[chatID]
	return c, ok
}

// User returns one user's data; the zero value when unknown.
func (p *Persistence) User(ctx context.Context, userID int64) models.UserData {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ensureLoaded(ctx)
	return p.data.UserData[userID].Clone()
}

// State returns the state of key in the named conversation, StateIdle if none.
func (p *Persistence) State(ctx context.Context, name string, key models.ConversationKey) models.State {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ensureLoaded(ctx)
	if st, ok := p.data.ConvData[name][key]; ok {
		return st
	}
	return models.StateIdle
}

// UpdateChatData stores data for chatID unless it is unchanged.
func (p *Persistence) UpdateChatData(ctx context.Context, chatID int64, data models.ReminderContext) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ensureLoaded(ctx)
	if cur, ok := p.data.ChatData[chatID]; ok && cur == data {
		return
	}
	p.data.ChatData[chatID] = data
	p.dirty = true
}

// UpdateUserData stores data for userID unless it is unchanged.
func (p *Persistence) UpdateUserData(ctx context.Context, userID int64, data models.UserData) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ensureLoaded(ctx)
	if cur, ok := p.data.UserData[userID]; ok && cur.Equal(data) {
		return
	}
	p.data.UserData[userID] = data.Clone()
	p.dirty = true
}

// UpdateConversation records the new state of key in the named
// conversation. StateIdle ends the conversation and drops the key.
func (p *Persistence) UpdateConversation(ctx context.Context, name string, key models.ConversationKey, state models.State) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ensureLoaded(ctx)
	convs := p.data.ConvData[name]
	cur, ok := convs[key]
	if state == models.StateIdle {
		if !ok {
			return
		}
		delete(convs, key)
		p.dirty = true
		return
	}
	if ok && cur == state {
		return
	}
	if convs == nil {
		convs = map[models.ConversationKey]models.State{}
		p.data.ConvData[name] = convs
	}
	convs[key] = state
	p.dirty = true
}

// Flush writes the whole in-memory state to the store.
func (p *Persistence) Flush(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ensureLoaded(ctx)
	if !p.loaded {
		p.log.Warn("stored state was never read, overwriting it with in-memory state")
	}

	blob, err := json.Marshal(p.data)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	p.log.Debug("dumping state", "bytes", len(blob))
	if err := p.store.SaveState(ctx, blob); err != nil {
		p.log.Error("error saving bot state, latest interactions will be lost", "err", err)
		return err
	}
	p.dirty = false
	p.log.Info("bot state saved into db")
	return nil
}

// FlushIfDirty is Flush for the periodic job: it skips when nothing changed.
func (p *Persistence) FlushIfDirty(ctx context.Context) error {
	if !p.Dirty() {
		return nil
	}
	return p.Flush(ctx)
}
