package persistence

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"remindbot/internal/models"
	"remindbot/internal/storage"
)

type memStore struct {
	blob    []byte
	loadErr error
	saveErr error
	loads   int
	saves   int
}

func (m *memStore) LoadState(context.Context) ([]byte, error) {
	m.loads++
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	return m.blob, nil
}

func (m *memStore) SaveState(_ context.Context, info []byte) error {
	m.saves++
	if m.saveErr != nil {
		return m.saveErr
	}
	m.blob = append([]byte(nil), info...)
	return nil
}

func intp(n int) *int { return &n }

func TestFlushThenLoadRestoresKeyTypes(t *testing.T) {
	ctx := context.Background()
	db, err := storage.New(filepath.Join(t.TempDir(), "bot.db"), 0)
	if err != nil {
		t.Fatalf("storage.New() error = %v", err)
	}
	defer func() { _ = db.Close() }()

	chat := models.ReminderContext{Text: "buy milk", UserID: 42, UserTag: "@bob", ChatID: 555, Offset: -10800}
	key := models.ConversationKey{ChatID: 555, UserID: 42}

	p := New(db, nil)
	p.UpdateChatData(ctx, 555, chat)
	p.UpdateUserData(ctx, 42, models.UserData{Offset: intp(-10800)})
	p.UpdateConversation(ctx, models.ConvSetReminder, key, models.StateAwaitTimeChoice)
	if err := p.Flush(ctx); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}

	fresh := New(db, nil)
	wantChat := map[int64]models.ReminderContext{555: chat}
	if got := fresh.ChatData(ctx); !reflect.DeepEqual(got, wantChat) {
		t.Errorf("ChatData() = %+v, want %+v", got, wantChat)
	}
	users := fresh.UserData(ctx)
	if len(users) != 1 || users[42].Offset == nil || *users[42].Offset != -10800 {
		t.Errorf("UserData() = %+v", users)
	}
	wantConv := map[models.ConversationKey]models.State{key: models.StateAwaitTimeChoice}
	if got := fresh.Conversations(ctx, models.ConvSetReminder); !reflect.DeepEqual(got, wantConv) {
		t.Errorf("Conversations() = %+v, want %+v", got, wantConv)
	}
	if got := fresh.State(ctx, models.ConvSetReminder, key); got != models.StateAwaitTimeChoice {
		t.Errorf("State() = %q", got)
	}
	if !fresh.Loaded() {
		t.Error("Loaded() = false after a successful read")
	}
}

func TestLoadLegacyRow(t *testing.T) {
	ctx := context.Background()
	store := &memStore{blob: []byte(`{
		"chat_data": {"555": {"thing_to_remind": "call mom", "user_id": 42, "user_tag": "@bob", "chat_id": 555, "offset": -10800.0}},
		"user_data": {"42": {"offset": -10800.0}},
		"conv_data": {"Set Reminders": {"(555, 42)": "AWAIT_CUSTOM_DATE"}}
	}`)}

	p := New(store, nil)
	c, ok := p.Chat(ctx, 555)
	if !ok || c.Text != "call mom" || c.Offset != -10800 {
		t.Errorf("Chat(555) = %+v, %v", c, ok)
	}
	if off := p.User(ctx, 42).OffsetOr(0); off != -10800 {
		t.Errorf("User(42) offset = %d", off)
	}
	if !p.Loaded() {
		t.Fatal("Loaded() = false for a row with float offsets")
	}
	if st := p.State(ctx, models.ConvSetReminder, models.ConversationKey{ChatID: 555, UserID: 42}); st != models.StateAwaitCustomDate {
		t.Errorf("State() = %q", st)
	}
	if store.loads != 1 {
		t.Errorf("loads = %d, want 1 (cached after success)", store.loads)
	}

	p.UpdateUserData(ctx, 7, models.UserData{Offset: intp(60)})
	if err := p.Flush(ctx); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}
	fresh := New(store, nil)
	if off := fresh.User(ctx, 42).OffsetOr(0); off != -10800 {
		t.Errorf("offset of 42 after flush = %d, want -10800", off)
	}
}

func TestMissingRowStartsEmpty(t *testing.T) {
	ctx := context.Background()
	store := &memStore{}
	p := New(store, nil)

	if got := p.ChatData(ctx); len(got) != 0 {
		t.Errorf("ChatData() = %v", got)
	}
	if got := p.State(ctx, models.ConvTimezone, models.ConversationKey{ChatID: 1, UserID: 1}); got != models.StateIdle {
		t.Errorf("State() = %q, want IDLE", got)
	}
	_ = p.UserData(ctx)
	if store.loads != 1 {
		t.Errorf("loads = %d, want 1", store.loads)
	}
}

func TestFailedLoadIsRetried(t *testing.T) {
	ctx := context.Background()
	store := &memStore{
		blob:    []byte(`{"chat_data":{"1":{"thing_to_remind":"stored","user_id":1,"chat_id":1}},"user_data":{"7":{"offset":60}},"conv_data":{}}`),
		loadErr: errors.New("connection refused"),
	}
	p := New(store, nil)

	if got := p.ChatData(ctx); len(got) != 0 {
		t.Errorf("ChatData() while failing = %v", got)
	}
	if p.Loaded() {
		t.Fatal("Loaded() = true after a failed read")
	}
	p.UpdateUserData(ctx, 7, models.UserData{Offset: intp(120)})

	store.loadErr = nil
	chats := p.ChatData(ctx)
	if chats[1].Text != "stored" {
		t.Errorf("ChatData() after recovery = %v", chats)
	}
	if off := p.User(ctx, 7).OffsetOr(0); off != 120 {
		t.Errorf("update made while degraded was lost, offset = %d", off)
	}
	if !p.Loaded() {
		t.Error("Loaded() = false after recovery")
	}
	if store.loads != 3 {
		t.Errorf("loads = %d, want 3", store.loads)
	}
}

func TestCorruptRowIsNotLoaded(t *testing.T) {
	ctx := context.Background()
	store := &memStore{blob: []byte(`{"conv_data":{"Set Reminders":{"not a tuple":"AWAIT_TEXT"}}}`)}
	p := New(store, nil)
	_ = p.Conversations(ctx, models.ConvSetReminder)
	if p.Loaded() {
		t.Error("Loaded() = true for a row with an invalid conversation key")
	}
}

func TestUpdatesSkipUnchangedValues(t *testing.T) {
	ctx := context.Background()
	store := &memStore{}
	p := New(store, nil)
	key := models.ConversationKey{ChatID: 5, UserID: 6}

	p.UpdateChatData(ctx, 5, models.ReminderContext{Text: "x", UserID: 6, ChatID: 5})
	p.UpdateUserData(ctx, 6, models.UserData{Offset: intp(0)})
	p.UpdateConversation(ctx, models.ConvSetReminder, key, models.StateAwaitText)
	if err := p.FlushIfDirty(ctx); err != nil {
		t.Fatal(err)
	}
	if store.saves != 1 {
		t.Fatalf("saves = %d, want 1", store.saves)
	}

	p.UpdateChatData(ctx, 5, models.ReminderContext{Text: "x", UserID: 6, ChatID: 5})
	p.UpdateUserData(ctx, 6, models.UserData{Offset: intp(0)})
	p.UpdateConversation(ctx, models.ConvSetReminder, key, models.StateAwaitText)
	p.UpdateConversation(ctx, models.ConvTimezone, key, models.StateIdle)
	if p.Dirty() {
		t.Error("Dirty() = true after writing identical values")
	}
	if err := p.FlushIfDirty(ctx); err != nil {
		t.Fatal(err)
	}
	if store.saves != 1 {
		t.Errorf("saves = %d, want 1", store.saves)
	}

	p.UpdateConversation(ctx, models.ConvSetReminder, key, models.StateIdle)
	if !p.Dirty() {
		t.Error("ending a conversation should mark state dirty")
	}
	if got := p.Conversations(ctx, models.ConvSetReminder); len(got) != 0 {
		t.Errorf("Conversations() after end = %v", got)
	}
}

func TestReturnedMapsAreCopies(t *testing.T) {
	ctx := context.Background()
	p := New(&memStore{}, nil)
	p.UpdateUserData(ctx, 1, models.UserData{Offset: intp(10)})

	users := p.UserData(ctx)
	*users[1].Offset = 99
	delete(users, 1)
	if off := p.User(ctx, 1).OffsetOr(0); off != 10 {
		t.Errorf("internal state mutated through copy, offset = %d", off)
	}
}

func TestFlushError(t *testing.T) {
	ctx := context.Background()
	store := &memStore{saveErr: errors.New("disk full")}
	p := New(store, nil)
	p.UpdateChatData(ctx, 1, models.ReminderContext{Text: "x"})
	if err := p.Flush(ctx); err == nil {
		t.Fatal("Flush() expected error")
	}
	if !p.Dirty() {
		t.Error("failed flush must keep state dirty")
	}
}
