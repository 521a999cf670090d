package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/quickchat/server/internal/blob"
	"github.com/quickchat/server/internal/chat/websocket"
	"github.com/quickchat/server/internal/common/clock"
	commonerrors "github.com/quickchat/server/internal/common/errors"
	"github.com/quickchat/server/internal/common/logger"
	messagedomain "github.com/quickchat/server/internal/message/domain"
	messagerepo "github.com/quickchat/server/internal/message/repository"
	userdomain "github.com/quickchat/server/internal/user/domain"
	userrepo "github.com/quickchat/server/internal/user/repository"
)

type mockMessageRepo struct {
	createFn func(ctx context.Context, msg messagedomain.Message) error
	markFn   func(ctx context.Context, id messagedomain.ID) error
	fetchFn  func(ctx context.Context, me, other string) ([]messagedomain.Message, error)
	countsFn func(ctx context.Context, receiverID string) (map[string]int, error)
}

func (m *mockMessageRepo) Create(ctx context.Context, msg messagedomain.Message) error {
	return m.createFn(ctx, msg)
}

func (m *mockMessageRepo) MarkSeen(ctx context.Context, id messagedomain.ID) error {
	return m.markFn(ctx, id)
}

func (m *mockMessageRepo) FetchConversationAndMarkSeen(ctx context.Context, me, other string) ([]messagedomain.Message, error) {
	return m.fetchFn(ctx, me, other)
}

func (m *mockMessageRepo) UnseenCounts(ctx context.Context, receiverID string) (map[string]int, error) {
	return m.countsFn(ctx, receiverID)
}

type mockUserRepo struct {
	existsFn     func(ctx context.Context, id userdomain.ID) (bool, error)
	listExceptFn func(ctx context.Context, id userdomain.ID) ([]userdomain.Summary, error)
}

func (m *mockUserRepo) Create(ctx context.Context, user userdomain.User) error { return nil }

func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (userdomain.User, error) {
	return userdomain.User{}, userrepo.ErrUserNotFound
}

func (m *mockUserRepo) FindByID(ctx context.Context, id userdomain.ID) (userdomain.User, error) {
	return userdomain.User{}, userrepo.ErrUserNotFound
}

func (m *mockUserRepo) Exists(ctx context.Context, id userdomain.ID) (bool, error) {
	return m.existsFn(ctx, id)
}

func (m *mockUserRepo) ListExcept(ctx context.Context, id userdomain.ID) ([]userdomain.Summary, error) {
	return m.listExceptFn(ctx, id)
}

func (m *mockUserRepo) UpdateProfile(ctx context.Context, id userdomain.ID, update userdomain.ProfileUpdate) (userdomain.User, error) {
	return userdomain.User{}, userrepo.ErrUserNotFound
}

func (m *mockUserRepo) UpdateLastSeen(ctx context.Context, ids []string, seenAt time.Time) error {
	return nil
}

type mockBlobStore struct {
	uploadFn func(ctx context.Context, data []byte) (string, error)
}

func (m *mockBlobStore) Upload(ctx context.Context, data []byte) (string, error) {
	return m.uploadFn(ctx, data)
}

type mockPusher struct {
	pushFn func(ctx context.Context, userID string, event *websocket.Event) error
}

func (m *mockPusher) PushToUser(ctx context.Context, userID string, event *websocket.Event) error {
	return m.pushFn(ctx, userID, event)
}

type seqIDGen struct {
	n int
}

func (g *seqIDGen) NewID() string {
	g.n++
	return fmt.Sprintf("id-%d", g.n)
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("", "test", "critical")
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}
	return log
}

type fixture struct {
	messages *mockMessageRepo
	users    *mockUserRepo
	blobs    *mockBlobStore
	pusher   *mockPusher
	svc      *ChatService
}

func newFixture(t *testing.T) *fixture {
	f := &fixture{
		messages: &mockMessageRepo{
			createFn: func(context.Context, messagedomain.Message) error { return nil },
		},
		users: &mockUserRepo{
			existsFn: func(context.Context, userdomain.ID) (bool, error) { return true, nil },
		},
		blobs: &mockBlobStore{
			uploadFn: func(context.Context, []byte) (string, error) { return "/media/pic.png", nil },
		},
		pusher: &mockPusher{
			pushFn: func(context.Context, string, *websocket.Event) error {
				return commonerrors.ErrUserNotConnected
			},
		},
	}
	f.svc = NewChatService(
		f.messages, f.users, f.blobs, f.pusher,
		&seqIDGen{},
		clock.NewMockClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)),
		testLogger(t),
	)
	return f
}

func TestSendMessageRejectsEmptyContent(t *testing.T) {
	f := newFixture(t)
	persisted := false
	f.messages.createFn = func(context.Context, messagedomain.Message) error {
		persisted = true
		return nil
	}

	_, err := f.svc.SendMessage(context.Background(), "alice", "bob", SendInput{Text: "   "})
	if !errors.Is(err, commonerrors.ErrInvalidContent) {
		t.Fatalf("expected ErrInvalidContent, got %v", err)
	}
	if persisted {
		t.Fatal("nothing must be persisted for empty content")
	}
}

func TestSendMessageRejectsOverlongText(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.SendMessage(context.Background(), "alice", "bob",
		SendInput{Text: strings.Repeat("x", 4001)})
	if !errors.Is(err, commonerrors.ErrValidationFailed) {
		t.Fatalf("expected ErrValidationFailed, got %v", err)
	}
}

func TestSendMessageUnknownReceiver(t *testing.T) {
	f := newFixture(t)
	f.users.existsFn = func(context.Context, userdomain.ID) (bool, error) { return false, nil }

	_, err := f.svc.SendMessage(context.Background(), "alice", "ghost", SendInput{Text: "hi"})
	if !errors.Is(err, commonerrors.ErrUnknownReceiver) {
		t.Fatalf("expected ErrUnknownReceiver, got %v", err)
	}
}

func TestSendMessageUploadFailureAborts(t *testing.T) {
	f := newFixture(t)
	f.blobs.uploadFn = func(context.Context, []byte) (string, error) {
		return "", errors.New("disk full")
	}
	persisted := false
	f.messages.createFn = func(context.Context, messagedomain.Message) error {
		persisted = true
		return nil
	}

	_, err := f.svc.SendMessage(context.Background(), "alice", "bob",
		SendInput{Image: []byte("payload")})
	if !errors.Is(err, commonerrors.ErrUploadFailed) {
		t.Fatalf("expected ErrUploadFailed, got %v", err)
	}
	if persisted {
		t.Fatal("nothing must be persisted when the upload fails")
	}
}

func TestSendMessageRejectsNonImagePayload(t *testing.T) {
	f := newFixture(t)
	f.blobs.uploadFn = func(context.Context, []byte) (string, error) {
		return "", blob.ErrNotAnImage
	}

	_, err := f.svc.SendMessage(context.Background(), "alice", "bob",
		SendInput{Image: []byte("not an image")})
	if !errors.Is(err, commonerrors.ErrInvalidImage) {
		t.Fatalf("expected ErrInvalidImage, got %v", err)
	}
}

func TestSendMessagePersistsUnseenBeforePush(t *testing.T) {
	f := newFixture(t)
	var persisted messagedomain.Message
	pushedAfterPersist := false
	f.messages.createFn = func(_ context.Context, msg messagedomain.Message) error {
		persisted = msg
		return nil
	}
	f.pusher.pushFn = func(_ context.Context, userID string, event *websocket.Event) error {
		if persisted.ID == "" {
			t.Fatal("push happened before persist")
		}
		pushedAfterPersist = true
		return nil
	}

	out, err := f.svc.SendMessage(context.Background(), "alice", "bob", SendInput{Text: "hi"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if persisted.Seen {
		t.Fatal("new messages must be persisted unseen")
	}
	if persisted.SenderID != "alice" || persisted.ReceiverID != "bob" {
		t.Fatalf("unexpected endpoints: %+v", persisted)
	}
	if !pushedAfterPersist {
		t.Fatal("expected a push attempt")
	}
	if out.ID != string(persisted.ID) {
		t.Fatalf("returned message %q does not match persisted %q", out.ID, persisted.ID)
	}
}

func TestSendMessagePushCarriesMessagePayload(t *testing.T) {
	f := newFixture(t)
	var gotEvent *websocket.Event
	var gotUser string
	f.pusher.pushFn = func(_ context.Context, userID string, event *websocket.Event) error {
		gotUser = userID
		gotEvent = event
		return nil
	}

	out, err := f.svc.SendMessage(context.Background(), "alice", "bob", SendInput{Text: "hello"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotUser != "bob" {
		t.Fatalf("pushed to %q, want bob", gotUser)
	}
	if gotEvent.Type != websocket.TypeNewMessage {
		t.Fatalf("event type = %q, want %q", gotEvent.Type, websocket.TypeNewMessage)
	}
	var payload struct {
		ID   string `json:"id"`
		Text string `json:"text"`
	}
	if err := json.Unmarshal(gotEvent.Payload, &payload); err != nil {
		t.Fatalf("failed to decode payload: %v", err)
	}
	if payload.ID != out.ID || payload.Text != "hello" {
		t.Fatalf("unexpected payload: %+v", payload)
	}
}

func TestSendMessageSwallowsPushFailure(t *testing.T) {
	f := newFixture(t)
	f.pusher.pushFn = func(context.Context, string, *websocket.Event) error {
		return commonerrors.ErrSendTimeout
	}

	if _, err := f.svc.SendMessage(context.Background(), "alice", "bob", SendInput{Text: "hi"}); err != nil {
		t.Fatalf("push failure must not fail the send, got %v", err)
	}
}

func TestSendMessageSucceedsWhenReceiverOffline(t *testing.T) {
	f := newFixture(t)
	out, err := f.svc.SendMessage(context.Background(), "alice", "bob", SendInput{Text: "hi"})
	if err != nil {
		t.Fatalf("offline receiver must not fail the send, got %v", err)
	}
	if out.Seen {
		t.Fatal("message must come back unseen")
	}
}

func TestMarkSeenNotFound(t *testing.T) {
	f := newFixture(t)
	f.messages.markFn = func(context.Context, messagedomain.ID) error {
		return messagerepo.ErrMessageNotFound
	}

	err := f.svc.MarkSeen(context.Background(), "missing")
	if !errors.Is(err, commonerrors.ErrMessageNotFound) {
		t.Fatalf("expected ErrMessageNotFound, got %v", err)
	}
}

func TestMarkSeenSucceeds(t *testing.T) {
	f := newFixture(t)
	var got messagedomain.ID
	f.messages.markFn = func(_ context.Context, id messagedomain.ID) error {
		got = id
		return nil
	}

	if err := f.svc.MarkSeen(context.Background(), "msg-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "msg-1" {
		t.Fatalf("marked %q, want msg-1", got)
	}
}

func TestFetchConversationReturnsOrderedDTOs(t *testing.T) {
	f := newFixture(t)
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	f.messages.fetchFn = func(_ context.Context, me, other string) ([]messagedomain.Message, error) {
		if me != "alice" || other != "bob" {
			t.Fatalf("unexpected participants: %s/%s", me, other)
		}
		return []messagedomain.Message{
			{ID: "m1", SenderID: "bob", ReceiverID: "alice", Text: "old", Seen: true, CreatedAt: base},
			{ID: "m2", SenderID: "alice", ReceiverID: "bob", Text: "new", CreatedAt: base.Add(time.Minute)},
		}, nil
	}

	msgs, err := f.svc.FetchConversation(context.Background(), "alice", "bob")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(msgs) != 2 || msgs[0].ID != "m1" || msgs[1].ID != "m2" {
		t.Fatalf("unexpected conversation: %+v", msgs)
	}
}

func TestListCounterpartsSparseCounts(t *testing.T) {
	f := newFixture(t)
	f.users.listExceptFn = func(context.Context, userdomain.ID) ([]userdomain.Summary, error) {
		return []userdomain.Summary{
			{ID: "bob", FullName: "Bob"},
			{ID: "carol", FullName: "Carol"},
		}, nil
	}
	f.messages.countsFn = func(_ context.Context, receiverID string) (map[string]int, error) {
		if receiverID != "alice" {
			t.Fatalf("counted for %q, want alice", receiverID)
		}
		return map[string]int{"bob": 3}, nil
	}

	sidebar, err := f.svc.ListCounterparts(context.Background(), "alice")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sidebar.Users) != 2 {
		t.Fatalf("expected two counterparts, got %d", len(sidebar.Users))
	}
	if sidebar.Unseen["bob"] != 3 {
		t.Fatalf("unseen[bob] = %d, want 3", sidebar.Unseen["bob"])
	}
	if _, ok := sidebar.Unseen["carol"]; ok {
		t.Fatal("carol has nothing unseen and must be absent from the map")
	}
}
