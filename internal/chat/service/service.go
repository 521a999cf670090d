package service

import (
	"context"
	"errors"
	"strings"

	"github.com/quickchat/server/internal/blob"
	"github.com/quickchat/server/internal/chat/service/dto"
	"github.com/quickchat/server/internal/chat/websocket"
	"github.com/quickchat/server/internal/common/clock"
	"github.com/quickchat/server/internal/common/constants"
	"github.com/quickchat/server/internal/common/crypto"
	commonerrors "github.com/quickchat/server/internal/common/errors"
	"github.com/quickchat/server/internal/common/logger"
	messagedomain "github.com/quickchat/server/internal/message/domain"
	messagerepo "github.com/quickchat/server/internal/message/repository"
	"github.com/quickchat/server/internal/observability/metrics"
	userdomain "github.com/quickchat/server/internal/user/domain"
	userrepo "github.com/quickchat/server/internal/user/repository"
)

// Pusher delivers an event to a user's live connection, if one exists.
type Pusher interface {
	PushToUser(ctx context.Context, userID string, event *websocket.Event) error
}

type SendInput struct {
	Text  string
	Image []byte
}

// Sidebar is the conversation list: every other user plus the count of
// messages from each that the viewer has not yet seen. Counts are sparse,
// senders with nothing unseen are absent.
type Sidebar struct {
	Users  []dto.User     `json:"users"`
	Unseen map[string]int `json:"unseenMessages"`
}

// ChatService routes messages between users: it persists first, then pushes
// to the receiver's live connection on a best-effort basis.
type ChatService struct {
	messages messagerepo.Repository
	users    userrepo.Repository
	blobs    blob.Store
	pusher   Pusher
	idGen    crypto.IDGenerator
	clk      clock.Clock
	log      *logger.Logger
}

func NewChatService(
	messages messagerepo.Repository,
	users userrepo.Repository,
	blobs blob.Store,
	pusher Pusher,
	idGen crypto.IDGenerator,
	clk clock.Clock,
	log *logger.Logger,
) *ChatService {
	return &ChatService{
		messages: messages,
		users:    users,
		blobs:    blobs,
		pusher:   pusher,
		idGen:    idGen,
		clk:      clk,
		log:      log,
	}
}

// SendMessage validates, persists, and then attempts live delivery. The
// message is durable before any push happens; a failed push is swallowed,
// the receiver will see the message on their next fetch.
func (s *ChatService) SendMessage(ctx context.Context, senderID, receiverID string, input SendInput) (dto.Message, error) {
	text := strings.TrimSpace(input.Text)
	if text == "" && len(input.Image) == 0 {
		return dto.Message{}, commonerrors.ErrInvalidContent
	}
	if len(text) > constants.MaxMessageLength {
		return dto.Message{}, commonerrors.ErrValidationFailed.WithCause(
			errors.New("message text exceeds maximum length"))
	}

	exists, err := s.users.Exists(ctx, userdomain.ID(receiverID))
	if err != nil {
		return dto.Message{}, commonerrors.ErrDatabaseError.WithCause(err)
	}
	if !exists {
		return dto.Message{}, commonerrors.ErrUnknownReceiver
	}

	var imageURL string
	if len(input.Image) > 0 {
		imageURL, err = s.uploadImage(ctx, input.Image)
		if err != nil {
			return dto.Message{}, err
		}
	}

	msg := messagedomain.Message{
		ID:         messagedomain.ID(s.idGen.NewID()),
		SenderID:   senderID,
		ReceiverID: receiverID,
		Text:       text,
		ImageURL:   imageURL,
		Seen:       false,
		CreatedAt:  s.clk.Now(),
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		return dto.Message{}, commonerrors.ErrDatabaseError.WithCause(err)
	}

	out := dto.FromMessage(msg)
	s.pushNewMessage(ctx, receiverID, out)
	return out, nil
}

func (s *ChatService) uploadImage(ctx context.Context, image []byte) (string, error) {
	url, err := s.blobs.Upload(ctx, image)
	if err != nil {
		switch {
		case errors.Is(err, blob.ErrNotAnImage), errors.Is(err, blob.ErrMalformedDataURI):
			return "", commonerrors.ErrInvalidImage.WithCause(err)
		case errors.Is(err, blob.ErrImageTooLarge):
			return "", commonerrors.ErrInvalidImage.WithCause(err)
		default:
			return "", commonerrors.ErrUploadFailed.WithCause(err)
		}
	}
	return url, nil
}

func (s *ChatService) pushNewMessage(ctx context.Context, receiverID string, msg dto.Message) {
	event, err := websocket.NewEvent(websocket.TypeNewMessage, msg)
	if err != nil {
		s.log.Errorf("failed to build new_message event: %v", err)
		metrics.MessagesSentTotal.WithLabelValues("offline").Inc()
		return
	}
	if err := s.pusher.PushToUser(ctx, receiverID, event); err != nil {
		if !errors.Is(err, commonerrors.ErrUserNotConnected) {
			s.log.Warnf("failed to push message %s to user %s: %v", msg.ID, receiverID, err)
			metrics.MessagePushFailures.Inc()
		}
		metrics.MessagesSentTotal.WithLabelValues("offline").Inc()
		return
	}
	metrics.MessagesSentTotal.WithLabelValues("live").Inc()
}

// MarkSeen flips a single message to seen. Marking an already-seen message
// succeeds without change.
func (s *ChatService) MarkSeen(ctx context.Context, messageID string) error {
	if err := s.messages.MarkSeen(ctx, messagedomain.ID(messageID)); err != nil {
		if errors.Is(err, messagerepo.ErrMessageNotFound) {
			return commonerrors.ErrMessageNotFound
		}
		return commonerrors.ErrDatabaseError.WithCause(err)
	}
	metrics.MessagesMarkedSeenTotal.Inc()
	return nil
}

// FetchConversation returns the full history between the viewer and the other
// user, oldest first, and marks every message from the other user as seen in
// the same transaction as the read.
func (s *ChatService) FetchConversation(ctx context.Context, viewerID, otherID string) ([]dto.Message, error) {
	msgs, err := s.messages.FetchConversationAndMarkSeen(ctx, viewerID, otherID)
	if err != nil {
		return nil, commonerrors.ErrDatabaseError.WithCause(err)
	}
	metrics.ConversationFetchesTotal.Inc()
	return dto.FromMessages(msgs), nil
}

// ListCounterparts builds the sidebar for the viewer.
func (s *ChatService) ListCounterparts(ctx context.Context, viewerID string) (Sidebar, error) {
	summaries, err := s.users.ListExcept(ctx, userdomain.ID(viewerID))
	if err != nil {
		return Sidebar{}, commonerrors.ErrDatabaseError.WithCause(err)
	}
	counts, err := s.messages.UnseenCounts(ctx, viewerID)
	if err != nil {
		return Sidebar{}, commonerrors.ErrDatabaseError.WithCause(err)
	}
	return Sidebar{Users: dto.FromUserSummaries(summaries), Unseen: counts}, nil
}
