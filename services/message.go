package services

import (
	"context"

	"ripple/apperror"
	"ripple/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MessageService owns the message log: send, edit, delete and
// bulk-clear. It keeps the owning chat's last-message pointer equal to
// the newest remaining message, recomputed from post-mutation store
// state before any notification goes out.
type MessageService struct {
	chats    ChatStore
	messages MessageStore
	users    UserStore
	uploads  Uploader
	rt       Broadcaster
}

func NewMessageService(chats ChatStore, messages MessageStore, users UserStore, uploads Uploader, rt Broadcaster) *MessageService {
	return &MessageService{chats: chats, messages: messages, users: users, uploads: uploads, rt: rt}
}

type SendMessageInput struct {
	ChatID    primitive.ObjectID
	Content   string
	Image     string // raw image data, uploaded before persistence
	ReplyToID *primitive.ObjectID
}

// LastMessagePayload is pushed to every participant's personal channel
// whenever a chat's last-message pointer changes. Message is null when
// the log became empty.
type LastMessagePayload struct {
	ChatID  primitive.ObjectID `json:"chatId"`
	Message *models.Message    `json:"message"`
}

// MessagePayload accompanies room events about a single message.
type MessagePayload struct {
	ChatID  primitive.ObjectID `json:"chatId"`
	Message *models.Message    `json:"message"`
}

// MessageIDPayload accompanies the message-deleted room event.
type MessageIDPayload struct {
	ChatID    primitive.ObjectID `json:"chatId"`
	MessageID primitive.ObjectID `json:"messageId"`
}

// Send appends a message to the chat's log and advances the
// last-message pointer in the same logical operation. Two events go
// out after the writes commit: new-message to the chat room and
// last-message-updated to each participant's personal channel.
func (s *MessageService) Send(ctx context.Context, senderID primitive.ObjectID, in SendMessageInput) (*models.Message, *models.Chat, error) {
	chat, err := s.chats.FindForParticipant(ctx, in.ChatID, senderID)
	if err != nil {
		return nil, nil, err
	}
	if chat == nil {
		return nil, nil, apperror.NewBadRequest("Chat not found or unauthorized")
	}

	if in.ReplyToID != nil {
		reply, err := s.messages.FindInChat(ctx, *in.ReplyToID, in.ChatID)
		if err != nil {
			return nil, nil, err
		}
		if reply == nil {
			return nil, nil, apperror.NewNotFound("Reply message not found")
		}
	}

	var imageURL string
	if in.Image != "" {
		imageURL, err = s.uploads.Upload(ctx, in.Image, "chat-messages")
		if err != nil {
			return nil, nil, apperror.NewInternal("Failed to upload image. Please try again.")
		}
	}

	msg := &models.Message{
		ChatID:    in.ChatID,
		SenderID:  senderID,
		Content:   in.Content,
		Image:     imageURL,
		ReplyToID: in.ReplyToID,
	}
	if err := s.messages.Insert(ctx, msg); err != nil {
		return nil, nil, err
	}
	if err := s.chats.SetLastMessage(ctx, in.ChatID, &msg.ID); err != nil {
		return nil, nil, err
	}
	chat.LastMessageID = &msg.ID

	if err := populateMessage(ctx, s.users, s.messages, msg); err != nil {
		return nil, nil, err
	}

	s.rt.ToRoom(in.ChatID, EventNewMessage, msg)
	s.rt.ToUsers(chat.Participants, EventLastMessageUpdated, LastMessagePayload{ChatID: in.ChatID, Message: msg})

	return msg, chat, nil
}

// Edit replaces a message's text. Only the sender may edit, the sender
// must still be a participant, and image messages are immutable.
func (s *MessageService) Edit(ctx context.Context, messageID, userID primitive.ObjectID, content string) (*models.Message, error) {
	msg, err := s.messages.FindByID(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if msg == nil {
		return nil, apperror.NewNotFound("Message not found")
	}
	if msg.SenderID != userID {
		return nil, apperror.NewBadRequest("You can only edit your own messages")
	}

	chat, err := s.chats.FindForParticipant(ctx, msg.ChatID, userID)
	if err != nil {
		return nil, err
	}
	if chat == nil {
		return nil, apperror.NewBadRequest("You are not authorized to edit this message")
	}

	if msg.Image != "" {
		return nil, apperror.NewBadRequest("Cannot edit messages with images")
	}

	msg.Content = content
	if err := s.messages.Save(ctx, msg); err != nil {
		return nil, err
	}

	if err := populateMessage(ctx, s.users, s.messages, msg); err != nil {
		return nil, err
	}
	s.rt.ToRoom(msg.ChatID, EventMessageEdited, MessagePayload{ChatID: msg.ChatID, Message: msg})
	return msg, nil
}

// Delete removes a message. Any current participant of the owning chat
// may delete, not only the sender. When the deleted message was the
// chat's last, the pointer is recomputed from the store after the
// delete committed and the participants are re-notified.
func (s *MessageService) Delete(ctx context.Context, messageID, userID primitive.ObjectID) error {
	msg, err := s.messages.FindByID(ctx, messageID)
	if err != nil {
		return err
	}
	if msg == nil {
		return apperror.NewNotFound("Message not found")
	}

	chat, err := s.chats.FindForParticipant(ctx, msg.ChatID, userID)
	if err != nil {
		return err
	}
	if chat == nil {
		return apperror.NewBadRequest("You are not authorized to delete this message")
	}

	if err := s.messages.Delete(ctx, messageID); err != nil {
		return err
	}

	wasLast := chat.LastMessageID != nil && *chat.LastMessageID == messageID
	var newLast *models.Message
	if wasLast {
		newLast, err = s.messages.LatestInChat(ctx, msg.ChatID)
		if err != nil {
			return err
		}
		var newLastID *primitive.ObjectID
		if newLast != nil {
			newLastID = &newLast.ID
		}
		if err := s.chats.SetLastMessage(ctx, msg.ChatID, newLastID); err != nil {
			return err
		}
		if newLast != nil {
			if err := populateMessage(ctx, s.users, s.messages, newLast); err != nil {
				return err
			}
		}
	}

	s.rt.ToRoom(msg.ChatID, EventMessageDeleted, MessageIDPayload{ChatID: msg.ChatID, MessageID: messageID})
	if wasLast {
		s.rt.ToUsers(chat.Participants, EventLastMessageUpdated, LastMessagePayload{ChatID: msg.ChatID, Message: newLast})
	}
	return nil
}

// Clear wipes the chat's whole log and nulls the last-message pointer.
func (s *MessageService) Clear(ctx context.Context, chatID, userID primitive.ObjectID) error {
	chat, err := s.chats.FindForParticipant(ctx, chatID, userID)
	if err != nil {
		return err
	}
	if chat == nil {
		return apperror.NewBadRequest("Chat not found or you are not authorized to clear this chat")
	}

	if _, err := s.messages.DeleteByChat(ctx, chatID); err != nil {
		return err
	}
	if err := s.chats.SetLastMessage(ctx, chatID, nil); err != nil {
		return err
	}

	s.rt.ToRoom(chatID, EventMessagesCleared, ChatIDPayload{ChatID: chatID})
	s.rt.ToUsers(chat.Participants, EventLastMessageUpdated, LastMessagePayload{ChatID: chatID, Message: nil})
	return nil
}
