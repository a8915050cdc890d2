package services

import (
	"context"

	"ripple/apperror"
	"ripple/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ChatService owns chat lifecycle: direct/group creation, group
// metadata updates and chat deletion, plus the member-scoped reads the
// REST boundary exposes. Membership and existence failures surface as
// one merged BadRequest so a non-participant cannot probe for a chat's
// existence.
type ChatService struct {
	chats    ChatStore
	messages MessageStore
	users    UserStore
	rt       Broadcaster
}

func NewChatService(chats ChatStore, messages MessageStore, users UserStore, rt Broadcaster) *ChatService {
	return &ChatService{chats: chats, messages: messages, users: users, rt: rt}
}

type CreateChatInput struct {
	ParticipantID primitive.ObjectID   // direct chat target
	IsGroup       bool
	Participants  []primitive.ObjectID // group members besides the requester
	GroupName     string
}

// Create makes a group chat, or a direct chat with the target user.
// Direct creation is idempotent per unordered participant pair: an
// existing chat is returned unchanged. The full participant set is
// notified with the populated chat in both cases.
func (s *ChatService) Create(ctx context.Context, userID primitive.ObjectID, in CreateChatInput) (*models.Chat, error) {
	var chat *models.Chat

	switch {
	case in.IsGroup:
		if len(in.Participants) == 0 || in.GroupName == "" {
			return nil, apperror.NewBadRequest("Group chats require participants and a group name")
		}
		// Participant set, not list: the requester and any repeats in
		// the request collapse to one entry each.
		participants := []primitive.ObjectID{userID}
		seen := map[primitive.ObjectID]bool{userID: true}
		for _, p := range in.Participants {
			if !seen[p] {
				seen[p] = true
				participants = append(participants, p)
			}
		}
		chat = &models.Chat{
			Participants: participants,
			IsGroup:      true,
			GroupName:    in.GroupName,
			CreatedBy:    userID,
		}
		if err := s.chats.Insert(ctx, chat); err != nil {
			return nil, err
		}

	case !in.ParticipantID.IsZero():
		other, err := s.users.FindByID(ctx, in.ParticipantID)
		if err != nil {
			return nil, err
		}
		if other == nil {
			return nil, apperror.NewNotFound("User not found")
		}

		chat, err = s.chats.FindDirect(ctx, userID, in.ParticipantID)
		if err != nil {
			return nil, err
		}
		if chat == nil {
			chat = &models.Chat{
				Participants: []primitive.ObjectID{userID, in.ParticipantID},
				IsGroup:      false,
				CreatedBy:    userID,
			}
			if err := s.chats.Insert(ctx, chat); err != nil {
				return nil, err
			}
		}

	default:
		return nil, apperror.NewBadRequest("Either a participant or group details are required")
	}

	if err := populateChat(ctx, s.users, s.messages, chat); err != nil {
		return nil, err
	}

	s.rt.ToUsers(chat.Participants, EventNewChat, chat)
	return chat, nil
}

type ChatPage struct {
	Chats      []*models.Chat
	TotalCount int64
	HasMore    bool
}

// List returns the user's chats newest-activity first, populated for
// chat-list rendering.
func (s *ChatService) List(ctx context.Context, userID primitive.ObjectID, limit, offset int64) (*ChatPage, error) {
	if limit <= 0 {
		limit = 20
	}
	chats, err := s.chats.FindForUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	for _, chat := range chats {
		if err := populateChat(ctx, s.users, s.messages, chat); err != nil {
			return nil, err
		}
	}
	total, err := s.chats.CountForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &ChatPage{
		Chats:      chats,
		TotalCount: total,
		HasMore:    offset+int64(len(chats)) < total,
	}, nil
}

// Get returns one chat with its full message log in commit order.
func (s *ChatService) Get(ctx context.Context, chatID, userID primitive.ObjectID) (*models.Chat, []*models.Message, error) {
	chat, err := s.chats.FindForParticipant(ctx, chatID, userID)
	if err != nil {
		return nil, nil, err
	}
	if chat == nil {
		return nil, nil, apperror.NewBadRequest("Chat not found or you are not authorized to view this chat")
	}
	if err := populateChat(ctx, s.users, s.messages, chat); err != nil {
		return nil, nil, err
	}

	msgs, err := s.messages.FindByChat(ctx, chatID)
	if err != nil {
		return nil, nil, err
	}
	if err := populateMessage(ctx, s.users, s.messages, msgs...); err != nil {
		return nil, nil, err
	}
	return chat, msgs, nil
}

// UpdateGroupName renames a group; an empty name clears it.
func (s *ChatService) UpdateGroupName(ctx context.Context, chatID, userID primitive.ObjectID, name string) (*models.Chat, error) {
	return s.updateGroup(ctx, chatID, userID, func(chat *models.Chat) {
		chat.GroupName = name
	})
}

// UpdateGroupImage sets the group's image URL; an empty URL clears it.
func (s *ChatService) UpdateGroupImage(ctx context.Context, chatID, userID primitive.ObjectID, imageURL string) (*models.Chat, error) {
	return s.updateGroup(ctx, chatID, userID, func(chat *models.Chat) {
		chat.GroupImage = imageURL
	})
}

func (s *ChatService) updateGroup(ctx context.Context, chatID, userID primitive.ObjectID, apply func(*models.Chat)) (*models.Chat, error) {
	chat, err := s.chats.FindGroupForParticipant(ctx, chatID, userID)
	if err != nil {
		return nil, err
	}
	if chat == nil {
		return nil, apperror.NewBadRequest("Chat not found or you are not authorized to update this group")
	}

	apply(chat)
	if err := s.chats.Save(ctx, chat); err != nil {
		return nil, err
	}

	if err := populateChat(ctx, s.users, s.messages, chat); err != nil {
		return nil, err
	}
	s.rt.ToUsers(chat.Participants, EventGroupUpdated, chat)
	return chat, nil
}

// Delete removes the chat and every message it owns, then notifies the
// former participants. The audience is captured before deletion.
func (s *ChatService) Delete(ctx context.Context, chatID, userID primitive.ObjectID) error {
	chat, err := s.chats.FindForParticipant(ctx, chatID, userID)
	if err != nil {
		return err
	}
	if chat == nil {
		return apperror.NewBadRequest("Chat not found or you are not authorized to delete this chat")
	}

	if _, err := s.messages.DeleteByChat(ctx, chatID); err != nil {
		return err
	}
	if err := s.chats.Delete(ctx, chatID); err != nil {
		return err
	}

	s.rt.ToUsers(chat.Participants, EventChatDeleted, ChatIDPayload{ChatID: chatID})
	return nil
}

// ChatIDPayload is the payload for events that carry only a chat id.
type ChatIDPayload struct {
	ChatID primitive.ObjectID `json:"chatId"`
}
