package services

import (
	"context"

	"ripple/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// The populate helpers are the batch fetch-and-attach step that stands
// in for document-store joins: after the primary mutation, referenced
// users and messages are fetched by id and embedded on the response
// structs.

func fetchUserRefs(ctx context.Context, users UserStore, ids []primitive.ObjectID) (map[primitive.ObjectID]models.UserRef, error) {
	seen := make(map[primitive.ObjectID]bool, len(ids))
	unique := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			unique = append(unique, id)
		}
	}

	fetched, err := users.FindByIDs(ctx, unique)
	if err != nil {
		return nil, err
	}
	refs := make(map[primitive.ObjectID]models.UserRef, len(fetched))
	for _, u := range fetched {
		refs[u.ID] = u.Ref()
	}
	return refs, nil
}

// populateChat attaches participant display info, and the last message
// (with its sender) when the pointer is set.
func populateChat(ctx context.Context, users UserStore, messages MessageStore, chat *models.Chat) error {
	refs, err := fetchUserRefs(ctx, users, chat.Participants)
	if err != nil {
		return err
	}
	chat.Members = make([]models.UserRef, 0, len(chat.Participants))
	for _, id := range chat.Participants {
		if ref, ok := refs[id]; ok {
			chat.Members = append(chat.Members, ref)
		}
	}

	if chat.LastMessageID == nil {
		chat.LastMessage = nil
		return nil
	}
	last, err := messages.FindByID(ctx, *chat.LastMessageID)
	if err != nil {
		return err
	}
	if last != nil {
		if err := populateMessage(ctx, users, messages, last); err != nil {
			return err
		}
	}
	chat.LastMessage = last
	return nil
}

// populateMessage attaches the sender ref and, for replies, a preview
// of the replied-to message with its own sender.
func populateMessage(ctx context.Context, users UserStore, messages MessageStore, msgs ...*models.Message) error {
	if len(msgs) == 0 {
		return nil
	}

	ids := make([]primitive.ObjectID, 0, len(msgs))
	for _, m := range msgs {
		ids = append(ids, m.SenderID)
	}

	replies := make(map[primitive.ObjectID]*models.Message)
	for _, m := range msgs {
		if m.ReplyToID == nil {
			continue
		}
		if _, ok := replies[*m.ReplyToID]; ok {
			continue
		}
		reply, err := messages.FindByID(ctx, *m.ReplyToID)
		if err != nil {
			return err
		}
		if reply != nil {
			replies[reply.ID] = reply
			ids = append(ids, reply.SenderID)
		}
	}

	refs, err := fetchUserRefs(ctx, users, ids)
	if err != nil {
		return err
	}

	for _, m := range msgs {
		if ref, ok := refs[m.SenderID]; ok {
			r := ref
			m.Sender = &r
		}
		if m.ReplyToID == nil {
			continue
		}
		reply, ok := replies[*m.ReplyToID]
		if !ok {
			continue // replied-to message was deleted since
		}
		preview := &models.ReplyPreview{
			ID:      reply.ID,
			Content: reply.Content,
			Image:   reply.Image,
		}
		if ref, ok := refs[reply.SenderID]; ok {
			r := ref
			preview.Sender = &r
		}
		m.ReplyTo = preview
	}
	return nil
}
