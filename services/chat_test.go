package services

import (
	"context"
	"testing"

	"ripple/apperror"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestCreateDirectChat(t *testing.T) {
	f := newFixture()
	alice := f.users.add("alice")
	bob := f.users.add("bob")

	chat, err := f.chatSvc.Create(context.Background(), alice, CreateChatInput{ParticipantID: bob})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if chat.IsGroup {
		t.Error("direct chat flagged as group")
	}
	if len(chat.Participants) != 2 || !containsUser(chat.Participants, alice) || !containsUser(chat.Participants, bob) {
		t.Errorf("participants = %v, want alice and bob", chat.Participants)
	}
	if len(chat.Members) != 2 {
		t.Errorf("populated members = %d, want 2", len(chat.Members))
	}

	events := f.rt.named(EventNewChat)
	if len(events) != 1 {
		t.Fatalf("new-chat events = %d, want 1", len(events))
	}
	if !containsUser(events[0].Users, alice) || !containsUser(events[0].Users, bob) {
		t.Errorf("new-chat audience = %v, want both participants", events[0].Users)
	}
}

func TestCreateDirectChatIdempotent(t *testing.T) {
	f := newFixture()
	alice := f.users.add("alice")
	bob := f.users.add("bob")

	first, err := f.chatSvc.Create(context.Background(), alice, CreateChatInput{ParticipantID: bob})
	if err != nil {
		t.Fatalf("first Create: %v", err)
	}

	// Same pair, requested from the other side: must reuse the chat.
	second, err := f.chatSvc.Create(context.Background(), bob, CreateChatInput{ParticipantID: alice})
	if err != nil {
		t.Fatalf("second Create: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("second create made a new chat %s, want reuse of %s", second.ID.Hex(), first.ID.Hex())
	}
	if n, _ := f.chats.CountForUser(context.Background(), alice); n != 1 {
		t.Errorf("stored chats = %d, want 1", n)
	}
}

func TestCreateDirectChatUnknownUser(t *testing.T) {
	f := newFixture()
	alice := f.users.add("alice")

	_, err := f.chatSvc.Create(context.Background(), alice, CreateChatInput{ParticipantID: primitive.NewObjectID()})
	if err == nil {
		t.Fatal("expected error for unknown participant")
	}
	if apperror.KindOf(err) != apperror.NotFound {
		t.Errorf("kind = %v, want NotFound", apperror.KindOf(err))
	}
}

func TestCreateGroupChatValidation(t *testing.T) {
	f := newFixture()
	alice := f.users.add("alice")
	bob := f.users.add("bob")

	tests := []struct {
		name string
		in   CreateChatInput
	}{
		{"missing name", CreateChatInput{IsGroup: true, Participants: []primitive.ObjectID{bob}}},
		{"missing participants", CreateChatInput{IsGroup: true, GroupName: "Friends"}},
		{"neither target nor group", CreateChatInput{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.chatSvc.Create(context.Background(), alice, tt.in)
			if apperror.KindOf(err) != apperror.BadRequest {
				t.Errorf("kind = %v, want BadRequest", apperror.KindOf(err))
			}
		})
	}
}

func TestCreateGroupChatParticipantsAreASet(t *testing.T) {
	f := newFixture()
	alice := f.users.add("alice")
	bob := f.users.add("bob")
	carol := f.users.add("carol")

	// Requester listed explicitly and bob listed twice: both collapse.
	chat, err := f.chatSvc.Create(context.Background(), alice, CreateChatInput{
		IsGroup:      true,
		GroupName:    "Trio",
		Participants: []primitive.ObjectID{alice, bob, bob, carol},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(chat.Participants) != 3 {
		t.Errorf("participants = %d, want 3 unique members", len(chat.Participants))
	}
	seen := make(map[primitive.ObjectID]bool)
	for _, p := range chat.Participants {
		if seen[p] {
			t.Errorf("participant %s stored more than once", p.Hex())
		}
		seen[p] = true
	}
	if chat.CreatedBy != alice {
		t.Errorf("createdBy = %s, want requester", chat.CreatedBy.Hex())
	}
}

func TestGetChatRequiresMembership(t *testing.T) {
	f := newFixture()
	alice := f.users.add("alice")
	bob := f.users.add("bob")
	mallory := f.users.add("mallory")

	chat, err := f.chatSvc.Create(context.Background(), alice, CreateChatInput{ParticipantID: bob})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	_, _, err = f.chatSvc.Get(context.Background(), chat.ID, mallory)
	if apperror.KindOf(err) != apperror.BadRequest {
		t.Fatalf("kind = %v, want BadRequest", apperror.KindOf(err))
	}
	// A missing chat and a forbidden chat must be indistinguishable.
	_, _, err2 := f.chatSvc.Get(context.Background(), primitive.NewObjectID(), mallory)
	if err2 == nil || err2.Error() != err.Error() {
		t.Errorf("missing-chat error %q differs from forbidden-chat error %q", err2, err)
	}
}

func TestGetChatReturnsOrderedLog(t *testing.T) {
	f := newFixture()
	alice := f.users.add("alice")
	bob := f.users.add("bob")
	chat, _ := f.chatSvc.Create(context.Background(), alice, CreateChatInput{ParticipantID: bob})

	for _, text := range []string{"one", "two", "three"} {
		if _, _, err := f.msgSvc.Send(context.Background(), alice, SendMessageInput{ChatID: chat.ID, Content: text}); err != nil {
			t.Fatalf("Send %q: %v", text, err)
		}
	}

	_, msgs, err := f.chatSvc.Get(context.Background(), chat.ID, bob)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(msgs) != 3 {
		t.Fatalf("messages = %d, want 3", len(msgs))
	}
	for i, want := range []string{"one", "two", "three"} {
		if msgs[i].Content != want {
			t.Errorf("msgs[%d] = %q, want %q", i, msgs[i].Content, want)
		}
		if msgs[i].Sender == nil || msgs[i].Sender.Name != "alice" {
			t.Errorf("msgs[%d] sender not populated", i)
		}
	}
}

func TestListPagination(t *testing.T) {
	f := newFixture()
	alice := f.users.add("alice")
	for i := 0; i < 3; i++ {
		other := f.users.add("peer")
		if _, err := f.chatSvc.Create(context.Background(), alice, CreateChatInput{ParticipantID: other}); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	page, err := f.chatSvc.List(context.Background(), alice, 2, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(page.Chats) != 2 || page.TotalCount != 3 || !page.HasMore {
		t.Errorf("page = %d chats, total %d, hasMore %v; want 2/3/true", len(page.Chats), page.TotalCount, page.HasMore)
	}

	page, err = f.chatSvc.List(context.Background(), alice, 2, 2)
	if err != nil {
		t.Fatalf("List offset: %v", err)
	}
	if len(page.Chats) != 1 || page.HasMore {
		t.Errorf("second page = %d chats, hasMore %v; want 1/false", len(page.Chats), page.HasMore)
	}
}

func TestUpdateGroupName(t *testing.T) {
	f := newFixture()
	alice := f.users.add("alice")
	bob := f.users.add("bob")
	group, _ := f.chatSvc.Create(context.Background(), alice, CreateChatInput{
		IsGroup: true, GroupName: "Before", Participants: []primitive.ObjectID{bob},
	})

	chat, err := f.chatSvc.UpdateGroupName(context.Background(), group.ID, bob, "After")
	if err != nil {
		t.Fatalf("UpdateGroupName: %v", err)
	}
	if chat.GroupName != "After" {
		t.Errorf("groupName = %q, want %q", chat.GroupName, "After")
	}

	events := f.rt.named(EventGroupUpdated)
	if len(events) != 1 {
		t.Fatalf("group-updated events = %d, want 1", len(events))
	}
	if !containsUser(events[0].Users, alice) || !containsUser(events[0].Users, bob) {
		t.Errorf("group-updated audience = %v, want all participants", events[0].Users)
	}

	// Empty name clears it.
	chat, err = f.chatSvc.UpdateGroupName(context.Background(), group.ID, alice, "")
	if err != nil {
		t.Fatalf("clear name: %v", err)
	}
	if chat.GroupName != "" {
		t.Errorf("groupName = %q after clear, want empty", chat.GroupName)
	}
}

func TestUpdateGroupRejectsDirectChatAndOutsiders(t *testing.T) {
	f := newFixture()
	alice := f.users.add("alice")
	bob := f.users.add("bob")
	mallory := f.users.add("mallory")

	direct, _ := f.chatSvc.Create(context.Background(), alice, CreateChatInput{ParticipantID: bob})
	if _, err := f.chatSvc.UpdateGroupName(context.Background(), direct.ID, alice, "Nope"); apperror.KindOf(err) != apperror.BadRequest {
		t.Errorf("direct chat rename kind = %v, want BadRequest", apperror.KindOf(err))
	}

	group, _ := f.chatSvc.Create(context.Background(), alice, CreateChatInput{
		IsGroup: true, GroupName: "Team", Participants: []primitive.ObjectID{bob},
	})
	if _, err := f.chatSvc.UpdateGroupName(context.Background(), group.ID, mallory, "Hijack"); apperror.KindOf(err) != apperror.BadRequest {
		t.Errorf("outsider rename kind = %v, want BadRequest", apperror.KindOf(err))
	}
}

func TestDeleteChatCascades(t *testing.T) {
	f := newFixture()
	alice := f.users.add("alice")
	bob := f.users.add("bob")
	chat, _ := f.chatSvc.Create(context.Background(), alice, CreateChatInput{ParticipantID: bob})
	f.msgSvc.Send(context.Background(), alice, SendMessageInput{ChatID: chat.ID, Content: "hi"})
	f.msgSvc.Send(context.Background(), bob, SendMessageInput{ChatID: chat.ID, Content: "hey"})

	if err := f.chatSvc.Delete(context.Background(), chat.ID, alice); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	if got, _ := f.chats.FindByID(context.Background(), chat.ID); got != nil {
		t.Error("chat still present after delete")
	}
	if msgs, _ := f.messages.FindByChat(context.Background(), chat.ID); len(msgs) != 0 {
		t.Errorf("orphan messages = %d, want 0", len(msgs))
	}

	events := f.rt.named(EventChatDeleted)
	if len(events) != 1 {
		t.Fatalf("chat-deleted events = %d, want 1", len(events))
	}
	if !containsUser(events[0].Users, alice) || !containsUser(events[0].Users, bob) {
		t.Errorf("chat-deleted audience = %v, want the pre-delete participants", events[0].Users)
	}
	payload, ok := events[0].Payload.(ChatIDPayload)
	if !ok || payload.ChatID != chat.ID {
		t.Errorf("chat-deleted payload = %#v, want chat id %s", events[0].Payload, chat.ID.Hex())
	}
}

func TestDeleteChatRequiresMembership(t *testing.T) {
	f := newFixture()
	alice := f.users.add("alice")
	bob := f.users.add("bob")
	mallory := f.users.add("mallory")
	chat, _ := f.chatSvc.Create(context.Background(), alice, CreateChatInput{ParticipantID: bob})

	err := f.chatSvc.Delete(context.Background(), chat.ID, mallory)
	if apperror.KindOf(err) != apperror.BadRequest {
		t.Fatalf("kind = %v, want BadRequest", apperror.KindOf(err))
	}
	if got, _ := f.chats.FindByID(context.Background(), chat.ID); got == nil {
		t.Error("chat deleted by non-participant")
	}
}
