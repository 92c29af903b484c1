package usecase_test

import (
	"context"
	"errors"
	"testing"

	chat "hopaba-chat/internal/pkg/chat/application/domain"
	"hopaba-chat/internal/pkg/chat/application/usecase"
)

// unreadFixture seeds two provider identities owned by "bob" with traffic
// from two requesters, plus one conversation where bob is the requester.
func unreadFixture() (*fakeChatRepo, *fakeIdentity, []chat.Conversation) {
	repo, identity := newFakes()
	identity.owners["p1"] = "bob"
	identity.owners["p2"] = "bob"
	identity.owners["p3"] = "carol"

	c1 := repo.addConversation(chat.Conversation{RequestID: "r1", ProviderID: "p1", UserID: "alice"})
	c2 := repo.addConversation(chat.Conversation{RequestID: "r2", ProviderID: "p2", UserID: "dave"})
	c3 := repo.addConversation(chat.Conversation{RequestID: "r3", ProviderID: "p3", UserID: "bob"})

	// two unread requester messages for p1, one for p2
	repo.addMessage(chat.Message{ConversationID: c1.ID, SenderID: "alice", SenderType: chat.SenderUser, Content: "a"})
	repo.addMessage(chat.Message{ConversationID: c1.ID, SenderID: "alice", SenderType: chat.SenderUser, Content: "b"})
	repo.addMessage(chat.Message{ConversationID: c2.ID, SenderID: "dave", SenderType: chat.SenderUser, Content: "c"})
	// read traffic must not count
	repo.addMessage(chat.Message{ConversationID: c2.ID, SenderID: "dave", SenderType: chat.SenderUser, Content: "d", Read: true})
	// bob's own provider replies must not count
	repo.addMessage(chat.Message{ConversationID: c1.ID, SenderID: "bob", SenderType: chat.SenderProvider, Content: "e"})
	// carol's provider wrote to bob-as-requester; counts for bob per
	// conversation but never in bob's provider-wide total
	repo.addMessage(chat.Message{ConversationID: c3.ID, SenderID: "carol", SenderType: chat.SenderProvider, Content: "f"})

	return repo, identity, []chat.Conversation{c1, c2, c3}
}

func TestUnreadCountPerConversation(t *testing.T) {
	repo, identity, convs := unreadFixture()
	uc := usecase.NewUnreadCountUseCase(repo, identity)

	n, err := uc.Execute(context.Background(), convs[0].ID, "bob")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 unread for the provider side, got %d", n)
	}

	// as requester, bob counts the provider's messages
	n, err = uc.Execute(context.Background(), convs[2].ID, "bob")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 unread as requester, got %d", n)
	}
}

func TestUnreadCountRejectsThirdParty(t *testing.T) {
	repo, identity, convs := unreadFixture()
	uc := usecase.NewUnreadCountUseCase(repo, identity)

	_, err := uc.Execute(context.Background(), convs[0].ID, "mallory")
	if !errors.Is(err, chat.ErrPermissionDenied) {
		t.Fatalf("expected permission denied, got %v", err)
	}
}

func TestUnreadCountBatchMixedRoles(t *testing.T) {
	repo, identity, convs := unreadFixture()
	uc := usecase.NewUnreadCountUseCase(repo, identity)

	ids := []string{convs[0].ID, convs[1].ID, convs[2].ID}
	counts, err := uc.ExecuteBatch(context.Background(), ids, "bob")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := map[string]int64{convs[0].ID: 2, convs[1].ID: 1, convs[2].ID: 1}
	for id, n := range want {
		if counts[id] != n {
			t.Fatalf("conversation %s: expected %d, got %d", id, n, counts[id])
		}
	}
}

func TestUnreadCountBatchSkipsForeignConversations(t *testing.T) {
	repo, identity, convs := unreadFixture()
	uc := usecase.NewUnreadCountUseCase(repo, identity)

	counts, err := uc.ExecuteBatch(context.Background(), []string{convs[0].ID, convs[2].ID}, "alice")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := counts[convs[2].ID]; ok {
		t.Fatalf("expected the foreign conversation to be skipped, got %v", counts)
	}
	if counts[convs[0].ID] != 1 {
		t.Fatalf("expected alice to see bob's reply unread, got %d", counts[convs[0].ID])
	}
}

func TestUnreadCountBatchEmptyInput(t *testing.T) {
	repo, identity, _ := unreadFixture()
	uc := usecase.NewUnreadCountUseCase(repo, identity)

	counts, err := uc.ExecuteBatch(context.Background(), nil, "bob")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(counts) != 0 {
		t.Fatalf("expected empty result, got %v", counts)
	}
}

// Both provider-wide resolvers must agree with each other and with the sum
// of per-conversation counts over bob's provider conversations.
func TestProviderUnreadResolversAgree(t *testing.T) {
	repo, identity, convs := unreadFixture()

	join := usecase.JoinUnreadResolver{Repo: repo}
	stepwise := usecase.StepwiseUnreadResolver{Repo: repo, Identity: identity}

	jn, err := join.Resolve(context.Background(), "bob")
	if err != nil {
		t.Fatalf("join resolver: %v", err)
	}
	sn, err := stepwise.Resolve(context.Background(), "bob")
	if err != nil {
		t.Fatalf("stepwise resolver: %v", err)
	}
	if jn != sn {
		t.Fatalf("resolvers disagree: join=%d stepwise=%d", jn, sn)
	}
	if jn != 3 {
		t.Fatalf("expected 3 unread across bob's providers, got %d", jn)
	}

	// per-conversation sum over the provider-side conversations must match
	perConv := usecase.NewUnreadCountUseCase(repo, identity)
	var sum int64
	for _, c := range convs[:2] {
		n, err := perConv.Execute(context.Background(), c.ID, "bob")
		if err != nil {
			t.Fatalf("per-conversation count: %v", err)
		}
		sum += n
	}
	if sum != jn {
		t.Fatalf("per-conversation sum %d diverges from provider-wide %d", sum, jn)
	}
}

func TestProviderUnreadFallsBackWhenJoinFails(t *testing.T) {
	repo, identity, _ := unreadFixture()
	repo.joinErr = errors.New("relation traversal failed")

	uc := usecase.NewProviderUnreadUseCase(repo, identity)
	n, err := uc.Execute(context.Background(), "bob")
	if err != nil {
		t.Fatalf("expected fallback to cover the failure, got %v", err)
	}
	if n != 3 {
		t.Fatalf("expected fallback total 3, got %d", n)
	}
}

func TestProviderUnreadReportsBothFailures(t *testing.T) {
	repo, identity, _ := unreadFixture()
	repo.joinErr = errors.New("join down")

	uc := usecase.NewProviderUnreadUseCase(repo, identity)
	uc.Fallback = failingResolver{errors.New("stepwise down")}

	_, err := uc.Execute(context.Background(), "bob")
	if !errors.Is(err, usecase.ErrPersistence) {
		t.Fatalf("expected persistence error, got %v", err)
	}
}

func TestProviderUnreadNoProvidersIsZero(t *testing.T) {
	repo, identity := newFakes()
	uc := usecase.NewProviderUnreadUseCase(repo, identity)

	n, err := uc.Execute(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected zero for a user owning no providers, got %d", n)
	}
}

type failingResolver struct{ err error }

func (r failingResolver) Resolve(ctx context.Context, ownerUserID string) (int64, error) {
	return 0, r.err
}
