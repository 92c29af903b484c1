package usecase_test

import (
	"context"
	"errors"
	"reflect"
	"testing"

	chat "hopaba-chat/internal/pkg/chat/application/domain"
	"hopaba-chat/internal/pkg/chat/application/usecase"
)

func deleteFixture() (*fakeChatRepo, *fakeIdentity) {
	repo, identity := newFakes()
	identity.requests["r1"] = "alice"
	identity.owners["p1"] = "bob"
	conv := repo.addConversation(chat.Conversation{RequestID: "r1", ProviderID: "p1", UserID: "alice"})
	repo.addMessage(chat.Message{ConversationID: conv.ID, SenderID: "alice", SenderType: chat.SenderUser, Content: "hi"})
	return repo, identity
}

func TestDeleteRequestCascadePath(t *testing.T) {
	repo, identity := deleteFixture()
	uc := usecase.NewDeleteRequestUseCase(repo, identity)

	err := uc.Execute(context.Background(), usecase.DeleteRequestInput{RequestID: "r1", CallerID: "alice"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.cascadeCalls != 1 {
		t.Fatalf("expected the atomic cascade to be attempted once")
	}
	if len(repo.fallbackSteps) != 0 {
		t.Fatalf("expected no fallback steps on cascade success, got %v", repo.fallbackSteps)
	}
	if len(repo.convs) != 0 {
		t.Fatalf("expected conversations removed, got %d", len(repo.convs))
	}
}

func TestDeleteRequestFallbackOrder(t *testing.T) {
	repo, identity := deleteFixture()
	repo.cascadeErr = errors.New("function missing")
	uc := usecase.NewDeleteRequestUseCase(repo, identity)

	err := uc.Execute(context.Background(), usecase.DeleteRequestInput{RequestID: "r1", CallerID: "alice"})
	if err != nil {
		t.Fatalf("expected fallback to succeed, got %v", err)
	}
	want := []string{"messages", "conversations", "request"}
	if !reflect.DeepEqual(repo.fallbackSteps, want) {
		t.Fatalf("expected fallback order %v, got %v", want, repo.fallbackSteps)
	}
}

func TestDeleteRequestFallbackFailureIsTyped(t *testing.T) {
	repo, identity := deleteFixture()
	repo.cascadeErr = errors.New("function missing")
	repo.deleteConvsErr = errors.New("fk violation")
	uc := usecase.NewDeleteRequestUseCase(repo, identity)

	err := uc.Execute(context.Background(), usecase.DeleteRequestInput{RequestID: "r1", CallerID: "alice"})
	if !errors.Is(err, chat.ErrCascadeDeleteFailed) {
		t.Fatalf("expected cascade delete failure, got %v", err)
	}
}

func TestDeleteRequestOnlyOwnerMayDelete(t *testing.T) {
	repo, identity := deleteFixture()
	uc := usecase.NewDeleteRequestUseCase(repo, identity)

	err := uc.Execute(context.Background(), usecase.DeleteRequestInput{RequestID: "r1", CallerID: "bob"})
	if !errors.Is(err, chat.ErrPermissionDenied) {
		t.Fatalf("expected permission denied for non-owner, got %v", err)
	}
	if repo.cascadeCalls != 0 {
		t.Fatalf("expected no delete attempt for a rejected caller")
	}
}

func TestDeleteRequestUnknownRequest(t *testing.T) {
	repo, identity := deleteFixture()
	uc := usecase.NewDeleteRequestUseCase(repo, identity)

	err := uc.Execute(context.Background(), usecase.DeleteRequestInput{RequestID: "missing", CallerID: "alice"})
	if !errors.Is(err, chat.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
