package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"SMMAgent/internal/domain"
)

const adminID = int64(42)

func newTestModeration(posts *memPosts, board *fakeBoard) *Moderation {
	return NewModeration(ModerationDeps{
		Posts:   posts,
		Board:   board,
		AdminID: adminID,
		Now:     clock,
	})
}

func TestApproveThenReplayThenReject(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	posts := newMemPosts()
	board := &fakeBoard{}
	mod := newTestModeration(posts, board)

	id := posts.seed(domain.Post{ProjectID: "pixie", Platform: "telegram", Content: "draft", ScheduledDate: "2026-10-16"})

	out, err := mod.Approve(ctx, adminID, id, 77)
	if err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if !out.Changed || out.Post.Status != domain.StatusApproved {
		t.Fatalf("unexpected outcome: %+v", out)
	}
	if got := posts.get(id); got.Status != domain.StatusApproved || got.CardMessageID == nil || *got.CardMessageID != 77 {
		t.Fatalf("stored post not approved with card ref: %+v", got)
	}
	if board.count() != 1 {
		t.Fatalf("expected one notification, got %d", board.count())
	}
	writes := posts.writes

	replay, err := mod.Approve(ctx, adminID, id, 77)
	if err != nil {
		t.Fatalf("replayed Approve: %v", err)
	}
	if replay.Changed || !strings.Contains(replay.Notice, "already approved") {
		t.Fatalf("unexpected replay outcome: %+v", replay)
	}
	if posts.writes != writes {
		t.Fatalf("replay wrote to the store")
	}
	if board.count() != 1 {
		t.Fatalf("replay notified again: %d", board.count())
	}

	rej, err := mod.Reject(ctx, adminID, id, 77)
	if err != nil {
		t.Fatalf("Reject: %v", err)
	}
	if rej.Changed || posts.get(id).Status != domain.StatusApproved {
		t.Fatalf("reject of approved post changed state: %+v", rej)
	}
	if board.count() != 1 {
		t.Fatalf("refused reject notified: %d", board.count())
	}
}

func TestRejectDraft(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	posts := newMemPosts()
	board := &fakeBoard{}
	mod := newTestModeration(posts, board)
	id := posts.seed(domain.Post{ProjectID: "pixie", Content: "x"})

	out, err := mod.Reject(ctx, adminID, id, 5)
	if err != nil {
		t.Fatalf("Reject: %v", err)
	}
	if !out.Changed || posts.get(id).Status != domain.StatusRejected {
		t.Fatalf("draft not rejected: %+v", out)
	}
	if board.count() != 1 || board.refreshes[0].status != domain.StatusRejected {
		t.Fatalf("unexpected refreshes: %+v", board.refreshes)
	}

	again, _ := mod.Approve(ctx, adminID, id, 5)
	if again.Changed || !strings.Contains(again.Notice, "already rejected") {
		t.Fatalf("approve after reject: %+v", again)
	}
}

func TestUnauthorizedApprove(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	posts := newMemPosts()
	board := &fakeBoard{}
	mod := newTestModeration(posts, board)
	id := posts.seed(domain.Post{ProjectID: "pixie", Content: "x"})

	out, err := mod.Approve(ctx, 7, id, 1)
	if err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if out.Changed || out.Notice != domain.ReasonNotAdmin {
		t.Fatalf("unexpected outcome: %+v", out)
	}
	if posts.get(id).Status != domain.StatusDraft || posts.writes != 0 || board.count() != 0 {
		t.Fatal("unauthorized approve had side effects")
	}
}

func TestApproveMissingPost(t *testing.T) {
	t.Parallel()

	mod := newTestModeration(newMemPosts(), &fakeBoard{})
	out, err := mod.Approve(context.Background(), adminID, 404, 1)
	if err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if out.Notice != "post #404 not found" {
		t.Fatalf("unexpected notice %q", out.Notice)
	}
}

func TestApproveStoreErrorPropagates(t *testing.T) {
	t.Parallel()

	posts := newMemPosts()
	posts.failGet = errors.New("database is locked")
	mod := newTestModeration(posts, &fakeBoard{})

	if _, err := mod.Approve(context.Background(), adminID, 1, 1); err == nil {
		t.Fatal("expected store error")
	}
}

func TestConcurrentApprovalsNotifyOnce(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	posts := newMemPosts()
	board := &fakeBoard{}
	rec := newCountingRecorder()
	mod := NewModeration(ModerationDeps{Posts: posts, Board: board, AdminID: adminID, Recorder: rec, Now: clock})
	id := posts.seed(domain.Post{ProjectID: "pixie", Content: "x"})

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := mod.Approve(ctx, adminID, id, 9); err != nil {
				t.Errorf("Approve: %v", err)
			}
		}()
	}
	wg.Wait()

	if board.count() != 1 {
		t.Fatalf("expected exactly one notification, got %d", board.count())
	}
	if rec.transitions[transitionKey{domain.StatusDraft, domain.StatusApproved}] != 1 {
		t.Fatalf("expected one recorded transition, got %+v", rec.transitions)
	}
}

func TestEditFlow(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	posts := newMemPosts()
	board := &fakeBoard{}
	mod := newTestModeration(posts, board)
	id := posts.seed(domain.Post{ProjectID: "pixie", Content: "old"})

	if out, _ := mod.SubmitEdit(ctx, adminID, "new"); out.Notice != "No edit in progress" {
		t.Fatalf("edit without session: %+v", out)
	}

	if _, err := mod.RequestEdit(ctx, adminID, id, 31); err != nil {
		t.Fatalf("RequestEdit: %v", err)
	}
	if !mod.Pending(adminID) {
		t.Fatal("expected open edit session")
	}

	if out, _ := mod.SubmitEdit(ctx, adminID, "   "); out.Changed || !mod.Pending(adminID) {
		t.Fatalf("blank edit should keep the session: %+v", out)
	}

	out, err := mod.SubmitEdit(ctx, adminID, "new text")
	if err != nil {
		t.Fatalf("SubmitEdit: %v", err)
	}
	if !out.Changed || posts.get(id).Content != "new text" {
		t.Fatalf("edit not applied: %+v", out)
	}
	if mod.Pending(adminID) {
		t.Fatal("session should close after edit")
	}
	if board.count() != 1 || board.refreshes[0].cardRef != 31 {
		t.Fatalf("card not refreshed once: %+v", board.refreshes)
	}
}

func TestEditRejectedAfterApproval(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	posts := newMemPosts()
	mod := newTestModeration(posts, &fakeBoard{})
	id := posts.seed(domain.Post{ProjectID: "pixie", Content: "old"})

	if _, err := mod.RequestEdit(ctx, adminID, id, 1); err != nil {
		t.Fatalf("RequestEdit: %v", err)
	}
	if _, err := mod.Approve(ctx, adminID, id, 1); err != nil {
		t.Fatalf("Approve: %v", err)
	}

	out, err := mod.SubmitEdit(ctx, adminID, "sneaky")
	if err != nil {
		t.Fatalf("SubmitEdit: %v", err)
	}
	if out.Changed || posts.get(id).Content != "old" {
		t.Fatalf("approved post content changed: %+v", out)
	}
	if mod.Pending(adminID) {
		t.Fatal("session should close once the post left draft")
	}

	if out, _ := mod.RequestEdit(ctx, adminID, id, 1); !strings.Contains(out.Notice, "can no longer be edited") {
		t.Fatalf("edit request on approved post: %+v", out)
	}
}

func TestRefusedEditRequestClosesOpenSession(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	posts := newMemPosts()
	mod := newTestModeration(posts, &fakeBoard{})
	draft := posts.seed(domain.Post{ProjectID: "pixie", Content: "draft text"})
	approved := posts.seed(domain.Post{ProjectID: "pixie", Content: "approved text", Status: domain.StatusApproved})

	if _, err := mod.RequestEdit(ctx, adminID, draft, 1); err != nil {
		t.Fatalf("RequestEdit draft: %v", err)
	}
	out, err := mod.RequestEdit(ctx, adminID, approved, 2)
	if err != nil {
		t.Fatalf("RequestEdit approved: %v", err)
	}
	if !strings.Contains(out.Notice, "can no longer be edited") {
		t.Fatalf("unexpected notice: %+v", out)
	}
	if mod.Pending(adminID) {
		t.Fatal("refused request left the earlier session open")
	}

	out, err = mod.SubmitEdit(ctx, adminID, "meant for the approved post")
	if err != nil {
		t.Fatalf("SubmitEdit: %v", err)
	}
	if out.Changed || out.Notice != "No edit in progress" {
		t.Fatalf("text was applied to an edit session: %+v", out)
	}
	if posts.get(draft).Content != "draft text" || posts.get(approved).Content != "approved text" {
		t.Fatal("post content changed")
	}

	if _, err := mod.RequestEdit(ctx, adminID, draft, 1); err != nil {
		t.Fatalf("RequestEdit draft: %v", err)
	}
	if _, err := mod.RequestEdit(ctx, adminID, 999, 3); err != nil {
		t.Fatalf("RequestEdit missing: %v", err)
	}
	if mod.Pending(adminID) {
		t.Fatal("request for a missing post left the earlier session open")
	}
}

func TestCancelEdit(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	posts := newMemPosts()
	mod := newTestModeration(posts, &fakeBoard{})
	id := posts.seed(domain.Post{ProjectID: "pixie", Content: "old"})

	if mod.CancelEdit(adminID) {
		t.Fatal("cancel without session reported success")
	}
	_, _ = mod.RequestEdit(ctx, adminID, id, 1)
	if !mod.CancelEdit(adminID) {
		t.Fatal("cancel did not find the session")
	}
	if posts.get(id).Content != "old" {
		t.Fatal("cancel changed content")
	}
}
