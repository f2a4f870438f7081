package domain

import "testing"

func TestTransition(t *testing.T) {
	t.Parallel()

	tests := []struct {
		from   Status
		event  Event
		want   Status
		wantOK bool
	}{
		{StatusDraft, EventApprove, StatusApproved, true},
		{StatusDraft, EventReject, StatusRejected, true},
		{StatusDraft, EventEdit, StatusDraft, true},
		{StatusApproved, EventPublished, StatusPublished, true},
		{StatusApproved, EventPublishFail, StatusError, true},
		{StatusDraft, EventPublished, StatusDraft, false},
		{StatusApproved, EventApprove, StatusApproved, false},
		{StatusApproved, EventReject, StatusApproved, false},
		{StatusApproved, EventEdit, StatusApproved, false},
		{StatusRejected, EventApprove, StatusRejected, false},
		{StatusPublished, EventPublished, StatusPublished, false},
		{StatusError, EventPublished, StatusError, false},
		{StatusError, EventApprove, StatusError, false},
	}

	for _, tt := range tests {
		got, ok := Transition(tt.from, tt.event)
		if ok != tt.wantOK || got != tt.want {
			t.Errorf("Transition(%s, %s) = %s, %v; want %s, %v", tt.from, tt.event, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestPublishedOnlyReachableFromApproved(t *testing.T) {
	t.Parallel()

	events := []Event{EventApprove, EventReject, EventEdit, EventPublished, EventPublishFail}
	for _, from := range Statuses {
		for _, ev := range events {
			to, ok := Transition(from, ev)
			if ok && to == StatusPublished && from != StatusApproved {
				t.Fatalf("published reached from %s via %s", from, ev)
			}
			if ok && from.Terminal() {
				t.Fatalf("terminal status %s left via %s", from, ev)
			}
		}
	}
}

func TestCanApprove(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		ctx         ModerationContext
		wantAllowed bool
		wantReason  string
	}{
		{
			name:        "admin approves draft",
			ctx:         ModerationContext{PostID: 1, Exists: true, Status: StatusDraft, IsAdmin: true},
			wantAllowed: true,
		},
		{
			name:       "stranger is denied",
			ctx:        ModerationContext{PostID: 1, Exists: true, Status: StatusDraft},
			wantReason: ReasonNotAdmin,
		},
		{
			name:       "missing post",
			ctx:        ModerationContext{PostID: 9, IsAdmin: true},
			wantReason: "post #9 not found",
		},
		{
			name:       "replay on approved post",
			ctx:        ModerationContext{PostID: 1, Exists: true, Status: StatusApproved, IsAdmin: true},
			wantReason: "post #1 is already approved",
		},
		{
			name:       "rejected post",
			ctx:        ModerationContext{PostID: 2, Exists: true, Status: StatusRejected, IsAdmin: true},
			wantReason: "post #2 is already rejected",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CanApprove(tt.ctx)
			if result.Allowed != tt.wantAllowed {
				t.Errorf("Allowed = %v, want %v", result.Allowed, tt.wantAllowed)
			}
			if !tt.wantAllowed && result.Reason != tt.wantReason {
				t.Errorf("Reason = %q, want %q", result.Reason, tt.wantReason)
			}
		})
	}
}

func TestCanReject(t *testing.T) {
	t.Parallel()

	if r := CanReject(ModerationContext{PostID: 3, Exists: true, Status: StatusDraft, IsAdmin: true}); !r.Allowed {
		t.Fatalf("expected reject of draft to be allowed: %s", r.Reason)
	}
	r := CanReject(ModerationContext{PostID: 3, Exists: true, Status: StatusApproved, IsAdmin: true})
	if r.Allowed {
		t.Fatal("expected reject of approved post to be refused")
	}
	if r.Error() == nil {
		t.Fatal("expected refused guard to produce an error")
	}
}

func TestCanEdit(t *testing.T) {
	t.Parallel()

	base := ModerationContext{PostID: 4, Exists: true, IsAdmin: true}

	for _, st := range []Status{StatusApproved, StatusRejected, StatusPublished, StatusError} {
		ctx := base
		ctx.Status = st
		if r := CanEdit(EditContext{ModerationContext: ctx, Text: "new"}); r.Allowed {
			t.Errorf("edit allowed in status %s", st)
		}
	}

	ctx := base
	ctx.Status = StatusDraft
	if r := CanEdit(EditContext{ModerationContext: ctx, Text: "  "}); r.Allowed {
		t.Error("blank edit allowed")
	}
	if r := CanEdit(EditContext{ModerationContext: ctx, Text: "fresh copy"}); !r.Allowed {
		t.Errorf("edit of draft refused: %s", r.Reason)
	}
}

func TestCanPublish(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		ctx         PublishContext
		wantAllowed bool
	}{
		{"approved today", PublishContext{PostID: 1, Status: StatusApproved, ScheduledDate: "2026-10-16", Today: "2026-10-16"}, true},
		{"approved tomorrow", PublishContext{PostID: 1, Status: StatusApproved, ScheduledDate: "2026-10-17", Today: "2026-10-16"}, false},
		{"draft today", PublishContext{PostID: 1, Status: StatusDraft, ScheduledDate: "2026-10-16", Today: "2026-10-16"}, false},
		{"already published", PublishContext{PostID: 1, Status: StatusPublished, ScheduledDate: "2026-10-16", Today: "2026-10-16"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanPublish(tt.ctx).Allowed; got != tt.wantAllowed {
				t.Errorf("Allowed = %v, want %v", got, tt.wantAllowed)
			}
		})
	}
}

func TestParseStatus(t *testing.T) {
	t.Parallel()

	for _, s := range Statuses {
		got, err := ParseStatus(string(s))
		if err != nil || got != s {
			t.Errorf("ParseStatus(%q) = %q, %v", s, got, err)
		}
	}
	if _, err := ParseStatus("scheduled"); err == nil {
		t.Error("expected unknown status to be rejected")
	}
}
