package moderator

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sentinel/modbot/internal/platform"
	"github.com/sentinel/modbot/internal/punish"
	"github.com/sentinel/modbot/internal/rules"
)

// --- fakes -----------------------------------------------------------------

type fakeRules struct {
	enabled  map[int64]bool // absent chat = enabled
	patterns map[int64][]rules.Pattern
	err      error
}

func (f *fakeRules) IsEnabled(ctx context.Context, chatID int64) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	enabled, ok := f.enabled[chatID]
	if !ok {
		return true, nil
	}
	return enabled, nil
}

func (f *fakeRules) List(ctx context.Context, chatID int64) ([]rules.Pattern, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.patterns[chatID], nil
}

type auditRecord struct {
	chatID, userID           int64
	username, action, reason string
}

type fakeAudit struct {
	records []auditRecord
	err     error
}

func (f *fakeAudit) Record(ctx context.Context, chatID, userID int64, username, action, reason string) error {
	if f.err != nil {
		return f.err
	}
	f.records = append(f.records, auditRecord{chatID, userID, username, action, reason})
	return nil
}

type fakeExempter struct {
	exempt map[int64]bool // by user id
	err    error
}

func (f *fakeExempter) IsExempt(ctx context.Context, chatID, userID int64) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return f.exempt[userID], nil
}

type fakePlatform struct {
	deleteErr   error
	restrictErr error
	removeErr   error

	deleted    int
	restricted int
	removed    int
	unbanned   int
	sent       []string
}

func (f *fakePlatform) GetMembership(ctx context.Context, chatID, userID int64) (platform.Membership, error) {
	return platform.Membership{}, nil
}

func (f *fakePlatform) DeleteMessage(ctx context.Context, chatID int64, messageID int) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted++
	return nil
}

func (f *fakePlatform) RestrictMember(ctx context.Context, chatID, userID int64, until time.Time) error {
	if f.restrictErr != nil {
		return f.restrictErr
	}
	f.restricted++
	return nil
}

func (f *fakePlatform) RemoveMember(ctx context.Context, chatID, userID int64, until time.Time) error {
	if f.removeErr != nil {
		return f.removeErr
	}
	f.removed++
	return nil
}

func (f *fakePlatform) UnbanMember(ctx context.Context, chatID, userID int64) error {
	f.unbanned++
	return nil
}

func (f *fakePlatform) SendMessage(ctx context.Context, chatID int64, text string) error {
	f.sent = append(f.sent, text)
	return nil
}

type fakeEvents struct {
	published [][]byte
}

func (f *fakeEvents) PublishPunishmentEvent(chatID int64, data []byte) error {
	f.published = append(f.published, data)
	return nil
}

// --- helpers ---------------------------------------------------------------

const (
	testChat  = int64(-100123)
	testUser  = int64(777)
	testOwner = int64(42)
)

type fixture struct {
	rules    *fakeRules
	audit    *fakeAudit
	exempter *fakeExempter
	platform *fakePlatform
	events   *fakeEvents
	mod      *Moderator
}

func newFixture() *fixture {
	f := &fixture{
		rules: &fakeRules{
			enabled:  map[int64]bool{},
			patterns: map[int64][]rules.Pattern{},
		},
		audit:    &fakeAudit{},
		exempter: &fakeExempter{exempt: map[int64]bool{}},
		platform: &fakePlatform{},
		events:   &fakeEvents{},
	}
	dispatcher := punish.NewDispatcher(f.platform, time.Hour)
	f.mod = New(f.rules, f.audit, f.exempter, dispatcher, f.platform, f.events, testOwner)
	return f
}

func badwordMessage() Message {
	return Message{
		ChatID:    testChat,
		MessageID: 5,
		UserID:    testUser,
		Username:  "offender",
		Text:      "this has badword in it",
	}
}

// --- tests -----------------------------------------------------------------

func TestHandleMessage_WordViolation(t *testing.T) {
	f := newFixture()
	f.rules.patterns[testChat] = []rules.Pattern{{Text: "badword", Kind: rules.KindWord}}

	if err := f.mod.HandleMessage(context.Background(), badwordMessage()); err != nil {
		t.Fatalf("HandleMessage() error: %v", err)
	}

	if f.platform.deleted != 1 {
		t.Errorf("deleted = %d, want 1", f.platform.deleted)
	}
	if f.platform.restricted != 1 {
		t.Errorf("restricted = %d, want 1 (mute)", f.platform.restricted)
	}
	if len(f.platform.sent) != 1 {
		t.Errorf("notifications = %d, want 1", len(f.platform.sent))
	}
	if len(f.audit.records) != 1 {
		t.Fatalf("audit records = %d, want 1", len(f.audit.records))
	}
	rec := f.audit.records[0]
	if rec.action != "mute" || rec.reason != "forbidden word" {
		t.Errorf("audit record = action %q reason %q, want mute / forbidden word", rec.action, rec.reason)
	}
	if rec.chatID != testChat || rec.userID != testUser || rec.username != "offender" {
		t.Errorf("audit record identity = %+v", rec)
	}
	if len(f.events.published) != 1 {
		t.Errorf("events published = %d, want 1", len(f.events.published))
	}
}

func TestHandleMessage_LinkViolationBans(t *testing.T) {
	f := newFixture()
	f.rules.patterns[testChat] = []rules.Pattern{{Text: "badsite.com", Kind: rules.KindLink}}

	msg := badwordMessage()
	msg.Text = "visit badsite.com now"
	if err := f.mod.HandleMessage(context.Background(), msg); err != nil {
		t.Fatalf("HandleMessage() error: %v", err)
	}

	if f.platform.removed != 1 {
		t.Errorf("removed = %d, want 1 (ban)", f.platform.removed)
	}
	if len(f.audit.records) != 1 || f.audit.records[0].action != "ban" {
		t.Fatalf("audit records = %+v, want one ban", f.audit.records)
	}
	if f.audit.records[0].reason != "forbidden link" {
		t.Errorf("reason = %q, want forbidden link", f.audit.records[0].reason)
	}
}

func TestHandleMessage_AdminExempt(t *testing.T) {
	f := newFixture()
	f.rules.patterns[testChat] = []rules.Pattern{{Text: "badword", Kind: rules.KindWord}}
	f.exempter.exempt[testUser] = true

	if err := f.mod.HandleMessage(context.Background(), badwordMessage()); err != nil {
		t.Fatalf("HandleMessage() error: %v", err)
	}
	assertNoSideEffects(t, f)
}

func TestHandleMessage_OwnerExempt(t *testing.T) {
	f := newFixture()
	f.rules.patterns[testChat] = []rules.Pattern{{Text: "badword", Kind: rules.KindWord}}

	msg := badwordMessage()
	msg.UserID = testOwner
	if err := f.mod.HandleMessage(context.Background(), msg); err != nil {
		t.Fatalf("HandleMessage() error: %v", err)
	}
	assertNoSideEffects(t, f)
}

func TestHandleMessage_ModerationDisabled(t *testing.T) {
	f := newFixture()
	f.rules.enabled[testChat] = false
	f.rules.patterns[testChat] = []rules.Pattern{{Text: "badword", Kind: rules.KindWord}}

	if err := f.mod.HandleMessage(context.Background(), badwordMessage()); err != nil {
		t.Fatalf("HandleMessage() error: %v", err)
	}
	assertNoSideEffects(t, f)
}

func TestHandleMessage_PrivateChatIgnored(t *testing.T) {
	f := newFixture()
	f.rules.patterns[testChat] = []rules.Pattern{{Text: "badword", Kind: rules.KindWord}}

	msg := badwordMessage()
	msg.Private = true
	if err := f.mod.HandleMessage(context.Background(), msg); err != nil {
		t.Fatalf("HandleMessage() error: %v", err)
	}
	assertNoSideEffects(t, f)
}

func TestHandleMessage_NoViolation(t *testing.T) {
	f := newFixture()
	f.rules.patterns[testChat] = []rules.Pattern{{Text: "badword", Kind: rules.KindWord}}

	msg := badwordMessage()
	msg.Text = "a perfectly fine message"
	if err := f.mod.HandleMessage(context.Background(), msg); err != nil {
		t.Fatalf("HandleMessage() error: %v", err)
	}
	assertNoSideEffects(t, f)
}

// A failed admin lookup fails closed: the sender is moderated rather than
// exempted. Deliberate policy, not a bug.
func TestHandleMessage_ExemptionLookupFailureFailsClosed(t *testing.T) {
	f := newFixture()
	f.rules.patterns[testChat] = []rules.Pattern{{Text: "badword", Kind: rules.KindWord}}
	f.exempter.err = errors.New("membership lookup timed out")

	if err := f.mod.HandleMessage(context.Background(), badwordMessage()); err != nil {
		t.Fatalf("HandleMessage() error: %v", err)
	}
	if f.platform.deleted != 1 || len(f.audit.records) != 1 {
		t.Errorf("deleted=%d records=%d, want violation handled despite failed lookup",
			f.platform.deleted, len(f.audit.records))
	}
}

// A failed deletion is tolerated; the rest of the pass still runs.
func TestHandleMessage_DeleteFailureTolerated(t *testing.T) {
	f := newFixture()
	f.rules.patterns[testChat] = []rules.Pattern{{Text: "badword", Kind: rules.KindWord}}
	f.platform.deleteErr = errors.New("message to delete not found")

	if err := f.mod.HandleMessage(context.Background(), badwordMessage()); err != nil {
		t.Fatalf("HandleMessage() error: %v", err)
	}
	if f.platform.restricted != 1 || len(f.audit.records) != 1 || len(f.platform.sent) != 1 {
		t.Errorf("restricted=%d records=%d sent=%d, want pass to continue past failed delete",
			f.platform.restricted, len(f.audit.records), len(f.platform.sent))
	}
}

// A failed punishment is logged as the degraded marker, still notified and
// still recorded.
func TestHandleMessage_PunishmentFailureLoggedDegraded(t *testing.T) {
	f := newFixture()
	f.rules.patterns[testChat] = []rules.Pattern{{Text: "badword", Kind: rules.KindWord}}
	f.platform.restrictErr = errors.New("not enough rights")

	if err := f.mod.HandleMessage(context.Background(), badwordMessage()); err != nil {
		t.Fatalf("HandleMessage() error: %v", err)
	}
	if len(f.audit.records) != 1 {
		t.Fatalf("audit records = %d, want 1", len(f.audit.records))
	}
	if got := f.audit.records[0].action; got != string(punish.FailedOutcome) {
		t.Errorf("action = %q, want %q", got, punish.FailedOutcome)
	}
	if len(f.platform.sent) != 1 {
		t.Errorf("notifications = %d, want 1 (failure must stay visible)", len(f.platform.sent))
	}
}

// Storage failures are fatal to the pass and surface to the caller.
func TestHandleMessage_StorageFailure(t *testing.T) {
	f := newFixture()
	f.rules.err = errors.New("connection refused")

	if err := f.mod.HandleMessage(context.Background(), badwordMessage()); err == nil {
		t.Fatal("HandleMessage() = nil, want storage error")
	}
}

func TestHandleMessage_CaptionIsModerated(t *testing.T) {
	f := newFixture()
	f.rules.patterns[testChat] = []rules.Pattern{{Text: "badword", Kind: rules.KindWord}}

	msg := badwordMessage()
	msg.Text = ""
	msg.Caption = "look at this BADWORD photo"
	if err := f.mod.HandleMessage(context.Background(), msg); err != nil {
		t.Fatalf("HandleMessage() error: %v", err)
	}
	if len(f.audit.records) != 1 {
		t.Errorf("audit records = %d, want 1 (caption must be classified)", len(f.audit.records))
	}
}

func assertNoSideEffects(t *testing.T, f *fixture) {
	t.Helper()
	if f.platform.deleted != 0 || f.platform.restricted != 0 || f.platform.removed != 0 {
		t.Errorf("platform calls: deleted=%d restricted=%d removed=%d, want none",
			f.platform.deleted, f.platform.restricted, f.platform.removed)
	}
	if len(f.platform.sent) != 0 {
		t.Errorf("notifications = %d, want none", len(f.platform.sent))
	}
	if len(f.audit.records) != 0 {
		t.Errorf("audit records = %d, want none", len(f.audit.records))
	}
	if len(f.events.published) != 0 {
		t.Errorf("events = %d, want none", len(f.events.published))
	}
}
