package repo

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite (no CGO)
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-dm-backend/internal/domain"
)

// test DB helper
func newMsgRepoDB(t *testing.T, migrate ...any) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), fmt.Sprintf("msg_repo_%d.db", time.Now().UnixNano()))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	if len(migrate) > 0 {
		if err := db.AutoMigrate(migrate...); err != nil {
			t.Fatalf("automigrate: %v", err)
		}
	}
	return db
}

func seedMsg(t *testing.T, db *gorm.DB, id, from, to string, at time.Time) {
	t.Helper()
	m := &domain.Message{ID: id, SenderID: from, RecipientID: to, Content: "body " + id, MessageType: "text", CreatedAt: at, UpdatedAt: at}
	if err := db.Create(m).Error; err != nil {
		t.Fatalf("seed %s: %v", id, err)
	}
}

func TestSaveMessage_InsertsUnreadRow(t *testing.T) {
	db := newMsgRepoDB(t, &domain.Message{})
	ctx := context.Background()

	msg, err := SaveMessage(ctx, db, "u1", "u2", "hello", "text")
	if err != nil {
		t.Fatalf("SaveMessage error: %v", err)
	}
	if msg.ID == "" || msg.SenderID != "u1" || msg.RecipientID != "u2" || msg.Content != "hello" || msg.MessageType != "text" {
		t.Fatalf("unexpected message: %+v", msg)
	}
	if msg.CreatedAt.IsZero() || time.Since(msg.CreatedAt) > time.Minute {
		t.Fatalf("CreatedAt not set reasonably: %v", msg.CreatedAt)
	}

	got, err := GetMessage(ctx, db, msg.ID)
	if err != nil {
		t.Fatalf("GetMessage: %v", err)
	}
	if got.IsRead || got.ReadAt != nil || got.IsDeleted || got.DeletedAt != nil {
		t.Fatalf("fresh message should be unread and not deleted: %+v", got)
	}
}

func TestSaveMessage_Error_NoTable(t *testing.T) {
	db := newMsgRepoDB(t /* no migration */)
	if _, err := SaveMessage(context.Background(), db, "u1", "u2", "x", "text"); err == nil {
		t.Fatalf("expected error due to missing messages table")
	}
}

func TestGetMessage_NotFound(t *testing.T) {
	db := newMsgRepoDB(t, &domain.Message{})
	if _, err := GetMessage(context.Background(), db, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListConversationPage_BothDirections_ChronologicalPages(t *testing.T) {
	db := newMsgRepoDB(t, &domain.Message{})
	ctx := context.Background()
	t0 := time.Date(2025, 7, 1, 10, 0, 0, 0, time.UTC)

	seedMsg(t, db, "m1", "u1", "u2", t0)
	seedMsg(t, db, "m2", "u2", "u1", t0.Add(1*time.Second))
	seedMsg(t, db, "m3", "u1", "u2", t0.Add(2*time.Second))
	seedMsg(t, db, "m4", "u1", "u3", t0.Add(3*time.Second)) // other pair
	seedMsg(t, db, "m5", "u2", "u1", t0.Add(4*time.Second))
	if err := db.Model(&domain.Message{}).Where("id = ?", "m5").Update("is_deleted", true).Error; err != nil {
		t.Fatalf("soft delete m5: %v", err)
	}

	total, err := CountConversation(ctx, db, "u2", "u1")
	if err != nil || total != 3 {
		t.Fatalf("CountConversation = %d, %v; want 3", total, err)
	}

	// Newest two, returned oldest-first.
	page1, err := ListConversationPage(ctx, db, "u1", "u2", 0, 2)
	if err != nil {
		t.Fatalf("page1: %v", err)
	}
	if len(page1) != 2 || page1[0].ID != "m2" || page1[1].ID != "m3" {
		t.Fatalf("unexpected page1: %+v", page1)
	}

	page2, err := ListConversationPage(ctx, db, "u2", "u1", 2, 2)
	if err != nil {
		t.Fatalf("page2: %v", err)
	}
	if len(page2) != 1 || page2[0].ID != "m1" {
		t.Fatalf("unexpected page2: %+v", page2)
	}
}

func TestMarkConversationRead_OnlyCounterpartToReader_Idempotent(t *testing.T) {
	db := newMsgRepoDB(t, &domain.Message{})
	ctx := context.Background()
	t0 := time.Now().UTC().Add(-time.Minute)

	seedMsg(t, db, "a", "u1", "u2", t0)
	seedMsg(t, db, "b", "u1", "u2", t0.Add(time.Second))
	seedMsg(t, db, "c", "u2", "u1", t0.Add(2*time.Second)) // reverse direction stays unread

	now := time.Now().UTC()
	n, err := MarkConversationRead(ctx, db, "u1", "u2", now)
	if err != nil || n != 2 {
		t.Fatalf("first MarkConversationRead = %d, %v; want 2", n, err)
	}
	n, err = MarkConversationRead(ctx, db, "u1", "u2", now)
	if err != nil || n != 0 {
		t.Fatalf("second MarkConversationRead = %d, %v; want 0", n, err)
	}

	var a, c domain.Message
	_ = db.First(&a, "id = ?", "a").Error
	_ = db.First(&c, "id = ?", "c").Error
	if !a.IsRead || a.ReadAt == nil {
		t.Fatalf("expected a to be read: %+v", a)
	}
	if c.IsRead {
		t.Fatalf("reverse-direction message must stay unread: %+v", c)
	}
}

func TestMarkMessageRead_RecipientOnly_AndAlreadyRead(t *testing.T) {
	db := newMsgRepoDB(t, &domain.Message{})
	ctx := context.Background()
	seedMsg(t, db, "m1", "u1", "u2", time.Now().UTC())

	if _, err := MarkMessageRead(ctx, db, "m1", "u1", time.Now().UTC()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("sender must not mark as read, got %v", err)
	}
	got, err := MarkMessageRead(ctx, db, "m1", "u2", time.Now().UTC())
	if err != nil || !got.IsRead || got.ReadAt == nil {
		t.Fatalf("MarkMessageRead = %+v, %v", got, err)
	}
	if _, err := MarkMessageRead(ctx, db, "m1", "u2", time.Now().UTC()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("already read should be ErrNotFound, got %v", err)
	}
}

func TestSoftDeleteMessage_ParticipantsOnly_RowRetained(t *testing.T) {
	db := newMsgRepoDB(t, &domain.Message{})
	ctx := context.Background()
	seedMsg(t, db, "m1", "u1", "u2", time.Now().UTC())

	if _, err := SoftDeleteMessage(ctx, db, "m1", "u3", time.Now().UTC()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("outsider delete should be ErrNotFound, got %v", err)
	}
	if _, err := SoftDeleteMessage(ctx, db, "missing", "u1", time.Now().UTC()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing delete should be ErrNotFound, got %v", err)
	}
	got, err := SoftDeleteMessage(ctx, db, "m1", "u2", time.Now().UTC())
	if err != nil || !got.IsDeleted || got.DeletedAt == nil {
		t.Fatalf("SoftDeleteMessage = %+v, %v", got, err)
	}

	var cnt int64
	db.Model(&domain.Message{}).Where("id = ?", "m1").Count(&cnt)
	if cnt != 1 {
		t.Fatalf("soft delete must keep the row, count=%d", cnt)
	}
}

func TestCountUnread_IgnoresReadAndDeleted(t *testing.T) {
	db := newMsgRepoDB(t, &domain.Message{})
	ctx := context.Background()
	now := time.Now().UTC()
	seedMsg(t, db, "a", "u1", "u2", now)
	seedMsg(t, db, "b", "u3", "u2", now)
	seedMsg(t, db, "c", "u3", "u2", now)
	seedMsg(t, db, "d", "u2", "u1", now)
	db.Model(&domain.Message{}).Where("id = ?", "b").Update("is_read", true)
	db.Model(&domain.Message{}).Where("id = ?", "c").Update("is_deleted", true)

	n, err := CountUnread(ctx, db, "u2")
	if err != nil || n != 1 {
		t.Fatalf("CountUnread = %d, %v; want 1", n, err)
	}
}

func TestListConversationSummaries_OnePerCounterpart(t *testing.T) {
	db := newMsgRepoDB(t, &domain.User{}, &domain.Message{})
	ctx := context.Background()
	for _, u := range []domain.User{
		{ID: "u1", FirstName: "Ada", Email: "ada@example.com"},
		{ID: "u2", FirstName: "Bob", Email: "bob@example.com"},
		{ID: "u3", FirstName: "Cy", Email: "cy@example.com"},
	} {
		u := u
		if err := db.Create(&u).Error; err != nil {
			t.Fatalf("seed user: %v", err)
		}
	}

	t0 := time.Date(2025, 7, 1, 10, 0, 0, 0, time.UTC)
	seedMsg(t, db, "a", "u2", "u1", t0)                  // unread from Bob
	seedMsg(t, db, "b", "u2", "u1", t0.Add(1*time.Second)) // unread from Bob
	seedMsg(t, db, "c", "u1", "u2", t0.Add(2*time.Second)) // my reply, latest with Bob
	seedMsg(t, db, "d", "u3", "u1", t0.Add(5*time.Second)) // latest overall, from Cy
	seedMsg(t, db, "e", "u9", "u1", t0.Add(6*time.Second)) // unknown user, skipped
	seedMsg(t, db, "f", "u3", "u1", t0.Add(7*time.Second))
	db.Model(&domain.Message{}).Where("id = ?", "f").Update("is_deleted", true)

	got, err := ListConversationSummaries(ctx, db, "u1")
	if err != nil {
		t.Fatalf("ListConversationSummaries: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 summaries, got %+v", got)
	}
	if got[0].User.UserID != "u3" || got[0].LastMessage.Content != "body d" || got[0].UnreadCount != 1 {
		t.Fatalf("unexpected first summary: %+v", got[0])
	}
	if got[1].User.UserID != "u2" || got[1].LastMessage.Content != "body c" || got[1].UnreadCount != 2 {
		t.Fatalf("unexpected second summary: %+v", got[1])
	}
}

func TestListConversationSummaries_Empty(t *testing.T) {
	db := newMsgRepoDB(t, &domain.User{}, &domain.Message{})
	got, err := ListConversationSummaries(context.Background(), db, "nobody")
	if err != nil || got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil slice, got %v, %v", got, err)
	}
}
