package domain

import (
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite (no CGO)
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newDomainDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:domain_models?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	return db
}

func TestTableNames(t *testing.T) {
	if (User{}).TableName() != "users" {
		t.Fatalf("User.TableName() = %q; want %q", (User{}).TableName(), "users")
	}
	if (Message{}).TableName() != "messages" {
		t.Fatalf("Message.TableName() = %q; want %q", (Message{}).TableName(), "messages")
	}
}

func TestValidMessageType(t *testing.T) {
	for _, ok := range []string{"text", "image", "file"} {
		if !ValidMessageType(ok) {
			t.Fatalf("ValidMessageType(%q) = false", ok)
		}
	}
	for _, bad := range []string{"", "TEXT", "video"} {
		if ValidMessageType(bad) {
			t.Fatalf("ValidMessageType(%q) = true", bad)
		}
	}
}

func TestUser_ActivatedAndInfo(t *testing.T) {
	tok := "pending"
	u := User{ID: "u1", FirstName: "Ada", Email: "ada@example.com", ActivationToken: &tok}
	if u.Activated() {
		t.Fatalf("user with activation token must not be activated")
	}
	u.ActivationToken = nil
	if !u.Activated() {
		t.Fatalf("user without activation token must be activated")
	}
	info := u.Info()
	if info.UserID != "u1" || info.FirstName != "Ada" || info.Email != "ada@example.com" {
		t.Fatalf("unexpected info: %+v", info)
	}
}

func TestMessage_View(t *testing.T) {
	now := time.Now().UTC()
	m := Message{ID: "m1", SenderID: "u1", RecipientID: "u2", Content: "hi", MessageType: "text", CreatedAt: now, UpdatedAt: now}
	v := m.View()
	if v.MessageID != "m1" || v.Sender != "u1" || v.Recipient != "u2" || v.Content != "hi" || v.IsRead || v.ReadAt != nil {
		t.Fatalf("unexpected view: %+v", v)
	}
}

func TestMigrations_Indexes_AndChecks(t *testing.T) {
	db := newDomainDB(t)
	if err := db.AutoMigrate(&User{}, &Message{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	m := db.Migrator()
	for _, tbl := range []any{&User{}, &Message{}} {
		if !m.HasTable(tbl) {
			t.Fatalf("expected table for %T to exist", tbl)
		}
	}
	if !m.HasIndex(&Message{}, "idx_msgs_pair") {
		t.Fatalf("expected index idx_msgs_pair on messages")
	}
	if !m.HasIndex(&Message{}, "idx_msgs_unread") {
		t.Fatalf("expected index idx_msgs_unread on messages")
	}
	if !m.HasIndex(&User{}, "ux_users_email") {
		t.Fatalf("expected unique index ux_users_email on users")
	}

	now := time.Now().UTC()
	ok := &Message{ID: "m1", SenderID: "u1", RecipientID: "u2", Content: "hello", MessageType: "image", CreatedAt: now}
	if err := db.Create(ok).Error; err != nil {
		t.Fatalf("insert valid message: %v", err)
	}
	bad := &Message{ID: "m2", SenderID: "u1", RecipientID: "u2", Content: "hello", MessageType: "video", CreatedAt: now}
	if err := db.Create(bad).Error; err == nil {
		t.Fatalf("expected CHECK violation for message_type=video")
	}

	if err := db.Create(&User{ID: "u1", FirstName: "A", Email: "a@example.com"}).Error; err != nil {
		t.Fatalf("insert user: %v", err)
	}
	if err := db.Create(&User{ID: "u2", FirstName: "B", Email: "a@example.com"}).Error; err == nil {
		t.Fatalf("expected UNIQUE violation on users.email")
	}
}
