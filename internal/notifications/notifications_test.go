package notifications

import (
	"testing"

	"github.com/boltdb/bolt"
	"github.com/influex/influex/config"
	"github.com/influex/influex/misc"
)

func testDB(t *testing.T) (*bolt.DB, *config.Config) {
	t.Helper()

	cfg := &config.Config{}
	cfg.DBPath = t.TempDir() + "/"
	cfg.DBName = "notifications-test"
	cfg.Bucket.Notification = "notification"

	db, err := misc.OpenDB(cfg.DBPath, cfg.DBName)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(cfg.Bucket.Notification))
		return err
	}); err != nil {
		t.Fatal(err)
	}

	return db, cfg
}

func TestAppendNewestFirst(t *testing.T) {
	db, cfg := testDB(t)

	if err := db.Update(func(tx *bolt.Tx) error {
		if _, err := Append(tx, cfg, "first", "msg", TypeSystem); err != nil {
			return err
		}
		_, err := Append(tx, cfg, "second", "msg", TypeUpdate)
		return err
	}); err != nil {
		t.Fatal(err)
	}

	var feed []*Notification
	db.View(func(tx *bolt.Tx) error {
		feed = Get(tx, cfg)
		return nil
	})

	if len(feed) != 2 {
		t.Fatalf("wanted 2 notifications, got %d", len(feed))
	}
	if feed[0].Title != "second" || feed[1].Title != "first" {
		t.Errorf("feed should be newest first, got %q then %q", feed[0].Title, feed[1].Title)
	}
	if feed[0].Read || feed[1].Read {
		t.Error("notifications must start unread")
	}
	if feed[0].Id == feed[1].Id {
		t.Error("notification ids should be unique")
	}
}

func TestMarkRead(t *testing.T) {
	db, cfg := testDB(t)

	var n *Notification
	if err := db.Update(func(tx *bolt.Tx) (err error) {
		n, err = Append(tx, cfg, "title", "msg", TypeBid)
		return
	}); err != nil {
		t.Fatal(err)
	}

	if err := db.Update(func(tx *bolt.Tx) error {
		return MarkRead(tx, cfg, n.Id)
	}); err != nil {
		t.Fatal(err)
	}

	db.View(func(tx *bolt.Tx) error {
		if feed := Get(tx, cfg); !feed[0].Read {
			t.Error("markRead should flip the flag")
		}
		return nil
	})

	// Unknown ids are a no-op
	if err := db.Update(func(tx *bolt.Tx) error {
		return MarkRead(tx, cfg, "does-not-exist")
	}); err != nil {
		t.Fatal(err)
	}
}

func TestListeners(t *testing.T) {
	var (
		l   Listeners
		got []*Notification
	)
	l.Subscribe(func(n *Notification) { got = append(got, n) })

	l.Push(&Notification{Id: "n1"})
	l.Push(nil) // ignored

	if len(got) != 1 || got[0].Id != "n1" {
		t.Fatalf("listener should have seen n1, got %+v", got)
	}
}
