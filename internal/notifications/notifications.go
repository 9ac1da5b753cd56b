package notifications

import (
	"sync"
	"time"

	"github.com/boltdb/bolt"
	"github.com/influex/influex/config"
	"github.com/influex/influex/misc"
)

type Type string

const (
	TypeBid    Type = "BID"
	TypeUpdate Type = "UPDATE"
	TypeSystem Type = "SYSTEM"
)

type Notification struct {
	Id        string `json:"id"`
	Title     string `json:"title"`
	Message   string `json:"message"`
	Type      Type   `json:"type"`
	Timestamp int64  `json:"timestamp"`
	Read      bool   `json:"read"`
}

// The whole feed lives under one key as a JSON array, newest first,
// matching the demo's serialized schema
const feedKey = "feed"

func getFeed(tx *bolt.Tx, cfg *config.Config) []*Notification {
	var feed []*Notification
	v := misc.GetBucket(tx, cfg.Bucket.Notification).Get([]byte(feedKey))
	if len(v) == 0 {
		return nil
	}
	if err := misc.GetTxJson(tx, cfg.Bucket.Notification, feedKey, &feed); err != nil {
		return nil
	}
	return feed
}

func saveFeed(tx *bolt.Tx, cfg *config.Config, feed []*Notification) error {
	return misc.PutTxJson(tx, cfg.Bucket.Notification, feedKey, feed)
}

func Append(tx *bolt.Tx, cfg *config.Config, title, message string, typ Type) (*Notification, error) {
	n := &Notification{
		Id:        misc.PseudoUUID(),
		Title:     title,
		Message:   message,
		Type:      typ,
		Timestamp: time.Now().Unix(),
	}
	feed := append([]*Notification{n}, getFeed(tx, cfg)...)
	if err := saveFeed(tx, cfg, feed); err != nil {
		return nil, err
	}
	return n, nil
}

// MarkRead flips the read flag. Unknown ids are a no-op.
func MarkRead(tx *bolt.Tx, cfg *config.Config, id string) error {
	feed := getFeed(tx, cfg)
	for _, n := range feed {
		if n.Id == id {
			if n.Read {
				return nil
			}
			n.Read = true
			return saveFeed(tx, cfg, feed)
		}
	}
	return nil
}

func Get(tx *bolt.Tx, cfg *config.Config) []*Notification {
	return getFeed(tx, cfg)
}

// Listeners fans new notifications out to the presentation layer.
// Callbacks run after the storing transaction has committed.
type Listeners struct {
	mux  sync.RWMutex
	subs []func(*Notification)
}

func (l *Listeners) Subscribe(fn func(*Notification)) {
	l.mux.Lock()
	l.subs = append(l.subs, fn)
	l.mux.Unlock()
}

func (l *Listeners) Push(n *Notification) {
	if n == nil {
		return
	}
	l.mux.RLock()
	subs := l.subs
	l.mux.RUnlock()
	for _, fn := range subs {
		fn(n)
	}
}
