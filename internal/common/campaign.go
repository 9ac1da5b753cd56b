package common

import (
	"encoding/json"
	"errors"
	"log"
	"sync"

	"github.com/boltdb/bolt"
	"github.com/influex/influex/config"
)

type DealStatus string

const (
	StatusOpen          DealStatus = "OPEN"
	StatusNegotiating   DealStatus = "NEGOTIATING"
	StatusEscrowLocked  DealStatus = "ESCROW_LOCKED"
	StatusWorkSubmitted DealStatus = "WORK_SUBMITTED"
	StatusCompleted     DealStatus = "COMPLETED"

	// Declared in the taxonomy but no transition emits it
	StatusDisputed DealStatus = "DISPUTED"
)

var Platforms = map[string]bool{
	"INSTAGRAM": true,
	"YOUTUBE":   true,
	"TIKTOK":    true,
	"TELEGRAM":  true,
	"X":         true,
	"FACEBOOK":  true,
}

var AdTypes = map[string]bool{
	"POST":    true,
	"STORY":   true,
	"REELS":   true,
	"VIDEO":   true,
	"PODCAST": true,
}

var (
	ErrInvalidTitle    = errors.New("invalid or missing title")
	ErrInvalidBudget   = errors.New("please provide a valid budget")
	ErrInvalidPlatform = errors.New("please target a valid platform")
	ErrInvalidAdType   = errors.New("please provide a valid ad type")
)

type Bid struct {
	Id        string `json:"id"`
	UserId    string `json:"userId"`
	Amount    int64  `json:"amount"`
	Message   string `json:"message,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

type Ratings struct {
	Completion int `json:"completion"`
	Quality    int `json:"quality"`
	Feedback   int `json:"feedback"`
}

func (r *Ratings) IsValid() bool {
	ok := func(v int) bool { return v >= 1 && v <= 5 }
	return ok(r.Completion) && ok(r.Quality) && ok(r.Feedback)
}

// Campaign is the unit of work a brand offers up in the marketplace.
// Money paths only ever look at Budget, FinalPrice and Status; the rest
// is descriptive and surfaced by the marketplace filters.
type Campaign struct {
	Id      string `json:"id"`
	BrandId string `json:"brandId"`

	Title       string `json:"title"`
	Description string `json:"description,omitempty"`

	Budget int64 `json:"budget"`

	Platform     string `json:"platform"`
	AdType       string `json:"adType"`
	MinFollowers int64  `json:"minFollowers,omitempty"`
	Niche        string `json:"niche,omitempty"`

	Deadline       string `json:"deadline,omitempty"`
	ExpirationDate string `json:"expirationDate,omitempty"`

	IsAuction bool   `json:"isAuction,omitempty"`
	Bids      []*Bid `json:"bids,omitempty"`

	Status DealStatus `json:"status"`

	// Set when funds are locked; nil while the campaign is OPEN.
	// Once set it is the authoritative amount for all ledger moves.
	FinalPrice *int64 `json:"finalPrice,omitempty"`

	// Set when work is delivered, cleared on cancellation
	SubmissionLink string `json:"submissionLink,omitempty"`

	// The influencer who delivered the work, cleared on cancellation
	InfluencerId string `json:"influencerId,omitempty"`

	Ratings       *Ratings `json:"ratings,omitempty"`
	ReviewComment string   `json:"reviewComment,omitempty"`

	CreatedAt int64 `json:"createdAt,omitempty"`
}

func (cmp *Campaign) Check() error {
	if len(cmp.Title) == 0 {
		return ErrInvalidTitle
	}
	if cmp.Budget <= 0 {
		return ErrInvalidBudget
	}
	if !Platforms[cmp.Platform] {
		return ErrInvalidPlatform
	}
	if !AdTypes[cmp.AdType] {
		return ErrInvalidAdType
	}
	return nil
}

func (cmp *Campaign) IsOpen() bool {
	return cmp.Status == StatusOpen
}

type Campaigns struct {
	mux   sync.RWMutex
	store map[string]*Campaign
}

func NewCampaigns() *Campaigns {
	return &Campaigns{
		store: make(map[string]*Campaign),
	}
}

func (p *Campaigns) Set(db *bolt.DB, cfg *config.Config) {
	cmps := GetAllCampaigns(db, cfg)
	p.mux.Lock()
	p.store = cmps
	p.mux.Unlock()
}

func (p *Campaigns) SetCampaign(id string, cmp *Campaign) {
	p.mux.Lock()
	p.store[id] = cmp
	p.mux.Unlock()
}

func (p *Campaigns) Get(id string) (*Campaign, bool) {
	p.mux.RLock()
	val, ok := p.store[id]
	p.mux.RUnlock()
	return val, ok
}

func (p *Campaigns) GetStore() map[string]*Campaign {
	store := make(map[string]*Campaign)
	p.mux.RLock()
	for cId, cmp := range p.store {
		store[cId] = cmp
	}
	p.mux.RUnlock()
	return store
}

func GetAllCampaigns(db *bolt.DB, cfg *config.Config) map[string]*Campaign {
	campaignList := make(map[string]*Campaign)

	if err := db.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(cfg.Bucket.Campaign)).ForEach(func(k, v []byte) error {
			cmp := &Campaign{}
			if err := json.Unmarshal(v, cmp); err != nil {
				log.Println("error when unmarshalling campaign", string(v))
				return nil
			}
			campaignList[cmp.Id] = cmp
			return nil
		})
	}); err != nil {
		log.Println("Err getting all campaigns", err)
	}
	return campaignList
}

func GetCampaignTx(tx *bolt.Tx, cfg *config.Config, cid string) *Campaign {
	var cmp Campaign
	v := tx.Bucket([]byte(cfg.Bucket.Campaign)).Get([]byte(cid))
	if len(v) == 0 {
		return nil
	}
	if err := json.Unmarshal(v, &cmp); err != nil {
		return nil
	}
	return &cmp
}

func GetCampaign(cid string, db *bolt.DB, cfg *config.Config) *Campaign {
	var cmp *Campaign
	if err := db.View(func(tx *bolt.Tx) error {
		cmp = GetCampaignTx(tx, cfg, cid)
		return nil
	}); err != nil {
		return nil
	}
	return cmp
}

func SaveCampaign(tx *bolt.Tx, cfg *config.Config, cmp *Campaign) error {
	b, err := json.Marshal(cmp)
	if err != nil {
		return err
	}
	return tx.Bucket([]byte(cfg.Bucket.Campaign)).Put([]byte(cmp.Id), b)
}
