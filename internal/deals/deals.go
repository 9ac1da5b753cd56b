package deals

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/boltdb/bolt"
	"github.com/influex/influex/config"
	"github.com/influex/influex/internal/common"
	"github.com/influex/influex/internal/ledger"
	"github.com/influex/influex/internal/notifications"
	"github.com/influex/influex/misc"
)

var (
	ErrValidation        = errors.New("malformed or missing input")
	ErrInvalidTransition = errors.New("transition not allowed from the campaign's current status")

	ErrMissingLink    = errors.New("please provide a submission link")
	ErrMissingRatings = errors.New("please provide a valid rating breakdown")
)

// Payload carries the per-transition input: the escrow amount for
// locks, the content link for submissions and the rating breakdown
// for completions.
type Payload struct {
	Amount         int64           `json:"amount,omitempty"`
	SubmissionLink string          `json:"submissionLink,omitempty"`
	Ratings        *common.Ratings `json:"ratings,omitempty"`
	Comment        string          `json:"comment,omitempty"`
}

// Create stores a new OPEN campaign for the brand. No escrow is
// touched until funds are locked.
func Create(tx *bolt.Tx, cfg *config.Config, cmp *common.Campaign) (*notifications.Notification, error) {
	if err := cmp.Check(); err != nil {
		return nil, err
	}

	var err error
	if cmp.Id, err = misc.GetNextIndex(tx, cfg.Bucket.Campaign); err != nil {
		return nil, err
	}

	cmp.Status = common.StatusOpen
	cmp.FinalPrice = nil
	cmp.SubmissionLink = ""
	cmp.InfluencerId = ""
	cmp.CreatedAt = time.Now().Unix()

	if err = common.SaveCampaign(tx, cfg, cmp); err != nil {
		return nil, err
	}

	return notifications.Append(tx, cfg,
		"Campaign published",
		fmt.Sprintf("Campaign %s (%s) is live in the marketplace", cmp.Title, cmp.Id),
		notifications.TypeSystem)
}

// PlaceBid appends an influencer's offer to an OPEN auction campaign.
// Bids never touch the ledger or the campaign status; they only feed
// the negotiation that ends in a lock.
func PlaceBid(tx *bolt.Tx, cfg *config.Config, cmp *common.Campaign, userId string, amount int64, message string) (*notifications.Notification, error) {
	if !cmp.IsOpen() || !cmp.IsAuction {
		return nil, ErrInvalidTransition
	}
	if amount <= 0 {
		return nil, ledger.ErrAmount
	}

	cmp.Bids = append(cmp.Bids, &common.Bid{
		Id:        misc.PseudoUUID(),
		UserId:    userId,
		Amount:    amount,
		Message:   message,
		Timestamp: time.Now().Unix(),
	})

	if err := common.SaveCampaign(tx, cfg, cmp); err != nil {
		return nil, err
	}

	return notifications.Append(tx, cfg,
		"New bid received",
		fmt.Sprintf("Campaign %s received a bid of %d", cmp.Id, amount),
		notifications.TypeBid)
}

// Transition validates and applies a single lifecycle step for the
// campaign, mutating the ledger where the step moves money. It runs
// entirely inside the caller's R/W transaction: any error aborts the
// transaction, so a rejected transition leaves no trace.
func Transition(tx *bolt.Tx, cfg *config.Config, cmp *common.Campaign, actorId string, role common.Role, target common.DealStatus, p *Payload) (*notifications.Notification, error) {
	if p == nil {
		p = &Payload{}
	}

	switch target {
	case common.StatusEscrowLocked:
		return lockFunds(tx, cfg, cmp, actorId, role, p)
	case common.StatusWorkSubmitted:
		return submitWork(tx, cfg, cmp, actorId, role, p)
	case common.StatusOpen:
		return cancel(tx, cfg, cmp, actorId, role)
	case common.StatusCompleted:
		return complete(tx, cfg, cmp, actorId, role, p)
	default:
		// NEGOTIATING and DISPUTED are declared statuses with no
		// transition producing them
		return nil, ErrInvalidTransition
	}
}

func lockFunds(tx *bolt.Tx, cfg *config.Config, cmp *common.Campaign, actorId string, role common.Role, p *Payload) (*notifications.Notification, error) {
	if !cmp.IsOpen() {
		return nil, ErrInvalidTransition
	}
	if role != common.RoleBrand || actorId != cmp.BrandId {
		return nil, ErrInvalidTransition
	}

	amount := p.Amount
	if amount == 0 {
		amount = cmp.Budget
	}
	if amount <= 0 {
		return nil, ErrValidation
	}

	if err := ledger.Lock(tx, cfg, actorId, amount,
		fmt.Sprintf("Escrow deposit for campaign %s", cmp.Id)); err != nil {
		return nil, err
	}

	cmp.Status = common.StatusEscrowLocked
	cmp.FinalPrice = &amount

	if err := common.SaveCampaign(tx, cfg, cmp); err != nil {
		return nil, err
	}

	return notifications.Append(tx, cfg,
		"Funds locked in escrow",
		fmt.Sprintf("%d is held in escrow for campaign %s", amount, cmp.Id),
		notifications.TypeUpdate)
}

func submitWork(tx *bolt.Tx, cfg *config.Config, cmp *common.Campaign, actorId string, role common.Role, p *Payload) (*notifications.Notification, error) {
	if cmp.Status != common.StatusEscrowLocked {
		return nil, ErrInvalidTransition
	}
	if role != common.RoleInfluencer {
		return nil, ErrInvalidTransition
	}
	if strings.TrimSpace(p.SubmissionLink) == "" {
		return nil, ErrMissingLink
	}

	cmp.Status = common.StatusWorkSubmitted
	cmp.SubmissionLink = p.SubmissionLink
	cmp.InfluencerId = actorId

	if err := common.SaveCampaign(tx, cfg, cmp); err != nil {
		return nil, err
	}

	return notifications.Append(tx, cfg,
		"Work delivered",
		fmt.Sprintf("Content for campaign %s was submitted for review", cmp.Id),
		notifications.TypeUpdate)
}

// cancel covers both the cancellation from ESCROW_LOCKED and the
// brand's rejection from WORK_SUBMITTED. Either way the original lock
// is reversed exactly and the campaign returns to the marketplace.
func cancel(tx *bolt.Tx, cfg *config.Config, cmp *common.Campaign, actorId string, role common.Role) (*notifications.Notification, error) {
	switch cmp.Status {
	case common.StatusEscrowLocked:
		// No influencer is bound before delivery, so the owning brand
		// is the only party to the deal
		if role != common.RoleBrand || actorId != cmp.BrandId {
			return nil, ErrInvalidTransition
		}
	case common.StatusWorkSubmitted:
		// Only the paying brand can reject delivered work
		if role != common.RoleBrand || actorId != cmp.BrandId {
			return nil, ErrInvalidTransition
		}
	default:
		return nil, ErrInvalidTransition
	}

	if cmp.FinalPrice == nil {
		return nil, ErrInvalidTransition
	}

	if err := ledger.Unlock(tx, cfg, cmp.BrandId, *cmp.FinalPrice,
		fmt.Sprintf("Escrow refund for campaign %s", cmp.Id)); err != nil {
		return nil, err
	}

	cmp.Status = common.StatusOpen
	cmp.FinalPrice = nil
	cmp.SubmissionLink = ""
	cmp.InfluencerId = ""
	cmp.Ratings = nil
	cmp.ReviewComment = ""

	if err := common.SaveCampaign(tx, cfg, cmp); err != nil {
		return nil, err
	}

	return notifications.Append(tx, cfg,
		"Campaign cancelled",
		fmt.Sprintf("Campaign %s was cancelled and the escrowed funds were returned", cmp.Id),
		notifications.TypeUpdate)
}

func complete(tx *bolt.Tx, cfg *config.Config, cmp *common.Campaign, actorId string, role common.Role, p *Payload) (*notifications.Notification, error) {
	if cmp.Status != common.StatusWorkSubmitted {
		return nil, ErrInvalidTransition
	}
	if role != common.RoleBrand || actorId != cmp.BrandId {
		return nil, ErrInvalidTransition
	}
	if p.Ratings == nil || !p.Ratings.IsValid() {
		return nil, ErrMissingRatings
	}
	if cmp.FinalPrice == nil || cmp.InfluencerId == "" {
		return nil, ErrInvalidTransition
	}

	// Both legs of the payout land in this one transaction: the
	// brand's escrow debit must equal the influencer's income credit
	if err := ledger.Settle(tx, cfg, cmp.BrandId, cmp.InfluencerId, *cmp.FinalPrice,
		fmt.Sprintf("Escrow release for campaign %s", cmp.Id)); err != nil {
		return nil, err
	}

	cmp.Status = common.StatusCompleted
	cmp.Ratings = p.Ratings
	cmp.ReviewComment = p.Comment

	if err := common.SaveCampaign(tx, cfg, cmp); err != nil {
		return nil, err
	}

	return notifications.Append(tx, cfg,
		"Campaign completed",
		fmt.Sprintf("Campaign %s was completed and %d was released from escrow", cmp.Id, *cmp.FinalPrice),
		notifications.TypeUpdate)
}
