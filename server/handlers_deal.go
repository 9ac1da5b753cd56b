package server

import (
	"errors"

	"github.com/boltdb/bolt"
	"github.com/gin-gonic/gin"
	"github.com/influex/influex/internal/common"
	"github.com/influex/influex/internal/deals"
	"github.com/influex/influex/internal/ledger"
	"github.com/influex/influex/internal/notifications"
	"github.com/influex/influex/misc"
)

///////// Deal lifecycle /////////

var errCampaignNotFound = errors.New("campaign not found")

type transitionReq struct {
	ActorId      string            `json:"actorId"`
	Role         common.Role       `json:"role"`
	TargetStatus common.DealStatus `json:"targetStatus"`
	Payload      *deals.Payload    `json:"payload,omitempty"`
}

// putTransition is the single write path for a campaign's lifecycle.
// The whole step (status change, ledger moves, notification) commits
// in one store transaction or not at all.
func putTransition(s *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req transitionReq
		if err := misc.BindJSON(c, &req); err != nil {
			c.JSON(400, misc.StatusErr("Error unmarshalling request body"))
			return
		}

		if req.ActorId == "" {
			c.JSON(400, misc.StatusErr("Actor ID undefined"))
			return
		}

		actor := common.GetUser(req.ActorId, s.db, s.Cfg)
		if actor == nil || actor.Role != req.Role {
			c.JSON(400, misc.StatusErr("Actor does not match the given role"))
			return
		}

		var (
			cmp *common.Campaign
			n   *notifications.Notification
		)
		if err := s.db.Update(func(tx *bolt.Tx) (err error) {
			if cmp = common.GetCampaignTx(tx, s.Cfg, c.Param("id")); cmp == nil {
				return errCampaignNotFound
			}
			n, err = deals.Transition(tx, s.Cfg, cmp, req.ActorId, req.Role, req.TargetStatus, req.Payload)
			return
		}); err != nil {
			abortWithErr(c, err)
			return
		}

		s.Campaigns.SetCampaign(cmp.Id, cmp)
		s.Listeners.Push(n)

		c.JSON(200, cmp)
	}
}

func abortWithErr(c *gin.Context, err error) {
	switch err {
	case errCampaignNotFound:
		c.JSON(404, misc.StatusErr(err.Error()))
	case deals.ErrInvalidTransition:
		c.JSON(400, misc.StatusErr(err.Error()))
	case deals.ErrValidation, deals.ErrMissingLink, deals.ErrMissingRatings, ledger.ErrAmount:
		c.JSON(400, misc.StatusErr(err.Error()))
	case ledger.ErrInsufficientFunds:
		c.JSON(400, misc.StatusErr(err.Error()))
	case ledger.ErrAccount:
		c.JSON(404, misc.StatusErr(err.Error()))
	default:
		c.JSON(500, misc.StatusErr(err.Error()))
	}
}
