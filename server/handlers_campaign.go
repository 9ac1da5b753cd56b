package server

import (
	"sort"
	"strconv"
	"strings"

	"github.com/boltdb/bolt"
	"github.com/gin-gonic/gin"
	"github.com/influex/influex/internal/common"
	"github.com/influex/influex/internal/deals"
	"github.com/influex/influex/internal/notifications"
	"github.com/influex/influex/misc"
)

///////// Campaigns /////////

func postCampaign(s *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		var cmp common.Campaign
		if err := misc.BindJSON(c, &cmp); err != nil {
			c.JSON(400, misc.StatusErr("Error unmarshalling request body"))
			return
		}

		// Only brands publish campaigns
		brand := common.GetUser(cmp.BrandId, s.db, s.Cfg)
		if brand == nil || brand.Role != common.RoleBrand {
			c.JSON(400, misc.StatusErr("Please provide a valid brand ID"))
			return
		}

		var n *notifications.Notification
		if err := s.db.Update(func(tx *bolt.Tx) (err error) {
			n, err = deals.Create(tx, s.Cfg, &cmp)
			return
		}); err != nil {
			c.JSON(400, misc.StatusErr(err.Error()))
			return
		}

		s.Campaigns.SetCampaign(cmp.Id, &cmp)
		s.Listeners.Push(n)

		c.JSON(200, misc.StatusOK(cmp.Id))
	}
}

func getCampaign(s *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		cmp := common.GetCampaign(c.Param("id"), s.db, s.Cfg)
		if cmp == nil {
			c.JSON(404, misc.StatusErr("Campaign not found"))
			return
		}
		c.JSON(200, cmp)
	}
}

// Marketplace listing with the filter set the dashboard exposes.
// Served from the live cache; filters with no value match everything.
func getCampaigns(s *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		var (
			status       = c.Query("status")
			platform     = c.Query("platform")
			adType       = c.Query("adType")
			niche        = c.Query("niche")
			query        = strings.ToLower(c.Query("query"))
			minBudget, _ = strconv.ParseInt(c.Query("minBudget"), 10, 64)
			maxBudget, _ = strconv.ParseInt(c.Query("maxBudget"), 10, 64)
			minFoll, _   = strconv.ParseInt(c.Query("minFollowers"), 10, 64)
			auction      = c.Query("auction")
		)

		out := make([]*common.Campaign, 0)
		for _, cmp := range s.Campaigns.GetStore() {
			if status != "" && cmp.Status != common.DealStatus(status) {
				continue
			}
			if platform != "" && cmp.Platform != platform {
				continue
			}
			if adType != "" && cmp.AdType != adType {
				continue
			}
			if niche != "" && cmp.Niche != niche {
				continue
			}
			if query != "" && !strings.Contains(strings.ToLower(cmp.Title), query) {
				continue
			}
			if minBudget > 0 && cmp.Budget < minBudget {
				continue
			}
			if maxBudget > 0 && cmp.Budget > maxBudget {
				continue
			}
			if minFoll > 0 && cmp.MinFollowers < minFoll {
				continue
			}
			if auction != "" && cmp.IsAuction != (auction == "true") {
				continue
			}
			out = append(out, cmp)
		}

		sort.Slice(out, func(i, j int) bool {
			return out[i].CreatedAt > out[j].CreatedAt
		})

		c.JSON(200, out)
	}
}

type bidReq struct {
	UserId  string `json:"userId"`
	Amount  int64  `json:"amount"`
	Message string `json:"message,omitempty"`
}

func postBid(s *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req bidReq
		if err := misc.BindJSON(c, &req); err != nil {
			c.JSON(400, misc.StatusErr("Error unmarshalling request body"))
			return
		}

		inf := common.GetUser(req.UserId, s.db, s.Cfg)
		if inf == nil || inf.Role != common.RoleInfluencer {
			c.JSON(400, misc.StatusErr("Please provide a valid influencer ID"))
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
			n, err = deals.PlaceBid(tx, s.Cfg, cmp, req.UserId, req.Amount, req.Message)
			return
		}); err != nil {
			abortWithErr(c, err)
			return
		}

		s.Campaigns.SetCampaign(cmp.Id, cmp)
		s.Listeners.Push(n)

		c.JSON(200, misc.StatusOK(cmp.Id))
	}
}
