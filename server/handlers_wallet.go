package server

import (
	"github.com/boltdb/bolt"
	"github.com/gin-gonic/gin"
	"github.com/influex/influex/internal/ledger"
	"github.com/influex/influex/internal/notifications"
	"github.com/influex/influex/misc"
)

///////// Wallet /////////

func getWallet(s *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		acct, err := ledger.GetAccount(s.db, s.Cfg, c.Param("id"))
		if err != nil {
			abortWithErr(c, err)
			return
		}
		c.JSON(200, acct)
	}
}

type walletReq struct {
	Amount int64 `json:"amount"`
}

func postDeposit(s *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		var (
			req walletReq
			id  = c.Param("id")
		)
		if err := misc.BindJSON(c, &req); err != nil {
			c.JSON(400, misc.StatusErr("Error unmarshalling request body"))
			return
		}

		var n *notifications.Notification
		if err := s.db.Update(func(tx *bolt.Tx) (err error) {
			if err = ledger.Deposit(tx, s.Cfg, id, req.Amount, "Wallet top up"); err != nil {
				return
			}
			n, err = notifications.Append(tx, s.Cfg, "Deposit received",
				"Funds were added to the wallet", notifications.TypeSystem)
			return
		}); err != nil {
			abortWithErr(c, err)
			return
		}

		s.Listeners.Push(n)
		c.JSON(200, misc.StatusOK(id))
	}
}

func postWithdraw(s *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		var (
			req walletReq
			id  = c.Param("id")
		)
		if err := misc.BindJSON(c, &req); err != nil {
			c.JSON(400, misc.StatusErr("Error unmarshalling request body"))
			return
		}

		var n *notifications.Notification
		if err := s.db.Update(func(tx *bolt.Tx) (err error) {
			if err = ledger.Withdraw(tx, s.Cfg, id, req.Amount, "Wallet withdrawal request"); err != nil {
				return
			}
			n, err = notifications.Append(tx, s.Cfg, "Withdrawal requested",
				"The payout will settle out of band", notifications.TypeSystem)
			return
		}); err != nil {
			abortWithErr(c, err)
			return
		}

		s.Listeners.Push(n)
		c.JSON(200, misc.StatusOK(id))
	}
}
