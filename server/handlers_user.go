package server

import (
	"github.com/boltdb/bolt"
	"github.com/gin-gonic/gin"
	"github.com/influex/influex/internal/common"
	"github.com/influex/influex/internal/ledger"
	"github.com/influex/influex/misc"
)

func signUp(s *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		var u common.User
		if err := misc.BindJSON(c, &u); err != nil {
			c.JSON(400, misc.StatusErr("Error unmarshalling request body"))
			return
		}

		if err := s.db.Update(func(tx *bolt.Tx) error {
			if err := common.CreateUser(tx, s.Cfg, &u); err != nil {
				return err
			}
			// Every user starts with an empty wallet account
			return ledger.Create(tx, s.Cfg, u.Id)
		}); err != nil {
			c.JSON(400, misc.StatusErr(err.Error()))
			return
		}

		c.JSON(200, misc.StatusOK(u.Id))
	}
}

func getUser(s *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		u := common.GetUser(c.Param("id"), s.db, s.Cfg)
		if u == nil {
			c.JSON(404, misc.StatusErr("User not found"))
			return
		}
		c.JSON(200, u)
	}
}
