package server

import (
	"github.com/boltdb/bolt"
	"github.com/gin-gonic/gin"
	"github.com/influex/influex/internal/notifications"
	"github.com/influex/influex/misc"
)

///////// Notifications /////////

func getNotifications(s *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		var feed []*notifications.Notification
		s.db.View(func(tx *bolt.Tx) error {
			feed = notifications.Get(tx, s.Cfg)
			return nil
		})
		if feed == nil {
			feed = []*notifications.Notification{}
		}
		c.JSON(200, feed)
	}
}

func putNotificationRead(s *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		if err := s.db.Update(func(tx *bolt.Tx) error {
			return notifications.MarkRead(tx, s.Cfg, id)
		}); err != nil {
			c.JSON(500, misc.StatusErr(err.Error()))
			return
		}
		c.JSON(200, misc.StatusOK(id))
	}
}
