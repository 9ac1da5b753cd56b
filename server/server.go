package server

import (
	"os"
	"time"

	"github.com/boltdb/bolt"
	"github.com/gin-gonic/gin"
	"github.com/influex/influex/config"
	"github.com/influex/influex/internal/common"
	"github.com/influex/influex/internal/ledger"
	"github.com/influex/influex/internal/notifications"
	"github.com/influex/influex/misc"
)

type Server struct {
	Cfg *config.Config

	r  *gin.Engine
	db *bolt.DB

	Campaigns *common.Campaigns
	Listeners *notifications.Listeners
}

func New(cfg *config.Config, r *gin.Engine) (*Server, error) {
	db, err := openDB(cfg)
	if err != nil {
		return nil, err
	}

	if cfg.Sandbox {
		if err = seedSandbox(db, cfg); err != nil {
			db.Close()
			return nil, err
		}
	}

	srv := &Server{
		Cfg:       cfg,
		r:         r,
		db:        db,
		Campaigns: common.NewCampaigns(),
		Listeners: &notifications.Listeners{},
	}

	srv.Campaigns.Set(db, cfg)
	srv.initRoutes(r)
	srv.startEngine()

	return srv, nil
}

func openDB(cfg *config.Config) (*bolt.DB, error) {
	if err := os.MkdirAll(cfg.DBPath, 0700); err != nil {
		return nil, err
	}

	db, err := misc.OpenDB(cfg.DBPath, cfg.DBName)
	if err != nil {
		return nil, err
	}

	if err = db.Update(func(tx *bolt.Tx) error {
		for _, bkt := range append(cfg.Bucket.All, misc.IndexBucket) {
			if _, err := tx.CreateBucketIfNotExists([]byte(bkt)); err != nil {
				return err
			}
		}
		if err := misc.InitIndex(tx, cfg.Bucket.User, 1); err != nil {
			return err
		}
		return misc.InitIndex(tx, cfg.Bucket.Campaign, 1)
	}); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

// seedSandbox funds a demo brand/influencer pair so a fresh sandbox
// store has accounts to play with. Stores that already hold users are
// left alone.
func seedSandbox(db *bolt.DB, cfg *config.Config) error {
	return db.Update(func(tx *bolt.Tx) error {
		if k, _ := misc.GetBucket(tx, cfg.Bucket.User).Cursor().First(); k != nil {
			return nil
		}

		demo := []*common.User{
			{Name: "Sandbox Brand", Email: "brand@sandbox.influex.io", Role: common.RoleBrand},
			{Name: "Sandbox Influencer", Email: "influencer@sandbox.influex.io", Role: common.RoleInfluencer},
		}
		for _, u := range demo {
			if err := common.CreateUser(tx, cfg, u); err != nil {
				return err
			}
			if err := ledger.Create(tx, cfg, u.Id); err != nil {
				return err
			}
			if cfg.SeedBalance > 0 {
				if err := ledger.Deposit(tx, cfg, u.Id, cfg.SeedBalance, "Sandbox opening balance"); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

func (s *Server) initRoutes(r *gin.Engine) {
	api := r.Group("/api/v1")

	api.POST("/signUp", signUp(s))
	api.GET("/user/:id", getUser(s))

	api.POST("/campaign", postCampaign(s))
	api.GET("/campaign/:id", getCampaign(s))
	api.GET("/campaigns", getCampaigns(s))
	api.POST("/campaign/:id/bid", postBid(s))
	api.PUT("/campaign/:id/transition", putTransition(s))

	api.GET("/wallet/:id", getWallet(s))
	api.POST("/wallet/:id/deposit", postDeposit(s))
	api.POST("/wallet/:id/withdraw", postWithdraw(s))

	api.GET("/notifications", getNotifications(s))
	api.PUT("/notification/:id/read", putNotificationRead(s))
}

// Keep a live struct of campaigns so marketplace reads don't
// unmarshal on every request
func (s *Server) startEngine() {
	interval := s.Cfg.CacheUpdate
	if interval <= 0 {
		interval = 5
	}

	ticker := time.NewTicker(interval * time.Minute)
	go func() {
		for range ticker.C {
			s.Campaigns.Set(s.db, s.Cfg)
		}
	}()
}

func (s *Server) Run() error {
	return s.r.Run(s.Cfg.Host + ":" + s.Cfg.Port)
}

func (s *Server) Close() error {
	return s.db.Close()
}
