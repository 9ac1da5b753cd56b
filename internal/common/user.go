package common

import (
	"errors"
	"strings"
	"time"

	"github.com/boltdb/bolt"
	"github.com/influex/influex/config"
	"github.com/influex/influex/misc"
)

type Role string

const (
	RoleBrand      Role = "BRAND"
	RoleInfluencer Role = "INFLUENCER"
	RoleAdmin      Role = "ADMIN"
)

var (
	ErrInvalidUserId = errors.New("invalid user id")
	ErrInvalidName   = errors.New("invalid or missing name")
	ErrInvalidEmail  = errors.New("invalid or missing email")
	ErrInvalidRole   = errors.New("invalid or missing role")
)

type User struct {
	Id    string `json:"id"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Role  Role   `json:"role"`

	Bio            string   `json:"bio,omitempty"`
	Niche          []string `json:"niche,omitempty"`
	FollowersCount int64    `json:"followersCount,omitempty"`

	CreatedAt int64 `json:"createdAt,omitempty"`
	UpdatedAt int64 `json:"updatedAt,omitempty"`
}

func (u *User) Check(newUser bool) error {
	if newUser && len(u.Id) != 0 {
		return ErrInvalidUserId
	}
	if len(u.Name) == 0 {
		return ErrInvalidName
	}
	if len(u.Email) < 6 /* a@a.ab */ || strings.Index(u.Email, "@") == -1 {
		return ErrInvalidEmail
	}
	switch u.Role {
	case RoleBrand, RoleInfluencer, RoleAdmin:
	default:
		return ErrInvalidRole
	}
	return nil
}

func CreateUser(tx *bolt.Tx, cfg *config.Config, u *User) (err error) {
	if err = u.Check(true); err != nil {
		return
	}
	if u.Id, err = misc.GetNextIndex(tx, cfg.Bucket.User); err != nil {
		return
	}
	u.CreatedAt = time.Now().Unix()
	u.UpdatedAt = u.CreatedAt
	return misc.PutTxJson(tx, cfg.Bucket.User, u.Id, u)
}

func GetUserTx(tx *bolt.Tx, cfg *config.Config, id string) *User {
	var u User
	if err := misc.GetTxJson(tx, cfg.Bucket.User, id, &u); err != nil {
		return nil
	}
	return &u
}

func GetUser(id string, db *bolt.DB, cfg *config.Config) *User {
	var u *User
	if err := db.View(func(tx *bolt.Tx) error {
		u = GetUserTx(tx, cfg, id)
		return nil
	}); err != nil {
		return nil
	}
	return u
}
