package faucet

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bchfaucet/faucet/src/utils/logger"
	"github.com/bchfaucet/faucet/src/utils/model"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Registry keeps faucet contracts and the append only claim ledger
type Registry struct {
	db  *gorm.DB
	log *logrus.Entry
}

func NewRegistry(db *gorm.DB) (self *Registry) {
	self = new(Registry)
	self.db = db
	self.log = logger.NewSublogger("registry")
	return
}

func (self *Registry) DB() *gorm.DB {
	return self.db
}

func notFound(err error, id interface{}) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %v", ErrFaucetNotFound, id)
	}
	return err
}

// Faucets on the network that didn't reach their cap, oldest first
func (self *Registry) ClaimableFaucets(ctx context.Context, network model.Network) (out []*model.FaucetContract, err error) {
	err = self.db.WithContext(ctx).
		Where("network = ?", network).
		Where("max_claim_count IS NULL OR claim_count < max_claim_count").
		Order("id ASC").
		Find(&out).
		Error
	return
}

func (self *Registry) GetFaucet(ctx context.Context, id uint) (out *model.FaucetContract, err error) {
	out = new(model.FaucetContract)
	err = self.db.WithContext(ctx).First(out, id).Error
	if err != nil {
		return nil, notFound(err, id)
	}
	return
}

func (self *Registry) FaucetByAddress(ctx context.Context, address string) (out *model.FaucetContract, err error) {
	out = new(model.FaucetContract)
	err = self.db.WithContext(ctx).
		Where("address = ?", address).
		First(out).
		Error
	if err != nil {
		return nil, notFound(err, address)
	}
	return
}

// Nil network lists all faucets
func (self *Registry) ListFaucets(ctx context.Context, network *model.Network) (out []*model.FaucetContract, err error) {
	query := self.db.WithContext(ctx).Order("id ASC")
	if network != nil {
		query = query.Where("network = ?", *network)
	}
	err = query.Find(&out).Error
	return
}

// Empty ids selects all faucets
func (self *Registry) FaucetsByIds(ctx context.Context, ids []uint) (out []*model.FaucetContract, err error) {
	query := self.db.WithContext(ctx).Order("id ASC")
	if len(ids) > 0 {
		query = query.Where("id IN ?", ids)
	}
	err = query.Find(&out).Error
	return
}

// Faucets whose balance wasn't refreshed since before, never refreshed first
func (self *Registry) StaleFaucets(ctx context.Context, before time.Time, limit int) (out []*model.FaucetContract, err error) {
	err = self.db.WithContext(ctx).
		Where("balance_updated_at IS NULL OR balance_updated_at < ?", before).
		Order("balance_updated_at IS NOT NULL, balance_updated_at ASC, id ASC").
		Limit(limit).
		Find(&out).
		Error
	return
}

func (self *Registry) CreateFaucet(ctx context.Context, faucet *model.FaucetContract) (err error) {
	err = self.db.WithContext(ctx).Create(faucet).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w: %s", ErrFaucetExists, faucet.Address)
	}
	return
}

// Nil removes the cap
func (self *Registry) UpdateMaxClaimCount(ctx context.Context, faucet *model.FaucetContract, maxClaimCount *uint) (err error) {
	err = self.db.WithContext(ctx).
		Model(faucet).
		Select("max_claim_count").
		Updates(map[string]interface{}{"max_claim_count": maxClaimCount}).
		Error
	if err != nil {
		return
	}
	faucet.MaxClaimCount = maxClaimCount
	return
}

func (self *Registry) DeleteFaucet(ctx context.Context, faucet *model.FaucetContract) (err error) {
	return self.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var claims int64
		err := tx.Model(&model.FaucetClaim{}).
			Where("faucet_id = ?", faucet.ID).
			Count(&claims).
			Error
		if err != nil {
			return err
		}
		if claims > 0 {
			return fmt.Errorf("%w: %d claims", ErrFaucetHasClaims, claims)
		}

		return tx.Delete(faucet).Error
	})
}

// Caches the balance. Bypasses hooks and doesn't touch other columns.
func (self *Registry) UpdateBalance(ctx context.Context, faucet *model.FaucetContract, satoshis uint64, at time.Time) (err error) {
	return self.db.WithContext(ctx).
		Model(&model.FaucetContract{}).
		Where("id = ?", faucet.ID).
		UpdateColumns(map[string]interface{}{
			"balance_satoshis":   satoshis,
			"balance_updated_at": at,
		}).
		Error
}

// Bypasses hooks, so marking doesn't trigger anything else
func (self *Registry) MarkSubscribed(ctx context.Context, faucet *model.FaucetContract) (err error) {
	return self.db.WithContext(ctx).
		Model(&model.FaucetContract{}).
		Where("id = ?", faucet.ID).
		UpdateColumn("subscribed", true).
		Error
}

// Is there a claim from this IP within the window. Nil IP matches claims without IP.
func (self *Registry) HasRecentClaim(ctx context.Context, faucetId uint, ip *string, since time.Time) (bool, error) {
	query := self.db.WithContext(ctx).
		Model(&model.FaucetClaim{}).
		Where("faucet_id = ?", faucetId).
		Where("created_at > ?", since)

	if ip == nil {
		query = query.Where("ip IS NULL")
	} else {
		query = query.Where("ip = ?", *ip)
	}

	var count int64
	err := query.Limit(1).Count(&count).Error
	return count > 0, err
}

// Appends the claim and bumps the counter in one transaction
func (self *Registry) CommitClaim(ctx context.Context, faucet *model.FaucetContract, claim *model.FaucetClaim) (err error) {
	err = self.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Omit("Faucet").Create(claim).Error
		if err != nil {
			return err
		}

		return tx.Model(&model.FaucetContract{}).
			Where("id = ?", faucet.ID).
			UpdateColumn("claim_count", gorm.Expr("claim_count + ?", 1)).
			Error
	})
	if err != nil {
		return
	}

	faucet.ClaimCount++
	return
}

// Newest first
func (self *Registry) RecentClaims(ctx context.Context, limit int) (out []*model.FaucetClaim, err error) {
	err = self.db.WithContext(ctx).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&out).
		Error
	return
}

func (self *Registry) ClaimsOf(ctx context.Context, faucetId uint) (out []*model.FaucetClaim, err error) {
	err = self.db.WithContext(ctx).
		Where("faucet_id = ?", faucetId).
		Order("id ASC").
		Find(&out).
		Error
	return
}
