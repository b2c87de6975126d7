package server

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/bchfaucet/faucet/src/faucet"
	"github.com/bchfaucet/faucet/src/server/request"
	"github.com/bchfaucet/faucet/src/server/response"
	. "github.com/bchfaucet/faucet/src/utils/logger"
	"github.com/bchfaucet/faucet/src/utils/model"

	"github.com/gin-gonic/gin"
)

func faucetId(c *gin.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: bad faucet id %q", faucet.ErrInvalidRequest, c.Param("id"))
	}
	return uint(id), nil
}

func bind(c *gin.Context, in interface{}) bool {
	err := c.ShouldBindJSON(in)
	if err != nil {
		onError(c, fmt.Errorf("%w: %s", faucet.ErrInvalidRequest, err))
		return false
	}
	return true
}

func (self *Server) onListFaucets(c *gin.Context) {
	var network *model.Network
	if v := c.Query("network"); v != "" {
		parsed, err := model.ParseNetwork(v)
		if err != nil {
			onError(c, fmt.Errorf("%w: %s", faucet.ErrInvalidRequest, err))
			return
		}
		network = &parsed
	}

	faucets, err := self.service.Admin.ListFaucets(c.Request.Context(), network)
	if err != nil {
		onError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.FaucetsToResponse(faucets))
}

func (self *Server) onCreateFaucet(c *gin.Context) {
	var in = new(request.CreateFaucet)
	if !bind(c, in) {
		return
	}

	created, err := self.service.Admin.CreateFaucet(c.Request.Context(), faucet.CreateFaucetParams{
		Network:        model.Network(in.Network),
		Passcode:       in.Passcode,
		PayoutSatoshis: in.PayoutSatoshis,
		OwnerAddress:   in.OwnerAddress,
		MaxClaimCount:  in.MaxClaimCount,
	})
	if err != nil {
		onError(c, err)
		return
	}

	LOG(c).WithField("id", created.ID).Info("Faucet created")
	c.JSON(http.StatusCreated, response.FaucetToResponse(created))
}

func (self *Server) onGetFaucet(c *gin.Context) {
	id, err := faucetId(c)
	if err != nil {
		onError(c, err)
		return
	}

	out, err := self.service.Admin.GetFaucet(c.Request.Context(), id)
	if err != nil {
		onError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.FaucetToResponse(out))
}

func (self *Server) onUpdateFaucet(c *gin.Context) {
	id, err := faucetId(c)
	if err != nil {
		onError(c, err)
		return
	}

	var in = new(request.UpdateFaucet)
	if !bind(c, in) {
		return
	}

	var out *model.FaucetContract
	if in.MaxClaimCount.Set {
		out, err = self.service.Admin.UpdateMaxClaimCount(c.Request.Context(), id, in.MaxClaimCount.Value)
	} else {
		out, err = self.service.Admin.GetFaucet(c.Request.Context(), id)
	}
	if err != nil {
		onError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.FaucetToResponse(out))
}

func (self *Server) onDeleteFaucet(c *gin.Context) {
	id, err := faucetId(c)
	if err != nil {
		onError(c, err)
		return
	}

	err = self.service.Admin.DeleteFaucet(c.Request.Context(), id)
	if err != nil {
		onError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (self *Server) onSweepFaucet(c *gin.Context) {
	id, err := faucetId(c)
	if err != nil {
		onError(c, err)
		return
	}

	var in = new(request.Sweep)
	if !bind(c, in) {
		return
	}

	result, err := self.service.Admin.Sweep(c.Request.Context(), faucet.SweepRequest{
		ContractId: id,
		SigningKey: in.SigningKey,
		Recipient:  in.Recipient,
	})
	if err != nil {
		onError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (self *Server) onSubscribeFaucets(c *gin.Context) {
	// Body is optional
	var in = new(request.Bulk)
	if c.Request.ContentLength != 0 && !bind(c, in) {
		return
	}

	results, err := self.service.Admin.SubscribeAll(c.Request.Context(), in.Ids)
	if err != nil {
		onError(c, err)
		return
	}

	c.JSON(http.StatusOK, results)
}

func (self *Server) onReconcileFaucets(c *gin.Context) {
	// Body is optional
	var in = new(request.Bulk)
	if c.Request.ContentLength != 0 && !bind(c, in) {
		return
	}

	results, err := self.service.Admin.ReconcileAll(c.Request.Context(), in.Ids)
	if err != nil {
		onError(c, err)
		return
	}

	c.JSON(http.StatusOK, results)
}
