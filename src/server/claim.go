package server

import (
	"fmt"
	"net/http"

	"github.com/bchfaucet/faucet/src/faucet"
	"github.com/bchfaucet/faucet/src/server/request"
	"github.com/bchfaucet/faucet/src/server/response"
	. "github.com/bchfaucet/faucet/src/utils/logger"
	"github.com/bchfaucet/faucet/src/utils/model"

	"github.com/gin-gonic/gin"
)

func (self *Server) onClaim(c *gin.Context) {
	var in = new(request.Claim)
	err := c.ShouldBind(in)
	if err != nil {
		onError(c, fmt.Errorf("%w: %s", faucet.ErrInvalidRequest, err))
		return
	}

	network, err := model.ParseNetwork(in.Network)
	if err != nil {
		onError(c, fmt.Errorf("%w: %s", faucet.ErrInvalidRequest, err))
		return
	}

	var ip *string
	if v := clientIP(c); v != "" {
		ip = &v
	}

	result, err := self.service.Claimer.Claim(c.Request.Context(), faucet.ClaimRequest{
		Network:  network,
		Address:  in.Address,
		Passcode: in.Passcode,
		IP:       ip,
	})
	if err != nil {
		onError(c, err)
		return
	}

	LOG(c).WithField("txid", result.Txid).Debug("Claim served")
	c.JSON(http.StatusOK, response.ClaimToResponse(result))
}

func (self *Server) onGetRecentClaims(c *gin.Context) {
	claims, err := self.service.Registry.RecentClaims(c.Request.Context(), self.Config.Claim.RecentClaimsLimit)
	if err != nil {
		LOGE(c, err, http.StatusInternalServerError).Error("Failed to get recent claims")
		return
	}

	c.JSON(http.StatusOK, response.RecentClaimsToResponse(claims))
}
