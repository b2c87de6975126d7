package server

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/bchfaucet/faucet/src/faucet"
	"github.com/bchfaucet/faucet/src/server/request"
	"github.com/bchfaucet/faucet/src/utils/config"
	. "github.com/bchfaucet/faucet/src/utils/logger"
	"github.com/bchfaucet/faucet/src/utils/task"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

// Receives address notifications from the gateway on a separate listener.
// Every notification is acknowledged, reconciliation runs in the background.
type WebhookServer struct {
	*task.Task

	httpServer *http.Server
	Router     *gin.Engine

	notifier *faucet.Notifier
}

func NewWebhookServer(config *config.Config) (self *WebhookServer) {
	self = new(WebhookServer)

	self.Task = task.NewTask(config, "webhook").
		WithSubtaskFunc(self.run).
		WithOnStop(self.stop)

	self.Router = gin.New()
	self.Router.Use(gin.Recovery(), RequestId())
	self.Router.POST("/", self.onNotification)

	self.httpServer = &http.Server{
		Addr:    self.Config.Webhook.ListenAddress,
		Handler: self.Router,
	}

	return
}

func (self *WebhookServer) WithNotifier(notifier *faucet.Notifier) *WebhookServer {
	self.notifier = notifier
	return self
}

func (self *WebhookServer) onNotification(c *gin.Context) {
	in, err := self.bindNotification(c)
	if err != nil {
		LOG(c).WithError(err).Debug("Malformed notification")
	}

	matched := self.notifier.Notify(c.Request.Context(), in.Address)
	LOG(c).WithField("address", in.Address).WithField("matched", matched).Debug("Notification received")

	c.JSON(http.StatusOK, gin.H{"acknowledged": true})
}

// JSON body regardless of Content-Type, falling back to form encoding
func (self *WebhookServer) bindNotification(c *gin.Context) (in *request.Notification, err error) {
	body, err := c.GetRawData()
	if err != nil {
		return new(request.Notification), err
	}

	in = new(request.Notification)
	err = binding.JSON.BindBody(body, in)
	if err == nil && in.Address != "" {
		return
	}

	in = new(request.Notification)
	c.Request.Body = io.NopCloser(bytes.NewReader(body))
	err = c.ShouldBindWith(in, binding.Form)
	return
}

func (self *WebhookServer) run() (err error) {
	err = self.httpServer.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		self.Log.WithError(err).Error("Failed to start webhook server")
		return
	}
	return nil
}

func (self *WebhookServer) stop() {
	ctx, cancel := context.WithTimeout(context.Background(), self.Config.StopTimeout)
	defer cancel()

	err := self.httpServer.Shutdown(ctx)
	if err != nil {
		self.Log.WithError(err).Error("Failed to gracefully shutdown webhook server")
		return
	}
}
