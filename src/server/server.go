package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/bchfaucet/faucet/src/faucet"
	"github.com/bchfaucet/faucet/src/server/response"
	"github.com/bchfaucet/faucet/src/utils/config"
	. "github.com/bchfaucet/faucet/src/utils/logger"
	"github.com/bchfaucet/faucet/src/utils/monitoring"
	"github.com/bchfaucet/faucet/src/utils/task"

	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Rest API server: claims, recent claims, monitoring and the admin API
type Server struct {
	*task.Task

	httpServer *http.Server
	Router     *gin.Engine

	service *faucet.Service
	monitor monitoring.Monitor
	ingress *Ingress
}

func NewServer(config *config.Config) (self *Server) {
	self = new(Server)

	self.Task = task.NewTask(config, "rest").
		WithOnBeforeStart(self.setup).
		WithSubtaskFunc(self.run).
		WithOnStop(self.stop)

	if !config.IsDevelopment {
		gin.SetMode(gin.ReleaseMode)
	}
	self.Router = gin.New()
	self.Router.Use(gin.Recovery(), RequestId())

	self.ingress = NewIngress(config)

	self.httpServer = &http.Server{
		Addr:    self.Config.RESTListenAddress,
		Handler: self.Router,
	}

	return
}

func (self *Server) WithService(service *faucet.Service) *Server {
	self.service = service
	return self
}

func (self *Server) WithMonitor(monitor monitoring.Monitor) *Server {
	self.monitor = monitor
	self.ingress.WithMonitor(monitor)
	return self
}

// Registers routes, dependencies need to be set
func (self *Server) setup() error {
	registry := prometheus.NewRegistry()
	err := registry.Register(self.monitor.GetPrometheusCollector())
	if err != nil {
		return err
	}
	self.Router.GET("metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	v1 := self.Router.Group("v1")
	{
		v1.GET("health", self.monitor.OnGetHealth)
		v1.GET("state", self.monitor.OnGetState)
		v1.POST("claim", self.ingress.Limit(), self.onClaim)
		v1.GET("claims/recent", self.onGetRecentClaims)
	}

	if self.Config.Admin.Password != "" {
		admin := self.Router.Group("admin", gin.BasicAuth(gin.Accounts{
			self.Config.Admin.Username: self.Config.Admin.Password,
		}))
		{
			admin.GET("faucets", self.onListFaucets)
			admin.POST("faucets", self.onCreateFaucet)
			admin.POST("faucets/subscribe", self.onSubscribeFaucets)
			admin.POST("faucets/reconcile", self.onReconcileFaucets)
			admin.GET("faucets/:id", self.onGetFaucet)
			admin.PATCH("faucets/:id", self.onUpdateFaucet)
			admin.DELETE("faucets/:id", self.onDeleteFaucet)
			admin.POST("faucets/:id/sweep", self.onSweepFaucet)
		}
	} else {
		self.Log.Info("Admin password not set, admin API disabled")
	}

	if self.Config.Profiler.Enabled {
		pprof.Register(self.Router)
	}

	return nil
}

func (self *Server) run() (err error) {
	err = self.httpServer.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		self.Log.WithError(err).Error("Failed to start REST server")
		return
	}
	return nil
}

func (self *Server) stop() {
	ctx, cancel := context.WithTimeout(context.Background(), self.Config.StopTimeout)
	defer cancel()

	err := self.httpServer.Shutdown(ctx)
	if err != nil {
		self.Log.WithError(err).Error("Failed to gracefully shutdown REST server")
		return
	}
}

// Responds with the error and its kind. Kinds that need attention get logged.
func onError(c *gin.Context, err error) {
	kind := faucet.KindOf(err)
	c.AbortWithStatusJSON(kind.HTTPStatus(), &response.Error{
		Error: err.Error(),
		Kind:  kind,
	})

	if kind.IsLogged() {
		LOG(c).WithError(err).WithField("kind", kind).Warn("Request failed")
	}
}
