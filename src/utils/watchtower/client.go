package watchtower

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/bchfaucet/faucet/src/utils/config"
	"github.com/bchfaucet/faucet/src/utils/logger"
	"github.com/bchfaucet/faucet/src/utils/model"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
	"go.uber.org/ratelimit"
)

// Client talks to the Watchtower indexer. There's one resty client per network.
type Client struct {
	config *config.Watchtower
	log    *logrus.Entry

	clients    map[model.Network]*resty.Client
	projectIds map[model.Network]string
	limiter    ratelimit.Limiter
}

func NewClient(config *config.Watchtower) (self *Client) {
	self = new(Client)
	self.config = config
	self.log = logger.NewSublogger("watchtower-client")

	if config.RequestsPerSecond > 0 {
		self.limiter = ratelimit.New(config.RequestsPerSecond)
	} else {
		self.limiter = ratelimit.NewUnlimited()
	}

	self.projectIds = map[model.Network]string{
		model.NetworkMainnet: config.ProjectId,
		model.NetworkChipnet: config.ChipnetProjectId,
	}

	urls := map[model.Network]string{
		model.NetworkMainnet: config.MainnetUrl,
		model.NetworkChipnet: config.ChipnetUrl,
	}

	transport := self.createTransport()
	self.clients = make(map[model.Network]*resty.Client)
	for network, url := range urls {
		if url == "" {
			continue
		}
		self.log.WithField("network", network).WithField("url", url).Debug("Creating client")
		self.clients[network] = resty.New().
			SetBaseURL(url).
			SetTimeout(self.config.RequestTimeout).
			SetHeader("User-Agent", "bchfaucet/watchtower").
			SetHeader("Accept", "application/json").
			SetRetryCount(self.config.RetryCount).
			SetRetryWaitTime(200 * time.Millisecond).
			SetRetryMaxWaitTime(2 * time.Second).
			SetLogger(newRestyLogger()).
			SetTransport(transport).
			AddRetryCondition(self.onRetryCondition).
			OnBeforeRequest(self.onRateLimit).
			OnAfterResponse(self.onStatusToError)
	}

	return
}

func (self *Client) createTransport() *http.Transport {
	dialer := &net.Dialer{
		Timeout:   self.config.DialerTimeout,
		KeepAlive: self.config.DialerKeepAlive,
	}

	return &http.Transport{
		ForceAttemptHTTP2: true,

		DialContext:           dialer.DialContext,
		TLSHandshakeTimeout:   self.config.TLSHandshakeTimeout,
		ExpectContinueTimeout: 1 * time.Second,

		IdleConnTimeout:     self.config.IdleConnTimeout,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		MaxConnsPerHost:     10,
	}
}

// Blocks till the request fits in the outbound budget
func (self *Client) onRateLimit(c *resty.Client, req *resty.Request) error {
	self.limiter.Take()
	return req.Context().Err()
}

// Converts HTTP status to errors
func (self *Client) onStatusToError(c *resty.Client, resp *resty.Response) error {
	if resp.IsSuccess() {
		return nil
	}
	if resp.StatusCode() > 399 && resp.StatusCode() < 500 {
		self.log.WithField("status", resp.StatusCode()).
			WithField("resp", string(resp.Body())).
			WithField("url", resp.Request.URL).
			Debug("Bad request")
	}
	return fmt.Errorf("unexpected status: %s", resp.Status())
}

// Only idempotent requests get retried and only upon server errors.
// Broadcasting again a transaction that may have been accepted is never safe.
func (self *Client) onRetryCondition(resp *resty.Response, err error) bool {
	return resp != nil &&
		resp.Request != nil &&
		resp.Request.Method == http.MethodGet &&
		resp.StatusCode() >= 500
}

func (self *Client) get(network model.Network) (*resty.Client, error) {
	client, ok := self.clients[network]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownNetwork, network)
	}
	return client, nil
}

func (self *Client) ProjectId(network model.Network) string {
	return self.projectIds[network]
}

// GetBalance returns the confirmed + unconfirmed balance of the address
func (self *Client) GetBalance(ctx context.Context, network model.Network, address string) (out *Balance, err error) {
	client, err := self.get(network)
	if err != nil {
		return
	}

	resp, err := client.R().
		SetContext(ctx).
		SetPathParam("address", address).
		SetResult(&Balance{}).
		ForceContentType("application/json").
		Get("balance/bch/{address}/")
	if err != nil {
		err = fmt.Errorf("%w: %s", ErrUnavailable, err)
		return
	}

	out, ok := resp.Result().(*Balance)
	if !ok {
		err = ErrFailedToParse
		return
	}
	return
}

// GetUtxos lists unspent outputs of the address in the order the gateway returns them
func (self *Client) GetUtxos(ctx context.Context, network model.Network, address string) (out []Utxo, err error) {
	client, err := self.get(network)
	if err != nil {
		return
	}

	resp, err := client.R().
		SetContext(ctx).
		SetPathParam("address", address).
		SetResult(&UtxoList{}).
		ForceContentType("application/json").
		Get("utxo/bch/{address}/")
	if err != nil {
		err = fmt.Errorf("%w: %s", ErrUnavailable, err)
		return
	}

	list, ok := resp.Result().(*UtxoList)
	if !ok {
		err = ErrFailedToParse
		return
	}
	out = list.Utxos
	return
}

// Broadcast submits a raw transaction. Rejections are reported as ErrRejected with the gateway's message.
func (self *Client) Broadcast(ctx context.Context, network model.Network, txHex string) (err error) {
	client, err := self.get(network)
	if err != nil {
		return
	}

	resp, err := client.R().
		SetContext(ctx).
		SetFormData(map[string]string{"transaction": txHex}).
		SetResult(&Status{}).
		SetError(&Status{}).
		ForceContentType("application/json").
		Post("broadcast/")

	return self.status(resp, err)
}

// Subscribe registers the address for webhook notifications. Empty webhookUrl leaves the project's default.
func (self *Client) Subscribe(ctx context.Context, network model.Network, address, webhookUrl string) (err error) {
	client, err := self.get(network)
	if err != nil {
		return
	}

	data := map[string]string{
		"address":    address,
		"project_id": self.ProjectId(network),
	}
	if webhookUrl != "" {
		data["webhook_url"] = webhookUrl
	}

	resp, err := client.R().
		SetContext(ctx).
		SetFormData(data).
		SetResult(&Status{}).
		SetError(&Status{}).
		ForceContentType("application/json").
		Post("subscription/")

	return self.status(resp, err)
}

// Interprets {success, error} responses, error statuses included
func (self *Client) status(resp *resty.Response, err error) error {
	var status *Status
	if resp != nil {
		if resp.IsSuccess() {
			status, _ = resp.Result().(*Status)
		} else {
			status, _ = resp.Error().(*Status)
		}
	}

	switch {
	case status != nil && status.Error != "":
		return fmt.Errorf("%w: %s", ErrRejected, status.Error)
	case err != nil:
		return fmt.Errorf("%w: %s", ErrUnavailable, err)
	case status == nil:
		return ErrFailedToParse
	case !status.Success:
		return fmt.Errorf("%w: no success flag in response", ErrRejected)
	}
	return nil
}

// IsRejected tells apart a refusal from transport problems
func IsRejected(err error) bool {
	return errors.Is(err, ErrRejected)
}
