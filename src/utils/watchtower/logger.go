package watchtower

import (
	"github.com/bchfaucet/faucet/src/utils/logger"

	"github.com/sirupsen/logrus"
)

// Resty logs go to trace, requests are logged by the client itself
type restyLogger struct {
	log *logrus.Entry
}

func newRestyLogger() (self *restyLogger) {
	self = new(restyLogger)
	self.log = logger.NewSublogger("watchtower-resty")
	return
}

func (self *restyLogger) Errorf(format string, v ...interface{}) {
	self.log.Tracef(format, v...)
}

func (self *restyLogger) Warnf(format string, v ...interface{}) {
	self.log.Tracef(format, v...)
}

func (self *restyLogger) Debugf(format string, v ...interface{}) {
	self.log.Tracef(format, v...)
}
