package httputils

import (
	"fmt"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/sirupsen/logrus"
	"go.uber.org/ratelimit"

	"github.com/autobrr/seedgc/pkg/logger"
	"github.com/autobrr/seedgc/pkg/runtime"
)

func UserAgent() string {
	return "seedgc/" + runtime.Version
}

// NewRetryableHttpClient returns a client that retries connection errors and 5xx
// responses once and passes every attempt through rl.
func NewRetryableHttpClient(timeout time.Duration, rl ratelimit.Limiter) *http.Client {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = 1
	retryClient.RetryWaitMin = 1 * time.Second
	retryClient.RetryWaitMax = 10 * time.Second
	retryClient.Logger = leveledLogger{log: logger.GetLogger("http")}
	retryClient.RequestLogHook = func(_ retryablehttp.Logger, request *http.Request, attempt int) {
		if request != nil {
			request.Header.Set("User-Agent", UserAgent())
		}

		if rl != nil {
			rl.Take()
		}
	}
	retryClient.HTTPClient.Timeout = timeout

	return retryClient.StandardClient()
}

// leveledLogger routes retryablehttp's logging into logrus. Request chatter is kept at trace.
type leveledLogger struct {
	log *logrus.Entry
}

func (l leveledLogger) entry(keysAndValues []interface{}) *logrus.Entry {
	fields := make(logrus.Fields, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		fields[fmt.Sprint(keysAndValues[i])] = keysAndValues[i+1]
	}
	return l.log.WithFields(fields)
}

func (l leveledLogger) Error(msg string, keysAndValues ...interface{}) {
	l.entry(keysAndValues).Error(msg)
}

func (l leveledLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.entry(keysAndValues).Warn(msg)
}

func (l leveledLogger) Info(msg string, keysAndValues ...interface{}) {
	l.entry(keysAndValues).Trace(msg)
}

func (l leveledLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.entry(keysAndValues).Trace(msg)
}
