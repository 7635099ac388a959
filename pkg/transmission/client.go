package transmission

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/lucperkins/rek"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"go.uber.org/ratelimit"

	"github.com/autobrr/seedgc/pkg/httputils"
	"github.com/autobrr/seedgc/pkg/logger"
)

const (
	SessionIDHeader = "X-Transmission-Session-Id"
	DefaultRPCPath  = "/transmission/rpc"
)

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrHandshake    = errors.New("session id handshake failed")
)

type Config struct {
	URL      string
	Port     int
	User     string
	Password string
	Timeout  time.Duration
}

type Client struct {
	endpoint string
	user     string
	password string

	http *http.Client
	log  *logrus.Entry

	mu        sync.Mutex
	sessionID string
}

func New(cfg Config) (*Client, error) {
	endpoint, err := Endpoint(cfg.URL, cfg.Port)
	if err != nil {
		return nil, err
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		endpoint: endpoint,
		user:     cfg.User,
		password: cfg.Password,
		http:     httputils.NewRetryableHttpClient(timeout, ratelimit.New(10)),
		log:      logger.GetLogger("transmission"),
	}, nil
}

// Endpoint builds the rpc url from a host (optionally with scheme, port and path) and a port.
// A port or path present in address takes precedence.
func Endpoint(address string, port int) (string, error) {
	addr := strings.TrimSpace(address)
	if !strings.Contains(addr, "://") {
		addr = "http://" + addr
	}

	u, err := url.Parse(addr)
	if err != nil {
		return "", fmt.Errorf("parse url: %w", err)
	}

	if u.Hostname() == "" {
		return "", fmt.Errorf("parse url: missing host in %q", address)
	}

	if u.Port() == "" && port > 0 {
		u.Host = net.JoinHostPort(u.Hostname(), strconv.Itoa(port))
	}

	if u.Path == "" || u.Path == "/" {
		u.Path = DefaultRPCPath
	}

	return u.String(), nil
}

func (c *Client) Endpoint() string {
	return c.endpoint
}

/* Methods */

func (c *Client) SessionGet(ctx context.Context) (*Session, error) {
	s, err := call[Session](ctx, c, "session-get", map[string]interface{}{
		"fields": []string{"version", "rpc-version"},
	})
	if err != nil {
		return nil, err
	}

	return &s, nil
}

func (c *Client) TorrentGet(ctx context.Context, fields []string) ([]Torrent, error) {
	type torrentGetArgs struct {
		Torrents []Torrent `json:"torrents"`
	}

	res, err := call[torrentGetArgs](ctx, c, "torrent-get", map[string]interface{}{
		"fields": fields,
	})
	if err != nil {
		return nil, err
	}

	return res.Torrents, nil
}

func (c *Client) TorrentStop(ctx context.Context, ids []interface{}) error {
	_, err := call[json.RawMessage](ctx, c, "torrent-stop", map[string]interface{}{
		"ids": ids,
	})
	return err
}

func (c *Client) TorrentRemove(ctx context.Context, ids []interface{}, deleteLocalData bool) error {
	_, err := call[json.RawMessage](ctx, c, "torrent-remove", map[string]interface{}{
		"ids":               ids,
		"delete-local-data": deleteLocalData,
	})
	return err
}

// ParseIDs converts opaque ids into rpc ids: numeric ids are sent as integers, anything else as hash strings.
func ParseIDs(ids []string) []interface{} {
	out := make([]interface{}, 0, len(ids))
	for _, id := range ids {
		if n, err := strconv.ParseInt(id, 10, 64); err == nil {
			out = append(out, n)
			continue
		}
		out = append(out, id)
	}
	return out
}

/* Transport */

func call[T any](ctx context.Context, c *Client, method string, arguments interface{}) (T, error) {
	var zero T

	// the first 409 hands out the session id, retry once with it
	for attempt := 0; attempt < 2; attempt++ {
		resp, err := c.post(ctx, request{Method: method, Arguments: arguments})
		if err != nil {
			return zero, fmt.Errorf("%s: request: %w", method, err)
		}

		switch resp.StatusCode() {
		case http.StatusConflict:
			sessionID := resp.Raw().Header.Get(SessionIDHeader)
			drain(resp)
			if sessionID == "" {
				return zero, errors.Wrapf(ErrHandshake, "%s: missing %s header", method, SessionIDHeader)
			}

			c.log.Tracef("Received session id: %s", sessionID)
			c.setSessionID(sessionID)
			continue

		case http.StatusUnauthorized, http.StatusForbidden:
			drain(resp)
			return zero, errors.Wrapf(ErrUnauthorized, "%s: %s", method, resp.Status())

		case http.StatusOK:

		default:
			drain(resp)
			return zero, fmt.Errorf("%s: unexpected status code: %d", method, resp.StatusCode())
		}

		r := new(response[T])
		err = json.NewDecoder(resp.Body()).Decode(r)
		drain(resp)
		if err != nil {
			return zero, fmt.Errorf("%s: decoding response: %w", method, err)
		}

		if r.Result != "success" {
			return zero, fmt.Errorf("%s: rpc result: %s", method, r.Result)
		}

		return r.Arguments, nil
	}

	return zero, errors.Wrapf(ErrHandshake, "%s: server kept rejecting session id", method)
}

func (c *Client) post(ctx context.Context, body request) (*rek.Response, error) {
	opts := []rek.Option{
		rek.Client(c.http),
		rek.Context(ctx),
		rek.Json(body),
	}

	if sessionID := c.getSessionID(); sessionID != "" {
		opts = append(opts, rek.Headers(map[string]string{
			SessionIDHeader: sessionID,
		}))
	}

	switch {
	case c.user != "" && c.password != "":
		opts = append(opts, rek.BasicAuth(c.user, c.password))
	case c.user != "" || c.password != "":
		// rek only applies basic auth when both parts are set
		opts = append(opts, rek.RequestModifier(func(req *http.Request) {
			req.SetBasicAuth(c.user, c.password)
		}))
	}

	return rek.Post(c.endpoint, opts...)
}

func (c *Client) getSessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionID
}

func (c *Client) setSessionID(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sessionID = id
}

func drain(resp *rek.Response) {
	if resp.Body() == nil {
		return
	}
	_, _ = io.Copy(io.Discard, resp.Body())
	_ = resp.Body().Close()
}
