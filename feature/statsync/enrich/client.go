package enrich

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/valyala/fasthttp"
)

// BridgePrefix marks UUIDs issued to bridged console players.
const BridgePrefix = "00000000-0000-0000-"

// ErrNotFound means the lookup service has no name for the player.
var ErrNotFound = errors.New("nickname not found")

// Option customizes a Client.
type Option func(*fasthttp.Client)

// WithDial replaces the dialer, e.g. with an in-memory listener.
func WithDial(dial fasthttp.DialFunc) Option {
	return func(c *fasthttp.Client) {
		c.Dial = dial
	}
}

// Client looks up display names over HTTP.
type Client struct {
	http        *fasthttp.Client
	profileURL  string
	gamertagURL string
	timeout     time.Duration
}

// NewClient creates a lookup client.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	hc := &fasthttp.Client{
		Name:                "player-statistics",
		MaxConnsPerHost:     32,
		ReadTimeout:         timeout,
		WriteTimeout:        timeout,
		MaxIdleConnDuration: time.Minute,
	}
	for _, opt := range opts {
		opt(hc)
	}

	return &Client{
		http:        hc,
		profileURL:  strings.TrimRight(cfg.ProfileURL, "/"),
		gamertagURL: strings.TrimRight(cfg.GamertagURL, "/"),
		timeout:     timeout,
	}
}

type profileResponse struct {
	Decoded *struct {
		ProfileName string `json:"profileName"`
	} `json:"decoded"`
}

type gamertagResponse struct {
	Gamertag string `json:"gamertag"`
}

// Lookup returns the display name of playerUUID. Bridged players are looked
// up by gamertag, everyone else by profile. It makes a single attempt.
func (c *Client) Lookup(ctx context.Context, playerUUID string) (string, error) {
	if IsBridge(playerUUID) {
		xuid, err := BridgeXUID(playerUUID)
		if err != nil {
			return "", err
		}
		var resp gamertagResponse
		if err := c.get(ctx, c.gamertagURL+"/"+strconv.FormatUint(xuid, 10), &resp); err != nil {
			return "", err
		}
		return nameOrNotFound(resp.Gamertag)
	}

	var resp profileResponse
	if err := c.get(ctx, c.profileURL+"/"+playerUUID, &resp); err != nil {
		return "", err
	}
	if resp.Decoded == nil {
		return "", ErrNotFound
	}
	return nameOrNotFound(resp.Decoded.ProfileName)
}

func (c *Client) get(ctx context.Context, url string, out any) error {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(url)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set(fasthttp.HeaderAccept, "application/json")

	deadline, ok := ctx.Deadline()
	if !ok || time.Until(deadline) > c.timeout {
		deadline = time.Now().Add(c.timeout)
	}
	if err := c.http.DoDeadline(req, resp, deadline); err != nil {
		return fmt.Errorf("lookup %s: %w", url, err)
	}

	switch resp.StatusCode() {
	case fasthttp.StatusOK:
	case fasthttp.StatusNotFound, fasthttp.StatusNoContent:
		return ErrNotFound
	default:
		return fmt.Errorf("lookup %s: unexpected status %d", url, resp.StatusCode())
	}

	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return fmt.Errorf("lookup %s: %w", url, err)
	}
	return nil
}

func nameOrNotFound(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrNotFound
	}
	return name, nil
}

// IsBridge reports whether playerUUID belongs to the bridged console namespace.
func IsBridge(playerUUID string) bool {
	return strings.HasPrefix(strings.ToLower(playerUUID), BridgePrefix)
}

// BridgeXUID derives the numeric account id from the trailing 16 hex digits of
// a bridged UUID.
func BridgeXUID(playerUUID string) (uint64, error) {
	if _, err := uuid.Parse(playerUUID); err != nil || len(playerUUID) != 36 || !IsBridge(playerUUID) {
		return 0, fmt.Errorf("not a bridged uuid: %q", playerUUID)
	}
	digits := strings.ReplaceAll(playerUUID[len(BridgePrefix):], "-", "")
	xuid, err := strconv.ParseUint(digits, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid bridged uuid %q: %w", playerUUID, err)
	}
	return xuid, nil
}
