// Package wcl talks to the combat-log service's GraphQL API.
package wcl

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"

	"github.com/guildops/bench-api/internal/models"
)

const tokenCacheKey = "wcl:access_token"

// TokenCache stores the OAuth access token between runs so short-lived CLI
// invocations do not burn a token request each.
type TokenCache interface {
	Get(ctx context.Context) (string, error)
	Set(ctx context.Context, token string, ttl time.Duration) error
}

// RedisTokenCache keeps the token in Redis.
type RedisTokenCache struct {
	rdb *redis.Client
}

func NewRedisTokenCache(rdb *redis.Client) *RedisTokenCache {
	return &RedisTokenCache{rdb: rdb}
}

func (c *RedisTokenCache) Get(ctx context.Context) (string, error) {
	token, err := c.rdb.Get(ctx, tokenCacheKey).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return token, err
}

func (c *RedisTokenCache) Set(ctx context.Context, token string, ttl time.Duration) error {
	return c.rdb.Set(ctx, tokenCacheKey, token, ttl).Err()
}

const reportCachePrefix = "wcl:report:"

// reportCacheTTL bounds how stale a served bundle may be. Reports keep
// growing while a night is live, so the window stays short.
const reportCacheTTL = 5 * time.Minute

// ReportCache stores fetched bundles briefly so repeated ingests of the same
// report inside one window do not refetch from the API.
type ReportCache interface {
	GetReport(ctx context.Context, code string) (*ReportBundle, error)
	SetReport(ctx context.Context, code string, bundle *ReportBundle, ttl time.Duration) error
}

// RedisReportCache keeps report bundles in Redis as JSON.
type RedisReportCache struct {
	rdb *redis.Client
}

func NewRedisReportCache(rdb *redis.Client) *RedisReportCache {
	return &RedisReportCache{rdb: rdb}
}

func (c *RedisReportCache) GetReport(ctx context.Context, code string) (*ReportBundle, error) {
	raw, err := c.rdb.Get(ctx, reportCachePrefix+code).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var bundle ReportBundle
	if err := json.Unmarshal(raw, &bundle); err != nil {
		return nil, fmt.Errorf("report cache decode %s: %w", code, err)
	}
	return &bundle, nil
}

func (c *RedisReportCache) SetReport(ctx context.Context, code string, bundle *ReportBundle, ttl time.Duration) error {
	raw, err := json.Marshal(bundle)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, reportCachePrefix+code, raw, ttl).Err()
}

// Client fetches report bundles over GraphQL with client-credentials auth.
type Client struct {
	httpClient   *http.Client
	clientID     string
	clientSecret string
	apiURL       string
	tokenURL     string
	cache        TokenCache
	reports      ReportCache
	logger       *zap.SugaredLogger
}

type ClientConfig struct {
	ClientID     string
	ClientSecret string
	APIURL       string
	TokenURL     string
}

func NewClient(cfg ClientConfig, cache TokenCache, reports ReportCache, logger *zap.Logger) *Client {
	return &Client{
		httpClient:   &http.Client{Timeout: 60 * time.Second},
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		apiURL:       cfg.APIURL,
		tokenURL:     cfg.TokenURL,
		cache:        cache,
		reports:      reports,
		logger:       logger.Sugar(),
	}
}

// ReportBundle is the subset of the report the ingest pipeline needs: meta,
// fights, and the actor table that maps friendly-player IDs to names.
type ReportBundle struct {
	Code       string     `json:"code"`
	Title      string     `json:"title"`
	StartTime  int64      `json:"startTime"`
	EndTime    int64      `json:"endTime"`
	Fights     []APIFight `json:"fights"`
	MasterData struct {
		Actors []Actor `json:"actors"`
	} `json:"masterData"`
}

type APIFight struct {
	ID              int    `json:"id"`
	EncounterID     int    `json:"encounterID"`
	Name            string `json:"name"`
	Difficulty      int    `json:"difficulty"`
	StartTime       int64  `json:"startTime"`
	EndTime         int64  `json:"endTime"`
	FriendlyPlayers []int  `json:"friendlyPlayers"`
	Kill            bool   `json:"kill"`
}

type Actor struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	Server  string `json:"server"`
	Type    string `json:"type"`
	SubType string `json:"subType"`
}

// FullName returns the realm-qualified form when the actor has a server.
func (a Actor) FullName() string {
	if a.Server != "" {
		return a.Name + "-" + a.Server
	}
	return a.Name
}

const reportBundleQuery = `
query ReportFightsAndActors($code: String!) {
  reportData {
    report(code: $code) {
      code
      title
      startTime
      endTime
      fights { id encounterID name difficulty startTime endTime friendlyPlayers kill }
      masterData(translate: true) { actors(type: "Player") { id name server subType type } }
    }
  }
}`

// FetchReportBundle loads one report's meta, fights, and actors, serving a
// recently fetched copy from the report cache when one exists. Fight times
// come back relative to the report start; callers normalize them.
func (c *Client) FetchReportBundle(ctx context.Context, code string) (*ReportBundle, error) {
	if c.reports != nil {
		if cached, err := c.reports.GetReport(ctx, code); err != nil {
			c.logger.Warnw("report cache read failed", "code", code, "error", err)
		} else if cached != nil {
			return cached, nil
		}
	}
	return c.fetchReportBundle(ctx, code)
}

// FetchReportBundleFresh always hits the API. The refresh loop uses it to
// pick up fights appended after a cached copy was taken.
func (c *Client) FetchReportBundleFresh(ctx context.Context, code string) (*ReportBundle, error) {
	return c.fetchReportBundle(ctx, code)
}

func (c *Client) fetchReportBundle(ctx context.Context, code string) (*ReportBundle, error) {
	payload, err := json.Marshal(map[string]any{
		"query":     reportBundleQuery,
		"variables": map[string]any{"code": code},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal query: %w", err)
	}

	var bundle *ReportBundle
	backoff := retry.WithCappedDuration(10*time.Second, retry.NewExponential(time.Second))
	backoff = retry.WithMaxRetries(4, backoff)
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		token, err := c.token(ctx)
		if err != nil {
			return err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(payload))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+token)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return retry.RetryableError(err)
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return retry.RetryableError(err)
		}
		if isRetryableStatus(resp.StatusCode) {
			c.logger.Warnw("report fetch will retry", "code", code, "status", resp.StatusCode)
			return retry.RetryableError(fmt.Errorf("report %s: status %d", code, resp.StatusCode))
		}
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("report %s: status %d: %s", code, resp.StatusCode, body)
		}

		var parsed struct {
			Data struct {
				ReportData struct {
					Report *ReportBundle `json:"report"`
				} `json:"reportData"`
			} `json:"data"`
			Errors []struct {
				Message string `json:"message"`
			} `json:"errors"`
		}
		if err := json.Unmarshal(body, &parsed); err != nil {
			return fmt.Errorf("report %s: decode: %w", code, err)
		}
		if len(parsed.Errors) > 0 {
			return fmt.Errorf("report %s: graphql: %s", code, parsed.Errors[0].Message)
		}
		if parsed.Data.ReportData.Report == nil {
			return fmt.Errorf("report %s: not found", code)
		}
		bundle = parsed.Data.ReportData.Report
		return nil
	})
	if err != nil {
		return nil, err
	}

	if c.reports != nil {
		if err := c.reports.SetReport(ctx, code, bundle, reportCacheTTL); err != nil {
			c.logger.Warnw("report cache write failed", "code", code, "error", err)
		}
	}
	return bundle, nil
}

// token returns a cached access token or requests a fresh one via the
// client-credentials grant.
func (c *Client) token(ctx context.Context) (string, error) {
	if c.cache != nil {
		if token, err := c.cache.Get(ctx); err != nil {
			c.logger.Warnw("token cache read failed", "error", err)
		} else if token != "" {
			return token, nil
		}
	}

	form := url.Values{"grant_type": {"client_credentials"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(c.clientID, c.clientSecret)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", retry.RetryableError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", retry.RetryableError(err)
	}
	if isRetryableStatus(resp.StatusCode) {
		return "", retry.RetryableError(fmt.Errorf("token: status %d", resp.StatusCode))
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token: status %d: %s", resp.StatusCode, body)
	}

	var parsed struct {
		AccessToken string           `json:"access_token"`
		ExpiresIn   models.FlexInt64 `json:"expires_in"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("token: decode: %w", err)
	}
	if parsed.AccessToken == "" {
		return "", fmt.Errorf("token response missing access_token")
	}

	if c.cache != nil {
		// Expire a minute early so a cached token is never handed out
		// right at its deadline.
		ttl := time.Duration(parsed.ExpiresIn.Int64()-60) * time.Second
		if ttl < time.Minute {
			ttl = time.Minute
		}
		if err := c.cache.Set(ctx, parsed.AccessToken, ttl); err != nil {
			c.logger.Warnw("token cache write failed", "error", err)
		}
	}
	return parsed.AccessToken, nil
}

func isRetryableStatus(status int) bool {
	switch status {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

// ExtractReportCode pulls the report code out of a combat-log URL, or
// returns the input unchanged when it already looks like a bare code.
func ExtractReportCode(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("empty report reference")
	}
	if !strings.Contains(raw, "/") {
		return raw, nil
	}
	_, after, found := strings.Cut(raw, "/reports/")
	if !found {
		return "", fmt.Errorf("no report code in %q", raw)
	}
	code := after
	for _, sep := range []string{"/", "?", "#"} {
		code, _, _ = strings.Cut(code, sep)
	}
	if code == "" {
		return "", fmt.Errorf("no report code in %q", raw)
	}
	return code, nil
}
