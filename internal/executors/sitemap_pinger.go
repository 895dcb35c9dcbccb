package executors

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"github.com/richardliu001/ticketing-actions/internal/config"
)

// SitemapPinger tells search engines where the sitemap lives. Each engine
// has its own circuit breaker so one failing engine does not block the other.
type SitemapPinger struct {
	client  *http.Client
	engines []searchEngine
}

type searchEngine struct {
	name    string
	pingURL string
	breaker *gobreaker.CircuitBreaker[struct{}]
}

func NewSitemapPinger(client *http.Client, cfg config.SitemapConfig, log *zap.SugaredLogger) *SitemapPinger {
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	newEngine := func(name, pingURL string) searchEngine {
		return searchEngine{
			name:    name,
			pingURL: pingURL,
			breaker: gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
				Name:        "sitemap-" + name,
				MaxRequests: 1,
				Timeout:     cfg.BreakerCooldown,
				ReadyToTrip: func(counts gobreaker.Counts) bool {
					return int(counts.ConsecutiveFailures) >= cfg.MaxFailures
				},
				OnStateChange: func(name string, from, to gobreaker.State) {
					log.Warnw("circuit breaker state change", "breaker", name, "from", from.String(), "to", to.String())
				},
			}),
		}
	}
	return &SitemapPinger{
		client: client,
		engines: []searchEngine{
			newEngine("google", cfg.GooglePingURL),
			newEngine("bing", cfg.BingPingURL),
		},
	}
}

// PingURL is the GET request that submits sitemapURL to an engine.
func PingURL(pingURL, sitemapURL string) string {
	return pingURL + "?sitemap=" + url.QueryEscape(sitemapURL)
}

// Ping submits sitemapURL to every engine. All engines are tried; the
// errors are joined.
func (p *SitemapPinger) Ping(ctx context.Context, sitemapURL string) error {
	var errs []error
	for _, se := range p.engines {
		_, err := se.breaker.Execute(func() (struct{}, error) {
			return struct{}{}, p.get(ctx, PingURL(se.pingURL, sitemapURL))
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("ping %s: %w", se.name, err))
		}
	}
	return errors.Join(errs...)
}

func (p *SitemapPinger) get(ctx context.Context, target string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return err
	}
	start := time.Now()
	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("unexpected status %d after %s", resp.StatusCode, time.Since(start).Round(time.Millisecond))
	}
	return nil
}
