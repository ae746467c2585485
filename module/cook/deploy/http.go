package deploy

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/cookware/cargo-cook/config"
	"github.com/cookware/cargo-cook/util/common/errors"
	"github.com/cookware/cargo-cook/util/common/progress"
)

const (
	httpName = "http"

	defaultHTTPMethod   = http.MethodPut
	defaultHTTPRetryMax = 3
)

// HTTPTarget uploads every regular file of the cook directory to a base URL.
type HTTPTarget struct {
	reporter progress.Reporter

	retryWaitMin time.Duration
	retryWaitMax time.Duration
}

// NewHTTPTarget creates the http target.
func NewHTTPTarget(reporter progress.Reporter) *HTTPTarget {
	return &HTTPTarget{
		reporter:     reporter,
		retryWaitMin: 1 * time.Second,
		retryWaitMax: 30 * time.Second,
	}
}

func (t *HTTPTarget) Name() string {
	return httpName
}

func (t *HTTPTarget) Check(cfg *config.Deploy) error {
	if cfg == nil || cfg.HTTP == nil {
		return errors.NewValidationError("cook.deploy.http", "target http requires a [cook.deploy.http] block")
	}
	if cfg.HTTP.URL == "" {
		return errors.NewValidationError("cook.deploy.http.url", "url must be specified")
	}
	u, err := url.Parse(cfg.HTTP.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errors.NewValidationError("cook.deploy.http.url", fmt.Sprintf("%q is not an http(s) URL", cfg.HTTP.URL))
	}
	if cfg.HTTP.RetryMax < 0 {
		return errors.NewValidationError("cook.deploy.http.retry_max", "retry_max must not be negative")
	}
	return nil
}

func (t *HTTPTarget) client(c *config.HTTP) *retryablehttp.Client {
	client := retryablehttp.NewClient()
	client.Logger = newLeveledLogger(log.Logger)
	client.RetryWaitMin = t.retryWaitMin
	client.RetryWaitMax = t.retryWaitMax
	client.RetryMax = defaultHTTPRetryMax
	if c.RetryMax > 0 {
		client.RetryMax = c.RetryMax
	}
	return client
}

// Deploy sends each regular file to {url}/{name}. Sub-directories are skipped.
func (t *HTTPTarget) Deploy(ctx context.Context, sourceDir string, cfg *config.Deploy) error {
	if err := t.Check(cfg); err != nil {
		return errors.NewDeployError(httpName, "", err)
	}
	c := cfg.HTTP
	client := t.client(c)

	entries, err := os.ReadDir(sourceDir)
	if err != nil {
		return errors.NewDeployError(httpName, "reading "+sourceDir, err)
	}

	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			log.Debug().Str("entry", entry.Name()).Msg("skipping non-regular entry")
			continue
		}

		endpoint := strings.TrimRight(c.URL, "/") + "/" + url.PathEscape(entry.Name())
		t.reporter.Step(fmt.Sprintf("Uploading %q to %s", entry.Name(), endpoint))

		if err := t.send(ctx, client, c, filepath.Join(sourceDir, entry.Name()), endpoint); err != nil {
			return errors.NewDeployError(httpName, fmt.Sprintf("uploading %q", entry.Name()), err)
		}
		t.reporter.Success(fmt.Sprintf("Uploaded %q", entry.Name()))
	}
	return nil
}

func (t *HTTPTarget) send(ctx context.Context, client *retryablehttp.Client, c *config.HTTP, file, endpoint string) error {
	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}

	method := defaultHTTPMethod
	if c.Method != "" {
		method = strings.ToUpper(c.Method)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, method, endpoint, f)
	if err != nil {
		return err
	}
	req.ContentLength = info.Size()
	req.Header.Set("Content-Type", "application/octet-stream")
	for k, v := range c.Headers {
		req.Header.Set(k, v)
	}
	if c.Username != "" {
		req.SetBasicAuth(c.Username, c.Password)
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%s %s returned %s", method, endpoint, resp.Status)
	}
	log.Debug().Str("endpoint", endpoint).Int64("bytes", info.Size()).Int("status", resp.StatusCode).Msg("uploaded")
	return nil
}

// leveledLogger routes retryablehttp logging through zerolog.
type leveledLogger struct {
	logger zerolog.Logger
}

func newLeveledLogger(logger zerolog.Logger) retryablehttp.LeveledLogger {
	return &leveledLogger{logger: logger}
}

func (l *leveledLogger) Error(msg string, keysAndValues ...interface{}) {
	l.logger.Error().Fields(keysAndValues).Msg(msg)
}

func (l *leveledLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Info().Fields(keysAndValues).Msg(msg)
}

func (l *leveledLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.logger.Debug().Fields(keysAndValues).Msg(msg)
}

func (l *leveledLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.logger.Warn().Fields(keysAndValues).Msg(msg)
}
