package models

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/reginold/slack-bot-agentic/internal/boterr"
	"github.com/reginold/slack-bot-agentic/internal/logging"
	"github.com/reginold/slack-bot-agentic/internal/metrics"
)

// Lister fetches the provider's current model ids.
type Lister interface {
	ListModels(ctx context.Context) ([]string, error)
}

// Options configures a Validator.
type Options struct {
	TTL        time.Duration
	Deprecated []string
	Logger     *slog.Logger
	Now        func() time.Time // for tests
}

// Status is the outcome of the startup check of the default model.
type Status struct {
	Model     string    `json:"model"`
	Healthy   bool      `json:"healthy"`
	Error     string    `json:"error,omitempty"`
	CheckedAt time.Time `json:"checked_at"`
}

// Validator checks model names against a cached provider listing.
type Validator struct {
	lister     Lister
	cache      *Cache
	deprecated []string
	now        func() time.Time
	log        *slog.Logger

	group  singleflight.Group
	status atomic.Pointer[Status]
}

// NewValidator creates a Validator with an empty cache.
func NewValidator(lister Lister, opts Options) *Validator {
	if opts.TTL <= 0 {
		opts.TTL = 300 * time.Second
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	return &Validator{
		lister:     lister,
		cache:      NewCache(opts.TTL),
		deprecated: slices.Clone(opts.Deprecated),
		now:        opts.Now,
		log:        opts.Logger.With("component", "models"),
	}
}

// Cache exposes the underlying cache for health reporting.
func (v *Validator) Cache() *Cache {
	return v.cache
}

// ModelList returns the known model ids. With useCache and a fresh cache no
// request is made; otherwise the list is fetched and the cache replaced.
// A failed fetch leaves the cache untouched and returns *boterr.APIError.
func (v *Validator) ModelList(ctx context.Context, useCache bool) ([]string, error) {
	if useCache {
		if snap, ok := v.cache.Fresh(v.now()); ok {
			metrics.ModelListRequests.WithLabelValues("cache").Inc()
			return slices.Clone(snap.Models), nil
		}
	}
	return v.fetch(ctx)
}

// Refresh forces a fetch of the model list.
func (v *Validator) Refresh(ctx context.Context) error {
	_, err := v.fetch(ctx)
	return err
}

func (v *Validator) fetch(ctx context.Context) ([]string, error) {
	res, err, shared := v.group.Do("models", func() (any, error) {
		startedAt := v.now()
		ids, err := v.lister.ListModels(ctx)
		if err != nil {
			return nil, err
		}
		if len(ids) == 0 {
			v.log.Warn("provider returned an empty model list")
		}
		v.cache.Store(ids, startedAt)
		metrics.CachedModels.Set(float64(len(ids)))
		v.log.Debug("model list refreshed", "count", len(ids))
		return ids, nil
	})
	if err != nil {
		metrics.ModelListRequests.WithLabelValues("fetch_error").Inc()
		var apiErr *boterr.APIError
		if !errors.As(err, &apiErr) {
			err = boterr.WrapAPIError("failed to fetch models from API", err)
		}
		return nil, err
	}
	metrics.ModelListRequests.WithLabelValues("fetch").Inc()
	if shared {
		v.log.Debug("model list fetch was coalesced")
	}
	return slices.Clone(res.([]string)), nil
}

// Validate returns nil if name is a usable model. Otherwise it returns a
// *boterr.ModelNotAvailableError, or the *boterr.APIError from the fetch when
// no cached list can stand in for it.
func (v *Validator) Validate(ctx context.Context, name string, useCache bool) error {
	list, err := v.ModelList(ctx, useCache)
	if err != nil {
		var apiErr *boterr.APIError
		if !errors.As(err, &apiErr) || !useCache {
			metrics.ModelValidations.WithLabelValues("api_error").Inc()
			return err
		}
		snap, ok := v.cache.Stale()
		if !ok {
			metrics.ModelValidations.WithLabelValues("api_error").Inc()
			return err
		}
		v.log.Warn("model list unavailable, validating against cached list",
			"model", name, "cached_at", snap.UpdatedAt, "error", err)
		if !snap.Contains(name) {
			metrics.ModelValidations.WithLabelValues("not_found").Inc()
			return boterr.NewModelNotAvailable("model not found in cached models", name, snap.Models, boterr.ReasonAPIUnavailable)
		}
		if err := v.checkDeprecated(name, snap.Models); err != nil {
			return err
		}
		metrics.ModelValidations.WithLabelValues("valid_stale").Inc()
		return nil
	}

	if !slices.Contains(list, name) {
		metrics.ModelValidations.WithLabelValues("not_found").Inc()
		return boterr.NewModelNotAvailable(fmt.Sprintf("model %s not found in API models", name), name, list, boterr.ReasonNotFound)
	}
	if err := v.checkDeprecated(name, list); err != nil {
		return err
	}

	metrics.ModelValidations.WithLabelValues("valid").Inc()
	return nil
}

// checkDeprecated rejects a deprecated name, listing the active models of list.
func (v *Validator) checkDeprecated(name string, list []string) error {
	if !slices.Contains(v.deprecated, name) {
		return nil
	}
	metrics.ModelValidations.WithLabelValues("deprecated").Inc()
	active := slices.DeleteFunc(slices.Clone(list), func(m string) bool {
		return slices.Contains(v.deprecated, m)
	})
	return boterr.NewModelNotAvailable(fmt.Sprintf("model %s is deprecated", name), name, active, boterr.ReasonDeprecated)
}

// Startup validates the default model once and records the result. A failure
// is logged, never fatal.
func (v *Validator) Startup(ctx context.Context, model string) Status {
	st := Status{Model: model, Healthy: true, CheckedAt: v.now()}
	if err := v.Validate(ctx, model, true); err != nil {
		st.Healthy = false
		st.Error = err.Error()
		v.log.Warn("default model validation failed", "model", model, "error", err)
		metrics.StartupHealthy.Set(0)
	} else {
		v.log.Info("default model validated", "model", model)
		metrics.StartupHealthy.Set(1)
	}
	v.status.Store(&st)
	return st
}

// Status returns the recorded startup result, if any.
func (v *Validator) Status() (Status, bool) {
	st := v.status.Load()
	if st == nil {
		return Status{}, false
	}
	return *st, true
}
