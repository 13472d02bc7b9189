package normalizer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/metakb-transform/internal/domain"
	"github.com/metakb-transform/internal/transformerr"
)

// Gateway is the Normalizer Gateway (C1): a uniform facade over the four
// concept normalizers, each wrapped in its own circuit breaker, sharing one
// response cache. Grounded on the teacher's ResilientExternalClient
// (pkg/external/circuit_breaker.go): per-service gobreaker settings, a
// cache-first-then-breaker-then-cache-write call pattern, structured logrus
// logging on every state transition.
type Gateway struct {
	gene      *serviceClient
	disease   *serviceClient
	therapy   *serviceClient
	variation *variationClient

	breakers map[ConceptKind]*gobreaker.CircuitBreaker
	varBreaker *gobreaker.CircuitBreaker

	cache  *responseCache
	logger *logrus.Logger
}

// New builds a Gateway from the per-concept normalizer configuration.
func New(cfg domain.NormalizerConfig, cacheCfg domain.CacheConfig, logger *logrus.Logger) (*Gateway, error) {
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	respCache, err := newResponseCache(cacheCfg.RedisURL, cacheCfg.LRUSize, cacheCfg.DefaultTTL, logger)
	if err != nil {
		return nil, fmt.Errorf("building normalizer response cache: %w", err)
	}

	g := &Gateway{
		gene:      newServiceClient(cfg.Gene.BaseURL, cfg.Gene.Timeout, cfg.Gene.RateLimit),
		disease:   newServiceClient(cfg.Disease.BaseURL, cfg.Disease.Timeout, cfg.Disease.RateLimit),
		therapy:   newServiceClient(cfg.Therapy.BaseURL, cfg.Therapy.Timeout, cfg.Therapy.RateLimit),
		variation: newVariationClient(cfg.Variation.BaseURL, cfg.Variation.Timeout, cfg.Variation.RateLimit),
		cache:     respCache,
		logger:    logger,
		breakers:  make(map[ConceptKind]*gobreaker.CircuitBreaker),
	}

	for _, kind := range []ConceptKind{KindGene, KindDisease, KindTherapy} {
		g.breakers[kind] = g.newBreaker(string(kind))
	}
	g.varBreaker = g.newBreaker("variation")

	return g, nil
}

func (g *Gateway) newBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 5 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			g.logger.WithFields(logrus.Fields{
				"breaker": name, "from": from.String(), "to": to.String(),
			}).Warn("normalizer circuit breaker state change")
		},
	})
}

// NormalizeGene resolves a gene query to a canonical concept. Failures are
// swallowed and logged at DEBUG (NormalizationFailure), except credential
// failures, which are returned for the caller to propagate as fatal.
func (g *Gateway) NormalizeGene(ctx context.Context, query string) (*Concept, error) {
	return g.normalizeConceptCached(ctx, KindGene, g.gene, query)
}

// NormalizeDisease resolves a disease query to a canonical concept.
func (g *Gateway) NormalizeDisease(ctx context.Context, query string) (*Concept, error) {
	return g.normalizeConceptCached(ctx, KindDisease, g.disease, query)
}

// NormalizeTherapy resolves a therapy query to a canonical concept.
func (g *Gateway) NormalizeTherapy(ctx context.Context, query string) (*Concept, error) {
	return g.normalizeConceptCached(ctx, KindTherapy, g.therapy, query)
}

func (g *Gateway) normalizeConceptCached(ctx context.Context, kind ConceptKind, client *serviceClient, query string) (*Concept, error) {
	cacheKey := fmt.Sprintf("normalizer:%s:%s", kind, query)

	var cached conceptWire
	if g.cache.getJSON(ctx, cacheKey, &cached) {
		return wireToConcept(kind, &cached), nil
	}

	result, err := g.breakers[kind].Execute(func() (interface{}, error) {
		return client.normalizeConcept(ctx, query)
	})
	if err != nil {
		var credErr *CredentialError
		if errors.As(err, &credErr) {
			return nil, transformerr.New(transformerr.ClassCredential, "normalizer credential failure", query, err)
		}
		g.logger.WithFields(logrus.Fields{"kind": kind, "query": query}).
			WithError(err).Debug("normalization failure, treating as not normalizable")
		return nil, nil
	}

	wire := result.(*conceptWire)
	g.cache.setJSON(ctx, cacheKey, wire)
	return wireToConcept(kind, wire), nil
}

func wireToConcept(kind ConceptKind, wire *conceptWire) *Concept {
	if wire.Concept == nil || wire.MatchType == int(MatchNone) {
		return nil
	}
	c := &Concept{ID: wire.Concept.ID, Name: wire.Concept.Name}
	for _, raw := range wire.Concept.Mappings {
		var m domain.ConceptMapping
		if json.Unmarshal(raw, &m) == nil {
			c.Mappings = append(c.Mappings, m)
		}
	}
	for _, raw := range wire.Concept.Extensions {
		var e domain.Extension
		if json.Unmarshal(raw, &e) == nil {
			c.Extensions = append(c.Extensions, e)
		}
	}
	return c
}

// NormalizeVariation resolves a variant query string to a VRS Variation.
// This is the one asynchronous normalizer call (spec.md §4.1): callers in
// internal/builder invoke it from within the bounded-concurrency pool.
func (g *Gateway) NormalizeVariation(ctx context.Context, query string) (*domain.Variation, error) {
	cacheKey := fmt.Sprintf("normalizer:variation:%s", query)

	var cached domain.Variation
	if g.cache.getJSON(ctx, cacheKey, &cached) {
		return &cached, nil
	}

	result, err := g.varBreaker.Execute(func() (interface{}, error) {
		return g.variation.normalizeVariation(ctx, query)
	})
	if err != nil {
		var credErr *CredentialError
		if errors.As(err, &credErr) {
			return nil, transformerr.New(transformerr.ClassCredential, "variation normalizer credential failure", query, err)
		}
		g.logger.WithFields(logrus.Fields{"query": query}).
			WithError(err).Debug("variation normalization failure, treating as not normalizable")
		return nil, nil
	}

	v, _ := result.(*domain.Variation)
	if v == nil {
		return nil, nil
	}
	g.cache.setJSON(ctx, cacheKey, v)
	return v, nil
}

// HealthCheck reports whether the response cache and each circuit breaker
// are reachable/closed, mirroring the teacher's KnowledgeBaseService.HealthCheck.
func (g *Gateway) HealthCheck(ctx context.Context) map[string]bool {
	health := make(map[string]bool)
	for kind, breaker := range g.breakers {
		health[string(kind)] = breaker.State() == gobreaker.StateClosed
	}
	health["variation"] = g.varBreaker.State() == gobreaker.StateClosed
	health["cache"] = g.cache.ping(ctx) == nil
	return health
}

// InvalidateCache discards every cached normalizer response. Used by the
// CLI's "normalizer update-db" operational subcommand after the upstream
// normalizer databases have been refreshed, so subsequent lookups observe
// the update instead of a stale cached response.
func (g *Gateway) InvalidateCache(ctx context.Context) error {
	return g.cache.flush(ctx)
}

// Close releases the gateway's cache connections.
func (g *Gateway) Close() error {
	return g.cache.close()
}
