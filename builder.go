package authflow

import (
	"errors"

	"github.com/redis/go-redis/v9"

	"github.com/hailrides/authflow/jwt"
	"github.com/hailrides/authflow/session"
)

// Builder assembles an [Engine] from configuration and collaborators.
//
// Builder instances are single-use; Build fails on reuse.
type Builder struct {
	config Config
	redis  *redis.Client
	store  session.Store

	userProvider UserProvider
	emailSender  EmailSender
	smsSender    SMSSender
	auditSink    AuditSink
	fingerprint  FingerprintFunc

	built bool
}

// New returns a [Builder] seeded with the default configuration.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the configuration wholesale.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis supplies the Redis client backing the default session store.
func (b *Builder) WithRedis(client *redis.Client) *Builder {
	b.redis = client
	return b
}

// WithStore supplies a custom session store, bypassing the Redis default.
func (b *Builder) WithStore(store session.Store) *Builder {
	b.store = store
	return b
}

// WithUserProvider supplies the persistent user store.
func (b *Builder) WithUserProvider(up UserProvider) *Builder {
	b.userProvider = up
	return b
}

// WithEmailSender supplies the email OTP delivery collaborator.
func (b *Builder) WithEmailSender(sender EmailSender) *Builder {
	b.emailSender = sender
	return b
}

// WithSMSSender supplies the SMS OTP delivery collaborator.
func (b *Builder) WithSMSSender(sender SMSSender) *Builder {
	b.smsSender = sender
	return b
}

// WithAuditSink supplies the audit event consumer.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithFingerprintFunc replaces the default client fingerprint derivation.
func (b *Builder) WithFingerprintFunc(fn FingerprintFunc) *Builder {
	b.fingerprint = fn
	return b
}

// WithMetricsEnabled toggles the in-process counters.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms toggles the submit latency histogram.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration, wires the stores and collaborators,
// and returns a ready [Engine].
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if b.userProvider == nil {
		return nil, errors.New("user provider required")
	}
	if b.emailSender == nil {
		return nil, errors.New("email sender required")
	}
	if b.smsSender == nil {
		return nil, errors.New("sms sender required")
	}

	store := b.store
	if store == nil {
		if b.redis == nil {
			return nil, errors.New("redis client or session store required")
		}
		storeCfg := session.Config{
			Prefix:               cfg.Session.RedisPrefix,
			MaxSessionsPerClient: cfg.Session.MaxSessionsPerClient,
		}
		if cfg.RateLimit.Enabled {
			storeCfg.RateLimitMax = cfg.RateLimit.MaxRequests
			storeCfg.RateLimitWindow = cfg.RateLimit.Window
		}
		store = session.NewRedisStore(b.redis, storeCfg)
	}

	jm, err := jwt.NewManager(jwt.Config{
		AccessTTL:     cfg.JWT.AccessTTL,
		SigningMethod: jwt.SigningMethod(cfg.JWT.SigningMethod),
		PrivateKey:    cloneBytes(cfg.JWT.PrivateKey),
		PublicKey:     cloneBytes(cfg.JWT.PublicKey),
		Issuer:        cfg.JWT.Issuer,
		Leeway:        cfg.JWT.Leeway,
	})
	if err != nil {
		return nil, err
	}

	engine := &Engine{
		config:       cfg,
		store:        store,
		userProvider: b.userProvider,
		emailSender:  b.emailSender,
		smsSender:    b.smsSender,
		jwtManager:   jm,
		audit:        newAuditDispatcher(cfg.Audit, b.auditSink),
		metrics:      NewMetrics(cfg.Metrics),
		fingerprint:  b.fingerprint,
	}
	if engine.fingerprint == nil {
		engine.fingerprint = defaultFingerprint
	}
	engine.dispatch = engine.buildDispatch()

	b.built = true

	return engine, nil
}
