// Package services wires the resolution cascade to the terminal action for
// the configured profile: resolve metadata, construct the delivery target,
// then run the heartbeat loop or the one-shot site registration.
package services

import (
	"context"

	"go.uber.org/zap"

	"github.com/orijen-udf/lifecycle-agent/internal/config"
	"github.com/orijen-udf/lifecycle-agent/internal/delivery"
	"github.com/orijen-udf/lifecycle-agent/internal/labinfo"
	"github.com/orijen-udf/lifecycle-agent/internal/metadata"
	"github.com/orijen-udf/lifecycle-agent/internal/models"
	"github.com/orijen-udf/lifecycle-agent/internal/regions"
	"github.com/orijen-udf/lifecycle-agent/internal/registration"
	agenterrors "github.com/orijen-udf/lifecycle-agent/pkg/errors"
	"github.com/orijen-udf/lifecycle-agent/pkg/retry"
)

// DescriptorLoader fetches the lab descriptor for a lab ID.
type DescriptorLoader interface {
	Load(ctx context.Context, labID string) (*models.LabDescriptor, error)
}

// Registrar performs the one-shot CE registration.
type Registrar interface {
	Register(ctx context.Context, descriptor *models.LabDescriptor, identity models.IdentityRecord) error
}

// RegionSelector picks a region from the candidate list.
type RegionSelector interface {
	Select(ctx context.Context, candidates []string) string
}

// SenderFactory builds the delivery client once the target and credentials
// are known.
type SenderFactory func(target models.DeliveryTarget, creds models.CredentialRecord) delivery.Sender

// Agent runs one full resolution-and-delivery pipeline. Everything is
// resolved fresh per run; the agent holds no state across restarts.
type Agent struct {
	cfg      *config.Configuration
	resolver *metadata.Resolver
	selector RegionSelector

	newSender    SenderFactory
	newLoader    func(creds models.CredentialRecord) DescriptorLoader
	newRegistrar func() Registrar

	log *zap.SugaredLogger
}

type Option func(*Agent)

// WithSenderFactory, WithLoaderFactory, WithRegistrar and WithRegionSelector
// replace the real collaborators, used by tests.

func WithSenderFactory(fn SenderFactory) Option {
	return func(a *Agent) { a.newSender = fn }
}

func WithLoaderFactory(fn func(creds models.CredentialRecord) DescriptorLoader) Option {
	return func(a *Agent) { a.newLoader = fn }
}

func WithRegistrar(r Registrar) Option {
	return func(a *Agent) { a.newRegistrar = func() Registrar { return r } }
}

func WithRegionSelector(s RegionSelector) Option {
	return func(a *Agent) { a.selector = s }
}

func New(cfg *config.Configuration, opts ...Option) *Agent {
	policy := retry.Policy{MaxAttempts: cfg.Metadata.MaxAttempts, BaseDelay: cfg.Metadata.BaseDelay}
	client := metadata.NewClient(cfg.Metadata.BaseURL, policy)

	a := &Agent{
		cfg:      cfg,
		resolver: metadata.NewResolver(client),
		selector: regions.NewSelector(cfg.Regions.Default),
		newSender: func(target models.DeliveryTarget, creds models.CredentialRecord) delivery.Sender {
			return delivery.NewSQSSender(target, creds)
		},
		newLoader: func(creds models.CredentialRecord) DescriptorLoader {
			return labinfo.NewLoader(creds, cfg.Lab.Bucket, cfg.Lab.Region)
		},
		newRegistrar: func() Registrar {
			return registration.NewClient(client, policy)
		},
		log: zap.S().Named("agent"),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Run executes the configured profile. It returns a context error on clean
// signal-driven shutdown and a typed failure otherwise; the caller maps both
// to the process exit code.
func (a *Agent) Run(ctx context.Context) error {
	pipe := pipelineFor(a.cfg.Profile)
	a.log.Infow("starting pipeline", "profile", a.cfg.Profile)

	resolution, err := a.resolver.Resolve(ctx, pipe.tags)
	if err != nil {
		return err
	}

	if pipe.terminal == terminalRegistration {
		return a.register(ctx, resolution)
	}
	return a.deliver(ctx, pipe, resolution)
}

func (a *Agent) register(ctx context.Context, resolution *metadata.Resolution) error {
	descriptor, err := a.newLoader(resolution.Credentials).Load(ctx, resolution.Identity.LabID)
	if err != nil {
		return err
	}
	return a.newRegistrar().Register(ctx, descriptor, resolution.Identity)
}

func (a *Agent) deliver(ctx context.Context, pipe pipeline, resolution *metadata.Resolution) error {
	target, err := a.resolveTarget(ctx, pipe, resolution)
	if err != nil {
		return err
	}
	a.log.Infow("delivery target resolved", "queueURL", target.QueueURL, "region", target.Region)

	engine := delivery.NewEngine(
		a.newSender(*target, resolution.Credentials),
		resolution.Identity,
		delivery.Intervals{
			Success:         a.cfg.Delivery.SuccessInterval,
			Failure:         a.cfg.Delivery.FailureInterval,
			FailureCeiling:  a.cfg.Delivery.FailureCeiling,
			TeardownTimeout: a.cfg.Delivery.TeardownTimeout,
		},
	)
	if pipe.teardownKill {
		defer engine.Teardown()
	}
	return engine.Run(ctx)
}

// resolveTarget finishes target construction for the active strategy: the
// queue URL comes from tags or from the lab descriptor, the region from the
// URL, from probing, or from the static default.
func (a *Agent) resolveTarget(ctx context.Context, pipe pipeline, resolution *metadata.Resolution) (*models.DeliveryTarget, error) {
	target := resolution.Target
	if pipe.queueFromDescriptor {
		descriptor, err := a.newLoader(resolution.Credentials).Load(ctx, resolution.Identity.LabID)
		if err != nil {
			return nil, err
		}
		target = &models.DeliveryTarget{QueueURL: descriptor.SQSURL}
	}
	if target == nil || target.QueueURL == "" {
		return nil, agenterrors.NewNotFoundError("delivery", "queue URL")
	}

	if target.Region == "" {
		switch pipe.region {
		case regionProbe:
			target.Region = a.selector.Select(ctx, resolution.Regions)
		default:
			if region, ok := delivery.QueueRegionFromURL(target.QueueURL); ok {
				target.Region = region
			} else {
				target.Region = a.selector.Select(ctx, resolution.Regions)
			}
		}
	}
	return target, nil
}
