package metadata

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/orijen-udf/lifecycle-agent/internal/models"
	agenterrors "github.com/orijen-udf/lifecycle-agent/pkg/errors"
	"github.com/orijen-udf/lifecycle-agent/pkg/tagcodec"
)

// TagSource selects which metadata endpoint carries the instance tags.
type TagSource string

const (
	// TagSourceDeployment reads the flat key/value set at /deploymentTags.
	TagSourceDeployment TagSource = "deploymentTags"
	// TagSourceUserTags reads the named user-tag set at
	// /userTags/name/XC/value/{role}.
	TagSourceUserTags TagSource = "userTags"
)

// TagConfig declares which tags carry which facts for the active profile.
// LabIDTag is always required. QueueURLTag names a tag carrying the full
// queue URL; RegionTag and QueuePathTag name the fragments a queue URL is
// built from. Leave unused names empty.
type TagConfig struct {
	Source       TagSource
	Role         string
	Decode       bool
	LabIDTag     string
	QueueURLTag  string
	RegionTag    string
	QueuePathTag string
}

// Resolution is the assembled output of the metadata cascade. Target is nil
// when the profile defers queue resolution to the lab descriptor. Regions
// lists the candidate regions of the matched cloud account, for the probing
// strategy.
type Resolution struct {
	Identity    models.IdentityRecord
	Credentials models.CredentialRecord
	Regions     []string
	Target      *models.DeliveryTarget
}

// Resolver runs the ordered metadata cascade. Each step is an independent
// round trip against a possibly still-initializing local service, so the
// cascade short-circuits on the first failure to produce the most specific
// cause.
type Resolver struct {
	client *Client
	log    *zap.SugaredLogger
}

func NewResolver(client *Client) *Resolver {
	return &Resolver{
		client: client,
		log:    zap.S().Named("resolver"),
	}
}

func (r *Resolver) Resolve(ctx context.Context, tags TagConfig) (*Resolution, error) {
	deployment, err := fetch[deploymentEnvelope](ctx, r.client, "/deployment")
	if err != nil {
		r.log.Errorw("unable to fetch deployment metadata", "error", err)
		return nil, err
	}
	identity := models.IdentityRecord{
		DeploymentID: deployment.Deployment.ID,
		Deployer:     deployment.Deployment.Deployer,
	}

	tagValues, err := r.resolveTags(ctx, tags)
	if err != nil {
		r.log.Errorw("unable to resolve instance tags", "error", err)
		return nil, err
	}
	identity.LabID = tagValues[tags.LabIDTag]
	if !identity.Complete() {
		return nil, agenterrors.NewNotFoundError("deployment", "deployment identity")
	}

	credentials, regions, err := r.resolveCredentials(ctx)
	if err != nil {
		return nil, err
	}

	target, err := buildTarget(tags, tagValues)
	if err != nil {
		return nil, err
	}

	r.log.Infow("metadata resolved",
		"deploymentID", identity.DeploymentID,
		"deployer", identity.Deployer,
		"labID", identity.LabID)
	return &Resolution{
		Identity:    identity,
		Credentials: credentials,
		Regions:     regions,
		Target:      target,
	}, nil
}

// resolveTags fetches the profile's tag set and returns the configured tag
// names mapped to their (optionally decoded) values. Every configured name
// must be present.
func (r *Resolver) resolveTags(ctx context.Context, cfg TagConfig) (map[string]string, error) {
	var (
		stage string
		raw   map[string]string
		err   error
	)
	switch cfg.Source {
	case TagSourceUserTags:
		stage = "userTags/" + cfg.Role
		raw, err = r.fetchUserTags(ctx, cfg.Role)
	default:
		stage = "deploymentTags"
		raw, err = fetch[map[string]string](ctx, r.client, "/deploymentTags")
	}
	if err != nil {
		return nil, err
	}

	values := make(map[string]string)
	for _, name := range []string{cfg.LabIDTag, cfg.QueueURLTag, cfg.RegionTag, cfg.QueuePathTag} {
		if name == "" {
			continue
		}
		value, ok := raw[name]
		if !ok || value == "" {
			return nil, agenterrors.NewNotFoundError(stage, fmt.Sprintf("tag %q", name))
		}
		if cfg.Decode {
			if value, err = tagcodec.Decode(value); err != nil {
				return nil, err
			}
		}
		values[name] = value
	}
	return values, nil
}

func (r *Resolver) fetchUserTags(ctx context.Context, role string) (map[string]string, error) {
	envelopes, err := fetch[[]userTagEnvelope](ctx, r.client, "/userTags/name/XC/value/"+role)
	if err != nil {
		return nil, err
	}
	if len(envelopes) == 0 {
		return nil, agenterrors.NewNotFoundError("userTags/"+role, "user tag set")
	}
	tags := make(map[string]string, len(envelopes[0].UserTags))
	for _, tag := range envelopes[0].UserTags {
		tags[tag.Name] = tag.Value
	}
	return tags, nil
}

// resolveCredentials scans the cloud accounts in service order, first match
// wins. A missing credential is a resolution failure, not a transport one.
func (r *Resolver) resolveCredentials(ctx context.Context) (models.CredentialRecord, []string, error) {
	accounts, err := fetch[cloudAccountsEnvelope](ctx, r.client, "/cloudAccounts")
	if err != nil {
		r.log.Errorw("unable to fetch cloud accounts", "error", err)
		return models.CredentialRecord{}, nil, err
	}
	for _, account := range accounts.CloudAccounts {
		for _, credential := range account.Credentials {
			if credential.Type == credentialTypeAWS {
				return models.CredentialRecord{
					AccessKey: credential.Key,
					SecretKey: credential.Secret,
				}, account.Regions, nil
			}
		}
	}
	r.log.Error("credentials not found in cloud accounts")
	return models.CredentialRecord{}, nil, agenterrors.NewNotFoundError("cloudAccounts", credentialTypeAWS+" credentials")
}

// buildTarget constructs the delivery target from tag data when the profile
// embeds queue facts in tags. Returns nil when resolution is deferred to the
// lab descriptor.
func buildTarget(cfg TagConfig, values map[string]string) (*models.DeliveryTarget, error) {
	switch {
	case cfg.QueueURLTag != "":
		return &models.DeliveryTarget{QueueURL: values[cfg.QueueURLTag]}, nil
	case cfg.RegionTag != "" && cfg.QueuePathTag != "":
		region := values[cfg.RegionTag]
		return &models.DeliveryTarget{
			QueueURL: fmt.Sprintf("https://sqs.%s.amazonaws.com/%s", region, values[cfg.QueuePathTag]),
			Region:   region,
		}, nil
	default:
		return nil, nil
	}
}

// ManagementIP looks up the management address of the CE instance tagged
// with the given role. Used by the site registration flow.
func (c *Client) ManagementIP(ctx context.Context, role string) (string, error) {
	envelopes, err := fetch[[]userTagEnvelope](ctx, c, "/userTags/name/XC/value/"+role)
	if err != nil {
		return "", err
	}
	if len(envelopes) == 0 || envelopes[0].MgmtIP == "" {
		return "", agenterrors.NewNotFoundError("userTags/"+role, "management IP")
	}
	return envelopes[0].MgmtIP, nil
}
