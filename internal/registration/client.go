// Package registration performs the one-shot CE site registration against
// the cluster management endpoint discovered via metadata.
package registration

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/orijen-udf/lifecycle-agent/internal/models"
	agenterrors "github.com/orijen-udf/lifecycle-agent/pkg/errors"
	"github.com/orijen-udf/lifecycle-agent/pkg/retry"
)

// The CE management endpoint lives on a fixed port and presents a
// self-signed certificate; the endpoint is trusted explicitly.
const defaultEndpointFormat = "https://%s:65500/api/ves.io.vpm/introspect/write/ves.io.vpm.config/update"

const requestTimeout = 15 * time.Second

// managementResolver looks up the CE management IP. Implemented by the
// metadata client.
type managementResolver interface {
	ManagementIP(ctx context.Context, role string) (string, error)
}

// payload is the registration body the CE management API expects.
type payload struct {
	Hostname          string  `json:"hostname"`
	Latitude          float64 `json:"latitude"`
	Longitude         float64 `json:"longitude"`
	CertHardware      string  `json:"cert_hardware"`
	PrimaryOutsideNic string  `json:"primary_outside_nic"`
	Token             string  `json:"token"`
	ClusterName       string  `json:"cluster_name"`
}

type Client struct {
	resolver       managementResolver
	policy         retry.Policy
	httpClient     *http.Client
	endpointFormat string
	log            *zap.SugaredLogger
}

type Option func(*Client)

// WithEndpointFormat overrides the management endpoint template; the single
// %s receives the resolved address. Used by tests.
func WithEndpointFormat(format string) Option {
	return func(c *Client) { c.endpointFormat = format }
}

func NewClient(resolver managementResolver, policy retry.Policy, opts ...Option) *Client {
	c := &Client{
		resolver: resolver,
		policy:   policy,
		httpClient: &http.Client{
			Timeout: requestTimeout,
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
			},
		},
		endpointFormat: defaultEndpointFormat,
		log:            zap.S().Named("registration"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Register resolves the CE management address and posts the site
// registration, retrying under the bounded backoff policy. Registration is
// one-shot per boot: exhausting the retries is fatal for the run.
func (c *Client) Register(ctx context.Context, descriptor *models.LabDescriptor, identity models.IdentityRecord) error {
	address, err := c.resolver.ManagementIP(ctx, "CE")
	if err != nil {
		c.log.Errorw("unable to resolve CE management IP", "error", err)
		return err
	}

	body, err := json.Marshal(payload{
		Hostname:          descriptor.SiteStatic.Hostname,
		Latitude:          descriptor.SiteStatic.Latitude,
		Longitude:         descriptor.SiteStatic.Longitude,
		CertHardware:      descriptor.SiteStatic.CertHardware,
		PrimaryOutsideNic: descriptor.SiteStatic.PrimaryOutsideNic,
		Token:             descriptor.Token,
		ClusterName:       ClusterName(identity.DeploymentID),
	})
	if err != nil {
		return err
	}

	url := fmt.Sprintf(c.endpointFormat, address)
	attempt := 0
	_, err = retry.Do(ctx, c.policy, func() (struct{}, error) {
		attempt++
		if err := c.post(ctx, url, descriptor.SiteStatic.Auth, body); err != nil {
			c.log.Warnw("registration attempt failed", "attempt", attempt, "error", err)
			return struct{}{}, err
		}
		return struct{}{}, nil
	})
	if err != nil {
		return agenterrors.NewFatalDeliveryError("registration", attempt, err)
	}
	c.log.Infow("CE registration accepted", "cluster", ClusterName(identity.DeploymentID))
	return nil
}

// post performs one registration attempt. A non-200 status or an empty or
// falsy JSON body counts as failure.
func (c *Client) post(ctx context.Context, url, auth string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", auth)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}
	var ack any
	if err := json.NewDecoder(resp.Body).Decode(&ack); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if !acknowledged(ack) {
		return fmt.Errorf("registration not acknowledged")
	}
	return nil
}

// acknowledged reports whether the decoded response body is a truthy value.
// null, false, zero, the empty string and empty containers all count as a
// rejected registration.
func acknowledged(ack any) bool {
	switch v := ack.(type) {
	case nil:
		return false
	case bool:
		return v
	case float64:
		return v != 0
	case string:
		return v != ""
	case map[string]any:
		return len(v) > 0
	case []any:
		return len(v) > 0
	default:
		return true
	}
}

// ClusterName derives the cluster name from the deployment ID: the prefix up
// to the first '-', with a "cluster-" prefix.
func ClusterName(deploymentID string) string {
	prefix, _, _ := strings.Cut(deploymentID, "-")
	return "cluster-" + prefix
}
