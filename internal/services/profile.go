package services

import (
	"github.com/orijen-udf/lifecycle-agent/internal/config"
	"github.com/orijen-udf/lifecycle-agent/internal/metadata"
)

// The observed deployments differ only in where the facts live and which
// terminal action runs. Each profile is a row in this table rather than its
// own code path.

type terminalAction int

const (
	terminalHeartbeat terminalAction = iota
	terminalRegistration
)

type regionStrategy int

const (
	// regionEmbedded parses the region out of the queue URL, probing only
	// when the URL carries none.
	regionEmbedded regionStrategy = iota
	// regionProbe always measures the credential account's regions.
	regionProbe
)

type pipeline struct {
	tags                metadata.TagConfig
	queueFromDescriptor bool
	region              regionStrategy
	terminal            terminalAction
	teardownKill        bool
}

func pipelineFor(profile config.Profile) pipeline {
	switch profile {
	case config.ProfileDirect:
		return pipeline{
			tags: metadata.TagConfig{
				Source:      metadata.TagSourceDeployment,
				LabIDTag:    "LabID",
				QueueURLTag: "SQS",
			},
			region:   regionProbe,
			terminal: terminalHeartbeat,
		}
	case config.ProfileSite:
		return pipeline{
			tags: metadata.TagConfig{
				Source:   metadata.TagSourceUserTags,
				Role:     "runner",
				LabIDTag: "LabID",
			},
			terminal: terminalRegistration,
		}
	default: // config.ProfileRunner
		return pipeline{
			tags: metadata.TagConfig{
				Source:   metadata.TagSourceUserTags,
				Role:     "runner",
				LabIDTag: "LabID",
			},
			queueFromDescriptor: true,
			region:              regionEmbedded,
			terminal:            terminalHeartbeat,
			teardownKill:        true,
		}
	}
}
