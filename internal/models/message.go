package models

// OutboundMessage is the lifecycle notification sent to the queue. Kill marks
// the final teardown message.
type OutboundMessage struct {
	ID       string `json:"id"`
	Deployer string `json:"deployer"`
	LabID    string `json:"lab_id"`
	Kill     bool   `json:"kill"`
}

// NewOutboundMessage builds the heartbeat message for an identity. The
// teardown variant is derived by the delivery engine flipping Kill.
func NewOutboundMessage(identity IdentityRecord) OutboundMessage {
	return OutboundMessage{
		ID:       identity.DeploymentID,
		Deployer: identity.Deployer,
		LabID:    identity.LabID,
	}
}
