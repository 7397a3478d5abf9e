package models

// IdentityRecord holds the facts identifying this deployment. It is resolved
// once per run from the metadata service and is only valid as a whole: a
// missing field invalidates the record.
type IdentityRecord struct {
	DeploymentID string
	Deployer     string
	LabID        string
}

// Complete reports whether every identity fact was resolved.
func (r IdentityRecord) Complete() bool {
	return r.DeploymentID != "" && r.Deployer != "" && r.LabID != ""
}

// CredentialRecord holds the AWS API credential found in the instance's cloud
// accounts. Never log either field.
type CredentialRecord struct {
	AccessKey string
	SecretKey string
}

// DeliveryTarget is the queue the lifecycle messages are sent to. Region may
// be empty until a region strategy has run.
type DeliveryTarget struct {
	QueueURL string
	Region   string
}
