package metadata

// Wire shapes of the metadata service responses. Fields the agent does not
// consume are omitted; absent fields decode to zero values and are validated
// by the resolver, never assumed present.

type deploymentEnvelope struct {
	Deployment struct {
		ID       string `json:"id"`
		Deployer string `json:"deployer"`
	} `json:"deployment"`
}

type cloudAccountsEnvelope struct {
	CloudAccounts []cloudAccount `json:"cloudAccounts"`
}

type cloudAccount struct {
	Credentials []accountCredential `json:"credentials"`
	Regions     []string            `json:"regions"`
}

type accountCredential struct {
	Type   string `json:"type"`
	Key    string `json:"key"`
	Secret string `json:"secret"`
}

// credentialTypeAWS is the discriminator for usable API credentials among a
// cloud account's credential entries.
const credentialTypeAWS = "AWS_API_CREDENTIAL"

// userTagEnvelope is one element of the array returned by the
// /userTags/name/{name}/value/{value} endpoint.
type userTagEnvelope struct {
	UserTags []userTag `json:"userTags"`
	MgmtIP   string    `json:"mgmtIp"`
}

type userTag struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}
