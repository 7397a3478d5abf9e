package models

// SiteStatic carries the static registration facts of a lab site as stored in
// the lab registry descriptor.
type SiteStatic struct {
	Hostname          string  `yaml:"hostname"`
	Latitude          float64 `yaml:"lat"`
	Longitude         float64 `yaml:"long"`
	CertHardware      string  `yaml:"cert_hardware"`
	PrimaryOutsideNic string  `yaml:"primary_outside_nic"`
	Auth              string  `yaml:"auth"`
}

// LabDescriptor is the document stored in the lab registry under
// "<labID>.yaml". Depending on the lab it carries queue connection facts,
// site registration facts, or both.
type LabDescriptor struct {
	SQSURL     string     `yaml:"sqsURL"`
	SiteStatic SiteStatic `yaml:"siteStatic"`
	Token      string     `yaml:"token"`
}
