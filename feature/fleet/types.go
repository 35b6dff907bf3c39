package fleet

// HostRecord is one managed host as reported by the fleet collector.
// Hostname is the case-insensitive identity of the host.
type HostRecord struct {
	Hostname string `json:"hostname"`
	IP       string `json:"ip"`
	// OS is the collector's operating-system descriptor, e.g.
	// "Microsoft Windows Server 2022 Standard" or "Ubuntu 22.04.4 LTS".
	OS string `json:"os"`
}

// Enrichment carries the optional collector signals for a host. All fields
// are best-effort; the zero value means "no enrichment available".
type Enrichment struct {
	// CloudProvider is set when the collector found instance metadata on
	// the host (e.g. "aws", "azure", "gcp").
	CloudProvider string `json:"cloud_provider"`
	// VirtualizationGuest is set when the collector detected a hypervisor
	// guest signal (DMI, driver, or agent based).
	VirtualizationGuest bool `json:"virtualization_guest"`
	// Manufacturer is the reported system manufacturer.
	Manufacturer string `json:"manufacturer"`
	// SerialNumber is the reported hardware or instance serial.
	SerialNumber string `json:"serial_number"`
	// UUID is the reported system UUID.
	UUID string `json:"uuid"`
	// Tags holds free-form collector tags.
	Tags map[string]string `json:"tags"`
}
