package classify

import (
	"fmt"
	"net"
	"regexp"
	"strings"
)

// Config holds the externally configurable classification tables. List
// values are comma-separated so they can be overridden from the
// environment like every other setting.
type Config struct {
	// ExclusionPatterns are regular expressions matching hostnames of
	// unmanaged infrastructure (hypervisor management, network gear, OOB
	// controllers). Matching hosts are excluded from sync.
	ExclusionPatterns string `mapstructure:"exclusion_patterns" default:"^(esx|vcenter|vcsa|veeam|ilo|idrac|sw|fw|rtr)[0-9a-z-]*$"`
	// CloudDesktopPatterns are regular expressions matching the cloud
	// desktop naming convention.
	CloudDesktopPatterns string `mapstructure:"cloud_desktop_patterns" default:"^(wsamzn|cloudpc|avd)-"`
	// LegacyOnPremCIDRs are the address ranges of the legacy on-premises
	// virtualization estate.
	LegacyOnPremCIDRs string `mapstructure:"legacy_onprem_cidrs" default:"10.20.0.0/16,192.168.0.0/16"`
	// CloudCIDRs are the cloud VPC/VNet address ranges, used as a
	// fallback signal when instance-metadata enrichment failed.
	CloudCIDRs string `mapstructure:"cloud_cidrs" default:"10.64.0.0/10,172.31.0.0/16"`
	// HypervisorKeywords identify bare-metal hypervisor kernels in the OS
	// descriptor.
	HypervisorKeywords string `mapstructure:"hypervisor_keywords" default:"vmkernel,esxi,vmware esx,proxmox,xcp-ng,hyper-v server"`
	// WindowsKeywords identify the windows desktop/server OS family.
	WindowsKeywords string `mapstructure:"windows_keywords" default:"windows"`
	// LinuxKeywords identify the linux OS family.
	LinuxKeywords string `mapstructure:"linux_keywords" default:"linux,ubuntu,debian,centos,rhel,red hat,rocky,alma,suse"`
	// MobileKeywords identify mobile operating systems.
	MobileKeywords string `mapstructure:"mobile_keywords" default:"ios,ipados,android"`
	// ApplianceFragments are hostname fragments of known appliance
	// classes (storage, printing, power, cameras).
	ApplianceFragments string `mapstructure:"appliance_fragments" default:"nas,san,nvr,cam,prt,pdu,ups,mfp"`
	// VirtManufacturers are DMI manufacturer strings that count as a
	// virtualization guest signal.
	VirtManufacturers string `mapstructure:"virt_manufacturers" default:"vmware,qemu,kvm,xen,virtualbox,nutanix,parallels"`
}

// Tables is the compiled form of Config consumed by Classify.
type Tables struct {
	ExclusionPatterns    []*regexp.Regexp
	CloudDesktopPatterns []*regexp.Regexp
	LegacyOnPremCIDRs    []*net.IPNet
	CloudCIDRs           []*net.IPNet
	HypervisorKeywords   []string
	WindowsKeywords      []string
	LinuxKeywords        []string
	MobileKeywords       []string
	ApplianceFragments   []string
	VirtManufacturers    []string
}

// NewTables compiles the configured patterns and ranges. Invalid entries
// are configuration errors and fail the run before any remote call.
func NewTables(cfg Config) (*Tables, error) {
	t := &Tables{
		HypervisorKeywords: splitList(cfg.HypervisorKeywords),
		WindowsKeywords:    splitList(cfg.WindowsKeywords),
		LinuxKeywords:      splitList(cfg.LinuxKeywords),
		MobileKeywords:     splitList(cfg.MobileKeywords),
		ApplianceFragments: splitList(cfg.ApplianceFragments),
		VirtManufacturers:  splitList(cfg.VirtManufacturers),
	}

	var err error
	if t.ExclusionPatterns, err = compilePatterns(cfg.ExclusionPatterns); err != nil {
		return nil, fmt.Errorf("invalid exclusion_patterns: %w", err)
	}
	if t.CloudDesktopPatterns, err = compilePatterns(cfg.CloudDesktopPatterns); err != nil {
		return nil, fmt.Errorf("invalid cloud_desktop_patterns: %w", err)
	}
	if t.LegacyOnPremCIDRs, err = parseCIDRs(cfg.LegacyOnPremCIDRs); err != nil {
		return nil, fmt.Errorf("invalid legacy_onprem_cidrs: %w", err)
	}
	if t.CloudCIDRs, err = parseCIDRs(cfg.CloudCIDRs); err != nil {
		return nil, fmt.Errorf("invalid cloud_cidrs: %w", err)
	}
	return t, nil
}

// DefaultTables compiles the default configuration. The defaults are valid
// by construction, so this never fails.
func DefaultTables() *Tables {
	t, err := NewTables(defaultConfig())
	if err != nil {
		panic(err)
	}
	return t
}

// defaultConfig mirrors the struct-tag defaults for use outside viper.
func defaultConfig() Config {
	return Config{
		ExclusionPatterns:    "^(esx|vcenter|vcsa|veeam|ilo|idrac|sw|fw|rtr)[0-9a-z-]*$",
		CloudDesktopPatterns: "^(wsamzn|cloudpc|avd)-",
		LegacyOnPremCIDRs:    "10.20.0.0/16,192.168.0.0/16",
		CloudCIDRs:           "10.64.0.0/10,172.31.0.0/16",
		HypervisorKeywords:   "vmkernel,esxi,vmware esx,proxmox,xcp-ng,hyper-v server",
		WindowsKeywords:      "windows",
		LinuxKeywords:        "linux,ubuntu,debian,centos,rhel,red hat,rocky,alma,suse",
		MobileKeywords:       "ios,ipados,android",
		ApplianceFragments:   "nas,san,nvr,cam,prt,pdu,ups,mfp",
		VirtManufacturers:    "vmware,qemu,kvm,xen,virtualbox,nutanix,parallels",
	}
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.ToLower(strings.TrimSpace(part))
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func compilePatterns(raw string) ([]*regexp.Regexp, error) {
	var out []*regexp.Regexp
	for _, part := range splitList(raw) {
		re, err := regexp.Compile(part)
		if err != nil {
			return nil, fmt.Errorf("pattern %q: %w", part, err)
		}
		out = append(out, re)
	}
	return out, nil
}

func parseCIDRs(raw string) ([]*net.IPNet, error) {
	var out []*net.IPNet
	for _, part := range splitList(raw) {
		_, network, err := net.ParseCIDR(part)
		if err != nil {
			return nil, fmt.Errorf("range %q: %w", part, err)
		}
		out = append(out, network)
	}
	return out, nil
}

func matchAny(patterns []*regexp.Regexp, value string) (string, bool) {
	for _, re := range patterns {
		if re.MatchString(value) {
			return re.String(), true
		}
	}
	return "", false
}

func containsAny(keywords []string, value string) (string, bool) {
	for _, kw := range keywords {
		if strings.Contains(value, kw) {
			return kw, true
		}
	}
	return "", false
}

func inAnyRange(ranges []*net.IPNet, raw string) (string, bool) {
	ip := net.ParseIP(strings.TrimSpace(raw))
	if ip == nil {
		return "", false
	}
	for _, network := range ranges {
		if network.Contains(ip) {
			return network.String(), true
		}
	}
	return "", false
}
