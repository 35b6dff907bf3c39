package classify

import (
	"fmt"
	"strings"

	"cmdb-sync/core/cmdb"
	"cmdb-sync/core/utils"
	"cmdb-sync/feature/fleet"
)

// Category is the asset category a host classifies into.
type Category string

const (
	CategoryExcludedInfra  Category = "excluded-infra"
	CategoryHypervisorHost Category = "hypervisor-host"
	CategoryCloudDesktop   Category = "cloud-desktop"
	CategoryCloudVM        Category = "cloud-vm"
	CategoryVirtualizedVM  Category = "virtualized-vm"
	CategoryOnPremServer   Category = "onprem-server"
	CategoryAppliance      Category = "appliance"
	CategoryMobile         Category = "mobile"
	CategoryUnknown        Category = "unknown"
)

// Classification is the per-run verdict for one host. Type is empty for
// excluded hosts. Reason names the deciding signal.
type Classification struct {
	Category Category `json:"category"`
	Type     string   `json:"type"`
	Exclude  bool     `json:"exclude"`
	Reason   string   `json:"reason"`
	Rule     string   `json:"rule"`
}

// rule is one entry of the ordered rule table. apply returns ok=false when
// the rule does not decide the host.
type rule struct {
	name  string
	apply func(host fleet.HostRecord, enr fleet.Enrichment, t *Tables) (Classification, bool)
}

// rules is the fixed-priority policy table. The order is a policy decision;
// do not reorder without operator sign-off.
var rules = []rule{
	{"exclusion-pattern", classifyExcludedInfra},
	{"hypervisor-kernel", classifyHypervisor},
	{"cloud-desktop-name", classifyCloudDesktop},
	{"instance-metadata", classifyCloudMetadata},
	{"windows-virtualized", classifyWindowsVirtualized},
	{"windows-cloud-subnet", classifyWindowsCloudSubnet},
	{"windows-default", classifyWindowsDefault},
	{"linux", classifyLinux},
	{"mobile", classifyMobile},
}

// Classify evaluates the rule table against a host and its enrichment.
// It is a pure function: identical inputs always yield an identical
// Classification.
func Classify(host fleet.HostRecord, enr fleet.Enrichment, t *Tables) Classification {
	for _, r := range rules {
		if c, ok := r.apply(host, enr, t); ok {
			c.Rule = r.name
			return c
		}
	}
	// No rule matched: keep the host visible rather than dropping it, but
	// flag the classification so operators can fix the tables.
	return Classification{
		Category: CategoryUnknown,
		Type:     cmdb.TypePhysicalServer,
		Rule:     "unknown-fallback",
		Reason:   fmt.Sprintf("no classification rule matched OS %q; defaulting to %s", host.OS, cmdb.TypePhysicalServer),
	}
}

func classifyExcludedInfra(host fleet.HostRecord, _ fleet.Enrichment, t *Tables) (Classification, bool) {
	name := utils.ShortHostname(host.Hostname)
	if pat, ok := matchAny(t.ExclusionPatterns, name); ok {
		return Classification{
			Category: CategoryExcludedInfra,
			Exclude:  true,
			Reason:   fmt.Sprintf("hostname matches infrastructure exclusion pattern %q", pat),
		}, true
	}
	return Classification{}, false
}

func classifyHypervisor(host fleet.HostRecord, _ fleet.Enrichment, t *Tables) (Classification, bool) {
	if kw, ok := containsAny(t.HypervisorKeywords, strings.ToLower(host.OS)); ok {
		return Classification{
			Category: CategoryHypervisorHost,
			Type:     cmdb.TypeHypervisor,
			Reason:   fmt.Sprintf("operating system %q is a bare-metal hypervisor kernel (%s)", host.OS, kw),
		}, true
	}
	return Classification{}, false
}

func classifyCloudDesktop(host fleet.HostRecord, _ fleet.Enrichment, t *Tables) (Classification, bool) {
	name := utils.NormalizeHostname(host.Hostname)
	if pat, ok := matchAny(t.CloudDesktopPatterns, name); ok {
		return Classification{
			Category: CategoryCloudDesktop,
			Type:     cmdb.TypeCloudDesktop,
			Reason:   fmt.Sprintf("hostname matches cloud desktop naming convention %q", pat),
		}, true
	}
	return Classification{}, false
}

func classifyCloudMetadata(_ fleet.HostRecord, enr fleet.Enrichment, _ *Tables) (Classification, bool) {
	if enr.CloudProvider == "" {
		return Classification{}, false
	}
	return Classification{
		Category: CategoryCloudVM,
		Type:     cmdb.TypeCloudServer,
		Reason:   fmt.Sprintf("cloud instance metadata reported by provider %q", enr.CloudProvider),
	}, true
}

func classifyWindowsVirtualized(host fleet.HostRecord, enr fleet.Enrichment, t *Tables) (Classification, bool) {
	if _, ok := containsAny(t.WindowsKeywords, strings.ToLower(host.OS)); !ok {
		return Classification{}, false
	}
	if signal, ok := virtGuestSignal(enr, t); ok {
		return Classification{
			Category: CategoryVirtualizedVM,
			Type:     cmdb.TypeVirtualServer,
			Reason:   fmt.Sprintf("virtualization guest signal (%s)", signal),
		}, true
	}
	if cidr, ok := inAnyRange(t.LegacyOnPremCIDRs, host.IP); ok {
		return Classification{
			Category: CategoryVirtualizedVM,
			Type:     cmdb.TypeVirtualServer,
			Reason:   fmt.Sprintf("IP %s in legacy on-premises range %s", host.IP, cidr),
		}, true
	}
	return Classification{}, false
}

func classifyWindowsCloudSubnet(host fleet.HostRecord, _ fleet.Enrichment, t *Tables) (Classification, bool) {
	if _, ok := containsAny(t.WindowsKeywords, strings.ToLower(host.OS)); !ok {
		return Classification{}, false
	}
	if cidr, ok := inAnyRange(t.CloudCIDRs, host.IP); ok {
		return Classification{
			Category: CategoryCloudVM,
			Type:     cmdb.TypeCloudServer,
			Reason:   fmt.Sprintf("IP %s in cloud subnet %s (no instance metadata)", host.IP, cidr),
		}, true
	}
	return Classification{}, false
}

func classifyWindowsDefault(host fleet.HostRecord, _ fleet.Enrichment, t *Tables) (Classification, bool) {
	if _, ok := containsAny(t.WindowsKeywords, strings.ToLower(host.OS)); !ok {
		return Classification{}, false
	}
	return Classification{
		Category: CategoryOnPremServer,
		Type:     cmdb.TypePhysicalServer,
		Reason:   "windows family OS with no virtualization or cloud signal",
	}, true
}

// classifyLinux covers the linux family: cloud subnet fallback first, then
// known appliance name fragments, else a generic appliance.
func classifyLinux(host fleet.HostRecord, _ fleet.Enrichment, t *Tables) (Classification, bool) {
	if _, ok := containsAny(t.LinuxKeywords, strings.ToLower(host.OS)); !ok {
		return Classification{}, false
	}
	if cidr, ok := inAnyRange(t.CloudCIDRs, host.IP); ok {
		return Classification{
			Category: CategoryCloudVM,
			Type:     cmdb.TypeCloudServer,
			Reason:   fmt.Sprintf("IP %s in cloud subnet %s (no instance metadata)", host.IP, cidr),
		}, true
	}
	name := utils.ShortHostname(host.Hostname)
	if frag, ok := containsAny(t.ApplianceFragments, name); ok {
		return Classification{
			Category: CategoryAppliance,
			Type:     cmdb.TypeAppliance,
			Reason:   fmt.Sprintf("hostname contains appliance fragment %q", frag),
		}, true
	}
	return Classification{
		Category: CategoryAppliance,
		Type:     cmdb.TypeAppliance,
		Reason:   "linux family OS with no cloud or appliance signal; treating as generic appliance",
	}, true
}

func classifyMobile(host fleet.HostRecord, _ fleet.Enrichment, t *Tables) (Classification, bool) {
	if kw, ok := containsAny(t.MobileKeywords, strings.ToLower(host.OS)); ok {
		return Classification{
			Category: CategoryMobile,
			Exclude:  true,
			Reason:   fmt.Sprintf("mobile operating system (%s)", kw),
		}, true
	}
	return Classification{}, false
}

// virtGuestSignal reports whether the enrichment carries a hypervisor
// guest signal and names it.
func virtGuestSignal(enr fleet.Enrichment, t *Tables) (string, bool) {
	if enr.VirtualizationGuest {
		return "collector guest flag", true
	}
	if m, ok := containsAny(t.VirtManufacturers, strings.ToLower(enr.Manufacturer)); ok {
		return fmt.Sprintf("manufacturer %q", m), true
	}
	return "", false
}
