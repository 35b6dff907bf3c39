package classify

import (
	"testing"

	"cmdb-sync/core/cmdb"
	"cmdb-sync/feature/fleet"

	"github.com/stretchr/testify/assert"
)

// TestClassify_RuleTable walks one host through each rule of the table.
func TestClassify_RuleTable(t *testing.T) {
	tables := DefaultTables()

	cases := []struct {
		name     string
		host     fleet.HostRecord
		enr      fleet.Enrichment
		category Category
		recType  string
		exclude  bool
	}{
		{
			name:     "exclusion pattern",
			host:     fleet.HostRecord{Hostname: "esx01.corp.example.com", OS: "VMware ESXi 8.0"},
			category: CategoryExcludedInfra,
			exclude:  true,
		},
		{
			name:     "hypervisor kernel",
			host:     fleet.HostRecord{Hostname: "hv-lab-01", OS: "VMkernel 8.0.2"},
			category: CategoryHypervisorHost,
			recType:  cmdb.TypeHypervisor,
		},
		{
			name:     "cloud desktop naming",
			host:     fleet.HostRecord{Hostname: "WSAMZN-4K2JF9", OS: "Windows 11 Enterprise"},
			category: CategoryCloudDesktop,
			recType:  cmdb.TypeCloudDesktop,
		},
		{
			name:     "instance metadata",
			host:     fleet.HostRecord{Hostname: "app07", IP: "10.20.4.9", OS: "Windows Server 2019"},
			enr:      fleet.Enrichment{CloudProvider: "aws"},
			category: CategoryCloudVM,
			recType:  cmdb.TypeCloudServer,
		},
		{
			name:     "windows guest signal",
			host:     fleet.HostRecord{Hostname: "web01", IP: "10.99.1.1", OS: "Windows Server 2022"},
			enr:      fleet.Enrichment{Manufacturer: "VMware, Inc."},
			category: CategoryVirtualizedVM,
			recType:  cmdb.TypeVirtualServer,
		},
		{
			name:     "windows legacy on-prem range",
			host:     fleet.HostRecord{Hostname: "web02", IP: "10.20.1.15", OS: "Windows Server 2022"},
			category: CategoryVirtualizedVM,
			recType:  cmdb.TypeVirtualServer,
		},
		{
			name:     "windows cloud subnet fallback",
			host:     fleet.HostRecord{Hostname: "web03", IP: "10.70.3.2", OS: "Windows Server 2022"},
			category: CategoryCloudVM,
			recType:  cmdb.TypeCloudServer,
		},
		{
			name:     "windows no signal",
			host:     fleet.HostRecord{Hostname: "dc01", IP: "10.30.0.5", OS: "Windows Server 2016"},
			category: CategoryOnPremServer,
			recType:  cmdb.TypePhysicalServer,
		},
		{
			name:     "linux cloud subnet",
			host:     fleet.HostRecord{Hostname: "api01", IP: "172.31.9.8", OS: "Ubuntu 22.04.4 LTS"},
			category: CategoryCloudVM,
			recType:  cmdb.TypeCloudServer,
		},
		{
			name:     "linux appliance fragment",
			host:     fleet.HostRecord{Hostname: "nas02.corp.example.com", IP: "10.30.9.3", OS: "Linux 5.15 (TrueNAS)"},
			category: CategoryAppliance,
			recType:  cmdb.TypeAppliance,
		},
		{
			name:     "linux generic appliance",
			host:     fleet.HostRecord{Hostname: "box9", IP: "10.30.9.4", OS: "Debian GNU/Linux 12"},
			category: CategoryAppliance,
			recType:  cmdb.TypeAppliance,
		},
		{
			name:     "mobile always excluded",
			host:     fleet.HostRecord{Hostname: "ipad-ceo", OS: "iOS 17.5"},
			category: CategoryMobile,
			exclude:  true,
		},
		{
			name:     "unknown fallback",
			host:     fleet.HostRecord{Hostname: "mystery01", IP: "10.30.1.1", OS: "OpenVMS 9.2"},
			category: CategoryUnknown,
			recType:  cmdb.TypePhysicalServer,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := Classify(tc.host, tc.enr, tables)
			assert.Equal(t, tc.category, c.Category)
			assert.Equal(t, tc.recType, c.Type)
			assert.Equal(t, tc.exclude, c.Exclude)
			assert.NotEmpty(t, c.Reason)
		})
	}
}

// TestClassify_CloudMetadataBeatsGuestSignal tests rule precedence: a host
// with both a cloud-metadata signal and a virtualization-guest signal is a
// cloud VM, because rule 4 precedes rule 5.
func TestClassify_CloudMetadataBeatsGuestSignal(t *testing.T) {
	host := fleet.HostRecord{Hostname: "db01", IP: "10.20.2.2", OS: "Windows Server 2022"}
	enr := fleet.Enrichment{CloudProvider: "azure", VirtualizationGuest: true}

	c := Classify(host, enr, DefaultTables())
	assert.Equal(t, CategoryCloudVM, c.Category)
	assert.Equal(t, cmdb.TypeCloudServer, c.Type)
	assert.Equal(t, "instance-metadata", c.Rule)
}

// TestClassify_Deterministic tests that identical inputs yield identical
// classifications.
func TestClassify_Deterministic(t *testing.T) {
	tables := DefaultTables()
	host := fleet.HostRecord{Hostname: "web01", IP: "10.20.1.15", OS: "Windows Server 2022"}
	enr := fleet.Enrichment{VirtualizationGuest: true}

	first := Classify(host, enr, tables)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, Classify(host, enr, tables))
	}
}

// TestClassify_ExcludedHaveNoType tests that every excluded host carries no
// recommended type.
func TestClassify_ExcludedHaveNoType(t *testing.T) {
	tables := DefaultTables()
	hosts := []fleet.HostRecord{
		{Hostname: "vcenter01", OS: "VMware Photon OS"},
		{Hostname: "idrac-r740-3", OS: "iDRAC"},
		{Hostname: "phone-ops", OS: "Android 14"},
	}
	for _, host := range hosts {
		c := Classify(host, fleet.Enrichment{}, tables)
		assert.True(t, c.Exclude, "host %s should be excluded", host.Hostname)
		assert.Empty(t, c.Type, "host %s should have no recommended type", host.Hostname)
	}
}
