package upsert

import (
	"cmdb-sync/core/cmdb"
	"cmdb-sync/core/utils"
	"cmdb-sync/feature/classify"
	"cmdb-sync/feature/fleet"
	"cmdb-sync/feature/manifest"
)

// patchedTypes carry the patch/software attribute group. Hypervisors and
// appliances are patched through their own lifecycle tooling and omit it.
var patchedTypes = map[string]bool{
	cmdb.TypePhysicalServer: true,
	cmdb.TypeVirtualServer:  true,
	cmdb.TypeCloudServer:    true,
	cmdb.TypeCloudDesktop:   true,
}

// HostPayload builds the remote payload for a fleet host: the stable
// natural-key fields plus the attribute block selected by the recommended
// type.
func HostPayload(host fleet.HostRecord, enr fleet.Enrichment, cl classify.Classification) map[string]any {
	payload := map[string]any{
		"name":     utils.NormalizeHostname(host.Hostname),
		"hostname": utils.ShortHostname(host.Hostname),
		"ip":       host.IP,
		"os":       host.OS,
		"type":     cl.Type,
	}

	if enr.Manufacturer != "" {
		payload["manufacturer"] = enr.Manufacturer
	}
	if enr.SerialNumber != "" {
		payload["serial_number"] = enr.SerialNumber
	}
	if enr.UUID != "" {
		payload["uuid"] = enr.UUID
	}

	if patchedTypes[cl.Type] {
		payload["software"] = map[string]any{
			"os":           host.OS,
			"patch_policy": "standard",
		}
	}
	if (cl.Type == cmdb.TypeCloudServer || cl.Type == cmdb.TypeCloudDesktop) && enr.CloudProvider != "" {
		payload["cloud_provider"] = enr.CloudProvider
	}

	return payload
}

// CIPayload builds the remote payload for a declared CI.
func CIPayload(ci manifest.CI) map[string]any {
	payload := map[string]any{"name": ci.Name}
	for key, value := range ci.Fields {
		payload[key] = value
	}
	return payload
}

// updateBody returns a copy of the payload without the type field. The
// remote schema rejects type changes on existing records.
func updateBody(payload map[string]any) map[string]any {
	body := make(map[string]any, len(payload))
	for key, value := range payload {
		if key == "type" {
			continue
		}
		body[key] = value
	}
	return body
}
