// Package classify assigns each fleet host to an asset category and a
// recommended remote record type.
//
// Classification is a pure function over the host record, its enrichment,
// and a set of static tables (name patterns, subnet ranges, OS-family
// keywords). The rules form an ordered table; order is policy and is
// preserved exactly:
//
//  1. infrastructure exclusion patterns
//  2. bare-metal hypervisor kernels
//  3. cloud-desktop naming conventions
//  4. cloud instance-metadata signal
//  5. windows family + virtualization guest signal or legacy on-prem range
//  6. windows family + cloud subnet (fallback when enrichment failed)
//  7. windows family, no other signal
//  8. linux family: cloud subnet, then appliance fragments, else appliance
//  9. mobile OS (always excluded)
//  10. fallback: unknown, defaulting to the physical-server type
//
// Only excluded-infra and mobile hosts carry Exclude=true. Every result
// names the deciding signal in its Reason; operators triage from these
// strings.
package classify
