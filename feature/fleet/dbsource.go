package fleet

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"cmdb-sync/core/database"
	"cmdb-sync/core/utils"

	"gorm.io/gorm"
)

// hostRow maps the collector's inventory table. Host identity and
// enrichment live in one row; the collector rewrites rows on every scan.
type hostRow struct {
	Hostname      string     `gorm:"column:hostname"`
	IP            string     `gorm:"column:ip"`
	OS            string     `gorm:"column:os"`
	CloudProvider string     `gorm:"column:cloud_provider"`
	VirtGuest     bool       `gorm:"column:virt_guest"`
	Manufacturer  string     `gorm:"column:manufacturer"`
	SerialNumber  string     `gorm:"column:serial_number"`
	UUID          string     `gorm:"column:uuid"`
	Tags          string     `gorm:"column:tags"`
	LastSeenAt    *time.Time `gorm:"column:last_seen_at"`
}

func (hostRow) TableName() string {
	return "fleet_hosts"
}

// DBSource reads the fleet from the collector's MySQL inventory database.
type DBSource struct {
	db *gorm.DB
}

// Compile-time interface check.
var _ Source = (*DBSource)(nil)

// NewDBSource creates a fleet source over an inventory database connection.
func NewDBSource(db *gorm.DB) *DBSource {
	return &DBSource{db: db}
}

// requiredColumns are the inventory columns the source reads.
var requiredColumns = []string{
	"hostname", "ip", "os",
	"cloud_provider", "virt_guest", "manufacturer", "serial_number", "uuid", "tags",
}

// Verify checks that the inventory table carries every column the source
// reads, so schema drift fails at startup instead of mid-run.
func (s *DBSource) Verify() error {
	table := hostRow{}.TableName()
	missing, err := database.VerifyColumns(s.db, table, requiredColumns)
	if err != nil {
		return err
	}
	if len(missing) > 0 {
		return fmt.Errorf("inventory table %s is missing columns: %s", table, strings.Join(missing, ", "))
	}
	return nil
}

// ListHosts returns every host row as a HostRecord.
func (s *DBSource) ListHosts(ctx context.Context) ([]HostRecord, error) {
	var rows []hostRow
	if err := s.db.WithContext(ctx).Select("hostname", "ip", "os").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list fleet hosts: %w", err)
	}

	hosts := make([]HostRecord, 0, len(rows))
	for _, row := range rows {
		hosts = append(hosts, HostRecord{Hostname: row.Hostname, IP: row.IP, OS: row.OS})
	}
	return hosts, nil
}

// Enrichment loads the collector signals for one host. A host unknown to
// the inventory returns ok=false without an error.
func (s *DBSource) Enrichment(ctx context.Context, hostname string) (Enrichment, bool, error) {
	var row hostRow
	err := s.db.WithContext(ctx).
		Where("LOWER(hostname) = ?", utils.NormalizeHostname(hostname)).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Enrichment{}, false, nil
	}
	if err != nil {
		return Enrichment{}, false, fmt.Errorf("failed to load enrichment for %s: %w", hostname, err)
	}

	enr := Enrichment{
		CloudProvider:       row.CloudProvider,
		VirtualizationGuest: row.VirtGuest,
		Manufacturer:        row.Manufacturer,
		SerialNumber:        row.SerialNumber,
		UUID:                row.UUID,
	}
	if row.Tags != "" {
		// Tags are stored as a JSON object; a malformed value is collector
		// noise, not a reason to drop the rest of the enrichment.
		_ = json.Unmarshal([]byte(row.Tags), &enr.Tags)
	}
	return enr, true, nil
}
