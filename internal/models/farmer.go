package models

// FarmerRecord is a matched row of the blocklist table.
// The table is owned externally and only xrpl_address is read; other columns
// such as created_at vary in type between deployments.
type FarmerRecord struct {
	XRPLAddress string `json:"xrplAddress" db:"xrpl_address"`
}
