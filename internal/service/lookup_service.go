package service

import (
	"context"
	"fmt"
	"math"
	"time"

	apperrors "github.com/xrpl-farmer-api/internal/errors"
	"github.com/xrpl-farmer-api/internal/logging"
	"github.com/xrpl-farmer-api/internal/metrics"
	"github.com/xrpl-farmer-api/internal/models"
	"github.com/xrpl-farmer-api/internal/xrpl"
)

// Client-facing messages
const (
	MsgMissingAddress   = "Missing required query parameter [xrpl_address] to use this endpoint."
	MsgMissingAddresses = "Missing required [xrpl_addresses] property from payload body."
	MsgNotAnArray       = "The [xrpl_addresses] property must be be of type array filled with XRPL addresses as strings."
	MsgEmptyAddresses   = "The [xrpl_addresses] property must contain minimum of 1 XRPL address string."
)

// FarmerStore looks up blocklist records. *storage.FarmerRepository implements it.
type FarmerStore interface {
	FindByAddresses(ctx context.Context, addresses []string) ([]models.FarmerRecord, error)
}

// LookupConfig holds lookup service settings
type LookupConfig struct {
	// DatabaseName is the only database detail ever shown to callers.
	DatabaseName string

	// MaxBulkAddresses caps the size of a bulk request.
	MaxBulkAddresses int
}

// VerifyResult is the response to a single-address lookup
type VerifyResult struct {
	IsFarmer              bool    `json:"isFarmer"`
	LookupDurationSeconds float64 `json:"lookupDurationSeconds"`
}

// BulkVerifyResult is the response to a bulk lookup
type BulkVerifyResult struct {
	XRPLAddressesCleaned  []string `json:"xrplAddressesCleaned"`
	XRPLAddressesFarmers  []string `json:"xrplAddressesFarmers"`
	TotalFarmersFound     int      `json:"totalFarmersFound"`
	LookupDurationSeconds float64  `json:"lookupDurationSeconds"`
}

// LookupService checks addresses against the farmer blocklist.
// It holds no per-request state and is safe for concurrent use.
type LookupService struct {
	store  FarmerStore
	config LookupConfig
	logger *logging.Logger
	now    func() time.Time
}

// NewLookupService creates a new lookup service
func NewLookupService(store FarmerStore, config LookupConfig, logger *logging.Logger) *LookupService {
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}
	return &LookupService{
		store:  store,
		config: config,
		logger: logger,
		now:    time.Now,
	}
}

// Verify reports whether a single classic address is on the blocklist.
// Missing or malformed addresses are rejected before any query runs.
func (s *LookupService) Verify(ctx context.Context, address string) (*VerifyResult, error) {
	if address == "" {
		return nil, apperrors.NewMissingParameterError("xrpl_address", MsgMissingAddress)
	}
	if !xrpl.IsValidClassicAddress(address) {
		return nil, apperrors.NewInvalidAddressError(address)
	}

	records, elapsed, err := s.find(ctx, []string{address})
	if err != nil {
		return nil, err
	}

	metrics.ObserveLookup(metrics.KindSingle, elapsed)
	metrics.AddAddresses(1)
	if len(records) > 0 {
		metrics.AddFarmersFound(1)
	}

	return &VerifyResult{
		IsFarmer:              len(records) > 0,
		LookupDurationSeconds: roundSeconds(elapsed),
	}, nil
}

// VerifyBulk partitions addresses into farmers and cleaned addresses.
// Entries are not checked for classic address format; unknown strings simply
// end up in the cleaned list.
func (s *LookupService) VerifyBulk(ctx context.Context, addresses []string) (*BulkVerifyResult, error) {
	if len(addresses) == 0 {
		return nil, apperrors.NewInvalidPayloadError("xrpl_addresses", MsgEmptyAddresses)
	}
	if s.config.MaxBulkAddresses > 0 && len(addresses) > s.config.MaxBulkAddresses {
		return nil, apperrors.NewInvalidPayloadError("xrpl_addresses",
			fmt.Sprintf("The [xrpl_addresses] property must contain at most %d XRPL address strings.", s.config.MaxBulkAddresses))
	}

	records, elapsed, err := s.find(ctx, addresses)
	if err != nil {
		return nil, err
	}

	cleaned, farmers := Partition(addresses, records)

	metrics.ObserveLookup(metrics.KindBulk, elapsed)
	metrics.AddAddresses(len(addresses))
	metrics.AddFarmersFound(len(farmers))

	return &BulkVerifyResult{
		XRPLAddressesCleaned:  cleaned,
		XRPLAddressesFarmers:  farmers,
		TotalFarmersFound:     len(farmers),
		LookupDurationSeconds: roundSeconds(elapsed),
	}, nil
}

// find runs the store query and times the round trip
func (s *LookupService) find(ctx context.Context, addresses []string) ([]models.FarmerRecord, time.Duration, error) {
	start := s.now()
	records, err := s.store.FindByAddresses(ctx, addresses)
	elapsed := s.now().Sub(start)

	if err != nil {
		metrics.IncDatabaseErr()
		logging.FromContextOr(ctx, s.logger).WithError(err).WithFields(map[string]interface{}{
			"addresses": len(addresses),
			"database":  s.config.DatabaseName,
		}).Error("Farmer lookup query failed")
		return nil, elapsed, apperrors.NewDatabaseError(s.config.DatabaseName, err)
	}

	return records, elapsed, nil
}

// roundSeconds converts d to seconds rounded to two decimals, never negative
func roundSeconds(d time.Duration) float64 {
	if d <= 0 {
		return 0
	}
	return math.Round(d.Seconds()*100) / 100
}
