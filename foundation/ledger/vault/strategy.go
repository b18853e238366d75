package vault

import "fmt"

// List of strategy versions.
const (
	VersionV1 = "v1"
	VersionV2 = "v2"
)

// Strategy defines the fee policy behavior a vault version must
// implement.
type Strategy interface {
	Version() string
	FeeOn(amount uint64) uint64
}

// Map of strategy versions with construction functions.
var strategies = map[string]func() Strategy{
	VersionV1: func() Strategy { return v1{} },
	VersionV2: func() Strategy { return v2{} },
}

// Retrieve returns the strategy for the specified version.
func Retrieve(version string) (Strategy, error) {
	fn, exists := strategies[version]
	if !exists {
		return nil, fmt.Errorf("%w: %q", ErrUnknownVersion, version)
	}

	return fn(), nil
}

// =============================================================================

// v1 charges no deposit fee.
type v1 struct{}

// Version returns the version identity.
func (v1) Version() string {
	return VersionV1
}

// FeeOn reports no fee for any amount.
func (v1) FeeOn(amount uint64) uint64 {
	return 0
}

// =============================================================================

// v2 charges a 30 basis point deposit fee, truncated.
type v2 struct{}

// Version returns the version identity.
func (v2) Version() string {
	return VersionV2
}

// FeeOn reports amount * 30 / 10000, truncated toward zero. The split
// keeps the intermediate products inside uint64 for any amount.
func (v2) FeeOn(amount uint64) uint64 {
	const bps = 30
	return amount/10_000*bps + amount%10_000*bps/10_000
}
