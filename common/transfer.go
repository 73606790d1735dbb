package common

import (
	"github.com/nspcc-dev/neo-go/pkg/interop/native/std"
)

var (
	enrollmentFeePrefix = []byte{0x01}
	supportFeePrefix    = []byte{0x02}
	prizePrefix         = []byte{0x03}
	supporterCutPrefix  = []byte{0x04}
	releasePrefix       = []byte{0x05}
)

// EnrollmentFeeDetails marks a GAS transfer charging the fixed enrollment fee
// for the given slot.
func EnrollmentFeeDetails(slotID int) []byte {
	return append(enrollmentFeePrefix, std.Serialize(slotID)...)
}

// SupportFeeDetails marks a GAS transfer charging the fixed support fee for
// a vote on the given slot.
func SupportFeeDetails(slotID int) []byte {
	return append(supportFeePrefix, std.Serialize(slotID)...)
}

// PrizeDetails marks a GAS payout of the prize for the given place.
func PrizeDetails(place int) []byte {
	return append(prizePrefix, std.Serialize(place)...)
}

// SupporterCutDetails marks a GAS payout of the per-head remainder share of
// the given edition.
func SupporterCutDetails(edition int) []byte {
	return append(supporterCutPrefix, std.Serialize(edition)...)
}

// ReleaseDetails marks an entry returned to its owner from the given slot.
func ReleaseDetails(slotID int) []byte {
	return append(releasePrefix, std.Serialize(slotID)...)
}
