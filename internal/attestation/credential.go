package attestation

import (
	dErrors "attestgate/pkg/domain-errors"
)

// Credential claim field names as stored in the encrypted credential bundle.
const (
	ClaimAgeMeetsThreshold = "age_meets_threshold"
	ClaimAddressVerified   = "address_verified"
)

// VerifyAgeFromCredential projects the stored age claim off an existing
// credential. No recomputation, no I/O: the claim was asserted at
// verification time and is simply read back.
//
// Errors: CodeValidation when the claim field is absent or not a boolean,
// which indicates data corruption or schema drift rather than a caller bug.
func VerifyAgeFromCredential(credential map[string]any) (bool, error) {
	return projectBoolClaim(credential, ClaimAgeMeetsThreshold)
}

// VerifyAddressFromCredential projects the stored address claim off an
// existing credential. Same contract as the age variant.
func VerifyAddressFromCredential(credential map[string]any) (bool, error) {
	return projectBoolClaim(credential, ClaimAddressVerified)
}

func projectBoolClaim(credential map[string]any, claim string) (bool, error) {
	if credential == nil {
		return false, dErrors.New(dErrors.CodeValidation, "credential is empty")
	}
	raw, ok := credential[claim]
	if !ok {
		return false, dErrors.New(dErrors.CodeValidation, "credential missing claim "+claim)
	}
	value, ok := raw.(bool)
	if !ok {
		return false, dErrors.New(dErrors.CodeValidation, "credential claim "+claim+" is not a boolean")
	}
	return value, nil
}
