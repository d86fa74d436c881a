package models

import (
	"fmt"
	"strings"

	dErrors "dua/pkg/domain-errors"
)

// Feature names a capability guarded by a one-way kill switch.
type Feature string

const (
	FeaturePause     Feature = "pause"
	FeatureMint      Feature = "mint"
	FeatureBurn      Feature = "burn"
	FeatureAddMinter Feature = "add-minter"
	FeatureAddAdmin  Feature = "add-admin"
)

// Features lists every kill-switchable capability in a stable order.
var Features = []Feature{FeaturePause, FeatureMint, FeatureBurn, FeatureAddMinter, FeatureAddAdmin}

var featureLabels = map[Feature]string{
	FeaturePause:     "Pausable",
	FeatureMint:      "Minting",
	FeatureBurn:      "Burning",
	FeatureAddMinter: "Minter addition",
	FeatureAddAdmin:  "Admin addition",
}

func (f Feature) IsValid() bool {
	_, ok := featureLabels[f]
	return ok
}

// Label is the capitalised capability name used in error messages.
func (f Feature) Label() string {
	if label, ok := featureLabels[f]; ok {
		return label
	}
	return string(f)
}

func (f Feature) String() string {
	return string(f)
}

// ParseFeature accepts "add-minter", "add_minter" or "addMinter".
func ParseFeature(s string) (Feature, error) {
	normalized := strings.ToLower(strings.TrimSpace(s))
	normalized = strings.ReplaceAll(normalized, "_", "-")
	switch normalized {
	case "addminter":
		normalized = string(FeatureAddMinter)
	case "addadmin":
		normalized = string(FeatureAddAdmin)
	}
	f := Feature(normalized)
	if !f.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, fmt.Sprintf("unknown feature %q", s))
	}
	return f, nil
}
