package reconcile

import (
	"strings"

	"github.com/git-pkgs/modsync/internal/core"
)

// AssetRule decides whether an asset file name is a mod distributable.
type AssetRule func(name string) bool

// Suffix rule for mod jars. Excluded suffixes mark developer builds,
// source bundles and API-only stubs.
const modSuffix = ".jar"

var excludedSuffixes = []string{"dev.jar", "sources.jar", "api.jar"}

// DefaultAssetRule accepts jars that are not dev, sources or api jars.
var DefaultAssetRule AssetRule = Qualifies

// Qualifies reports whether name is a mod distributable under the default rule.
func Qualifies(name string) bool {
	if !strings.HasSuffix(name, modSuffix) {
		return false
	}
	for _, s := range excludedSuffixes {
		if strings.HasSuffix(name, s) {
			return false
		}
	}
	return true
}

// SelectAsset returns the last qualifying asset in listing order.
func SelectAsset(assets []core.Asset) (core.Asset, bool) {
	return SelectAssetWith(DefaultAssetRule, assets)
}

// SelectAssetWith folds over assets in order, keeping the latest one rule
// accepts.
func SelectAssetWith(rule AssetRule, assets []core.Asset) (core.Asset, bool) {
	var (
		selected core.Asset
		found    bool
	)
	for _, a := range assets {
		if rule(a.Name) {
			selected, found = a, true
		}
	}
	return selected, found
}
