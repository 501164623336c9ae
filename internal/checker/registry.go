package checker

import (
	"sort"

	"github.com/ludo-technologies/seqgate/domain"
)

var registry = map[string]Checker{
	ClusterPF: {
		Name:        ClusterPF,
		Description: "clusters passing filter per lane, in millions",
		Direction:   domain.HigherIsBetter,
		Params:      thresholdParams,
		run:         checkClusterPF,
	},
	ErrorRate: {
		Name:        ErrorRate,
		Description: "PhiX error rate per lane and read",
		Direction:   domain.LowerIsBetter,
		Params:      append(append([]Param(nil), thresholdParams...), Param{Name: ParamAllowMissingErrorRate}),
		run:         checkErrorRate,
		validate:    validateErrorRate,
	},
	PercentQ30: {
		Name:        PercentQ30,
		Description: "percentage of bases at Q30 or above per lane and read",
		Direction:   domain.HigherIsBetter,
		Params:      thresholdParams,
		run:         checkPercentQ30,
	},
	ReadsPerSample: {
		Name:        ReadsPerSample,
		Description: "reads per sample, lane budget in millions split across samples",
		Direction:   domain.HigherIsBetter,
		Params:      thresholdParams,
		run:         checkReadsPerSample,
	},
	UndeterminedPercentage: {
		Name:        UndeterminedPercentage,
		Description: "undetermined yield percentage per lane, corrected for PhiX",
		Direction:   domain.LowerIsBetter,
		Params:      thresholdParams,
		run:         checkUndeterminedPercentage,
	},
	UnidentifiedIndex: {
		Name:        UnidentifiedIndex,
		Description: "overrepresented unknown barcodes with likely samplesheet causes",
		Params: []Param{
			{Name: ParamSignificanceThreshold, Required: true},
			{Name: ParamWhiteListedIndexes},
		},
		run:      checkUnidentifiedIndex,
		validate: validateUnidentifiedIndex,
	},
	Yield: {
		Name:        Yield,
		Description: "base yield per lane, in Gbp",
		Direction:   domain.HigherIsBetter,
		Params:      thresholdParams,
		run:         checkYield,
	},
}

// handler names used by older rule files
var legacyNames = map[string]string{
	"ClusterPFHandler":              ClusterPF,
	"ErrorRateHandler":              ErrorRate,
	"Q30Handler":                    PercentQ30,
	"ReadsPerSampleHandler":         ReadsPerSample,
	"UndeterminedPercentageHandler": UndeterminedPercentage,
	"UnidentifiedIndexHandler":      UnidentifiedIndex,
	"YieldHandler":                  Yield,
}

// CanonicalName maps a legacy handler name to its checker name.
// Other names are returned unchanged.
func CanonicalName(name string) string {
	if canonical, ok := legacyNames[name]; ok {
		return canonical
	}
	return name
}

// Lookup returns the checker registered under name or a legacy alias of it
func Lookup(name string) (Checker, bool) {
	c, ok := registry[CanonicalName(name)]
	return c, ok
}

// Names returns the registered checker names in alphabetical order
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// All returns every registered checker, ordered by name
func All() []Checker {
	names := Names()
	out := make([]Checker, 0, len(names))
	for _, name := range names {
		out = append(out, registry[name])
	}
	return out
}

// Validate checks a resolved config against its checker
func Validate(cfg domain.CheckerConfig) error {
	c, ok := Lookup(cfg.Name)
	if !ok {
		return domain.NewCheckerConfigError(cfg.Name, "name", "unknown checker")
	}
	return c.Validate(cfg)
}
