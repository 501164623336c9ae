package config

import (
	"fmt"

	"github.com/grailbio/base/log"

	"github.com/ludo-technologies/seqgate/domain"
	"github.com/ludo-technologies/seqgate/internal/checker"
)

// Resolution is the rule set selected for one run
type Resolution struct {
	Instrument string
	Bucket     string

	// Distance is how far the run read length is from the bucket, 0 for a match
	Distance int

	// Checkers are the merged checker configs in evaluation order
	Checkers []domain.CheckerConfig
	View     string
}

// Resolve selects the bucket matching the run and merges the default
// handlers with it. Bucket entries replace default entries of the same
// checker, severity downgrades are applied last.
func (c *QCConfig) Resolve(instrument string, readLength int, opts domain.GatherOptions) (*Resolution, error) {
	rules, ok := c.Instrument(instrument)
	if !ok || len(rules.Buckets) == 0 {
		return nil, domain.NewConfigEntryMissingError(instrument, readLength)
	}

	best := closestBucket(rules.Buckets, readLength)
	distance := best.Distance(readLength)
	if distance > 0 {
		if !opts.UseClosestReadLength {
			return nil, domain.NewConfigEntryMissingError(instrument, readLength)
		}
		log.Debug.Printf("no bucket of %s contains read length %d, using closest bucket %s", instrument, readLength, best.Key)
	}

	checkers := mergeHandlers(c.DefaultHandlers, best.Handlers)
	downgrade(checkers, opts.DowngradeErrorsFor)

	view := opts.View
	if view == "" {
		view = best.View
	}
	if view == "" {
		view = domain.DefaultView
	}
	if !domain.IsKnownView(view) {
		return nil, domain.NewConfigError(fmt.Sprintf("%s/%s: unknown view %q", instrument, best.Key, view), nil)
	}

	return &Resolution{
		Instrument: instrument,
		Bucket:     best.Key,
		Distance:   distance,
		Checkers:   checkers,
		View:       view,
	}, nil
}

// closestBucket picks the bucket with the smallest distance. Ties go to the
// bucket reaching the larger read length.
func closestBucket(buckets []Bucket, readLength int) Bucket {
	best := buckets[0]
	for _, b := range buckets[1:] {
		d, bd := b.Distance(readLength), best.Distance(readLength)
		if d < bd || (d == bd && b.High > best.High) {
			best = b
		}
	}
	return best
}

func mergeHandlers(defaults, bucket []Handler) []domain.CheckerConfig {
	var merged []domain.CheckerConfig
	position := make(map[string]int)

	for _, handlers := range [][]Handler{defaults, bucket} {
		for _, h := range handlers {
			cfg := toCheckerConfig(h)
			if i, ok := position[cfg.Name]; ok {
				merged[i] = cfg
				continue
			}
			position[cfg.Name] = len(merged)
			merged = append(merged, cfg)
		}
	}
	return merged
}

func toCheckerConfig(h Handler) domain.CheckerConfig {
	params := make(map[string]any, len(h.Params))
	for k, v := range h.Params {
		switch k {
		case "error":
			params[domain.ParamErrorThreshold] = v
		case "warning":
			params[domain.ParamWarningThreshold] = v
		default:
			params[k] = v
		}
	}
	return domain.CheckerConfig{Name: checker.CanonicalName(h.Name), Params: params}
}

func downgrade(configs []domain.CheckerConfig, names []string) {
	for _, name := range names {
		name = checker.CanonicalName(name)
		for i := range configs {
			if configs[i].Name != name {
				continue
			}
			raw, ok := configs[i].Params[domain.ParamErrorThreshold]
			if !ok {
				continue
			}
			if t, err := domain.ParseThreshold(raw); err == nil && t.IsUnknown() {
				continue
			}
			log.Printf("Downgrading errors for %s to warnings.", name)
			configs[i].Params[domain.ParamWarningThreshold] = raw
			configs[i].Params[domain.ParamErrorThreshold] = domain.UnknownThreshold
		}
	}
}
