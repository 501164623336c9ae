package config

import (
	_ "embed"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/shenwei356/xopen"
	"gopkg.in/yaml.v3"

	"github.com/ludo-technologies/seqgate/domain"
)

// DefaultRulesYAML contains the embedded default QC rule set
//
//go:embed default_rules.yaml
var DefaultRulesYAML []byte

// Top level keys of a rule file that are not instruments
const (
	keyDefaultHandlers      = "default_handlers"
	keyParserConfigurations = "parser_configurations"
)

// Handler is one checker entry of a rule file, parameters keep their raw
// keys ("error", "warning", ...)
type Handler struct {
	Name   string
	Params map[string]any
}

// Bucket is the rule set for a read-length range of one instrument
type Bucket struct {
	// Key is the key as written in the file, "151" or "51-101"
	Key      string
	Low      int
	High     int
	View     string
	Handlers []Handler
}

// Distance is 0 when readLength falls in the bucket, else the distance to
// the nearest bound
func (b Bucket) Distance(readLength int) int {
	switch {
	case readLength < b.Low:
		return b.Low - readLength
	case readLength > b.High:
		return readLength - b.High
	default:
		return 0
	}
}

// InstrumentRules are the buckets of one instrument in file order
type InstrumentRules struct {
	Name    string
	Buckets []Bucket
}

// QCConfig is a parsed QC rule file
type QCConfig struct {
	DefaultHandlers []Handler

	instruments map[string]*InstrumentRules
	order       []string
}

// Instruments returns the instrument names in file order
func (c *QCConfig) Instruments() []string {
	return append([]string(nil), c.order...)
}

// Instrument returns the rules of one instrument
func (c *QCConfig) Instrument(name string) (*InstrumentRules, bool) {
	rules, ok := c.instruments[name]
	return rules, ok
}

// DefaultQCConfig parses the embedded rule set
func DefaultQCConfig() (*QCConfig, error) {
	return ParseQCConfig(DefaultRulesYAML)
}

// LoadQCConfig reads a rule file, an empty path selects the embedded rules
func LoadQCConfig(path string) (*QCConfig, error) {
	if path == "" {
		return DefaultQCConfig()
	}
	r, err := xopen.Ropen(path)
	if err != nil {
		return nil, domain.NewConfigError(fmt.Sprintf("cannot open QC config %s", path), err)
	}
	defer r.Close()

	content, err := io.ReadAll(r)
	if err != nil {
		return nil, domain.NewConfigError(fmt.Sprintf("cannot read QC config %s", path), err)
	}
	cfg, err := ParseQCConfig(content)
	if err != nil {
		return nil, errors.Wrapf(err, "QC config %s", path)
	}
	return cfg, nil
}

// ParseQCConfig decodes a rule file. Keys keep their case and buckets keep
// their order.
func ParseQCConfig(content []byte) (*QCConfig, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(content, &doc); err != nil {
		return nil, domain.NewConfigError("malformed QC config", err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, domain.NewConfigError("QC config is empty", nil)
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, domain.NewConfigError("QC config must be a mapping", nil)
	}

	cfg := &QCConfig{instruments: make(map[string]*InstrumentRules)}
	for i := 0; i+1 < len(root.Content); i += 2 {
		key, value := root.Content[i].Value, root.Content[i+1]
		switch key {
		case keyParserConfigurations:
			continue
		case keyDefaultHandlers:
			handlers, err := decodeHandlers(value, key)
			if err != nil {
				return nil, err
			}
			cfg.DefaultHandlers = handlers
		default:
			rules, err := decodeInstrument(key, value)
			if err != nil {
				return nil, err
			}
			if _, dup := cfg.instruments[key]; !dup {
				cfg.order = append(cfg.order, key)
			}
			cfg.instruments[key] = rules
		}
	}
	return cfg, nil
}

func decodeInstrument(name string, node *yaml.Node) (*InstrumentRules, error) {
	if node.Kind != yaml.MappingNode {
		return nil, domain.NewConfigError(fmt.Sprintf("instrument %s: expected a mapping of read lengths (line %d)", name, node.Line), nil)
	}
	rules := &InstrumentRules{Name: name}
	for i := 0; i+1 < len(node.Content); i += 2 {
		keyNode, value := node.Content[i], node.Content[i+1]
		where := fmt.Sprintf("%s/%s", name, keyNode.Value)

		low, high, err := ParseBucketKey(keyNode.Value)
		if err != nil {
			return nil, domain.NewConfigError(where, err)
		}
		if value.Kind != yaml.MappingNode {
			return nil, domain.NewConfigError(fmt.Sprintf("%s: expected a mapping (line %d)", where, value.Line), nil)
		}

		bucket := Bucket{Key: keyNode.Value, Low: low, High: high}
		for j := 0; j+1 < len(value.Content); j += 2 {
			switch field := value.Content[j].Value; field {
			case "view":
				bucket.View = value.Content[j+1].Value
			case "handlers":
				handlers, err := decodeHandlers(value.Content[j+1], where)
				if err != nil {
					return nil, err
				}
				bucket.Handlers = handlers
			}
		}
		rules.Buckets = append(rules.Buckets, bucket)
	}
	return rules, nil
}

func decodeHandlers(node *yaml.Node, where string) ([]Handler, error) {
	if node.Kind != yaml.SequenceNode {
		return nil, domain.NewConfigError(fmt.Sprintf("%s: handlers must be a list (line %d)", where, node.Line), nil)
	}
	handlers := make([]Handler, 0, len(node.Content))
	for _, item := range node.Content {
		var raw map[string]any
		if err := item.Decode(&raw); err != nil {
			return nil, domain.NewConfigError(fmt.Sprintf("%s: malformed handler (line %d)", where, item.Line), err)
		}
		name, _ := raw["name"].(string)
		if name == "" {
			return nil, domain.NewConfigError(fmt.Sprintf("%s: handler without a name (line %d)", where, item.Line), nil)
		}
		delete(raw, "name")
		handlers = append(handlers, Handler{Name: name, Params: raw})
	}
	return handlers, nil
}

// ParseBucketKey parses "N" or "L-H" into an inclusive range
func ParseBucketKey(key string) (low, high int, err error) {
	key = strings.TrimSpace(key)
	if lo, hi, ok := strings.Cut(key, "-"); ok {
		low, err = strconv.Atoi(strings.TrimSpace(lo))
		if err != nil {
			return 0, 0, fmt.Errorf("invalid read length range %q", key)
		}
		high, err = strconv.Atoi(strings.TrimSpace(hi))
		if err != nil {
			return 0, 0, fmt.Errorf("invalid read length range %q", key)
		}
		if low > high {
			return 0, 0, fmt.Errorf("read length range %q is reversed", key)
		}
		return low, high, nil
	}
	n, err := strconv.Atoi(key)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid read length %q", key)
	}
	return n, n, nil
}
