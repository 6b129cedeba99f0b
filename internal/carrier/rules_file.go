package carrier

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// rulesFile is the on-disk layout of a carrier rule list:
//
//	rules:
//	  - carrier: ENVIA
//	    prefixes: ["0240"]
//	  - carrier: 99MINUTOS
//	    digits: 10
type rulesFile struct {
	Rules []Rule `yaml:"rules"`
}

// LoadRules reads an ordered rule list from a YAML file.
func LoadRules(path string) ([]Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseRules(data)
}

// ParseRules decodes and validates a YAML rule list. Every rule must name an
// enumerated carrier other than UNKNOWN and carry at least one prefix or a
// positive digit count.
func ParseRules(data []byte) ([]Rule, error) {
	var f rulesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse carrier rules: %w", err)
	}
	if len(f.Rules) == 0 {
		return nil, errors.New("carrier rules: no rules defined")
	}
	for i, r := range f.Rules {
		id, err := Parse(string(r.Carrier))
		if err != nil || id == Unknown {
			return nil, fmt.Errorf("carrier rules: rule %d: invalid carrier %q", i+1, r.Carrier)
		}
		f.Rules[i].Carrier = id
		if len(r.Prefixes) == 0 && r.Digits <= 0 {
			return nil, fmt.Errorf("carrier rules: rule %d (%s) has no prefixes or digits", i+1, id)
		}
	}
	return f.Rules, nil
}
