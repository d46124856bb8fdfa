package filesystem

// yamlRulesFile is the YAML deserialization target for advisory_rules.yaml.
type yamlRulesFile struct {
	Rules   []yamlRule `yaml:"rules"`
	Default *yamlRule  `yaml:"default,omitempty"`
}

type yamlRule struct {
	Category string   `yaml:"category"`
	Contains []string `yaml:"contains,omitempty"`
	When     string   `yaml:"when,omitempty"`
	Engine   string   `yaml:"engine,omitempty"`
	Template string   `yaml:"template"`
}

// yamlOperationsFile is the YAML deserialization target for operations.yaml.
type yamlOperationsFile struct {
	Operations []yamlOperation `yaml:"operations"`
}

type yamlOperation struct {
	Code        string   `yaml:"code"`
	Description string   `yaml:"description"`
	Temperature string   `yaml:"temperature,omitempty"`
	Scripts     []string `yaml:"recommended_scripts,omitempty"`
}
