package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// DecisionPolicy selects how the workflow routes the submission decision.
// The historical behavior is batch-level: one rejected document keeps the
// whole batch away from submission. Per-document routing is available but is
// not the default.
type DecisionPolicy string

const (
	DecisionPolicyBatch       DecisionPolicy = "batch"
	DecisionPolicyPerDocument DecisionPolicy = "per-document"
)

type Config struct {
	DatabaseURL        string
	StatsRejectedLimit int
	Policy             Policy
}

// Policy is the optional YAML-configurable behavior knobs.
type Policy struct {
	DecisionPolicy            DecisionPolicy `yaml:"decision_policy"`
	SimulateRejections        bool           `yaml:"simulate_rejections"`
	DeleteChildrenOnReprocess bool           `yaml:"delete_children_on_reprocess"`
}

func defaultPolicy() Policy {
	return Policy{
		DecisionPolicy: DecisionPolicyBatch,
	}
}

func New() (*Config, error) {
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is not set")
	}

	cfg := &Config{
		DatabaseURL:        databaseURL,
		StatsRejectedLimit: 20,
		Policy:             defaultPolicy(),
	}

	var err error
	cfg.StatsRejectedLimit, err = getEnvAsInt("STATS_REJECTED_LIMIT", cfg.StatsRejectedLimit)
	if err != nil {
		return nil, err
	}

	if policyPath := os.Getenv("POLICY_FILE"); policyPath != "" {
		policy, err := loadPolicy(policyPath)
		if err != nil {
			return nil, err
		}
		cfg.Policy = policy
	}

	return cfg, nil
}

func loadPolicy(path string) (Policy, error) {
	policy := defaultPolicy()

	raw, err := os.ReadFile(path)
	if err != nil {
		return policy, fmt.Errorf("failed to read policy file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, &policy); err != nil {
		return policy, fmt.Errorf("failed to parse policy file %s: %w", path, err)
	}

	switch policy.DecisionPolicy {
	case DecisionPolicyBatch, DecisionPolicyPerDocument:
	case "":
		policy.DecisionPolicy = DecisionPolicyBatch
	default:
		return policy, fmt.Errorf("invalid decision_policy %q, want %q or %q", policy.DecisionPolicy, DecisionPolicyBatch, DecisionPolicyPerDocument)
	}

	return policy, nil
}

func getEnvAsInt(key string, defaultValue int) (int, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue, nil
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: expected an integer, got '%s'", key, valueStr)
	}

	return value, nil
}
