package settings

import (
	_ "embed"
	"strings"

	"github.com/huandu/go-clone"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/go-go-golems/responses-aggregator/pkg/security"
)

// DecodeErrorPolicy decides what happens when a transport unit cannot be parsed.
type DecodeErrorPolicy string

const (
	// DecodeErrorPolicyFatal ends the response with a fatal error frame.
	DecodeErrorPolicyFatal DecodeErrorPolicy = "fatal"
	// DecodeErrorPolicyContinue emits a non-fatal error frame and keeps streaming.
	DecodeErrorPolicyContinue DecodeErrorPolicy = "continue"
)

func (p DecodeErrorPolicy) Valid() bool {
	return p == DecodeErrorPolicyFatal || p == DecodeErrorPolicyContinue
}

type AggregatorSettings struct {
	DecodeErrorPolicy     DecodeErrorPolicy `yaml:"decode_error_policy" mapstructure:"decode_error_policy"`
	DefaultReasoningTitle string            `yaml:"default_reasoning_title" mapstructure:"default_reasoning_title"`
	IncludeReasoningTrace bool              `yaml:"include_reasoning_trace" mapstructure:"include_reasoning_trace"`
	FormatCitations       bool              `yaml:"format_citations" mapstructure:"format_citations"`
	DebugTimestamps       bool              `yaml:"debug_timestamps" mapstructure:"debug_timestamps"`
	// CitationsHTTPSOnly drops plain http citation and source links.
	CitationsHTTPSOnly bool `yaml:"citations_https_only" mapstructure:"citations_https_only"`
	// CitationsAllowLocalLinks keeps links to loopback, private and link-local hosts.
	CitationsAllowLocalLinks bool `yaml:"citations_allow_local_links" mapstructure:"citations_allow_local_links"`
}

//go:embed "flags/aggregator.yaml"
var aggregatorDefaultsYAML []byte

// NewAggregatorSettings returns the settings initialized from the embedded defaults.
func NewAggregatorSettings() (*AggregatorSettings, error) {
	s := &AggregatorSettings{}
	if err := yaml.Unmarshal(aggregatorDefaultsYAML, s); err != nil {
		return nil, errors.Wrap(err, "could not parse aggregator defaults")
	}
	return s, nil
}

// DefaultAggregatorSettings is NewAggregatorSettings for callers that cannot
// handle an error. The embedded defaults are static so this never fails in practice.
func DefaultAggregatorSettings() *AggregatorSettings {
	s, err := NewAggregatorSettings()
	if err != nil {
		panic(err)
	}
	return s
}

func (s *AggregatorSettings) Clone() *AggregatorSettings {
	return clone.Clone(s).(*AggregatorSettings)
}

func (s *AggregatorSettings) Validate() error {
	if !s.DecodeErrorPolicy.Valid() {
		return errors.Errorf("invalid decode_error_policy %q (expected fatal or continue)", s.DecodeErrorPolicy)
	}
	if strings.TrimSpace(s.DefaultReasoningTitle) == "" {
		return errors.New("default_reasoning_title must not be empty")
	}
	return nil
}

// ReasoningTitle returns the configured fallback title for reasoning summaries.
func (s *AggregatorSettings) ReasoningTitle() string {
	if s == nil || s.DefaultReasoningTitle == "" {
		return "Reasoning"
	}
	return s.DefaultReasoningTitle
}

// CitationURLPolicy returns the policy applied to citation and source links.
func (s *AggregatorSettings) CitationURLPolicy() security.URLPolicy {
	if s == nil {
		return security.DefaultCitationURLPolicy
	}
	return security.URLPolicy{
		AllowHTTP:          !s.CitationsHTTPSOnly,
		AllowLocalNetworks: s.CitationsAllowLocalLinks,
	}
}

// Policy returns the decode error policy, defaulting to fatal.
func (s *AggregatorSettings) Policy() DecodeErrorPolicy {
	if s == nil || !s.DecodeErrorPolicy.Valid() {
		return DecodeErrorPolicyFatal
	}
	return s.DecodeErrorPolicy
}

const EnvPrefix = "RESPONSES"

// NewViper returns a viper instance bound to the RESPONSES_ environment
// prefix and seeded with the embedded defaults.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	defaults := DefaultAggregatorSettings()
	v.SetDefault("decode_error_policy", string(defaults.DecodeErrorPolicy))
	v.SetDefault("default_reasoning_title", defaults.DefaultReasoningTitle)
	v.SetDefault("include_reasoning_trace", defaults.IncludeReasoningTrace)
	v.SetDefault("format_citations", defaults.FormatCitations)
	v.SetDefault("debug_timestamps", defaults.DebugTimestamps)
	v.SetDefault("citations_https_only", defaults.CitationsHTTPSOnly)
	v.SetDefault("citations_allow_local_links", defaults.CitationsAllowLocalLinks)
	return v
}

// LoadAggregatorSettings reads settings from an optional config file and the
// environment. An empty path only consults defaults and the environment.
func LoadAggregatorSettings(v *viper.Viper, configFile string) (*AggregatorSettings, error) {
	if v == nil {
		v = NewViper()
	}
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "could not read config file %s", configFile)
		}
	}

	s := &AggregatorSettings{
		DecodeErrorPolicy:     DecodeErrorPolicy(strings.ToLower(v.GetString("decode_error_policy"))),
		DefaultReasoningTitle: v.GetString("default_reasoning_title"),
		IncludeReasoningTrace: v.GetBool("include_reasoning_trace"),
		FormatCitations:       v.GetBool("format_citations"),
		DebugTimestamps:       v.GetBool("debug_timestamps"),

		CitationsHTTPSOnly:       v.GetBool("citations_https_only"),
		CitationsAllowLocalLinks: v.GetBool("citations_allow_local_links"),
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}
