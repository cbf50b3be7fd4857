package models

import (
	"bytes"
	_ "embed"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

//go:embed "responses-models.yaml"
var defaultModelsYAML []byte

const APIFormatResponses = "responses"

// compatiblePrefixes are the model families served by the Responses API.
// o1 and o3 are not.
var compatiblePrefixes = []string{"gpt-4", "gpt-5", "gpt-6"}

// searchPrefixes is the fallback list of families with native web search,
// used when no descriptor says otherwise.
var searchPrefixes = []string{"gpt-4o", "gpt-4.1", "o4-mini", "o3", "gpt-5"}

type Tools struct {
	Stream     *bool `yaml:"stream,omitempty" json:"stream,omitempty"`
	FileUpload bool  `yaml:"file_upload" json:"file_upload"`
	Vision     bool  `yaml:"vision" json:"vision"`
	WebSearch  bool  `yaml:"web_search" json:"web_search"`
}

type Metadata struct {
	APIFormat         string `yaml:"api_format" json:"api_format"`
	SupportsReasoning bool   `yaml:"supports_reasoning" json:"supports_reasoning"`
	SupportsMCPTools  bool   `yaml:"supports_mcp_tools" json:"supports_mcp_tools"`
}

// Descriptor describes one model offered through the Responses API.
type Descriptor struct {
	ID       string   `yaml:"id" json:"id"`
	Label    string   `yaml:"label" json:"label"`
	Active   bool     `yaml:"active" json:"active"`
	Input    []string `yaml:"input,omitempty" json:"input,omitempty"`
	Output   []string `yaml:"output,omitempty" json:"output,omitempty"`
	Tools    Tools    `yaml:"tools" json:"tools"`
	Metadata Metadata `yaml:"metadata" json:"metadata"`
	// RequestTools are sent verbatim in the tools array of a request.
	RequestTools []map[string]any `yaml:"request_tools,omitempty" json:"request_tools,omitempty"`
}

// Streamable defaults to true when the descriptor does not say.
func (d Descriptor) Streamable() bool {
	return d.Tools.Stream == nil || *d.Tools.Stream
}

// IDMatches reports whether id names the descriptor's model, either exactly
// or as a dated snapshot such as gpt-5-2025-08-07.
func (d Descriptor) IDMatches(id string) bool {
	id = strings.ToLower(strings.TrimSpace(id))
	base := strings.ToLower(d.ID)
	if id == base {
		return true
	}
	rest, ok := strings.CutPrefix(id, base+"-")
	return ok && rest != "" && rest[0] >= '0' && rest[0] <= '9'
}

type List []Descriptor

func Load(r io.Reader) (List, error) {
	var l List
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(&l); err != nil {
		if errors.Is(err, io.EOF) {
			return List{}, nil
		}
		return nil, errors.Wrap(err, "decode model list")
	}
	for i, d := range l {
		if d.ID == "" {
			return nil, errors.Errorf("model %d has no id", i)
		}
		if l[i].Metadata.APIFormat == "" {
			l[i].Metadata.APIFormat = APIFormatResponses
		}
	}
	return l, nil
}

func LoadFile(path string) (List, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open model list %s", path)
	}
	defer func() {
		_ = f.Close()
	}()
	return Load(f)
}

// Default returns the built-in model list.
func Default() List {
	l, err := Load(bytes.NewReader(defaultModelsYAML))
	if err != nil {
		panic(errors.Wrap(err, "built-in model list"))
	}
	return l
}

func (l List) Active() List {
	ret := List{}
	for _, d := range l {
		if d.Active {
			ret = append(ret, d)
		}
	}
	return ret
}

// Find returns the descriptor matching id. When several match, the longest
// descriptor id wins, so gpt-4.1-nano is not mistaken for gpt-4.1.
func (l List) Find(id string) (Descriptor, bool) {
	var best Descriptor
	found := false
	for _, d := range l {
		if d.IDMatches(id) && (!found || len(d.ID) > len(best.ID)) {
			best = d
			found = true
		}
	}
	return best, found
}

func (l List) IDs() []string {
	ret := make([]string, 0, len(l))
	for _, d := range l {
		ret = append(ret, d.ID)
	}
	sort.Strings(ret)
	return ret
}

// IsCompatible reports whether the model family is served by the Responses
// API.
func IsCompatible(id string) bool {
	return hasAnyPrefix(strings.ToLower(id), compatiblePrefixes)
}

// SupportsSearch prefers the descriptor flag and falls back to the known
// search-capable families.
func (l List) SupportsSearch(id string) bool {
	if d, ok := l.Find(id); ok {
		return d.Tools.WebSearch
	}
	return hasAnyPrefix(strings.ToLower(id), searchPrefixes)
}

// SupportsStreaming is false for incompatible models, otherwise the
// descriptor decides and unknown models are assumed streamable.
func (l List) SupportsStreaming(id string) bool {
	if !IsCompatible(id) {
		return false
	}
	if d, ok := l.Find(id); ok {
		return d.Streamable()
	}
	return true
}

// FilterCompatible keeps the ids served by the Responses API, for example
// when narrowing a provider's model listing.
func FilterCompatible(ids []string) []string {
	ret := []string{}
	for _, id := range ids {
		if IsCompatible(id) {
			ret = append(ret, id)
		} else {
			log.Trace().Str("model", id).Msg("Responses: model not compatible")
		}
	}
	return ret
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}
