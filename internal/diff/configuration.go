package diff

import (
	"fmt"
	"slices"
	"sort"
)

// AID locates one annotation, or one of its slot fillers, inside an
// annotator's collection for the lifetime of a single diff Result.
type AID struct {
	Annotator string
	Index     int
	Feature   string
	Slot      int // -1 when the whole annotation is referenced
}

func (a AID) String() string {
	if a.Feature == "" {
		return fmt.Sprintf("%s#%d", a.Annotator, a.Index)
	}
	return fmt.Sprintf("%s#%d.%s[%d]", a.Annotator, a.Index, a.Feature, a.Slot)
}

// Configuration is one distinct value observed at a position together with
// the annotators that produced it.
type Configuration struct {
	position Position
	value    Value
	aids     map[string][]AID
}

func newConfiguration(pos Position, value Value) *Configuration {
	return &Configuration{
		position: pos,
		value:    value,
		aids:     make(map[string][]AID),
	}
}

// add records aid for annotator. Adding the same AID twice is a no-op.
func (c *Configuration) add(annotator string, aid AID) {
	if slices.Contains(c.aids[annotator], aid) {
		return
	}
	c.aids[annotator] = append(c.aids[annotator], aid)
}

// Position returns the position the configuration was observed at.
func (c *Configuration) Position() Position { return c.position }

// Value returns the compared content shared by all members.
func (c *Configuration) Value() Value { return c.value }

// Votes returns the number of distinct annotators in the configuration.
func (c *Configuration) Votes() int { return len(c.aids) }

// Annotators returns the member annotators in lexicographic order.
func (c *Configuration) Annotators() []string {
	out := make([]string, 0, len(c.aids))
	for name := range c.aids {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Has reports whether annotator voted for this configuration.
func (c *Configuration) Has(annotator string) bool {
	_, ok := c.aids[annotator]
	return ok
}

// AID returns the first reference contributed by annotator.
func (c *Configuration) AID(annotator string) (AID, bool) {
	refs := c.aids[annotator]
	if len(refs) == 0 {
		return AID{}, false
	}
	return refs[0], true
}

// AIDs returns every reference contributed by annotator. An annotator has
// more than one only when it stacked identical annotations.
func (c *Configuration) AIDs(annotator string) []AID {
	return slices.Clone(c.aids[annotator])
}

// Representative returns the first reference of the lexicographically first
// annotator; merges copy from it.
func (c *Configuration) Representative() (AID, bool) {
	names := c.Annotators()
	if len(names) == 0 {
		return AID{}, false
	}
	return c.AID(names[0])
}

func (c *Configuration) String() string {
	return fmt.Sprintf("%s %v", c.value, c.Annotators())
}

// ConfigurationSet holds every configuration observed at one position. It
// is never empty.
type ConfigurationSet struct {
	position   Position
	configs    []*Configuration
	byValue    map[Value]*Configuration
	annotators []string
}

func newConfigurationSet(pos Position, annotators []string) *ConfigurationSet {
	return &ConfigurationSet{
		position:   pos,
		byValue:    make(map[Value]*Configuration),
		annotators: annotators,
	}
}

// add files aid under the configuration for value, creating it on first sight.
func (s *ConfigurationSet) add(pos Position, value Value, aid AID) {
	cfg, ok := s.byValue[value]
	if !ok {
		cfg = newConfiguration(pos, value)
		s.byValue[value] = cfg
		s.configs = append(s.configs, cfg)
	}
	cfg.add(aid.Annotator, aid)
}

// Position returns the shared position.
func (s *ConfigurationSet) Position() Position { return s.position }

// Len returns the number of configurations.
func (s *ConfigurationSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.configs)
}

// Configurations returns the configurations in first-observed order.
func (s *ConfigurationSet) Configurations() []*Configuration {
	if s == nil {
		return nil
	}
	return slices.Clone(s.configs)
}

// Configuration returns the configuration holding value, if any.
func (s *ConfigurationSet) Configuration(value Value) (*Configuration, bool) {
	cfg, ok := s.byValue[value]
	return cfg, ok
}

// Votes returns the total number of votes cast at the position.
func (s *ConfigurationSet) Votes() int {
	total := 0
	for _, c := range s.configs {
		total += c.Votes()
	}
	return total
}

// Annotators returns the annotators that produced anything at the position.
func (s *ConfigurationSet) Annotators() []string {
	seen := make(map[string]bool)
	for _, c := range s.configs {
		for name := range c.aids {
			seen[name] = true
		}
	}
	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// AllAnnotators returns every annotator of the diff run, including those
// that did not annotate this position.
func (s *ConfigurationSet) AllAnnotators() []string {
	return slices.Clone(s.annotators)
}

// Missing returns the annotators of the run absent from this position.
func (s *ConfigurationSet) Missing() []string {
	present := make(map[string]bool)
	for _, name := range s.Annotators() {
		present[name] = true
	}
	var out []string
	for _, name := range s.annotators {
		if !present[name] {
			out = append(out, name)
		}
	}
	return out
}

// IsComplete reports whether every annotator of the run is present.
func (s *ConfigurationSet) IsComplete() bool {
	return len(s.Missing()) == 0
}

// IsAgreement reports whether every annotator of the run produced the same value.
func (s *ConfigurationSet) IsAgreement() bool {
	return len(s.configs) == 1 && s.IsComplete()
}
