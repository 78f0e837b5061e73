package highlight

import (
	"errors"
	"strings"
)

// Defaults applied when a Config leaves a setting unset.
const (
	DefaultFragmentSize      = 100
	DefaultNumberOfFragments = 5
)

// Config describes the highlight fragments a search should return.
type Config struct {
	Fields            []string `json:"fields" yaml:"fields"`
	FragmentSize      int      `json:"fragment_size,omitempty" yaml:"fragment_size"`
	NumberOfFragments int      `json:"number_of_fragments,omitempty" yaml:"number_of_fragments"`
	PreTags           []string `json:"pre_tags,omitempty" yaml:"pre_tags"`
	PostTags          []string `json:"post_tags,omitempty" yaml:"post_tags"`
	RequireFieldMatch bool     `json:"require_field_match,omitempty" yaml:"require_field_match"`
}

// Normalize validates the config and returns a copy with defaults filled in.
// No fields means "highlight every field" and is encoded as the wildcard "*".
func (c Config) Normalize() (Config, error) {
	out := c
	out.Fields = make([]string, 0, len(c.Fields))
	for _, f := range c.Fields {
		f = strings.TrimSpace(f)
		if f == "" {
			return Config{}, errors.New("highlight field name is empty")
		}
		out.Fields = append(out.Fields, f)
	}
	if len(out.Fields) == 0 {
		out.Fields = []string{"*"}
	}
	if c.FragmentSize < 0 || c.NumberOfFragments < 0 {
		return Config{}, errors.New("highlight fragment settings must not be negative")
	}
	if out.FragmentSize == 0 {
		out.FragmentSize = DefaultFragmentSize
	}
	if out.NumberOfFragments == 0 {
		out.NumberOfFragments = DefaultNumberOfFragments
	}
	if len(c.PreTags) != len(c.PostTags) {
		return Config{}, errors.New("highlight pre_tags and post_tags must have the same length")
	}
	return out, nil
}
