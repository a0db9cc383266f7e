// Package agent defines the descriptor of a remote agent known to the
// coordinator.
package agent

import (
	"fmt"
	"net/url"
	"slices"
	"strings"

	"github.com/Strob0t/AgentCanvas/internal/domain"
)

// Source records how an agent entered the registry.
type Source string

const (
	SourceManual     Source = "manual"
	SourceDiscovered Source = "discovered"
)

// Descriptor describes a registered agent.
type Descriptor struct {
	ID                   string   `json:"id"`
	Name                 string   `json:"name"`
	Description          string   `json:"description"`
	Color                string   `json:"color"`
	Tools                []string `json:"tools"`
	ServerURL            string   `json:"server_url,omitempty"`
	AcceptedContentTypes []string `json:"accepted_content_types,omitempty"`
	IsActive             bool     `json:"is_active"`
	Source               Source   `json:"source,omitempty"`
}

// Clone returns a deep copy safe to hand out of the registry.
func (d Descriptor) Clone() Descriptor {
	d.Tools = slices.Clone(d.Tools)
	d.AcceptedContentTypes = slices.Clone(d.AcceptedContentTypes)
	return d
}

// Validate checks caller supplied fields.
func (d Descriptor) Validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return fmt.Errorf("%w: agent name is required", domain.ErrValidation)
	}
	if d.ServerURL != "" {
		u, err := url.Parse(d.ServerURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("%w: server_url %q must be an absolute http(s) URL", domain.ErrValidation, d.ServerURL)
		}
	}
	return nil
}

// Key identifies an agent by address and name. Two descriptors with the
// same key refer to the same agent regardless of id.
func (d Descriptor) Key() string {
	return Key(d.ServerURL, d.Name)
}

// Key normalizes an address+name pair.
func Key(address, name string) string {
	return strings.ToLower(strings.TrimRight(strings.TrimSpace(address), "/")) + "|" + strings.TrimSpace(name)
}

// Update carries the mutable descriptor fields. Nil fields are left alone.
type Update struct {
	Name        *string  `json:"name,omitempty"`
	Description *string  `json:"description,omitempty"`
	Color       *string  `json:"color,omitempty"`
	Tools       []string `json:"tools,omitempty"`
	IsActive    *bool    `json:"is_active,omitempty"`
}

// Apply returns d with the update's fields replaced.
func (u Update) Apply(d Descriptor) (Descriptor, error) {
	if u.Name != nil {
		if strings.TrimSpace(*u.Name) == "" {
			return d, fmt.Errorf("%w: agent name cannot be empty", domain.ErrValidation)
		}
		d.Name = *u.Name
	}
	if u.Description != nil {
		d.Description = *u.Description
	}
	if u.Color != nil {
		d.Color = *u.Color
	}
	if u.Tools != nil {
		d.Tools = slices.Clone(u.Tools)
	}
	if u.IsActive != nil {
		d.IsActive = *u.IsActive
	}
	return d, nil
}

// Slug turns a display name into an id fragment: lower case, spaces to dashes.
func Slug(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "-")
}
