package domain

import (
	"strings"
	"unicode"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// Owner is one member of the team directory. Color is an optional hex string.
type Owner struct {
	ID    string
	Name  string
	Color string
}

// Team maps owner identifiers to owners.
type Team map[string]Owner

// NewOwner trims its inputs, defaults the name to the id and checks the color.
func NewOwner(id, name, color string) (Owner, error) {
	id = strings.TrimSpace(id)
	name = strings.TrimSpace(name)
	color = strings.TrimSpace(color)
	if id == "" {
		return Owner{}, ErrInvalidOwner
	}
	if name == "" {
		name = id
	}
	if color != "" {
		if _, err := colorful.Hex(color); err != nil {
			return Owner{}, ErrInvalidColor
		}
	}
	return Owner{ID: id, Name: name, Color: color}, nil
}

// NewTeam indexes owners by ID. A later duplicate replaces an earlier one.
func NewTeam(owners ...Owner) Team {
	team := make(Team, len(owners))
	for _, owner := range owners {
		team[owner.ID] = owner
	}
	return team
}

// Lookup finds an owner by trimmed ID. A nil team has no owners.
func (t Team) Lookup(id string) (Owner, bool) {
	if t == nil {
		return Owner{}, false
	}
	owner, ok := t[strings.TrimSpace(id)]
	return owner, ok
}

// Initials returns up to two upper-cased leading letters of the owner's name.
func (o Owner) Initials() string {
	name := strings.TrimSpace(o.Name)
	if name == "" {
		name = o.ID
	}
	var out []rune
	for _, word := range strings.Fields(name) {
		for _, r := range word {
			if unicode.IsLetter(r) || unicode.IsDigit(r) {
				out = append(out, unicode.ToUpper(r))
				break
			}
		}
		if len(out) == 2 {
			break
		}
	}
	if len(out) == 0 {
		return "?"
	}
	return string(out)
}
