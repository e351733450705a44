// Package astronauts defines the astronaut record model served by the API,
// the partial-update patch type, and the embedded seed fixtures.
package astronauts

import (
	"strings"

	"github.com/agentstation/astronauts/pkg/errors"
)

// Resource is the resource name used in errors and log fields.
const Resource = "astronaut"

// Astronaut is a single crew record. ID is supplied by the caller and never
// changes after creation.
type Astronaut struct {
	ID           string    `json:"id"           yaml:"id"`
	FirstName    string    `json:"firstName"    yaml:"firstName"`
	LastName     string    `json:"lastName"     yaml:"lastName"`
	Rank         string    `json:"rank"         yaml:"rank"`
	SuitSize     string    `json:"suitSize"     yaml:"suitSize"`
	HelmetSize   string    `json:"helmetSize"   yaml:"helmetSize"`
	SpecialSkill string    `json:"specialSkill" yaml:"specialSkill"`
	DOB          string    `json:"dob"          yaml:"dob"`
	Missions     []Mission `json:"missions"     yaml:"missions"`
}

// Mission is owned by exactly one Astronaut.
type Mission struct {
	Title                    string `json:"title"                    yaml:"title"`
	Dates                    Dates  `json:"dates"                    yaml:"dates"`
	ExtravehicularActivities int    `json:"extravehicularActivities" yaml:"extravehicularActivities"`
}

// Dates is the start and finish of a mission.
type Dates struct {
	Start  string `json:"start"  yaml:"start"`
	Finish string `json:"finish" yaml:"finish"`
}

// Validate checks the basic shape of a record.
func (a Astronaut) Validate() error {
	if strings.TrimSpace(a.ID) == "" {
		return errors.NewValidationError("id", a.ID, "cannot be empty")
	}
	return validateMissions(a.Missions)
}

// Clone returns a deep copy. Missions is never nil in the result.
func (a Astronaut) Clone() Astronaut {
	a.Missions = cloneMissions(a.Missions)
	return a
}

// MatchesName reports whether folded is a substring of the folded first or
// last name. Both sides must already be case folded with Fold.
func (a Astronaut) MatchesName(folded string) bool {
	return strings.Contains(Fold(a.FirstName), folded) ||
		strings.Contains(Fold(a.LastName), folded)
}

func validateMissions(missions []Mission) error {
	for _, m := range missions {
		if m.ExtravehicularActivities < 0 {
			return errors.NewValidationError(
				"missions.extravehicularActivities",
				m.ExtravehicularActivities,
				"cannot be negative",
			)
		}
	}
	return nil
}

func cloneMissions(missions []Mission) []Mission {
	out := make([]Mission, len(missions))
	copy(out, missions)
	return out
}
