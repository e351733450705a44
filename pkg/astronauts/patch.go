package astronauts

import (
	"bytes"
	"encoding/json"
	"maps"
	"slices"

	"github.com/agentstation/astronauts/pkg/errors"
)

// Patch is a partial update. A nil field is left unchanged. An explicit
// JSON null is rejected rather than read as absent.
type Patch struct {
	ID           *string    `json:"id,omitempty"`
	FirstName    *string    `json:"firstName,omitempty"`
	LastName     *string    `json:"lastName,omitempty"`
	Rank         *string    `json:"rank,omitempty"`
	SuitSize     *string    `json:"suitSize,omitempty"`
	HelmetSize   *string    `json:"helmetSize,omitempty"`
	SpecialSkill *string    `json:"specialSkill,omitempty"`
	DOB          *string    `json:"dob,omitempty"`
	Missions     *[]Mission `json:"missions,omitempty"`
}

// UnmarshalJSON decodes a patch, rejecting fields set to null.
func (p *Patch) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil {
		return errors.NewValidationError("", nil, "patch must be a JSON object")
	}
	for _, field := range slices.Sorted(maps.Keys(raw)) {
		if bytes.Equal(bytes.TrimSpace(raw[field]), []byte("null")) {
			return errors.NewValidationError(field, nil, "cannot be null")
		}
	}

	type patch Patch
	return json.Unmarshal(data, (*patch)(p))
}

// Validate checks the patch against the id of the record it targets.
// A patch may repeat the id but never change it.
func (p Patch) Validate(id string) error {
	if p.ID != nil && *p.ID != id {
		return errors.NewValidationError("id", *p.ID, "cannot be changed")
	}
	if p.Missions != nil {
		return validateMissions(*p.Missions)
	}
	return nil
}

// Apply returns a with every non-nil field of p merged in.
func (p Patch) Apply(a Astronaut) Astronaut {
	setString(&a.FirstName, p.FirstName)
	setString(&a.LastName, p.LastName)
	setString(&a.Rank, p.Rank)
	setString(&a.SuitSize, p.SuitSize)
	setString(&a.HelmetSize, p.HelmetSize)
	setString(&a.SpecialSkill, p.SpecialSkill)
	setString(&a.DOB, p.DOB)
	if p.Missions != nil {
		a.Missions = cloneMissions(*p.Missions)
	}
	return a
}

// IsEmpty reports whether the patch changes nothing.
func (p Patch) IsEmpty() bool {
	return p.FirstName == nil && p.LastName == nil && p.Rank == nil &&
		p.SuitSize == nil && p.HelmetSize == nil && p.SpecialSkill == nil &&
		p.DOB == nil && p.Missions == nil
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}
