package scene

import (
	"encoding/json"
	"fmt"

	"github.com/ovis-games/ovis-ecs/errs"
	"github.com/ovis-games/ovis-ecs/id"
	"github.com/ovis-games/ovis-ecs/resource"
)

// document mirrors the JSON scene shape named in spec.md §6:
//
//	{ "entities": [ { "components": { "<resource_label>": <value>, ... } }, ... ] }
type document struct {
	Entities []struct {
		Components map[string]json.RawMessage `json:"components"`
	} `json:"entities"`
}

// IngestJSON parses raw into entities on an already-constructed Scene,
// dispatching each component value to the EntityComponent storage
// registered under its label via an erased decode (resource.
// EntityJSONInserter). An entity that omits a label whose EntityComponent
// was registered with allowDefault gets that component default-populated
// (resource.EntityJSONInserter.InsertDefault) rather than left absent. An
// unknown label, or a missing "entities"/"components" field, is a
// Configuration error located at the offending JSON path (the literal S5
// scenario) rather than a Go file:line, since the failure is in the
// document, not in this package's code.
func (s *Scene) IngestJSON(raw []byte) error {
	var doc document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return errs.Wrap(errs.Configuration, errs.AtScenePath("entities"), "malformed scene JSON", err)
	}
	if doc.Entities == nil {
		return errs.New(errs.Configuration, errs.AtScenePath("entities"), "no entities found in scene JSON")
	}

	for i, entity := range doc.Entities {
		entityPath := fmt.Sprintf("entities[%d]", i)
		if entity.Components == nil {
			return errs.New(errs.Configuration, errs.AtScenePath(entityPath+".components"), "components field not found")
		}

		eid := s.state.SpawnEntity()
		seen := make(map[string]bool, len(entity.Components))
		for label, raw := range entity.Components {
			componentPath := fmt.Sprintf("%s.components.%s", entityPath, label)
			inserter, err := s.entityInserterForLabel(label, componentPath)
			if err != nil {
				return err
			}
			if err := inserter.InsertJSON(eid, raw); err != nil {
				return err
			}
			seen[label] = true
		}

		s.insertDefaultsForOmitted(eid, seen)
	}

	return nil
}

// entityInserterForLabel resolves label to its registered EntityComponent
// storage, erroring (located at path) if the label is unknown or resolves
// to a storage that isn't an entity component.
func (s *Scene) entityInserterForLabel(label, path string) (resource.EntityJSONInserter, error) {
	storage, ok := s.state.ResourceStorageFromLabel(label)
	if !ok {
		return nil, errs.New(errs.Configuration, errs.AtScenePath(path), "invalid entity component: "+label)
	}
	inserter, ok := storage.(resource.EntityJSONInserter)
	if !ok {
		return nil, errs.New(errs.Configuration, errs.AtScenePath(path), "resource is not an entity component: "+label)
	}
	return inserter, nil
}

// insertDefaultsForOmitted default-populates every allowDefault
// EntityComponent registration that eid's ingested JSON did not mention.
func (s *Scene) insertDefaultsForOmitted(eid id.EntityId, seen map[string]bool) {
	s.state.Registry().Each(func(reg *resource.Registration) bool {
		if reg.Kind != resource.EntityComponent || !reg.AllowDefault || seen[reg.Label] {
			return true
		}
		storage, ok := s.state.ResourceStorage(reg.ID)
		if !ok {
			return true
		}
		if inserter, ok := storage.(resource.EntityJSONInserter); ok {
			inserter.InsertDefault(eid)
		}
		return true
	})
}
