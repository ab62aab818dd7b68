// Command synthetic-scene exercises the ECS core headlessly: it registers
// two components and a couple of synthetic jobs, ingests a small JSON scene,
// and runs the host loop without a window or a real GPU.
package main

import (
	"log"

	"github.com/ovis-games/ovis-ecs/engineloop"
	"github.com/ovis-games/ovis-ecs/id"
	"github.com/ovis-games/ovis-ecs/job"
	"github.com/ovis-games/ovis-ecs/resource"
	"github.com/ovis-games/ovis-ecs/scene"
	"github.com/ovis-games/ovis-ecs/scenestate"
)

type position struct{ X, Y float32 }
type velocity struct{ X, Y float32 }

func main() {
	resReg := resource.NewRegistry()
	positionID, err := resource.RegisterEntityComponent[position](resReg, "position", false)
	if err != nil {
		log.Fatalf("register position: %v", err)
	}
	velocityID, err := resource.RegisterEntityComponent[velocity](resReg, "velocity", true)
	if err != nil {
		log.Fatalf("register velocity: %v", err)
	}

	jobReg := job.NewRegistry()
	jobReg.Register(job.Setup, func(_ scenestate.SystemResources, state *scenestate.SceneState) error {
		log.Printf("synthetic-scene: setup ran, %d entities present", state.EntitiesLen())
		return nil
	}, nil, false)

	jobReg.Register(job.Update, func(_ scenestate.SystemResources, state *scenestate.SceneState) error {
		positions, ok := state.ResourceStorage(positionID)
		if !ok {
			return nil
		}
		velocities, ok := state.ResourceStorage(velocityID)
		if !ok {
			return nil
		}
		applyVelocity(positions, velocities)
		return nil
	}, []job.ResourceAccess{
		{Resource: positionID, Mode: job.ReadWrite},
		{Resource: velocityID, Mode: job.Read},
	}, false)

	s, err := scene.New(resReg, jobReg, nil)
	if err != nil {
		log.Fatalf("build scene: %v", err)
	}
	defer s.Close()

	sceneJSON := []byte(`{
		"entities": [
			{ "components": { "position": {"X": 0, "Y": 0}, "velocity": {"X": 1, "Y": 0.5} } },
			{ "components": { "position": {"X": 10, "Y": 10} } }
		]
	}`)
	if err := s.IngestJSON(sceneJSON); err != nil {
		log.Fatalf("ingest scene: %v", err)
	}

	loop := engineloop.New(
		engineloop.WithProfiling(true),
		engineloop.WithTickRate(60),
		engineloop.WithScene(0, s),
	)
	loop.Run()
}

func applyVelocity(positions, velocities resource.Storage) {
	// Downcast back to the concrete single-value storages to iterate: the
	// Storage interface deliberately erases V, so any job that needs real
	// component access downcasts to its own registered type.
	ps, ok := positions.(*resource.SingleValueStorage[id.EntitySpace, id.Bits8, position])
	if !ok {
		return
	}
	vs, ok := velocities.(*resource.SingleValueStorage[id.EntitySpace, id.Bits8, velocity])
	if !ok {
		return
	}
	ps.Each(func(eid id.EntityId, p *position) bool {
		if v, has := vs.Get(eid); has {
			p.X += v.X
			p.Y += v.Y
		}
		return true
	})
}
