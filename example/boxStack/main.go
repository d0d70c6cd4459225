// Command boxStack runs a headless scene: a stack of boxes on the ground, hit by a ball
// swinging on a fixed joint. It logs the pose of every body at a fixed interval.
package main

import (
	"flag"
	"log"
	"os"

	"github.com/akmonengine/impulse"
	"github.com/akmonengine/impulse/actor"
	"github.com/akmonengine/impulse/config"
	"github.com/akmonengine/impulse/constraint"
	"github.com/go-gl/mathgl/mgl64"
)

func main() {
	configPath := flag.String("config", "", "YAML configuration file, defaults are used when empty")
	boxes := flag.Int("boxes", 5, "height of the stack")
	steps := flag.Int("steps", 600, "number of frames to simulate")
	every := flag.Int("every", 60, "log the bodies every n frames")
	flag.Parse()

	logger := log.New(os.Stderr, "boxStack ", log.LstdFlags)

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			logger.Fatal(err)
		}
	}

	world, err := impulse.NewWorld(cfg)
	if err != nil {
		logger.Fatal(err)
	}
	world.Logger = logger

	world.AddPlane(actor.Plane{Normal: mgl64.Vec3{0, 1, 0}, Offset: 0})

	for i := 0; i < *boxes; i++ {
		box := actor.NewRigidBody(
			actor.Transform{Position: mgl64.Vec3{0, 0.5 + float64(i)*1.01, 0}},
			&actor.Box{HalfExtents: mgl64.Vec3{0.5, 0.5, 0.5}},
			actor.BodyTypeDynamic,
			1.0,
		)
		box.Id = i
		world.AddBody(box)
	}

	// the ball starts raised to the side, its rope pinned above the stack
	ball := actor.NewRigidBody(
		actor.Transform{Position: mgl64.Vec3{-4, 4, 0}},
		&actor.Sphere{Radius: 0.5},
		actor.BodyTypeDynamic,
		5.0,
	)
	ball.Id = "ball"
	world.AddBody(ball)
	world.AddJoint(&constraint.FixedJoint{
		Body:     ball,
		Position: mgl64.Vec3{0, 0.5, 0},
		Anchor:   mgl64.Vec3{0, 4, 0},
		Error:    3.5,
	})

	world.Events.Subscribe(impulse.COLLISION_ENTER, func(event impulse.Event) {
		enter := event.(impulse.CollisionEnterEvent)
		logger.Printf("contact %v / %v depth %.4f", enter.BodyA.Id, enter.BodyB.Id, enter.Contact.Penetration)
	})
	world.Events.Subscribe(impulse.ON_SLEEP, func(event impulse.Event) {
		logger.Printf("%v sleeps", event.(impulse.SleepEvent).Body.Id)
	})

	const dt = 1.0 / 60.0
	for frame := 1; frame <= *steps; frame++ {
		world.Step(dt)

		if *every > 0 && frame%*every == 0 {
			logger.Printf("frame %d: %d pairs, %d contacts, %d+%d iterations",
				frame, world.Stats.Pairs, world.Stats.Contacts,
				world.Stats.PositionIterationsUsed, world.Stats.VelocityIterationsUsed)
			for _, body := range world.Bodies {
				logger.Printf("  %v at %.3v rotation %.3v", body.Id, body.Transform.Position, body.Transform.Rotation)
			}
		}
	}
}
