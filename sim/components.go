package sim

import (
	"github.com/pthm-cable/selkie/agent"
	"github.com/pthm-cable/selkie/env"
)

// Seal is the ECS component carrying the behavioral model for one animal.
type Seal struct {
	Agent *agent.Agent
}

// Sensed caches the environment the animal saw on its latest tick, written
// back after the parallel phase so telemetry reads a consistent snapshot.
type Sensed struct {
	Result env.Result
}
