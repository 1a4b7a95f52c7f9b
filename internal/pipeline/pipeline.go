// Package pipeline wires the generation stages together and runs them for
// every part of a request.
package pipeline

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/ppiankov/reporter/internal/logger"
	"github.com/ppiankov/reporter/internal/model"
	"github.com/ppiankov/reporter/internal/registry"
)

// Env is the state of one pipeline run. Stages read what earlier stages
// left and add their own results.
type Env struct {
	Registry *registry.Registry
	Rand     *rand.Rand
	Language string
	Data     []byte

	// Messages are the scored input messages, highest score first
	Messages []*model.Message
	// Pool is the message pool secondary template rules draw on
	Pool []*model.Message
	Plan *model.DocumentPlanNode

	Output string
	Score  float64
}

// NewEnv creates the state of a run seeded with seed
func NewEnv(reg *registry.Registry, seed uint64, language string, data []byte) *Env {
	return &Env{
		Registry: reg,
		Rand:     rand.New(rand.NewPCG(seed, seed)),
		Language: language,
		Data:     data,
	}
}

// Stage is one step of a pipeline
type Stage struct {
	Name string
	Run  func(ctx context.Context, env *Env) error
}

// Pipeline runs stages in order on a single goroutine
type Pipeline struct {
	stages []Stage
	log    *logger.Logger
}

// New creates a pipeline
func New(log *logger.Logger, stages ...Stage) *Pipeline {
	if log == nil {
		log = logger.Nop()
	}
	return &Pipeline{stages: stages, log: log}
}

// Stages returns the stage names in order
func (p *Pipeline) Stages() []string {
	names := make([]string, len(p.stages))
	for i, s := range p.stages {
		names[i] = s.Name
	}
	return names
}

// Run executes the stages. The context is checked between stages only.
func (p *Pipeline) Run(ctx context.Context, env *Env) error {
	for _, stage := range p.stages {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%s: %w", stage.Name, err)
		}

		start := time.Now()
		if err := stage.Run(ctx, env); err != nil {
			return fmt.Errorf("%s: %w", stage.Name, err)
		}
		p.log.Debug("stage complete", "stage", stage.Name, "language", env.Language, "duration", time.Since(start))
	}
	return nil
}
