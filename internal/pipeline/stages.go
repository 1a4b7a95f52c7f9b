package pipeline

import (
	"context"
	"fmt"

	"github.com/ppiankov/reporter/internal/aggregator"
	"github.com/ppiankov/reporter/internal/logger"
	"github.com/ppiankov/reporter/internal/message"
	"github.com/ppiankov/reporter/internal/model"
	"github.com/ppiankov/reporter/internal/planner"
	"github.com/ppiankov/reporter/internal/realize"
	"github.com/ppiankov/reporter/internal/score"
	"github.com/ppiankov/reporter/internal/selector"
	"github.com/ppiankov/reporter/internal/vocabulary"
)

// Options configure the stages of a pipeline
type Options struct {
	Planner            model.PlannerConfig
	LocationIfNotSince int
	// Format is the body output format; ignored for headlines
	Format string
	// Links keeps <a> elements in the output
	Links    bool
	Headline bool
}

// Build assembles the body or headline pipeline:
// messages, importance, plan, selection, aggregation, dates, slots,
// entities, surface and finally link removal.
func Build(opts Options, log *logger.Logger) (*Pipeline, error) {
	if log == nil {
		log = logger.Nop()
	}

	surface := realize.Headline
	if !opts.Headline {
		var err error
		if surface, err = realize.BodyRealizer(opts.Format); err != nil {
			return nil, err
		}
	}

	generator := message.NewGenerator(log)
	allocator := score.NewImportanceAllocator()

	stages := []Stage{
		{Name: "messages", Run: func(_ context.Context, env *Env) error {
			msgs, err := generator.Generate(env.Data)
			if err != nil {
				return err
			}
			env.Messages = msgs
			return nil
		}},
		{Name: "importance", Run: func(_ context.Context, env *Env) error {
			// messages with Score 0, including an explicit 0, are scored here
			env.Messages = allocator.Allocate(env.Messages)
			return nil
		}},
		{Name: "plan", Run: func(_ context.Context, env *Env) error {
			var (
				plan *model.DocumentPlanNode
				pool []*model.Message
				err  error
			)
			if opts.Headline {
				plan, pool, err = planner.HeadlinePlanner{}.Plan(env.Messages)
			} else {
				checker := selector.NewChecker(templatesFor(env), env.Messages)
				plan, pool, err = planner.NewBodyPlanner(opts.Planner, checker, log).Plan(env.Messages)
			}
			if err != nil {
				return err
			}
			env.Plan, env.Pool = plan, pool
			return nil
		}},
		{Name: "selection", Run: func(_ context.Context, env *Env) error {
			fallback := env.Registry.ErrorMessage(env.Language, vocabulary.ErrNoTemplate)
			selector.New(templatesFor(env), opts.LocationIfNotSince, log).
				WithFallback(fallback).
				Select(env.Rand, env.Plan, env.Pool)
			return nil
		}},
		{Name: "aggregation", Run: func(_ context.Context, env *Env) error {
			aggregator.New(env.Registry.Vocabulary(), log).Aggregate(env.Language, env.Plan)
			return nil
		}},
		{Name: "dates", Run: func(_ context.Context, env *Env) error {
			realize.NewDateRealizer(env.Registry.Vocabulary(), log).Realize(env.Rand, env.Language, env.Plan)
			return nil
		}},
		{Name: "slots", Run: func(_ context.Context, env *Env) error {
			realize.NewSlotRealizer(env.Registry.SlotRealizers(), log).Realize(env.Rand, env.Language, env.Plan)
			return nil
		}},
		{Name: "entities", Run: func(_ context.Context, env *Env) error {
			realize.NewEntityNameResolver(env.Registry.Vocabulary(), log).Resolve(env.Language, env.Plan)
			return nil
		}},
		{Name: "surface", Run: func(_ context.Context, env *Env) error {
			text, maxScore, err := surface.Realize(env.Plan)
			if err != nil {
				return err
			}
			env.Output, env.Score = text, maxScore
			return nil
		}},
	}

	if !opts.Links {
		stages = append(stages, Stage{Name: "links", Run: func(_ context.Context, env *Env) error {
			text, err := realize.RemoveLinks(env.Output)
			if err != nil {
				return fmt.Errorf("remove links: %w", err)
			}
			env.Output = text
			return nil
		}})
	}

	return New(log, stages...), nil
}

// templatesFor returns the templates of the run language. Headline
// languages without templates of their own use the base language.
func templatesFor(env *Env) []*model.Template {
	if t := env.Registry.Templates(env.Language); len(t) > 0 {
		return t
	}
	return env.Registry.Templates(vocabulary.BaseLanguage(env.Language))
}
