package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/ppiankov/reporter/internal/cache"
	"github.com/ppiankov/reporter/internal/logger"
	"github.com/ppiankov/reporter/internal/message"
	"github.com/ppiankov/reporter/internal/model"
	"github.com/ppiankov/reporter/internal/planner"
	"github.com/ppiankov/reporter/internal/registry"
	"github.com/ppiankov/reporter/internal/vocabulary"
	"github.com/ppiankov/reporter/internal/worker"
)

var (
	// ErrUnsupportedLanguage is returned for languages without templates
	ErrUnsupportedLanguage = errors.New("unsupported language")
	// ErrUnknownFormat is returned for output formats other than p, ul and ol
	ErrUnknownFormat = errors.New("unknown output format")
)

// Error names reported in Response.Errors
const (
	errNameNoMessages            = "NoMessagesForSelection"
	errNameNoInterestingMessages = "NoInterestingMessages"
)

// Archive stores payloads that failed generation
type Archive interface {
	Save(ctx context.Context, language, reason string, data []byte) (string, error)
}

// Request is one generation request
type Request struct {
	Language string
	Format   string
	Data     []byte
	Links    bool
}

// Response holds one headline and body per input part, best first
type Response struct {
	Language  string   `json:"language"`
	Headlines []string `json:"headlines"`
	Bodies    []string `json:"bodies"`
	Errors    []string `json:"errors"`
}

// output is the result of one input part
type output struct {
	headline string
	body     string
	score    float64
	errors   []string
}

// Service runs the body and headline pipelines for every input part.
// Generation problems never escape: they become canned texts in the
// response.
type Service struct {
	cfg      *model.Config
	registry *registry.Registry
	seed     uint64
	cache    cache.Cache
	archive  Archive
	log      *logger.Logger
}

// Option configures a Service
type Option func(*Service)

// WithCache stores responses in c
func WithCache(c cache.Cache) Option {
	return func(s *Service) { s.cache = c }
}

// WithArchive saves failed payloads to a
func WithArchive(a Archive) Option {
	return func(s *Service) { s.archive = a }
}

// WithLogger sets the service logger
func WithLogger(l *logger.Logger) Option {
	return func(s *Service) { s.log = l }
}

// NewService creates a service. A zero configured seed picks a random one.
func NewService(cfg *model.Config, reg *registry.Registry, opts ...Option) *Service {
	s := &Service{
		cfg:      cfg,
		registry: reg,
		seed:     cfg.Generation.Seed,
		cache:    cache.Nop{},
		log:      logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.seed == 0 {
		s.seed = rand.Uint64N(10_000_000) + 1
		s.log.Info("no preset seed, using random seed", "seed", s.seed)
	} else {
		s.log.Info("using preset seed", "seed", s.seed)
	}
	return s
}

// Seed returns the PRNG seed every run starts from
func (s *Service) Seed() uint64 {
	return s.seed
}

// Languages returns the languages with templates, headline variants
// excluded
func (s *Service) Languages() []string {
	var out []string
	for _, lang := range s.registry.TemplateSet().Languages() {
		if !strings.HasSuffix(lang, "-head") {
			out = append(out, lang)
		}
	}
	sort.Strings(out)
	return out
}

// Run generates the documents for req
func (s *Service) Run(ctx context.Context, req Request) (*Response, error) {
	if req.Language == "" {
		req.Language = s.cfg.Generation.Language
	}
	if req.Format == "" {
		req.Format = s.cfg.Generation.Format
	}
	if !slices.Contains(s.Languages(), req.Language) {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedLanguage, req.Language)
	}

	body, err := Build(s.options(req, false), s.log)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, req.Format)
	}
	headline, err := Build(s.options(req, true), s.log)
	if err != nil {
		return nil, err
	}

	key := cache.ReportKey(req.Language, req.Format, strconv.FormatBool(req.Links), strconv.FormatUint(s.seed, 10), string(req.Data))
	if cached, ok := s.cache.Get(key); ok {
		var resp Response
		if err := json.Unmarshal(cached, &resp); err == nil {
			s.log.Debug("report cache hit", "language", req.Language)
			return &resp, nil
		}
	}

	start := time.Now()
	parts, err := message.Split(req.Data)
	if err != nil {
		// Let the single run report the malformed input
		parts = []message.Part{{Data: req.Data}}
	}
	s.log.Info("starting multi-part generation", "language", req.Language, "parts", len(parts))

	jobs := make([]worker.Job, len(parts))
	for i, part := range parts {
		jobs[i] = &generationJob{service: s, body: body, headline: headline, language: req.Language, part: part}
	}
	results := worker.Run(ctx, s.cfg.Concurrency.Workers, jobs)

	outputs := make([]output, 0, len(results))
	for _, r := range results {
		if r == nil {
			return nil, fmt.Errorf("generation interrupted: %w", ctx.Err())
		}
		outputs = append(outputs, r.(*generationResult).output)
	}

	resp := s.assemble(req.Language, outputs)
	s.log.Info("multi-part generation complete", "language", req.Language, "duration", time.Since(start))

	if len(resp.Errors) == 0 {
		if encoded, err := json.Marshal(resp); err == nil {
			if err := s.cache.Set(key, encoded, 0); err != nil {
				s.log.Warn("failed to cache report", "error", err)
			}
		}
	}
	return resp, nil
}

func (s *Service) options(req Request, headline bool) Options {
	return Options{
		Planner:            s.cfg.Planner,
		LocationIfNotSince: s.cfg.Selector.LocationIfNotSince,
		Format:             req.Format,
		Links:              req.Links,
		Headline:           headline,
	}
}

// assemble keeps the best scoring outputs and groups those sharing a
// headline, groups ordered by their best score
func (s *Service) assemble(language string, outputs []output) *Response {
	sort.SliceStable(outputs, func(i, j int) bool {
		return outputs[i].score > outputs[j].score
	})
	if limit := s.cfg.Generation.MaxOutputs; limit > 0 && len(outputs) > limit {
		outputs = outputs[:limit]
	}

	var order []string
	groups := map[string][]output{}
	for _, o := range outputs {
		if _, ok := groups[o.headline]; !ok {
			order = append(order, o.headline)
		}
		groups[o.headline] = append(groups[o.headline], o)
	}

	resp := &Response{Language: language, Headlines: []string{}, Bodies: []string{}, Errors: []string{}}
	for _, headline := range order {
		for _, o := range groups[headline] {
			resp.Headlines = append(resp.Headlines, o.headline)
			resp.Bodies = append(resp.Bodies, o.body)
			resp.Errors = append(resp.Errors, o.errors...)
		}
	}
	return resp
}

// runSingle produces the headline and body of one input part
func (s *Service) runSingle(ctx context.Context, body, headline *Pipeline, language string, data []byte) output {
	var out output

	text, score, err := s.runPipeline(ctx, body, language, data)
	out.body = s.recoverText(ctx, language, data, text, err, &out.errors)
	out.score = score

	text, _, err = s.runPipeline(ctx, headline, language+"-head", data)
	out.headline = s.recoverText(ctx, language, data, text, err, &out.errors)
	return out
}

// runPipeline runs p, turning a panic into an error
func (s *Service) runPipeline(ctx context.Context, p *Pipeline, language string, data []byte) (text string, score float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	env := NewEnv(s.registry, s.seed, language, data)
	if err := p.Run(ctx, env); err != nil {
		return "", 0, err
	}
	return env.Output, env.Score, nil
}

// recoverText returns text, or the canned error text for err
func (s *Service) recoverText(ctx context.Context, language string, data []byte, text string, err error, errs *[]string) string {
	switch {
	case err == nil:
		return text
	case errors.Is(err, message.ErrNoMessagesForSelection):
		s.log.Warn("no messages for selection", "language", language)
		*errs = append(*errs, errNameNoMessages)
		return s.registry.ErrorMessage(language, vocabulary.ErrNoMessages)
	case errors.Is(err, planner.ErrNoInterestingMessages):
		s.log.Info("no interesting messages for selection", "language", language)
		*errs = append(*errs, errNameNoInterestingMessages)
		return s.registry.ErrorMessage(language, vocabulary.ErrNoInterestingMessages)
	}

	s.log.Error("generation failed", "language", language, "error", err, "payload", string(data))
	*errs = append(*errs, err.Error())
	if s.archive != nil {
		if id, archiveErr := s.archive.Save(context.WithoutCancel(ctx), language, err.Error(), data); archiveErr != nil {
			s.log.Warn("failed to archive payload", "error", archiveErr)
		} else {
			s.log.Info("archived failed payload", "id", id)
		}
	}
	return s.registry.ErrorMessage(language, vocabulary.ErrGeneral)
}

type generationJob struct {
	service  *Service
	body     *Pipeline
	headline *Pipeline
	language string
	part     message.Part
}

type generationResult struct {
	output
}

func (r *generationResult) GetError() error { return nil }

func (j *generationJob) Execute(ctx context.Context) worker.Result {
	return &generationResult{output: j.service.runSingle(ctx, j.body, j.headline, j.language, j.part.Data)}
}
