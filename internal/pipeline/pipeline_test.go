package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPipeline_RunsStagesInOrder(t *testing.T) {
	var order []string
	stage := func(name string) Stage {
		return Stage{Name: name, Run: func(_ context.Context, env *Env) error {
			order = append(order, name)
			env.Output += name
			return nil
		}}
	}

	p := New(nil, stage("a"), stage("b"), stage("c"))
	env := NewEnv(nil, 1, "en", nil)
	require.NoError(t, p.Run(context.Background(), env))

	assert.Equal(t, []string{"a", "b", "c"}, order)
	assert.Equal(t, []string{"a", "b", "c"}, p.Stages())
	assert.Equal(t, "abc", env.Output)
}

func TestPipeline_StopsOnError(t *testing.T) {
	boom := errors.New("boom")
	ran := false
	p := New(nil,
		Stage{Name: "first", Run: func(context.Context, *Env) error { return boom }},
		Stage{Name: "second", Run: func(context.Context, *Env) error { ran = true; return nil }},
	)

	err := p.Run(context.Background(), NewEnv(nil, 1, "en", nil))
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "first")
	assert.False(t, ran)
}

func TestPipeline_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := New(nil,
		Stage{Name: "cancel", Run: func(context.Context, *Env) error { cancel(); return nil }},
		Stage{Name: "never", Run: func(context.Context, *Env) error { t.Fatal("stage ran after cancel"); return nil }},
	)

	err := p.Run(ctx, NewEnv(nil, 1, "en", nil))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewEnv_SameSeedSameSequence(t *testing.T) {
	a := NewEnv(nil, 42, "en", nil)
	b := NewEnv(nil, 42, "en", nil)
	for i := 0; i < 5; i++ {
		assert.Equal(t, a.Rand.Uint64(), b.Rand.Uint64())
	}
}

func TestBuild_Stages(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		want []string
	}{
		{
			name: "body without links",
			opts: Options{Format: "p"},
			want: []string{"messages", "importance", "plan", "selection", "aggregation", "dates", "slots", "entities", "surface", "links"},
		},
		{
			name: "body keeping links",
			opts: Options{Format: "ul", Links: true},
			want: []string{"messages", "importance", "plan", "selection", "aggregation", "dates", "slots", "entities", "surface"},
		},
		{
			name: "headline ignores format",
			opts: Options{Format: "bogus", Headline: true, Links: true},
			want: []string{"messages", "importance", "plan", "selection", "aggregation", "dates", "slots", "entities", "surface"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Build(tt.opts, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, p.Stages())
		})
	}
}

func TestBuild_UnknownFormat(t *testing.T) {
	_, err := Build(Options{Format: "table"}, nil)
	assert.Error(t, err)
}
