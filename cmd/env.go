package main

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/skylark-bi/boardpulse/internal/analyst"
	"github.com/skylark-bi/boardpulse/internal/normalize"
	"github.com/skylark-bi/boardpulse/internal/schema"
	"github.com/skylark-bi/boardpulse/internal/store"
	"github.com/skylark-bi/boardpulse/pkg/anthropic"
	"github.com/skylark-bi/boardpulse/pkg/monday"
)

// agentEnv holds the initialized role set, engine, store, and clients
// shared by the fetch/ask/report/serve commands.
type agentEnv struct {
	Roles   *schema.RoleSet
	Engine  *normalize.Engine
	Store   store.Store
	Monday  monday.Client
	Analyst *analyst.Analyst
}

// Close releases resources held by the environment.
func (e *agentEnv) Close() {
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

// initRoles loads the role configuration, falling back to the
// compiled-in default set. Validation failures here are fatal: a
// broken role set means a broken deployment, and no row should be
// processed against it.
func initRoles() (*schema.RoleSet, error) {
	if cfg.Roles.Path == "" {
		return schema.DefaultRoleSet(), nil
	}
	rs, err := schema.LoadRoleSet(cfg.Roles.Path)
	if err != nil {
		return nil, eris.Wrap(err, "init roles")
	}
	zap.L().Info("loaded role configuration",
		zap.String("path", cfg.Roles.Path),
		zap.Int("roles", rs.Len()),
	)
	return rs, nil
}

// initEnv sets up everything the data-facing commands need. Callers
// should defer env.Close().
func initEnv(ctx context.Context) (*agentEnv, error) {
	roles, err := initRoles()
	if err != nil {
		return nil, err
	}

	st, err := store.Open(ctx, cfg.Store.Driver, cfg.Store.DSN)
	if err != nil {
		return nil, eris.Wrap(err, "open store")
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	env := &agentEnv{
		Roles:  roles,
		Engine: normalize.NewEngine(roles),
		Store:  st,
	}

	if cfg.Monday.Token != "" {
		env.Monday = monday.NewClient(cfg.Monday.Token,
			monday.WithBaseURL(cfg.Monday.BaseURL),
			monday.WithAPIVersion(cfg.Monday.APIVersion),
			monday.WithRateLimit(cfg.Monday.RateLimit),
			monday.WithPageLimit(cfg.Monday.PageLimit),
		)
	}

	if cfg.Anthropic.Key != "" {
		client := anthropic.NewClient(cfg.Anthropic.Key)
		env.Analyst = analyst.New(client, roles, cfg.Anthropic.Model, cfg.Anthropic.MaxTokens)
	}

	return env, nil
}

// requireMonday returns an error if no monday.com token is configured.
func (e *agentEnv) requireMonday() error {
	if e.Monday == nil {
		return eris.New("monday token not configured (set BOARDPULSE_MONDAY_TOKEN)")
	}
	return nil
}

// requireAnalyst returns an error if no Anthropic key is configured.
func (e *agentEnv) requireAnalyst() error {
	if e.Analyst == nil {
		return eris.New("anthropic key not configured (set BOARDPULSE_ANTHROPIC_KEY)")
	}
	return nil
}
