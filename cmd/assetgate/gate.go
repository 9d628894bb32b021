package main

import (
	"fmt"

	"github.com/meshworks/assetgate/internal/anomaly"
	"github.com/meshworks/assetgate/internal/config"
	"github.com/meshworks/assetgate/internal/fix"
	"github.com/meshworks/assetgate/internal/rules"
	"github.com/meshworks/assetgate/internal/scene"
	"github.com/meshworks/assetgate/internal/session"
	"github.com/meshworks/assetgate/internal/validate"
)

// gateEnv bundles everything a gate command needs: config, the loaded
// ruleset, the scene, and the two engines.
type gateEnv struct {
	cfg       *config.Config
	ruleset   *rules.RuleSet
	scn       *scene.MemoryScene
	validator *validate.Engine
	fixer     *fix.Fixer
	extra     session.ExtraViolations
}

// setupGate loads config, ruleset and scene. Any failure here is a
// configuration/load error: nothing has touched the scene yet and the
// command exits 2.
func setupGate(scenePath, rulesPath string) (*gateEnv, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	if rulesPath == "" {
		rulesPath = cfg.Rules.Path
	}
	ruleset, err := rules.DefaultRegistry().LoadFile(rulesPath)
	if err != nil {
		return nil, err
	}

	scn, err := scene.LoadFile(scenePath)
	if err != nil {
		return nil, err
	}

	env := &gateEnv{
		cfg:       cfg,
		ruleset:   ruleset,
		scn:       scn,
		validator: validate.NewEngine(),
		fixer: fix.NewFixerWithOptions(fix.Options{
			WeldTolerance:    cfg.Fix.WeldTolerance,
			NamingPattern:    cfg.Fix.NamingPattern,
			StandardMaterial: cfg.Fix.StandardMaterial,
		}),
	}

	if cfg.Anomaly.Enabled {
		if cfg.Anomaly.Endpoint == "" {
			return nil, fmt.Errorf("anomaly scoring enabled but no endpoint configured")
		}
		adapter := anomaly.NewAdapter(anomaly.NewHTTPClient(cfg.Anomaly.Endpoint), cfg.Anomaly.Threshold)
		env.extra = adapter.Violations
	}

	return env, nil
}

// newController builds a convergence controller for the environment.
func (env *gateEnv) newController(targets []string, maxIterations int, bestEffort bool) *session.Controller {
	ctrl := session.NewController(env.scn, env.ruleset, env.validator, env.fixer)
	ctrl.SetTargets(targets)
	ctrl.SetMaxIterations(maxIterations)
	ctrl.SetBestEffort(bestEffort)
	if env.extra != nil {
		ctrl.SetExtraViolations(env.extra)
	}
	return ctrl
}
