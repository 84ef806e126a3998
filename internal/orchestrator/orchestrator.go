package orchestrator

import (
	"context"
	"time"

	"github.com/nickcrew/claude-ctx/internal/config"
	"github.com/nickcrew/claude-ctx/internal/ctxerr"
	"github.com/nickcrew/claude-ctx/internal/detector"
	"github.com/nickcrew/claude-ctx/internal/learner"
	"github.com/nickcrew/claude-ctx/internal/logging"
	"github.com/nickcrew/claude-ctx/internal/ratings"
	"github.com/nickcrew/claude-ctx/internal/resolver"
	"github.com/nickcrew/claude-ctx/internal/store"
)

// Orchestrator is the sole entry point consumed by the CLI/TUI (spec
// §4.F, §6 "Orchestrator API"). It holds no state of its own beyond
// references to the components it composes.
type Orchestrator struct {
	cfg     *config.Config
	store   *store.Store
	learner *learner.Learner
	ratings *ratings.Store
}

// New wires a complete Orchestrator rooted at cfg.Root. ratingsStore is
// injected so callers control its lifetime (Close belongs to the
// caller via Shutdown).
func New(cfg *config.Config, st *store.Store, l *learner.Learner, rs *ratings.Store) *Orchestrator {
	return &Orchestrator{cfg: cfg, store: st, learner: l, ratings: rs}
}

// Shutdown releases resources the Orchestrator does not own outright
// but is responsible for closing on process exit (spec §5 "SQLite
// database: the Ratings Store owns it").
func (o *Orchestrator) Shutdown() error {
	if o.ratings != nil {
		return o.ratings.Close()
	}
	return nil
}

// ComponentList delegates to the Store (spec §4.F op 1).
func (o *Orchestrator) ComponentList(ctx context.Context, kind Kind) ([]store.ComponentInfo, error) {
	return o.store.List(ctx, kind)
}

// loadAgents loads every known agent (active and inactive) fully
// parsed, needed to build the in-memory dependency graph (spec §4.B).
// Broken agents are skipped rather than propagated, mirroring the
// Store's own List behavior (spec invariant 1).
func (o *Orchestrator) loadAgents(ctx context.Context) ([]*store.Agent, error) {
	infos, err := o.store.List(ctx, store.KindAgent)
	if err != nil {
		return nil, err
	}
	var agents []*store.Agent
	for _, info := range infos {
		if info.Status == store.StatusBroken {
			continue
		}
		a, err := o.store.LoadAgent(info.Name)
		if err != nil {
			logging.Get(logging.CategoryOrchestrator).Warnw("skipping unreadable agent", "name", info.Name, "error", err)
			continue
		}
		agents = append(agents, a)
	}
	return agents, nil
}

// Activate implements spec §4.F op 2. For agents it computes the
// activation closure via the Resolver and applies it dependency-first
// through the Store; a cycle or a missing-dependency error aborts the
// whole operation before any file is touched. For modes/rules/skills
// it is a single-file activation with no closure.
func (o *Orchestrator) Activate(ctx context.Context, kind Kind, name string) (ActivationReport, error) {
	timer := logging.StartTimer(logging.CategoryOrchestrator, "Activate")
	defer timer.Stop()

	if kind != store.KindAgent {
		report := ActivationReport{}
		if err := o.store.Activate(kind, name); err != nil {
			if isAlreadyActive(err) {
				report.AlreadyActive = append(report.AlreadyActive, name)
				return report, nil
			}
			report.Errors = append(report.Errors, StepError{Name: name, Err: err})
			return report, err
		}
		report.Activated = append(report.Activated, name)
		return report, nil
	}

	agents, err := o.loadAgents(ctx)
	if err != nil {
		return ActivationReport{}, err
	}
	if err := resolver.ValidateMissingDependencies(resolver.BuildGraph(agents), agents); err != nil {
		return ActivationReport{}, err
	}

	g := resolver.BuildGraph(agents)
	plan, err := resolver.ActivationPlan(g, name)
	if err != nil {
		return ActivationReport{}, err // cycle: filesystem untouched
	}

	report := ActivationReport{}
	for _, step := range plan {
		err := o.store.Activate(kind, step.Name)
		switch {
		case err == nil:
			report.Activated = append(report.Activated, step.Name)
		case isAlreadyActive(err):
			report.AlreadyActive = append(report.AlreadyActive, step.Name)
		default:
			report.Errors = append(report.Errors, StepError{Name: step.Name, Err: err})
			return report, err // errors short-circuit; report lists what succeeded before failure
		}
	}
	return report, nil
}

func isAlreadyActive(err error) bool {
	cat, ok := ctxerr.CategoryOf(err)
	return ok && cat == ctxerr.Invariant
}

// Deactivate implements spec §4.F op 3. For agents, it checks the
// reverse-dependency invariant first: with force=false a violation
// aborts leaving the filesystem unchanged; with force=true it proceeds
// and the report carries an explicit warning.
func (o *Orchestrator) Deactivate(ctx context.Context, kind Kind, name string, force bool) (DeactivationReport, error) {
	timer := logging.StartTimer(logging.CategoryOrchestrator, "Deactivate")
	defer timer.Stop()

	if kind == store.KindAgent {
		agents, err := o.loadAgents(ctx)
		if err != nil {
			return DeactivationReport{}, err
		}
		g := resolver.BuildGraph(agents)

		active := make(map[string]bool)
		infos, err := o.store.List(ctx, store.KindAgent)
		if err != nil {
			return DeactivationReport{}, err
		}
		for _, info := range infos {
			if info.Status == store.StatusActive {
				active[info.Name] = true
			}
		}

		blockers := g.DeactivationBlockers(name, active)
		if len(blockers) > 0 && !force {
			return DeactivationReport{BlockedBy: blockers},
				ctxerr.New(ctxerr.Invariant, "deactivation blocked by active dependents").
					WithContext("name", name).WithContext("blocked_by", blockers)
		}

		if err := o.store.Deactivate(kind, name); err != nil {
			return DeactivationReport{}, err
		}
		report := DeactivationReport{Deactivated: []string{name}}
		if len(blockers) > 0 {
			report.BlockedBy = blockers
			report.Forced = true
			report.Warning = "deactivated with active dependents left broken: " + joinNames(blockers)
		}
		return report, nil
	}

	if err := o.store.Deactivate(kind, name); err != nil {
		return DeactivationReport{}, err
	}
	return DeactivationReport{Deactivated: []string{name}}, nil
}

func joinNames(names []string) string {
	out := ""
	for i, n := range names {
		if i > 0 {
			out += ", "
		}
		out += n
	}
	return out
}

// DetectContext delegates to the Detector (spec §4.F op 4).
func (o *Orchestrator) DetectContext(path string) (detector.SessionContext, error) {
	return detector.Detect(path, o.cfg.Detector)
}

// Recommend delegates to the Pattern Learner (spec §4.F op 5).
// includeLLM is accepted for interface stability but has no effect
// beyond what the Learner itself already gates on: a Learner built
// without a Collaborator never runs the LLM stream regardless.
func (o *Orchestrator) Recommend(ctx context.Context, sc detector.SessionContext, includeLLM bool) ([]Recommendation, error) {
	_ = includeLLM
	recs, err := o.learner.Predict(ctx, sc)
	if err != nil {
		return nil, err
	}
	out := make([]Recommendation, len(recs))
	for i, r := range recs {
		out[i] = Recommendation{
			Kind: r.Kind, Name: r.Name, Confidence: r.Confidence,
			Reason: r.Reason, AutoActivate: r.AutoActivate, Source: r.Source,
		}
	}
	return out, nil
}

// AutoActivate implements spec §4.F op 6: selects recommendations
// where AutoActivate is true, activates each one, and records one
// recommendations row per considered recommendation with was_applied
// set accordingly (spec invariant 7: never skill or llm-sourced).
func (o *Orchestrator) AutoActivate(ctx context.Context, contextHash string, recs []Recommendation) (ActivationReport, error) {
	timer := logging.StartTimer(logging.CategoryOrchestrator, "AutoActivate")
	defer timer.Stop()

	report := ActivationReport{}
	for _, rec := range recs {
		applied := false
		var recErr error

		if rec.AutoActivate && rec.Kind == learner.RecAgent && rec.Source != learner.SourceLLM {
			sub, err := o.Activate(ctx, KindAgent, rec.Name)
			report.Activated = append(report.Activated, sub.Activated...)
			report.AlreadyActive = append(report.AlreadyActive, sub.AlreadyActive...)
			report.Errors = append(report.Errors, sub.Errors...)
			if err != nil {
				recErr = err
			} else {
				applied = true
			}
		}

		if o.ratings != nil {
			id, err := o.ratings.RecordRecommendation(ratings.RecordedRecommendation{
				ContextHash: contextHash, SkillName: rec.Name, Confidence: rec.Confidence,
				Reason: rec.Reason, Source: string(rec.Source), AutoActivate: rec.AutoActivate,
			})
			if err != nil {
				logging.Get(logging.CategoryOrchestrator).Warnw("recording recommendation failed", "error", err)
			} else if err := o.ratings.MarkApplied(id, applied); err != nil {
				logging.Get(logging.CategoryOrchestrator).Warnw("marking recommendation applied failed", "error", err)
			}
		}
		_ = recErr
	}
	return report, nil
}

// RecordSessionOutcome implements spec §4.F op 7, appending to the
// Learner's history under its own append-lock (atomic with respect to
// history.jsonl).
func (o *Orchestrator) RecordSessionOutcome(ctx context.Context, sc detector.SessionContext, agentsUsed []string, duration time.Duration, outcome learner.Outcome) error {
	return o.learner.RecordSuccess(ctx, sc, agentsUsed, duration, outcome)
}

// RateSkill implements spec §4.F op 8: derives user_hash (the Ratings
// Store never sees raw identity) and delegates to the Ratings Store.
func (o *Orchestrator) RateSkill(skillName string, stars int, helpful, taskSucceeded bool, review, projectType string) (QualityMetrics, error) {
	if stars < 1 || stars > 5 {
		return QualityMetrics{}, ctxerr.New(ctxerr.Invariant, "stars must be within 1..5").WithContext("stars", stars)
	}
	m, err := o.ratings.RecordRating(ratings.Rating{
		SkillName: skillName, UserHash: config.UserHash(), Stars: stars,
		WasHelpful: helpful, TaskSucceeded: taskSucceeded, Review: review, ProjectType: projectType,
	})
	if err != nil {
		return QualityMetrics{}, err
	}
	return toPublicMetrics(m), nil
}

// SkillRatings implements spec §4.F op 9.
func (o *Orchestrator) SkillRatings(skillName string) (SkillRatingsView, error) {
	m, err := o.ratings.GetMetrics(skillName)
	if err != nil {
		return SkillRatingsView{}, err
	}
	reviews, err := o.ratings.RecentReviews(skillName, 10)
	if err != nil {
		return SkillRatingsView{}, err
	}
	out := SkillRatingsView{Metrics: toPublicMetrics(m)}
	for _, r := range reviews {
		out.RecentReviews = append(out.RecentReviews, Review{
			UserHash: r.UserHash, Stars: r.Stars, Timestamp: r.Timestamp,
			ProjectType: r.ProjectType, Review: r.Review,
			WasHelpful: r.WasHelpful, TaskSucceeded: r.TaskSucceeded,
		})
	}
	return out, nil
}

// SkillTopRated implements spec §4.F op 10.
func (o *Orchestrator) SkillTopRated(limit, minRatings int) ([]QualityMetrics, error) {
	top, err := o.ratings.TopRated(limit, minRatings)
	if err != nil {
		return nil, err
	}
	out := make([]QualityMetrics, len(top))
	for i, m := range top {
		out[i] = toPublicMetrics(m)
	}
	return out, nil
}

// SkillExport implements spec §4.F op 11, delegating to the Ratings
// Store's export (internal/ratings/export.go).
func (o *Orchestrator) SkillExport(format ratings.ExportFormat, skillName string) ([]byte, error) {
	return o.ratings.Export(format, skillName)
}

// RecordTokenSample is a SPEC_FULL.md supplement feeding the nullable
// token_efficiency_percentage metric; it has no numbered op in spec
// §4.F because the original spec left the formula unspecified (§9 Open
// Question).
func (o *Orchestrator) RecordTokenSample(skillName string, baselineTokens, actualTokens int) error {
	return o.ratings.RecordTokenSample(skillName, baselineTokens, actualTokens)
}

// ProfileSnapshot implements spec §4.F op 12 (snapshot half).
func (o *Orchestrator) ProfileSnapshot(ctx context.Context, name string) (store.Profile, error) {
	return o.store.Snapshot(ctx, name)
}

// ProfileApply implements spec §4.F op 12 (apply half). It is not
// cancellable mid-run (spec §5): it runs every computed step to
// completion or returns a partial-success report at the first failure.
func (o *Orchestrator) ProfileApply(ctx context.Context, target store.Profile) (store.DiffReport, error) {
	return o.store.Apply(ctx, target)
}

func toPublicMetrics(m ratings.QualityMetrics) QualityMetrics {
	return QualityMetrics{
		SkillName: m.SkillName, AvgRating: m.AvgRating, TotalRatings: m.TotalRatings,
		HelpfulPercentage: m.HelpfulPercentage, SuccessCorrelationPercentage: m.SuccessCorrelationPercentage,
		TokenEfficiencyPercentage: m.TokenEfficiencyPercentage, UsageCount: m.UsageCount, LastUpdated: m.LastUpdated,
	}
}
