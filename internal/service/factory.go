package service

import (
	"log/slog"

	"scalemap.app/engine/common/llm"
	"scalemap.app/engine/core/config"
	"scalemap.app/engine/internal/detect"
	"scalemap.app/engine/internal/lifecycle"
	"scalemap.app/engine/internal/notify"
	"scalemap.app/engine/internal/queue"
	"scalemap.app/engine/internal/store"
	"scalemap.app/engine/internal/timeline"
	"scalemap.app/engine/internal/triage"
)

// ServicesConfig gathers everything NewServices needs to wire the engine.
// LLM may be nil; the detector degrades to static follow-up questions.
// Producer may be nil; notifications become log-only no-ops.
type ServicesConfig struct {
	Stores   *store.Stores
	LLM      llm.Client
	Producer queue.Producer
	Engine   config.EngineConfig
	Logger   *slog.Logger
}

// Services wires the engine components once and hands out the shared
// instances. The timeline machine is built first because both the detector
// (pause on critical gaps) and the lifecycle manager (resume check) hold a
// narrow slice of it.
type Services struct {
	stores      *store.Stores
	assessments AssessmentService
	analyzer    detect.Analyzer
	gaps        lifecycle.Manager
	triage      triage.Validator
	timeline    timeline.Machine
}

func NewServices(cfg ServicesConfig) *Services {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}

	var notifier notify.Notifier = notify.Noop{}
	if cfg.Producer != nil {
		notifier = notify.New(cfg.Producer, log)
	}

	timelineCfg := timeline.DefaultConfig()
	if cfg.Engine.MaxExtensions > 0 {
		timelineCfg.MaxExtensions = cfg.Engine.MaxExtensions
	}
	if cfg.Engine.AutoApproveLimit > 0 {
		timelineCfg.AutoApproveLimit = cfg.Engine.AutoApproveLimit
	}
	if cfg.Engine.GapResolutionCap > 0 {
		timelineCfg.GapResolutionCap = cfg.Engine.GapResolutionCap
	}
	if cfg.Engine.ClarificationCap > 0 {
		timelineCfg.ClarificationCap = cfg.Engine.ClarificationCap
	}
	if cfg.Engine.AtRiskWindow > 0 {
		timelineCfg.AtRiskWindow = cfg.Engine.AtRiskWindow
	}
	if cfg.Engine.PauseExtensionTrigger > 0 {
		timelineCfg.PauseExtensionTrigger = cfg.Engine.PauseExtensionTrigger
	}
	machine := timeline.New(cfg.Stores, notifier, timelineCfg, log)

	detectCfg := detect.DefaultConfig()
	if cfg.Engine.AnalysisCacheWindow > 0 {
		detectCfg.CacheWindow = cfg.Engine.AnalysisCacheWindow
	}
	analyzer := detect.New(cfg.Stores, cfg.LLM, machine, detectCfg, log)

	triageCfg := triage.DefaultConfig()
	if cfg.Engine.TriageQualityThreshold > 0 {
		triageCfg.QualityThreshold = cfg.Engine.TriageQualityThreshold
	}
	if cfg.Engine.TriageConfidenceFloor > 0 {
		triageCfg.ConfidenceFloor = cfg.Engine.TriageConfidenceFloor
	}

	return &Services{
		stores:      cfg.Stores,
		assessments: NewAssessmentService(cfg.Stores, log),
		analyzer:    analyzer,
		gaps:        lifecycle.New(cfg.Stores, machine, log),
		triage:      triage.New(triageCfg, log),
		timeline:    machine,
	}
}

func (s *Services) Assessments() AssessmentService {
	return s.assessments
}

func (s *Services) Analyzer() detect.Analyzer {
	return s.analyzer
}

func (s *Services) Gaps() lifecycle.Manager {
	return s.gaps
}

func (s *Services) Triage() triage.Validator {
	return s.triage
}

func (s *Services) Timeline() timeline.Machine {
	return s.timeline
}

func (s *Services) Stores() *store.Stores {
	return s.stores
}
