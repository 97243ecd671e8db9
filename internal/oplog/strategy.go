package oplog

import (
	"fmt"

	"github.com/GoPolymarket/oplog/internal/config"
)

// Strategy supplies the hooks the interceptor calls around an endpoint.
type Strategy interface {
	// BeforeInvoke runs once the snapshot and metadata are on corr.
	BeforeInvoke(corr *Correlation)
	AfterReturning(corr *Correlation, result any)
	AfterThrowing(corr *Correlation, err error)
	// Finish runs exactly once per captured request, after success or failure.
	Finish(corr *Correlation, result any, err error)
}

// Submitter accepts operation log tasks for asynchronous persistence.
type Submitter interface {
	Submit(task Task) bool
}

// VerboseStrategy prints request and response text and persists the record.
type VerboseStrategy struct {
	policy    *PrintPolicy
	submitter Submitter
}

func NewVerboseStrategy(policy *PrintPolicy, submitter Submitter) *VerboseStrategy {
	return &VerboseStrategy{policy: policy, submitter: submitter}
}

func (s *VerboseStrategy) BeforeInvoke(corr *Correlation) {
	if corr.Request != nil {
		s.policy.Request(corr, corr.Request)
	}
}

func (s *VerboseStrategy) AfterReturning(corr *Correlation, result any) {
	s.policy.Response(corr, result)
}

func (s *VerboseStrategy) AfterThrowing(corr *Correlation, err error) {
	s.policy.Failure(corr, err)
}

func (s *VerboseStrategy) Finish(corr *Correlation, result any, err error) {
	submit(s.submitter, corr, result, err)
}

// MinimalStrategy persists records without printing anything.
type MinimalStrategy struct {
	submitter Submitter
}

func NewMinimalStrategy(submitter Submitter) *MinimalStrategy {
	return &MinimalStrategy{submitter: submitter}
}

func (s *MinimalStrategy) BeforeInvoke(*Correlation) {}
func (s *MinimalStrategy) AfterReturning(*Correlation, any) {}
func (s *MinimalStrategy) AfterThrowing(*Correlation, error) {}

func (s *MinimalStrategy) Finish(corr *Correlation, result any, err error) {
	submit(s.submitter, corr, result, err)
}

func submit(submitter Submitter, corr *Correlation, result any, err error) {
	if submitter == nil {
		return
	}
	submitter.Submit(Task{
		Request:   corr.Request,
		Operation: corr.Operation,
		Result:    result,
		Err:       err,
	})
}

// NewStrategy picks the strategy named by cfg.Strategy.
func NewStrategy(cfg config.LogConfig, policy *PrintPolicy, submitter Submitter) (Strategy, error) {
	switch cfg.Strategy {
	case config.StrategyVerbose, "":
		return NewVerboseStrategy(policy, submitter), nil
	case config.StrategyMinimal:
		return NewMinimalStrategy(submitter), nil
	default:
		return nil, fmt.Errorf("unknown log strategy %q", cfg.Strategy)
	}
}
