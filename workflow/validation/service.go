package validation

import (
	"go.uber.org/zap"

	"github.com/flowgraph-io/flowgraph/workflow"
)

// Service runs an ordered registry of validators over a workflow and
// concatenates their findings. The service owns no state beyond the
// registry; any collaborator may register additional checks. Outcomes are
// independent of registration order (each validator is a pure function of
// the graph), only the error ordering follows it.
type Service struct {
	validators []Validator
	logger     *zap.Logger
}

// NewService creates a validation service with the given validators.
func NewService(validators ...Validator) *Service {
	logger, _ := zap.NewProduction()
	return &Service{
		validators: validators,
		logger:     logger.With(zap.String("component", "validation")),
	}
}

// NewDefaultService creates a service with the built-in validators:
// structure, references, cycles and orphans.
func NewDefaultService() *Service {
	return NewService(
		NewStructureValidator(),
		NewReferenceValidator(),
		NewCycleValidator(),
		NewOrphanValidator(),
	)
}

// WithLogger sets a custom logger.
func (s *Service) WithLogger(logger *zap.Logger) *Service {
	s.logger = logger.With(zap.String("component", "validation"))
	return s
}

// Register appends a validator to the registry.
func (s *Service) Register(v Validator) {
	s.validators = append(s.validators, v)
}

// Validators returns the registered validator names in order.
func (s *Service) Validators() []string {
	names := make([]string, len(s.validators))
	for i, v := range s.validators {
		names[i] = v.Name()
	}
	return names
}

// Validate runs every registered validator and reports the combined result.
// Validators never abort: structural defects accumulate and the caller
// decides how to act on them.
func (s *Service) Validate(wf *workflow.Workflow) Result {
	var errs []Error
	for _, v := range s.validators {
		found := v.Validate(wf)
		if len(found) > 0 {
			s.logger.Debug("validator reported defects",
				zap.String("validator", v.Name()),
				zap.Int("count", len(found)),
			)
		}
		errs = append(errs, found...)
	}
	return Result{Valid: len(errs) == 0, Errors: errs}
}
