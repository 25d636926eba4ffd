package domain

// Outcome is the result of one pre-flight step.
type Outcome int

const (
	// OutcomePass lets the pipeline continue.
	OutcomePass Outcome = iota
	// OutcomeFatal aborts into the failure path.
	OutcomeFatal
	// OutcomeSoft is logged as a warning and the pipeline continues.
	OutcomeSoft
)

func (o Outcome) String() string {
	switch o {
	case OutcomePass:
		return "pass"
	case OutcomeFatal:
		return "fatal"
	case OutcomeSoft:
		return "soft"
	default:
		return "unknown"
	}
}

// StepResult pairs an outcome with the error that caused it.
type StepResult struct {
	Outcome Outcome
	Err     error
}

func Pass() StepResult              { return StepResult{Outcome: OutcomePass} }
func Fatal(err error) StepResult    { return StepResult{Outcome: OutcomeFatal, Err: err} }
func SoftFail(err error) StepResult { return StepResult{Outcome: OutcomeSoft, Err: err} }

// Step names, in pipeline order.
const (
	StepAuditStart  = "audit_start"
	StepLoadConfig  = "load_config"
	StepModeGate    = "mode_gate"
	StepCredentials = "credentials"
	StepGasReserve  = "gas_reserve"
	StepGasPrice    = "gas_price"
	StepExecute     = "execute"
)

// Steps lists every step in order.
var Steps = []string{
	StepAuditStart,
	StepLoadConfig,
	StepModeGate,
	StepCredentials,
	StepGasReserve,
	StepGasPrice,
	StepExecute,
}
