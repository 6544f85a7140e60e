package v1alpha1

// Status is the top-level outcome of a bootstrap invocation.
type Status string

const (
	// StatusSucceeded marks a completed bootstrap.
	StatusSucceeded Status = "succeeded"
	// StatusFailed marks a bootstrap halted at a failing stage.
	StatusFailed Status = "failed"
)

// Result is the tagged union produced exactly once per bootstrap invocation.
// It is either a success carrying metadata, or a failure carrying the stage
// code plus whatever metadata earlier stages accumulated. Partial side effects
// are never hidden: tools installed before a later stage failed stay recorded.
type Result struct {
	// Status tags the union.
	Status Status `json:"status"`
	// Failure is set when Status is StatusFailed.
	Failure *Failure `json:"failure,omitempty"`
	// Metadata is the namespaced diagnostics bag surfaced to operators.
	Metadata Metadata `json:"metadata,omitempty"`
}

// Succeeded reports whether the invocation completed every stage.
func (r Result) Succeeded() bool {
	return r.Status == StatusSucceeded
}

// Succeed constructs a success result.
func Succeed(metadata Metadata) Result {
	return Result{Status: StatusSucceeded, Metadata: metadata}
}

// Fail constructs a failure result preserving accumulated metadata.
func Fail(failure *Failure, metadata Metadata) Result {
	return Result{Status: StatusFailed, Failure: failure, Metadata: metadata}
}

// Failure describes why a stage halted the pipeline.
type Failure struct {
	// Code identifies the originating stage.
	Code FailureCode `json:"code"`
	// Message is a human-readable summary.
	Message string `json:"message"`
	// Expected is true for anticipated, user-actionable conditions. Callers
	// map expected failures to a client-correctable response class and
	// unexpected ones to an internal-error class.
	Expected bool `json:"expected"`
	// Details carries the diagnostics operators act on.
	Details *FailureDetails `json:"details,omitempty"`
}

// FailureDetails is the structured diagnostics attached to a failure.
type FailureDetails struct {
	// MissingCommands lists required CLIs absent from the search path.
	MissingCommands []string `json:"missingCommands,omitempty"`
	// MissingFiles lists configured paths that do not exist.
	MissingFiles []string `json:"missingFiles,omitempty"`
	// MissingContext names the cluster context that is not registered.
	MissingContext string `json:"missingContext,omitempty"`
	// SuggestedCommands lists literal remediation commands in priority order.
	SuggestedCommands []string `json:"suggestedCommands,omitempty"`
}

// NewFailure constructs an expected (user-actionable) failure.
func NewFailure(code FailureCode, message string) *Failure {
	return &Failure{Code: code, Message: message, Expected: true}
}

// NewInternalFailure constructs an unexpected failure for true internal faults.
func NewInternalFailure(code FailureCode, message string) *Failure {
	return &Failure{Code: code, Message: message, Expected: false}
}

// WithDetails attaches diagnostics to the failure and returns it.
func (f *Failure) WithDetails(details FailureDetails) *Failure {
	f.Details = &details

	return f
}
