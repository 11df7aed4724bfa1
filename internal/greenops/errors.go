package greenops

// constError is an immutable error type for sentinel errors.
// It implements the error interface and provides compile-time safety.
type constError string

func (e constError) Error() string { return string(e) }

// Error types for factor configuration.
// These are sentinel errors that can be compared with errors.Is().
var (
	// ErrMissingFactor indicates a factor table without an entry for an
	// enumerated mode, category, bucket or frequency. It is a configuration
	// defect: lookups panic with it rather than assume zero emissions.
	ErrMissingFactor = constError("missing emission factor")

	// ErrInvalidFactor indicates a factor that is negative, zero or not finite.
	ErrInvalidFactor = constError("invalid emission factor")

	// ErrUnsupportedVersion indicates a factor table whose version is outside
	// SupportedFactorVersions.
	ErrUnsupportedVersion = constError("unsupported factor table version")
)
