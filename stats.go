package urcu

// Stats is a snapshot of the default domain's runtime state, for
// operational visibility only. No field here participates in any
// correctness invariant; a caller that never looks at Stats observes
// identical behavior to one that polls it constantly.
type Stats struct {
	// RegisteredReaders is the number of readers currently registered
	// with the default domain.
	RegisteredReaders int

	// CompletedGracePeriods is the number of SynchronizeRCU calls that
	// have returned so far.
	CompletedGracePeriods uint64
}

// GetStats returns a snapshot of the default domain's diagnostic
// counters.
func GetStats() Stats {
	return Stats{
		RegisteredReaders:     defaultDomain.RegisteredReaders(),
		CompletedGracePeriods: defaultDomain.CompletedGracePeriods(),
	}
}
