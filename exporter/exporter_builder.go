package exporter

// ExporterBuilderOption is a functional option applied to an exporter during construction via New.
type ExporterBuilderOption func(*exporter)

// WithEncodeWorkers sets the number of worker goroutines used for the
// parallel PNG encode phase.
//
// Parameters:
//   - workers: the worker count (default 4)
//
// Returns:
//   - ExporterBuilderOption: option function to apply
func WithEncodeWorkers(workers int) ExporterBuilderOption {
	return func(e *exporter) {
		if workers > 0 {
			e.encodeWorkers = workers
		}
	}
}
