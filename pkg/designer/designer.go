// Package designer holds the types shared with the lighting-timeline
// subsystem. The timeline engine itself is a separate service; the playback
// engine only binds a project per composition and drives its transport.
package designer

// Project is a lighting timeline authored for one composition.
type Project struct {
	Name            string `json:"name"`
	CompositionName string `json:"compositionName"`
	DurationMillis  int64  `json:"durationMillis"`
}
