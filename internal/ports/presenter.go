package ports

// Presenter defines the interface for a surface that shows interrogations to the user
type Presenter interface {
	// Start starts serving the presenter
	Start() error

	// Stop stops the presenter and releases its resources
	Stop() error
}
