package ports

import (
	"errors"
	"fmt"
)

// ErrNotCircleMember is returned when the querying user does not belong to
// the requested circle. The query is aborted before any retrieval.
var ErrNotCircleMember = errors.New("querying user is not a member of the requested circle")

// Dependency names used in DependencyError.
const (
	DependencyEmbedding      = "embedding"
	DependencyVectorStore    = "vector-store"
	DependencyEventStore     = "event-store"
	DependencyChatCompletion = "chat-completion"
	DependencyDirectory      = "directory"
)

// DependencyError wraps a failure of one of the engine's external
// collaborators. Embedding, vector-store and chat-completion failures are
// fatal to the query; event-store failures are swallowed by the retriever.
type DependencyError struct {
	Dependency string
	Err        error
}

func (e *DependencyError) Error() string {
	return fmt.Sprintf("%s dependency failed: %v", e.Dependency, e.Err)
}

func (e *DependencyError) Unwrap() error {
	return e.Err
}

// NewDependencyError wraps err as a failure of the named dependency.
func NewDependencyError(dependency string, err error) *DependencyError {
	return &DependencyError{Dependency: dependency, Err: err}
}
