package memory

import (
	"testing"

	"github.com/abhishek622/filmsocial/social/internal/repository/repositorytest"
)

func TestRepositoryGraph(t *testing.T) {
	repositorytest.RunGraphStore(t, func(t *testing.T) repositorytest.GraphStore {
		return New()
	})
}

func TestRepositoryEvents(t *testing.T) {
	repositorytest.RunEventLog(t, func(t *testing.T) repositorytest.EventLog {
		return New()
	})
}
