// Package access holds the read/write predicates shared by every service.
package access

import "codecollab/internal/domain/model"

// Owned is anything with a single owning user.
type Owned interface {
	OwnerID() string
}

// CanRead reports whether actorID may view project: owners always, everyone else only
// when the project is public.
func CanRead(actorID string, project *model.Project) bool {
	return project.IsPublic || CanWrite(actorID, project)
}

func CanWrite(actorID string, owned Owned) bool {
	return actorID != "" && actorID == owned.OwnerID()
}
