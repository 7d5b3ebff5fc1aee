// Package store holds what the document store backends share: the
// collection names rows are resolved against and the fields read back
// from them.
package store

import (
	"fmt"

	"github.com/JonMunkholm/gereecole/internal/core"
)

// Collections read when resolving rows.
const (
	ClassesCollection  = "classes"
	StudentsCollection = "students"
)

// Document fields every backend persists alongside the record body.
const (
	FieldID               = "_id"
	FieldParentCollection = "parentCollection"
	FieldParentID         = "parentId"
)

// ClassFromDoc reads the class reference out of a stored class document.
func ClassFromDoc(id string, doc core.Document) core.ClassRef {
	return core.ClassRef{ID: id, Name: stringField(doc, "name")}
}

// StudentFromDoc reads the student reference out of a stored student document.
func StudentFromDoc(id string, doc core.Document) core.StudentRef {
	return core.StudentRef{
		ID:        id,
		Matricule: stringField(doc, "matricule"),
		FirstName: stringField(doc, "firstName"),
		LastName:  stringField(doc, "lastName"),
	}
}

func stringField(doc core.Document, key string) string {
	switch v := doc[key].(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}
