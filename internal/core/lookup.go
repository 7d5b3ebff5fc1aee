package core

import "time"

// ClassIndex resolves class names to classes. Keys are NormalizeKey'd;
// the first class wins when two share a normalized name.
type ClassIndex struct {
	byName map[string]ClassRef
}

// NewClassIndex indexes classes by normalized name.
func NewClassIndex(classes []ClassRef) *ClassIndex {
	idx := &ClassIndex{byName: make(map[string]ClassRef, len(classes))}
	for _, c := range classes {
		key := NormalizeKey(c.Name)
		if _, exists := idx.byName[key]; !exists {
			idx.byName[key] = c
		}
	}
	return idx
}

// Lookup returns the class whose name matches ignoring case and padding.
func (i *ClassIndex) Lookup(name string) (ClassRef, bool) {
	if i == nil {
		return ClassRef{}, false
	}
	c, ok := i.byName[NormalizeKey(name)]
	return c, ok
}

// Len returns the number of distinct class names.
func (i *ClassIndex) Len() int {
	if i == nil {
		return 0
	}
	return len(i.byName)
}

// StudentIndex resolves matricules to students.
type StudentIndex struct {
	byMatricule map[string]StudentRef
}

// NewStudentIndex indexes students by normalized matricule.
// Students without a matricule cannot be targeted and are left out.
func NewStudentIndex(students []StudentRef) *StudentIndex {
	idx := &StudentIndex{byMatricule: make(map[string]StudentRef, len(students))}
	for _, s := range students {
		key := NormalizeKey(s.Matricule)
		if key == "" {
			continue
		}
		if _, exists := idx.byMatricule[key]; !exists {
			idx.byMatricule[key] = s
		}
	}
	return idx
}

// Lookup returns the student with the given matricule.
func (i *StudentIndex) Lookup(matricule string) (StudentRef, bool) {
	if i == nil {
		return StudentRef{}, false
	}
	s, ok := i.byMatricule[NormalizeKey(matricule)]
	return s, ok
}

// Len returns the number of indexed students.
func (i *StudentIndex) Len() int {
	if i == nil {
		return 0
	}
	return len(i.byMatricule)
}

// RowEnv is the caller context a BuildFunc normalizes rows against.
type RowEnv struct {
	TenantID       string
	EnrollmentYear string
	Now            time.Time
	Classes        *ClassIndex
	Students       *StudentIndex
}

// Today returns the run date as YYYY-MM-DD.
func (e *RowEnv) Today() string {
	return e.Now.Format(ISODate)
}
