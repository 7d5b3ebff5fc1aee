package kinds

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/JonMunkholm/gereecole/internal/core"
)

// GradesCollection is the sub-collection of a student holding its grades.
const GradesCollection = "grades"

// DefaultGradeType is used when the type column is blank.
const DefaultGradeType = "Devoir"

var (
	minGrade = decimal.Zero
	maxGrade = decimal.NewFromInt(20)
)

func init() {
	registerGrades()
}

func registerGrades() {
	core.Register(core.TemplateDefinition{
		Template: core.ImportTemplate{
			Kind:       core.KindGrades,
			Label:      "Notes",
			Collection: GradesCollection,
			Columns: []core.Column{
				{Header: "studentMatricule", Label: "Matricule", Required: true, Description: "Matricule d'un élève existant", MissingMessage: "Le matricule (studentMatricule) est obligatoire"},
				{Header: "subject", Label: "Matière", Required: true, Description: "Matière évaluée", MissingMessage: "La matière (subject) est obligatoire"},
				{Header: "grade", Label: "Note", Required: true, Description: "Note sur 20, virgule ou point décimal", MissingMessage: "La note (grade) est obligatoire"},
				{Header: "coefficient", Label: "Coefficient", Description: "Nombre positif, 1 par défaut"},
				{Header: "type", Label: "Type", Description: "Devoir, Composition, Interrogation... (Devoir par défaut)"},
				{Header: "date", Label: "Date", Description: "JJ/MM/AAAA, date du jour par défaut"},
				{Header: "term", Label: "Trimestre", Description: "Période d'évaluation (ex : T1)"},
				{Header: "comment", Label: "Appréciation", Description: "Commentaire libre"},
			},
		},
		Build: buildGrade,
	})
}

func buildGrade(row core.RawRow, env *core.RowEnv) (core.Record, error) {
	gradeCell := row.Get("grade")
	grade, ok := core.ParseDecimal(gradeCell)
	if !ok {
		return core.Record{}, fmt.Errorf("La note %q n'est pas un nombre", gradeCell.String())
	}
	if grade.LessThan(minGrade) || grade.GreaterThan(maxGrade) {
		return core.Record{}, fmt.Errorf("La note %s doit être comprise entre 0 et 20", gradeCell.String())
	}

	coefficient := decimal.NewFromInt(1)
	if c := row.Get("coefficient"); !c.IsEmpty() {
		coef, ok := core.ParseDecimal(c)
		if !ok || !coef.IsPositive() {
			return core.Record{}, fmt.Errorf("Le coefficient %q doit être un nombre positif", c.String())
		}
		coefficient = coef
	}

	matricule := row.Text("studentMatricule")
	student, ok := env.Students.Lookup(matricule)
	if !ok {
		return core.Record{}, fmt.Errorf("Élève avec le matricule %q introuvable", matricule)
	}

	doc := core.Document{
		"studentId":   student.ID,
		"studentName": strings.TrimSpace(student.FirstName + " " + student.LastName),
		"matricule":   student.Matricule,
		"subject":     row.Text("subject"),
		"grade":       grade.InexactFloat64(),
		"coefficient": coefficient.InexactFloat64(),
		"type":        textOr(row, "type", DefaultGradeType),
		"date":        dateOr(row, "date", env.Today()),
		"term":        row.Text("term"),
		"comment":     row.Text("comment"),
	}

	return core.Record{
		Collection: GradesCollection,
		Parent:     &core.ParentRef{Collection: StudentsCollection, ID: student.ID},
		Doc:        doc,
	}, nil
}
