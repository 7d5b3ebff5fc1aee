package kinds

import (
	"fmt"

	"github.com/JonMunkholm/gereecole/internal/core"
)

// Defaults stamped on every imported student.
const (
	StudentStatusActive = "Actif"
	TuitionStatusUnpaid = "Non payé"
	StudentsCollection  = "students"
)

func init() {
	registerStudents()
}

func registerStudents() {
	core.Register(core.TemplateDefinition{
		Template: core.ImportTemplate{
			Kind:       core.KindStudents,
			Label:      "Élèves",
			Collection: StudentsCollection,
			Columns: []core.Column{
				{Header: "firstName", Label: "Prénom", Required: true, Description: "Prénom de l'élève", MissingMessage: "Le prénom (firstName) est obligatoire"},
				{Header: "lastName", Label: "Nom", Required: true, Description: "Nom de famille de l'élève", MissingMessage: "Le nom (lastName) est obligatoire"},
				{Header: "className", Label: "Classe", Required: true, Description: "Nom exact d'une classe existante (ex : 6ème A)", MissingMessage: "La classe (className) est obligatoire"},
				{Header: "dateOfBirth", Label: "Date de naissance", Description: "JJ/MM/AAAA ou date Excel"},
				{Header: "gender", Label: "Sexe", Description: "M ou F"},
				{Header: "matricule", Label: "Matricule", Description: "Identifiant de l'élève, utilisé pour importer les notes"},
				{Header: "address", Label: "Adresse", Description: "Adresse du domicile"},
				{Header: "parentName", Label: "Parent / tuteur", Description: "Nom du parent ou tuteur"},
				{Header: "parentPhone", Label: "Téléphone parent", Description: "Téléphone du parent ou tuteur"},
				{Header: "parentEmail", Label: "Email parent", Description: "Email du parent ou tuteur"},
			},
		},
		Build: buildStudent,
	})
}

func buildStudent(row core.RawRow, env *core.RowEnv) (core.Record, error) {
	className := row.Text("className")
	class, ok := env.Classes.Lookup(className)
	if !ok {
		return core.Record{}, fmt.Errorf("Classe %q introuvable", className)
	}

	doc := core.Document{
		"dateOfBirth":    core.NormalizeDate(row.Get("dateOfBirth")),
		"classId":        class.ID,
		"className":      class.Name,
		"enrollmentYear": env.EnrollmentYear,
		"status":         StudentStatusActive,
		"tuitionStatus":  TuitionStatusUnpaid,
		"amountDue":      0,
	}
	copyText(doc, row, "firstName", "lastName", "gender", "matricule", "address", "parentName", "parentPhone", "parentEmail")

	return core.Record{Collection: StudentsCollection, Doc: doc}, nil
}
