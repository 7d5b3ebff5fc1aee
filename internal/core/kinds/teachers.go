package kinds

import "github.com/JonMunkholm/gereecole/internal/core"

// StaffCollection holds teachers and other staff members.
const StaffCollection = "staff"

func init() {
	registerTeachers()
}

func registerTeachers() {
	core.Register(core.TemplateDefinition{
		Template: core.ImportTemplate{
			Kind:       core.KindTeachers,
			Label:      "Enseignants",
			Collection: StaffCollection,
			Columns: []core.Column{
				{Header: "firstName", Label: "Prénom", Required: true, Description: "Prénom de l'enseignant", MissingMessage: "Le prénom (firstName) est obligatoire"},
				{Header: "lastName", Label: "Nom", Required: true, Description: "Nom de famille de l'enseignant", MissingMessage: "Le nom (lastName) est obligatoire"},
				{Header: "email", Label: "Email", Description: "Adresse email professionnelle"},
				{Header: "phone", Label: "Téléphone", Description: "Numéro de téléphone"},
				{Header: "subject", Label: "Matière", Description: "Matière principale enseignée"},
				{Header: "position", Label: "Poste", Description: "Fonction (ex : Professeur principal)"},
				{Header: "hireDate", Label: "Date d'embauche", Description: "Date d'embauche"},
			},
		},
		Build: buildTeacher,
	})
}

// buildTeacher stores the columns as typed; staff rows get no extra normalization.
func buildTeacher(row core.RawRow, _ *core.RowEnv) (core.Record, error) {
	doc := core.Document{}
	copyText(doc, row, "firstName", "lastName", "email", "phone", "subject", "position", "hireDate")
	return core.Record{Collection: StaffCollection, Doc: doc}, nil
}
