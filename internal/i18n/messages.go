package i18n

import "golang.org/x/text/language"

// Message keys shared across packages.
const (
	KeyAnswerBlank         = "answer_model.errors.blank"
	KeyAnswerInvalidChoice = "answer_model.errors.invalid_choice"

	KeyBlank            = "errors.messages.blank"
	KeyInvalid          = "errors.messages.invalid"
	KeyInclusion        = "errors.messages.inclusion"
	KeyAgeRange         = "mission_participation.errors.age_range"
	KeyAgeMin           = "mission_participation.errors.age_min"
	KeyAgeMax           = "mission_participation.errors.age_max"
	KeyPickupNotYetSet  = "mission_participation.pickup.not_yet_set"
	KeyPickupNotApplies = "mission_participation.pickup.not_applicable"

	KeyEmailContent   = "email.errors.content"
	KeyEmailNoUsers   = "email.errors.no_users"
	KeyEmailConfirmed = "email.errors.confirmed"
	KeyEmailTemplate  = "email.errors.template"

	KeyRemoveConfirmation = "sidebar.confirmation.remove"
)

// StateEventKey is the label key for a lifecycle event of the given model.
func StateEventKey(model, event string) string {
	return Scoped("ui.state_events", model, event)
}

// StateKey is the label key for a lifecycle state of the given model.
func StateKey(model, state string) string {
	return Scoped("ui.states", model, state)
}

var messages = map[language.Tag]map[string]string{
	language.English: {
		KeyAnswerBlank:         "is blank",
		KeyAnswerInvalidChoice: "is an invalid choice",

		KeyBlank:     "can't be blank",
		KeyInvalid:   "is invalid",
		KeyInclusion: "is not included in the list",

		KeyAgeRange:         "%s must be %d-%d years old.",
		KeyAgeMin:           "%s must be older than %d.",
		KeyAgeMax:           "%s must be younger than %d.",
		KeyPickupNotYetSet:  "Not yet set",
		KeyPickupNotApplies: "Not applicable",

		KeyEmailContent:   "at least one content section must be filled in",
		KeyEmailNoUsers:   "There must be at least one user",
		KeyEmailConfirmed: "please confirm the email choice to continue",
		KeyEmailTemplate:  "has placeholders that can't be filled in: %v",

		KeyRemoveConfirmation: "Are you sure you want to remove this %s?",

		"ui.state_events.mission_participation.await_approval": "Await approval",
		"ui.state_events.mission_participation.approve":        "Approve",
		"ui.state_events.mission_participation.cancel":         "Cancel",
		"ui.state_events.mission_participation.complete":       "Mark as completed",

		"sidebar.admin.mission_participations": "Participation",
		"sidebar.admin.emails":                 "Email",
	},
	language.Spanish: {
		KeyAnswerBlank:         "está vacío",
		KeyAnswerInvalidChoice: "no es una opción válida",

		KeyBlank:     "no puede estar vacío",
		KeyInvalid:   "no es válido",
		KeyInclusion: "no está incluido en la lista",

		KeyAgeRange:         "%s deben tener entre %d y %d años.",
		KeyAgeMin:           "%s deben ser mayores de %d.",
		KeyAgeMax:           "%s deben ser menores de %d.",
		KeyPickupNotYetSet:  "Aún sin asignar",
		KeyPickupNotApplies: "No aplica",

		KeyEmailContent:   "al menos una sección de contenido debe estar completa",
		KeyEmailNoUsers:   "Debe haber al menos un usuario",
		KeyEmailConfirmed: "confirma el envío para continuar",
		KeyEmailTemplate:  "tiene marcadores que no se pueden completar: %v",

		KeyRemoveConfirmation: "¿Seguro que quieres eliminar este %s?",

		"ui.state_events.mission_participation.await_approval": "Esperar aprobación",
		"ui.state_events.mission_participation.approve":        "Aprobar",
		"ui.state_events.mission_participation.cancel":         "Cancelar",
		"ui.state_events.mission_participation.complete":       "Marcar como completada",
	},
}
