package missions

import (
	"net/mail"
	"strings"
	"time"

	"github.com/bighelpmob/missionhub/internal/i18n"
	"github.com/bighelpmob/missionhub/internal/validation"
)

// Validate checks a user's own attributes.
func (u *User) Validate(tr *i18n.Translator) validation.Errors {
	var errs validation.Errors
	if strings.TrimSpace(u.Name) == "" {
		errs.Add("name", validation.CodeBlank, tr.T(i18n.KeyBlank, "can't be blank"))
	}
	email := strings.TrimSpace(u.Email)
	if email == "" {
		errs.Add("email", validation.CodeBlank, tr.T(i18n.KeyBlank, "can't be blank"))
	} else if _, err := mail.ParseAddress(email); err != nil {
		errs.Add("email", validation.CodeInvalid, tr.T(i18n.KeyInvalid, "is invalid"))
	}
	return errs
}

// prepare runs before validation: a captain gets an empty captain
// application if they have none, and the participation becomes the
// user's current one.
func (p *Participation) prepare() {
	if p.User == nil {
		return
	}
	if p.Captain() && p.User.CaptainApplication == nil {
		p.User.CaptainApplication = &CaptainApplication{UserID: p.User.ID}
	}
	p.User.CurrentParticipation = p
}

func (p *Participation) requiresPickup() bool {
	return p.Sidekick() && !p.SkipExtraValidation
}

// validator runs the ordered validation pipeline for one participation.
type validator struct {
	tr  *i18n.Translator
	now time.Time
}

type validationStep func(v validator, p *Participation, errs *validation.Errors)

var participationSteps = []validationStep{
	validatePresence,
	validateUser,
	validatePickup,
	validateAnswers,
	validateAge,
}

func (v validator) run(p *Participation) validation.Errors {
	var errs validation.Errors
	for _, step := range participationSteps {
		step(v, p, &errs)
	}
	return errs
}

func validatePresence(v validator, p *Participation, errs *validation.Errors) {
	if p.User == nil {
		errs.Add("user", validation.CodeBlank, v.tr.T(i18n.KeyBlank, "can't be blank"))
	}
	if p.Mission == nil {
		errs.Add("mission", validation.CodeBlank, v.tr.T(i18n.KeyBlank, "can't be blank"))
	}
}

func validateUser(v validator, p *Participation, errs *validation.Errors) {
	if p.User == nil {
		return
	}
	if userErrs := p.User.Validate(v.tr); !userErrs.Empty() {
		errs.Add("user", validation.CodeInvalid, v.tr.T(i18n.KeyInvalid, "is invalid"))
		errs.Merge("user", userErrs)
	}
}

func validatePickup(v validator, p *Participation, errs *validation.Errors) {
	if p.requiresPickup() && p.PickupID == nil {
		errs.Add("pickup", validation.CodeBlank, v.tr.T(i18n.KeyBlank, "can't be blank"))
	}
}

func validateAnswers(v validator, p *Participation, errs *validation.Errors) {
	if p.SkipExtraValidation || p.Mission == nil {
		return
	}
	if answerErrs := p.Answers().Validate(v.tr); !answerErrs.Empty() {
		errs.Add("answers", validation.CodeInvalid, v.tr.T(i18n.KeyInvalid, "is invalid"))
		errs.Merge("answers", answerErrs)
	}
}

func validateAge(v validator, p *Participation, errs *validation.Errors) {
	role := strings.TrimSpace(p.RoleName())
	if role != RoleCaptain && role != RoleSidekick {
		return
	}
	if p.Mission == nil || p.User == nil {
		return
	}
	limits := p.Mission.AgeLimitsFor(role)
	age := p.User.Age(v.now)
	prefix := i18n.Pluralize(i18n.Humanize(role))

	switch {
	case limits.Min != nil && limits.Max != nil:
		if age < *limits.Min || age > *limits.Max {
			errs.AddBase(v.tr.T(i18n.KeyAgeRange, "%s must be %d-%d years old.", prefix, *limits.Min, *limits.Max))
		}
	case limits.Min != nil:
		if age < *limits.Min {
			errs.AddBase(v.tr.T(i18n.KeyAgeMin, "%s must be older than %d.", prefix, *limits.Min))
		}
	case limits.Max != nil:
		if age > *limits.Max {
			errs.AddBase(v.tr.T(i18n.KeyAgeMax, "%s must be younger than %d.", prefix, *limits.Max))
		}
	}
}
