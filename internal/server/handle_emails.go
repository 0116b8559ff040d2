package server

import (
	"log/slog"
	"net/http"

	"github.com/bighelpmob/missionhub/internal/email"
	"github.com/bighelpmob/missionhub/internal/validation"
)

// EmailPreviewResponse describes a draft message before it is sent.
type EmailPreviewResponse struct {
	Valid                   bool              `json:"valid"`
	ValidOtherThanConfirmed bool              `json:"validOtherThanConfirmed"`
	UserCount               int               `json:"userCount"`
	Templated               bool              `json:"templated"`
	Errors                  validation.Errors `json:"errors"`
	Messages                []string          `json:"messages"`
}

// EmailSentResponse is returned once a message is queued.
type EmailSentResponse struct {
	Status     string `json:"status"`
	Recipients int    `json:"recipients"`
	Templated  bool   `json:"templated"`
}

type ScopeTypeOption struct {
	Label string          `json:"label"`
	Value email.ScopeType `json:"value"`
}

// readMessage decodes a loose attribute map so that form-style values
// ("1", "on", nested filter tables) are accepted.
func readMessage(r *http.Request) (*email.Message, error) {
	var attrs map[string]any
	if err := readJSON(r, &attrs); err != nil {
		return nil, err
	}
	return email.NewMessage(attrs), nil
}

func handleEmailScopeTypes() http.HandlerFunc {
	out := make([]ScopeTypeOption, 0, len(email.ScopeTypes))
	for _, st := range email.ScopeTypes {
		out = append(out, ScopeTypeOption{Label: st.Label, Value: st.Value})
	}
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, out)
	}
}

func handlePreviewEmail(logger *slog.Logger, composer *email.Composer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m, err := readMessage(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		errs, err := composer.Validate(r.Context(), m)
		if err != nil {
			logger.Error("validating email", "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		count, err := composer.UserCount(r.Context(), m)
		if err != nil {
			logger.Error("counting recipients", "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		writeJSON(w, http.StatusOK, EmailPreviewResponse{
			Valid:                   errs.Empty(),
			ValidOtherThanConfirmed: email.ValidOtherThanConfirmed(errs),
			UserCount:               count,
			Templated:               m.Templated(),
			Errors:                  errs,
			Messages:                errs.FullMessages(),
		})
	}
}

func handleSendEmail(logger *slog.Logger, composer *email.Composer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m, err := readMessage(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		sent, errs, err := composer.Save(r.Context(), m)
		if err != nil {
			logger.Error("sending email", "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if !sent {
			writeValidation(w, errs)
			return
		}

		count, err := composer.UserCount(r.Context(), m)
		if err != nil {
			logger.Warn("counting recipients", "error", err)
		}
		logger.Info("email queued",
			"admin", adminFrom(r).Email,
			"subject", m.Subject,
			"scope", m.ScopeType,
			"recipients", count,
		)
		writeJSON(w, http.StatusAccepted, EmailSentResponse{
			Status:     "queued",
			Recipients: count,
			Templated:  m.Templated(),
		})
	}
}
