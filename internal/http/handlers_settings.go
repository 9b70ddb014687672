package http

import (
	"net/http"

	"finwise/internal/auth"
	"finwise/internal/core"
	"finwise/internal/log"
)

type settingsView struct {
	Settings core.Settings
	Themes   []core.Theme
}

func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	s.renderSettings(w, r, http.StatusOK, "")
}

func (s *Server) renderSettings(w http.ResponseWriter, r *http.Request, status int, formErr string) {
	u, _ := auth.UserFromContext(r.Context())
	st, err := s.deps.Settings.Get(r.Context(), u.ID)
	if err != nil {
		s.failPage(w, r, "Failed to load settings", err)
		return
	}
	p := s.newPage(r, "Settings", settingsView{
		Settings: st,
		Themes:   []core.Theme{core.ThemeLight, core.ThemeDark},
	})
	p.Error = formErr
	s.render(w, r, "settings", status, p)
}

// handleUpdateSettings dispatches on the form's action field. Unknown
// actions change nothing and return to the settings page.
func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.UserFromContext(r.Context())
	body, err := ParseRequestBody(w, r)
	if err != nil {
		s.renderError(w, r, http.StatusBadRequest, "Invalid request")
		return
	}
	ctx := r.Context()
	logger := log.FromContext(ctx).WithComponent(log.ComponentSettings)

	var notice string
	switch action := body.Get("action"); action {
	case "update_profile":
		err = s.deps.Accounts.UpdateProfile(ctx, u.ID, body.Get("name"))
		notice = "profile_updated"
	case "update_notifications":
		_, err = s.deps.Settings.UpdateNotifications(ctx, u.ID, core.Notifications{
			BudgetAlerts:   body.Has("budget_alerts"),
			WeeklySummary:  body.Has("weekly_summary"),
			SecurityAlerts: body.Has("security_alerts"),
		})
		notice = "notifications_updated"
	case "update_theme":
		_, err = s.deps.Settings.UpdateTheme(ctx, u.ID, body.Get("theme"))
		notice = "theme_updated"
	case "delete_account":
		if err := s.deps.Accounts.DeleteAccount(ctx, u.ID); err != nil {
			s.failPage(w, r, "Failed to delete account", err)
			return
		}
		s.deps.Auth.ClearCookie(w)
		seeOther(w, r, withNotice("/signup", "account_deleted"))
		return
	default:
		logger.WarnContext(ctx, "Unknown settings action", "action", action)
		seeOther(w, r, "/settings")
		return
	}

	if err != nil {
		status := statusFor(err)
		if status != http.StatusUnprocessableEntity {
			s.failPage(w, r, "Failed to update settings", err)
			return
		}
		s.logFailure(r, "Settings update rejected", err, status)
		s.renderSettings(w, r, status, userMessage(err, status))
		return
	}
	logger.InfoContext(ctx, "Settings updated", log.FieldOperation, log.OpUpdate, "action", notice)
	seeOther(w, r, withNotice("/settings", notice))
}
