package http

import (
	"net/http"

	"finwise/internal/auth"
	"finwise/internal/log"
	"finwise/internal/services"
)

type loginForm struct {
	Email string
	Next  string
}

type signupForm struct {
	Name  string
	Email string
}

// signedIn reports whether the request carries a valid session. Used by the
// public pages to bounce authenticated users to the dashboard.
func (s *Server) signedIn(r *http.Request) bool {
	_, err := s.deps.Auth.CurrentUser(r.Context(), auth.TokenFromRequest(r))
	return err == nil
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if s.signedIn(r) {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (s *Server) handleLoginForm(w http.ResponseWriter, r *http.Request) {
	if s.signedIn(r) {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}
	s.render(w, r, "login", http.StatusOK, s.newPage(r, "Log in", loginForm{
		Next: auth.SafeNext(r.URL.Query().Get("next")),
	}))
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	sl := log.NewStructuredLogger(log.FromContext(r.Context()))
	body, err := ParseRequestBody(w, r)
	if err != nil {
		s.renderError(w, r, http.StatusBadRequest, "Invalid request")
		return
	}
	form := loginForm{
		Email: body.Get("email"),
		Next:  auth.SafeNext(body.Get("next")),
	}
	if form.Next == "" {
		form.Next = auth.SafeNext(r.URL.Query().Get("next"))
	}

	u, err := s.deps.Accounts.Verify(r.Context(), form.Email, body.GetRaw("password"))
	if err != nil {
		sl.LogAuth(r.Context(), log.OpLogin, 0, err)
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			s.internalError(w, r, err)
			return
		}
		p := s.newPage(r, "Log in", form)
		p.Error = userMessage(err, status)
		s.render(w, r, "login", status, p)
		return
	}

	issued, err := s.deps.Auth.Login(r.Context(), u)
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	s.deps.Auth.SetCookie(w, issued)
	sl.LogAuth(r.Context(), log.OpLogin, u.ID, nil)
	s.deps.Accounts.RecordLogin(r.Context(), u.ID)

	target := form.Next
	if target == "" {
		target = withNotice("/dashboard", "welcome")
	}
	seeOther(w, r, target)
}

func (s *Server) handleSignupForm(w http.ResponseWriter, r *http.Request) {
	if s.signedIn(r) {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}
	s.render(w, r, "signup", http.StatusOK, s.newPage(r, "Sign up", signupForm{}))
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	body, err := ParseRequestBody(w, r)
	if err != nil {
		s.renderError(w, r, http.StatusBadRequest, "Invalid request")
		return
	}
	in := services.SignupInput{
		Name:     body.Get("name"),
		Email:    body.Get("email"),
		Password: body.GetRaw("password"),
		Confirm:  body.GetRaw("confirm"),
	}

	u, err := s.deps.Accounts.Register(r.Context(), in)
	if err != nil {
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			s.internalError(w, r, err)
			return
		}
		s.logFailure(r, "Signup rejected", err, status)
		p := s.newPage(r, "Sign up", signupForm{Name: in.Name, Email: in.Email})
		p.Error = userMessage(err, status)
		s.render(w, r, "signup", status, p)
		return
	}

	log.NewStructuredLogger(log.FromContext(r.Context())).LogAuth(r.Context(), log.OpRegister, u.ID, nil)
	seeOther(w, r, withNotice("/login", "account_created"))
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.UserFromContext(r.Context())
	if err := s.deps.Auth.Logout(r.Context(), auth.TokenFromRequest(r)); err != nil && !isNotFound(err) {
		log.FromContext(r.Context()).WarnContext(r.Context(), "Failed to delete session", log.FieldError, err)
	}
	s.deps.Auth.ClearCookie(w)
	log.NewStructuredLogger(log.FromContext(r.Context())).LogAuth(r.Context(), log.OpLogout, u.ID, nil)
	http.Redirect(w, r, withNotice("/login", "logged_out"), http.StatusSeeOther)
}

func isNotFound(err error) bool {
	return statusFor(err) == http.StatusNotFound
}
