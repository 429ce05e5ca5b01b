// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/pquerna/otp/totp"
	"github.com/redis/go-redis/v9"
	qrcode "github.com/skip2/go-qrcode"

	"solarlead/internal/mail"
	"solarlead/internal/middleware"
	"solarlead/internal/models"
	"solarlead/internal/render"
	"solarlead/internal/session"
	"solarlead/internal/store"
)

const (
	// resetKeyPrefix namespaces password reset tokens in Valkey.
	resetKeyPrefix = "pwreset:"

	// resetTTL is how long a password reset link stays valid.
	resetTTL = time.Hour
)

// Auth groups all authentication-related HTTP handlers.
type Auth struct {
	renderer     *render.Renderer
	sessions     *session.Store
	userStore    *store.UserStore
	valkey       *redis.Client
	mailRenderer *mail.Renderer
	mailQueue    *mail.Queue
	baseURL      string
}

// NewAuth creates a new Auth handler group.
func NewAuth(renderer *render.Renderer, sessions *session.Store, userStore *store.UserStore, valkey *redis.Client, mailRenderer *mail.Renderer, mailQueue *mail.Queue, baseURL string) *Auth {
	return &Auth{
		renderer:     renderer,
		sessions:     sessions,
		userStore:    userStore,
		valkey:       valkey,
		mailRenderer: mailRenderer,
		mailQueue:    mailQueue,
		baseURL:      baseURL,
	}
}

// LoginPage renders the login form.
func (a *Auth) LoginPage(w http.ResponseWriter, r *http.Request) {
	// If already logged in with 2FA complete, redirect to dashboard.
	sess := middleware.SessionFromCtx(r.Context())
	if sess != nil && sess.TwoFADone {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}

	a.renderer.Page(w, r, "login", &render.PageData{
		Title: "Anmelden",
	})
}

// LoginSubmit processes the login form.
func (a *Auth) LoginSubmit(w http.ResponseWriter, r *http.Request) {
	email := r.FormValue("email")
	password := r.FormValue("password")

	user, err := a.userStore.FindByEmail(email)
	if err != nil {
		slog.Error("login lookup failed", "error", err)
		a.loginError(w, r, "Ein unerwarteter Fehler ist aufgetreten.")
		return
	}

	if user == nil || !a.userStore.CheckPassword(user, password) {
		a.loginError(w, r, "E-Mail oder Passwort ist falsch.")
		return
	}

	// Create a session. TwoFADone starts as false, the user must complete
	// 2FA first. Roles are intentionally NOT stored in the session; they
	// are resolved per request so revocations apply immediately.
	_, err = a.sessions.Create(r.Context(), w, &session.Data{
		UserID:    user.ID,
		Email:     user.Email,
		Name:      user.Name,
		TwoFADone: false,
	})
	if err != nil {
		slog.Error("session create failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	if user.Needs2FASetup() {
		http.Redirect(w, r, "/2fa/setup", http.StatusSeeOther)
	} else {
		http.Redirect(w, r, "/2fa/verify", http.StatusSeeOther)
	}
}

func (a *Auth) loginError(w http.ResponseWriter, r *http.Request, msg string) {
	a.renderer.Page(w, r, "login", &render.PageData{
		Title:   "Anmelden",
		Flashes: []render.Flash{{Type: "error", Message: msg}},
	})
}

// TwoFASetupPage generates a TOTP secret and displays the QR code.
func (a *Auth) TwoFASetupPage(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())
	if sess == nil {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      "SolarLead",
		AccountName: sess.Email,
	})
	if err != nil {
		slog.Error("totp generate failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	if err := a.userStore.SetTOTPSecret(sess.UserID, key.Secret()); err != nil {
		slog.Error("save totp secret failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	qrPNG, err := qrcode.Encode(key.URL(), qrcode.Medium, 256)
	if err != nil {
		slog.Error("qr code generation failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	a.renderer.Page(w, r, "2fa_setup", &render.PageData{
		Title: "2FA einrichten",
		Data: map[string]any{
			"QRCode": base64.StdEncoding.EncodeToString(qrPNG),
			"Secret": key.Secret(),
		},
	})
}

// TwoFAVerifyPage renders the 2FA code entry form (for users who already
// have 2FA set up).
func (a *Auth) TwoFAVerifyPage(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())
	if sess == nil {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	a.renderer.Page(w, r, "2fa_verify", &render.PageData{
		Title: "Code bestätigen",
	})
}

// TwoFAVerifySubmit validates the TOTP code and completes authentication.
// Handles both first-time setup confirmation and the regular login check.
func (a *Auth) TwoFAVerifySubmit(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())
	if sess == nil {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	code := r.FormValue("code")

	user, err := a.userStore.FindByID(sess.UserID)
	if err != nil || user == nil {
		slog.Error("user lookup for 2fa failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	if user.TOTPSecret == nil {
		http.Redirect(w, r, "/2fa/setup", http.StatusSeeOther)
		return
	}

	if !totp.Validate(code, *user.TOTPSecret) {
		if !user.TOTPEnabled {
			// Rebuild the setup page with its QR code so the user can retry.
			qrPNG, _ := qrcode.Encode(
				fmt.Sprintf("otpauth://totp/SolarLead:%s?secret=%s&issuer=SolarLead", user.Email, *user.TOTPSecret),
				qrcode.Medium, 256,
			)
			a.renderer.Page(w, r, "2fa_setup", &render.PageData{
				Title:   "2FA einrichten",
				Flashes: []render.Flash{{Type: "error", Message: "Ungültiger Code. Bitte erneut versuchen."}},
				Data: map[string]any{
					"QRCode": base64.StdEncoding.EncodeToString(qrPNG),
					"Secret": *user.TOTPSecret,
				},
			})
			return
		}

		a.renderer.Page(w, r, "2fa_verify", &render.PageData{
			Title:   "Code bestätigen",
			Flashes: []render.Flash{{Type: "error", Message: "Ungültiger Code. Bitte erneut versuchen."}},
		})
		return
	}

	// First successful validation enables TOTP permanently.
	if !user.TOTPEnabled {
		if err := a.userStore.EnableTOTP(user.ID); err != nil {
			slog.Error("enable totp failed", "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
	}

	sess.TwoFADone = true
	if err := a.sessions.Update(r.Context(), r, sess); err != nil {
		slog.Error("session update failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

// Logout destroys the session and redirects to the login page.
func (a *Auth) Logout(w http.ResponseWriter, r *http.Request) {
	a.sessions.Destroy(r.Context(), w, r)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// ForgotPasswordPage renders the reset request form.
func (a *Auth) ForgotPasswordPage(w http.ResponseWriter, r *http.Request) {
	a.renderer.Page(w, r, "forgot_password", &render.PageData{
		Title: "Passwort vergessen",
	})
}

// ForgotPasswordSubmit issues a reset token and queues the reset mail.
// The response is identical whether or not the address exists.
func (a *Auth) ForgotPasswordSubmit(w http.ResponseWriter, r *http.Request) {
	email := r.FormValue("email")

	user, err := a.userStore.FindByEmail(email)
	if err != nil {
		slog.Error("reset lookup failed", "error", err)
	}

	if user != nil {
		token, err := generateResetToken()
		if err != nil {
			slog.Error("reset token generation failed", "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		if err := a.valkey.Set(r.Context(), resetKeyPrefix+token, user.ID.String(), resetTTL).Err(); err != nil {
			slog.Error("reset token store failed", "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		msg, err := a.mailRenderer.Render(models.TemplatePasswordReset, user.Email, mail.PasswordResetData{
			Name:          user.Name,
			ResetURL:      a.baseURL + "/reset-password?token=" + token,
			ExpireMinutes: int(resetTTL.Minutes()),
		})
		if err != nil {
			slog.Error("reset mail render failed", "error", err)
		} else {
			a.mailQueue.Dispatch(r.Context(), msg)
		}
	}

	a.renderer.Page(w, r, "forgot_password", &render.PageData{
		Title:   "Passwort vergessen",
		Flashes: []render.Flash{{Type: "success", Message: "Falls die Adresse existiert, wurde ein Link verschickt."}},
	})
}

// ResetPasswordPage renders the new-password form for a token link.
func (a *Auth) ResetPasswordPage(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		http.Redirect(w, r, "/forgot-password", http.StatusSeeOther)
		return
	}

	a.renderer.Page(w, r, "reset_password", &render.PageData{
		Title: "Neues Passwort",
		Data:  map[string]any{"Token": token},
	})
}

// ResetPasswordSubmit validates the token and sets the new password.
// The token is single use: it is deleted before the password changes.
func (a *Auth) ResetPasswordSubmit(w http.ResponseWriter, r *http.Request) {
	token := r.FormValue("token")
	password := r.FormValue("password")
	confirm := r.FormValue("password_confirm")

	resetError := func(msg string) {
		a.renderer.Page(w, r, "reset_password", &render.PageData{
			Title:   "Neues Passwort",
			Flashes: []render.Flash{{Type: "error", Message: msg}},
			Data:    map[string]any{"Token": token},
		})
	}

	if len(password) < 8 {
		resetError("Das Passwort muss mindestens 8 Zeichen haben.")
		return
	}
	if password != confirm {
		resetError("Die Passwörter stimmen nicht überein.")
		return
	}

	userIDStr, err := a.valkey.GetDel(r.Context(), resetKeyPrefix+token).Result()
	if err == redis.Nil {
		resetError("Der Link ist ungültig oder abgelaufen.")
		return
	}
	if err != nil {
		slog.Error("reset token lookup failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	userID, err := parseUUID(userIDStr)
	if err != nil {
		slog.Error("reset token carried invalid user id", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	if err := a.userStore.UpdatePassword(userID, password); err != nil {
		slog.Error("password update failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// generateResetToken creates a cryptographically random reset token.
func generateResetToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
