package emulator

import (
	"context"
	"fmt"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/tgienger/lumina/internal/models"
	"github.com/tgienger/lumina/internal/remote"
)

const minPasswordLen = 6

// SignUp creates an unverified account and signs it in
func (e *Emulator) SignUp(ctx context.Context, email, password string) (*models.User, error) {
	email = strings.TrimSpace(email)
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, remote.Errorf(remote.CodeInvalidEmail, "The email address is badly formatted.")
	}
	if len(password) < minPasswordLen {
		return nil, remote.Errorf(remote.CodeWeakPassword, "Password should be at least 6 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	rec := &userRecord{
		UID:          uuid.NewString(),
		Email:        strings.ToLower(email),
		PasswordHash: string(hash),
		CreatedAt:    e.now(),
	}

	err = e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&userRecord{}).Where("email = ?", rec.Email).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return remote.Errorf(remote.CodeEmailInUse, "The email address is already in use by another account.")
		}
		return tx.Create(rec).Error
	})
	if err != nil {
		return nil, err
	}

	if err := e.setSession(ctx, rec); err != nil {
		return nil, fmt.Errorf("persist session: %w", err)
	}
	e.log.Info("account created", zap.String("uid", rec.UID))
	return toUser(rec), nil
}

// SignIn checks the password and starts a session
func (e *Emulator) SignIn(ctx context.Context, email, password string) (*models.User, error) {
	var rec userRecord
	err := e.db.WithContext(ctx).Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&rec).Error
	if isNotFound(err) {
		return nil, remote.Errorf(remote.CodeInvalidCredential, "Invalid login credentials.")
	}
	if err != nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(rec.PasswordHash), []byte(password)) != nil {
		return nil, remote.Errorf(remote.CodeInvalidCredential, "Invalid login credentials.")
	}

	if err := e.setSession(ctx, &rec); err != nil {
		return nil, fmt.Errorf("persist session: %w", err)
	}
	return toUser(&rec), nil
}

// SignInWithGoogle is not offered by the emulator
func (e *Emulator) SignInWithGoogle(context.Context) (*models.User, error) {
	return nil, remote.Errorf(remote.CodeOperationDenied, "Google sign-in is not available in the local emulator.")
}

// UpdateDisplayName renames the signed-in account
func (e *Emulator) UpdateDisplayName(ctx context.Context, name string) error {
	uid := e.currentUID()
	if uid == "" {
		return remote.Errorf(remote.CodeUnauthenticated, "No user is signed in.")
	}
	if err := e.db.WithContext(ctx).Model(&userRecord{}).Where("uid = ?", uid).
		Update("display_name", name).Error; err != nil {
		return err
	}

	e.mu.Lock()
	if e.session != nil && e.session.UID == uid {
		e.session.DisplayName = name
	}
	e.mu.Unlock()
	return nil
}

// SendVerification has no mailer; the link is replaced by the
// "emulator verify" command, which the log line points to.
func (e *Emulator) SendVerification(context.Context) error {
	e.mu.Lock()
	s := e.session
	e.mu.Unlock()
	if s == nil {
		return remote.Errorf(remote.CodeUnauthenticated, "No user is signed in.")
	}
	e.log.Info("verification requested; run `lumina emulator verify` to confirm",
		zap.String("email", s.Email))
	return nil
}

// Restore resumes the persisted session, reloading the account so a
// verification done from the CLI is picked up.
func (e *Emulator) Restore(ctx context.Context) (*models.User, error) {
	var sess sessionRecord
	err := e.db.WithContext(ctx).Where("id = ?", 1).First(&sess).Error
	if isNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var rec userRecord
	err = e.db.WithContext(ctx).Where("uid = ?", sess.UID).First(&rec).Error
	if isNotFound(err) {
		return nil, e.setSession(ctx, nil)
	}
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	e.session = &rec
	e.mu.Unlock()
	return toUser(&rec), nil
}

// SignOut ends the session
func (e *Emulator) SignOut(ctx context.Context) error {
	return e.setSession(ctx, nil)
}

// Verify marks the account with this email as verified
func (e *Emulator) Verify(ctx context.Context, email string) error {
	res := e.db.WithContext(ctx).Model(&userRecord{}).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		Update("email_verified", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return remote.Errorf(remote.CodeUserNotFound, "There is no user record corresponding to %s.", email)
	}
	return nil
}
