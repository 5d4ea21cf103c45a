package repository

import (
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/otaviofreire/comanda-app/models"
	"github.com/otaviofreire/comanda-app/utils"
)

// SessionIdleThreshold is how long a claim may sit unrenewed before another
// device is allowed to take it over. Fixed so the takeover behavior is
// testable.
const SessionIdleThreshold = 60 * time.Minute

// SessionReason is the failure taxonomy consumers map to user-facing
// messages. A session conflict ("in-use", "not-owner") asks for a different
// user action than a transient failure ("offline", "error").
type SessionReason string

const (
	ReasonInUse    SessionReason = "in-use"
	ReasonOffline  SessionReason = "offline"
	ReasonError    SessionReason = "error"
	ReasonNotOwner SessionReason = "not-owner"
	ReasonMissing  SessionReason = "missing"
)

type SessionResult struct {
	OK     bool          `json:"ok"`
	Reason SessionReason `json:"reason,omitempty"`
}

var (
	errSessionInUse    = errors.New("sessao em uso em outro aparelho")
	errSessionNotOwner = errors.New("sessao pertence a outro aparelho")
	errSessionMissing  = errors.New("sessao nao encontrada")
)

// SessionManager gives each attendant identity an exclusive device binding.
// The clock is injected so staleness can be simulated in tests.
type SessionManager struct {
	db         *gorm.DB
	now        func() time.Time
	staleAfter time.Duration
}

func NewSessionManager(db *gorm.DB) *SessionManager {
	return &SessionManager{db: db, now: time.Now, staleAfter: SessionIdleThreshold}
}

func (m *SessionManager) isStale(claim *models.SessionClaim) bool {
	return m.now().Sub(claim.UpdatedAt) > m.staleAfter
}

// Claim binds userID to deviceID. An existing claim held by a different
// device blocks the claim unless it has gone stale, in which case ownership
// moves to the claiming device.
func (m *SessionManager) Claim(userID, name, deviceID string) SessionResult {
	err := m.db.Transaction(func(tx *gorm.DB) error {
		var claim models.SessionClaim
		err := tx.First(&claim, "user_id = ?", userID).Error
		switch {
		case err == nil:
			if claim.DeviceID != "" && claim.DeviceID != deviceID && !m.isStale(&claim) {
				return errSessionInUse
			}
			// UpdateColumns keeps the injected clock authoritative over
			// gorm's automatic timestamp.
			return tx.Model(&models.SessionClaim{}).Where("user_id = ?", userID).
				UpdateColumns(map[string]interface{}{
					"name":       name,
					"device_id":  deviceID,
					"updated_at": m.now(),
				}).Error
		case errors.Is(err, gorm.ErrRecordNotFound):
			now := m.now()
			return tx.Create(&models.SessionClaim{
				UserID:    userID,
				Name:      name,
				DeviceID:  deviceID,
				CreatedAt: now,
				UpdatedAt: now,
			}).Error
		default:
			return err
		}
	})
	return m.classify(err, "claim", userID)
}

// Validate re-confirms a previously claimed session against the
// authoritative store view, e.g. on app resume. It applies the same
// in-use/stale rules as Claim: a stale claim held by another device is taken
// over rather than rejected. Success renews the timestamp.
func (m *SessionManager) Validate(userID, deviceID string) SessionResult {
	err := m.db.Transaction(func(tx *gorm.DB) error {
		var claim models.SessionClaim
		if err := tx.First(&claim, "user_id = ?", userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errSessionMissing
			}
			return err
		}
		if claim.DeviceID != "" && claim.DeviceID != deviceID && !m.isStale(&claim) {
			return errSessionInUse
		}
		return tx.Model(&models.SessionClaim{}).Where("user_id = ?", userID).
			UpdateColumns(map[string]interface{}{
				"device_id":  deviceID,
				"updated_at": m.now(),
			}).Error
	})
	return m.classify(err, "validate", userID)
}

// Touch is the lightweight periodic renewal. Unlike Validate it never steals
// a claim: any mismatch, stale or not, fails with "not-owner".
func (m *SessionManager) Touch(userID, deviceID string) SessionResult {
	err := m.db.Transaction(func(tx *gorm.DB) error {
		var claim models.SessionClaim
		if err := tx.First(&claim, "user_id = ?", userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errSessionMissing
			}
			return err
		}
		if claim.DeviceID != "" && claim.DeviceID != deviceID {
			return errSessionNotOwner
		}
		return tx.Model(&models.SessionClaim{}).Where("user_id = ?", userID).
			UpdateColumn("updated_at", m.now()).Error
	})
	return m.classify(err, "touch", userID)
}

// Release deletes the claim on logout, but only if this device owns it (a
// claim that is already gone counts as released). Releasing someone else's
// active session fails with "not-owner".
func (m *SessionManager) Release(userID, deviceID string) SessionResult {
	err := m.db.Transaction(func(tx *gorm.DB) error {
		var claim models.SessionClaim
		if err := tx.First(&claim, "user_id = ?", userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}
		if claim.DeviceID != "" && claim.DeviceID != deviceID {
			return errSessionNotOwner
		}
		return tx.Delete(&models.SessionClaim{}, "user_id = ?", userID).Error
	})
	return m.classify(err, "release", userID)
}

func (m *SessionManager) classify(err error, op, userID string) SessionResult {
	switch {
	case err == nil:
		return SessionResult{OK: true}
	case errors.Is(err, errSessionInUse):
		return SessionResult{Reason: ReasonInUse}
	case errors.Is(err, errSessionNotOwner):
		return SessionResult{Reason: ReasonNotOwner}
	case errors.Is(err, errSessionMissing):
		return SessionResult{Reason: ReasonMissing}
	case isOfflineError(err):
		utils.ErrorLogger.Printf("session %s for %s: %v", op, userID, err)
		return SessionResult{Reason: ReasonOffline}
	default:
		utils.ErrorLogger.Printf("session %s for %s: %v", op, userID, err)
		return SessionResult{Reason: ReasonError}
	}
}

// isOfflineError picks connectivity-class failures out of the error chain so
// the UI can say "try again" instead of treating them as defects.
func isOfflineError(err error) bool {
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{
		"connection refused",
		"connection reset",
		"broken pipe",
		"network",
		"no such host",
		"timeout",
		"unavailable",
	} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
