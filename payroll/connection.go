package payroll

import (
	"errors"
	"fmt"
	"time"

	"github.com/sitewise/crewclock/security"
	"gorm.io/gorm"
)

// refreshMargin is how close to expiry an access token may get before a read
// triggers a silent refresh.
const refreshMargin = 5 * time.Minute

// LiveConnection is a decrypted, ready-to-use view of the tenant's QBO link.
type LiveConnection struct {
	RealmID         string
	Environment     string
	AccessToken     string
	PayrollTimeZone string
}

// ConnectionManager owns the OAuth token lifecycle for a tenant schema:
// reads, silent refreshes, persistence and invalidation.
type ConnectionManager struct {
	Vault *security.Vault
	OAuth *OAuthClient
}

func NewConnectionManager(vault *security.Vault, oauth *OAuthClient) *ConnectionManager {
	return &ConnectionManager{Vault: vault, OAuth: oauth}
}

// GetLiveConnection returns a usable access token, refreshing it first when
// it is within the expiry margin. A refresh rejected with 400/401 flips the
// row to revoked and surfaces ErrTokenRevoked; the tenant has to go through
// the authorization flow again.
func (m *ConnectionManager) GetLiveConnection(db *gorm.DB) (*LiveConnection, error) {
	var conn Connection
	if err := db.First(&conn, connectionRowID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotConnected
		}
		return nil, fmt.Errorf("failed to load connection: %w", err)
	}

	if conn.Status == ConnRevoked || conn.Status == ConnDisconnected {
		return nil, ErrTokenRevoked
	}

	live := &LiveConnection{
		RealmID:         conn.RealmID,
		Environment:     conn.Environment,
		PayrollTimeZone: conn.PayrollTimeZone,
	}

	if time.Until(conn.AccessTokenExpiry) > refreshMargin {
		accessToken, err := m.Vault.Decrypt(conn.AccessTokenEnc)
		if err != nil {
			return nil, fmt.Errorf("failed to decrypt access token: %w", err)
		}
		live.AccessToken = accessToken
		return live, nil
	}

	refreshToken, err := m.Vault.Decrypt(conn.RefreshTokenEnc)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt refresh token: %w", err)
	}

	tok, err := m.OAuth.Refresh(refreshToken)
	if errors.Is(err, ErrTokenRevoked) {
		// no point retrying; require a fresh authorization
		db.Model(&conn).Update("status", ConnRevoked)
		return nil, ErrTokenRevoked
	}
	if err != nil {
		return nil, fmt.Errorf("token refresh failed: %w", err)
	}

	if err := m.persistTokens(db, &conn, tok); err != nil {
		return nil, err
	}

	live.AccessToken = tok.AccessToken
	return live, nil
}

// GetConnection returns the stored row as-is, tokens still encrypted; the
// status endpoint reads this.
func (m *ConnectionManager) GetConnection(db *gorm.DB) (*Connection, error) {
	var conn Connection
	if err := db.First(&conn, connectionRowID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotConnected
		}
		return nil, err
	}
	return &conn, nil
}

// SaveConnection overwrites the tenant's connection row after a successful
// authorization-code exchange.
func (m *ConnectionManager) SaveConnection(db *gorm.DB, realmID, environment string, tok *TokenResponse) error {
	accessEnc, err := m.Vault.Encrypt(tok.AccessToken)
	if err != nil {
		return fmt.Errorf("failed to encrypt access token: %w", err)
	}
	refreshEnc, err := m.Vault.Encrypt(tok.RefreshToken)
	if err != nil {
		return fmt.Errorf("failed to encrypt refresh token: %w", err)
	}

	conn := Connection{
		ID:                connectionRowID,
		RealmID:           realmID,
		AccessTokenEnc:    accessEnc,
		RefreshTokenEnc:   refreshEnc,
		AccessTokenExpiry: time.Now().Add(time.Duration(tok.ExpiresIn) * time.Second),
		Status:            ConnActive,
		Environment:       environment,
		PayrollTimeZone:   "UTC",
	}

	var existing Connection
	err = db.First(&existing, connectionRowID).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return db.Create(&conn).Error
	case err != nil:
		return err
	default:
		// keep the admin-configured payroll time zone across re-authorization
		conn.PayrollTimeZone = existing.PayrollTimeZone
		return db.Save(&conn).Error
	}
}

// RevokeConnection disconnects the tenant. Remote revocation is best-effort;
// the local state change happens regardless. The row stays behind as the
// historical record.
func (m *ConnectionManager) RevokeConnection(db *gorm.DB) error {
	var conn Connection
	if err := db.First(&conn, connectionRowID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotConnected
		}
		return err
	}

	if refreshToken, err := m.Vault.Decrypt(conn.RefreshTokenEnc); err == nil {
		// provider-side revocation failing must not block the disconnect
		_ = m.OAuth.Revoke(refreshToken)
	}

	return db.Model(&conn).Update("status", ConnDisconnected).Error
}

func (m *ConnectionManager) persistTokens(db *gorm.DB, conn *Connection, tok *TokenResponse) error {
	accessEnc, err := m.Vault.Encrypt(tok.AccessToken)
	if err != nil {
		return fmt.Errorf("failed to encrypt access token: %w", err)
	}

	refreshEnc := conn.RefreshTokenEnc
	if tok.RefreshToken != "" {
		// Intuit rotates refresh tokens on exchange
		refreshEnc, err = m.Vault.Encrypt(tok.RefreshToken)
		if err != nil {
			return fmt.Errorf("failed to encrypt refresh token: %w", err)
		}
	}

	return db.Model(conn).Updates(map[string]interface{}{
		"access_token_enc":    accessEnc,
		"refresh_token_enc":   refreshEnc,
		"access_token_expiry": time.Now().Add(time.Duration(tok.ExpiresIn) * time.Second),
		"status":              ConnActive,
	}).Error
}
