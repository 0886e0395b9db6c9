package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jws"
	"github.com/lestrrat-go/jwx/v2/jwt"

	"github.com/noah-isme/roller-shop/internal/common"
	"github.com/noah-isme/roller-shop/internal/db"
	"github.com/noah-isme/roller-shop/internal/obs"
)

const (
	defaultAccessTTL  = time.Hour
	defaultRefreshTTL = 7 * 24 * time.Hour

	invalidCredentials = "Invalid email or password"
	invalidRefresh     = "Invalid refresh token"
)

// Service coordinates registration, login and token renewal.
type Service struct {
	store         db.Store
	secret        []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
	signer        jwa.SignatureAlgorithm
	validator     TokenValidator
	issuer        string
	audience      string
	clockSkew     time.Duration
}

// Config configures the auth service.
type Config struct {
	Store           db.Store
	Secret          string
	RefreshSecret   string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	Issuer          string
	Audience        string
	ClockSkew       time.Duration
}

// Claims is what an access token asserts about its bearer.
type Claims struct {
	UserID string
	Email  string
}

// RegisterInput is the body of POST /api/auth/register. The address fields
// are optional; when street, postal code and city are all present a default
// shipping address is created with the account.
type RegisterInput struct {
	Email         string `json:"email" validate:"required,email"`
	Password      string `json:"password" validate:"required,min=8"`
	CompanyName   string `json:"company_name" validate:"required"`
	ContactPerson string `json:"contact_person" validate:"required"`
	Phone         string `json:"phone" validate:"required"`
	Country       string `json:"country" validate:"required"`
	VatID         string `json:"vat_id"`
	Street        string `json:"street"`
	PostalCode    string `json:"postal_code"`
	City          string `json:"city"`
}

func (in RegisterInput) hasAddress() bool {
	return strings.TrimSpace(in.Street) != "" &&
		strings.TrimSpace(in.PostalCode) != "" &&
		strings.TrimSpace(in.City) != ""
}

// User is the account summary returned after register and login.
type User struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	CompanyName   string `json:"company_name"`
	ContactPerson string `json:"contact_person,omitempty"`
	Country       string `json:"country"`
}

// Profile is the body of GET /api/auth/me.
type Profile struct {
	ID            string    `json:"id"`
	Email         string    `json:"email"`
	CompanyName   string    `json:"company_name"`
	ContactPerson string    `json:"contact_person"`
	Phone         string    `json:"phone"`
	Country       string    `json:"country"`
	VatID         *string   `json:"vat_id"`
	CreatedAt     time.Time `json:"created_at"`
}

// Session bundles the user with a fresh token pair.
type Session struct {
	User         User   `json:"user"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// NewService constructs a Service instance with sane defaults.
func NewService(cfg Config) (*Service, error) {
	if cfg.Store == nil {
		return nil, errors.New("auth: store is required")
	}
	secret := strings.TrimSpace(cfg.Secret)
	if secret == "" {
		return nil, errors.New("auth: secret is required")
	}
	refreshSecret := strings.TrimSpace(cfg.RefreshSecret)
	if refreshSecret == "" {
		return nil, errors.New("auth: refresh secret is required")
	}
	accessTTL := cfg.AccessTokenTTL
	if accessTTL <= 0 {
		accessTTL = defaultAccessTTL
	}
	refreshTTL := cfg.RefreshTokenTTL
	if refreshTTL <= 0 {
		refreshTTL = defaultRefreshTTL
	}

	issuer := strings.TrimSpace(cfg.Issuer)
	if issuer == "" {
		issuer = "roller-shop"
	}
	audience := strings.TrimSpace(cfg.Audience)
	if audience == "" {
		audience = "roller-shop-api"
	}
	clockSkew := cfg.ClockSkew
	if clockSkew < 0 {
		clockSkew = 0
	}

	return &Service{
		store:         cfg.Store,
		secret:        []byte(secret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		now:           time.Now,
		signer:        jwa.HS256,
		validator: TokenValidator{
			Issuer:    issuer,
			Audience:  audience,
			ClockSkew: clockSkew,
			Algorithm: jwa.HS256,
		},
		issuer:    issuer,
		audience:  audience,
		clockSkew: clockSkew,
	}, nil
}

// WithNow allows tests to override the time provider.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Register creates the account, and its default shipping address when one
// is supplied, in a single transaction.
func (s *Service) Register(ctx context.Context, in RegisterInput) (Session, error) {
	in.Email = normalizeEmail(in.Email)
	if err := common.Validate(in); err != nil {
		return Session{}, err
	}

	hash, err := argon2id.CreateHash(in.Password, argon2id.DefaultParams)
	if err != nil {
		return Session{}, fmt.Errorf("hash password: %w", err)
	}

	var created db.User
	err = s.store.InTx(ctx, func(q db.Querier) error {
		user, err := q.CreateUser(ctx, db.CreateUserParams{
			Email:         in.Email,
			PasswordHash:  hash,
			CompanyName:   strings.TrimSpace(in.CompanyName),
			ContactPerson: strings.TrimSpace(in.ContactPerson),
			Phone:         strings.TrimSpace(in.Phone),
			Country:       strings.TrimSpace(in.Country),
			VatID:         pgText(in.VatID),
		})
		if err != nil {
			return err
		}
		created = user
		if !in.hasAddress() {
			return nil
		}
		_, err = q.CreateAddress(ctx, db.CreateAddressParams{
			UserID:      user.ID,
			AddressType: "shipping",
			Street:      strings.TrimSpace(in.Street),
			PostalCode:  strings.TrimSpace(in.PostalCode),
			City:        strings.TrimSpace(in.City),
			Country:     strings.TrimSpace(in.Country),
			IsDefault:   true,
		})
		if err != nil {
			return fmt.Errorf("create default address: %w", err)
		}
		return nil
	})
	if err != nil {
		if isUniqueViolation(err) {
			return Session{}, common.Conflict("EMAIL_TAKEN", "Email already registered", err)
		}
		return Session{}, fmt.Errorf("create user: %w", err)
	}

	session, err := s.issueSession(ctx, created)
	if err != nil {
		return Session{}, err
	}
	session.User.ContactPerson = ""
	return session, nil
}

// Login verifies credentials and issues a new token pair. Unknown email and
// wrong password produce the same error.
func (s *Service) Login(ctx context.Context, email, password string) (Session, error) {
	normalizedEmail := normalizeEmail(email)
	if normalizedEmail == "" || password == "" {
		return Session{}, common.BadRequest("Email and password are required")
	}

	user, err := s.store.GetUserByEmail(ctx, normalizedEmail)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			return Session{}, fmt.Errorf("load user: %w", err)
		}
		obs.RecordLogin("unknown_user")
		return Session{}, common.Unauthorized(invalidCredentials)
	}

	ok, err := argon2id.ComparePasswordAndHash(password, user.PasswordHash)
	if err != nil || !ok {
		obs.RecordLogin("bad_password")
		return Session{}, common.Unauthorized(invalidCredentials)
	}

	if err := s.store.TouchLastLogin(ctx, user.ID); err != nil {
		return Session{}, fmt.Errorf("touch last login: %w", err)
	}

	session, err := s.issueSession(ctx, user)
	if err != nil {
		return Session{}, err
	}
	obs.RecordLogin("success")
	return session, nil
}

// Refresh exchanges a refresh token for a new access token. The token must
// verify against the refresh secret and match the latest stored hash for its
// user.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (string, error) {
	token := strings.TrimSpace(refreshToken)
	if token == "" {
		return "", common.Unauthorized("Refresh token required")
	}

	parsed, err := s.parse(token, s.refreshSecret, UseRefresh)
	if err != nil {
		return "", common.NewAppError("UNAUTHORIZED", invalidRefresh, httpStatusUnauthorized, err)
	}
	userID, err := pgUUIDFromString(parsed.Subject())
	if err != nil {
		return "", common.Unauthorized(invalidRefresh)
	}

	stored, err := s.store.GetLatestRefreshToken(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", common.Unauthorized(invalidRefresh)
		}
		return "", fmt.Errorf("load refresh token: %w", err)
	}
	if subtle.ConstantTimeCompare([]byte(stored.TokenHash), []byte(hashRefreshToken(token))) != 1 {
		return "", common.Unauthorized(invalidRefresh)
	}

	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", common.Unauthorized(invalidRefresh)
		}
		return "", fmt.Errorf("load user: %w", err)
	}

	access, _, err := s.signAccessToken(uuidString(user.ID), user.Email)
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}
	return access, nil
}

// Logout drops every stored refresh token of the user.
func (s *Service) Logout(ctx context.Context, userID string) error {
	id, err := pgUUIDFromString(userID)
	if err != nil {
		return common.Unauthorized("Invalid token")
	}
	return s.store.DeleteRefreshTokensByUser(ctx, id)
}

// Me fetches the profile of the authenticated user.
func (s *Service) Me(ctx context.Context, userID string) (Profile, error) {
	id, err := pgUUIDFromString(userID)
	if err != nil {
		return Profile{}, common.Unauthorized("Invalid token")
	}
	user, err := s.store.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Profile{}, common.NotFound("User not found")
		}
		return Profile{}, fmt.Errorf("load user: %w", err)
	}
	profile := Profile{
		ID:            uuidString(user.ID),
		Email:         user.Email,
		CompanyName:   user.CompanyName,
		ContactPerson: user.ContactPerson,
		Phone:         user.Phone,
		Country:       user.Country,
		CreatedAt:     toTime(user.CreatedAt),
	}
	if user.VatID.Valid {
		vat := user.VatID.String
		profile.VatID = &vat
	}
	return profile, nil
}

// ParseAccessToken validates an access token and returns its claims.
func (s *Service) ParseAccessToken(token string) (Claims, error) {
	trimmed := strings.TrimSpace(token)
	if trimmed == "" {
		return Claims{}, common.Unauthorized("Access token required")
	}
	parsed, err := s.parse(trimmed, s.secret, UseAccess)
	if err != nil {
		return Claims{}, common.NewAppError("UNAUTHORIZED", "Invalid token", httpStatusUnauthorized, err)
	}
	claims := Claims{UserID: parsed.Subject()}
	if v, ok := parsed.Get("email"); ok {
		claims.Email, _ = v.(string)
	}
	return claims, nil
}

func (s *Service) parse(token string, key []byte, use string) (jwt.Token, error) {
	algorithm, err := extractTokenAlgorithm(token)
	if err != nil {
		return nil, err
	}
	if s.validator.Algorithm != "" && algorithm != s.validator.Algorithm {
		return nil, fmt.Errorf("unexpected token algorithm %s", algorithm)
	}
	parsed, err := jwt.ParseString(token, jwt.WithKey(algorithm, key), jwt.WithValidate(false))
	if err != nil {
		return nil, err
	}
	if err := s.validator.For(use).Validate(parsed, algorithm, s.now()); err != nil {
		return nil, err
	}
	return parsed, nil
}

func extractTokenAlgorithm(token string) (jwa.SignatureAlgorithm, error) {
	message, err := jws.ParseString(token)
	if err != nil {
		return "", err
	}
	signatures := message.Signatures()
	if len(signatures) == 0 {
		return "", errors.New("auth: token contains no signatures")
	}
	var algorithm jwa.SignatureAlgorithm
	for _, sig := range signatures {
		headers := sig.ProtectedHeaders()
		if headers == nil {
			return "", errors.New("auth: token missing protected headers")
		}
		alg := headers.Algorithm()
		if alg == "" {
			return "", errors.New("auth: token missing algorithm")
		}
		if alg == jwa.NoSignature {
			return "", errors.New("auth: token uses none algorithm")
		}
		if algorithm == "" {
			algorithm = alg
		} else if algorithm != alg {
			return "", fmt.Errorf("auth: mixed token algorithms detected")
		}
	}
	return algorithm, nil
}

func (s *Service) issueSession(ctx context.Context, user db.User) (Session, error) {
	userID := uuidString(user.ID)
	if userID == "" {
		return Session{}, errors.New("auth: invalid user identifier")
	}
	access, _, err := s.signAccessToken(userID, user.Email)
	if err != nil {
		return Session{}, fmt.Errorf("sign access token: %w", err)
	}
	refresh, expiresAt, err := s.signRefreshToken(userID)
	if err != nil {
		return Session{}, fmt.Errorf("sign refresh token: %w", err)
	}
	if _, err := s.store.CreateRefreshToken(ctx, db.CreateRefreshTokenParams{
		UserID:    user.ID,
		TokenHash: hashRefreshToken(refresh),
		ExpiresAt: pgTimestamp(expiresAt),
	}); err != nil {
		return Session{}, fmt.Errorf("store refresh token: %w", err)
	}
	return Session{
		User: User{
			ID:            userID,
			Email:         user.Email,
			CompanyName:   user.CompanyName,
			ContactPerson: user.ContactPerson,
			Country:       user.Country,
		},
		AccessToken:  access,
		RefreshToken: refresh,
	}, nil
}

func (s *Service) signAccessToken(userID, email string) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(s.accessTTL)
	builder := jwt.NewBuilder().
		Subject(userID).
		Issuer(s.issuer).
		Audience([]string{s.audience}).
		IssuedAt(now).
		NotBefore(now.Add(-s.clockSkew)).
		Expiration(expiresAt).
		Claim(useClaim, UseAccess).
		Claim("email", email)
	return s.sign(builder, s.secret, expiresAt)
}

// signRefreshToken carries a random jti so two tokens issued within the same
// second still hash differently.
func (s *Service) signRefreshToken(userID string) (string, time.Time, error) {
	jti, err := generateToken(16)
	if err != nil {
		return "", time.Time{}, err
	}
	now := s.now()
	expiresAt := now.Add(s.refreshTTL)
	builder := jwt.NewBuilder().
		Subject(userID).
		Issuer(s.issuer).
		Audience([]string{s.audience}).
		IssuedAt(now).
		NotBefore(now.Add(-s.clockSkew)).
		Expiration(expiresAt).
		Claim(useClaim, UseRefresh).
		JwtID(jti)
	return s.sign(builder, s.refreshSecret, expiresAt)
}

func (s *Service) sign(builder *jwt.Builder, key []byte, expiresAt time.Time) (string, time.Time, error) {
	token, err := builder.Build()
	if err != nil {
		return "", time.Time{}, err
	}
	signed, err := jwt.Sign(token, jwt.WithKey(s.signer, key))
	if err != nil {
		return "", time.Time{}, err
	}
	return string(signed), expiresAt, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func normalizeEmail(email string) string {
	return strings.TrimSpace(strings.ToLower(email))
}

func generateToken(length int) (string, error) {
	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func hashRefreshToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func pgUUIDFromString(value string) (pgtype.UUID, error) {
	var id pgtype.UUID
	if err := id.Scan(strings.TrimSpace(value)); err != nil {
		return pgtype.UUID{}, err
	}
	return id, nil
}

func uuidString(id pgtype.UUID) string {
	if !id.Valid {
		return ""
	}
	u, err := uuid.FromBytes(id.Bytes[:])
	if err != nil {
		return ""
	}
	return u.String()
}

func pgText(value string) pgtype.Text {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return pgtype.Text{}
	}
	return pgtype.Text{String: trimmed, Valid: true}
}

func pgTimestamp(t time.Time) pgtype.Timestamptz {
	return pgtype.Timestamptz{Time: t, Valid: true}
}

func toTime(ts pgtype.Timestamptz) time.Time {
	if !ts.Valid {
		return time.Time{}
	}
	return ts.Time
}

const httpStatusUnauthorized = 401
