// Package gift implements the core service of the application: accounts
// with identity key pairs, families, per-target groups with envelope key
// distribution, gift lists and the sealed private-data documents the
// discussion around each gift lives in.
package gift

import (
	"fmt"
	"strings"

	"giftnest/internal/derived"
	"giftnest/internal/keycrypt"
)

// Service is the orchestration layer that coordinates the store, the crypto
// primitives and outbound mail to perform the high-level operations the CLI
// and tests drive.
type Service struct {
	store        Store
	mailer       Mailer
	hasher       PasswordHasher
	logger       Logger
	clock        Clock
	idgen        IDGenerator
	editLocks    *KeyedMutex
	approveLocks *KeyedMutex
	frontURL     string
}

// NewService creates a Service with the provided dependencies. frontURL is
// the base URL placed in invitation mail.
func NewService(store Store, mailer Mailer, hasher PasswordHasher, logger Logger, clock Clock, idgen IDGenerator, frontURL string) *Service {
	return &Service{
		store:        store,
		mailer:       mailer,
		hasher:       hasher,
		logger:       logger,
		clock:        clock,
		idgen:        idgen,
		editLocks:    NewKeyedMutex(),
		approveLocks: NewKeyedMutex(),
		frontURL:     frontURL,
	}
}

// CreateUser registers an account: a fresh identity key pair, the public
// half stored in the clear and the private half sealed under the password's
// derived key. External invitations addressed to the email become visible
// in the new user's inbox immediately.
func (s *Service) CreateUser(email, password string) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, fmt.Errorf("email and password are required")
	}

	existing, err := s.store.FindUserByEmail(email)
	if err != nil {
		return nil, fmt.Errorf("checking for existing user: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("user %s already exists", email)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	salt, err := derived.GenerateSalt()
	if err != nil {
		return nil, err
	}
	key, err := derived.Derive(password, salt)
	if err != nil {
		return nil, err
	}

	pub, priv, err := keycrypt.GenerateUserKeyPair()
	if err != nil {
		return nil, fmt.Errorf("generating identity key pair: %w", err)
	}
	pubExported, err := pub.Export()
	if err != nil {
		return nil, err
	}
	privDER, err := priv.MarshalDER()
	if err != nil {
		return nil, err
	}
	sealedPriv, err := key.Encrypt(privDER)
	if err != nil {
		return nil, fmt.Errorf("sealing identity private key: %w", err)
	}

	user := &User{
		UUID:                s.idgen.New(),
		Email:               email,
		PasswordHash:        hash,
		Salt:                salt,
		PublicKey:           pubExported,
		EncryptedPrivateKey: sealedPriv,
	}
	if err := s.store.CreateUser(user); err != nil {
		return nil, fmt.Errorf("creating user: %w", err)
	}

	s.logger.Info("user created", "user", user.UUID, "email", email)
	return user, nil
}

// Login verifies the password and returns a session carrying the derived
// key, which later requests use to unseal the identity private key.
func (s *Service) Login(email, password string) (*Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.store.FindUserByEmail(email)
	if err != nil {
		return nil, fmt.Errorf("finding user: %w", err)
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}

	ok, err := s.hasher.Verify(password, user.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("verifying password: %w", err)
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}

	key, err := derived.Derive(password, user.Salt)
	if err != nil {
		return nil, err
	}

	// Unseal once to catch a corrupt key blob at login rather than on the
	// first private-data access.
	if _, err := s.unsealIdentity(user, key); err != nil {
		return nil, err
	}

	s.logger.Info("login", "user", user.UUID)
	return &Session{User: user, DerivedKey: key.Export()}, nil
}

// UnlockIdentity recovers a user's identity private key from the derived
// key carried by their session.
func (s *Service) UnlockIdentity(userUUID, derivedKey string) (*keycrypt.UserPrivateKey, error) {
	user, err := s.store.FindUserByUUID(userUUID)
	if err != nil {
		return nil, fmt.Errorf("finding user: %w", err)
	}
	if user == nil {
		return nil, &NotFoundError{Kind: "user"}
	}

	key, err := derived.Import(derivedKey)
	if err != nil {
		return nil, err
	}
	return s.unsealIdentity(user, key)
}

func (s *Service) unsealIdentity(user *User, key *derived.Key) (*keycrypt.UserPrivateKey, error) {
	der, err := key.Decrypt(user.EncryptedPrivateKey)
	if err != nil {
		return nil, fmt.Errorf("unsealing identity private key: %w", err)
	}
	return keycrypt.ImportUserPrivateKeyDER(der)
}

// ListUsers returns all accounts.
func (s *Service) ListUsers() ([]*User, error) {
	return s.store.ListUsers()
}

// CreateFamily creates a family with the caller as its first member. No
// groups exist yet; they appear as further members join.
func (s *Service) CreateFamily(userUUID, familyName, memberName string) (*Family, error) {
	if familyName == "" || memberName == "" {
		return nil, fmt.Errorf("family name and member name are required")
	}

	family := &Family{UUID: s.idgen.New(), Name: familyName}
	creator := &Membership{UserUUID: userUUID, FamilyUUID: family.UUID, Name: memberName}
	if err := s.store.CreateFamily(family, creator); err != nil {
		return nil, fmt.Errorf("creating family: %w", err)
	}

	s.logger.Info("family created", "family", family.UUID, "name", familyName, "creator", userUUID)
	return family, nil
}

// ListFamilies returns the caller's families, flagging those with pending
// group requests the caller could approve.
func (s *Service) ListFamilies(userUUID string) ([]*FamilySummary, error) {
	families, err := s.store.ListFamiliesForUser(userUUID)
	if err != nil {
		return nil, fmt.Errorf("listing families: %w", err)
	}

	summaries := make([]*FamilySummary, 0, len(families))
	for _, f := range families {
		n, err := s.store.CountApprovableRequests(f.UUID, userUUID)
		if err != nil {
			return nil, fmt.Errorf("counting pending requests: %w", err)
		}
		summaries = append(summaries, &FamilySummary{UUID: f.UUID, Name: f.Name, NeedsAttention: n > 0})
	}
	return summaries, nil
}

// GetFamily returns a family and its members. The caller must be a member.
func (s *Service) GetFamily(viewerUUID, familyUUID string) (*Family, []*Member, error) {
	family, err := s.store.FindFamily(familyUUID)
	if err != nil {
		return nil, nil, fmt.Errorf("finding family: %w", err)
	}
	if family == nil {
		return nil, nil, &NotFoundError{Kind: "family"}
	}

	if err := s.requireMember(viewerUUID, familyUUID); err != nil {
		return nil, nil, err
	}

	members, err := s.store.ListMembers(familyUUID)
	if err != nil {
		return nil, nil, fmt.Errorf("listing members: %w", err)
	}
	return family, members, nil
}

// LeaveFamily removes the caller's membership. Their groups and envelopes
// remain; a member who rejoins goes through onboarding again.
func (s *Service) LeaveFamily(userUUID, familyUUID string) error {
	if err := s.requireMember(userUUID, familyUUID); err != nil {
		return err
	}
	if err := s.store.DeleteMembership(userUUID, familyUUID); err != nil {
		return fmt.Errorf("deleting membership: %w", err)
	}

	s.logger.Info("member left", "family", familyUUID, "user", userUUID)
	return nil
}

func (s *Service) requireMember(userUUID, familyUUID string) error {
	m, err := s.store.FindMembership(userUUID, familyUUID)
	if err != nil {
		return fmt.Errorf("checking membership: %w", err)
	}
	if m == nil {
		return ErrForbidden
	}
	return nil
}

// AddGift records a gift idea for a target member. Title is required,
// content is free text.
func (s *Service) AddGift(actorUUID, familyUUID, targetUUID, title, content string) (*Gift, error) {
	if title == "" {
		return nil, fmt.Errorf("gift title is required")
	}
	if err := s.requireMember(actorUUID, familyUUID); err != nil {
		return nil, err
	}
	if err := s.requireMember(targetUUID, familyUUID); err != nil {
		return nil, err
	}

	g := &Gift{
		UUID:       s.idgen.New(),
		FamilyUUID: familyUUID,
		TargetUUID: targetUUID,
		Title:      title,
		Content:    content,
	}
	if err := s.store.CreateGift(g); err != nil {
		return nil, fmt.Errorf("creating gift: %w", err)
	}

	s.logger.Info("gift added", "gift", g.UUID, "family", familyUUID, "target", targetUUID)
	return g, nil
}

// DeleteGift removes a gift idea. The gift's thread inside the group
// document is left behind; readers ignore entries without a live gift.
func (s *Service) DeleteGift(actorUUID, giftUUID string) error {
	g, err := s.store.FindGift(giftUUID)
	if err != nil {
		return fmt.Errorf("finding gift: %w", err)
	}
	if g == nil {
		return &NotFoundError{Kind: "gift"}
	}
	if err := s.requireMember(actorUUID, g.FamilyUUID); err != nil {
		return err
	}

	if err := s.store.DeleteGift(giftUUID); err != nil {
		return fmt.Errorf("deleting gift: %w", err)
	}

	s.logger.Info("gift deleted", "gift", giftUUID, "family", g.FamilyUUID)
	return nil
}

// ListGifts returns the target's gift list. Targets must not see their own
// list.
func (s *Service) ListGifts(actorUUID, familyUUID, targetUUID string) ([]*Gift, error) {
	if actorUUID == targetUUID {
		return nil, ErrForbidden
	}
	if err := s.requireMember(actorUUID, familyUUID); err != nil {
		return nil, err
	}
	return s.store.ListGifts(familyUUID, targetUUID)
}
