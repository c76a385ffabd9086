package gift

// User is an account. The identity key pair lives here: the public half in
// the clear, the private half sealed under the user's derived key.
type User struct {
	UUID                string
	Email               string
	PasswordHash        string
	Salt                string
	PublicKey           string // base64 SPKI
	EncryptedPrivateKey string // derived-key sealed PKCS8
}

// Family is a sharing circle. All groups, gifts and invitations hang off a
// family.
type Family struct {
	UUID string
	Name string
}

// FamilySummary is a family as shown in a user's listing, with a flag set
// when other members have pending group requests this user could approve.
type FamilySummary struct {
	UUID           string
	Name           string
	NeedsAttention bool
}

// Membership is a user_family row: one user's display name within one
// family.
type Membership struct {
	UserUUID   string
	FamilyUUID string
	Name       string
}

// Member is a membership joined with the user's account fields needed by
// readers.
type Member struct {
	UserUUID   string
	FamilyUUID string
	Name       string
	Email      string
	PublicKey  string
}

// Invitation asks someone to join a family. Internal invitations address an
// existing account by UUID; external ones address an email with no account
// yet and are claimed at signup.
type Invitation struct {
	UUID       string
	FamilyUUID string
	FamilyName string
	UserUUID   string // empty for external invitations
	Email      string
	External   bool
}

// Group is the per-target keyspace within a family: everyone except the
// target shares its key pair. PrivateData is the group's sealed document,
// empty until the first write.
type Group struct {
	UUID        string
	FamilyUUID  string
	TargetUUID  string
	PrivateData string
}

// Envelope is a group_user row: the group key pair wrapped under one
// member's identity public key. Holding an envelope is what membership in
// the group means.
type Envelope struct {
	GroupUUID  string
	UserUUID   string
	PublicKey  string // wrapped group public key
	PrivateKey string // wrapped group private key
}

// GroupRequest is a group_request_user row: a member waiting for an
// envelope holder to grant them access to the group.
type GroupRequest struct {
	GroupUUID string
	UserUUID  string
}

// PendingRequest is a group request joined with the names an approver needs
// to act on it.
type PendingRequest struct {
	GroupUUID     string
	CandidateUUID string
	CandidateName string
	TargetUUID    string
	TargetName    string
}

// Gift is a publicly visible gift idea for a target. The discussion around
// it lives in the group's sealed document, not here.
type Gift struct {
	UUID       string
	FamilyUUID string
	TargetUUID string
	Title      string
	Content    string
}

// OnboardChange is the complete write set of one accepted invitation,
// applied in a single transaction: the new membership, any groups created,
// the envelopes granted eagerly, and the requests left pending.
type OnboardChange struct {
	Membership     *Membership
	Groups         []*Group
	Envelopes      []*Envelope
	Requests       []*GroupRequest
	InvitationUUID string
	External       bool
}

// Session is the result of a successful login. DerivedKey travels with the
// session token so later requests can unseal the identity key without the
// password.
type Session struct {
	User       *User
	DerivedKey string // base64 derived key
}
