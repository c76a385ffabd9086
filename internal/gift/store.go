package gift

// Store is the persistence boundary of the service. Find methods return
// (nil, nil) when no row matches; errors are reserved for the store itself
// failing. Multi-row writes that must be atomic are modeled as single
// composite calls so implementations can wrap them in one transaction.
type Store interface {
	// Users
	CreateUser(user *User) error
	FindUserByUUID(uuid string) (*User, error)
	FindUserByEmail(email string) (*User, error)
	ListUsers() ([]*User, error)

	// Families and membership. CreateFamily writes the family and its
	// creator's membership atomically.
	CreateFamily(family *Family, creator *Membership) error
	FindFamily(uuid string) (*Family, error)
	ListFamiliesForUser(userUUID string) ([]*Family, error)
	FindMembership(userUUID, familyUUID string) (*Membership, error)
	ListMembers(familyUUID string) ([]*Member, error)
	DeleteMembership(userUUID, familyUUID string) error

	// Invitations. The External flag selects between the account-addressed
	// and email-addressed tables.
	CreateInvitation(inv *Invitation) error
	FindInvitation(uuid string) (*Invitation, error)
	ListInvitationsForUser(userUUID, email string) ([]*Invitation, error)
	ListInvitationsForFamily(familyUUID string) ([]*Invitation, error)
	DeleteInvitation(uuid string) error
	HasInvitation(familyUUID, userUUID, email string) (bool, error)

	// Groups, envelopes and requests.
	FindGroup(uuid string) (*Group, error)
	FindGroupByTarget(familyUUID, targetUUID string) (*Group, error)
	ListGroups(familyUUID string) ([]*Group, error)
	FindEnvelope(groupUUID, userUUID string) (*Envelope, error)
	FindGroupRequest(groupUUID, userUUID string) (*GroupRequest, error)
	ListPendingRequests(familyUUID, approverUUID string) ([]*PendingRequest, error)
	CountApprovableRequests(familyUUID, approverUUID string) (int, error)
	UpdateGroupPrivateData(groupUUID, privateData string) error

	// OnboardMember applies one accepted invitation's full write set in a
	// single transaction.
	OnboardMember(change *OnboardChange) error

	// ApproveRequest inserts the granted envelope and deletes the pending
	// request in a single transaction.
	ApproveRequest(env *Envelope) error

	// Gifts
	CreateGift(g *Gift) error
	FindGift(uuid string) (*Gift, error)
	DeleteGift(uuid string) error
	ListGifts(familyUUID, targetUUID string) ([]*Gift, error)

	Close() error
}
