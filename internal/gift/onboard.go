package gift

import (
	"fmt"
	"strings"

	"giftnest/internal/keycrypt"
)

// Invite asks a user to join a family. A registered address gets an
// internal invitation; an unknown one gets an external invitation that is
// claimed at signup. Notification mail is best effort.
func (s *Service) Invite(actorUUID, familyUUID, email string) (*Invitation, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, fmt.Errorf("email is required")
	}
	if err := s.requireMember(actorUUID, familyUUID); err != nil {
		return nil, err
	}

	family, err := s.store.FindFamily(familyUUID)
	if err != nil {
		return nil, fmt.Errorf("finding family: %w", err)
	}
	if family == nil {
		return nil, &NotFoundError{Kind: "family"}
	}

	invitee, err := s.store.FindUserByEmail(email)
	if err != nil {
		return nil, fmt.Errorf("finding invitee: %w", err)
	}

	inv := &Invitation{
		UUID:       s.idgen.New(),
		FamilyUUID: familyUUID,
		Email:      email,
	}
	if invitee != nil {
		m, err := s.store.FindMembership(invitee.UUID, familyUUID)
		if err != nil {
			return nil, fmt.Errorf("checking membership: %w", err)
		}
		if m != nil {
			return nil, ErrAlreadyMember
		}
		inv.UserUUID = invitee.UUID
	} else {
		inv.External = true
	}

	dup, err := s.store.HasInvitation(familyUUID, inv.UserUUID, email)
	if err != nil {
		return nil, fmt.Errorf("checking for existing invitation: %w", err)
	}
	if dup {
		return nil, ErrAlreadyInvited
	}

	if err := s.store.CreateInvitation(inv); err != nil {
		return nil, fmt.Errorf("creating invitation: %w", err)
	}

	subject := fmt.Sprintf("You are invited to join %s", family.Name)
	body := fmt.Sprintf("You have been invited to join the family %q.\n\nVisit %s to accept.\n", family.Name, s.frontURL)
	if err := s.mailer.Send(email, subject, body); err != nil {
		s.logger.Warn("invitation mail failed", "email", email, "error", err)
	}

	s.logger.Info("invitation created", "invitation", inv.UUID, "family", familyUUID, "email", email, "external", inv.External)
	return inv, nil
}

// ListInvitations returns the invitations addressed to the caller, by
// account or by email address.
func (s *Service) ListInvitations(userUUID string) ([]*Invitation, error) {
	user, err := s.store.FindUserByUUID(userUUID)
	if err != nil {
		return nil, fmt.Errorf("finding user: %w", err)
	}
	if user == nil {
		return nil, &NotFoundError{Kind: "user"}
	}
	return s.store.ListInvitationsForUser(userUUID, user.Email)
}

// ListFamilyInvitations returns a family's outstanding invitations.
func (s *Service) ListFamilyInvitations(actorUUID, familyUUID string) ([]*Invitation, error) {
	if err := s.requireMember(actorUUID, familyUUID); err != nil {
		return nil, err
	}
	return s.store.ListInvitationsForFamily(familyUUID)
}

// DeclineInvitation removes an invitation addressed to the caller.
func (s *Service) DeclineInvitation(actorUUID, invitationUUID string) error {
	inv, err := s.invitationFor(actorUUID, invitationUUID)
	if err != nil {
		return err
	}
	if err := s.store.DeleteInvitation(inv.UUID); err != nil {
		return fmt.Errorf("deleting invitation: %w", err)
	}

	s.logger.Info("invitation declined", "invitation", inv.UUID, "user", actorUUID)
	return nil
}

// AcceptInvitation joins the caller to the invitation's family and fans the
// group keys out. In one transaction: the newcomer gets their own group,
// with every existing member granted its key pair eagerly; groups missing
// for existing members are created the same way; and for each group that
// already existed the newcomer is left with a pending request, to be
// approved by any member who holds that group's key.
func (s *Service) AcceptInvitation(actorUUID, invitationUUID, memberName string) error {
	if memberName == "" {
		return fmt.Errorf("member name is required")
	}

	inv, err := s.invitationFor(actorUUID, invitationUUID)
	if err != nil {
		return err
	}

	m, err := s.store.FindMembership(actorUUID, inv.FamilyUUID)
	if err != nil {
		return fmt.Errorf("checking membership: %w", err)
	}
	if m != nil {
		return ErrAlreadyMember
	}

	newcomer, err := s.store.FindUserByUUID(actorUUID)
	if err != nil {
		return fmt.Errorf("finding user: %w", err)
	}
	if newcomer == nil {
		return &NotFoundError{Kind: "user"}
	}
	newcomerPub, err := keycrypt.ImportUserPublicKey(newcomer.PublicKey)
	if err != nil {
		return err
	}

	members, err := s.store.ListMembers(inv.FamilyUUID)
	if err != nil {
		return fmt.Errorf("listing members: %w", err)
	}
	groups, err := s.store.ListGroups(inv.FamilyUUID)
	if err != nil {
		return fmt.Errorf("listing groups: %w", err)
	}
	groupByTarget := make(map[string]*Group, len(groups))
	for _, g := range groups {
		groupByTarget[g.TargetUUID] = g
	}

	change := &OnboardChange{
		Membership:     &Membership{UserUUID: actorUUID, FamilyUUID: inv.FamilyUUID, Name: memberName},
		InvitationUUID: inv.UUID,
		External:       inv.External,
	}

	// The newcomer's own group. Every existing member gets its key pair
	// right away; the newcomer, as target, never does.
	ownGroup := &Group{UUID: s.idgen.New(), FamilyUUID: inv.FamilyUUID, TargetUUID: actorUUID}
	ownPub, ownPriv, err := keycrypt.GenerateGroupKeyPair()
	if err != nil {
		return fmt.Errorf("generating group key pair: %w", err)
	}
	change.Groups = append(change.Groups, ownGroup)
	for _, member := range members {
		env, err := wrapEnvelope(ownGroup.UUID, member.UserUUID, member.PublicKey, ownPub, ownPriv)
		if err != nil {
			return err
		}
		change.Envelopes = append(change.Envelopes, env)
	}

	for _, member := range members {
		if existing := groupByTarget[member.UserUUID]; existing != nil {
			// The key already circulates among envelope holders; the
			// newcomer waits for one of them to approve.
			change.Requests = append(change.Requests, &GroupRequest{
				GroupUUID: existing.UUID,
				UserUUID:  actorUUID,
			})
			continue
		}

		// No group yet for this member. Create it now, while its fresh
		// private key is in hand, and grant everyone except the target.
		g := &Group{UUID: s.idgen.New(), FamilyUUID: inv.FamilyUUID, TargetUUID: member.UserUUID}
		gpub, gpriv, err := keycrypt.GenerateGroupKeyPair()
		if err != nil {
			return fmt.Errorf("generating group key pair: %w", err)
		}
		change.Groups = append(change.Groups, g)

		newcomerEnv, err := wrapEnvelopeFor(g.UUID, actorUUID, newcomerPub, gpub, gpriv)
		if err != nil {
			return err
		}
		change.Envelopes = append(change.Envelopes, newcomerEnv)

		for _, other := range members {
			if other.UserUUID == member.UserUUID {
				continue
			}
			env, err := wrapEnvelope(g.UUID, other.UserUUID, other.PublicKey, gpub, gpriv)
			if err != nil {
				return err
			}
			change.Envelopes = append(change.Envelopes, env)
		}
	}

	if err := s.store.OnboardMember(change); err != nil {
		return fmt.Errorf("onboarding member: %w", err)
	}

	s.logger.Info("member onboarded",
		"family", inv.FamilyUUID,
		"user", actorUUID,
		"groups_created", len(change.Groups),
		"envelopes", len(change.Envelopes),
		"requests", len(change.Requests))
	return nil
}

func (s *Service) invitationFor(actorUUID, invitationUUID string) (*Invitation, error) {
	inv, err := s.store.FindInvitation(invitationUUID)
	if err != nil {
		return nil, fmt.Errorf("finding invitation: %w", err)
	}
	if inv == nil {
		return nil, &NotFoundError{Kind: "invitation"}
	}

	if inv.External {
		user, err := s.store.FindUserByUUID(actorUUID)
		if err != nil {
			return nil, fmt.Errorf("finding user: %w", err)
		}
		if user == nil || user.Email != inv.Email {
			return nil, ErrForbidden
		}
	} else if inv.UserUUID != actorUUID {
		return nil, ErrForbidden
	}
	return inv, nil
}

func wrapEnvelope(groupUUID, memberUUID, memberPublicKey string, gpub *keycrypt.GroupPublicKey, gpriv *keycrypt.GroupPrivateKey) (*Envelope, error) {
	pub, err := keycrypt.ImportUserPublicKey(memberPublicKey)
	if err != nil {
		return nil, err
	}
	return wrapEnvelopeFor(groupUUID, memberUUID, pub, gpub, gpriv)
}

func wrapEnvelopeFor(groupUUID, memberUUID string, memberKey *keycrypt.UserPublicKey, gpub *keycrypt.GroupPublicKey, gpriv *keycrypt.GroupPrivateKey) (*Envelope, error) {
	wrappedPub, err := gpub.WrapFor(memberKey)
	if err != nil {
		return nil, err
	}
	wrappedPriv, err := gpriv.WrapFor(memberKey)
	if err != nil {
		return nil, err
	}
	return &Envelope{
		GroupUUID:  groupUUID,
		UserUUID:   memberUUID,
		PublicKey:  wrappedPub,
		PrivateKey: wrappedPriv,
	}, nil
}
