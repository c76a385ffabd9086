package gift

import (
	"fmt"

	"giftnest/internal/keycrypt"
)

// ListGroupRequests returns the pending requests in a family that the
// caller can approve: requests against groups the caller holds an envelope
// for, excluding the caller's own.
func (s *Service) ListGroupRequests(actorUUID, familyUUID string) ([]*PendingRequest, error) {
	if err := s.requireMember(actorUUID, familyUUID); err != nil {
		return nil, err
	}
	return s.store.ListPendingRequests(familyUUID, actorUUID)
}

// ApproveGroupRequest grants a pending candidate the group's key pair. The
// approver unwraps their own envelope and rewraps both halves under the
// candidate's identity public key; the grant and the request deletion land
// in one transaction. Approvals for the same (group, candidate) are
// serialized so a double approval cannot insert the envelope twice.
func (s *Service) ApproveGroupRequest(actorUUID string, actorKey *keycrypt.UserPrivateKey, groupUUID, candidateUUID string) error {
	lockKey := groupUUID + candidateUUID
	s.approveLocks.Lock(lockKey)
	defer s.approveLocks.Unlock(lockKey)

	group, err := s.store.FindGroup(groupUUID)
	if err != nil {
		return fmt.Errorf("finding group: %w", err)
	}
	if group == nil {
		return &NotFoundError{Kind: "group"}
	}
	if group.TargetUUID == candidateUUID {
		return ErrForbidden
	}

	req, err := s.store.FindGroupRequest(groupUUID, candidateUUID)
	if err != nil {
		return fmt.Errorf("finding request: %w", err)
	}
	if req == nil {
		return &NotFoundError{Kind: "request"}
	}

	approverEnv, err := s.store.FindEnvelope(groupUUID, actorUUID)
	if err != nil {
		return fmt.Errorf("finding envelope: %w", err)
	}
	if approverEnv == nil {
		return &PrivateDataError{Reason: "user has no key for this group"}
	}

	candidate, err := s.store.FindUserByUUID(candidateUUID)
	if err != nil {
		return fmt.Errorf("finding candidate: %w", err)
	}
	if candidate == nil {
		return &NotFoundError{Kind: "user"}
	}
	candidatePub, err := keycrypt.ImportUserPublicKey(candidate.PublicKey)
	if err != nil {
		return err
	}

	gpub, err := actorKey.UnwrapGroupPublicKey(approverEnv.PublicKey)
	if err != nil {
		return err
	}
	gpriv, err := actorKey.UnwrapGroupPrivateKey(approverEnv.PrivateKey)
	if err != nil {
		return err
	}

	env, err := wrapEnvelopeFor(groupUUID, candidateUUID, candidatePub, gpub, gpriv)
	if err != nil {
		return err
	}
	if err := s.store.ApproveRequest(env); err != nil {
		return fmt.Errorf("approving request: %w", err)
	}

	s.logger.Info("group request approved", "group", groupUUID, "candidate", candidateUUID, "approver", actorUUID)
	return nil
}
