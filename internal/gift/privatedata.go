package gift

import (
	"encoding/json"
	"fmt"
	"time"

	"giftnest/internal/keycrypt"
)

// Message is one entry in a gift's hidden discussion thread.
type Message struct {
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
	UserUUID  string `json:"user_uuid"`
}

// GiftPrivateData is the hidden state of one gift: its discussion thread
// and who, if anyone, has claimed it. The target never sees this.
type GiftPrivateData struct {
	Messages []Message `json:"messages"`
	TakenBy  *string   `json:"takenBy"`
}

// GroupPrivateData is the plaintext form of a group's sealed document,
// keyed by gift UUID. Entries appear lazily on first write.
type GroupPrivateData map[string]*GiftPrivateData

// ParseGroupPrivateData decodes a decrypted document. An empty input is a
// document that has never been written and parses to an empty map.
func ParseGroupPrivateData(plaintext string) (GroupPrivateData, error) {
	if plaintext == "" {
		return GroupPrivateData{}, nil
	}
	var doc GroupPrivateData
	if err := json.Unmarshal([]byte(plaintext), &doc); err != nil {
		return nil, &PrivateDataError{Reason: "document is not valid JSON"}
	}
	if doc == nil {
		doc = GroupPrivateData{}
	}
	return doc, nil
}

// Serialize encodes the document for sealing.
func (d GroupPrivateData) Serialize() (string, error) {
	raw, err := json.Marshal(d)
	if err != nil {
		return "", fmt.Errorf("encoding private data: %w", err)
	}
	return string(raw), nil
}

// MemberData is everything a member sees about one target: the public gift
// list plus, when the viewer holds the group key, the decrypted private
// document. HasAccess is false while the viewer's group request is still
// pending.
type MemberData struct {
	Gifts       []*Gift
	PrivateData GroupPrivateData
	HasAccess   bool
}

// GetMemberData returns the target's gifts and, if the acting user holds an
// envelope for the target's group, the decrypted private document.
func (s *Service) GetMemberData(actorUUID string, actorKey *keycrypt.UserPrivateKey, familyUUID, targetUUID string) (*MemberData, error) {
	gifts, err := s.ListGifts(actorUUID, familyUUID, targetUUID)
	if err != nil {
		return nil, err
	}

	data := &MemberData{Gifts: gifts}

	group, err := s.store.FindGroupByTarget(familyUUID, targetUUID)
	if err != nil {
		return nil, fmt.Errorf("finding group: %w", err)
	}
	if group == nil {
		return data, nil
	}

	env, err := s.store.FindEnvelope(group.UUID, actorUUID)
	if err != nil {
		return nil, fmt.Errorf("finding envelope: %w", err)
	}
	if env == nil {
		return data, nil
	}

	doc, err := s.openDocument(group, env, actorKey)
	if err != nil {
		return nil, err
	}
	data.PrivateData = doc
	data.HasAccess = true
	return data, nil
}

// PostMessage appends to a gift's hidden discussion thread.
func (s *Service) PostMessage(actorUUID string, actorKey *keycrypt.UserPrivateKey, familyUUID, targetUUID, giftUUID, content string) error {
	if content == "" {
		return fmt.Errorf("message content is required")
	}
	if err := s.requireGift(familyUUID, targetUUID, giftUUID); err != nil {
		return err
	}

	msg := Message{
		Content:   content,
		Timestamp: s.clock.Now().UTC().Format(time.RFC3339),
		UserUUID:  actorUUID,
	}
	return s.EditPrivateData(actorUUID, actorKey, familyUUID, targetUUID, giftUUID, func(d *GiftPrivateData) error {
		d.Messages = append(d.Messages, msg)
		return nil
	})
}

// ClaimGift marks a gift as taken by the acting user. A claim replaces any
// existing one; members coordinate in the thread first.
func (s *Service) ClaimGift(actorUUID string, actorKey *keycrypt.UserPrivateKey, familyUUID, targetUUID, giftUUID string) error {
	if err := s.requireGift(familyUUID, targetUUID, giftUUID); err != nil {
		return err
	}
	return s.EditPrivateData(actorUUID, actorKey, familyUUID, targetUUID, giftUUID, func(d *GiftPrivateData) error {
		d.TakenBy = &actorUUID
		return nil
	})
}

// ReleaseGift clears a gift's claim. Only the claimant can release it.
func (s *Service) ReleaseGift(actorUUID string, actorKey *keycrypt.UserPrivateKey, familyUUID, targetUUID, giftUUID string) error {
	if err := s.requireGift(familyUUID, targetUUID, giftUUID); err != nil {
		return err
	}
	return s.EditPrivateData(actorUUID, actorKey, familyUUID, targetUUID, giftUUID, func(d *GiftPrivateData) error {
		if d.TakenBy == nil {
			return fmt.Errorf("gift is not claimed")
		}
		if *d.TakenBy != actorUUID {
			return ErrForbidden
		}
		d.TakenBy = nil
		return nil
	})
}

// EditPrivateData runs a read-modify-write cycle on one gift's entry in the
// target group's sealed document. All edits to the same document are
// serialized: the whole document is decrypted, mutated and re-sealed, so
// even edits to different gifts of one target would lose updates if they
// interleaved. Documents of different targets proceed in parallel. The
// gift's entry is synthesized on first edit.
func (s *Service) EditPrivateData(actorUUID string, actorKey *keycrypt.UserPrivateKey, familyUUID, targetUUID, giftUUID string, mutate func(*GiftPrivateData) error) error {
	if actorUUID == targetUUID {
		return ErrForbidden
	}
	if err := s.requireMember(actorUUID, familyUUID); err != nil {
		return err
	}

	lockKey := familyUUID + targetUUID
	s.editLocks.Lock(lockKey)
	defer s.editLocks.Unlock(lockKey)

	group, err := s.store.FindGroupByTarget(familyUUID, targetUUID)
	if err != nil {
		return fmt.Errorf("finding group: %w", err)
	}
	if group == nil {
		return &NotFoundError{Kind: "group"}
	}

	env, err := s.store.FindEnvelope(group.UUID, actorUUID)
	if err != nil {
		return fmt.Errorf("finding envelope: %w", err)
	}
	if env == nil {
		return &PrivateDataError{Reason: "user has no key for this group"}
	}

	doc, err := s.openDocument(group, env, actorKey)
	if err != nil {
		return err
	}

	entry := doc[giftUUID]
	if entry == nil {
		entry = &GiftPrivateData{Messages: []Message{}}
	}
	if err := mutate(entry); err != nil {
		return err
	}
	doc[giftUUID] = entry

	plaintext, err := doc.Serialize()
	if err != nil {
		return err
	}

	groupPub, err := actorKey.UnwrapGroupPublicKey(env.PublicKey)
	if err != nil {
		return err
	}
	sealed, err := groupPub.SealDocument(plaintext)
	if err != nil {
		return err
	}

	if err := s.store.UpdateGroupPrivateData(group.UUID, sealed); err != nil {
		return fmt.Errorf("updating private data: %w", err)
	}

	s.logger.Debug("private data updated", "group", group.UUID, "gift", giftUUID, "user", actorUUID)
	return nil
}

func (s *Service) openDocument(group *Group, env *Envelope, actorKey *keycrypt.UserPrivateKey) (GroupPrivateData, error) {
	if group.PrivateData == "" {
		return GroupPrivateData{}, nil
	}

	groupPriv, err := actorKey.UnwrapGroupPrivateKey(env.PrivateKey)
	if err != nil {
		return nil, err
	}
	plaintext, err := groupPriv.OpenDocument(group.PrivateData)
	if err != nil {
		return nil, err
	}
	return ParseGroupPrivateData(plaintext)
}

func (s *Service) requireGift(familyUUID, targetUUID, giftUUID string) error {
	g, err := s.store.FindGift(giftUUID)
	if err != nil {
		return fmt.Errorf("finding gift: %w", err)
	}
	if g == nil || g.FamilyUUID != familyUUID || g.TargetUUID != targetUUID {
		return &NotFoundError{Kind: "gift"}
	}
	return nil
}
