package gift_test

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"giftnest/internal/gift"
	"giftnest/internal/keycrypt"
)

// threeMembers sets up a family where Alice and Bob joined first (and so
// hold each other's group keys) and Carol is still pending on their groups.
type threeMembers struct {
	*fixture
	family               *gift.Family
	alice, bob, carol    *gift.User
	aliceKey             *keycrypt.UserPrivateKey
	bobKey               *keycrypt.UserPrivateKey
	carolKey             *keycrypt.UserPrivateKey
	aliceGroup, bobGroup *gift.Group
}

func newThreeMembers(t *testing.T) *threeMembers {
	t.Helper()
	f := newFixture(t)

	s := &threeMembers{fixture: f}
	s.alice, s.aliceKey = f.signup(t, "alice@example.com")
	s.bob, s.bobKey = f.signup(t, "bob@example.com")
	s.carol, s.carolKey = f.signup(t, "carol@example.com")

	family, err := f.svc.CreateFamily(s.alice.UUID, "Smith", "Alice")
	if err != nil {
		t.Fatalf("CreateFamily() error = %v", err)
	}
	s.family = family
	f.join(t, s.alice, family.UUID, s.bob, "Bob")
	f.join(t, s.alice, family.UUID, s.carol, "Carol")

	s.aliceGroup, err = f.store.FindGroupByTarget(family.UUID, s.alice.UUID)
	if err != nil || s.aliceGroup == nil {
		t.Fatalf("FindGroupByTarget(alice) = %+v, %v", s.aliceGroup, err)
	}
	s.bobGroup, err = f.store.FindGroupByTarget(family.UUID, s.bob.UUID)
	if err != nil || s.bobGroup == nil {
		t.Fatalf("FindGroupByTarget(bob) = %+v, %v", s.bobGroup, err)
	}
	return s
}

func TestApproveGroupRequest(t *testing.T) {
	s := newThreeMembers(t)

	t.Run("pending requests are listed for key holders", func(t *testing.T) {
		pending, err := s.svc.ListGroupRequests(s.alice.UUID, s.family.UUID)
		if err != nil {
			t.Fatalf("ListGroupRequests() error = %v", err)
		}
		// Alice holds Bob's group key; Carol waits there.
		if len(pending) != 1 || pending[0].CandidateUUID != s.carol.UUID || pending[0].GroupUUID != s.bobGroup.UUID {
			t.Errorf("ListGroupRequests(alice) = %+v", pending)
		}
	})

	if err := s.svc.ApproveGroupRequest(s.alice.UUID, s.aliceKey, s.bobGroup.UUID, s.carol.UUID); err != nil {
		t.Fatalf("ApproveGroupRequest() error = %v", err)
	}

	t.Run("candidate can use the granted key", func(t *testing.T) {
		g, err := s.svc.AddGift(s.alice.UUID, s.family.UUID, s.bob.UUID, "scarf", "")
		if err != nil {
			t.Fatalf("AddGift() error = %v", err)
		}
		if err := s.svc.PostMessage(s.carol.UUID, s.carolKey, s.family.UUID, s.bob.UUID, g.UUID, "I can knit one"); err != nil {
			t.Errorf("PostMessage() after approval error = %v", err)
		}
	})

	t.Run("approving twice fails cleanly", func(t *testing.T) {
		err := s.svc.ApproveGroupRequest(s.alice.UUID, s.aliceKey, s.bobGroup.UUID, s.carol.UUID)
		var nf *gift.NotFoundError
		if !errors.As(err, &nf) {
			t.Errorf("second ApproveGroupRequest() error = %v, want NotFoundError", err)
		}
	})

	t.Run("the target can never be approved into their own group", func(t *testing.T) {
		err := s.svc.ApproveGroupRequest(s.alice.UUID, s.aliceKey, s.bobGroup.UUID, s.bob.UUID)
		if !errors.Is(err, gift.ErrForbidden) {
			t.Errorf("ApproveGroupRequest(target) error = %v, want ErrForbidden", err)
		}
	})

	t.Run("approver without a key is rejected", func(t *testing.T) {
		// Carol still waits on Alice's group, and Bob holds its key while
		// Carol does not; Carol cannot approve anyone there.
		err := s.svc.ApproveGroupRequest(s.carol.UUID, s.carolKey, s.aliceGroup.UUID, s.carol.UUID)
		var pd *gift.PrivateDataError
		if !errors.As(err, &pd) {
			t.Errorf("ApproveGroupRequest() without key: error = %v, want PrivateDataError", err)
		}
	})
}

func TestPrivateDataLifecycle(t *testing.T) {
	s := newThreeMembers(t)

	g, err := s.svc.AddGift(s.alice.UUID, s.family.UUID, s.bob.UUID, "socks", "wool")
	if err != nil {
		t.Fatalf("AddGift() error = %v", err)
	}

	t.Run("first write synthesizes the document", func(t *testing.T) {
		if err := s.svc.PostMessage(s.alice.UUID, s.aliceKey, s.family.UUID, s.bob.UUID, g.UUID, "thoughts?"); err != nil {
			t.Fatalf("PostMessage() error = %v", err)
		}

		data, err := s.svc.GetMemberData(s.alice.UUID, s.aliceKey, s.family.UUID, s.bob.UUID)
		if err != nil {
			t.Fatalf("GetMemberData() error = %v", err)
		}
		if !data.HasAccess {
			t.Fatal("alice has no access to bob's group")
		}
		entry := data.PrivateData[g.UUID]
		if entry == nil || len(entry.Messages) != 1 {
			t.Fatalf("entry = %+v", entry)
		}
		msg := entry.Messages[0]
		if msg.Content != "thoughts?" || msg.UserUUID != s.alice.UUID {
			t.Errorf("message = %+v", msg)
		}
		if msg.Timestamp != "2026-01-15T10:30:00Z" {
			t.Errorf("timestamp = %q", msg.Timestamp)
		}
		if entry.TakenBy != nil {
			t.Errorf("TakenBy = %v, want nil on fresh entry", *entry.TakenBy)
		}
	})

	t.Run("pending member reads gifts but no document", func(t *testing.T) {
		data, err := s.svc.GetMemberData(s.carol.UUID, s.carolKey, s.family.UUID, s.bob.UUID)
		if err != nil {
			t.Fatalf("GetMemberData() error = %v", err)
		}
		if data.HasAccess || data.PrivateData != nil {
			t.Errorf("pending member got private data: %+v", data)
		}
		if len(data.Gifts) != 1 {
			t.Errorf("gifts = %+v", data.Gifts)
		}
	})

	t.Run("pending member cannot write", func(t *testing.T) {
		err := s.svc.PostMessage(s.carol.UUID, s.carolKey, s.family.UUID, s.bob.UUID, g.UUID, "me too")
		var pd *gift.PrivateDataError
		if !errors.As(err, &pd) {
			t.Errorf("PostMessage() without key: error = %v, want PrivateDataError", err)
		}
	})

	t.Run("the target is locked out entirely", func(t *testing.T) {
		if _, err := s.svc.GetMemberData(s.bob.UUID, s.bobKey, s.family.UUID, s.bob.UUID); !errors.Is(err, gift.ErrForbidden) {
			t.Errorf("GetMemberData() by target: error = %v, want ErrForbidden", err)
		}
		if err := s.svc.PostMessage(s.bob.UUID, s.bobKey, s.family.UUID, s.bob.UUID, g.UUID, "hi"); !errors.Is(err, gift.ErrForbidden) {
			t.Errorf("PostMessage() by target: error = %v, want ErrForbidden", err)
		}
	})

	t.Run("claim and release", func(t *testing.T) {
		if err := s.svc.ClaimGift(s.alice.UUID, s.aliceKey, s.family.UUID, s.bob.UUID, g.UUID); err != nil {
			t.Fatalf("ClaimGift() error = %v", err)
		}

		data, err := s.svc.GetMemberData(s.alice.UUID, s.aliceKey, s.family.UUID, s.bob.UUID)
		if err != nil {
			t.Fatalf("GetMemberData() error = %v", err)
		}
		if tb := data.PrivateData[g.UUID].TakenBy; tb == nil || *tb != s.alice.UUID {
			t.Errorf("TakenBy = %v, want alice", tb)
		}

		if err := s.svc.ReleaseGift(s.alice.UUID, s.aliceKey, s.family.UUID, s.bob.UUID, g.UUID); err != nil {
			t.Fatalf("ReleaseGift() error = %v", err)
		}
		if err := s.svc.ReleaseGift(s.alice.UUID, s.aliceKey, s.family.UUID, s.bob.UUID, g.UUID); err == nil {
			t.Error("releasing an unclaimed gift succeeded")
		}
	})

	t.Run("a later claim replaces an earlier one", func(t *testing.T) {
		// Approve carol so two members can compete for the claim.
		if err := s.svc.ApproveGroupRequest(s.alice.UUID, s.aliceKey, s.bobGroup.UUID, s.carol.UUID); err != nil {
			t.Fatalf("ApproveGroupRequest() error = %v", err)
		}

		if err := s.svc.ClaimGift(s.alice.UUID, s.aliceKey, s.family.UUID, s.bob.UUID, g.UUID); err != nil {
			t.Fatalf("ClaimGift() error = %v", err)
		}
		if err := s.svc.ClaimGift(s.carol.UUID, s.carolKey, s.family.UUID, s.bob.UUID, g.UUID); err != nil {
			t.Fatalf("second ClaimGift() error = %v", err)
		}

		data, err := s.svc.GetMemberData(s.alice.UUID, s.aliceKey, s.family.UUID, s.bob.UUID)
		if err != nil {
			t.Fatalf("GetMemberData() error = %v", err)
		}
		if tb := data.PrivateData[g.UUID].TakenBy; tb == nil || *tb != s.carol.UUID {
			t.Errorf("TakenBy = %v, want carol", tb)
		}

		// Only the current claimant can release.
		if err := s.svc.ReleaseGift(s.alice.UUID, s.aliceKey, s.family.UUID, s.bob.UUID, g.UUID); !errors.Is(err, gift.ErrForbidden) {
			t.Errorf("ReleaseGift() by non-claimant: error = %v, want ErrForbidden", err)
		}
	})

	t.Run("unknown gift is rejected", func(t *testing.T) {
		err := s.svc.PostMessage(s.alice.UUID, s.aliceKey, s.family.UUID, s.bob.UUID, "no-such-gift", "hi")
		var nf *gift.NotFoundError
		if !errors.As(err, &nf) {
			t.Errorf("PostMessage() on unknown gift: error = %v, want NotFoundError", err)
		}
	})
}

func TestEditPrivateDataConcurrent(t *testing.T) {
	s := newThreeMembers(t)

	g, err := s.svc.AddGift(s.alice.UUID, s.family.UUID, s.bob.UUID, "bike", "")
	if err != nil {
		t.Fatalf("AddGift() error = %v", err)
	}

	// Concurrent read-modify-write cycles on the same gift must all
	// survive; a lost update would drop messages.
	const writers = 16
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs <- s.svc.PostMessage(s.alice.UUID, s.aliceKey, s.family.UUID, s.bob.UUID, g.UUID, fmt.Sprintf("message %d", i))
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("PostMessage() error = %v", err)
		}
	}

	data, err := s.svc.GetMemberData(s.alice.UUID, s.aliceKey, s.family.UUID, s.bob.UUID)
	if err != nil {
		t.Fatalf("GetMemberData() error = %v", err)
	}
	entry := data.PrivateData[g.UUID]
	if entry == nil || len(entry.Messages) != writers {
		got := 0
		if entry != nil {
			got = len(entry.Messages)
		}
		t.Errorf("got %d messages, want %d (updates were lost)", got, writers)
	}
}

func TestEditPrivateDataAcrossGifts(t *testing.T) {
	s := newThreeMembers(t)

	g1, err := s.svc.AddGift(s.alice.UUID, s.family.UUID, s.bob.UUID, "book", "")
	if err != nil {
		t.Fatalf("AddGift() error = %v", err)
	}
	g2, err := s.svc.AddGift(s.alice.UUID, s.family.UUID, s.bob.UUID, "game", "")
	if err != nil {
		t.Fatalf("AddGift() error = %v", err)
	}

	// Different gifts share one sealed document; concurrent writers on
	// both must not clobber each other's threads.
	var wg sync.WaitGroup
	for _, giftUUID := range []string{g1.UUID, g2.UUID} {
		for i := 0; i < 4; i++ {
			wg.Add(1)
			go func(id string, i int) {
				defer wg.Done()
				if err := s.svc.PostMessage(s.alice.UUID, s.aliceKey, s.family.UUID, s.bob.UUID, id, fmt.Sprintf("note %d", i)); err != nil {
					t.Errorf("PostMessage() error = %v", err)
				}
			}(giftUUID, i)
		}
	}
	wg.Wait()

	data, err := s.svc.GetMemberData(s.alice.UUID, s.aliceKey, s.family.UUID, s.bob.UUID)
	if err != nil {
		t.Fatalf("GetMemberData() error = %v", err)
	}
	for _, giftUUID := range []string{g1.UUID, g2.UUID} {
		entry := data.PrivateData[giftUUID]
		if entry == nil || len(entry.Messages) != 4 {
			t.Errorf("gift %s: entry = %+v, want 4 messages", giftUUID, entry)
		}
	}
}
