package gift_test

import (
	"errors"
	"testing"

	"giftnest/internal/database"
	"giftnest/internal/gift"
	"giftnest/internal/keycrypt"
	"giftnest/internal/testutil"
)

type fixture struct {
	svc    *gift.Service
	store  *database.SQLiteStore
	mailer *testutil.MemoryMailer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := testutil.NewTestStore(t)
	mailer := testutil.NewMemoryMailer()
	svc := gift.NewService(store, mailer, testutil.StubHasher{}, gift.NewNopLogger(),
		testutil.FixedClock(), testutil.NewStubIDGenerator(), "https://gifts.example.com")
	return &fixture{svc: svc, store: store, mailer: mailer}
}

// signup registers a user and returns the account with its unlocked
// identity key, the state a logged-in request handler would hold.
func (f *fixture) signup(t *testing.T, email string) (*gift.User, *keycrypt.UserPrivateKey) {
	t.Helper()
	user, err := f.svc.CreateUser(email, "pw-"+email)
	if err != nil {
		t.Fatalf("CreateUser(%s) error = %v", email, err)
	}
	session, err := f.svc.Login(email, "pw-"+email)
	if err != nil {
		t.Fatalf("Login(%s) error = %v", email, err)
	}
	key, err := f.svc.UnlockIdentity(user.UUID, session.DerivedKey)
	if err != nil {
		t.Fatalf("UnlockIdentity(%s) error = %v", email, err)
	}
	return user, key
}

// join runs the full invite-accept cycle for an existing account.
func (f *fixture) join(t *testing.T, inviter *gift.User, familyUUID string, joiner *gift.User, name string) {
	t.Helper()
	inv, err := f.svc.Invite(inviter.UUID, familyUUID, joiner.Email)
	if err != nil {
		t.Fatalf("Invite(%s) error = %v", joiner.Email, err)
	}
	if err := f.svc.AcceptInvitation(joiner.UUID, inv.UUID, name); err != nil {
		t.Fatalf("AcceptInvitation(%s) error = %v", joiner.Email, err)
	}
}

func TestCreateUserAndLogin(t *testing.T) {
	f := newFixture(t)

	user, err := f.svc.CreateUser("Alice@Example.com", "hunter2")
	if err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}
	if user.Email != "alice@example.com" {
		t.Errorf("email not normalized: %q", user.Email)
	}
	if user.PublicKey == "" || user.EncryptedPrivateKey == "" || user.Salt == "" {
		t.Error("identity key material missing on new user")
	}

	t.Run("duplicate email rejected", func(t *testing.T) {
		if _, err := f.svc.CreateUser("alice@example.com", "other"); err == nil {
			t.Error("CreateUser() with duplicate email succeeded")
		}
	})

	t.Run("login with correct password", func(t *testing.T) {
		session, err := f.svc.Login("alice@example.com", "hunter2")
		if err != nil {
			t.Fatalf("Login() error = %v", err)
		}
		if session.User.UUID != user.UUID {
			t.Errorf("session user = %s, want %s", session.User.UUID, user.UUID)
		}

		// The derived key carried by the session must unlock the identity.
		if _, err := f.svc.UnlockIdentity(user.UUID, session.DerivedKey); err != nil {
			t.Errorf("UnlockIdentity() error = %v", err)
		}
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := f.svc.Login("alice@example.com", "wrong")
		if !errors.Is(err, gift.ErrInvalidCredentials) {
			t.Errorf("Login() error = %v, want ErrInvalidCredentials", err)
		}
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := f.svc.Login("nobody@example.com", "hunter2")
		if !errors.Is(err, gift.ErrInvalidCredentials) {
			t.Errorf("Login() error = %v, want ErrInvalidCredentials", err)
		}
	})
}

func TestCreateFamily(t *testing.T) {
	f := newFixture(t)
	alice, _ := f.signup(t, "alice@example.com")

	family, err := f.svc.CreateFamily(alice.UUID, "Smith", "Alice")
	if err != nil {
		t.Fatalf("CreateFamily() error = %v", err)
	}

	got, members, err := f.svc.GetFamily(alice.UUID, family.UUID)
	if err != nil {
		t.Fatalf("GetFamily() error = %v", err)
	}
	if got.Name != "Smith" {
		t.Errorf("family name = %q, want %q", got.Name, "Smith")
	}
	if len(members) != 1 || members[0].Name != "Alice" {
		t.Errorf("members = %+v", members)
	}

	t.Run("non-member cannot view", func(t *testing.T) {
		mallory, _ := f.signup(t, "mallory@example.com")
		_, _, err := f.svc.GetFamily(mallory.UUID, family.UUID)
		if !errors.Is(err, gift.ErrForbidden) {
			t.Errorf("GetFamily() error = %v, want ErrForbidden", err)
		}
	})

	t.Run("listing shows the family", func(t *testing.T) {
		summaries, err := f.svc.ListFamilies(alice.UUID)
		if err != nil {
			t.Fatalf("ListFamilies() error = %v", err)
		}
		if len(summaries) != 1 || summaries[0].UUID != family.UUID || summaries[0].NeedsAttention {
			t.Errorf("ListFamilies() = %+v", summaries)
		}
	})
}

func TestLeaveFamily(t *testing.T) {
	f := newFixture(t)
	alice, _ := f.signup(t, "alice@example.com")
	family, err := f.svc.CreateFamily(alice.UUID, "Smith", "Alice")
	if err != nil {
		t.Fatalf("CreateFamily() error = %v", err)
	}

	if err := f.svc.LeaveFamily(alice.UUID, family.UUID); err != nil {
		t.Fatalf("LeaveFamily() error = %v", err)
	}

	summaries, err := f.svc.ListFamilies(alice.UUID)
	if err != nil {
		t.Fatalf("ListFamilies() error = %v", err)
	}
	if len(summaries) != 0 {
		t.Errorf("families after leaving = %+v", summaries)
	}

	if err := f.svc.LeaveFamily(alice.UUID, family.UUID); !errors.Is(err, gift.ErrForbidden) {
		t.Errorf("second LeaveFamily() error = %v, want ErrForbidden", err)
	}
}

func TestGifts(t *testing.T) {
	f := newFixture(t)
	alice, _ := f.signup(t, "alice@example.com")
	bob, _ := f.signup(t, "bob@example.com")
	family, err := f.svc.CreateFamily(alice.UUID, "Smith", "Alice")
	if err != nil {
		t.Fatalf("CreateFamily() error = %v", err)
	}
	f.join(t, alice, family.UUID, bob, "Bob")

	g, err := f.svc.AddGift(alice.UUID, family.UUID, bob.UUID, "socks", "wool, size 42")
	if err != nil {
		t.Fatalf("AddGift() error = %v", err)
	}

	t.Run("title is required", func(t *testing.T) {
		if _, err := f.svc.AddGift(alice.UUID, family.UUID, bob.UUID, "", "x"); err == nil {
			t.Error("AddGift() without title succeeded")
		}
	})

	t.Run("other members see the list", func(t *testing.T) {
		gifts, err := f.svc.ListGifts(alice.UUID, family.UUID, bob.UUID)
		if err != nil {
			t.Fatalf("ListGifts() error = %v", err)
		}
		if len(gifts) != 1 || gifts[0].UUID != g.UUID {
			t.Errorf("ListGifts() = %+v", gifts)
		}
	})

	t.Run("the target does not", func(t *testing.T) {
		_, err := f.svc.ListGifts(bob.UUID, family.UUID, bob.UUID)
		if !errors.Is(err, gift.ErrForbidden) {
			t.Errorf("ListGifts() by target: error = %v, want ErrForbidden", err)
		}
	})

	t.Run("delete", func(t *testing.T) {
		if err := f.svc.DeleteGift(alice.UUID, g.UUID); err != nil {
			t.Fatalf("DeleteGift() error = %v", err)
		}
		var nf *gift.NotFoundError
		if err := f.svc.DeleteGift(alice.UUID, g.UUID); !errors.As(err, &nf) {
			t.Errorf("second DeleteGift() error = %v, want NotFoundError", err)
		}
	})
}
