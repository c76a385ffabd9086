package main

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"strings"

	"giftnest/internal/app"
	"giftnest/internal/auth"
	"giftnest/internal/config"
	"giftnest/internal/gift"
	"giftnest/internal/keycrypt"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newApp reads the config and creates an App. The caller must defer a.Close().
// operation identifies the CLI command being run (e.g. "Login", "GiftAdd").
func newApp(operation string) (*app.App, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.ReadFromFile(defaults["config_path"])
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	a, err := app.New(cfg, operation)
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}

	return a, nil
}

// session returns the current claims plus the unlocked identity key.
func session(a *app.App) (*auth.Claims, *keycrypt.UserPrivateKey, error) {
	claims, err := a.CurrentSession()
	if err != nil {
		return nil, nil, err
	}
	key, err := a.Service().UnlockIdentity(claims.Subject, claims.DerivedKey)
	if err != nil {
		return nil, nil, fmt.Errorf("unlocking identity: %w", err)
	}
	return claims, key, nil
}

// promptPassword reads a password without echo when stdin is a terminal.
func promptPassword(label string) (string, error) {
	fmt.Fprintf(os.Stderr, "%s: ", label)
	if term.IsTerminal(int(os.Stdin.Fd())) {
		raw, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", fmt.Errorf("reading password: %w", err)
		}
		return string(raw), nil
	}

	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

var rootCmd = &cobra.Command{
	Use:   "giftnest",
	Short: "Family gift lists with hidden per-person discussions",
}

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg := config.NewConfig(defaults["base_dir"])

		if err := config.Init(defaults["config_path"], cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", defaults["config_path"])
		fmt.Printf("Base Dir: %s\n", defaults["base_dir"])
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg, err := config.ReadFromFile(defaults["config_path"])
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		fmt.Printf("Configuration from %s:\n\n", defaults["config_path"])
		fmt.Printf("Base Dir:  %s\n", cfg.BaseDir)
		fmt.Printf("Log Dir:   %s\n", cfg.LogDir)
		fmt.Printf("Database:  %s (%s)\n", cfg.Database.Type, cfg.Database.Path)
		fmt.Printf("SMTP:      %s\n", cfg.SMTP.Type)
		return nil
	},
}

// migrate command
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("getting defaults: %w", err)
		}
		cfg, err := config.ReadFromFile(defaults["config_path"])
		if err != nil {
			return fmt.Errorf("reading config: %w", err)
		}

		if err := app.MigrateDatabase(cfg); err != nil {
			return err
		}
		fmt.Println("Database is up to date.")
		return nil
	},
}

// signup command
var signupCmd = &cobra.Command{
	Use:   "signup EMAIL",
	Short: "Create an account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		password, err := promptPassword("Password")
		if err != nil {
			return err
		}
		confirm, err := promptPassword("Confirm password")
		if err != nil {
			return err
		}
		if password != confirm {
			return fmt.Errorf("passwords do not match")
		}

		a, err := newApp("Signup")
		if err != nil {
			return err
		}
		defer a.Close()

		user, err := a.Service().CreateUser(args[0], password)
		if err != nil {
			return err
		}
		fmt.Printf("Account created: %s (%s)\n", user.Email, user.UUID)
		return nil
	},
}

// login command
var loginCmd = &cobra.Command{
	Use:   "login EMAIL",
	Short: "Log in and store a session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		password, err := promptPassword("Password")
		if err != nil {
			return err
		}

		a, err := newApp("Login")
		if err != nil {
			return err
		}
		defer a.Close()

		sess, err := a.Service().Login(args[0], password)
		if err != nil {
			return err
		}

		token, err := a.Tokens().Issue(sess)
		if err != nil {
			return err
		}
		if err := a.SaveSession(token); err != nil {
			return err
		}

		fmt.Printf("Logged in as %s\n", sess.User.Email)
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Discard the stored session",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("Logout")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.ClearSession(); err != nil {
			return err
		}
		fmt.Println("Logged out.")
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the logged-in account",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("Whoami")
		if err != nil {
			return err
		}
		defer a.Close()

		claims, err := a.CurrentSession()
		if err != nil {
			return err
		}
		fmt.Printf("%s (%s)\n", claims.Email, claims.Subject)
		return nil
	},
}

// family command
var familyCmd = &cobra.Command{
	Use:   "family",
	Short: "Manage families",
}

var familyCreateCmd = &cobra.Command{
	Use:   "create NAME",
	Short: "Create a family",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		memberName, _ := cmd.Flags().GetString("as")

		a, err := newApp("FamilyCreate")
		if err != nil {
			return err
		}
		defer a.Close()

		claims, err := a.CurrentSession()
		if err != nil {
			return err
		}

		family, err := a.Service().CreateFamily(claims.Subject, args[0], memberName)
		if err != nil {
			return err
		}
		fmt.Printf("Family created: %s (%s)\n", family.Name, family.UUID)
		return nil
	},
}

var familyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List your families",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("FamilyList")
		if err != nil {
			return err
		}
		defer a.Close()

		claims, err := a.CurrentSession()
		if err != nil {
			return err
		}

		families, err := a.Service().ListFamilies(claims.Subject)
		if err != nil {
			return err
		}
		if len(families) == 0 {
			fmt.Println("No families.")
			return nil
		}
		for _, f := range families {
			attention := ""
			if f.NeedsAttention {
				attention = "  [requests waiting]"
			}
			fmt.Printf("%s  %s%s\n", f.UUID, f.Name, attention)
		}
		return nil
	},
}

var familyShowCmd = &cobra.Command{
	Use:   "show FAMILY_UUID",
	Short: "Show a family's members",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("FamilyShow")
		if err != nil {
			return err
		}
		defer a.Close()

		claims, err := a.CurrentSession()
		if err != nil {
			return err
		}

		family, members, err := a.Service().GetFamily(claims.Subject, args[0])
		if err != nil {
			return err
		}

		fmt.Printf("%s (%s)\n", family.Name, family.UUID)
		for _, m := range members {
			you := ""
			if m.UserUUID == claims.Subject {
				you = "  [you]"
			}
			fmt.Printf("  %s  %s <%s>%s\n", m.UserUUID, m.Name, m.Email, you)
		}
		return nil
	},
}

var familyInvitationsCmd = &cobra.Command{
	Use:   "invitations FAMILY_UUID",
	Short: "List a family's outstanding invitations",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("FamilyInvitations")
		if err != nil {
			return err
		}
		defer a.Close()

		claims, err := a.CurrentSession()
		if err != nil {
			return err
		}

		invitations, err := a.Service().ListFamilyInvitations(claims.Subject, args[0])
		if err != nil {
			return err
		}
		if len(invitations) == 0 {
			fmt.Println("No outstanding invitations.")
			return nil
		}
		for _, inv := range invitations {
			kind := "member"
			if inv.External {
				kind = "new user"
			}
			fmt.Printf("%s  %s (%s)\n", inv.UUID, inv.Email, kind)
		}
		return nil
	},
}

var familyLeaveCmd = &cobra.Command{
	Use:   "leave FAMILY_UUID",
	Short: "Leave a family",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("FamilyLeave")
		if err != nil {
			return err
		}
		defer a.Close()

		claims, err := a.CurrentSession()
		if err != nil {
			return err
		}

		if err := a.Service().LeaveFamily(claims.Subject, args[0]); err != nil {
			return err
		}
		fmt.Println("Left the family.")
		return nil
	},
}

// invite command
var inviteCmd = &cobra.Command{
	Use:   "invite FAMILY_UUID EMAIL",
	Short: "Invite someone to a family",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("Invite")
		if err != nil {
			return err
		}
		defer a.Close()

		claims, err := a.CurrentSession()
		if err != nil {
			return err
		}

		inv, err := a.Service().Invite(claims.Subject, args[0], args[1])
		if err != nil {
			return err
		}
		kind := "member"
		if inv.External {
			kind = "new user"
		}
		fmt.Printf("Invitation %s sent to %s (%s)\n", inv.UUID, inv.Email, kind)
		return nil
	},
}

// invitations command
var invitationsCmd = &cobra.Command{
	Use:   "invitations",
	Short: "Manage your invitations",
}

var invitationsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List invitations waiting for you",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("InvitationsList")
		if err != nil {
			return err
		}
		defer a.Close()

		claims, err := a.CurrentSession()
		if err != nil {
			return err
		}

		invitations, err := a.Service().ListInvitations(claims.Subject)
		if err != nil {
			return err
		}
		if len(invitations) == 0 {
			fmt.Println("No invitations.")
			return nil
		}
		for _, inv := range invitations {
			fmt.Printf("%s  %s\n", inv.UUID, inv.FamilyName)
		}
		return nil
	},
}

var invitationsAcceptCmd = &cobra.Command{
	Use:   "accept INVITATION_UUID",
	Short: "Accept an invitation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		memberName, _ := cmd.Flags().GetString("as")

		a, err := newApp("InvitationsAccept")
		if err != nil {
			return err
		}
		defer a.Close()

		claims, err := a.CurrentSession()
		if err != nil {
			return err
		}

		if err := a.Service().AcceptInvitation(claims.Subject, args[0], memberName); err != nil {
			return err
		}
		fmt.Println("Joined the family.")
		return nil
	},
}

var invitationsDeclineCmd = &cobra.Command{
	Use:   "decline INVITATION_UUID",
	Short: "Decline an invitation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("InvitationsDecline")
		if err != nil {
			return err
		}
		defer a.Close()

		claims, err := a.CurrentSession()
		if err != nil {
			return err
		}

		if err := a.Service().DeclineInvitation(claims.Subject, args[0]); err != nil {
			return err
		}
		fmt.Println("Invitation declined.")
		return nil
	},
}

// requests command
var requestsCmd = &cobra.Command{
	Use:   "requests",
	Short: "Manage group access requests",
}

var requestsListCmd = &cobra.Command{
	Use:   "list FAMILY_UUID",
	Short: "List requests you can approve",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("RequestsList")
		if err != nil {
			return err
		}
		defer a.Close()

		claims, err := a.CurrentSession()
		if err != nil {
			return err
		}

		requests, err := a.Service().ListGroupRequests(claims.Subject, args[0])
		if err != nil {
			return err
		}
		if len(requests) == 0 {
			fmt.Println("No pending requests.")
			return nil
		}
		for _, r := range requests {
			fmt.Printf("group=%s candidate=%s  %s wants access to %s's list\n",
				r.GroupUUID, r.CandidateUUID, r.CandidateName, r.TargetName)
		}
		return nil
	},
}

var requestsApproveCmd = &cobra.Command{
	Use:   "approve GROUP_UUID CANDIDATE_UUID",
	Short: "Grant a candidate access to a group",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("RequestsApprove")
		if err != nil {
			return err
		}
		defer a.Close()

		claims, key, err := session(a)
		if err != nil {
			return err
		}

		if err := a.Service().ApproveGroupRequest(claims.Subject, key, args[0], args[1]); err != nil {
			return err
		}
		fmt.Println("Access granted.")
		return nil
	},
}

// gift command
var giftCmd = &cobra.Command{
	Use:   "gift",
	Short: "Manage gift ideas",
}

var giftAddCmd = &cobra.Command{
	Use:   "add FAMILY_UUID TARGET_UUID TITLE",
	Short: "Add a gift idea for a family member",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		content, _ := cmd.Flags().GetString("content")

		a, err := newApp("GiftAdd")
		if err != nil {
			return err
		}
		defer a.Close()

		claims, err := a.CurrentSession()
		if err != nil {
			return err
		}

		g, err := a.Service().AddGift(claims.Subject, args[0], args[1], args[2], content)
		if err != nil {
			return err
		}
		fmt.Printf("Gift added: %s (%s)\n", g.Title, g.UUID)
		return nil
	},
}

var giftDeleteCmd = &cobra.Command{
	Use:   "delete GIFT_UUID",
	Short: "Delete a gift idea",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("GiftDelete")
		if err != nil {
			return err
		}
		defer a.Close()

		claims, err := a.CurrentSession()
		if err != nil {
			return err
		}

		if err := a.Service().DeleteGift(claims.Subject, args[0]); err != nil {
			return err
		}
		fmt.Println("Gift deleted.")
		return nil
	},
}

var giftClaimCmd = &cobra.Command{
	Use:   "claim FAMILY_UUID TARGET_UUID GIFT_UUID",
	Short: "Mark a gift as taken by you",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("GiftClaim")
		if err != nil {
			return err
		}
		defer a.Close()

		claims, key, err := session(a)
		if err != nil {
			return err
		}

		if err := a.Service().ClaimGift(claims.Subject, key, args[0], args[1], args[2]); err != nil {
			return err
		}
		fmt.Println("Gift claimed.")
		return nil
	},
}

var giftReleaseCmd = &cobra.Command{
	Use:   "release FAMILY_UUID TARGET_UUID GIFT_UUID",
	Short: "Give up your claim on a gift",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("GiftRelease")
		if err != nil {
			return err
		}
		defer a.Close()

		claims, key, err := session(a)
		if err != nil {
			return err
		}

		if err := a.Service().ReleaseGift(claims.Subject, key, args[0], args[1], args[2]); err != nil {
			return err
		}
		fmt.Println("Gift released.")
		return nil
	},
}

// member command
var memberCmd = &cobra.Command{
	Use:   "member",
	Short: "View family members' gift lists",
}

var memberShowCmd = &cobra.Command{
	Use:   "show FAMILY_UUID TARGET_UUID",
	Short: "Show a member's gifts and hidden discussion",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("MemberShow")
		if err != nil {
			return err
		}
		defer a.Close()

		claims, key, err := session(a)
		if err != nil {
			return err
		}

		data, err := a.Service().GetMemberData(claims.Subject, key, args[0], args[1])
		if err != nil {
			return err
		}

		if len(data.Gifts) == 0 {
			fmt.Println("No gifts yet.")
		}
		for _, g := range data.Gifts {
			fmt.Printf("%s  %s\n", g.UUID, g.Title)
			if g.Content != "" {
				fmt.Printf("    %s\n", g.Content)
			}
			printGiftPrivateData(data, g.UUID)
		}
		if !data.HasAccess {
			fmt.Println("\n(hidden discussion not available: access request still pending)")
		}
		return nil
	},
}

// printGiftPrivateData prints the claim state and discussion thread for one
// gift, if the viewer can see them.
func printGiftPrivateData(data *gift.MemberData, giftUUID string) {
	if !data.HasAccess {
		return
	}
	pd, ok := data.PrivateData[giftUUID]
	if !ok {
		return
	}
	if pd.TakenBy != nil {
		fmt.Printf("    taken by %s\n", *pd.TakenBy)
	}
	for _, m := range pd.Messages {
		fmt.Printf("    [%s] %s: %s\n", m.Timestamp, m.UserUUID, m.Content)
	}
}

// message command
var messageCmd = &cobra.Command{
	Use:   "message",
	Short: "Discuss gifts out of the target's sight",
}

var messagePostCmd = &cobra.Command{
	Use:   "post FAMILY_UUID TARGET_UUID GIFT_UUID TEXT",
	Short: "Post to a gift's hidden discussion",
	Args:  cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("MessagePost")
		if err != nil {
			return err
		}
		defer a.Close()

		claims, key, err := session(a)
		if err != nil {
			return err
		}

		if err := a.Service().PostMessage(claims.Subject, key, args[0], args[1], args[2], args[3]); err != nil {
			return err
		}
		fmt.Println("Message posted.")
		return nil
	},
}

// user command
var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage accounts",
}

var userListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all accounts",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("UserList")
		if err != nil {
			return err
		}
		defer a.Close()

		users, err := a.Service().ListUsers()
		if err != nil {
			return err
		}
		sort.Slice(users, func(i, j int) bool { return users[i].Email < users[j].Email })
		for _, u := range users {
			fmt.Printf("%s  %s\n", u.UUID, u.Email)
		}
		return nil
	},
}

// backup command
var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Manage encrypted database snapshots",
}

var backupKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Set up snapshot encryption keys",
	RunE: func(cmd *cobra.Command, args []string) error {
		passphrase, err := promptPassword("Backup passphrase")
		if err != nil {
			return err
		}
		confirm, err := promptPassword("Confirm passphrase")
		if err != nil {
			return err
		}
		if passphrase != confirm {
			return fmt.Errorf("passphrases do not match")
		}

		a, err := newApp("BackupKeys")
		if err != nil {
			return err
		}
		defer a.Close()

		cipher, err := a.BackupCipher()
		if err != nil {
			return err
		}
		if err := cipher.Setup(passphrase); err != nil {
			return err
		}
		fmt.Println("Backup keys generated.")
		return nil
	},
}

var backupRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Snapshot the database to the backup vault",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("BackupRun")
		if err != nil {
			return err
		}
		defer a.Close()

		svc, err := a.BackupService(cmd.Context())
		if err != nil {
			return err
		}
		name, err := svc.Run(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("Snapshot stored: %s\n", name)
		return nil
	},
}

var backupListCmd = &cobra.Command{
	Use:   "list",
	Short: "List snapshots in the backup vault",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("BackupList")
		if err != nil {
			return err
		}
		defer a.Close()

		svc, err := a.BackupService(cmd.Context())
		if err != nil {
			return err
		}
		names, err := svc.List(cmd.Context())
		if err != nil {
			return err
		}
		if len(names) == 0 {
			fmt.Println("No snapshots.")
			return nil
		}
		for _, name := range names {
			fmt.Println(name)
		}
		return nil
	},
}

var backupRestoreCmd = &cobra.Command{
	Use:   "restore SNAPSHOT DEST",
	Short: "Restore a snapshot to a new database file",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		passphrase, err := promptPassword("Backup passphrase")
		if err != nil {
			return err
		}

		a, err := newApp("BackupRestore")
		if err != nil {
			return err
		}
		defer a.Close()

		svc, err := a.BackupService(cmd.Context())
		if err != nil {
			return err
		}
		if err := svc.Restore(cmd.Context(), args[0], passphrase, args[1]); err != nil {
			return err
		}
		fmt.Printf("Snapshot restored to %s\n", args[1])
		return nil
	},
}

func init() {
	// config subcommands
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)

	// family subcommands
	familyCmd.AddCommand(familyCreateCmd)
	familyCreateCmd.Flags().String("as", "", "Your display name within the family")
	familyCmd.AddCommand(familyListCmd)
	familyCmd.AddCommand(familyShowCmd)
	familyCmd.AddCommand(familyInvitationsCmd)
	familyCmd.AddCommand(familyLeaveCmd)

	// invitations subcommands
	invitationsCmd.AddCommand(invitationsListCmd)
	invitationsCmd.AddCommand(invitationsAcceptCmd)
	invitationsAcceptCmd.Flags().String("as", "", "Your display name within the family")
	invitationsCmd.AddCommand(invitationsDeclineCmd)

	// requests subcommands
	requestsCmd.AddCommand(requestsListCmd)
	requestsCmd.AddCommand(requestsApproveCmd)

	// gift subcommands
	giftCmd.AddCommand(giftAddCmd)
	giftAddCmd.Flags().String("content", "", "Description or link for the gift")
	giftCmd.AddCommand(giftDeleteCmd)
	giftCmd.AddCommand(giftClaimCmd)
	giftCmd.AddCommand(giftReleaseCmd)

	// member subcommands
	memberCmd.AddCommand(memberShowCmd)

	// message subcommands
	messageCmd.AddCommand(messagePostCmd)

	// user subcommands
	userCmd.AddCommand(userListCmd)

	// backup subcommands
	backupCmd.AddCommand(backupKeysCmd)
	backupCmd.AddCommand(backupRunCmd)
	backupCmd.AddCommand(backupListCmd)
	backupCmd.AddCommand(backupRestoreCmd)

	// root commands
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(signupCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)
	rootCmd.AddCommand(userCmd)
	rootCmd.AddCommand(familyCmd)
	rootCmd.AddCommand(inviteCmd)
	rootCmd.AddCommand(invitationsCmd)
	rootCmd.AddCommand(requestsCmd)
	rootCmd.AddCommand(giftCmd)
	rootCmd.AddCommand(memberCmd)
	rootCmd.AddCommand(messageCmd)
	rootCmd.AddCommand(backupCmd)
}
