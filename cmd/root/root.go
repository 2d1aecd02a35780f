// Package root contains the root command for the application
package root

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"psheikomaniac/club-ledger/internal/classifier"
	"psheikomaniac/club-ledger/internal/config"
	"psheikomaniac/club-ledger/internal/importer"
	"psheikomaniac/club-ledger/internal/ledger"
	"psheikomaniac/club-ledger/internal/models"
	"psheikomaniac/club-ledger/internal/store"
)

var (
	// Log is the shared logger instance for commands
	Log = logrus.New()

	// Cfg holds the resolved application configuration
	Cfg *config.Config

	// Cmd is the root command
	Cmd = &cobra.Command{
		Use:   "club-ledger",
		Short: "A CLI tool to track club fines, dues, drinks and payments per member.",
		Long: `club-ledger keeps a per-member ledger of fines, membership dues,
beverage debts and payments, with bulk import from the club's CSV exports.`,
		Run: func(cmd *cobra.Command, args []string) {
			Log.Info("Welcome to club-ledger!")
			Log.Info("Use --help to see available commands")
		},
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			config.LoadEnv()
			Log = config.ConfigureLogging()

			ledger.SetLogger(Log)
			importer.SetLogger(Log)

			cfg, err := config.InitializeConfig()
			if err != nil {
				Log.Fatalf("Error loading configuration: %v", err)
			}
			Cfg = cfg
		},
	}

	// DatabasePath overrides the configured database path when set.
	DatabasePath string
)

// Init initializes the root command and all flags
func Init() {
	Cmd.PersistentFlags().StringVarP(&DatabasePath, "database", "d", "", "Path to the sqlite database (overrides config)")
}

// OpenStore opens the sqlite store at the resolved database path.
func OpenStore() *store.Store {
	path := DatabasePath
	if path == "" {
		path = Cfg.Database.Path
	}

	st, err := store.New(path)
	if err != nil {
		Log.Fatalf("Error opening database %s: %v", path, err)
	}
	return st
}

// OpenService opens the store and wraps it in a ledger service.
func OpenService() (*store.Store, *ledger.Service) {
	st := OpenStore()
	return st, ledger.NewService(st)
}

// NewClassifier builds a classifier from the configured vocabulary file,
// falling back to the embedded defaults when none is configured.
func NewClassifier() *classifier.Classifier {
	vocab, err := classifier.LoadVocabulary(Cfg.Import.Vocabulary)
	if err != nil {
		Log.Fatalf("Error loading vocabulary: %v", err)
	}
	return classifier.New(vocab)
}

// ResolveMember finds a member by name. When create is set and no member
// matches, one is created through the service.
func ResolveMember(cmd *cobra.Command, st *store.Store, svc *ledger.Service, name string, create bool) *models.Member {
	member, err := st.GetMemberByName(cmd.Context(), name)
	if err != nil {
		Log.Fatalf("Error looking up member %q: %v", name, err)
	}
	if member != nil {
		return member
	}
	if !create {
		Log.Fatalf("No member named %q (use --create-member to add one)", name)
	}

	member, err = svc.CreateMember(cmd.Context(), name, "")
	if err != nil {
		Log.Fatalf("Error creating member %q: %v", name, err)
	}
	Log.WithField("member", name).Info("Created member")
	return member
}
